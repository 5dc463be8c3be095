package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lombardo/gridiron/internal/store"
)

// PredictionRepository handles ml_predictions rows in the configured schema.
type PredictionRepository struct {
	db *store.Database
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *store.Database) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `prediction_id, game_id, season, week, home_team, away_team, game_date,
	predicted_winner, win_confidence, home_win_prob, away_win_prob,
	predicted_home_score, predicted_away_score, predicted_margin, ai_spread,
	vegas_spread, vegas_total,
	actual_winner, actual_home_score, actual_away_score, actual_margin,
	win_prediction_correct, score_prediction_error_home,
	score_prediction_error_away, margin_prediction_error,
	predicted_at, result_recorded_at`

// Upsert records a prediction, keyed by game_id. Re-submitting a prediction
// for the same game replaces the forecast fields and resets any reconciled
// outcome so the next reconcile pass grades the new numbers.
func (r *PredictionRepository) Upsert(ctx context.Context, p *store.MLPrediction) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s.ml_predictions (
			game_id, season, week, home_team, away_team, game_date,
			predicted_winner, win_confidence, home_win_prob, away_win_prob,
			predicted_home_score, predicted_away_score, predicted_margin, ai_spread,
			vegas_spread, vegas_total
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (game_id) DO UPDATE SET
			season = EXCLUDED.season,
			week = EXCLUDED.week,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			game_date = EXCLUDED.game_date,
			predicted_winner = EXCLUDED.predicted_winner,
			win_confidence = EXCLUDED.win_confidence,
			home_win_prob = EXCLUDED.home_win_prob,
			away_win_prob = EXCLUDED.away_win_prob,
			predicted_home_score = EXCLUDED.predicted_home_score,
			predicted_away_score = EXCLUDED.predicted_away_score,
			predicted_margin = EXCLUDED.predicted_margin,
			ai_spread = EXCLUDED.ai_spread,
			vegas_spread = EXCLUDED.vegas_spread,
			vegas_total = EXCLUDED.vegas_total,
			actual_winner = NULL,
			actual_home_score = NULL,
			actual_away_score = NULL,
			actual_margin = NULL,
			win_prediction_correct = NULL,
			score_prediction_error_home = NULL,
			score_prediction_error_away = NULL,
			margin_prediction_error = NULL,
			predicted_at = NOW(),
			result_recorded_at = NULL
		RETURNING prediction_id
	`, r.db.Schema())

	var id int
	err := r.db.DB().QueryRowContext(ctx, query,
		p.GameID, p.Season, p.Week, p.HomeTeam, p.AwayTeam, p.GameDate,
		p.PredictedWinner, p.WinConfidence, p.HomeWinProb, p.AwayWinProb,
		p.PredictedHomeScore, p.PredictedAwayScore, p.PredictedMargin, p.AISpread,
		p.VegasSpread, p.VegasTotal,
	).Scan(&id)
	if err != nil {
		return 0, store.ClassifyError(fmt.Errorf("upserting prediction for %s: %w", p.GameID, err))
	}
	return id, nil
}

// GetByGame finds the prediction for a game, or nil when none exists.
func (r *PredictionRepository) GetByGame(ctx context.Context, gameID string) (*store.MLPrediction, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.ml_predictions WHERE game_id = $1`,
		predictionColumns, r.db.Schema())

	p := &store.MLPrediction{}
	err := r.scanPrediction(r.db.DB().QueryRowContext(ctx, query, gameID), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying prediction for %s: %w", gameID, err)
	}
	return p, nil
}

// ListByWeek returns all predictions for a (season, week).
func (r *PredictionRepository) ListByWeek(ctx context.Context, season, week int) ([]*store.MLPrediction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s.ml_predictions
		WHERE season = $1 AND week = $2
		ORDER BY game_date NULLS LAST, game_id
	`, predictionColumns, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season, week)
	if err != nil {
		return nil, fmt.Errorf("querying predictions for week: %w", err)
	}
	defer rows.Close()

	return r.scanPredictions(rows)
}

// UnreconciledRow pairs an ungraded prediction with the final score of
// its game. Only games with both scores recorded qualify.
type UnreconciledRow struct {
	Prediction      *store.MLPrediction
	ActualHomeScore int
	ActualAwayScore int
}

// ListUnreconciled returns predictions whose games have final scores but
// whose outcome fields are still null, oldest first. season/week of 0
// mean no filter.
func (r *PredictionRepository) ListUnreconciled(ctx context.Context, season, week int) ([]*UnreconciledRow, error) {
	query := fmt.Sprintf(`
		SELECT %s, g.home_score, g.away_score
		FROM %s.ml_predictions p
		JOIN %s.games g ON g.game_id = p.game_id
		WHERE p.result_recorded_at IS NULL
			AND g.home_score IS NOT NULL AND g.away_score IS NOT NULL
			AND ($1 = 0 OR p.season = $1)
			AND ($2 = 0 OR p.week = $2)
		ORDER BY p.season, p.week, p.game_id
	`, prefixColumns("p", predictionColumns), r.db.Schema(), r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season, week)
	if err != nil {
		return nil, fmt.Errorf("querying unreconciled predictions: %w", err)
	}
	defer rows.Close()

	var out []*UnreconciledRow
	for rows.Next() {
		row := &UnreconciledRow{Prediction: &store.MLPrediction{}}
		p := row.Prediction
		err := rows.Scan(
			&p.PredictionID, &p.GameID, &p.Season, &p.Week, &p.HomeTeam, &p.AwayTeam, &p.GameDate,
			&p.PredictedWinner, &p.WinConfidence, &p.HomeWinProb, &p.AwayWinProb,
			&p.PredictedHomeScore, &p.PredictedAwayScore, &p.PredictedMargin, &p.AISpread,
			&p.VegasSpread, &p.VegasTotal,
			&p.ActualWinner, &p.ActualHomeScore, &p.ActualAwayScore, &p.ActualMargin,
			&p.WinPredictionCorrect, &p.ScorePredictionErrorHome,
			&p.ScorePredictionErrorAway, &p.MarginPredictionError,
			&p.PredictedAt, &p.ResultRecordedAt,
			&row.ActualHomeScore, &row.ActualAwayScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning unreconciled prediction: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ApplyOutcome stores the graded result for one prediction.
func (r *PredictionRepository) ApplyOutcome(ctx context.Context, p *store.MLPrediction) error {
	query := fmt.Sprintf(`
		UPDATE %s.ml_predictions SET
			actual_winner = $2,
			actual_home_score = $3,
			actual_away_score = $4,
			actual_margin = $5,
			win_prediction_correct = $6,
			score_prediction_error_home = $7,
			score_prediction_error_away = $8,
			margin_prediction_error = $9,
			result_recorded_at = NOW()
		WHERE prediction_id = $1
	`, r.db.Schema())

	_, err := r.db.DB().ExecContext(ctx, query,
		p.PredictionID,
		p.ActualWinner, p.ActualHomeScore, p.ActualAwayScore, p.ActualMargin,
		p.WinPredictionCorrect, p.ScorePredictionErrorHome,
		p.ScorePredictionErrorAway, p.MarginPredictionError,
	)
	if err != nil {
		return fmt.Errorf("applying outcome for prediction %d: %w", p.PredictionID, err)
	}
	return nil
}

// PerformanceStats summarises graded predictions over a season (or all
// seasons when season is 0).
type PerformanceStats struct {
	Season          int             `json:"season,omitempty"`
	TotalGraded     int             `json:"total_graded"`
	WinsCorrect     int             `json:"wins_correct"`
	WinAccuracy     sql.NullFloat64 `json:"win_accuracy,omitempty"`
	AvgMarginError  sql.NullFloat64 `json:"avg_margin_error,omitempty"`
	AvgAbsMarginErr sql.NullFloat64 `json:"avg_abs_margin_error,omitempty"`
	AvgScoreErrHome sql.NullFloat64 `json:"avg_score_error_home,omitempty"`
	AvgScoreErrAway sql.NullFloat64 `json:"avg_score_error_away,omitempty"`
}

// GetPerformance aggregates graded predictions. The signed margin average
// exposes systematic bias; the absolute average exposes raw accuracy.
func (r *PredictionRepository) GetPerformance(ctx context.Context, season int) (*PerformanceStats, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE win_prediction_correct),
			AVG(CASE WHEN win_prediction_correct THEN 1.0 ELSE 0.0 END),
			AVG(margin_prediction_error),
			AVG(ABS(margin_prediction_error)),
			AVG(score_prediction_error_home),
			AVG(score_prediction_error_away)
		FROM %s.ml_predictions
		WHERE result_recorded_at IS NOT NULL
			AND ($1 = 0 OR season = $1)
	`, r.db.Schema())

	st := &PerformanceStats{Season: season}
	err := r.db.DB().QueryRowContext(ctx, query, season).Scan(
		&st.TotalGraded, &st.WinsCorrect, &st.WinAccuracy,
		&st.AvgMarginError, &st.AvgAbsMarginErr,
		&st.AvgScoreErrHome, &st.AvgScoreErrAway,
	)
	if err != nil {
		return nil, fmt.Errorf("querying prediction performance: %w", err)
	}
	return st, nil
}

// SpreadComparison compares the model's line against the Vegas line for
// one season of graded predictions.
type SpreadComparison struct {
	Season        int             `json:"season"`
	Games         int             `json:"games"`
	AICloser      int             `json:"ai_closer"`
	VegasCloser   int             `json:"vegas_closer"`
	Pushes        int             `json:"pushes"`
	AvgAIError    sql.NullFloat64 `json:"avg_ai_error,omitempty"`
	AvgVegasError sql.NullFloat64 `json:"avg_vegas_error,omitempty"`
}

// ListSpreadComparison returns per-season AI-vs-Vegas accuracy over graded
// predictions that carry both lines. A line's error is the distance between
// the home margin it implies (the negated spread) and the actual margin.
// season 0 means all seasons.
func (r *PredictionRepository) ListSpreadComparison(ctx context.Context, season int) ([]*SpreadComparison, error) {
	query := fmt.Sprintf(`
		SELECT season,
			COUNT(*),
			COUNT(*) FILTER (WHERE ABS(ai_spread + actual_margin) < ABS(vegas_spread + actual_margin)),
			COUNT(*) FILTER (WHERE ABS(ai_spread + actual_margin) > ABS(vegas_spread + actual_margin)),
			COUNT(*) FILTER (WHERE ABS(ai_spread + actual_margin) = ABS(vegas_spread + actual_margin)),
			AVG(ABS(ai_spread + actual_margin)),
			AVG(ABS(vegas_spread + actual_margin))
		FROM %s.ml_predictions
		WHERE result_recorded_at IS NOT NULL
			AND ai_spread IS NOT NULL AND vegas_spread IS NOT NULL
			AND ($1 = 0 OR season = $1)
		GROUP BY season
		ORDER BY season
	`, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("querying spread comparison: %w", err)
	}
	defer rows.Close()

	var out []*SpreadComparison
	for rows.Next() {
		sc := &SpreadComparison{}
		err := rows.Scan(&sc.Season, &sc.Games, &sc.AICloser, &sc.VegasCloser, &sc.Pushes,
			&sc.AvgAIError, &sc.AvgVegasError)
		if err != nil {
			return nil, fmt.Errorf("scanning spread comparison: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *PredictionRepository) scanPrediction(row gameScanner, p *store.MLPrediction) error {
	return row.Scan(
		&p.PredictionID, &p.GameID, &p.Season, &p.Week, &p.HomeTeam, &p.AwayTeam, &p.GameDate,
		&p.PredictedWinner, &p.WinConfidence, &p.HomeWinProb, &p.AwayWinProb,
		&p.PredictedHomeScore, &p.PredictedAwayScore, &p.PredictedMargin, &p.AISpread,
		&p.VegasSpread, &p.VegasTotal,
		&p.ActualWinner, &p.ActualHomeScore, &p.ActualAwayScore, &p.ActualMargin,
		&p.WinPredictionCorrect, &p.ScorePredictionErrorHome,
		&p.ScorePredictionErrorAway, &p.MarginPredictionError,
		&p.PredictedAt, &p.ResultRecordedAt,
	)
}

func (r *PredictionRepository) scanPredictions(rows *sql.Rows) ([]*store.MLPrediction, error) {
	var all []*store.MLPrediction
	for rows.Next() {
		p := &store.MLPrediction{}
		if err := r.scanPrediction(rows, p); err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		all = append(all, p)
	}
	return all, rows.Err()
}
