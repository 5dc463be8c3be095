package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/store/repository"
)

// PredictionService records model predictions and grades them once the
// linked games finish.
type PredictionService struct {
	predictionRepo *repository.PredictionRepository
	gameRepo       *repository.GameRepository
}

// NewPredictionService creates a new prediction service
func NewPredictionService(db *store.Database) *PredictionService {
	return &PredictionService{
		predictionRepo: repository.NewPredictionRepository(db),
		gameRepo:       repository.NewGameRepository(db),
	}
}

// PredictionInput is the caller-supplied forecast for one game.
type PredictionInput struct {
	GameID             string   `json:"game_id"`
	PredictedWinner    string   `json:"predicted_winner"`
	WinConfidence      *float64 `json:"win_confidence,omitempty"`
	HomeWinProb        *float64 `json:"home_win_prob,omitempty"`
	AwayWinProb        *float64 `json:"away_win_prob,omitempty"`
	PredictedHomeScore *float64 `json:"predicted_home_score,omitempty"`
	PredictedAwayScore *float64 `json:"predicted_away_score,omitempty"`
}

// RecordPrediction upserts a prediction for a game, denormalising
// season/week/teams and capturing the Vegas line at prediction time.
// Re-recording a game resets any previously reconciled outcome.
func (s *PredictionService) RecordPrediction(ctx context.Context, in PredictionInput) (*store.MLPrediction, error) {
	if in.GameID == "" {
		return nil, fmt.Errorf("%w: game_id is required", ErrBadRequest)
	}

	game, err := s.gameRepo.GetByID(ctx, in.GameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %q", ErrNotFound, in.GameID)
	}

	if in.PredictedWinner != "" &&
		in.PredictedWinner != game.HomeTeam && in.PredictedWinner != game.AwayTeam {
		return nil, fmt.Errorf("%w: predicted winner %q is neither side of %s",
			ErrBadRequest, in.PredictedWinner, in.GameID)
	}

	p := &store.MLPrediction{
		GameID:   game.GameID,
		Season:   game.Season,
		Week:     game.Week,
		HomeTeam: game.HomeTeam,
		AwayTeam: game.AwayTeam,
		GameDate: game.GameDate,

		PredictedWinner: nullStr(in.PredictedWinner),
		WinConfidence:   nullFloat(in.WinConfidence),
		HomeWinProb:     nullFloat(in.HomeWinProb),
		AwayWinProb:     nullFloat(in.AwayWinProb),

		PredictedHomeScore: nullFloat(in.PredictedHomeScore),
		PredictedAwayScore: nullFloat(in.PredictedAwayScore),

		VegasSpread: game.SpreadLine,
		VegasTotal:  game.TotalLine,
	}

	if in.PredictedHomeScore != nil && in.PredictedAwayScore != nil {
		margin := *in.PredictedHomeScore - *in.PredictedAwayScore
		p.PredictedMargin = sql.NullFloat64{Float64: margin, Valid: true}
		// The model's own line, in the stored spread convention.
		p.AISpread = sql.NullFloat64{Float64: -margin, Valid: true}
	}

	id, err := s.predictionRepo.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("recording prediction: %w", err)
	}
	p.PredictionID = id
	return p, nil
}

// GetPrediction returns the prediction for a game.
func (s *PredictionService) GetPrediction(ctx context.Context, gameID string) (*store.MLPrediction, error) {
	p, err := s.predictionRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching prediction: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: no prediction for game %q", ErrNotFound, gameID)
	}
	return p, nil
}

// ListPredictions returns a week's predictions.
func (s *PredictionService) ListPredictions(ctx context.Context, season, week int) ([]*store.MLPrediction, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}
	if err := validateWeek(week); err != nil {
		return nil, err
	}
	return s.predictionRepo.ListByWeek(ctx, season, week)
}

// Reconcile grades every ungraded prediction whose game now has final
// scores, optionally restricted to one (season, week). Returns the
// number of predictions graded.
func (s *PredictionService) Reconcile(ctx context.Context, season, week int) (int, error) {
	if season != 0 {
		if err := validateSeason(season); err != nil {
			return 0, err
		}
	}
	if week != 0 {
		if err := validateWeek(week); err != nil {
			return 0, err
		}
	}

	rows, err := s.predictionRepo.ListUnreconciled(ctx, season, week)
	if err != nil {
		return 0, fmt.Errorf("listing unreconciled predictions: %w", err)
	}

	graded := 0
	for _, row := range rows {
		ApplyOutcome(row.Prediction, row.ActualHomeScore, row.ActualAwayScore)
		if err := s.predictionRepo.ApplyOutcome(ctx, row.Prediction); err != nil {
			return graded, err
		}
		graded++
	}

	if graded > 0 {
		log.Printf("[predictions] ✓ reconciled %d prediction(s)", graded)
	}
	return graded, nil
}

// Performance returns accuracy aggregates over graded predictions.
// season 0 means all seasons.
func (s *PredictionService) Performance(ctx context.Context, season int) (*repository.PerformanceStats, error) {
	if season != 0 {
		if err := validateSeason(season); err != nil {
			return nil, err
		}
	}
	return s.predictionRepo.GetPerformance(ctx, season)
}

// VegasComparison returns per-season AI-vs-Vegas spread accuracy.
// season 0 means all seasons.
func (s *PredictionService) VegasComparison(ctx context.Context, season int) ([]*repository.SpreadComparison, error) {
	if season != 0 {
		if err := validateSeason(season); err != nil {
			return nil, err
		}
	}
	return s.predictionRepo.ListSpreadComparison(ctx, season)
}

// ApplyOutcome fills the realised and derived fields of a prediction
// from the final score. Errors are signed: predicted minus actual. A tie
// leaves actual_winner and win_prediction_correct null.
func ApplyOutcome(p *store.MLPrediction, actualHome, actualAway int) {
	p.ActualHomeScore = sql.NullInt32{Int32: int32(actualHome), Valid: true}
	p.ActualAwayScore = sql.NullInt32{Int32: int32(actualAway), Valid: true}
	margin := actualHome - actualAway
	p.ActualMargin = sql.NullInt32{Int32: int32(margin), Valid: true}

	switch {
	case actualHome > actualAway:
		p.ActualWinner = sql.NullString{String: p.HomeTeam, Valid: true}
	case actualAway > actualHome:
		p.ActualWinner = sql.NullString{String: p.AwayTeam, Valid: true}
	default:
		p.ActualWinner = sql.NullString{}
	}

	if p.ActualWinner.Valid && p.PredictedWinner.Valid {
		p.WinPredictionCorrect = sql.NullBool{
			Bool:  p.PredictedWinner.String == p.ActualWinner.String,
			Valid: true,
		}
	} else {
		p.WinPredictionCorrect = sql.NullBool{}
	}

	if p.PredictedHomeScore.Valid {
		p.ScorePredictionErrorHome = sql.NullFloat64{
			Float64: p.PredictedHomeScore.Float64 - float64(actualHome), Valid: true}
	}
	if p.PredictedAwayScore.Valid {
		p.ScorePredictionErrorAway = sql.NullFloat64{
			Float64: p.PredictedAwayScore.Float64 - float64(actualAway), Valid: true}
	}
	if p.PredictedMargin.Valid {
		p.MarginPredictionError = sql.NullFloat64{
			Float64: p.PredictedMargin.Float64 - float64(margin), Valid: true}
	}
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
