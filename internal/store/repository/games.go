package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lombardo/gridiron/internal/store"
)

// GameRepository handles game rows in the configured schema.
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_id, season, week, game_date, kickoff_time_utc,
	home_team, away_team, stadium, is_postseason, home_score, away_score,
	spread_line, total_line, home_moneyline, away_moneyline,
	home_spread_odds, away_spread_odds, over_odds, under_odds,
	roof, surface, temp, wind,
	referee, home_coach, away_coach, home_qb_name, away_qb_name,
	home_rest, away_rest, is_divisional_game, overtime,
	created_at, updated_at`

// UpsertTx writes a slice of games inside the caller's transaction.
// Conflict key is game_id; all non-key fields are overwritten, updated_at
// advances, created_at is preserved by never appearing in the update set.
func (r *GameRepository) UpsertTx(ctx context.Context, tx *sql.Tx, games []*store.Game) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s.games (
			game_id, season, week, game_date, kickoff_time_utc,
			home_team, away_team, stadium, is_postseason, home_score, away_score,
			spread_line, total_line, home_moneyline, away_moneyline,
			home_spread_odds, away_spread_odds, over_odds, under_odds,
			roof, surface, temp, wind,
			referee, home_coach, away_coach, home_qb_name, away_qb_name,
			home_rest, away_rest, is_divisional_game, overtime
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
			$30, $31, $32)
		ON CONFLICT (game_id) DO UPDATE SET
			season = EXCLUDED.season,
			week = EXCLUDED.week,
			game_date = EXCLUDED.game_date,
			kickoff_time_utc = EXCLUDED.kickoff_time_utc,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			stadium = EXCLUDED.stadium,
			is_postseason = EXCLUDED.is_postseason,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			spread_line = EXCLUDED.spread_line,
			total_line = EXCLUDED.total_line,
			home_moneyline = EXCLUDED.home_moneyline,
			away_moneyline = EXCLUDED.away_moneyline,
			home_spread_odds = EXCLUDED.home_spread_odds,
			away_spread_odds = EXCLUDED.away_spread_odds,
			over_odds = EXCLUDED.over_odds,
			under_odds = EXCLUDED.under_odds,
			roof = EXCLUDED.roof,
			surface = EXCLUDED.surface,
			temp = EXCLUDED.temp,
			wind = EXCLUDED.wind,
			referee = EXCLUDED.referee,
			home_coach = EXCLUDED.home_coach,
			away_coach = EXCLUDED.away_coach,
			home_qb_name = EXCLUDED.home_qb_name,
			away_qb_name = EXCLUDED.away_qb_name,
			home_rest = EXCLUDED.home_rest,
			away_rest = EXCLUDED.away_rest,
			is_divisional_game = EXCLUDED.is_divisional_game,
			overtime = EXCLUDED.overtime,
			updated_at = NOW()
	`, r.db.Schema())

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing game upsert: %w", err)
	}
	defer stmt.Close()

	for _, g := range games {
		_, err := stmt.ExecContext(ctx,
			g.GameID, g.Season, g.Week, g.GameDate, g.KickoffTimeUTC,
			g.HomeTeam, g.AwayTeam, g.Stadium, g.IsPostseason, g.HomeScore, g.AwayScore,
			g.SpreadLine, g.TotalLine, g.HomeMoneyline, g.AwayMoneyline,
			g.HomeSpreadOdds, g.AwaySpreadOdds, g.OverOdds, g.UnderOdds,
			g.Roof, g.Surface, g.Temp, g.Wind,
			g.Referee, g.HomeCoach, g.AwayCoach, g.HomeQBName, g.AwayQBName,
			g.HomeRest, g.AwayRest, g.IsDivisionalGame, g.Overtime,
		)
		if err != nil {
			return 0, store.ClassifyError(fmt.Errorf("upserting game %s: %w", g.GameID, err))
		}
	}

	return len(games), nil
}

// GetByID finds a game by its upstream identifier.
func (r *GameRepository) GetByID(ctx context.Context, gameID string) (*store.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.games WHERE game_id = $1`, gameColumns, r.db.Schema())

	game := &store.Game{}
	err := r.scanGame(r.db.DB().QueryRowContext(ctx, query, gameID), game)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying game %s: %w", gameID, err)
	}
	return game, nil
}

// ListByWeek returns all games for a (season, week), ordered by kickoff.
func (r *GameRepository) ListByWeek(ctx context.Context, season, week int) ([]*store.Game, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s.games
		WHERE season = $1 AND week = $2
		ORDER BY kickoff_time_utc NULLS LAST, game_id
	`, gameColumns, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season, week)
	if err != nil {
		return nil, fmt.Errorf("querying games for week: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// ListUpcoming returns games with no scores yet whose date falls within
// [from, from+horizonDays].
func (r *GameRepository) ListUpcoming(ctx context.Context, from time.Time, horizonDays int) ([]*store.Game, error) {
	until := from.AddDate(0, 0, horizonDays)

	query := fmt.Sprintf(`
		SELECT %s FROM %s.games
		WHERE home_score IS NULL AND away_score IS NULL
			AND game_date >= $1 AND game_date <= $2
		ORDER BY game_date, kickoff_time_utc NULLS LAST, game_id
	`, gameColumns, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, from, until)
	if err != nil {
		return nil, fmt.Errorf("querying upcoming games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// CountBySeasonWeek returns the number of game rows stored for a batch.
func (r *GameRepository) CountBySeasonWeek(ctx context.Context, season, week int) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s.games WHERE season = $1 AND week = $2`, r.db.Schema())

	var n int
	if err := r.db.DB().QueryRowContext(ctx, query, season, week).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting games: %w", err)
	}
	return n, nil
}

type gameScanner interface {
	Scan(dest ...interface{}) error
}

func (r *GameRepository) scanGame(row gameScanner, g *store.Game) error {
	return row.Scan(
		&g.GameID, &g.Season, &g.Week, &g.GameDate, &g.KickoffTimeUTC,
		&g.HomeTeam, &g.AwayTeam, &g.Stadium, &g.IsPostseason, &g.HomeScore, &g.AwayScore,
		&g.SpreadLine, &g.TotalLine, &g.HomeMoneyline, &g.AwayMoneyline,
		&g.HomeSpreadOdds, &g.AwaySpreadOdds, &g.OverOdds, &g.UnderOdds,
		&g.Roof, &g.Surface, &g.Temp, &g.Wind,
		&g.Referee, &g.HomeCoach, &g.AwayCoach, &g.HomeQBName, &g.AwayQBName,
		&g.HomeRest, &g.AwayRest, &g.IsDivisionalGame, &g.Overtime,
		&g.CreatedAt, &g.UpdatedAt,
	)
}

func (r *GameRepository) scanGames(rows *sql.Rows) ([]*store.Game, error) {
	var games []*store.Game
	for rows.Next() {
		game := &store.Game{}
		if err := r.scanGame(rows, game); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}
