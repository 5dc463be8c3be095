package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lombardo/gridiron/internal/store"
)

// StatsRepository handles team_game_stats rows in the configured schema.
type StatsRepository struct {
	db *store.Database
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

const statColumns = `game_id, team, opponent, is_home, season, week,
	points, points_allowed, result,
	total_yards, passing_yards, rushing_yards, plays,
	pass_attempts, rush_attempts, completions, sacks_taken,
	interceptions_thrown, fumbles_lost, turnovers, penalties, penalty_yards,
	time_of_possession_sec, first_downs,
	third_down_attempts, third_down_conversions,
	fourth_down_attempts, fourth_down_conversions,
	red_zone_attempts, red_zone_conversions,
	completion_pct, third_down_pct, fourth_down_pct, red_zone_pct,
	yards_per_play, passing_yards_per_game, rushing_yards_per_game,
	epa_per_play, total_epa, pass_epa, rush_epa,
	success_rate, pass_success_rate, rush_success_rate,
	wpa, cpoe, air_yards_per_att, yac_per_completion,
	explosive_play_pct, stuff_rate,
	created_at, updated_at`

// UpsertTx writes team-game rows inside the caller's transaction.
// Conflict key is (game_id, team); created_at is preserved on conflict.
func (r *StatsRepository) UpsertTx(ctx context.Context, tx *sql.Tx, stats []*store.TeamGameStat) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s.team_game_stats (
			game_id, team, opponent, is_home, season, week,
			points, points_allowed, result,
			total_yards, passing_yards, rushing_yards, plays,
			pass_attempts, rush_attempts, completions, sacks_taken,
			interceptions_thrown, fumbles_lost, turnovers, penalties, penalty_yards,
			time_of_possession_sec, first_downs,
			third_down_attempts, third_down_conversions,
			fourth_down_attempts, fourth_down_conversions,
			red_zone_attempts, red_zone_conversions,
			completion_pct, third_down_pct, fourth_down_pct, red_zone_pct,
			yards_per_play, passing_yards_per_game, rushing_yards_per_game,
			epa_per_play, total_epa, pass_epa, rush_epa,
			success_rate, pass_success_rate, rush_success_rate,
			wpa, cpoe, air_yards_per_att, yac_per_completion,
			explosive_play_pct, stuff_rate
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
			$41, $42, $43, $44, $45, $46, $47, $48, $49, $50)
		ON CONFLICT (game_id, team) DO UPDATE SET
			opponent = EXCLUDED.opponent,
			is_home = EXCLUDED.is_home,
			season = EXCLUDED.season,
			week = EXCLUDED.week,
			points = EXCLUDED.points,
			points_allowed = EXCLUDED.points_allowed,
			result = EXCLUDED.result,
			total_yards = EXCLUDED.total_yards,
			passing_yards = EXCLUDED.passing_yards,
			rushing_yards = EXCLUDED.rushing_yards,
			plays = EXCLUDED.plays,
			pass_attempts = EXCLUDED.pass_attempts,
			rush_attempts = EXCLUDED.rush_attempts,
			completions = EXCLUDED.completions,
			sacks_taken = EXCLUDED.sacks_taken,
			interceptions_thrown = EXCLUDED.interceptions_thrown,
			fumbles_lost = EXCLUDED.fumbles_lost,
			turnovers = EXCLUDED.turnovers,
			penalties = EXCLUDED.penalties,
			penalty_yards = EXCLUDED.penalty_yards,
			time_of_possession_sec = EXCLUDED.time_of_possession_sec,
			first_downs = EXCLUDED.first_downs,
			third_down_attempts = EXCLUDED.third_down_attempts,
			third_down_conversions = EXCLUDED.third_down_conversions,
			fourth_down_attempts = EXCLUDED.fourth_down_attempts,
			fourth_down_conversions = EXCLUDED.fourth_down_conversions,
			red_zone_attempts = EXCLUDED.red_zone_attempts,
			red_zone_conversions = EXCLUDED.red_zone_conversions,
			completion_pct = EXCLUDED.completion_pct,
			third_down_pct = EXCLUDED.third_down_pct,
			fourth_down_pct = EXCLUDED.fourth_down_pct,
			red_zone_pct = EXCLUDED.red_zone_pct,
			yards_per_play = EXCLUDED.yards_per_play,
			passing_yards_per_game = EXCLUDED.passing_yards_per_game,
			rushing_yards_per_game = EXCLUDED.rushing_yards_per_game,
			epa_per_play = EXCLUDED.epa_per_play,
			total_epa = EXCLUDED.total_epa,
			pass_epa = EXCLUDED.pass_epa,
			rush_epa = EXCLUDED.rush_epa,
			success_rate = EXCLUDED.success_rate,
			pass_success_rate = EXCLUDED.pass_success_rate,
			rush_success_rate = EXCLUDED.rush_success_rate,
			wpa = EXCLUDED.wpa,
			cpoe = EXCLUDED.cpoe,
			air_yards_per_att = EXCLUDED.air_yards_per_att,
			yac_per_completion = EXCLUDED.yac_per_completion,
			explosive_play_pct = EXCLUDED.explosive_play_pct,
			stuff_rate = EXCLUDED.stuff_rate,
			updated_at = NOW()
	`, r.db.Schema())

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing stats upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err := stmt.ExecContext(ctx,
			s.GameID, s.Team, s.Opponent, s.IsHome, s.Season, s.Week,
			s.Points, s.PointsAllowed, s.Result,
			s.TotalYards, s.PassingYards, s.RushingYards, s.Plays,
			s.PassAttempts, s.RushAttempts, s.Completions, s.SacksTaken,
			s.InterceptionsThrown, s.FumblesLost, s.Turnovers, s.Penalties, s.PenaltyYards,
			s.TimeOfPossessionSec, s.FirstDowns,
			s.ThirdDownAttempts, s.ThirdDownConversions,
			s.FourthDownAttempts, s.FourthDownConversions,
			s.RedZoneAttempts, s.RedZoneConversions,
			s.CompletionPct, s.ThirdDownPct, s.FourthDownPct, s.RedZonePct,
			s.YardsPerPlay, s.PassingYardsPerGame, s.RushingYardsPerGame,
			s.EPAPerPlay, s.TotalEPA, s.PassEPA, s.RushEPA,
			s.SuccessRate, s.PassSuccessRate, s.RushSuccessRate,
			s.WPA, s.CPOE, s.AirYardsPerAtt, s.YACPerCompletion,
			s.ExplosivePlayPct, s.StuffRate,
		)
		if err != nil {
			return 0, store.ClassifyError(fmt.Errorf("upserting stats %s/%s: %w", s.GameID, s.Team, err))
		}
	}

	return len(stats), nil
}

// GetByGame returns both team rows for a game, home side first.
func (r *StatsRepository) GetByGame(ctx context.Context, gameID string) ([]*store.TeamGameStat, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s.team_game_stats
		WHERE game_id = $1
		ORDER BY is_home DESC, team
	`, statColumns, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying game stats: %w", err)
	}
	defer rows.Close()

	return r.scanStats(rows)
}

// ListTeamSeason returns a team's rows for a season ordered by week.
// limit <= 0 means no limit.
func (r *StatsRepository) ListTeamSeason(ctx context.Context, team string, season, limit int) ([]*store.TeamGameStat, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s.team_game_stats
		WHERE team = $1 AND season = $2
		ORDER BY week
	`, statColumns, r.db.Schema())

	args := []interface{}{team, season}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying team season: %w", err)
	}
	defer rows.Close()

	return r.scanStats(rows)
}

// CountBySeasonWeek returns the number of team-game rows for a batch.
func (r *StatsRepository) CountBySeasonWeek(ctx context.Context, season, week int) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s.team_game_stats WHERE season = $1 AND week = $2`, r.db.Schema())

	var n int
	if err := r.db.DB().QueryRowContext(ctx, query, season, week).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting team stats: %w", err)
	}
	return n, nil
}

func (r *StatsRepository) scanStats(rows *sql.Rows) ([]*store.TeamGameStat, error) {
	var all []*store.TeamGameStat
	for rows.Next() {
		s := &store.TeamGameStat{}
		err := rows.Scan(
			&s.GameID, &s.Team, &s.Opponent, &s.IsHome, &s.Season, &s.Week,
			&s.Points, &s.PointsAllowed, &s.Result,
			&s.TotalYards, &s.PassingYards, &s.RushingYards, &s.Plays,
			&s.PassAttempts, &s.RushAttempts, &s.Completions, &s.SacksTaken,
			&s.InterceptionsThrown, &s.FumblesLost, &s.Turnovers, &s.Penalties, &s.PenaltyYards,
			&s.TimeOfPossessionSec, &s.FirstDowns,
			&s.ThirdDownAttempts, &s.ThirdDownConversions,
			&s.FourthDownAttempts, &s.FourthDownConversions,
			&s.RedZoneAttempts, &s.RedZoneConversions,
			&s.CompletionPct, &s.ThirdDownPct, &s.FourthDownPct, &s.RedZonePct,
			&s.YardsPerPlay, &s.PassingYardsPerGame, &s.RushingYardsPerGame,
			&s.EPAPerPlay, &s.TotalEPA, &s.PassEPA, &s.RushEPA,
			&s.SuccessRate, &s.PassSuccessRate, &s.RushSuccessRate,
			&s.WPA, &s.CPOE, &s.AirYardsPerAtt, &s.YACPerCompletion,
			&s.ExplosivePlayPct, &s.StuffRate,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team stats: %w", err)
		}
		all = append(all, s)
	}
	return all, rows.Err()
}
