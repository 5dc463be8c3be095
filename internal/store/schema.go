package store

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Schema evolution is additive only: EnsureSchema creates whatever is
// missing and never drops or retypes anything. Destructive changes go
// through Rebuild, which is only reachable from the explicit CLI command.

// EnsureSchema creates the schema namespace, tables, indexes and views,
// then applies the additive column-evolution pass and seeds team_info.
// Safe to call on every startup and before every update run.
func (db *Database) EnsureSchema(ctx context.Context) error {
	log.Printf("Ensuring schema %s...", db.schema)

	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", db.schema)); err != nil {
		return fmt.Errorf("creating schema %s: %w", db.schema, err)
	}

	for _, ddl := range db.tableDDL() {
		if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating tables in %s: %w", db.schema, err)
		}
	}

	if err := db.evolveColumns(ctx); err != nil {
		return err
	}

	for _, ddl := range db.indexDDL() {
		if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating indexes in %s: %w", db.schema, err)
		}
	}

	for _, ddl := range db.viewDDL() {
		if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating views in %s: %w", db.schema, err)
		}
	}

	if err := db.seedTeamInfo(ctx); err != nil {
		return err
	}

	log.Printf("✓ Schema %s ready", db.schema)
	return nil
}

// Rebuild drops the schema namespace and recreates it from scratch.
// Destructive; callers must have confirmed explicitly.
func (db *Database) Rebuild(ctx context.Context) error {
	log.Printf("Rebuilding schema %s (destructive)...", db.schema)
	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", db.schema)); err != nil {
		return fmt.Errorf("dropping schema %s: %w", db.schema, err)
	}
	return db.EnsureSchema(ctx)
}

func (db *Database) tableDDL() []string {
	s := db.schema
	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.games (
				game_id TEXT PRIMARY KEY,
				season INT NOT NULL,
				week INT NOT NULL,
				game_date DATE,
				kickoff_time_utc TIMESTAMPTZ,
				home_team VARCHAR(4) NOT NULL,
				away_team VARCHAR(4) NOT NULL,
				stadium TEXT,
				is_postseason BOOLEAN NOT NULL DEFAULT FALSE,
				home_score INT,
				away_score INT,
				spread_line DOUBLE PRECISION,
				total_line DOUBLE PRECISION,
				home_moneyline INT,
				away_moneyline INT,
				home_spread_odds INT,
				away_spread_odds INT,
				over_odds INT,
				under_odds INT,
				roof TEXT,
				surface TEXT,
				temp DOUBLE PRECISION,
				wind DOUBLE PRECISION,
				referee TEXT,
				home_coach TEXT,
				away_coach TEXT,
				home_qb_name TEXT,
				away_qb_name TEXT,
				home_rest INT,
				away_rest INT,
				is_divisional_game BOOLEAN,
				overtime BOOLEAN,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT games_teams_differ CHECK (home_team <> away_team),
				CONSTRAINT games_week_positive CHECK (week >= 1),
				CONSTRAINT games_season_floor CHECK (season >= 1999)
			)`, s),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.team_game_stats (
				game_id TEXT NOT NULL,
				team VARCHAR(4) NOT NULL,
				opponent VARCHAR(4) NOT NULL,
				is_home BOOLEAN NOT NULL,
				season INT NOT NULL,
				week INT NOT NULL,
				points INT,
				points_allowed INT,
				result CHAR(1),
				total_yards INT,
				passing_yards INT,
				rushing_yards INT,
				plays INT,
				pass_attempts INT,
				rush_attempts INT,
				completions INT,
				sacks_taken INT,
				interceptions_thrown INT,
				fumbles_lost INT,
				turnovers INT,
				penalties INT,
				penalty_yards INT,
				time_of_possession_sec INT,
				first_downs INT,
				third_down_attempts INT,
				third_down_conversions INT,
				fourth_down_attempts INT,
				fourth_down_conversions INT,
				red_zone_attempts INT,
				red_zone_conversions INT,
				completion_pct DOUBLE PRECISION,
				third_down_pct DOUBLE PRECISION,
				fourth_down_pct DOUBLE PRECISION,
				red_zone_pct DOUBLE PRECISION,
				yards_per_play DOUBLE PRECISION,
				passing_yards_per_game DOUBLE PRECISION,
				rushing_yards_per_game DOUBLE PRECISION,
				epa_per_play DOUBLE PRECISION,
				total_epa DOUBLE PRECISION,
				pass_epa DOUBLE PRECISION,
				rush_epa DOUBLE PRECISION,
				success_rate DOUBLE PRECISION,
				pass_success_rate DOUBLE PRECISION,
				rush_success_rate DOUBLE PRECISION,
				wpa DOUBLE PRECISION,
				cpoe DOUBLE PRECISION,
				air_yards_per_att DOUBLE PRECISION,
				yac_per_completion DOUBLE PRECISION,
				explosive_play_pct DOUBLE PRECISION,
				stuff_rate DOUBLE PRECISION,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (game_id, team)
			)`, s),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.team_info (
				team VARCHAR(10) PRIMARY KEY,
				full_name VARCHAR(100),
				nickname VARCHAR(50),
				conference VARCHAR(10),
				division VARCHAR(10),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, s),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.ml_predictions (
				prediction_id SERIAL PRIMARY KEY,
				game_id TEXT NOT NULL UNIQUE,
				season INT NOT NULL,
				week INT NOT NULL,
				home_team TEXT NOT NULL,
				away_team TEXT NOT NULL,
				game_date DATE,
				predicted_winner TEXT,
				win_confidence DOUBLE PRECISION,
				home_win_prob DOUBLE PRECISION,
				away_win_prob DOUBLE PRECISION,
				predicted_home_score DOUBLE PRECISION,
				predicted_away_score DOUBLE PRECISION,
				predicted_margin DOUBLE PRECISION,
				ai_spread DOUBLE PRECISION,
				vegas_spread DOUBLE PRECISION,
				vegas_total DOUBLE PRECISION,
				actual_winner TEXT,
				actual_home_score INT,
				actual_away_score INT,
				actual_margin INT,
				win_prediction_correct BOOLEAN,
				score_prediction_error_home DOUBLE PRECISION,
				score_prediction_error_away DOUBLE PRECISION,
				margin_prediction_error DOUBLE PRECISION,
				predicted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				result_recorded_at TIMESTAMPTZ
			)`, s),
	}
}

// evolvableColumns lists every column each table must carry. Columns added
// in later versions are appended here and picked up by the additive pass;
// nothing is ever dropped at runtime.
var evolvableColumns = map[string][]string{
	"games": {
		"stadium TEXT",
		"home_spread_odds INT",
		"away_spread_odds INT",
		"over_odds INT",
		"under_odds INT",
		"is_divisional_game BOOLEAN",
	},
	"team_game_stats": {
		"wpa DOUBLE PRECISION",
		"cpoe DOUBLE PRECISION",
		"air_yards_per_att DOUBLE PRECISION",
		"yac_per_completion DOUBLE PRECISION",
		"explosive_play_pct DOUBLE PRECISION",
		"stuff_rate DOUBLE PRECISION",
	},
	"ml_predictions": {
		"ai_spread DOUBLE PRECISION",
		"vegas_total DOUBLE PRECISION",
	},
}

func (db *Database) evolveColumns(ctx context.Context) error {
	for table, cols := range evolvableColumns {
		for _, col := range cols {
			ddl := fmt.Sprintf("ALTER TABLE %s.%s ADD COLUMN IF NOT EXISTS %s", db.schema, table, col)
			if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
				return fmt.Errorf("evolving %s.%s (%s): %w", db.schema, table, col, err)
			}
		}
	}
	return nil
}

func (db *Database) indexDDL() []string {
	s := db.schema
	// Index names carry the schema suffix so prod and test never collide.
	suffix := strings.ReplaceAll(s, ".", "_")
	return []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_games_season_week_%s ON %s.games(season, week)", suffix, s),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_games_game_date_%s ON %s.games(game_date)", suffix, s),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_tgs_season_week_%s ON %s.team_game_stats(season, week)", suffix, s),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_tgs_team_season_%s ON %s.team_game_stats(team, season)", suffix, s),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_tgs_epa_%s ON %s.team_game_stats(epa_per_play)", suffix, s),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_mlp_season_week_%s ON %s.ml_predictions(season, week)", suffix, s),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_mlp_game_date_%s ON %s.ml_predictions(game_date)", suffix, s),
	}
}

func (db *Database) viewDDL() []string {
	s := db.schema
	return []string{
		// Season aggregates with a home/away EPA split.
		fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s.v_team_season_stats AS
			SELECT
				team,
				season,
				COUNT(*) AS games_played,
				COUNT(*) FILTER (WHERE result = 'W') AS wins,
				COUNT(*) FILTER (WHERE result = 'L') AS losses,
				COUNT(*) FILTER (WHERE result = 'T') AS ties,
				AVG(points) AS avg_ppg_for,
				AVG(points_allowed) AS avg_ppg_against,
				AVG(epa_per_play) AS avg_epa_offense,
				AVG(epa_per_play) FILTER (WHERE is_home) AS avg_epa_home,
				AVG(epa_per_play) FILTER (WHERE NOT is_home) AS avg_epa_away,
				AVG(success_rate) AS avg_success_rate_offense,
				AVG(yards_per_play) AS avg_yards_per_play,
				AVG(third_down_pct) AS avg_third_down_rate,
				AVG(red_zone_pct) AS avg_red_zone_efficiency,
				SUM(total_yards) AS total_yards,
				SUM(turnovers) AS total_turnovers_lost,
				AVG(cpoe) AS avg_cpoe,
				SUM(wpa) AS total_wpa
			FROM %s.team_game_stats
			WHERE result IS NOT NULL
			GROUP BY team, season`, s, s),
		// ATS and totals record, derived from the canonical spread
		// (negative = home favoured). A side covers when its margin beats
		// the spread from its own perspective.
		fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s.v_team_betting_performance AS
			WITH sides AS (
				SELECT season, game_id, home_team AS team,
					(home_score - away_score)::double precision AS margin,
					spread_line AS team_spread,
					total_line, home_score + away_score AS total_points
				FROM %s.games
				WHERE home_score IS NOT NULL AND away_score IS NOT NULL
				UNION ALL
				SELECT season, game_id, away_team AS team,
					(away_score - home_score)::double precision AS margin,
					-spread_line AS team_spread,
					total_line, home_score + away_score AS total_points
				FROM %s.games
				WHERE home_score IS NOT NULL AND away_score IS NOT NULL
			)
			SELECT
				team,
				season,
				COUNT(*) AS total_games,
				COUNT(*) FILTER (WHERE team_spread IS NOT NULL AND margin > -team_spread) AS ats_wins,
				COUNT(*) FILTER (WHERE team_spread IS NOT NULL AND margin < -team_spread) AS ats_losses,
				COUNT(*) FILTER (WHERE team_spread IS NOT NULL AND margin = -team_spread) AS ats_pushes,
				ROUND(100.0 * COUNT(*) FILTER (WHERE team_spread IS NOT NULL AND margin > -team_spread)
					/ NULLIF(COUNT(*) FILTER (WHERE team_spread IS NOT NULL AND margin <> -team_spread), 0), 1) AS ats_win_pct,
				COUNT(*) FILTER (WHERE total_line IS NOT NULL AND total_points > total_line) AS over_hits,
				COUNT(*) FILTER (WHERE total_line IS NOT NULL AND total_points < total_line) AS under_hits,
				COUNT(*) FILTER (WHERE total_line IS NOT NULL AND total_points = total_line) AS total_pushes
			FROM sides
			GROUP BY team, season`, s, s, s),
		// Flattened game row for the matchup browser.
		fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s.v_game_matchup_display AS
			SELECT
				game_id, season, week, game_date,
				home_team, away_team, home_score, away_score,
				CASE
					WHEN home_score IS NULL OR away_score IS NULL THEN NULL
					WHEN home_score > away_score THEN home_team
					WHEN away_score > home_score THEN away_team
					ELSE 'TIE'
				END AS winner
			FROM %s.games`, s, s),
		fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s.v_weather_impact_analysis AS
			SELECT
				season,
				roof,
				COUNT(*) AS game_count,
				AVG(home_score + away_score) AS avg_total_points,
				AVG(temp) AS avg_temp,
				AVG(wind) AS avg_wind,
				ROUND(100.0 * COUNT(*) FILTER (WHERE home_score > away_score) / NULLIF(COUNT(*), 0), 1) AS home_win_pct
			FROM %s.games
			WHERE home_score IS NOT NULL AND away_score IS NOT NULL AND roof IS NOT NULL
			GROUP BY season, roof`, s, s),
		fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s.v_rest_advantage AS
			WITH sides AS (
				SELECT season, home_rest AS rest_days,
					(home_score > away_score) AS won
				FROM %s.games
				WHERE home_score IS NOT NULL AND away_score IS NOT NULL AND home_rest IS NOT NULL
				UNION ALL
				SELECT season, away_rest AS rest_days,
					(away_score > home_score) AS won
				FROM %s.games
				WHERE home_score IS NOT NULL AND away_score IS NOT NULL AND away_rest IS NOT NULL
			)
			SELECT
				season,
				rest_days,
				CASE
					WHEN rest_days <= 5 THEN 'short'
					WHEN rest_days <= 7 THEN 'normal'
					WHEN rest_days <= 9 THEN 'long'
					ELSE 'extended'
				END AS rest_category,
				COUNT(*) AS total_games,
				ROUND(100.0 * COUNT(*) FILTER (WHERE won) / NULLIF(COUNT(*), 0), 1) AS win_pct
			FROM sides
			GROUP BY season, rest_days`, s, s, s),
		fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s.v_referee_tendencies AS
			SELECT
				season,
				referee,
				COUNT(*) AS total_games,
				ROUND(100.0 * COUNT(*) FILTER (WHERE home_score > away_score) / NULLIF(COUNT(*), 0), 1) AS home_win_pct,
				AVG(home_score + away_score) AS avg_total_points
			FROM %s.games
			WHERE home_score IS NOT NULL AND away_score IS NOT NULL AND referee IS NOT NULL
			GROUP BY season, referee`, s, s),
	}
}

// nflTeams is the 32-team seed set. LA is the Rams' nflverse code.
var nflTeams = []TeamInfo{
	{Team: "ARI", FullName: "Arizona Cardinals", Nickname: "Cardinals", Conference: "NFC", Division: "West"},
	{Team: "ATL", FullName: "Atlanta Falcons", Nickname: "Falcons", Conference: "NFC", Division: "South"},
	{Team: "BAL", FullName: "Baltimore Ravens", Nickname: "Ravens", Conference: "AFC", Division: "North"},
	{Team: "BUF", FullName: "Buffalo Bills", Nickname: "Bills", Conference: "AFC", Division: "East"},
	{Team: "CAR", FullName: "Carolina Panthers", Nickname: "Panthers", Conference: "NFC", Division: "South"},
	{Team: "CHI", FullName: "Chicago Bears", Nickname: "Bears", Conference: "NFC", Division: "North"},
	{Team: "CIN", FullName: "Cincinnati Bengals", Nickname: "Bengals", Conference: "AFC", Division: "North"},
	{Team: "CLE", FullName: "Cleveland Browns", Nickname: "Browns", Conference: "AFC", Division: "North"},
	{Team: "DAL", FullName: "Dallas Cowboys", Nickname: "Cowboys", Conference: "NFC", Division: "East"},
	{Team: "DEN", FullName: "Denver Broncos", Nickname: "Broncos", Conference: "AFC", Division: "West"},
	{Team: "DET", FullName: "Detroit Lions", Nickname: "Lions", Conference: "NFC", Division: "North"},
	{Team: "GB", FullName: "Green Bay Packers", Nickname: "Packers", Conference: "NFC", Division: "North"},
	{Team: "HOU", FullName: "Houston Texans", Nickname: "Texans", Conference: "AFC", Division: "South"},
	{Team: "IND", FullName: "Indianapolis Colts", Nickname: "Colts", Conference: "AFC", Division: "South"},
	{Team: "JAX", FullName: "Jacksonville Jaguars", Nickname: "Jaguars", Conference: "AFC", Division: "South"},
	{Team: "KC", FullName: "Kansas City Chiefs", Nickname: "Chiefs", Conference: "AFC", Division: "West"},
	{Team: "LA", FullName: "Los Angeles Rams", Nickname: "Rams", Conference: "NFC", Division: "West"},
	{Team: "LAC", FullName: "Los Angeles Chargers", Nickname: "Chargers", Conference: "AFC", Division: "West"},
	{Team: "LV", FullName: "Las Vegas Raiders", Nickname: "Raiders", Conference: "AFC", Division: "West"},
	{Team: "MIA", FullName: "Miami Dolphins", Nickname: "Dolphins", Conference: "AFC", Division: "East"},
	{Team: "MIN", FullName: "Minnesota Vikings", Nickname: "Vikings", Conference: "NFC", Division: "North"},
	{Team: "NE", FullName: "New England Patriots", Nickname: "Patriots", Conference: "AFC", Division: "East"},
	{Team: "NO", FullName: "New Orleans Saints", Nickname: "Saints", Conference: "NFC", Division: "South"},
	{Team: "NYG", FullName: "New York Giants", Nickname: "Giants", Conference: "NFC", Division: "East"},
	{Team: "NYJ", FullName: "New York Jets", Nickname: "Jets", Conference: "AFC", Division: "East"},
	{Team: "PHI", FullName: "Philadelphia Eagles", Nickname: "Eagles", Conference: "NFC", Division: "East"},
	{Team: "PIT", FullName: "Pittsburgh Steelers", Nickname: "Steelers", Conference: "AFC", Division: "North"},
	{Team: "SF", FullName: "San Francisco 49ers", Nickname: "49ers", Conference: "NFC", Division: "West"},
	{Team: "SEA", FullName: "Seattle Seahawks", Nickname: "Seahawks", Conference: "NFC", Division: "West"},
	{Team: "TB", FullName: "Tampa Bay Buccaneers", Nickname: "Buccaneers", Conference: "NFC", Division: "South"},
	{Team: "TEN", FullName: "Tennessee Titans", Nickname: "Titans", Conference: "AFC", Division: "South"},
	{Team: "WAS", FullName: "Washington Commanders", Nickname: "Commanders", Conference: "NFC", Division: "East"},
}

func (db *Database) seedTeamInfo(ctx context.Context) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.team_info (team, full_name, nickname, conference, division)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			nickname = EXCLUDED.nickname,
			conference = EXCLUDED.conference,
			division = EXCLUDED.division,
			updated_at = NOW()
	`, db.schema)

	for _, t := range nflTeams {
		if _, err := db.conn.ExecContext(ctx, query, t.Team, t.FullName, t.Nickname, t.Conference, t.Division); err != nil {
			return fmt.Errorf("seeding team_info (%s): %w", t.Team, err)
		}
	}
	return nil
}
