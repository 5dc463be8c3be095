package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lombardo/gridiron/internal/store"
)

// AnalyticsRepository reads the derived analytics views.
type AnalyticsRepository struct {
	db *store.Database
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *store.Database) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// BettingPerformance is one row of v_team_betting_performance.
type BettingPerformance struct {
	Team        string          `json:"team"`
	Season      int             `json:"season"`
	TotalGames  int             `json:"total_games"`
	ATSWins     int             `json:"ats_wins"`
	ATSLosses   int             `json:"ats_losses"`
	ATSPushes   int             `json:"ats_pushes"`
	ATSWinPct   sql.NullFloat64 `json:"ats_win_pct,omitempty"`
	OverHits    int             `json:"over_hits"`
	UnderHits   int             `json:"under_hits"`
	TotalPushes int             `json:"total_pushes"`
}

// ListBettingPerformance returns ATS and totals records for a season,
// optionally restricted to one team.
func (r *AnalyticsRepository) ListBettingPerformance(ctx context.Context, season int, team string) ([]*BettingPerformance, error) {
	query := fmt.Sprintf(`
		SELECT team, season, total_games, ats_wins, ats_losses, ats_pushes,
			ats_win_pct, over_hits, under_hits, total_pushes
		FROM %s.v_team_betting_performance
		WHERE season = $1 AND ($2 = '' OR team = $2)
		ORDER BY ats_win_pct DESC NULLS LAST, team
	`, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season, team)
	if err != nil {
		return nil, fmt.Errorf("querying betting performance: %w", err)
	}
	defer rows.Close()

	var out []*BettingPerformance
	for rows.Next() {
		b := &BettingPerformance{}
		err := rows.Scan(
			&b.Team, &b.Season, &b.TotalGames, &b.ATSWins, &b.ATSLosses, &b.ATSPushes,
			&b.ATSWinPct, &b.OverHits, &b.UnderHits, &b.TotalPushes,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning betting performance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// MatchupDisplay is one row of v_game_matchup_display.
type MatchupDisplay struct {
	GameID    string         `json:"game_id"`
	Season    int            `json:"season"`
	Week      int            `json:"week"`
	GameDate  sql.NullTime   `json:"game_date,omitempty"`
	HomeTeam  string         `json:"home_team"`
	AwayTeam  string         `json:"away_team"`
	HomeScore sql.NullInt32  `json:"home_score,omitempty"`
	AwayScore sql.NullInt32  `json:"away_score,omitempty"`
	Winner    sql.NullString `json:"winner,omitempty"`
}

// ListMatchups returns the flattened matchup rows for a (season, week).
func (r *AnalyticsRepository) ListMatchups(ctx context.Context, season, week int) ([]*MatchupDisplay, error) {
	query := fmt.Sprintf(`
		SELECT game_id, season, week, game_date, home_team, away_team,
			home_score, away_score, winner
		FROM %s.v_game_matchup_display
		WHERE season = $1 AND week = $2
		ORDER BY game_date NULLS LAST, game_id
	`, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season, week)
	if err != nil {
		return nil, fmt.Errorf("querying matchups: %w", err)
	}
	defer rows.Close()

	var out []*MatchupDisplay
	for rows.Next() {
		m := &MatchupDisplay{}
		err := rows.Scan(
			&m.GameID, &m.Season, &m.Week, &m.GameDate, &m.HomeTeam, &m.AwayTeam,
			&m.HomeScore, &m.AwayScore, &m.Winner,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning matchup: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// WeatherImpact is one row of v_weather_impact_analysis.
type WeatherImpact struct {
	Season         int             `json:"season"`
	Roof           string          `json:"roof"`
	GameCount      int             `json:"game_count"`
	AvgTotalPoints sql.NullFloat64 `json:"avg_total_points,omitempty"`
	AvgTemp        sql.NullFloat64 `json:"avg_temp,omitempty"`
	AvgWind        sql.NullFloat64 `json:"avg_wind,omitempty"`
	HomeWinPct     sql.NullFloat64 `json:"home_win_pct,omitempty"`
}

// ListWeatherImpact returns per-roof scoring and win-rate aggregates.
func (r *AnalyticsRepository) ListWeatherImpact(ctx context.Context, season int) ([]*WeatherImpact, error) {
	query := fmt.Sprintf(`
		SELECT season, roof, game_count, avg_total_points, avg_temp, avg_wind, home_win_pct
		FROM %s.v_weather_impact_analysis
		WHERE season = $1
		ORDER BY roof
	`, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("querying weather impact: %w", err)
	}
	defer rows.Close()

	var out []*WeatherImpact
	for rows.Next() {
		w := &WeatherImpact{}
		err := rows.Scan(&w.Season, &w.Roof, &w.GameCount,
			&w.AvgTotalPoints, &w.AvgTemp, &w.AvgWind, &w.HomeWinPct)
		if err != nil {
			return nil, fmt.Errorf("scanning weather impact: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// RestAdvantage is one row of v_rest_advantage.
type RestAdvantage struct {
	Season       int             `json:"season"`
	RestDays     int             `json:"rest_days"`
	RestCategory string          `json:"rest_category"`
	TotalGames   int             `json:"total_games"`
	WinPct       sql.NullFloat64 `json:"win_pct,omitempty"`
}

// ListRestAdvantage returns win rates bucketed by rest days.
func (r *AnalyticsRepository) ListRestAdvantage(ctx context.Context, season int) ([]*RestAdvantage, error) {
	query := fmt.Sprintf(`
		SELECT season, rest_days, rest_category, total_games, win_pct
		FROM %s.v_rest_advantage
		WHERE season = $1
		ORDER BY rest_days
	`, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("querying rest advantage: %w", err)
	}
	defer rows.Close()

	var out []*RestAdvantage
	for rows.Next() {
		ra := &RestAdvantage{}
		err := rows.Scan(&ra.Season, &ra.RestDays, &ra.RestCategory, &ra.TotalGames, &ra.WinPct)
		if err != nil {
			return nil, fmt.Errorf("scanning rest advantage: %w", err)
		}
		out = append(out, ra)
	}
	return out, rows.Err()
}

// RefereeTendency is one row of v_referee_tendencies.
type RefereeTendency struct {
	Season         int             `json:"season"`
	Referee        string          `json:"referee"`
	TotalGames     int             `json:"total_games"`
	HomeWinPct     sql.NullFloat64 `json:"home_win_pct,omitempty"`
	AvgTotalPoints sql.NullFloat64 `json:"avg_total_points,omitempty"`
}

// ListRefereeTendencies returns per-referee home win rates and scoring.
func (r *AnalyticsRepository) ListRefereeTendencies(ctx context.Context, season int) ([]*RefereeTendency, error) {
	query := fmt.Sprintf(`
		SELECT season, referee, total_games, home_win_pct, avg_total_points
		FROM %s.v_referee_tendencies
		WHERE season = $1
		ORDER BY total_games DESC, referee
	`, r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("querying referee tendencies: %w", err)
	}
	defer rows.Close()

	var out []*RefereeTendency
	for rows.Next() {
		rt := &RefereeTendency{}
		err := rows.Scan(&rt.Season, &rt.Referee, &rt.TotalGames, &rt.HomeWinPct, &rt.AvgTotalPoints)
		if err != nil {
			return nil, fmt.Errorf("scanning referee tendency: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
