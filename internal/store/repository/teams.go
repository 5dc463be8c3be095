package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lombardo/gridiron/internal/store"
)

// TeamRepository handles team_info and team season summaries.
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// Get returns a single team's static descriptor, or nil when unknown.
func (r *TeamRepository) Get(ctx context.Context, team string) (*store.TeamInfo, error) {
	query := fmt.Sprintf(`
		SELECT team, full_name, nickname, conference, division, created_at, updated_at
		FROM %s.team_info
		WHERE team = $1
	`, r.db.Schema())

	t := &store.TeamInfo{}
	err := r.db.DB().QueryRowContext(ctx, query, team).Scan(
		&t.Team, &t.FullName, &t.Nickname, &t.Conference, &t.Division,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying team %s: %w", team, err)
	}
	return t, nil
}

// TeamSummary is one row of the team browser: static info plus season
// aggregates. Aggregates are zero/null for teams with no games yet.
type TeamSummary struct {
	store.TeamInfo
	Season          int             `json:"season"`
	GamesPlayed     int             `json:"games_played"`
	Wins            int             `json:"wins"`
	Losses          int             `json:"losses"`
	Ties            int             `json:"ties"`
	AvgPPGFor       sql.NullFloat64 `json:"avg_ppg_for,omitempty"`
	AvgPPGAgainst   sql.NullFloat64 `json:"avg_ppg_against,omitempty"`
	AvgEPAOffense   sql.NullFloat64 `json:"avg_epa_offense,omitempty"`
	AvgSuccessRate  sql.NullFloat64 `json:"avg_success_rate,omitempty"`
	AvgYardsPerPlay sql.NullFloat64 `json:"avg_yards_per_play,omitempty"`
}

// ListSummaries returns one row per team for a season. The LEFT JOIN
// guarantees all 32 teams appear even before any games are played.
func (r *TeamRepository) ListSummaries(ctx context.Context, season int) ([]*TeamSummary, error) {
	query := fmt.Sprintf(`
		SELECT
			ti.team, ti.full_name, ti.nickname, ti.conference, ti.division,
			ti.created_at, ti.updated_at,
			COALESCE(vs.games_played, 0),
			COALESCE(vs.wins, 0),
			COALESCE(vs.losses, 0),
			COALESCE(vs.ties, 0),
			vs.avg_ppg_for,
			vs.avg_ppg_against,
			vs.avg_epa_offense,
			vs.avg_success_rate_offense,
			vs.avg_yards_per_play
		FROM %s.team_info ti
		LEFT JOIN %s.v_team_season_stats vs ON vs.team = ti.team AND vs.season = $1
		ORDER BY vs.wins DESC NULLS LAST, vs.avg_epa_offense DESC NULLS LAST, ti.team
	`, r.db.Schema(), r.db.Schema())

	rows, err := r.db.DB().QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("querying team summaries: %w", err)
	}
	defer rows.Close()

	var teams []*TeamSummary
	for rows.Next() {
		t := &TeamSummary{Season: season}
		err := rows.Scan(
			&t.Team, &t.FullName, &t.Nickname, &t.Conference, &t.Division,
			&t.CreatedAt, &t.UpdatedAt,
			&t.GamesPlayed, &t.Wins, &t.Losses, &t.Ties,
			&t.AvgPPGFor, &t.AvgPPGAgainst, &t.AvgEPAOffense,
			&t.AvgSuccessRate, &t.AvgYardsPerPlay,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team summary: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// SeasonStats is one row of v_team_season_stats.
type SeasonStats struct {
	Team             string          `json:"team"`
	Season           int             `json:"season"`
	GamesPlayed      int             `json:"games_played"`
	Wins             int             `json:"wins"`
	Losses           int             `json:"losses"`
	Ties             int             `json:"ties"`
	AvgPPGFor        sql.NullFloat64 `json:"avg_ppg_for,omitempty"`
	AvgPPGAgainst    sql.NullFloat64 `json:"avg_ppg_against,omitempty"`
	AvgEPAOffense    sql.NullFloat64 `json:"avg_epa_offense,omitempty"`
	AvgEPAHome       sql.NullFloat64 `json:"avg_epa_home,omitempty"`
	AvgEPAAway       sql.NullFloat64 `json:"avg_epa_away,omitempty"`
	AvgSuccessRate   sql.NullFloat64 `json:"avg_success_rate,omitempty"`
	AvgYardsPerPlay  sql.NullFloat64 `json:"avg_yards_per_play,omitempty"`
	AvgThirdDownRate sql.NullFloat64 `json:"avg_third_down_rate,omitempty"`
	AvgRedZoneEff    sql.NullFloat64 `json:"avg_red_zone_efficiency,omitempty"`
	TotalYards       sql.NullInt64   `json:"total_yards,omitempty"`
	TotalTurnovers   sql.NullInt64   `json:"total_turnovers_lost,omitempty"`
	AvgCPOE          sql.NullFloat64 `json:"avg_cpoe,omitempty"`
	TotalWPA         sql.NullFloat64 `json:"total_wpa,omitempty"`
}

// GetSeasonStats returns the season aggregate row for one team, or nil
// when the team has no completed games that season.
func (r *TeamRepository) GetSeasonStats(ctx context.Context, team string, season int) (*SeasonStats, error) {
	query := fmt.Sprintf(`
		SELECT team, season, games_played, wins, losses, ties,
			avg_ppg_for, avg_ppg_against,
			avg_epa_offense, avg_epa_home, avg_epa_away,
			avg_success_rate_offense, avg_yards_per_play,
			avg_third_down_rate, avg_red_zone_efficiency,
			total_yards, total_turnovers_lost, avg_cpoe, total_wpa
		FROM %s.v_team_season_stats
		WHERE team = $1 AND season = $2
	`, r.db.Schema())

	st := &SeasonStats{}
	err := r.db.DB().QueryRowContext(ctx, query, team, season).Scan(
		&st.Team, &st.Season, &st.GamesPlayed, &st.Wins, &st.Losses, &st.Ties,
		&st.AvgPPGFor, &st.AvgPPGAgainst,
		&st.AvgEPAOffense, &st.AvgEPAHome, &st.AvgEPAAway,
		&st.AvgSuccessRate, &st.AvgYardsPerPlay,
		&st.AvgThirdDownRate, &st.AvgRedZoneEff,
		&st.TotalYards, &st.TotalTurnovers, &st.AvgCPOE, &st.TotalWPA,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying season stats for %s: %w", team, err)
	}
	return st, nil
}
