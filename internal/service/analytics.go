package service

import (
	"context"
	"fmt"

	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/store/repository"
)

// Dimension selects which analytics view a summary projects.
type Dimension string

const (
	DimensionBetting  Dimension = "betting"
	DimensionWeather  Dimension = "weather"
	DimensionRest     Dimension = "rest"
	DimensionReferees Dimension = "referees"
	DimensionOverall  Dimension = "overall"
)

// AnalyticsService projects the derived analytics views.
type AnalyticsService struct {
	analyticsRepo *repository.AnalyticsRepository
	teamRepo      *repository.TeamRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *store.Database) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: repository.NewAnalyticsRepository(db),
		teamRepo:      repository.NewTeamRepository(db),
	}
}

// Summary returns the requested dimension's rows for a season. The
// result shape varies per dimension; callers serialise it as-is.
func (s *AnalyticsService) Summary(ctx context.Context, season int, dimension Dimension) (interface{}, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}

	switch dimension {
	case DimensionBetting:
		return s.analyticsRepo.ListBettingPerformance(ctx, season, "")
	case DimensionWeather:
		return s.analyticsRepo.ListWeatherImpact(ctx, season)
	case DimensionRest:
		return s.analyticsRepo.ListRestAdvantage(ctx, season)
	case DimensionReferees:
		return s.analyticsRepo.ListRefereeTendencies(ctx, season)
	case DimensionOverall:
		return s.teamRepo.ListSummaries(ctx, season)
	default:
		return nil, fmt.Errorf("%w: unknown dimension %q", ErrBadRequest, dimension)
	}
}

// TeamBetting returns one team's ATS and totals record.
func (s *AnalyticsService) TeamBetting(ctx context.Context, team string, season int) (*repository.BettingPerformance, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}

	rows, err := s.analyticsRepo.ListBettingPerformance(ctx, season, team)
	if err != nil {
		return nil, fmt.Errorf("fetching betting performance: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no betting record for %s in %d", ErrNotFound, team, season)
	}
	return rows[0], nil
}

// Matchups returns the flattened matchup rows for a week.
func (s *AnalyticsService) Matchups(ctx context.Context, season, week int) ([]*repository.MatchupDisplay, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}
	if err := validateWeek(week); err != nil {
		return nil, err
	}
	return s.analyticsRepo.ListMatchups(ctx, season, week)
}
