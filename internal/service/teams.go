package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lombardo/gridiron/internal/cache"
	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/store/repository"
)

// TeamService handles team browsing and per-team season detail.
type TeamService struct {
	teamRepo  *repository.TeamRepository
	statsRepo *repository.StatsRepository
	cache     *cache.RedisCache
}

// NewTeamService creates a new team service. cache may be nil.
func NewTeamService(db *store.Database, c *cache.RedisCache) *TeamService {
	return &TeamService{
		teamRepo:  repository.NewTeamRepository(db),
		statsRepo: repository.NewStatsRepository(db),
		cache:     c,
	}
}

// ListTeams returns all 32 teams with season aggregates, zero counts
// before any games are played.
func (s *TeamService) ListTeams(ctx context.Context, season int) ([]*repository.TeamSummary, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("teams:%d", season)
	var cached []*repository.TeamSummary
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	teams, err := s.teamRepo.ListSummaries(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	s.cache.SetJSON(ctx, key, teams, 5*time.Minute)
	return teams, nil
}

// TeamDetail pairs a team's static info with its season aggregates.
// Stats is nil when the team has no completed games that season.
type TeamDetail struct {
	Info  *store.TeamInfo         `json:"info"`
	Stats *repository.SeasonStats `json:"stats,omitempty"`
}

// GetTeam returns one team's season detail.
func (s *TeamService) GetTeam(ctx context.Context, team string, season int) (*TeamDetail, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}

	info, err := s.teamRepo.Get(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: unknown team %q", ErrNotFound, team)
	}

	stats, err := s.teamRepo.GetSeasonStats(ctx, team, season)
	if err != nil {
		return nil, fmt.Errorf("fetching season stats: %w", err)
	}

	return &TeamDetail{Info: info, Stats: stats}, nil
}

// ListTeamGames returns a team's game rows for a season ordered by week.
// limit <= 0 returns the full season.
func (s *TeamService) ListTeamGames(ctx context.Context, team string, season, limit int) ([]*store.TeamGameStat, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}

	info, err := s.teamRepo.Get(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: unknown team %q", ErrNotFound, team)
	}

	games, err := s.statsRepo.ListTeamSeason(ctx, team, season, limit)
	if err != nil {
		return nil, fmt.Errorf("listing team games: %w", err)
	}
	return games, nil
}
