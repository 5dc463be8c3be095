package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lombardo/gridiron/internal/cache"
	"github.com/lombardo/gridiron/internal/store"
	"github.com/lombardo/gridiron/internal/store/repository"
)

// GameService handles the game browser, upcoming feed and live scores.
type GameService struct {
	gameRepo  *repository.GameRepository
	statsRepo *repository.StatsRepository
	cache     *cache.RedisCache
}

// NewGameService creates a new game service. cache may be nil.
func NewGameService(db *store.Database, c *cache.RedisCache) *GameService {
	return &GameService{
		gameRepo:  repository.NewGameRepository(db),
		statsRepo: repository.NewStatsRepository(db),
		cache:     c,
	}
}

// GameDetail is a game with both team stat rows, home side first.
// TeamStats is empty until the game has been aggregated.
type GameDetail struct {
	Game      *store.Game           `json:"game"`
	TeamStats []*store.TeamGameStat `json:"team_stats"`
}

// GetGame returns a game with its two team stat rows.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*GameDetail, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %q", ErrNotFound, gameID)
	}

	stats, err := s.statsRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game stats: %w", err)
	}

	return &GameDetail{Game: game, TeamStats: stats}, nil
}

// ListGamesByWeek returns a week's games ordered by kickoff.
func (s *GameService) ListGamesByWeek(ctx context.Context, season, week int) ([]*store.Game, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}
	if err := validateWeek(week); err != nil {
		return nil, err
	}

	games, err := s.gameRepo.ListByWeek(ctx, season, week)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// UpcomingGames returns unplayed games within [from, from+horizonDays].
// horizonDays <= 0 defaults to 7.
func (s *GameService) UpcomingGames(ctx context.Context, from time.Time, horizonDays int) ([]*store.Game, error) {
	if horizonDays <= 0 {
		horizonDays = 7
	}

	games, err := s.gameRepo.ListUpcoming(ctx, from, horizonDays)
	if err != nil {
		return nil, fmt.Errorf("listing upcoming games: %w", err)
	}
	return games, nil
}

// LiveScores returns a week's games including partial scores, served
// from a short-TTL cache when possible.
func (s *GameService) LiveScores(ctx context.Context, season, week int) ([]*store.Game, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}
	if err := validateWeek(week); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("live:%d:%d", season, week)
	var cached []*store.Game
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	games, err := s.gameRepo.ListByWeek(ctx, season, week)
	if err != nil {
		return nil, fmt.Errorf("listing live scores: %w", err)
	}

	s.cache.SetJSON(ctx, key, games, 30*time.Second)
	return games, nil
}
