package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lombardo/gridiron/internal/cache"
	"github.com/lombardo/gridiron/internal/config"
	"github.com/lombardo/gridiron/internal/service"
	"github.com/lombardo/gridiron/internal/store"
)

const (
	codeNotFound   = "not_found"
	codeBadRequest = "bad_request"
	codeInternal   = "internal_error"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db                *store.Database
	teamService       *service.TeamService
	gameService       *service.GameService
	analyticsService  *service.AnalyticsService
	predictionService *service.PredictionService
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, c *cache.RedisCache) *Handler {
	return &Handler{
		db:                db,
		teamService:       service.NewTeamService(db, c),
		gameService:       service.NewGameService(db, c),
		analyticsService:  service.NewAnalyticsService(db),
		predictionService: service.NewPredictionService(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeInternal, "database unreachable", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "gridiron",
		"schema":  h.db.Schema(),
	})
}

// GetTeams returns all 32 teams with season aggregates
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListTeams(r.Context(), seasonParam(r))
	if err != nil {
		respondServiceError(w, "failed to list teams", err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// GetTeam returns one team's season detail
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]

	detail, err := h.teamService.GetTeam(r.Context(), team, seasonParam(r))
	if err != nil {
		respondServiceError(w, "failed to fetch team", err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// GetTeamGames returns a team's schedule rows ordered by week
func (h *Handler) GetTeamGames(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	limit := intParam(r, "limit", 0)

	games, err := h.teamService.ListTeamGames(r.Context(), team, seasonParam(r), limit)
	if err != nil {
		respondServiceError(w, "failed to list team games", err)
		return
	}
	respondJSON(w, http.StatusOK, games)
}

// GetTeamBetting returns a team's ATS and totals record
func (h *Handler) GetTeamBetting(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]

	record, err := h.analyticsService.TeamBetting(r.Context(), team, seasonParam(r))
	if err != nil {
		respondServiceError(w, "failed to fetch betting record", err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// GetGamesByWeek returns a week's games ordered by kickoff
func (h *Handler) GetGamesByWeek(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.ListGamesByWeek(r.Context(), seasonParam(r), intParam(r, "week", 1))
	if err != nil {
		respondServiceError(w, "failed to list games", err)
		return
	}
	respondJSON(w, http.StatusOK, games)
}

// GetGame returns a game with both team stat rows
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]

	detail, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, "failed to fetch game", err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// GetUpcomingGames returns unplayed games inside the horizon
func (h *Handler) GetUpcomingGames(w http.ResponseWriter, r *http.Request) {
	from := time.Now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeBadRequest, "invalid from date (use YYYY-MM-DD)", err)
			return
		}
		from = parsed
	}

	games, err := h.gameService.UpcomingGames(r.Context(), from, intParam(r, "days", 7))
	if err != nil {
		respondServiceError(w, "failed to list upcoming games", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// GetLiveScores returns a week's games with partial scores
func (h *Handler) GetLiveScores(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.LiveScores(r.Context(), seasonParam(r), intParam(r, "week", 1))
	if err != nil {
		respondServiceError(w, "failed to fetch live scores", err)
		return
	}
	respondJSON(w, http.StatusOK, games)
}

// GetAnalyticsSummary projects one analytics dimension for a season
func (h *Handler) GetAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	dimension := service.Dimension(r.URL.Query().Get("dimension"))
	if dimension == "" {
		dimension = service.DimensionOverall
	}

	rows, err := h.analyticsService.Summary(r.Context(), seasonParam(r), dimension)
	if err != nil {
		respondServiceError(w, "failed to build analytics summary", err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// GetMatchups returns the flattened matchup rows for a week
func (h *Handler) GetMatchups(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analyticsService.Matchups(r.Context(), seasonParam(r), intParam(r, "week", 1))
	if err != nil {
		respondServiceError(w, "failed to list matchups", err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// RecordPrediction stores a model forecast for a game
func (h *Handler) RecordPrediction(w http.ResponseWriter, r *http.Request) {
	var in service.PredictionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid request body", err)
		return
	}

	p, err := h.predictionService.RecordPrediction(r.Context(), in)
	if err != nil {
		respondServiceError(w, "failed to record prediction", err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// GetPrediction returns the stored prediction for a game
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]

	p, err := h.predictionService.GetPrediction(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, "failed to fetch prediction", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// ListPredictions returns a week's predictions
func (h *Handler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.predictionService.ListPredictions(r.Context(), seasonParam(r), intParam(r, "week", 1))
	if err != nil {
		respondServiceError(w, "failed to list predictions", err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// ReconcilePredictions grades pending predictions against final scores
func (h *Handler) ReconcilePredictions(w http.ResponseWriter, r *http.Request) {
	graded, err := h.predictionService.Reconcile(r.Context(), intParam(r, "season", 0), intParam(r, "week", 0))
	if err != nil {
		respondServiceError(w, "failed to reconcile predictions", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"reconciled": graded})
}

// GetPredictionPerformance returns accuracy aggregates
func (h *Handler) GetPredictionPerformance(w http.ResponseWriter, r *http.Request) {
	stats, err := h.predictionService.Performance(r.Context(), intParam(r, "season", 0))
	if err != nil {
		respondServiceError(w, "failed to fetch prediction performance", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetVegasComparison returns AI-vs-Vegas spread accuracy per season
func (h *Handler) GetVegasComparison(w http.ResponseWriter, r *http.Request) {
	rows, err := h.predictionService.VegasComparison(r.Context(), intParam(r, "season", 0))
	if err != nil {
		respondServiceError(w, "failed to fetch vegas comparison", err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func seasonParam(r *http.Request) int {
	return intParam(r, "season", config.CurrentSeason())
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes the structured error body {code, message, details?}
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, message, err)
	case errors.Is(err, service.ErrBadRequest):
		respondError(w, http.StatusBadRequest, codeBadRequest, message, err)
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, message, err)
	}
}
