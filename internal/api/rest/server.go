package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lombardo/gridiron/internal/cache"
	"github.com/lombardo/gridiron/internal/store"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, c *cache.RedisCache) *Server {
	handler := NewHandler(db, c)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Teams
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/teams/{team}", handler.GetTeam).Methods("GET")
	api.HandleFunc("/teams/{team}/games", handler.GetTeamGames).Methods("GET")
	api.HandleFunc("/teams/{team}/betting", handler.GetTeamBetting).Methods("GET")

	// Games
	api.HandleFunc("/games/upcoming", handler.GetUpcomingGames).Methods("GET")
	api.HandleFunc("/games/live", handler.GetLiveScores).Methods("GET")
	api.HandleFunc("/games", handler.GetGamesByWeek).Methods("GET")
	api.HandleFunc("/games/{gameID}", handler.GetGame).Methods("GET")

	// Analytics
	api.HandleFunc("/analytics/summary", handler.GetAnalyticsSummary).Methods("GET")
	api.HandleFunc("/analytics/matchups", handler.GetMatchups).Methods("GET")

	// Predictions
	api.HandleFunc("/predictions/performance", handler.GetPredictionPerformance).Methods("GET")
	api.HandleFunc("/predictions/vegas-comparison", handler.GetVegasComparison).Methods("GET")
	api.HandleFunc("/predictions/reconcile", handler.ReconcilePredictions).Methods("POST")
	api.HandleFunc("/predictions", handler.RecordPrediction).Methods("POST")
	api.HandleFunc("/predictions", handler.ListPredictions).Methods("GET")
	api.HandleFunc("/predictions/{gameID}", handler.GetPrediction).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
