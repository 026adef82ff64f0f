package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/totals/internal/backfill"
	"github.com/fortuna/totals/internal/service"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server. live and backfillSvc may be nil;
// their routes then answer 503.
func NewServer(port string, analytics *service.AnalyticsService, live LiveSource, backfillSvc *backfill.Service) *Server {
	handler := NewHandler(analytics, live)
	backfillHandler := NewBackfillHandler(backfillSvc)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Seasons
	api.HandleFunc("/seasons", handler.GetSeasons).Methods("GET")
	api.HandleFunc("/seasons/{season}/activate", handler.ActivateSeason).Methods("POST")

	// Matches
	api.HandleFunc("/matches", handler.GetMatches).Methods("GET")
	api.HandleFunc("/matches/{matchID}/insights", handler.GetMatchInsights).Methods("GET")
	api.HandleFunc("/matches/{matchID}/summary", handler.GetMatchSummary).Methods("GET")

	// Teams
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/teams/{team}", handler.GetTeam).Methods("GET")
	api.HandleFunc("/matchup", handler.GetMatchup).Methods("GET")
	api.HandleFunc("/market/insights", handler.GetMarketInsights).Methods("GET")

	// Strategies
	api.HandleFunc("/backtest", handler.RunBacktest).Methods("POST")
	api.HandleFunc("/live/signals", handler.GetLiveSignals).Methods("GET")

	// Backfill operations
	api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
	api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
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
