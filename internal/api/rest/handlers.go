package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fortuna/totals/internal/dataset"
	"github.com/fortuna/totals/internal/ingest/odds"
	"github.com/fortuna/totals/internal/service"
	"github.com/fortuna/totals/internal/strategy"
)

// LiveSource returns the current live odds snapshot
type LiveSource interface {
	IngestLiveGames(ctx context.Context) ([]odds.LiveGame, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	analytics *service.AnalyticsService
	live      LiveSource
}

// NewHandler creates a new handler
func NewHandler(analytics *service.AnalyticsService, live LiveSource) *Handler {
	return &Handler{
		analytics: analytics,
		live:      live,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	seasons := h.analytics.Seasons()

	payload := map[string]interface{}{
		"status":         "healthy",
		"service":        "totals",
		"default_season": seasons.DefaultSeason(),
	}
	if snap, err := seasons.Active(); err == nil {
		payload["active_season"] = snap.Season
		payload["matches_loaded"] = len(snap.Matches)
	} else {
		payload["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, payload)
}

// GetSeasons lists available seasons plus the default and active ones
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons := h.analytics.Seasons()

	available, err := seasons.Seasons(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list seasons", err)
		return
	}
	if available == nil {
		available = []string{}
	}

	payload := map[string]interface{}{
		"default":   seasons.DefaultSeason(),
		"available": available,
	}
	if snap, err := seasons.Active(); err == nil {
		payload["active"] = snap.Season
	}

	respondJSON(w, http.StatusOK, payload)
}

// ActivateSeason switches the active season
func (h *Handler) ActivateSeason(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	snap, err := h.analytics.Seasons().Switch(r.Context(), season)
	if err != nil {
		respondError(w, statusFor(err), "Failed to load season", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":  snap.Season,
		"matches": len(snap.Matches),
		"teams":   len(snap.Teams),
	})
}

// GetMatches returns the active season's processed matches
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimSpace(r.URL.Query().Get("team"))

	matches, err := h.analytics.Matches(team)
	if err != nil {
		respondError(w, statusFor(err), "Failed to fetch matches", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(matches),
		"matches": matches,
	})
}

// GetMatchInsights returns rolling insights for one match
func (h *Handler) GetMatchInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.analytics.MatchInsights(mux.Vars(r)["matchID"])
	if err != nil {
		respondError(w, statusFor(err), "Failed to compute match insights", err)
		return
	}

	respondJSON(w, http.StatusOK, insights)
}

// GetMatchSummary returns a prose summary of one match
func (h *Handler) GetMatchSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.analytics.MatchSummary(r.Context(), mux.Vars(r)["matchID"])
	if err != nil {
		respondError(w, statusFor(err), "Failed to summarize match", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetTeams returns every team aggregate
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.analytics.Teams()
	if err != nil {
		respondError(w, statusFor(err), "Failed to fetch teams", err)
		return
	}

	respondJSON(w, http.StatusOK, teams)
}

// GetTeam returns one team aggregate
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.analytics.Team(mux.Vars(r)["team"])
	if err != nil {
		respondError(w, statusFor(err), "Failed to fetch team", err)
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// GetMatchup analyzes a home/away pairing
func (h *Handler) GetMatchup(w http.ResponseWriter, r *http.Request) {
	home := strings.TrimSpace(r.URL.Query().Get("home"))
	away := strings.TrimSpace(r.URL.Query().Get("away"))
	if home == "" || away == "" {
		respondError(w, http.StatusBadRequest, "home and away are required", nil)
		return
	}

	report, err := h.analytics.Matchup(home, away)
	if err != nil {
		respondError(w, statusFor(err), "Failed to analyze matchup", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetMarketInsights ranks teams against the market
func (h *Handler) GetMarketInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.analytics.MarketInsights()
	if err != nil {
		respondError(w, statusFor(err), "Failed to compute market insights", err)
		return
	}

	respondJSON(w, http.StatusOK, insights)
}

// RunBacktest replays a strategy over a season
func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var req strategy.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	result, err := h.analytics.Backtest(r.Context(), req)
	if err != nil {
		respondError(w, statusFor(err), "Backtest failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetLiveSignals evaluates the current live odds snapshot
func (h *Handler) GetLiveSignals(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		respondError(w, http.StatusServiceUnavailable, "Live odds are not configured", nil)
		return
	}

	games, err := h.live.IngestLiveGames(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch live odds", err)
		return
	}

	signals, err := h.analytics.LiveSignals(r.Context(), games)
	if err != nil {
		respondError(w, statusFor(err), "Failed to evaluate live signals", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(signals),
		"signals": signals,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, dataset.ErrSeasonNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSeasonNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, strategy.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
