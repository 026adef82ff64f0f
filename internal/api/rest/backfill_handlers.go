package rest

import (
	"encoding/json"
	"net/http"

	"github.com/fortuna/totals/internal/backfill"
)

// BackfillHandler proxies API calls to the backfill service.
type BackfillHandler struct {
	service *backfill.Service
}

// NewBackfillHandler wires the REST layer to the backfill service.
func NewBackfillHandler(service *backfill.Service) *BackfillHandler {
	return &BackfillHandler{service: service}
}

type apiBackfillRequest struct {
	Season string `json:"season"`
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`
}

// HandleBackfillRequest handles POST /api/v1/backfill
func (h *BackfillHandler) HandleBackfillRequest(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill requires Postgres", nil)
		return
	}

	var req apiBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run, err := h.service.Enqueue(r.Context(), backfill.Request{
		Season: req.Season,
		Path:   req.Path,
		DryRun: req.DryRun,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue import", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"run": runPayload(run),
	})
}

// HandleBackfillStatus handles GET /api/v1/backfill/status
func (h *BackfillHandler) HandleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill requires Postgres", nil)
		return
	}

	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *backfill.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active imports",
	}

	if summary.ActiveRun != nil {
		response["status"] = summary.ActiveRun.Status
		response["message"] = "Importing " + summary.ActiveRun.Season
		response["active_run"] = runPayload(summary.ActiveRun)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, run := range summary.History {
		history = append(history, runPayload(run))
	}

	response["history"] = history
	return response
}

func runPayload(run *backfill.Run) map[string]interface{} {
	if run == nil {
		return nil
	}

	payload := map[string]interface{}{
		"run_id":           run.RunID,
		"season":           run.Season,
		"source_path":      run.SourcePath,
		"status":           run.Status,
		"dry_run":          run.DryRun,
		"matches_imported": run.MatchesImported,
		"created_at":       run.CreatedAt,
	}

	if run.StartedAt.Valid {
		payload["started_at"] = run.StartedAt.Time
	}
	if run.CompletedAt.Valid {
		payload["completed_at"] = run.CompletedAt.Time
	}
	if run.LastError.Valid {
		payload["last_error"] = run.LastError.String
	}

	return payload
}
