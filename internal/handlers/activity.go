package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityHandler exposes the report audit trail
type ActivityHandler struct {
	activity ActivityStore
	logger   *zap.SugaredLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(as ActivityStore, logger *zap.SugaredLogger) *ActivityHandler {
	return &ActivityHandler{activity: as, logger: logger}
}

// ByReport handles GET /activity/report/{id}
func (h *ActivityHandler) ByReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	entries, err := h.activity.ListByReport(r.Context(), id, queryLimit(r, 50))
	if err != nil {
		h.logger.Errorw("Failed to list report activity", "report_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// Recent handles GET /activity/recent
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.activity.ListRecent(r.Context(), queryLimit(r, 100))
	if err != nil {
		h.logger.Errorw("Failed to list recent activity", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return fallback
}
