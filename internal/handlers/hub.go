package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/models"
)

// HubStore is the persistence contract the hub handler depends on.
type HubStore interface {
	List(ctx context.Context) ([]models.Hub, error)
}

// HubHandler handles hub-related HTTP endpoints
type HubHandler struct {
	hubs   HubStore
	logger *zap.SugaredLogger
}

// NewHubHandler creates a new hub handler
func NewHubHandler(hs HubStore, logger *zap.SugaredLogger) *HubHandler {
	return &HubHandler{hubs: hs, logger: logger}
}

// List handles GET /hub
func (h *HubHandler) List(w http.ResponseWriter, r *http.Request) {
	hubs, err := h.hubs.List(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list hubs", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, hubs)
}
