// Package handlers contains HTTP request handlers for the PinMov API.
// Handlers parse requests, call services, and return JSON responses.
// Storage-level error detail never reaches a response body; it is logged
// and surfaced as a generic failure.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/auth"
	"github.com/pinmov/atlas-server/internal/models"
)

// ReportStore is the persistence contract the report handler depends on.
// Split out as an interface so tests inject a fake gateway.
type ReportStore interface {
	List(ctx context.Context) ([]models.Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	Create(ctx context.Context, ownerID uuid.UUID, req *models.CreateReportRequest) (*models.Report, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateReportRequest) (*models.Report, error)
}

// UserStore mirrors provider identities into the citizen table.
type UserStore interface {
	Ensure(ctx context.Context, identity models.Identity) error
}

// ActivityStore records municipal actions on reports.
type ActivityStore interface {
	Log(ctx context.Context, entry *models.ActivityEntry) error
	ListByReport(ctx context.Context, reportID uuid.UUID, limit int) ([]models.ActivityEntry, error)
	ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

// ReportHandler handles report-related HTTP endpoints
type ReportHandler struct {
	reports  ReportStore
	users    UserStore
	activity ActivityStore
	logger   *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(rs ReportStore, us UserStore, as ActivityStore, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reports: rs, users: us, activity: as, logger: logger}
}

// List handles GET /report
// Returns the full report collection joined with owner name/email.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list reports", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, reports)
}

// Create handles POST /report
// Ownership is taken from the resolved identity, never from the body.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondFailure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Fail fast, before any persistence call
	if err := req.Validate(); err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Ensure(r.Context(), identity); err != nil {
		h.logger.Errorw("Failed to sync citizen", "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	report, err := h.reports.Create(r.Context(), identity.ID, &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			respondFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("Failed to create report", "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	h.logger.Infow("Report created",
		"id", report.ID,
		"severity", report.Severity,
		"owner", identity.ID,
	)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// Update handles PATCH /report/{id}
// Plain overwrite of triage fields plus an audit trail entry.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		respondFailure(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	var req models.UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondFailure(w, http.StatusNotFound, "Report not found")
			return
		}
		h.logger.Errorw("Failed to load report", "id", id, "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to update report")
		return
	}

	updated, err := h.reports.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			respondFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("Failed to update report", "id", id, "error", err)
		respondFailure(w, http.StatusInternalServerError, "Failed to update report")
		return
	}

	fromStatus := current.Status
	toStatus := updated.Status
	note := ""
	if req.MunicipalNotes != nil {
		note = *req.MunicipalNotes
	}
	_ = h.activity.Log(r.Context(), &models.ActivityEntry{
		ReportID:   id,
		Actor:      identity.Email,
		Action:     "update",
		FromStatus: &fromStatus,
		ToStatus:   &toStatus,
		Note:       note,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    updated,
	})
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with a plain error body
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Helper: respond with the {success:false} envelope used by write paths
func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
