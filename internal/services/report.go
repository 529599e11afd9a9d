// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/models"
)

// ReportService handles report persistence. All queries are parameterized;
// caller-supplied values never reach the SQL text. Raw storage errors are
// logged here and surfaced only as models.ErrStorage.
type ReportService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewReportService creates a new report service
func NewReportService(db *pgxpool.Pool, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{db: db, logger: logger}
}

const reportColumns = `r.id, r.title, r.description, r.lat, r.lng, r.severity, r.status,
	r.category, r.municipal_notes, r.user_id, u.name, u.email, r.created_at, r.updated_at`

// List returns the full report collection joined with the owning citizen's
// name and email where an owner exists, newest first. No pagination.
func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM report r
		LEFT JOIN citizen u ON r.user_id = u.id
		ORDER BY r.created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		s.logger.Errorw("List reports query failed", "error", err)
		return nil, fmt.Errorf("list reports: %w", models.ErrStorage)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		var r models.Report
		if err := scanReport(rows, &r); err != nil {
			s.logger.Errorw("Scan report row failed", "error", err)
			return nil, fmt.Errorf("scan report: %w", models.ErrStorage)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		s.logger.Errorw("List reports rows failed", "error", err)
		return nil, fmt.Errorf("list reports: %w", models.ErrStorage)
	}

	return reports, nil
}

// GetByID returns a single report joined with its owner.
func (s *ReportService) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM report r
		LEFT JOIN citizen u ON r.user_id = u.id
		WHERE r.id = $1
	`

	var r models.Report
	err := scanReport(s.db.QueryRow(ctx, query, id), &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		s.logger.Errorw("Get report failed", "id", id, "error", err)
		return nil, fmt.Errorf("get report: %w", models.ErrStorage)
	}

	return &r, nil
}

// Create inserts one report row owned by ownerID and returns the persisted
// record with its server-assigned id and timestamps. Ownership comes from
// the resolved identity only; the request carries no owner field at all.
func (s *ReportService) Create(ctx context.Context, ownerID uuid.UUID, req *models.CreateReportRequest) (*models.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	query := `
		INSERT INTO report (id, user_id, title, description, lat, lng, severity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`

	_, err := s.db.Exec(ctx, query,
		id, ownerID,
		req.Title, description,
		*req.Lat, *req.Lng,
		req.Priority, models.StatusSubmitted,
		now,
	)
	if err != nil {
		s.logger.Errorw("Insert report failed", "error", err)
		return nil, fmt.Errorf("insert report: %w", models.ErrStorage)
	}

	return &models.Report{
		ID:          id,
		Title:       req.Title,
		Description: description,
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		Severity:    req.Priority,
		Status:      models.StatusSubmitted,
		UserID:      &ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update overwrites the fields present in req and bumps updated_at.
// There are no transition rules on status; this is the plain admin path.
func (s *ReportService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateReportRequest) (*models.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		current.Status = *req.Status
	}
	if req.Severity != nil {
		current.Severity = *req.Severity
	}
	if req.Category != nil {
		current.Category = *req.Category
	}
	if req.MunicipalNotes != nil {
		current.MunicipalNotes = req.MunicipalNotes
	}
	current.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE report
		SET status = $2, severity = $3, category = $4, municipal_notes = $5, updated_at = $6
		WHERE id = $1
	`

	_, err = s.db.Exec(ctx, query,
		id, current.Status, current.Severity, current.Category, current.MunicipalNotes, current.UpdatedAt,
	)
	if err != nil {
		s.logger.Errorw("Update report failed", "id", id, "error", err)
		return nil, fmt.Errorf("update report: %w", models.ErrStorage)
	}

	return current, nil
}

// scanReport reads one joined report row.
func scanReport(row pgx.Row, r *models.Report) error {
	return row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Lat, &r.Lng, &r.Severity, &r.Status,
		&r.Category, &r.MunicipalNotes, &r.UserID, &r.Name, &r.Email,
		&r.CreatedAt, &r.UpdatedAt,
	)
}
