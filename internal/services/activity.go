package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/models"
)

// ActivityService records municipal actions on reports so citizens can
// see who moved their report and when.
type ActivityService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewActivityService creates a new activity service
func NewActivityService(db *pgxpool.Pool, logger *zap.SugaredLogger) *ActivityService {
	return &ActivityService{db: db, logger: logger}
}

// Log records one action against a report.
func (s *ActivityService) Log(ctx context.Context, entry *models.ActivityEntry) error {
	query := `
		INSERT INTO report_activity (id, report_id, actor, action, from_status, to_status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		uuid.New(),
		entry.ReportID,
		entry.Actor,
		entry.Action,
		entry.FromStatus,
		entry.ToStatus,
		entry.Note,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", models.ErrStorage)
	}

	s.logger.Infow("Activity logged",
		"report_id", entry.ReportID,
		"actor", entry.Actor,
		"action", entry.Action,
	)

	return nil
}

// ListByReport returns the audit trail for one report, newest first.
func (s *ActivityService) ListByReport(ctx context.Context, reportID uuid.UUID, limit int) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, report_id, actor, action, from_status, to_status, note, created_at
		FROM report_activity
		WHERE report_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return s.queryEntries(ctx, query, reportID, limit)
}

// ListRecent returns recent activity across all reports.
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, report_id, actor, action, from_status, to_status, note, created_at
		FROM report_activity
		ORDER BY created_at DESC
		LIMIT $1
	`

	return s.queryEntries(ctx, query, limit)
}

func (s *ActivityService) queryEntries(ctx context.Context, query string, args ...interface{}) ([]models.ActivityEntry, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Errorw("List activity query failed", "error", err)
		return nil, fmt.Errorf("list activity: %w", models.ErrStorage)
	}
	defer rows.Close()

	entries := make([]models.ActivityEntry, 0)
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.ReportID, &e.Actor, &e.Action,
			&e.FromStatus, &e.ToStatus, &e.Note, &e.CreatedAt); err != nil {
			s.logger.Errorw("Scan activity row failed", "error", err)
			return nil, fmt.Errorf("scan activity: %w", models.ErrStorage)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		s.logger.Errorw("List activity rows failed", "error", err)
		return nil, fmt.Errorf("list activity: %w", models.ErrStorage)
	}

	return entries, nil
}
