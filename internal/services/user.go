package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/models"
)

// UserService keeps the citizen table in step with the authentication
// provider. Identities are minted upstream; this service only mirrors
// them so report ownership always resolves to a row.
type UserService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewUserService creates a new user service
func NewUserService(db *pgxpool.Pool, logger *zap.SugaredLogger) *UserService {
	return &UserService{db: db, logger: logger}
}

// Ensure upserts the resolved identity into the citizen table. Called
// before the first write a session performs so the report FK is valid.
func (s *UserService) Ensure(ctx context.Context, identity models.Identity) error {
	query := `
		INSERT INTO citizen (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name
	`

	_, err := s.db.Exec(ctx, query, identity.ID, identity.Email, identity.Name)
	if err != nil {
		s.logger.Errorw("Upsert citizen failed", "id", identity.ID, "error", err)
		return fmt.Errorf("upsert citizen: %w", models.ErrStorage)
	}

	return nil
}
