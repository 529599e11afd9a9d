package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/models"
)

const hubCacheKey = "pinmov:hubs"

// HubService serves the hub collection. Hubs change rarely and are
// read-only to clients, so listings go through a redis read-through cache
// when a cache client is configured. With no cache the service falls back
// to Postgres transparently.
type HubService struct {
	db     *pgxpool.Pool
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewHubService creates a new hub service. cache may be nil.
func NewHubService(db *pgxpool.Pool, cache *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *HubService {
	return &HubService{db: db, cache: cache, ttl: ttl, logger: logger}
}

// List returns the full hub collection, oldest first.
func (s *HubService) List(ctx context.Context) ([]models.Hub, error) {
	if hubs, ok := s.fromCache(ctx); ok {
		return hubs, nil
	}

	hubs, err := s.listFromDB(ctx)
	if err != nil {
		return nil, err
	}

	s.warmCache(ctx, hubs)
	return hubs, nil
}

// Refresh re-reads the hub collection from Postgres and rewarms the cache.
func (s *HubService) Refresh(ctx context.Context) error {
	hubs, err := s.listFromDB(ctx)
	if err != nil {
		return err
	}
	s.warmCache(ctx, hubs)
	return nil
}

func (s *HubService) listFromDB(ctx context.Context) ([]models.Hub, error) {
	query := `
		SELECT id, name, services, lat, lng, created_at
		FROM hub
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		s.logger.Errorw("List hubs query failed", "error", err)
		return nil, fmt.Errorf("list hubs: %w", models.ErrStorage)
	}
	defer rows.Close()

	hubs := make([]models.Hub, 0)
	for rows.Next() {
		var h models.Hub
		if err := rows.Scan(&h.ID, &h.Name, &h.Services, &h.Lat, &h.Lng, &h.CreatedAt); err != nil {
			s.logger.Errorw("Scan hub row failed", "error", err)
			return nil, fmt.Errorf("scan hub: %w", models.ErrStorage)
		}
		hubs = append(hubs, h)
	}
	if err := rows.Err(); err != nil {
		s.logger.Errorw("List hubs rows failed", "error", err)
		return nil, fmt.Errorf("list hubs: %w", models.ErrStorage)
	}

	return hubs, nil
}

// fromCache returns the cached hub list. Cache failures degrade to a miss.
func (s *HubService) fromCache(ctx context.Context) ([]models.Hub, bool) {
	if s.cache == nil {
		return nil, false
	}

	payload, err := s.cache.Get(ctx, hubCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warnw("Hub cache read failed", "error", err)
		}
		return nil, false
	}

	var hubs []models.Hub
	if err := json.Unmarshal(payload, &hubs); err != nil {
		s.logger.Warnw("Hub cache payload corrupt", "error", err)
		return nil, false
	}
	return hubs, true
}

func (s *HubService) warmCache(ctx context.Context, hubs []models.Hub) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(hubs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, hubCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warnw("Hub cache write failed", "error", err)
	}
}

// HubCacheRefresher periodically rewarms the hub cache so map loads hit
// warm data even after the TTL lapses.
type HubCacheRefresher struct {
	hubSvc *HubService
	logger *zap.SugaredLogger
}

// NewHubCacheRefresher creates a new background cache refresher
func NewHubCacheRefresher(hs *HubService, logger *zap.SugaredLogger) *HubCacheRefresher {
	return &HubCacheRefresher{hubSvc: hs, logger: logger}
}

// Start begins the periodic refresh loop
func (w *HubCacheRefresher) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial warm
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Hub cache refresher stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *HubCacheRefresher) refresh(ctx context.Context) {
	if err := w.hubSvc.Refresh(ctx); err != nil {
		w.logger.Warnw("Hub cache refresh failed", "error", err)
		return
	}
	w.logger.Debug("Hub cache refreshed")
}
