// Package main is the entry point for the PinMov civic reporting server.
// It provides a REST API for geolocated mobility/accessibility reports,
// municipal service hubs, and the municipal triage audit trail.
//
// Architecture:
//   - Reports and hubs live in PostgreSQL; all SQL is parameterized
//   - Identity comes from a signed session cookie minted by the external
//     auth provider bridge; every report/hub operation is gated on it
//   - Hub listings go through a redis read-through cache (hubs change rarely)
//   - Municipal updates to a report are recorded in an audit trail
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pinmov/atlas-server/internal/auth"
	"github.com/pinmov/atlas-server/internal/config"
	"github.com/pinmov/atlas-server/internal/database"
	"github.com/pinmov/atlas-server/internal/handlers"
	"github.com/pinmov/atlas-server/internal/middleware"
	"github.com/pinmov/atlas-server/internal/services"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting PinMov Atlas Server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it hub listings fall back to Postgres
	cache := newCache(cfg.RedisURL, sugar)
	if cache != nil {
		defer cache.Close()
	}

	// Initialize services
	reportSvc := services.NewReportService(db, sugar)
	hubSvc := services.NewHubService(db, cache, time.Duration(cfg.HubCacheTTL)*time.Second, sugar)
	userSvc := services.NewUserService(db, sugar)
	activitySvc := services.NewActivityService(db, sugar)
	refresher := services.NewHubCacheRefresher(hubSvc, sugar)

	// Start background hub cache refresher
	if cache != nil {
		go refresher.Start(context.Background(), time.Duration(cfg.HubRefreshInterval)*time.Minute)
	}

	// Authorization guard for session cookies
	guard := auth.NewGuard(cfg.SessionCookie, cfg.SessionSecret)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportSvc, userSvc, activitySvc, sugar)
	hubHandler := handlers.NewHubHandler(hubSvc, sugar)
	activityHandler := handlers.NewActivityHandler(activitySvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// Health checks (unauthenticated probes)
	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)

	// Everything else requires a resolved identity
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(guard))

		r.Route("/report", func(r chi.Router) {
			r.Get("/", reportHandler.List)         // Full collection, joined with owner
			r.Post("/", reportHandler.Create)      // File a new report
			r.Patch("/{id}", reportHandler.Update) // Municipal triage update
		})

		r.Get("/hub", hubHandler.List)

		r.Route("/activity", func(r chi.Router) {
			r.Get("/report/{id}", activityHandler.ByReport)
			r.Get("/recent", activityHandler.Recent)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

// newCache connects to redis; a missing or unreachable redis is not fatal.
func newCache(redisURL string, sugar *zap.SugaredLogger) *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		sugar.Warnf("Invalid REDIS_URL, hub cache disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		sugar.Warnf("Redis unreachable, hub cache disabled: %v", err)
		client.Close()
		return nil
	}

	return client
}
