package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan_portal_backend/internal/applications"
	"loan_portal_backend/internal/applications/cache"
	"loan_portal_backend/internal/email"
	"loan_portal_backend/internal/events"
	apphttp "loan_portal_backend/internal/http"
	"loan_portal_backend/internal/http/router"
	"loan_portal_backend/internal/inference"
	"loan_portal_backend/internal/notification"
	"loan_portal_backend/platform/config"
	"loan_portal_backend/platform/db"
	"loan_portal_backend/platform/logger"
	"loan_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Model artifacts. A failed load is not fatal: the server comes up and
	// reports inference as unavailable until the artifacts are fixed.
	pipeline := loadPipeline(cfg, log)

	decisionCache := initDecisionCache(cfg, log)

	sender := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	applicationsModule := applications.NewModule(pool, pipeline, decisionCache, eventBus, val, log, cfg.ReviewThreshold)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:          cfg,
		Logger:          log,
		Health:          db.NewPoolAdapter(pool),
		Pipeline:        applicationsModule.Service(),
		EventBus:        eventBus,
		PublicRateLimit: cfg.RateLimitPerSecond,
		PublicRateBurst: cfg.RateLimitBurst,
		Modules: []apphttp.Module{
			applicationsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// loadPipeline loads the model artifacts and assembles the inference
// pipeline. Returns nil when anything is missing or invalid.
func loadPipeline(cfg config.ModelConfig, log *logger.Logger) *inference.Pipeline {
	arts, err := inference.LoadArtifacts(cfg.GetModelDir())
	if err != nil {
		log.Warn("model artifacts not loaded; inference disabled", "dir", cfg.GetModelDir(), "error", err)
		return nil
	}

	pipeline, err := inference.NewPipelineFromArtifacts(arts)
	if err != nil {
		log.Warn("pipeline assembly failed; inference disabled", "error", err)
		return nil
	}

	log.ArtifactsLoaded(cfg.GetModelDir(), pipeline.ModelVersion(), len(arts.Forest.Trees))
	return pipeline
}

func initDecisionCache(cfg config.CacheConfig, log *logger.Logger) *cache.DecisionCache {
	if !cfg.IsDecisionCacheEnabled() || cfg.GetRedisURL() == "" {
		log.Info("decision cache disabled")
		return nil
	}

	decisionCache, err := cache.New(cfg.GetRedisURL(), cfg.GetDecisionCacheTTL(), log)
	if err != nil {
		log.Warn("decision cache unavailable", "error", err)
		return nil
	}
	return decisionCache
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
