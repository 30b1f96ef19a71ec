package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_dashboard_backend/internal/agents"
	agenthttp "crm_dashboard_backend/internal/agents/handler"
	"crm_dashboard_backend/internal/distribution"
	"crm_dashboard_backend/internal/email"
	"crm_dashboard_backend/internal/events"
	apphttp "crm_dashboard_backend/internal/http"
	"crm_dashboard_backend/internal/http/router"
	"crm_dashboard_backend/internal/leads"
	"crm_dashboard_backend/internal/notification"
	"crm_dashboard_backend/internal/scheduler"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/kvstore"
	"crm_dashboard_backend/platform/logger"
	"crm_dashboard_backend/platform/validator"
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

	kv, health := initStore(ctx, cfg, log)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	registry := agents.NewRegistry(ctx, kv, eventBus, log)

	leadsModule := leads.NewModule(ctx, kv, registry, eventBus, val, cfg, log)
	defer leadsModule.Close()

	// Notification module subscribes to domain events and owns the
	// in-app notification center; real-time delivery rides the leads SSE stream.
	notificationModule := notification.New(sender, log)
	notificationModule.SetSSE(leadsModule.SSE())
	notificationModule.SetLeadReader(leadsModule.Service())
	notificationModule.RegisterHandlers(eventBus)

	distributionSvc := distribution.NewService(leadsModule.Service(), registry, notificationModule.Center(), cfg.GetDistributionSettleDelay(), log)
	distributionSvc.Start(eventBus)
	defer distributionSvc.Close()

	agentsModule := agenthttp.NewModule(registry, val)
	distributionModule := distribution.NewModule(distributionSvc)

	// Background worker consumes queued refresh tasks in-process; it needs
	// the live lead state, so it cannot run as a separate binary.
	if cfg.GetRedisURL() != "" {
		worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize refresh worker", "error", err)
			panic("failed to initialize refresh worker: " + err.Error())
		}
		go worker.Run(ctx)
	} else {
		log.Warn("REDIS_URL not configured; periodic source refresh disabled")
	}

	// Initial load. The SourceRefreshed event it publishes arms the first
	// distribution sweep once the pool has settled.
	go func() {
		count := leadsModule.Service().RefreshFromSource(ctx)
		log.Info("initial source load complete", "records", count)
	}()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			agentsModule,
			distributionModule,
			notificationModule,
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
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStore connects the durable key-value store. Without a Redis URL the
// engine falls back to an in-memory store: fully functional, nothing
// survives a restart.
func initStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (kvstore.Store, apphttp.HealthChecker) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; using in-memory store, state will not survive restarts")
		mem := kvstore.NewMemoryStore()
		return mem, mem
	}

	var store *kvstore.RedisStore
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		s, err := kvstore.NewRedisStore(cfg.GetRedisURL(), cfg.GetRedisKeyPrefix())
		if err != nil {
			return err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return err
		}
		store = s
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis connection established", "prefix", cfg.GetRedisKeyPrefix())

	return store, store
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
