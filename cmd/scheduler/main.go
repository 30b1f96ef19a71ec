package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crm_dashboard_backend/internal/scheduler"
	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"
)

// The scheduler binary enqueues the recurring source-refresh task; the
// API process consumes it. Requires Redis.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "interval", cfg.SourceRefreshInterval.String())

	if cfg.GetRedisURL() == "" {
		log.Error("REDIS_URL is required for the scheduler")
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	periodic, err := scheduler.NewPeriodic(cfg, cfg.GetSourceRefreshInterval(), log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	// The first periodic tick is a full interval away; kick one refresh
	// now so a scheduler restart does not leave the engine stale.
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		panic("failed to initialize task client: " + err.Error())
	}
	defer client.Close()
	if err := client.EnqueueSourceRefresh(ctx, "startup"); err != nil {
		log.Warn("failed to enqueue startup refresh", "error", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- periodic.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping scheduler")
		periodic.Shutdown()
	case err := <-done:
		if err != nil {
			log.Error("scheduler error", "error", err)
			panic("scheduler error: " + err.Error())
		}
	}
}
