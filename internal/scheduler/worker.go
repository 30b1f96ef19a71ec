package scheduler

import (
	"context"

	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Refresher is the engine operation the worker drives.
type Refresher interface {
	RefreshFromSource(ctx context.Context) int
}

// Worker consumes engine tasks. It runs in the API process so task
// handlers operate on the live in-memory engine state.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	refresher Refresher
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, refresher Refresher, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		refresher: refresher,
		log:       log,
	}

	mux.HandleFunc(TaskSourceRefresh, w.handleSourceRefresh)

	return w, nil
}

func (w *Worker) handleSourceRefresh(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSourceRefreshPayload(task)
	if err != nil {
		return err
	}

	count := w.refresher.RefreshFromSource(ctx)
	w.log.Info("source refresh complete", "trigger", payload.Trigger, "records", count)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
