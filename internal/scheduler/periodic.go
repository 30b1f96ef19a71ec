package scheduler

import (
	"fmt"
	"time"

	"crm_dashboard_backend/platform/config"
	"crm_dashboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the recurring source-refresh entry and enqueues
// it on a fixed interval. Runs as its own process (cmd/scheduler).
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, interval time.Duration, log *logger.Logger) (*Periodic, error) {
	opt, queue, err := connection(cfg)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	task, err := NewSourceRefreshTask(SourceRefreshPayload{Trigger: "periodic"})
	if err != nil {
		return nil, err
	}
	entryID, err := sched.Register(fmt.Sprintf("@every %s", interval), task, asynq.Queue(queue))
	if err != nil {
		return nil, err
	}
	log.Info("registered periodic source refresh", "entry", entryID, "interval", interval.String())

	return &Periodic{scheduler: sched, log: log}, nil
}

// Run blocks until Shutdown is called or the scheduler fails.
func (p *Periodic) Run() error {
	return p.scheduler.Run()
}

func (p *Periodic) Shutdown() {
	p.scheduler.Shutdown()
}
