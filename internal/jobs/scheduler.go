package jobs

import (
	"context"

	"github.com/robfig/cron"

	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
	"github.com/learnloop/learnloop-backend/internal/services"
)

// Scheduler drives the periodic background passes: refreshing content for
// auto-update users and sending digests that were missed while the process
// was down. Each tick is best effort; a failing user never blocks the rest.
type Scheduler struct {
	log       *logger.Logger
	scheduler services.SchedulerService
	cron      *cron.Cron
	spec      string
}

func NewScheduler(log *logger.Logger, scheduler services.SchedulerService, spec string) *Scheduler {
	if spec == "" {
		spec = "@every 30m"
	}
	return &Scheduler{
		log:       log.With("component", "jobs"),
		scheduler: scheduler,
		cron:      cron.New(),
		spec:      spec,
	}
}

// Start registers the tick and launches the cron loop. It returns an error
// only for an unparseable spec.
func (js *Scheduler) Start(ctx context.Context) error {
	if err := js.cron.AddFunc(js.spec, func() { js.tick(ctx) }); err != nil {
		return err
	}
	js.cron.Start()
	js.log.Info("Background scheduler started", "spec", js.spec)
	return nil
}

func (js *Scheduler) Stop() {
	js.cron.Stop()
	js.log.Info("Background scheduler stopped")
}

func (js *Scheduler) tick(ctx context.Context) {
	updated, err := js.scheduler.CheckAndUpdateAllUsers(ctx)
	if err != nil {
		js.log.Error("Content update pass failed", "error", err)
	} else if updated > 0 {
		js.log.Info("Content update pass finished", "users_updated", updated)
	}

	sent, err := js.scheduler.CheckMissedDigests(ctx)
	if err != nil {
		js.log.Error("Missed digest pass failed", "error", err)
	} else if sent > 0 {
		js.log.Info("Missed digest pass finished", "digests_sent", sent)
	}
}
