package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/log"
)

// Job is one unit of scheduled work. Returned errors are logged, not fatal.
type Job func(ctx context.Context) error

// Scheduler runs registered jobs on cron expressions. It is built per
// process and injected where needed; Stop waits for running jobs up to the
// context deadline.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
}

func New(logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.WithComponent(log.ComponentScheduler),
	}
}

// AddJob registers fn under the given cron expression. The name only shows
// up in logs.
func (s *Scheduler) AddJob(spec, name string, fn Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.logger.Info("job started", "job", name)
		if err := fn(context.Background()); err != nil {
			s.logger.Error("job failed", "job", name, log.FieldError, err)
			return
		}
		s.logger.Info("job finished", "job", name, log.FieldDuration, time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("schedule %q (%s): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for in-flight jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
