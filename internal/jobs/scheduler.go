// Package jobs runs the background work of the CRM API on cron schedules.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps a cron runner. Jobs are registered once at startup;
// overlapping runs of the same job are skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler with panic recovery and overlap
// protection on every job.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		logger: logger,
	}
}

// AddJob registers a named job under a cron expression. The expression
// uses the six-field form with seconds, and the @every / @hourly
// shorthands also work.
func (s *Scheduler) AddJob(name string, cronExpr string, job func()) error {
	_, err := s.cron.AddFunc(cronExpr, func() {
		s.logger.Info("job started", zap.String("job", name))
		job()
		s.logger.Info("job finished", zap.String("job", name))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, cronExpr, err)
	}

	s.logger.Info("job scheduled",
		zap.String("job", name),
		zap.String("schedule", cronExpr))
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling. The returned context is done once any job
// still running has completed.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}
