package usecase

import (
	"context"
	"log/slog"
	"time"

	"CouncilScraper/internal/ports"
)

// Scheduler wires the ticker driver with the runner; scheduled runs always save results.
type Scheduler struct {
	driver ports.Scheduler
	runner *Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner *Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers the runner with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		reports, err := s.runner.RunAll(ctx, true)
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
			return
		}
		failed := 0
		for _, r := range reports {
			if r.Failed() {
				failed++
			}
		}
		s.logger.Info("scheduled run finished", "trigger", trigger, "scrapers", len(reports), "failed", failed)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
