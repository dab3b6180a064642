package usecase

import (
	"context"
	"log/slog"
	"time"

	"Herald/internal/logging"
	"Herald/internal/ports"
)

// Scheduler wires the hourly driver with the composite cron job.
type Scheduler struct {
	driver     ports.Scheduler
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, dispatcher *Dispatcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, dispatcher: dispatcher, logger: logging.Component(logger, "scheduler")}
}

// Start registers the composite job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.dispatcher == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.dispatcher.DispatchAt(ctx, JobCron, trigger)
		if err != nil {
			s.logger.Error("cron dispatch failed", "error", err)
			return
		}
		s.logger.Info("cron dispatched", "ran_at", report.RanAt, "jobs", len(report.Results), "message", report.Message)
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
