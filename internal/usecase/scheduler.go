package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"TrendingPress/internal/ports"
)

// Scheduler drives the pipeline from a ports.Scheduler. Each trigger processes the trigger's day.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger

	runs atomic.Int64
}

// NewScheduler returns a helper to start/stop recurring runs. Deadlines are per stage, set on the pipeline.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) { s.runOnce(ctx, trigger) })
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

// Runs reports how many scheduled runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) runOnce(ctx context.Context, trigger time.Time) {
	defer s.runs.Add(1)

	started := time.Now()
	run := s.runs.Load() + 1
	s.logger.Info("scheduled run started", "run", run, "trigger", trigger)
	if err := s.pipeline.ProcessDay(ctx, trigger); err != nil {
		s.logger.Error("scheduled run failed", "run", run, "error", err)
		return
	}
	s.logger.Info("scheduled run finished", "run", run, "took", time.Since(started).Round(time.Millisecond))
}
