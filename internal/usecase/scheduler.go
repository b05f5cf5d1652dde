package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentEngine/internal/ports"
)

// Scheduler wires the cron driver with the content cycle and the posting slots.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	poster   *Poster
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, poster *Poster, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, poster: poster, logger: logger}
}

// Start registers the cycle under cycleSpec and one posting job per slot, then starts the driver.
// Retrying queued items is left to the posting slots.
func (s *Scheduler) Start(ctx context.Context, cycleSpec string, slotSpecs []string) error {
	if s.driver == nil {
		return nil
	}

	if s.pipeline != nil && cycleSpec != "" {
		err := s.driver.Add(cycleSpec, func(trigger time.Time) {
			summary, err := s.pipeline.Run(ctx, RunOptions{})
			if err != nil {
				logWarn(s.logger, "cycle failed", "trigger", trigger, "error", err)
				return
			}
			logInfo(s.logger, "cycle done", "trigger", trigger, "run_id", summary.RunID, "posted", summary.ItemsPosted)
		})
		if err != nil {
			return fmt.Errorf("register cycle: %w", err)
		}
	}

	if s.poster != nil {
		for _, spec := range slotSpecs {
			err := s.driver.Add(spec, func(trigger time.Time) {
				if _, err := s.poster.PostNext(ctx); err != nil {
					logWarn(s.logger, "posting slot failed", "trigger", trigger, "error", err)
				}
			})
			if err != nil {
				return fmt.Errorf("register posting slot: %w", err)
			}
		}
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
