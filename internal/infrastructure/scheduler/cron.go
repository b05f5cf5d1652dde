package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ContentEngine/internal/ports"
)

// CronScheduler runs jobs on standard five-field cron expressions in one timezone.
type CronScheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	loc     *time.Location
	running bool
	// stopped is the cron.Stop context of the last shutdown; every Stop caller waits on it.
	stopped context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler; overlapping runs of the same job are skipped.
func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	var cl cron.Logger = cron.DiscardLogger
	if logger != nil {
		cl = slogAdapter{logger: logger.With("component", "scheduler")}
	}
	return &CronScheduler{
		loc: loc,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Add registers job under spec. The job receives the fire time in the scheduler's zone.
func (c *CronScheduler) Add(spec string, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("cron %q: nil job", spec)
	}
	if _, err := c.cron.AddFunc(spec, func() { job(time.Now().In(c.loc)) }); err != nil {
		return fmt.Errorf("cron %q: %w", spec, err)
	}
	return nil
}

// Start launches the cron loop and stops it when ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	c.stopped = nil
	c.cron.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.running = false
		c.stopped = c.cron.Stop()
	}
	done := c.stopped
	c.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries reports how many jobs are registered.
func (c *CronScheduler) Entries() int {
	return len(c.cron.Entries())
}

type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
