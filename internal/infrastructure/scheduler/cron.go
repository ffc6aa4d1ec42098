// Package scheduler drives recurring jobs from a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"compintel/internal/ports"
)

// Cron runs one job on a standard five-field cron cadence, evaluated in a
// fixed location so the daily gate fires on local wall time.
type Cron struct {
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
	started bool
}

var _ ports.Scheduler = (*Cron)(nil)

// NewCron builds a scheduler from a cron expression and location.
func NewCron(spec string, loc *time.Location, logger *slog.Logger) *Cron {
	if loc == nil {
		loc = time.UTC
	}
	return &Cron{
		spec:   spec,
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// Start registers the job and begins the schedule. Calling Start again on a
// running scheduler is a no-op.
func (c *Cron) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || c.started {
		return nil
	}

	if _, err := c.cron.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	c.cron.Start()
	c.started = true
	c.debug("scheduler started", "spec", c.spec)
	return nil
}

// Stop halts the schedule and waits for a running job to finish, or for ctx.
func (c *Cron) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}
	c.started = false

	select {
	case <-c.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cron) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
