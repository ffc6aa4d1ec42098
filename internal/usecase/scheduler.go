package usecase

import (
	"context"
	"log/slog"
	"time"

	"compintel/internal/logging"
	"compintel/internal/ports"
)

// Watch runs scan cycles on the cron cadence and checks the daily digest
// gate on every tick. The gate is a one-minute wall-clock window, so the
// cadence must land on the configured minute for the digest to fire.
type Watch struct {
	driver ports.Scheduler
	scan   *Pipeline
	digest *DigestPipeline
	logger *slog.Logger
}

// NewWatch wires the cron driver with the recurring workloads.
func NewWatch(driver ports.Scheduler, scan *Pipeline, digest *DigestPipeline, logger *slog.Logger) *Watch {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watch{driver: driver, scan: scan, digest: digest, logger: logger}
}

// Start registers the recurring job with the driver.
func (w *Watch) Start(ctx context.Context) error {
	if w.driver == nil || w.scan == nil {
		return nil
	}

	job := func(time.Time) {
		if err := w.scan.ScanBatch(ctx); err != nil {
			w.logger.Warn("scan cycle aborted", "error", err)
			return
		}
		if w.digest != nil && w.digest.Due() {
			if err := w.digest.Run(ctx, ""); err != nil {
				w.logger.Warn("daily digest aborted", "error", err)
			}
		}
	}

	return w.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (w *Watch) Stop(ctx context.Context) error {
	if w.driver == nil {
		return nil
	}

	return w.driver.Stop(ctx)
}
