// Package poller periodically reads queue snapshots for display surfaces
// that want auto-refresh without holding any state of their own.
package poller

import (
	"context"
	"log/slog"
	"time"

	"screener/internal/logging"
	"screener/internal/pipeline"
)

// Handler receives each snapshot the poller takes.
type Handler func(pipeline.Snapshot)

// Poller drives a pipeline snapshot on a fixed interval.
type Poller struct {
	pipeline *pipeline.Pipeline
	interval time.Duration
	handler  Handler
	logger   *slog.Logger
}

// New constructs a poller. Intervals below one second are clamped up to
// keep read pressure off the store.
func New(p *pipeline.Pipeline, interval time.Duration, handler Handler, logger *slog.Logger) *Poller {
	if interval < time.Second {
		interval = time.Second
	}
	return &Poller{
		pipeline: p,
		interval: interval,
		handler:  handler,
		logger:   logging.NewComponentLogger(logger, "poller"),
	}
}

// Run takes an immediate snapshot and then one per interval until the
// context is canceled. Snapshot failures are logged and the loop continues.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.observe(ctx); err != nil {
		p.logger.Warn("snapshot failed", logging.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.observe(ctx); err != nil {
				p.logger.Warn("snapshot failed", logging.Error(err))
			}
		}
	}
}

func (p *Poller) observe(ctx context.Context) error {
	snap, err := p.pipeline.GetSnapshot(ctx)
	if err != nil {
		return err
	}
	if p.handler != nil {
		p.handler(snap)
	}
	return nil
}
