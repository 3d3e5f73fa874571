package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Reclaimer sweeps overdue bookings back to the available pool.
type Reclaimer interface {
	ReclaimExpired(ctx context.Context, now time.Time) (int, error)
}

// Expiry runs the reclaim sweep on a fixed interval. After a failed sweep
// it waits an extra backoff before resuming the schedule, so a struggling
// store is not hammered.
type Expiry struct {
	engine   Reclaimer
	interval time.Duration
	backoff  time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// NewExpiry creates the worker. Start must be called to begin sweeping.
func NewExpiry(engine Reclaimer, interval, backoff time.Duration, logger *zap.Logger) *Expiry {
	return &Expiry{
		engine:   engine,
		interval: interval,
		backoff:  backoff,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. The loop exits when ctx is cancelled; an
// in-flight sweep finishes first.
func (e *Expiry) Start(ctx context.Context) {
	go e.run(ctx)
}

func (e *Expiry) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("expiry worker started", zap.Duration("interval", e.interval))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("expiry worker stopping")
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *Expiry) sweep(ctx context.Context) {
	n, err := e.engine.ReclaimExpired(ctx, time.Now())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		e.logger.Warn("reclaim sweep failed", zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(e.backoff):
		}
		return
	}
	if n > 0 {
		e.logger.Info("reclaim sweep done", zap.Int("reclaimed", n))
	}
}

// Stop waits for the loop to exit, up to the grace period. The context
// passed to Start must already be cancelled.
func (e *Expiry) Stop(grace time.Duration) error {
	select {
	case <-e.done:
		return nil
	case <-time.After(grace):
		return errors.New("expiry worker did not stop in time")
	}
}
