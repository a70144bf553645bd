package history

import (
	"context"
	"time"

	"github.com/jonathan/placement-matcher/internal/logging"
	"go.uber.org/zap"
)

// DefaultSweepInterval is how often a Janitor prunes when no interval is given
const DefaultSweepInterval = time.Hour

// Janitor deletes rows that fell out of the retention window on a fixed interval
type Janitor struct {
	store    Store
	opts     Options
	interval time.Duration
	logger   *zap.Logger
}

// NewJanitor creates a janitor for store. opts.Retention must be positive for sweeps to delete anything.
func NewJanitor(store Store, opts Options, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Janitor{store: store, opts: opts, interval: interval, logger: logging.OrNop(logger)}
}

// Sweep prunes once
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	cutoff := j.opts.Cutoff()
	if cutoff.IsZero() {
		return 0, nil
	}
	return j.store.Prune(ctx, cutoff)
}

// Run sweeps immediately and then every interval until ctx is done
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		n, err := j.Sweep(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			j.logger.Warn("score history sweep failed", zap.Error(err))
		case n > 0:
			j.logger.Info("pruned score history", zap.Int64("deleted", n), zap.Duration("retention", j.opts.Retention))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
