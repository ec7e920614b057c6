package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSyncInProgress is returned when a cycle is triggered while another one runs.
var ErrSyncInProgress = errors.New("sync already in progress")

// Reconciler runs one sync cycle.
type Reconciler interface {
	Reconcile(ctx context.Context) (*Report, error)
}

// Runner serializes sync cycles. Overlapping triggers are rejected, not queued.
type Runner struct {
	mu         sync.Mutex
	reconciler Reconciler
	logger     *slog.Logger
}

// NewRunner creates a Runner around r.
func NewRunner(logger *slog.Logger, r Reconciler) *Runner {
	return &Runner{reconciler: r, logger: logger}
}

// Run executes one cycle unless another one is in progress.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer r.mu.Unlock()
	return r.reconciler.Reconcile(ctx)
}

// Watch runs a cycle immediately and then every interval until ctx is done.
func (r *Runner) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Run(ctx); err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				r.logger.Warn("Previous sync cycle still running, skipping trigger")
			} else if ctx.Err() == nil {
				r.logger.Error("Sync cycle failed", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
