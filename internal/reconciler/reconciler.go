package reconciler

import (
	"context"
	"log/slog"
	"time"
)

// Flusher is a store that can fall behind its backing storage.
type Flusher interface {
	Dirty() bool
	Flush(ctx context.Context) error
}

// Reconciler periodically rewrites the record list to storage after a
// failed write, so a transient storage outage does not lose changes made
// while it lasted.
type Reconciler struct {
	store    Flusher
	interval time.Duration
}

// New creates a new Reconciler.
func New(store Flusher, interval time.Duration) *Reconciler {
	return &Reconciler{
		store:    store,
		interval: interval,
	}
}

// Start begins the reconciliation loop. It blocks until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	slog.Info("reconciler started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	if ctx.Err() != nil || !r.store.Dirty() {
		return
	}
	if err := r.store.Flush(ctx); err != nil {
		slog.Warn("reconciler: storage still behind", "error", err)
		return
	}
	slog.Info("reconciler: record list written to storage")
}
