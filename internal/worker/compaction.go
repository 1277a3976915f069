// Package worker holds background maintenance loops.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// EventPruner defines the store operations needed by the compaction worker.
type EventPruner interface {
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// EventCompactionWorker periodically deletes interaction events older than
// the retention window.
type EventCompactionWorker struct {
	store     EventPruner
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewEventCompactionWorker creates a worker with the given store, interval, and retention.
func NewEventCompactionWorker(store EventPruner, interval, retention time.Duration) *EventCompactionWorker {
	return &EventCompactionWorker{
		store:     store,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// A cycle runs immediately so a long-stopped server sheds stale events at boot.
func (w *EventCompactionWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "event-compaction",
		"interval", w.interval.String(),
		"retention", w.retention.String(),
	)

	w.RunOnce(ctx)

	if w.interval <= 0 {
		slog.Error("worker stopped",
			"component", "worker",
			"worker", "event-compaction",
			"reason", "non_positive_interval",
		)
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "event-compaction",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single compaction cycle and returns the number of
// events deleted. Failures are logged, never returned.
func (w *EventCompactionWorker) RunOnce(ctx context.Context) int64 {
	start := w.now()
	cutoff := start.Add(-w.retention)

	slog.Debug("compaction cycle started",
		"component", "worker",
		"action", "compaction_start",
		"cutoff", cutoff.Format(time.RFC3339),
	)

	deleted, err := w.store.PruneEvents(ctx, cutoff)
	if err != nil {
		// Check for graceful shutdown
		if ctx.Err() != nil {
			return 0
		}
		slog.Error("compaction failed",
			"component", "worker",
			"action", "compaction_failed",
			"error", err,
		)
		return 0
	}

	slog.Info("compaction cycle completed",
		"component", "worker",
		"action", "compaction_complete",
		"deleted", deleted,
		"duration_ms", w.now().Sub(start).Milliseconds(),
	)
	return deleted
}
