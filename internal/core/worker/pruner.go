package worker

import (
	"context"
	"log/slog"
	"time"
)

// SnapshotPruner is a snapshot store that can drop stale entries.
type SnapshotPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Pruner deletes snapshots older than the retention period.
type Pruner struct {
	store     SnapshotPruner
	retention time.Duration
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(store SnapshotPruner, retention time.Duration) *Pruner {
	return &Pruner{
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check at 10% of the retention period, between 1 second and 1 hour
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune drops every snapshot saved before now minus the retention period.
func (p *Pruner) Prune(ctx context.Context) int {
	n, err := p.store.DeleteOlderThan(ctx, p.now().Add(-p.retention))
	if err != nil {
		slog.Error("Failed to prune snapshots", "error", err)
		return 0
	}
	if n > 0 {
		slog.Debug("Pruned snapshots", "count", n)
	}
	return n
}
