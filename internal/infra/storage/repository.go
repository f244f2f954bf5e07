package storage

import (
	"context"

	"github.com/vietddude/dbguard/internal/core/domain"
)

// PlayerRepository handles player storage operations
type PlayerRepository interface {
	// Create inserts a player; the ID must already be set
	Create(ctx context.Context, player *domain.Player) error

	// GetByID retrieves a player by ID
	GetByID(ctx context.Context, id string) (*domain.Player, error)

	// List retrieves players ordered by rating
	List(ctx context.Context, limit, offset int) ([]*domain.Player, error)

	// Delete removes a player
	Delete(ctx context.Context, id string) error
}

// ScoutRepository handles scouts and their reports
type ScoutRepository interface {
	// Create inserts a scout; the ID must already be set
	Create(ctx context.Context, scout *domain.Scout) error

	// GetByID retrieves a scout by ID
	GetByID(ctx context.Context, id string) (*domain.Scout, error)

	// AddReport stores a report and bumps the scout's report count atomically
	AddReport(ctx context.Context, report *domain.Report) error

	// ListReports retrieves a scout's reports, newest first
	ListReports(ctx context.Context, scoutID string) ([]*domain.Report, error)
}

// SnapshotStore keeps the last good copy of a listing for fallback paths.
type SnapshotStore interface {
	Save(ctx context.Context, key string, v any) error
	// Load decodes the snapshot into v and reports whether one was found.
	Load(ctx context.Context, key string, v any) (bool, error)
}
