// Package scouting exposes player and scout operations with retry,
// classification and fallback applied to every store call.
package scouting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/core/resilience"
	"github.com/vietddude/dbguard/internal/infra/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	// Snapshot calls are best-effort and must not hold up a request.
	defaultSnapshotTimeout = time.Second
)

// Service coordinates repositories through the executor.
type Service struct {
	players   storage.PlayerRepository
	scouts    storage.ScoutRepository
	snapshots storage.SnapshotStore
	exec      *resilience.Executor
	log       *slog.Logger
	now       func() time.Time

	snapshotTimeout time.Duration
}

// NewService creates a Service. snapshots may be nil.
func NewService(
	players storage.PlayerRepository,
	scouts storage.ScoutRepository,
	snapshots storage.SnapshotStore,
	exec *resilience.Executor,
) *Service {
	return &Service{
		players:   players,
		scouts:    scouts,
		snapshots: snapshots,
		exec:      exec,
		log:       slog.Default(),
		now:       time.Now,

		snapshotTimeout: defaultSnapshotTimeout,
	}
}

// CreatePlayer stores a new player. The ID is fixed before the first attempt,
// so a retried insert that already landed fails as a unique violation instead
// of creating a duplicate row.
func (s *Service) CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, invalid(ctx, "createPlayer", "player name is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	opCtx := domain.NewOperationContext(ctx, "createPlayer")
	opCtx.Query, opCtx.Params = "INSERT players", p.ID
	_, err := resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.players.Create(ctx, &p)
	}, opCtx.Operation, opCtx)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlayer returns a player or a classified error.
func (s *Service) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	opCtx := domain.NewOperationContext(ctx, "getPlayerById")
	opCtx.Params = id
	return resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (*domain.Player, error) {
		return s.players.GetByID(ctx, id)
	}, opCtx.Operation, opCtx)
}

// DeletePlayer removes a player.
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	opCtx := domain.NewOperationContext(ctx, "deletePlayer")
	opCtx.Params = id
	_, err := resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.players.Delete(ctx, id)
	}, opCtx.Operation, opCtx)
	return err
}

// ListPlayers never fails: on an unrecoverable error it serves the last
// good snapshot of the page, or an empty list. stale reports which happened.
func (s *Service) ListPlayers(ctx context.Context, limit, offset int) (players []*domain.Player, stale bool) {
	limit, offset = clampPage(limit, offset)
	opCtx := domain.NewOperationContext(ctx, "listPlayers")
	opCtx.Params = []int{limit, offset}

	out := resilience.Execute(ctx, s.exec, func(ctx context.Context) ([]*domain.Player, error) {
		return s.players.List(ctx, limit, offset)
	}, opCtx)

	key := fmt.Sprintf("players:%d:%d", limit, offset)
	if out.Success {
		s.saveSnapshot(ctx, key, out.Data)
		return out.Data, false
	}

	fallback := []*domain.Player{}
	if s.snapshots != nil {
		var cached []*domain.Player
		loadCtx, cancel := context.WithTimeout(ctx, s.snapshotTimeout)
		found, err := s.snapshots.Load(loadCtx, key, &cached)
		cancel()
		if err != nil {
			s.log.Warn("Failed to load player snapshot", "key", key, "error", err)
		} else if found {
			fallback = cached
		}
	}
	return resilience.CreateFallback(s.exec, opCtx.Operation, fallback, out.Err), true
}

// CreateScout stores a new scout.
func (s *Service) CreateScout(ctx context.Context, sc domain.Scout) (*domain.Scout, error) {
	if strings.TrimSpace(sc.Name) == "" {
		return nil, invalid(ctx, "createScout", "scout name is required")
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	sc.TotalReports = 0
	sc.CreatedAt = s.now().UTC()

	opCtx := domain.NewOperationContext(ctx, "createScout")
	opCtx.Params = sc.ID
	_, err := resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.scouts.Create(ctx, &sc)
	}, opCtx.Operation, opCtx)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetScout returns a scout or a classified error.
func (s *Service) GetScout(ctx context.Context, id string) (*domain.Scout, error) {
	opCtx := domain.NewOperationContext(ctx, "getScoutById")
	opCtx.Params = id
	return resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (*domain.Scout, error) {
		return s.scouts.GetByID(ctx, id)
	}, opCtx.Operation, opCtx)
}

// FileReport records a scout's report on a player.
func (s *Service) FileReport(ctx context.Context, r domain.Report) (*domain.Report, error) {
	if r.ScoutID == "" || r.PlayerID == "" {
		return nil, invalid(ctx, "fileReport", "scout and player are required")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = s.now().UTC()

	opCtx := domain.NewOperationContext(ctx, "fileReport")
	opCtx.Query, opCtx.Params = "INSERT reports", r.ID
	_, err := resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.scouts.AddReport(ctx, &r)
	}, opCtx.Operation, opCtx)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns a scout's reports, or an empty list when the store is
// unavailable.
func (s *Service) ListReports(ctx context.Context, scoutID string) []*domain.Report {
	opCtx := domain.NewOperationContext(ctx, "listReports")
	opCtx.Params = scoutID
	return resilience.ExecuteWithFallback(ctx, s.exec, func(ctx context.Context) ([]*domain.Report, error) {
		return s.scouts.ListReports(ctx, scoutID)
	}, []*domain.Report{}, opCtx.Operation, opCtx)
}

func (s *Service) saveSnapshot(ctx context.Context, key string, v any) {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.snapshotTimeout)
	defer cancel()
	if err := s.snapshots.Save(ctx, key, v); err != nil {
		s.log.Warn("Failed to save snapshot", "key", key, "error", err)
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func invalid(ctx context.Context, op, msg string) error {
	opCtx := domain.NewOperationContext(ctx, op)
	return dberr.New(msg, dberr.CodeValidation, false, false, opCtx, errors.New(msg))
}
