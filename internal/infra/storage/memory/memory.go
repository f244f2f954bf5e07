package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
)

// FaultFunc is consulted before every operation; a non-nil error is returned
// instead of touching the store.
type FaultFunc func(op string) error

type MemoryStorage struct {
	players map[string]*domain.Player
	scouts  map[string]*domain.Scout
	reports map[string][]*domain.Report
	fault   FaultFunc
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		players: make(map[string]*domain.Player),
		scouts:  make(map[string]*domain.Scout),
		reports: make(map[string][]*domain.Report),
	}
}

// SetFault installs (or clears, with nil) the fault hook.
func (s *MemoryStorage) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

// Probe implements resilience.Prober.
func (s *MemoryStorage) Probe(ctx context.Context) error {
	return s.check("probe")
}

func (s *MemoryStorage) check(op string) error {
	s.mu.RLock()
	fn := s.fault
	s.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(op)
}

func notFound() error {
	return &dberr.KnownRequestError{Code: dberr.CodeNotFound, Message: "record not found"}
}

func duplicate() error {
	return &dberr.KnownRequestError{Code: dberr.CodeUniqueViolation, Message: "duplicate key"}
}

// -----------------------------------------------------------------------------
// Player Repository
// -----------------------------------------------------------------------------

type PlayerRepo struct {
	store *MemoryStorage
}

func NewPlayerRepo(store *MemoryStorage) *PlayerRepo {
	return &PlayerRepo{store: store}
}

func (r *PlayerRepo) Create(ctx context.Context, p *domain.Player) error {
	if err := r.store.check("createPlayer"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.players[p.ID]; ok {
		return duplicate()
	}
	cp := *p
	r.store.players[p.ID] = &cp
	return nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	if err := r.store.check("getPlayerById"); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.players[id]
	if !ok {
		return nil, notFound()
	}
	cp := *p
	return &cp, nil
}

func (r *PlayerRepo) List(ctx context.Context, limit, offset int) ([]*domain.Player, error) {
	if err := r.store.check("listPlayers"); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	all := make([]*domain.Player, 0, len(r.store.players))
	for _, p := range r.store.players {
		cp := *p
		all = append(all, &cp)
	}
	r.store.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].Name < all[j].Name
	})

	if offset >= len(all) {
		return []*domain.Player{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *PlayerRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.check("deletePlayer"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.players[id]; !ok {
		return notFound()
	}
	delete(r.store.players, id)
	return nil
}

// -----------------------------------------------------------------------------
// Scout Repository
// -----------------------------------------------------------------------------

type ScoutRepo struct {
	store *MemoryStorage
}

func NewScoutRepo(store *MemoryStorage) *ScoutRepo {
	return &ScoutRepo{store: store}
}

func (r *ScoutRepo) Create(ctx context.Context, s *domain.Scout) error {
	if err := r.store.check("createScout"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.scouts[s.ID]; ok {
		return duplicate()
	}
	cp := *s
	r.store.scouts[s.ID] = &cp
	return nil
}

func (r *ScoutRepo) GetByID(ctx context.Context, id string) (*domain.Scout, error) {
	if err := r.store.check("getScoutById"); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.scouts[id]
	if !ok {
		return nil, notFound()
	}
	cp := *s
	return &cp, nil
}

func (r *ScoutRepo) AddReport(ctx context.Context, rep *domain.Report) error {
	if err := r.store.check("fileReport"); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.scouts[rep.ScoutID]
	if !ok {
		return notFound()
	}
	if _, ok := r.store.players[rep.PlayerID]; !ok {
		return notFound()
	}
	for _, existing := range r.store.reports[rep.ScoutID] {
		if existing.ID == rep.ID {
			return duplicate()
		}
	}
	cp := *rep
	r.store.reports[rep.ScoutID] = append(r.store.reports[rep.ScoutID], &cp)
	s.TotalReports++
	return nil
}

func (r *ScoutRepo) ListReports(ctx context.Context, scoutID string) ([]*domain.Report, error) {
	if err := r.store.check("listReports"); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	src := r.store.reports[scoutID]
	out := make([]*domain.Report, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		cp := *src[i]
		out = append(out, &cp)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Snapshot Store
// -----------------------------------------------------------------------------

// SnapshotStore keeps JSON-encoded snapshots in process.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]snapshot
	now  func() time.Time
}

type snapshot struct {
	body    []byte
	savedAt time.Time
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{data: make(map[string]snapshot), now: time.Now}
}

func (s *SnapshotStore) Save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = snapshot{body: b, savedAt: s.now()}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, key string, v any) (bool, error) {
	s.mu.RLock()
	snap, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(snap.body, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return true, nil
}

// DeleteOlderThan drops snapshots saved before cutoff and returns how many
// were removed.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, snap := range s.data {
		if snap.savedAt.Before(cutoff) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}
