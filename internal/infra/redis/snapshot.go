package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/core/resilience"
)

// SnapshotStore keeps JSON snapshots of listings in Redis. Calls run through
// exec, which should be built with this package's classifier.
type SnapshotStore struct {
	rdb  *redis.Client
	ttl  time.Duration
	exec *resilience.Executor
}

// NewSnapshotStore creates a Redis-backed snapshot store.
func NewSnapshotStore(client *Client, ttl time.Duration, exec *resilience.Executor) *SnapshotStore {
	return &SnapshotStore{rdb: client.rdb, ttl: ttl, exec: exec}
}

func snapshotKey(key string) string {
	return fmt.Sprintf("snapshot:%s", key)
}

// Save stores v under key.
func (s *SnapshotStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	k := snapshotKey(key)
	_, err = resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.rdb.Set(ctx, k, data, s.ttl).Err()
	}, "saveSnapshot", domain.OperationContext{Query: "SET " + k})
	return err
}

// Load decodes the snapshot stored under key into v.
func (s *SnapshotStore) Load(ctx context.Context, key string, v any) (bool, error) {
	k := snapshotKey(key)
	data, err := resilience.ExecuteOrError(ctx, s.exec, func(ctx context.Context) ([]byte, error) {
		b, err := s.rdb.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil // miss
		}
		return b, err
	}, "loadSnapshot", domain.OperationContext{Query: "GET " + k})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return true, nil
}
