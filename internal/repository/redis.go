package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotStore keeps the latest snapshot of each entity under snapshot:<id>.
type RedisSnapshotStore struct {
	client redis.Cmdable
}

func NewRedisSnapshotStore(client redis.Cmdable) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client}
}

func snapshotKey(persistenceID string) string {
	return "snapshot:" + persistenceID
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(snapshot.PersistenceID), payload, 0).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Latest(ctx context.Context, persistenceID string) (Snapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey(persistenceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisSnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
