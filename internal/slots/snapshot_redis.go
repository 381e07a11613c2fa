package slots

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotStore keeps the snapshot document as JSON under a
// single key. Default persistence backend.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore creates a store writing to the given key.
func NewRedisSnapshotStore(client *redis.Client, key string) *RedisSnapshotStore {
	if key == "" {
		key = "slotly:snapshot"
	}
	return &RedisSnapshotStore{client: client, key: key}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, doc *SnapshotDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot marshal error: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("snapshot set error: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context) (*SnapshotDocument, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot get error: %w", err)
	}
	var doc SnapshotDocument
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return nil, fmt.Errorf("snapshot unmarshal error: %w", err)
	}
	return &doc, nil
}
