package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"powerlog/backend/services/collector-service/internal/models"
)

// LatestStore keeps the most recent snapshot per topic in redis.
type LatestStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLatestStore returns redis-backed store.
func NewLatestStore(client *redis.Client, ttl time.Duration) *LatestStore {
	return &LatestStore{client: client, ttl: ttl}
}

func key(topic string) string {
	return fmt.Sprintf("powerlog:latest:%s", topic)
}

// Save overwrites the snapshot for its topic.
func (s *LatestStore) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(snap.Topic), data, s.ttl).Err()
}

// Latest returns the cached snapshot for topic or models.ErrNotFound.
func (s *LatestStore) Latest(ctx context.Context, topic string) (*models.Snapshot, error) {
	result, err := s.client.Get(ctx, key(topic)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(result, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
