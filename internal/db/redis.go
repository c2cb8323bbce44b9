package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/models"
)

// NewRedis creates a client for addr.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// RedisHandoffStore keeps hand-off records as JSON strings that expire after ttl.
type RedisHandoffStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisHandoffStore stores records under handoff.Key; ttl <= 0 means handoff.DefaultTTL.
func NewRedisHandoffStore(client *redis.Client, ttl time.Duration) *RedisHandoffStore {
	if ttl <= 0 {
		ttl = handoff.DefaultTTL
	}
	return &RedisHandoffStore{client: client, ttl: ttl, now: time.Now}
}

func (s *RedisHandoffStore) Save(ctx context.Context, requestID string, h models.TripHandoff) error {
	if requestID == "" {
		return errors.New("request id is required")
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode handoff: %w", err)
	}
	return s.client.Set(ctx, handoff.Key(requestID), data, s.ttl).Err()
}

func (s *RedisHandoffStore) Load(ctx context.Context, requestID string) (models.TripHandoff, error) {
	val, err := s.client.Get(ctx, handoff.Key(requestID)).Bytes()
	if err == redis.Nil {
		return models.TripHandoff{}, handoff.ErrNotFound
	}
	if err != nil {
		return models.TripHandoff{}, err
	}
	var h models.TripHandoff
	if err := json.Unmarshal(val, &h); err != nil {
		return models.TripHandoff{}, fmt.Errorf("failed to decode handoff: %w", err)
	}
	return h, nil
}

func (s *RedisHandoffStore) Delete(ctx context.Context, requestID string) error {
	return s.client.Del(ctx, handoff.Key(requestID)).Err()
}

// Evict removes records created before olderThan. Keys also expire on their own after ttl.
func (s *RedisHandoffStore) Evict(ctx context.Context, olderThan time.Time) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, handoff.Key("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return n, err
		}
		var h models.TripHandoff
		if err := json.Unmarshal(val, &h); err != nil || h.CreatedAt.Before(olderThan) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, iter.Err()
}

func (s *RedisHandoffStore) Close(ctx context.Context) error {
	return s.client.Close()
}
