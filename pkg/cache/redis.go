package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisBackend = "redis"

// RedisStore is a response store backed by Redis, for deployments where the
// cache is shared across hosts. SetNX provides first-write-wins; entries are
// stored without TTL and never expire.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{rdb: rdb}
}

// Get returns the stored body for key, or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		CacheMisses.WithLabelValues(redisBackend).Inc()
		return nil, ErrMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues(redisBackend, "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}
	CacheHits.WithLabelValues(redisBackend).Inc()
	return body, nil
}

// Put stores body under key unless the key already exists.
func (s *RedisStore) Put(ctx context.Context, key string, body []byte) error {
	set, err := s.rdb.SetNX(ctx, key, body, 0).Result()
	if err != nil {
		CacheErrors.WithLabelValues(redisBackend, "put").Inc()
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !set {
		CacheWriteSkips.WithLabelValues(redisBackend).Inc()
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
