package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore stores values in Redis under prefix + ":" + key.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed store. A ttl of zero keeps values until deleted.
func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gw"
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Get returns the stored value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, true, nil
}

// Set stores value under key, refreshing the TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
