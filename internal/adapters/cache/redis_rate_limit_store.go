package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements fixed-window request counters in Redis.
// The first increment on a key starts the window by attaching the TTL;
// subsequent hits only increment, so the window does not slide.
type RedisRateLimitStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRateLimitStore creates a counter store under the given key prefix.
func NewRedisRateLimitStore(client *redis.Client, prefix string) *RedisRateLimitStore {
	if prefix == "" {
		prefix = "auth:ratelimit:"
	}
	return &RedisRateLimitStore{client: client, prefix: prefix}
}

func (s *RedisRateLimitStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := s.prefix + key
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("rate-limit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, fmt.Errorf("rate-limit expire: %w", err)
		}
	}
	return count, nil
}
