package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore implements Store on top of a Redis client.
//
// Every error from Redis is absorbed here: a failed Get is a miss, a failed
// Set or Invalidate is a warning in the log. Callers never see cache errors.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore builds a Store from config. The connection is verified with a
// ping but a failure is not fatal: the service starts degraded and recovers
// once Redis comes back, matching the availability contract.
func NewRedisStore(ctx context.Context, addr, password string, db int, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, cache degraded to pass-through",
			zap.String("addr", addr), zap.Error(err))
	}
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		s.logger.Warn("cache get failed, treating as miss", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes all keys matching pattern via SCAN + DEL. SCAN keeps the
// walk incremental instead of blocking Redis the way KEYS would on a large
// keyspace; per-user prefixes keep each scan's match set small.
func (s *RedisStore) Invalidate(ctx context.Context, pattern string) int {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.logger.Warn("cache invalidation scan failed",
				zap.String("pattern", pattern), zap.Error(err))
			return deleted
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				s.logger.Warn("cache invalidation delete failed",
					zap.String("pattern", pattern), zap.Error(err))
				return deleted
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted
		}
	}
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
