// Package cache stores encoded match results between identical requests.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "talentmatch:match"
	generationKey = "talentmatch:generation"
)

// Cache stores encoded results by key
type Cache interface {
	// Get returns the cached value, or ok=false on a miss
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Invalidate makes every existing entry unreachable
	Invalidate(ctx context.Context) error
	Close() error
}

// Noop is a Cache that never stores anything
type Noop struct{}

// Get always misses
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value
func (Noop) Set(context.Context, string, []byte) error { return nil }

// Invalidate does nothing
func (Noop) Invalidate(context.Context) error { return nil }

// Close does nothing
func (Noop) Close() error { return nil }

// Redis is a Cache backed by a Redis server. Entries are namespaced by a
// generation counter so an import can drop all of them with a single INCR.
type Redis struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	closer func() error
}

// NewRedis creates and verifies a Redis client connection
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{rdb: rdb, ttl: ttl, closer: rdb.Close}, nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, closer: func() error { return nil }}
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	v, err := r.rdb.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// EntryKey returns the Redis key for key under generation gen
func EntryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, gen, key)
}

// Get returns the cached value for key in the current generation
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("cache generation: %w", err)
	}

	data, err := r.rdb.Get(ctx, EntryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return data, true, nil
}

// Set stores value under key in the current generation
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	gen, err := r.generation(ctx)
	if err != nil {
		return fmt.Errorf("cache generation: %w", err)
	}
	if err := r.rdb.Set(ctx, EntryKey(gen, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate bumps the generation; old entries expire on their own
func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Close closes the underlying client if this cache created it
func (r *Redis) Close() error {
	return r.closer()
}
