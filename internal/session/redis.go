package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON-encoded values under prefix+key with a native TTL,
// so state survives restarts and is shared between instances.
type RedisStore[T any] struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on rdb. A zero ttl stores keys without expiry.
func NewRedisStore[T any](rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var v T
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("session get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("session decode %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisStore[T]) Set(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", key, err)
	}
	return nil
}

// SweepExpired is a no-op: Redis expires keys itself.
func (r *RedisStore[T]) SweepExpired(context.Context) (int, error) { return 0, nil }

// Len counts keys under the store prefix with SCAN.
func (r *RedisStore[T]) Len(ctx context.Context) (int, error) {
	n := 0
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("session scan %s: %w", r.prefix, err)
	}
	return n, nil
}
