package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Window is a set of fixed-window counters keyed by string.
type Window interface {
	// Incr increments key and starts a ttl window on the first hit.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Count returns the current value of key, zero when missing or expired.
	Count(ctx context.Context, key string) (int64, error)
	// Remaining returns the time left in the window of key, zero when missing.
	Remaining(ctx context.Context, key string) (time.Duration, error)
	// Reset deletes keys.
	Reset(ctx context.Context, keys ...string) error
}

// RedisWindow stores counters in Redis.
type RedisWindow struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisWindow creates a [RedisWindow]. prefix namespaces every key.
func NewRedisWindow(redisClient redis.UniversalClient, prefix string) *RedisWindow {
	return &RedisWindow{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (w *RedisWindow) key(key string) string {
	if w.prefix == "" {
		return key
	}
	return w.prefix + ":" + key
}

// Incr implements [Window].
func (w *RedisWindow) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := w.key(key)
	count, err := w.redis.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 && ttl > 0 {
		if err := w.redis.Expire(ctx, k, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

// Count implements [Window].
func (w *RedisWindow) Count(ctx context.Context, key string) (int64, error) {
	count, err := w.redis.Get(ctx, w.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// Remaining implements [Window].
func (w *RedisWindow) Remaining(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := w.redis.PTTL(ctx, w.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// -2 missing key, -1 no expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Reset implements [Window].
func (w *RedisWindow) Reset(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, w.key(k))
	}
	if err := w.redis.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
