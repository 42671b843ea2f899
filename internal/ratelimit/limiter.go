package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rl:"

var (
	ErrLimitExceeded    = errors.New("rate limit exceeded")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Limiter implements fixed-window admission control over Redis counters.
// The window resets via TTL expiry on the counter key; an expired key is
// a fresh counter starting at zero.
type Limiter struct {
	rdb    redis.UniversalClient
	window time.Duration
}

func New(rdb redis.UniversalClient, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, window: window}
}

// Allow increments the caller's counter and compares it against the
// ceiling. The increment happens unconditionally so rejected requests
// still count toward the window.
func (l *Limiter) Allow(ctx context.Context, key string, ceiling int) error {
	count, err := l.rdb.Incr(ctx, keyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.rdb.Expire(ctx, keyPrefix+key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count > int64(ceiling) {
		return ErrLimitExceeded
	}
	return nil
}
