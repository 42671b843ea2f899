package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:"

// Blacklist is the volatile denylist for access tokens revoked before
// natural expiry. Entries live exactly as long as the token would have,
// so an expired entry and an expired token are indistinguishable.
type Blacklist struct {
	rdb redis.UniversalClient
}

func New(rdb redis.UniversalClient) *Blacklist {
	return &Blacklist{rdb: rdb}
}

// Add inserts a token with the given remaining lifetime. A non-positive
// TTL means the token has already expired and there is nothing to deny.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, keyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist add: %w", err)
	}
	return nil
}

func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}
