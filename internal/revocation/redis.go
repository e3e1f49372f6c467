package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "auth:revoked:"

// RedisDenylist stores revoked token ids as keys that expire together with
// the token, so the set never outgrows the live token population.
type RedisDenylist struct {
	rdb    redis.Cmdable
	prefix string
	clock  func() time.Time
}

func NewRedisDenylist(rdb redis.Cmdable) *RedisDenylist {
	return &RedisDenylist{rdb: rdb, prefix: defaultKeyPrefix, clock: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return ErrInvalidEntry
	}
	ttl := until.Sub(d.clock())
	if ttl <= 0 {
		return nil
	}
	// Redis expiry has millisecond precision at best.
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	if err := d.rdb.Set(ctx, d.key(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revocation: set: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: exists: %w", err)
	}
	return n > 0, nil
}

func (d *RedisDenylist) key(tokenID string) string { return d.prefix + tokenID }
