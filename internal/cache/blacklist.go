package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked token ids until they would have expired anyway.
// Without Redis it keeps entries in process memory.
type TokenBlacklist struct {
	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

// NewTokenBlacklist creates a blacklist backed by the package Redis client.
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{local: make(map[string]time.Time), now: time.Now}
}

// Revoke blacklists jti for ttl. Non-positive ttls are ignored because the
// token has already expired.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if c := client; c != nil {
		return c.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.local[jti] = b.now().Add(ttl)
	return nil
}

// IsRevoked reports whether jti has been blacklisted.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if c := client; c != nil {
		err := c.Get(ctx, BlacklistKey(jti)).Err()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return err == nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.local[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(exp) {
		delete(b.local, jti)
		return false, nil
	}
	return true, nil
}
