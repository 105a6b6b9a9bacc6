package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piar/backoffice/internal/core/ports"
)

// TokenDenylist records revoked bearer tokens until their natural expiry.
// Key format: revoked:<sha256 of token>
type TokenDenylist struct {
	client redis.UniversalClient
}

var _ ports.TokenDenylist = (*TokenDenylist)(nil)

// NewTokenDenylist creates a TokenDenylist wrapping the given Redis client.
func NewTokenDenylist(client redis.UniversalClient) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// IsRevoked reports whether the token id has been revoked and not yet expired.
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

// Revoke records the token id for ttl. A non-positive ttl is a no-op: the
// token has expired already.
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist revoke: %w", err)
	}
	return nil
}

func (d *TokenDenylist) key(tokenID string) string {
	return "revoked:" + tokenID
}
