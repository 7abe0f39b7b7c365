package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records access tokens revoked at logout until they would have
// expired anyway. A nil *TokenBlacklist or one without a client is a no-op.
type TokenBlacklist struct {
	client *redis.Client
	prefix string
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client, prefix: "blacklist:access:"}
}

// Revoke stores token in the blacklist with the given TTL.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || b.client == nil || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.prefix+token, "1", ttl).Err()
}

// IsRevoked returns true when token is in the blacklist.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	exists, err := b.client.Exists(ctx, b.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
