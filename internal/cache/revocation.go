package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevocations stores logged-out JWT IDs until they expire.
type TokenRevocations struct {
	rdb redis.Cmdable
}

// NewTokenRevocations returns a revocation list backed by rdb.
func NewTokenRevocations(rdb redis.Cmdable) *TokenRevocations {
	return &TokenRevocations{rdb: rdb}
}

func (r *TokenRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

func (r *TokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
