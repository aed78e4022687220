// Package revocation tracks refresh tokens that must never be redeemed
// again. Entries are keyed by the token's jti and expire alongside the
// token itself, so the set stays bounded.
package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:refresh:"

// List is the revocation set consulted and written by the refresh and
// logout flows.
type List interface {
	// Revoke marks a token id unusable for at most ttl. It returns true
	// when this call was the one that revoked it: a false return means
	// the id was already on the list, which callers treat as a replay.
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisList struct {
	client *redis.Client
}

func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

func (l *RedisList) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		// The token already expired on its own clock; nothing to track,
		// and the redeem path has already rejected it.
		return false, nil
	}
	// SET NX makes revocation first-writer-wins: two concurrent redeems
	// of the same token cannot both succeed.
	return l.client.SetNX(ctx, keyPrefix+jti, "1", ttl).Result()
}

func (l *RedisList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := l.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
