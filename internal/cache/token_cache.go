package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

const tokenKey = "sunlux:token"

// TokenCache stores the vendor bearer token in Redis so a restart (or a
// second instance) reuses a still-valid token instead of re-authenticating.
// The TTL is shortened by the refresh margin so a token close to expiry is
// treated as missing.
type TokenCache struct {
	redis *RedisClient
}

// NewTokenCache creates a Redis-backed token cache.
func NewTokenCache(redis *RedisClient) *TokenCache {
	return &TokenCache{redis: redis}
}

// Token returns the cached token, if one is present and not near expiry.
func (c *TokenCache) Token(ctx context.Context) (string, bool) {
	token, err := c.redis.Get(ctx, tokenKey)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// Store caches the token for its lifetime minus the refresh margin.
func (c *TokenCache) Store(ctx context.Context, token string, ttl time.Duration) {
	effective := ttl - sunlux.RefreshMargin
	if effective <= 0 {
		effective = ttl / 2
	}
	if err := c.redis.Set(ctx, tokenKey, token, effective); err != nil {
		log.Warn().Err(err).Msg("failed to cache vendor token")
	}
}

// Clear drops the cached token, forcing the next call to re-authenticate.
func (c *TokenCache) Clear(ctx context.Context) {
	if err := c.redis.Delete(ctx, tokenKey); err != nil {
		log.Warn().Err(err).Msg("failed to clear vendor token")
	}
}
