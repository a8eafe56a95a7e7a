package sunlux

import (
	"context"
	"sync"
	"time"
)

// RefreshMargin is how long before its advertised expiry a cached token is
// treated as stale and refreshed.
const RefreshMargin = 5 * time.Minute

// TokenCache stores the vendor bearer token with its expiry. Implementations
// must treat a token within RefreshMargin of expiry as absent.
type TokenCache interface {
	// Token returns the cached token, or ok=false when no usable token is
	// cached.
	Token(ctx context.Context) (token string, ok bool)
	// Store caches a token valid for ttl from now.
	Store(ctx context.Context, token string, ttl time.Duration)
	// Clear drops the cached token so the next call re-authenticates.
	Clear(ctx context.Context)
}

// MemoryTokenCache is an in-process TokenCache. Suitable for tests and
// single-instance deployments.
type MemoryTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemoryTokenCache creates an empty in-process token cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Token(_ context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.expiresAt.Add(-RefreshMargin)) {
		return "", false
	}
	return c.token, true
}

func (c *MemoryTokenCache) Store(_ context.Context, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
}

func (c *MemoryTokenCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}
