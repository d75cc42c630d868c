package shiprocket

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token lifetime handling. The provider issues tokens valid for much
// longer, but rotating early keeps a revoked credential from lingering.
const (
	tokenTTL         = 50 * time.Minute
	tokenExpirySlack = 60 * time.Second
)

// cachedToken pairs a bearer token with its local expiry
type cachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// valid reports whether the token can still be used. Tokens within the
// expiry slack are treated as stale so an in-flight request never carries
// a token that dies mid-call.
func (t cachedToken) valid(now time.Time) bool {
	return t.Token != "" && t.ExpiresAt.After(now.Add(tokenExpirySlack))
}

// TokenCache stores the provider bearer token between calls. Implementations
// must be safe for concurrent use.
type TokenCache interface {
	Get(ctx context.Context) (cachedToken, bool)
	Set(ctx context.Context, token cachedToken)
	Clear(ctx context.Context)
}

// MemoryTokenCache is the default single-process cache
type MemoryTokenCache struct {
	mu    sync.Mutex
	token cachedToken
}

// NewMemoryTokenCache creates an empty in-process token cache
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

// Get returns the cached token when still valid
func (c *MemoryTokenCache) Get(_ context.Context) (cachedToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.token.valid(time.Now()) {
		return cachedToken{}, false
	}
	return c.token, true
}

// Set stores a token
func (c *MemoryTokenCache) Set(_ context.Context, token cachedToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Clear drops the cached token
func (c *MemoryTokenCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = cachedToken{}
}

// RedisTokenCache shares one provider token across service instances. The
// key is derived from the credential pair so rotating the password starts
// a fresh cache entry instead of reusing a token minted for the old one.
type RedisTokenCache struct {
	client *redis.Client
	key    string
}

// NewRedisTokenCache creates a Redis-backed token cache
func NewRedisTokenCache(client *redis.Client, email, password string) *RedisTokenCache {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return &RedisTokenCache{
		client: client,
		key:    "shiprocket:token:" + hex.EncodeToString(sum[:8]),
	}
}

// Get returns the shared token when still valid
func (c *RedisTokenCache) Get(ctx context.Context) (cachedToken, bool) {
	res, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil || len(res) == 0 {
		return cachedToken{}, false
	}
	expiresAt, err := time.Parse(time.RFC3339, res["expires_at"])
	if err != nil {
		return cachedToken{}, false
	}
	token := cachedToken{Token: res["token"], ExpiresAt: expiresAt}
	if !token.valid(time.Now()) {
		return cachedToken{}, false
	}
	return token, true
}

// Set stores the shared token with a matching Redis TTL
func (c *RedisTokenCache) Set(ctx context.Context, token cachedToken) {
	_ = c.client.HSet(ctx, c.key, map[string]any{
		"token":      token.Token,
		"expires_at": token.ExpiresAt.Format(time.RFC3339),
	}).Err()
	_ = c.client.ExpireAt(ctx, c.key, token.ExpiresAt).Err()
}

// Clear drops the shared token
func (c *RedisTokenCache) Clear(ctx context.Context) {
	_ = c.client.Del(ctx, c.key).Err()
}
