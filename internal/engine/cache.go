package engine

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/pkg/gisdb"
)

// DiscoveryCache remembers which GIS endpoints serve a jurisdiction so
// repeated runs in the same county skip rediscovery. The cache is owned by
// the engine and passed explicitly into each run; there is no ambient
// global state.
type DiscoveryCache interface {
	Get(ctx context.Context, county, state, country string) ([]gisdb.Endpoint, bool)
	Set(ctx context.Context, county, state, country string, endpoints []gisdb.Endpoint)
}

// cacheKey normalizes a jurisdiction tuple into a stable key.
func cacheKey(county, state, country string) string {
	parts := []string{county, state, country}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "georef:discovery:" + strings.Join(parts, "|")
}

// MemoryCache is the default in-process DiscoveryCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]gisdb.Endpoint
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]gisdb.Endpoint{}}
}

// Get implements DiscoveryCache.
func (c *MemoryCache) Get(_ context.Context, county, state, country string) ([]gisdb.Endpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	endpoints, ok := c.entries[cacheKey(county, state, country)]
	return endpoints, ok
}

// Set implements DiscoveryCache.
func (c *MemoryCache) Set(_ context.Context, county, state, country string, endpoints []gisdb.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(county, state, country)] = endpoints
}

// RedisCache shares discovery results across processes. Cache failures
// degrade to misses; they never fail a resolution run.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a DiscoveryCache over the given Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get implements DiscoveryCache.
func (c *RedisCache) Get(ctx context.Context, county, state, country string) ([]gisdb.Endpoint, bool) {
	data, err := c.client.Get(ctx, cacheKey(county, state, country)).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("engine: discovery cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var endpoints []gisdb.Endpoint
	if err := json.Unmarshal(data, &endpoints); err != nil {
		zap.L().Warn("engine: discovery cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return endpoints, true
}

// Set implements DiscoveryCache.
func (c *RedisCache) Set(ctx context.Context, county, state, country string, endpoints []gisdb.Endpoint) {
	data, err := json.Marshal(endpoints)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(county, state, country), data, c.ttl).Err(); err != nil {
		zap.L().Warn("engine: discovery cache write failed", zap.Error(err))
	}
}
