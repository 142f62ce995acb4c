// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lubebot/internal/common/logger"
	"lubebot/internal/common/metrics"
	"lubebot/internal/models"

	"github.com/redis/go-redis/v9"
)

const redisSnapshotKey = "catalog:snapshot"

// Cache is the process-lifetime catalog cache: a whole-catalog snapshot plus an
// expiry. Refill is check-and-refill, not mutex-serialized: two requests may
// both notice expiry and both fetch, which is harmless redundant work because a
// refill overwrites the whole snapshot.
//
// When a Redis client is supplied it acts as an L2 so replicas share one store
// fetch per TTL window; Redis being down degrades silently to direct fetches.
type Cache struct {
	source Source
	ttl    time.Duration
	redis  *redis.Client
	logger logger.Logger

	mu        sync.RWMutex
	snapshot  []models.CatalogEntry
	expiresAt time.Time
}

func NewCache(source Source, ttl time.Duration, rdb *redis.Client, log logger.Logger) *Cache {
	return &Cache{
		source: source,
		ttl:    ttl,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

// Snapshot returns the current catalog snapshot, refreshing it when expired.
// A failed refresh serves the stale snapshot when one exists; only a cold
// cache with no reachable source returns an error.
func (c *Cache) Snapshot(ctx context.Context) ([]models.CatalogEntry, error) {
	c.mu.RLock()
	if c.snapshot != nil && time.Now().Before(c.expiresAt) {
		snap := c.snapshot
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	if entries, ok := c.loadFromRedis(ctx); ok {
		c.store(entries)
		metrics.CatalogRefreshes.WithLabelValues("redis").Inc()
		return entries, nil
	}

	entries, err := c.source.FetchProducts(ctx)
	if err != nil {
		metrics.CatalogRefreshes.WithLabelValues("failed").Inc()
		c.mu.RLock()
		stale := c.snapshot
		c.mu.RUnlock()
		if stale != nil {
			c.logger.Warn("serving stale catalog snapshot", map[string]interface{}{
				"error": err.Error(),
			})
			return stale, nil
		}
		return nil, err
	}

	c.store(entries)
	c.saveToRedis(ctx, entries)
	metrics.CatalogRefreshes.WithLabelValues("source").Inc()

	c.logger.Info("catalog snapshot refreshed", map[string]interface{}{
		"productCount": len(entries),
		"ttl":          c.ttl.String(),
	})

	return entries, nil
}

// Expired reports whether the in-memory snapshot needs a refill.
func (c *Cache) Expired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot == nil || time.Now().After(c.expiresAt)
}

func (c *Cache) store(entries []models.CatalogEntry) {
	c.mu.Lock()
	c.snapshot = entries
	c.expiresAt = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

func (c *Cache) loadFromRedis(ctx context.Context) ([]models.CatalogEntry, bool) {
	if c.redis == nil {
		return nil, false
	}
	val, err := c.redis.Get(ctx, redisSnapshotKey).Result()
	if err != nil {
		return nil, false
	}
	var entries []models.CatalogEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, false
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

func (c *Cache) saveToRedis(ctx context.Context, entries []models.CatalogEntry) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, redisSnapshotKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write catalog snapshot to redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
