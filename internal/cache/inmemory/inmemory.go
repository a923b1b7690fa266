package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/briefdhq/briefd/internal/cache"
	"github.com/briefdhq/briefd/models"
)

type entry struct {
	brief     *models.GeneratedBrief
	expiresAt time.Time
}

// Cache is a process-local brief cache with lazy TTL eviction. It backs
// tests and single-node deployments; multi-node deployments use the redis
// implementation.
type Cache struct {
	entries map[string]entry
	mu      sync.RWMutex
	now     func() time.Time
}

func New() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

var _ cache.BriefCache = (*Cache)(nil)

func (c *Cache) Get(_ context.Context, key string) (*models.GeneratedBrief, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.brief, true, nil
}

func (c *Cache) Set(_ context.Context, key string, brief *models.GeneratedBrief, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{brief: brief, expiresAt: c.now().Add(ttl)}
	return nil
}
