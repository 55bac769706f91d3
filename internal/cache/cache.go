// Package cache provides the keyed TTL cache for listing responses.
// Entries expire on their own; an upload drain invalidates them early
// through the event bus so a fresh listing shows the new photos.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/constants"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/events"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
)

type entry struct {
	value   interface{}
	expires time.Time
}

// Cache is a small keyed TTL cache. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	logger  *logging.Logger

	hits   int64
	misses int64
}

// New creates a cache with the given TTL. ttl <= 0 uses the default.
func New(ttl time.Duration, logger *logging.Logger) *Cache {
	if ttl <= 0 {
		ttl = constants.CacheDefaultTTL
	}
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the cached value for key, or nil, false when missing or
// expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expires) {
		c.mu.Lock()
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Put stores a value under key with the cache's TTL.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: time.Now().Add(c.ttl)}
}

// Invalidate drops one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Watch consumes invalidation events from the bus until ctx ends.
// Run it on its own goroutine.
func (c *Cache) Watch(ctx context.Context, bus *events.EventBus) {
	ch := bus.Subscribe(events.EventCacheInvalidated)
	defer bus.Unsubscribe(events.EventCacheInvalidated, ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if inv, ok := ev.(*events.CacheInvalidatedEvent); ok {
				c.logger.Debug().Str("key", inv.Key).Msg("Cache invalidated")
				c.Invalidate(inv.Key)
			}
		}
	}
}
