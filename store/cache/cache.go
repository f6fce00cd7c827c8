// Package cache provides the in-process TTL cache backing derived data.
//
// The cache holds no authoritative state. Every entry is a disposable
// projection of the durable store; losing the entire contents is a
// performance regression, not a correctness bug. An absent or expired entry
// is a miss and must trigger recomputation, never a stale hit.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	// DefaultTTL is applied by Set; SetWithTTL overrides it per entry.
	DefaultTTL time.Duration
	// CleanupInterval is how often the janitor sweeps expired entries.
	// Zero disables the janitor; expired entries are still rejected on Get.
	CleanupInterval time.Duration
	// MaxItems bounds the entry count. When full, Set drops the entry
	// closest to expiry. Zero means unbounded.
	MaxItems int
	// OnEviction, if set, is called after an entry is removed by sweep or
	// capacity pressure (not by Delete).
	OnEviction func(key string, value any)
}

type item struct {
	value    any
	expireAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return now.After(i.expireAt)
}

// Cache is a thread-safe key/value store with per-entry TTL and prefix
// deletion. Concurrent recompute-and-set for the same cold key is accepted:
// values are pure functions of durable state, so the last writer's value
// stands.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]*item
	config Config

	janitorStop chan struct{}
	closeOnce   sync.Once
}

// New creates a cache and starts its janitor goroutine.
func New(config Config) *Cache {
	c := &Cache{
		items:       make(map[string]*item),
		config:      config,
		janitorStop: make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.janitor()
	}
	return c
}

// Get returns the value for key. Expired entries report a miss.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || it.expired(time.Now()) {
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	now := time.Now()

	var evictedKey string
	var evictedValue any
	evictedAny := false

	c.mu.Lock()
	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		if _, exists := c.items[key]; !exists {
			evictedKey, evictedValue, evictedAny = c.evictSoonestLocked()
		}
	}
	c.items[key] = &item{
		value:    value,
		expireAt: now.Add(ttl),
	}
	c.mu.Unlock()

	if evictedAny && c.config.OnEviction != nil {
		c.config.OnEviction(evictedKey, evictedValue)
	}
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeleteByPrefix removes every entry whose key starts with prefix and
// returns the number of entries removed.
func (c *Cache) DeleteByPrefix(_ context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear removes all entries.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	c.items = make(map[string]*item)
	c.mu.Unlock()
}

// Len returns the current entry count, including not-yet-swept expired entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor goroutine. The cache stays usable after Close;
// expired entries are simply no longer swept in the background.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.janitorStop)
	})
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.janitorStop:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	type evicted struct {
		key   string
		value any
	}
	var removed []evicted

	c.mu.Lock()
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
			if c.config.OnEviction != nil {
				removed = append(removed, evicted{key: key, value: it.value})
			}
		}
	}
	c.mu.Unlock()

	for _, ev := range removed {
		c.config.OnEviction(ev.key, ev.value)
	}
}

// evictSoonestLocked drops the entry closest to expiry and returns it so the
// caller can run the eviction callback after releasing the lock. Caller holds
// the lock.
func (c *Cache) evictSoonestLocked() (string, any, bool) {
	var soonestKey string
	var soonest time.Time
	first := true
	for key, it := range c.items {
		if first || it.expireAt.Before(soonest) {
			soonestKey = key
			soonest = it.expireAt
			first = false
		}
	}
	if first {
		return "", nil, false
	}
	it := c.items[soonestKey]
	delete(c.items, soonestKey)
	return soonestKey, it.value, true
}
