package cache

import (
	"sync"
	"time"

	"prompt-access/internal/common/metrics"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 60 * time.Second

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an in-process map whose entries expire ttl after insertion.
// Expired entries are never returned; they are dropped lazily on lookup and,
// when a cleanup interval is set, by a janitor goroutine.
//
// Two concurrent misses for the same key may both fetch and both Put; the
// last Put wins. There is no single-flight.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
	clone   func(V) V
	name    string

	cleanupInterval time.Duration
	stop            chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

// Config configures a TTLCache. A TTL <= 0 disables caching: Put is a no-op
// and Get always misses. CleanupInterval > 0 starts a janitor goroutine.
// Clock replaces time.Now, mostly for tests. Name labels the cache in metrics.
type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Name            string
	Clock           func() time.Time
}

// New creates a cache. When clone is non-nil the cache stores and hands out
// copies, so callers never share memory with cached entries.
func New[K comparable, V any](cfg Config, clone func(V) V) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:         make(map[K]entry[V]),
		ttl:             cfg.TTL,
		now:             cfg.Clock,
		clone:           clone,
		name:            cfg.Name,
		cleanupInterval: cfg.CleanupInterval,
		stop:            make(chan struct{}),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.name == "" {
		c.name = "default"
	}

	if c.cleanupInterval > 0 && c.Enabled() {
		c.wg.Add(1)
		go c.janitor()
	}
	return c
}

func (c *TTLCache[K, V]) Enabled() bool {
	return c.ttl > 0
}

func (c *TTLCache[K, V]) TTL() time.Duration {
	return c.ttl
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if !c.Enabled() {
		c.observe("disabled")
		return zero, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.observe("miss")
		return zero, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// A concurrent Put may have refreshed the entry meanwhile.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.observe("expired")
		return zero, false
	}

	c.observe("hit")
	if c.clone != nil {
		return c.clone(e.value), true
	}
	return e.value, true
}

// Put stores value under key, unconditionally replacing any previous entry.
func (c *TTLCache[K, V]) Put(key K, value V) {
	if !c.Enabled() {
		return
	}
	if c.clone != nil {
		value = c.clone(value)
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry regardless of expiry.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and reports how many were dropped.
func (c *TTLCache[K, V]) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

// Close stops the janitor. It is safe to call more than once.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	c.wg.Wait()
}

func (c *TTLCache[K, V]) janitor() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *TTLCache[K, V]) observe(result string) {
	metrics.PromptCacheLookups.WithLabelValues(c.name, result).Inc()
}
