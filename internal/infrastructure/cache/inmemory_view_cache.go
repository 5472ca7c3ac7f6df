package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// defaultCleanupInterval is how often the in-memory cache sweeps expired entries
const defaultCleanupInterval = 30 * time.Second

// InMemoryViewCache is a process-local view cache for single-instance
// deployments and tests. Entries expire per TTL; a background sweeper
// evicts them so memory does not grow with the query cardinality.
type InMemoryViewCache struct {
	entries sync.Map // map[string]*viewEntry
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type viewEntry struct {
	payload   []byte
	expiresAt time.Time
}

func (e *viewEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemoryViewCache creates the cache and starts its cleanup goroutine
func NewInMemoryViewCache() *InMemoryViewCache {
	c := &InMemoryViewCache{stopCh: make(chan struct{})}
	go c.cleanupLoop()
	return c
}

// Get returns the cached payload for the key, if present and unexpired
func (c *InMemoryViewCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	entry := v.(*viewEntry)
	if entry.isExpired() {
		c.entries.Delete(key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return entry.payload, true
}

// Set stores the payload under the key with the given TTL
func (c *InMemoryViewCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.entries.Store(key, &viewEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	})
}

// Stats returns hit/miss counters for monitoring
func (c *InMemoryViewCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (c *InMemoryViewCache) Stop() {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
}

func (c *InMemoryViewCache) cleanupLoop() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*viewEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		case <-c.stopCh:
			return
		}
	}
}
