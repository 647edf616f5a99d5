package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process cache bounded by entry count. When full, the
// entry closest to expiry is evicted to make room.
type MemoryCache struct {
	maxSize int
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	done    chan struct{}
	closed  bool
}

// NewMemoryCache starts a cache holding at most maxSize entries (unbounded
// when maxSize is zero) and sweeping expired entries every cleanupInterval.
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		maxSize: maxSize,
		now:     time.Now,
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanup(cleanupInterval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.value), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOne()
	}
	c.entries[key] = entry{value: slices.Clone(value), expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// evictOne drops the entry expiring soonest. Caller holds mu.
func (c *MemoryCache) evictOne() {
	var victim string
	var earliest time.Time
	for key, e := range c.entries {
		if victim == "" || e.expiresAt.Before(earliest) {
			victim, earliest = key, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
