package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultCapacity = 1024

type entry struct {
	key       string
	value     string
	expiresAt time.Time
	element   *list.Element
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process LRU with per-entry TTL.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry
	lru      *list.List
	now      func() time.Time
}

// NewMemoryCache creates a cache holding at most capacity entries.
// When full, the least recently used entry is evicted.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*entry),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get marks a live entry as recently used. Expired entries are dropped.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return "", false, nil
	}
	if e.expired(c.now()) {
		c.remove(e)
		return "", false, nil
	}
	c.lru.MoveToFront(e.element)
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.lru.MoveToFront(e.element)
		return nil
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	e.element = c.lru.PushFront(e)
	c.items[key] = e
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry)
	c.lru.Init()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries.
func (c *MemoryCache) Capacity() int {
	return c.capacity
}

// CleanExpired drops every expired entry and returns how many were removed.
func (c *MemoryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, e := range c.items {
		if e.expired(now) {
			c.remove(e)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker runs CleanExpired every interval until ctx is done.
func (c *MemoryCache) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// must hold c.mu
func (c *MemoryCache) evictOldest() {
	if back := c.lru.Back(); back != nil {
		c.remove(back.Value.(*entry))
	}
}

// must hold c.mu
func (c *MemoryCache) remove(e *entry) {
	delete(c.items, e.key)
	c.lru.Remove(e.element)
}
