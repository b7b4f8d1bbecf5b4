package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"domowner/internal/testutil"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	testutil.AssertNoError(t, c.Set(ctx, "whois:azure.com", "Registrant: Microsoft", 0), "Set")

	v, ok, err := c.Get(ctx, "whois:azure.com")
	testutil.AssertNoError(t, err, "Get")
	testutil.AssertTrue(t, ok, "should hit")
	testutil.AssertEqual(t, v, "Registrant: Microsoft", "value")

	_, ok, _ = c.Get(ctx, "whois:missing.com")
	testutil.AssertFalse(t, ok, "miss")

	c.Set(ctx, "whois:azure.com", "updated", 0)
	v, _, _ = c.Get(ctx, "whois:azure.com")
	testutil.AssertEqual(t, v, "updated", "overwrite")
	testutil.AssertEqual(t, c.Len(), 1, "overwrite keeps one entry")
}

func TestMemoryCache_DefaultCapacity(t *testing.T) {
	testutil.AssertEqual(t, NewMemoryCache(0).Capacity(), defaultCapacity, "zero capacity")
	testutil.AssertEqual(t, NewMemoryCache(-3).Capacity(), defaultCapacity, "negative capacity")
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", "1", time.Hour)
	c.Set(ctx, "b", "2", 0)

	now = now.Add(59 * time.Minute)
	_, ok, _ := c.Get(ctx, "a")
	testutil.AssertTrue(t, ok, "not yet expired")

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "a")
	testutil.AssertFalse(t, ok, "expired")
	_, ok, _ = c.Get(ctx, "b")
	testutil.AssertTrue(t, ok, "zero ttl never expires")
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	c.Set(ctx, "a", "1", 0)
	c.Set(ctx, "b", "2", 0)
	c.Get(ctx, "a")
	c.Set(ctx, "c", "3", 0)

	_, ok, _ := c.Get(ctx, "b")
	testutil.AssertFalse(t, ok, "least recently used should be evicted")
	_, ok, _ = c.Get(ctx, "a")
	testutil.AssertTrue(t, ok, "recently read entry survives")
	testutil.AssertEqual(t, c.Len(), 2, "size capped")
}

func TestMemoryCache_CleanExpired(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", "1", time.Second)
	c.Set(ctx, "b", "2", time.Second)
	c.Set(ctx, "c", "3", 0)

	now = now.Add(2 * time.Second)
	testutil.AssertEqual(t, c.CleanExpired(), 2, "removed")
	testutil.AssertEqual(t, c.Len(), 1, "remaining")
}

func TestMemoryCache_DeleteAndClose(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)
	c.Set(ctx, "a", "1", 0)
	c.Set(ctx, "b", "2", 0)

	testutil.AssertNoError(t, c.Delete(ctx, "a"), "Delete")
	testutil.AssertNoError(t, c.Delete(ctx, "nope"), "Delete missing")
	testutil.AssertEqual(t, c.Len(), 1, "after delete")

	testutil.AssertNoError(t, c.Close(), "Close")
	testutil.AssertEqual(t, c.Len(), 0, "after close")
}

func TestMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%7)
			c.Set(ctx, key, "v", time.Minute)
			c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	testutil.AssertEqual(t, c.Len(), 7, "distinct keys")
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Options{})
	testutil.AssertNoError(t, err, "default backend")
	_, isMem := s.(*MemoryCache)
	testutil.AssertTrue(t, isMem, "default is memory")

	s, err = New(ctx, Options{Backend: "none"})
	testutil.AssertNoError(t, err, "none backend")
	s.Set(ctx, "a", "1", 0)
	_, ok, _ := s.Get(ctx, "a")
	testutil.AssertFalse(t, ok, "noop never hits")

	_, err = New(ctx, Options{Backend: "redis"})
	testutil.AssertError(t, err, "redis without URL")

	_, err = New(ctx, Options{Backend: "memcached"})
	testutil.AssertError(t, err, "unknown backend")
}
