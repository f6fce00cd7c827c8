package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: 10 * time.Millisecond,
	})
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_, found := c.Get(ctx, "story_1")
	assert.False(t, found)

	c.Set(ctx, "story_1", 42)
	value, found := c.Get(ctx, "story_1")
	require.True(t, found)
	assert.Equal(t, 42, value)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.SetWithTTL(ctx, "short", "v", 5*time.Millisecond)
	_, found := c.Get(ctx, "short")
	require.True(t, found)

	time.Sleep(10 * time.Millisecond)

	// Expired before the janitor runs must still be a miss.
	_, found = c.Get(ctx, "short")
	assert.False(t, found)
}

func TestJanitorSweep(t *testing.T) {
	ctx := context.Background()
	evictions := make(chan string, 10)
	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: 5 * time.Millisecond,
		OnEviction:      func(key string, _ any) { evictions <- key },
	})
	defer c.Close()

	c.SetWithTTL(ctx, "sweep_me", "v", time.Millisecond)

	select {
	case key := <-evictions:
		assert.Equal(t, "sweep_me", key)
	case <-time.After(time.Second):
		t.Fatal("janitor did not sweep expired entry")
	}
	assert.Equal(t, 0, c.Len())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	c.Set(ctx, "k", "v")
	c.Delete(ctx, "k")
	_, found := c.Get(ctx, "k")
	assert.False(t, found)

	// Deleting an absent key is a no-op.
	c.Delete(ctx, "k")
	c.Delete(ctx, "never_existed")
}

func TestDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	for page := 1; page <= 12; page++ {
		c.Set(ctx, fmt.Sprintf("recentstories_%d_10", page), page)
	}
	c.Set(ctx, "chaptercount_7", 3)

	count := c.DeleteByPrefix(ctx, "recentstories_")
	assert.Equal(t, 12, count)

	// Pages beyond any enumerated bound are gone too.
	_, found := c.Get(ctx, "recentstories_12_10")
	assert.False(t, found)

	// Unrelated keys survive.
	_, found = c.Get(ctx, "chaptercount_7")
	assert.True(t, found)

	// Prefix deletion of nothing is a counted no-op.
	assert.Equal(t, 0, c.DeleteByPrefix(ctx, "recentstories_"))
}

func TestMaxItems(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, MaxItems: 3})
	defer c.Close()

	c.SetWithTTL(ctx, "a", 1, time.Second)
	c.SetWithTTL(ctx, "b", 2, time.Minute)
	c.SetWithTTL(ctx, "c", 3, time.Minute)
	c.SetWithTTL(ctx, "d", 4, time.Minute)

	// "a" expires soonest, so it is the one displaced.
	_, found := c.Get(ctx, "a")
	assert.False(t, found)
	assert.Equal(t, 3, c.Len())
}

func TestCapacityEvictionCallbackReentersCache(t *testing.T) {
	ctx := context.Background()
	var c *Cache
	evictions := make([]string, 0, 1)
	c = New(Config{
		DefaultTTL: time.Minute,
		MaxItems:   2,
		OnEviction: func(key string, _ any) {
			evictions = append(evictions, key)
			// The callback runs outside the cache lock, so re-entering
			// the cache must not deadlock.
			_, _ = c.Get(ctx, "b")
			c.Delete(ctx, "never_existed")
		},
	})
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.SetWithTTL(ctx, "a", 1, time.Second)
		c.SetWithTTL(ctx, "b", 2, time.Minute)
		c.SetWithTTL(ctx, "c", 3, time.Minute)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("capacity eviction deadlocked on its own callback")
	}
	require.Equal(t, []string{"a"}, evictions)
	assert.Equal(t, 2, c.Len())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)
	assert.Equal(t, 0, c.Len())
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	c.Close()
	c.Close()
}
