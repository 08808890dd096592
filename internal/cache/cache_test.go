package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock lets tests move cache time forward deterministically
type testClock struct {
	current time.Time
}

func (tc *testClock) now() time.Time {
	return tc.current
}

func (tc *testClock) advance(d time.Duration) {
	tc.current = tc.current.Add(d)
}

func newTestCache(cfg Config) (*Cache, *testClock) {
	clock := &testClock{current: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	c := New(cfg)
	c.now = clock.now
	return c, clock
}

func TestGetSetRoundTrip(t *testing.T) {
	c, _ := newTestCache(Config{TTL: time.Hour, MaxEntries: 10})

	c.Set("art:abc", Entry{Artifact: "https://cdn/x.png", GeneratorInput: "prompt"})

	entry, ok := c.Get("art:abc")
	require.True(t, ok)
	assert.Equal(t, "https://cdn/x.png", entry.Artifact)
	assert.Equal(t, "prompt", entry.GeneratorInput)
	assert.False(t, entry.CreatedAt.IsZero())

	_, ok = c.Get("art:missing")
	assert.False(t, ok)
}

func TestEntryExpiresAtTTLBoundary(t *testing.T) {
	c, clock := newTestCache(Config{TTL: time.Hour, MaxEntries: 10})

	c.Set("art:abc", Entry{Artifact: "a"})

	clock.advance(time.Hour - time.Millisecond)
	_, ok := c.Get("art:abc")
	assert.True(t, ok, "entry should be live just before TTL")

	clock.advance(time.Millisecond)
	_, ok = c.Get("art:abc")
	assert.False(t, ok, "entry should be expired at TTL")

	// Lazy expiry removed it; stats no longer count it.
	assert.Equal(t, 0, c.Stats().Size)
}

func TestSetOverwritesAndRefreshesAge(t *testing.T) {
	c, clock := newTestCache(Config{TTL: time.Hour, MaxEntries: 10})

	c.Set("art:abc", Entry{Artifact: "old"})
	clock.advance(30 * time.Minute)
	c.Set("art:abc", Entry{Artifact: "new"})

	clock.advance(45 * time.Minute)
	entry, ok := c.Get("art:abc")
	require.True(t, ok, "overwrite should restart the TTL clock")
	assert.Equal(t, "new", entry.Artifact)
}

func TestEvictionDropsOldestBatch(t *testing.T) {
	c, clock := newTestCache(Config{TTL: time.Hour, MaxEntries: 10, EvictionBatch: 3})

	for i := 0; i < 11; i++ {
		c.Set(fmt.Sprintf("art:%02d", i), Entry{Artifact: fmt.Sprintf("a%d", i)})
		clock.advance(time.Second)
	}

	// The 11th insert tipped the cache over its bound: the three
	// oldest-created entries go in one pass.
	assert.Equal(t, 8, c.Stats().Size)
	for i := 0; i < 3; i++ {
		_, ok := c.Get(fmt.Sprintf("art:%02d", i))
		assert.False(t, ok, "entry %d should have been evicted", i)
	}
	for i := 3; i < 11; i++ {
		_, ok := c.Get(fmt.Sprintf("art:%02d", i))
		assert.True(t, ok, "entry %d should have survived", i)
	}
}

func TestEvictionBatchDefaultsToTenPercent(t *testing.T) {
	c, clock := newTestCache(Config{TTL: time.Hour, MaxEntries: 50})

	for i := 0; i < 51; i++ {
		c.Set(fmt.Sprintf("art:%02d", i), Entry{Artifact: "a"})
		clock.advance(time.Second)
	}
	assert.Equal(t, 46, c.Stats().Size)

	// Tiny caches still evict at least one entry per pass.
	small, smallClock := newTestCache(Config{TTL: time.Hour, MaxEntries: 3})
	for i := 0; i < 4; i++ {
		small.Set(fmt.Sprintf("art:%d", i), Entry{Artifact: "a"})
		smallClock.advance(time.Second)
	}
	assert.Equal(t, 3, small.Stats().Size)
	_, ok := small.Get("art:0")
	assert.False(t, ok)
}

func TestStatsReportsOldestEntry(t *testing.T) {
	c, clock := newTestCache(Config{TTL: time.Hour, MaxEntries: 10})

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.True(t, stats.OldestEntry.IsZero())

	first := clock.current
	c.Set("art:a", Entry{Artifact: "a"})
	clock.advance(time.Minute)
	c.Set("art:b", Entry{Artifact: "b"})

	stats = c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, first, stats.OldestEntry)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(Config{TTL: time.Hour, MaxEntries: 10})

	c.Set("art:a", Entry{Artifact: "a"})
	c.Set("camp:b", Entry{Artifact: "b"})
	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)
	_, ok := c.Get("art:a")
	assert.False(t, ok)
}
