package cache

import (
	"sort"
	"sync"
	"time"
)

// Entry is one cached generation result. Artifact holds the generated
// payload (an image URL or a serialized config), GeneratorInput the prompt
// that produced it. Entries are immutable once written.
type Entry struct {
	Artifact       string
	GeneratorInput string
	CreatedAt      time.Time
}

// Config tunes one cache instance.
type Config struct {
	TTL        time.Duration
	MaxEntries int
	// EvictionBatch is how many oldest entries one over-capacity Set
	// removes. Zero derives MaxEntries/10, minimum 1.
	EvictionBatch int
}

// Stats is a point-in-time snapshot for the ops surface.
type Stats struct {
	Size        int
	OldestEntry time.Time
}

// Cache is a bounded TTL cache keyed by fingerprint. Expiry is lazy: an
// expired entry is deleted the next time it is read. There is no background
// sweeper; the size bound is enforced on write instead.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry

	ttl   time.Duration
	max   int
	batch int

	now func() time.Time
}

func New(cfg Config) *Cache {
	batch := cfg.EvictionBatch
	if batch <= 0 {
		batch = cfg.MaxEntries / 10
		if batch < 1 {
			batch = 1
		}
	}

	return &Cache{
		entries: make(map[string]Entry),
		ttl:     cfg.TTL,
		max:     cfg.MaxEntries,
		batch:   batch,
		now:     time.Now,
	}
}

// Get returns the live entry for key. An entry whose TTL has elapsed is
// removed and reported as a miss.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}

	if c.expired(entry) {
		delete(c.entries, key)
		return Entry{}, false
	}

	return entry, true
}

// Set stores an entry under key, stamping its creation time. When the store
// grows past MaxEntries, the EvictionBatch oldest-created entries are dropped
// in one pass; the entry just written is the newest, so it survives.
func (c *Cache) Set(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.CreatedAt = c.now()
	c.entries[key] = entry

	if c.max > 0 && len(c.entries) > c.max {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	type aged struct {
		key       string
		createdAt time.Time
	}

	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, createdAt: e.CreatedAt})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].createdAt.Before(all[j].createdAt)
	})

	n := c.batch
	if n > len(all) {
		n = len(all)
	}
	for _, victim := range all[:n] {
		delete(c.entries, victim.key)
	}
}

// Stats reports current size and the creation time of the oldest live entry.
// Expired-but-unswept entries still count; they vanish on their next read.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Size: len(c.entries)}
	for _, e := range c.entries {
		if stats.OldestEntry.IsZero() || e.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = e.CreatedAt
		}
	}
	return stats
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}

func (c *Cache) expired(entry Entry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(entry.CreatedAt) >= c.ttl
}
