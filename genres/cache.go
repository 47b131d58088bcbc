package genres

import (
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Cache memoizes artist genres by artist ID for the life of the process. An
// empty list is a cached value like any other.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]string

	hits   atomic.Int64
	misses atomic.Int64

	// group makes concurrent misses on one ID share a single lookup.
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]string)}
}

// ProvideCache provides the process-wide cache and clears it on shutdown.
func ProvideCache(lc fx.Lifecycle) *Cache {
	c := NewCache()
	lc.Append(fx.StopHook(c.Reset))
	return c
}

var Options = ProvideCache

// Get returns the cached genres for id and counts the hit or miss.
func (c *Cache) Get(id string) ([]string, bool) {
	genres, ok := c.peek(id)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return genres, ok
}

func (c *Cache) peek(id string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	genres, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(genres), true
}

func (c *Cache) Set(id string, genres []string) {
	stored := make([]string, len(genres))
	copy(stored, genres)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = stored
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.Len(),
	}
}

// Reset drops every entry and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string][]string)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}
