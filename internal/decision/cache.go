package decision

import (
	"sync"
	"time"

	"github.com/ignite/engage/internal/pkg/clock"
)

// resultCache is a TTL cache of decision results keyed by event ID. Owned by
// the engine; expired entries are dropped lazily on read and swept on write.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

func newResultCache(ttl time.Duration, clk clock.Clock) *resultCache {
	return &resultCache{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(eventID string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[eventID]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(entry.expiresAt) {
		delete(c.entries, eventID)
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) set(eventID string, result *Result) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
	c.entries[eventID] = cacheEntry{result: result, expiresAt: now.Add(c.ttl)}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
