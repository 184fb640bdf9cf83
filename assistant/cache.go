package assistant

import (
	"sync"
	"time"
)

type (
	// CacheEntry memoizes a resolved assistant handle and the last sync
	// timestamp for one tenant.
	CacheEntry struct {
		AssistantID  string     `json:"assistantId"`
		LastSyncedAt *time.Time `json:"lastSyncedAt"`
	}

	// Cache is the process-local memo of tenant resources. Entries never
	// expire on their own: staleness is a read-time judgment by the caller,
	// not an eviction policy, so a perfectly valid handle is never torn down
	// just because its data sync is due.
	Cache interface {
		Get(tenantID string) (CacheEntry, bool)
		Set(tenantID string, entry CacheEntry)
		// Clear with no arguments empties the cache; with tenant ids, only
		// those entries. Used by tests and operational tooling.
		Clear(tenantIDs ...string)
	}

	InMemoryCache struct {
		mu      sync.RWMutex
		entries map[string]CacheEntry
	}
)

var _ Cache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]CacheEntry),
	}
}

func (c *InMemoryCache) Get(tenantID string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[tenantID]
	return entry, ok
}

func (c *InMemoryCache) Set(tenantID string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenantID] = entry
}

func (c *InMemoryCache) Clear(tenantIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(tenantIDs) == 0 {
		c.entries = make(map[string]CacheEntry)
		return
	}
	for _, tenantID := range tenantIDs {
		delete(c.entries, tenantID)
	}
}
