package schema

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// Cache keeps recently loaded domain snapshots so switching back to a
// problem set does not hit the provider again.
type Cache struct {
	snapshots   map[string]*Snapshot
	accessTime  map[string]int64
	accessCount int64
	maxDomains  int
	mu          sync.Mutex
}

// NewCache creates a cache holding at most maxDomains snapshots.
// Values below 1 are treated as 1.
func NewCache(maxDomains int) *Cache {
	if maxDomains < 1 {
		maxDomains = 1
	}
	return &Cache{
		snapshots:  make(map[string]*Snapshot, maxDomains),
		accessTime: make(map[string]int64, maxDomains),
		maxDomains: maxDomains,
	}
}

// Get returns the cached snapshot for domain and marks it as used.
func (c *Cache) Get(domain string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[domain]
	if ok {
		c.accessTime[domain] = c.nextAccessTime()
	}
	return snap, ok
}

// Put stores snap under domain, evicting the least recently used entry when full.
func (c *Cache) Put(domain string, snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.snapshots[domain]; !exists && len(c.snapshots) >= c.maxDomains {
		c.evictLRU()
	}
	c.snapshots[domain] = snap
	c.accessTime[domain] = c.nextAccessTime()
}

// Invalidate drops domain from the cache.
func (c *Cache) Invalidate(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.snapshots, domain)
	delete(c.accessTime, domain)
}

// Stats reports cache occupancy.
func (c *Cache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]int{
		"cachedDomains": len(c.snapshots),
		"maxDomains":    c.maxDomains,
		"cacheAccesses": int(c.accessCount),
	}
}

func (c *Cache) nextAccessTime() int64 {
	c.accessCount++
	return c.accessCount
}

func (c *Cache) evictLRU() {
	var oldest string
	var oldestTime int64 = math.MaxInt64

	for domain, t := range c.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldest = domain
		}
	}

	if oldest != "" {
		delete(c.snapshots, oldest)
		delete(c.accessTime, oldest)
		log.Debugf("Evicted domain '%s' from schema cache", oldest)
	}
}
