package cities

import (
	"sync"
	"time"

	"github.com/veda-group/leadgen-cli/internal/model"
)

type cacheEntry struct {
	cities  []model.City
	seq     uint64
	expires time.Time
}

// ttlCache is a bounded in-memory cache for city search results. Every
// entry carries a TTL, and a background sweeper removes expired entries
// on a fixed schedule. When full, the oldest entry is evicted to make
// room.
type ttlCache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	capacity int
	ttl      time.Duration
	nextSeq  uint64

	stop     chan struct{}
	stopOnce sync.Once
}

func newTTLCache(capacity int, ttl, sweepInterval time.Duration) *ttlCache {
	if capacity <= 0 {
		capacity = 256
	}
	c := &ttlCache{
		entries:  make(map[string]cacheEntry, capacity),
		capacity: capacity,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweeper(sweepInterval)
	}
	return c
}

func (c *ttlCache) get(key string) ([]model.City, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.cities, true
}

func (c *ttlCache) put(key string, cities []model.City) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.nextSeq++
	c.entries[key] = cacheEntry{
		cities:  cities,
		seq:     c.nextSeq,
		expires: now.Add(c.ttl),
	}
}

// evictOldestLocked removes the entry inserted longest ago. Callers
// hold the write lock.
func (c *ttlCache) evictOldestLocked() {
	var oldestKey string
	var oldestSeq uint64
	for k, e := range c.entries {
		if oldestKey == "" || e.seq < oldestSeq {
			oldestKey = k
			oldestSeq = e.seq
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *ttlCache) sweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *ttlCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
}

func (c *ttlCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ttlCache) close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
