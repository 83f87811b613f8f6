package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"codeqa/internal/domain"
)

// QueryCache is a small LRU of retrieval results keyed by (query, k).
// Invalidate bumps the corpus generation so entries from before a rebuild
// are never served.
type QueryCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string
	maxSize    int
	ttl        time.Duration
	generation uint64
	now        func() time.Time
}

type cacheEntry struct {
	results    []domain.RetrievedSnippet
	timestamp  time.Time
	generation uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	data := []byte(query)
	data = append(data, 0, byte(topK>>24), byte(topK>>16), byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query string, topK int) ([]domain.RetrievedSnippet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.generation != c.generation {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return append([]domain.RetrievedSnippet(nil), entry.results...), true
}

func (c *QueryCache) Put(query string, topK int, results []domain.RetrievedSnippet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		results:    append([]domain.RetrievedSnippet(nil), results...),
		timestamp:  c.now(),
		generation: c.generation,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.generation++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
