package embed

import (
	"strings"
	"sync"
)

// embeddingCache is a small LRU cache keyed by normalized text. Repeated
// searches over a stable event log embed the same strings over and over;
// caching keeps the hot path off the network.
type embeddingCache struct {
	mu      sync.Mutex
	entries map[string]Embedding
	order   []string // LRU order: oldest at front
	maxSize int
}

func newEmbeddingCache(maxSize int) *embeddingCache {
	return &embeddingCache{
		entries: make(map[string]Embedding),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func normalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (c *embeddingCache) get(text string) Embedding {
	key := normalizeKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	embedding, ok := c.entries[key]
	if !ok {
		return nil
	}

	c.moveToBackLocked(key)
	return embedding
}

func (c *embeddingCache) put(text string, embedding Embedding) {
	key := normalizeKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = embedding
		c.moveToBackLocked(key)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = embedding
	c.order = append(c.order, key)
}

func (c *embeddingCache) moveToBackLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}
