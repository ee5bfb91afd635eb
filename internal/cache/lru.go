package cache

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// LRUCache is a thread-safe LRU cache of byte payloads bounded both by entry
// count and by total size.
type LRUCache struct {
	mu      sync.Mutex
	lru     *simplelru.LRU[string, []byte]
	size    int64
	maxSize int64 // max size in bytes
}

// NewLRUCache creates a new LRU cache with the specified capacity and max size in bytes
func NewLRUCache(capacity int, maxSizeBytes int64) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	c := &LRUCache{maxSize: maxSizeBytes}
	// NewLRU only fails for a non-positive size.
	c.lru, _ = simplelru.NewLRU[string, []byte](capacity, c.onEvict)
	return c
}

// onEvict runs under c.mu: simplelru calls it synchronously from Add,
// Remove, RemoveOldest and Purge.
func (c *LRUCache) onEvict(_ string, data []byte) {
	c.size -= int64(len(data))
}

func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(key)
}

// Set adds or updates an item. Items larger than the whole cache are not stored.
func (c *LRUCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dataSize := int64(len(data))
	if dataSize > c.maxSize {
		return
	}

	// Replacing a key goes through the same eviction as a fresh insert.
	c.lru.Remove(key)

	for c.size+dataSize > c.maxSize && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}

	c.lru.Add(key, data)
	c.size += dataSize
}

func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.size = 0
}

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Size returns the current size in bytes
func (c *LRUCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
