package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/toolbridge/bridge/client/ports"
)

// LRUCache is an in-memory LRU cache with per-entry TTL. Get promotes the
// entry, so all operations take the write lock.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	front    *entry
	back     *entry
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// NewLRUCache creates an LRU cache holding at most capacity entries.
func NewLRUCache(capacity int) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		entries:  make(map[string]*entry),
	}
}

// Get retrieves a value, dropping it when the TTL has passed.
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.unlink(e)
		delete(c.entries, key)
		return nil, false
	}

	c.touch(e)
	return e.value, true
}

// Set stores a value with the given TTL, evicting the least recently used
// entry when the cache is full.
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.touch(e)
		return nil
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	c.pushFront(e)
	c.entries[key] = e

	if len(c.entries) > c.capacity {
		c.evict()
	}

	return nil
}

// Delete removes a key from the cache.
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}

	c.unlink(e)
	delete(c.entries, key)
	return nil
}

// Len reports the number of cached entries, expired ones included.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUCache) touch(e *entry) {
	if e == c.front {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *LRUCache) pushFront(e *entry) {
	e.next = c.front
	e.prev = nil

	if c.front != nil {
		c.front.prev = e
	}
	c.front = e

	if c.back == nil {
		c.back = e
	}
}

func (c *LRUCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.front = e.next
	}

	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.back = e.prev
	}

	e.prev = nil
	e.next = nil
}

func (c *LRUCache) evict() {
	if c.back == nil {
		return
	}
	e := c.back
	c.unlink(e)
	delete(c.entries, e.key)
}

// Ensure LRUCache implements the Cache interface.
var _ ports.Cache = (*LRUCache)(nil)
