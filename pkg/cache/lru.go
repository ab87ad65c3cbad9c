package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// TTLCache is a thread-safe LRU cache whose entries also expire after a fixed TTL.
// Capacity bounds memory, the TTL bounds staleness.
type TTLCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	now      func() time.Time
}

// NewTTLCache creates a cache holding at most capacity entries for at most ttl each.
// Panics when capacity or ttl is not positive.
func NewTTLCache[K comparable, V any](capacity int, ttl time.Duration) *TTLCache[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	if ttl <= 0 {
		panic("cache: ttl must be positive")
	}
	return &TTLCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
		now:      time.Now,
	}
}

// Get returns a live value and marks it recently used. Expired entries are dropped.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*lruEntry[K, V])
	if !c.now().Before(entry.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.eviction.MoveToFront(elem)
	return entry.value, true
}

// Put adds or replaces a value and restarts its TTL.
// The least recently used entry is evicted when capacity is exceeded.
func (c *TTLCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	elem := c.eviction.PushFront(&lruEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Remove drops a key. It reports whether the key was present.
func (c *TTLCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.removeElement(elem)
	}
	return ok
}

// Len returns the number of stored entries, including ones not yet pruned after expiry.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Clear removes all entries.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.eviction.Init()
}

// Must be called with lock held.
func (c *TTLCache[K, V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*lruEntry[K, V]).key)
}
