// Package cache provides a small bounded in-memory cache with TTL expiry
// and capacity eviction. The clock is injectable so expiry behavior is
// testable without sleeping.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Clock returns the current time. Production code passes time.Now;
// tests pass a fake.
type Clock func() time.Time

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is a bounded TTL cache safe for concurrent use.
// When capacity is exceeded the least recently used entry is evicted.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    Clock

	items map[string]*list.Element
	order *list.List // front = most recently used
}

// New creates a cache holding at most capacity entries, each valid for ttl.
// A nil clock defaults to time.Now.
func New[V any](capacity int, ttl time.Duration, clock Clock) *Cache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached value for key and whether it was present and fresh.
// Expired entries are removed on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := el.Value.(*entry[V])
	if c.clock().After(e.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		return zero, false
	}

	c.order.MoveToFront(el)
	return e.value, true
}

// Set stores value under key, refreshing its TTL. If the cache is full the
// least recently used entry is evicted first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry[V]).key)
		}
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
}

// Len returns the number of stored entries, including any not yet
// evicted expired ones.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
