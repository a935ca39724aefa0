// Package infra holds the wiki client's supporting machinery: a TTL cache for
// page reads and a circuit breaker around the action API.
package infra

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a cache created with a non-positive size.
const DefaultMaxEntries = 1000

type cacheItem[V any] struct {
	key     string
	value   V
	expires time.Time
}

// Cache is a size-bounded LRU cache whose entries also expire after a TTL.
// Expired entries are dropped lazily on access and when space is needed.
type Cache[V any] struct {
	mu    sync.Mutex
	max   int
	order *list.List // front is most recently used
	items map[string]*list.Element
	now   func() time.Time
}

// NewCache returns a cache holding at most maxEntries values.
func NewCache[V any](maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache[V]{
		max:   maxEntries,
		order: list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	item := el.Value.(*cacheItem[V])
	if !c.now().Before(item.expires) {
		c.remove(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return item.value, true
}

// Set stores value under key for ttl, evicting the least recently used
// entry when the cache is full.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		item := el.Value.(*cacheItem[V])
		item.value, item.expires = value, expires
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.max {
		c.remove(c.order.Back())
	}
	c.items[key] = c.order.PushFront(&cacheItem[V]{key: key, value: value, expires: expires})
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// DeletePrefix removes every key starting with prefix.
func (c *Cache[V]) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.remove(el)
		}
	}
}

// Len returns the number of entries, including expired ones not yet
// dropped.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[V]) remove(el *list.Element) {
	item := c.order.Remove(el).(*cacheItem[V])
	delete(c.items, item.key)
}
