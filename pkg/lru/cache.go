// Package lru provides a bounded, deduplicating recency list of strings.
// The shell uses it to remember recent queries.
package lru

import "container/list"

// Cache keeps the most recently used string keys up to a fixed capacity.
// Adding a key that is already present makes it the most recent one.
type Cache struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = newest, back = oldest
}

// New creates a new LRU cache with the given capacity.
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Contains checks if a key exists in the cache.
func (c *Cache) Contains(key string) bool {
	_, exists := c.items[key]
	return exists
}

// Add records a use of key. If the cache is at capacity, the oldest entry
// is evicted. Returns true if the key was newly added.
func (c *Cache) Add(key string) bool {
	if c.capacity <= 0 {
		return false // Zero or negative capacity means no caching
	}

	if elem, exists := c.items[key]; exists {
		c.order.MoveToFront(elem)
		return false
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(string))
			c.order.Remove(oldest)
		}
	}

	elem := c.order.PushFront(key)
	c.items[key] = elem
	return true
}

// Remove deletes key. Returns true if it was present.
func (c *Cache) Remove(key string) bool {
	elem, exists := c.items[key]
	if !exists {
		return false
	}
	delete(c.items, key)
	c.order.Remove(elem)
	return true
}

// Keys returns the keys from newest to oldest.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(string))
	}
	return keys
}

// Purge removes every key.
func (c *Cache) Purge() {
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the current number of items in the cache.
func (c *Cache) Len() int {
	return len(c.items)
}
