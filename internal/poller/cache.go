package poller

import (
	"sync"
	"time"
)

// Entry is the cached state of one key: the last good value and the fault
// recorded by the most recent fetch, if any.
type Entry[T any] struct {
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
}

// Cache holds one Entry per key. Entries are replaced whole, so readers never
// observe a partially updated value.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]Entry[T])}
}

func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Set stores data as the latest good value for key and clears any fault.
func (c *Cache[T]) Set(key string, data T, at time.Time) Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := Entry[T]{Data: data, HasData: true, UpdatedAt: at}
	c.entries[key] = e
	return e
}

// Fail records err for key, keeping the last good value.
func (c *Cache[T]) Fail(key string, err error, at time.Time) Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	e.Err = err
	e.UpdatedAt = at
	c.entries[key] = e
	return e
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
