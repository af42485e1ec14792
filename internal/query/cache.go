// Package query memoizes backend reads per session and invalidates them after writes.
package query

import (
	"sync"
)

// Op names a cached read operation.
type Op string

const (
	OpUserProfile        Op = "userProfile"
	OpIsCurrentUserAdmin Op = "isCurrentUserAdmin"
	OpCurrentUserRole    Op = "currentUserRole"
	OpListUsers          Op = "listUsers"
	OpAllPosts           Op = "allPosts"
	OpUserPosts          Op = "userPosts"
)

// Key identifies one cached read. Scope is the principal for user-scoped reads and
// empty for global ones.
type Key struct {
	Op    Op
	Scope string
}

type entry struct {
	value      any
	valid      bool
	generation uint64
}

// Cache holds the last known value per key with a validity flag. Entries never expire
// on their own; they are invalidated by writes or dropped on identity change.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// epoch moves on every invalidation, so a read that raced one is not stored.
	epoch uint64
}

func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

// Get returns the value for key if it is valid and was stored under generation.
func (c *Cache) Get(key Key, generation uint64) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.valid || e.generation != generation {
		return nil, false
	}
	return e.value, true
}

// Epoch is captured before a read starts and handed back to Put.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Put stores value unless something was invalidated since epoch was taken.
func (c *Cache) Put(key Key, generation, epoch uint64, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return false
	}
	c.entries[key] = &entry{value: value, valid: true, generation: generation}
	return true
}

// Invalidate marks exactly the given keys stale.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for _, k := range keys {
		if e, ok := c.entries[k]; ok {
			e.valid = false
		}
	}
}

// InvalidateOps marks every entry of the given operations stale, whatever its scope.
func (c *Cache) InvalidateOps(ops ...Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for k, e := range c.entries {
		for _, op := range ops {
			if k.Op == op {
				e.valid = false
			}
		}
	}
}

// Reset drops every entry. Used on identity change and logout.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[Key]*entry)
}

// Valid reports whether key currently holds a valid value, regardless of generation.
func (c *Cache) Valid(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.valid
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
