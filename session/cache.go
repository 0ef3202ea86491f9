// Package session holds resolved feed entries for the lifetime of a cache
// value. It is an accelerator only: a miss is never an error.
package session

import (
	"sync"

	"github.com/mwantia/feedtree/data"
	"github.com/tidwall/btree"
)

// Entry is a resolved leaf: the host-facing descriptor plus the feed entry
// its fields are projected from.
type Entry struct {
	ID         data.ID
	ParentID   data.ID
	TemplateID data.ID
	Name       string
	Remote     *data.RemoteEntry
}

// Cache is unbounded and never evicts on its own. Whether it is scoped to a
// single provider or shared by several is decided by whoever constructs it.
type Cache struct {
	mu      sync.RWMutex
	entries *btree.Map[string, *Entry]
}

func NewCache() *Cache {
	return &Cache{
		entries: btree.NewMap[string, *Entry](0),
	}
}

func (c *Cache) Get(id data.ID) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.entries.Get(id.String())
}

// Put stores e and reports whether its id was not cached before.
func (c *Cache) Put(e *Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, replaced := c.entries.Set(e.ID.String(), e)
	return !replaced
}

func (c *Cache) Delete(id data.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, deleted := c.entries.Delete(id.String())
	return deleted
}

// IDs returns every cached id in stable key order.
func (c *Cache) IDs() []data.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]data.ID, 0, c.entries.Len())
	c.entries.Scan(func(_ string, e *Entry) bool {
		ids = append(ids, e.ID)
		return true
	})

	return ids
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.entries.Len()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Clear()
}
