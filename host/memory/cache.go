package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/host"
)

// Cache records every eviction it receives. An error set with Fail is
// returned by every following eviction.
type Cache struct {
	mu          sync.Mutex
	descriptors []data.ID
	childInfo   []data.ID
	err         error
}

var _ host.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = err
}

func (c *Cache) EvictDescriptor(ctx context.Context, id data.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.descriptors = append(c.descriptors, id)
	return c.err
}

func (c *Cache) EvictChildInfo(ctx context.Context, id data.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.childInfo = append(c.childInfo, id)
	return c.err
}

// Descriptors returns the ids passed to EvictDescriptor in call order.
func (c *Cache) Descriptors() []data.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.descriptors)
}

// ChildInfo returns the ids passed to EvictChildInfo in call order.
func (c *Cache) ChildInfo() []data.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.childInfo)
}
