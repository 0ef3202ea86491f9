// Package index holds the in-memory B-tree layer shared by all mapping stores.
package index

import (
	"strings"
	"sync"

	"github.com/mwantia/feedtree/data"
	"github.com/tidwall/btree"
)

// Index keeps immutable mapping rows addressable by id and by token.
// Returned rows are copies.
type Index struct {
	mu sync.RWMutex

	ids    *btree.Map[string, *data.Mapping]
	tokens *btree.Map[string, *data.Mapping]
}

func New() *Index {
	return &Index{
		ids:    btree.NewMap[string, *data.Mapping](0),
		tokens: btree.NewMap[string, *data.Mapping](0),
	}
}

// Put stores m, replacing any row with the same keys.
func (x *Index) Put(m *data.Mapping) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.put(m)
}

// PutIfAbsent stores m unless a row for its token key exists. It returns the
// row that is stored afterwards and whether m was inserted.
func (x *Index) PutIfAbsent(m *data.Mapping) (*data.Mapping, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if existing, ok := x.tokens.Get(TokenKey(m.Namespace, m.ParentID, m.Token)); ok {
		return clone(existing), false
	}

	x.put(m)
	return clone(m), true
}

func (x *Index) put(m *data.Mapping) {
	row := clone(m)
	x.ids.Set(IDKey(row.Namespace, row.ID), row)
	x.tokens.Set(TokenKey(row.Namespace, row.ParentID, row.Token), row)
}

func (x *Index) ByID(ns string, id data.ID) (*data.Mapping, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	m, ok := x.ids.Get(IDKey(ns, id))
	if !ok {
		return nil, false
	}
	return clone(m), true
}

func (x *Index) ByToken(ns, token string, parent data.ID) (*data.Mapping, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	m, ok := x.tokens.Get(TokenKey(ns, parent, token))
	if !ok {
		return nil, false
	}
	return clone(m), true
}

// DeleteParent removes and returns all rows discovered under parent.
func (x *Index) DeleteParent(ns string, parent data.ID) []*data.Mapping {
	x.mu.Lock()
	defer x.mu.Unlock()

	prefix := ParentKey(ns, parent)
	var removed []*data.Mapping
	x.tokens.Ascend(prefix, func(key string, m *data.Mapping) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		removed = append(removed, m)
		return true
	})

	for _, m := range removed {
		x.tokens.Delete(TokenKey(m.Namespace, m.ParentID, m.Token))
		x.ids.Delete(IDKey(m.Namespace, m.ID))
	}

	return removed
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.ids.Len()
}

func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.ids.Clear()
	x.tokens.Clear()
}

func clone(m *data.Mapping) *data.Mapping {
	cp := *m
	return &cp
}
