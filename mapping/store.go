// Package mapping defines the durable table that maps remote feed tokens to
// host item ids, and selects one of its storage backends by address.
package mapping

import (
	"context"

	"github.com/mwantia/feedtree/data"
)

// Store is the stable id table. Rows are keyed by (namespace, token, parent)
// and by (namespace, id); both keys are unique and rows are never updated.
//
// Every lookup answers data.ErrNotFound when no row matches.
type Store interface {
	// Name returns the identifier name defined for this store.
	Name() string
	// Open is part of the lifecycle and gets called before first use.
	Open(ctx context.Context) error
	// Close is part of the lifecycle and releases all resources.
	Close(ctx context.Context) error

	// Lookup returns the row minted for id.
	Lookup(ctx context.Context, namespace string, id data.ID) (*data.Mapping, error)
	// LookupByToken returns the row for token discovered under parent.
	LookupByToken(ctx context.Context, namespace, token string, parent data.ID) (*data.Mapping, error)
	// Create mints an id for (namespace, token, parent) unless a row already
	// exists, in which case that row is returned. Concurrent callers for the
	// same key all observe the same id.
	Create(ctx context.Context, namespace, token string, parent data.ID, name string) (*data.Mapping, error)
	// Keys returns every row for id within namespace (zero or one).
	Keys(ctx context.Context, namespace string, id data.ID) ([]*data.Mapping, error)
	// DeleteByParent removes all rows discovered under parent and returns them.
	DeleteByParent(ctx context.Context, namespace string, parent data.ID) ([]*data.Mapping, error)
}
