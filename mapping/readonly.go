package mapping

import (
	"context"
	"errors"

	"github.com/mwantia/feedtree/data"
)

// ReadOnlyStore wraps any Store so that no row is ever written. Create still
// answers with rows that already exist, so known entries keep resolving.
type ReadOnlyStore struct {
	store Store
}

var _ Store = (*ReadOnlyStore)(nil)

func NewReadOnly(store Store) *ReadOnlyStore {
	return &ReadOnlyStore{
		store: store,
	}
}

func (ros *ReadOnlyStore) Name() string {
	return ros.store.Name()
}

func (ros *ReadOnlyStore) Open(ctx context.Context) error {
	return ros.store.Open(ctx)
}

func (ros *ReadOnlyStore) Close(ctx context.Context) error {
	return ros.store.Close(ctx)
}

func (ros *ReadOnlyStore) Lookup(ctx context.Context, namespace string, id data.ID) (*data.Mapping, error) {
	return ros.store.Lookup(ctx, namespace, id)
}

func (ros *ReadOnlyStore) LookupByToken(ctx context.Context, namespace, token string, parent data.ID) (*data.Mapping, error) {
	return ros.store.LookupByToken(ctx, namespace, token, parent)
}

// Create returns the existing row for the key, or data.ErrReadOnly when one
// would have to be minted.
func (ros *ReadOnlyStore) Create(ctx context.Context, namespace, token string, parent data.ID, name string) (*data.Mapping, error) {
	row, err := ros.store.LookupByToken(ctx, namespace, token, parent)
	if errors.Is(err, data.ErrNotFound) {
		return nil, data.ErrReadOnly
	}

	return row, err
}

func (ros *ReadOnlyStore) Keys(ctx context.Context, namespace string, id data.ID) ([]*data.Mapping, error) {
	return ros.store.Keys(ctx, namespace, id)
}

func (ros *ReadOnlyStore) DeleteByParent(ctx context.Context, namespace string, parent data.ID) ([]*data.Mapping, error) {
	return nil, data.ErrReadOnly
}
