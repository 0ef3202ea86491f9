package memory

import (
	"context"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/mapping/internal/index"
)

// MemoryStore keeps all rows in process memory. Rows survive for the
// lifetime of the value only, which makes it suitable for tests and
// single-run tools.
type MemoryStore struct {
	rows *index.Index
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: index.New(),
	}
}

// Name returns the identifier name defined for this store.
func (*MemoryStore) Name() string {
	return "memory"
}

// Open is part of the lifecycle and gets called before first use.
func (ms *MemoryStore) Open(ctx context.Context) error {
	// No initialization needed - store is ready to use
	return nil
}

// Close is part of the lifecycle and releases all resources.
func (ms *MemoryStore) Close(ctx context.Context) error {
	ms.rows.Clear()
	return nil
}

func (ms *MemoryStore) Lookup(ctx context.Context, namespace string, id data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	m, ok := ms.rows.ByID(namespace, id)
	if !ok {
		return nil, data.ErrNotFound
	}
	return m, nil
}

func (ms *MemoryStore) LookupByToken(ctx context.Context, namespace, token string, parent data.ID) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	m, ok := ms.rows.ByToken(namespace, token, parent)
	if !ok {
		return nil, data.ErrNotFound
	}
	return m, nil
}

func (ms *MemoryStore) Create(ctx context.Context, namespace, token string, parent data.ID, name string) (*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	m, _ := ms.rows.PutIfAbsent(&data.Mapping{
		Namespace:  namespace,
		Token:      token,
		ID:         data.NewID(),
		ParentID:   parent,
		Name:       name,
		CreateTime: time.Now().Unix(),
	})
	return m, nil
}

func (ms *MemoryStore) Keys(ctx context.Context, namespace string, id data.ID) ([]*data.Mapping, error) {
	m, err := ms.Lookup(ctx, namespace, id)
	if err == data.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*data.Mapping{m}, nil
}

func (ms *MemoryStore) DeleteByParent(ctx context.Context, namespace string, parent data.ID) ([]*data.Mapping, error) {
	if err := data.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	return ms.rows.DeleteParent(namespace, parent), nil
}
