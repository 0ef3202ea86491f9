package feedtree

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mwantia/feedtree/data"
)

// Registry dispatches host callbacks to several providers sharing one host
// database. Namespaces and root templates of registered providers are
// disjoint, so at most one provider recognizes any id.
type Registry struct {
	mu        sync.RWMutex
	providers []*Provider
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.namespace == p.namespace {
			return fmt.Errorf("%w: %s", data.ErrNamespaceInUse, p.namespace)
		}
		if existing.db.Name() == p.db.Name() && existing.rootTemplate == p.rootTemplate {
			return fmt.Errorf("%w: %s is used by %s", data.ErrTemplateInUse, p.rootTemplate, existing.namespace)
		}
	}

	r.providers = append(r.providers, p)
	return nil
}

func (r *Registry) Unregister(namespace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.providers {
		if p.namespace == namespace {
			r.providers = slices.Delete(r.providers, i, i+1)
			return nil
		}
	}

	return fmt.Errorf("%w: no provider for namespace %s", data.ErrNotFound, namespace)
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []*Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.providers)
}

func (r *Registry) Provider(namespace string) (*Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.providers {
		if p.namespace == namespace {
			return p, true
		}
	}

	return nil, false
}

// dispatch returns the first answer that is not data.ErrNotFound.
func dispatch[T any](r *Registry, call func(*Provider) (T, error)) (T, error) {
	var zero T
	for _, p := range r.Providers() {
		result, err := call(p)
		if errors.Is(err, data.ErrNotFound) {
			continue
		}

		return result, err
	}

	return zero, data.ErrNotFound
}

func (r *Registry) GetItemDefinition(ctx context.Context, id data.ID) (*data.ItemDefinition, error) {
	return dispatch(r, func(p *Provider) (*data.ItemDefinition, error) {
		return p.GetItemDefinition(ctx, id)
	})
}

func (r *Registry) GetChildIDs(ctx context.Context, id data.ID) ([]data.ID, error) {
	return dispatch(r, func(p *Provider) ([]data.ID, error) {
		return p.GetChildIDs(ctx, id)
	})
}

func (r *Registry) GetItemFields(ctx context.Context, id data.ID) (data.FieldList, error) {
	return dispatch(r, func(p *Provider) (data.FieldList, error) {
		return p.GetItemFields(ctx, id)
	})
}

func (r *Registry) GetItemFieldValues(ctx context.Context, id data.ID) (map[string]string, error) {
	return dispatch(r, func(p *Provider) (map[string]string, error) {
		return p.GetItemFieldValues(ctx, id)
	})
}

func (r *Registry) GetParentID(ctx context.Context, id data.ID) (data.ID, error) {
	return dispatch(r, func(p *Provider) (data.ID, error) {
		return p.GetParentID(ctx, id)
	})
}

func (r *Registry) GetItemVersions(ctx context.Context, id data.ID) ([]data.VersionUri, error) {
	return dispatch(r, func(p *Provider) ([]data.VersionUri, error) {
		return p.GetItemVersions(ctx, id)
	})
}

// GetPublishQueue merges the queues of all providers, dropping ids reported
// twice by providers sharing a session cache.
func (r *Registry) GetPublishQueue(ctx context.Context, from, to time.Time) []data.ID {
	seen := make(map[data.ID]bool)
	queue := make([]data.ID, 0)
	for _, p := range r.Providers() {
		for _, id := range p.GetPublishQueue(ctx, from, to) {
			if !seen[id] {
				seen[id] = true
				queue = append(queue, id)
			}
		}
	}

	return queue
}

func (r *Registry) DeleteItem(ctx context.Context, id data.ID) bool {
	for _, p := range r.Providers() {
		p.DeleteItem(ctx, id)
	}

	return false
}
