// Package host declares the parts of the host content tree the provider
// talks to: its item database and its item and data caches.
package host

import (
	"context"

	"github.com/mwantia/feedtree/data"
)

// Item is a real item stored by the host.
type Item interface {
	ID() data.ID
	Name() string
	TemplateID() data.ID
	// Field returns the raw value of the named field, or "" when unset.
	Field(name string) string
}

// TemplateField is one field declared by a template. Standard fields are
// the host's own bookkeeping fields and are never projected.
type TemplateField struct {
	ID       data.ID
	Name     string
	Standard bool
}

type Database interface {
	Name() string
	// GetItem answers data.ErrNotFound for ids the host does not store.
	GetItem(ctx context.Context, id data.ID) (Item, error)
	// TemplateFields returns the fields declared by templateID, including
	// inherited ones.
	TemplateFields(ctx context.Context, templateID data.ID) ([]TemplateField, error)
	// Languages returns every content language known to the database.
	Languages(ctx context.Context) ([]string, error)
}

// Cache is the host's item and data caches.
type Cache interface {
	// EvictDescriptor drops the cached item descriptor of id.
	EvictDescriptor(ctx context.Context, id data.ID) error
	// EvictChildInfo drops the cached child list of id.
	EvictChildInfo(ctx context.Context, id data.ID) error
}
