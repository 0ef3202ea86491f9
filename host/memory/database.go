// Package memory is an in-process host used by tests and the command line
// tool to stand in for a real content tree.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/host"
)

type Item struct {
	id         data.ID
	name       string
	templateID data.ID
	fields     map[string]string
}

var _ host.Item = (*Item)(nil)

func NewItem(id data.ID, name string, templateID data.ID, fields map[string]string) *Item {
	return &Item{
		id:         id,
		name:       name,
		templateID: templateID,
		fields:     maps.Clone(fields),
	}
}

func (i *Item) ID() data.ID {
	return i.id
}

func (i *Item) Name() string {
	return i.name
}

func (i *Item) TemplateID() data.ID {
	return i.templateID
}

func (i *Item) Field(name string) string {
	return i.fields[name]
}

type Database struct {
	mu        sync.RWMutex
	name      string
	items     map[data.ID]*Item
	templates map[data.ID][]host.TemplateField
	languages []string
}

var _ host.Database = (*Database)(nil)

func NewDatabase(name string, languages ...string) *Database {
	return &Database{
		name:      name,
		items:     make(map[data.ID]*Item),
		templates: make(map[data.ID][]host.TemplateField),
		languages: slices.Clone(languages),
	}
}

func (d *Database) Name() string {
	return d.name
}

func (d *Database) AddItem(item *Item) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.items[item.id] = item
}

func (d *Database) RemoveItem(id data.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.items, id)
}

func (d *Database) DefineTemplate(id data.ID, fields ...host.TemplateField) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.templates[id] = slices.Clone(fields)
}

func (d *Database) SetLanguages(languages ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.languages = slices.Clone(languages)
}

func (d *Database) GetItem(ctx context.Context, id data.ID) (host.Item, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	item, ok := d.items[id]
	if !ok {
		return nil, data.ErrNotFound
	}

	return item, nil
}

func (d *Database) TemplateFields(ctx context.Context, templateID data.ID) ([]host.TemplateField, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	fields, ok := d.templates[templateID]
	if !ok {
		return nil, data.ErrNotFound
	}

	return slices.Clone(fields), nil
}

func (d *Database) Languages(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.languages), nil
}
