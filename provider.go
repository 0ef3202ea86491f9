// Package feedtree exposes the entries of a remote video feed as read-only
// items below folder items of a host content tree.
package feedtree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/feed"
	"github.com/mwantia/feedtree/field"
	"github.com/mwantia/feedtree/host"
	"github.com/mwantia/feedtree/log"
	"github.com/mwantia/feedtree/mapping"
	"github.com/mwantia/feedtree/session"
)

// Provider synthesizes leaf items for the feed entries of every folder
// tagged with its root template. Ids it does not recognize are answered with
// data.ErrNotFound, leaving them to the host's own tree.
type Provider struct {
	db      host.Database
	cache   host.Cache
	store   mapping.Store
	fetcher *feed.Fetcher
	session *session.Cache
	log     *log.Logger

	namespace        string
	rootTemplate     data.ID
	resourceTemplate data.ID
	ownerField       string
	maxResults       int
	safety           feed.SafetyLevel
}

func NewProvider(db host.Database, cache host.Cache, store mapping.Store, fetcher *feed.Fetcher, opts ...ProviderOption) (*Provider, error) {
	options := newDefaultProviderOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	if db == nil || cache == nil || store == nil || fetcher == nil {
		return nil, fmt.Errorf("database, cache, store and fetcher are required")
	}

	cacheValue := options.Session
	if cacheValue == nil {
		cacheValue = session.NewCache()
	}
	logger := options.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Provider{
		db:               db,
		cache:            cache,
		store:            store,
		fetcher:          fetcher,
		session:          cacheValue,
		log:              logger.Named(options.Namespace),
		namespace:        options.Namespace,
		rootTemplate:     options.RootTemplate,
		resourceTemplate: options.ResourceTemplate,
		ownerField:       options.OwnerField,
		maxResults:       options.MaxResults,
		safety:           options.Safety,
	}, nil
}

func (p *Provider) Namespace() string {
	return p.namespace
}

func (p *Provider) RootTemplate() data.ID {
	return p.rootTemplate
}

func (p *Provider) ResourceTemplate() data.ID {
	return p.resourceTemplate
}

func (p *Provider) OwnerField() string {
	return p.ownerField
}

func (p *Provider) Database() host.Database {
	return p.db
}

// folder returns the host item for id when it is tagged with the root template.
func (p *Provider) folder(ctx context.Context, id data.ID) (host.Item, bool, error) {
	item, err := p.db.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return item, item.TemplateID() == p.rootTemplate, nil
}

// leaf returns the mapping row of id when it was minted in this namespace.
func (p *Provider) leaf(ctx context.Context, id data.ID) (*data.Mapping, error) {
	if id.IsNull() {
		return nil, data.ErrNotFound
	}

	rows, err := p.store.Keys(ctx, p.namespace, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, data.ErrNotFound
	}

	return rows[0], nil
}

// resolve returns the session entry of a leaf, fetching the feed of the
// recorded parent folder on a miss.
func (p *Provider) resolve(ctx context.Context, id data.ID) (*session.Entry, error) {
	row, err := p.leaf(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry, ok := p.session.Get(id); ok {
		return entry, nil
	}

	parent, isFolder, err := p.folder(ctx, row.ParentID)
	if err != nil {
		return nil, err
	}
	if !isFolder {
		p.log.Debug("Parent %s of %s is no longer a folder", row.ParentID, id)
		return nil, data.ErrNotFound
	}

	owner := parent.Field(p.ownerField)
	remote, err := p.fetcher.Find(ctx, owner, row.Token, p.maxResults, p.safety)
	if err != nil {
		p.log.Debug("Unable to resolve %s from feed of '%s': %v", id, owner, err)
		return nil, fmt.Errorf("%w: %v", data.ErrNotFound, err)
	}

	name := row.Name
	if strings.TrimSpace(remote.Title) != "" {
		name = data.ProposeItemName(remote.Title)
	}

	entry := &session.Entry{
		ID:         row.ID,
		ParentID:   row.ParentID,
		TemplateID: p.resourceTemplate,
		Name:       name,
		Remote:     remote,
	}
	p.session.Put(entry)

	return entry, nil
}

// GetItemDefinition describes the leaf id to the host. The host's cached
// descriptor of id is evicted on every successful call.
func (p *Provider) GetItemDefinition(ctx context.Context, id data.ID) (*data.ItemDefinition, error) {
	entry, err := p.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := p.cache.EvictDescriptor(ctx, id); err != nil {
		p.log.Warn("Failed to evict descriptor of %s: %v", id, err)
	}

	return &data.ItemDefinition{
		ID:         entry.ID,
		Name:       entry.Name,
		TemplateID: entry.TemplateID,
		Version:    data.VersionNull,
	}, nil
}

// GetChildIDs lists one leaf per playable entry in the feed of folder id.
// An unset owner or an unreachable feed yields no children.
func (p *Provider) GetChildIDs(ctx context.Context, id data.ID) ([]data.ID, error) {
	item, isFolder, err := p.folder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isFolder {
		return nil, data.ErrNotFound
	}

	if err := p.cache.EvictChildInfo(ctx, id); err != nil {
		p.log.Warn("Failed to evict child info of %s: %v", id, err)
	}

	owner := strings.TrimSpace(item.Field(p.ownerField))
	entries, err := p.fetcher.FetchForOwner(ctx, owner, p.maxResults, p.safety)
	if err != nil {
		return []data.ID{}, nil
	}

	ids := make([]data.ID, 0, len(entries))
	for _, entry := range entries {
		row, err := p.store.Create(ctx, p.namespace, entry.Token, id, data.ProposeItemName(entry.Title))
		if errors.Is(err, data.ErrReadOnly) {
			p.log.Debug("Skipping unmapped entry '%s' of read-only store", entry.Token)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to map entry '%s': %w", entry.Token, err)
		}
		ids = append(ids, row.ID)
	}

	p.log.Debug("Listed %d children of %s for '%s'", len(ids), id, owner)
	return ids, nil
}

// GetItemFields projects the leaf id onto every non-standard field of the
// resource template, keyed by field id.
func (p *Provider) GetItemFields(ctx context.Context, id data.ID) (data.FieldList, error) {
	entry, fields, err := p.projectable(ctx, id)
	if err != nil {
		return nil, err
	}

	list := make(data.FieldList, len(fields))
	for _, f := range fields {
		list[f.ID] = field.Project(f.Name, entry.Remote)
	}

	return list, nil
}

// GetItemFieldValues is like GetItemFields but keyed by field name.
func (p *Provider) GetItemFieldValues(ctx context.Context, id data.ID) (map[string]string, error) {
	entry, fields, err := p.projectable(ctx, id)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Name] = field.Project(f.Name, entry.Remote)
	}

	return values, nil
}

func (p *Provider) projectable(ctx context.Context, id data.ID) (*session.Entry, []host.TemplateField, error) {
	entry, err := p.resolve(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	declared, err := p.db.TemplateFields(ctx, p.resourceTemplate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read fields of template %s: %w", p.resourceTemplate, err)
	}

	fields := make([]host.TemplateField, 0, len(declared))
	for _, f := range declared {
		if !f.Standard {
			fields = append(fields, f)
		}
	}

	return entry, fields, nil
}

// GetParentID returns the folder a leaf was discovered under.
func (p *Provider) GetParentID(ctx context.Context, id data.ID) (data.ID, error) {
	row, err := p.leaf(ctx, id)
	if err != nil {
		return data.NullID, err
	}

	return row.ParentID, nil
}

// GetItemVersions reports a first version per host language for leaves and
// folders of this provider.
func (p *Provider) GetItemVersions(ctx context.Context, id data.ID) ([]data.VersionUri, error) {
	if _, err := p.leaf(ctx, id); err != nil {
		if !errors.Is(err, data.ErrNotFound) {
			return nil, err
		}
		_, isFolder, err := p.folder(ctx, id)
		if err != nil {
			return nil, err
		}
		if !isFolder {
			return nil, data.ErrNotFound
		}
	}

	languages, err := p.db.Languages(ctx)
	if err != nil {
		return nil, err
	}

	versions := make([]data.VersionUri, 0, len(languages))
	for _, language := range languages {
		versions = append(versions, data.VersionUri{
			Language: language,
			Version:  data.VersionFirst,
		})
	}

	return versions, nil
}

// GetPublishQueue returns every leaf held by the session cache. Leaves carry
// no modification state, so the interval is ignored.
func (p *Provider) GetPublishQueue(ctx context.Context, from, to time.Time) []data.ID {
	return p.session.IDs()
}

// GetLanguages returns nil; the host lists its own languages.
func (p *Provider) GetLanguages(ctx context.Context) []string {
	return nil
}

func (p *Provider) CreateItem(ctx context.Context, id data.ID, name string, templateID, parentID data.ID) bool {
	p.log.Debug("Rejected create of '%s' below %s: %v", name, parentID, data.ErrReadOnly)
	return false
}

func (p *Provider) SaveItem(ctx context.Context, id data.ID, fields data.FieldList) bool {
	p.log.Debug("Rejected save of %s: %v", id, data.ErrReadOnly)
	return false
}

// DeleteItem always rejects the delete. When id is a folder of this
// provider, the mappings discovered below it are purged first so they do
// not outlive the folder the host is about to remove.
func (p *Provider) DeleteItem(ctx context.Context, id data.ID) bool {
	if _, isFolder, err := p.folder(ctx, id); err == nil && isFolder {
		if err := p.purge(ctx, id); err != nil {
			p.log.Error("Failed to purge mappings below %s: %v", id, err)
		}
	}

	p.log.Debug("Rejected delete of %s: %v", id, data.ErrReadOnly)
	return false
}

func (p *Provider) purge(ctx context.Context, parent data.ID) error {
	rows, err := p.store.DeleteByParent(ctx, p.namespace, parent)
	if err != nil {
		return err
	}

	for _, row := range rows {
		p.session.Delete(row.ID)
	}

	if err := p.cache.EvictChildInfo(ctx, parent); err != nil {
		p.log.Warn("Failed to evict child info of %s: %v", parent, err)
	}

	p.log.Info("Purged %d mappings below %s", len(rows), parent)
	return nil
}
