package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mwantia/feedtree"
	"github.com/mwantia/feedtree/config"
	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/feed"
	"github.com/mwantia/feedtree/feed/gdata"
	"github.com/mwantia/feedtree/field"
	"github.com/mwantia/feedtree/host"
	"github.com/mwantia/feedtree/host/memory"
	"github.com/mwantia/feedtree/log"
	"github.com/mwantia/feedtree/mapping"
	"github.com/mwantia/feedtree/session"
)

// runtime wires the configured providers to an in-process host holding one
// folder item per requested owner.
type runtime struct {
	cfg      *config.Config
	log      *log.Logger
	store    mapping.Store
	cache    *memory.Cache
	dbs      map[string]*memory.Database
	registry *feedtree.Registry
}

func newLogger(cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	return log.New("feedtree", log.Options{
		Level:      level,
		File:       cfg.File,
		JSON:       cfg.JSON,
		NoTerminal: cfg.NoTerminal,
		Rotation: log.Rotation{
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
	}), nil
}

func newRuntime(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*runtime, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := mapping.Open(ctx, cfg.Mapping.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping store: %w", err)
	}
	if cfg.Mapping.ReadOnly {
		store = mapping.NewReadOnly(store)
	}

	timeout, err := cfg.Feed.TimeoutDuration()
	if err != nil {
		store.Close(ctx)
		return nil, err
	}
	safety, err := feed.ParseSafetyLevel(cfg.Feed.SafeSearch)
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	client := gdata.NewClient(gdata.ClientOptions{
		BaseURL:      cfg.Feed.BaseURL,
		DeveloperKey: cfg.Feed.DeveloperKey,
		HTTPClient:   httpClient,
		UserAgent:    "feedtree",
		MaxRetries:   cfg.Feed.MaxRetries,
		Logger:       logger.Named("gdata"),
	})
	fetcher := feed.NewFetcher(client, feed.FetcherOptions{
		MaxResults: cfg.Feed.MaxResults,
		Timeout:    timeout,
		Logger:     logger.Named("feed"),
	})

	r := &runtime{
		cfg:      cfg,
		log:      logger,
		store:    store,
		cache:    memory.NewCache(),
		dbs:      make(map[string]*memory.Database),
		registry: feedtree.NewRegistry(),
	}

	shared := session.NewCache()
	for _, pc := range cfg.Providers {
		p, err := r.provider(pc, fetcher, safety, shared)
		if err != nil {
			store.Close(ctx)
			return nil, fmt.Errorf("provider %s: %w", pc.Namespace, err)
		}
		if err := r.registry.Register(p); err != nil {
			store.Close(ctx)
			return nil, err
		}
	}

	return r, nil
}

func (r *runtime) provider(pc config.ProviderConfig, fetcher *feed.Fetcher, safety feed.SafetyLevel, shared *session.Cache) (*feedtree.Provider, error) {
	rootTemplate, err := data.ParseID(pc.RootTemplate)
	if err != nil {
		return nil, err
	}
	resourceTemplate, err := data.ParseID(pc.ResourceTemplate)
	if err != nil {
		return nil, err
	}

	db, ok := r.dbs[pc.Database]
	if !ok {
		db = memory.NewDatabase(pc.Database, "en")
		r.dbs[pc.Database] = db
	}

	fields := make([]host.TemplateField, 0, len(field.Names()))
	for _, name := range field.Names() {
		fields = append(fields, host.TemplateField{
			ID:   data.DeriveID(resourceTemplate, name),
			Name: name,
		})
	}
	db.DefineTemplate(resourceTemplate, fields...)

	return feedtree.NewProvider(db, r.cache, r.store, fetcher,
		feedtree.WithNamespace(pc.Namespace),
		feedtree.WithRootTemplate(rootTemplate),
		feedtree.WithResourceTemplate(resourceTemplate),
		feedtree.WithOwnerField(pc.OwnerField),
		feedtree.WithMaxResults(r.cfg.Feed.MaxResults),
		feedtree.WithSafetyLevel(safety),
		feedtree.WithSessionCache(shared),
		feedtree.WithLogger(r.log.Named("provider")),
	)
}

// folder adds the folder item of owner below provider p. Its id is derived
// from the root template and owner, so mappings stay valid across runs.
func (r *runtime) folder(p *feedtree.Provider, owner string) data.ID {
	id := data.DeriveID(p.RootTemplate(), owner)
	db := r.dbs[p.Database().Name()]
	db.AddItem(memory.NewItem(id, owner, p.RootTemplate(), map[string]string{
		p.OwnerField(): owner,
	}))

	return id
}

func (r *runtime) selectProvider(namespace string) (*feedtree.Provider, error) {
	pc, err := r.cfg.Provider(namespace)
	if err != nil {
		return nil, err
	}

	p, ok := r.registry.Provider(pc.Namespace)
	if !ok {
		return nil, fmt.Errorf("%w: %s", data.ErrNotFound, pc.Namespace)
	}
	return p, nil
}

func (r *runtime) Close(ctx context.Context) error {
	err := r.store.Close(ctx)
	if cerr := r.log.Close(); err == nil {
		err = cerr
	}
	return err
}
