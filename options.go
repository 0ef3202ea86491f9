package feedtree

import (
	"fmt"
	"strings"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/feed"
	"github.com/mwantia/feedtree/log"
	"github.com/mwantia/feedtree/session"
)

const DefaultOwnerField = "Owner"

type ProviderOptions struct {
	// Namespace scopes every mapping row written by the provider.
	Namespace string
	// RootTemplate tags the host items exposed as folders.
	RootTemplate data.ID
	// ResourceTemplate is reported for every synthesized leaf.
	ResourceTemplate data.ID
	// OwnerField names the folder field holding the feed author (default: Owner).
	OwnerField string
	// MaxResults caps the entries fetched per folder (0: fetcher default).
	MaxResults int
	Safety     feed.SafetyLevel
	// Session is the resolved entry cache (default: one per provider).
	Session *session.Cache
	Logger  *log.Logger
}

type ProviderOption func(*ProviderOptions) error

func newDefaultProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		OwnerField: DefaultOwnerField,
		Safety:     feed.SafetyStrict,
	}
}

func (o *ProviderOptions) validate() error {
	if err := data.ValidateNamespace(o.Namespace); err != nil {
		return err
	}
	if o.RootTemplate.IsNull() {
		return fmt.Errorf("root template is required")
	}
	if o.ResourceTemplate.IsNull() {
		return fmt.Errorf("resource template is required")
	}
	if o.RootTemplate == o.ResourceTemplate {
		return fmt.Errorf("root and resource template must differ")
	}
	if strings.TrimSpace(o.OwnerField) == "" {
		return fmt.Errorf("owner field is required")
	}

	return nil
}

func WithNamespace(namespace string) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.Namespace = namespace
		return nil
	}
}

func WithRootTemplate(id data.ID) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.RootTemplate = id
		return nil
	}
}

func WithResourceTemplate(id data.ID) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.ResourceTemplate = id
		return nil
	}
}

func WithOwnerField(name string) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.OwnerField = name
		return nil
	}
}

func WithMaxResults(maxResults int) ProviderOption {
	return func(opts *ProviderOptions) error {
		if maxResults < 0 {
			return fmt.Errorf("max results must not be negative: %d", maxResults)
		}
		opts.MaxResults = maxResults
		return nil
	}
}

func WithSafetyLevel(level feed.SafetyLevel) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.Safety = level
		return nil
	}
}

// WithSessionCache shares cache with other providers instead of creating a
// private one.
func WithSessionCache(cache *session.Cache) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.Session = cache
		return nil
	}
}

func WithLogger(logger *log.Logger) ProviderOption {
	return func(opts *ProviderOptions) error {
		opts.Logger = logger
		return nil
	}
}
