// Package config loads the feedtree configuration file with environment
// overrides and keeps it current while it changes on disk.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/feed"
	"github.com/mwantia/feedtree/log"
)

const (
	DefaultDatabase   = "master"
	DefaultOwnerField = "Owner"
	DefaultAddress    = ":memory:"
)

type Config struct {
	Log       LogConfig        `mapstructure:"log" toml:"log"`
	Feed      FeedConfig       `mapstructure:"feed" toml:"feed"`
	Mapping   MappingConfig    `mapstructure:"mapping" toml:"mapping"`
	Providers []ProviderConfig `mapstructure:"providers" toml:"providers"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" toml:"level"`
	File       string `mapstructure:"file" toml:"file,omitempty"`
	JSON       bool   `mapstructure:"json" toml:"json"`
	NoTerminal bool   `mapstructure:"no_terminal" toml:"no_terminal"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" toml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" toml:"compress"`
}

type FeedConfig struct {
	DeveloperKey string `mapstructure:"developer_key" toml:"developer_key"`
	MaxResults   int    `mapstructure:"max_results" toml:"max_results"`
	SafeSearch   string `mapstructure:"safe_search" toml:"safe_search"`
	BaseURL      string `mapstructure:"base_url" toml:"base_url"`
	Timeout      string `mapstructure:"timeout" toml:"timeout"`
	MaxRetries   int    `mapstructure:"max_retries" toml:"max_retries"`
}

type MappingConfig struct {
	Address string `mapstructure:"address" toml:"address"`
	// ReadOnly serves existing mappings only; unseen entries are skipped.
	ReadOnly bool `mapstructure:"read_only" toml:"read_only"`
}

type ProviderConfig struct {
	Namespace        string `mapstructure:"namespace" toml:"namespace"`
	Database         string `mapstructure:"database" toml:"database"`
	RootTemplate     string `mapstructure:"root_template" toml:"root_template"`
	ResourceTemplate string `mapstructure:"resource_template" toml:"resource_template"`
	OwnerField       string `mapstructure:"owner_field" toml:"owner_field"`
}

// Default returns the configuration written by WriteDefault.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      log.Info.String(),
			MaxSizeMB:  32,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		Feed: FeedConfig{
			MaxResults: feed.DefaultMaxResults,
			SafeSearch: string(feed.SafetyStrict),
			BaseURL:    "https://gdata.youtube.com",
			Timeout:    feed.DefaultTimeout.String(),
			MaxRetries: 2,
		},
		Mapping: MappingConfig{
			Address: DefaultAddress,
		},
		Providers: []ProviderConfig{
			{
				Namespace:        "videos",
				Database:         DefaultDatabase,
				RootTemplate:     data.DeriveID(data.NullID, "feedtree/root").String(),
				ResourceTemplate: data.DeriveID(data.NullID, "feedtree/resource").String(),
				OwnerField:       DefaultOwnerField,
			},
		},
	}
}

func (c *Config) applyDefaults() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if strings.TrimSpace(p.Database) == "" {
			p.Database = DefaultDatabase
		}
		if strings.TrimSpace(p.OwnerField) == "" {
			p.OwnerField = DefaultOwnerField
		}
	}
}

// Validate checks every section. Providers sharing a database need disjoint
// namespaces and root templates.
func (c *Config) Validate() error {
	errs := &data.Errors{}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs.Add(fmt.Errorf("log.level: %w", err))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs.Add(fmt.Errorf("log rotation: limits must not be negative"))
	}
	if _, err := feed.ParseSafetyLevel(c.Feed.SafeSearch); err != nil {
		errs.Add(fmt.Errorf("feed.safe_search: %w", err))
	}
	if c.Feed.MaxResults < 0 {
		errs.Add(fmt.Errorf("feed.max_results: must not be negative"))
	}
	if c.Feed.MaxRetries < 0 {
		errs.Add(fmt.Errorf("feed.max_retries: must not be negative"))
	}
	if _, err := c.Feed.TimeoutDuration(); err != nil {
		errs.Add(fmt.Errorf("feed.timeout: %w", err))
	}
	if strings.TrimSpace(c.Mapping.Address) == "" {
		errs.Add(fmt.Errorf("mapping.address: must not be empty"))
	}

	namespaces := make(map[string]bool)
	roots := make(map[string]string)
	for i, p := range c.Providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if err := data.ValidateNamespace(p.Namespace); err != nil {
			errs.Add(fmt.Errorf("%s.namespace: %w", prefix, err))
		} else if namespaces[p.Namespace] {
			errs.Add(fmt.Errorf("%s.namespace: %w: %s", prefix, data.ErrNamespaceInUse, p.Namespace))
		}
		namespaces[p.Namespace] = true

		root, err := data.ParseID(p.RootTemplate)
		if err != nil {
			errs.Add(fmt.Errorf("%s.root_template: %w", prefix, err))
		} else {
			key := p.Database + "/" + root.String()
			if owner, ok := roots[key]; ok {
				errs.Add(fmt.Errorf("%s.root_template: %w by %s", prefix, data.ErrTemplateInUse, owner))
			}
			roots[key] = p.Namespace
		}
		if _, err := data.ParseID(p.ResourceTemplate); err != nil {
			errs.Add(fmt.Errorf("%s.resource_template: %w", prefix, err))
		}
	}

	return errs.Errors()
}

func (f FeedConfig) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(f.Timeout) == "" {
		return feed.DefaultTimeout, nil
	}

	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// Provider returns the provider section for namespace, or the first one
// when namespace is empty.
func (c *Config) Provider(namespace string) (*ProviderConfig, error) {
	for i := range c.Providers {
		if namespace == "" || c.Providers[i].Namespace == namespace {
			return &c.Providers[i], nil
		}
	}

	if namespace == "" {
		return nil, fmt.Errorf("no provider configured")
	}
	return nil, fmt.Errorf("no provider configured for namespace '%s'", namespace)
}
