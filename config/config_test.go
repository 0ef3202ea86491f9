package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[log]
level = "debug"
json = true
max_backups = 7

[feed]
developer_key = "dev-key"
max_results = 10
safe_search = "moderate"
timeout = "3s"

[mapping]
address = "sqlite:///var/lib/feedtree/mappings.db"

[[providers]]
namespace = "videos"
root_template = "{3A5B1C7E-0F6D-4C7B-9E2A-1D4F8B6C0A11}"
resource_template = "6b1f0e0c-3d2a-4f5e-8a7b-9c0d1e2f3a4b"

[[providers]]
namespace = "music"
database = "web"
root_template = "3a5b1c7e-0f6d-4c7b-9e2a-1d4f8b6c0a11"
resource_template = "6b1f0e0c-3d2a-4f5e-8a7b-9c0d1e2f3a4b"
owner_field = "Channel"
`

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feedtree.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 7, cfg.Log.MaxBackups)
	assert.Equal(t, Default().Log.MaxSizeMB, cfg.Log.MaxSizeMB)
	assert.Equal(t, Default().Log.MaxAgeDays, cfg.Log.MaxAgeDays)
	assert.Equal(t, "dev-key", cfg.Feed.DeveloperKey)
	assert.Equal(t, 10, cfg.Feed.MaxResults)
	assert.Equal(t, "moderate", cfg.Feed.SafeSearch)
	assert.Equal(t, "https://gdata.youtube.com", cfg.Feed.BaseURL)
	assert.Equal(t, "sqlite:///var/lib/feedtree/mappings.db", cfg.Mapping.Address)

	timeout, err := cfg.Feed.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, timeout)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, DefaultDatabase, cfg.Providers[0].Database)
	assert.Equal(t, DefaultOwnerField, cfg.Providers[0].OwnerField)
	assert.Equal(t, "web", cfg.Providers[1].Database)
	assert.Equal(t, "Channel", cfg.Providers[1].OwnerField)

	p, err := cfg.Provider("music")
	require.NoError(t, err)
	assert.Equal(t, "music", p.Namespace)

	_, err = cfg.Provider("missing")
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FEEDTREE_FEED_MAX_RESULTS", "5")
	t.Setenv("FEEDTREE_FEED_DEVELOPER_KEY", "from-env")

	cfg, err := Load(writeFile(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Feed.MaxResults)
	assert.Equal(t, "from-env", cfg.Feed.DeveloperKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Log.Level = "verbose"
	cfg.Log.MaxAgeDays = -1
	cfg.Feed.SafeSearch = "off"
	cfg.Feed.Timeout = "-1s"
	cfg.Mapping.Address = " "
	cfg.Providers = append(cfg.Providers, cfg.Providers[0])

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrNamespaceInUse))
	assert.True(t, errors.Is(err, data.ErrTemplateInUse))
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log rotation")
	assert.Contains(t, err.Error(), "feed.safe_search")
	assert.Contains(t, err.Error(), "feed.timeout")
	assert.Contains(t, err.Error(), "mapping.address")
}

func TestValidate_InvalidTemplates(t *testing.T) {
	cfg := Default()
	cfg.Providers[0].RootTemplate = "not-an-id"
	cfg.Providers[0].Namespace = "a/b"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrInvalidID))
	assert.True(t, errors.Is(err, data.ErrInvalidNamespace))
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feedtree.toml")
	require.NoError(t, WriteDefault(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path, false))
	assert.NoError(t, WriteDefault(path, true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWatch(t *testing.T) {
	path := writeFile(t, sampleConfig)

	changes := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) {
		changes <- cfg
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	assert.Equal(t, 10, w.Current().Feed.MaxResults)

	updated := Default()
	updated.Feed.MaxResults = 42
	require.NoError(t, Write(path, updated))

	select {
	case cfg := <-changes:
		assert.Equal(t, 42, cfg.Feed.MaxResults)
		assert.Equal(t, 42, w.Current().Feed.MaxResults)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatch_Close(t *testing.T) {
	path := writeFile(t, sampleConfig)

	changes := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) {
		changes <- cfg
	}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	updated := Default()
	updated.Feed.MaxResults = 42
	require.NoError(t, Write(path, updated))

	select {
	case cfg := <-changes:
		t.Fatalf("unexpected reload after Close: %d", cfg.Feed.MaxResults)
	case <-time.After(500 * time.Millisecond):
	}
	assert.Equal(t, 10, w.Current().Feed.MaxResults)
}

func TestWatch_InvalidRevision(t *testing.T) {
	path := writeFile(t, sampleConfig)

	errs := make(chan error, 4)
	w, err := Watch(path, nil, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	next := path + ".next"
	require.NoError(t, os.WriteFile(next, []byte("[log]\nlevel = \"verbose\"\n"), 0o600))
	require.NoError(t, os.Rename(next, path))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "log.level")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
	assert.Equal(t, 10, w.Current().Feed.MaxResults)
}
