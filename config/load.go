package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "feedtree"
	configType      = "toml"
	envPrefix       = "FEEDTREE"
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".feedtree-*.toml.tmp"
)

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.json", defaults.Log.JSON)
	v.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
	v.SetDefault("log.compress", defaults.Log.Compress)
	v.SetDefault("feed.developer_key", defaults.Feed.DeveloperKey)
	v.SetDefault("feed.max_results", defaults.Feed.MaxResults)
	v.SetDefault("feed.safe_search", defaults.Feed.SafeSearch)
	v.SetDefault("feed.base_url", defaults.Feed.BaseURL)
	v.SetDefault("feed.timeout", defaults.Feed.Timeout)
	v.SetDefault("feed.max_retries", defaults.Feed.MaxRetries)
	v.SetDefault("mapping.address", defaults.Mapping.Address)
	v.SetDefault("mapping.read_only", defaults.Mapping.ReadOnly)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	return v
}

func read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the file at path, or feedtree.toml from the working and user
// config directories when path is empty. A missing default file yields the
// defaults. Environment variables prefixed FEEDTREE_ override file values.
func Load(path string) (*Config, error) {
	return read(newViper(path))
}

// Watcher reloads the configuration whenever its file changes.
type Watcher struct {
	mu      sync.RWMutex
	v       *viper.Viper
	current *Config

	path      string
	fs        *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Watch loads path and calls onChange with every valid configuration read
// after a change. Invalid revisions are passed to onError and leave the
// current configuration in place. Callbacks run on the watcher goroutine and
// must not call Close.
func Watch(path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watch requires a config file path")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	v := newViper(abs)
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}

	// The directory is watched so replacing the file by rename is seen
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		v:       v,
		current: cfg,
		path:    abs,
		fs:      fs,
		done:    make(chan struct{}),
	}
	go w.run(onChange, onError)

	return w, nil
}

func (w *Watcher) run(onChange func(*Config), onError func(error)) {
	defer close(w.done)

	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			w.reload(onChange, onError)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(fmt.Errorf("watch %s: %w", w.path, err))
			}
		}
	}
}

func (w *Watcher) reload(onChange func(*Config), onError func(error)) {
	cfg, err := read(w.v)
	if err != nil {
		if onError != nil {
			onError(fmt.Errorf("reload %s: %w", w.path, err))
		}
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	if onChange != nil {
		onChange(cfg)
	}
}

func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.current
}

// Close stops watching. No callback runs once Close has returned.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fs.Close()
		<-w.done
	})
	return w.closeErr
}

// WriteDefault writes the default configuration to path, replacing the file
// atomically. Existing files are kept unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists", path)
	}

	return Write(path, Default())
}

func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false
	return nil
}
