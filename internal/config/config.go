// Package config loads folio configuration from defaults, a YAML file and
// FOLIO_ environment variables, and hot-reloads the file on change.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes environment overrides: storage.driver is FOLIO_STORAGE_DRIVER.
const EnvPrefix = "FOLIO"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	logger    *slog.Logger
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager loads configuration. With an empty cfgFile it looks for
// config.yaml in the working directory and then in $HOME/.folio; a missing
// file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{v: viper.New(), logger: slog.Default()}
	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}
	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg
	return cm, nil
}

func (cm *Manager) initViper(cfgFile string) error {
	setDefaults(cm.v, DefaultConfig())

	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.folio")
	}

	if err := cm.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile != "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.public_url", d.Server.PublicURL)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.defra.container_name", d.Storage.Defra.ContainerName)
	v.SetDefault("storage.defra.image", d.Storage.Defra.Image)
	v.SetDefault("storage.defra.port", d.Storage.Defra.Port)
	v.SetDefault("autosave.debounce", d.Autosave.Debounce)
	v.SetDefault("autosave.timeout", d.Autosave.Timeout)
	v.SetDefault("search.title_limit", d.Search.TitleLimit)
	v.SetDefault("search.snippet_radius", d.Search.SnippetRadius)
	v.SetDefault("search.fuzzy_threshold", d.Search.FuzzyThreshold)
	v.SetDefault("search.min_match_length", d.Search.MinMatchLength)
	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("uploads.max_bytes", d.Uploads.MaxBytes)
	v.SetDefault("uploads.max_width", d.Uploads.MaxWidth)
	v.SetDefault("uploads.jpeg_quality", d.Uploads.JPEGQuality)
	v.SetDefault("uploads.max_pixels", d.Uploads.MaxPixels)
	v.SetDefault("auth.user_header", d.Auth.UserHeader)
	v.SetDefault("auth.required", d.Auth.Required)
	v.SetDefault("auth.editors", d.Auth.Editors)
	v.SetDefault("auth.tokens", d.Auth.Tokens)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetLogger sets the logger used to report reload failures.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig reloads the file when it changes and runs the OnChange
// callbacks. An invalid file keeps the previous configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cm.reload(e.Name)
	})
	cm.v.WatchConfig()
}

func (cm *Manager) reload(name string) {
	cfg, err := cm.load()

	cm.mu.Lock()
	logger := cm.logger
	if err != nil {
		cm.mu.Unlock()
		logger.Warn("config reload rejected", "file", name, "error", err)
		return
	}
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	logger.Info("config reloaded", "file", name)
	for _, fn := range callbacks {
		fn(cfg)
	}
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(defaultDocument(DefaultConfig()))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Folio configuration
# Every key can be overridden with a FOLIO_ environment variable,
# e.g. FOLIO_STORAGE_DRIVER=defra or FOLIO_LOG_LEVEL=debug.
# Token hashes come from: folio token hash <token>

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

// defaultDocument orders the YAML sections and writes durations as strings.
func defaultDocument(c *Config) yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "server", Value: c.Server},
		{Key: "storage", Value: c.Storage},
		{Key: "autosave", Value: yaml.MapSlice{
			{Key: "debounce", Value: c.Autosave.Debounce.String()},
			{Key: "timeout", Value: c.Autosave.Timeout.String()},
		}},
		{Key: "search", Value: yaml.MapSlice{
			{Key: "title_limit", Value: c.Search.TitleLimit},
			{Key: "snippet_radius", Value: c.Search.SnippetRadius},
			{Key: "fuzzy_threshold", Value: c.Search.FuzzyThreshold},
			{Key: "min_match_length", Value: c.Search.MinMatchLength},
			{Key: "timeout", Value: c.Search.Timeout.String()},
		}},
		{Key: "cache", Value: yaml.MapSlice{
			{Key: "ttl", Value: c.Cache.TTL.String()},
			{Key: "redis_url", Value: c.Cache.RedisURL},
		}},
		{Key: "uploads", Value: c.Uploads},
		{Key: "auth", Value: c.Auth},
		{Key: "log", Value: c.Log},
	}
}
