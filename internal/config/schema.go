package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds folio configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Autosave AutosaveConfig `mapstructure:"autosave" yaml:"autosave"`
	Search   SearchConfig   `mapstructure:"search" yaml:"search"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Uploads  UploadsConfig  `mapstructure:"uploads" yaml:"uploads"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// PublicURL is the origin written into sitemap.xml. Derived from each
	// request when empty.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
}

// StorageConfig selects the page store.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite" or "defra"
	// SQLitePath defaults to {home}/data/folio.db when empty.
	SQLitePath string      `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	Defra      DefraConfig `mapstructure:"defra" yaml:"defra"`
}

// DefraConfig holds DefraDB container configuration.
type DefraConfig struct {
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Image         string `mapstructure:"image" yaml:"image"`
	Port          string `mapstructure:"port" yaml:"port"`
}

type AutosaveConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type SearchConfig struct {
	TitleLimit     int           `mapstructure:"title_limit" yaml:"title_limit"`
	SnippetRadius  int           `mapstructure:"snippet_radius" yaml:"snippet_radius"`
	FuzzyThreshold float64       `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	MinMatchLength int           `mapstructure:"min_match_length" yaml:"min_match_length"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// RedisURL switches the page cache to Redis when set.
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
}

type UploadsConfig struct {
	MaxBytes    int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
	MaxWidth    int   `mapstructure:"max_width" yaml:"max_width"`
	JPEGQuality int   `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	// MaxPixels bounds width*height read from the image header before decoding.
	MaxPixels int64 `mapstructure:"max_pixels" yaml:"max_pixels"`
}

// AuthConfig controls who may write. Reads are always public.
type AuthConfig struct {
	// UserHeader is set by a trusted proxy to the caller's user id.
	UserHeader string `mapstructure:"user_header" yaml:"user_header"`
	// Required rejects anonymous writes with 401.
	Required bool `mapstructure:"required" yaml:"required"`
	// Editors, when non-empty, limits writes to these users.
	Editors []string      `mapstructure:"editors" yaml:"editors"`
	Tokens  []TokenConfig `mapstructure:"tokens" yaml:"tokens"`
}

// TokenConfig maps a bcrypt-hashed bearer token to a user.
type TokenConfig struct {
	User string `mapstructure:"user" yaml:"user"`
	Hash string `mapstructure:"hash" yaml:"hash"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: "8080"},
		Storage: StorageConfig{
			Driver: "sqlite",
			Defra: DefraConfig{
				ContainerName: "folio-defra",
				Image:         "sourcenetwork/defradb:latest",
				Port:          "9181",
			},
		},
		Autosave: AutosaveConfig{Debounce: 2 * time.Second, Timeout: 10 * time.Second},
		Search: SearchConfig{
			TitleLimit:     10,
			SnippetRadius:  50,
			FuzzyThreshold: 0.3,
			MinMatchLength: 2,
			Timeout:        5 * time.Second,
		},
		Cache:   CacheConfig{TTL: 300000 * time.Millisecond},
		Uploads: UploadsConfig{MaxBytes: 10 << 20, MaxWidth: 1600, JPEGQuality: 85, MaxPixels: 40_000_000},
		Auth:    AuthConfig{UserHeader: "X-User-ID", Editors: []string{}, Tokens: []TokenConfig{}},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "defra":
	default:
		return fmt.Errorf("storage.driver must be sqlite or defra, got %q", c.Storage.Driver)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 1 {
		return fmt.Errorf("search.fuzzy_threshold must be between 0 and 1, got %v", c.Search.FuzzyThreshold)
	}
	if c.Uploads.JPEGQuality < 1 || c.Uploads.JPEGQuality > 100 {
		return fmt.Errorf("uploads.jpeg_quality must be between 1 and 100, got %d", c.Uploads.JPEGQuality)
	}
	for i, tok := range c.Auth.Tokens {
		if tok.User == "" || tok.Hash == "" {
			return fmt.Errorf("auth.tokens[%d] needs user and hash", i)
		}
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
