package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Autosave.Debounce != 2*time.Second || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("timing defaults = %v, %v", cfg.Autosave.Debounce, cfg.Cache.TTL)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Auth.UserHeader != "X-User-ID" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"threshold", func(c *Config) { c.Search.FuzzyThreshold = 1.5 }, "fuzzy_threshold"},
		{"quality", func(c *Config) { c.Uploads.JPEGQuality = 0 }, "jpeg_quality"},
		{"token", func(c *Config) { c.Auth.Tokens = []TokenConfig{{User: "ann"}} }, "auth.tokens[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, `
storage:
  driver: defra
  defra:
    port: "9999"
autosave:
  debounce: 500ms
auth:
  required: true
  editors: [ann, bob]
  tokens:
    - user: ann
      hash: $2a$10$abcdefghijklmnopqrstuv
`)
		cm, err := NewManager(path)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		cfg := cm.Get()
		if cfg.Storage.Driver != "defra" || cfg.Storage.Defra.Port != "9999" {
			t.Errorf("storage = %+v", cfg.Storage)
		}
		if cfg.Storage.Defra.Image != "sourcenetwork/defradb:latest" {
			t.Errorf("unset key lost its default: %q", cfg.Storage.Defra.Image)
		}
		if cfg.Autosave.Debounce != 500*time.Millisecond || cfg.Autosave.Timeout != 10*time.Second {
			t.Errorf("autosave = %+v", cfg.Autosave)
		}
		if !cfg.Auth.Required || len(cfg.Auth.Editors) != 2 || len(cfg.Auth.Tokens) != 1 || cfg.Auth.Tokens[0].User != "ann" {
			t.Errorf("auth = %+v", cfg.Auth)
		}
		if cm.ConfigFile() != path {
			t.Errorf("ConfigFile() = %q", cm.ConfigFile())
		}
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		cm, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if cm.Get().Server.Port != "8080" {
			t.Errorf("port = %q", cm.Get().Server.Port)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("FOLIO_LOG_LEVEL", "debug")
		t.Setenv("FOLIO_SEARCH_TITLE_LIMIT", "25")
		cm, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if cm.Get().Log.Level != "debug" || cm.Get().Search.TitleLimit != 25 {
			t.Errorf("env not applied: %+v %+v", cm.Get().Log, cm.Get().Search)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, "storage:\n  driver: mongo\n")
		if _, err := NewManager(path); err == nil {
			t.Error("NewManager() accepted an unknown driver")
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(data)
	for _, want := range []string{"# Folio configuration", "debounce: 2s", "ttl: 5m0s", "driver: sqlite"} {
		if !strings.Contains(text, want) {
			t.Errorf("default file missing %q", want)
		}
	}
	if strings.Index(text, "server:") > strings.Index(text, "log:") {
		t.Error("sections out of order")
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() on default file error = %v", err)
	}
	got, want := cm.Get(), DefaultConfig()
	if got.Autosave != want.Autosave || got.Search != want.Search || got.Cache != want.Cache || got.Uploads != want.Uploads {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestManager_WatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "log:\n  level: info\n")

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	changed := make(chan *Config, 4)
	cm.OnChange(func(c *Config) { changed <- c })
	cm.WatchConfig()

	writeFile(t, path, "log:\n  level: debug\n")

	select {
	case c := <-changed:
		if c.Log.Level != "debug" {
			t.Errorf("reloaded level = %q", c.Log.Level)
		}
		if cm.Get().Log.Level != "debug" {
			t.Errorf("Get() level = %q", cm.Get().Log.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the file changed")
	}
}
