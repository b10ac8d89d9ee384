// Package cache holds time-bounded snapshots of expensive reads, such as
// the list of published pages used by search.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jackzampolin/folio/internal/clock"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = 5 * time.Minute

// Backend stores encoded snapshots by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Config configures a Cache.
type Config struct {
	Key     string
	TTL     time.Duration
	Clock   clock.Clock
	Backend Backend
	Logger  *slog.Logger
}

type envelope[T any] struct {
	StoredAt time.Time `json:"stored_at"`
	Data     T         `json:"data"`
}

// Cache is a single TTL-bounded value of type T.
type Cache[T any] struct {
	key     string
	ttl     time.Duration
	clock   clock.Clock
	backend Backend
	logger  *slog.Logger
	group   singleflight.Group
	// gen counts invalidations. A load only stores its result if no
	// invalidation happened while it ran. mu orders that store against
	// Invalidate.
	gen atomic.Uint64
	mu  sync.Mutex
}

// New creates a cache. Without a backend values are kept in memory.
func New[T any](cfg Config) *Cache[T] {
	if cfg.Key == "" {
		cfg.Key = "default"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Backend == nil {
		cfg.Backend = NewMemoryBackend()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cache[T]{
		key:     cfg.Key,
		ttl:     cfg.TTL,
		clock:   cfg.Clock,
		backend: cfg.Backend,
		logger:  cfg.Logger,
	}
}

// Get returns the cached value and whether it is fresh. An expired entry
// is still returned, with false, so callers can serve it while reloading.
// Backend failures are logged and reported as a miss.
func (c *Cache[T]) Get(ctx context.Context) (T, bool) {
	var zero T
	raw, ok, err := c.backend.Get(ctx, c.key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", c.key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("cache entry corrupt", "key", c.key, "error", err)
		return zero, false
	}
	if c.clock.Now().Sub(env.StoredAt) >= c.ttl {
		return env.Data, false
	}
	return env.Data, true
}

// Set stores v with the current time.
func (c *Cache[T]) Set(ctx context.Context, v T) error {
	raw, err := json.Marshal(envelope[T]{StoredAt: c.clock.Now(), Data: v})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.backend.Set(ctx, c.key, raw, c.ttl); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", c.key, err)
	}
	return nil
}

// Invalidate drops the cached value. Loads already running when it is
// called do not store their result.
func (c *Cache[T]) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Add(1)
	c.group.Forget(c.key)
	if err := c.backend.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("failed to invalidate cache entry %s: %w", c.key, err)
	}
	return nil
}

// GetOrLoad returns the fresh cached value or calls load and caches its
// result. Concurrent misses share one load.
func (c *Cache[T]) GetOrLoad(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(ctx); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(c.key, func() (any, error) {
		gen := c.gen.Load()
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen.Load() != gen {
			c.logger.Debug("cache invalidated during load, not storing", "key", c.key)
			return v, nil
		}
		if err := c.Set(ctx, v); err != nil {
			c.logger.Warn("cache write failed", "key", c.key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// MemoryBackend keeps entries in process.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = val
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
