package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/auth"
	"github.com/jackzampolin/folio/internal/cache"
	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/search"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	defrastore "github.com/jackzampolin/folio/internal/store/defra"
	"github.com/jackzampolin/folio/internal/store/sqlite"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/upload"
)

const (
	DriverSQLite = "sqlite"
	DriverDefra  = "defra"

	shutdownTimeout = 30 * time.Second
	publishedKey    = "folio:pages:published"
)

// Server is the main Folio HTTP server.
// With the defra driver it also manages the DefraDB container, starting it
// on server start and stopping it on shutdown.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager
	store        page.Store
	ownsStore    bool
	redis        *cache.RedisBackend
	configMgr    *config.Manager
	settings     *config.Config
	home         *home.Dir
	clock        clock.Clock
	guard        *auth.Guard
	uploads      *upload.Store
	logger       *slog.Logger
	logLevel     *slog.LevelVar

	// services holds all core services for context enrichment
	services atomic.Pointer[svcctx.Services]

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu       sync.RWMutex
	running  bool
	listener net.Listener
}

// Config holds server configuration.
type Config struct {
	// ConfigManager provides configuration with hot-reload support.
	ConfigManager *config.Manager
	// Settings overrides the ConfigManager's snapshot, e.g. with flag values.
	Settings *config.Config
	// Home is the folio home directory (database, uploads, defra data).
	Home *home.Dir
	// Store overrides the configured storage driver.
	Store page.Store
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Logger is the structured logger to use
	Logger *slog.Logger
	// LogLevel, when set, follows log.level on config reload.
	LogLevel *slog.LevelVar
	// SwaggerSpecPath serves swagger.json from disk instead of the built-in spec.
	SwaggerSpecPath string
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	settings := cfg.Settings
	if settings == nil && cfg.ConfigManager != nil {
		settings = cfg.ConfigManager.Get()
	}
	if settings == nil {
		settings = config.DefaultConfig()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}
	if err := cfg.Home.EnsureExists(); err != nil {
		return nil, err
	}

	uploads, err := upload.New(upload.Config{
		Dir:       cfg.Home.UploadsPath(),
		MaxWidth:  settings.Uploads.MaxWidth,
		Quality:   settings.Uploads.JPEGQuality,
		MaxBytes:  settings.Uploads.MaxBytes,
		MaxPixels: settings.Uploads.MaxPixels,
		Logger:    cfg.Logger.With("component", "uploads"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create upload store: %w", err)
	}

	s := &Server{
		store:     cfg.Store,
		configMgr: cfg.ConfigManager,
		settings:  settings,
		home:      cfg.Home,
		clock:     cfg.Clock,
		guard:     auth.NewGuard(auth.PolicyFrom(settings.Auth)),
		uploads:   uploads,
		logger:    cfg.Logger,
		logLevel:  cfg.LogLevel,
	}

	if cfg.Store == nil && settings.Storage.Driver == DriverDefra {
		s.defraManager, err = defra.NewDockerManager(defra.DockerConfig{
			ContainerName: settings.Storage.Defra.ContainerName,
			Image:         settings.Storage.Defra.Image,
			DataPath:      cfg.Home.DefraDataPath(),
			HostPort:      settings.Storage.Defra.Port,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create defra manager: %w", err)
		}
	}

	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(s.applyConfig)
	}

	// Services available before the store is open.
	s.services.Store(s.baseServices())

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	s.endpointRegistry.Register(endpoints.All(endpoints.Config{
		DefraManager:    s.defraManager,
		SwaggerSpecPath: cfg.SwaggerSpecPath,
		PublicURL:       settings.Server.PublicURL,
	})...)

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(settings.Server.Host, settings.Server.Port),
		Handler:      s.middleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) baseServices() *svcctx.Services {
	return &svcctx.Services{
		Uploads: s.uploads,
		Auth:    s.guard,
		Config:  s.configMgr,
		Logger:  s.logger,
		Home:    s.home,
		Driver:  s.driver(),
	}
}

func (s *Server) driver() string {
	return s.settings.Storage.Driver
}

// Start opens the page store and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.openStore(ctx); err != nil {
		_ = s.shutdown()
		return err
	}
	if err := s.initServices(ctx); err != nil {
		_ = s.shutdown()
		return err
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		_ = s.shutdown()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String(), "driver", s.driver())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// openStore opens the configured page store. Connecting is the only
// operation retried automatically.
func (s *Server) openStore(ctx context.Context) error {
	if s.store != nil {
		return nil
	}

	switch s.settings.Storage.Driver {
	case DriverDefra:
		s.logger.Info("starting DefraDB")
		if err := s.defraManager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start DefraDB: %w", err)
		}
		st, err := defrastore.Open(ctx, defrastore.Config{
			URL:    s.defraManager.URL(),
			Logger: s.logger.With("component", "store"),
		})
		if err != nil {
			return fmt.Errorf("failed to open defra store: %w", err)
		}
		s.logger.Info("DefraDB is ready", "url", s.defraManager.URL())
		s.store = st
	default:
		path := s.settings.Storage.SQLitePath
		if path == "" {
			path = s.home.DatabasePath()
		}
		st, err := sqlite.Open(ctx, path, s.logger.With("component", "store"))
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		s.logger.Info("sqlite store opened", "path", path)
		s.store = st
	}
	s.ownsStore = true
	return nil
}

// initServices builds the page service, the published-page cache and the
// search engine on top of the open store.
func (s *Server) initServices(ctx context.Context) error {
	var backend cache.Backend
	if url := s.settings.Cache.RedisURL; url != "" {
		rb, err := cache.NewRedisBackend(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redis = rb
		backend = rb
		s.logger.Info("page cache backed by redis")
	}

	published := cache.New[[]*page.Page](cache.Config{
		Key:     publishedKey,
		TTL:     s.settings.Cache.TTL,
		Clock:   s.clock,
		Backend: backend,
		Logger:  s.logger.With("component", "cache"),
	})

	pages := page.NewService(page.Config{
		Store:  s.store,
		Clock:  s.clock,
		Logger: s.logger.With("component", "pages"),
	})
	pages.OnChange(func(ctx context.Context, p *page.Page) {
		if err := published.Invalidate(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to invalidate page cache", "slug", p.Slug, "error", err)
		}
	})

	engine := search.NewEngine(search.Config{
		Source:     search.NewCachedSource(pages, published),
		TitleLimit: s.settings.Search.TitleLimit,
		MinLength:  s.settings.Search.MinMatchLength,
		Timeout:    s.settings.Search.Timeout,
		Logger:     s.logger.With("component", "search"),
	})

	svc := s.baseServices()
	svc.Pages = pages
	svc.Search = engine
	s.services.Store(svc)
	return nil
}

// applyConfig applies hot-reloadable settings.
func (s *Server) applyConfig(c *config.Config) {
	if s.logLevel != nil {
		if lvl, err := c.Log.SlogLevel(); err == nil {
			s.logLevel.Set(lvl)
		}
	}
	s.guard.Update(auth.PolicyFrom(c.Auth))
	s.logger.Info("configuration reloaded", "log_level", c.Log.Level, "auth_required", c.Auth.Required)
}

// shutdown performs graceful shutdown of the HTTP server and the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.services.Store(s.baseServices())

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
		s.redis = nil
	}

	if s.store != nil && s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
		s.store = nil
		s.ownsStore = false
	}

	if s.defraManager != nil {
		s.logger.Info("stopping DefraDB")
		if err := s.defraManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("DefraDB stop error", "error", err)
		}
		if err := s.defraManager.Close(); err != nil {
			s.logger.Error("DefraDB manager close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.listener = nil
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the address the server listens on. Once serving, a ":0"
// port is resolved to the bound port.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Pages returns the page service, or nil before Start has opened the store.
func (s *Server) Pages() *page.Service {
	return s.services.Load().Pages
}

// Handler returns the server's full HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the endpoint registry.
func (s *Server) Registry() *api.Registry {
	return s.endpointRegistry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc := s.services.Load(); svc != nil {
			ctx = svcctx.WithServices(ctx, svc)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the page store is open.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc := s.services.Load(); svc == nil || svc.Pages == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
