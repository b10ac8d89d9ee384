// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/folio/internal/auth"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/search"
	"github.com/jackzampolin/folio/internal/upload"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Pages   *page.Service
	Search  *search.Engine
	Uploads *upload.Store
	Auth    *auth.Guard
	Config  *config.Manager
	Logger  *slog.Logger
	Home    *home.Dir
	// Driver names the page store backend.
	Driver string
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// PagesFrom extracts the page service from context.
func PagesFrom(ctx context.Context) *page.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pages
	}
	return nil
}

// SearchFrom extracts the search engine from context.
func SearchFrom(ctx context.Context) *search.Engine {
	if s := ServicesFrom(ctx); s != nil {
		return s.Search
	}
	return nil
}

// UploadsFrom extracts the upload store from context.
func UploadsFrom(ctx context.Context) *upload.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Uploads
	}
	return nil
}

// AuthFrom extracts the auth guard from context.
func AuthFrom(ctx context.Context) *auth.Guard {
	if s := ServicesFrom(ctx); s != nil {
		return s.Auth
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// DriverFrom returns the page store driver name, or "".
func DriverFrom(ctx context.Context) string {
	if s := ServicesFrom(ctx); s != nil {
		return s.Driver
	}
	return ""
}
