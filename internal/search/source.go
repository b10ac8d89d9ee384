package search

import (
	"context"

	"github.com/jackzampolin/folio/internal/cache"
	"github.com/jackzampolin/folio/internal/page"
)

// CachedSource serves the published listing from a cache and passes title
// searches through.
type CachedSource struct {
	Source
	cache *cache.Cache[[]*page.Page]
}

// NewCachedSource wraps src. Callers invalidate c when pages change.
func NewCachedSource(src Source, c *cache.Cache[[]*page.Page]) *CachedSource {
	return &CachedSource{Source: src, cache: c}
}

func (s *CachedSource) ListPublished(ctx context.Context) ([]*page.Page, error) {
	return s.cache.GetOrLoad(ctx, s.Source.ListPublished)
}
