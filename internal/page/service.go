package page

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/document"
)

// maxSlugSuffix is the last numeric suffix tried before falling back to a
// random one.
const maxSlugSuffix = 99

// ChangeFunc is called after every successful write.
type ChangeFunc func(ctx context.Context, p *Page)

// Config configures a Service.
type Config struct {
	Store  Store
	Clock  clock.Clock
	Logger *slog.Logger
}

// Service is the persistence boundary used by the HTTP layer.
type Service struct {
	store    Store
	clock    clock.Clock
	logger   *slog.Logger
	onChange []ChangeFunc
}

// NewService creates a page service.
func NewService(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{store: cfg.Store, clock: cfg.Clock, logger: cfg.Logger}
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// OnChange registers a callback run after every write.
func (s *Service) OnChange(fn ChangeFunc) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed(ctx context.Context, p *Page) {
	for _, fn := range s.onChange {
		fn(ctx, p)
	}
}

// Get returns the non-deleted page with slug.
func (s *Service) Get(ctx context.Context, slug string) (*Page, error) {
	p, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, persistence("get page", err)
	}
	if p.IsDeleted {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create stores a new unpublished draft unless in.Published is set. Without
// content the page is seeded with a heading holding its title.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Page, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Invalid("title", "is required")
	}
	content := in.Content
	if content == nil {
		content = document.Seed(title)
	}
	if err := checkContent(content); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, Slugify(title), "")
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	p := &Page{
		ID:        uuid.New().String(),
		Slug:      slug,
		Title:     title,
		Content:   content,
		Excerpt:   document.Excerpt(content, document.ExcerptLength),
		Tags:      NormalizeTags(in.Tags),
		Image:     strings.TrimSpace(in.Image),
		Published: in.Published,
		AuthorID:  in.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, persistence("create page", err)
	}

	s.logger.Info("page created", "id", p.ID, "slug", p.Slug, "author", p.AuthorID)
	s.changed(ctx, p)
	return p, nil
}

// Update applies patch to the page with id. A new title regenerates the slug
// and new content recomputes the excerpt.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Page, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get page", err)
	}
	return s.apply(ctx, p, patch)
}

// UpdateBySlug applies patch to the non-deleted page with slug.
func (s *Service) UpdateBySlug(ctx context.Context, slug string, patch Patch) (*Page, error) {
	p, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p, patch)
}

func (s *Service) apply(ctx context.Context, p *Page, patch Patch) (*Page, error) {
	if p.IsDeleted {
		return nil, ErrNotFound
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, Invalid("title", "must not be empty")
		}
		if title != p.Title {
			slug, err := s.uniqueSlug(ctx, Slugify(title), p.ID)
			if err != nil {
				return nil, err
			}
			p.Title = title
			p.Slug = slug
		}
	}
	if patch.Content != nil {
		if err := checkContent(patch.Content); err != nil {
			return nil, err
		}
		p.Content = patch.Content
		p.Excerpt = document.Excerpt(patch.Content, document.ExcerptLength)
	}
	if patch.Tags != nil {
		p.Tags = NormalizeTags(*patch.Tags)
	}
	if patch.Published != nil {
		p.Published = *patch.Published
	}
	if patch.Image != nil {
		p.Image = strings.TrimSpace(*patch.Image)
	}

	return s.save(ctx, p, "update page")
}

// SetPublished publishes or unpublishes the page with slug. Deleted pages
// can be flipped too; they stay hidden until restored.
func (s *Service) SetPublished(ctx context.Context, slug string, published bool) (*Page, error) {
	p, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, persistence("get page", err)
	}
	p.Published = published
	op := "publish page"
	if !published {
		op = "unpublish page"
	}
	return s.save(ctx, p, op)
}

// SoftDelete marks the page with id deleted. The row is kept.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return persistence("get page", err)
	}
	if p.IsDeleted {
		return ErrNotFound
	}
	p.IsDeleted = true
	_, err = s.save(ctx, p, "delete page")
	return err
}

// DeleteBySlug soft-deletes the non-deleted page with slug.
func (s *Service) DeleteBySlug(ctx context.Context, slug string) error {
	p, err := s.Get(ctx, slug)
	if err != nil {
		return err
	}
	return s.SoftDelete(ctx, p.ID)
}

// Restore clears the deleted flag of the page with slug. The published flag
// is kept. Restoring a live page is a no-op.
func (s *Service) Restore(ctx context.Context, slug string) (*Page, error) {
	p, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, persistence("get page", err)
	}
	if !p.IsDeleted {
		return p, nil
	}
	p.IsDeleted = false
	return s.save(ctx, p, "restore page")
}

// ListPublished returns published, non-deleted pages, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]*Page, error) {
	published := true
	return s.List(ctx, ListOptions{Published: &published})
}

// List returns pages matching opts, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Page, error) {
	pages, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, persistence("list pages", err)
	}
	return pages, nil
}

// SearchTitles returns up to limit non-deleted pages whose title contains q.
func (s *Service) SearchTitles(ctx context.Context, q string, limit int) ([]*Page, error) {
	pages, err := s.store.SearchTitles(ctx, q, limit)
	if err != nil {
		return nil, persistence("search titles", err)
	}
	return pages, nil
}

// Counts summarizes stored pages.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	c, err := s.store.Count(ctx)
	if err != nil {
		return Counts{}, persistence("count pages", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, p *Page, op string) (*Page, error) {
	p.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, persistence(op, err)
	}
	s.logger.Info(op, "id", p.ID, "slug", p.Slug, "state", p.State())
	s.changed(ctx, p)
	return p, nil
}

// uniqueSlug returns base, or base with the first free suffix. Deleted pages
// keep their slugs reserved so they can be restored.
func (s *Service) uniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	for i := 1; i <= maxSlugSuffix; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		exists, err := s.store.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", persistence("check slug", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return base + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8], nil
}

func checkContent(n *document.Node) error {
	if n.Type != document.TypeDoc {
		return Invalid("content", "root node must be %q, got %q", document.TypeDoc, n.Type)
	}
	data, err := document.Encode(n)
	if err != nil {
		return Invalid("content", "%v", err)
	}
	if err := document.Validate(data); err != nil {
		return Invalid("content", "%v", err)
	}
	return nil
}
