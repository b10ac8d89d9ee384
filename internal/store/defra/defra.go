// Package defra stores pages in a DefraDB node.
package defra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	defradb "github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/schema"
)

const collection = "Page"

// Times are stored as fixed-width UTC strings so they sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

var fields = []string{
	"_docID", "pageId", "slug", "title", "content", "excerpt", "tags", "image",
	"published", "isDeleted", "authorId", "createdAt", "updatedAt",
}

// Config configures Open.
type Config struct {
	URL string
	// Attempts bounds the startup health check; one attempt per second.
	Attempts uint
	Logger   *slog.Logger
}

// Store is a page.Store backed by DefraDB.
type Store struct {
	client *defradb.Client
	logger *slog.Logger
}

var _ page.Store = (*Store)(nil)

// Open waits for the node to answer health checks, applies the Page schema
// and returns a Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 30
	}
	client := defradb.NewClient(cfg.URL)

	err := retry.Do(
		func() error { return client.HealthCheck(ctx) },
		retry.Context(ctx),
		retry.Attempts(cfg.Attempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			cfg.Logger.Debug("waiting for defra", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("defra at %s not reachable: %w", cfg.URL, err)
	}
	if err := schema.Initialize(ctx, client, cfg.Logger); err != nil {
		return nil, err
	}

	cfg.Logger.Info("defra store opened", "url", cfg.URL)
	return New(client, cfg.Logger), nil
}

// New wraps a client without checking the node.
func New(client *defradb.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (*page.Page, error) {
	rec, err := s.one(ctx, defradb.NewQuery(collection).Filter("slug", slug).Fields(fields...))
	if err != nil {
		return nil, err
	}
	return rec.page()
}

func (s *Store) GetByID(ctx context.Context, id string) (*page.Page, error) {
	rec, err := s.one(ctx, defradb.NewQuery(collection).Filter("pageId", id).Fields(fields...))
	if err != nil {
		return nil, err
	}
	return rec.page()
}

func (s *Store) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	q := defradb.NewQuery(collection).Filter("slug", slug)
	if excludeID != "" {
		q.FilterNe("pageId", excludeID)
	}
	recs, err := s.find(ctx, q.Fields("_docID").Limit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return len(recs) > 0, nil
}

func (s *Store) Insert(ctx context.Context, p *page.Page) error {
	exists, err := s.SlugExists(ctx, p.Slug, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: slug %q is taken", page.ErrConflict, p.Slug)
	}

	input, err := toInput(p)
	if err != nil {
		return err
	}
	_, err = s.client.Create(ctx, collection, input)
	return mapError(err)
}

func (s *Store) Save(ctx context.Context, p *page.Page) error {
	rec, err := s.one(ctx, defradb.NewQuery(collection).Filter("pageId", p.ID).Fields("_docID", "pageId"))
	if err != nil {
		return err
	}
	input, err := toInput(p)
	if err != nil {
		return err
	}
	return mapError(s.client.Update(ctx, collection, rec.DocID, input))
}

func (s *Store) List(ctx context.Context, opts page.ListOptions) ([]*page.Page, error) {
	q := defradb.NewQuery(collection)
	if !opts.IncludeDeleted {
		q.Filter("isDeleted", false)
	}
	if opts.Published != nil {
		q.Filter("published", *opts.Published)
	}
	q.Fields(fields...).OrderBy("updatedAt", defradb.DESC).OrderBy("pageId", defradb.ASC)
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}
	return s.pages(ctx, q, nil)
}

// SearchTitles uses _ilike on the title. DefraDB patterns have no escape
// character, so % and _ in q become single-character wildcards and matches
// are re-checked as plain substrings. Such queries are limited after the
// re-check.
func (s *Store) SearchTitles(ctx context.Context, q string, limit int) ([]*page.Page, error) {
	if limit <= 0 {
		limit = 10
	}
	needle := strings.ToLower(q)
	wild := strings.ContainsAny(q, "%_")
	pattern := strings.ReplaceAll(q, "%", "_")
	qb := defradb.NewQuery(collection).
		Filter("isDeleted", false).
		FilterILike("title", "%"+pattern+"%").
		Fields(fields...).
		OrderBy("updatedAt", defradb.DESC).
		OrderBy("pageId", defradb.ASC)
	if !wild {
		qb.Limit(limit)
	}
	out, err := s.pages(ctx, qb, func(r *record) bool {
		return strings.Contains(strings.ToLower(r.Title), needle)
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (page.Counts, error) {
	recs, err := s.find(ctx, defradb.NewQuery(collection).Fields("_docID", "published", "isDeleted"))
	if err != nil {
		return page.Counts{}, fmt.Errorf("failed to count pages: %w", err)
	}
	c := page.Counts{Total: len(recs)}
	for _, r := range recs {
		switch {
		case r.IsDeleted:
			c.Deleted++
		case r.Published:
			c.Published++
		}
	}
	return c, nil
}

func (s *Store) one(ctx context.Context, q *defradb.QueryBuilder) (*record, error) {
	recs, err := s.find(ctx, q.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, page.ErrNotFound
	}
	return &recs[0], nil
}

func (s *Store) find(ctx context.Context, q *defradb.QueryBuilder) ([]record, error) {
	resp, err := q.Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	var recs []record
	if err := resp.Decode(collection, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Store) pages(ctx context.Context, q *defradb.QueryBuilder, keep func(*record) bool) ([]*page.Page, error) {
	recs, err := s.find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	out := make([]*page.Page, 0, len(recs))
	for i := range recs {
		if keep != nil && !keep(&recs[i]) {
			continue
		}
		p, err := recs[i].page()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// record is a Page document as DefraDB returns it.
type record struct {
	DocID     string   `json:"_docID"`
	PageID    string   `json:"pageId"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt"`
	Tags      []string `json:"tags"`
	Image     string   `json:"image"`
	Published bool     `json:"published"`
	IsDeleted bool     `json:"isDeleted"`
	AuthorID  string   `json:"authorId"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func (r *record) page() (*page.Page, error) {
	p := &page.Page{
		ID:        r.PageID,
		Slug:      r.Slug,
		Title:     r.Title,
		Excerpt:   r.Excerpt,
		Tags:      r.Tags,
		Image:     r.Image,
		Published: r.Published,
		IsDeleted: r.IsDeleted,
		AuthorID:  r.AuthorID,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	var doc document.Node
	if err := json.Unmarshal([]byte(r.Content), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode content of page %s: %w", r.PageID, err)
	}
	p.Content = &doc

	var err error
	if p.CreatedAt, err = time.Parse(timeFormat, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse createdAt of page %s: %w", r.PageID, err)
	}
	if p.UpdatedAt, err = time.Parse(timeFormat, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updatedAt of page %s: %w", r.PageID, err)
	}
	return p, nil
}

func toInput(p *page.Page) (map[string]any, error) {
	content, err := document.Encode(p.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"pageId":    p.ID,
		"slug":      p.Slug,
		"title":     p.Title,
		"content":   string(content),
		"excerpt":   p.Excerpt,
		"tags":      tags,
		"image":     p.Image,
		"published": p.Published,
		"isDeleted": p.IsDeleted,
		"authorId":  p.AuthorID,
		"createdAt": p.CreatedAt.UTC().Format(timeFormat),
		"updatedAt": p.UpdatedAt.UTC().Format(timeFormat),
	}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var reqErr *defradb.RequestError
	if errors.As(err, &reqErr) && strings.Contains(reqErr.Message, "unique index") {
		return fmt.Errorf("%w: %v", page.ErrConflict, err)
	}
	if errors.Is(err, defradb.ErrEmptyResult) {
		return page.ErrNotFound
	}
	return fmt.Errorf("failed to write page: %w", err)
}
