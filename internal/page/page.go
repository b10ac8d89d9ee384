// Package page implements the page lifecycle: creation, editing, publishing,
// soft deletion and restore, on top of a pluggable Store.
package page

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jackzampolin/folio/internal/document"
)

// Page is a wiki page.
type Page struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Title     string         `json:"title"`
	Content   *document.Node `json:"content"`
	Excerpt   string         `json:"excerpt"`
	Tags      []string       `json:"tags"`
	Image     string         `json:"image,omitempty"`
	Published bool           `json:"published"`
	IsDeleted bool           `json:"isDeleted"`
	AuthorID  string         `json:"authorId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// State is derived from the published and deleted flags.
type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
	StateDeleted   State = "deleted"
)

func (p *Page) State() State {
	switch {
	case p.IsDeleted:
		return StateDeleted
	case p.Published:
		return StatePublished
	default:
		return StateDraft
	}
}

// Visible reports whether the page appears in listings, search and the sitemap.
func (p *Page) Visible() bool {
	return p.Published && !p.IsDeleted
}

// CreateInput describes a new page.
type CreateInput struct {
	Title     string         `json:"title"`
	AuthorID  string         `json:"authorId,omitempty"`
	Content   *document.Node `json:"content,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Image     string         `json:"image,omitempty"`
	Published bool           `json:"published,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title     *string        `json:"title,omitempty"`
	Content   *document.Node `json:"content,omitempty"`
	Tags      *[]string      `json:"tags,omitempty"`
	Published *bool          `json:"published,omitempty"`
	Image     *string        `json:"image,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil && p.Published == nil && p.Image == nil
}

// ListOptions filters List.
type ListOptions struct {
	// Published restricts the listing to one publish state when set.
	Published      *bool
	IncludeDeleted bool
	Limit          int
}

// Counts summarizes the stored pages.
type Counts struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Deleted   int `json:"deleted"`
}

// Store persists pages. Lookups by slug and id include deleted pages.
// Implementations return ErrNotFound for missing rows and ErrConflict for
// slug uniqueness violations.
type Store interface {
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	GetByID(ctx context.Context, id string) (*Page, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Insert(ctx context.Context, p *Page) error
	Save(ctx context.Context, p *Page) error
	List(ctx context.Context, opts ListOptions) ([]*Page, error)
	// SearchTitles matches q as a case-insensitive substring of non-deleted titles.
	SearchTitles(ctx context.Context, q string, limit int) ([]*Page, error)
	Count(ctx context.Context) (Counts, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives a URL-safe slug from a title. An empty result becomes "untitled".
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// NormalizeTags trims tags and drops empty and duplicate values, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
