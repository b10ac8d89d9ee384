package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/page"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "folio.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newPage(id, slug, title string, published bool, at time.Time) *page.Page {
	return &page.Page{
		ID:        id,
		Slug:      slug,
		Title:     title,
		Content:   document.Seed(title),
		Excerpt:   title,
		Tags:      []string{"go"},
		Published: published,
		AuthorID:  "alice",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC)

	want := newPage("id-1", "hello", "Hello", false, at)
	if err := s.Insert(ctx, want); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := s.GetBySlug(ctx, "hello")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if got.ID != want.ID || got.Title != want.Title || got.AuthorID != "alice" {
		t.Errorf("GetBySlug() = %+v", got)
	}
	if !document.Equal(got.Content, want.Content) {
		t.Errorf("content round trip mismatch: %s", got.Content.Canonical())
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "go" {
		t.Errorf("Tags = %v", got.Tags)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, page.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_SlugConflict(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	now := time.Now()

	if err := s.Insert(ctx, newPage("a", "same", "Same", false, now)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	err := s.Insert(ctx, newPage("b", "same", "Same", false, now))
	if !errors.Is(err, page.ErrConflict) {
		t.Errorf("Insert(duplicate slug) error = %v, want ErrConflict", err)
	}

	exists, err := s.SlugExists(ctx, "same", "")
	if err != nil || !exists {
		t.Errorf("SlugExists() = %v, %v", exists, err)
	}
	exists, err = s.SlugExists(ctx, "same", "a")
	if err != nil || exists {
		t.Errorf("SlugExists(excluding owner) = %v, %v", exists, err)
	}
}

func TestStore_SaveMissing(t *testing.T) {
	s := openTest(t)
	err := s.Save(context.Background(), newPage("nope", "nope", "Nope", false, time.Now()))
	if !errors.Is(err, page.ErrNotFound) {
		t.Errorf("Save() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pages := []*page.Page{
		newPage("1", "go-basics", "Go Basics", true, base),
		newPage("2", "100-percent", "100% Go", true, base.Add(time.Hour)),
		newPage("3", "draft", "Draft about Go", false, base.Add(2*time.Hour)),
		newPage("4", "gone", "Gone Go", true, base.Add(3*time.Hour)),
		newPage("5", "ueber-uns", "Über uns", false, base.Add(4*time.Hour)),
	}
	pages[3].IsDeleted = true
	for _, p := range pages {
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert(%s) error = %v", p.ID, err)
		}
	}

	published := true
	got, err := s.List(ctx, page.ListOptions{Published: &published})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("List(published) ids = %v", ids(got))
	}

	all, err := s.List(ctx, page.ListOptions{IncludeDeleted: true, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("List(include deleted) = %d pages, want 5", len(all))
	}

	tests := []struct {
		q    string
		want []string
	}{
		{"go", []string{"3", "2", "1"}},
		{"GO BASICS", []string{"1"}},
		{"%", []string{"2"}},
		{"_", nil},
		{"gone", nil},
		{"über", []string{"5"}},
		{"ÜBER UNS", []string{"5"}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			got, err := s.SearchTitles(ctx, tt.q, 10)
			if err != nil {
				t.Fatalf("SearchTitles() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SearchTitles(%q) = %v, want %v", tt.q, ids(got), tt.want)
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("SearchTitles(%q)[%d] = %s, want %s", tt.q, i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	counts, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if counts != (page.Counts{Total: 4, Published: 2, Deleted: 1}) {
		t.Errorf("Count() = %+v", counts)
	}
}

func ids(pages []*page.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.ID
	}
	return out
}
