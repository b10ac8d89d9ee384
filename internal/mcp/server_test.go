package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/search"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/toc"
)

type fakeFolio struct {
	pages     []*page.Page
	listCalls atomic.Int32
	lastQuery atomic.Value
}

func (f *fakeFolio) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pages", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		f.lastQuery.Store(r.URL.RawQuery)
		writeJSON(w, endpoints.ListPagesResponse{Pages: f.pages, Count: len(f.pages)})
	})
	mux.HandleFunc("GET /api/pages/{slug}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range f.pages {
			if p.Slug == r.PathValue("slug") {
				writeJSON(w, p)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, endpoints.ErrorResponse{Error: "page not found"})
	})
	mux.HandleFunc("GET /api/pages/{slug}/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Getting Started\n\nInstall folio.\n"))
	})
	mux.HandleFunc("GET /api/pages/{slug}/toc", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []toc.Item{{ID: "getting-started", Value: "Getting Started", Depth: 1}})
	})
	mux.HandleFunc("GET /api/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		writeJSON(w, endpoints.SearchResponse{Query: q, Results: []search.Result{{Page: *f.pages[0], SearchScore: 10}}, Count: 1})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T, clk clock.Clock) (*Server, *fakeFolio) {
	t.Helper()
	fake := &fakeFolio{pages: []*page.Page{
		{ID: "1", Slug: "getting-started", Title: "Getting Started", Published: true, Content: document.Seed("Getting Started")},
		{ID: "2", Slug: "configuration", Title: "Configuration", Published: true, Content: document.Seed("Configuration")},
	}}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)
	s := NewServer(Config{Client: api.NewClient(ts.URL), Clock: clk})
	return s, fake
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if s.MCP() == nil {
		t.Fatal("MCP() returned nil")
	}
	if s.HTTPServer("") == nil {
		t.Fatal("HTTPServer() returned nil")
	}
}

func TestToolValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	tests := []struct {
		name string
		call func() (*mcp.CallToolResult, error)
	}{
		{"search_pages empty query", func() (*mcp.CallToolResult, error) { return s.searchPages(ctx, req, SearchRequest{}) }},
		{"fuzzy_search empty query", func() (*mcp.CallToolResult, error) { return s.fuzzySearch(ctx, req, SearchRequest{}) }},
		{"get_page empty slug", func() (*mcp.CallToolResult, error) { return s.getPage(ctx, req, GetPageRequest{}) }},
		{"get_page missing", func() (*mcp.CallToolResult, error) { return s.getPage(ctx, req, GetPageRequest{Slug: "nope"}) }},
		{"list_pages negative limit", func() (*mcp.CallToolResult, error) { return s.listPages(ctx, req, ListPagesRequest{Limit: -1}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if !res.IsError {
				t.Errorf("IsError = false, text %q", resultText(t, res))
			}
		})
	}
}

func TestSearchPages(t *testing.T) {
	s, _ := newTestServer(t, nil)
	res, err := s.searchPages(context.Background(), mcp.CallToolRequest{}, SearchRequest{Query: "getting started"})
	if err != nil {
		t.Fatal(err)
	}
	var resp endpoints.SearchResponse
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Query != "getting started" || resp.Count != 1 || resp.Results[0].Slug != "getting-started" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestFuzzySearch_UsesCachedPages(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s, fake := newTestServer(t, clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.fuzzySearch(ctx, mcp.CallToolRequest{}, SearchRequest{Query: "configuraton"})
		if err != nil {
			t.Fatal(err)
		}
		var resp FuzzySearchResponse
		if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Count == 0 || resp.Hits[0].Page.Slug != "configuration" {
			t.Fatalf("hits = %+v", resp.Hits)
		}
	}
	if n := fake.listCalls.Load(); n != 1 {
		t.Errorf("list calls = %d, want 1", n)
	}
	if q, _ := fake.lastQuery.Load().(string); q != "published=true" {
		t.Errorf("query = %q", q)
	}

	clk.Advance(DocumentsTTL)
	if _, err := s.fuzzySearch(ctx, mcp.CallToolRequest{}, SearchRequest{Query: "started"}); err != nil {
		t.Fatal(err)
	}
	if n := fake.listCalls.Load(); n != 2 {
		t.Errorf("list calls after expiry = %d, want 2", n)
	}

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.fuzzySearch(ctx, mcp.CallToolRequest{}, SearchRequest{Query: "started"}); err != nil {
		t.Fatal(err)
	}
	if n := fake.listCalls.Load(); n != 3 {
		t.Errorf("list calls after refresh = %d, want 3", n)
	}
}

func TestGetPage(t *testing.T) {
	s, _ := newTestServer(t, nil)
	res, err := s.getPage(context.Background(), mcp.CallToolRequest{}, GetPageRequest{Slug: "getting-started"})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("error result: %s", resultText(t, res))
	}
	var resp GetPageResponse
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Page == nil || resp.Page.Title != "Getting Started" {
		t.Errorf("page = %+v", resp.Page)
	}
	if !strings.HasPrefix(resp.Markdown, "# Getting Started") {
		t.Errorf("markdown = %q", resp.Markdown)
	}
	if len(resp.TOC) != 1 || resp.TOC[0].ID != "getting-started" {
		t.Errorf("toc = %+v", resp.TOC)
	}
}

func TestListPages(t *testing.T) {
	s, fake := newTestServer(t, nil)
	published := false
	res, err := s.listPages(context.Background(), mcp.CallToolRequest{}, ListPagesRequest{Published: &published, Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	var resp endpoints.ListPagesResponse
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d", resp.Count)
	}
	if q, _ := fake.lastQuery.Load().(string); q != "limit=5&published=false" {
		t.Errorf("query = %q", q)
	}
}
