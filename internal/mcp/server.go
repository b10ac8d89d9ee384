// Package mcp exposes a running folio server to MCP clients. Tools call the
// HTTP API through api.Client; fuzzy search runs locally over a cached copy
// of the published pages.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/cache"
	"github.com/jackzampolin/folio/internal/clock"
	"github.com/jackzampolin/folio/internal/page"
	"github.com/jackzampolin/folio/internal/search"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/toc"
	"github.com/jackzampolin/folio/version"
)

// DocumentsTTL is how long the published page set used by fuzzy_search is
// reused before it is fetched again.
const DocumentsTTL = 300000 * time.Millisecond

// DefaultEndpoint is the path of the streamable HTTP transport.
const DefaultEndpoint = "/mcp"

// Config configures a Server.
type Config struct {
	Client   *api.Client
	Fuzzy    search.FuzzyOptions
	CacheTTL time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Server holds the MCP tool set.
type Server struct {
	mcp    *server.MCPServer
	client *api.Client
	docs   *cache.Cache[[]*page.Page]
	fuzzy  search.FuzzyOptions
	logger *slog.Logger
}

// SearchRequest is the input of search_pages and fuzzy_search.
type SearchRequest struct {
	Query string `json:"query"`
}

// GetPageRequest is the input of get_page.
type GetPageRequest struct {
	Slug string `json:"slug"`
}

// GetPageResponse is a page with its markdown export and outline.
type GetPageResponse struct {
	Page     *page.Page `json:"page"`
	Markdown string     `json:"markdown"`
	TOC      []toc.Item `json:"toc"`
}

// ListPagesRequest is the input of list_pages.
type ListPagesRequest struct {
	Published *bool `json:"published,omitempty"`
	Limit     int   `json:"limit,omitempty"`
}

// FuzzySearchResponse holds fuzzy_search hits.
type FuzzySearchResponse struct {
	Query string            `json:"query"`
	Hits  []search.FuzzyHit `json:"hits"`
	Count int               `json:"count"`
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DocumentsTTL
	}

	s := &Server{
		client: cfg.Client,
		docs: cache.New[[]*page.Page](cache.Config{
			Key:    "folio:mcp:documents",
			TTL:    cfg.CacheTTL,
			Clock:  cfg.Clock,
			Logger: cfg.Logger.With("component", "mcp-cache"),
		}),
		fuzzy:  cfg.Fuzzy,
		logger: cfg.Logger,
	}

	s.mcp = server.NewMCPServer(
		"Folio",
		version.GitRelease,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Search pages by title, tags, excerpt and published content. Returns ranked results with highlighted matches."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
	), mcp.NewTypedToolHandler(s.searchPages))

	s.mcp.AddTool(mcp.NewTool("fuzzy_search",
		mcp.WithDescription("Typo-tolerant search over published pages. Returns matches with a context snippet."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for; small misspellings still match"),
		),
	), mcp.NewTypedToolHandler(s.fuzzySearch))

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get a page as markdown together with its table of contents"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The page slug, e.g. 'getting-started'"),
		),
	), mcp.NewTypedToolHandler(s.getPage))

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List pages, newest first"),
		mcp.WithBoolean("published",
			mcp.Description("Only published pages (true) or only drafts (false)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of pages"),
		),
	), mcp.NewTypedToolHandler(s.listPages))

	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves the tools over stdin and stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPServer returns a streamable HTTP transport mounted at endpoint.
func (s *Server) HTTPServer(endpoint string) *server.StreamableHTTPServer {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(endpoint))
}

func (s *Server) searchPages(ctx context.Context, _ mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
	if args.Query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	var resp endpoints.SearchResponse
	if err := s.client.Get(ctx, "/api/search?q="+url.QueryEscape(args.Query), &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(resp)
}

func (s *Server) fuzzySearch(ctx context.Context, _ mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
	if args.Query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	pages, err := s.documents(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load pages: %v", err)), nil
	}
	hits := search.NewFuzzyIndex(pages, s.fuzzy).Search(args.Query)
	if hits == nil {
		hits = []search.FuzzyHit{}
	}
	return jsonResult(FuzzySearchResponse{Query: args.Query, Hits: hits, Count: len(hits)})
}

// documents returns the published pages, fetching them when the cached copy
// is missing or stale.
func (s *Server) documents(ctx context.Context) ([]*page.Page, error) {
	return s.docs.GetOrLoad(ctx, func(ctx context.Context) ([]*page.Page, error) {
		var resp endpoints.ListPagesResponse
		if err := s.client.Get(ctx, "/api/pages?published=true", &resp); err != nil {
			return nil, err
		}
		s.logger.Debug("fetched published pages", "count", resp.Count)
		return resp.Pages, nil
	})
}

// Refresh drops the cached page set.
func (s *Server) Refresh(ctx context.Context) error {
	return s.docs.Invalidate(ctx)
}

func (s *Server) getPage(ctx context.Context, _ mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
	if args.Slug == "" {
		return mcp.NewToolResultError("slug is required"), nil
	}
	base := "/api/pages/" + url.PathEscape(args.Slug)

	var resp GetPageResponse
	if err := s.client.Get(ctx, base, &resp.Page); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get page %q: %v", args.Slug, err)), nil
	}
	md, err := s.client.GetRaw(ctx, base+"/export?format=markdown")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to export page %q: %v", args.Slug, err)), nil
	}
	resp.Markdown = string(md)
	if err := s.client.Get(ctx, base+"/toc", &resp.TOC); err != nil {
		s.logger.Warn("toc unavailable", "slug", args.Slug, "error", err)
	}
	if resp.TOC == nil {
		resp.TOC = []toc.Item{}
	}
	return jsonResult(resp)
}

func (s *Server) listPages(ctx context.Context, _ mcp.CallToolRequest, args ListPagesRequest) (*mcp.CallToolResult, error) {
	if args.Limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}
	q := url.Values{}
	if args.Published != nil {
		q.Set("published", strconv.FormatBool(*args.Published))
	}
	if args.Limit > 0 {
		q.Set("limit", strconv.Itoa(args.Limit))
	}
	path := "/api/pages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp endpoints.ListPagesResponse
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list pages: %v", err)), nil
	}
	return jsonResult(resp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
