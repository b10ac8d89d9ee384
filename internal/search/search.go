// Package search finds pages by title, tags and content.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/page"
)

const (
	DefaultTitleLimit = 10
	DefaultMinLength  = 2
	DefaultTimeout    = 5 * time.Second
)

// Points awarded per matching field.
const (
	scoreTitle   = 10
	scoreTag     = 8
	scoreExcerpt = 5
	scoreContent = 3
)

// Source supplies candidate pages.
type Source interface {
	SearchTitles(ctx context.Context, q string, limit int) ([]*page.Page, error)
	ListPublished(ctx context.Context) ([]*page.Page, error)
}

// Result is a scored page with highlighted title and excerpt.
type Result struct {
	page.Page
	SearchScore        int    `json:"searchScore"`
	HighlightedTitle   string `json:"highlightedTitle"`
	HighlightedExcerpt string `json:"highlightedExcerpt"`
}

// Config configures an Engine.
type Config struct {
	Source     Source
	TitleLimit int
	MinLength  int
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Engine runs server-side searches.
type Engine struct {
	source     Source
	titleLimit int
	minLength  int
	timeout    time.Duration
	logger     *slog.Logger
}

// NewEngine creates a search engine.
func NewEngine(cfg Config) *Engine {
	if cfg.TitleLimit <= 0 {
		cfg.TitleLimit = DefaultTitleLimit
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		source:     cfg.Source,
		titleLimit: cfg.TitleLimit,
		minLength:  cfg.MinLength,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
}

// Search returns pages matching q, best first. Queries shorter than the
// minimum length return nothing. A failing source contributes no results.
func (e *Engine) Search(ctx context.Context, q string) []Result {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < e.minLength {
		return []Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var titleHits, contentHits []*page.Page
	var g errgroup.Group
	g.Go(func() error {
		pages, err := e.source.SearchTitles(ctx, q, e.titleLimit)
		if err != nil {
			e.logger.Warn("title search failed", "query", q, "error", err)
			return nil
		}
		titleHits = pages
		return nil
	})
	g.Go(func() error {
		pages, err := e.source.ListPublished(ctx)
		if err != nil {
			e.logger.Warn("published listing failed", "query", q, "error", err)
			return nil
		}
		for _, p := range pages {
			if containsFold(document.ExtractAndCleanText(p.Content), q) {
				contentHits = append(contentHits, p)
			}
		}
		return nil
	})
	_ = g.Wait()

	seen := make(map[string]bool)
	results := []Result{}
	for _, p := range append(titleHits, contentHits...) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		results = append(results, Result{
			Page:               *p,
			SearchScore:        Score(p, q),
			HighlightedTitle:   Highlight(p.Title, q),
			HighlightedExcerpt: Highlight(p.Excerpt, q),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SearchScore > results[j].SearchScore
	})
	return results
}

// Score adds 10 for a title match, 8 for any tag match, 5 for an excerpt
// match and 3 for a content match. Matching ignores case.
func Score(p *page.Page, q string) int {
	score := 0
	if containsFold(p.Title, q) {
		score += scoreTitle
	}
	for _, tag := range p.Tags {
		if containsFold(tag, q) {
			score += scoreTag
			break
		}
	}
	if containsFold(p.Excerpt, q) {
		score += scoreExcerpt
	}
	if containsFold(document.ExtractAndCleanText(p.Content), q) {
		score += scoreContent
	}
	return score
}

// Highlight HTML-escapes s and wraps every case-insensitive occurrence of q
// in <mark>.
func Highlight(s, q string) string {
	runes := []rune(s)
	needle := lowerRunes(q)
	if len(needle) == 0 {
		return html.EscapeString(s)
	}

	var sb strings.Builder
	last := 0
	for i := 0; i+len(needle) <= len(runes); {
		if matchAt(runes, needle, i) {
			sb.WriteString(html.EscapeString(string(runes[last:i])))
			sb.WriteString("<mark>")
			sb.WriteString(html.EscapeString(string(runes[i : i+len(needle)])))
			sb.WriteString("</mark>")
			i += len(needle)
			last = i
			continue
		}
		i++
	}
	sb.WriteString(html.EscapeString(string(runes[last:])))
	return sb.String()
}

func containsFold(s, q string) bool {
	return indexFold([]rune(s), lowerRunes(q)) >= 0
}

// indexFold returns the rune index of the first case-insensitive match of
// needle, which must already be lowercased.
func indexFold(runes, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(runes); i++ {
		if matchAt(runes, needle, i) {
			return i
		}
	}
	return -1
}

func matchAt(runes, needle []rune, i int) bool {
	for j, r := range needle {
		if unicode.ToLower(runes[i+j]) != r {
			return false
		}
	}
	return true
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
