package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/page"
)

const (
	DefaultThreshold     = 0.3
	DefaultSnippetRadius = 50

	titleWeight   = 0.7
	contentWeight = 0.4
)

// FuzzyOptions tunes a FuzzyIndex.
type FuzzyOptions struct {
	// Threshold is the largest normalized edit distance that still matches.
	Threshold      float64
	MinMatchLength int
	SnippetRadius  int
}

// FuzzyHit is a page matched by a fuzzy search.
type FuzzyHit struct {
	Page      *page.Page `json:"page"`
	Relevance float64    `json:"relevance"`
	Snippet   string     `json:"snippet"`
}

type token struct {
	text       string
	start, end int // rune offsets into the source text
}

type fuzzyDoc struct {
	page    *page.Page
	title   []token
	content []token
	text    []rune
}

// FuzzyIndex is an in-memory typo-tolerant index over page titles and content.
type FuzzyIndex struct {
	opts FuzzyOptions
	docs []fuzzyDoc
}

// NewFuzzyIndex indexes pages.
func NewFuzzyIndex(pages []*page.Page, opts FuzzyOptions) *FuzzyIndex {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MinMatchLength <= 0 {
		opts.MinMatchLength = DefaultMinLength
	}
	if opts.SnippetRadius <= 0 {
		opts.SnippetRadius = DefaultSnippetRadius
	}

	ix := &FuzzyIndex{opts: opts, docs: make([]fuzzyDoc, 0, len(pages))}
	for _, p := range pages {
		text := []rune(document.ExtractAndCleanText(p.Content))
		ix.docs = append(ix.docs, fuzzyDoc{
			page:    p,
			title:   ix.tokenize([]rune(p.Title)),
			content: ix.tokenize(text),
			text:    text,
		})
	}
	return ix
}

// Len returns the number of indexed pages.
func (ix *FuzzyIndex) Len() int { return len(ix.docs) }

// Search returns matching pages by descending relevance.
func (ix *FuzzyIndex) Search(q string) []FuzzyHit {
	query := ix.tokenize([]rune(strings.TrimSpace(q)))
	if len(query) == 0 {
		return nil
	}

	hits := []FuzzyHit{}
	for _, d := range ix.docs {
		var relevance float64
		matched := false
		if score, ok := ix.fieldScore(query, d.title); ok {
			relevance += titleWeight * (1 - score)
			matched = true
		}
		if score, ok := ix.fieldScore(query, d.content); ok {
			relevance += contentWeight * (1 - score)
			matched = true
		}
		if !matched {
			continue
		}
		hits = append(hits, FuzzyHit{
			Page:      d.page,
			Relevance: relevance / (titleWeight + contentWeight),
			Snippet:   ix.snippet(query, d),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Relevance > hits[j].Relevance
	})
	return hits
}

// fieldScore is the mean of the best distance of each query token.
func (ix *FuzzyIndex) fieldScore(query, field []token) (float64, bool) {
	if len(field) == 0 {
		return 1, false
	}
	var total float64
	for _, q := range query {
		best := 1.0
		for _, f := range field {
			if d := distance(q.text, f.text); d < best {
				best = d
				if best == 0 {
					break
				}
			}
		}
		total += best
	}
	score := total / float64(len(query))
	return score, score <= ix.opts.Threshold
}

// snippet returns the text around the first content token that matches any
// query token.
func (ix *FuzzyIndex) snippet(query []token, d fuzzyDoc) string {
	start, end := 0, 0
	found := false
	for _, f := range d.content {
		for _, q := range query {
			if distance(q.text, f.text) <= ix.opts.Threshold {
				start, end, found = f.start, f.end, true
				break
			}
		}
		if found {
			break
		}
	}

	from := max(start-ix.opts.SnippetRadius, 0)
	to := min(end+ix.opts.SnippetRadius, len(d.text))
	if !found {
		from, to = 0, min(2*ix.opts.SnippetRadius, len(d.text))
	}

	s := strings.TrimSpace(string(d.text[from:to]))
	if from > 0 {
		s = "..." + s
	}
	if to < len(d.text) {
		s += "..."
	}
	return s
}

func (ix *FuzzyIndex) tokenize(text []rune) []token {
	var out []token
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if end-start >= ix.opts.MinMatchLength {
			out = append(out, token{text: strings.ToLower(string(text[start:end])), start: start, end: end})
		}
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return out
}

// distance is 0 when the field token contains the query token, otherwise
// the edit distance normalized by the longer token.
func distance(query, field string) float64 {
	if strings.Contains(field, query) {
		return 0
	}
	longest := max(len([]rune(query)), len([]rune(field)))
	return float64(levenshtein.ComputeDistance(query, field)) / float64(longest)
}
