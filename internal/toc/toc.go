// Package toc derives tables of contents from document trees and from
// markdown, and owns the heading anchor ids shared with the renderer.
package toc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackzampolin/folio/internal/document"
)

// Item is one heading in a table of contents.
type Item struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Depth int    `json:"depth"`
}

var (
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	markdownLine   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
)

// Slugify lowercases s, strips characters outside [a-z0-9\s-], trims, and
// collapses whitespace runs to "-".
func Slugify(s string) string {
	s = slugStrip.ReplaceAllString(strings.ToLower(s), "")
	return slugWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
}

// HeadingID is the anchor id for the heading with the given title at the
// given position in a traversal. The table of contents and the HTML renderer
// both use it.
func HeadingID(text string, position int) string {
	return fmt.Sprintf("heading-%s-%d", Slugify(text), position)
}

// headingTitle joins the text of a heading's direct children.
func headingTitle(n *document.Node) string {
	parts := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if c.IsText() && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

type heading struct {
	node *document.Node
	item Item
}

// headings walks doc depth-first and returns each heading that produces an
// entry. The position counter is local to the call.
func headings(doc *document.Node) []heading {
	var out []heading
	position := 0
	document.Walk(doc, func(n *document.Node) bool {
		if n.Type != document.TypeHeading || len(n.Content) == 0 {
			return true
		}
		level, ok := n.IntAttr("level")
		if !ok {
			return true
		}
		title := headingTitle(n)
		if title == "" {
			return true
		}
		out = append(out, heading{
			node: n,
			item: Item{ID: HeadingID(title, position), Value: title, Depth: level},
		})
		position++
		return true
	})
	return out
}

// FromContent builds the table of contents of a document tree.
func FromContent(doc *document.Node) []Item {
	hs := headings(doc)
	items := make([]Item, len(hs))
	for i, h := range hs {
		items[i] = h.item
	}
	return items
}

// Anchors maps each heading node in doc to the id FromContent assigns it.
func Anchors(doc *document.Node) map[*document.Node]string {
	hs := headings(doc)
	anchors := make(map[*document.Node]string, len(hs))
	for _, h := range hs {
		anchors[h.node] = h.item.ID
	}
	return anchors
}

// FromMarkdown builds the table of contents of markdown text from its ATX
// heading lines.
func FromMarkdown(src string) []Item {
	var items []Item
	for _, line := range strings.Split(src, "\n") {
		m := markdownLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		items = append(items, Item{
			ID:    Slugify(value),
			Value: value,
			Depth: len(m[1]),
		})
	}
	return items
}
