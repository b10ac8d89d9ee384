// Package importer converts markdown and HTML files into document trees.
package importer

import (
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jackzampolin/folio/internal/document"
)

// ErrInvalid is returned for input that cannot be imported.
var ErrInvalid = errors.New("invalid import")

// Result is an imported page.
type Result struct {
	Title     string         `json:"title"`
	Tags      []string       `json:"tags,omitempty"`
	Published bool           `json:"published"`
	Content   *document.Node `json:"content"`
}

// TitleFromFilename turns "getting-started.md" into "Getting Started".
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ReplaceAll(strings.ReplaceAll(base, "-", " "), "_", " ")
	base = strings.TrimSpace(base)
	if base == "" || base == "." {
		return ""
	}
	return cases.Title(language.English).String(base)
}

// firstHeading returns the text of the first level-1 heading in doc.
func firstHeading(doc *document.Node) string {
	var title string
	document.Walk(doc, func(n *document.Node) bool {
		if title != "" {
			return false
		}
		if n.Type == document.TypeHeading && n.Level() == 1 {
			title = document.ExtractAndCleanText(n)
			return false
		}
		return true
	})
	return title
}

func pickTitle(explicit, filename string, doc *document.Node) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	if t := TitleFromFilename(filename); t != "" {
		return t
	}
	if t := firstHeading(doc); t != "" {
		return t
	}
	return "Untitled"
}

// appendText adds a text node, merging it into the previous one when the
// marks are identical.
func appendText(out []*document.Node, s string, marks []document.Mark) []*document.Node {
	if s == "" {
		return out
	}
	if n := len(out); n > 0 && out[n-1].IsText() && sameMarks(out[n-1].Marks, marks) {
		out[n-1].Text += s
		return out
	}
	return append(out, document.Text(s, marks...))
}

func sameMarks(a, b []document.Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || len(a[i].Attrs) != len(b[i].Attrs) {
			return false
		}
		for k, v := range a[i].Attrs {
			if b[i].Attrs[k] != v {
				return false
			}
		}
	}
	return true
}

func withMark(marks []document.Mark, m document.Mark) []document.Mark {
	out := make([]document.Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}
