package document

import (
	"strings"
	"unicode"
)

// ExcerptLength is the maximum excerpt length in runes.
const ExcerptLength = 200

// ExtractPlainText concatenates the text of the given nodes in document order
// with no separators. Text nodes yield their text; containers yield the
// concatenation of their children; everything else yields "".
func ExtractPlainText(nodes ...*Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		extractInto(&sb, n)
	}
	return sb.String()
}

func extractInto(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.Type == TypeText {
		sb.WriteString(n.Text)
		return
	}
	for _, c := range n.Content {
		extractInto(sb, c)
	}
}

// ExtractAndCleanText extracts the plain text and normalizes its whitespace.
func ExtractAndCleanText(nodes ...*Node) string {
	return CleanText(ExtractPlainText(nodes...))
}

// CleanText collapses every whitespace run, newlines included, to a single
// space and trims the ends. It is idempotent.
func CleanText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// Excerpt returns at most max runes of the cleaned text of doc.
func Excerpt(doc *Node, max int) string {
	text := ExtractAndCleanText(doc)
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace)
}
