// Package render turns document trees into HTML and markdown.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/toc"
)

// HTML renders the blocks of doc as an HTML fragment. Headings carry the
// same anchor ids the table of contents links to.
func HTML(doc *document.Node) (string, error) {
	root := Tree(doc)
	if root == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render html: %w", err)
		}
	}
	return buf.String(), nil
}

// Markdown renders doc as markdown by way of its HTML tree.
func Markdown(doc *document.Node) (string, error) {
	root := Tree(doc)
	if root == nil {
		return "", nil
	}
	out, err := htmltomarkdown.ConvertNode(root)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}
	return strings.TrimSpace(string(out)) + "\n", nil
}

// Tree builds the HTML node tree for doc. The root is an <article> element.
func Tree(doc *document.Node) *html.Node {
	r := &renderer{anchors: toc.Anchors(doc)}
	return document.Visit[*html.Node](doc, r)
}

type renderer struct {
	anchors map[*document.Node]string
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func (r *renderer) container(a atom.Atom, n *document.Node, attrs ...html.Attribute) *html.Node {
	el := element(a, attrs...)
	for _, c := range n.Content {
		if child := document.Visit[*html.Node](c, r); child != nil {
			el.AppendChild(child)
		}
	}
	return el
}

func (r *renderer) Doc(n *document.Node) *html.Node {
	return r.container(atom.Article, n)
}

func (r *renderer) Paragraph(n *document.Node) *html.Node {
	return r.container(atom.P, n)
}

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func (r *renderer) Heading(n *document.Node) *html.Node {
	level := n.Level()
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	var attrs []html.Attribute
	if id, ok := r.anchors[n]; ok {
		attrs = append(attrs, attr("id", id))
	}
	return r.container(headingAtoms[level-1], n, attrs...)
}

func (r *renderer) Text(n *document.Node) *html.Node {
	node := &html.Node{Type: html.TextNode, Data: n.Text}
	// The first mark is the outermost element.
	for i := len(n.Marks) - 1; i >= 0; i-- {
		wrap := markElement(n.Marks[i])
		if wrap == nil {
			continue
		}
		wrap.AppendChild(node)
		node = wrap
	}
	return node
}

func markElement(m document.Mark) *html.Node {
	color, _ := m.Attrs["color"].(string)
	if !safeColor(color) {
		color = ""
	}
	switch m.Type {
	case document.MarkBold:
		return element(atom.Strong)
	case document.MarkItalic:
		return element(atom.Em)
	case document.MarkUnderline:
		return element(atom.U)
	case document.MarkStrike:
		return element(atom.S)
	case document.MarkCode:
		return element(atom.Code)
	case document.MarkLink:
		href, _ := m.Attrs["href"].(string)
		if !safeURL(href) {
			return nil
		}
		return element(atom.A, attr("href", strings.TrimSpace(href)))
	case document.MarkTextStyle:
		if color == "" {
			return nil
		}
		return element(atom.Span, attr("style", "color: "+color))
	case document.MarkHighlight:
		if color == "" {
			return element(atom.Mark)
		}
		return element(atom.Mark, attr("style", "background-color: "+color))
	default:
		return nil
	}
}

func (r *renderer) BulletList(n *document.Node) *html.Node {
	return r.container(atom.Ul, n)
}

func (r *renderer) OrderedList(n *document.Node) *html.Node {
	if start, ok := n.IntAttr("start"); ok && start != 1 {
		return r.container(atom.Ol, n, attr("start", strconv.Itoa(start)))
	}
	return r.container(atom.Ol, n)
}

func (r *renderer) ListItem(n *document.Node) *html.Node {
	return r.container(atom.Li, n)
}

func (r *renderer) TaskList(n *document.Node) *html.Node {
	return r.container(atom.Ul, n, attr("data-type", "taskList"))
}

func (r *renderer) TaskItem(n *document.Node) *html.Node {
	box := element(atom.Input, attr("type", "checkbox"), attr("disabled", ""))
	if n.BoolAttr("checked") {
		box.Attr = append(box.Attr, attr("checked", ""))
	}
	li := r.container(atom.Li, n, attr("data-checked", strconv.FormatBool(n.BoolAttr("checked"))))
	li.InsertBefore(box, li.FirstChild)
	return li
}

func (r *renderer) Blockquote(n *document.Node) *html.Node {
	return r.container(atom.Blockquote, n)
}

func (r *renderer) CodeBlock(n *document.Node) *html.Node {
	var attrs []html.Attribute
	if lang := n.StringAttr("language"); lang != "" {
		attrs = append(attrs, attr("class", "language-"+lang))
	}
	code := element(atom.Code, attrs...)
	code.AppendChild(&html.Node{Type: html.TextNode, Data: document.ExtractPlainText(n.Content...)})
	pre := element(atom.Pre)
	pre.AppendChild(code)
	return pre
}

// Image drops images whose source is not a safe URL.
func (r *renderer) Image(n *document.Node) *html.Node {
	src := n.StringAttr("src")
	if !safeURL(src) {
		return nil
	}
	attrs := []html.Attribute{attr("src", strings.TrimSpace(src)), attr("alt", n.StringAttr("alt"))}
	if title := n.StringAttr("title"); title != "" {
		attrs = append(attrs, attr("title", title))
	}
	return element(atom.Img, attrs...)
}

func (r *renderer) Table(n *document.Node) *html.Node {
	body := r.container(atom.Tbody, n)
	table := element(atom.Table)
	table.AppendChild(body)
	return table
}

func (r *renderer) TableRow(n *document.Node) *html.Node {
	return r.container(atom.Tr, n)
}

func (r *renderer) TableCell(n *document.Node) *html.Node {
	return r.container(atom.Td, n)
}

func (r *renderer) TableHeader(n *document.Node) *html.Node {
	return r.container(atom.Th, n)
}

func (r *renderer) HorizontalRule(n *document.Node) *html.Node {
	return element(atom.Hr)
}

func (r *renderer) HardBreak(n *document.Node) *html.Node {
	return element(atom.Br)
}
