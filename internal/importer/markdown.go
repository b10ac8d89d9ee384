package importer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/jackzampolin/folio/internal/document"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

type frontMatter struct {
	Title     string   `yaml:"title"`
	Tags      []string `yaml:"tags"`
	Published bool     `yaml:"published"`
}

// FromMarkdown imports a markdown file with optional YAML frontmatter.
// The title comes from the frontmatter, then the filename, then the first
// level one heading.
func FromMarkdown(src []byte, filename string) (*Result, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return nil, fmt.Errorf("%w: frontmatter: %v", ErrInvalid, err)
	}

	root := markdown.Parser().Parse(text.NewReader(body))
	c := &mdConverter{src: body}
	doc := document.Doc(c.blocks(root)...)

	return &Result{
		Title:     pickTitle(meta.Title, filename, doc),
		Tags:      meta.Tags,
		Published: meta.Published,
		Content:   doc,
	}, nil
}

type mdConverter struct {
	src []byte
}

func (c *mdConverter) blocks(parent ast.Node) []*document.Node {
	var out []*document.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.block(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (c *mdConverter) block(n ast.Node) *document.Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return document.Paragraph(c.inline(n, nil)...)
	case *ast.Heading:
		return document.Heading(n.Level, c.inline(n, nil)...)
	case *ast.Blockquote:
		return document.Block(document.TypeBlockquote, c.blocks(n)...)
	case *ast.FencedCodeBlock:
		code := document.Block(document.TypeCodeBlock, c.lines(n)...)
		if lang := string(n.Language(c.src)); lang != "" {
			code.SetAttr("language", lang)
		}
		return code
	case *ast.CodeBlock:
		return document.Block(document.TypeCodeBlock, c.lines(n)...)
	case *ast.ThematicBreak:
		return document.Block(document.TypeHorizontalRule)
	case *ast.List:
		return c.list(n)
	case *extast.Table:
		return c.table(n)
	case *ast.HTMLBlock:
		return nil
	default:
		if n.HasChildren() {
			return document.Paragraph(c.inline(n, nil)...)
		}
		return nil
	}
}

func (c *mdConverter) lines(n ast.Node) []*document.Node {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(c.src))
	}
	s := strings.TrimSuffix(buf.String(), "\n")
	if s == "" {
		return nil
	}
	return []*document.Node{document.Text(s)}
}

func (c *mdConverter) list(n *ast.List) *document.Node {
	task := false
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if _, ok := checkbox(item); ok {
			task = true
			break
		}
	}

	var list *document.Node
	switch {
	case task:
		list = document.Block(document.TypeTaskList)
	case n.IsOrdered():
		list = document.Block(document.TypeOrderedList)
		if n.Start != 1 {
			list.SetAttr("start", n.Start)
		}
	default:
		list = document.Block(document.TypeBulletList)
	}

	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if !task {
			list.Append(document.Block(document.TypeListItem, c.blocks(item)...))
			continue
		}
		checked, _ := checkbox(item)
		children := c.blocks(item)
		if len(children) > 0 && len(children[0].Content) > 0 && children[0].Content[0].IsText() {
			first := children[0].Content[0]
			first.Text = strings.TrimLeft(first.Text, " ")
		}
		list.Append(document.Block(document.TypeTaskItem, children...).SetAttr("checked", checked))
	}
	return list
}

// checkbox reports the task state of a list item.
func checkbox(item ast.Node) (checked bool, ok bool) {
	first := item.FirstChild()
	if first == nil {
		return false, false
	}
	cb, ok := first.FirstChild().(*extast.TaskCheckBox)
	if !ok {
		return false, false
	}
	return cb.IsChecked, true
}

func (c *mdConverter) table(n *extast.Table) *document.Node {
	table := document.Block(document.TypeTable)
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		cellType := document.TypeTableCell
		if _, ok := row.(*extast.TableHeader); ok {
			cellType = document.TypeTableHeader
		}
		tr := document.Block(document.TypeTableRow)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			tr.Append(document.Block(cellType, document.Paragraph(c.inline(cell, nil)...)))
		}
		table.Append(tr)
	}
	return table
}

func (c *mdConverter) inline(parent ast.Node, marks []document.Mark) []*document.Node {
	var out []*document.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			out = appendText(out, string(n.Segment.Value(c.src)), marks)
			if n.HardLineBreak() {
				out = append(out, document.Block(document.TypeHardBreak))
			} else if n.SoftLineBreak() {
				out = appendText(out, " ", marks)
			}
		case *ast.String:
			out = appendText(out, string(n.Value), marks)
		case *ast.CodeSpan:
			out = appendText(out, c.plain(n), withMark(marks, document.Mark{Type: document.MarkCode}))
		case *ast.Emphasis:
			m := document.Mark{Type: document.MarkItalic}
			if n.Level >= 2 {
				m.Type = document.MarkBold
			}
			out = append(out, c.inline(n, withMark(marks, m))...)
		case *extast.Strikethrough:
			out = append(out, c.inline(n, withMark(marks, document.Mark{Type: document.MarkStrike}))...)
		case *ast.Link:
			link := document.Mark{Type: document.MarkLink, Attrs: map[string]any{"href": string(n.Destination)}}
			out = append(out, c.inline(n, withMark(marks, link))...)
		case *ast.AutoLink:
			url := string(n.URL(c.src))
			link := document.Mark{Type: document.MarkLink, Attrs: map[string]any{"href": url}}
			out = appendText(out, string(n.Label(c.src)), withMark(marks, link))
		case *ast.Image:
			img := document.Block(document.TypeImage).
				SetAttr("src", string(n.Destination)).
				SetAttr("alt", c.plain(n))
			if len(n.Title) > 0 {
				img.SetAttr("title", string(n.Title))
			}
			out = append(out, img)
		case *extast.TaskCheckBox, *ast.RawHTML:
			continue
		default:
			out = append(out, c.inline(n, marks)...)
		}
	}
	return out
}

// plain concatenates the text segments below n.
func (c *mdConverter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(c.src))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
