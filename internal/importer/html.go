package importer

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jackzampolin/folio/internal/document"
)

var spaceRun = regexp.MustCompile(`\s+`)

// FromHTML imports an HTML document or fragment. The title comes from the
// <title> element, then the filename, then the first <h1>.
func FromHTML(r io.Reader, filename string) (*Result, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	body := findByAtom(root, atom.Body)
	if body == nil {
		body = root
	}
	var title string
	if t := findByAtom(root, atom.Title); t != nil {
		title = spaceRun.ReplaceAllString(textContent(t), " ")
	}

	c := &htmlConverter{}
	doc := document.Doc(c.blocks(body)...)
	return &Result{
		Title:   pickTitle(title, filename, doc),
		Content: doc,
	}, nil
}

// findByAtom returns the first element of type a in document order.
func findByAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAtom(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClassPrefix(n *html.Node, prefix string) string {
	class, _ := getAttr(n, "class")
	for _, c := range strings.Fields(class) {
		if strings.HasPrefix(c, prefix) {
			return strings.TrimPrefix(c, prefix)
		}
	}
	return ""
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Hr: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true, atom.Figure: true,
	atom.Body: true, atom.Html: true,
}

var skipAtoms = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

type htmlConverter struct{}

// blocks converts the children of n. Runs of inline content are wrapped in
// paragraphs.
func (c *htmlConverter) blocks(n *html.Node) []*document.Node {
	var out, pending []*document.Node
	flush := func() {
		if strings.TrimSpace(document.ExtractPlainText(pending...)) != "" || hasNonText(pending) {
			out = append(out, document.Paragraph(trimEdges(pending)...))
		}
		pending = nil
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && skipAtoms[child.DataAtom] {
			continue
		}
		if child.Type == html.ElementNode && (blockAtoms[child.DataAtom] || child.DataAtom == atom.Img) {
			flush()
			out = append(out, c.block(child)...)
			continue
		}
		pending = append(pending, c.inline(child, nil)...)
		pending = mergeText(pending)
	}
	flush()
	return out
}

func (c *htmlConverter) block(n *html.Node) []*document.Node {
	switch n.DataAtom {
	case atom.P:
		return []*document.Node{document.Paragraph(trimEdges(c.inlineChildren(n, nil))...)}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		return []*document.Node{document.Heading(level, trimEdges(c.inlineChildren(n, nil))...)}
	case atom.Ul:
		if t, _ := getAttr(n, "data-type"); t == "taskList" {
			return []*document.Node{c.list(n, document.TypeTaskList)}
		}
		return []*document.Node{c.list(n, document.TypeBulletList)}
	case atom.Ol:
		list := c.list(n, document.TypeOrderedList)
		if s, ok := getAttr(n, "start"); ok {
			if start, err := strconv.Atoi(s); err == nil && start != 1 {
				list.SetAttr("start", start)
			}
		}
		return []*document.Node{list}
	case atom.Li:
		return []*document.Node{document.Block(document.TypeListItem, c.blocks(n)...)}
	case atom.Blockquote:
		return []*document.Node{document.Block(document.TypeBlockquote, c.blocks(n)...)}
	case atom.Pre:
		code := document.Block(document.TypeCodeBlock)
		if el := findByAtom(n, atom.Code); el != nil {
			if lang := hasClassPrefix(el, "language-"); lang != "" {
				code.SetAttr("language", lang)
			}
		}
		if s := strings.TrimSuffix(textContent(n), "\n"); s != "" {
			code.Append(document.Text(s))
		}
		return []*document.Node{code}
	case atom.Img:
		return []*document.Node{image(n)}
	case atom.Table:
		table := document.Block(document.TypeTable)
		c.rows(n, table)
		return []*document.Node{table}
	case atom.Hr:
		return []*document.Node{document.Block(document.TypeHorizontalRule)}
	default:
		return c.blocks(n)
	}
}

func (c *htmlConverter) list(n *html.Node, t document.Type) *document.Node {
	list := document.Block(t)
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		if t != document.TypeTaskList {
			list.Append(document.Block(document.TypeListItem, c.blocks(li)...))
			continue
		}
		checked := false
		if v, ok := getAttr(li, "data-checked"); ok {
			checked = v == "true"
		} else if box := findByAtom(li, atom.Input); box != nil {
			_, checked = getAttr(box, "checked")
		}
		list.Append(document.Block(document.TypeTaskItem, c.blocks(li)...).SetAttr("checked", checked))
	}
	return list
}

// rows appends every row below n, looking through thead, tbody and tfoot.
func (c *htmlConverter) rows(n *html.Node, table *document.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		switch child.DataAtom {
		case atom.Thead, atom.Tbody, atom.Tfoot:
			c.rows(child, table)
		case atom.Tr:
			row := document.Block(document.TypeTableRow)
			for cell := child.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type != html.ElementNode {
					continue
				}
				switch cell.DataAtom {
				case atom.Th:
					row.Append(document.Block(document.TypeTableHeader, c.cell(cell)...))
				case atom.Td:
					row.Append(document.Block(document.TypeTableCell, c.cell(cell)...))
				}
			}
			table.Append(row)
		}
	}
}

func (c *htmlConverter) cell(n *html.Node) []*document.Node {
	blocks := c.blocks(n)
	if len(blocks) == 0 {
		return []*document.Node{document.Paragraph()}
	}
	return blocks
}

func (c *htmlConverter) inlineChildren(n *html.Node, marks []document.Mark) []*document.Node {
	var out []*document.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, c.inline(child, marks)...)
	}
	return mergeText(out)
}

func (c *htmlConverter) inline(n *html.Node, marks []document.Mark) []*document.Node {
	switch n.Type {
	case html.TextNode:
		s := spaceRun.ReplaceAllString(n.Data, " ")
		if s == "" {
			return nil
		}
		return []*document.Node{document.Text(s, marks...)}
	case html.ElementNode:
	default:
		return nil
	}

	if skipAtoms[n.DataAtom] {
		return nil
	}
	switch n.DataAtom {
	case atom.Br:
		return []*document.Node{document.Block(document.TypeHardBreak)}
	case atom.Img:
		return []*document.Node{image(n)}
	case atom.Input:
		return nil
	}

	if m, ok := markFor(n); ok {
		marks = withMark(marks, m)
	}
	return c.inlineChildren(n, marks)
}

var colorStyle = regexp.MustCompile(`(?i)(?:^|;)\s*color\s*:\s*([^;]+)`)
var backgroundStyle = regexp.MustCompile(`(?i)background-color\s*:\s*([^;]+)`)

func markFor(n *html.Node) (document.Mark, bool) {
	switch n.DataAtom {
	case atom.Strong, atom.B:
		return document.Mark{Type: document.MarkBold}, true
	case atom.Em, atom.I:
		return document.Mark{Type: document.MarkItalic}, true
	case atom.U:
		return document.Mark{Type: document.MarkUnderline}, true
	case atom.S, atom.Del, atom.Strike:
		return document.Mark{Type: document.MarkStrike}, true
	case atom.Code:
		return document.Mark{Type: document.MarkCode}, true
	case atom.A:
		href, _ := getAttr(n, "href")
		return document.Mark{Type: document.MarkLink, Attrs: map[string]any{"href": href}}, true
	case atom.Mark:
		style, _ := getAttr(n, "style")
		if m := backgroundStyle.FindStringSubmatch(style); m != nil {
			return document.Mark{Type: document.MarkHighlight, Attrs: map[string]any{"color": strings.TrimSpace(m[1])}}, true
		}
		return document.Mark{Type: document.MarkHighlight}, true
	case atom.Span:
		style, _ := getAttr(n, "style")
		if m := colorStyle.FindStringSubmatch(style); m != nil {
			return document.Mark{Type: document.MarkTextStyle, Attrs: map[string]any{"color": strings.TrimSpace(m[1])}}, true
		}
	}
	return document.Mark{}, false
}

func image(n *html.Node) *document.Node {
	src, _ := getAttr(n, "src")
	alt, _ := getAttr(n, "alt")
	img := document.Block(document.TypeImage).SetAttr("src", src).SetAttr("alt", alt)
	if title, ok := getAttr(n, "title"); ok && title != "" {
		img.SetAttr("title", title)
	}
	return img
}

func mergeText(nodes []*document.Node) []*document.Node {
	var out []*document.Node
	for _, n := range nodes {
		if n.IsText() {
			out = appendText(out, n.Text, n.Marks)
			continue
		}
		out = append(out, n)
	}
	return out
}

// trimEdges drops leading and trailing whitespace of an inline run.
func trimEdges(inline []*document.Node) []*document.Node {
	if len(inline) > 0 && inline[0].IsText() {
		inline[0].Text = strings.TrimLeft(inline[0].Text, " ")
		if inline[0].Text == "" {
			inline = inline[1:]
		}
	}
	if n := len(inline); n > 0 && inline[n-1].IsText() {
		inline[n-1].Text = strings.TrimRight(inline[n-1].Text, " ")
		if inline[n-1].Text == "" {
			inline = inline[:n-1]
		}
	}
	return inline
}

func hasNonText(nodes []*document.Node) bool {
	for _, n := range nodes {
		if !n.IsText() {
			return true
		}
	}
	return false
}
