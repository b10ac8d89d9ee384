// Package document defines the structured rich-text tree that page content is
// stored as, along with the walkers that derive plain text from it.
package document

import (
	"bytes"
	"encoding/json"
)

// Type discriminates the node variants.
type Type string

const (
	TypeDoc            Type = "doc"
	TypeParagraph      Type = "paragraph"
	TypeHeading        Type = "heading"
	TypeText           Type = "text"
	TypeBulletList     Type = "bulletList"
	TypeOrderedList    Type = "orderedList"
	TypeListItem       Type = "listItem"
	TypeTaskList       Type = "taskList"
	TypeTaskItem       Type = "taskItem"
	TypeBlockquote     Type = "blockquote"
	TypeCodeBlock      Type = "codeBlock"
	TypeImage          Type = "image"
	TypeTable          Type = "table"
	TypeTableRow       Type = "tableRow"
	TypeTableCell      Type = "tableCell"
	TypeTableHeader    Type = "tableHeader"
	TypeHorizontalRule Type = "horizontalRule"
	TypeHardBreak      Type = "hardBreak"
)

// Types returns every known node type in declaration order.
func Types() []Type {
	return []Type{
		TypeDoc, TypeParagraph, TypeHeading, TypeText,
		TypeBulletList, TypeOrderedList, TypeListItem, TypeTaskList, TypeTaskItem,
		TypeBlockquote, TypeCodeBlock, TypeImage,
		TypeTable, TypeTableRow, TypeTableCell, TypeTableHeader,
		TypeHorizontalRule, TypeHardBreak,
	}
}

// Known reports whether t is one of the closed set of node types.
func (t Type) Known() bool {
	for _, k := range Types() {
		if k == t {
			return true
		}
	}
	return false
}

// MarkType names an inline formatting mark on a text node.
type MarkType string

const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkStrike    MarkType = "strike"
	MarkCode      MarkType = "code"
	MarkLink      MarkType = "link"
	MarkTextStyle MarkType = "textStyle"
	MarkHighlight MarkType = "highlight"
)

// Mark is inline formatting applied to a text node. Link marks carry an
// "href" attribute; textStyle and highlight carry "color".
type Mark struct {
	Type  MarkType       `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is one element of a document tree. Text nodes carry Text and Marks and
// never Content; every other type may carry Content.
type Node struct {
	Type    Type           `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Type == TypeText
}

// Attr returns the named attribute, or nil.
func (n *Node) Attr(key string) any {
	if n == nil || n.Attrs == nil {
		return nil
	}
	return n.Attrs[key]
}

// StringAttr returns a string attribute, or "" if it is missing or not a string.
func (n *Node) StringAttr(key string) string {
	s, _ := n.Attr(key).(string)
	return s
}

// BoolAttr returns a boolean attribute, or false.
func (n *Node) BoolAttr(key string) bool {
	b, _ := n.Attr(key).(bool)
	return b
}

// IntAttr returns a numeric attribute as an int. Attributes decoded from JSON
// arrive as float64; attributes built in Go may be any integer type.
func (n *Node) IntAttr(key string) (int, bool) {
	switch v := n.Attr(key).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

// Level returns a heading's level, or 0 when the attribute is absent.
func (n *Node) Level() int {
	l, _ := n.IntAttr("level")
	return l
}

// SetAttr sets an attribute, allocating the map when needed.
func (n *Node) SetAttr(key string, value any) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[key] = value
	return n
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Content = append(n.Content, children...)
	return n
}

// HasMark reports whether a text node carries the given mark.
func (n *Node) HasMark(t MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// Canonical returns the canonical JSON encoding of n. Map keys are sorted by
// encoding/json, so two structurally equal trees encode identically.
func (n *Node) Canonical() []byte {
	if n == nil {
		return []byte("null")
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil
	}
	return b
}

// Equal reports whether two trees are structurally equal.
func Equal(a, b *Node) bool {
	return bytes.Equal(a.Canonical(), b.Canonical())
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Type: n.Type, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	for _, m := range n.Marks {
		mc := Mark{Type: m.Type}
		if m.Attrs != nil {
			mc.Attrs = make(map[string]any, len(m.Attrs))
			for k, v := range m.Attrs {
				mc.Attrs[k] = v
			}
		}
		c.Marks = append(c.Marks, mc)
	}
	for _, child := range n.Content {
		c.Content = append(c.Content, child.Clone())
	}
	return c
}

// Doc returns a root node holding the given blocks.
func Doc(blocks ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: blocks}
}

// Paragraph returns a paragraph holding the given inline nodes.
func Paragraph(inline ...*Node) *Node {
	return &Node{Type: TypeParagraph, Content: inline}
}

// Heading returns a heading of the given level.
func Heading(level int, inline ...*Node) *Node {
	return &Node{Type: TypeHeading, Attrs: map[string]any{"level": level}, Content: inline}
}

// Text returns a text node with optional marks.
func Text(s string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: s, Marks: marks}
}

// Block returns a node of any container type.
func Block(t Type, children ...*Node) *Node {
	return &Node{Type: t, Content: children}
}

// Seed returns the content a new page starts with: the title as a level one
// heading followed by an empty paragraph.
func Seed(title string) *Node {
	h := Heading(1)
	if title != "" {
		h.Append(Text(title))
	}
	return Doc(h, Paragraph())
}
