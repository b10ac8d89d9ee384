package document

// Visitor has one method per node type. Walkers that treat node types
// differently implement it, so a new node type cannot be added without every
// such walker being taught about it.
type Visitor[T any] interface {
	Doc(n *Node) T
	Paragraph(n *Node) T
	Heading(n *Node) T
	Text(n *Node) T
	BulletList(n *Node) T
	OrderedList(n *Node) T
	ListItem(n *Node) T
	TaskList(n *Node) T
	TaskItem(n *Node) T
	Blockquote(n *Node) T
	CodeBlock(n *Node) T
	Image(n *Node) T
	Table(n *Node) T
	TableRow(n *Node) T
	TableCell(n *Node) T
	TableHeader(n *Node) T
	HorizontalRule(n *Node) T
	HardBreak(n *Node) T
}

// Visit dispatches n to the matching Visitor method. Unknown types yield the
// zero value; Decode rejects them before a tree reaches a walker.
func Visit[T any](n *Node, v Visitor[T]) T {
	var zero T
	if n == nil {
		return zero
	}
	switch n.Type {
	case TypeDoc:
		return v.Doc(n)
	case TypeParagraph:
		return v.Paragraph(n)
	case TypeHeading:
		return v.Heading(n)
	case TypeText:
		return v.Text(n)
	case TypeBulletList:
		return v.BulletList(n)
	case TypeOrderedList:
		return v.OrderedList(n)
	case TypeListItem:
		return v.ListItem(n)
	case TypeTaskList:
		return v.TaskList(n)
	case TypeTaskItem:
		return v.TaskItem(n)
	case TypeBlockquote:
		return v.Blockquote(n)
	case TypeCodeBlock:
		return v.CodeBlock(n)
	case TypeImage:
		return v.Image(n)
	case TypeTable:
		return v.Table(n)
	case TypeTableRow:
		return v.TableRow(n)
	case TypeTableCell:
		return v.TableCell(n)
	case TypeTableHeader:
		return v.TableHeader(n)
	case TypeHorizontalRule:
		return v.HorizontalRule(n)
	case TypeHardBreak:
		return v.HardBreak(n)
	default:
		return zero
	}
}

// Walk calls fn for n and each descendant in depth-first, left-to-right
// order. Returning false from fn skips that node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Content {
		Walk(c, fn)
	}
}
