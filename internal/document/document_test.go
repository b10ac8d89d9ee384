package document

import (
	"errors"
	"strings"
	"testing"
)

func sampleDoc() *Node {
	return Doc(
		Heading(1, Text("Getting "), Text("Started", Mark{Type: MarkBold})),
		Paragraph(Text("First line\n\twith  tabs")),
		Block(TypeBulletList,
			Block(TypeListItem, Paragraph(Text("one"))),
			Block(TypeListItem, Paragraph(Text("two"))),
		),
		&Node{Type: TypeHorizontalRule},
		Paragraph(Text("   trailing   ")),
	)
}

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*Node
		want  string
	}{
		{"nil", []*Node{nil}, ""},
		{"text node", []*Node{Text("hello")}, "hello"},
		{"empty text node", []*Node{{Type: TypeText}}, ""},
		{"leaf without content", []*Node{{Type: TypeHorizontalRule}}, ""},
		{"sequence has no separator", []*Node{Text("a"), Text("b"), Paragraph(Text("c"))}, "abc"},
		{"nested", []*Node{Doc(Paragraph(Text("x"), Text("y")), Paragraph(Text("z")))}, "xyz"},
		{"unknown type with content", []*Node{{Type: "mystery", Content: []*Node{Text("q")}}}, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPlainText(tt.nodes...); got != tt.want {
				t.Errorf("ExtractPlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPlainText_ConcatenatesTextNodesInOrder(t *testing.T) {
	doc := sampleDoc()

	var texts []string
	Walk(doc, func(n *Node) bool {
		if n.IsText() {
			texts = append(texts, n.Text)
		}
		return true
	})

	if got, want := ExtractPlainText(doc), strings.Join(texts, ""); got != want {
		t.Errorf("ExtractPlainText() = %q, want %q", got, want)
	}
}

func TestExtractAndCleanText(t *testing.T) {
	got := ExtractAndCleanText(sampleDoc())
	want := "Getting StartedFirst line with tabsonetwo trailing"
	if got != want {
		t.Errorf("ExtractAndCleanText() = %q, want %q", got, want)
	}

	if strings.ContainsAny(got, "\t\n") {
		t.Error("cleaned text contains tabs or newlines")
	}
	if strings.Contains(got, "  ") {
		t.Error("cleaned text contains a double space")
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{"", "  a  b\n\nc\t", "already clean", " nbsp  run "}
	for _, in := range inputs {
		once := CleanText(in)
		if twice := CleanText(once); twice != once {
			t.Errorf("CleanText(CleanText(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("word ", 100)
	doc := Doc(Paragraph(Text(long)))

	got := Excerpt(doc, ExcerptLength)
	if n := len([]rune(got)); n > ExcerptLength {
		t.Errorf("excerpt length = %d, want <= %d", n, ExcerptLength)
	}
	if strings.HasSuffix(got, " ") {
		t.Error("excerpt ends with whitespace")
	}

	short := Excerpt(Doc(Paragraph(Text("  short  "))), ExcerptLength)
	if short != "short" {
		t.Errorf("Excerpt() = %q, want %q", short, "short")
	}
}

func TestEqual(t *testing.T) {
	a := sampleDoc()
	b := a.Clone()
	if !Equal(a, b) {
		t.Fatal("clone is not equal to original")
	}

	b.Content[1].Content[0].Text = "changed"
	if Equal(a, b) {
		t.Error("trees differ but Equal() returned true")
	}

	// Attributes decoded from JSON are float64; built ones are int.
	decoded, err := Decode(a.Canonical())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !Equal(a, decoded) {
		t.Error("decoded tree is not equal to original")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty doc", `{"type":"doc"}`, false},
		{"heading", `{"type":"doc","content":[{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Hi"}]}]}`, false},
		{"marks", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"x","marks":[{"type":"link","attrs":{"href":"/a"}}]}]}]}`, false},
		{"root must be doc", `{"type":"paragraph"}`, true},
		{"unknown type", `{"type":"doc","content":[{"type":"video"}]}`, true},
		{"text with content", `{"type":"doc","content":[{"type":"text","text":"a","content":[]}]}`, true},
		{"marks on block", `{"type":"doc","content":[{"type":"paragraph","marks":[{"type":"bold"}]}]}`, true},
		{"heading level out of range", `{"type":"doc","content":[{"type":"heading","attrs":{"level":7}}]}`, true},
		{"unknown mark", `{"type":"doc","content":[{"type":"text","text":"a","marks":[{"type":"blink"}]}]}`, true},
		{"nested attrs", `{"type":"doc","attrs":{"x":{"y":1}}}`, true},
		{"not json", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

type typeCounter struct{}

func (typeCounter) count(n *Node) int {
	total := 1
	for _, c := range n.Content {
		total += Visit[int](c, typeCounter{})
	}
	return total
}

func (v typeCounter) Doc(n *Node) int            { return v.count(n) }
func (v typeCounter) Paragraph(n *Node) int      { return v.count(n) }
func (v typeCounter) Heading(n *Node) int        { return v.count(n) }
func (v typeCounter) Text(n *Node) int           { return 1 }
func (v typeCounter) BulletList(n *Node) int     { return v.count(n) }
func (v typeCounter) OrderedList(n *Node) int    { return v.count(n) }
func (v typeCounter) ListItem(n *Node) int       { return v.count(n) }
func (v typeCounter) TaskList(n *Node) int       { return v.count(n) }
func (v typeCounter) TaskItem(n *Node) int       { return v.count(n) }
func (v typeCounter) Blockquote(n *Node) int     { return v.count(n) }
func (v typeCounter) CodeBlock(n *Node) int      { return v.count(n) }
func (v typeCounter) Image(n *Node) int          { return 1 }
func (v typeCounter) Table(n *Node) int          { return v.count(n) }
func (v typeCounter) TableRow(n *Node) int       { return v.count(n) }
func (v typeCounter) TableCell(n *Node) int      { return v.count(n) }
func (v typeCounter) TableHeader(n *Node) int    { return v.count(n) }
func (v typeCounter) HorizontalRule(n *Node) int { return 1 }
func (v typeCounter) HardBreak(n *Node) int      { return 1 }

func TestVisit_DispatchesEveryType(t *testing.T) {
	for _, typ := range Types() {
		n := &Node{Type: typ}
		if got := Visit[int](n, typeCounter{}); got != 1 {
			t.Errorf("Visit(%s) = %d, want 1", typ, got)
		}
		if !typ.Known() {
			t.Errorf("%s is not Known()", typ)
		}
	}

	if got := Visit[int](&Node{Type: "mystery"}, typeCounter{}); got != 0 {
		t.Errorf("Visit(unknown) = %d, want 0", got)
	}
	if got := Visit[int](sampleDoc(), typeCounter{}); got != 16 {
		t.Errorf("Visit(sampleDoc) = %d, want 16", got)
	}
}

func TestSeed(t *testing.T) {
	doc := Seed("Hello")
	if doc.Type != TypeDoc || len(doc.Content) != 2 {
		t.Fatalf("unexpected seed shape: %s", doc.Canonical())
	}
	if doc.Content[0].Level() != 1 {
		t.Errorf("seed heading level = %d, want 1", doc.Content[0].Level())
	}
	if ExtractPlainText(doc) != "Hello" {
		t.Errorf("seed text = %q, want %q", ExtractPlainText(doc), "Hello")
	}
}
