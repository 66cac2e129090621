package layout

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"slices"
	"testing"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/parser"
)

// left is the configured left text edge: 3cm.
var left = doctree.CM(3)

func makeSpan(text string, x0, y0, x1, y1, size float64) parser.Span {
	return parser.Span{Text: text, Font: "TimesNewRomanPSMT", Size: size, BBox: doctree.NewBBox(x0, y0, x1, y1)}
}

// makeLine builds a one-span line of 12pt text from x0 at top y.
func makeLine(text string, x0, y float64) parser.Line {
	return parser.Line{Spans: []parser.Span{makeSpan(text, x0, y, x0+400, y+12, 12)}}
}

func makeTextBlock(lines ...parser.Line) *parser.Block {
	var boxes []doctree.BBox
	for _, l := range lines {
		for _, s := range l.Spans {
			boxes = append(boxes, s.BBox)
		}
	}
	box := doctree.UnionAll(boxes)
	return &parser.Block{Type: parser.BlockText, BBox: &box, Lines: lines}
}

func makeBoxBlock(t parser.BlockType, x0, y0, x1, y1 float64) *parser.Block {
	box := doctree.NewBBox(x0, y0, x1, y1)
	return &parser.Block{Type: t, BBox: &box}
}

func makeDoc(pages ...*parser.Page) *parser.Document {
	for i, p := range pages {
		p.Index = i
	}
	return &parser.Document{Pages: pages}
}

func makePage(blocks ...*parser.Block) *parser.Page {
	return &parser.Page{Width: 595, Height: 842, Blocks: blocks}
}

func build(t *testing.T, doc *parser.Document) *doctree.Tree {
	t.Helper()
	tree, err := New().Build(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree
}

func pageChildren(tree *doctree.Tree, index int) []doctree.ID {
	return tree.Children(tree.Pages()[index])
}

func TestBuild_MergesContinuedBlock(t *testing.T) {
	a := makeTextBlock(makeLine("First line of A", left, 100), makeLine("second line of A", left, 118))
	// B starts 5pt below A's bottom edge (130) and is flush with the margin.
	b := makeTextBlock(makeLine("continues here", left, 135))
	tree := build(t, makeDoc(makePage(a, b)))

	children := pageChildren(tree, 0)
	if len(children) != 1 {
		t.Fatalf("expected 1 paragraph after merge, got %d", len(children))
	}
	para := children[0]
	if got := len(tree.Lines(para)); got != 3 {
		t.Errorf("expected 3 lines, got %d", got)
	}
	want := doctree.NewBBox(left, 100, left+400, 147)
	if got := tree.BBox(para); got != want {
		t.Errorf("expected bbox %v, got %v", want, got)
	}
	for _, l := range tree.Lines(para) {
		if tree.Parent(l) != para {
			t.Errorf("line %d not reparented", l)
		}
	}
}

func TestBuild_RedIndentStartsNewParagraph(t *testing.T) {
	a := makeTextBlock(makeLine("First paragraph", left, 100))
	b := makeTextBlock(makeLine("Second paragraph", left+doctree.CM(1.25), 117))
	tree := build(t, makeDoc(makePage(a, b)))

	if got := len(pageChildren(tree, 0)); got != 2 {
		t.Errorf("expected 2 paragraphs, got %d", got)
	}
}

func TestBuild_LargeGapOrSizeChangeDoesNotMerge(t *testing.T) {
	t.Run("gap", func(t *testing.T) {
		a := makeTextBlock(makeLine("A", left, 100))
		b := makeTextBlock(makeLine("B", left, 131)) // gap 19 > 1.5*12
		tree := build(t, makeDoc(makePage(a, b)))
		if got := len(pageChildren(tree, 0)); got != 2 {
			t.Errorf("expected 2 paragraphs, got %d", got)
		}
	})
	t.Run("size", func(t *testing.T) {
		a := makeTextBlock(makeLine("A", left, 100))
		b := makeTextBlock(parser.Line{Spans: []parser.Span{makeSpan("B", left, 115, left+100, 129, 14)}})
		tree := build(t, makeDoc(makePage(a, b)))
		if got := len(pageChildren(tree, 0)); got != 2 {
			t.Errorf("expected 2 paragraphs, got %d", got)
		}
	})
}

func TestBuild_NonParagraphResetsMergeChain(t *testing.T) {
	a := makeTextBlock(makeLine("A", left, 100))
	table := makeBoxBlock(parser.BlockTable, left, 113, 500, 114)
	b := makeTextBlock(makeLine("B", left, 116))
	tree := build(t, makeDoc(makePage(a, table, b)))

	children := pageChildren(tree, 0)
	if len(children) != 3 {
		t.Fatalf("expected paragraph, table, paragraph; got %d children", len(children))
	}
	if tree.Kind(children[1]) != doctree.KindTable {
		t.Errorf("expected table in the middle, got %v", tree.Kind(children[1]))
	}
}

func TestMergeParagraphs_Idempotent(t *testing.T) {
	a := makeTextBlock(makeLine("A1", left, 100), makeLine("A2", left, 118))
	b := makeTextBlock(makeLine("B1", left, 135))
	c := makeTextBlock(makeLine("C1", left+40, 153))
	tree := build(t, makeDoc(makePage(a, b, c)))

	pageID := tree.Pages()[0]
	before := snapshot(tree, pageID)

	r := New()
	merged, dropped := r.mergeParagraphs(tree, pageID)
	if merged != 0 || dropped != 0 {
		t.Errorf("expected no further merges, got merged=%d dropped=%d", merged, dropped)
	}
	if after := snapshot(tree, pageID); !slices.Equal(before, after) {
		t.Errorf("tree changed on second merge:\nbefore %v\nafter  %v", before, after)
	}
}

func snapshot(tree *doctree.Tree, id doctree.ID) []doctree.ID {
	var out []doctree.ID
	tree.Walk(id, func(n *doctree.Node) bool {
		out = append(out, n.ID())
		return true
	})
	return out
}

func TestBuild_PageNumberPromotedInPlace(t *testing.T) {
	body := makeTextBlock(makeLine("Body text", left, 100))
	number := makeTextBlock(parser.Line{Spans: []parser.Span{makeSpan("3", 290, 800, 296, 812, 12)}})
	tree := build(t, makeDoc(makePage(body, number)))

	children := pageChildren(tree, 0)
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	pn := tree.Node(children[1])
	data, ok := pn.Data.(*doctree.PageNumber)
	if !ok {
		t.Fatalf("expected PageNumber, got %v", pn.Kind())
	}
	if data.Text != "3" {
		t.Errorf("expected text 3, got %q", data.Text)
	}
	if tree.Text(pn.ID()) != "3" {
		t.Errorf("expected lines to move under the page number")
	}
}

func TestBuild_PageNumberBottomMostWins(t *testing.T) {
	top := makeTextBlock(parser.Line{Spans: []parser.Span{makeSpan("12", 290, 40, 302, 52, 12)}})
	body := makeTextBlock(makeLine("Body text", left+40, 100))
	bottom := makeTextBlock(parser.Line{Spans: []parser.Span{makeSpan("7", 290, 800, 296, 812, 12)}})
	tree := build(t, makeDoc(makePage(top, body, bottom)))

	children := pageChildren(tree, 0)
	if tree.Kind(children[0]) != doctree.KindParagraph {
		t.Errorf("expected top number to stay a paragraph, got %v", tree.Kind(children[0]))
	}
	if tree.Kind(children[len(children)-1]) != doctree.KindPageNumber {
		t.Errorf("expected bottom number to be promoted")
	}
}

func TestBuild_LinkWrapsSpanAndLineBoxUsesLeaves(t *testing.T) {
	line := parser.Line{Spans: []parser.Span{
		makeSpan("see ", left, 100, left+30, 112, 12),
		makeSpan("here", left+30, 100, left+60, 112, 12),
	}}
	page := makePage(makeTextBlock(line))
	page.Links = []parser.Link{
		{Rect: doctree.NewBBox(left+31, 95, left+200, 120), URI: "https://example.org"},
		{Rect: doctree.NewBBox(left+31, 95, left+60, 120), URI: "https://second.example"},
	}
	tree := build(t, makeDoc(page))

	para := pageChildren(tree, 0)[0]
	lineID := tree.Lines(para)[0]
	kids := tree.Children(lineID)
	if len(kids) != 2 {
		t.Fatalf("expected span and link, got %d children", len(kids))
	}
	link, ok := tree.Node(kids[1]).Data.(*doctree.Link)
	if !ok {
		t.Fatalf("expected second child to be a link, got %v", tree.Kind(kids[1]))
	}
	if link.URI != "https://example.org" {
		t.Errorf("expected first intersecting link to win, got %s", link.URI)
	}
	if len(tree.Spans(lineID)) != 2 {
		t.Errorf("expected line spans to include the link-wrapped span")
	}
	if got, want := tree.BBox(lineID), doctree.NewBBox(left, 100, left+60, 112); got != want {
		t.Errorf("expected line bbox %v from leaves, got %v", want, got)
	}
}

func TestBuild_EdgeTouchingLinkIgnored(t *testing.T) {
	page := makePage(makeTextBlock(makeLine("text", left, 100)))
	page.Links = []parser.Link{{Rect: doctree.NewBBox(left+400, 100, left+500, 112), URI: "x"}}
	tree := build(t, makeDoc(page))

	lineID := tree.Lines(pageChildren(tree, 0)[0])[0]
	if tree.Kind(tree.Children(lineID)[0]) != doctree.KindSpan {
		t.Error("expected span to stay unwrapped")
	}
}

func TestBuild_LineClustering(t *testing.T) {
	block := makeTextBlock(parser.Line{Spans: []parser.Span{
		makeSpan("b", left+100, 100, left+150, 112, 12),
		makeSpan("a", left, 100, left+50, 112, 12),
		makeSpan("  ", left+200, 100, left+210, 112, 12),
		makeSpan("next", left, 114, left+50, 126, 12),
	}})
	tree := build(t, makeDoc(makePage(block)))

	lines := tree.Lines(pageChildren(tree, 0)[0])
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if got := tree.LineText(lines[0]); got != "ab" {
		t.Errorf("expected spans sorted left to right, got %q", got)
	}
	if got := len(tree.Spans(lines[0])); got != 2 {
		t.Errorf("expected blank span to be dropped, got %d spans", got)
	}
}

func TestSortBlocks_KeepsUnboxedSlots(t *testing.T) {
	low := makeTextBlock(makeLine("low", left, 300))
	meta := &parser.Block{Type: parser.BlockTable}
	high := makeTextBlock(makeLine("high", left, 100))

	got := sortBlocks([]*parser.Block{low, meta, high})
	if got[0] != high || got[1] != meta || got[2] != low {
		t.Errorf("unexpected order")
	}
}

func TestBuild_ImageUsesFirstPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 5))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	page := makePage(
		makeBoxBlock(parser.BlockImage, 100, 100, 300, 200),
		makeBoxBlock(parser.BlockImage, 100, 300, 300, 400),
	)
	page.Images = [][]byte{buf.Bytes(), []byte("second")}
	tree := build(t, makeDoc(page))

	for _, id := range pageChildren(tree, 0) {
		img := tree.Node(id).Data.(*doctree.Image)
		if img.Format != "png" || img.PixelWidth != 8 || img.PixelHeight != 5 {
			t.Errorf("expected every image to carry the first payload, got %+v", img)
		}
	}
}

func TestBuild_ImageWithoutPayload(t *testing.T) {
	page := makePage(makeBoxBlock(parser.BlockImage, 100, 100, 300, 200))
	tree := build(t, makeDoc(page))

	children := pageChildren(tree, 0)
	if len(children) != 1 {
		t.Fatalf("expected 1 image node, got %d", len(children))
	}
	img, ok := tree.Node(children[0]).Data.(*doctree.Image)
	if !ok {
		t.Fatalf("expected *doctree.Image, got %T", tree.Node(children[0]).Data)
	}
	if img.Data != nil || img.Format != "" {
		t.Errorf("expected no payload, got %+v", img)
	}
	if img.BBox != doctree.NewBBox(100, 100, 300, 200) {
		t.Errorf("bbox = %v", img.BBox)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  *parser.Document
		want error
	}{
		{"nil", nil, ErrEmptyDocument},
		{"no pages", &parser.Document{}, ErrEmptyDocument},
		{"no blocks", makeDoc(makePage(), makePage()), ErrEmptyDocument},
		{"zero size", makeDoc(&parser.Page{Blocks: []*parser.Block{makeTextBlock(makeLine("x", left, 100))}}), ErrMalformedInput},
		{"inverted span", makeDoc(makePage(makeTextBlock(parser.Line{Spans: []parser.Span{makeSpan("x", 100, 50, 90, 60, 12)}}))), ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := New().Build(tt.doc)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tree != nil {
				t.Error("expected no tree on failure")
			}
		})
	}
}

func TestBuild_UniqueIDs(t *testing.T) {
	doc := makeDoc(
		makePage(makeTextBlock(makeLine("a", left, 100)), makeTextBlock(makeLine("1", 290, 800))),
		makePage(makeTextBlock(makeLine("b", left, 100)), makeTextBlock(makeLine("2", 290, 800))),
	)
	tree := build(t, doc)

	seen := make(map[doctree.ID]bool)
	tree.Walk(tree.Root(), func(n *doctree.Node) bool {
		if seen[n.ID()] {
			t.Errorf("duplicate id %d", n.ID())
		}
		seen[n.ID()] = true
		return true
	})
	if tree.PageCount() != 2 {
		t.Errorf("expected 2 pages, got %d", tree.PageCount())
	}
}

func TestBuild_DetectHeadingsOptIn(t *testing.T) {
	heading := parser.Line{Spans: []parser.Span{{Text: "1.2 Методика", Font: "TimesNewRoman-Bold", Size: 14, BBox: doctree.NewBBox(left, 100, left+200, 114)}}}
	body := makeLine("Основной текст.", left+doctree.CM(1.25), 130)
	doc := makeDoc(makePage(makeTextBlock(heading), makeTextBlock(body)))

	tree := build(t, doc)
	if tree.Kind(pageChildren(tree, 0)[0]) != doctree.KindParagraph {
		t.Error("expected headings to stay paragraphs by default")
	}

	cfg := DefaultConfig()
	cfg.DetectHeadings = true
	tree, err := NewWithConfig(cfg).Build(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, ok := tree.Node(pageChildren(tree, 0)[0]).Data.(*doctree.Heading)
	if !ok {
		t.Fatal("expected heading")
	}
	if h.Level != 2 || h.Text != "1.2 Методика" {
		t.Errorf("unexpected heading %+v", h)
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Введение":         1,
		"1 Обзор":          1,
		"2.3 Результаты":   2,
		"3.1.4. Настройка": 3,
	}
	for text, want := range tests {
		if got := headingLevel(text); got != want {
			t.Errorf("%q: expected level %d, got %d", text, want, got)
		}
	}
}
