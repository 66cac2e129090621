package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/docstyle/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// A4 page size in points, used when a page has no readable MediaBox.
const (
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0
)

// PDFParser extracts text runs, fonts and link annotations from PDF files.
// The library exposes no image or table objects, so PDF pages only carry
// text blocks.
type PDFParser struct {
	// SpanGap is the horizontal gap, as a fraction of the font size, that
	// splits two glyph runs into separate spans.
	SpanGap float64
	// BlockGap is the vertical gap, as a fraction of line height, that
	// starts a new block.
	BlockGap float64
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docstyle-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var head bytes.Buffer
	if _, err := io.Copy(tmp, io.TeeReader(io.LimitReader(r, 4), &head)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := CheckMagic(filename, head.Bytes()); err != nil {
		tmp.Close()
		return nil, err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := p.extract(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("extract pdf %s: %w", filename, err)
	}
	return doc, nil
}

func (p *PDFParser) extract(path string) (doc *Document, err error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The library panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	doc = &Document{}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		doc.Pages = append(doc.Pages, p.extractPage(page, len(doc.Pages)))
	}
	return doc, nil
}

func (p *PDFParser) extractPage(page pdflib.Page, index int) *Page {
	width, height := mediaBox(page)
	var bases []string
	for _, key := range page.Fonts() {
		bases = append(bases, page.Font(key).BaseFont())
	}
	out := &Page{
		Index:     index,
		Width:     width,
		Height:    height,
		FontNames: realFontNames(bases),
	}

	spans := p.groupSpans(page.Content().Text, height)
	out.Blocks = p.groupBlocks(groupLines(spans))
	out.Links = linkAnnotations(page, height)
	return out
}

// mediaBox reads the (possibly inherited) MediaBox.
func mediaBox(page pdflib.Page) (float64, float64) {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
	}
	return defaultPageWidth, defaultPageHeight
}

// realFontNames maps each BaseFont to its name without a subset tag. The
// library reports glyph fonts by BaseFont and already drops the tag, so the
// untagged name is keyed too.
func realFontNames(bases []string) map[string]string {
	names := make(map[string]string, 2*len(bases))
	for _, base := range bases {
		if base == "" {
			continue
		}
		name := stripSubset(base)
		names[base] = name
		names[name] = name
	}
	return names
}

// stripSubset drops a six-letter subset tag such as "ABCDEF+".
func stripSubset(name string) string {
	if i := strings.Index(name, "+"); i == 6 {
		return name[i+1:]
	}
	return name
}

// groupSpans joins per-glyph text into runs sharing font, size and baseline.
// Coordinates are flipped to a top-left origin.
func (p *PDFParser) groupSpans(glyphs []pdflib.Text, pageHeight float64) []Span {
	gapFactor := p.SpanGap
	if gapFactor <= 0 {
		gapFactor = 0.3
	}

	var spans []Span
	var cur *Span
	var lastX, lastY float64
	for _, g := range glyphs {
		if g.S == "" || g.FontSize <= 0 {
			continue
		}
		x0, x1 := g.X, g.X+g.W
		sameRun := cur != nil &&
			cur.Font == g.Font &&
			math.Abs(cur.Size-g.FontSize) < 0.01 &&
			math.Abs(g.Y-lastY) < 0.5 &&
			x0-lastX <= gapFactor*g.FontSize &&
			x0 >= cur.BBox.X0
		if !sameRun {
			if cur != nil {
				spans = append(spans, *cur)
			}
			cur = &Span{
				Font: g.Font,
				Size: g.FontSize,
				BBox: doctree.NewBBox(x0, pageHeight-(g.Y+0.8*g.FontSize), x1, pageHeight-(g.Y-0.2*g.FontSize)),
			}
		}
		cur.Text += g.S
		cur.BBox.X1 = math.Max(cur.BBox.X1, x1)
		lastX, lastY = x1, g.Y
	}
	if cur != nil {
		spans = append(spans, *cur)
	}

	out := spans[:0]
	for _, s := range spans {
		s.Text = norm.NFC.String(s.Text)
		if strings.TrimFunc(s.Text, unicode.IsSpace) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// groupLines puts spans whose vertical centers are close onto one line,
// ordered top to bottom and left to right.
func groupLines(spans []Span) []Line {
	sort.SliceStable(spans, func(i, j int) bool {
		if math.Abs(spans[i].BBox.Y1-spans[j].BBox.Y1) > 0.5 {
			return spans[i].BBox.Y1 < spans[j].BBox.Y1
		}
		return spans[i].BBox.X0 < spans[j].BBox.X0
	})

	var lines []Line
	var center float64
	for _, s := range spans {
		c := s.BBox.CenterY()
		if len(lines) == 0 || math.Abs(c-center) > s.Size/2 {
			lines = append(lines, Line{})
			center = c
		}
		last := &lines[len(lines)-1]
		last.Spans = append(last.Spans, s)
	}
	return lines
}

func lineBox(l Line) doctree.BBox {
	boxes := make([]doctree.BBox, len(l.Spans))
	for i, s := range l.Spans {
		boxes[i] = s.BBox
	}
	return doctree.UnionAll(boxes)
}

// groupBlocks starts a new block whenever the gap to the previous line
// exceeds BlockGap times that line's height.
func (p *PDFParser) groupBlocks(lines []Line) []*Block {
	factor := p.BlockGap
	if factor <= 0 {
		factor = 1.0
	}

	var blocks []*Block
	var cur *Block
	var prev doctree.BBox
	for _, l := range lines {
		box := lineBox(l)
		if cur == nil || box.Y0-prev.Y1 > factor*prev.Height() {
			cur = &Block{Type: BlockText}
			blocks = append(blocks, cur)
		}
		cur.Lines = append(cur.Lines, l)
		if cur.BBox == nil {
			b := box
			cur.BBox = &b
		} else {
			*cur.BBox = cur.BBox.Union(box)
		}
		prev = box
	}
	return blocks
}

// linkAnnotations collects /Link annotations carrying a /URI action.
func linkAnnotations(page pdflib.Page, pageHeight float64) []Link {
	annots := page.V.Key("Annots")
	var links []Link
	for i := 0; i < annots.Len(); i++ {
		a := annots.Index(i)
		if a.Key("Subtype").Name() != "Link" {
			continue
		}
		uri := a.Key("A").Key("URI").RawString()
		rect := a.Key("Rect")
		if uri == "" || rect.Len() != 4 {
			continue
		}
		x0, y0 := rect.Index(0).Float64(), rect.Index(1).Float64()
		x1, y1 := rect.Index(2).Float64(), rect.Index(3).Float64()
		links = append(links, Link{
			Rect: doctree.NewBBox(math.Min(x0, x1), pageHeight-math.Max(y0, y1), math.Max(x0, x1), pageHeight-math.Min(y0, y1)),
			URI:  uri,
		})
	}
	return links
}
