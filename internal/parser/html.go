package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// HOCRParser handles hOCR output (HTML with ocr_page, ocr_par, ocr_line and
// ocrx_word elements). Pixel coordinates are scaled to points using the
// page's scan_res, or DPI when scan_res is absent.
type HOCRParser struct {
	// DPI of the scanned image; zero means coordinates are already points.
	DPI float64
}

func (p *HOCRParser) Parse(r io.Reader, filename string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			doc.Pages = append(doc.Pages, p.parsePage(n, len(doc.Pages)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("parse hocr %s: no ocr_page elements", filename)
	}
	return doc, nil
}

func (p *HOCRParser) parsePage(n *html.Node, index int) *Page {
	props := titleProps(n)
	scale := 1.0
	if res := props["scan_res"]; len(res) > 0 {
		if dpi, err := strconv.ParseFloat(res[0], 64); err == nil && dpi > 0 {
			scale = 72 / dpi
		}
	} else if p.DPI > 0 {
		scale = 72 / p.DPI
	}

	page := &Page{Index: index, Width: defaultPageWidth, Height: defaultPageHeight}
	if box, ok := propBBox(props, scale); ok {
		page.Width, page.Height = box.Width(), box.Height()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "ocr_par"):
				if b := p.parseParagraph(n, scale); b != nil {
					page.Blocks = append(page.Blocks, b)
				}
				return
			case hasClass(n, "ocr_photo"), hasClass(n, "ocr_image"):
				b := &Block{Type: BlockImage}
				if box, ok := propBBox(titleProps(n), scale); ok {
					b.BBox = &box
				}
				page.Blocks = append(page.Blocks, b)
				return
			case hasClass(n, "ocr_table"):
				b := &Block{Type: BlockTable}
				if box, ok := propBBox(titleProps(n), scale); ok {
					b.BBox = &box
				}
				page.Blocks = append(page.Blocks, b)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	page.Links = collectLinks(n, scale)
	return page
}

// collectLinks finds anchors carrying both an href and a bbox title.
func collectLinks(n *html.Node, scale float64) []Link {
	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				box, ok := propBBox(titleProps(n), scale)
				if !ok && n.Parent != nil {
					box, ok = propBBox(titleProps(n.Parent), scale)
				}
				if ok {
					links = append(links, Link{Rect: box, URI: href})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return links
}

func (p *HOCRParser) parseParagraph(n *html.Node, scale float64) *Block {
	block := &Block{Type: BlockText}
	if box, ok := propBBox(titleProps(n), scale); ok {
		block.BBox = &box
	}

	var walkLines func(*html.Node)
	walkLines = func(n *html.Node) {
		if n.Type == html.ElementNode && (hasClass(n, "ocr_line") || hasClass(n, "ocr_caption") || hasClass(n, "ocr_header")) {
			if line := parseLine(n, scale); len(line.Spans) > 0 {
				block.Lines = append(block.Lines, line)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkLines(c)
		}
	}
	walkLines(n)

	if len(block.Lines) == 0 {
		return nil
	}
	return block
}

func parseLine(n *html.Node, scale float64) Line {
	lineProps := titleProps(n)
	lineBox, _ := propBBox(lineProps, scale)
	// x_size stands in for the font size when words carry no x_fsize.
	fallbackSize := lineBox.Height()
	if xs := lineProps["x_size"]; len(xs) > 0 {
		if v, err := strconv.ParseFloat(xs[0], 64); err == nil && v > 0 {
			fallbackSize = v * scale
		}
	}

	var line Line
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocrx_word") {
			props := titleProps(n)
			box, ok := propBBox(props, scale)
			if !ok {
				return
			}
			text := norm.NFC.String(textContent(n))
			if text == "" {
				return
			}
			span := Span{Text: text + " ", Size: fallbackSize, BBox: box}
			if fs := props["x_fsize"]; len(fs) > 0 {
				if v, err := strconv.ParseFloat(fs[0], 64); err == nil && v > 0 {
					span.Size = v
				}
			}
			if font := props["x_font"]; len(font) > 0 {
				span.Font = strings.Trim(strings.Join(font, ""), `"`)
			}
			line.Spans = append(line.Spans, span)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	if k := len(line.Spans); k > 0 {
		line.Spans[k-1].Text = strings.TrimRight(line.Spans[k-1].Text, " ")
	}
	return line
}

// titleProps splits an hOCR title attribute ("bbox 0 0 10 10; x_wconf 95")
// into property name -> values.
func titleProps(n *html.Node) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(attr(n, "title"), ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

func propBBox(props map[string][]string, scale float64) (doctree.BBox, bool) {
	vals := props["bbox"]
	if len(vals) != 4 {
		return doctree.BBox{}, false
	}
	var c [4]float64
	for i, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return doctree.BBox{}, false
		}
		c[i] = f * scale
	}
	return doctree.NewBBox(c[0], c[1], c[2], c[3]), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
