package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
)

// BlockType tags a raw block.
type BlockType int

const (
	BlockText BlockType = iota
	BlockTable
	BlockImage
)

func (t BlockType) String() string {
	switch t {
	case BlockText:
		return "text"
	case BlockTable:
		return "table"
	case BlockImage:
		return "image"
	}
	return fmt.Sprintf("BlockType(%d)", int(t))
}

// MarshalJSON writes the block type by name.
func (t BlockType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "text", "table", "image" or the numeric codes 0, 1, 2
// used by extraction dumps.
func (t *BlockType) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		if code < int(BlockText) || code > int(BlockImage) {
			return fmt.Errorf("unknown block type code %d", code)
		}
		*t = BlockType(code)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("block type: %w", err)
	}
	switch strings.ToLower(name) {
	case "text":
		*t = BlockText
	case "table":
		*t = BlockTable
	case "image":
		*t = BlockImage
	default:
		return fmt.Errorf("unknown block type %q", name)
	}
	return nil
}

// Document is the raw extraction of a whole file, one entry per page.
type Document struct {
	Pages []*Page `json:"pages"`
}

// Page holds the raw primitives of one page. Width and Height are in points.
type Page struct {
	Index  int      `json:"index"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Blocks []*Block `json:"blocks"`
	Links  []Link   `json:"links,omitempty"`
	// Images holds the raw payloads of the page's embedded images in
	// extraction order.
	Images [][]byte `json:"images,omitempty"`
	// FontNames maps raw font keys to real font names.
	FontNames map[string]string `json:"font_names,omitempty"`
	// Fonts resolves raw font keys. When nil, FontNames is used.
	Fonts FontResolver `json:"-"`
}

// Block is a text, table or image region. BBox is nil for blocks without
// geometry.
type Block struct {
	Type  BlockType       `json:"type"`
	BBox  *doctree.BBox   `json:"bbox,omitempty"`
	Lines []Line          `json:"lines,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// Line is one extracted text line.
type Line struct {
	Spans []Span `json:"spans"`
}

// Span is one extracted text run. Color is a packed 0xRRGGBB value.
type Span struct {
	Text  string       `json:"text"`
	Font  string       `json:"font"`
	Size  float64      `json:"size"`
	Color *int         `json:"color,omitempty"`
	BBox  doctree.BBox `json:"bbox"`
}

// Link is a hyperlink rectangle on a page.
type Link struct {
	Rect doctree.BBox `json:"rect"`
	URI  string       `json:"uri"`
}

// FontResolver maps a raw font key to the font's real name. Implementations
// must be safe for concurrent reads and fall back to the key itself.
type FontResolver interface {
	RealFontName(key string) string
}

// FontMap is a FontResolver backed by a fixed map.
type FontMap map[string]string

// RealFontName returns the mapped name, or key when unmapped.
func (m FontMap) RealFontName(key string) string {
	if name, ok := m[key]; ok && name != "" {
		return name
	}
	return key
}

// Resolver returns the page's font resolver.
func (p *Page) Resolver() FontResolver {
	if p.Fonts != nil {
		return p.Fonts
	}
	return FontMap(p.FontNames)
}
