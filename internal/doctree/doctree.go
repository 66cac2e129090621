// Package doctree holds the reconstructed document: an arena of typed nodes
// addressed by ID, with ordered child lists and parent back-references.
package doctree

import (
	"sync/atomic"

	"github.com/dgallion1/docstyle/internal/violation"
)

// ID identifies a node within one tree. Zero means "no node".
type ID uint64

// NoID is the absent node.
const NoID ID = 0

// IDGenerator hands out node IDs, starting at 1. One generator is created per
// reconstruction run so concurrent runs never share counters.
type IDGenerator struct {
	next atomic.Uint64
}

// NewIDGenerator returns a generator whose first ID is 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next unused ID.
func (g *IDGenerator) Next() ID {
	return ID(g.next.Add(1))
}

// Kind names a node variant.
type Kind int

const (
	KindDocument Kind = iota + 1
	KindPage
	KindParagraph
	KindHeading
	KindPageNumber
	KindTable
	KindImage
	KindLine
	KindLink
	KindSpan
)

var kindNames = map[Kind]string{
	KindDocument:   "document",
	KindPage:       "page",
	KindParagraph:  "paragraph",
	KindHeading:    "heading",
	KindPageNumber: "page_number",
	KindTable:      "table",
	KindImage:      "image",
	KindLine:       "line",
	KindLink:       "link",
	KindSpan:       "span",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Data is the variant-specific payload of a node.
type Data interface {
	Kind() Kind
	Box() BBox
	setBox(BBox)
}

// Span is a run of text with uniform font, size and color.
type Span struct {
	Text  string
	Font  string
	Size  float64
	Color *int // packed 0xRRGGBB, nil when unknown
	BBox  BBox
}

// Line is a horizontal row of spans and links.
type Line struct {
	BBox BBox
}

// Paragraph is a block of lines. Style is a free-form tag set by the
// extraction backend, empty for plain body text.
type Paragraph struct {
	Style string
	BBox  BBox
}

// Heading is a titled paragraph. Level starts at 1.
type Heading struct {
	Level int
	Text  string
	BBox  BBox
}

// PageNumber is a paragraph promoted to the page's number.
type PageNumber struct {
	Text string
	BBox BBox
}

// Table is an opaque table region. Raw is the backend payload; only the
// geometry is used by checks.
type Table struct {
	Raw  any
	BBox BBox
}

// Image is an image region. Format is empty when the payload could not be
// decoded.
type Image struct {
	Format      string
	PixelWidth  int
	PixelHeight int
	Data        []byte
	BBox        BBox
}

// Link wraps the span(s) covered by a hyperlink.
type Link struct {
	URI  string
	BBox BBox
}

// Page is one page of the document. Index is 0-based; BBox spans the page.
type Page struct {
	Index int
	BBox  BBox
}

// Document is the tree root.
type Document struct{}

func (*Span) Kind() Kind       { return KindSpan }
func (*Line) Kind() Kind       { return KindLine }
func (*Paragraph) Kind() Kind  { return KindParagraph }
func (*Heading) Kind() Kind    { return KindHeading }
func (*PageNumber) Kind() Kind { return KindPageNumber }
func (*Table) Kind() Kind      { return KindTable }
func (*Image) Kind() Kind      { return KindImage }
func (*Link) Kind() Kind       { return KindLink }
func (*Page) Kind() Kind       { return KindPage }
func (*Document) Kind() Kind   { return KindDocument }

func (d *Span) Box() BBox       { return d.BBox }
func (d *Line) Box() BBox       { return d.BBox }
func (d *Paragraph) Box() BBox  { return d.BBox }
func (d *Heading) Box() BBox    { return d.BBox }
func (d *PageNumber) Box() BBox { return d.BBox }
func (d *Table) Box() BBox      { return d.BBox }
func (d *Image) Box() BBox      { return d.BBox }
func (d *Link) Box() BBox       { return d.BBox }
func (d *Page) Box() BBox       { return d.BBox }
func (*Document) Box() BBox     { return BBox{} }

func (d *Span) setBox(b BBox)       { d.BBox = b }
func (d *Line) setBox(b BBox)       { d.BBox = b }
func (d *Paragraph) setBox(b BBox)  { d.BBox = b }
func (d *Heading) setBox(b BBox)    { d.BBox = b }
func (d *PageNumber) setBox(b BBox) { d.BBox = b }
func (d *Table) setBox(b BBox)      { d.BBox = b }
func (d *Image) setBox(b BBox)      { d.BBox = b }
func (d *Link) setBox(b BBox)       { d.BBox = b }
func (d *Page) setBox(b BBox)       { d.BBox = b }
func (*Document) setBox(BBox)       {}

// Node is one element of the tree. Structure is only changed through Tree
// methods so parent and child references stay consistent.
type Node struct {
	id       ID
	parent   ID
	children []ID
	errors   []violation.Violation

	// Data carries the variant payload.
	Data Data
	// Orig is the raw input primitive the node was built from, if any.
	Orig any
}

// ID returns the node's identifier.
func (n *Node) ID() ID { return n.id }

// Parent returns the parent ID, or NoID for the root and detached nodes.
func (n *Node) Parent() ID { return n.parent }

// Children returns the ordered child IDs. The slice must not be modified.
func (n *Node) Children() []ID { return n.children }

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.Data.Kind() }

// BBox returns the node's bounding box.
func (n *Node) BBox() BBox { return n.Data.Box() }

// SetBBox replaces the node's bounding box. Documents ignore it.
func (n *Node) SetBBox(b BBox) { n.Data.setBox(b) }

// Errors returns the violations attached to the node.
func (n *Node) Errors() []violation.Violation { return n.errors }

// Ref returns the violation reference for the node.
func (n *Node) Ref() violation.NodeRef {
	return violation.NodeRef{ID: uint64(n.id), Kind: n.Kind().String()}
}
