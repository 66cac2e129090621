// Package layout rebuilds document structure from raw extraction primitives:
// pages of paragraphs, tables and images, paragraphs of lines, lines of spans.
package layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/parser"
)

var (
	// ErrEmptyDocument is returned when the input has no pages or no blocks.
	ErrEmptyDocument = errors.New("document has no parsable content")
	// ErrMalformedInput is returned when the input geometry is inconsistent.
	ErrMalformedInput = errors.New("malformed extraction input")
)

// Config holds configuration for reconstruction. Lengths are in points.
type Config struct {
	// LineTolerance is the maximum distance between vertical centers of
	// spans on one line.
	// Default: 2.0
	LineTolerance float64

	// PageLeft is the expected left text edge used to detect a first-line
	// indent when merging blocks.
	// Default: 3cm
	PageLeft float64

	// RedIndent is the first-line offset beyond PageLeft that marks the
	// start of a new paragraph.
	// Default: 0.1cm
	RedIndent float64

	// SizeTolerance is the maximum difference of average span sizes for two
	// blocks to merge.
	// Default: 0.1
	SizeTolerance float64

	// GapFactor scales the previous paragraph's average span size into the
	// largest vertical gap that still merges.
	// Default: 1.5
	GapFactor float64

	// DetectHeadings promotes bold single-line paragraphs to headings.
	// Default: false
	DetectHeadings bool

	// Logger receives per-page debug statistics. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the reconstruction defaults.
func DefaultConfig() Config {
	return Config{
		LineTolerance: 2.0,
		PageLeft:      doctree.CM(3),
		RedIndent:     doctree.CM(0.1),
		SizeTolerance: 0.1,
		GapFactor:     1.5,
	}
}

// Stats summarises the reconstruction of one page.
type Stats struct {
	Page       int  `json:"page"`
	Blocks     int  `json:"blocks"`
	Paragraphs int  `json:"paragraphs"`
	Merged     int  `json:"merged"`
	Dropped    int  `json:"dropped"`
	Headings   int  `json:"headings"`
	PageNumber bool `json:"page_number"`
}

// Reconstructor turns raw pages into a document tree. It holds no state
// between runs and may be shared across goroutines.
type Reconstructor struct {
	config Config
	log    *slog.Logger
}

// New creates a reconstructor with default configuration.
func New() *Reconstructor {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a reconstructor with custom configuration.
func NewWithConfig(config Config) *Reconstructor {
	log := config.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Reconstructor{config: config, log: log}
}

// Config returns the reconstructor's configuration.
func (r *Reconstructor) Config() Config { return r.config }

// Build reconstructs doc. Either the whole tree is returned or an error;
// partial trees are never exposed.
func (r *Reconstructor) Build(doc *parser.Document) (*doctree.Tree, error) {
	tree, _, err := r.BuildWithStats(doc)
	return tree, err
}

// BuildWithStats is Build that also reports per-page statistics.
func (r *Reconstructor) BuildWithStats(doc *parser.Document) (*doctree.Tree, []Stats, error) {
	if err := validate(doc); err != nil {
		return nil, nil, err
	}

	tree := doctree.NewTree(doctree.NewIDGenerator())
	stats := make([]Stats, 0, len(doc.Pages))
	for i, page := range doc.Pages {
		st := r.buildPage(tree, page, i)
		r.log.Debug("page reconstructed",
			"page", st.Page,
			"blocks", st.Blocks,
			"paragraphs", st.Paragraphs,
			"merged", st.Merged,
			"dropped", st.Dropped,
			"headings", st.Headings,
			"page_number", st.PageNumber,
		)
		stats = append(stats, st)
	}
	return tree, stats, nil
}

func (r *Reconstructor) buildPage(tree *doctree.Tree, page *parser.Page, index int) Stats {
	pageID := tree.AddPage(&doctree.Page{
		Index: index,
		BBox:  doctree.NewBBox(0, 0, page.Width, page.Height),
	}, page)
	st := Stats{Page: index, Blocks: len(page.Blocks)}

	fonts := page.Resolver()
	for _, block := range sortBlocks(page.Blocks) {
		var id doctree.ID
		switch block.Type {
		case parser.BlockText:
			id = r.placeText(tree, block, page.Links, fonts)
		case parser.BlockTable:
			id = placeTable(tree, block)
		case parser.BlockImage:
			id = placeImage(tree, block, page.Images)
		}
		if id != doctree.NoID {
			tree.AppendChild(pageID, id)
		}
	}

	st.PageNumber = detectPageNumber(tree, pageID)
	if r.config.DetectHeadings {
		st.Headings = detectHeadings(tree, pageID)
	}
	st.Merged, st.Dropped = r.mergeParagraphs(tree, pageID)

	for _, c := range tree.Children(pageID) {
		if tree.Kind(c) == doctree.KindParagraph {
			st.Paragraphs++
		}
	}
	return st
}

func validate(doc *parser.Document) error {
	if doc == nil || len(doc.Pages) == 0 {
		return ErrEmptyDocument
	}
	blocks := 0
	for i, page := range doc.Pages {
		if page == nil {
			return fmt.Errorf("%w: page %d is missing", ErrMalformedInput, i)
		}
		if page.Width <= 0 || page.Height <= 0 {
			return fmt.Errorf("%w: page %d has size %.1fx%.1f", ErrMalformedInput, i, page.Width, page.Height)
		}
		for bi, b := range page.Blocks {
			if b == nil {
				return fmt.Errorf("%w: page %d block %d is missing", ErrMalformedInput, i, bi)
			}
			if b.BBox != nil && inverted(*b.BBox) {
				return fmt.Errorf("%w: page %d block %d has inverted bbox %v", ErrMalformedInput, i, bi, *b.BBox)
			}
			for _, l := range b.Lines {
				for _, s := range l.Spans {
					if inverted(s.BBox) {
						return fmt.Errorf("%w: page %d span %q has inverted bbox %v", ErrMalformedInput, i, s.Text, s.BBox)
					}
				}
			}
			blocks++
		}
	}
	if blocks == 0 {
		return ErrEmptyDocument
	}
	return nil
}

func inverted(b doctree.BBox) bool {
	return b.X0 > b.X1 || b.Y0 > b.Y1
}
