package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/parser"
)

// sortBlocks orders blocks with a bbox by their top edge. Blocks without a
// bbox keep their original slots, so only the boxed blocks move among
// themselves.
func sortBlocks(blocks []*parser.Block) []*parser.Block {
	var boxed, unboxed []*parser.Block
	for _, b := range blocks {
		if b.BBox != nil {
			boxed = append(boxed, b)
		} else {
			unboxed = append(unboxed, b)
		}
	}
	sort.SliceStable(boxed, func(i, j int) bool {
		return boxed[i].BBox.Y0 < boxed[j].BBox.Y0
	})

	out := make([]*parser.Block, 0, len(blocks))
	wi, bi := 0, 0
	for _, b := range blocks {
		if b.BBox != nil {
			out = append(out, boxed[wi])
			wi++
		} else {
			out = append(out, unboxed[bi])
			bi++
		}
	}
	return out
}

// placeText builds a Paragraph from a text block. Blank spans are dropped;
// the remaining spans are re-sorted into reading order and clustered into
// lines by vertical center. It returns NoID when the block has no text.
func (r *Reconstructor) placeText(tree *doctree.Tree, block *parser.Block, links []parser.Link, fonts parser.FontResolver) doctree.ID {
	var spans []parser.Span
	for _, l := range block.Lines {
		for _, s := range l.Spans {
			if strings.TrimSpace(s.Text) != "" {
				spans = append(spans, s)
			}
		}
	}
	if len(spans) == 0 {
		return doctree.NoID
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].BBox.Y1 != spans[j].BBox.Y1 {
			return spans[i].BBox.Y1 < spans[j].BBox.Y1
		}
		return spans[i].BBox.X0 < spans[j].BBox.X0
	})

	para := tree.NewNode(&doctree.Paragraph{}, block)
	var lineBoxes []doctree.BBox
	for i := 0; i < len(spans); {
		center := spans[i].BBox.CenterY()
		lineID := tree.NewNode(&doctree.Line{}, nil)
		tree.AppendChild(para, lineID)

		var leaves []doctree.BBox
		for ; i < len(spans); i++ {
			raw := spans[i]
			if math.Abs(raw.BBox.CenterY()-center) > r.config.LineTolerance {
				break
			}
			span := tree.NewNode(&doctree.Span{
				Text:  raw.Text,
				Font:  fonts.RealFontName(raw.Font),
				Size:  raw.Size,
				Color: raw.Color,
				BBox:  raw.BBox,
			}, raw)

			if link, ok := firstLink(links, raw.BBox); ok {
				linkID := tree.NewNode(&doctree.Link{URI: link.URI, BBox: link.Rect}, link)
				tree.AppendChild(lineID, linkID)
				tree.AppendChild(linkID, span)
			} else {
				tree.AppendChild(lineID, span)
			}
			leaves = append(leaves, raw.BBox)
		}

		box := doctree.UnionAll(leaves)
		tree.Node(lineID).SetBBox(box)
		lineBoxes = append(lineBoxes, box)
	}
	tree.Node(para).SetBBox(doctree.UnionAll(lineBoxes))
	return para
}

func firstLink(links []parser.Link, box doctree.BBox) (parser.Link, bool) {
	for _, l := range links {
		if box.Intersects(l.Rect) {
			return l, true
		}
	}
	return parser.Link{}, false
}

// placeImage binds the page's first image payload to the block. Pages with
// several images do not disambiguate between them. A page without payloads
// still gets an Image node so geometry checks apply.
func placeImage(tree *doctree.Tree, block *parser.Block, images [][]byte) doctree.ID {
	if block.BBox == nil {
		return doctree.NoID
	}
	img := &doctree.Image{BBox: *block.BBox}
	if len(images) > 0 {
		img.Data = images[0]
		if info, ok := parser.DescribeImage(img.Data); ok {
			img.Format = info.Format
			img.PixelWidth = info.Width
			img.PixelHeight = info.Height
		}
	}
	return tree.NewNode(img, block)
}

func placeTable(tree *doctree.Tree, block *parser.Block) doctree.ID {
	if block.BBox == nil {
		return doctree.NoID
	}
	return tree.NewNode(&doctree.Table{Raw: block.Raw, BBox: *block.BBox}, block)
}
