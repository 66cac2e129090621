package layout

import (
	"math"
	"slices"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
)

// mergeParagraphs joins paragraphs that continue across block boundaries.
// A paragraph merges into the previous one when its first line carries no
// red indent, its average span size matches, and the vertical gap stays
// within GapFactor times the previous average size. Blank paragraphs are
// dropped. Anything other than a paragraph resets the chain.
func (r *Reconstructor) mergeParagraphs(tree *doctree.Tree, pageID doctree.ID) (merged, dropped int) {
	prev := doctree.NoID
	for _, id := range slices.Clone(tree.Children(pageID)) {
		if tree.Kind(id) != doctree.KindParagraph {
			prev = doctree.NoID
			continue
		}
		if isBlank(tree, id) {
			tree.RemoveChild(pageID, id)
			dropped++
			prev = doctree.NoID
			continue
		}
		if prev != doctree.NoID && r.continues(tree, prev, id) {
			box := tree.BBox(prev).Union(tree.BBox(id))
			tree.MoveChildren(id, prev)
			tree.Node(prev).SetBBox(box)
			tree.RemoveChild(pageID, id)
			merged++
			continue
		}
		prev = id
	}
	return merged, dropped
}

func (r *Reconstructor) continues(tree *doctree.Tree, prev, cur doctree.ID) bool {
	prevLines, curLines := tree.Lines(prev), tree.Lines(cur)
	if len(prevLines) == 0 || len(curLines) == 0 {
		return false
	}

	first := tree.BBox(curLines[0])
	gap := first.Y0 - tree.BBox(prevLines[len(prevLines)-1]).Y1
	prevSize := averageSize(tree, prev)
	curSize := averageSize(tree, cur)

	redIndent := first.X0-r.config.PageLeft > r.config.RedIndent
	sizeDiff := math.Abs(prevSize-curSize) > r.config.SizeTolerance
	return !redIndent && !sizeDiff && gap <= prevSize*r.config.GapFactor
}

func averageSize(tree *doctree.Tree, id doctree.ID) float64 {
	spans := tree.Spans(id)
	if len(spans) == 0 {
		return 0
	}
	var sum float64
	for _, s := range spans {
		sum += s.Size
	}
	return sum / float64(len(spans))
}

func isBlank(tree *doctree.Tree, id doctree.ID) bool {
	for _, s := range tree.Spans(id) {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}
