package layout

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
)

var (
	sectionNumber = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s`)
	boldMarkers   = []string{"bold", "black", "semibold", "demibold", "heavy", "bd"}
)

// detectHeadings promotes single-line paragraphs set entirely in a bold face
// and not ending in a full stop to Heading nodes. The level is the depth of
// a leading section number such as "2.1.3", or 1 when there is none.
func detectHeadings(tree *doctree.Tree, pageID doctree.ID) int {
	promoted := 0
	for _, id := range append([]doctree.ID(nil), tree.Children(pageID)...) {
		if tree.Kind(id) != doctree.KindParagraph || len(tree.Lines(id)) != 1 {
			continue
		}
		text := tree.Text(id)
		if text == "" || strings.HasSuffix(text, ".") || !allBold(tree, id) {
			continue
		}
		h := tree.NewNode(&doctree.Heading{
			Level: headingLevel(text),
			Text:  text,
			BBox:  tree.BBox(id),
		}, tree.Node(id).Orig)
		tree.MoveChildren(id, h)
		tree.ReplaceChild(pageID, id, h)
		promoted++
	}
	return promoted
}

func allBold(tree *doctree.Tree, id doctree.ID) bool {
	spans := tree.Spans(id)
	if len(spans) == 0 {
		return false
	}
	for _, s := range spans {
		if !isBoldFont(s.Font) {
			return false
		}
	}
	return true
}

func isBoldFont(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range boldMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func headingLevel(text string) int {
	m := sectionNumber.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	return strings.Count(m[1], ".") + 1
}
