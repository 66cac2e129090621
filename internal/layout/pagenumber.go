package layout

import (
	"strings"
	"unicode"

	"github.com/dgallion1/docstyle/internal/doctree"
)

// detectPageNumber promotes the bottom-most purely numeric paragraph of a
// page to a PageNumber, keeping its position among the page's children.
func detectPageNumber(tree *doctree.Tree, pageID doctree.ID) bool {
	children := tree.Children(pageID)
	for i := len(children) - 1; i >= 0; i-- {
		id := children[i]
		if tree.Kind(id) != doctree.KindParagraph || len(tree.Children(id)) == 0 {
			continue
		}
		text := spanText(tree, id)
		if !isDigits(text) {
			continue
		}
		pn := tree.NewNode(&doctree.PageNumber{Text: text, BBox: tree.BBox(id)}, tree.Node(id).Orig)
		tree.MoveChildren(id, pn)
		tree.ReplaceChild(pageID, id, pn)
		return true
	}
	return false
}

// spanText concatenates every span of a node without separators.
func spanText(tree *doctree.Tree, id doctree.ID) string {
	var b strings.Builder
	for _, s := range tree.Spans(id) {
		b.WriteString(s.Text)
	}
	return strings.TrimSpace(b.String())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
