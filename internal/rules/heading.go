package rules

import (
	"fmt"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/violation"
)

// HeadingRule checks that every heading is followed by a paragraph or by a
// heading at most one level deeper. Siblings that are neither are skipped.
type HeadingRule struct{}

// NewHeadingRule creates a heading structure rule.
func NewHeadingRule() *HeadingRule { return &HeadingRule{} }

func (r *HeadingRule) Name() string { return "heading_structure" }

func (r *HeadingRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	tree.Walk(tree.Root(), func(n *doctree.Node) bool {
		h, ok := n.Data.(*doctree.Heading)
		if !ok {
			return true
		}
		title := h.Text
		if title == "" {
			title = tree.Text(n.ID())
		}

		next := tree.NextSibling(n.ID())
		for next != doctree.NoID && !isTextBlock(tree.Kind(next)) {
			next = tree.NextSibling(next)
		}

		switch {
		case next == doctree.NoID:
			v := tree.Violation(n.ID(), violation.HeadingStructure,
				fmt.Sprintf("heading %q is not followed by a paragraph or subheading", title))
			report(tree, &out, n.ID(), v)
		case tree.Kind(next) == doctree.KindHeading:
			nh := tree.Node(next).Data.(*doctree.Heading)
			if nh.Level > h.Level+1 {
				v := tree.Violation(n.ID(), violation.HeadingStructure,
					fmt.Sprintf("heading %q is followed by a level %d heading", title, nh.Level)).
					WithValues(fmt.Sprintf("level <= %d", h.Level+1), fmt.Sprintf("level %d", nh.Level))
				report(tree, &out, n.ID(), v)
			}
		}
		return true
	})
	return out
}

func isTextBlock(k doctree.Kind) bool {
	return k == doctree.KindParagraph || k == doctree.KindHeading
}
