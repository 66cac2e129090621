package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/violation"
	"golang.org/x/text/unicode/norm"
)

// PageLayoutConfig holds configuration for page margins and page numbering.
// All lengths are in points.
type PageLayoutConfig struct {
	// Minimum margins between the page edge and the content box.
	// Default: top 20mm, bottom 20mm, left 30mm, right 20mm
	Top, Bottom, Left, Right float64

	// MarginTolerance is subtracted from each minimum before comparing.
	// Default: 1mm
	MarginTolerance float64

	// NumberMinBottom and NumberMaxBottom bound the page number's vertical
	// position, measured from the bottom page edge: its top must sit at
	// least NumberMinBottom above the edge and its bottom at most
	// NumberMaxBottom above it.
	// Default: 5mm and 20mm
	NumberMinBottom float64
	NumberMaxBottom float64

	// NumberCenterTolerance is the allowed horizontal offset of the page
	// number from the center of the area between the left and right margins.
	// Default: 0.2cm
	NumberCenterTolerance float64

	// NumberFromPage is the first 0-based page index that must carry a page
	// number. Earlier pages (the title page) are not checked.
	// Default: 1
	NumberFromPage int
}

// DefaultPageLayoutConfig returns the default page layout configuration.
func DefaultPageLayoutConfig() PageLayoutConfig {
	return PageLayoutConfig{
		Top:                   doctree.MM(20),
		Bottom:                doctree.MM(20),
		Left:                  doctree.MM(30),
		Right:                 doctree.MM(20),
		MarginTolerance:       doctree.MM(1),
		NumberMinBottom:       doctree.MM(5),
		NumberMaxBottom:       doctree.MM(20),
		NumberCenterTolerance: doctree.CM(0.2),
		NumberFromPage:        1,
	}
}

// PageLayoutRule checks each page's margins against the union of its
// content and validates the page number's text and placement.
type PageLayoutRule struct {
	config PageLayoutConfig
}

// NewPageLayoutRule creates a page layout rule.
func NewPageLayoutRule(config PageLayoutConfig) *PageLayoutRule {
	return &PageLayoutRule{config: config}
}

func (r *PageLayoutRule) Name() string { return "page_layout" }

func (r *PageLayoutRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	for _, pageID := range tree.Pages() {
		r.checkMargins(tree, pageID, &out)
		r.checkNumber(tree, pageID, &out)
	}
	return out
}

func (r *PageLayoutRule) checkMargins(tree *doctree.Tree, pageID doctree.ID, out *[]violation.Violation) {
	page := tree.BBox(pageID)
	var boxes []doctree.BBox
	for _, c := range tree.Children(pageID) {
		if tree.Kind(c) == doctree.KindPageNumber {
			continue
		}
		if b := tree.BBox(c); !b.IsZero() {
			boxes = append(boxes, b)
		}
	}
	if len(boxes) == 0 {
		return
	}
	content := doctree.UnionAll(boxes)

	margins := []struct {
		side     string
		actual   float64
		expected float64
	}{
		{"top", content.Y0 - page.Y0, r.config.Top},
		{"bottom", page.Y1 - content.Y1, r.config.Bottom},
		{"left", content.X0 - page.X0, r.config.Left},
		{"right", page.X1 - content.X1, r.config.Right},
	}
	for _, m := range margins {
		if m.actual+r.config.MarginTolerance >= m.expected {
			continue
		}
		v := tree.Violation(pageID, violation.PageMargin,
			fmt.Sprintf("%s margin is %.1fmm, at least %.0fmm required", m.side, doctree.ToMM(m.actual), doctree.ToMM(m.expected))).
			WithValues(fmt.Sprintf("%.0fmm", doctree.ToMM(m.expected)), fmt.Sprintf("%.1fmm", doctree.ToMM(m.actual)))
		report(tree, out, pageID, v)
	}
}

func (r *PageLayoutRule) checkNumber(tree *doctree.Tree, pageID doctree.ID, out *[]violation.Violation) {
	pageData := tree.Node(pageID).Data.(*doctree.Page)
	if pageData.Index < r.config.NumberFromPage {
		return
	}
	want := strconv.Itoa(pageData.Index + 1)

	var pnID doctree.ID
	for _, c := range tree.Children(pageID) {
		if tree.Kind(c) == doctree.KindPageNumber {
			pnID = c
			break
		}
	}
	if pnID == doctree.NoID {
		v := tree.Violation(pageID, violation.PageNumber,
			fmt.Sprintf("page %s has no page number", want)).WithValues(want, "")
		report(tree, out, pageID, v)
		return
	}

	pn := tree.Node(pnID).Data.(*doctree.PageNumber)
	text := strings.TrimSpace(norm.NFC.String(pn.Text))
	if text == "" {
		text = tree.Text(pnID)
	}
	if text != want {
		v := tree.Violation(pnID, violation.PageNumber,
			fmt.Sprintf("page number %q does not match page %s", text, want)).WithValues(want, text)
		report(tree, out, pnID, v)
	}

	page := pageData.BBox
	box := pn.BBox
	center := workCenter(page, r.config.Left, r.config.Right)
	if d := box.CenterX() - center; d > r.config.NumberCenterTolerance || -d > r.config.NumberCenterTolerance {
		v := tree.Violation(pnID, violation.PageNumber,
			fmt.Sprintf("page number is %.2fcm off center", doctree.ToCM(d))).
			WithValues(fmt.Sprintf("%.2fcm", doctree.ToCM(center)), fmt.Sprintf("%.2fcm", doctree.ToCM(box.CenterX())))
		report(tree, out, pnID, v)
	}
	if above := page.Y1 - box.Y1; above > r.config.NumberMaxBottom {
		v := tree.Violation(pnID, violation.PageNumber,
			fmt.Sprintf("page number sits %.1fmm above the bottom edge, at most %.0fmm allowed", doctree.ToMM(above), doctree.ToMM(r.config.NumberMaxBottom))).
			WithValues(fmt.Sprintf("<= %.0fmm", doctree.ToMM(r.config.NumberMaxBottom)), fmt.Sprintf("%.1fmm", doctree.ToMM(above)))
		report(tree, out, pnID, v)
	}
	if top := page.Y1 - box.Y0; top < r.config.NumberMinBottom {
		v := tree.Violation(pnID, violation.PageNumber,
			fmt.Sprintf("page number is %.1fmm from the bottom edge, at least %.0fmm required", doctree.ToMM(top), doctree.ToMM(r.config.NumberMinBottom))).
			WithValues(fmt.Sprintf(">= %.0fmm", doctree.ToMM(r.config.NumberMinBottom)), fmt.Sprintf("%.1fmm", doctree.ToMM(top)))
		report(tree, out, pnID, v)
	}
}
