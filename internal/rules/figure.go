package rules

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/violation"
	"golang.org/x/text/unicode/norm"
)

var (
	imageCaption = regexp.MustCompile(`(?i)^(рис\.|рисунок)`)
	tableCaption = regexp.MustCompile(`^Таблица\s+\d+(\s*[—-].+)?$`)
)

// ImageConfig holds configuration for image placement.
type ImageConfig struct {
	// Left and Right are the page margins that define the work area.
	// Default: 30mm and 20mm
	Left, Right float64

	// Tolerance is the allowed offset of image and caption centers from
	// the work area center.
	// Default: 7pt
	Tolerance float64

	// CaptionGap is the largest vertical gap between an image and the
	// paragraph below it for that paragraph to count as its caption.
	// Default: 40pt
	CaptionGap float64
}

// DefaultImageConfig returns the default image configuration.
func DefaultImageConfig() ImageConfig {
	return ImageConfig{Left: doctree.MM(30), Right: doctree.MM(20), Tolerance: 7, CaptionGap: 40}
}

// ImageRule checks that images are centered and followed by a centered
// "Рисунок N" caption.
type ImageRule struct {
	config ImageConfig
}

// NewImageRule creates an image rule.
func NewImageRule(config ImageConfig) *ImageRule {
	return &ImageRule{config: config}
}

func (r *ImageRule) Name() string { return "image" }

func (r *ImageRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	for _, pageID := range tree.Pages() {
		center := workCenter(tree.BBox(pageID), r.config.Left, r.config.Right)
		for _, id := range tree.Children(pageID) {
			if tree.Kind(id) != doctree.KindImage {
				continue
			}
			box := tree.BBox(id)
			if offCenter(box, center, r.config.Tolerance) {
				v := tree.Violation(id, violation.Image,
					fmt.Sprintf("image is not centered: center at %.1fpt, expected %.1fpt", box.CenterX(), center)).
					WithValues(fmt.Sprintf("%.1f", center), fmt.Sprintf("%.1f", box.CenterX()))
				report(tree, &out, id, v)
			}

			caption := r.caption(tree, id)
			if caption == doctree.NoID {
				v := tree.Violation(id, violation.Image, "image has no caption")
				report(tree, &out, id, v)
				continue
			}
			cb := tree.BBox(caption)
			if offCenter(cb, center, r.config.Tolerance) {
				v := tree.Violation(caption, violation.Image,
					fmt.Sprintf("image caption is not centered: center at %.1fpt, expected %.1fpt", cb.CenterX(), center)).
					WithValues(fmt.Sprintf("%.1f", center), fmt.Sprintf("%.1f", cb.CenterX()))
				report(tree, &out, caption, v)
			}
		}
	}
	return out
}

// caption returns the image's next sibling when it is a nearby paragraph
// that reads like a figure caption.
func (r *ImageRule) caption(tree *doctree.Tree, imageID doctree.ID) doctree.ID {
	next := tree.NextSibling(imageID)
	if next == doctree.NoID || tree.Kind(next) != doctree.KindParagraph {
		return doctree.NoID
	}
	if tree.BBox(next).Y0-tree.BBox(imageID).Y1 >= r.config.CaptionGap {
		return doctree.NoID
	}
	if !imageCaption.MatchString(normText(tree, next)) {
		return doctree.NoID
	}
	return next
}

// TableConfig holds configuration for table placement.
type TableConfig struct {
	// Left and Right are the page margins that define the work area.
	// Default: 30mm and 20mm
	Left, Right float64

	// Tolerance is the allowed offset of a table's center from the work
	// area center, and of a caption's center from its table's.
	// Default: 7pt
	Tolerance float64

	// CaptionGap is the largest distance between a caption's bottom and the
	// table's top.
	// Default: 40pt
	CaptionGap float64
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{Left: doctree.MM(30), Right: doctree.MM(20), Tolerance: 7, CaptionGap: 40}
}

// TableRule checks that tables are centered and preceded by a centered
// "Таблица N — title" caption.
type TableRule struct {
	config TableConfig
}

// NewTableRule creates a table rule.
func NewTableRule(config TableConfig) *TableRule {
	return &TableRule{config: config}
}

func (r *TableRule) Name() string { return "table" }

func (r *TableRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	for _, pageID := range tree.Pages() {
		center := workCenter(tree.BBox(pageID), r.config.Left, r.config.Right)
		for _, id := range tree.Children(pageID) {
			if tree.Kind(id) != doctree.KindTable {
				continue
			}
			box := tree.BBox(id)
			if offCenter(box, center, r.config.Tolerance) {
				v := tree.Violation(id, violation.TableAlignment,
					fmt.Sprintf("table is not centered: center at %.1fpt, expected %.1fpt", box.CenterX(), center)).
					WithValues(fmt.Sprintf("%.1f", center), fmt.Sprintf("%.1f", box.CenterX()))
				report(tree, &out, id, v)
			}

			caption := r.caption(tree, pageID, box)
			if caption == doctree.NoID {
				v := tree.Violation(id, violation.TableCaption, "table has no caption above it")
				report(tree, &out, id, v)
				continue
			}
			text := normText(tree, caption)
			if !tableCaption.MatchString(text) {
				v := tree.Violation(caption, violation.TableCaption,
					fmt.Sprintf("table caption %q does not match \"Таблица N — title\"", text)).
					WithValues("Таблица N — title", text)
				report(tree, &out, caption, v)
			}
			cb := tree.BBox(caption)
			if offCenter(cb, box.CenterX(), r.config.Tolerance) {
				v := tree.Violation(caption, violation.TableCaption,
					fmt.Sprintf("table caption is not centered over the table: %.1fpt off", cb.CenterX()-box.CenterX())).
					WithValues(fmt.Sprintf("%.1f", box.CenterX()), fmt.Sprintf("%.1f", cb.CenterX()))
				report(tree, &out, caption, v)
			}
		}
	}
	return out
}

// caption finds the closest paragraph ending above the table within
// CaptionGap. Ties go to the earlier paragraph in reading order.
func (r *TableRule) caption(tree *doctree.Tree, pageID doctree.ID, table doctree.BBox) doctree.ID {
	best := doctree.NoID
	bestDist := math.Inf(1)
	for _, c := range tree.Children(pageID) {
		if tree.Kind(c) != doctree.KindParagraph {
			continue
		}
		b := tree.BBox(c)
		if b.Y1 > table.Y0 {
			continue
		}
		if d := table.Y0 - b.Y1; d < r.config.CaptionGap && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func offCenter(box doctree.BBox, center, tol float64) bool {
	return math.Abs(box.CenterX()-center) > tol
}

func normText(tree *doctree.Tree, id doctree.ID) string {
	return strings.TrimSpace(norm.NFC.String(tree.Text(id)))
}
