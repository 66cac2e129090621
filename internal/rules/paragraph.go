package rules

import (
	"fmt"
	"math"
	"slices"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/violation"
)

// JustificationConfig holds configuration for the justification check.
// Lengths are in points.
type JustificationConfig struct {
	// Left and Right are the page margins the text edges should meet.
	// Default: 30mm and 20mm
	Left, Right float64

	// LeftTolerance and RightTolerance bound the distance between a line
	// edge and its margin.
	// Default: 10pt and 12pt
	LeftTolerance, RightTolerance float64

	// MinFraction is the share of non-last lines that must meet both
	// margins.
	// Default: 0.7
	MinFraction float64

	// FirstLineIndent, when non-zero, lets the first line start this far
	// right of the left margin and still count as aligned. Zero compares
	// every non-last line against the margin.
	// Default: 1.25cm
	FirstLineIndent float64
}

// DefaultJustificationConfig returns the default justification configuration.
func DefaultJustificationConfig() JustificationConfig {
	return JustificationConfig{
		Left:            doctree.MM(30),
		Right:           doctree.MM(20),
		LeftTolerance:   10,
		RightTolerance:  12,
		MinFraction:     0.7,
		FirstLineIndent: doctree.CM(1.25),
	}
}

// JustificationRule checks that multi-line paragraphs are set flush with
// both margins, except for their last line which only needs the left one.
type JustificationRule struct {
	config JustificationConfig
}

// NewJustificationRule creates a justification rule.
func NewJustificationRule(config JustificationConfig) *JustificationRule {
	return &JustificationRule{config: config}
}

func (r *JustificationRule) Name() string { return "justification" }

func (r *JustificationRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	cfg := r.config
	for _, pageID := range tree.Pages() {
		page := tree.BBox(pageID)
		left := page.X0 + cfg.Left
		right := page.X1 - cfg.Right

		for _, id := range pageParagraphs(tree, pageID) {
			lines := lineBoxes(tree, id)
			if len(lines) < 2 {
				continue
			}
			body := lines[:len(lines)-1]
			aligned := 0
			for i, l := range body {
				okLeft := math.Abs(l.X0-left) <= cfg.LeftTolerance
				if !okLeft && i == 0 && cfg.FirstLineIndent > 0 {
					okLeft = math.Abs(l.X0-(left+cfg.FirstLineIndent)) <= cfg.LeftTolerance
				}
				if okLeft && math.Abs(l.X1-right) <= cfg.RightTolerance {
					aligned++
				}
			}
			fraction := float64(aligned) / float64(len(body))
			last := lines[len(lines)-1]
			lastOK := math.Abs(last.X0-left) <= cfg.LeftTolerance

			if fraction >= cfg.MinFraction && lastOK {
				continue
			}
			msg := fmt.Sprintf("paragraph is not justified: %d of %d lines meet both margins", aligned, len(body))
			if !lastOK {
				msg = fmt.Sprintf("paragraph is not justified: last line starts %.1fpt from the left margin", last.X0-left)
			}
			v := tree.Violation(id, violation.ParagraphJustified, msg).
				WithValues(fmt.Sprintf(">= %.0f%%", cfg.MinFraction*100), fmt.Sprintf("%.0f%%", fraction*100))
			report(tree, &out, id, v)
		}
	}
	return out
}

// IndentConfig holds configuration for the first-line indent check.
type IndentConfig struct {
	// Indent is the expected first-line offset from the paragraph's base
	// left edge.
	// Default: 1.25cm
	Indent float64

	// Tolerance is the allowed deviation from Indent.
	// Default: 4pt
	Tolerance float64
}

// DefaultIndentConfig returns the default indent configuration.
func DefaultIndentConfig() IndentConfig {
	return IndentConfig{Indent: doctree.CM(1.25), Tolerance: 4}
}

// IndentRule checks the first-line indent of multi-line paragraphs against
// the median left edge of their remaining lines.
type IndentRule struct {
	config IndentConfig
}

// NewIndentRule creates an indent rule.
func NewIndentRule(config IndentConfig) *IndentRule {
	return &IndentRule{config: config}
}

func (r *IndentRule) Name() string { return "indent" }

func (r *IndentRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	for _, pageID := range tree.Pages() {
		for _, id := range pageParagraphs(tree, pageID) {
			lines := lineBoxes(tree, id)
			if len(lines) < 2 {
				continue
			}
			lefts := make([]float64, 0, len(lines)-1)
			for _, l := range lines[1:] {
				lefts = append(lefts, l.X0)
			}
			slices.Sort(lefts)
			base := lefts[len(lefts)/2]
			indent := lines[0].X0 - base
			if math.Abs(indent-r.config.Indent) <= r.config.Tolerance {
				continue
			}
			v := tree.Violation(id, violation.ParagraphIndent,
				fmt.Sprintf("first-line indent is %.2fcm, expected %.2fcm", doctree.ToCM(indent), doctree.ToCM(r.config.Indent))).
				WithValues(fmt.Sprintf("%.2f", doctree.ToCM(r.config.Indent)), fmt.Sprintf("%.2f", doctree.ToCM(indent)))
			report(tree, &out, id, v)
		}
	}
	return out
}

// SpacingConfig holds configuration for the line spacing check.
type SpacingConfig struct {
	// Multiplier is the expected ratio of line pitch to line height.
	// Default: 1.5
	Multiplier float64

	// Tolerance is the half-width of the accepted band around Multiplier.
	// Default: 0.15
	Tolerance float64

	// MaxBadFraction is the share of line pairs that may fall outside the
	// band before the paragraph is flagged.
	// Default: 0.3
	MaxBadFraction float64
}

// DefaultSpacingConfig returns the default spacing configuration.
func DefaultSpacingConfig() SpacingConfig {
	return SpacingConfig{Multiplier: 1.5, Tolerance: 0.15, MaxBadFraction: 0.3}
}

// SpacingRule checks line spacing inside paragraphs. Every adjacent line
// pair yields a ratio (height + gap) / height; a paragraph is flagged when
// too many of its pairs fall outside the accepted band.
type SpacingRule struct {
	config SpacingConfig
}

// NewSpacingRule creates a line spacing rule.
func NewSpacingRule(config SpacingConfig) *SpacingRule {
	return &SpacingRule{config: config}
}

func (r *SpacingRule) Name() string { return "spacing" }

func (r *SpacingRule) Check(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	lo := r.config.Multiplier - r.config.Tolerance
	hi := r.config.Multiplier + r.config.Tolerance
	for _, pageID := range tree.Pages() {
		for _, id := range pageParagraphs(tree, pageID) {
			lines := lineBoxes(tree, id)
			if len(lines) < 2 {
				continue
			}
			var bad []float64
			for i := 1; i < len(lines); i++ {
				prev, cur := lines[i-1], lines[i]
				h := prev.Height()
				if h <= 0 {
					continue
				}
				ratio := (h + cur.Y0 - prev.Y1) / h
				if ratio < lo || ratio > hi {
					bad = append(bad, ratio)
				}
			}
			if len(bad) == 0 || float64(len(bad))/float64(len(lines)-1) <= r.config.MaxBadFraction {
				continue
			}
			found := median(bad)
			v := tree.Violation(id, violation.Spacing,
				fmt.Sprintf("line spacing %.2f in %d of %d line pairs, expected %.2f", found, len(bad), len(lines)-1, r.config.Multiplier)).
				WithValues(fmt.Sprintf("%.2f", r.config.Multiplier), fmt.Sprintf("%.2f", found))
			report(tree, &out, id, v)
		}
	}
	return out
}

// lineBoxes returns the bounding boxes of a paragraph's lines.
func lineBoxes(tree *doctree.Tree, id doctree.ID) []doctree.BBox {
	lines := tree.Lines(id)
	out := make([]doctree.BBox, len(lines))
	for i, l := range lines {
		out[i] = tree.BBox(l)
	}
	return out
}

func median(vs []float64) float64 {
	s := slices.Clone(vs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
