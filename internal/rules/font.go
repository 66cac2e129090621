package rules

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/violation"
	"golang.org/x/text/unicode/norm"
)

// FontConfig holds configuration for the font check.
type FontConfig struct {
	// Fonts lists approved family names. A span passes when its resolved
	// font name contains one of them, ignoring whitespace.
	// Default: ["TimesNewRoman"]
	Fonts []string

	// MinSize and MaxSize bound the span size in points.
	// Default: 12 and 14
	MinSize float64
	MaxSize float64

	// SizeTolerance widens the size range on both ends.
	// Default: 0.1
	SizeTolerance float64

	// MaxColorChannel is the largest allowed value of each color channel,
	// as a fraction of full scale. Zero disables the color check.
	// Default: 0.12
	MaxColorChannel float64
}

// DefaultFontConfig returns the default font configuration.
func DefaultFontConfig() FontConfig {
	return FontConfig{
		Fonts:           []string{"TimesNewRoman"},
		MinSize:         12,
		MaxSize:         14,
		SizeTolerance:   0.1,
		MaxColorChannel: 0.12,
	}
}

// FontRule checks every span's font family, size and color. Findings are
// reported on the span's nearest paragraph or heading; spans outside one
// are not reported.
type FontRule struct {
	config FontConfig
	fonts  []string
}

// NewFontRule creates a font rule.
func NewFontRule(config FontConfig) *FontRule {
	fonts := make([]string, 0, len(config.Fonts))
	for _, f := range config.Fonts {
		if f = squash(f); f != "" {
			fonts = append(fonts, f)
		}
	}
	return &FontRule{config: config, fonts: fonts}
}

func (r *FontRule) Name() string { return "font" }

type fontVisitor struct {
	doctree.BaseVisitor
	rule *FontRule
	tree *doctree.Tree
	out  []violation.Violation
}

func (r *FontRule) Check(tree *doctree.Tree) []violation.Violation {
	v := &fontVisitor{rule: r, tree: tree}
	tree.Traverse(tree.Root(), v)
	return v.out
}

func (v *fontVisitor) VisitSpan(n *doctree.Node, span *doctree.Span) {
	target := v.tree.NearestAncestor(n.ID(), doctree.KindParagraph, doctree.KindHeading)
	if target == doctree.NoID {
		return
	}
	origin := n.Ref()
	add := func(cat violation.Category, msg, expected, found string) {
		viol := v.tree.Violation(target, cat, msg).WithValues(expected, found)
		viol.Origin = &origin
		report(v.tree, &v.out, target, viol)
	}

	cfg := v.rule.config
	if !v.rule.approvedFont(span.Font) {
		add(violation.Font,
			fmt.Sprintf("wrong font %q, expected one of %s", span.Font, strings.Join(cfg.Fonts, ", ")),
			strings.Join(cfg.Fonts, ", "), span.Font)
	}
	if span.Size < cfg.MinSize-cfg.SizeTolerance || span.Size > cfg.MaxSize+cfg.SizeTolerance {
		add(violation.FontSize,
			fmt.Sprintf("wrong font size %.1f, allowed %g-%g", span.Size, cfg.MinSize, cfg.MaxSize),
			fmt.Sprintf("%g-%g", cfg.MinSize, cfg.MaxSize), fmt.Sprintf("%.1f", span.Size))
	}
	if cfg.MaxColorChannel > 0 && span.Color != nil && !nearBlack(*span.Color, cfg.MaxColorChannel) {
		add(violation.Font,
			fmt.Sprintf("text color #%06x is not black", *span.Color&0xffffff),
			"#000000", fmt.Sprintf("#%06x", *span.Color&0xffffff))
	}
}

func (r *FontRule) approvedFont(name string) bool {
	if len(r.fonts) == 0 {
		return true
	}
	got := squash(name)
	for _, f := range r.fonts {
		if strings.Contains(got, f) {
			return true
		}
	}
	return false
}

// squash NFC-normalises s and drops all whitespace.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, norm.NFC.String(s))
}

func nearBlack(color int, max float64) bool {
	for _, shift := range []int{16, 8, 0} {
		if float64((color>>shift)&0xff)/255 >= max {
			return false
		}
	}
	return true
}
