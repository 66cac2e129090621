// Package checker is the single entry point from raw extraction output to
// formatting findings: it reconstructs the document tree and runs the rule
// engine over it.
package checker

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/dgallion1/docstyle/internal/config"
	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/layout"
	"github.com/dgallion1/docstyle/internal/parser"
	"github.com/dgallion1/docstyle/internal/rules"
	"github.com/dgallion1/docstyle/internal/violation"
)

// Result is the outcome of checking one document.
type Result struct {
	Tree       *doctree.Tree
	Violations []violation.Violation
	Stats      []layout.Stats
	Pages      int
}

// Checker validates documents against one style standard. It is safe for
// concurrent use.
type Checker struct {
	standard config.Standard
	layout   *layout.Reconstructor
	engine   *rules.Engine
	log      *slog.Logger
}

// New creates a checker for std. Names in std.Disabled must be rule names.
func New(std config.Standard, log *slog.Logger) (*Checker, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	layoutCfg, engine := FromStandard(std)
	known := engine.Names()
	for _, name := range std.Disabled {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown rule %q in disabled list (known: %v)", name, known)
		}
	}
	layoutCfg.Logger = log
	return &Checker{
		standard: std,
		layout:   layout.NewWithConfig(layoutCfg),
		engine:   engine.Without(std.Disabled...).WithLogger(log),
		log:      log,
	}, nil
}

// Default returns a checker for the default standard.
func Default() *Checker {
	c, err := New(config.DefaultStandard(), nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Standard returns the checker's standard.
func (c *Checker) Standard() config.Standard { return c.standard }

// Rules returns the names of the rules the checker runs.
func (c *Checker) Rules() []string { return c.engine.Names() }

// Validate reconstructs doc and returns every finding in rule order. A
// document that cannot be reconstructed returns a nil slice and an error
// wrapping layout.ErrEmptyDocument or layout.ErrMalformedInput; a clean
// document returns an empty, non-nil slice.
func (c *Checker) Validate(doc *parser.Document) ([]violation.Violation, error) {
	res, err := c.Check(doc)
	if err != nil {
		return nil, err
	}
	return res.Violations, nil
}

// Check is Validate that also returns the tree and reconstruction stats.
func (c *Checker) Check(doc *parser.Document) (*Result, error) {
	tree, stats, err := c.layout.BuildWithStats(doc)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	vs := c.engine.Run(tree)
	if vs == nil {
		vs = []violation.Violation{}
	}
	return &Result{Tree: tree, Violations: vs, Stats: stats, Pages: tree.PageCount()}, nil
}

// CheckReader parses r with the backend for filename's extension and checks
// the result.
func (c *Checker) CheckReader(r io.Reader, filename string) (*Result, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return c.Check(doc)
}

// FromStandard maps a standard onto the reconstruction config and a full
// rule engine. Disabled rules are not removed here.
func FromStandard(std config.Standard) (layout.Config, *rules.Engine) {
	mm, cm := doctree.MM, doctree.CM
	left, right := mm(std.Margins.LeftMM), mm(std.Margins.RightMM)

	layoutCfg := layout.DefaultConfig()
	layoutCfg.LineTolerance = std.Layout.LineTolerancePt
	layoutCfg.PageLeft = left
	layoutCfg.RedIndent = cm(std.Layout.RedIndentCM)
	layoutCfg.SizeTolerance = std.Layout.SizeTolerance
	layoutCfg.GapFactor = std.Layout.GapFactor
	layoutCfg.DetectHeadings = std.Layout.DetectHeadings

	var firstLineIndent float64
	if std.Justification.IndentedFirstLine {
		firstLineIndent = cm(std.Indent.FirstLineCM)
	}

	engine := rules.NewEngine(
		rules.NewFontRule(rules.FontConfig{
			Fonts:           std.Fonts,
			MinSize:         std.FontSize.Min,
			MaxSize:         std.FontSize.Max,
			SizeTolerance:   std.FontSize.Tolerance,
			MaxColorChannel: std.MaxColor,
		}),
		rules.NewHeadingRule(),
		rules.NewPageLayoutRule(rules.PageLayoutConfig{
			Top:                   mm(std.Margins.TopMM),
			Bottom:                mm(std.Margins.BottomMM),
			Left:                  left,
			Right:                 right,
			MarginTolerance:       mm(std.Margins.ToleranceMM),
			NumberMinBottom:       mm(std.PageNumber.MinBottomMM),
			NumberMaxBottom:       mm(std.PageNumber.MaxBottomMM),
			NumberCenterTolerance: cm(std.PageNumber.CenterToleranceCM),
			NumberFromPage:        std.PageNumber.FromPage,
		}),
		rules.NewJustificationRule(rules.JustificationConfig{
			Left:            left,
			Right:           right,
			LeftTolerance:   std.Justification.LeftTolerancePt,
			RightTolerance:  std.Justification.RightTolerancePt,
			MinFraction:     std.Justification.MinFraction,
			FirstLineIndent: firstLineIndent,
		}),
		rules.NewIndentRule(rules.IndentConfig{
			Indent:    cm(std.Indent.FirstLineCM),
			Tolerance: std.Indent.TolerancePt,
		}),
		rules.NewSpacingRule(rules.SpacingConfig{
			Multiplier:     std.Spacing.Multiplier,
			Tolerance:      std.Spacing.Tolerance,
			MaxBadFraction: std.Spacing.MaxBadFraction,
		}),
		rules.NewImageRule(rules.ImageConfig{
			Left:       left,
			Right:      right,
			Tolerance:  std.Figures.CenterTolerancePt,
			CaptionGap: std.Figures.CaptionGapPt,
		}),
		rules.NewTableRule(rules.TableConfig{
			Left:       left,
			Right:      right,
			Tolerance:  std.Figures.CenterTolerancePt,
			CaptionGap: std.Figures.CaptionGapPt,
		}),
	)
	return layoutCfg, engine
}
