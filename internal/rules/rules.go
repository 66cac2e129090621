// Package rules holds the formatting checks run over a reconstructed
// document. Each rule is independent: it reads the tree, attaches its own
// findings to the offending nodes and returns them. Rules never change the
// tree's structure and never see each other's findings.
package rules

import (
	"log/slog"
	"slices"

	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/violation"
)

// Rule is a single formatting check.
type Rule interface {
	Name() string
	Check(tree *doctree.Tree) []violation.Violation
}

// Engine runs a fixed, ordered list of rules and concatenates their output.
// The order only affects the order of the result.
type Engine struct {
	rules []Rule
	log   *slog.Logger
}

// NewEngine creates an engine running rules in the given order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{rules: rules, log: slog.New(slog.DiscardHandler)}
}

// Default returns an engine with every rule at its default configuration:
// font, heading structure, page layout, justification, indent, spacing,
// image and table.
func Default() *Engine {
	return NewEngine(
		NewFontRule(DefaultFontConfig()),
		NewHeadingRule(),
		NewPageLayoutRule(DefaultPageLayoutConfig()),
		NewJustificationRule(DefaultJustificationConfig()),
		NewIndentRule(DefaultIndentConfig()),
		NewSpacingRule(DefaultSpacingConfig()),
		NewImageRule(DefaultImageConfig()),
		NewTableRule(DefaultTableConfig()),
	)
}

// WithLogger sets the logger used for per-rule debug output.
func (e *Engine) WithLogger(log *slog.Logger) *Engine {
	if log != nil {
		e.log = log
	}
	return e
}

// Without returns a copy of the engine minus the named rules.
func (e *Engine) Without(names ...string) *Engine {
	out := &Engine{log: e.log}
	for _, r := range e.rules {
		if !slices.Contains(names, r.Name()) {
			out.rules = append(out.rules, r)
		}
	}
	return out
}

// Rules returns the configured rules in run order.
func (e *Engine) Rules() []Rule { return e.rules }

// Names returns the rule names in run order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Run checks tree with every rule in order.
func (e *Engine) Run(tree *doctree.Tree) []violation.Violation {
	var out []violation.Violation
	for _, r := range e.rules {
		found := r.Check(tree)
		e.log.Debug("rule checked", "rule", r.Name(), "violations", len(found))
		out = append(out, found...)
	}
	return out
}

// report attaches v to node id and appends it to out.
func report(tree *doctree.Tree, out *[]violation.Violation, id doctree.ID, v violation.Violation) {
	tree.Attach(id, v)
	*out = append(*out, v)
}

// workCenter is the horizontal center of the page area inside the left and
// right margins.
func workCenter(page doctree.BBox, left, right float64) float64 {
	return (page.X0 + left + page.X1 - right) / 2
}

// pageParagraphs returns the Paragraph children of a page.
func pageParagraphs(tree *doctree.Tree, pageID doctree.ID) []doctree.ID {
	var out []doctree.ID
	for _, c := range tree.Children(pageID) {
		if tree.Kind(c) == doctree.KindParagraph {
			out = append(out, c)
		}
	}
	return out
}
