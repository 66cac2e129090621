// Package violation defines the record produced by every formatting check and
// the closed taxonomy of violation categories.
package violation

import (
	"fmt"
	"strings"
)

// Category classifies a violation. The set is closed; new checks reuse one of
// these values rather than inventing their own.
type Category int

const (
	General Category = iota
	Font
	FontSize
	Spacing
	HeadingStructure
	TableAlignment
	TableCaption
	Image
	Link
	PageMargin
	PageNumber
	ParagraphJustified
	ParagraphIndent
)

var categoryNames = [...]string{
	General:            "GENERAL",
	Font:               "FONT",
	FontSize:           "FONT_SIZE",
	Spacing:            "SPACING",
	HeadingStructure:   "HEADING_STRUCTURE",
	TableAlignment:     "TABLE_ALIGNMENT",
	TableCaption:       "TABLE_CAPTION",
	Image:              "IMAGE",
	Link:               "LINK",
	PageMargin:         "PAGE_MARGIN",
	PageNumber:         "PAGE_NUMBER",
	ParagraphJustified: "PARAGRAPH_JUSTIFIED",
	ParagraphIndent:    "PARAGRAPH_INDENT",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "GENERAL"
	}
	return categoryNames[c]
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts a category name, case-insensitively.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory looks up a category by name.
func ParseCategory(name string) (Category, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == want {
			return Category(i), nil
		}
	}
	return General, fmt.Errorf("unknown violation category: %q", name)
}

// NodeRef identifies the node a violation is anchored to.
type NodeRef struct {
	ID   uint64 `json:"id"`
	Kind string `json:"kind"`
}

// Violation is a single formatting finding. Node is the reportable node the
// finding is anchored to; Origin, when set, is the finer node that caused it
// (a span whose font is wrong is reported on its paragraph).
type Violation struct {
	Message  string     `json:"message"`
	Node     NodeRef    `json:"node"`
	Origin   *NodeRef   `json:"origin,omitempty"`
	Category Category   `json:"category"`
	Expected string     `json:"expected,omitempty"`
	Found    string     `json:"found,omitempty"`
	Page     int        `json:"page"` // 0-based, -1 when the node is not on a page
	BBox     [4]float64 `json:"bbox"`
}

// WithValues returns a copy of v carrying expected and found values.
func (v Violation) WithValues(expected, found string) Violation {
	v.Expected = expected
	v.Found = found
	return v
}

func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] page %d, %s #%d: %s", v.Category, v.Page+1, v.Node.Kind, v.Node.ID, v.Message)
	if v.Expected != "" || v.Found != "" {
		fmt.Fprintf(&b, " (expected %s, found %s)", v.Expected, v.Found)
	}
	return b.String()
}
