package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

var ErrStandardNotFound = errors.New("style standard not found")

const (
	localStandardFile = ".docstyle.yaml"
	xdgStandardFile   = "docstyle/standard.yaml"
	xdgHistoryFile    = "docstyle/history.db"
)

// Standard is a formatting profile. Lengths carry their unit in the field
// name; the checker converts them to points.
type Standard struct {
	Name          string             `yaml:"name"`
	Fonts         []string           `yaml:"fonts"`
	FontSize      FontSizeStandard   `yaml:"font_size"`
	MaxColor      float64            `yaml:"max_color"`
	Margins       MarginStandard     `yaml:"margins"`
	PageNumber    PageNumberStandard `yaml:"page_number"`
	Indent        IndentStandard     `yaml:"indent"`
	Spacing       SpacingStandard    `yaml:"spacing"`
	Justification JustifyStandard    `yaml:"justification"`
	Figures       FigureStandard     `yaml:"figures"`
	Layout        LayoutStandard     `yaml:"layout"`
	Disabled      []string           `yaml:"disabled,omitempty"`
}

type FontSizeStandard struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Tolerance float64 `yaml:"tolerance"`
}

type MarginStandard struct {
	TopMM       float64 `yaml:"top_mm"`
	BottomMM    float64 `yaml:"bottom_mm"`
	LeftMM      float64 `yaml:"left_mm"`
	RightMM     float64 `yaml:"right_mm"`
	ToleranceMM float64 `yaml:"tolerance_mm"`
}

type PageNumberStandard struct {
	FromPage          int     `yaml:"from_page"`
	MinBottomMM       float64 `yaml:"min_bottom_mm"`
	MaxBottomMM       float64 `yaml:"max_bottom_mm"`
	CenterToleranceCM float64 `yaml:"center_tolerance_cm"`
}

type IndentStandard struct {
	FirstLineCM float64 `yaml:"first_line_cm"`
	TolerancePt float64 `yaml:"tolerance_pt"`
}

type SpacingStandard struct {
	Multiplier     float64 `yaml:"multiplier"`
	Tolerance      float64 `yaml:"tolerance"`
	MaxBadFraction float64 `yaml:"max_bad_fraction"`
}

type JustifyStandard struct {
	MinFraction      float64 `yaml:"min_fraction"`
	LeftTolerancePt  float64 `yaml:"left_tolerance_pt"`
	RightTolerancePt float64 `yaml:"right_tolerance_pt"`
	// IndentedFirstLine counts a first line starting at the indent.first_line_cm
	// offset as meeting the left margin. When false every non-last line must
	// start at the margin itself.
	IndentedFirstLine bool `yaml:"indented_first_line"`
}

type FigureStandard struct {
	CenterTolerancePt float64 `yaml:"center_tolerance_pt"`
	CaptionGapPt      float64 `yaml:"caption_gap_pt"`
}

type LayoutStandard struct {
	LineTolerancePt float64 `yaml:"line_tolerance_pt"`
	RedIndentCM     float64 `yaml:"red_indent_cm"`
	SizeTolerance   float64 `yaml:"size_tolerance"`
	GapFactor       float64 `yaml:"gap_factor"`
	DetectHeadings  bool    `yaml:"detect_headings"`
}

// DefaultStandard returns the GOST 7.32 profile.
func DefaultStandard() Standard {
	return Standard{
		Name:     "GOST 7.32",
		Fonts:    []string{"TimesNewRoman"},
		FontSize: FontSizeStandard{Min: 12, Max: 14, Tolerance: 0.1},
		MaxColor: 0.12,
		Margins: MarginStandard{
			TopMM: 20, BottomMM: 20, LeftMM: 30, RightMM: 20, ToleranceMM: 1,
		},
		PageNumber: PageNumberStandard{
			FromPage: 1, MinBottomMM: 5, MaxBottomMM: 20, CenterToleranceCM: 0.2,
		},
		Indent:        IndentStandard{FirstLineCM: 1.25, TolerancePt: 4},
		Spacing:       SpacingStandard{Multiplier: 1.5, Tolerance: 0.15, MaxBadFraction: 0.3},
		Justification: JustifyStandard{MinFraction: 0.7, LeftTolerancePt: 10, RightTolerancePt: 12, IndentedFirstLine: true},
		Figures:       FigureStandard{CenterTolerancePt: 7, CaptionGapPt: 40},
		Layout: LayoutStandard{
			LineTolerancePt: 2, RedIndentCM: 0.1, SizeTolerance: 0.1, GapFactor: 1.5,
		},
	}
}

// ParseStandard decodes YAML over the default profile, so a file only needs
// the values it changes. Unknown keys are rejected.
func ParseStandard(r io.Reader) (Standard, error) {
	s := DefaultStandard()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Standard{}, fmt.Errorf("decode standard: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Standard{}, err
	}
	return s, nil
}

// LoadStandard reads a standard from path.
func LoadStandard(path string) (Standard, error) {
	f, err := os.Open(path)
	if err != nil {
		return Standard{}, fmt.Errorf("open standard: %w", err)
	}
	defer f.Close()
	s, err := ParseStandard(f)
	if err != nil {
		return Standard{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// FindStandardFile returns the first existing standard file: explicit when
// set, then ./.docstyle.yaml, then docstyle/standard.yaml under the XDG
// config directories.
func FindStandardFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", ErrStandardNotFound, explicit)
		}
		return explicit, nil
	}
	if _, err := os.Stat(localStandardFile); err == nil {
		return localStandardFile, nil
	}
	if p, err := xdg.SearchConfigFile(xdgStandardFile); err == nil {
		return p, nil
	}
	return "", ErrStandardNotFound
}

// ResolveStandard loads the standard found by FindStandardFile, or the
// default profile when no file exists and none was named explicitly. The
// returned path is empty for the default profile.
func ResolveStandard(explicit string) (Standard, string, error) {
	path, err := FindStandardFile(explicit)
	if errors.Is(err, ErrStandardNotFound) && explicit == "" {
		return DefaultStandard(), "", nil
	}
	if err != nil {
		return Standard{}, "", err
	}
	s, err := LoadStandard(path)
	if err != nil {
		return Standard{}, "", err
	}
	return s, path, nil
}

// YAML encodes the standard.
func (s Standard) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s Standard) Validate() error {
	switch {
	case s.FontSize.Min <= 0 || s.FontSize.Max < s.FontSize.Min:
		return fmt.Errorf("font_size: invalid range %g..%g", s.FontSize.Min, s.FontSize.Max)
	case s.Margins.TopMM < 0 || s.Margins.BottomMM < 0 || s.Margins.LeftMM < 0 || s.Margins.RightMM < 0:
		return fmt.Errorf("margins: negative margin")
	case s.PageNumber.MinBottomMM > s.PageNumber.MaxBottomMM:
		return fmt.Errorf("page_number: min_bottom_mm exceeds max_bottom_mm")
	case s.Spacing.Multiplier <= 0:
		return fmt.Errorf("spacing: multiplier must be positive")
	case s.Spacing.MaxBadFraction < 0 || s.Spacing.MaxBadFraction > 1:
		return fmt.Errorf("spacing: max_bad_fraction must be within 0..1")
	case s.Justification.MinFraction < 0 || s.Justification.MinFraction > 1:
		return fmt.Errorf("justification: min_fraction must be within 0..1")
	case s.Layout.LineTolerancePt <= 0 || s.Layout.GapFactor <= 0:
		return fmt.Errorf("layout: line_tolerance_pt and gap_factor must be positive")
	}
	return nil
}

// DefaultDBPath returns the history database path under the XDG data
// directory, creating its parent directory.
func DefaultDBPath() (string, error) {
	return xdg.DataFile(xdgHistoryFile)
}
