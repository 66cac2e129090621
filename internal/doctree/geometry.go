package doctree

import (
	"encoding/json"
	"fmt"
	"math"
)

// PointsPerCM converts centimetres to PDF points.
const PointsPerCM = 28.35

// CM converts centimetres to points.
func CM(v float64) float64 { return v * PointsPerCM }

// MM converts millimetres to points.
func MM(v float64) float64 { return v * PointsPerCM / 10 }

// ToCM converts points to centimetres.
func ToCM(pt float64) float64 { return pt / PointsPerCM }

// ToMM converts points to millimetres.
func ToMM(pt float64) float64 { return pt / PointsPerCM * 10 }

// BBox is an axis-aligned rectangle in page coordinates. The origin is the
// top-left corner of the page and y grows downward.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// NewBBox builds a box from its corners.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// IsZero reports whether b is the zero box, used as "no geometry".
func (b BBox) IsZero() bool {
	return b == BBox{}
}

// Width returns the horizontal extent.
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent.
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// CenterX returns the horizontal center.
func (b BBox) CenterX() float64 { return (b.X0 + b.X1) / 2 }

// CenterY returns the vertical center.
func (b BBox) CenterY() float64 { return (b.Y0 + b.Y1) / 2 }

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Intersects reports whether b and o share a non-empty area. Boxes that only
// touch along an edge do not intersect.
func (b BBox) Intersects(o BBox) bool {
	return math.Max(b.X0, o.X0) < math.Min(b.X1, o.X1) &&
		math.Max(b.Y0, o.Y0) < math.Min(b.Y1, o.Y1)
}

// Array returns the box as [x0, y0, x1, y1].
func (b BBox) Array() [4]float64 {
	return [4]float64{b.X0, b.Y0, b.X1, b.Y1}
}

// UnionAll unions a non-empty list of boxes. It returns the zero box for an
// empty list.
func UnionAll(boxes []BBox) BBox {
	if len(boxes) == 0 {
		return BBox{}
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out
}

func (b BBox) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f, %.1f)", b.X0, b.Y0, b.X1, b.Y1)
}

// MarshalJSON encodes the box as a four-element array.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Array())
}

// UnmarshalJSON decodes a four-element array.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("bbox: %w", err)
	}
	if len(arr) != 4 {
		return fmt.Errorf("bbox: expected 4 coordinates, got %d", len(arr))
	}
	*b = BBox{X0: arr[0], Y0: arr[1], X1: arr[2], Y1: arr[3]}
	return nil
}
