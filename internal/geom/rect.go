package geom

import (
	"encoding/json"
	"fmt"
	"image"

	"gopkg.in/yaml.v3"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x" yaml:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y" yaml:"y"` // Vertical position (0 = topmost)
}

// Sub returns the component-wise difference p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an integer bounding box.
//
// The JSON field names match the stored template format:
//
//	{"left": 230, "top": 60, "right": 490, "bottom": 86}
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// NewRect builds a Rect from two opposite corners, swapping edges as needed
// so that the result is normalized.
func NewRect(left, top, right, bottom int) Rect {
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}.normalize()
}

// FromImageRect converts an image.Rectangle to a Rect.
func FromImageRect(r image.Rectangle) Rect {
	return NewRect(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

// ImageRect converts the Rect to an image.Rectangle with the same corners.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Width returns Right - Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// TopLeft returns the (Left, Top) corner.
func (r Rect) TopLeft() Point { return Point{X: r.Left, Y: r.Top} }

// Center returns the midpoint of the rectangle, truncated toward zero.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Contains reports whether pt lies inside r, edges included.
func (r Rect) Contains(pt Point) bool {
	return r.Left <= pt.X && pt.X <= r.Right && r.Top <= pt.Y && pt.Y <= r.Bottom
}

// Union returns the smallest Rect enclosing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Scale multiplies every coordinate by the given factors. Results are
// truncated toward zero. A negative factor mirrors the rectangle; the result
// is normalized again.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{
		Left:   int(float64(r.Left) * sx),
		Top:    int(float64(r.Top) * sy),
		Right:  int(float64(r.Right) * sx),
		Bottom: int(float64(r.Bottom) * sy),
	}.normalize()
}

// Offset translates the rectangle by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Transform scales r by (sx, sy) and then translates it by (dx, dy).
func (r Rect) Transform(sx, sy float64, dx, dy int) Rect {
	return r.Scale(sx, sy).Offset(dx, dy)
}

// String formats the rectangle as "(left,top)-(right,bottom)".
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// UnionAll returns the union of all rects and false when rects is empty.
func UnionAll(rects ...Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, rc := range rects[1:] {
		out = out.Union(rc)
	}
	return out, true
}

// UnmarshalJSON decodes a Rect and normalizes swapped edges.
func (r *Rect) UnmarshalJSON(data []byte) error {
	type plain Rect
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rect(p).normalize()
	return nil
}

// UnmarshalYAML decodes a Rect and normalizes swapped edges.
func (r *Rect) UnmarshalYAML(value *yaml.Node) error {
	type plain Rect
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Rect(p).normalize()
	return nil
}

func (r Rect) normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}
