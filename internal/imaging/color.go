package imaging

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorRange is an inclusive per-channel RGB range.
//
// A color is inside the range when each of its 8-bit red, green and blue
// components lies between the corresponding components of Min and Max.
// Fully transparent pixels are never inside.
type ColorRange struct {
	Min colorful.Color
	Max colorful.Color
}

// ParseColorRange builds a range from two "#RRGGBB" colors. Components of
// from greater than those of to are swapped.
func ParseColorRange(from, to string) (ColorRange, error) {
	lo, err := colorful.Hex(from)
	if err != nil {
		return ColorRange{}, fmt.Errorf("invalid color %q: %w", from, err)
	}
	hi, err := colorful.Hex(to)
	if err != nil {
		return ColorRange{}, fmt.Errorf("invalid color %q: %w", to, err)
	}

	lr, lg, lb := lo.RGB255()
	hr, hg, hb := hi.RGB255()
	return ColorRange{
		Min: rgb255(min(lr, hr), min(lg, hg), min(lb, hb)),
		Max: rgb255(max(lr, hr), max(lg, hg), max(lb, hb)),
	}, nil
}

// Contains reports whether c falls inside the range.
func (r ColorRange) Contains(c color.Color) bool {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return false
	}
	cr, cg, cb := cc.RGB255()
	lr, lg, lb := r.Min.RGB255()
	hr, hg, hb := r.Max.RGB255()
	return lr <= cr && cr <= hr &&
		lg <= cg && cg <= hg &&
		lb <= cb && cb <= hb
}

// String formats the range as "#RRGGBB..#RRGGBB".
func (r ColorRange) String() string {
	return r.Min.Hex() + ".." + r.Max.Hex()
}

// Hex formats c as "#rrggbb", ignoring alpha.
func Hex(c color.Color) string {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cc.Hex()
}

func rgb255(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
}
