package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// operation is an entry of the static pipeline table.
type operation struct {
	arity int
	// check validates arguments at parse time; nil accepts anything.
	check func(args []float64) error
	apply func(img image.Image, args []float64) image.Image
	// geometric marks operations that change pixel coordinates.
	geometric bool
}

var operations = map[string]operation{
	"scale": {
		arity:     1,
		check:     positive,
		apply:     scale,
		geometric: true,
	},
	"sharpen": {
		apply: func(img image.Image, _ []float64) image.Image {
			return imaging.Sharpen(img, 1.0)
		},
	},
	"bw": {
		apply: func(img image.Image, _ []float64) image.Image {
			return effect.Grayscale(img)
		},
	},
	"threshold": {
		arity: 1,
		check: byteRange,
		apply: func(img image.Image, args []float64) image.Image {
			return segment.Threshold(img, uint8(args[0]))
		},
	},
	"border": {
		arity:     1,
		check:     nonNegativeInt,
		apply:     border,
		geometric: true,
	},
	"invert": {
		apply: func(img image.Image, _ []float64) image.Image {
			return imaging.Invert(img)
		},
	},
	"rotate": {
		arity: 1,
		check: finite,
		// Positive angles turn clockwise.
		apply: func(img image.Image, args []float64) image.Image {
			return imaging.Rotate(img, -args[0], color.White)
		},
		geometric: true,
	},
	"top": {
		arity:     1,
		check:     positiveInt,
		apply:     top,
		geometric: true,
	},
}

// Operations lists the names accepted by ParsePipeline, sorted.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func scale(img image.Image, args []float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * args[0])
	h := int(float64(b.Dy()) * args[0])
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// border pads the image with a white margin on every side.
func border(img image.Image, args []float64) image.Image {
	width := int(args[0])
	if width == 0 {
		return img
	}
	return Pad(img, width, color.White)
}

// top keeps the first rows of the image.
func top(img image.Image, args []float64) image.Image {
	b := img.Bounds()
	height := min(int(args[0]), b.Dy())
	return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+height))
}

var (
	errNotPositive = errors.New("must be greater than zero")
	errNotInteger  = errors.New("must be a whole number")
	errNotByte     = errors.New("must be between 0 and 255")
	errNegative    = errors.New("must not be negative")
	errNotFinite   = errors.New("must be a finite number")
)

func finite(args []float64) error {
	if math.IsInf(args[0], 0) || math.IsNaN(args[0]) {
		return errNotFinite
	}
	return nil
}

func positive(args []float64) error {
	if args[0] <= 0 || math.IsInf(args[0], 0) || math.IsNaN(args[0]) {
		return errNotPositive
	}
	return nil
}

func positiveInt(args []float64) error {
	if err := positive(args); err != nil {
		return err
	}
	if args[0] != math.Trunc(args[0]) {
		return errNotInteger
	}
	return nil
}

func nonNegativeInt(args []float64) error {
	if args[0] < 0 {
		return errNegative
	}
	if args[0] != math.Trunc(args[0]) || math.IsInf(args[0], 0) {
		return errNotInteger
	}
	return nil
}

func byteRange(args []float64) error {
	if args[0] < 0 || args[0] > 255 {
		return errNotByte
	}
	if args[0] != math.Trunc(args[0]) {
		return errNotInteger
	}
	return nil
}
