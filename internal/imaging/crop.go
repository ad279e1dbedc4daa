package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Crop cuts a region out of img. The result's origin is (0, 0).
//
// Returns an error if the region is empty or not fully inside the image.
func Crop(img image.Image, region image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: empty", region)
	}
	return imaging.Crop(img, region), nil
}

// Pad surrounds img with a margin of width pixels in the given color. The
// original pixel (x, y) ends up at (x+width, y+width) relative to the
// result's origin.
func Pad(img image.Image, width int, fill color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*width, b.Dy()+2*width, fill)
	return imaging.Paste(canvas, img, image.Pt(width, width))
}

// CropPad crops a region and pads it with a margin.
func CropPad(img image.Image, region image.Rectangle, width int, fill color.Color) (*image.NRGBA, error) {
	cropped, err := Crop(img, region)
	if err != nil {
		return nil, err
	}
	return Pad(cropped, width, fill), nil
}
