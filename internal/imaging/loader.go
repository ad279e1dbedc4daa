package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
)

// ImageInfo describes an encoded screenshot without decoding its pixels.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected encoding, e.g. "png" or "jpeg". Detection is
	// based on the file contents, not its name.
	Format string `json:"format"`

	// SizeBytes is the length of the encoded data.
	SizeBytes int64 `json:"size_bytes"`
}

// ReadFile loads an encoded image from disk and checks that it is an image.
//
// Parameters:
//   - path: Path to the image file. PNG, JPEG, GIF, TIFF and BMP are
//     supported.
//
// Returns:
//   - []byte: The file contents, unchanged.
//   - *ImageInfo: Dimensions and format.
//   - error: Non-nil if the file cannot be read or is not a supported image.
func ReadFile(path string) ([]byte, *ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	info, err := Inspect(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, info, nil
}

// Inspect reads the header of an encoded image.
func Inspect(data []byte) (*ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	return &ImageInfo{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		SizeBytes: int64(len(data)),
	}, nil
}

// Decode decodes an encoded image.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
