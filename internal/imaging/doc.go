// Package imaging prepares screenshots for OCR.
//
// The central type is Pipeline, a chain of image operations parsed from a
// compact text form such as "scale(3.1)|sharpen|bw|border(30)". Operations
// come from a fixed table:
//
//   - scale(f): resize by factor f (Lanczos)
//   - sharpen: unsharp mask
//   - bw: convert to grayscale
//   - threshold(n): binarize, pixels with luminance >= n become white
//   - border(w): add a white margin of w pixels on every side
//   - invert: negate colors
//   - rotate(deg): rotate clockwise, filling with white
//   - top(h): keep the first h rows
//
// ParsePipeline rejects unknown names and malformed arguments, so a parsed
// Pipeline always applies cleanly.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Scale and Border report how a
// pipeline moves coordinates: a point (x, y) of the input lands at
// (x*Scale()+Border(), y*Scale()+Border()) in the output of a pipeline made
// of scale and border steps. PreservesGeometry is true when input and output
// coordinates are identical.
//
// # Supporting Helpers
//
// ColorRange tests pixels against an RGB range, Crop and Pad cut and frame
// regions, and ReadFile, Decode and EncodePNG move images between bytes and
// image.Image values.
//
// # Thread Safety
//
// Pipelines are immutable once parsed and may be shared between goroutines.
// All helpers are stateless.
package imaging
