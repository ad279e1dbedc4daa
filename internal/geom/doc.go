// Package geom provides the integer rectangle and point types shared by the
// template, hOCR, and matching packages.
//
// # Coordinate System
//
// Coordinates follow the image convention used throughout noisseur:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward, Y increases downward
//   - A Rect is closed on all four edges: Contains treats points lying on
//     the right or bottom edge as inside
//
// # Invariants
//
// Every constructor and transform keeps Left <= Right and Top <= Bottom.
// Rect values are immutable; Scale, Offset, Union and Transform return new
// values and never modify the receiver.
//
// When a rectangle must be both scaled and translated (template coordinates
// mapped onto a recognized document), the scale is applied first and the
// offset second. Transform encodes that order so callers cannot mix it up.
package geom
