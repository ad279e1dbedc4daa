// Package match aligns screen templates with OCR output and reads field
// values through the alignment.
//
// # Alignment
//
// A ModelMatch is an offset and a scale. Template coordinates are scaled
// first and offset second:
//
//	doc = template*scale + offset
//
// Matcher finds the alignment by locating the text of a template's control
// item among the recognized lines. The first template (in registry order)
// whose control text is found wins; when none is found the result is nil,
// which callers treat as "not recognized" rather than as an error.
//
// # Extraction
//
// Extractor maps each item rectangle into document coordinates and collects
// the words whose bounding-box centers fall inside it. List items are split
// into fixed-height rows, each read with a row template. Every kept row
// carries its band position under IndexField, so gaps left by empty rows
// stay visible.
//
// A list item that names an unknown row template yields *ConfigError. That
// error is a template defect and is returned to the caller, unlike missing
// matches which are ordinary outcomes.
package match
