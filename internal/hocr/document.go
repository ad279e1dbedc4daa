package hocr

import (
	"strings"

	"github.com/connoisseur/noisseur/internal/geom"
)

// Word is a single recognized word.
type Word struct {
	// Text is the recognized text with surrounding whitespace removed.
	Text string `json:"text"`

	// BBox is the word's bounding box in the OCR'd image.
	BBox geom.Rect `json:"bbox"`

	// Confidence is the engine's word confidence (x_wconf), 0 to 100.
	Confidence float64 `json:"confidence"`

	// CharConfidence is the mean x_conf over the word's characters.
	CharConfidence float64 `json:"char_confidence"`
}

// Line is an ordered run of words sharing a baseline.
type Line struct {
	BBox  geom.Rect `json:"bbox"`
	Words []Word    `json:"words"`
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Document is the parsed result of one OCR run.
type Document struct {
	Lines []Line `json:"lines"`
}

// Empty reports whether the document holds no words at all.
func (d *Document) Empty() bool {
	if d == nil {
		return true
	}
	for _, l := range d.Lines {
		if len(l.Words) > 0 {
			return false
		}
	}
	return true
}

// WordCount returns the number of words across all lines.
func (d *Document) WordCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, l := range d.Lines {
		n += len(l.Words)
	}
	return n
}

// Text returns the document text, one line per row.
func (d *Document) Text() string {
	if d == nil {
		return ""
	}
	rows := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		rows[i] = l.Text()
	}
	return strings.Join(rows, "\n")
}
