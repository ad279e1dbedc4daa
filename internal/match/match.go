package match

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/connoisseur/noisseur/internal/geom"
	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/template"
)

// Templates supplies the current template registry. *template.Store
// implements it.
type Templates interface {
	Registry() *template.Registry
}

// ModelMatch aligns a template with a recognized document: a template
// coordinate c maps to c*scale + offset in document coordinates.
type ModelMatch struct {
	Model   *template.Model
	OffsetX int
	OffsetY int
	ScaleX  float64
	ScaleY  float64
}

// Offset returns the translation as a point.
func (m *ModelMatch) Offset() geom.Point {
	return geom.Point{X: m.OffsetX, Y: m.OffsetY}
}

// Translate returns a copy moved by (dx, dy).
func (m *ModelMatch) Translate(dx, dy int) *ModelMatch {
	out := *m
	out.OffsetX += dx
	out.OffsetY += dy
	return &out
}

// Rescale returns a copy for an image enlarged by factor: the offset is
// multiplied by factor (truncated toward zero) and both scales become
// factor. It is used when an alignment found on the raw image must be
// applied to a document recognized from a scaled copy.
func (m *ModelMatch) Rescale(factor float64) *ModelMatch {
	out := *m
	out.OffsetX = int(float64(m.OffsetX) * factor)
	out.OffsetY = int(float64(m.OffsetY) * factor)
	out.ScaleX = factor
	out.ScaleY = factor
	return &out
}

// Map transforms a template rectangle into document coordinates.
func (m *ModelMatch) Map(r geom.Rect) geom.Rect {
	return r.Transform(m.ScaleX, m.ScaleY, m.OffsetX, m.OffsetY)
}

func (m *ModelMatch) String() string {
	id := ""
	if m.Model != nil {
		id = m.Model.ID
	}
	return fmt.Sprintf("%s offset=(%d,%d) scale=(%g,%g)", id, m.OffsetX, m.OffsetY, m.ScaleX, m.ScaleY)
}

// Matcher aligns templates with recognized documents.
type Matcher struct {
	templates Templates
	logger    *slog.Logger
}

// NewMatcher creates a matcher over the given templates. A nil logger uses
// slog.Default().
func NewMatcher(templates Templates, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{templates: templates, logger: logger}
}

// FindByHOCR tries every registered template in order and returns the first
// alignment found, or nil when no template matches.
func (m *Matcher) FindByHOCR(doc *hocr.Document, scale float64) *ModelMatch {
	return m.FindIn(m.templates.Registry(), doc, scale)
}

// FindIn is FindByHOCR against an explicit registry snapshot.
func (m *Matcher) FindIn(reg *template.Registry, doc *hocr.Document, scale float64) *ModelMatch {
	if reg == nil || doc.Empty() {
		return nil
	}
	for _, model := range reg.Models() {
		if mm := m.Match(doc, model, scale); mm != nil {
			return mm
		}
	}
	return nil
}

// Match aligns a single template with doc.
//
// The template's control item supplies ordered text candidates. For each
// candidate, lines containing it (case-insensitive) are scanned in order; in
// the first such line that has a word containing the candidate's first token,
// that word and the following words, one per token, form the anchor. The
// offset maps the center of the control item's rectangle, scaled by scale,
// onto the center of the anchor's bounding box.
//
// Returns nil when the template has no control item or no candidate is
// found. Candidates that are blank are skipped.
func (m *Matcher) Match(doc *hocr.Document, model *template.Model, scale float64) *ModelMatch {
	if doc == nil || model == nil {
		return nil
	}

	item := model.ControlItem()
	if item == nil {
		m.logger.Debug("template has no control point", "template", model.ID)
		return nil
	}

	for _, candidate := range item.Text {
		needle := strings.ToLower(candidate)
		tokens := strings.Fields(needle)
		if len(tokens) == 0 {
			continue
		}

		rc, ok := findAnchor(doc, needle, tokens)
		if !ok {
			continue
		}

		found := rc.Center()
		expected := item.Rect.Scale(scale, scale).Center()
		mm := &ModelMatch{
			Model:   model,
			OffsetX: found.X - expected.X,
			OffsetY: found.Y - expected.Y,
			ScaleX:  scale,
			ScaleY:  scale,
		}
		m.logger.Debug("template matched", "template", model.ID, "candidate", candidate, "anchor", rc.String(), "match", mm.String())
		return mm
	}
	return nil
}

// findAnchor locates the words spelling a candidate and returns the union of
// their boxes. A line that contains the candidate but has no word holding the
// first token is skipped; a run that would overflow the line fails the
// candidate.
func findAnchor(doc *hocr.Document, needle string, tokens []string) (geom.Rect, bool) {
	for _, line := range doc.Lines {
		if !strings.Contains(strings.ToLower(line.Text()), needle) {
			continue
		}

		start := -1
		for i, w := range line.Words {
			if strings.Contains(strings.ToLower(w.Text), tokens[0]) {
				start = i
				break
			}
		}
		if start < 0 {
			continue
		}
		if start+len(tokens) > len(line.Words) {
			return geom.Rect{}, false
		}

		rects := make([]geom.Rect, 0, len(tokens))
		for _, w := range line.Words[start : start+len(tokens)] {
			rects = append(rects, w.BBox)
		}
		return geom.UnionAll(rects...)
	}
	return geom.Rect{}, false
}
