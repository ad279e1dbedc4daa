package caption

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/match"
	"github.com/connoisseur/noisseur/internal/template"
)

var (
	// ErrNoCaption means no title bar band was found in the image.
	ErrNoCaption = errors.New("no caption band")

	// ErrNotMatched means the band was read but no template anchored on it.
	ErrNotMatched = errors.New("caption not matched")
)

// OCR recognizes an encoded image after running it through a pipeline.
type OCR interface {
	Recognize(image []byte, pipeline string) (*hocr.Document, error)
}

// Config tunes the band scan.
type Config struct {
	// Colors is the range every sampled pixel of a band row must fall in.
	Colors imaging.ColorRange
	// Padding is the black margin added around the band before OCR.
	Padding int
	// Pipeline pre-processes the padded band. It must not move pixels.
	Pipeline string
}

// DefaultConfig matches a navy title bar: red and green 0, blue 121-129.
func DefaultConfig() Config {
	colors, _ := imaging.ParseColorRange("#000079", "#000081")
	return Config{
		Colors:   colors,
		Padding:  50,
		Pipeline: "bw",
	}
}

// Locator finds a screen's title bar by color, OCRs only that band and
// aligns templates against it.
//
// Reading a small, high contrast strip is faster and more reliable than
// matching the control point on a full-screen OCR run. The alignment is
// computed at the image's native resolution.
type Locator struct {
	ocr     OCR
	matcher *match.Matcher
	cfg     Config
	logger  *slog.Logger
}

// NewLocator creates a locator.
//
// Returns an error if the configured pipeline is invalid or changes pixel
// coordinates, since the band offset could then no longer be mapped back.
func NewLocator(ocr OCR, matcher *match.Matcher, cfg Config, logger *slog.Logger) (*Locator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := imaging.ParsePipeline(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("invalid caption pipeline: %w", err)
	}
	if !p.PreservesGeometry() {
		return nil, fmt.Errorf("caption pipeline %q must not resize, pad, rotate or crop", cfg.Pipeline)
	}
	if cfg.Padding < 0 {
		return nil, fmt.Errorf("caption padding must not be negative, got %d", cfg.Padding)
	}
	return &Locator{ocr: ocr, matcher: matcher, cfg: cfg, logger: logger}, nil
}

// FindBand scans the top third of img, between 25% and 75% of its width,
// for rows whose sampled pixels all fall in the configured color range.
//
// Returns:
//   - image.Rectangle: Full-width rectangle from the first qualifying row to
//     the last one (exclusive), in img's coordinates.
//   - bool: False when fewer than two rows apart qualify.
func (l *Locator) FindBand(img image.Image) (image.Rectangle, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	x0 := b.Min.X + int(float64(w)*0.25)
	x1 := b.Min.X + int(float64(w)*0.75)
	y1 := b.Min.Y + int(float64(h)*0.33)
	if x1 <= x0 {
		return image.Rectangle{}, false
	}

	first, last := -1, -1
	for y := b.Min.Y; y < y1; y++ {
		if !l.rowInRange(img, y, x0, x1) {
			continue
		}
		if first < 0 {
			first = y
		}
		last = y
	}

	if first < 0 || last <= first {
		return image.Rectangle{}, false
	}
	return image.Rect(b.Min.X, first, b.Max.X, last), true
}

func (l *Locator) rowInRange(img image.Image, y, x0, x1 int) bool {
	for x := x0; x < x1; x++ {
		if !l.cfg.Colors.Contains(img.At(x, y)) {
			return false
		}
	}
	return true
}

// Locate aligns a template using the caption band. It returns nil when the
// band is missing, cannot be read, or matches no template.
func (l *Locator) Locate(reg *template.Registry, img image.Image) *match.ModelMatch {
	mm, err := l.Find(reg, img)
	if err != nil {
		l.logger.Debug("caption lookup failed", "error", err)
		return nil
	}
	return mm
}

// Find is Locate with the reason for a miss.
//
// The returned match has scale 1 and an offset in img's pixel coordinates.
func (l *Locator) Find(reg *template.Registry, img image.Image) (*match.ModelMatch, error) {
	band, ok := l.FindBand(img)
	if !ok {
		return nil, ErrNoCaption
	}
	l.logger.Debug("caption band", "band", band.String(), "colors", l.cfg.Colors.String())

	framed, err := imaging.CropPad(img, band, l.cfg.Padding, color.Black)
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNG(framed)
	if err != nil {
		return nil, err
	}

	doc, err := l.ocr.Recognize(data, l.cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize caption: %w", err)
	}
	if doc.Empty() {
		return nil, fmt.Errorf("%w: no text in band", ErrNotMatched)
	}

	mm := l.matcher.FindIn(reg, doc, 1.0)
	if mm == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotMatched, doc.Text())
	}

	origin := img.Bounds().Min
	return mm.Translate(band.Min.X-origin.X-l.cfg.Padding, band.Min.Y-origin.Y-l.cfg.Padding), nil
}
