package recognize

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/connoisseur/noisseur/internal/caption"
	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/match"
	"github.com/connoisseur/noisseur/internal/template"
)

// DefaultPipeline and DefaultScale prepare console screenshots for OCR.
const (
	DefaultPipeline = "scale(3.1)|sharpen|bw|border(30)"
	DefaultScale    = 3.1
)

var (
	// ErrEmptyDocument means OCR failed or found no text.
	ErrEmptyDocument = errors.New("document not recognized")

	// ErrNotMatched means no template could be aligned with the document.
	ErrNotMatched = errors.New("model not matched")
)

// OCR recognizes an encoded image after running it through a pipeline.
// *ocr.Tesseract implements it.
type OCR interface {
	Recognize(image []byte, pipeline string) (*hocr.Document, error)
}

// Request is a single recognition call.
type Request struct {
	// Image holds the encoded screenshot.
	Image []byte
	// Pipeline pre-processes the image before OCR. Empty uses the
	// recognizer's default pipeline.
	Pipeline string
	// Scale is the factor between template and document coordinates. Zero
	// uses the default scale with the default pipeline, and the pipeline's
	// own scale factor otherwise.
	Scale float64
}

// Result is the recognition record returned to clients.
type Result struct {
	RequestID string             `json:"request_id" yaml:"request_id"`
	Host      string             `json:"host" yaml:"host"`
	Timestamp string             `json:"timestamp" yaml:"timestamp"`
	ElapsedMS int64              `json:"elapsed_ms" yaml:"elapsed_ms"`
	Success   bool               `json:"success" yaml:"success"`
	Errors    []string           `json:"errors" yaml:"errors"`
	Type      *string            `json:"type" yaml:"type"`
	Data      map[string]any     `json:"data" yaml:"data"`
	Items     map[string]*string `json:"items" yaml:"items"`
}

// Config holds recognizer defaults.
type Config struct {
	// Pipeline is used when a request names none.
	Pipeline string
	// Scale goes with Pipeline. Zero means the pipeline's scale factor.
	Scale float64
	// Caption enables the title bar locator. Nil disables it.
	Caption *caption.Config
}

// DefaultConfig returns the defaults used for console screenshots.
func DefaultConfig() Config {
	cc := caption.DefaultConfig()
	return Config{
		Pipeline: DefaultPipeline,
		Scale:    DefaultScale,
		Caption:  &cc,
	}
}

// Alignment is the outcome of matching a request against the templates.
type Alignment struct {
	Document *hocr.Document
	Match    *match.ModelMatch
	Pipeline *imaging.Pipeline
	Scale    float64
	// Source is "caption" or "document" depending on which path aligned.
	Source string
}

// Recognizer turns screenshots into structured records.
//
// It is safe for concurrent use: each call takes one registry snapshot from
// the template source and shares no other mutable state.
type Recognizer struct {
	ocr       OCR
	templates match.Templates
	matcher   *match.Matcher
	extractor *match.Extractor
	locator   *caption.Locator
	cfg       Config
	host      string
	logger    *slog.Logger
}

// New creates a recognizer.
//
// Returns an error if the default pipeline or the caption settings are
// invalid.
func New(ocr OCR, templates match.Templates, cfg Config, logger *slog.Logger) (*Recognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := imaging.ParsePipeline(cfg.Pipeline); err != nil {
		return nil, fmt.Errorf("invalid default pipeline: %w", err)
	}

	r := &Recognizer{
		ocr:       ocr,
		templates: templates,
		matcher:   match.NewMatcher(templates, logger),
		extractor: match.NewExtractor(templates, logger),
		cfg:       cfg,
		logger:    logger,
	}
	if cfg.Caption != nil {
		loc, err := caption.NewLocator(ocr, r.matcher, *cfg.Caption, logger)
		if err != nil {
			return nil, err
		}
		r.locator = loc
	}

	r.host, _ = os.Hostname()
	return r, nil
}

// Recognize OCRs a screenshot, aligns a template and extracts its fields.
//
// Unreadable images, bad pipelines and unmatched screens are reported in
// the result with Success false.
//
// Returns:
//   - *Result: The recognition record.
//   - error: Non-nil only for template configuration errors
//     (*match.ConfigError), which no retry of the same request can fix.
func (r *Recognizer) Recognize(req Request) (*Result, error) {
	start := time.Now()
	res := &Result{
		RequestID: uuid.NewString(),
		Host:      r.host,
		Errors:    []string{},
		Data:      map[string]any{},
		Items:     map[string]*string{},
	}
	finish := func() {
		res.Timestamp = time.Now().Format(time.RFC3339)
		res.ElapsedMS = time.Since(start).Milliseconds()
	}

	reg := r.templates.Registry()
	a, err := r.align(reg, req)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		finish()
		r.logger.Info("screen not recognized", "request_id", res.RequestID, "error", err, "elapsed_ms", res.ElapsedMS)
		return res, nil
	}

	ext, err := r.extractor.ExtractIn(reg, a.Document, a.Match)
	if err != nil {
		r.logger.Error("template configuration error", "request_id", res.RequestID, "template", a.Match.Model.ID, "error", err)
		return nil, err
	}

	if ext.Type != "" {
		res.Type = &ext.Type
	}
	res.Items = ext.Items
	res.Data = ext.Data
	res.Success = res.Type != nil
	finish()

	r.logger.Info("screen recognized",
		"request_id", res.RequestID,
		"type", ext.Type,
		"source", a.Source,
		"match", a.Match.String(),
		"elapsed_ms", res.ElapsedMS)
	return res, nil
}

// Align OCRs a screenshot and aligns a template with it without extracting
// fields.
//
// Returns:
//   - *Alignment: The document, the alignment and how it was found.
//   - error: A pipeline parse error, ErrEmptyDocument or ErrNotMatched.
func (r *Recognizer) Align(req Request) (*Alignment, error) {
	return r.align(r.templates.Registry(), req)
}

func (r *Recognizer) align(reg *template.Registry, req Request) (*Alignment, error) {
	doc, p, scale, err := r.document(req)
	if err != nil {
		return nil, err
	}

	a := &Alignment{Document: doc, Pipeline: p, Scale: scale}
	if mm := r.locateCaption(reg, req.Image); mm != nil {
		a.Match = mm.Rescale(scale)
		a.Source = "caption"
	} else if mm := r.matcher.FindIn(reg, doc, scale); mm != nil {
		a.Match = mm
		a.Source = "document"
	} else {
		return nil, ErrNotMatched
	}

	// The border is added on both paths. On the document path the anchor's
	// OCR box already includes the border, so the match ends up shifted by
	// it twice; TestAlign_Paths pins that.
	if b := p.Border(); b != 0 {
		a.Match = a.Match.Translate(b, b)
	}
	return a, nil
}

// Document OCRs a screenshot with the request's pipeline.
//
// Returns:
//   - *hocr.Document: Recognized text in the processed image's coordinates.
//   - *imaging.Pipeline: The pipeline that was applied.
//   - error: A pipeline parse error or ErrEmptyDocument.
func (r *Recognizer) Document(req Request) (*hocr.Document, *imaging.Pipeline, error) {
	doc, p, _, err := r.document(req)
	return doc, p, err
}

func (r *Recognizer) document(req Request) (*hocr.Document, *imaging.Pipeline, float64, error) {
	spec, scale := req.Pipeline, req.Scale
	if spec == "" {
		spec = r.cfg.Pipeline
		if scale == 0 {
			scale = r.cfg.Scale
		}
	}

	p, err := imaging.ParsePipeline(spec)
	if err != nil {
		return nil, nil, 0, err
	}
	if scale == 0 {
		scale = p.Scale()
	}

	doc, err := r.ocr.Recognize(req.Image, p.String())
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrEmptyDocument, err)
	}
	if doc.Empty() {
		return nil, nil, 0, ErrEmptyDocument
	}
	return doc, p, scale, nil
}

func (r *Recognizer) locateCaption(reg *template.Registry, data []byte) *match.ModelMatch {
	if r.locator == nil {
		return nil
	}
	img, err := imaging.Decode(data)
	if err != nil {
		r.logger.Debug("caption skipped", "error", err)
		return nil
	}
	return r.locator.Locate(reg, img)
}
