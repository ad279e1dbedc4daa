package recognize

import (
	"errors"
	"image"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"github.com/connoisseur/noisseur/internal/caption"
	"github.com/connoisseur/noisseur/internal/geom"
	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/match"
	"github.com/connoisseur/noisseur/internal/template"
)

// fakeOCR answers by pipeline and records the pipelines it was asked for.
type fakeOCR struct {
	docs      map[string]*hocr.Document
	err       error
	pipelines []string
}

func (f *fakeOCR) Recognize(data []byte, pipeline string) (*hocr.Document, error) {
	f.pipelines = append(f.pipelines, pipeline)
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[pipeline], nil
}

func word(text string, l, t, r, b int) hocr.Word {
	return hocr.Word{Text: text, BBox: geom.NewRect(l, t, r, b), Confidence: 90, CharConfidence: 90}
}

func line(words ...hocr.Word) hocr.Line {
	rects := make([]geom.Rect, len(words))
	for i, w := range words {
		rects[i] = w.BBox
	}
	bbox, _ := geom.UnionAll(rects...)
	return hocr.Line{BBox: bbox, Words: words}
}

// screenDoc is the registration screen OCRed at scale 2 with the title
// centered at (140,40).
func screenDoc() *hocr.Document {
	return &hocr.Document{Lines: []hocr.Line{
		line(word("Patient", 40, 30, 120, 50), word("Registration", 125, 30, 240, 50)),
		line(word("Smith", 300, 110, 360, 130)),
	}}
}

// captionDoc is the title band framed with 50px of padding.
func captionDoc() *hocr.Document {
	return &hocr.Document{Lines: []hocr.Line{
		line(word("Patient", 60, 55, 120, 75), word("Registration", 125, 55, 200, 75)),
	}}
}

func registrationModel() *template.Model {
	return &template.Model{
		ID:         "reg",
		ScreenType: "patient-registration",
		Form: &template.Form{
			Items: []template.Item{
				{
					ID:           "title",
					Kind:         template.KindCaption,
					Rect:         geom.NewRect(0, 0, 100, 20),
					Text:         []string{"Patient Registration"},
					ControlPoint: template.TopLeft,
				},
				{
					ID:        "last_name",
					Kind:      template.KindText,
					Rect:      geom.NewRect(100, 40, 200, 60),
					DataField: "last_name",
				},
			},
		},
	}
}

func store(models ...*template.Model) *template.Store {
	reg := template.NewRegistry()
	for _, m := range models {
		reg.Add(m)
	}
	return template.NewStaticStore(reg)
}

// screenshot encodes a white 400x300 image, optionally with a navy title
// bar on rows [20, 50).
func screenshot(t *testing.T, withCaption bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			if withCaption && y >= 20 && y < 50 {
				img.Set(x, y, color.RGBA{0, 0, 125, 255})
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		t.Fatalf("failed to encode screenshot: %v", err)
	}
	return data
}

func newRecognizer(t *testing.T, ocr OCR, templates match.Templates) *Recognizer {
	t.Helper()
	r, err := New(ocr, templates, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestRecognize_DocumentPath(t *testing.T) {
	ocr := &fakeOCR{docs: map[string]*hocr.Document{"scale(2)": screenDoc()}}
	r := newRecognizer(t, ocr, store(registrationModel()))

	res, err := r.Recognize(Request{Image: screenshot(t, false), Pipeline: "scale(2)"})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if !res.Success || res.Type == nil || *res.Type != "patient-registration" {
		t.Fatalf("result: success=%v type=%v errors=%v", res.Success, res.Type, res.Errors)
	}
	if got := res.Data["last_name"]; got != "Smith" {
		t.Errorf("last_name: got %v, want Smith", got)
	}
	if got := res.Items["title"]; got == nil || *got != "Patient Registration" {
		t.Errorf("title: got %v", got)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors: got %v", res.Errors)
	}
	if res.RequestID == "" || res.Timestamp == "" || res.ElapsedMS < 0 {
		t.Errorf("diagnostics: id=%q timestamp=%q elapsed=%d", res.RequestID, res.Timestamp, res.ElapsedMS)
	}
	if !reflect.DeepEqual(ocr.pipelines, []string{"scale(2)"}) {
		t.Errorf("OCR calls: got %v", ocr.pipelines)
	}
}

func TestAlign_Paths(t *testing.T) {
	tests := []struct {
		name       string
		caption    bool
		captionDoc *hocr.Document
		pipeline   string
		offset     geom.Point
		source     string
	}{
		{"document", false, nil, "scale(2)", geom.Point{X: 40, Y: 20}, "document"},
		{"document with border", false, nil, "scale(2)|border(10)", geom.Point{X: 50, Y: 30}, "document"},
		{"caption", true, captionDoc(), "scale(2)", geom.Point{X: 60, Y: 50}, "caption"},
		{"caption with border", true, captionDoc(), "scale(2)|border(10)", geom.Point{X: 70, Y: 60}, "caption"},
		{"caption miss falls back", true, &hocr.Document{Lines: []hocr.Line{line(word("Settings", 0, 0, 50, 10))}}, "scale(2)", geom.Point{X: 40, Y: 20}, "document"},
		{"caption unreadable falls back", true, nil, "scale(2)", geom.Point{X: 40, Y: 20}, "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ocr := &fakeOCR{docs: map[string]*hocr.Document{
				tt.pipeline: screenDoc(),
				"bw":        tt.captionDoc,
			}}
			r := newRecognizer(t, ocr, store(registrationModel()))

			a, err := r.Align(Request{Image: screenshot(t, tt.caption), Pipeline: tt.pipeline})
			if err != nil {
				t.Fatalf("Align failed: %v", err)
			}
			if got := a.Match.Offset(); got != tt.offset {
				t.Errorf("offset: got %v, want %v", got, tt.offset)
			}
			if a.Match.ScaleX != 2 || a.Match.ScaleY != 2 {
				t.Errorf("scale: got (%v,%v), want 2", a.Match.ScaleX, a.Match.ScaleY)
			}
			if a.Source != tt.source {
				t.Errorf("source: got %s, want %s", a.Source, tt.source)
			}
		})
	}
}

func TestAlign_CaptionDisabled(t *testing.T) {
	ocr := &fakeOCR{docs: map[string]*hocr.Document{
		"scale(2)": screenDoc(),
		"bw":       captionDoc(),
	}}
	cfg := DefaultConfig()
	cfg.Caption = nil
	r, err := New(ocr, store(registrationModel()), cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, err := r.Align(Request{Image: screenshot(t, true), Pipeline: "scale(2)"})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if a.Source != "document" || len(ocr.pipelines) != 1 {
		t.Errorf("caption should not run: source=%s calls=%v", a.Source, ocr.pipelines)
	}
}

func TestRecognize_DefaultPipelineAndScale(t *testing.T) {
	ocr := &fakeOCR{docs: map[string]*hocr.Document{}}
	r := newRecognizer(t, ocr, store(registrationModel()))

	if _, err := r.Recognize(Request{Image: screenshot(t, false)}); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(ocr.pipelines) != 1 || ocr.pipelines[0] != DefaultPipeline {
		t.Errorf("pipeline: got %v, want %s", ocr.pipelines, DefaultPipeline)
	}

	// The scale follows a custom pipeline when none is given.
	ocr.docs["scale(2)|border(10)"] = screenDoc()
	a, err := r.Align(Request{Image: screenshot(t, false), Pipeline: "scale(2)|border(10)"})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if a.Scale != 2 {
		t.Errorf("scale: got %v, want 2", a.Scale)
	}

	ocr.docs[DefaultPipeline] = screenDoc()
	a, err = r.Align(Request{Image: screenshot(t, false)})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if a.Scale != DefaultScale {
		t.Errorf("default scale: got %v, want %v", a.Scale, DefaultScale)
	}
}

func TestRecognize_SoftFailures(t *testing.T) {
	boom := errors.New("tesseract exploded")

	tests := []struct {
		name     string
		ocr      *fakeOCR
		pipeline string
		models   []*template.Model
		want     string
	}{
		{"bad pipeline", &fakeOCR{}, "blur", []*template.Model{registrationModel()}, "blur"},
		{"ocr error", &fakeOCR{err: boom}, "scale(2)", []*template.Model{registrationModel()}, "document not recognized: tesseract exploded"},
		{"empty document", &fakeOCR{docs: map[string]*hocr.Document{"scale(2)": {}}}, "scale(2)", []*template.Model{registrationModel()}, "document not recognized"},
		{"no template", &fakeOCR{docs: map[string]*hocr.Document{"scale(2)": screenDoc()}}, "scale(2)", nil, "model not matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecognizer(t, tt.ocr, store(tt.models...))

			res, err := r.Recognize(Request{Image: screenshot(t, false), Pipeline: tt.pipeline})
			if err != nil {
				t.Fatalf("soft failure returned error: %v", err)
			}
			if res.Success || res.Type != nil {
				t.Errorf("result: success=%v type=%v", res.Success, res.Type)
			}
			if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], tt.want) {
				t.Errorf("errors: got %v, want one containing %q", res.Errors, tt.want)
			}
			if res.Data == nil || res.Items == nil {
				t.Error("data and items should be empty maps, not nil")
			}
		})
	}
}

func TestRecognize_ConfigErrorIsFatal(t *testing.T) {
	model := registrationModel()
	model.Form.Items = append(model.Form.Items, template.Item{
		ID:                 "rows",
		Kind:               template.KindList,
		Rect:               geom.NewRect(0, 80, 200, 180),
		RowHeight:          50,
		ListItemScreenType: "ghost",
		DataField:          "rows",
	})
	ocr := &fakeOCR{docs: map[string]*hocr.Document{"scale(2)": screenDoc()}}
	r := newRecognizer(t, ocr, store(model))

	res, err := r.Recognize(Request{Image: screenshot(t, false), Pipeline: "scale(2)"})
	var cfgErr *match.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *match.ConfigError, got %v", err)
	}
	if cfgErr.ScreenType != "ghost" {
		t.Errorf("screen type: got %s", cfgErr.ScreenType)
	}
	if res != nil {
		t.Error("fatal error should not return a result")
	}
}

func TestRecognize_Idempotent(t *testing.T) {
	ocr := &fakeOCR{docs: map[string]*hocr.Document{
		"scale(2)|border(10)": screenDoc(),
		"bw":                  captionDoc(),
	}}
	r := newRecognizer(t, ocr, store(registrationModel()))
	req := Request{Image: screenshot(t, true), Pipeline: "scale(2)|border(10)"}

	first, err := r.Recognize(req)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	second, err := r.Recognize(req)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if first.Success != second.Success ||
		!reflect.DeepEqual(first.Type, second.Type) ||
		!reflect.DeepEqual(first.Data, second.Data) ||
		!reflect.DeepEqual(first.Items, second.Items) ||
		!reflect.DeepEqual(first.Errors, second.Errors) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
	if first.RequestID == second.RequestID {
		t.Error("request ids should be unique")
	}
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline = "explode"
	if _, err := New(&fakeOCR{}, store(), cfg, nil); !errors.Is(err, imaging.ErrUnknownOperation) {
		t.Errorf("expected ErrUnknownOperation, got %v", err)
	}

	cfg = DefaultConfig()
	cc := caption.DefaultConfig()
	cc.Pipeline = "scale(2)"
	cfg.Caption = &cc
	if _, err := New(&fakeOCR{}, store(), cfg, nil); err == nil {
		t.Error("expected error for a caption pipeline that moves pixels")
	}
}
