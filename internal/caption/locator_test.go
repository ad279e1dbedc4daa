package caption

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/connoisseur/noisseur/internal/geom"
	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/match"
	"github.com/connoisseur/noisseur/internal/template"
)

var navy = color.RGBA{0, 0, 125, 255}

// screen returns a white w x h image with navy rows [top, bottom).
func screen(w, h, top, bottom int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y >= top && y < bottom {
				img.Set(x, y, navy)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

// fakeOCR returns a fixed document and records what it was asked to read.
type fakeOCR struct {
	doc      *hocr.Document
	err      error
	calls    int
	pipeline string
	info     *imaging.ImageInfo
}

func (f *fakeOCR) Recognize(data []byte, pipeline string) (*hocr.Document, error) {
	f.calls++
	f.pipeline = pipeline
	f.info, _ = imaging.Inspect(data)
	return f.doc, f.err
}

type staticTemplates struct{ reg *template.Registry }

func (s staticTemplates) Registry() *template.Registry { return s.reg }

func registration() *template.Registry {
	reg := template.NewRegistry()
	reg.Add(&template.Model{
		ID:         "reg",
		ScreenType: "patient-registration",
		Form: &template.Form{
			Items: []template.Item{{
				ID:           "title",
				Kind:         template.KindCaption,
				Rect:         geom.NewRect(0, 0, 100, 20),
				Text:         []string{"Patient Registration"},
				ControlPoint: template.TopLeft,
			}},
		},
	})
	return reg
}

func captionDoc() *hocr.Document {
	return &hocr.Document{Lines: []hocr.Line{{
		BBox: geom.NewRect(60, 55, 200, 75),
		Words: []hocr.Word{
			{Text: "Patient", BBox: geom.NewRect(60, 55, 120, 75)},
			{Text: "Registration", BBox: geom.NewRect(125, 55, 200, 75)},
		},
	}}}
}

func newLocator(t *testing.T, ocr OCR, reg *template.Registry) *Locator {
	t.Helper()
	l, err := NewLocator(ocr, match.NewMatcher(staticTemplates{reg}, nil), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewLocator failed: %v", err)
	}
	return l
}

func TestFindBand(t *testing.T) {
	l := newLocator(t, &fakeOCR{}, registration())

	tests := []struct {
		name string
		img  image.Image
		want image.Rectangle
		ok   bool
	}{
		{"band", screen(400, 300, 20, 50), image.Rect(0, 20, 400, 49), true},
		{"band at top edge", screen(400, 300, 0, 10), image.Rect(0, 0, 400, 9), true},
		{"single row", screen(400, 300, 20, 21), image.Rectangle{}, false},
		{"below top third", screen(400, 300, 120, 150), image.Rectangle{}, false},
		{"no band", screen(400, 300, 0, 0), image.Rectangle{}, false},
		{"too narrow", screen(1, 300, 0, 50), image.Rectangle{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.FindBand(tt.img)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("band: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindBand_SamplesMiddleHalf(t *testing.T) {
	l := newLocator(t, &fakeOCR{}, registration())

	// Off-color pixels outside [25%, 75%) of the width do not break a row.
	img := screen(400, 300, 20, 50)
	img.Set(10, 30, color.White)
	img.Set(350, 30, color.White)
	if got, ok := l.FindBand(img); !ok || got != image.Rect(0, 20, 400, 49) {
		t.Errorf("edges should be ignored: got %v, %v", got, ok)
	}

	// One off-color pixel inside drops the row; the band still spans it.
	img.Set(200, 30, color.White)
	if got, ok := l.FindBand(img); !ok || got != image.Rect(0, 20, 400, 49) {
		t.Errorf("inner row: got %v, %v", got, ok)
	}

	// Dropping the last row moves the bottom edge up.
	img.Set(200, 49, color.White)
	if got, ok := l.FindBand(img); !ok || got != image.Rect(0, 20, 400, 48) {
		t.Errorf("last row: got %v, %v", got, ok)
	}
}

func TestFind_TranslatesIntoImage(t *testing.T) {
	ocr := &fakeOCR{doc: captionDoc()}
	reg := registration()
	l := newLocator(t, ocr, reg)

	mm, err := l.Find(reg, screen(400, 300, 20, 50))
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	// Anchor center (130,65) minus item center (50,10) in the padded band,
	// then back by the band origin (0,20) less 50px of padding.
	if mm.OffsetX != 30 || mm.OffsetY != 25 {
		t.Errorf("offset: got (%d,%d), want (30,25)", mm.OffsetX, mm.OffsetY)
	}
	if mm.ScaleX != 1 || mm.ScaleY != 1 {
		t.Errorf("scale: got (%v,%v), want 1", mm.ScaleX, mm.ScaleY)
	}
	if mm.Model.ScreenType != "patient-registration" {
		t.Errorf("model: got %s", mm.Model.ScreenType)
	}

	if ocr.pipeline != "bw" {
		t.Errorf("pipeline: got %q, want bw", ocr.pipeline)
	}
	if ocr.info == nil || ocr.info.Width != 500 || ocr.info.Height != 129 {
		t.Errorf("OCR input: got %+v, want 500x129", ocr.info)
	}
}

func TestFind_Misses(t *testing.T) {
	boom := errors.New("tesseract exploded")

	tests := []struct {
		name  string
		ocr   *fakeOCR
		img   image.Image
		want  error
		calls int
	}{
		{"no band", &fakeOCR{doc: captionDoc()}, screen(400, 300, 0, 0), ErrNoCaption, 0},
		{"empty text", &fakeOCR{doc: &hocr.Document{}}, screen(400, 300, 20, 50), ErrNotMatched, 1},
		{"other text", &fakeOCR{doc: &hocr.Document{Lines: []hocr.Line{{Words: []hocr.Word{{Text: "Settings"}}}}}}, screen(400, 300, 20, 50), ErrNotMatched, 1},
		{"ocr failure", &fakeOCR{err: boom}, screen(400, 300, 20, 50), boom, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registration()
			l := newLocator(t, tt.ocr, reg)

			mm, err := l.Find(reg, tt.img)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if mm != nil {
				t.Errorf("expected no match, got %v", mm)
			}
			if tt.ocr.calls != tt.calls {
				t.Errorf("OCR calls: got %d, want %d", tt.ocr.calls, tt.calls)
			}
			if l.Locate(reg, tt.img) != nil {
				t.Error("Locate should return nil on a miss")
			}
		})
	}
}

func TestNewLocator_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
	}{
		{"unknown op", func(c *Config) { c.Pipeline = "blur" }},
		{"scaling pipeline", func(c *Config) { c.Pipeline = "bw|scale(2)" }},
		{"border pipeline", func(c *Config) { c.Pipeline = "border(5)" }},
		{"negative padding", func(c *Config) { c.Padding = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			if _, err := NewLocator(&fakeOCR{}, match.NewMatcher(staticTemplates{}, nil), cfg, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Colors.String(); got != "#000079..#000081" {
		t.Errorf("colors: got %s", got)
	}
	if cfg.Padding != 50 || cfg.Pipeline != "bw" {
		t.Errorf("config: got %+v", cfg)
	}
	if !cfg.Colors.Contains(navy) {
		t.Error("navy should be inside the default range")
	}
}
