package ocr

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/imaging"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// ErrNoImage is returned when Recognize is called with no image data.
var ErrNoImage = errors.New("no image data")

// Tesseract recognizes images with the Tesseract engine and returns the
// result as an hOCR document.
//
// Each call opens its own gosseract client, so a Tesseract may be used from
// several goroutines at once.
type Tesseract struct {
	language string
	tessdata string
	logger   *slog.Logger
}

// NewTesseract creates a provider.
//
// Parameters:
//   - language: Tesseract language code, or several joined by "+" (e.g.
//     "eng+deu"). Empty means DefaultLanguage.
//   - tessdata: Directory holding the .traineddata files. Empty uses the
//     engine's compiled-in default.
//   - logger: Debug output. Nil uses slog.Default().
func NewTesseract(language, tessdata string, logger *slog.Logger) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{language: language, tessdata: tessdata, logger: logger}
}

// Language returns the configured language code.
func (t *Tesseract) Language() string {
	return t.language
}

// Recognize runs image through the pre-processing pipeline and OCRs the
// result.
//
// Parameters:
//   - image: Encoded image bytes (PNG, JPEG, GIF, BMP or TIFF).
//   - pipeline: Pre-processing chain such as "scale(3.1)|sharpen|bw". Empty
//     OCRs the image as is.
//
// Returns:
//   - *hocr.Document: Recognized lines and words, in the coordinates of the
//     processed image.
//   - error: Non-nil if the pipeline is invalid, the image cannot be decoded,
//     or Tesseract fails.
func (t *Tesseract) Recognize(image []byte, pipeline string) (*hocr.Document, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	data := image
	if pipeline != "" {
		processed, err := imaging.Process(image, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to pre-process image: %w", err)
		}
		data = processed
	}

	out, err := t.HOCR(data)
	if err != nil {
		return nil, err
	}
	doc, err := hocr.ParseString(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}
	t.logger.Debug("ocr complete", "pipeline", pipeline, "lines", len(doc.Lines), "words", doc.WordCount())
	return doc, nil
}

// HOCR returns Tesseract's raw hOCR output for an encoded image, with
// per-character boxes enabled.
func (t *Tesseract) HOCR(image []byte) (string, error) {
	client, err := t.client()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	out, err := client.HOCRText()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return out, nil
}

func (t *Tesseract) client() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if t.tessdata != "" {
		if err := client.SetTessdataPrefix(t.tessdata); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetVariable("hocr_char_boxes", "1"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to enable character boxes: %w", err)
	}
	return client, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Info describes the OCR engine.
type Info struct {
	Version      string `json:"version" yaml:"version"`
	Language     string `json:"language" yaml:"language"`
	TessdataPath string `json:"tessdata_path,omitempty" yaml:"tessdata_path,omitempty"`
	Backend      string `json:"backend" yaml:"backend"`
}

// Info reports the engine version and this provider's settings.
func (t *Tesseract) Info() Info {
	return Info{
		Version:      Version(),
		Language:     t.language,
		TessdataPath: t.tessdata,
		Backend:      "gosseract",
	}
}
