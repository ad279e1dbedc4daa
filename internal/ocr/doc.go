// Package ocr runs Tesseract (via gosseract/v2) and returns hOCR documents.
//
// Tesseract is a Provider for the recognition core: it applies an
// imaging.Pipeline to the encoded image, asks Tesseract for hOCR with
// per-character boxes (hocr_char_boxes=1) and parses the output into an
// hocr.Document. Word boxes are in the coordinates of the processed image,
// so callers that scale or pad must account for it.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The default language is English ("eng"). A tessdata directory may be
// configured to use training data outside the system location.
//
// # Performance Considerations
//
// OCR dominates recognition time. The caption locator keeps it cheap by
// OCRing only the title bar band before the full-screen pass.
package ocr
