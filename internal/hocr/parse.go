package hocr

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/connoisseur/noisseur/internal/geom"
)

// lineClasses lists the hOCR classes that open a text line.
var lineClasses = []string{"ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat"}

const (
	wordClass = "ocrx_word"
	charClass = "ocrx_cinfo"
)

// Parse reads an hOCR document.
//
// Lines without any non-blank word are dropped. Words outside of a line
// element are ignored, which matches how Tesseract nests its output.
//
// Returns:
//   - *Document: The parsed lines in document order. Never nil on success.
//   - error: Non-nil if the input is not parseable HTML.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	doc := &Document{Lines: make([]Line, 0)}
	collectLines(root, doc)
	return doc, nil
}

// ParseBytes parses an in-memory hOCR document.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// ParseString parses an hOCR document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func collectLines(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode && isLine(n) {
		if line, ok := parseLine(n); ok {
			doc.Lines = append(doc.Lines, line)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLines(c, doc)
	}
}

func isLine(n *html.Node) bool {
	for _, class := range lineClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

func parseLine(n *html.Node) (Line, bool) {
	props := parseTitle(attr(n, "title"))
	line := Line{BBox: props.bbox}
	collectWords(n, &line.Words)
	if len(line.Words) == 0 {
		return Line{}, false
	}
	if !props.hasBBox {
		line.BBox = wordsBBox(line.Words)
	}
	return line, true
}

func collectWords(n *html.Node, words *[]Word) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hasClass(c, wordClass) {
			if w, ok := parseWord(c); ok {
				*words = append(*words, w)
			}
			continue
		}
		collectWords(c, words)
	}
}

func parseWord(n *html.Node) (Word, bool) {
	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return Word{}, false
	}

	props := parseTitle(attr(n, "title"))
	w := Word{
		Text:       text,
		BBox:       props.bbox,
		Confidence: props.wconf,
	}

	var sum float64
	var count int
	visitClass(n, charClass, func(c *html.Node) {
		cp := parseTitle(attr(c, "title"))
		if cp.hasConf {
			sum += cp.conf
			count++
		}
	})
	if count > 0 {
		w.CharConfidence = sum / float64(count)
	} else {
		w.CharConfidence = w.Confidence
	}

	return w, true
}

func wordsBBox(words []Word) geom.Rect {
	rects := make([]geom.Rect, len(words))
	for i, w := range words {
		rects[i] = w.BBox
	}
	r, _ := geom.UnionAll(rects...)
	return r
}

// properties holds the title fields this package understands.
type properties struct {
	bbox    geom.Rect
	hasBBox bool
	wconf   float64
	conf    float64
	hasConf bool
}

// parseTitle decodes an hOCR title such as
// "bbox 36 92 96 116; x_wconf 92". Unknown or malformed properties are
// skipped.
func parseTitle(title string) properties {
	var p properties
	for _, field := range strings.Split(title, ";") {
		parts := strings.Fields(field)
		if len(parts) < 2 {
			continue
		}
		switch parts[0] {
		case "bbox":
			if r, ok := parseBBox(parts[1:]); ok {
				p.bbox = r
				p.hasBBox = true
			}
		case "x_wconf":
			if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
				p.wconf = v
			}
		case "x_conf":
			if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
				p.conf = v
				p.hasConf = true
			}
		}
	}
	return p
}

func parseBBox(values []string) (geom.Rect, bool) {
	if len(values) != 4 {
		return geom.Rect{}, false
	}
	var c [4]int
	for i, s := range values {
		v, err := strconv.Atoi(s)
		if err != nil {
			return geom.Rect{}, false
		}
		c[i] = v
	}
	return geom.NewRect(c[0], c[1], c[2], c[3]), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func visitClass(n *html.Node, class string, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hasClass(c, class) {
			fn(c)
		}
		visitClass(c, class, fn)
	}
}

// textContent concatenates all text nodes below n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
