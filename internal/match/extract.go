package match

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/connoisseur/noisseur/internal/geom"
	"github.com/connoisseur/noisseur/internal/hocr"
	"github.com/connoisseur/noisseur/internal/template"
)

// IndexField is the key holding a list row's position among all bands,
// counting bands that produced no data.
const IndexField = "index"

// maxListDepth bounds list nesting so a template whose row type refers back
// to itself fails instead of recursing forever.
const maxListDepth = 8

// ConfigError reports a template that cannot be extracted because it refers
// to something the registry does not have. It is a configuration fault, not a
// recognition failure.
type ConfigError struct {
	TemplateID string
	ItemID     string
	ScreenType string
	Reason     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("template %s: list item %q: %s %q", e.TemplateID, e.ItemID, e.Reason, e.ScreenType)
}

// Extraction is the data read from a document through a matched template.
type Extraction struct {
	// Type is the matched template's screen type.
	Type string `json:"type" yaml:"type"`

	// Items maps every non-list item id to its text, nil when no word fell
	// inside the item.
	Items map[string]*string `json:"items" yaml:"items"`

	// Data maps data fields to a string (or nil) for plain items and to a
	// list of row maps for list items.
	Data map[string]any `json:"data" yaml:"data"`
}

// Extractor reads field values out of a document.
type Extractor struct {
	templates Templates
	logger    *slog.Logger
}

// NewExtractor creates an extractor. Row templates of list items are
// resolved through templates.
func NewExtractor(templates Templates, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{templates: templates, logger: logger}
}

// Extract reads every item of the matched template from doc.
//
// Plain items collect the words whose bounding-box center lies inside the
// item's rectangle mapped through mm, joined with single spaces. List items
// are cut into bands of RowHeight; each band is extracted with the row
// template named by ListItemScreenType, and rows where every field is empty
// are dropped.
//
// Returns:
//   - *Extraction: The extracted values; nil when doc or mm is nil.
//   - error: A *ConfigError if a list item names a row template that is not
//     registered.
func (e *Extractor) Extract(doc *hocr.Document, mm *ModelMatch) (*Extraction, error) {
	return e.ExtractIn(e.templates.Registry(), doc, mm)
}

// ExtractIn is Extract against an explicit registry snapshot.
func (e *Extractor) ExtractIn(reg *template.Registry, doc *hocr.Document, mm *ModelMatch) (*Extraction, error) {
	if doc == nil || mm == nil || mm.Model == nil {
		return nil, nil
	}
	return e.extract(reg, doc, mm, 0)
}

func (e *Extractor) extract(reg *template.Registry, doc *hocr.Document, mm *ModelMatch, depth int) (*Extraction, error) {
	out := &Extraction{
		Type:  mm.Model.ScreenType,
		Items: make(map[string]*string),
		Data:  make(map[string]any),
	}
	if mm.Model.Form == nil {
		return out, nil
	}

	for i := range mm.Model.Form.Items {
		item := &mm.Model.Form.Items[i]

		switch {
		case item.IsList():
			rows, err := e.extractList(reg, doc, mm, item, depth)
			if err != nil {
				return nil, err
			}
			if item.DataField != "" {
				out.Data[item.DataField] = rows
			}
		default:
			extractField(doc, mm, item, out)
		}
	}
	return out, nil
}

func extractField(doc *hocr.Document, mm *ModelMatch, item *template.Item, out *Extraction) {
	text := textWithin(doc, mm.Map(item.Rect))
	out.Items[item.ID] = text
	if item.DataField == "" {
		return
	}
	if text == nil {
		out.Data[item.DataField] = nil
	} else {
		out.Data[item.DataField] = *text
	}
}

func (e *Extractor) extractList(reg *template.Registry, doc *hocr.Document, mm *ModelMatch, item *template.Item, depth int) ([]map[string]any, error) {
	if depth >= maxListDepth {
		return nil, &ConfigError{
			TemplateID: mm.Model.ID,
			ItemID:     item.ID,
			ScreenType: item.ListItemScreenType,
			Reason:     "list nesting too deep at row template",
		}
	}

	rows := make([]map[string]any, 0)
	for index, b := range ListBands(item) {
		var row *template.Model
		if reg != nil {
			row = reg.FindByScreenType(item.ListItemScreenType)
		}
		if row == nil {
			return nil, &ConfigError{
				TemplateID: mm.Model.ID,
				ItemID:     item.ID,
				ScreenType: item.ListItemScreenType,
				Reason:     "unknown row template",
			}
		}

		band := b.Scale(mm.ScaleX, mm.ScaleY)

		sub := &ModelMatch{
			Model:   row,
			OffsetX: mm.OffsetX + band.Left,
			OffsetY: mm.OffsetY + band.Top,
			ScaleX:  mm.ScaleX,
			ScaleY:  mm.ScaleY,
		}

		res, err := e.extract(reg, doc, sub, depth+1)
		if err != nil {
			return nil, err
		}
		if hasValue(res.Data) {
			data := make(map[string]any, len(res.Data)+1)
			for k, v := range res.Data {
				data[k] = v
			}
			data[IndexField] = index
			rows = append(rows, data)
		}
		e.logger.Debug("list band", "item", item.ID, "index", index, "band", band.String(), "kept", hasValue(res.Data))
	}
	return rows, nil
}

// ListBands cuts a list item's rectangle into rows of RowHeight, top to
// bottom, in template coordinates. The last band is clipped to the item's
// bottom edge. Items that are not lists have no bands.
func ListBands(item *template.Item) []geom.Rect {
	if !item.IsList() || item.Rect.Height() <= 0 {
		return nil
	}
	bands := make([]geom.Rect, 0, (item.Rect.Height()+item.RowHeight-1)/item.RowHeight)
	for y := item.Rect.Top; y < item.Rect.Bottom; y += item.RowHeight {
		bands = append(bands, geom.Rect{
			Left:   item.Rect.Left,
			Top:    y,
			Right:  item.Rect.Right,
			Bottom: min(y+item.RowHeight, item.Rect.Bottom),
		})
	}
	return bands
}

// textWithin joins the words whose center lies in rc, in document order.
func textWithin(doc *hocr.Document, rc geom.Rect) *string {
	var words []string
	for _, line := range doc.Lines {
		for _, w := range line.Words {
			if rc.Contains(w.BBox.Center()) {
				words = append(words, w.Text)
			}
		}
	}
	if len(words) == 0 {
		return nil
	}
	s := strings.Join(words, " ")
	return &s
}

// hasValue reports whether any field carries data.
func hasValue(data map[string]any) bool {
	for _, v := range data {
		switch val := v.(type) {
		case nil:
		case string:
			if val != "" {
				return true
			}
		case []map[string]any:
			if len(val) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
