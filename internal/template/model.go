package template

import (
	"github.com/connoisseur/noisseur/internal/geom"
)

// Kind is the role of an item on a screen.
type Kind string

const (
	KindLabel    Kind = "label"
	KindCaption  Kind = "caption"
	KindText     Kind = "text"
	KindRadioBox Kind = "radio_box"
	KindCheckBox Kind = "check_box"
	KindList     Kind = "list"
)

// Kinds lists every item kind in declaration order.
var Kinds = []Kind{KindLabel, KindCaption, KindText, KindRadioBox, KindCheckBox, KindList}

// ControlPoint tags an item as an anchor for alignment.
type ControlPoint string

const (
	TopLeft     ControlPoint = "top_left"
	TopRight    ControlPoint = "top_right"
	BottomRight ControlPoint = "bottom_right"
	BottomLeft  ControlPoint = "bottom_left"
)

// DataType names the intended type of an extracted value. It is carried as
// metadata; extracted values are always strings.
type DataType string

const (
	DataStr      DataType = "str"
	DataInt      DataType = "int"
	DataDate     DataType = "date"
	DataTime     DataType = "time"
	DataDateTime DataType = "datetime"
	DataFloat    DataType = "float"
	DataBool     DataType = "bool"
	DataDict     DataType = "dict"
	DataList     DataType = "list"
)

// Item is one declared region of a screen.
type Item struct {
	ID          string    `json:"id" yaml:"id"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Rect        geom.Rect `json:"rect" yaml:"rect"`
	Kind        Kind      `json:"type" yaml:"type"`

	// Text holds the literal candidates tried, in order, when the item is
	// used as an anchor.
	Text []string `json:"text,omitempty" yaml:"text,omitempty"`

	// Re holds regular expressions describing valid values. Metadata only.
	Re []string `json:"re,omitempty" yaml:"re,omitempty"`

	DataField    string       `json:"data_field,omitempty" yaml:"data_field,omitempty"`
	DataType     DataType     `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	DataFormat   string       `json:"data_format,omitempty" yaml:"data_format,omitempty"`
	ControlPoint ControlPoint `json:"control_point,omitempty" yaml:"control_point,omitempty"`

	// RowHeight and ListItemScreenType describe repeating rows of a list item.
	RowHeight          int    `json:"row_height,omitempty" yaml:"row_height,omitempty"`
	ListItemScreenType string `json:"list_item_screen_type,omitempty" yaml:"list_item_screen_type,omitempty"`
}

// IsList reports whether the item is extracted row by row. A list item
// without a row height is extracted like any other field.
func (it *Item) IsList() bool {
	return it.Kind == KindList && it.RowHeight > 0
}

// Relation links two items, usually a label to its value. Descriptive only.
type Relation struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	FromID      string `json:"from_id" yaml:"from_id"`
	ToID        string `json:"to_id" yaml:"to_id"`
}

// Form is the layout of one screen.
type Form struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Rect        geom.Rect  `json:"rect" yaml:"rect"`
	Items       []Item     `json:"items" yaml:"items"`
	Relations   []Relation `json:"relations" yaml:"relations"`
}

// canonical returns m with the item and relation lists non-nil and empty
// candidate lists nil, so that an empty list and a missing one encode and
// decode alike. m itself is left untouched.
func canonical(m *Model) *Model {
	if m == nil || m.Form == nil {
		return m
	}
	c := *m
	f := *m.Form
	f.Items = make([]Item, len(m.Form.Items))
	copy(f.Items, m.Form.Items)
	for i := range f.Items {
		if len(f.Items[i].Text) == 0 {
			f.Items[i].Text = nil
		}
		if len(f.Items[i].Re) == 0 {
			f.Items[i].Re = nil
		}
	}
	if f.Relations == nil {
		f.Relations = []Relation{}
	}
	c.Form = &f
	return &c
}

// FindItem returns the item with the given id, or nil.
func (f *Form) FindItem(id string) *Item {
	for i := range f.Items {
		if f.Items[i].ID == id {
			return &f.Items[i]
		}
	}
	return nil
}

// Model is a template for one screen type.
type Model struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ImagePath   string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	ScreenType  string `json:"screen_type" yaml:"screen_type"`
	Form        *Form  `json:"form" yaml:"form"`
}

// ControlItem returns the anchor item used to align the model against a
// recognized document. When several items are tagged, the top_left one wins;
// otherwise the first tagged item is used. A model without a form or without
// any tagged item has no anchor and returns nil.
func (m *Model) ControlItem() *Item {
	if m == nil || m.Form == nil {
		return nil
	}
	var first *Item
	for i := range m.Form.Items {
		it := &m.Form.Items[i]
		if it.ControlPoint == "" {
			continue
		}
		if it.ControlPoint == TopLeft {
			return it
		}
		if first == nil {
			first = it
		}
	}
	return first
}
