package models

import (
	"fmt"

	"certgen/internal/layout"
)

type FieldKey string

const (
	FieldCertTitle   FieldKey = "certTitle"
	FieldSubtitle    FieldKey = "subtitle"
	FieldName        FieldKey = "name"
	FieldDescription FieldKey = "description"
	FieldAward       FieldKey = "award"
	FieldDate        FieldKey = "date"
	FieldIssuer      FieldKey = "issuer"
)

// FieldOrder is the fixed field set, in draw order.
var FieldOrder = []FieldKey{
	FieldCertTitle,
	FieldSubtitle,
	FieldName,
	FieldDescription,
	FieldAward,
	FieldDate,
	FieldIssuer,
}

const DefaultTitle = "Certificate of Achievement"

func ParseFieldKey(s string) (FieldKey, error) {
	for _, k := range FieldOrder {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

type Style struct {
	FontID string  `json:"font"`
	Color  string  `json:"color"`
	SizePt float64 `json:"size"`
	Weight int     `json:"weight,omitempty"`
	Bold   bool    `json:"bold,omitempty"`

	// AutoFit shrinks SizePt until the text fits MaxWidth * page width,
	// never going below MinSizePt.
	AutoFit   bool    `json:"autoFit,omitempty"`
	MaxWidth  float64 `json:"maxWidth,omitempty"`
	MinSizePt float64 `json:"minSize,omitempty"`
}

// IsBold reports whether the style asks for the bold weight, either through
// the explicit flag or a CSS-like weight of 700 and above.
func (s Style) IsBold() bool {
	return s.Bold || s.Weight >= 700
}

type FieldDescriptor struct {
	Key      FieldKey        `json:"key"`
	Text     string          `json:"text"`
	Position layout.Position `json:"position"`
	Style    Style           `json:"style"`
	Hidden   bool            `json:"hidden,omitempty"`
}

// DefaultFields returns a fresh copy of the default field descriptors.
func DefaultFields() []FieldDescriptor {
	return []FieldDescriptor{
		{
			Key:      FieldCertTitle,
			Text:     DefaultTitle,
			Position: layout.Position{X: 0.5, Y: 0.20},
			Style:    Style{FontID: "helvetica", Color: "#1F2937", SizePt: 40, Bold: true, AutoFit: true, MaxWidth: 0.82, MinSizePt: 18},
		},
		{
			Key:      FieldSubtitle,
			Text:     "This certificate is proudly presented to",
			Position: layout.Position{X: 0.5, Y: 0.33},
			Style:    Style{FontID: "times", Color: "#374151", SizePt: 16, MaxWidth: 0.82, MinSizePt: 10},
		},
		{
			Key:      FieldName,
			Position: layout.Position{X: 0.5, Y: 0.46},
			Style:    Style{FontID: "times", Color: "#111827", SizePt: 36, Bold: true, AutoFit: true, MaxWidth: 0.82, MinSizePt: 18},
		},
		{
			Key:      FieldDescription,
			Text:     "in recognition of outstanding achievement",
			Position: layout.Position{X: 0.5, Y: 0.58},
			Style:    Style{FontID: "helvetica", Color: "#374151", SizePt: 14, MaxWidth: 0.82, MinSizePt: 10},
		},
		{
			Key:      FieldAward,
			Position: layout.Position{X: 0.5, Y: 0.67},
			Style:    Style{FontID: "helvetica", Color: "#1F2937", SizePt: 20, Bold: true, AutoFit: true, MaxWidth: 0.5, MinSizePt: 12},
		},
		{
			Key:      FieldDate,
			Position: layout.Position{X: 0.25, Y: 0.85},
			Style:    Style{FontID: "helvetica", Color: "#374151", SizePt: 14, AutoFit: true, MaxWidth: 0.4, MinSizePt: 8},
		},
		{
			Key:      FieldIssuer,
			Position: layout.Position{X: 0.75, Y: 0.85},
			Style:    Style{FontID: "helvetica", Color: "#374151", SizePt: 14, AutoFit: true, MaxWidth: 0.4, MinSizePt: 8},
		},
	}
}

// StyleOverride carries the style attributes an editor changed. Nil means
// keep the current value.
type StyleOverride struct {
	FontID    *string  `json:"font,omitempty"`
	Color     *string  `json:"color,omitempty"`
	SizePt    *float64 `json:"size,omitempty"`
	Weight    *int     `json:"weight,omitempty"`
	Bold      *bool    `json:"bold,omitempty"`
	AutoFit   *bool    `json:"autoFit,omitempty"`
	MaxWidth  *float64 `json:"maxWidth,omitempty"`
	MinSizePt *float64 `json:"minSize,omitempty"`
}

// FieldOverride is a partial field descriptor as sent by the visual editor.
type FieldOverride struct {
	Key      FieldKey         `json:"key"`
	Text     *string          `json:"text,omitempty"`
	Position *layout.Position `json:"position,omitempty"`
	Style    *StyleOverride   `json:"style,omitempty"`
	Hidden   *bool            `json:"hidden,omitempty"`
}

// ApplyOverrides returns a new descriptor slice with the overrides applied
// on top of base. base is left untouched.
func ApplyOverrides(base []FieldDescriptor, overrides []FieldOverride) ([]FieldDescriptor, error) {
	out := make([]FieldDescriptor, len(base))
	copy(out, base)

	index := make(map[FieldKey]int, len(out))
	for i, f := range out {
		index[f.Key] = i
	}

	for _, o := range overrides {
		key, err := ParseFieldKey(string(o.Key))
		if err != nil {
			return nil, err
		}
		i, ok := index[key]
		if !ok {
			return nil, fmt.Errorf("field %q is not in the layout", key)
		}
		f := &out[i]
		if o.Text != nil {
			f.Text = *o.Text
		}
		if o.Position != nil {
			f.Position = *o.Position
		}
		if o.Hidden != nil {
			f.Hidden = *o.Hidden
		}
		if o.Style != nil {
			o.Style.apply(&f.Style)
		}
	}
	return out, nil
}

func (o *StyleOverride) apply(s *Style) {
	if o.FontID != nil {
		s.FontID = *o.FontID
	}
	if o.Color != nil {
		s.Color = *o.Color
	}
	if o.SizePt != nil {
		s.SizePt = *o.SizePt
	}
	if o.Weight != nil {
		s.Weight = *o.Weight
	}
	if o.Bold != nil {
		s.Bold = *o.Bold
	}
	if o.AutoFit != nil {
		s.AutoFit = *o.AutoFit
	}
	if o.MaxWidth != nil {
		s.MaxWidth = *o.MaxWidth
	}
	if o.MinSizePt != nil {
		s.MinSizePt = *o.MinSizePt
	}
}
