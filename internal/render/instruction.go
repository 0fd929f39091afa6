package render

import (
	"certgen/internal/layout"
	"certgen/internal/models"
)

type Kind string

const (
	KindImage     Kind = "image"
	KindText      Kind = "text"
	KindWatermark Kind = "watermark"
)

// SourceBackground names the document background in image instructions.
const SourceBackground = "background"

// Instruction is one drawing step. Coordinates are absolute page units in
// the coordinate system of the owning Page (see Page.FlipY).
//
// Text and watermark instructions start at (X, Y) on the baseline and are
// Width wide. Watermarks rotate Rotate degrees counter-clockwise about
// (X+Width/2, Y). Image instructions fill the rectangle whose corner nearest
// the origin is (X, Y).
type Instruction struct {
	Kind    Kind            `json:"kind"`
	Field   models.FieldKey `json:"field,omitempty"`
	Text    string          `json:"text,omitempty"`
	Font    layout.Font     `json:"font"`
	Size    float64         `json:"size,omitempty"`
	Color   layout.RGB      `json:"color"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height,omitempty"`
	Rotate  float64         `json:"rotate,omitempty"`
	Opacity float64         `json:"opacity"`

	// Source is SourceBackground or the name of the embedded Image.
	Source string `json:"source,omitempty"`
	Image  []byte `json:"-"`
}

// Page is the drawing instruction list for one recipient.
type Page struct {
	Index        int                 `json:"index"`
	Recipient    models.Recipient    `json:"recipient"`
	Geometry     models.PageGeometry `json:"geometry"`
	FlipY        bool                `json:"flipY"`
	Instructions []Instruction       `json:"instructions"`
	Warnings     []layout.Warning    `json:"warnings,omitempty"`
}

// Text returns the text drawn for field key, if any.
func (p Page) Text(key models.FieldKey) (string, bool) {
	for _, ins := range p.Instructions {
		if ins.Kind == KindText && ins.Field == key {
			return ins.Text, true
		}
	}
	return "", false
}

// Document is a rendered set of pages sharing one geometry and background.
type Document struct {
	Geometry   models.PageGeometry `json:"geometry"`
	Background *Background         `json:"background,omitempty"`
	Pages      []Page              `json:"pages"`
}

// Warnings collects the warnings of every page, in page order.
func (d Document) Warnings() []layout.Warning {
	var out []layout.Warning
	for _, p := range d.Pages {
		out = append(out, p.Warnings...)
	}
	return out
}

// toTopDown converts a y coordinate of the page into the top-left origin
// system. h is the height of the object for image rectangles, 0 for baselines.
func (p Page) toTopDown(y, h float64) float64 {
	if !p.FlipY {
		return y
	}
	return p.Geometry.Height - y - h
}
