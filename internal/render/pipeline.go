// Package render turns recipient rows and field descriptors into drawing
// instructions and writes them out through a PDF or canvas backend.
package render

import (
	"fmt"
	"math"
	"strings"

	"certgen/internal/layout"
	"certgen/internal/models"
)

const (
	defaultSizePt   = 12.0
	defaultMinSize  = 8.0
	defaultMaxWidth = 0.82

	// QR code edge and margin as a fraction of the shorter page side
	qrSide   = 0.14
	qrMargin = 0.04
)

type Options struct {
	// FlipY produces PDF coordinates (origin bottom-left) instead of
	// canvas coordinates (origin top-left).
	FlipY bool

	// Preview draws the watermark on every page.
	Preview bool

	// DefaultDate and DefaultIssuer fill the date and issuer fields of rows
	// that leave them empty.
	DefaultDate   string
	DefaultIssuer string

	// VerifyBaseURL, when set, adds a QR code linking to VerifyURL.
	VerifyBaseURL string
}

// Renderer lays out certificate pages. It is stateless apart from its
// configuration, so one Renderer may serve concurrent calls if its Measurer
// is safe for concurrent use.
type Renderer struct {
	measurer layout.Measurer
	opts     Options
}

func NewRenderer(m layout.Measurer, opts Options) *Renderer {
	return &Renderer{measurer: m, opts: opts}
}

// RenderDocument lays out one page per row, in row order. Rows beyond
// models.PreviewLimit are dropped.
func (r *Renderer) RenderDocument(rows []models.Recipient, fields []models.FieldDescriptor, g models.PageGeometry, bg *Background) Document {
	rows = models.CapRows(rows)
	doc := Document{Geometry: g, Background: bg, Pages: make([]Page, 0, len(rows))}
	for i, row := range rows {
		page := r.RenderPage(row, fields, g, bg)
		page.Index = i
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

// RenderPage lays out a single certificate. It is a pure function of its
// arguments and the renderer's options.
func (r *Renderer) RenderPage(row models.Recipient, fields []models.FieldDescriptor, g models.PageGeometry, bg *Background) Page {
	page := Page{Recipient: row, Geometry: g, FlipY: r.opts.FlipY}

	if bg != nil {
		page.Instructions = append(page.Instructions, r.background(bg, g))
	}

	for _, key := range models.FieldOrder {
		f, ok := findField(fields, key)
		if !ok || f.Hidden {
			continue
		}
		text := r.resolveText(f, row)
		if text == "" {
			continue
		}
		ins, warnings := r.textInstruction(f, text, g)
		page.Instructions = append(page.Instructions, ins)
		page.Warnings = append(page.Warnings, warnings...)
	}

	if r.opts.VerifyBaseURL != "" {
		ins, err := r.qrInstruction(row, g)
		if err != nil {
			page.Warnings = append(page.Warnings, layout.Warning{
				Field:   "qr",
				Value:   VerifyURL(r.opts.VerifyBaseURL, row),
				Message: err.Error(),
			})
		} else {
			page.Instructions = append(page.Instructions, ins)
		}
	}

	if r.opts.Preview {
		page.Instructions = append(page.Instructions, r.watermark(g))
	}
	return page
}

func findField(fields []models.FieldDescriptor, key models.FieldKey) (models.FieldDescriptor, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return models.FieldDescriptor{}, false
}

func (r *Renderer) resolveText(f models.FieldDescriptor, row models.Recipient) string {
	var text string
	switch f.Key {
	case models.FieldName:
		text = row.Name
	case models.FieldAward:
		text = row.Award
	case models.FieldDate:
		text = firstNonEmpty(row.Date, r.opts.DefaultDate)
	case models.FieldIssuer:
		text = firstNonEmpty(row.Issuer, r.opts.DefaultIssuer)
	case models.FieldCertTitle:
		// the title is always shown
		text = firstNonEmpty(f.Text, models.DefaultTitle)
	default:
		text = f.Text
	}
	return strings.TrimSpace(text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (r *Renderer) textInstruction(f models.FieldDescriptor, text string, g models.PageGeometry) (Instruction, []layout.Warning) {
	var warnings []layout.Warning
	warn := func(value, msg string) {
		warnings = append(warnings, layout.Warning{Field: string(f.Key), Value: value, Message: msg})
	}

	fnt := layout.Font{Weight: layout.Regular}
	if f.Style.IsBold() {
		fnt.Weight = layout.Bold
	}
	if f.Style.FontID != "" {
		family, err := layout.ParseFamily(f.Style.FontID)
		if err != nil {
			warn(f.Style.FontID, "unknown font, using helvetica")
		}
		fnt.Family = family
	}

	color := layout.Black
	if f.Style.Color != "" {
		c, err := layout.ParseHexColor(f.Style.Color)
		if err != nil {
			warn(f.Style.Color, "malformed color, using black")
		}
		color = c
	}

	size := f.Style.SizePt
	if !validNumber(size) {
		warn(fmt.Sprint(size), "invalid font size, using 12pt")
		size = defaultSizePt
	}
	if f.Style.AutoFit {
		frac := f.Style.MaxWidth
		if !validNumber(frac) || frac > 1 {
			frac = defaultMaxWidth
		}
		minSize := f.Style.MinSizePt
		if !validNumber(minSize) {
			minSize = defaultMinSize
		}
		size = layout.FitSize(text, fnt, frac*g.Width, size, minSize, r.measurer)
	}

	if !f.Position.Finite() {
		warn(fmt.Sprintf("%v,%v", f.Position.X, f.Position.Y), "non-numeric position, using 0")
	}
	p := layout.ToAbsolute(f.Position, g.Width, g.Height, r.opts.FlipY)
	width := r.measure(text, fnt, size)

	return Instruction{
		Kind:    KindText,
		Field:   f.Key,
		Text:    text,
		Font:    fnt,
		Size:    size,
		Color:   color,
		X:       p.X - width/2,
		Y:       p.Y,
		Width:   width,
		Opacity: 1,
	}, warnings
}

func validNumber(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func (r *Renderer) measure(text string, f layout.Font, size float64) float64 {
	if r.measurer == nil {
		return 0
	}
	return r.measurer.Measure(text, f, size)
}

// background covers the whole page with the template.
func (r *Renderer) background(bg *Background, g models.PageGeometry) Instruction {
	rect, _ := layout.CoverRect(float64(bg.Width), float64(bg.Height), g.Width, g.Height)
	return r.imageInstruction(SourceBackground, nil, rect, g)
}

// qrInstruction places the verification code in the bottom-right corner.
func (r *Renderer) qrInstruction(row models.Recipient, g models.PageGeometry) (Instruction, error) {
	png, err := qrCodePNG(VerifyURL(r.opts.VerifyBaseURL, row))
	if err != nil {
		return Instruction{}, err
	}
	short := math.Min(g.Width, g.Height)
	side := short * qrSide
	margin := short * qrMargin
	rect := layout.Rect{X: g.Width - margin - side, Y: g.Height - margin - side, Width: side, Height: side}
	return r.imageInstruction("qr", png, rect, g), nil
}

// imageInstruction converts a top-down rectangle into the page's
// coordinate system.
func (r *Renderer) imageInstruction(source string, data []byte, rect layout.Rect, g models.PageGeometry) Instruction {
	y := rect.Y
	if r.opts.FlipY {
		y = g.Height - rect.Y - rect.Height
	}
	return Instruction{
		Kind:    KindImage,
		Source:  source,
		Image:   data,
		X:       rect.X,
		Y:       y,
		Width:   rect.Width,
		Height:  rect.Height,
		Opacity: 1,
	}
}
