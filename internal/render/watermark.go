package render

import (
	"certgen/internal/layout"
	"certgen/internal/models"
)

// The preview watermark is fixed; it is not part of the editable field set.
const (
	WatermarkText    = "PREVIEW"
	watermarkSize    = 72.0
	watermarkAngle   = 45.0
	watermarkOpacity = 0.18
)

var (
	watermarkFont  = layout.Font{Family: layout.Helvetica, Weight: layout.Bold}
	watermarkColor = layout.RGB{R: 0.5, G: 0.5, B: 0.5}
)

// watermark centers WatermarkText on the page, rotated about its center.
func (r *Renderer) watermark(g models.PageGeometry) Instruction {
	center := layout.ToAbsolute(layout.Position{X: 0.5, Y: 0.5}, g.Width, g.Height, r.opts.FlipY)
	width := r.measure(WatermarkText, watermarkFont, watermarkSize)
	return Instruction{
		Kind:    KindWatermark,
		Text:    WatermarkText,
		Font:    watermarkFont,
		Size:    watermarkSize,
		Color:   watermarkColor,
		X:       center.X - width/2,
		Y:       center.Y,
		Width:   width,
		Rotate:  watermarkAngle,
		Opacity: watermarkOpacity,
	}
}
