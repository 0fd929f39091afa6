package layout

import "math"

// Measurer reports the rendered width of text set in f at size points.
// Implementations must be monotonically non-decreasing in size.
type Measurer interface {
	Measure(text string, f Font, size float64) float64
}

// MeasureFunc adapts a plain function to the Measurer interface.
type MeasureFunc func(text string, f Font, size float64) float64

func (fn MeasureFunc) Measure(text string, f Font, size float64) float64 {
	return fn(text, f, size)
}

// FitSize returns the largest size, stepping down one point at a time from
// startSize, at which text measures no wider than maxWidth. The result never
// drops below minSize, so text that cannot fit is returned at minSize and
// left to overflow.
func FitSize(text string, f Font, maxWidth, startSize, minSize float64, m Measurer) float64 {
	if math.IsNaN(minSize) || math.IsInf(minSize, 0) || minSize < 0 {
		minSize = 0
	}
	if math.IsNaN(startSize) || math.IsInf(startSize, 0) || startSize <= 0 {
		return minSize
	}
	if minSize > startSize {
		minSize = startSize
	}
	if text == "" || m == nil {
		return startSize
	}

	size := startSize
	for size > minSize && m.Measure(text, f, size) > maxWidth {
		size--
	}
	return math.Max(size, minSize)
}
