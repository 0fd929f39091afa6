// Package layout holds the arithmetic shared by every render backend:
// normalized-to-absolute coordinate mapping, fit-to-width font sizing,
// cover-fit background placement and style value resolution.
package layout

import "math"

// Position is a normalized coordinate, each component in [0,1] with the
// origin at the top-left corner of the page as the editor shows it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point is an absolute coordinate in the target coordinate system.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// unit clamps v to [0,1]. Non-finite values become 0 and report false.
func unit(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Min(math.Max(v, 0), 1), true
}

// Clamp returns p with both components in [0,1].
func (p Position) Clamp() Position {
	x, _ := unit(p.X)
	y, _ := unit(p.Y)
	return Position{X: x, Y: y}
}

// Finite reports whether both components are finite numbers.
func (p Position) Finite() bool {
	_, okX := unit(p.X)
	_, okY := unit(p.Y)
	return okX && okY
}

// ToAbsolute maps a normalized position onto a width x height surface.
// With flipY the result uses a bottom-left origin (PDF), otherwise a
// top-left origin (canvas). Out-of-range input is clamped, never rejected.
func ToAbsolute(pos Position, width, height float64, flipY bool) Point {
	p := pos.Clamp()
	y := p.Y * height
	if flipY {
		y = (1 - p.Y) * height
	}
	return Point{X: p.X * width, Y: y}
}
