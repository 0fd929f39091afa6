package layout

import "math"

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CoverRect scales an imgW x imgH image so that it covers a boxW x boxH box
// while keeping its aspect ratio, centering the overflow on both axes.
// Offsets are negative on the axis that gets cropped.
//
// Non-positive or non-finite image dimensions cannot be scaled; the box
// itself is returned with ok=false.
func CoverRect(imgW, imgH, boxW, boxH float64) (r Rect, ok bool) {
	if !positive(imgW) || !positive(imgH) {
		return Rect{Width: boxW, Height: boxH}, false
	}

	scale := math.Max(boxW/imgW, boxH/imgH)
	w := imgW * scale
	h := imgH * scale
	return Rect{
		X:      (boxW - w) / 2,
		Y:      (boxH - h) / 2,
		Width:  w,
		Height: h,
	}, true
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
