package models

import (
	"fmt"
	"strings"
)

type PaperSize string

const (
	PaperA4     PaperSize = "A4"
	PaperLetter PaperSize = "LETTER"
)

type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// PageGeometry is a page size in points.
type PageGeometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// portrait dimensions (pt); landscape swaps them
var paperSizes = map[PaperSize]PageGeometry{
	PaperA4:     {Width: 595, Height: 842},
	PaperLetter: {Width: 612, Height: 792},
}

func ParsePaperSize(s string) (PaperSize, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "A4":
		return PaperA4, nil
	case "LETTER", "US-LETTER", "USLETTER":
		return PaperLetter, nil
	}
	return "", fmt.Errorf("unknown paper size %q", s)
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "landscape", "l":
		return Landscape, nil
	case "portrait", "p":
		return Portrait, nil
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// Geometry looks up the page size for a paper size and orientation.
// Unknown paper sizes fall back to A4; anything but Portrait is landscape.
func Geometry(paper PaperSize, o Orientation) PageGeometry {
	g, ok := paperSizes[paper]
	if !ok {
		g = paperSizes[PaperA4]
	}
	if o == Portrait {
		return g
	}
	return PageGeometry{Width: g.Height, Height: g.Width}
}
