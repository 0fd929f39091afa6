package layout

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// RGB is a color with each channel normalized to [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var Black = RGB{}

// ParseHexColor parses "#RRGGBB" or the "#RGB" shorthand. The leading '#'
// is optional.
func ParseHexColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return Black, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Black, fmt.Errorf("invalid hex color %q", s)
	}
	return RGB{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Bytes returns the color as 8-bit channels.
func (c RGB) Bytes() (r, g, b uint8) {
	return channel(c.R), channel(c.G), channel(c.B)
}

// NRGBA returns c with the given opacity in [0,1].
func (c RGB) NRGBA(opacity float64) color.NRGBA {
	r, g, b := c.Bytes()
	return color.NRGBA{R: r, G: g, B: b, A: channel(opacity)}
}

func (c RGB) Hex() string {
	r, g, b := c.Bytes()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func channel(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
