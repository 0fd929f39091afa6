package layout

import (
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#FF0000", "#FF0000"},
		{"#00ff7f", "#00FF7F"},
		{"0000FF", "#0000FF"},
		{"#abc", "#AABBCC"},
		{"  #123456 ", "#123456"},
	}
	for _, tc := range tests {
		c, err := ParseHexColor(tc.in)
		if err != nil {
			t.Errorf("ParseHexColor(%q): %v", tc.in, err)
			continue
		}
		if got := c.Hex(); got != tc.want {
			t.Errorf("ParseHexColor(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseHexColorMalformed(t *testing.T) {
	for _, in := range []string{"", "#", "#12", "#12345", "#1234567", "#GGGGGG", "red", "#-12345"} {
		c, err := ParseHexColor(in)
		if err == nil {
			t.Errorf("ParseHexColor(%q) succeeded", in)
		}
		if c != Black {
			t.Errorf("ParseHexColor(%q) = %v, want black", in, c)
		}
	}
}

func TestRGBNormalized(t *testing.T) {
	c, err := ParseHexColor("#FF8000")
	if err != nil {
		t.Fatal(err)
	}
	if c.R != 1 || c.B != 0 || !near(c.G, 128.0/255) {
		t.Errorf("got %+v", c)
	}
	if got := c.NRGBA(0.5); got != (color.NRGBA{255, 128, 0, 128}) {
		t.Errorf("NRGBA = %v", got)
	}
}
