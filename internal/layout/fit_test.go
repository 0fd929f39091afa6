package layout

import (
	"testing"
	"unicode/utf8"
)

// every rune is half an em wide
var halfEm = MeasureFunc(func(text string, _ Font, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.5
})

func TestFitSize(t *testing.T) {
	f := Font{Family: Helvetica}
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		start    float64
		min      float64
		want     float64
	}{
		{"fits at start", "abcd", 100, 40, 18, 40},
		{"shrinks", "abcdefghij", 100, 40, 18, 20}, // 10 runes * 20 * 0.5 = 100
		{"floor", "a very long string that never fits", 10, 40, 18, 18},
		{"empty", "", 600, 40, 18, 40},
		{"min above start", "abcdefghij", 1, 12, 20, 12},
		{"fractional start", "abcdefghij", 100, 20.5, 8, 19.5},
		{"zero width", "x", 0, 30, 6, 6},
	}
	for _, tc := range tests {
		got := FitSize(tc.text, f, tc.maxWidth, tc.start, tc.min, halfEm)
		if got != tc.want {
			t.Errorf("%s: FitSize = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFitSizeBounds(t *testing.T) {
	f := Font{Family: Times, Weight: Bold}
	text := "Certificate of Achievement"
	prev := 0.0
	for maxWidth := 0.0; maxWidth <= 1000; maxWidth += 25 {
		got := FitSize(text, f, maxWidth, 40, 18, halfEm)
		if got < 18 || got > 40 {
			t.Fatalf("maxWidth %v: size %v outside [18, 40]", maxWidth, got)
		}
		if got != 18 && halfEm(text, f, got) > maxWidth {
			t.Errorf("maxWidth %v: size %v does not fit", maxWidth, got)
		}
		if got < prev {
			t.Errorf("maxWidth %v: size %v smaller than %v for a narrower box", maxWidth, got, prev)
		}
		prev = got
	}
}

func TestFitSizeNilMeasurer(t *testing.T) {
	if got := FitSize("abc", Font{}, 1, 30, 10, nil); got != 30 {
		t.Errorf("got %v, want start size", got)
	}
}
