package layout

import (
	"fmt"
	"strings"
)

type Family int

const (
	Helvetica Family = iota
	Times
	Courier
)

type Weight int

const (
	Regular Weight = iota
	Bold
)

// Font is one of the six faces the renderer can draw with.
type Font struct {
	Family Family
	Weight Weight
}

var familyAliases = map[string]Family{
	"helvetica":       Helvetica,
	"arial":           Helvetica,
	"sans":            Helvetica,
	"sans-serif":      Helvetica,
	"times":           Times,
	"times-roman":     Times,
	"times new roman": Times,
	"serif":           Times,
	"courier":         Courier,
	"courier new":     Courier,
	"mono":            Courier,
	"monospace":       Courier,
}

// ParseFamily resolves a font identifier from the editor. Unknown
// identifiers are an error; the caller decides on the fallback.
func ParseFamily(id string) (Family, error) {
	f, ok := familyAliases[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Helvetica, fmt.Errorf("unknown font %q", id)
	}
	return f, nil
}

func (f Family) String() string {
	switch f {
	case Helvetica:
		return "helvetica"
	case Times:
		return "times"
	case Courier:
		return "courier"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// PDFName is the name of the matching PDF standard font family.
func (f Family) PDFName() string {
	switch f {
	case Times:
		return "Times"
	case Courier:
		return "Courier"
	}
	return "Helvetica"
}

func (w Weight) String() string {
	if w == Bold {
		return "bold"
	}
	return "regular"
}

// String returns "<family>-<weight>", e.g. "times-bold".
func (f Font) String() string {
	return f.Family.String() + "-" + f.Weight.String()
}

// PDFStyle is the gofpdf style string for the weight.
func (f Font) PDFStyle() string {
	if f.Weight == Bold {
		return "B"
	}
	return ""
}

func (f Font) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFont reads the form produced by Font.String.
func ParseFont(s string) (Font, error) {
	family, weight, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	fam, err := ParseFamily(family)
	if err != nil {
		return Font{}, err
	}
	f := Font{Family: fam}
	switch weight {
	case "", "regular":
	case "bold":
		f.Weight = Bold
	default:
		return Font{}, fmt.Errorf("unknown font weight %q", weight)
	}
	return f, nil
}

func (f *Font) UnmarshalText(text []byte) error {
	parsed, err := ParseFont(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
