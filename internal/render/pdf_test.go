package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"certgen/internal/layout"
	"certgen/internal/models"
)

func TestPDFMetricsFitSize(t *testing.T) {
	m := NewPDFMetrics()
	f := layout.Font{Family: layout.Helvetica, Weight: layout.Bold}
	text := models.DefaultTitle

	size := layout.FitSize(text, f, 600, 40, 18, m)
	if size < 18 || size > 40 {
		t.Fatalf("size %v outside [18, 40]", size)
	}
	if size > 18 {
		if w := m.Measure(text, f, size); w > 600 {
			t.Errorf("width %v at size %v exceeds 600", w, size)
		}
	}
	if size < 40 {
		if w := m.Measure(text, f, size+1); w <= 600 {
			t.Errorf("size %v is not the largest fitting size", size)
		}
	}
}

func TestPDFMetricsScales(t *testing.T) {
	m := NewPDFMetrics()
	f := layout.Font{Family: layout.Times}
	small, large := m.Measure("Ada", f, 10), m.Measure("Ada", f, 20)
	if small <= 0 || !near(large, 2*small) {
		t.Errorf("widths %v and %v do not scale with size", small, large)
	}
	bold := m.Measure("Ada", layout.Font{Family: layout.Times, Weight: layout.Bold}, 10)
	if bold == small {
		t.Error("bold and regular widths are equal")
	}
}

func TestPDFBackendWrite(t *testing.T) {
	r := NewRenderer(NewPDFMetrics(), Options{FlipY: true, Preview: true, VerifyBaseURL: "https://example.com/v"})
	doc := r.RenderDocument(testRows(), models.DefaultFields(), a4Landscape, testBackground(t, 400, 300))

	var first, second bytes.Buffer
	if err := (&PDFBackend{Title: "Certificates"}).Write(&first, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := (&PDFBackend{Title: "Certificates"}).Write(&second, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := first.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", out[:min(len(out), 16)])
	}
	if got := bytes.Count(out, []byte("/Type /Page\n")); got != len(doc.Pages) {
		t.Errorf("got %d page objects, want %d", got, len(doc.Pages))
	}
	if !bytes.Equal(out, second.Bytes()) {
		t.Error("identical documents produced different bytes")
	}
}

func TestPDFBackendPortraitLetter(t *testing.T) {
	g := models.Geometry(models.PaperLetter, models.Portrait)
	doc := NewRenderer(NewPDFMetrics(), Options{FlipY: true}).RenderDocument(testRows()[:1], models.DefaultFields(), g, nil)

	var buf bytes.Buffer
	if err := (&PDFBackend{}).Write(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/MediaBox [0 0 612.00 792.00]")) {
		t.Error("media box does not match portrait letter")
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestPDFBackendSixteenBitBackground(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA64{R: 0xc000, G: 0xb000, B: 0x7000, A: 0xffff})
		}
	}
	var src bytes.Buffer
	if err := png.Encode(&src, img); err != nil {
		t.Fatal(err)
	}
	if pdfReadablePNG(src.Bytes()) {
		t.Fatal("16-bit PNG reported as embeddable")
	}
	bg, err := DecodeBackground(src.Bytes())
	if err != nil {
		t.Fatalf("DecodeBackground: %v", err)
	}

	doc := NewRenderer(NewPDFMetrics(), Options{FlipY: true}).RenderDocument(testRows()[:1], models.DefaultFields(), a4Landscape, bg)
	var buf bytes.Buffer
	if err := (&PDFBackend{}).Write(&buf, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output does not start with a PDF header")
	}

	data, err := bg.pdfData()
	if err != nil {
		t.Fatal(err)
	}
	if !pdfReadablePNG(data) {
		t.Error("re-encoded background is still not embeddable")
	}
	if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err != nil || cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("re-encoded config = %+v, %v; want 40x30", cfg, err)
	}
}

func TestPDFBackgroundKeepsEightBitPNG(t *testing.T) {
	bg := testBackground(t, 20, 10)
	data, err := bg.pdfData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, bg.Data) {
		t.Error("8-bit PNG was re-encoded")
	}
}
