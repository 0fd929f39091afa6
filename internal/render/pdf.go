package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"sync"
	"time"

	"certgen/internal/layout"

	"github.com/jung-kurt/gofpdf"
)

// PDFMetrics measures text with the widths of the PDF standard fonts, in
// points. It is safe for concurrent use.
type PDFMetrics struct {
	mu  sync.Mutex
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func NewPDFMetrics() *PDFMetrics {
	pdf := gofpdf.New("P", "pt", "A4", "")
	return &PDFMetrics{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *PDFMetrics) Measure(text string, f layout.Font, size float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(f.Family.PDFName(), f.PDFStyle(), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

// PDFBackend serializes a Document as one multi-page PDF.
type PDFBackend struct {
	Title string

	// CreationDate is written into the document info. The zero value
	// uses a fixed date so identical documents produce identical bytes.
	CreationDate time.Time
}

var fixedCreationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func (b *PDFBackend) Write(w io.Writer, doc Document) error {
	g := doc.Geometry
	// gofpdf swaps Wd and Ht for "L"; the geometry already carries the orientation
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	created := b.CreationDate
	if created.IsZero() {
		created = fixedCreationDate
	}
	pdf.SetCreationDate(created)
	pdf.SetCreator("certgen", true)
	if b.Title != "" {
		pdf.SetTitle(b.Title, true)
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Background != nil {
		data, err := doc.Background.pdfData()
		if err != nil {
			return err
		}
		pdf.RegisterImageOptionsReader(SourceBackground, imageOptions(doc.Background.Format), bytes.NewReader(data))
	}

	for _, page := range doc.Pages {
		pdf.AddPage()
		for i, ins := range page.Instructions {
			switch ins.Kind {
			case KindImage:
				name := ins.Source
				format := "png"
				if name == SourceBackground {
					if doc.Background == nil {
						continue
					}
					format = doc.Background.Format
				} else {
					name = "p" + strconv.Itoa(page.Index) + "-" + strconv.Itoa(i) + "-" + ins.Source
					pdf.RegisterImageOptionsReader(name, imageOptions(format), bytes.NewReader(ins.Image))
				}
				y := page.toTopDown(ins.Y, ins.Height)
				pdf.ImageOptions(name, ins.X, y, ins.Width, ins.Height, false, imageOptions(format), 0, "")

			case KindText:
				setText(pdf, ins)
				pdf.Text(ins.X, page.toTopDown(ins.Y, 0), tr(ins.Text))

			case KindWatermark:
				setText(pdf, ins)
				y := page.toTopDown(ins.Y, 0)
				pdf.SetAlpha(ins.Opacity, "Normal")
				pdf.TransformBegin()
				pdf.TransformRotate(ins.Rotate, ins.X+ins.Width/2, y)
				pdf.Text(ins.X, y, tr(ins.Text))
				pdf.TransformEnd()
				pdf.SetAlpha(1, "Normal")
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

func setText(pdf *gofpdf.Fpdf, ins Instruction) {
	pdf.SetFont(ins.Font.Family.PDFName(), ins.Font.PDFStyle(), ins.Size)
	r, g, b := ins.Color.Bytes()
	pdf.SetTextColor(int(r), int(g), int(b))
}

func imageOptions(format string) gofpdf.ImageOptions {
	if format == "jpeg" {
		return gofpdf.ImageOptions{ImageType: "JPG"}
	}
	return gofpdf.ImageOptions{ImageType: "PNG"}
}

// pdfData returns template bytes gofpdf can embed. Its PNG reader only takes
// non-interlaced images of up to 8 bits per channel, so other PNGs are
// re-encoded as 8-bit NRGBA.
func (b *Background) pdfData() ([]byte, error) {
	if b.Format != "png" || pdfReadablePNG(b.Data) {
		return b.Data, nil
	}
	img, err := b.Decode()
	if err != nil {
		return nil, err
	}
	nrgba := image.NewNRGBA(img.Bounds())
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, fmt.Errorf("re-encode background: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfReadablePNG inspects the IHDR chunk: bit depth at offset 24, interlace
// method at offset 28.
func pdfReadablePNG(data []byte) bool {
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	return data[24] <= 8 && data[28] == 0
}
