package render

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"certgen/internal/layout"
	"certgen/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var halfEm = layout.MeasureFunc(func(text string, _ layout.Font, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.5
})

var a4Landscape = models.Geometry(models.PaperA4, models.Landscape)

func testRows() []models.Recipient {
	return []models.Recipient{
		{Name: "Ada Lovelace", Award: "Best Analyst"},
		{Name: "Grace Hopper", Award: "Compiler Pioneer", Date: "1952-05-01"},
		{Name: "Alan Turing"},
	}
}

func TestRenderDocumentPreview(t *testing.T) {
	r := NewRenderer(halfEm, Options{FlipY: true, Preview: true, DefaultDate: "2024-01-01", DefaultIssuer: "ACME"})
	rows := testRows()
	doc := r.RenderDocument(rows, models.DefaultFields(), a4Landscape, testBackground(t, 1000, 500))

	if len(doc.Pages) != len(rows) {
		t.Fatalf("got %d pages, want %d", len(doc.Pages), len(rows))
	}

	var first Instruction
	for i, page := range doc.Pages {
		if page.Index != i {
			t.Errorf("page %d: Index = %d", i, page.Index)
		}
		name, ok := page.Text(models.FieldName)
		if !ok || name != rows[i].Name {
			t.Errorf("page %d: name = %q, want %q", i, name, rows[i].Name)
		}

		marks := 0
		var mark Instruction
		for _, ins := range page.Instructions {
			if ins.Kind == KindWatermark {
				marks++
				mark = ins
			}
		}
		if marks != 1 {
			t.Fatalf("page %d: %d watermarks, want 1", i, marks)
		}
		if i == 0 {
			first = mark
		} else if diff := cmp.Diff(first, mark); diff != "" {
			t.Errorf("page %d watermark differs (-first +got):\n%s", i, diff)
		}
		if last := page.Instructions[len(page.Instructions)-1]; last.Kind != KindWatermark {
			t.Errorf("page %d: watermark is not drawn last", i)
		}
		if page.Instructions[0].Kind != KindImage || page.Instructions[0].Source != SourceBackground {
			t.Errorf("page %d: background is not drawn first", i)
		}
	}

	if first.Text != WatermarkText || first.Rotate != 45 || first.Opacity >= 1 {
		t.Errorf("unexpected watermark %+v", first)
	}
}

func TestRenderDocumentDefaults(t *testing.T) {
	r := NewRenderer(halfEm, Options{DefaultDate: "2024-01-01", DefaultIssuer: "ACME"})
	doc := r.RenderDocument(testRows(), models.DefaultFields(), a4Landscape, nil)

	tests := []struct {
		page int
		key  models.FieldKey
		want string
		ok   bool
	}{
		{0, models.FieldCertTitle, models.DefaultTitle, true},
		{0, models.FieldDate, "2024-01-01", true},
		{0, models.FieldIssuer, "ACME", true},
		{1, models.FieldDate, "1952-05-01", true},
		{1, models.FieldAward, "Compiler Pioneer", true},
		{2, models.FieldAward, "", false},
	}
	for _, tc := range tests {
		got, ok := doc.Pages[tc.page].Text(tc.key)
		if got != tc.want || ok != tc.ok {
			t.Errorf("page %d %s: got (%q, %v), want (%q, %v)", tc.page, tc.key, got, ok, tc.want, tc.ok)
		}
	}

	for _, ins := range doc.Pages[0].Instructions {
		if ins.Kind == KindWatermark {
			t.Error("watermark drawn outside preview mode")
		}
	}
}

func TestRenderDocumentCapsRows(t *testing.T) {
	rows := make([]models.Recipient, 6)
	for i := range rows {
		rows[i] = models.Recipient{Name: strings.Repeat("x", i+1)}
	}
	doc := NewRenderer(halfEm, Options{}).RenderDocument(rows, models.DefaultFields(), a4Landscape, nil)
	if len(doc.Pages) != models.PreviewLimit {
		t.Fatalf("got %d pages, want %d", len(doc.Pages), models.PreviewLimit)
	}
	if name, _ := doc.Pages[4].Text(models.FieldName); name != "xxxxx" {
		t.Errorf("last page name = %q", name)
	}
}

func TestRenderDocumentIdempotent(t *testing.T) {
	r := NewRenderer(halfEm, Options{FlipY: true, Preview: true, VerifyBaseURL: "https://example.com/verify"})
	bg := testBackground(t, 300, 200)
	a := r.RenderDocument(testRows(), models.DefaultFields(), a4Landscape, bg)
	b := r.RenderDocument(testRows(), models.DefaultFields(), a4Landscape, bg)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("renders differ (-first +second):\n%s", diff)
	}
}

func TestRenderPagePositions(t *testing.T) {
	fields := []models.FieldDescriptor{{
		Key:      models.FieldName,
		Position: layout.Position{X: 0.5, Y: 0.25},
		Style:    models.Style{SizePt: 20},
	}}
	row := models.Recipient{Name: "abcd"}

	canvas := NewRenderer(halfEm, Options{}).RenderPage(row, fields, a4Landscape, nil)
	pdf := NewRenderer(halfEm, Options{FlipY: true}).RenderPage(row, fields, a4Landscape, nil)

	c, p := canvas.Instructions[0], pdf.Instructions[0]
	// 4 runes at 20pt, half an em each
	if c.Width != 40 || c.X != 842*0.5-20 {
		t.Errorf("canvas x/width = %v/%v", c.X, c.Width)
	}
	if c.Y != 595*0.25 {
		t.Errorf("canvas y = %v", c.Y)
	}
	if p.Y != 595-595*0.25 {
		t.Errorf("pdf y = %v", p.Y)
	}
	if c.X != p.X {
		t.Errorf("x differs between coordinate systems: %v vs %v", c.X, p.X)
	}
}

func TestRenderPageAutoFit(t *testing.T) {
	fields := []models.FieldDescriptor{{
		Key:      models.FieldName,
		Position: layout.Position{X: 0.5, Y: 0.5},
		Style:    models.Style{SizePt: 40, AutoFit: true, MaxWidth: 0.5, MinSizePt: 10},
	}}
	// 100 runes * size * 0.5 <= 421 gives 8.42, below the floor
	row := models.Recipient{Name: strings.Repeat("m", 100)}
	page := NewRenderer(halfEm, Options{}).RenderPage(row, fields, a4Landscape, nil)
	if got := page.Instructions[0].Size; got != 10 {
		t.Errorf("size = %v, want floor 10", got)
	}

	row = models.Recipient{Name: strings.Repeat("m", 20)}
	page = NewRenderer(halfEm, Options{}).RenderPage(row, fields, a4Landscape, nil)
	if got := page.Instructions[0].Size; got != 40 {
		t.Errorf("size = %v, want 40", got)
	}
}

func TestRenderPageWarnings(t *testing.T) {
	fields := []models.FieldDescriptor{{
		Key:      models.FieldName,
		Position: layout.Position{X: math.NaN(), Y: 0.5},
		Style:    models.Style{FontID: "comic-sans", Color: "#12345", SizePt: -3},
	}}
	page := NewRenderer(halfEm, Options{}).RenderPage(models.Recipient{Name: "Ada"}, fields, a4Landscape, nil)

	if len(page.Instructions) != 1 {
		t.Fatalf("got %d instructions, want 1", len(page.Instructions))
	}
	ins := page.Instructions[0]
	if ins.Font.Family != layout.Helvetica || ins.Color != layout.Black || ins.Size != 12 {
		t.Errorf("fallbacks not applied: %+v", ins)
	}
	if ins.X != -ins.Width/2 {
		t.Errorf("NaN x should map to 0, got left edge %v", ins.X)
	}

	var got []string
	for _, w := range page.Warnings {
		got = append(got, w.Value)
	}
	want := []string{"comic-sans", "#12345", "-3", "NaN,0.5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("warning values (-want +got):\n%s", diff)
	}
}

func TestRenderPageHiddenAndBlank(t *testing.T) {
	fields := models.DefaultFields()
	fields, err := models.ApplyOverrides(fields, []models.FieldOverride{
		{Key: models.FieldSubtitle, Hidden: ptr(true)},
		{Key: models.FieldDescription, Text: ptr("   ")},
	})
	if err != nil {
		t.Fatal(err)
	}
	page := NewRenderer(halfEm, Options{}).RenderPage(models.Recipient{Name: "Ada"}, fields, a4Landscape, nil)
	for _, key := range []models.FieldKey{models.FieldSubtitle, models.FieldDescription} {
		if _, ok := page.Text(key); ok {
			t.Errorf("%s should not be drawn", key)
		}
	}
}

func TestRenderPageQRCode(t *testing.T) {
	r := NewRenderer(halfEm, Options{VerifyBaseURL: "https://example.com/verify/"})
	page := r.RenderPage(models.Recipient{Name: "Ada Lovelace"}, nil, a4Landscape, nil)
	// no field descriptors, so the qr code is the only instruction
	if len(page.Instructions) != 1 {
		t.Fatalf("got %d instructions, want 1", len(page.Instructions))
	}
	qr := page.Instructions[0]
	if qr.Kind != KindImage || qr.Source != "qr" || len(qr.Image) == 0 {
		t.Fatalf("unexpected qr instruction %+v", qr)
	}
	if qr.X+qr.Width > a4Landscape.Width || qr.Y+qr.Height > a4Landscape.Height {
		t.Errorf("qr code outside page: %+v", qr)
	}
	if got := VerifyURL("https://example.com/verify/", page.Recipient); got != "https://example.com/verify#ada-lovelace" {
		t.Errorf("VerifyURL = %q", got)
	}
}

func TestRenderPageBackgroundCover(t *testing.T) {
	r := NewRenderer(halfEm, Options{FlipY: true})
	page := r.RenderPage(models.Recipient{}, nil, a4Landscape, testBackground(t, 1000, 500))
	bg := page.Instructions[0]
	want := Instruction{Kind: KindImage, Source: SourceBackground, X: -174, Y: 0, Width: 1190, Height: 595, Opacity: 1}
	if diff := cmp.Diff(want, bg, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("background (-want +got):\n%s", diff)
	}
}

func ptr[T any](v T) *T { return &v }
