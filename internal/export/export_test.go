package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"certgen/internal/models"
	"certgen/internal/render"

	"github.com/google/go-cmp/cmp"
)

var a4 = models.Geometry(models.PaperA4, models.Landscape)

func testDoc(format Format) render.Document {
	fonts := render.NewFontSet("")
	r := render.NewRenderer(render.NewCanvasMetrics(fonts), render.Options{FlipY: format.FlipY(), Preview: true})
	if format == FormatPDF {
		r = render.NewRenderer(render.NewPDFMetrics(), render.Options{FlipY: true, Preview: true})
	}
	rows := []models.Recipient{
		{Name: "Ada Lovelace", Award: "Analyst"},
		{Name: "Grace Hopper"},
		{Name: "Alan Turing"},
	}
	return r.RenderDocument(rows, models.DefaultFields(), a4, nil)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatPDF, "PDF": FormatPDF, " png ": FormatPNG, "zip": FormatZIP}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
	if FormatZIP.ContentType() != "application/zip" || FormatPDF.FileName("") != "certificates.pdf" {
		t.Error("unexpected format metadata")
	}
}

func TestExportPDF(t *testing.T) {
	data, err := Bytes(context.Background(), testDoc(FormatPDF), FormatPDF, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("missing pdf header")
	}
}

func TestExportPNG(t *testing.T) {
	data, err := Bytes(context.Background(), testDoc(FormatPNG), FormatPNG, Options{Scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 842 || cfg.Height != 595 {
		t.Errorf("png is %dx%d, want 842x595", cfg.Width, cfg.Height)
	}
}

func TestExportZIP(t *testing.T) {
	data, err := Bytes(context.Background(), testDoc(FormatZIP), FormatZIP, Options{Scale: 0.5, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := png.DecodeConfig(rc); err != nil {
			t.Errorf("%s: %v", f.Name, err)
		}
		rc.Close()
	}
	want := []string{"01-ada-lovelace.png", "02-grace-hopper.png", "03-alan-turing.png"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
}

func TestExportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Bytes(ctx, testDoc(FormatZIP), FormatZIP, Options{Scale: 0.5})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExportEmpty(t *testing.T) {
	if _, err := Bytes(context.Background(), render.Document{}, FormatPDF, Options{}); err == nil {
		t.Error("empty document exported")
	}
	if _, err := Bytes(context.Background(), testDoc(FormatPNG), Format("gif"), Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}
