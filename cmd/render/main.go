package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certgen/internal/config"
	"certgen/internal/export"
	"certgen/internal/layout"
	"certgen/internal/models"
	"certgen/internal/recipients"
	"certgen/internal/render"
	"certgen/internal/storage"
)

type options struct {
	RowsFile    string
	Template    string
	FieldsFile  string
	Paper       string
	Orientation string
	Format      string
	Out         string
	Preview     bool
	Date        string
	Issuer      string
	VerifyURL   string
}

func main() {
	var opts options
	flag.StringVar(&opts.RowsFile, "rows", "recipients.csv", "Path to a .csv or .txt file of recipients")
	flag.StringVar(&opts.Template, "template", "", "Background image: a file, a template key, or an http(s) URL")
	flag.StringVar(&opts.FieldsFile, "fields", "", "Optional JSON file of field overrides")
	flag.StringVar(&opts.Paper, "paper", "a4", "Paper size (a4, letter)")
	flag.StringVar(&opts.Orientation, "orientation", "landscape", "Page orientation (landscape, portrait)")
	flag.StringVar(&opts.Format, "format", "pdf", "Output format (pdf, png, zip)")
	flag.StringVar(&opts.Out, "out", "", "Output file (default certificates.<format>)")
	flag.BoolVar(&opts.Preview, "preview", false, "Draw the preview watermark")
	flag.StringVar(&opts.Date, "date", "", "Date for rows without one")
	flag.StringVar(&opts.Issuer, "issuer", "", "Issuer for rows without one")
	flag.StringVar(&opts.VerifyURL, "verify-url", "", "Base URL for verification QR codes")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(opts options) error {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if opts.Out == "" {
		opts.Out = format.FileName("certificates")
	}

	// 1. Read Recipients
	rows, err := readRows(opts.RowsFile)
	if err != nil {
		return fmt.Errorf("failed to read recipients: %w", err)
	}
	fmt.Printf("Loaded %d recipients from %s\n", len(rows), opts.RowsFile)
	if len(rows) > models.PreviewLimit {
		fmt.Printf("  -> Only the first %d will be rendered\n", models.PreviewLimit)
	}

	// 2. Read Fields
	fields := models.DefaultFields()
	if opts.FieldsFile != "" {
		if fields, err = readFields(opts.FieldsFile, fields); err != nil {
			return fmt.Errorf("failed to read fields: %w", err)
		}
	}

	paper, err := models.ParsePaperSize(opts.Paper)
	if err != nil {
		return err
	}
	orientation, err := models.ParseOrientation(opts.Orientation)
	if err != nil {
		return err
	}

	// 3. Load Background
	var bg *render.Background
	if opts.Template != "" {
		data, err := loadTemplate(ctx, cfg, opts.Template)
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}
		if bg, err = render.DecodeBackground(data); err != nil {
			return err
		}
		fmt.Printf("  -> Template: %s %dx%d\n", bg.Format, bg.Width, bg.Height)
	}

	// 4. Lay Out Pages
	fonts := render.NewFontSet(cfg.FontDir)
	var measurer layout.Measurer = render.NewCanvasMetrics(fonts)
	if format.FlipY() {
		measurer = render.NewPDFMetrics()
	}
	verifyURL := opts.VerifyURL
	if verifyURL == "" {
		verifyURL = cfg.VerifyBaseURL
	}
	r := render.NewRenderer(measurer, render.Options{
		FlipY:         format.FlipY(),
		Preview:       opts.Preview || cfg.Preview,
		DefaultDate:   opts.Date,
		DefaultIssuer: opts.Issuer,
		VerifyBaseURL: verifyURL,
	})
	doc := r.RenderDocument(rows, fields, models.Geometry(paper, orientation), bg)
	for _, w := range doc.Warnings() {
		log.Printf("  -> Warning: %s", w)
	}

	// 5. Export
	f, err := os.Create(opts.Out)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err := export.Export(ctx, f, doc, format, export.Options{
		Title: models.DefaultTitle,
		Fonts: fonts,
		Scale: cfg.CanvasScale,
	}); err != nil {
		return err
	}
	fmt.Printf("Wrote %d pages to %s (Time: %v)\n", len(doc.Pages), opts.Out, time.Since(start).Round(time.Millisecond))
	return f.Close()
}

func readRows(path string) ([]models.Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return recipients.Parse(path, f)
}

func readFields(path string, base []models.FieldDescriptor) ([]models.FieldDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var overrides []models.FieldOverride
	if err := json.NewDecoder(f).Decode(&overrides); err != nil {
		return nil, err
	}
	return models.ApplyOverrides(base, overrides)
}

// loadTemplate reads a local file if one exists at ref and resolves it as a
// store key or URL otherwise.
func loadTemplate(ctx context.Context, cfg config.Config, ref string) ([]byte, error) {
	if !strings.Contains(ref, "://") {
		data, err := os.ReadFile(filepath.Clean(ref))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	resolver := &storage.Resolver{Store: store, Fetcher: storage.NewFetcher(cfg.MaxTemplateBytes)}
	return resolver.Load(ctx, ref)
}
