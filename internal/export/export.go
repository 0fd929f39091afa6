// Package export packages rendered documents as a PDF, a PNG or a ZIP of
// PNGs.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"certgen/internal/render"
)

type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatZIP Format = "zip"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatPNG, FormatZIP:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatZIP:
		return "application/zip"
	}
	return "application/pdf"
}

// FlipY reports whether pages for this format are laid out in PDF
// coordinates.
func (f Format) FlipY() bool {
	return f == FormatPDF
}

// FileName is the download name for a document of this format.
func (f Format) FileName(base string) string {
	if base == "" {
		base = "certificates"
	}
	return base + "." + string(f)
}

type Options struct {
	Title  string
	Fonts  *render.FontSet
	Scale  float64
	Logger *slog.Logger

	// Workers bounds concurrent page rasterization; 0 uses one per CPU.
	Workers int
}

// Export writes doc to w. PDF documents must have been laid out with FlipY
// set, PNG and ZIP documents without it.
func Export(ctx context.Context, w io.Writer, doc render.Document, format Format, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(doc.Pages) == 0 {
		return errors.New("export: document has no pages")
	}

	switch format {
	case FormatPDF:
		b := &render.PDFBackend{Title: opts.Title}
		if err := b.Write(w, doc); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}

	case FormatPNG:
		doc.Pages = doc.Pages[:1]
		images, err := rasterize(ctx, doc, opts)
		if err != nil {
			return err
		}
		if err := png.Encode(w, images[0]); err != nil {
			return fmt.Errorf("export png: %w", err)
		}

	case FormatZIP:
		images, err := rasterize(ctx, doc, opts)
		if err != nil {
			return err
		}
		if err := writeZip(w, doc.Pages, images); err != nil {
			return fmt.Errorf("export zip: %w", err)
		}

	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	logger.Info("Exported certificates", "format", format, "pages", len(doc.Pages), "warnings", len(doc.Warnings()))
	return nil
}

// EntryName is the ZIP entry of a page: its 1-based number and the
// recipient's slug.
func EntryName(page render.Page) string {
	return fmt.Sprintf("%02d-%s.png", page.Index+1, page.Recipient.FileName())
}

func writeZip(w io.Writer, pages []render.Page, images []image.Image) error {
	zw := zip.NewWriter(w)
	for i, page := range pages {
		f, err := zw.Create(EntryName(page))
		if err != nil {
			return err
		}
		if err := png.Encode(f, images[i]); err != nil {
			return err
		}
	}
	return zw.Close()
}

type pageJob struct {
	index int
	page  render.Page
}

type pageResult struct {
	index int
	img   image.Image
	err   error
}

// rasterize draws every page of doc concurrently. The result is in page
// order.
func rasterize(ctx context.Context, doc render.Document, opts Options) ([]image.Image, error) {
	backend, err := render.NewCanvasBackend(opts.Fonts, opts.Scale, doc)
	if err != nil {
		return nil, err
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(doc.Pages))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobChan := make(chan pageJob, len(doc.Pages))
	resultChan := make(chan pageResult, len(doc.Pages))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				if err := ctx.Err(); err != nil {
					resultChan <- pageResult{index: job.index, err: err}
					continue
				}
				img, err := backend.RenderPage(job.page)
				resultChan <- pageResult{index: job.index, img: img, err: err}
			}
		}()
	}

	for i, page := range doc.Pages {
		jobChan <- pageJob{index: i, page: page}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	images := make([]image.Image, len(doc.Pages))
	var firstErr error
	for result := range resultChan {
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("render page %d: %w", result.index+1, result.err)
			}
			cancel()
			continue
		}
		images[result.index] = result.img
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return images, nil
}

// Bytes is Export into memory.
func Bytes(ctx context.Context, doc render.Document, format Format, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(ctx, &buf, doc, format, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
