package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"certgen/internal/layout"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

const DefaultCanvasScale = 2.0

// FontSet maps the six layout fonts onto TrueType files. Files are looked
// up in dir as "<family>-<weight>.ttf" (e.g. "times-bold.ttf"); missing
// faces fall back to the embedded Go fonts. Parsed fonts are shared.
type FontSet struct {
	dir string

	mu     sync.Mutex
	parsed map[layout.Font]*truetype.Font
}

func NewFontSet(dir string) *FontSet {
	return &FontSet{dir: dir, parsed: make(map[layout.Font]*truetype.Font)}
}

func (fs *FontSet) Font(f layout.Font) *truetype.Font {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if ttf, ok := fs.parsed[f]; ok {
		return ttf
	}

	var ttf *truetype.Font
	if fs.dir != "" {
		path := filepath.Join(fs.dir, f.String()+".ttf")
		loaded, err := loadFont(path)
		switch {
		case err == nil:
			ttf = loaded
		case !os.IsNotExist(err):
			slog.Warn("font unavailable, using embedded face", "path", path, "error", err)
		}
	}
	if ttf == nil {
		// embedded fonts always parse
		ttf, _ = truetype.Parse(embeddedFont(f))
	}
	fs.parsed[f] = ttf
	return ttf
}

func loadFont(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(fontBytes)
}

// embeddedFont has no serif face; times uses the Go sans faces.
func embeddedFont(f layout.Font) []byte {
	switch {
	case f.Family == layout.Courier && f.Weight == layout.Bold:
		return gomonobold.TTF
	case f.Family == layout.Courier:
		return gomono.TTF
	case f.Weight == layout.Bold:
		return gobold.TTF
	}
	return goregular.TTF
}

type faceKey struct {
	font layout.Font
	size float64
}

// faceCache holds sized faces. A truetype face keeps glyph caches, so a
// faceCache must not be shared between goroutines without holding mu.
type faceCache struct {
	fonts *FontSet

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

func newFaceCache(fonts *FontSet) *faceCache {
	if fonts == nil {
		fonts = NewFontSet("")
	}
	return &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(f layout.Font, size float64) font.Face {
	key := faceKey{f, size}
	if face, ok := c.faces[key]; ok {
		return face
	}
	face := truetype.NewFace(c.fonts.Font(f), &truetype.Options{
		Size:    size,
		Hinting: font.HintingNone,
	})
	c.faces[key] = face
	return face
}

// CanvasMetrics measures text with TrueType advances at 72 DPI, so one
// point is one unit. It is safe for concurrent use.
type CanvasMetrics struct {
	faces *faceCache
}

func NewCanvasMetrics(fonts *FontSet) *CanvasMetrics {
	return &CanvasMetrics{faces: newFaceCache(fonts)}
}

func (m *CanvasMetrics) Measure(text string, f layout.Font, size float64) float64 {
	m.faces.mu.Lock()
	defer m.faces.mu.Unlock()
	return float64(font.MeasureString(m.faces.face(f, size), text)) / 64
}

// CanvasBackend rasterizes pages. Page units are multiplied by Scale to get
// pixels.
type CanvasBackend struct {
	Scale float64

	fonts *FontSet
	bg    image.Image
}

// NewCanvasBackend prepares a backend for one document, decoding its
// background once.
func NewCanvasBackend(fonts *FontSet, scale float64, doc Document) (*CanvasBackend, error) {
	if !validNumber(scale) {
		scale = DefaultCanvasScale
	}
	if fonts == nil {
		fonts = NewFontSet("")
	}
	b := &CanvasBackend{Scale: scale, fonts: fonts}
	if doc.Background != nil {
		img, err := doc.Background.Decode()
		if err != nil {
			return nil, err
		}
		b.bg = img
	}
	return b, nil
}

// RenderPage draws one page. Each call uses its own faces, so pages may be
// rendered from several goroutines.
func (b *CanvasBackend) RenderPage(page Page) (image.Image, error) {
	s := b.Scale
	totalWidth := int(math.Round(page.Geometry.Width * s))
	totalHeight := int(math.Round(page.Geometry.Height * s))

	dst := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	dc := gg.NewContextForRGBA(dst)
	faces := newFaceCache(b.fonts)

	for _, ins := range page.Instructions {
		switch ins.Kind {
		case KindImage:
			src := b.bg
			if ins.Source != SourceBackground {
				img, err := png.Decode(bytes.NewReader(ins.Image))
				if err != nil {
					return nil, fmt.Errorf("decode %s image: %w", ins.Source, err)
				}
				src = img
			}
			if src == nil {
				continue
			}
			y := page.toTopDown(ins.Y, ins.Height)
			rect := image.Rect(
				int(math.Round(ins.X*s)), int(math.Round(y*s)),
				int(math.Round((ins.X+ins.Width)*s)), int(math.Round((y+ins.Height)*s)),
			)
			xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Over, nil)

		case KindText, KindWatermark:
			b.drawText(dc, faces, page, ins)
		}
	}
	return dst, nil
}

func (b *CanvasBackend) drawText(dc *gg.Context, faces *faceCache, page Page, ins Instruction) {
	s := b.Scale
	// gg draws text in device space, so faces are sized in pixels
	face := faces.face(ins.Font, ins.Size*s)

	x := ins.X * s
	y := page.toTopDown(ins.Y, 0) * s

	dc.Push()
	defer dc.Pop()
	dc.SetFontFace(face)
	dc.SetColor(ins.Color.NRGBA(ins.Opacity))
	if ins.Rotate != 0 {
		// canvas y grows downward, so counter-clockwise is a negative angle
		dc.RotateAbout(gg.Radians(-ins.Rotate), x+ins.Width*s/2, y)
	}
	dc.DrawString(ins.Text, x, y)
}
