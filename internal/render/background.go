package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// ErrUnsupportedFormat rejects a template that is not a PNG or JPEG image.
var ErrUnsupportedFormat = errors.New("background image must be PNG or JPEG")

// Background is a validated template image.
type Background struct {
	Data   []byte `json:"-"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DecodeBackground validates template bytes and reads their intrinsic size.
// Anything other than PNG or JPEG fails with ErrUnsupportedFormat.
func DecodeBackground(data []byte) (*Background, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("read background: %w", err)
	}
	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("%w (got %s)", ErrUnsupportedFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("read background: empty %s image", format)
	}
	return &Background{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Decode returns the full image.
func (b *Background) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b.Data))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	return img, nil
}

// ContentType is the MIME type of the template.
func (b *Background) ContentType() string {
	if b.Format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
