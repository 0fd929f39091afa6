// Package storage keeps certificate templates in an R2 bucket or a local
// directory and fetches templates referenced by URL.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	TemplatePrefix  = "templates/"
	ThumbnailPrefix = "thumbs/"

	thumbnailWidth = 320
)

var (
	ErrNotFound   = errors.New("template not found")
	ErrTooLarge   = errors.New("template exceeds size limit")
	ErrInvalidKey = errors.New("invalid template key")
)

// Store is a flat key/value blob store. Keys use forward slashes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// NewTemplateKey returns a fresh key for an uploaded template, keeping the
// extension of the uploaded file name.
func NewTemplateKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return TemplatePrefix + uuid.NewString() + ext
}

// ThumbnailKey is the key of the preview image stored for a template.
func ThumbnailKey(templateKey string) string {
	base := path.Base(templateKey)
	return ThumbnailPrefix + strings.TrimSuffix(base, path.Ext(base)) + ".jpg"
}

// Thumbnail scales a PNG or JPEG template down to a 320px wide JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if img.Bounds().Dx() > thumbnailWidth {
		img = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTemplate stores a template under a new key together with its
// thumbnail and returns the template key.
func SaveTemplate(ctx context.Context, s Store, filename string, data []byte, contentType string) (string, error) {
	key := NewTemplateKey(filename)
	thumb, err := Thumbnail(data)
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("store template: %w", err)
	}
	if err := s.Put(ctx, ThumbnailKey(key), thumb, "image/jpeg"); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return key, nil
}

// Linker is implemented by stores whose objects are publicly reachable.
type Linker interface {
	URL(key string) string
}

// PublicURL returns the public URL of key, or "" when s serves no public
// links.
func PublicURL(s Store, key string) string {
	l, ok := s.(Linker)
	if !ok {
		return ""
	}
	if u := l.URL(key); u != key {
		return u
	}
	return ""
}

// Resolver loads a template reference, which is either a store key or an
// http(s) URL.
type Resolver struct {
	Store   Store
	Fetcher *Fetcher
}

func (r *Resolver) Load(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if r.Fetcher == nil {
			return nil, fmt.Errorf("fetch %s: remote templates disabled", ref)
		}
		return r.Fetcher.Get(ctx, ref)
	}
	if r.Store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return r.Store.Get(ctx, ref)
}
