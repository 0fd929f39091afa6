// Package config reads settings from the environment and an optional .env
// file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"certgen/internal/render"
	"certgen/internal/storage"

	"github.com/joho/godotenv"
)

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
}

type Config struct {
	Port string

	R2 storage.R2Config

	// TemplateDir backs the template store when R2 is not configured.
	TemplateDir string
	FontDir     string

	RedisHost     string
	RedisPassword string

	Preview          bool
	VerifyBaseURL    string
	CanvasScale      float64
	MaxTemplateBytes int64
}

// UseR2 reports whether templates live in R2 rather than TemplateDir.
func (c Config) UseR2() bool {
	return c.R2.AccountID != ""
}

// LoadEnv loads the first .env file found next to or above the working
// directory and returns its path, or "" if there is none. Variables already
// set in the environment win.
func LoadEnv() string {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// Load builds a Config from the environment.
func Load() (Config, error) {
	c := Config{
		Port:          getenv("PORT", "8080"),
		TemplateDir:   getenv("TEMPLATE_DIR", "templates"),
		FontDir:       os.Getenv("FONT_DIR"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		VerifyBaseURL: os.Getenv("VERIFY_BASE_URL"),
		R2: storage.R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
			Bucket:    os.Getenv("R2_BUCKET_NAME"),
			PublicURL: os.Getenv("R2_PUBLIC_URL"),
		},
	}

	var errs []error
	var err error
	if c.Preview, err = parseBool("PREVIEW_MODE", false); err != nil {
		errs = append(errs, err)
	}
	if c.CanvasScale, err = parseFloat("CANVAS_SCALE", render.DefaultCanvasScale); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTemplateBytes, err = parseInt("MAX_TEMPLATE_BYTES", storage.DefaultMaxTemplateBytes); err != nil {
		errs = append(errs, err)
	}

	r2 := []string{c.R2.AccountID, c.R2.AccessKey, c.R2.SecretKey, c.R2.Bucket}
	set := 0
	for _, v := range r2 {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(r2) {
		errs = append(errs, errors.New("R2_ACCOUNT_ID, R2_ACCESS_KEY, R2_SECRET_KEY and R2_BUCKET_NAME must be set together"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def, fmt.Errorf("%s: must be a positive number, got %q", key, v)
	}
	return f, nil
}

func parseInt(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// OpenStore returns the R2 store when R2 is configured and the local
// template directory otherwise.
func (c Config) OpenStore(ctx context.Context) (storage.Store, error) {
	if c.UseR2() {
		return storage.NewR2Store(ctx, c.R2)
	}
	return storage.NewLocalStore(c.TemplateDir), nil
}
