package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certgen/internal/render"
	"certgen/internal/storage"
)

var allKeys = []string{
	"PORT", "R2_ACCOUNT_ID", "R2_ACCESS_KEY", "R2_SECRET_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_URL",
	"TEMPLATE_DIR", "FONT_DIR", "REDIS_HOST", "REDIS_PASSWORD", "PREVIEW_MODE", "VERIFY_BASE_URL",
	"CANVAS_SCALE", "MAX_TEMPLATE_BYTES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "8080" || c.TemplateDir != "templates" || c.Preview || c.UseR2() {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.CanvasScale != render.DefaultCanvasScale || c.MaxTemplateBytes != storage.DefaultMaxTemplateBytes {
		t.Errorf("scale %v, max bytes %d", c.CanvasScale, c.MaxTemplateBytes)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("PREVIEW_MODE", "true")
	t.Setenv("CANVAS_SCALE", "1.5")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY", "key")
	t.Setenv("R2_SECRET_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "certs")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "9000" || !c.Preview || c.CanvasScale != 1.5 || !c.UseR2() || c.R2.Bucket != "certs" {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"R2_ACCOUNT_ID": "acct"}, "must be set together"},
		{map[string]string{"PREVIEW_MODE": "maybe"}, "PREVIEW_MODE"},
		{map[string]string{"CANVAS_SCALE": "-1"}, "CANVAS_SCALE"},
		{map[string]string{"MAX_TEMPLATE_BYTES": "lots"}, "MAX_TEMPLATE_BYTES"},
	}
	for _, tc := range tests {
		clearEnv(t)
		for k, v := range tc.env {
			t.Setenv(k, v)
		}
		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%v: err = %v, want mention of %q", tc.env, err, tc.want)
		}
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7070\nFONT_DIR=/fonts\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	os.Unsetenv("PORT")
	os.Unsetenv("FONT_DIR")

	if got := LoadEnv(); got != ".env" {
		t.Errorf("LoadEnv = %q", got)
	}
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port != "7070" || c.FontDir != "/fonts" {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestOpenStoreLocal(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEMPLATE_DIR", t.TempDir())
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.OpenStore(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*storage.LocalStore); !ok {
		t.Errorf("got %T, want *storage.LocalStore", s)
	}
}
