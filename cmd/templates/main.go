package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certgen/internal/config"
	"certgen/internal/render"
	"certgen/internal/storage"
)

func main() {
	dir := flag.String("dir", "", "Local template directory (default TEMPLATE_DIR, or R2 when configured)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-dir path] list | upload <file or directory>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*dir, flag.Args()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(dir string, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var store storage.Store
	if dir != "" {
		store = storage.NewLocalStore(dir)
	} else if store, err = cfg.OpenStore(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		return list(ctx, store)
	case "upload":
		return upload(ctx, store, args[1:])
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func list(ctx context.Context, store storage.Store) error {
	keys, err := store.List(ctx, storage.TemplatePrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Printf("%s\t%s\n", key, storage.ThumbnailKey(key))
	}
	fmt.Printf("%d templates\n", len(keys))
	return nil
}

func upload(ctx context.Context, store storage.Store, paths []string) error {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return fmt.Errorf("failed to read source directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isImage(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(p, entry.Name()))
		}
	}

	uploaded := 0
	for _, path := range files {
		if err := processFile(ctx, store, path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to process %s: %v\n", path, err)
			continue
		}
		uploaded++
	}
	fmt.Printf("Uploaded %d of %d templates\n", uploaded, len(files))
	return nil
}

func processFile(ctx context.Context, store storage.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	bg, err := render.DecodeBackground(data)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %s (%s %dx%d)...\n", filepath.Base(path), bg.Format, bg.Width, bg.Height)
	key, err := storage.SaveTemplate(ctx, store, filepath.Base(path), data, bg.ContentType())
	if err != nil {
		return err
	}
	fmt.Printf("  -> %s\n", key)
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
