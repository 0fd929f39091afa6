package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certgen/internal/config"
	"certgen/internal/jobs"
	"certgen/internal/render"
	"certgen/internal/server"
	"certgen/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if p := config.LoadEnv(); p != "" {
		logger.Info("Loaded .env", "path", p)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open template store: %w", err)
	}
	if cfg.UseR2() {
		logger.Info("Template store initialized", "backend", "r2", "bucket", cfg.R2.Bucket)
	} else {
		logger.Info("Template store initialized", "backend", "local", "dir", cfg.TemplateDir)
	}

	var tracker jobs.Tracker = jobs.NewMemoryTracker()
	if cfg.RedisHost != "" {
		client, err := jobs.Dial(ctx, cfg.RedisHost, cfg.RedisPassword)
		if err != nil {
			logger.Warn("Redis unavailable, tracking jobs in memory", "error", err)
		} else {
			defer client.Close()
			tracker = jobs.NewRedisTracker(client)
			logger.Info("Redis connected", "addr", cfg.RedisHost)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	h := server.NewHandler(store, storage.NewFetcher(cfg.MaxTemplateBytes), tracker, render.NewFontSet(cfg.FontDir), server.Settings{
		Preview:          cfg.Preview,
		VerifyBaseURL:    cfg.VerifyBaseURL,
		CanvasScale:      cfg.CanvasScale,
		MaxTemplateBytes: cfg.MaxTemplateBytes,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr, "preview", cfg.Preview)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
