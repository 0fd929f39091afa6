// Package server exposes certificate rendering over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"certgen/internal/jobs"
	"certgen/internal/render"
	"certgen/internal/storage"

	"github.com/gin-gonic/gin"
)

type Settings struct {
	// Preview forces the watermark on every export.
	Preview          bool
	VerifyBaseURL    string
	CanvasScale      float64
	MaxTemplateBytes int64
}

type Handler struct {
	store    storage.Store
	resolver *storage.Resolver
	tracker  jobs.Tracker
	fonts    *render.FontSet
	settings Settings
	logger   *slog.Logger
}

func NewHandler(store storage.Store, fetcher *storage.Fetcher, tracker jobs.Tracker, fonts *render.FontSet, settings Settings, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = jobs.NewMemoryTracker()
	}
	if fonts == nil {
		fonts = render.NewFontSet("")
	}
	if settings.MaxTemplateBytes <= 0 {
		settings.MaxTemplateBytes = storage.DefaultMaxTemplateBytes
	}
	return &Handler{
		store:    store,
		resolver: &storage.Resolver{Store: store, Fetcher: fetcher},
		tracker:  tracker,
		fonts:    fonts,
		settings: settings,
		logger:   logger,
	}
}

// Router wires the API routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/templates", h.ListTemplates)
	api.POST("/templates", h.UploadTemplate)
	api.POST("/recipients", h.ParseRecipients)
	api.POST("/render", h.Render)
	api.POST("/layout", h.Layout)
	api.GET("/jobs/:id", h.JobStatus)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("Request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
