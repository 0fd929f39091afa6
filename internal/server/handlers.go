package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"certgen/internal/export"
	"certgen/internal/jobs"
	"certgen/internal/layout"
	"certgen/internal/models"
	"certgen/internal/recipients"
	"certgen/internal/render"
	"certgen/internal/storage"

	"github.com/gin-gonic/gin"
)

const (
	headerWarnings = "X-Certgen-Warnings"
	headerJob      = "X-Certgen-Job"
)

type TemplateInfo struct {
	Key       string `json:"key"`
	Thumbnail string `json:"thumbnail"`

	// Set when the store serves a public domain.
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func (h *Handler) templateInfo(key string) TemplateInfo {
	thumb := storage.ThumbnailKey(key)
	return TemplateInfo{
		Key:          key,
		Thumbnail:    thumb,
		URL:          storage.PublicURL(h.store, key),
		ThumbnailURL: storage.PublicURL(h.store, thumb),
	}
}

func (h *Handler) ListTemplates(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"templates": []TemplateInfo{}})
		return
	}
	keys, err := h.store.List(c.Request.Context(), storage.TemplatePrefix)
	if err != nil {
		h.logger.Error("Failed to list templates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates"})
		return
	}
	templates := make([]TemplateInfo, 0, len(keys))
	for _, key := range keys {
		templates = append(templates, h.templateInfo(key))
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) UploadTemplate(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Template storage is not configured"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart field \"file\" is required"})
		return
	}
	if fh.Size > h.settings.MaxTemplateBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": storage.ErrTooLarge.Error()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	bg, err := render.DecodeBackground(data)
	if err != nil {
		h.fail(c, err)
		return
	}
	key, err := storage.SaveTemplate(c.Request.Context(), h.store, fh.Filename, data, bg.ContentType())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("Template uploaded", "key", key, "format", bg.Format, "width", bg.Width, "height", bg.Height)
	c.JSON(http.StatusCreated, h.templateInfo(key))
}

func (h *Handler) ParseRecipients(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart field \"file\" is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	rows, err := recipients.Parse(fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": models.CapRows(rows), "total": len(rows)})
}

// RenderRequest describes one export. Fields override the default field
// descriptors by key.
type RenderRequest struct {
	Rows        []models.Recipient     `json:"rows"`
	Fields      []models.FieldOverride `json:"fields"`
	Paper       string                 `json:"paper"`
	Orientation string                 `json:"orientation"`
	Template    string                 `json:"template"`
	Format      string                 `json:"format"`
	Preview     bool                   `json:"preview"`
	Defaults    struct {
		Date   string `json:"date"`
		Issuer string `json:"issuer"`
	} `json:"defaults"`
}

func (h *Handler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	doc, err := h.buildDocument(ctx, req, format)
	if err != nil {
		h.fail(c, err)
		return
	}

	id := jobs.NewID()
	if err := h.tracker.SetStatus(ctx, id, jobs.StatusProcessing); err != nil {
		h.logger.Warn("Failed to record job status", "job", id, "error", err)
	}

	data, err := export.Bytes(ctx, doc, format, export.Options{
		Title:  models.DefaultTitle,
		Fonts:  h.fonts,
		Scale:  h.settings.CanvasScale,
		Logger: h.logger,
	})
	if err != nil {
		if err := h.tracker.SetStatus(ctx, id, jobs.StatusError); err != nil {
			h.logger.Warn("Failed to record job status", "job", id, "error", err)
		}
		h.fail(c, err)
		return
	}

	filename := format.FileName("certificates")
	if err := h.tracker.SaveResult(ctx, id, filename); err != nil {
		h.logger.Warn("Failed to record job result", "job", id, "error", err)
	}

	warnings := doc.Warnings()
	for _, w := range warnings {
		h.logger.Warn("Field input defaulted", "job", id, "field", w.Field, "value", w.Value, "reason", w.Message)
	}
	c.Header(headerJob, id)
	c.Header(headerWarnings, strconv.Itoa(len(warnings)))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// LayoutResponse is what the editor preview draws.
type LayoutResponse struct {
	Geometry models.PageGeometry `json:"geometry"`
	Pages    []render.Page       `json:"pages"`
	Warnings []layout.Warning    `json:"warnings"`
}

func (h *Handler) Layout(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.fail(c, err)
		return
	}
	doc, err := h.buildDocument(c.Request.Context(), req, format)
	if err != nil {
		h.fail(c, err)
		return
	}
	warnings := doc.Warnings()
	if warnings == nil {
		warnings = []layout.Warning{}
	}
	c.JSON(http.StatusOK, LayoutResponse{Geometry: doc.Geometry, Pages: doc.Pages, Warnings: warnings})
}

func (h *Handler) JobStatus(c *gin.Context) {
	job, err := h.tracker.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) buildDocument(ctx context.Context, req RenderRequest, format export.Format) (render.Document, error) {
	rows, err := recipients.FromManual(req.Rows)
	if err != nil {
		return render.Document{}, err
	}
	fields, err := models.ApplyOverrides(models.DefaultFields(), req.Fields)
	if err != nil {
		return render.Document{}, badRequest(err)
	}
	paper, err := models.ParsePaperSize(req.Paper)
	if err != nil {
		return render.Document{}, badRequest(err)
	}
	orientation, err := models.ParseOrientation(req.Orientation)
	if err != nil {
		return render.Document{}, badRequest(err)
	}

	var bg *render.Background
	if req.Template != "" {
		data, err := h.resolver.Load(ctx, req.Template)
		if err != nil {
			return render.Document{}, err
		}
		if bg, err = render.DecodeBackground(data); err != nil {
			return render.Document{}, err
		}
	}

	r := render.NewRenderer(h.measurer(format), render.Options{
		FlipY:         format.FlipY(),
		Preview:       h.settings.Preview || req.Preview,
		DefaultDate:   req.Defaults.Date,
		DefaultIssuer: req.Defaults.Issuer,
		VerifyBaseURL: h.settings.VerifyBaseURL,
	})
	return r.RenderDocument(rows, fields, models.Geometry(paper, orientation), bg), nil
}

// measurer builds fresh metrics for one request. Only the parsed fonts are
// shared between requests.
func (h *Handler) measurer(format export.Format) layout.Measurer {
	if format.FlipY() {
		return render.NewPDFMetrics()
	}
	return render.NewCanvasMetrics(h.fonts)
}

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err} }

// fail maps err onto a status code and writes it as JSON.
func (h *Handler) fail(c *gin.Context, err error) {
	var reqErr requestError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, render.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, recipients.ErrUnsupportedFile):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, jobs.ErrUnknownJob):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, recipients.ErrNoRecipients), errors.Is(err, export.ErrUnknownFormat), errors.Is(err, storage.ErrInvalidKey), errors.As(err, &reqErr):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": sentence(err)})
}

func sentence(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
