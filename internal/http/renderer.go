package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
)

// PageData is the view model shared by all pages.
type PageData struct {
	Title       string
	CurrentPage string
	Auth        AuthStatus
	Error       string
	Redirect    string
}

// TemplateRenderer renders HTML pages from *.html templates.
type TemplateRenderer struct {
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger

	mu sync.RWMutex
	t  *template.Template
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing *.html templates (required)
	DevMode    bool         // Re-parse templates on every render
	Logger     *slog.Logger // Optional
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t, err := parsePages(cfg.TemplateFS)
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	return &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger, t: t}, nil
}

func parsePages(fsys fs.FS) (*template.Template, error) {
	return template.New("root").ParseFS(fsys, "*.html")
}

func (r *TemplateRenderer) templates() *template.Template {
	if r.devMode {
		if t, err := parsePages(r.fsys); err == nil {
			r.mu.Lock()
			r.t = t
			r.mu.Unlock()
		} else {
			r.logger.Warn("template reload failed", slog.Any("error", err))
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t
}

// Render executes the named page into a buffer and writes it with status.
// Nothing is written to w when execution fails, and only execution errors are returned.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, data PageData) error {
	var buf bytes.Buffer
	if err := r.templates().ExecuteTemplate(&buf, data.CurrentPage, data); err != nil {
		r.logger.Error("template execution failed",
			slog.Any("error", err),
			slog.String("page", data.CurrentPage),
		)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return nil
	}
	return nil
}
