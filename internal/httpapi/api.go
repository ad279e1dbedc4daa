package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/connoisseur/noisseur/internal/match"
	"github.com/connoisseur/noisseur/internal/recognize"
	"github.com/connoisseur/noisseur/internal/template"
)

// MaxScreenSize caps uploaded screenshots.
const MaxScreenSize = 20 << 20

// API serves screen recognition over HTTP.
type API struct {
	recognizer *recognize.Recognizer
	store      *template.Store
	version    string
	logger     *slog.Logger
}

// New creates the API.
func New(recognizer *recognize.Recognizer, store *template.Store, version string, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{recognizer: recognizer, store: store, version: version, logger: logger}
}

// Handler returns a gin engine with every route installed.
func (a *API) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())
	a.setupRoutes(r)
	return r
}

func (a *API) setupRoutes(r *gin.Engine) {
	v1 := r.Group("/api/1")
	v1.GET("/ping", a.pingHandler)
	v1.POST("/get_screen_data", a.getScreenDataHandler)
	v1.GET("/templates", a.listTemplatesHandler)
	v1.POST("/templates/reload", a.reloadTemplatesHandler)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *API) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("http api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

func (a *API) pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   a.version,
		"templates": a.store.Registry().Len(),
	})
}

// getScreenDataHandler recognizes the multipart file "screen". Optional form
// fields "pipeline" and "scale" override the defaults.
func (a *API) getScreenDataHandler(c *gin.Context) {
	file, err := c.FormFile("screen")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "screen data not found"})
		return
	}
	if file.Size > MaxScreenSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "screen too large"})
		return
	}

	req := recognize.Request{Pipeline: c.PostForm("pipeline")}
	if v := c.PostForm("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scale must be a positive number"})
			return
		}
		req.Scale = scale
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read screen"})
		return
	}
	defer f.Close()
	if req.Image, err = io.ReadAll(f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read screen"})
		return
	}

	res, err := a.recognizer.Recognize(req)
	if err != nil {
		var cfgErr *match.ConfigError
		if errors.As(err, &cfgErr) {
			a.logger.Error("template configuration error", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, res)
}

// templateSummary describes a loaded template.
type templateSummary struct {
	ID          string `json:"id"`
	ScreenType  string `json:"screen_type"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}

func summarize(reg *template.Registry) []templateSummary {
	out := make([]templateSummary, 0, reg.Len())
	for _, m := range reg.Models() {
		out = append(out, templateSummary{
			ID:          m.ID,
			ScreenType:  m.ScreenType,
			Description: m.Description,
			Source:      reg.Source(m),
		})
	}
	return out
}

func (a *API) listTemplatesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": summarize(a.store.Registry())})
}

func (a *API) reloadTemplatesHandler(c *gin.Context) {
	if err := a.store.Reload(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": summarize(a.store.Registry())})
}
