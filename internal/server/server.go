// Package server is the HTTP backend the TUI talks to: projects, article
// uploads, analysis and export over JSON.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/strategist/internal/brain"
	"github.com/abelbrown/strategist/internal/logging"
	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/otel"
	"github.com/abelbrown/strategist/internal/store"
)

// Analyzer produces link opportunities for one article.
type Analyzer interface {
	Analyze(ctx context.Context, in brain.Input) (*model.AnalysisResult, error)
}

// Server holds the handler dependencies.
type Server struct {
	store    *store.Store
	analyzer Analyzer
	events   *otel.Logger

	// Upper bound on upload size in bytes
	maxUpload int64
}

// New creates a Server. events may be nil.
func New(st *store.Store, analyzer Analyzer, events *otel.Logger) *Server {
	return &Server{
		store:     st,
		analyzer:  analyzer,
		events:    events,
		maxUpload: 20 << 20,
	}
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	RegisterHealthRoutes(r)
	s.RegisterProjectRoutes(r)
	s.RegisterArticleRoutes(r)
	return r
}

// RegisterHealthRoutes registers health check endpoints.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", handleHealth)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"dur", time.Since(start).Round(time.Millisecond))
	}
}

// failLookup reports a failed load of one entity: 404 "<What> not found"
// for unknown ids, 500 otherwise.
func failLookup(c *gin.Context, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, strings.ToUpper(what[:1])+what[1:]+" not found", err)
		return
	}
	fail(c, http.StatusInternalServerError, "failed to load "+what, err)
}

// fail writes {"detail": msg}. Unknown ids map to 404.
func fail(c *gin.Context, status int, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		logging.Error(msg, "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}
