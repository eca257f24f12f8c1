package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/otel"
	"github.com/abelbrown/strategist/internal/sheet"
	"github.com/abelbrown/strategist/internal/store"
)

// RegisterProjectRoutes registers project endpoints.
func (s *Server) RegisterProjectRoutes(r *gin.Engine) {
	g := r.Group("/projects")
	g.GET("", s.handleListProjects)
	g.POST("", s.handleCreateProject)
	g.POST("/:id/upload-excel", s.handleUpload)
	g.GET("/:id/articles", s.handleListArticles)
	g.POST("/:id/export", s.handleExport)
}

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects()
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "project name is required", err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, http.StatusBadRequest, "project name is required", nil)
		return
	}

	p, err := s.store.CreateProject(name)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to create project", err)
		return
	}
	s.events.Emit(otel.Event{Kind: otel.KindProjectCreate, Comp: "server", ProjectID: p.ID, Msg: p.Name})
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpload(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := s.store.GetProject(projectID); err != nil {
		failLookup(c, "project", err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "multipart field \"file\" is required", err)
		return
	}
	if fh.Size > s.maxUpload {
		fail(c, http.StatusBadRequest, fmt.Sprintf("file exceeds %d bytes", s.maxUpload), nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "cannot read upload", err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		fail(c, http.StatusBadRequest, "cannot read upload", err)
		return
	}

	rows, err := sheet.Parse(fh.Filename, data)
	if err != nil {
		fail(c, http.StatusBadRequest, "Error processing spreadsheet: "+err.Error(), nil)
		return
	}

	articles := make([]store.NewArticle, len(rows))
	for i, r := range rows {
		articles[i] = store.NewArticle{FromURL: r.From, ToURL: r.To, Keywords: r.Keywords}
	}
	n, err := s.store.AddArticles(projectID, articles)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to store articles", err)
		return
	}

	s.events.Emit(otel.Event{Kind: otel.KindUploadComplete, Comp: "server", ProjectID: projectID, Count: n})
	c.JSON(http.StatusOK, model.UploadSummary{
		Message:       fmt.Sprintf("Successfully uploaded %d articles", n),
		TotalArticles: n,
	})
}

func (s *Server) handleListArticles(c *gin.Context) {
	articles, err := s.store.ListArticles(c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list articles", err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) handleExport(c *gin.Context) {
	rows, err := s.store.ExportRows(c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to export results", err)
		return
	}
	c.JSON(http.StatusOK, model.Export{Results: rows, TotalOpportunities: len(rows)})
}
