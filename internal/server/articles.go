package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/strategist/internal/brain"
	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/otel"
)

// Bounds on opportunity_count.
const (
	minCount = 1
	maxCount = 5
)

// RegisterArticleRoutes registers article endpoints.
func (s *Server) RegisterArticleRoutes(r *gin.Engine) {
	g := r.Group("/articles")
	g.GET("/:id", s.handleGetArticle)
	g.POST("/:id/analyze", s.handleAnalyze)
}

func (s *Server) handleGetArticle(c *gin.Context) {
	d, err := s.store.GetArticle(c.Param("id"))
	if err != nil {
		failLookup(c, "article", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	id := c.Param("id")

	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		fail(c, http.StatusBadRequest, "html_content is required", nil)
		return
	}
	count := brain.DefaultCount
	if req.OpportunityCount != nil {
		count = *req.OpportunityCount
		if count < minCount || count > maxCount {
			fail(c, http.StatusBadRequest, fmt.Sprintf("opportunity_count must be between %d and %d", minCount, maxCount), nil)
			return
		}
	}

	article, err := s.store.GetArticle(id)
	if err != nil {
		failLookup(c, "article", err)
		return
	}
	if err := s.store.MarkAnalyzing(id, req.Content); err != nil {
		fail(c, http.StatusInternalServerError, "failed to update article", err)
		return
	}

	start := time.Now()
	result, err := s.analyzer.Analyze(c.Request.Context(), brain.Input{
		Content:     req.Content,
		FromURL:     article.FromURL,
		ToURL:       article.ToURL,
		Keywords:    article.Keywords,
		Count:       count,
		Instruction: strings.TrimSpace(req.Instruction),
	})
	if err == nil {
		err = s.store.SaveAnalysis(id, result)
	}
	kind := otel.KindAnalysisComplete
	if err != nil {
		kind = otel.KindAnalysisError
	}
	ev := otel.Event{Level: otel.LevelInfo, Kind: kind, Comp: "server", ArticleID: id, Dur: time.Since(start), Count: count}
	if err != nil {
		ev.Level, ev.Err = otel.LevelError, err.Error()
	}
	if pid, perr := s.store.ProjectOf(id); perr == nil {
		ev.ProjectID = pid
	}
	s.events.Emit(ev)
	if err != nil {
		if markErr := s.store.MarkFailed(id); markErr != nil {
			fail(c, http.StatusInternalServerError, "failed to update article", markErr)
			return
		}
		fail(c, http.StatusInternalServerError, "Analysis failed: "+err.Error(), err)
		return
	}
	c.JSON(http.StatusOK, result)
}
