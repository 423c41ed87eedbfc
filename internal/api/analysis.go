package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b9ops/dashboard/internal/analytics"
	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/models"
	"github.com/b9ops/dashboard/pkg/logging"
)

// AnalysisHandler serves the post-analysis surface: paginated posts plus the
// aggregate metrics (with their timeout fallback).
type AnalysisHandler struct {
	analytics *analytics.Service
	logger    *zap.Logger
}

// NewAnalysisHandler creates the post-analysis handler.
func NewAnalysisHandler(svc *analytics.Service) *AnalysisHandler {
	return &AnalysisHandler{
		analytics: svc,
		logger:    logging.GetLogger().With(zap.String("component", "analysis-handler")),
	}
}

type analysisQuery struct {
	Page   int    `form:"page"`
	Search string `form:"search"`
}

// List handles GET /api/post-analysis
func (h *AnalysisHandler) List(c *gin.Context) {
	var q analysisQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, gin.H{"query": err.Error()})
		return
	}
	if q.Page < 0 {
		badRequest(c, gin.H{"page": "must be >= 0"})
		return
	}

	var (
		posts   []models.RedditPost
		hasMore bool
		metrics *db.AnalyticsMetrics
	)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		posts, hasMore, err = h.analytics.PostsPage(gctx, q.Page, q.Search)
		return err
	})
	g.Go(func() error {
		var err error
		metrics, err = h.analytics.Metrics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("post analysis fetch failed", zap.Error(err))
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":    posts,
		"has_more": hasMore,
		"metrics":  metrics,
		"page":     q.Page,
	})
}

// Overview handles GET /api/overview
func (h *AnalysisHandler) Overview(c *gin.Context) {
	overview, err := h.analytics.LoadOverview(c.Request.Context())
	if err != nil {
		h.logger.Error("overview load failed", zap.Error(err))
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
