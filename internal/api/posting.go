package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/query"
	"github.com/b9ops/dashboard/pkg/logging"
)

// PostingHandler serves the posting-recommendations surface: approved
// subreddits filtered, sorted, paginated, with badge counts.
type PostingHandler struct {
	querySvc *query.Service
	creators *db.CreatorRepository
	pageSize int
	logger   *zap.Logger
}

// NewPostingHandler creates the posting-surface handler.
func NewPostingHandler(querySvc *query.Service, creators *db.CreatorRepository, pageSize int) *PostingHandler {
	return &PostingHandler{
		querySvc: querySvc,
		creators: creators,
		pageSize: pageSize,
		logger:   logging.GetLogger().With(zap.String("component", "posting-handler")),
	}
}

type postingQuery struct {
	Page         int    `form:"page"`
	Search       string `form:"search"`
	SFWOnly      bool   `form:"sfw_only"`
	VerifiedOnly bool   `form:"verified_only"`
	CategoryIDs  string `form:"category_ids"`
	Creator      string `form:"creator"`
	Sort         string `form:"sort,default=subscribers"`
	Direction    string `form:"direction,default=desc"`
}

// List handles GET /api/posting
func (h *PostingHandler) List(c *gin.Context) {
	var q postingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, gin.H{"query": err.Error()})
		return
	}

	categoryIDs, err := parseIDList(q.CategoryIDs)
	if err != nil {
		badRequest(c, gin.H{"category_ids": err.Error()})
		return
	}

	req := query.PageRequest{
		Page:         q.Page,
		PageSize:     h.pageSize,
		Sort:         query.SortField(q.Sort),
		Direction:    query.Direction(q.Direction),
		Search:       q.Search,
		SFWOnly:      q.SFWOnly,
		VerifiedOnly: q.VerifiedOnly,
		CategoryIDs:  categoryIDs,
	}

	// A selected creator activates the tag path with the model's tags.
	if q.Creator != "" {
		tags, err := h.creators.AssignedTags(c.Request.Context(), q.Creator)
		if err != nil {
			storeError(c, err)
			return
		}
		req.Tags = tags
	}

	if err := req.Validate(); err != nil {
		badRequest(c, gin.H{"request": err.Error()})
		return
	}

	// Page rows and badge counts are independent; fetch them together.
	var (
		page   *query.Page
		counts *db.PageCounts
	)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		page, err = h.querySvc.FetchPage(gctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = h.querySvc.Counts(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("posting fetch failed", zap.Error(err))
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     page.Items,
		"has_more":  page.HasMore,
		"counts":    counts,
		"page":      q.Page,
		"page_size": h.pageSize,
	})
}

// parseIDList parses a comma-separated id list query parameter.
func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
