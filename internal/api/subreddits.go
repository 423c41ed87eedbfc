package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/models"
	"github.com/b9ops/dashboard/internal/perf"
	"github.com/b9ops/dashboard/internal/query"
	"github.com/b9ops/dashboard/pkg/logging"
)

// SubredditStore is the subreddit access the handler needs.
// *db.SubredditRepository satisfies it.
type SubredditStore interface {
	GetByName(ctx context.Context, name string) (*models.Subreddit, error)
	ListReviewPage(ctx context.Context, search, reviewFilter string, limit, offset int) ([]models.Subreddit, error)
	UpdateReview(ctx context.Context, name string, review *string) error
	UpdateTags(ctx context.Context, name string, tags []string) error
	UpdateCategory(ctx context.Context, name string, categoryID *int64, categoryName *string) error
}

// CategoryStore is the category lookup the handler needs.
// *db.CategoryRepository satisfies it.
type CategoryStore interface {
	GetByID(ctx context.Context, id int64) (*models.Category, error)
}

// SubredditHandler serves the review queue and the row mutations the
// dashboard is allowed to make (review, tags, category).
type SubredditHandler struct {
	subreddits SubredditStore
	categories CategoryStore
	pageSize   int
	logger     *zap.Logger

	// A burst of tag edits invalidates the tag snapshots once, not per
	// keystroke.
	invalidate     func()
	stopInvalidate func()
}

// NewSubredditHandler creates the review-queue handler.
func NewSubredditHandler(subreddits SubredditStore, categories CategoryStore, querySvc *query.Service, pageSize int) *SubredditHandler {
	invalidate, stop := perf.Debounce(500*time.Millisecond, querySvc.ClearSnapshots)
	return &SubredditHandler{
		subreddits:     subreddits,
		categories:     categories,
		pageSize:       pageSize,
		logger:         logging.GetLogger().With(zap.String("component", "subreddit-handler")),
		invalidate:     invalidate,
		stopInvalidate: stop,
	}
}

// Close cancels any pending snapshot invalidation.
func (h *SubredditHandler) Close() {
	h.stopInvalidate()
}

type reviewQueueQuery struct {
	Page   int    `form:"page"`
	Search string `form:"search"`
	Review string `form:"review"`
}

// List handles GET /api/subreddits
func (h *SubredditHandler) List(c *gin.Context) {
	var q reviewQueueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, gin.H{"query": err.Error()})
		return
	}
	if q.Page < 0 {
		badRequest(c, gin.H{"page": "must be >= 0"})
		return
	}
	if q.Review != "" && q.Review != db.ReviewFilterUntriaged && !models.IsValidReview(q.Review) {
		badRequest(c, gin.H{"review": "unknown review status"})
		return
	}

	subs, err := h.subreddits.ListReviewPage(c.Request.Context(), q.Search, q.Review, h.pageSize, q.Page*h.pageSize)
	if err != nil {
		h.logger.Error("review queue fetch failed", zap.Error(err))
		storeError(c, err)
		return
	}
	for i := range subs {
		query.Normalize(&subs[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     subs,
		"has_more":  len(subs) == h.pageSize,
		"page":      q.Page,
		"page_size": h.pageSize,
	})
}

type reviewPatch struct {
	Review *string `json:"review"`
}

// PatchReview handles PATCH /api/subreddits/:name/review
func (h *SubredditHandler) PatchReview(c *gin.Context) {
	name := c.Param("name")

	var body reviewPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, gin.H{"body": err.Error()})
		return
	}
	if body.Review != nil && !models.IsValidReview(*body.Review) {
		badRequest(c, gin.H{"review": "unknown review status"})
		return
	}

	sub, err := h.subreddits.GetByName(c.Request.Context(), name)
	if err != nil {
		storeError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subreddit not found"})
		return
	}

	if err := h.subreddits.UpdateReview(c.Request.Context(), name, body.Review); err != nil {
		h.logger.Error("review update failed", zap.String("subreddit", name), zap.Error(err))
		storeError(c, err)
		return
	}

	// Review changes move rows in and out of the approved set.
	h.invalidate()

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type tagsPatch struct {
	Tags []string `json:"tags"`
}

// PatchTags handles PATCH /api/subreddits/:name/tags
func (h *SubredditHandler) PatchTags(c *gin.Context) {
	name := c.Param("name")

	var body tagsPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, gin.H{"body": err.Error()})
		return
	}
	for _, tag := range body.Tags {
		if tag == "" {
			badRequest(c, gin.H{"tags": "tags must be non-empty strings"})
			return
		}
	}

	sub, err := h.subreddits.GetByName(c.Request.Context(), name)
	if err != nil {
		storeError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subreddit not found"})
		return
	}

	if err := h.subreddits.UpdateTags(c.Request.Context(), name, body.Tags); err != nil {
		h.logger.Error("tags update failed", zap.String("subreddit", name), zap.Error(err))
		storeError(c, err)
		return
	}

	h.invalidate()

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type categoryPatch struct {
	CategoryID *int64 `json:"category_id"`
}

// PatchCategory handles PATCH /api/subreddits/:name/category
func (h *SubredditHandler) PatchCategory(c *gin.Context) {
	name := c.Param("name")

	var body categoryPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, gin.H{"body": err.Error()})
		return
	}

	sub, err := h.subreddits.GetByName(c.Request.Context(), name)
	if err != nil {
		storeError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subreddit not found"})
		return
	}

	var categoryName *string
	if body.CategoryID != nil {
		cat, err := h.categories.GetByID(c.Request.Context(), *body.CategoryID)
		if err != nil {
			storeError(c, err)
			return
		}
		if cat == nil {
			badRequest(c, gin.H{"category_id": "unknown category"})
			return
		}
		categoryName = &cat.Name
	}

	if err := h.subreddits.UpdateCategory(c.Request.Context(), name, body.CategoryID, categoryName); err != nil {
		h.logger.Error("category update failed", zap.String("subreddit", name), zap.Error(err))
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
