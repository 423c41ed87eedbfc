package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b9ops/dashboard/internal/analytics"
	"github.com/b9ops/dashboard/internal/cache"
	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/query"
	"github.com/b9ops/dashboard/pkg/logging"
)

// DashboardRPC exposes the dashboard query surface as JSON-RPC methods for
// clients that speak the RPC contract instead of the REST routes. Read-mostly
// results are cached in Redis with per-method TTLs.
type DashboardRPC struct {
	repo      *db.Repository
	querySvc  *query.Service
	analytics *analytics.Service
	cache     *cache.Cache
	logger    *zap.Logger
}

// NewDashboardRPC creates the RPC method set.
func NewDashboardRPC(repo *db.Repository, querySvc *query.Service, analyticsSvc *analytics.Service, redisCache *cache.Cache) *DashboardRPC {
	return &DashboardRPC{
		repo:      repo,
		querySvc:  querySvc,
		analytics: analyticsSvc,
		cache:     redisCache,
		logger:    logging.GetLogger().With(zap.String("component", "dashboard-rpc")),
	}
}

// Register wires every dashboard method into the JSON-RPC handler.
func (d *DashboardRPC) Register(h *JSONRPCHandler) {
	h.RegisterMethod("dashboard.filter_subreddits_by_tags", d.FilterSubredditsByTags)
	h.RegisterMethod("dashboard.filter_subreddits_for_posting", d.FilterSubredditsForPosting)
	h.RegisterMethod("dashboard.get_posting_page_counts", d.GetPostingPageCounts)
	h.RegisterMethod("dashboard.get_post_analytics_metrics", d.GetPostAnalyticsMetrics)
	h.RegisterMethod("dashboard.get_top_categories_for_posts", d.GetTopCategoriesForPosts)
}

type filterByTagsParams struct {
	Tags   []string `json:"tags"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// FilterSubredditsByTags handles dashboard.filter_subreddits_by_tags
func (d *DashboardRPC) FilterSubredditsByTags(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p filterByTagsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, NewError(ErrInvalidParams, "invalid parameters format")
	}
	if len(p.Tags) == 0 {
		return nil, NewError(ErrInvalidParams, "missing required parameter: tags")
	}
	if p.Limit <= 0 || p.Limit > 1000 {
		p.Limit = 1000
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	subs, err := d.repo.FilterSubredditsByTags(ctx.Request.Context(), p.Tags, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		query.Normalize(&subs[i])
	}
	return subs, nil
}

type postingParams struct {
	Page         int      `json:"page"`
	PageSize     int      `json:"page_size"`
	Sort         string   `json:"sort"`
	Direction    string   `json:"direction"`
	Search       string   `json:"search"`
	SFWOnly      bool     `json:"sfw_only"`
	VerifiedOnly bool     `json:"verified_only"`
	CategoryIDs  []int64  `json:"category_ids"`
	Tags         []string `json:"tags"`
}

func (p *postingParams) toRequest(defaultSize int) query.PageRequest {
	req := query.PageRequest{
		Page:         p.Page,
		PageSize:     p.PageSize,
		Sort:         query.SortField(p.Sort),
		Direction:    query.Direction(p.Direction),
		Search:       p.Search,
		SFWOnly:      p.SFWOnly,
		VerifiedOnly: p.VerifiedOnly,
		CategoryIDs:  p.CategoryIDs,
		Tags:         p.Tags,
	}
	if req.PageSize == 0 {
		req.PageSize = defaultSize
	}
	if req.Sort == "" {
		req.Sort = query.SortSubscribers
	}
	if req.Direction == "" {
		req.Direction = query.Desc
	}
	return req
}

// FilterSubredditsForPosting handles dashboard.filter_subreddits_for_posting
func (d *DashboardRPC) FilterSubredditsForPosting(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postingParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, NewError(ErrInvalidParams, "invalid parameters format")
	}
	req := p.toRequest(30)
	if err := req.Validate(); err != nil {
		return nil, WrapError(ErrInvalidParams, "invalid request", err)
	}

	cacheKey := d.postingCacheKey("filter_subreddits_for_posting", &req)
	if d.cache != nil {
		var cached query.Page
		if err := d.cache.GetJSON(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	page, err := d.querySvc.FetchPage(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.SetJSON(cacheKey, page, 30*time.Second); err != nil {
			d.logger.Debug("failed to cache posting page", zap.Error(err))
		}
	}
	return page, nil
}

// GetPostingPageCounts handles dashboard.get_posting_page_counts
func (d *DashboardRPC) GetPostingPageCounts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postingParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, NewError(ErrInvalidParams, "invalid parameters format")
		}
	}
	req := p.toRequest(30)
	if err := req.Validate(); err != nil {
		return nil, WrapError(ErrInvalidParams, "invalid request", err)
	}

	cacheKey := d.postingCacheKey("get_posting_page_counts", &req)
	if d.cache != nil {
		var cached db.PageCounts
		if err := d.cache.GetJSON(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	counts, err := d.querySvc.Counts(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.SetJSON(cacheKey, counts, 30*time.Second); err != nil {
			d.logger.Debug("failed to cache page counts", zap.Error(err))
		}
	}
	return counts, nil
}

// GetPostAnalyticsMetrics handles dashboard.get_post_analytics_metrics.
// The analytics service already deduplicates concurrent fetches and falls
// back to approximate counts on timeout, so no extra caching is layered on.
func (d *DashboardRPC) GetPostAnalyticsMetrics(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	return d.analytics.Metrics(ctx.Request.Context())
}

type topCategoriesParams struct {
	Limit int `json:"limit"`
}

// GetTopCategoriesForPosts handles dashboard.get_top_categories_for_posts
func (d *DashboardRPC) GetTopCategoriesForPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p topCategoriesParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, NewError(ErrInvalidParams, "invalid parameters format")
		}
	}
	if p.Limit <= 0 || p.Limit > 50 {
		p.Limit = 10
	}

	cacheKey := cache.HashKey("dashboard_get_top_categories_for_posts", fmt.Sprintf("%d", p.Limit))
	if d.cache != nil {
		var cached []db.CategoryUsage
		if err := d.cache.GetJSON(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	usage, err := d.analytics.TopCategories(ctx.Request.Context(), p.Limit)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.SetJSON(cacheKey, usage, 5*time.Minute); err != nil {
			d.logger.Debug("failed to cache category usage", zap.Error(err))
		}
	}
	return usage, nil
}

// postingCacheKey hashes every filter that changes the result set.
func (d *DashboardRPC) postingCacheKey(method string, req *query.PageRequest) string {
	ids := make([]string, len(req.CategoryIDs))
	for i, id := range req.CategoryIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	parts := []string{
		"dashboard_" + method,
		fmt.Sprintf("%d", req.Page),
		fmt.Sprintf("%d", req.PageSize),
		string(req.Sort),
		string(req.Direction),
		req.Search,
		fmt.Sprintf("%t", req.SFWOnly),
		fmt.Sprintf("%t", req.VerifiedOnly),
	}
	parts = append(parts, ids...)
	parts = append(parts, req.Tags...)
	return cache.HashKey(parts...)
}
