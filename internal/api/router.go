package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b9ops/dashboard/internal/analytics"
	"github.com/b9ops/dashboard/internal/cache"
	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/query"
	"github.com/b9ops/dashboard/pkg/config"
	"github.com/b9ops/dashboard/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	db      *db.DB
	cache   *cache.Cache
	cfg     *config.Config
	logger  *zap.Logger

	subreddits *SubredditHandler
	posting    *PostingHandler
	analysis   *AnalysisHandler
	categories *CategoryHandler
	scraper    *ScraperHandler
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, cfg *config.Config) *Router {
	handler := NewJSONRPCHandler()
	router := &Router{
		handler: handler,
		db:      database,
		cache:   redisCache,
		cfg:     cfg,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}

	router.buildHandlers()

	return router
}

// buildHandlers constructs the repositories, services, and HTTP handlers and
// registers the JSON-RPC methods.
func (r *Router) buildHandlers() {
	repo := db.NewRepository(r.db.DB)
	subreddits := db.NewSubredditRepository(repo)
	posts := db.NewPostRepository(repo)
	creators := db.NewCreatorRepository(repo)
	categories := db.NewCategoryRepository(repo)

	querySvc := query.NewService(repo, query.Options{
		BatchSize:   r.cfg.Query.TagBatchSize,
		SnapshotTTL: r.cfg.Query.SnapshotTTL,
	})
	analyticsSvc := analytics.NewService(repo, posts, analytics.Options{
		MetricsTimeout: r.cfg.Query.MetricsTimeout,
		PageSize:       r.cfg.Query.AnalysisPageSize,
	})

	r.subreddits = NewSubredditHandler(subreddits, categories, querySvc, r.cfg.Query.ReviewPageSize)
	r.posting = NewPostingHandler(querySvc, creators, r.cfg.Query.PostingPageSize)
	r.analysis = NewAnalysisHandler(analyticsSvc)
	r.categories = NewCategoryHandler(categories)
	r.scraper = NewScraperHandler(&r.cfg.Scraper, &r.cfg.Pool)

	rpc := NewDashboardRPC(repo, querySvc, analyticsSvc, r.cache)
	rpc.Register(r.handler)
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/rpc", r.handler.Handle)

	api := engine.Group("/api")
	{
		api.GET("/subreddits", r.subreddits.List)
		api.PATCH("/subreddits/:name/review", r.subreddits.PatchReview)
		api.PATCH("/subreddits/:name/tags", r.subreddits.PatchTags)
		api.PATCH("/subreddits/:name/category", r.subreddits.PatchCategory)

		api.GET("/posting", r.posting.List)

		api.GET("/post-analysis", r.analysis.List)
		api.GET("/overview", r.analysis.Overview)

		api.GET("/categories", r.categories.List)

		api.POST("/scraper/start", r.scraper.Start)
		api.POST("/scraper/stop", r.scraper.Stop)
		api.GET("/scraper/status-detailed", r.scraper.StatusDetailed)
	}
}

// Close releases handler-held resources.
func (r *Router) Close() error {
	r.subreddits.Close()
	return r.scraper.Close()
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	status := "OK"
	code := 200
	if err := r.db.Health(c.Request.Context()); err != nil {
		status = "DEGRADED"
		code = 503
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "b9dash-api",
	})
}
