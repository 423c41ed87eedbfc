package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/models"
	"github.com/b9ops/dashboard/internal/perf"
	"github.com/b9ops/dashboard/pkg/logging"
	"github.com/b9ops/dashboard/pkg/telemetry"
)

// MetricsSource is the aggregate-query surface the analytics service needs.
// *db.Repository satisfies it.
type MetricsSource interface {
	GetPostAnalyticsMetrics(ctx context.Context) (*db.AnalyticsMetrics, error)
	GetPostAnalyticsMetricsLite(ctx context.Context) (*db.AnalyticsMetrics, error)
	GetTopCategoriesForPosts(ctx context.Context, limit int) ([]db.CategoryUsage, error)
	GetPostingPageCounts(ctx context.Context, search string, categoryIDs []int64) (*db.PageCounts, error)
}

// PostSource lists posts for the analysis surface. *db.PostRepository
// satisfies it.
type PostSource interface {
	ListApprovedPage(ctx context.Context, search string, limit, offset int) ([]models.RedditPost, error)
}

// Service computes the post-analysis aggregates. The full metrics query is
// raced against a deadline; past it, a lightweight approximate computation
// takes its place so the page never renders empty.
type Service struct {
	source         MetricsSource
	posts          PostSource
	dedup          *perf.Deduplicator
	metricsTimeout time.Duration
	pageSize       int
	logger         *zap.Logger
}

// Options tunes the service; zero values fall back to defaults.
type Options struct {
	MetricsTimeout time.Duration
	PageSize       int
	DedupTTL       time.Duration
}

// NewService creates the analytics service.
func NewService(source MetricsSource, posts PostSource, opts Options) *Service {
	if opts.MetricsTimeout <= 0 {
		opts.MetricsTimeout = 10 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = 3 * time.Second
	}
	return &Service{
		source:         source,
		posts:          posts,
		dedup:          perf.NewDeduplicator(opts.DedupTTL),
		metricsTimeout: opts.MetricsTimeout,
		pageSize:       opts.PageSize,
		logger:         logging.GetLogger().With(zap.String("component", "analytics")),
	}
}

// Metrics returns the post analytics aggregate. Concurrent identical calls
// share one execution; a slow full query falls back to the lite aggregate
// instead of failing the page.
func (s *Service) Metrics(ctx context.Context) (*db.AnalyticsMetrics, error) {
	// The shared execution outlives the caller that started it: canceling
	// one request must not fail the others. The service timeout still
	// bounds the query.
	detached := context.WithoutCancel(ctx)
	result, err := s.dedup.Do("post_analytics_metrics", func() (interface{}, error) {
		return s.fetchMetrics(detached)
	})
	if err != nil {
		return nil, err
	}
	return result.(*db.AnalyticsMetrics), nil
}

func (s *Service) fetchMetrics(ctx context.Context) (*db.AnalyticsMetrics, error) {
	ctx, span := telemetry.StartSpan(ctx, "analytics.metrics")
	defer span.End()

	type outcome struct {
		metrics *db.AnalyticsMetrics
		err     error
	}

	fullCtx, cancel := context.WithTimeout(ctx, s.metricsTimeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		m, err := s.source.GetPostAnalyticsMetrics(fullCtx)
		ch <- outcome{metrics: m, err: err}
	}()

	select {
	case o := <-ch:
		if o.err == nil {
			return o.metrics, nil
		}
		s.logger.Warn("full metrics query failed, using fallback", zap.Error(o.err))
	case <-fullCtx.Done():
		s.logger.Warn("full metrics query exceeded deadline, using fallback",
			zap.Duration("timeout", s.metricsTimeout))
	}

	lite, err := s.source.GetPostAnalyticsMetricsLite(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback metrics failed: %w", err)
	}
	return lite, nil
}

// TopCategories returns the categories whose approved subreddits received
// the most posts.
func (s *Service) TopCategories(ctx context.Context, limit int) ([]db.CategoryUsage, error) {
	ctx, span := telemetry.StartSpan(ctx, "analytics.top_categories")
	defer span.End()

	rows, err := s.source.GetTopCategoriesForPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []db.CategoryUsage{}
	}
	return rows, nil
}

// PostsPage lists one page of posts from approved subreddits, newest first.
func (s *Service) PostsPage(ctx context.Context, page int, search string) ([]models.RedditPost, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "analytics.posts_page")
	defer span.End()

	if page < 0 {
		return nil, false, fmt.Errorf("page must be >= 0, got %d", page)
	}

	posts, err := s.posts.ListApprovedPage(ctx, search, s.pageSize, page*s.pageSize)
	if err != nil {
		return nil, false, err
	}
	if posts == nil {
		posts = []models.RedditPost{}
	}
	return posts, len(posts) == s.pageSize, nil
}

// Overview is the initial dashboard payload.
type Overview struct {
	Metrics       *db.AnalyticsMetrics `json:"metrics"`
	Counts        *db.PageCounts       `json:"counts"`
	TopCategories []db.CategoryUsage   `json:"top_categories"`
}

// LoadOverview fetches metrics, badge counts, and top categories in
// parallel. One failure fails the load; partial results are never mixed
// into the response.
func (s *Service) LoadOverview(ctx context.Context) (*Overview, error) {
	ctx, span := telemetry.StartSpan(ctx, "analytics.overview")
	defer span.End()

	var overview Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.Metrics(gctx)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		overview.Metrics = m
		return nil
	})
	g.Go(func() error {
		c, err := s.source.GetPostingPageCounts(gctx, "", nil)
		if err != nil {
			return fmt.Errorf("counts: %w", err)
		}
		overview.Counts = c
		return nil
	})
	g.Go(func() error {
		top, err := s.TopCategories(gctx, 10)
		if err != nil {
			return fmt.Errorf("top categories: %w", err)
		}
		overview.TopCategories = top
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
