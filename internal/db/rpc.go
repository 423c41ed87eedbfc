package db

// The dashboard front end depends on a fixed set of named query contracts
// (originally Postgres RPC functions). Each one is implemented here as a
// single SQL statement so the contract stays in one place.

import (
	"context"
	"fmt"

	"github.com/b9ops/dashboard/internal/models"
)

// PostingFilters is the server-side filter set for the posting surface.
// OrderClause must come from the query layer's sort whitelist; it is
// interpolated into SQL.
type PostingFilters struct {
	Search       string
	SFWOnly      bool
	VerifiedOnly bool
	CategoryIDs  []int64
	OrderClause  string
}

// PageCounts carries the badge counts for the posting surface. Sfw and Nsfw
// partition Total on the over18 flag.
type PageCounts struct {
	Total    int64 `json:"total"`
	Sfw      int64 `json:"sfw"`
	Nsfw     int64 `json:"nsfw"`
	Verified int64 `json:"verified"`
}

// AnalyticsMetrics is the result of the post analytics aggregate.
// Approximate marks results produced by the lightweight fallback.
type AnalyticsMetrics struct {
	TotalPosts       int64   `json:"total_posts"`
	UniqueSubreddits int64   `json:"unique_subreddits"`
	AvgScore         float64 `json:"avg_score"`
	AvgComments      float64 `json:"avg_comments"`
	AvgUpvoteRatio   float64 `json:"avg_upvote_ratio"`
	BestPostingHour  int     `json:"best_posting_hour"`
	BestPostingDay   string  `json:"best_posting_day"`
	Approximate      bool    `json:"approximate"`
}

// CategoryUsage is one row of the top-categories aggregate.
type CategoryUsage struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	PostCount int64  `json:"post_count"`
}

// FilterSubredditsByTags returns approved subreddits carrying at least one
// of the given tags, ordered by id for stable batch pagination. The store
// caps rows per call, so callers page through with limit/offset until a
// short batch comes back.
func (r *Repository) FilterSubredditsByTags(ctx context.Context, tags []string, limit, offset int) ([]models.Subreddit, error) {
	if len(tags) == 0 {
		return []models.Subreddit{}, nil
	}

	var subs []models.Subreddit
	err := r.db.WithContext(ctx).
		Model(&models.Subreddit{}).
		Where("review = ?", models.ReviewOk).
		Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) t(tag) WHERE t.tag = ANY(?))", tags).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to filter subreddits by tags: %w", err)
	}
	return subs, nil
}

// FilterSubredditsForPosting returns one page of approved subreddits with
// all posting-surface filters pushed down to the store.
func (r *Repository) FilterSubredditsForPosting(ctx context.Context, f PostingFilters, limit, offset int) ([]models.Subreddit, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Subreddit{}).
		Where("review = ?", models.ReviewOk)

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("name ILIKE ? OR title ILIKE ? OR public_description ILIKE ?", pattern, pattern, pattern)
	}
	if f.SFWOnly {
		query = query.Where("over18 = ?", false)
	}
	if f.VerifiedOnly {
		query = query.Where("verification_required = ?", true)
	}
	if len(f.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.OrderClause != "" {
		query = query.Order(f.OrderClause)
	}

	var subs []models.Subreddit
	err := query.
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to filter subreddits for posting: %w", err)
	}
	return subs, nil
}

// GetPostingPageCounts computes the badge counts for the posting surface in
// one aggregate pass. The SFW/verified toggles are intentionally excluded
// from the predicate: the badges describe what each toggle would show.
func (r *Repository) GetPostingPageCounts(ctx context.Context, search string, categoryIDs []int64) (*PageCounts, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Subreddit{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE NOT over18) AS sfw,
			COUNT(*) FILTER (WHERE over18) AS nsfw,
			COUNT(*) FILTER (WHERE verification_required) AS verified`).
		Where("review = ?", models.ReviewOk)

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR title ILIKE ? OR public_description ILIKE ?", pattern, pattern, pattern)
	}
	if len(categoryIDs) > 0 {
		query = query.Where("category_id IN ?", categoryIDs)
	}

	var counts PageCounts
	if err := query.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posting page counts: %w", err)
	}
	return &counts, nil
}

// GetPostAnalyticsMetrics computes the full post analytics aggregate over
// posts in approved subreddits.
func (r *Repository) GetPostAnalyticsMetrics(ctx context.Context) (*AnalyticsMetrics, error) {
	approved := r.db.Model(&models.Subreddit{}).
		Select("name").
		Where("review = ?", models.ReviewOk)

	var metrics AnalyticsMetrics
	err := r.db.WithContext(ctx).
		Model(&models.RedditPost{}).
		Select(`COUNT(*) AS total_posts,
			COUNT(DISTINCT subreddit_name) AS unique_subreddits,
			COALESCE(AVG(score), 0) AS avg_score,
			COALESCE(AVG(num_comments), 0) AS avg_comments,
			COALESCE(AVG(upvote_ratio), 0) AS avg_upvote_ratio`).
		Where("subreddit_name IN (?)", approved).
		Scan(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get post analytics metrics: %w", err)
	}

	// Best hour/day come from separate histogram scans; no posts means no
	// recommendation.
	if metrics.TotalPosts > 0 {
		var hourRow struct {
			Hour int
		}
		err = r.db.WithContext(ctx).
			Model(&models.RedditPost{}).
			Select("EXTRACT(HOUR FROM created_utc)::int AS hour").
			Where("subreddit_name IN (?)", approved).
			Group("1").
			Order("COUNT(*) DESC").
			Limit(1).
			Scan(&hourRow).Error
		if err != nil {
			return nil, fmt.Errorf("failed to compute best posting hour: %w", err)
		}
		metrics.BestPostingHour = hourRow.Hour

		var dayRow struct {
			Day string
		}
		err = r.db.WithContext(ctx).
			Model(&models.RedditPost{}).
			Select("TRIM(to_char(created_utc, 'Day')) AS day").
			Where("subreddit_name IN (?)", approved).
			Group("1").
			Order("COUNT(*) DESC").
			Limit(1).
			Scan(&dayRow).Error
		if err != nil {
			return nil, fmt.Errorf("failed to compute best posting day: %w", err)
		}
		metrics.BestPostingDay = dayRow.Day
	}

	return &metrics, nil
}

// GetPostAnalyticsMetricsLite is the fallback aggregate used when the full
// metrics query exceeds its deadline: plain counts, no averages, no
// histograms.
func (r *Repository) GetPostAnalyticsMetricsLite(ctx context.Context) (*AnalyticsMetrics, error) {
	var metrics AnalyticsMetrics
	err := r.db.WithContext(ctx).
		Model(&models.RedditPost{}).
		Select("COUNT(*) AS total_posts, COUNT(DISTINCT subreddit_name) AS unique_subreddits").
		Where("subreddit_name IN (?)",
			r.db.Model(&models.Subreddit{}).Select("name").Where("review = ?", models.ReviewOk)).
		Scan(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lite analytics metrics: %w", err)
	}
	metrics.Approximate = true
	return &metrics, nil
}

// GetTopCategoriesForPosts returns the categories whose approved subreddits
// received the most posts.
func (r *Repository) GetTopCategoriesForPosts(ctx context.Context, limit int) ([]CategoryUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []CategoryUsage
	err := r.db.WithContext(ctx).
		Table("reddit_posts AS p").
		Select("c.name AS name, c.color AS color, COUNT(p.id) AS post_count").
		Joins("INNER JOIN subreddits s ON s.name = p.subreddit_name").
		Joins("INNER JOIN categories c ON c.id = s.category_id").
		Where("s.review = ?", models.ReviewOk).
		Group("c.name, c.color").
		Order("post_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top categories: %w", err)
	}
	return rows, nil
}
