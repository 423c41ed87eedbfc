package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/b9ops/dashboard/internal/cache"
	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/models"
	"github.com/b9ops/dashboard/internal/perf"
	"github.com/b9ops/dashboard/pkg/logging"
	"github.com/b9ops/dashboard/pkg/telemetry"
)

// Store is the remote-store surface the query layer depends on.
// *db.Repository satisfies it.
type Store interface {
	FilterSubredditsByTags(ctx context.Context, tags []string, limit, offset int) ([]models.Subreddit, error)
	FilterSubredditsForPosting(ctx context.Context, f db.PostingFilters, limit, offset int) ([]models.Subreddit, error)
	GetPostingPageCounts(ctx context.Context, search string, categoryIDs []int64) (*db.PageCounts, error)
}

// Service is the single query/pagination/filter layer behind every listing
// surface. It is stateless per request except for the tag-path snapshot
// cache.
//
// Two fetch paths exist. Without a tag filter, pagination and sorting are
// pushed down to the store one page at a time. With a tag filter active, the
// store's tag-match query cannot combine with arbitrary secondary filters,
// so the full matching set is fetched in fixed-size batches, snapshotted,
// and re-filtered/re-sorted/re-paginated locally until the tag set changes
// or the snapshot expires.
type Service struct {
	store       Store
	snapshots   *perf.QueryCache
	batchSize   int
	snapshotTTL time.Duration
	logger      *zap.Logger
}

// Options tunes the service; zero values fall back to defaults.
type Options struct {
	BatchSize   int
	SnapshotTTL time.Duration
	MaxSnapshots int
}

// NewService creates the query service.
func NewService(store Store, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 5 * time.Minute
	}
	if opts.MaxSnapshots <= 0 {
		opts.MaxSnapshots = 16
	}
	return &Service{
		store:       store,
		snapshots:   perf.NewQueryCache(opts.MaxSnapshots),
		batchSize:   opts.BatchSize,
		snapshotTTL: opts.SnapshotTTL,
		logger:      logging.GetLogger().With(zap.String("component", "query-service")),
	}
}

// FetchPage returns one page of normalized rows plus the has-more signal.
func (s *Service) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	ctx, span := telemetry.StartSpan(ctx, "query.fetch_page")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(req.Tags) > 0 {
		return s.fetchTagPage(ctx, req)
	}
	return s.fetchPushdownPage(ctx, req)
}

// fetchPushdownPage delegates filtering, sorting, and pagination to the
// store.
func (s *Service) fetchPushdownPage(ctx context.Context, req PageRequest) (*Page, error) {
	orderClause, err := OrderClause(req.Sort, req.Direction)
	if err != nil {
		return nil, err
	}

	filters := db.PostingFilters{
		Search:       req.Search,
		SFWOnly:      req.SFWOnly,
		VerifiedOnly: req.VerifiedOnly,
		CategoryIDs:  req.CategoryIDs,
		OrderClause:  orderClause,
	}

	items, err := s.store.FilterSubredditsForPosting(ctx, filters, req.PageSize, req.Page*req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("pushdown fetch failed: %w", err)
	}

	for i := range items {
		Normalize(&items[i])
	}

	return &Page{
		Items:   items,
		HasMore: len(items) == req.PageSize,
	}, nil
}

// fetchTagPage serves a page from the in-memory tag snapshot, fetching the
// full matching set first if no usable snapshot exists.
func (s *Service) fetchTagPage(ctx context.Context, req PageRequest) (*Page, error) {
	all, err := s.taggedSet(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Subreddit, 0, len(all))
	for i := range all {
		if req.Matches(&all[i]) {
			filtered = append(filtered, all[i])
		}
	}

	SortLocal(filtered, req.Sort, req.Direction)

	start := req.Page * req.PageSize
	if start >= len(filtered) {
		return &Page{Items: []models.Subreddit{}, HasMore: false, Total: len(filtered)}, nil
	}
	end := start + req.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	items := make([]models.Subreddit, end-start)
	copy(items, filtered[start:end])
	for i := range items {
		Normalize(&items[i])
	}

	return &Page{
		Items:   items,
		HasMore: len(items) == req.PageSize,
		Total:   len(filtered),
	}, nil
}

// Counts returns the SFW/NSFW/verified badge counts for the request's base
// filters: an aggregate query on the pushdown path, a scan over the snapshot
// on the tag path.
func (s *Service) Counts(ctx context.Context, req PageRequest) (*db.PageCounts, error) {
	ctx, span := telemetry.StartSpan(ctx, "query.counts")
	defer span.End()

	if len(req.Tags) == 0 {
		counts, err := s.store.GetPostingPageCounts(ctx, req.Search, req.CategoryIDs)
		if err != nil {
			return nil, fmt.Errorf("counts fetch failed: %w", err)
		}
		return counts, nil
	}

	all, err := s.taggedSet(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	// The badges describe what each toggle would show, so the toggles
	// themselves are excluded from the predicate here too.
	base := req
	base.SFWOnly = false
	base.VerifiedOnly = false

	counts := &db.PageCounts{}
	for i := range all {
		if !base.Matches(&all[i]) {
			continue
		}
		counts.Total++
		if all[i].Over18 {
			counts.Nsfw++
		} else {
			counts.Sfw++
		}
		if all[i].VerificationRequired {
			counts.Verified++
		}
	}
	return counts, nil
}

// InvalidateTags drops the snapshot for a tag set, forcing the next tag-path
// fetch to go remote. Used when a row mutation may have changed membership.
func (s *Service) InvalidateTags(tags []string) {
	s.snapshots.Delete(tagKey(tags))
}

// ClearSnapshots drops every tag snapshot. Row mutations that can change
// membership of an unknown number of tag sets fall back to this.
func (s *Service) ClearSnapshots() {
	s.snapshots.Clear()
}

// taggedSet returns the full approved set matching the tags, from snapshot
// or by batched fetch.
func (s *Service) taggedSet(ctx context.Context, tags []string) ([]models.Subreddit, error) {
	key := tagKey(tags)
	if cached, ok := s.snapshots.Get(key); ok {
		return cached.([]models.Subreddit), nil
	}

	all, err := s.fetchAllByTags(ctx, tags)
	if err != nil {
		return nil, err
	}

	s.snapshots.Set(key, all, s.snapshotTTL)
	return all, nil
}

// fetchAllByTags pulls every matching row in fixed-size batches. The store
// caps rows per call, so the loop keeps going until a short batch signals
// the end; a full batch always triggers one more call at the next offset.
func (s *Service) fetchAllByTags(ctx context.Context, tags []string) ([]models.Subreddit, error) {
	var all []models.Subreddit
	offset := 0
	for {
		batch, err := s.store.FilterSubredditsByTags(ctx, tags, s.batchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("tag batch fetch at offset %d failed: %w", offset, err)
		}
		all = append(all, batch...)
		if len(batch) < s.batchSize {
			break
		}
		offset += s.batchSize
	}

	s.logger.Debug("fetched full tag-matched set",
		zap.Int("rows", len(all)),
		zap.Int("tags", len(tags)))

	return all, nil
}

// tagKey derives a snapshot key from a tag set, order-insensitively.
func tagKey(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return cache.HashKey(sorted...)
}
