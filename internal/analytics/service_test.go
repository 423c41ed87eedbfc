package analytics

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/b9ops/dashboard/internal/db"
	"github.com/b9ops/dashboard/internal/models"
)

type fakeSource struct {
	fullDelay time.Duration
	fullErr   error
	liteErr   error

	fullCalls int32
	liteCalls int32
}

func (f *fakeSource) GetPostAnalyticsMetrics(ctx context.Context) (*db.AnalyticsMetrics, error) {
	atomic.AddInt32(&f.fullCalls, 1)
	if f.fullDelay > 0 {
		select {
		case <-time.After(f.fullDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fullErr != nil {
		return nil, f.fullErr
	}
	return &db.AnalyticsMetrics{
		TotalPosts:       1200,
		UniqueSubreddits: 40,
		AvgScore:         315.5,
		AvgComments:      12.25,
		BestPostingHour:  21,
		BestPostingDay:   "Friday",
	}, nil
}

func (f *fakeSource) GetPostAnalyticsMetricsLite(ctx context.Context) (*db.AnalyticsMetrics, error) {
	atomic.AddInt32(&f.liteCalls, 1)
	if f.liteErr != nil {
		return nil, f.liteErr
	}
	return &db.AnalyticsMetrics{
		TotalPosts:       1200,
		UniqueSubreddits: 40,
		Approximate:      true,
	}, nil
}

func (f *fakeSource) GetTopCategoriesForPosts(ctx context.Context, limit int) ([]db.CategoryUsage, error) {
	return []db.CategoryUsage{
		{Name: "Fitness", Color: "#22c55e", PostCount: 300},
		{Name: "Cosplay", Color: "#8b5cf6", PostCount: 120},
	}, nil
}

func (f *fakeSource) GetPostingPageCounts(ctx context.Context, search string, categoryIDs []int64) (*db.PageCounts, error) {
	return &db.PageCounts{Total: 40, Sfw: 25, Nsfw: 15, Verified: 8}, nil
}

type fakePosts struct {
	total int
	err   error
}

func (f *fakePosts) ListApprovedPage(ctx context.Context, search string, limit, offset int) ([]models.RedditPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	if offset >= f.total {
		return []models.RedditPost{}, nil
	}
	end := offset + limit
	if end > f.total {
		end = f.total
	}
	posts := make([]models.RedditPost, 0, end-offset)
	for i := offset; i < end; i++ {
		posts = append(posts, models.RedditPost{ID: fmt.Sprintf("t3_%05d", i)})
	}
	return posts, nil
}

func TestMetrics_FullQueryWithinDeadline(t *testing.T) {
	source := &fakeSource{}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: time.Second})

	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if m.Approximate {
		t.Error("fast full query should not use the fallback")
	}
	if m.AvgScore != 315.5 {
		t.Errorf("AvgScore = %v, want 315.5", m.AvgScore)
	}
	if atomic.LoadInt32(&source.liteCalls) != 0 {
		t.Error("lite query should not have run")
	}
}

func TestMetrics_SlowQueryFallsBack(t *testing.T) {
	source := &fakeSource{fullDelay: 200 * time.Millisecond}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: 20 * time.Millisecond})

	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if m == nil {
		t.Fatal("fallback must populate metrics, got nil")
	}
	if !m.Approximate {
		t.Error("timed-out full query should yield the approximate fallback")
	}
	if m.TotalPosts != 1200 {
		t.Errorf("TotalPosts = %d, want 1200", m.TotalPosts)
	}
	if atomic.LoadInt32(&source.liteCalls) != 1 {
		t.Errorf("lite query ran %d times, want 1", atomic.LoadInt32(&source.liteCalls))
	}
}

func TestMetrics_FullQueryErrorFallsBack(t *testing.T) {
	source := &fakeSource{fullErr: fmt.Errorf("relation busy")}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: time.Second})

	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if !m.Approximate {
		t.Error("failed full query should yield the approximate fallback")
	}
}

func TestMetrics_BothPathsFailing(t *testing.T) {
	source := &fakeSource{
		fullErr: fmt.Errorf("relation busy"),
		liteErr: fmt.Errorf("connection refused"),
	}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: time.Second})

	if _, err := svc.Metrics(context.Background()); err == nil {
		t.Error("expected error when both metric paths fail")
	}
}

func TestMetrics_ConcurrentCallsShareExecution(t *testing.T) {
	source := &fakeSource{fullDelay: 50 * time.Millisecond}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: time.Second, DedupTTL: time.Minute})

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if _, err := svc.Metrics(context.Background()); err != nil {
				t.Errorf("Metrics() error = %v", err)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	if got := atomic.LoadInt32(&source.fullCalls); got != 1 {
		t.Errorf("full query ran %d times under concurrency, want 1", got)
	}
}

func TestMetrics_InitiatorCancelDoesNotFailSharers(t *testing.T) {
	source := &fakeSource{fullDelay: 50 * time.Millisecond}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: time.Second, DedupTTL: time.Minute})

	initiatorCtx, cancel := context.WithCancel(context.Background())

	initiatorDone := make(chan error, 1)
	go func() {
		_, err := svc.Metrics(initiatorCtx)
		initiatorDone <- err
	}()

	// Let the initiator start the shared execution, then join it and cancel
	// the initiator's request mid-flight.
	time.Sleep(10 * time.Millisecond)
	sharerDone := make(chan error, 1)
	go func() {
		m, err := svc.Metrics(context.Background())
		if err == nil && m == nil {
			err = fmt.Errorf("nil metrics without error")
		}
		sharerDone <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-sharerDone; err != nil {
		t.Errorf("sharer Metrics() after initiator cancel = %v, want success", err)
	}
	if err := <-initiatorDone; err != nil {
		t.Errorf("initiator Metrics() = %v, want success from detached execution", err)
	}
	if got := atomic.LoadInt32(&source.fullCalls); got != 1 {
		t.Errorf("full query ran %d times, want 1", got)
	}
}

func TestPostsPage_HasMore(t *testing.T) {
	svc := NewService(&fakeSource{}, &fakePosts{total: 45}, Options{PageSize: 20})

	posts, hasMore, err := svc.PostsPage(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("PostsPage(0) error = %v", err)
	}
	if len(posts) != 20 || !hasMore {
		t.Errorf("page 0: %d posts, hasMore=%v; want 20, true", len(posts), hasMore)
	}

	posts, hasMore, err = svc.PostsPage(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("PostsPage(2) error = %v", err)
	}
	if len(posts) != 5 || hasMore {
		t.Errorf("page 2: %d posts, hasMore=%v; want 5, false", len(posts), hasMore)
	}
}

func TestPostsPage_RejectsNegativePage(t *testing.T) {
	svc := NewService(&fakeSource{}, &fakePosts{total: 10}, Options{})

	if _, _, err := svc.PostsPage(context.Background(), -1, ""); err == nil {
		t.Error("expected error for negative page")
	}
}

func TestLoadOverview(t *testing.T) {
	svc := NewService(&fakeSource{}, &fakePosts{}, Options{MetricsTimeout: time.Second})

	overview, err := svc.LoadOverview(context.Background())
	if err != nil {
		t.Fatalf("LoadOverview() error = %v", err)
	}

	if overview.Metrics == nil || overview.Counts == nil {
		t.Fatal("overview should carry metrics and counts")
	}
	if overview.Counts.Sfw+overview.Counts.Nsfw != overview.Counts.Total {
		t.Error("counts must partition on the over18 flag")
	}
	if len(overview.TopCategories) != 2 {
		t.Errorf("TopCategories has %d rows, want 2", len(overview.TopCategories))
	}
}

func TestLoadOverview_OneFailureFailsLoad(t *testing.T) {
	source := &fakeSource{
		fullErr: fmt.Errorf("relation busy"),
		liteErr: fmt.Errorf("connection refused"),
	}
	svc := NewService(source, &fakePosts{}, Options{MetricsTimeout: time.Second})

	if _, err := svc.LoadOverview(context.Background()); err == nil {
		t.Error("expected overview load to fail when metrics fail")
	}
}
