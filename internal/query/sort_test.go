package query

import (
	"database/sql"
	"testing"

	"github.com/b9ops/dashboard/internal/models"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name     string
		field    SortField
		dir      Direction
		expected string
		wantErr  bool
	}{
		{"subscribers desc", SortSubscribers, Desc, "COALESCE(subscribers, 0) DESC", false},
		{"engagement asc", SortEngagement, Asc, "COALESCE(subscriber_engagement_ratio, 0) ASC", false},
		{"avg upvotes desc", SortAvgUpvotes, Desc, "COALESCE(avg_upvotes_per_post, 0) DESC", false},
		{"best hour asc", SortBestHour, Asc, "COALESCE(best_posting_hour, 0) ASC", false},
		{"name asc", SortName, Asc, "LOWER(name) ASC", false},
		{"unknown field", SortField("upvote_velocity"), Desc, "", true},
		{"unknown direction", SortSubscribers, Direction("sideways"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := OrderClause(tt.field, tt.dir)
			if tt.wantErr {
				if err == nil {
					t.Errorf("OrderClause(%s, %s) expected error", tt.field, tt.dir)
				}
				return
			}
			if err != nil {
				t.Fatalf("OrderClause(%s, %s) error = %v", tt.field, tt.dir, err)
			}
			if clause != tt.expected {
				t.Errorf("OrderClause(%s, %s) = %q, want %q", tt.field, tt.dir, clause, tt.expected)
			}
		})
	}
}

func TestSortLocal_NumericDesc(t *testing.T) {
	subs := []models.Subreddit{
		{ID: 1, Name: "small", Subscribers: 100},
		{ID: 2, Name: "big", Subscribers: 9000},
		{ID: 3, Name: "mid", Subscribers: 500},
	}

	SortLocal(subs, SortSubscribers, Desc)

	want := []string{"big", "mid", "small"}
	for i, name := range want {
		if subs[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, subs[i].Name, name)
		}
	}
}

func TestSortLocal_NullsSortAsZero(t *testing.T) {
	subs := []models.Subreddit{
		{ID: 1, Name: "late", BestPostingHour: sql.NullInt64{Int64: 22, Valid: true}},
		{ID: 2, Name: "unknown"}, // NULL best hour, sorts as 0
		{ID: 3, Name: "early", BestPostingHour: sql.NullInt64{Int64: 6, Valid: true}},
	}

	SortLocal(subs, SortBestHour, Asc)

	if subs[0].Name != "unknown" {
		t.Errorf("NULL best hour should sort first ascending, got %s", subs[0].Name)
	}
	if subs[1].Name != "early" || subs[2].Name != "late" {
		t.Errorf("unexpected order: %s, %s", subs[1].Name, subs[2].Name)
	}
}

func TestSortLocal_TieBreakByID(t *testing.T) {
	subs := []models.Subreddit{
		{ID: 3, Name: "c", Subscribers: 100},
		{ID: 1, Name: "a", Subscribers: 100},
		{ID: 2, Name: "b", Subscribers: 100},
	}

	SortLocal(subs, SortSubscribers, Desc)

	for i, wantID := range []int64{1, 2, 3} {
		if subs[i].ID != wantID {
			t.Errorf("position %d ID = %d, want %d (ties break by id asc)", i, subs[i].ID, wantID)
		}
	}
}

func TestSortLocal_NameCaseInsensitive(t *testing.T) {
	subs := []models.Subreddit{
		{ID: 1, Name: "Zebra"},
		{ID: 2, Name: "apple"},
		{ID: 3, Name: "Mango"},
	}

	SortLocal(subs, SortName, Asc)

	want := []string{"apple", "Mango", "Zebra"}
	for i, name := range want {
		if subs[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, subs[i].Name, name)
		}
	}
}
