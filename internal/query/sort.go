package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/b9ops/dashboard/internal/models"
)

// SortField is a UI-facing sort key mapped to one physical column.
type SortField string

// Sort fields accepted by the posting and analysis surfaces.
const (
	SortSubscribers SortField = "subscribers"
	SortAvgUpvotes  SortField = "avg_upvotes"
	SortEngagement  SortField = "engagement"
	SortHealth      SortField = "health"
	SortBestHour    SortField = "best_hour"
	SortMinKarma    SortField = "min_karma"
	SortName        SortField = "name"
)

// Direction of a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// sortColumns maps sort fields to physical columns. Only whitelisted fields
// ever reach an ORDER BY clause.
var sortColumns = map[SortField]string{
	SortSubscribers: "subscribers",
	SortAvgUpvotes:  "avg_upvotes_per_post",
	SortEngagement:  "subscriber_engagement_ratio",
	SortHealth:      "community_health_score",
	SortBestHour:    "best_posting_hour",
	SortMinKarma:    "min_post_karma",
	SortName:        "name",
}

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	_, ok := sortColumns[f]
	return ok
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// OrderClause renders the server-side ORDER BY expression for a sort field.
// Missing numeric values sort as 0 so both fetch paths agree on ordering.
func OrderClause(field SortField, dir Direction) (string, error) {
	column, ok := sortColumns[field]
	if !ok {
		return "", fmt.Errorf("unknown sort field: %s", field)
	}
	if !dir.Valid() {
		return "", fmt.Errorf("unknown sort direction: %s", dir)
	}

	sqlDir := "ASC"
	if dir == Desc {
		sqlDir = "DESC"
	}

	if field == SortName {
		return fmt.Sprintf("LOWER(name) %s", sqlDir), nil
	}
	return fmt.Sprintf("COALESCE(%s, 0) %s", column, sqlDir), nil
}

// numericValue extracts the sortable numeric signal for a field, coalescing
// missing values to 0.
func numericValue(s *models.Subreddit, field SortField) float64 {
	switch field {
	case SortSubscribers:
		return float64(s.Subscribers)
	case SortAvgUpvotes:
		return s.AvgUpvotesPerPost
	case SortEngagement:
		return s.SubscriberEngagementRatio
	case SortHealth:
		return s.CommunityHealthScore
	case SortBestHour:
		if !s.BestPostingHour.Valid {
			return 0
		}
		return float64(s.BestPostingHour.Int64)
	case SortMinKarma:
		return float64(s.MinPostKarma)
	default:
		return 0
	}
}

// SortLocal orders subs in place the same way the store would for the given
// field and direction: case-insensitive for name, nulls-as-zero for numeric
// signals, ascending id as the tiebreak.
func SortLocal(subs []models.Subreddit, field SortField, dir Direction) {
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := &subs[i], &subs[j]

		var less, equal bool
		if field == SortName {
			an := strings.ToLower(a.Name)
			bn := strings.ToLower(b.Name)
			less = an < bn
			equal = an == bn
		} else {
			av := numericValue(a, field)
			bv := numericValue(b, field)
			less = av < bv
			equal = av == bv
		}

		if equal {
			return a.ID < b.ID
		}
		if dir == Desc {
			return !less
		}
		return less
	})
}
