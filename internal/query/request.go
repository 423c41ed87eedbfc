package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/b9ops/dashboard/internal/models"
)

// PageRequest carries every UI-selected filter for one page fetch.
// A non-empty Tags set (a creator with assigned tags is selected) switches
// the service onto the tag path.
type PageRequest struct {
	Page         int
	PageSize     int
	Sort         SortField
	Direction    Direction
	Search       string
	SFWOnly      bool
	VerifiedOnly bool
	CategoryIDs  []int64
	Tags         []string
}

// Validate rejects malformed requests before any query is built.
func (r *PageRequest) Validate() error {
	if r.Page < 0 {
		return fmt.Errorf("page must be >= 0, got %d", r.Page)
	}
	if r.PageSize <= 0 || r.PageSize > 100 {
		return fmt.Errorf("page size must be between 1 and 100, got %d", r.PageSize)
	}
	if !r.Sort.Valid() {
		return fmt.Errorf("unknown sort field: %s", r.Sort)
	}
	if !r.Direction.Valid() {
		return fmt.Errorf("unknown sort direction: %s", r.Direction)
	}
	return nil
}

// Matches applies the request's secondary filters to one row, mirroring the
// server-side predicates: case-insensitive substring search across name,
// title, and description, plus the boolean and category filters. The tag
// filter itself is not applied here; the tag path's remote call already
// restricted the set.
func (r *PageRequest) Matches(s *models.Subreddit) bool {
	if r.SFWOnly && s.Over18 {
		return false
	}
	if r.VerifiedOnly && !s.VerificationRequired {
		return false
	}
	if len(r.CategoryIDs) > 0 {
		if !s.CategoryID.Valid {
			return false
		}
		found := false
		for _, id := range r.CategoryIDs {
			if s.CategoryID.Int64 == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if r.Search != "" {
		needle := strings.ToLower(r.Search)
		if !strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.Title), needle) &&
			!strings.Contains(strings.ToLower(s.PublicDescription), needle) {
			return false
		}
	}
	return true
}

// Page is one page of normalized rows. HasMore is inferred from the page
// length: a full page means more may exist, a short page is the end. Total is
// only known on the tag path, where the whole matching set is local; it is
// zero on the pushdown path.
type Page struct {
	Items   []models.Subreddit `json:"items"`
	HasMore bool               `json:"has_more"`
	Total   int                `json:"total,omitempty"`
}

// Normalize coalesces missing values to defaults so consumers never see nil
// arrays or zero timestamps. A NULL review is meaningful (untriaged) and is
// left alone.
func Normalize(s *models.Subreddit) {
	if s.Tags == nil {
		s.Tags = models.StringArray{}
	}
	now := time.Now().UTC()
	if s.LastScrapedAt.IsZero() {
		s.LastScrapedAt = now
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
}
