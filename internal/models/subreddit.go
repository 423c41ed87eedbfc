package models

import (
	"database/sql"
	"time"
)

// Review status values for a subreddit. A NULL review means the row has not
// been triaged yet; only ReviewOk rows are visible on posting and analysis
// surfaces.
const (
	ReviewOk         = "Ok"
	ReviewNoSeller   = "No Seller"
	ReviewNonRelated = "Non Related"
	ReviewUserFeed   = "User Feed"
	ReviewBanned     = "Banned"
)

// ValidReviews lists every accepted review status.
var ValidReviews = []string{
	ReviewOk,
	ReviewNoSeller,
	ReviewNonRelated,
	ReviewUserFeed,
	ReviewBanned,
}

// IsValidReview reports whether s is an accepted review status.
func IsValidReview(s string) bool {
	for _, r := range ValidReviews {
		if r == s {
			return true
		}
	}
	return false
}

// Subreddit represents a scraped subreddit with its engagement signals and
// moderation state
type Subreddit struct {
	ID                        int64          `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name                      string         `gorm:"type:varchar(255);not null;uniqueIndex:subreddits_name_ux;column:name" json:"name"`
	DisplayNamePrefixed       string         `gorm:"type:varchar(255);not null;default:'';column:display_name_prefixed" json:"display_name_prefixed"`
	Review                    sql.NullString `gorm:"type:varchar(32);column:review" json:"review"`
	Title                     string         `gorm:"type:varchar(512);not null;default:'';column:title" json:"title"`
	PublicDescription         string         `gorm:"type:text;not null;default:'';column:public_description" json:"public_description"`
	Subscribers               int64          `gorm:"not null;default:0;column:subscribers" json:"subscribers"`
	AvgUpvotesPerPost         float64        `gorm:"not null;default:0;column:avg_upvotes_per_post" json:"avg_upvotes_per_post"`
	SubscriberEngagementRatio float64        `gorm:"not null;default:0;column:subscriber_engagement_ratio" json:"subscriber_engagement_ratio"`
	ModeratorActivityScore    float64        `gorm:"not null;default:0;column:moderator_activity_score" json:"moderator_activity_score"`
	CommunityHealthScore      float64        `gorm:"not null;default:0;column:community_health_score" json:"community_health_score"`
	ImagePostAvgScore         float64        `gorm:"not null;default:0;column:image_post_avg_score" json:"image_post_avg_score"`
	VideoPostAvgScore         float64        `gorm:"not null;default:0;column:video_post_avg_score" json:"video_post_avg_score"`
	TextPostAvgScore          float64        `gorm:"not null;default:0;column:text_post_avg_score" json:"text_post_avg_score"`
	BestPostingHour           sql.NullInt64  `gorm:"column:best_posting_hour" json:"best_posting_hour"`
	BestPostingDay            sql.NullString `gorm:"type:varchar(16);column:best_posting_day" json:"best_posting_day"`
	MinAccountAgeDays         int            `gorm:"not null;default:0;column:min_account_age_days" json:"min_account_age_days"`
	MinCommentKarma           int            `gorm:"not null;default:0;column:min_comment_karma" json:"min_comment_karma"`
	MinPostKarma              int            `gorm:"not null;default:0;column:min_post_karma" json:"min_post_karma"`
	PrimaryCategory           sql.NullString `gorm:"type:varchar(64);column:primary_category" json:"primary_category"`
	CategoryID                sql.NullInt64  `gorm:"column:category_id" json:"category_id"`
	Tags                      StringArray    `gorm:"type:jsonb;not null;default:'[]';column:tags" json:"tags"`
	Over18                    bool           `gorm:"not null;default:false;column:over18" json:"over18"`
	VerificationRequired      bool           `gorm:"not null;default:false;column:verification_required" json:"verification_required"`
	LastScrapedAt             time.Time      `gorm:"column:last_scraped_at" json:"last_scraped_at"`
	CreatedAt                 time.Time      `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Subreddit
func (Subreddit) TableName() string {
	return "subreddits"
}

// IsApproved reports whether the subreddit passed review.
func (s *Subreddit) IsApproved() bool {
	return s.Review.Valid && s.Review.String == ReviewOk
}

// HasAnyTag reports whether the subreddit carries at least one of the given
// tags. Tag matching is exact string equality on the hierarchical label
// (e.g. "body:ass:general").
func (s *Subreddit) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range s.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
