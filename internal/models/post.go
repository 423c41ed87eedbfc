package models

import "time"

// RedditPost represents a scraped post. Posts are written by the external
// scraper and are read-only from the dashboard.
type RedditPost struct {
	ID            string    `gorm:"primaryKey;type:varchar(16);column:id" json:"id"`
	SubredditName string    `gorm:"type:varchar(255);not null;index;column:subreddit_name" json:"subreddit_name"`
	Title         string    `gorm:"type:text;not null;default:'';column:title" json:"title"`
	Author        string    `gorm:"type:varchar(64);not null;default:'';column:author" json:"author"`
	Score         int64     `gorm:"not null;default:0;column:score" json:"score"`
	NumComments   int64     `gorm:"not null;default:0;column:num_comments" json:"num_comments"`
	UpvoteRatio   float64   `gorm:"not null;default:0;column:upvote_ratio" json:"upvote_ratio"`
	CreatedUTC    time.Time `gorm:"not null;column:created_utc" json:"created_utc"`
	Thumbnail     string    `gorm:"type:varchar(1024);not null;default:'';column:thumbnail" json:"thumbnail"`
	IsVideo       bool      `gorm:"not null;default:false;column:is_video" json:"is_video"`
	IsSelf        bool      `gorm:"not null;default:false;column:is_self" json:"is_self"`
}

// TableName specifies the table name for RedditPost
func (RedditPost) TableName() string {
	return "reddit_posts"
}

// ContentType buckets a post into image/video/text for per-type score
// aggregation.
func (p *RedditPost) ContentType() string {
	switch {
	case p.IsVideo:
		return "video"
	case p.IsSelf:
		return "text"
	default:
		return "image"
	}
}
