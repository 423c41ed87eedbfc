package models

import (
	"database/sql"
	"time"
)

// Creator represents a Reddit account used for posting, optionally linked to
// a managed model whose assigned tags drive posting recommendations.
type Creator struct {
	ID             int64         `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username       string        `gorm:"type:varchar(64);not null;uniqueIndex:creators_username_ux;column:username" json:"username"`
	LinkKarma      int64         `gorm:"not null;default:0;column:link_karma" json:"link_karma"`
	CommentKarma   int64         `gorm:"not null;default:0;column:comment_karma" json:"comment_karma"`
	AccountAgeDays int           `gorm:"not null;default:0;column:account_age_days" json:"account_age_days"`
	Verified       bool          `gorm:"not null;default:false;column:verified" json:"verified"`
	ModelID        sql.NullInt64 `gorm:"column:model_id" json:"model_id"`
	CreatedAt      time.Time     `gorm:"not null;column:created_at" json:"created_at"`

	// Relationships
	Model *CreatorModel `gorm:"foreignKey:ModelID;references:ID" json:"model,omitempty"`
}

// TableName specifies the table name for Creator
func (Creator) TableName() string {
	return "creators"
}

// CreatorModel groups creator accounts under one managed identity and carries
// the tag set matched against subreddit tags.
type CreatorModel struct {
	ID           int64       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	StageName    string      `gorm:"type:varchar(128);not null;column:stage_name" json:"stage_name"`
	AssignedTags StringArray `gorm:"type:jsonb;not null;default:'[]';column:assigned_tags" json:"assigned_tags"`
	Active       bool        `gorm:"not null;default:true;column:active" json:"active"`
	CreatedAt    time.Time   `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for CreatorModel
func (CreatorModel) TableName() string {
	return "creator_models"
}
