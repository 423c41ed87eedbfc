package models

import "time"

// Category is a named grouping for subreddits with a display color and a
// usage count maintained by the store.
type Category struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name           string    `gorm:"type:varchar(64);not null;uniqueIndex:categories_name_ux;column:name" json:"name"`
	NormalizedName string    `gorm:"type:varchar(64);not null;default:'';column:normalized_name" json:"normalized_name"`
	UsageCount     int64     `gorm:"not null;default:0;column:usage_count" json:"usage_count"`
	Color          string    `gorm:"type:varchar(16);not null;default:'#808080';column:color" json:"color"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
