package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/b9ops/dashboard/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SubredditRepository provides subreddit-related database operations
type SubredditRepository struct {
	*Repository
}

// NewSubredditRepository creates a new subreddit repository
func NewSubredditRepository(repo *Repository) *SubredditRepository {
	return &SubredditRepository{Repository: repo}
}

// GetByID retrieves a subreddit by ID
func (r *SubredditRepository) GetByID(ctx context.Context, id int64) (*models.Subreddit, error) {
	var sub models.Subreddit
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetByName retrieves a subreddit by name
func (r *SubredditRepository) GetByName(ctx context.Context, name string) (*models.Subreddit, error) {
	var sub models.Subreddit
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ReviewFilterUntriaged selects rows whose review is still NULL.
const ReviewFilterUntriaged = "untriaged"

// ListReviewPage lists subreddits for the review queue, every review state
// included, newest first. reviewFilter is "" for all rows,
// ReviewFilterUntriaged for NULL reviews, or one review status.
func (r *SubredditRepository) ListReviewPage(ctx context.Context, search, reviewFilter string, limit, offset int) ([]models.Subreddit, error) {
	query := r.db.WithContext(ctx).Model(&models.Subreddit{})

	switch reviewFilter {
	case "":
	case ReviewFilterUntriaged:
		query = query.Where("review IS NULL")
	default:
		query = query.Where("review = ?", reviewFilter)
	}

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR title ILIKE ? OR public_description ILIKE ?", pattern, pattern, pattern)
	}

	var subs []models.Subreddit
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// UpdateReview sets or clears the review status for a subreddit. A nil
// review reverts the row to the untriaged state.
func (r *SubredditRepository) UpdateReview(ctx context.Context, name string, review *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Subreddit{}).
		Where("name = ?", name).
		Update("review", review).Error
}

// UpdateTags replaces the tag set for a subreddit
func (r *SubredditRepository) UpdateTags(ctx context.Context, name string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return r.db.WithContext(ctx).
		Model(&models.Subreddit{}).
		Where("name = ?", name).
		Update("tags", models.StringArray(tags)).Error
}

// UpdateCategory sets the category for a subreddit. Both the denormalized
// name and the foreign key move together.
func (r *SubredditRepository) UpdateCategory(ctx context.Context, name string, categoryID *int64, categoryName *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Subreddit{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"category_id":      categoryID,
			"primary_category": categoryName,
		}).Error
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.RedditPost, error) {
	var post models.RedditPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ListApprovedPage lists posts belonging to approved subreddits, newest
// first, one page at a time.
func (r *PostRepository) ListApprovedPage(ctx context.Context, search string, limit, offset int) ([]models.RedditPost, error) {
	query := r.db.WithContext(ctx).
		Model(&models.RedditPost{}).
		Where("subreddit_name IN (?)",
			r.db.Model(&models.Subreddit{}).Select("name").Where("review = ?", models.ReviewOk))

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR subreddit_name ILIKE ?", pattern, pattern)
	}

	var posts []models.RedditPost
	err := query.
		Order("created_utc DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatorRepository provides creator-related database operations
type CreatorRepository struct {
	*Repository
}

// NewCreatorRepository creates a new creator repository
func NewCreatorRepository(repo *Repository) *CreatorRepository {
	return &CreatorRepository{Repository: repo}
}

// GetByUsername retrieves a creator with its linked model
func (r *CreatorRepository) GetByUsername(ctx context.Context, username string) (*models.Creator, error) {
	var creator models.Creator
	if err := r.db.WithContext(ctx).
		Preload("Model").
		Where("username = ?", username).
		First(&creator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &creator, nil
}

// AssignedTags returns the tag set of the creator's linked model. A creator
// without an active model yields no tags, which disables tag filtering.
func (r *CreatorRepository) AssignedTags(ctx context.Context, username string) ([]string, error) {
	creator, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if creator == nil || creator.Model == nil || !creator.Model.Active {
		return nil, nil
	}
	return creator.Model.AssignedTags, nil
}

// CategoryRepository provides category-related database operations
type CategoryRepository struct {
	*Repository
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(repo *Repository) *CategoryRepository {
	return &CategoryRepository{Repository: repo}
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

// List lists all categories ordered by usage
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.db.WithContext(ctx).
		Order("usage_count DESC").
		Order("name ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}
