package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero fields do not filter.
type PostFilter struct {
	GroupID  uint
	AuthorID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error)
	UpdateContent(ctx context.Context, id uint, text string, groupID *uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, mapNotFound(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.GroupID != 0 {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	return q
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var n int64
	if err := r.filtered(ctx, filter).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// List returns posts newest first; id breaks ties between equal pub_date values.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.filtered(ctx, filter).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// UpdateContent writes only text and group_id; author and pub_date are never touched.
func (r *postRepository) UpdateContent(ctx context.Context, id uint, text string, groupID *uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":     text,
			"group_id": groupID,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}
