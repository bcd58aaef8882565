package repository

import (
	"context"

	"faceblog/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, userID uint) ([]*models.Post, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, term string, limit int) ([]*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Category").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	return r.find(r.withRelations(ctx))
}

func (r *postRepository) ListByAuthor(ctx context.Context, userID uint) ([]*models.Post, error) {
	return r.find(r.withRelations(ctx).Where("user_id = ?", userID))
}

func (r *postRepository) ListByCategory(ctx context.Context, categoryID uint) ([]*models.Post, error) {
	return r.find(r.withRelations(ctx).Where("category_id = ?", categoryID))
}

// Update rewrites the editable columns. date_posted and user_id are never touched.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("title", "content", "category_id", "image_file").
		Updates(map[string]interface{}{
			"title":       post.Title,
			"content":     post.Content,
			"category_id": post.CategoryID,
			"image_file":  post.ImageFile,
		})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete removes the post's comments and then the post in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Search(ctx context.Context, term string, limit int) ([]*models.Post, error) {
	db := r.withRelations(ctx)
	pattern := containsPattern(term)
	q := db.Where(containsClause(db, "title")+" OR "+containsClause(db, "content"), pattern, pattern)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

func (r *postRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Author").Preload("Category")
}

func (r *postRepository) find(q *gorm.DB) ([]*models.Post, error) {
	var posts []*models.Post
	if err := q.Order("date_posted DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
