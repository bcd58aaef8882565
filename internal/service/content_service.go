package service

import (
	"context"

	"faceblog/internal/models"
	"faceblog/internal/observability"
	"faceblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostInput is a validated create or edit post request.
type PostInput struct {
	Title      string
	Content    string
	CategoryID *uint
	// ImageFile replaces the stored image when non-empty.
	ImageFile string
}

// PostDetail is a post with its comments, oldest first.
type PostDetail struct {
	Post     *models.Post      `json:"post"`
	Comments []*models.Comment `json:"comments"`
}

// ContentService owns posts, categories and comments.
type ContentService struct {
	posts      repository.PostRepository
	comments   repository.CommentRepository
	categories repository.CategoryRepository
}

// NewContentService returns a new ContentService.
func NewContentService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	categories repository.CategoryRepository,
) *ContentService {
	return &ContentService{posts: posts, comments: comments, categories: categories}
}

// ListPosts returns every post, newest first.
func (s *ContentService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.posts.List(ctx)
}

// GetPost returns a post with its comments.
func (s *ContentService) GetPost(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments}, nil
}

// CreatePost stores a post authored by actor.
func (s *ContentService) CreatePost(ctx context.Context, actor Actor, in PostInput) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ContentService", "CreatePost",
		attribute.Int64("user.id", int64(actor.ID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	post = &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		CategoryID: in.CategoryID,
		ImageFile:  in.ImageFile,
		UserID:     actor.ID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// UpdatePost edits a post owned by actor. date_posted is preserved.
func (s *ContentService) UpdatePost(ctx context.Context, actor Actor, postID uint, in PostInput) (*models.Post, Outcome, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if post.UserID != actor.ID {
		return post, rejected(WarnEditPost), nil
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, Outcome{}, err
	}

	outcome := Outcome{Changed: true}
	post.Title = in.Title
	post.Content = in.Content
	post.CategoryID = in.CategoryID
	if in.ImageFile != "" && in.ImageFile != post.ImageFile {
		outcome.StaleImage = post.ImageFile
		post.ImageFile = in.ImageFile
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, Outcome{}, err
	}
	updated, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, Outcome{}, err
	}
	return updated, outcome, nil
}

// DeletePost removes a post owned by actor together with its comments.
func (s *ContentService) DeletePost(ctx context.Context, actor Actor, postID uint) (Outcome, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return Outcome{}, err
	}
	if post.UserID != actor.ID {
		return rejected(WarnDeletePost), nil
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, StaleImage: post.ImageFile}, nil
}

func (s *ContentService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewFieldValidationError(map[string]string{"category_id": "Not a valid choice."})
		}
		return err
	}
	return nil
}

// ListCategories returns every category.
func (s *ContentService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// CategoryPosts returns a category and its posts.
func (s *ContentService) CategoryPosts(ctx context.Context, categoryID uint) (*models.Category, []*models.Post, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.posts.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	return category, posts, nil
}

// AddComment attaches a comment by actor to a post.
func (s *ContentService) AddComment(ctx context.Context, actor Actor, postID uint, content string) (*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comment := &models.Comment{Content: content, PostID: postID, UserID: actor.ID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// EditComment replaces the body of a comment owned by actor.
func (s *ContentService) EditComment(ctx context.Context, actor Actor, commentID uint, content string) (*models.Comment, Outcome, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, Outcome{}, err
	}
	if comment.UserID != actor.ID {
		return comment, rejected(WarnEditComment), nil
	}
	if err := s.comments.UpdateContent(ctx, commentID, content); err != nil {
		return nil, Outcome{}, err
	}
	comment.Content = content
	return comment, Outcome{Changed: true}, nil
}

// DeleteComment removes a comment owned by actor and returns its post id.
func (s *ContentService) DeleteComment(ctx context.Context, actor Actor, commentID uint) (uint, Outcome, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return 0, Outcome{}, err
	}
	if comment.UserID != actor.ID {
		return comment.PostID, rejected(WarnDeleteComment), nil
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return 0, Outcome{}, err
	}
	return comment.PostID, Outcome{Changed: true}, nil
}

// LikeComment adds one to the counter. Repeated likes by the same user all count.
func (s *ContentService) LikeComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	return s.adjustLikes(ctx, commentID, 1)
}

// DislikeComment subtracts one. The counter has no floor and may go negative.
func (s *ContentService) DislikeComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	return s.adjustLikes(ctx, commentID, -1)
}

func (s *ContentService) adjustLikes(ctx context.Context, commentID uint, delta int) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	likes, err := s.comments.AdjustLikes(ctx, commentID, delta)
	if err != nil {
		return nil, err
	}
	comment.Likes = likes
	return comment, nil
}
