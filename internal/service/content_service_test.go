package service

import (
	"context"
	"testing"
	"time"

	"faceblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_PostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, "olga")

	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "First", Content: "body"})
	require.NoError(t, err)
	require.NotNil(t, post.Author)
	assert.Equal(t, "olga", post.Author.Username)
	posted := post.DatePosted

	updated, outcome, err := env.content.UpdatePost(ctx, owner, post.ID, PostInput{Title: "Renamed", Content: "new body"})
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, posted.Equal(updated.DatePosted))

	posts, err := env.content.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestContentService_OwnershipIsSoftlyEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, other := env.actor(t, "olga"), env.actor(t, "pete")

	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "Mine", Content: "body"})
	require.NoError(t, err)
	comment, err := env.content.AddComment(ctx, owner, post.ID, "owned")
	require.NoError(t, err)

	_, outcome, err := env.content.UpdatePost(ctx, other, post.ID, PostInput{Title: "Hijack", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, WarnEditPost, outcome.Warning)

	outcome, err = env.content.DeletePost(ctx, other, post.ID)
	require.NoError(t, err)
	assert.Equal(t, WarnDeletePost, outcome.Warning)

	_, outcome, err = env.content.EditComment(ctx, other, comment.ID, "hijack")
	require.NoError(t, err)
	assert.Equal(t, WarnEditComment, outcome.Warning)

	postID, outcome, err := env.content.DeleteComment(ctx, other, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, WarnDeleteComment, outcome.Warning)
	assert.Equal(t, post.ID, postID)

	detail, err := env.content.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", detail.Post.Title)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "owned", detail.Comments[0].Content)
}

func TestContentService_CommentEditKeepsDatePosted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, "olga")

	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "T", Content: "C"})
	require.NoError(t, err)
	comment, err := env.content.AddComment(ctx, owner, post.ID, "first")
	require.NoError(t, err)
	posted := comment.DatePosted

	time.Sleep(5 * time.Millisecond)
	_, outcome, err := env.content.EditComment(ctx, owner, comment.ID, "second")
	require.NoError(t, err)
	assert.True(t, outcome.Changed)

	stored, err := env.comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Content)
	assert.True(t, posted.Equal(stored.DatePosted))
}

func TestContentService_ReportsStaleImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, "olga")

	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "Pic", Content: "body", ImageFile: "first.webp"})
	require.NoError(t, err)

	_, outcome, err := env.content.UpdatePost(ctx, owner, post.ID, PostInput{Title: "Pic", Content: "text only"})
	require.NoError(t, err)
	assert.Empty(t, outcome.StaleImage)

	updated, outcome, err := env.content.UpdatePost(ctx, owner, post.ID, PostInput{Title: "Pic", Content: "body", ImageFile: "second.webp"})
	require.NoError(t, err)
	assert.Equal(t, "first.webp", outcome.StaleImage)
	assert.Equal(t, "second.webp", updated.ImageFile)

	outcome, err = env.content.DeletePost(ctx, owner, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "second.webp", outcome.StaleImage)
}

func TestContentService_DeletePostCascadesComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, other := env.actor(t, "olga"), env.actor(t, "pete")

	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "T", Content: "C"})
	require.NoError(t, err)
	_, err = env.content.AddComment(ctx, owner, post.ID, "one")
	require.NoError(t, err)
	_, err = env.content.AddComment(ctx, other, post.ID, "two")
	require.NoError(t, err)

	outcome, err := env.content.DeletePost(ctx, owner, post.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)

	var remaining int64
	require.NoError(t, env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	_, err = env.content.GetPost(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestContentService_LikesHaveNoFloorOrDedup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, "olga")

	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "T", Content: "C"})
	require.NoError(t, err)
	comment, err := env.content.AddComment(ctx, owner, post.ID, "c")
	require.NoError(t, err)

	disliked, err := env.content.DislikeComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, disliked.Likes)

	for range 3 {
		_, err = env.content.LikeComment(ctx, comment.ID)
		require.NoError(t, err)
	}
	stored, err := env.comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Likes)

	_, err = env.content.LikeComment(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestContentService_UnknownCategoryIsFieldError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, "olga")

	missing := uint(42)
	_, err := env.content.CreatePost(ctx, owner, PostInput{Title: "T", Content: "C", CategoryID: &missing})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "category_id")

	category := models.Category{Name: "Travel"}
	require.NoError(t, env.db.Create(&category).Error)
	post, err := env.content.CreatePost(ctx, owner, PostInput{Title: "T", Content: "C", CategoryID: &category.ID})
	require.NoError(t, err)
	require.NotNil(t, post.Category)
	assert.Equal(t, "Travel", post.Category.Name)

	got, posts, err := env.content.CategoryPosts(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.Name)
	assert.Len(t, posts, 1)
}
