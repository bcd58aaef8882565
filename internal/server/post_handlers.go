package server

import (
	"io"

	"faceblog/internal/models"
	"faceblog/internal/service"
	"faceblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Home handles GET / and GET /home
// @Summary List posts
// @Description Every post, newest first.
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /home [get]
func (s *Server) Home(c *fiber.Ctx) error {
	posts, err := s.content.ListPosts(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /post/new
// @Summary Create post
// @Description Accepts JSON or multipart; a multipart "image" is stored as a 300x300 WebP thumbnail.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Param request body validation.PostForm true "Post"
// @Success 201 {object} Flash
// @Failure 400 {object} models.ErrorResponse
// @Router /post/new [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var form validation.PostForm
	if err := parseForm(c, &form, validation.ValidatePost); err != nil {
		return nil
	}

	imageFile, err := s.saveUploadedImage(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	post, err := s.content.CreatePost(c.UserContext(), actor(c), service.PostInput{
		Title:      form.Title,
		Content:    form.Content,
		CategoryID: form.CategoryID,
		ImageFile:  imageFile,
	})
	if err != nil {
		s.images.Remove(imageFile)
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Flash{
		Message:  "Your post has been created!",
		Redirect: postPath(post.ID),
		Data:     post,
	})
}

// saveUploadedImage stores the optional multipart "image" field and returns
// its file name, or "" when none was sent.
func (s *Server) saveUploadedImage(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Size == 0 {
		return "", nil
	}
	if fh.Size > s.images.MaxUploadSizeBytes() {
		return "", models.NewValidationError("File too large")
	}
	f, err := fh.Open()
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, s.images.MaxUploadSizeBytes()+1))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	return s.images.SaveThumbnail(c.UserContext(), content, fh.Header.Get(fiber.HeaderContentType))
}

// GetPost handles GET /post/:id
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.content.GetPost(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(detail)
}

// AddComment handles POST /post/:id
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body validation.CommentForm true "Comment"
// @Success 201 {object} Flash
// @Router /post/{id} [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form validation.CommentForm
	if err := parseForm(c, &form, validation.ValidateComment); err != nil {
		return nil
	}

	comment, err := s.content.AddComment(c.UserContext(), actor(c), id, form.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(Flash{
		Message:  "Your comment has been posted!",
		Redirect: postPath(id),
		Data:     comment,
	})
}

// EditPostForm handles GET /post/:id/edit. Only the author may load the form.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.content.GetPost(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if detail.Post.UserID != actor(c).ID {
		return respondRejected(c, fiber.StatusForbidden, service.Outcome{Warning: service.WarnEditPost}, postPath(id))
	}
	return c.JSON(detail.Post)
}

// UpdatePost handles POST /post/:id/edit
// @Summary Edit post
// @Description Only the author may edit; others receive a 403 warning.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Post ID"
// @Param request body validation.PostForm true "Post"
// @Success 200 {object} Flash
// @Failure 403 {object} SoftRejection
// @Router /post/{id}/edit [post]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form validation.PostForm
	if err := parseForm(c, &form, validation.ValidatePost); err != nil {
		return nil
	}

	imageFile, err := s.saveUploadedImage(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	post, outcome, err := s.content.UpdatePost(c.UserContext(), actor(c), id, service.PostInput{
		Title:      form.Title,
		Content:    form.Content,
		CategoryID: form.CategoryID,
		ImageFile:  imageFile,
	})
	if err != nil || outcome.Rejected() {
		s.images.Remove(imageFile)
	}
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusForbidden, outcome, postPath(id))
	}
	s.images.Remove(outcome.StaleImage)
	return c.JSON(Flash{
		Message:  "Your post has been updated!",
		Redirect: postPath(id),
		Data:     post,
	})
}

// DeletePost handles POST /post/:id/delete
// @Summary Delete post
// @Description Deletes the post and its comments. Only the author may delete.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} Flash
// @Failure 403 {object} SoftRejection
// @Router /post/{id}/delete [post]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	outcome, err := s.content.DeletePost(c.UserContext(), actor(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusForbidden, outcome, postPath(id))
	}
	s.images.Remove(outcome.StaleImage)
	return c.JSON(Flash{Message: "Your post has been deleted!", Redirect: "/home"})
}

// GetCategories handles GET /categories
// @Summary List categories
// @Tags posts
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.content.ListCategories(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(categories)
}

// GetCategoryPosts handles GET /category/:id
func (s *Server) GetCategoryPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	category, posts, err := s.content.CategoryPosts(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"category": category,
		"posts":    posts,
	})
}
