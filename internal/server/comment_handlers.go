package server

import (
	"context"

	"faceblog/internal/models"
	"faceblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// EditComment handles POST /comment/:id/edit
// @Summary Edit comment
// @Description Replaces the body; date_posted is unchanged. Only the author may edit.
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body validation.CommentForm true "Comment"
// @Success 200 {object} Flash
// @Failure 403 {object} SoftRejection
// @Router /comment/{id}/edit [post]
func (s *Server) EditComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form validation.CommentForm
	if err := parseForm(c, &form, validation.ValidateComment); err != nil {
		return nil
	}

	comment, outcome, err := s.content.EditComment(c.UserContext(), actor(c), id, form.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusForbidden, outcome, postPath(comment.PostID))
	}
	return c.JSON(Flash{
		Message:  "Your comment has been updated!",
		Redirect: postPath(comment.PostID),
		Data:     comment,
	})
}

// DeleteComment handles POST /comment/:id/delete
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} Flash
// @Failure 403 {object} SoftRejection
// @Router /comment/{id}/delete [post]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, outcome, err := s.content.DeleteComment(c.UserContext(), actor(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if outcome.Rejected() {
		return respondRejected(c, fiber.StatusForbidden, outcome, postPath(postID))
	}
	return c.JSON(Flash{Message: "Your comment has been deleted!", Redirect: postPath(postID)})
}

// LikeComment handles POST /comment/:id/like
// @Summary Like comment
// @Description Adds one to the counter. Repeated likes all count.
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{likes=int,redirect=string}
// @Router /comment/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.voteComment(c, s.content.LikeComment)
}

// DislikeComment handles POST /comment/:id/dislike
// @Summary Dislike comment
// @Description Subtracts one. The counter may go negative.
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{likes=int,redirect=string}
// @Router /comment/{id}/dislike [post]
func (s *Server) DislikeComment(c *fiber.Ctx) error {
	return s.voteComment(c, s.content.DislikeComment)
}

func (s *Server) voteComment(c *fiber.Ctx, vote func(ctx context.Context, id uint) (*models.Comment, error)) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := vote(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"likes":    comment.Likes,
		"redirect": postPath(comment.PostID),
	})
}
