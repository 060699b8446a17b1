package server

import (
	"guildkeeper/internal/models"
	"guildkeeper/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text string `json:"text"`
}

// GetComments handles GET /api/posts/:postId/comments
// @Summary List a post's comments
// @Tags comments
// @Produce json
// @Param postId path string true "Post id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Envelope{data=service.CommentList}
// @Failure 404 {object} models.Envelope
// @Router /posts/{postId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	page := parsePage(c, service.DefaultCommentPageSize, service.MaxCommentPageSize)

	list, err := s.commentService.List(c.UserContext(), postID, page)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.RespondOK(c, list)
}

// CreateComment handles POST /api/posts/:postId/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path string true "Post id"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.Envelope{data=models.Comment}
// @Failure 403 {object} models.Envelope
// @Router /posts/{postId}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.Create(c.UserContext(), actor(c), postID, req.Text)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Comment added successfully", comment)
}

// UpdateComment handles PUT /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.Update(c.UserContext(), actor(c), id, req.Text)
	if err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Comment updated successfully", comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.Delete(c.UserContext(), actor(c), id); err != nil {
		return mapServiceError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Comment deleted successfully", nil)
}
