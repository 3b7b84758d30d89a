package server

import (
	"threadline/internal/models"
	"threadline/internal/notifications"
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReplyRequest struct {
	Thread  uint   `json:"thread"`
	Content string `json:"content"`
}

type updateReplyRequest struct {
	Content string `json:"content"`
}

// ListReplies handles GET /api/replies?thread=
// @Summary List replies
// @Description Oldest first. Optionally restricted to one thread.
// @Tags replies
// @Produce json
// @Param thread query int false "Thread ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Reply
// @Router /replies [get]
func (s *Server) ListReplies(c *fiber.Ctx) error {
	threadID, err := parseQueryID(c, "thread")
	if err != nil {
		return nil
	}

	replies, err := s.replyService.ListReplies(c.UserContext(), actor(c), threadID, parsePagination(c, defaultPaginationLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replies)
}

// CreateReply handles POST /api/replies
// @Summary Reply to a thread
// @Tags replies
// @Accept json
// @Produce json
// @Param request body createReplyRequest true "Reply"
// @Success 201 {object} models.Reply
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	var req createReplyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	a := actor(c)
	reply, err := s.replyService.CreateReply(c.UserContext(), a, service.CreateReplyInput{
		ThreadID: req.Thread,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.notifyThreadAuthor(c.UserContext(), reply.ThreadID, a.UserID, notifications.EventReplyCreated, reply)
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// GetReply handles GET /api/replies/:id
// @Summary Get a reply
// @Tags replies
// @Produce json
// @Param id path int true "Reply ID"
// @Success 200 {object} models.Reply
// @Failure 404 {object} models.ErrorResponse
// @Router /replies/{id} [get]
func (s *Server) GetReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	reply, err := s.replyService.GetReply(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reply)
}

// UpdateReply handles PUT /api/replies/:id
// @Summary Edit a reply
// @Tags replies
// @Accept json
// @Produce json
// @Param id path int true "Reply ID"
// @Param request body updateReplyRequest true "New content"
// @Success 200 {object} models.Reply
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id} [put]
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateReplyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.replyService.UpdateReply(c.UserContext(), actor(c), service.UpdateReplyInput{
		ReplyID: id,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reply)
}

// DeleteReply handles DELETE /api/replies/:id
// @Summary Delete a reply
// @Tags replies
// @Param id path int true "Reply ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id} [delete]
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.replyService.DeleteReply(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeReply handles POST /api/replies/:id/like
// @Summary Like a reply
// @Tags replies
// @Produce json
// @Param id path int true "Reply ID"
// @Success 201 {object} models.Like
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id}/like [post]
func (s *Server) LikeReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.like(c, models.ReplyTarget(id))
}

// UnlikeReply handles POST /api/replies/:id/unlike
// @Summary Unlike a reply
// @Tags replies
// @Param id path int true "Reply ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id}/unlike [post]
func (s *Server) UnlikeReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.unlike(c, models.ReplyTarget(id))
}
