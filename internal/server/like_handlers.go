package server

import (
	"threadline/internal/models"
	"threadline/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

type likeRequest struct {
	Thread *uint `json:"thread"`
	Reply  *uint `json:"reply"`
}

// CreateLike handles POST /api/likes
// @Summary Like a thread or a reply
// @Description Exactly one of thread or reply must be set.
// @Tags likes
// @Accept json
// @Produce json
// @Param request body likeRequest true "Target"
// @Success 201 {object} models.Like
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes [post]
func (s *Server) CreateLike(c *fiber.Ctx) error {
	var req likeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	target, err := models.NewLikeTarget(req.Thread, req.Reply)
	if err != nil {
		return respondError(c, err)
	}
	return s.like(c, target)
}

func (s *Server) like(c *fiber.Ctx, target models.LikeTarget) error {
	a := actor(c)
	like, err := s.likeService.Like(c.UserContext(), a, target)
	if err != nil {
		return respondError(c, err)
	}

	payload := fiber.Map{"user_id": a.UserID, "like_id": like.ID}
	switch target.Kind {
	case models.LikeTargetThread:
		payload["thread_id"] = target.ID
		s.notifyThreadAuthor(c.UserContext(), target.ID, a.UserID, notifications.EventThreadLiked, payload)
	case models.LikeTargetReply:
		payload["reply_id"] = target.ID
		s.notifyReplyAuthor(c.UserContext(), target.ID, a.UserID, notifications.EventReplyLiked, payload)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

func (s *Server) unlike(c *fiber.Ctx, target models.LikeTarget) error {
	if err := s.likeService.Unlike(c.UserContext(), actor(c), target); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
