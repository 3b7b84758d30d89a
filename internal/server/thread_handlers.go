package server

import (
	"strings"

	"threadline/internal/models"
	"threadline/internal/notifications"
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

type threadRequest struct {
	Content string `json:"content"`
}

type repostRequest struct {
	Comment string `json:"comment"`
}

// ListThreads handles GET /api/threads?search=&author=
// @Summary List threads
// @Description Newest first, each with counts, viewer flags and a short reply preview.
// @Tags threads
// @Produce json
// @Param search query string false "Content search"
// @Param author query int false "Author ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Thread
// @Router /threads [get]
func (s *Server) ListThreads(c *fiber.Ctx) error {
	authorID, err := parseQueryID(c, "author")
	if err != nil {
		return nil
	}

	threads, err := s.threadService.ListThreads(c.UserContext(), actor(c), service.ListThreadsInput{
		Search:   strings.TrimSpace(c.Query("search")),
		AuthorID: authorID,
		Page:     parsePagination(c, defaultPaginationLimit),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threads)
}

// CreateThread handles POST /api/threads
// @Summary Post a thread
// @Tags threads
// @Accept json
// @Produce json
// @Param request body threadRequest true "Thread content"
// @Success 201 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req threadRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.CreateThread(c.UserContext(), actor(c), service.CreateThreadInput{Content: req.Content})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventThreadCreated, thread)
	return c.Status(fiber.StatusCreated).JSON(thread)
}

// GetThread handles GET /api/threads/:id
// @Summary Get a thread with its replies
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {object} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	thread, err := s.threadService.GetThread(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// UpdateThread handles PUT /api/threads/:id
// @Summary Edit a thread
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body threadRequest true "New content"
// @Success 200 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id} [put]
func (s *Server) UpdateThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req threadRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.UpdateThread(c.UserContext(), actor(c), service.UpdateThreadInput{
		ThreadID: id,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// DeleteThread handles DELETE /api/threads/:id
// @Summary Delete a thread
// @Description Replies and likes go with it; reposts remain with original_thread cleared.
// @Tags threads
// @Param id path int true "Thread ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.threadService.DeleteThread(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeThread handles POST /api/threads/:id/like
// @Summary Like a thread
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID"
// @Success 201 {object} models.Like
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/like [post]
func (s *Server) LikeThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.like(c, models.ThreadTarget(id))
}

// UnlikeThread handles POST /api/threads/:id/unlike
// @Summary Unlike a thread
// @Tags threads
// @Param id path int true "Thread ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/unlike [post]
func (s *Server) UnlikeThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.unlike(c, models.ThreadTarget(id))
}

// RepostThread handles POST /api/threads/:id/repost
// @Summary Repost a thread
// @Description A comment is accepted only when the quote_reposts flag is on.
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body repostRequest false "Optional comment"
// @Success 201 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/repost [post]
func (s *Server) RepostThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req repostRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	a := actor(c)
	repost, err := s.threadService.Repost(c.UserContext(), a, service.RepostInput{
		OriginalID: id,
		Comment:    req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.notifyThreadAuthor(c.UserContext(), id, a.UserID, notifications.EventThreadReposted, fiber.Map{
		"thread_id": id,
		"repost_id": repost.ID,
		"user_id":   a.UserID,
	})
	return c.Status(fiber.StatusCreated).JSON(repost)
}
