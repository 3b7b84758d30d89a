package server

import "github.com/gofiber/fiber/v2"

// GetFeed handles GET /api/feed
// @Summary Home feed
// @Description Threads by the caller and everyone they follow, newest first.
// @Tags feed
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Thread
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	threads, err := s.feedService.GetFeed(c.UserContext(), actor(c), parsePagination(c, defaultPaginationLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threads)
}
