package server

import (
	"strings"

	"threadline/internal/notifications"
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
}

// ListUsers handles GET /api/users?search=
// @Summary List users
// @Description Username and bio search, case-insensitive. Each user carries counts and is_following.
// @Tags users
// @Produce json
// @Param search query string false "Search term"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext(), actor(c),
		strings.TrimSpace(c.Query("search")), parsePagination(c, defaultPaginationLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetProfile(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/users/me
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} models.OwnProfile
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	a := actor(c)
	user, err := s.userService.GetProfile(c.UserContext(), a, a.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user.OwnProfile())
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update the current user
// @Tags users
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Fields to change"
// @Success 200 {object} models.OwnProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), actor(c), service.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user.OwnProfile())
}

// DeleteMyAccount handles DELETE /api/users/me
// @Summary Delete the current account
// @Description Removes the user together with their threads, replies, likes and follow edges.
// @Tags users
// @Success 204
// @Security BearerAuth
// @Router /users/me [delete]
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteAccount(c.UserContext(), actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 201 {object} models.Follow
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	a := actor(c)
	follow, err := s.graphService.Follow(c.UserContext(), a, id)
	if err != nil {
		return respondError(c, err)
	}

	s.publishUserEvent(c.UserContext(), id, notifications.EventUserFollowed, fiber.Map{
		"follower_id": a.UserID,
		"followed_id": id,
	})
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/users/:id/follow and POST /api/users/:id/unfollow
// @Summary Unfollow a user
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.graphService.Unfollow(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary List followers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserBrief
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	briefs, err := s.graphService.ListFollowers(c.UserContext(), id, parsePagination(c, defaultPaginationLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(briefs)
}

// GetFollowing handles GET /api/users/:id/following
// @Summary List followed users
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserBrief
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	briefs, err := s.graphService.ListFollowing(c.UserContext(), id, parsePagination(c, defaultPaginationLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(briefs)
}

// GetUserThreads handles GET /api/users/:id/threads
// @Summary List a user's threads
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/threads [get]
func (s *Server) GetUserThreads(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	threads, err := s.userService.ListUserThreads(c.UserContext(), actor(c), id, parsePagination(c, defaultPaginationLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threads)
}
