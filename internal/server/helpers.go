package server

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"threadline/internal/cache"
	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultPaginationLimit = 20
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) repository.Page {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseQueryID reads an optional positive id from the query string. A
// missing parameter yields 0.
func parseQueryID(c *fiber.Ctx, key string) (uint, error) {
	if c.Query(key) == "" {
		return 0, nil
	}
	id := c.QueryInt(key, -1)
	if id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError(key, "A valid integer is required."))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into v, writing a 400 on failure.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "threadId" -> "thread ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// actor resolves the request identity set by the auth middleware.
func actor(c *fiber.Ctx) models.Actor {
	if id, ok := c.Locals("userID").(uint); ok && id != 0 {
		return models.UserActor(id)
	}
	return models.AnonymousActor()
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithAppError(c, err)
}

// wireServices builds the auth plumbing and every service from the
// repositories already set on s. It runs once, before any handler is
// registered; handlers only read the resulting fields.
func (s *Server) wireServices() {
	if s.blacklist == nil {
		s.blacklist = cache.NewTokenBlacklist()
	}
	if s.auth == nil {
		secret := ""
		if s.config != nil {
			secret = s.config.JWTSecret
		}
		s.auth = middleware.NewAuthenticator(secret, s.blacklist)
	}
	s.authService = service.NewAuthService(s.userRepo, s.blacklist, s.tokenConfig())
	s.userService = service.NewUserService(s.userRepo, s.threadRepo, s.replyRepo)
	s.graphService = service.NewSocialGraphService(s.followRepo, s.userRepo)
	s.threadService = service.NewThreadService(s.threadRepo, s.replyRepo, s.featureFlags)
	s.replyService = service.NewReplyService(s.replyRepo)
	s.likeService = service.NewLikeService(s.likeRepo, s.threadRepo, s.replyRepo)
	s.feedService = service.NewFeedService(s.graphService, s.threadRepo, s.replyRepo)
}

func (s *Server) tokenConfig() service.TokenConfig {
	if s.config == nil {
		return service.TokenConfig{}
	}
	return service.TokenConfig{
		Secret:     s.config.JWTSecret,
		AccessTTL:  time.Duration(s.config.AccessTokenTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(s.config.RefreshTokenTTLHours) * time.Hour,
	}
}
