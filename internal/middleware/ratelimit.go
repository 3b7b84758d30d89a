package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"threadline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// RateLimitConfig describes one throttled resource.
type RateLimitConfig struct {
	// Resource names the counter; requests to every route sharing it are
	// counted together.
	Resource string
	Limit    int
	Window   time.Duration
	Policy   FailPolicy
	// Env disables throttling for "test", "development" and "stress".
	Env string
}

func (c RateLimitConfig) bypassed() bool {
	switch strings.ToLower(c.Env) {
	case "", "test", "development", "stress":
		return true
	}
	return c.Limit <= 0
}

// CheckRateLimit counts one hit against resource/id in a fixed window.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// RateLimit enforces cfg.Limit requests per cfg.Window. It keys by the
// authenticated userID when one is set, otherwise by remote IP, so it must
// run after the auth middleware to throttle per account.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.bypassed() {
			return c.Next()
		}

		var id string
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := cfg.Resource
		if resource == "" {
			resource = c.Route().Path
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, cfg.Limit, cfg.Window)
		if err != nil {
			if cfg.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "Rate limit store unavailable, rejecting",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			return models.RespondWithAppError(c, models.NewRateLimitedError())
		}
		return c.Next()
	}
}
