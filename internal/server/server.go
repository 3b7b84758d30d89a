// Package server contains the HTTP and WebSocket handlers for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	_ "threadline/docs" // swagger docs
	"threadline/internal/bootstrap"
	"threadline/internal/cache"
	"threadline/internal/config"
	"threadline/internal/featureflags"
	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/notifications"
	"threadline/internal/repository"
	"threadline/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	threadRepo repository.ThreadRepository
	replyRepo  repository.ReplyRepository
	likeRepo   repository.LikeRepository

	blacklist    *cache.TokenBlacklist
	auth         *middleware.Authenticator
	transport    notifications.Transport
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService   *service.AuthService
	userService   *service.UserService
	graphService  *service.SocialGraphService
	threadService *service.ThreadService
	replyService  *service.ReplyService
	likeService   *service.LikeService
	feedService   *service.FeedService
}

// NewServer connects the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ScenarioPath: cfg.SeedScenario})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	transport, err := newTransport(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("threadline-api"),
		userRepo:       repository.NewUserRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		threadRepo:     repository.NewThreadRepository(db),
		replyRepo:      repository.NewReplyRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		blacklist:      cache.NewTokenBlacklist(),
		transport:      transport,
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.wireServices()
	return s, nil
}

func newTransport(cfg *config.Config, redisClient *redis.Client) (notifications.Transport, error) {
	switch cfg.EventsBackend {
	case config.EventsBackendNATS:
		return notifications.ConnectNATS(cfg.NATSURL)
	case config.EventsBackendRedis, "":
		if redisClient != nil {
			return notifications.NewNotifier(redisClient), nil
		}
		middleware.Logger.Warn("Redis unavailable, delivering events in-process only")
	}
	return notifications.NewLocalTransport(), nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithAppError(c, models.NewRateLimitedError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	auth := s.auth
	required := auth.Required(false)
	optional := auth.Optional()
	authLimit := s.rateLimit("auth", s.config.AuthRateLimitPerMin)
	writeLimit := s.rateLimit("writes", s.config.WriteRateLimitPerMin)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Threadline Metrics Dashboard"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authLimit, s.Register)
	authGroup.Post("/token", authLimit, s.ObtainToken)
	authGroup.Post("/token/refresh", s.RefreshToken)
	authGroup.Post("/logout", required, s.Logout)
	authGroup.Post("/password", required, s.ChangePassword)

	users := api.Group("/users")
	users.Post("/", authLimit, s.Register)
	users.Get("/", optional, s.ListUsers)
	// /me routes before /:id
	users.Get("/me", required, s.GetMyProfile)
	users.Put("/me", required, s.UpdateMyProfile)
	users.Delete("/me", required, s.DeleteMyAccount)
	users.Post("/:id/follow", required, writeLimit, s.FollowUser)
	users.Delete("/:id/follow", required, s.UnfollowUser)
	users.Post("/:id/unfollow", required, s.UnfollowUser)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id/threads", optional, s.GetUserThreads)
	users.Get("/:id", optional, s.GetUserProfile)

	threads := api.Group("/threads")
	threads.Get("/", optional, s.ListThreads)
	threads.Post("/", required, writeLimit, s.CreateThread)
	threads.Get("/:id", optional, s.GetThread)
	threads.Put("/:id", required, s.UpdateThread)
	threads.Delete("/:id", required, s.DeleteThread)
	threads.Post("/:id/like", required, s.LikeThread)
	threads.Post("/:id/unlike", required, s.UnlikeThread)
	threads.Post("/:id/repost", required, writeLimit, s.RepostThread)

	replies := api.Group("/replies")
	replies.Get("/", optional, s.ListReplies)
	replies.Post("/", required, writeLimit, s.CreateReply)
	replies.Get("/:id", optional, s.GetReply)
	replies.Put("/:id", required, s.UpdateReply)
	replies.Delete("/:id", required, s.DeleteReply)
	replies.Post("/:id/like", required, s.LikeReply)
	replies.Post("/:id/unlike", required, s.UnlikeReply)

	api.Post("/likes", required, s.CreateLike)
	api.Get("/feed", required, s.GetFeed)
	api.Get("/feature-flags", required, s.GetFeatureFlags)
	api.Get("/ws", auth.Required(true), s.WebSocketUpgrade(), s.WebSocketHandler())
}

// rateLimit throttles a group of routes per user (or IP before login).
func (s *Server) rateLimit(resource string, perMinute int) fiber.Handler {
	return middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Resource: resource,
		Limit:    perMinute,
		Window:   time.Minute,
		Policy:   middleware.FailOpen,
		Env:      s.config.Env,
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only a configured but unreachable Redis fails readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber app with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Threadline API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start listens on the configured port and calls Serve.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", s.config.Port, err)
	}
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.Serve(ln)
}

// Serve wires the notification hub to the event transport and serves the
// API on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	app := s.App()
	if s.transport != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.transport); err != nil {
			middleware.Logger.Error("Failed to wire notification hub", slog.String("error", err.Error()))
		}
	}
	return app.Listener(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("Error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if s.hub != nil {
		_ = s.hub.Shutdown(ctx)
	}
	if closer, ok := s.transport.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			middleware.Logger.Warn("Error closing events transport", slog.String("error", err.Error()))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("Error closing database", slog.String("error", cerr.Error()))
			}
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("Error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
