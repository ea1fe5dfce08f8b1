// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "cidadeemfoco/docs" // swagger docs
	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/database"
	"cidadeemfoco/internal/media"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/notifications"
	"cidadeemfoco/internal/repository"
	"cidadeemfoco/internal/service"

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
	codec          *auth.Codec
	media          media.Host
	hub            *notifications.Hub
	notifier       *notifications.Notifier
	userService    *service.UserService
	postService    *service.PostService
	ledger         *service.EngagementLedger
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The bootstrap layer (or a test) owns connecting the database, Redis and the media host.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, host media.Host) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if host == nil {
		return nil, errors.New("media host is required")
	}

	codec, err := auth.NewCodec(cfg.JWTSecret, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	hub := notifications.NewHub()
	notifier := notifications.NewNotifier(redisClient, hub)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("cidadeemfoco-api"),
		codec:          codec,
		media:          media.Instrument(host),
		hub:            hub,
		notifier:       notifier,
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	s.userService = service.NewUserService(userRepo, codec, service.UserServiceConfig{
		TokenTTL:   cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	})
	s.postService = service.NewPostService(postRepo, s.media, notifier)
	s.ledger = service.NewEngagementLedger(postRepo, likeRepo, notifier)

	return s, nil
}

// Users exposes the user service to bootstrap code (root admin provisioning).
func (s *Server) Users() *service.UserService {
	return s.userService
}

// Hub returns the realtime feed hub.
func (s *Server) Hub() *notifications.Hub {
	return s.hub
}

// App builds the fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "Cidade em Foco API",
		BodyLimit: int(s.config.MaxUploadBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := models.HTTPStatus(err)
			if status >= fiber.StatusInternalServerError {
				middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
					slog.String("path", c.Path()),
					slog.String("error", err.Error()),
				)
			}
			return models.RespondWithError(c, status, err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. Uploaded images on the disk host are embedded cross-origin by the web client.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" || !s.config.IsProduction() {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health", s.HealthCheck)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if disk, ok := diskHost(s.media); ok {
		app.Static("/media", disk.Dir(), fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")
	api.Get("/ping", s.Ping)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Cidade em Foco Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthRequired(s.codec)

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	authRoutes.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Current user routes
	user := api.Group("/user", authRequired)
	user.Get("/me", s.GetCurrentUser)
	user.Put("/profile", s.UpdateProfile)
	user.Put("/profile-image", s.UpdateProfileImage)

	// Admin routes
	admin := api.Group("/admin", authRequired, middleware.AdminRequired())
	admin.Get("/users", s.ListUsers)
	admin.Delete("/users/:id", s.DeleteUser)

	// Post routes
	posts := api.Group("/publicacoes")
	posts.Get("/", s.ListPosts)
	posts.Post("/", authRequired, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/curtir", authRequired, s.LikePost)
	posts.Delete("/:id/curtir", authRequired, s.UnlikePost)

	// Media routes. Deletion is public, as the web client calls it without a token.
	api.Post("/upload", authRequired, middleware.RateLimit(
		s.redis, 20, time.Minute, "upload"), s.UploadImage)
	api.Delete("/upload/:public_id", s.DeleteImage)

	// Realtime feed
	api.Get("/ws/feed", s.RequireUpgrade, s.FeedHandler())
}

// Start wires the feed hub to Redis and listens on the configured port.
func (s *Server) Start() error {
	app := s.App()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Warn("feed wiring failed, events stay local",
			slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server starting",
		slog.String("port", s.config.Port),
		slog.String("env", s.config.Env),
		slog.String("media_provider", s.media.Name()),
	)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, closes feed connections and releases the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: an unconfigured Redis
// reports "disabled" and does not fail the probe, a configured but unreachable one does.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
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
			"media":    s.media.Name(),
		},
		"time": time.Now(),
	})
}

// Ping handles GET /api/ping
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /ping [get]
func (s *Server) Ping(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Message: "pong"})
}

func diskHost(host media.Host) (*media.DiskHost, bool) {
	for host != nil {
		if disk, ok := host.(*media.DiskHost); ok {
			return disk, true
		}
		wrapped, ok := host.(interface{ Unwrap() media.Host })
		if !ok {
			return nil, false
		}
		host = wrapped.Unwrap()
	}
	return nil, false
}
