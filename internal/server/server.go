// Package server contains the HTTP handlers and routing of the GuildKeeper API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "guildkeeper/docs" // swagger docs
	"guildkeeper/internal/auth"
	"guildkeeper/internal/bootstrap"
	"guildkeeper/internal/config"
	"guildkeeper/internal/featureflags"
	"guildkeeper/internal/middleware"
	"guildkeeper/internal/models"
	"guildkeeper/internal/notifications"
	"guildkeeper/internal/observability"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	store           repository.Store
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	authn           *middleware.Authenticator
	featureFlags    *featureflags.Manager
	authService     *service.AuthService
	userService     *service.UserService
	postService     *service.PostService
	commentService  *service.CommentService
	categoryService *service.CategoryService
	tagService      *service.TagService
	avatarService   *service.AvatarService
	notifier        *notifications.Notifier
	stopEvents      context.CancelFunc
}

// NewServer connects the store and Redis described by cfg and builds a server on them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	s, err := NewServerWithDeps(cfg, store, redisClient)
	if err != nil {
		return nil, err
	}
	if err := s.StartEventLog(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "event log disabled", "error", err)
	}
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the store and Redis.
func NewServerWithDeps(cfg *config.Config, store repository.Store, redisClient *redis.Client) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	users := store.Users()

	s := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("guildkeeper-api"),
		authn:          middleware.NewAuthenticator(tokens, users.GetByID),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		authService:    service.NewAuthService(users, tokens),
		avatarService:  service.NewAvatarService(users, cfg.UploadDir, int64(cfg.MaxUploadSizeMB)*1024*1024),
	}
	s.userService = service.NewUserService(store, s.authService, s.avatarService)
	s.postService = service.NewPostService(store)
	s.commentService = service.NewCommentService(store)
	s.categoryService = service.NewCategoryService(store)
	s.tagService = service.NewTagService(store)

	s.notifier = notifications.NewNotifier(redisClient)
	s.userService.UsePublisher(s.notifier)
	s.postService.UsePublisher(s.notifier)
	s.commentService.UsePublisher(s.notifier)
	return s, nil
}

// StartEventLog subscribes to every notification channel and logs and counts each
// event until Shutdown. Without Redis it does nothing. The subscription outlives ctx,
// which only bounds the subscribe call.
func (s *Server) StartEventLog(ctx context.Context) error {
	if s.stopEvents != nil {
		return nil
	}
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := s.notifier.StartPatternSubscriber(subCtx, s.logEvent); err != nil {
		cancel()
		return err
	}
	s.stopEvents = cancel
	return nil
}

func (s *Server) logEvent(channel, payload string) {
	scope := "user"
	if channel == notifications.BroadcastChannel() {
		scope = "broadcast"
	}

	var event notifications.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil || event.Type == "" {
		observability.EventsReceived.WithLabelValues("invalid", scope).Inc()
		middleware.Logger.Warn("malformed event", "channel", channel, "error", err)
		return
	}
	observability.EventsReceived.WithLabelValues(event.Type, scope).Inc()
	middleware.Logger.Info("event", "type", event.Type, "channel", channel, "actor_id", event.ActorID)
}

// App builds the fiber application with middleware and routes. It is created once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := 4 * 1024 * 1024
	if upload := (s.config.MaxUploadSizeMB + 1) * 1024 * 1024; upload > bodyLimit {
		bodyLimit = upload
	}

	app := fiber.New(fiber.Config{
		AppName:      "GuildKeeper API",
		BodyLimit:    bodyLimit,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler is the catch-all for errors returned by handlers and middleware.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := err.Error()

	var appErr *models.AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status()
		message = appErr.Message
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err, "path", c.Path())
	}

	response := models.Envelope{Success: false, Message: message}
	if appErr != nil {
		response.Errors = appErr.Details
		c.Locals(models.LocalErrorCode, appErr.Code)
		if s.config.IsDevelopment() {
			response.Stack = appErr.StackTrace()
		}
	}
	return c.Status(status).JSON(response)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New(recover.Config{EnableStackTrace: s.config.IsDevelopment()}))

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; the uploads are fetched cross-origin by the frontend.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	// Credentials cannot be combined with a wildcard origin.
	origins := s.config.CORSOrigins()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "" && origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	maxRequests := s.config.RateLimitMax
	if maxRequests <= 0 {
		maxRequests = 100
	}
	window := time.Duration(s.config.RateLimitWindowMinutes) * time.Minute
	if window <= 0 {
		window = 15 * time.Minute
	}
	app.Use(limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				errors.New(middleware.TooManyRequestsMessage))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Profile images
	app.Static("/uploads", s.config.UploadDir)

	api := app.Group("/api")
	api.Get("/health", s.HealthCheck)

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.authn.Required()
	optional := s.authn.Optional()
	admin := middleware.AdminRequired()

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(s.redis, "register", 5, 15*time.Minute), s.Register)
	authGroup.Post("/login", middleware.RateLimit(s.redis, "login", 10, 15*time.Minute), s.Login)
	authGroup.Get("/me", required, s.Me)
	authGroup.Put("/profile", required, s.UpdateProfile)
	authGroup.Put("/me", required, s.UpdateProfile)

	// User routes. Define /me and the specific /:id/:resource routes BEFORE generic /:id.
	users := api.Group("/users", required)
	users.Delete("/me", s.DeleteMe)
	users.Get("/", admin, s.GetUsers)
	users.Post("/", admin, s.CreateUser)
	users.Post("/bulk", admin, s.BulkUsers)
	users.Patch("/:id/role", admin, s.ToggleUserRole)
	users.Patch("/:id/status", admin, s.ToggleUserStatus)
	users.Post("/:id/avatar", middleware.SelfOrAdmin("id"), s.UploadAvatar)
	users.Delete("/:id/avatar", middleware.SelfOrAdmin("id"), s.DeleteAvatar)
	users.Get("/:id", middleware.SelfOrAdmin("id"), s.GetUser)
	users.Put("/:id", middleware.SelfOrAdmin("id"), s.UpdateUser)
	users.Delete("/:id", admin, s.DeleteUser)

	// Post routes
	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Get("/my", required, s.GetMyPosts)
	posts.Get("/categories", s.GetPostCategories)
	posts.Get("/tags", s.GetPostTags)
	posts.Get("/:postId/comments", s.GetComments)
	posts.Post("/:postId/comments", required, s.CreateComment)
	posts.Get("/:id", optional, s.GetPost)
	posts.Post("/", required, s.CreatePost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	// Comment routes
	comments := api.Group("/comments", required)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	// Taxonomy routes
	registerTaxonomy(api.Group("/categories"), newTaxonomyHandlers(s.categoryService), required, admin)
	registerTaxonomy(api.Group("/tags"), newTaxonomyHandlers(s.tagService), required, admin)

	api.Get("/admin/feature-flags", required, admin, s.GetFeatureFlags)
}

// HealthCheck handles GET /api/health
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "GuildKeeper API is running",
		"timestamp": time.Now().UTC(),
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"driver":   s.store.Driver(),
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s (store: %s)...", s.config.Port, s.store.Driver())
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server, then closes the store and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.stopEvents != nil {
		s.stopEvents()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	log.Println("Server shutdown complete")
	return errors.Join(errs...)
}
