// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log"
	"time"

	_ "xchangez/docs" // swagger docs
	"xchangez/internal/auth"
	"xchangez/internal/cache"
	"xchangez/internal/config"
	"xchangez/internal/events"
	"xchangez/internal/featureflags"
	"xchangez/internal/middleware"
	"xchangez/internal/models"
	"xchangez/internal/notifications"
	"xchangez/internal/repository"
	"xchangez/internal/service"
	"xchangez/internal/storage"

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

// feedQueue is the durable RabbitMQ queue this API consumes feed events from.
const feedQueue = "xchangez.feed.notifications"

// Deps are the already-initialized resources a Server runs on.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Sink   storage.Sink
	Flags  *featureflags.Manager
	Events events.Publisher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	tokens         *auth.Manager
	limiter        *middleware.RateLimiter
	featureFlags   *featureflags.Manager
	events         events.Publisher
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	dispatcher     *notifications.Dispatcher
	userService    *service.UserService
	postService    *service.PostService
	commentService *service.CommentService
	socialService  *service.SocialService
	ratingService  *service.RatingService
	listService    *service.ListService
	chatService    *service.ChatService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Redis and Events are optional: without Redis the hub delivers locally and
// feeds are not cached, without Events no feed events are published.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Sink == nil {
		deps.Sink = storage.NewFileSystem(cfg.MediaRoot, cfg.MediaBaseURL)
	}
	if deps.Flags == nil {
		deps.Flags = featureflags.NewManager(cfg.FeatureFlags)
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	server := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("xchangez-api"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		tokens:         auth.NewManager(cfg),
		limiter:        middleware.NewRateLimiter(deps.Redis, cfg.Env),
		featureFlags:   deps.Flags,
		events:         deps.Events,
		notifier:       notifications.NewNotifier(deps.Redis),
		hub:            notifications.NewHub(),
	}
	server.dispatcher = notifications.NewDispatcher(server.hub, server.notifier)

	server.userService = service.NewUserService(deps.DB, server.tokens, deps.Sink)
	server.postService = service.NewPostService(deps.DB, service.PostDeps{
		Sink:      deps.Sink,
		Feeds:     cache.NewFeedCache(deps.Redis, cache.FeedTTL),
		Flags:     deps.Flags,
		Events:    deps.Events,
		FeedSize:  cfg.FeedDefaultSize,
		TreeDepth: cfg.CommentTreeDepth,
	})
	server.commentService = service.NewCommentService(deps.DB, cfg.CommentTreeDepth)
	server.socialService = service.NewSocialService(deps.DB, server.dispatcher)
	server.ratingService = service.NewRatingService(deps.DB)
	server.listService = service.NewListService(deps.DB)
	server.chatService = service.NewChatService(deps.DB, server.dispatcher)

	return server, nil
}

// NewApp builds a Fiber app with the full middleware chain and every route.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Xchangez API",
		BodyLimit: s.config.MediaMaxUploadMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = config.DefaultAllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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
	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Xchangez Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/feature-flags", optionalAuth, s.GetFeatureFlags)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	authGroup.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)

	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Put("/me", authRequired, s.UpdateMyProfile)
	users.Put("/me/privacy", authRequired, s.UpdateMyPrivacy)
	users.Put("/me/images/:kind", authRequired, s.UpdateMyImage)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	users.Get("/:id/posts", optionalAuth, s.GetUserPosts)
	users.Get("/:id/stats", s.GetUserStats)
	users.Post("/:id/follow", authRequired, s.FollowUser)
	users.Delete("/:id/follow", authRequired, s.UnfollowUser)
	users.Get("/:id/followers", optionalAuth, s.GetFollowers)
	users.Get("/:id/following", optionalAuth, s.GetFollowing)
	users.Get("/:id/follow-status", authRequired, s.GetFollowStatus)
	users.Post("/:id/ratings", authRequired, s.limiter.Limit("rate_user", 10, time.Hour, middleware.FailOpen), s.RateUser)
	users.Get("/:id/ratings/given", s.GetGivenRatings)
	users.Get("/:id/ratings/average", s.GetAverageRating)
	users.Get("/:id/ratings/status", authRequired, s.GetRatingStatus)
	users.Get("/:id/ratings", s.GetUserRatings)
	users.Get("/:id/lists", optionalAuth, s.GetUserLists)
	users.Post("/:id/messages", authRequired, s.limiter.Limit("send_chat", 15, time.Minute, middleware.FailOpen), s.SendMessage)
	users.Get("/:id/messages", authRequired, s.GetConversation)
	users.Get("/:id", s.GetUser)

	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.GetFeed(repository.FeedAll))
	posts.Get("/relevant", optionalAuth, s.GetFeed(repository.FeedRelevant))
	posts.Get("/recent", optionalAuth, s.GetFeed(repository.FeedRecent))
	posts.Get("/following", authRequired, s.GetFeed(repository.FeedFollowing))
	posts.Post("/", authRequired, s.limiter.Limit("create_post", 10, 5*time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Post("/with-files", authRequired, s.limiter.Limit("create_post", 10, 5*time.Minute, middleware.FailOpen), s.CreatePostWithFiles)
	posts.Get("/:id/media", s.GetPostMedia)
	posts.Post("/:id/media", authRequired, s.AttachPostMedia)
	posts.Delete("/:id/media", authRequired, s.DeletePostMedia)
	posts.Post("/:id/visits", s.AddPostVisit)
	posts.Get("/:id/comments", optionalAuth, s.GetComments)
	posts.Post("/:id/comments", authRequired, s.limiter.Limit("create_comment", 10, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Post("/:id/comments/:commentId/replies", authRequired, s.limiter.Limit("create_comment", 10, time.Minute, middleware.FailOpen), s.ReplyToComment)
	posts.Put("/:id/with-files", authRequired, s.UpdatePostWithFiles)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)
	posts.Get("/:id", optionalAuth, s.GetPost)

	api.Delete("/media/:id", authRequired, s.DeleteMedia)

	comments := api.Group("/comments")
	comments.Get("/:id/tree", optionalAuth, s.GetCommentTree)
	comments.Get("/:id", optionalAuth, s.GetComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	api.Get("/follows/:id", s.GetFollow)
	api.Get("/ratings/:id", s.GetRating)

	lists := api.Group("/lists")
	lists.Post("/", authRequired, s.CreateList)
	lists.Post("/:id/items", authRequired, s.AddListItem)
	lists.Put("/:id/items/:itemId", authRequired, s.UpdateListItem)
	lists.Delete("/:id/items/:itemId", authRequired, s.DeleteListItem)
	lists.Get("/:id", optionalAuth, s.GetList)
	lists.Put("/:id", authRequired, s.UpdateList)
	lists.Delete("/:id", authRequired, s.DeleteList)

	api.Get("/messages/:id", authRequired, s.GetMessage)

	// Websocket endpoints - protected by AuthRequired
	ws := api.Group("/ws", authRequired)
	ws.Get("/chat", s.WebSocketUpgrade, s.WebSocketChatHandler())
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
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
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
		},
		"connections": s.hub.ConnectionCount(),
		"time":        time.Now(),
	})
}

// Start wires the realtime subscribers and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	s.app = s.NewApp()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			log.Printf("failed to start chat hub wiring: %v", err)
		}
	}
	if consumer, ok := s.events.(*events.RabbitPublisher); ok {
		deliver := func(userID uint, payload string) {
			if err := s.dispatcher.ToUser(s.shutdownCtx, userID, payload); err != nil {
				log.Printf("failed to deliver feed event to user %d: %v", userID, err)
			}
		}
		if err := consumer.StartFeedConsumer(s.shutdownCtx, feedQueue, deliver); err != nil {
			log.Printf("failed to start feed consumer: %v", err)
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down chat hub: %v", err)
	}

	if err := s.events.Close(); err != nil {
		log.Printf("error closing event publisher: %v", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
