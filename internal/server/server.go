// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	_ "faceblog/docs" // swagger docs
	"faceblog/internal/cache"
	"faceblog/internal/config"
	"faceblog/internal/mail"
	"faceblog/internal/middleware"
	"faceblog/internal/models"
	"faceblog/internal/notifications"
	"faceblog/internal/repository"
	"faceblog/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	authRateLimit  = 5
	authRateWindow = time.Minute

	globalRateLimit = 100
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// sharedPrometheus registers the HTTP collectors once per process.
func sharedPrometheus() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New("faceblog-api")
	})
	return promInstance
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

	tokens   *middleware.TokenManager
	limiter  *middleware.RateLimiter
	hub      *notifications.Hub
	notifier *notifications.Notifier

	identity *service.IdentityService
	content  *service.ContentService
	social   *service.SocialGraphService
	rooms    *service.RoomService
	dms      *service.DirectMessageService
	search   *service.SearchService
	images   *service.ImageService
}

// NewServer wires repositories and services onto already-initialized
// dependencies. redisClient may be nil: caching, token revocation and
// cross-instance fan-out are then disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer mail.Mailer) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}

	// A typed nil client must not leak into the Cmdable interfaces.
	var rdb redis.Cmdable
	var revocations middleware.RevocationStore
	if redisClient != nil {
		rdb = redisClient
		revocations = cache.NewTokenRevocations(redisClient)
	}
	store := cache.NewStore(rdb)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	followRepo := repository.NewFollowRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	dmRepo := repository.NewDirectMessageRepository(db)

	hub := notifications.NewHub()
	notifier := notifications.NewNotifier(redisClient, hub)

	social := service.NewSocialGraphService(followRepo, userRepo, store)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: sharedPrometheus(),
		tokens:         middleware.NewTokenManager(cfg, revocations),
		limiter:        middleware.NewRateLimiter(rdb, cfg.RateLimitEnabled && !cfg.IsDevelopment()),
		hub:            hub,
		notifier:       notifier,
		identity:       service.NewIdentityService(userRepo, postRepo, social, store, mailer),
		content:        service.NewContentService(postRepo, commentRepo, categoryRepo),
		social:         social,
		rooms:          service.NewRoomService(roomRepo, store, notifier),
		dms:            service.NewDirectMessageService(dmRepo, userRepo, notifier),
		search:         service.NewSearchService(postRepo, userRepo, roomRepo),
		images:         service.NewImageService(cfg),
	}, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "FaceBlog API",
		BodyLimit: int(s.images.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.Tracing())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Per-instance IP ceiling; the Redis limiter covers the auth routes across instances.
	if s.config.RateLimitEnabled && !s.config.IsDevelopment() {
		app.Use(limiter.New(limiter.Config{
			Max:        globalRateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions || c.Path() == "/ws"
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many requests, please try again later.",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static("/static/images", s.images.UploadDir())

	auth := s.tokens.Required()
	optional := s.tokens.Optional()

	app.Get("/", optional, s.Home)
	app.Get("/home", optional, s.Home)
	app.Post("/register", s.limiter.Limit("register", authRateLimit, authRateWindow, middleware.FailOpen), s.Register)
	app.Post("/login", s.limiter.Limit("login", authRateLimit, authRateWindow, middleware.FailOpen), s.Login)
	app.Get("/logout", optional, s.Logout)
	app.Get("/search", optional, s.Search)

	// Specific /post/new before generic /post/:id
	app.Post("/post/new", auth, s.CreatePost)
	app.Post("/post/:id/edit", auth, s.UpdatePost)
	app.Get("/post/:id/edit", auth, s.EditPostForm)
	app.Post("/post/:id/delete", auth, s.DeletePost)
	app.Get("/post/:id", optional, s.GetPost)
	app.Post("/post/:id", auth, s.AddComment)

	app.Post("/comment/:id/edit", auth, s.EditComment)
	app.Post("/comment/:id/delete", auth, s.DeleteComment)
	app.Post("/comment/:id/like", auth, s.LikeComment)
	app.Post("/comment/:id/dislike", auth, s.DislikeComment)

	app.Get("/categories", s.GetCategories)
	app.Get("/category/:id", s.GetCategoryPosts)

	app.Get("/follow/:id", auth, s.Follow)
	app.Get("/unfollow/:id", auth, s.Unfollow)
	app.Get("/followers", auth, s.Followers)
	app.Get("/following", auth, s.Following)

	app.Get("/user/:id", optional, s.GetUser)
	app.Get("/profile/:username", optional, s.GetProfile)
	app.Post("/profile/:username/edit", auth, s.UpdateProfile)

	app.Get("/chatrooms", auth, s.GetChatRooms)
	app.Post("/chatroom/new", auth, s.CreateChatRoom)
	app.Get("/chatroom/:id", auth, s.GetChatRoom)
	app.Post("/chatroom/:id/send", auth, s.SendRoomMessage)

	app.Get("/dms", auth, s.GetConversations)
	app.Get("/dm/:id", auth, s.GetThread)
	app.Post("/dm/:id", auth, s.SendDirectMessage)

	app.Get("/ws", auth, s.WebSocketUpgrade, s.RealtimeHandler())
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

	// Redis is optional: without it the process still serves a single instance.
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

// Start wires realtime fan-out and listens on the configured port. It blocks
// until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if err := s.notifier.StartSubscriber(s.shutdownCtx); err != nil {
		middleware.Logger.Warn("realtime subscriber unavailable, delivering to local sockets only", "error", err)
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down realtime hub", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
