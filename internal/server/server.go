// Package server contains the HTTP handlers and routing for the yatube site.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/notifications"
	"yatube/internal/render"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	views          fiber.Views
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	groupRepo      repository.GroupRepository
	postRepo       repository.PostRepository
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	rateLimiter    *middleware.RateLimiter
	postService    *service.PostService
	authService    *service.AuthService
	tokens         *service.TokenService
	now            func() time.Time
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithViews replaces the template engine.
func WithViews(v fiber.Views) Option {
	return func(s *Server) { s.views = v }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.authService = service.NewAuthService(s.userRepo, cost) }
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, revocation and post events are then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		now:            time.Now,
	}

	var publisher service.PostPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		if s.featureFlags.Enabled(featureflags.PostEvents, 0) {
			publisher = s.notifier
		}
	}

	s.rateLimiter = middleware.NewRateLimiter(redisClient, s.featureFlags.Enabled(featureflags.RateLimit, 0))
	s.postService = service.NewPostService(s.postRepo, s.groupRepo, s.userRepo, publisher, cfg.PageSize)
	s.authService = service.NewAuthService(s.userRepo, 0)
	s.tokens = service.NewTokenService(cfg.SessionSecret,
		time.Duration(cfg.SessionTTLHours)*time.Hour, redisClient)

	for _, opt := range opts {
		opt(s)
	}
	if s.views == nil {
		s.views = render.New(cfg.TemplatesDir)
	}

	return s, nil
}

// App returns the configured fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:       "Yatube",
		Views:         s.views,
		StrictRouting: false,
		UnescapePath:  true,
		BodyLimit:     1 * 1024 * 1024,
		ErrorHandler:  s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// Resolve the session cookie for every request
	app.Use(s.Session())

	// Form submissions must carry the CSRF token
	app.Use(s.CSRF())
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

	if s.config.StaticDir != "" {
		app.Static("/static", s.config.StaticDir)
	}

	// Posts
	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id/", s.PostDetail)

	createLimit := s.rateLimiter.Limit("create_post", 10, time.Minute)
	app.Get("/create/", s.LoginRequired(), s.PostCreatePage)
	app.Post("/create/", s.LoginRequired(), createLimit, s.PostCreate)
	app.Get("/posts/:id/edit/", s.LoginRequired(), s.PostEditPage)
	app.Post("/posts/:id/edit/", s.LoginRequired(), s.PostEdit)

	// Identity
	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupPage)
	auth.Post("/signup/", s.rateLimiter.Limit("signup", 3, 10*time.Minute), s.Signup)
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", s.rateLimiter.Limit("login", 10, 5*time.Minute), s.Login)
	auth.Get("/logout/", s.LogoutPage)
	auth.Post("/logout/", s.Logout)
	auth.Get("/password_change/done/", s.LoginRequired(), s.PasswordChangeDone)
	auth.Get("/password_change/", s.LoginRequired(), s.PasswordChangePage)
	auth.Post("/password_change/", s.LoginRequired(), s.PasswordChange)

	// Static pages
	about := app.Group("/about")
	about.Get("/author/", s.AboutAuthor)
	about.Get("/tech/", s.AboutTech)
}

// errorHandler renders the 403 CSRF, 404 and 500 pages. Other fiber errors
// are sent as plain text with their status.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case isCSRFFailure(err):
		return s.renderStatus(c, fiber.StatusForbidden, "core/403csrf.html", s.page(c, "Ошибка проверки CSRF"))
	case models.HasCode(err, models.CodeNotFound):
		code = fiber.StatusNotFound
	case errors.As(err, &fe):
		code = fe.Code
	}

	switch code {
	case fiber.StatusNotFound:
		return s.renderStatus(c, fiber.StatusNotFound, "core/404.html", s.page(c, "Страница не найдена"))
	case fiber.StatusInternalServerError:
		middleware.Logger.ErrorContext(c.UserContext(), "rendering server error page",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
		return s.renderStatus(c, fiber.StatusInternalServerError, "core/500.html", s.page(c, "Ошибка сервера"))
	default:
		return c.Status(code).SendString(fe.Message)
	}
}

// renderStatus renders name with status code, falling back to plain text
// when the template itself cannot be rendered.
func (s *Server) renderStatus(c *fiber.Ctx, code int, name string, data *render.Data) error {
	if err := c.Status(code).Render(name, data); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to render error page",
			slog.String("template", name), slog.String("error", err.Error()))
		return c.Status(code).SendString(fiber.ErrInternalServerError.Message)
	}
	return nil
}

// LivenessCheck reports that the process is serving requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   s.now(),
	})
}

// ReadinessCheck pings the database and Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
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
			"redis":    redisStatus,
		},
		"time": s.now(),
	})
}

// Start starts the server and subscribes to post events for logging.
func (s *Server) Start(ctx context.Context) error {
	app := s.App()

	if s.notifier != nil {
		if err := s.notifier.Subscribe(ctx, func(ev notifications.PostEvent) {
			middleware.Logger.Info("post event",
				slog.String("type", ev.Type), slog.Uint64("post_id", uint64(ev.PostID)))
		}); err != nil {
			middleware.Logger.Warn("failed to subscribe to post events", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
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
