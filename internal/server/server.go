// Package server contains the HTTP handlers of the web front end. Pages are
// rendered on the server from the remote social API; the browser only holds
// a session cookie.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"postboard/internal/api"
	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/featureflags"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/session"
	"postboard/internal/tags"
	"postboard/internal/view"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// SocialAPI is the part of the remote API the handlers use. Both the plain
// and the caching client satisfy it.
type SocialAPI interface {
	ListPosts(ctx context.Context, token string, params api.ListParams) (*models.PostPage, error)
	ListProfilePosts(ctx context.Context, token, name string, params api.ListParams) (*models.PostPage, error)
	GetPost(ctx context.Context, token string, id int, includeAuthor bool) (*models.Post, error)
	CreatePost(ctx context.Context, token string, in models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, token string, id int, in models.PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, token string, id int) error
	GetProfile(ctx context.Context, token, name string) (*models.Profile, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Register(ctx context.Context, in models.RegisterInput) (*models.Profile, error)
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	client         SocialAPI
	cached         SocialAPI
	sessions       *session.Manager
	renderer       *view.Renderer
	tags           *tags.Dictionary
	featureFlags   *featureflags.Manager
	promMiddleware *fiberprometheus.FiberPrometheus
	app            *fiber.App
}

// NewServer creates a server talking to the configured API, with Redis when
// it is reachable.
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := cache.InitRedis(cfg.RedisURL)
	client := api.NewClient(cfg.APIBaseURL, cfg.APIKey, api.WithTimeout(cfg.APITimeout()))
	return NewServerWithDeps(cfg, client, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient runs without the response cache, with in-process sessions.
func NewServerWithDeps(cfg *config.Config, client *api.Client, redisClient *redis.Client) (*Server, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	dict, err := tags.Load(cfg.TagDictionaryPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		redis:          redisClient,
		client:         client,
		sessions:       session.NewManager(session.NewStore(redisClient), cfg.SessionTTL(), cfg.IsProduction()),
		renderer:       renderer,
		tags:           dict,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		promMiddleware: middleware.InitMetrics("postboard"),
	}
	if redisClient != nil {
		s.cached = api.NewCachedClient(client, redisClient, cfg.CacheTTL())
	}
	return s, nil
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Postboard",
		Views:        s.renderer,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return s.NotFound(c)
		}
		return c.Status(fe.Code).SendString(fe.Message)
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// cookieKey derives the 32-byte cookie encryption key from the session secret.
func cookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
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

	// Post media are remote URLs, so cross-origin images must stay loadable.
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cookieKey(s.config.SessionSecret),
	}))
	app.Use(s.sessions.Middleware())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Postboard Metrics Dashboard",
	}))

	app.Use("/images", filesystem.New(filesystem.Config{
		Root:       http.FS(view.Static()),
		PathPrefix: "static/images",
		MaxAge:     86400,
	}))
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(view.Static()),
		PathPrefix: "static",
		MaxAge:     86400,
	}))

	auth := app.Group("/auth")
	auth.Get("/", s.AuthLanding)
	auth.Get("/login", s.LoginForm)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login", s.rateLimited("/auth/login/")), s.Login)
	auth.Get("/register", s.RegisterForm)
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register", s.rateLimited("/auth/register/")), s.Register)
	auth.Post("/logout", s.Logout)

	app.Get("/post", s.PostDetail)

	// The guard is attached per route so unknown paths still reach NotFound.
	authed := s.AuthRequired()
	app.Get("/", authed, s.Home)
	app.Get("/profile", authed, s.Profile)
	app.Get("/post/create", authed, s.CreatePostForm)
	app.Post("/post/create", authed, middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post", s.rateLimited("/post/create/")), s.CreatePost)
	app.Get("/post/edit", authed, s.EditPostForm)
	app.Post("/post/edit", authed, s.UpdatePost)
	app.Post("/post/delete", authed, s.DeletePost)

	app.Use(s.NotFound)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether Redis is reachable. Redis is optional, so
// its absence degrades the report without failing it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewRequestError(fiber.StatusServiceUnavailable, "Redis is unreachable", err))
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"checks": fiber.Map{
			"redis": redisStatus,
			"api":   s.config.APIBaseURL,
		},
		"flags": s.featureFlags.Snapshot(""),
		"time":  time.Now(),
	})
}

// AuthRequired redirects visitors without a session to the login page.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !session.FromCtx(c).LoggedIn() {
			return c.Redirect("/auth/login/", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	observability.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	observability.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
