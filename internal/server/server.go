// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"postboard/internal/cache"
	"postboard/internal/campaign"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

const (
	serviceName     = "postboard-api"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	config         *config.Config
	db             *gorm.DB
	cache          *cache.Cache
	mu             sync.Mutex
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	uow            *repository.UnitOfWork
	userService    *service.UserService
	postService    *service.PostService
	campaigns      *campaign.Store
}

// NewServer connects to the database and Redis described by cfg. It never
// touches the schema.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	c, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	return NewServerWithDeps(cfg, db, c, campaign.NewStore()), nil
}

// NewServerWithDeps wires a server around existing collaborators. c may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, c *cache.Cache, campaigns *campaign.Store) *Server {
	uow := repository.NewUnitOfWork(db)
	return &Server{
		config:         cfg,
		db:             db,
		cache:          c,
		promMiddleware: middleware.InitMetrics(serviceName),
		uow:            uow,
		userService:    service.NewUserService(uow, c),
		postService:    service.NewPostService(uow),
		campaigns:      campaigns,
	}
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Postboard API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Detail: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware installs the middleware chain in order.
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

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       86400,
	}))

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: 1 * time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Detail: "Too many requests, please try again later.",
				})
			},
		}))
	}
}

// SetupRoutes mounts the API under the configured root path. Fiber's
// non-strict routing serves each path with and without a trailing slash.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group(s.config.RootPath)
	api.Get("/", s.Root)

	users := api.Group("/users")
	users.Post("/", s.CreateUser)
	users.Get("/", s.ListUsers)
	users.Get("/:user_id", s.GetUser)
	users.Put("/:user_id", s.UpdateUser)
	users.Delete("/:user_id", s.DeleteUser)

	posts := api.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Get("/", s.ListPosts)

	campaigns := api.Group("/campaigns")
	campaigns.Get("/", s.ListCampaigns)
	campaigns.Post("/", s.CreateCampaign)
	campaigns.Get("/:id", s.GetCampaign)
	campaigns.Put("/:id", s.ReplaceCampaign)
	campaigns.Delete("/:id", s.DeleteCampaign)
}

// Root handles GET {root}/
func (s *Server) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Hello World!"})
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and cache reachability. A cache that is
// not configured does not make the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	cacheStatus := "disabled"
	if s.cache != nil {
		cacheStatus = "healthy"
		if err := s.cache.Ping(ctx); err != nil {
			cacheStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || cacheStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": serviceVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"cache":    cacheStatus,
		},
		"time": time.Now(),
	})
}

// Run serves until ctx is done or the listener fails, then shuts the server
// down and calls each cleanup in order. It returns only after all of them have
// finished.
func (s *Server) Run(ctx context.Context, cleanup ...func(context.Context) error) error {
	app := s.NewApp()
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("root_path", s.config.RootPath))
		serveErr <- app.Listen(":" + s.config.Port)
	}()

	var errs []error
	select {
	case <-ctx.Done():
		middleware.Logger.Info("Shutting down server")
	case err := <-serveErr:
		if err != nil {
			errs = append(errs, fmt.Errorf("listen: %w", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, fn := range cleanup {
		if err := fn(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops the listener and releases the database and cache.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	app := s.app
	s.mu.Unlock()

	var errs []error
	if app != nil {
		if err := app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
