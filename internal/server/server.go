// Package server contains the HTTP and WebSocket handlers of the reviewer panel.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"versize/internal/config"
	"versize/internal/featureflags"
	"versize/internal/middleware"
	"versize/internal/models"
	"versize/internal/notifications"
	"versize/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Deps are the engine services the panel exposes.
type Deps struct {
	Reviews   *service.ReviewService
	Blacklist *service.BlacklistService
	Audit     *service.AuditService
	Hub       *notifications.Hub
	Notifier  *notifications.Notifier
	Redis     *redis.Client
	Flags     *featureflags.Manager
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	reviews        *service.ReviewService
	blacklist      *service.BlacklistService
	audit          *service.AuditService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, deps Deps) *Server {
	hub := deps.Hub
	if hub == nil {
		hub = notifications.NewHub()
	}
	flags := deps.Flags
	if flags == nil {
		flags = featureflags.NewManager(cfg.FeatureFlags)
	}
	return &Server{
		config:         cfg,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("versize"),
		notifier:       deps.Notifier,
		hub:            hub,
		featureFlags:   flags,
		reviews:        deps.Reviews,
		blacklist:      deps.Blacklist,
		audit:          deps.Audit,
	}
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Versize Panel",
		// Blacklist keys are static names, which may contain spaces and '#'.
		UnescapePath: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			slog.ErrorContext(c.UserContext(), "unhandled request error", "error", err, "path", c.Path())
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware installs the middleware chain in order.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Webhook-Secret, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

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
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: "Too many requests, please try again later."})
		},
	}))

	app.Use(middleware.TracingMiddleware())
}

// SetupRoutes configures all routes for the panel
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Post("/webhook/form",
		middleware.RateLimit(s.redis, 10, time.Minute, "webhook_form"),
		s.SubmitWebhookForm,
	)

	api := app.Group("/api", middleware.AuthRequired(s.config.JWTSecret))
	api.Get("/me", s.GetMe)
	// Registered after /me so non-reviewers can still see who they are.
	api.Use(s.requireReviewer)

	applications := api.Group("/applications")
	applications.Get("/", s.ListApplications)
	applications.Get("/:id", s.GetApplication)
	applications.Post("/:id/accept", s.AcceptApplication)
	applications.Post("/:id/deny", s.DenyApplication)

	blacklist := api.Group("/blacklist")
	blacklist.Get("/", s.ListBlacklist)
	blacklist.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "blacklist_add"), s.AddBlacklistEntry)
	blacklist.Delete("/:key", s.RemoveBlacklistEntry)

	api.Post("/audit", s.RecordAudit)

	api.Get("/ws", s.requireUpgrade, s.PanelFeedHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports Redis health. Redis is optional, so "unavailable" is still ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"redis": redisStatus,
		},
		"connections": s.hub.Count(),
		"time":        time.Now(),
	})
}

// Start wires the event feed and serves the panel until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				slog.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}

	slog.Info("panel starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		slog.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
	}

	slog.Info("panel shutdown complete")
	return nil
}
