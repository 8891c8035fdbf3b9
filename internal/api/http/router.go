package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-assist/internal/api/http/handlers"
	"github.com/spec-kit/campus-assist/internal/auth"
	"github.com/spec-kit/campus-assist/internal/config"
	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// NewApp builds the fiber application with middlewares and routes.
func NewApp(cfg config.AppConfig, logger *zap.Logger, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.RequestTimeout,
		WriteTimeout:          cfg.RequestTimeout,
	})
	RegisterMiddlewares(app, logger, routes.Metrics, cfg.RequestTimeout)
	RegisterRoutes(app, routes)
	return app
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	app.Post("/auth/login", cfg.Auth.Login)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireRole())
	requests.Get("", cfg.Requests.List)
	requests.Post("", cfg.Requests.Create)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Post("/:id/transitions", auth.RequireStaff(), cfg.Requests.Transition)
	requests.Post("/:id/escalate", auth.RequireRole(domain.RoleSupervisor), cfg.Requests.Escalate)

	app.Get("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.Dashboard.Overview)
}
