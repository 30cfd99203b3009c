package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/api/http/handlers"
	"github.com/spec-kit/sweet-shop/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Sweets         *handlers.SweetsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Put("/password", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	sweets := app.Group("/sweets")
	sweets.Get("/", cfg.Sweets.List)
	sweets.Get("/search", cfg.Sweets.Search)
	sweets.Get("/:id", cfg.Sweets.Get)

	sweets.Post("/:id/purchase", cfg.AuthMiddleware.Handle, cfg.Sweets.Purchase)

	admin := auth.AdminOnly()
	sweets.Post("/", cfg.AuthMiddleware.Handle, admin, cfg.Sweets.Create)
	sweets.Put("/:id", cfg.AuthMiddleware.Handle, admin, cfg.Sweets.Update)
	sweets.Delete("/:id", cfg.AuthMiddleware.Handle, admin, cfg.Sweets.Delete)
	sweets.Post("/:id/restock", cfg.AuthMiddleware.Handle, admin, cfg.Sweets.Restock)
}

// NewApp builds a fiber application with middleware and routes attached.
func NewApp(appName string, mw MiddlewareConfig, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           mw.Timeout,
		WriteTimeout:          mw.Timeout,
		BodyLimit:             1 << 20,
	})
	RegisterMiddlewares(app, mw)
	RegisterRoutes(app, routes)
	return app
}
