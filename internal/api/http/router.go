package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/api/http/handlers"
	"github.com/spec-kit/project-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Projects *handlers.ProjectsHandler
	Session  *auth.SessionMiddleware
	// StaticDir, when set, serves a pre-built UI bundle behind the session middleware.
	StaticDir string
}

// RegisterRoutes wires HTTP routes. The session middleware runs in front of
// every route; it lets /api/auth and /health through untouched.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Session.Handle)

	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Auth.Me)

	projects := app.Group("/api/projects")
	projects.Get("/", cfg.Projects.List)
	projects.Get("/all", cfg.Projects.ListAll)
	projects.Post("/", cfg.Projects.Create)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Put("/:id", cfg.Projects.Update)
	projects.Delete("/:id", cfg.Projects.Delete)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir, fiber.Static{Index: "index.html"})
	}
}
