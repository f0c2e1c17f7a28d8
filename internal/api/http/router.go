package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bug-tracker/internal/api/http/handlers"
	"github.com/spec-kit/bug-tracker/internal/auth"
	"github.com/spec-kit/bug-tracker/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Bugs           *handlers.BugsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *auth.RateLimiter
}

// RegisterRoutes wires HTTP routes. Role gates: bug updates require
// admin/developer, deletion requires admin, reports require
// admin/developer; creation and comments are open to any authenticated
// account.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", cfg.RateLimiter.Handle, cfg.Users.Register)
	users.Post("/login", cfg.RateLimiter.Handle, cfg.Users.Login)
	users.Get("/", cfg.AuthMiddleware.Handle, cfg.Users.ListUsers)
	users.Get("/:id", cfg.AuthMiddleware.Handle, cfg.Users.GetUser)

	bugs := api.Group("/bugs", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	bugs.Get("/", cfg.Bugs.ListBugs)
	bugs.Get("/:id", cfg.Bugs.GetBug)
	bugs.Get("/:id/history", cfg.Bugs.ListHistory)
	bugs.Post("/", cfg.Bugs.CreateBug)
	bugs.Put("/:id", auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleDeveloper), cfg.Bugs.UpdateBug)
	bugs.Delete("/:id", auth.RequireRole(domain.UserRoleAdmin), cfg.Bugs.DeleteBug)
	bugs.Post("/:id/comments", cfg.Bugs.AddComment)

	reports := api.Group("/reports", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleDeveloper))
	reports.Get("/bugs-by-priority", cfg.Reports.BugsByPriority)
	reports.Get("/bugs-per-day", cfg.Reports.BugsPerDay)
	reports.Get("/developer-performance", cfg.Reports.DeveloperPerformance)
	reports.Get("/sla-violations", cfg.Reports.SLAViolations)
	reports.Get("/status-summary", cfg.Reports.StatusSummary)
}
