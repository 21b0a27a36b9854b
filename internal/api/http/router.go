package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Complaints     *handlers.ComplaintsHandler
	Products       *handlers.ProductsHandler
	Staff          *handlers.StaffHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         *auth.Policy
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	can := func(capability auth.Capability) fiber.Handler {
		return auth.RequireCapability(cfg.Policy, capability)
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/public/complaints", cfg.Complaints.SubmitPublic)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	protected.Get("/dashboard", can(auth.CapDashboardView), cfg.Dashboard.Summary)

	complaints := protected.Group("/complaints")
	complaints.Post("/", can(auth.CapComplaintCreate), cfg.Complaints.Create)
	complaints.Get("/", can(auth.CapComplaintList), cfg.Complaints.List)
	complaints.Get("/export", can(auth.CapComplaintExport), cfg.Complaints.Export)
	complaints.Get("/:id", can(auth.CapComplaintList), cfg.Complaints.Get)
	complaints.Patch("/:id", can(auth.CapComplaintEdit), cfg.Complaints.StaffEdit)
	complaints.Patch("/:id/assignment", can(auth.CapAssignmentEdit), cfg.Complaints.ManagerEdit)
	complaints.Patch("/:id/service", can(auth.CapServiceUpdate), cfg.Complaints.ServiceUpdate)

	products := protected.Group("/products", can(auth.CapProductManage))
	products.Get("/", cfg.Products.List)
	products.Post("/", cfg.Products.Create)
	products.Get("/export", cfg.Products.Export)
	products.Get("/:id", cfg.Products.Get)
	products.Put("/:id", cfg.Products.Update)
	products.Delete("/:id", cfg.Products.Delete)

	protected.Get("/staff/engineers", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Staff.Engineers)
	staff := protected.Group("/staff", can(auth.CapStaffManage))
	staff.Get("/", cfg.Staff.List)
	staff.Post("/", cfg.Staff.Create)
	staff.Get("/export", cfg.Staff.Export)
	staff.Get("/:id", cfg.Staff.Get)
	staff.Patch("/:id", cfg.Staff.Update)
	staff.Delete("/:id", cfg.Staff.Delete)
}
