package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/handlers"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics(svc.metrics))

	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/signup", loginLimiter.Middleware(), svc.authHandler.Signup)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			// Shifts
			protected.POST("/shifts/clock-in", svc.shiftHandler.ClockIn)
			protected.POST("/shifts/clock-out", svc.shiftHandler.ClockOut)
			protected.GET("/shifts/active", svc.shiftHandler.GetActive)
			protected.GET("/shifts", svc.shiftHandler.ListCompleted)
			protected.GET("/shifts/last-week", svc.shiftHandler.LastWeek)

			// Invoices
			protected.GET("/invoices", svc.invoiceHandler.ListMine)
			protected.GET("/invoices/:id", svc.invoiceHandler.GetMine)

			// Activity
			protected.GET("/logs", svc.logHandler.Recent)

			// Projects
			protected.GET("/projects", svc.projectHandler.ListMine)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)

			// Billing
			protected.GET("/billing", svc.billingHandler.Get)
			protected.PUT("/billing", svc.billingHandler.Update)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.GET("/dashboard", svc.dashboardHandler.GetOverview)
			admin.GET("/holiday-countries", svc.dashboardHandler.GetHolidayCountries)

			// Invoices
			admin.GET("/invoices", svc.invoiceHandler.List)
			admin.GET("/invoices/:id", svc.invoiceHandler.GetByID)
			admin.POST("/invoices/generate", svc.invoiceHandler.GenerateAll)

			// Shifts
			admin.POST("/shifts/:id/clock-out", svc.shiftHandler.ForceClockOut)

			// Activity
			admin.GET("/logs", svc.logHandler.RecentAll)

			// Projects
			admin.GET("/projects", svc.projectHandler.List)
			admin.POST("/projects", svc.projectHandler.Create)
			admin.GET("/projects/:id", svc.projectHandler.GetByID)
			admin.PUT("/projects/:id/status", svc.projectHandler.UpdateStatus)
			admin.GET("/projects/:id/members", svc.projectHandler.ListMembers)
			admin.POST("/projects/:id/members", svc.projectHandler.AddMember)
			admin.DELETE("/projects/:id/members/:memberID", svc.projectHandler.RemoveMember)
			admin.GET("/projects/:id/non-members", svc.projectHandler.ListNonMembers)

			// Employees
			admin.GET("/employees", svc.employeeHandler.List)
			admin.GET("/employees/:id", svc.employeeHandler.GetByID)
			admin.PUT("/employees/:id/pay-rate", svc.employeeHandler.UpdatePayRate)
			admin.PUT("/employees/:id/roles", svc.employeeHandler.AssignRoles)
			admin.DELETE("/employees/:id", svc.employeeHandler.Delete)
			admin.POST("/employees/:id/invoices", svc.invoiceHandler.GenerateForEmployee)
		}
	}
}
