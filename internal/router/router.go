package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/assess-go-api/internal/config"
	"github.com/noah-isme/assess-go-api/internal/handler"
	"github.com/noah-isme/assess-go-api/internal/middleware"
	"github.com/noah-isme/assess-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler       *handler.AssignmentHandler
	SubmissionHandler       *handler.SubmissionHandler
	GradingHandler          *handler.GradingHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	ActivityHandler         *handler.ActivityHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	teacherOnly := middleware.RequireRole("teacher", "admin")

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments, teacherOnly)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)

		if deps.GradingHandler != nil {
			grading := api.Group("/submissions", jwtMiddleware, teacherOnly)
			deps.GradingHandler.Register(grading)
		}
	}

	if deps.StudentDashboardHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.StudentDashboardHandler.Register(students)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware, teacherOnly)
		deps.ActivityHandler.Register(activities)
	}
}
