package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/peermarking/peermark-api/internal/config"
	"github.com/peermarking/peermark-api/internal/handler"
	"github.com/peermarking/peermark-api/internal/middleware"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler   *handler.SubmissionHandler
	ReviewHandler       *handler.ReviewHandler
	CommunityHandler    *handler.CommunityHandler
	DashboardHandler    *handler.DashboardHandler
	ProfileHandler      *handler.ProfileHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
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

	// Per-user rate limiter for the authenticated surfaces. Keyed after the
	// JWT middleware so the user id from the token drives the bucket.
	rateLimit := func(surface string) fiber.Handler {
		if cfg.RateLimitMax <= 0 {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return middleware.RateLimit(surface, cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	// Student surface
	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v1/submissions", jwtMiddleware, rateLimit("submissions"), middleware.RequireRole(models.RoleStudent.String()))
		deps.SubmissionHandler.Register(submissions)
	}

	// Marker surface
	if deps.ReviewHandler != nil {
		reviews := app.Group("/api/v1/reviews", jwtMiddleware, rateLimit("reviews"), middleware.RequireRole(models.RoleMarker.String()))
		deps.ReviewHandler.Register(reviews)
	}

	// Shared surfaces, any authenticated role
	if deps.CommunityHandler != nil {
		community := app.Group("/api/v1/community", jwtMiddleware, rateLimit("community"), middleware.RequireRole(models.RoleStudent.String(), models.RoleMarker.String()))
		deps.CommunityHandler.Register(community)
	}

	if deps.DashboardHandler != nil {
		student := app.Group("/api/v1/student", jwtMiddleware, rateLimit("dashboard"), middleware.RequireRole(models.RoleStudent.String()))
		student.Get("/dashboard", deps.DashboardHandler.Student)

		marker := app.Group("/api/v1/marker", jwtMiddleware, rateLimit("dashboard"), middleware.RequireRole(models.RoleMarker.String()))
		marker.Get("/dashboard", deps.DashboardHandler.Marker)
	}

	if deps.ProfileHandler != nil {
		profile := app.Group("/api/v1/profile", jwtMiddleware, rateLimit("profile"))
		deps.ProfileHandler.Register(profile)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware, rateLimit("notifications"))
		deps.NotificationHandler.Register(notifications)
	}
}
