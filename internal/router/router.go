package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/englishmastery-api/internal/config"
	"github.com/noah-isme/englishmastery-api/internal/handler"
	"github.com/noah-isme/englishmastery-api/internal/middleware"
	"github.com/noah-isme/englishmastery-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler  *handler.EvaluationHandler
	StreamHandler      *handler.EvaluationStreamHandler
	LessonHandler      *handler.LessonHandler
	RecordingHandler   *handler.RecordingHandler
	AchievementHandler *handler.AchievementHandler
	ProgressHandler    *handler.ProgressHandler
	SeedHandler        *handler.SeedHandler
	HealthProbes       map[string]handler.HealthProbe
	JWTMiddleware      fiber.Handler
}

func next(c *fiber.Ctx) error { return c.Next() }

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = next
	}

	authenticated := middleware.WithAuth(next, middleware.AuthOptions{RequireUser: true})
	learner := middleware.WithAuth(next, middleware.AuthOptions{Role: middleware.AuthRoleLearner})

	v2 := app.Group("/api/v2", jwtMiddleware)

	if deps.LessonHandler != nil {
		deps.LessonHandler.Register(
			v2.Group("/lessons", authenticated),
			middleware.RequireRole(middleware.AuthRoleTeacher, middleware.AuthRoleAdmin),
		)
	}

	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(
			v2.Group("/evaluations", learner),
			middleware.RateLimit("evaluations", cfg.EvaluationRateLimit, time.Minute),
		)
	}

	if deps.StreamHandler != nil {
		deps.StreamHandler.Register(v2.Group("/events", learner))
	}

	if deps.RecordingHandler != nil {
		deps.RecordingHandler.Register(v2.Group("/recordings", learner))
	}

	if deps.AchievementHandler != nil {
		deps.AchievementHandler.Register(v2.Group("/achievements", learner))
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(v2.Group("/progress", learner))
	}
}
