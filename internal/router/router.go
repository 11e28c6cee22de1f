package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/bunkwise-api/internal/config"
	"github.com/noah-isme/bunkwise-api/internal/handler"
	"github.com/noah-isme/bunkwise-api/internal/middleware"
	"github.com/noah-isme/bunkwise-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CalculatorHandler *handler.CalculatorHandler
	SubjectHandler    *handler.SubjectHandler
	DashboardHandler  *handler.DashboardHandler
	OnboardingHandler *handler.OnboardingHandler
	SettingsHandler   *handler.SettingsHandler
	ScreenshotHandler *handler.ScreenshotHandler
	SeedHandler       *handler.SeedHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Public v1 group: health and the stateless calculator
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.CalculatorHandler != nil {
		calculator := api.Group("/attendance")
		deps.CalculatorHandler.Register(calculator, middleware.RateLimit("calculator", cfg.CalculatorRateLimit, time.Minute))
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v2 := app.Group("/api/v2", jwtMiddleware)

	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(v2.Group("/subjects"))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(v2)
	}

	if deps.OnboardingHandler != nil {
		deps.OnboardingHandler.Register(v2)
	}

	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(v2)
	}

	if deps.ScreenshotHandler != nil {
		screenshots := v2.Group("/screenshots", middleware.RateLimit("screenshots", 20, time.Minute))
		deps.ScreenshotHandler.Register(screenshots)
	}

	if deps.SeedHandler != nil && cfg.SeedEnabled {
		deps.SeedHandler.Register(v2.Group("/seed"))
	}
}
