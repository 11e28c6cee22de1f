package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkwise-api/internal/config"
	"github.com/noah-isme/bunkwise-api/internal/handler"
	"github.com/noah-isme/bunkwise-api/internal/middleware"
	"github.com/noah-isme/bunkwise-api/internal/router"
	"github.com/noah-isme/bunkwise-api/internal/service"
)

func newApp() *fiber.App {
	cfg := config.Config{AppName: "Bunkwise API", AppEnv: "test", CalculatorRateLimit: 10}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: zerolog.Nop()})
	router.Register(app, cfg, router.Dependencies{
		CalculatorHandler: handler.NewCalculatorHandler(service.NewCalculatorService(validator.New(), zerolog.Nop()), zerolog.Nop()),
		DashboardHandler:  handler.NewDashboardHandler(nil, zerolog.Nop()),
		JWTMiddleware:     middleware.JWTProtected("secret"),
	})
	return app
}

func TestRegisterPublicRoutes(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Bunkwise API", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get(middleware.HeaderCorrelationID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterProtectsV2Routes(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/api/v2/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
