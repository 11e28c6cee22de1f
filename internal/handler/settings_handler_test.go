package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkwise-api/internal/config"
	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/handler"
	"github.com/noah-isme/bunkwise-api/internal/service"
)

type stubSettingsService struct {
	current dto.SettingsResponse
	err     error
}

func (s *stubSettingsService) Get(context.Context, uint) (dto.SettingsResponse, error) {
	return s.current, s.err
}

func (s *stubSettingsService) Update(_ context.Context, _ uint, req dto.SettingsUpdateRequest) (dto.SettingsResponse, error) {
	if s.err != nil {
		return dto.SettingsResponse{}, s.err
	}
	if req.DefaultTargetAttendance != nil {
		s.current.DefaultTargetAttendance = *req.DefaultTargetAttendance
	}
	return s.current, nil
}

type stubOnboardingService struct {
	err error
	req dto.OnboardingRequest
}

func (s *stubOnboardingService) Complete(_ context.Context, _ uint, req dto.OnboardingRequest) (dto.DashboardResponse, error) {
	s.req = req
	if s.err != nil {
		return dto.DashboardResponse{}, s.err
	}
	return dto.DashboardResponse{Summary: dto.DashboardSummary{SubjectCount: len(req.Subjects)}}, nil
}

func authenticatedGroup(app *fiber.App) fiber.Router {
	return app.Group("/api/v2", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(8))
		return c.Next()
	})
}

func TestSettingsHandlerRoundTrip(t *testing.T) {
	svc := &stubSettingsService{current: dto.SettingsResponse{DefaultTargetAttendance: 75, Theme: "system"}}
	app := fiber.New()
	handler.NewSettingsHandler(svc, zerolog.Nop()).Register(authenticatedGroup(app))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/settings", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw := `{"default_target_attendance": 80}`
	req := httptest.NewRequest(http.MethodPut, "/api/v2/settings", strings.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.SettingsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	require.Equal(t, 80.0, payload.Data.DefaultTargetAttendance)
}

func TestSettingsHandlerValidation(t *testing.T) {
	theme := "neon"
	validationErr := validator.New().Struct(dto.SettingsUpdateRequest{Theme: &theme})
	require.Error(t, validationErr)

	app := fiber.New()
	handler.NewSettingsHandler(&stubSettingsService{err: validationErr}, zerolog.Nop()).Register(authenticatedGroup(app))

	req := httptest.NewRequest(http.MethodPut, "/api/v2/settings", strings.NewReader(`{"theme":"neon"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestOnboardingHandler(t *testing.T) {
	svc := &stubOnboardingService{}
	app := fiber.New()
	handler.NewOnboardingHandler(svc, zerolog.Nop()).Register(authenticatedGroup(app))

	resp := postJSON(t, app, "/api/v2/onboarding", map[string]interface{}{
		"semester_end_date": "2026-12-18",
		"subjects": []map[string]interface{}{
			{"name": "Mathematics", "total_classes": 10, "attended_classes": 9},
			{"name": "Physics", "total_classes": 12, "attended_classes": 7},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "2026-12-18", svc.req.SemesterEndDate)
	require.Len(t, svc.req.Subjects, 2)

	svc.err = service.ErrOnboardingEmpty
	resp = postJSON(t, app, "/api/v2/onboarding", map[string]interface{}{
		"subjects": []map[string]interface{}{{"name": " "}},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(config.Config{AppName: "Bunkwise API", AppEnv: "test", OCRProvider: "mock"}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	require.Equal(t, "ok", payload.Data.Status)
	require.Equal(t, "mock", payload.Data.OCRProvider)
	require.Equal(t, 75.0, payload.Data.DefaultTarget)
	require.False(t, payload.Data.ScreenshotArchive)
	require.False(t, payload.Data.DashboardCache)
}

var (
	_ service.SettingsService   = (*stubSettingsService)(nil)
	_ service.OnboardingService = (*stubOnboardingService)(nil)
)
