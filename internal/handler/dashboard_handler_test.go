package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/handler"
	"github.com/noah-isme/bunkwise-api/internal/service"
)

type stubDashboardService struct {
	response dto.DashboardResponse
	err      error
	calls    int
	lastID   uint
	cacheHit bool
}

func (s *stubDashboardService) GetDashboard(_ context.Context, userID uint) (dto.DashboardResponse, bool, error) {
	s.calls++
	s.lastID = userID
	if s.err != nil {
		return dto.DashboardResponse{}, false, s.err
	}
	return s.response, s.cacheHit, nil
}

func (s *stubDashboardService) Invalidate(context.Context, uint) error {
	return nil
}

func TestDashboardHandler_Success(t *testing.T) {
	response := dto.DashboardResponse{
		Summary: dto.DashboardSummary{TotalClasses: 80, AttendedClasses: 66, OverallPercentage: 82.5, Status: "good", SubjectCount: 2},
		Subjects: []dto.SubjectResponse{
			{ID: 1, Name: "Mathematics", TotalClasses: 40, AttendedClasses: 36},
			{ID: 2, Name: "Physics", TotalClasses: 40, AttendedClasses: 30},
		},
	}
	svc := &stubDashboardService{response: response, cacheHit: true}

	app := fiber.New()
	group := app.Group("/api/v2", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(33))
		return c.Next()
	})
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    dto.DashboardResponse  `json:"data"`
		Meta    map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()

	require.True(t, payload.Success)
	require.Equal(t, "dashboard retrieved", payload.Message)
	require.Equal(t, 82.5, payload.Data.Summary.OverallPercentage)
	require.Len(t, payload.Data.Subjects, 2)
	require.Equal(t, uint(33), svc.lastID)
	require.Equal(t, true, payload.Meta["cache_hit"])
}

func TestDashboardHandler_Unauthorized(t *testing.T) {
	svc := &stubDashboardService{}

	app := fiber.New()
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/dashboard", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 0, svc.calls)
}

var _ service.DashboardService = (*stubDashboardService)(nil)
