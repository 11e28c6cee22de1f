package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkwise-api/internal/utils"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func TestResponseEnvelopes(t *testing.T) {
	cases := []struct {
		name       string
		handler    fiber.Handler
		status     int
		success    bool
		message    string
		assertBody func(t *testing.T, body envelope)
	}{
		{
			name: "dashboard with cache meta",
			handler: func(c *fiber.Ctx) error {
				return utils.OK(c, fiber.Map{"overall_percentage": 82.5}, "", fiber.Map{"cache_hit": true})
			},
			status:  fiber.StatusOK,
			success: true,
			message: "success",
			assertBody: func(t *testing.T, body envelope) {
				require.Equal(t, 82.5, body.Data["overall_percentage"])
				require.Equal(t, true, body.Meta["cache_hit"])
			},
		},
		{
			name: "created subject without meta",
			handler: func(c *fiber.Ctx) error {
				return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", fiber.Map{"id": 7})
			},
			status:  fiber.StatusCreated,
			success: true,
			message: "subject created",
			assertBody: func(t *testing.T, body envelope) {
				require.Equal(t, float64(7), body.Data["id"])
				require.Nil(t, body.Meta)
				require.Nil(t, body.Details)
			},
		},
		{
			name: "zero status falls back to 200",
			handler: func(c *fiber.Ctx) error {
				return utils.SendSuccessWithStatus(c, 0, "", fiber.Map{"can_bunk": 6})
			},
			status:  fiber.StatusOK,
			success: true,
			message: "success",
		},
		{
			name: "validation failure with field details",
			handler: func(c *fiber.Ctx) error {
				return utils.Fail(c, fiber.StatusBadRequest, "invalid subject payload", fiber.Map{
					"fields": fiber.Map{"attended_classes": "ltefield"},
				})
			},
			status:  fiber.StatusBadRequest,
			success: false,
			message: "invalid subject payload",
			assertBody: func(t *testing.T, body envelope) {
				fields, ok := body.Details["fields"].(map[string]interface{})
				require.True(t, ok)
				require.Equal(t, "ltefield", fields["attended_classes"])
				require.Nil(t, body.Data)
			},
		},
		{
			name: "plain error defaults its message",
			handler: func(c *fiber.Ctx) error {
				return utils.SendError(c, fiber.StatusNotFound, "")
			},
			status:  fiber.StatusNotFound,
			success: false,
			message: "error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.handler)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.success, body.Success)
			require.Equal(t, tc.message, body.Message)
			if tc.assertBody != nil {
				tc.assertBody(t, body)
			}
		})
	}
}
