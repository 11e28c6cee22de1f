package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/config"
	"github.com/noah-isme/bunkwise-api/internal/utils"
)

// HealthResponse reports build facts the frontend reads on startup.
type HealthResponse struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	Service           string    `json:"service"`
	Environment       string    `json:"environment"`
	OCRProvider       string    `json:"ocr_provider"`
	DefaultTarget     float64   `json:"default_target"`
	ScreenshotArchive bool      `json:"screenshot_archive"`
	DashboardCache    bool      `json:"dashboard_cache"`
}

// HealthCheck reports liveness along with the optional integrations that are switched on.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:            "ok",
			Timestamp:         time.Now().UTC(),
			Service:           cfg.AppName,
			Environment:       cfg.AppEnv,
			OCRProvider:       cfg.OCRProvider,
			DefaultTarget:     attendance.DefaultTarget,
			ScreenshotArchive: cfg.CloudinaryEnabled(),
			DashboardCache:    cfg.RedisURL != "",
		})
	}
}
