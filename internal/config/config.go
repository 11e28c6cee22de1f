package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	NATSURL                string
	NATSRiskSubject        string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	DashboardCacheTTL      time.Duration
	OCRProvider            string
	OCRModel               string
	OCRMockDelay           time.Duration
	OpenAIAPIKey           string
	OCRMaxImageWidth       int
	UploadMaxMB            int
	CalculatorRateLimit    int
	SeedEnabled            bool
	SeedToken              string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether screenshot archiving credentials are present.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BUNKWISE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Bunkwise API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "sqlite://bunkwise.db")
	v.SetDefault("nats.subject", "attendance.risk")
	v.SetDefault("cloudinary.folder", "bunkwise/screenshots")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("ocr.provider", "mock")
	v.SetDefault("ocr.model", "gpt-4o-mini")
	v.SetDefault("ocr.mock_delay", "3s")
	v.SetDefault("ocr.max_image_width", 1600)
	v.SetDefault("upload.max_mb", 8)
	v.SetDefault("calculator.rate_limit", 120)
	v.SetDefault("seed.enabled", false)

	ttlString := v.GetString("dashboard.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	mockDelay, err := time.ParseDuration(v.GetString("ocr.mock_delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ocr mock delay: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		NATSURL:                v.GetString("nats.url"),
		NATSRiskSubject:        v.GetString("nats.subject"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		DashboardCacheTTL:      ttl,
		OCRProvider:            strings.ToLower(v.GetString("ocr.provider")),
		OCRModel:               v.GetString("ocr.model"),
		OCRMockDelay:           mockDelay,
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OCRMaxImageWidth:       v.GetInt("ocr.max_image_width"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		CalculatorRateLimit:    v.GetInt("calculator.rate_limit"),
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.OCRProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key is required when ocr provider is openai")
	}

	if cfg.OCRMaxImageWidth <= 0 {
		cfg.OCRMaxImageWidth = 1600
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 8
	}

	return cfg, nil
}
