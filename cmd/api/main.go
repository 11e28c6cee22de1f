package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/config"
	"github.com/noah-isme/bunkwise-api/internal/database"
	"github.com/noah-isme/bunkwise-api/internal/handler"
	"github.com/noah-isme/bunkwise-api/internal/middleware"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
	"github.com/noah-isme/bunkwise-api/internal/router"
	"github.com/noah-isme/bunkwise-api/internal/service"
	cloud "github.com/noah-isme/bunkwise-api/pkg/cloudinary"
	"github.com/noah-isme/bunkwise-api/pkg/ocr"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level).With().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseURL, level <= zerolog.DebugLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, dashboard caching disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}

	var notifier service.RiskNotifier = service.NewLogRiskNotifier(logger)
	if natsConn != nil {
		defer natsConn.Drain()
		notifier = service.NewNATSRiskNotifier(natsConn, cfg.NATSRiskSubject, logger)
	}

	extractor := buildExtractor(cfg, logger)

	var archive service.ScreenshotArchive
	if cfg.CloudinaryEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		archive = uploader
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	subjectRepo := repository.NewSubjectRepository(db)
	recordRepo := repository.NewAttendanceRecordRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	screenshotRepo := repository.NewScreenshotRepository(db)

	calculatorService := service.NewCalculatorService(validate, logger)
	dashboardService := service.NewDashboardService(subjectRepo, redisClient, cfg.DashboardCacheTTL, logger)
	subjectService := service.NewSubjectService(subjectRepo, recordRepo, settingsRepo, dashboardService, notifier, validate, logger)
	recordService := service.NewAttendanceRecordService(recordRepo, subjectRepo, settingsRepo, dashboardService, notifier, validate, logger)
	onboardingService := service.NewOnboardingService(subjectRepo, settingsRepo, dashboardService, notifier, validate, logger)
	settingsService := service.NewSettingsService(settingsRepo, validate, logger)
	screenshotService := service.NewScreenshotService(screenshotRepo, subjectRepo, settingsRepo, extractor, archive, dashboardService, notifier, service.ScreenshotConfig{
		MaxSizeMB:     cfg.UploadMaxMB,
		MaxImageWidth: cfg.OCRMaxImageWidth,
	}, logger)
	seedService := service.NewSeedService(subjectRepo, settingsRepo, dashboardService, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		CalculatorHandler: handler.NewCalculatorHandler(calculatorService, logger),
		SubjectHandler:    handler.NewSubjectHandler(subjectService, recordService, logger),
		DashboardHandler:  handler.NewDashboardHandler(dashboardService, logger),
		OnboardingHandler: handler.NewOnboardingHandler(onboardingService, logger),
		SettingsHandler:   handler.NewSettingsHandler(settingsService, logger),
		ScreenshotHandler: handler.NewScreenshotHandler(screenshotService, logger),
		SeedHandler:       handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func buildExtractor(cfg config.Config, logger zerolog.Logger) ocr.Extractor {
	if cfg.OCRProvider != "openai" {
		logger.Info().Msg("using mock screenshot extractor")
		return ocr.NewMockExtractor(cfg.OCRMockDelay)
	}

	extractor, err := ocr.NewOpenAIExtractor(ocr.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OCRModel,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create openai extractor")
	}
	return extractor
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
