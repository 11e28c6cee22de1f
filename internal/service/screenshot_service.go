package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/observability"
	"github.com/noah-isme/bunkwise-api/internal/repository"
	"github.com/noah-isme/bunkwise-api/pkg/ocr"
)

var (
	// ErrScreenshotRequired indicates no file was attached.
	ErrScreenshotRequired = errors.New("screenshot file is required")
	// ErrScreenshotTooLarge indicates the payload exceeded the configured limit.
	ErrScreenshotTooLarge = errors.New("screenshot exceeds maximum allowed size")
	// ErrScreenshotTypeNotAllowed indicates the upload is not a supported image.
	ErrScreenshotTypeNotAllowed = errors.New("screenshot must be a png, jpeg, gif, bmp or tiff image")
	// ErrExtractionFailed indicates no attendance could be read from the image.
	ErrExtractionFailed = errors.New("failed to extract attendance from screenshot")
	// ErrScreenshotNotFound indicates the screenshot does not exist for the caller.
	ErrScreenshotNotFound = errors.New("screenshot not found")
	// ErrScreenshotNotImportable indicates the extraction is incomplete or already imported.
	ErrScreenshotNotImportable = errors.New("screenshot cannot be imported")
)

var allowedScreenshotTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// ScreenshotArchive stores normalised screenshots.
type ScreenshotArchive interface {
	Store(ctx context.Context, referenceID string, reader io.Reader) (string, error)
}

// ScreenshotService reads attendance tables out of portal screenshots.
type ScreenshotService interface {
	Process(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.ScreenshotResponse, error)
	Get(ctx context.Context, userID, id uint) (dto.ScreenshotResponse, error)
	Import(ctx context.Context, userID, id uint) ([]dto.SubjectResponse, error)
}

// ScreenshotConfig tunes upload limits and normalisation.
type ScreenshotConfig struct {
	MaxSizeMB     int
	MaxImageWidth int
}

type screenshotService struct {
	repo      repository.ScreenshotRepository
	subjects  repository.SubjectRepository
	settings  repository.SettingsRepository
	extractor ocr.Extractor
	archive   ScreenshotArchive
	dashboard DashboardService
	watcher   *riskWatcher
	maxSize   int64
	maxWidth  int
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewScreenshotService constructs the screenshot service. The archive may be nil.
func NewScreenshotService(repo repository.ScreenshotRepository, subjects repository.SubjectRepository, settings repository.SettingsRepository, extractor ocr.Extractor, archive ScreenshotArchive, dashboard DashboardService, notifier RiskNotifier, cfg ScreenshotConfig, logger zerolog.Logger) ScreenshotService {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 8
	}
	componentLogger := logger.With().Str("component", "screenshot_service").Logger()
	return &screenshotService{
		repo:      repo,
		subjects:  subjects,
		settings:  settings,
		extractor: extractor,
		archive:   archive,
		dashboard: dashboard,
		watcher:   newRiskWatcher(notifier, settings, componentLogger),
		maxSize:   int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxWidth:  cfg.MaxImageWidth,
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/bunkwise-api/internal/service/screenshot"),
		now:       time.Now,
	}
}

func (s *screenshotService) Process(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.ScreenshotResponse, error) {
	ctx, span := s.tracer.Start(ctx, "screenshot.process", trace.WithAttributes(
		attribute.Int64("upload.max_bytes", s.maxSize),
		attribute.String("ocr.provider", s.extractor.Name()),
	))
	defer span.End()

	if file == nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ScreenshotResponse{}, ErrScreenshotRequired
	}
	if file.Size > s.maxSize {
		span.SetStatus(codes.Error, "payload too large")
		return dto.ScreenshotResponse{}, ErrScreenshotTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.ScreenshotResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return dto.ScreenshotResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		span.SetStatus(codes.Error, "payload too large")
		return dto.ScreenshotResponse{}, ErrScreenshotTooLarge
	}

	detected := mimetype.Detect(buf.Bytes()).String()
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	if !allowedScreenshotTypes[detected] {
		span.SetStatus(codes.Error, "type not allowed")
		return dto.ScreenshotResponse{}, ErrScreenshotTypeNotAllowed
	}

	screenshot := models.ProcessedScreenshot{
		ReferenceID:      uuid.New().String(),
		UserID:           userID,
		Filename:         sanitizeScreenshotName(file.Filename),
		ProcessingStatus: models.ScreenshotStatusPending,
	}
	if err := s.repo.Create(ctx, &screenshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ScreenshotResponse{}, err
	}
	span.SetAttributes(attribute.String("screenshot.reference_id", screenshot.ReferenceID))

	screenshot.ProcessingStatus = models.ScreenshotStatusProcessing
	if err := s.repo.Update(ctx, &screenshot); err != nil {
		span.RecordError(err)
		return dto.ScreenshotResponse{}, err
	}

	extraction, err := s.extract(ctx, &screenshot, buf.Bytes())
	if err != nil {
		screenshot.ProcessingStatus = models.ScreenshotStatusFailed
		screenshot.FailureReason = truncate(err.Error(), 255)
		if updateErr := s.repo.Update(ctx, &screenshot); updateErr != nil {
			s.logger.Error().Err(updateErr).Str("reference_id", screenshot.ReferenceID).Msg("failed to mark screenshot as failed")
		}
		observability.ScreenshotExtractions().WithLabelValues(s.extractor.Name(), "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		failed, _ := s.toResponse(ctx, screenshot)
		return failed, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	payload, err := json.Marshal(extraction.Subjects)
	if err != nil {
		return dto.ScreenshotResponse{}, err
	}
	screenshot.ExtractedText = extraction.Text
	screenshot.ExtractedData = datatypes.JSON(payload)
	screenshot.ProcessingStatus = models.ScreenshotStatusCompleted
	if err := s.repo.Update(ctx, &screenshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ScreenshotResponse{}, err
	}

	observability.ScreenshotExtractions().WithLabelValues(s.extractor.Name(), "completed").Inc()
	s.logger.Info().
		Str("reference_id", screenshot.ReferenceID).
		Uint("user_id", userID).
		Int("subjects", len(extraction.Subjects)).
		Msg("screenshot processed")
	span.SetStatus(codes.Ok, "completed")

	return s.toResponse(ctx, screenshot)
}

func (s *screenshotService) extract(ctx context.Context, screenshot *models.ProcessedScreenshot, data []byte) (ocr.Extraction, error) {
	image, err := ocr.Normalize(data, s.maxWidth)
	if err != nil {
		return ocr.Extraction{}, err
	}
	image.Filename = screenshot.Filename

	if s.archive != nil {
		url, err := s.archive.Store(ctx, screenshot.ReferenceID, bytes.NewReader(image.Data))
		if err != nil {
			s.logger.Warn().Err(err).Str("reference_id", screenshot.ReferenceID).Msg("failed to archive screenshot")
		} else {
			screenshot.ImageURL = url
		}
	}

	start := time.Now()
	extraction, err := s.extractor.Extract(ctx, image)
	observability.ExtractionLatency().WithLabelValues(s.extractor.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return ocr.Extraction{}, err
	}
	if len(extraction.Subjects) == 0 {
		return ocr.Extraction{}, ocr.ErrNoSubjects
	}
	return extraction, nil
}

func (s *screenshotService) Get(ctx context.Context, userID, id uint) (dto.ScreenshotResponse, error) {
	screenshot, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ScreenshotResponse{}, err
	}
	return s.toResponse(ctx, screenshot)
}

func (s *screenshotService) Import(ctx context.Context, userID, id uint) ([]dto.SubjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "screenshot.import", trace.WithAttributes(attribute.Int("screenshot.id", int(id))))
	defer span.End()

	screenshot, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if screenshot.ProcessingStatus != models.ScreenshotStatusCompleted || screenshot.ImportedAt != nil {
		span.SetStatus(codes.Error, "not importable")
		return nil, ErrScreenshotNotImportable
	}

	extracted, err := decodeExtracted(screenshot.ExtractedData)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	prefs, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	subjects := make([]models.Subject, 0, len(extracted))
	for _, row := range extracted {
		subjects = append(subjects, models.Subject{
			UserID:           userID,
			Name:             row.Name,
			TargetAttendance: prefs.DefaultTargetAttendance,
			TotalClasses:     row.TotalClasses,
			AttendedClasses:  row.AttendedClasses,
			IsActive:         true,
		})
	}
	if err := s.subjects.CreateBatch(ctx, subjects); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return nil, err
	}

	importedAt := s.now().UTC()
	screenshot.ImportedAt = &importedAt
	if err := s.repo.Update(ctx, &screenshot); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, subject := range subjects {
		s.watcher.observe(ctx, nil, subject)
	}
	if s.dashboard != nil {
		if err := s.dashboard.Invalidate(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
		}
	}

	s.logger.Info().Str("reference_id", screenshot.ReferenceID).Int("subjects", len(subjects)).Msg("screenshot imported")
	return dto.NewSubjectResponseSlice(subjects), nil
}

func (s *screenshotService) load(ctx context.Context, userID, id uint) (models.ProcessedScreenshot, error) {
	screenshot, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ProcessedScreenshot{}, ErrScreenshotNotFound
		}
		return models.ProcessedScreenshot{}, err
	}
	return screenshot, nil
}

func (s *screenshotService) toResponse(ctx context.Context, screenshot models.ProcessedScreenshot) (dto.ScreenshotResponse, error) {
	extracted, err := decodeExtracted(screenshot.ExtractedData)
	if err != nil {
		return dto.ScreenshotResponse{}, err
	}

	prefs, err := s.settings.Get(ctx, screenshot.UserID)
	if err != nil {
		return dto.ScreenshotResponse{}, err
	}

	subjects := make([]dto.ExtractedSubjectResponse, 0, len(extracted))
	for _, row := range extracted {
		result := attendance.Project(attendance.FromAttended(row.TotalClasses, row.AttendedClasses, prefs.DefaultTargetAttendance))
		subjects = append(subjects, dto.ExtractedSubjectResponse{
			Name:            row.Name,
			TotalClasses:    row.TotalClasses,
			AttendedClasses: row.AttendedClasses,
			Percentage:      row.Percentage,
			Projection:      dto.NewProjectionResponse(result),
		})
	}

	return dto.ScreenshotResponse{
		ID:            screenshot.ID,
		ReferenceID:   screenshot.ReferenceID,
		Filename:      screenshot.Filename,
		ImageURL:      screenshot.ImageURL,
		Status:        screenshot.ProcessingStatus,
		ExtractedText: screenshot.ExtractedText,
		Subjects:      subjects,
		FailureReason: screenshot.FailureReason,
		ImportedAt:    screenshot.ImportedAt,
		CreatedAt:     screenshot.CreatedAt,
	}, nil
}

func decodeExtracted(data datatypes.JSON) ([]ocr.Subject, error) {
	if len(data) == 0 {
		return []ocr.Subject{}, nil
	}
	var subjects []ocr.Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return nil, fmt.Errorf("decode extracted subjects: %w", err)
	}
	return subjects, nil
}

func sanitizeScreenshotName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "screenshot"
	}
	return truncate(base, 200) + strings.ToLower(filepath.Ext(name))
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
