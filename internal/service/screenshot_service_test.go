package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
	"github.com/noah-isme/bunkwise-api/pkg/ocr"
)

type archiveStub struct {
	stored bytes.Buffer
	err    error
}

func (a *archiveStub) Store(ctx context.Context, referenceID string, reader io.Reader) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.stored.Reset()
	if _, err := a.stored.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + referenceID, nil
}

type failingExtractor struct{}

func (failingExtractor) Name() string { return "failing" }

func (failingExtractor) Extract(ctx context.Context, image ocr.Image) (ocr.Extraction, error) {
	return ocr.Extraction{}, errors.New("model unavailable")
}

func newScreenshotService(f *fixture, extractor ocr.Extractor, archive ScreenshotArchive, maxMB int) ScreenshotService {
	return NewScreenshotService(f.screenshots, f.subjects, f.settings, extractor, archive, f.dashboard, f.notifier,
		ScreenshotConfig{MaxSizeMB: maxMB, MaxImageWidth: 64}, zerolog.Nop())
}

func TestScreenshotServiceProcessAndImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	archive := &archiveStub{}
	svc := newScreenshotService(f, ocr.NewMockExtractor(0), archive, 2)

	file := buildFileHeader(t, "My Portal (1).PNG", pngBytes(t, 200, 100))
	processed, err := svc.Process(ctx, 1, file)
	require.NoError(t, err)
	require.Equal(t, models.ScreenshotStatusCompleted, processed.Status)
	require.Equal(t, "My-Portal--1.png", processed.Filename)
	require.Contains(t, processed.ImageURL, processed.ReferenceID)
	require.NotZero(t, archive.stored.Len())
	require.Len(t, processed.Subjects, 4)
	require.Equal(t, "Chemistry", processed.Subjects[2].Name)
	require.Equal(t, 8, processed.Subjects[2].Projection.NeedToAttend)

	fetched, err := svc.Get(ctx, 1, processed.ID)
	require.NoError(t, err)
	require.Equal(t, processed.ReferenceID, fetched.ReferenceID)

	_, err = svc.Get(ctx, 2, processed.ID)
	require.ErrorIs(t, err, ErrScreenshotNotFound)

	imported, err := svc.Import(ctx, 1, processed.ID)
	require.NoError(t, err)
	require.Len(t, imported, 4)
	require.Equal(t, "Mathematics", imported[0].Name)
	require.Equal(t, 42, imported[0].TotalClasses)

	stored, err := f.subjects.List(ctx, 1, repository.SubjectFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 4)

	_, err = svc.Import(ctx, 1, processed.ID)
	require.ErrorIs(t, err, ErrScreenshotNotImportable)
}

func TestScreenshotServiceRejectsUploads(t *testing.T) {
	f := newFixture(t)
	svc := newScreenshotService(f, ocr.NewMockExtractor(0), nil, 1)

	_, err := svc.Process(context.Background(), 1, nil)
	require.ErrorIs(t, err, ErrScreenshotRequired)

	_, err = svc.Process(context.Background(), 1, buildFileHeader(t, "notes.txt", []byte("Subject: Physics")))
	require.ErrorIs(t, err, ErrScreenshotTypeNotAllowed)

	_, err = svc.Process(context.Background(), 1, buildFileHeader(t, "huge.png", bytes.Repeat([]byte("a"), 2*1024*1024)))
	require.ErrorIs(t, err, ErrScreenshotTooLarge)
}

func TestScreenshotServiceMarksFailedExtraction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newScreenshotService(f, failingExtractor{}, &archiveStub{err: errors.New("offline")}, 2)

	failed, err := svc.Process(ctx, 1, buildFileHeader(t, "portal.png", pngBytes(t, 32, 32)))
	require.ErrorIs(t, err, ErrExtractionFailed)
	require.Equal(t, models.ScreenshotStatusFailed, failed.Status)
	require.NotEmpty(t, failed.ReferenceID)

	var stored models.ProcessedScreenshot
	require.NoError(t, f.db.Where("user_id = ?", 1).First(&stored).Error)
	require.Equal(t, models.ScreenshotStatusFailed, stored.ProcessingStatus)
	require.Equal(t, "model unavailable", stored.FailureReason)
	require.Empty(t, stored.ImageURL)

	_, err = svc.Import(ctx, 1, stored.ID)
	require.ErrorIs(t, err, ErrScreenshotNotImportable)
}
