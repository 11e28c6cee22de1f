package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
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

type stubScreenshotService struct {
	processErr error
	getErr     error
	importErr  error
	filename   string
}

func (s *stubScreenshotService) Process(_ context.Context, _ uint, file *multipart.FileHeader) (dto.ScreenshotResponse, error) {
	if file != nil {
		s.filename = file.Filename
	}
	if s.processErr != nil {
		return dto.ScreenshotResponse{Status: "failed"}, s.processErr
	}
	return dto.ScreenshotResponse{ID: 1, ReferenceID: "ref", Status: "completed"}, nil
}

func (s *stubScreenshotService) Get(_ context.Context, _, id uint) (dto.ScreenshotResponse, error) {
	if s.getErr != nil {
		return dto.ScreenshotResponse{}, s.getErr
	}
	return dto.ScreenshotResponse{ID: id, Status: "completed"}, nil
}

func (s *stubScreenshotService) Import(context.Context, uint, uint) ([]dto.SubjectResponse, error) {
	if s.importErr != nil {
		return nil, s.importErr
	}
	return []dto.SubjectResponse{{ID: 1, Name: "Mathematics"}}, nil
}

func newScreenshotApp(svc service.ScreenshotService, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/screenshots", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(5))
		if role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	handler.NewScreenshotHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/screenshots", body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestScreenshotHandlerUpload(t *testing.T) {
	svc := &stubScreenshotService{}
	resp, err := newScreenshotApp(svc, "member").Test(uploadRequest(t, "portal.png", []byte("png")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "portal.png", svc.filename)
}

func TestScreenshotHandlerUploadErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: service.ErrScreenshotTooLarge, status: fiber.StatusRequestEntityTooLarge},
		{err: service.ErrScreenshotTypeNotAllowed, status: fiber.StatusBadRequest},
		{err: fmt.Errorf("%w: model unavailable", service.ErrExtractionFailed), status: fiber.StatusUnprocessableEntity},
		{err: fmt.Errorf("disk full"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &stubScreenshotService{processErr: tc.err}
			resp, err := newScreenshotApp(svc, "member").Test(uploadRequest(t, "portal.png", []byte("png")), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestScreenshotHandlerRequiresFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v2/screenshots", nil)
	resp, err := newScreenshotApp(&stubScreenshotService{}, "member").Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScreenshotHandlerForbidsGuests(t *testing.T) {
	svc := &stubScreenshotService{}
	resp, err := newScreenshotApp(svc, "guest").Test(uploadRequest(t, "portal.png", []byte("png")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.filename)
}

func TestScreenshotHandlerImport(t *testing.T) {
	app := newScreenshotApp(&stubScreenshotService{}, "")
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v2/screenshots/1/import", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	app = newScreenshotApp(&stubScreenshotService{importErr: service.ErrScreenshotNotImportable}, "")
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v2/screenshots/1/import", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	app = newScreenshotApp(&stubScreenshotService{getErr: service.ErrScreenshotNotFound}, "")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/screenshots/7", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

var _ service.ScreenshotService = (*stubScreenshotService)(nil)
