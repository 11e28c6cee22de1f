package service

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

type fixture struct {
	db          *gorm.DB
	mini        *miniredis.Miniredis
	redis       *redis.Client
	subjects    repository.SubjectRepository
	records     repository.AttendanceRecordRepository
	screenshots repository.ScreenshotRepository
	settings    repository.SettingsRepository
	dashboard   DashboardService
	notifier    *recordingNotifier
	validate    *validator.Validate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	subjects := repository.NewSubjectRepository(db)
	return &fixture{
		db:          db,
		mini:        mini,
		redis:       client,
		subjects:    subjects,
		records:     repository.NewAttendanceRecordRepository(db),
		screenshots: repository.NewScreenshotRepository(db),
		settings:    repository.NewSettingsRepository(db),
		dashboard:   NewDashboardService(subjects, client, time.Minute, zerolog.Nop()),
		notifier:    &recordingNotifier{},
		validate:    validator.New(),
	}
}

func (f *fixture) seedSubject(t *testing.T, userID uint, name string, total, attended int, target float64) models.Subject {
	t.Helper()
	subject := models.Subject{
		UserID:           userID,
		Name:             name,
		TotalClasses:     total,
		AttendedClasses:  attended,
		TargetAttendance: target,
		IsActive:         true,
	}
	require.NoError(t, f.subjects.Create(context.Background(), &subject))
	return subject
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []RiskAlert
	err    error
}

func (r *recordingNotifier) Notify(ctx context.Context, alert RiskAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func floatPointer(v float64) *float64 {
	return &v
}

func intPointer(v int) *int {
	return &v
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
