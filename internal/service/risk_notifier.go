package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/observability"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

// RiskAlert is emitted when a subject drops into the danger band.
type RiskAlert struct {
	UserID            uint              `json:"user_id"`
	SubjectID         uint              `json:"subject_id"`
	SubjectName       string            `json:"subject_name"`
	PreviousStatus    attendance.Status `json:"previous_status"`
	Status            attendance.Status `json:"status"`
	CurrentPercentage float64           `json:"current_percentage"`
	TargetPercentage  float64           `json:"target_percentage"`
	NeedToAttend      int               `json:"need_to_attend"`
	OccurredAt        time.Time         `json:"occurred_at"`
}

// RiskNotifier delivers risk alerts to downstream consumers.
type RiskNotifier interface {
	Notify(ctx context.Context, alert RiskAlert) error
}

// NATSRiskNotifier publishes alerts as JSON on a NATS subject.
type NATSRiskNotifier struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSRiskNotifier constructs a NATS backed notifier.
func NewNATSRiskNotifier(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSRiskNotifier {
	return &NATSRiskNotifier{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "risk_notifier").Logger(),
	}
}

// Notify publishes the alert.
func (n *NATSRiskNotifier) Notify(ctx context.Context, alert RiskAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return err
	}

	n.logger.Debug().Uint("subject_id", alert.SubjectID).Str("nats_subject", n.subject).Msg("risk alert published")
	return nil
}

// LogRiskNotifier only logs alerts. It is used when no broker is configured.
type LogRiskNotifier struct {
	logger zerolog.Logger
}

// NewLogRiskNotifier constructs a logging notifier.
func NewLogRiskNotifier(logger zerolog.Logger) *LogRiskNotifier {
	return &LogRiskNotifier{logger: logger.With().Str("component", "risk_notifier").Logger()}
}

// Notify logs the alert and returns nil.
func (l *LogRiskNotifier) Notify(ctx context.Context, alert RiskAlert) error {
	l.logger.Info().
		Uint("user_id", alert.UserID).
		Uint("subject_id", alert.SubjectID).
		Float64("current_percentage", alert.CurrentPercentage).
		Msg("subject entered danger band")
	return nil
}

// riskWatcher compares a subject before and after a change and raises an alert when it
// newly crosses into danger and the user has notifications switched on.
type riskWatcher struct {
	notifier RiskNotifier
	settings repository.SettingsRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func newRiskWatcher(notifier RiskNotifier, settings repository.SettingsRepository, logger zerolog.Logger) *riskWatcher {
	return &riskWatcher{
		notifier: notifier,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

func (w *riskWatcher) observe(ctx context.Context, before *models.Subject, after models.Subject) {
	if w == nil || w.notifier == nil || !after.IsActive {
		return
	}

	previous := attendance.StatusNoData
	if before != nil && before.IsActive {
		previous = attendance.Project(before.AttendanceInput()).Status
	}
	current := attendance.Project(after.AttendanceInput())
	if current.Status != attendance.StatusDanger || previous == attendance.StatusDanger {
		return
	}

	if w.settings != nil {
		prefs, err := w.settings.Get(ctx, after.UserID)
		if err != nil {
			w.logger.Warn().Err(err).Uint("user_id", after.UserID).Msg("failed to read notification preference")
			return
		}
		if !prefs.NotificationsEnabled {
			observability.RiskAlerts().WithLabelValues("muted").Inc()
			return
		}
	}

	alert := RiskAlert{
		UserID:            after.UserID,
		SubjectID:         after.ID,
		SubjectName:       after.Name,
		PreviousStatus:    previous,
		Status:            current.Status,
		CurrentPercentage: current.CurrentPercentage,
		TargetPercentage:  current.TargetPercentage,
		NeedToAttend:      current.NeedToAttend,
		OccurredAt:        w.now().UTC(),
	}

	if err := w.notifier.Notify(ctx, alert); err != nil {
		observability.RiskAlerts().WithLabelValues("failed").Inc()
		w.logger.Warn().Err(err).Uint("subject_id", after.ID).Msg("failed to publish risk alert")
		return
	}
	observability.RiskAlerts().WithLabelValues("published").Inc()
}
