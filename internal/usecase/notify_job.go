package usecase

import (
	"context"
	"fmt"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/queue"
)

// TypeAlertNotify is the queue message type for outbound alert notifications.
const TypeAlertNotify = "alert.notify"

// AlertNotifyJob delivers stored alerts through the configured notifier.
// Delivery is best effort: the queue owns retries, the job just reports.
type AlertNotifyJob struct {
	notifier domrepo.Notifier
	l        *applogger.Logger
}

func NewAlertNotifyJob(notifier domrepo.Notifier, l *applogger.Logger) *AlertNotifyJob {
	return &AlertNotifyJob{notifier: notifier, l: l}
}

func (j *AlertNotifyJob) Name() string { return "alert-notify" }

func (j *AlertNotifyJob) Type() string { return TypeAlertNotify }

func (j *AlertNotifyJob) Handle(ctx context.Context, payload interface{}) error {
	alert, err := queue.ParsePayload[models.AlertEvent](payload)
	if err != nil {
		return fmt.Errorf("parse alert payload: %w", err)
	}

	if err := j.notifier.Send(ctx, alert.Symbol, alert.Message); err != nil {
		return fmt.Errorf("send notification for %s: %w", alert.Symbol, err)
	}

	j.l.Info("alert notification delivered", applogger.String("symbol", alert.Symbol))
	return nil
}
