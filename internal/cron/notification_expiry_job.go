package cron

import (
	"context"
	"fmt"

	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

type expiredNotificationDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// NotificationExpiryJobParams configure the expiry cleanup job.
type NotificationExpiryJobParams struct {
	Logger        *logger.Logger
	Notifications expiredNotificationDeleter
}

// NewNotificationExpiryJob builds the job that deletes notifications past
// their expiry timestamp.
func NewNotificationExpiryJob(params NotificationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	return &notificationExpiryJob{
		logg:          params.Logger,
		notifications: params.Notifications,
	}, nil
}

type notificationExpiryJob struct {
	logg          *logger.Logger
	notifications expiredNotificationDeleter
}

func (j *notificationExpiryJob) Name() string { return "notification-expiry" }

func (j *notificationExpiryJob) Run(ctx context.Context) error {
	deleted, err := j.notifications.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("notification expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"rows_deleted": deleted})
	j.logg.Info(logCtx, "notification expiry complete")
	return nil
}
