package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

type fakeDeleter struct {
	deleted int64
	err     error
	called  int
}

func (f *fakeDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	f.called++
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

func TestNotificationExpiryJobDeletesExpired(t *testing.T) {
	deleter := &fakeDeleter{deleted: 7}
	job, err := NewNotificationExpiryJob(NotificationExpiryJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: deleter,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if deleter.called != 1 {
		t.Fatalf("expected one delete call, got %d", deleter.called)
	}
}

func TestNotificationExpiryJobPropagatesErrors(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("boom")}
	job, err := NewNotificationExpiryJob(NotificationExpiryJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: deleter,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
