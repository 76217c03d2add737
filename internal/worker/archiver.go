// Package worker runs periodic maintenance jobs.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ExpiredArchiver interface {
	ArchiveExpired(ctx context.Context) (int64, error)
}

// NotificationArchiver moves expired active notifications to archived on
// every tick.
type NotificationArchiver struct {
	notifications ExpiredArchiver
	interval      time.Duration
	log           logrus.FieldLogger
}

func NewNotificationArchiver(notifications ExpiredArchiver, interval time.Duration, log logrus.FieldLogger) *NotificationArchiver {
	return &NotificationArchiver{notifications: notifications, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (a *NotificationArchiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.archive(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *NotificationArchiver) archive(ctx context.Context) {
	n, err := a.notifications.ArchiveExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.log.WithError(err).Error("failed to archive expired notifications")
		}
		return
	}
	if n > 0 {
		a.log.WithField("archived", n).Info("archived expired notifications")
	}
}
