// Package worker runs background pieces that outlive a single request.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/mq"
	"github.com/triage-desk/ticket-router/internal/service"
)

// StartNotificationWorker subscribes the notification service to workflow
// events and delivers them from its own goroutine, so requests never wait
// on a slow viewer. Once ctx is cancelled the queue is flushed and relay
// closed; the returned channel is closed after that.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, relay mq.Publisher, queueSize int, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notificationService.EnableQueue(queueSize)
	notificationService.RegisterHandlers()
	logger.Info("notification worker started", zap.Bool("relay", relay != nil))

	go func() {
		defer close(done)
		notificationService.Run(ctx)
		if relay != nil {
			if err := relay.Close(); err != nil {
				logger.Warn("close relay", zap.Error(err))
			}
		}
		logger.Info("notification worker stopped")
	}()
	return done
}
