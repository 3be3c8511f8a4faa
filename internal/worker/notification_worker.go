package worker

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NotificationWorker owns the mail side of event handling.
type NotificationWorker struct {
	svc *service.NotificationService
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) *NotificationWorker {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	return &NotificationWorker{svc: notificationService}
}

// Stop waits for mails already handed to the sender.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w == nil || w.svc == nil {
		return nil
	}
	return w.svc.Wait(ctx)
}
