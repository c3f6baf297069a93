package booking

import (
	"context"
	"time"

	"beautybook/metrics"
	"beautybook/models"
	"beautybook/services/notification"

	"go.uber.org/zap"
)

const defaultNotifyTimeout = 2 * time.Second

// notify hands one event to the dispatcher. Failures are logged and never propagate:
// the booking transition has already committed.
func (se *DefaultSchedulingEngine) notify(ctx context.Context, recipientID string, role models.Role, t models.NotificationType, b models.Booking) {
	if se.Notifier == nil || recipientID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), se.notifyTimeout())
	defer cancel()

	n := notification.NewBookingNotification(t, recipientID, role, b)
	if err := se.Notifier.Notify(ctx, n); err != nil {
		metrics.IncNotificationFailure()
		se.logger().Warn("Failed to dispatch booking notification",
			zap.String("bookingID", b.ID), zap.String("type", string(t)), zap.Error(err))
	}
}

// scheduleReminders queues a reminder for both parties ReminderLead before the start.
func (se *DefaultSchedulingEngine) scheduleReminders(ctx context.Context, b models.Booking) {
	if se.Notifier == nil || se.ReminderLead <= 0 {
		return
	}
	fireAt := b.StartAt.Add(-se.ReminderLead)
	if !fireAt.After(se.now()) {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), se.notifyTimeout())
	defer cancel()

	recipients := []struct {
		id   string
		role models.Role
	}{
		{b.ClientID, models.RoleClient},
		{b.ProviderID, models.RoleProvider},
	}
	for _, r := range recipients {
		n := notification.NewBookingNotification(models.NotificationBookingReminder, r.id, r.role, b)
		if err := se.Notifier.NotifyAt(ctx, n, fireAt); err != nil {
			metrics.IncNotificationFailure()
			se.logger().Warn("Failed to schedule booking reminder",
				zap.String("bookingID", b.ID), zap.String("role", string(r.role)), zap.Error(err))
		}
	}
}

// cancelReminders withdraws the reminders of a booking that will no longer take place.
func (se *DefaultSchedulingEngine) cancelReminders(ctx context.Context, b models.Booking) {
	if se.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), se.notifyTimeout())
	defer cancel()

	if err := se.Notifier.CancelReminders(ctx, b.ID); err != nil {
		metrics.IncNotificationFailure()
		se.logger().Warn("Failed to cancel booking reminders", zap.String("bookingID", b.ID), zap.Error(err))
	}
}

func (se *DefaultSchedulingEngine) notifyTimeout() time.Duration {
	if se.NotifyTimeout > 0 {
		return se.NotifyTimeout
	}
	return defaultNotifyTimeout
}
