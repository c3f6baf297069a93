package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beautybook/models"
	"beautybook/services/tasks"
	"beautybook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the subset of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is the subset of *asynq.Inspector used to withdraw scheduled reminders.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// QueueDispatcher hands notifications to the asynq worker, keeping FCM off the request path.
type QueueDispatcher struct {
	Client    Enqueuer
	Inspector TaskDeleter
	Queue     string
}

func NewQueueDispatcher(client Enqueuer, inspector TaskDeleter, queue string) *QueueDispatcher {
	if queue == "" {
		queue = "default"
	}
	return &QueueDispatcher{Client: client, Inspector: inspector, Queue: queue}
}

func (d *QueueDispatcher) Notify(ctx context.Context, n models.NotificationPayload) error {
	task, err := tasks.NewNotificationTask(n)
	if err != nil {
		return fmt.Errorf("build notification task: %w", err)
	}
	if _, err := d.Client.EnqueueContext(ctx, task, asynq.Queue(d.Queue)); err != nil {
		return fmt.Errorf("enqueue %s for %s: %w", n.Type, n.RecipientID, err)
	}
	return nil
}

func (d *QueueDispatcher) NotifyAt(ctx context.Context, n models.NotificationPayload, fireAt time.Time) error {
	task, opts, err := tasks.NewReminderTask(n, fireAt)
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	opts = append(opts, asynq.Queue(d.Queue))
	_, err = d.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue reminder for %s: %w", n.RecipientID, err)
	}
	return nil
}

// CancelReminders deletes the scheduled reminders of a booking for both parties.
// Reminders that already ran or were never queued are ignored.
func (d *QueueDispatcher) CancelReminders(ctx context.Context, bookingID string) error {
	if d.Inspector == nil {
		return nil
	}
	var errs []error
	for _, role := range []models.Role{models.RoleClient, models.RoleProvider} {
		err := d.Inspector.DeleteTask(d.Queue, tasks.ReminderTaskID(bookingID, role))
		if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		errs = append(errs, fmt.Errorf("delete %s reminder of %s: %w", role, bookingID, err))
	}
	return errors.Join(errs...)
}

// LogDispatcher only logs. It stands in when no Redis queue is configured.
type LogDispatcher struct{}

func (LogDispatcher) Notify(ctx context.Context, n models.NotificationPayload) error {
	utils.GetLogger().Info("Notification",
		zap.String("recipientID", n.RecipientID), zap.String("role", string(n.Role)),
		zap.String("type", string(n.Type)), zap.String("title", n.Title))
	return nil
}

func (LogDispatcher) NotifyAt(ctx context.Context, n models.NotificationPayload, fireAt time.Time) error {
	utils.GetLogger().Info("Notification scheduled",
		zap.String("recipientID", n.RecipientID), zap.String("role", string(n.Role)),
		zap.String("type", string(n.Type)), zap.Time("fireAt", fireAt))
	return nil
}

func (LogDispatcher) CancelReminders(ctx context.Context, bookingID string) error {
	utils.GetLogger().Info("Reminders cancelled", zap.String("bookingID", bookingID))
	return nil
}
