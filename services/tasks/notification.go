package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"beautybook/models"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationSend = "notification:send"
	TypeBookingReminder  = "booking:reminder"
)

// NewNotificationTask wraps a payload for immediate delivery.
func NewNotificationTask(payload models.NotificationPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationSend, b, asynq.MaxRetry(5)), nil
}

// NewReminderTask schedules a payload for fireAt. The task id is derived from the booking
// and recipient so a repeated confirmation cannot queue the same reminder twice.
func NewReminderTask(payload models.NotificationPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt), asynq.MaxRetry(3)}
	if id := payload.Data["bookingId"]; id != "" {
		opts = append(opts, asynq.TaskID(ReminderTaskID(id, payload.Role)))
	}
	return task, opts, nil
}

// ReminderTaskID names the reminder of one booking for one party.
func ReminderTaskID(bookingID string, role models.Role) string {
	return fmt.Sprintf("reminder:%s:%s", bookingID, role)
}

// ParsePayload decodes the payload of either task type.
func ParsePayload(task *asynq.Task) (models.NotificationPayload, error) {
	var p models.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", task.Type(), err)
	}
	return p, nil
}
