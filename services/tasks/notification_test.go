package tasks

import (
	"testing"
	"time"

	"beautybook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderTaskRoundTrip(t *testing.T) {
	payload := models.NotificationPayload{
		RecipientID: "client-1",
		Role:        models.RoleClient,
		Type:        models.NotificationBookingReminder,
		Title:       "Upcoming appointment",
		Data:        map[string]string{"bookingId": "b-1"},
	}
	fireAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	task, opts, err := NewReminderTask(payload, fireAt)
	require.NoError(t, err)
	assert.Equal(t, TypeBookingReminder, task.Type())
	assert.Len(t, opts, 3, "process-at, max-retry and task id")

	got, err := ParsePayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReminderTaskWithoutBookingID(t *testing.T) {
	_, opts, err := NewReminderTask(models.NotificationPayload{RecipientID: "x"}, time.Now())
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}
