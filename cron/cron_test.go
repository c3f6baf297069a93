package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	schedulerRepo "beautybook/database/repository/scheduler"
	"beautybook/models"
	"beautybook/services/notification"
	"beautybook/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, n models.NotificationPayload) error {
	return m.Called(ctx, n).Error(0)
}

type MockBookingLookup struct {
	mock.Mock
}

func (m *MockBookingLookup) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepCompleted(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func payload() models.NotificationPayload {
	return models.NotificationPayload{
		RecipientID: "client-1",
		Role:        models.RoleClient,
		Type:        models.NotificationBookingConfirmed,
		Title:       "Booking confirmed",
		Data:        map[string]string{"bookingId": "b-1"},
	}
}

func TestHandleNotificationTask(t *testing.T) {
	t.Run("delivers the payload", func(t *testing.T) {
		sender := new(MockPushSender)
		sender.On("Send", mock.Anything, payload()).Return(nil).Once()
		task, err := tasks.NewNotificationTask(payload())
		require.NoError(t, err)

		assert.NoError(t, HandleNotificationTask(sender)(context.Background(), task))
		sender.AssertExpectations(t)
	})

	t.Run("missing token is not retried", func(t *testing.T) {
		sender := new(MockPushSender)
		sender.On("Send", mock.Anything, mock.Anything).
			Return(fmt.Errorf("client client-1: %w", notification.ErrNoToken))
		task, err := tasks.NewNotificationTask(payload())
		require.NoError(t, err)

		err = HandleNotificationTask(sender)(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("transport failures are retried", func(t *testing.T) {
		sender := new(MockPushSender)
		sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("fcm unavailable"))
		raw, err := json.Marshal(payload())
		require.NoError(t, err)

		err = HandleNotificationTask(sender)(context.Background(), asynq.NewTask(tasks.TypeBookingReminder, raw))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		sender := new(MockPushSender)
		err := HandleNotificationTask(sender)(context.Background(), asynq.NewTask(tasks.TypeNotificationSend, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestCompletionSweeper(t *testing.T) {
	t.Run("rejects a bad schedule", func(t *testing.T) {
		_, err := NewCompletionSweeper(new(MockSweeper), "every now and then")
		assert.Error(t, err)
	})

	t.Run("run once drives the engine", func(t *testing.T) {
		engine := new(MockSweeper)
		engine.On("SweepCompleted", mock.Anything).Return(3, nil).Once()
		s, err := NewCompletionSweeper(engine, "@every 5m")
		require.NoError(t, err)

		s.RunOnce()
		engine.AssertExpectations(t)
	})

	t.Run("errors are logged not raised", func(t *testing.T) {
		engine := new(MockSweeper)
		engine.On("SweepCompleted", mock.Anything).Return(0, errors.New("store down")).Once()
		s, err := NewCompletionSweeper(engine, "@every 5m")
		require.NoError(t, err)

		assert.NotPanics(t, s.RunOnce)
		engine.AssertExpectations(t)
	})
}

func reminderTask(t *testing.T, bookingID string) *asynq.Task {
	t.Helper()
	p := payload()
	p.Type = models.NotificationBookingReminder
	p.Data = map[string]string{"bookingId": bookingID}
	task, _, err := tasks.NewReminderTask(p, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return task
}

func TestHandleReminderTask(t *testing.T) {
	t.Run("confirmed booking is reminded", func(t *testing.T) {
		sender := new(MockPushSender)
		sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
		bookings := new(MockBookingLookup)
		bookings.On("GetBooking", mock.Anything, "b-1").Return(&models.Booking{ID: "b-1", Status: models.BookingConfirmed}, nil)

		assert.NoError(t, HandleReminderTask(sender, bookings)(context.Background(), reminderTask(t, "b-1")))
		sender.AssertExpectations(t)
	})

	t.Run("cancelled booking is not reminded", func(t *testing.T) {
		sender := new(MockPushSender)
		bookings := new(MockBookingLookup)
		bookings.On("GetBooking", mock.Anything, "b-cancelled").
			Return(&models.Booking{ID: "b-cancelled", Status: models.BookingCancelled}, nil)

		assert.NoError(t, HandleReminderTask(sender, bookings)(context.Background(), reminderTask(t, "b-cancelled")))
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("unknown booking is dropped", func(t *testing.T) {
		sender := new(MockPushSender)
		bookings := new(MockBookingLookup)
		bookings.On("GetBooking", mock.Anything, "gone").
			Return(nil, fmt.Errorf("booking gone: %w", schedulerRepo.ErrBookingNotFound))

		err := HandleReminderTask(sender, bookings)(context.Background(), reminderTask(t, "gone"))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure is retried", func(t *testing.T) {
		sender := new(MockPushSender)
		bookings := new(MockBookingLookup)
		bookings.On("GetBooking", mock.Anything, "b-1").Return(nil, errors.New("mongo down"))

		err := HandleReminderTask(sender, bookings)(context.Background(), reminderTask(t, "b-1"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}
