package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	providerRepo "beautybook/database/repository/provider"
	"beautybook/models"
	"beautybook/services/tasks"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if info := args.Get(0); info != nil {
		return info.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) GetFCMToken(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func sampleBooking() models.Booking {
	return models.Booking{
		ID:          "b-1",
		ProviderID:  "prov-1",
		ClientID:    "client-1",
		ServiceName: "Gel manicure",
		Date:        "2025-06-01",
		StartTime:   "11:00",
		Status:      models.BookingCancelled,
	}
}

func TestNewBookingNotification(t *testing.T) {
	b := sampleBooking()
	b.CancelReason = "sick"

	n := NewBookingNotification(models.NotificationBookingCancelled, "client-1", models.RoleClient, b)

	assert.Equal(t, "client-1", n.RecipientID)
	assert.Equal(t, models.RoleClient, n.Role)
	assert.Equal(t, "Booking cancelled", n.Title)
	assert.Contains(t, n.Body, "sick")
	assert.Equal(t, "b-1", n.Data["bookingId"])
	assert.Equal(t, "client", n.Data["role"])
}

func TestQueueDispatcher(t *testing.T) {
	n := NewBookingNotification(models.NotificationBookingRequested, "prov-1", models.RoleProvider, sampleBooking())

	t.Run("notify enqueues a send task", func(t *testing.T) {
		enq := new(MockEnqueuer)
		enq.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
			return task.Type() == tasks.TypeNotificationSend
		}), mock.Anything).Return(&asynq.TaskInfo{ID: "t-1"}, nil)

		err := NewQueueDispatcher(enq, nil, "notifications").Notify(context.Background(), n)

		require.NoError(t, err)
		enq.AssertExpectations(t)
	})

	t.Run("enqueue failure is returned", func(t *testing.T) {
		enq := new(MockEnqueuer)
		enq.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

		err := NewQueueDispatcher(enq, nil, "").Notify(context.Background(), n)

		assert.Error(t, err)
	})

	t.Run("duplicate reminder is not an error", func(t *testing.T) {
		enq := new(MockEnqueuer)
		enq.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
			return task.Type() == tasks.TypeBookingReminder
		}), mock.Anything).Return(nil, asynq.ErrTaskIDConflict)

		err := NewQueueDispatcher(enq, nil, "notifications").NotifyAt(context.Background(), n, time.Now().Add(time.Hour))

		assert.NoError(t, err)
		enq.AssertExpectations(t)
	})
}

type MockTaskDeleter struct {
	mock.Mock
}

func (m *MockTaskDeleter) DeleteTask(queue, id string) error {
	return m.Called(queue, id).Error(0)
}

func TestQueueDispatcher_CancelReminders(t *testing.T) {
	t.Run("deletes both reminders", func(t *testing.T) {
		insp := new(MockTaskDeleter)
		insp.On("DeleteTask", "notifications", "reminder:b-1:client").Return(nil).Once()
		insp.On("DeleteTask", "notifications", "reminder:b-1:provider").Return(nil).Once()

		err := NewQueueDispatcher(new(MockEnqueuer), insp, "notifications").CancelReminders(context.Background(), "b-1")

		require.NoError(t, err)
		insp.AssertExpectations(t)
	})

	t.Run("reminders already gone are ignored", func(t *testing.T) {
		insp := new(MockTaskDeleter)
		insp.On("DeleteTask", "notifications", mock.Anything).Return(asynq.ErrTaskNotFound)

		err := NewQueueDispatcher(new(MockEnqueuer), insp, "notifications").CancelReminders(context.Background(), "b-1")

		assert.NoError(t, err)
	})

	t.Run("inspector failure is returned", func(t *testing.T) {
		insp := new(MockTaskDeleter)
		insp.On("DeleteTask", "notifications", "reminder:b-1:client").Return(errors.New("redis down"))
		insp.On("DeleteTask", "notifications", "reminder:b-1:provider").Return(nil)

		err := NewQueueDispatcher(new(MockEnqueuer), insp, "notifications").CancelReminders(context.Background(), "b-1")

		assert.Error(t, err)
	})

	t.Run("without an inspector nothing happens", func(t *testing.T) {
		assert.NoError(t, NewQueueDispatcher(new(MockEnqueuer), nil, "").CancelReminders(context.Background(), "b-1"))
	})
}

func TestFCMSender(t *testing.T) {
	ctx := context.Background()

	t.Run("provider push is high priority", func(t *testing.T) {
		fcm := new(MockMessageSender)
		users := new(MockTokenSource)
		providers := new(MockTokenSource)
		providers.On("GetFCMToken", ctx, "prov-1").Return("prov-token", nil)
		fcm.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Token == "prov-token" && m.Android != nil && m.Android.Priority == "high" &&
				m.Data["role"] == "provider" && m.Data["type"] == "booking_requested"
		})).Return("msg-1", nil)

		n := NewBookingNotification(models.NotificationBookingRequested, "prov-1", models.RoleProvider, sampleBooking())
		err := NewFCMSender(fcm, users, providers).Send(ctx, n)

		require.NoError(t, err)
		fcm.AssertExpectations(t)
		users.AssertNotCalled(t, "GetFCMToken", mock.Anything, mock.Anything)
	})

	t.Run("client push uses users collection", func(t *testing.T) {
		fcm := new(MockMessageSender)
		users := new(MockTokenSource)
		users.On("GetFCMToken", ctx, "client-1").Return("client-token", nil)
		fcm.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Token == "client-token" && m.Android == nil
		})).Return("msg-2", nil)

		n := NewBookingNotification(models.NotificationBookingConfirmed, "client-1", models.RoleClient, sampleBooking())
		err := NewFCMSender(fcm, users, new(MockTokenSource)).Send(ctx, n)

		require.NoError(t, err)
		fcm.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		users := new(MockTokenSource)
		users.On("GetFCMToken", ctx, "client-1").Return("", nil)

		n := NewBookingNotification(models.NotificationBookingConfirmed, "client-1", models.RoleClient, sampleBooking())
		err := NewFCMSender(new(MockMessageSender), users, new(MockTokenSource)).Send(ctx, n)

		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("unknown recipient counts as missing token", func(t *testing.T) {
		providers := new(MockTokenSource)
		providers.On("GetFCMToken", ctx, "prov-9").Return("", fmt.Errorf("provider prov-9: %w", providerRepo.ErrProviderNotFound))

		n := NewBookingNotification(models.NotificationBookingRequested, "prov-9", models.RoleProvider, sampleBooking())
		err := NewFCMSender(new(MockMessageSender), new(MockTokenSource), providers).Send(ctx, n)

		assert.ErrorIs(t, err, ErrNoToken)
	})
}
