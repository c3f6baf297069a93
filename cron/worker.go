package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beautybook/config"
	schedulerRepo "beautybook/database/repository/scheduler"
	"beautybook/models"
	"beautybook/services/notification"
	"beautybook/services/tasks"
	"beautybook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	workerConcurrency  = 10
	workerStartRetries = 5
	redisProbeInterval = 10 * time.Second
)

// NotificationWorker drains the notification queue and pushes each task through FCM.
type NotificationWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// BookingLookup reads the current state of a booking.
type BookingLookup interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// NewNotificationWorker registers handlers for immediate notifications and reminders.
func NewNotificationWorker(sender notification.PushSender, bookings BookingLookup) *NotificationWorker {
	queue := config.AppConfig.NotificationQueueName
	if queue == "" {
		queue = "default"
	}
	srv := asynq.NewServer(
		utils.QueueRedisOpt(),
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues: map[string]int{
				queue: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotificationSend, HandleNotificationTask(sender))
	mux.HandleFunc(tasks.TypeBookingReminder, HandleReminderTask(sender, bookings))
	return &NotificationWorker{server: srv, mux: mux}
}

// Start runs the worker in the background, retrying startup with a growing delay.
func (w *NotificationWorker) Start(ctx context.Context) {
	logger := utils.GetLogger()
	go monitorRedisConnection(ctx)

	go func() {
		logger.Info("Starting notification worker")
		for attempt := 1; attempt <= workerStartRetries; attempt++ {
			err := w.server.Start(w.mux)
			if err == nil {
				return
			}
			logger.Error("Notification worker failed to start",
				zap.Int("attempt", attempt), zap.Int("maxAttempts", workerStartRetries), zap.Error(err))
			if attempt == workerStartRetries {
				logger.Error("Giving up on notification worker; notifications stay queued")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt*2) * time.Second):
			}
		}
	}()
}

// Shutdown waits for in-flight tasks and stops the server.
func (w *NotificationWorker) Shutdown() {
	w.server.Shutdown()
}

// HandleNotificationTask pushes the task payload. Recipients without a device token are
// skipped rather than retried.
func HandleNotificationTask(sender notification.PushSender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()
		p, err := tasks.ParsePayload(task)
		if err != nil {
			logger.Warn("Dropping malformed notification task", zap.String("type", task.Type()), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		err = sender.Send(ctx, p)
		if errors.Is(err, notification.ErrNoToken) {
			logger.Info("Recipient has no device, skipping push",
				zap.String("recipientID", p.RecipientID), zap.String("type", string(p.Type)))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			logger.Warn("Push delivery failed",
				zap.String("recipientID", p.RecipientID), zap.String("task", task.Type()), zap.Error(err))
			return err
		}
		return nil
	}
}

// HandleReminderTask pushes a reminder only while its booking is still confirmed.
func HandleReminderTask(sender notification.PushSender, bookings BookingLookup) asynq.HandlerFunc {
	push := HandleNotificationTask(sender)
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParsePayload(task)
		if err != nil {
			return push(ctx, task)
		}
		bookingID := p.Data["bookingId"]
		if bookingID == "" {
			return push(ctx, task)
		}

		b, err := bookings.GetBooking(ctx, bookingID)
		if errors.Is(err, schedulerRepo.ErrBookingNotFound) {
			utils.GetLogger().Info("Dropping reminder of unknown booking", zap.String("bookingID", bookingID))
			return fmt.Errorf("booking %s: %w", bookingID, asynq.SkipRetry)
		}
		if err != nil {
			return fmt.Errorf("look up booking %s: %w", bookingID, err)
		}
		if b.Status != models.BookingConfirmed {
			utils.GetLogger().Info("Dropping reminder of booking no longer confirmed",
				zap.String("bookingID", bookingID), zap.String("status", string(b.Status)))
			return nil
		}
		return push(ctx, task)
	}
}

// monitorRedisConnection pings the queue DB periodically to surface failures at runtime.
func monitorRedisConnection(ctx context.Context) {
	opt := utils.QueueRedisOpt()
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(redisProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				utils.GetLogger().Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
