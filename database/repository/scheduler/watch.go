package schedulerRepo

import (
	"context"
	"sync"

	"beautybook/models"
	"beautybook/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const subscriptionBuffer = 32

type changeEvent struct {
	OperationType string         `bson:"operationType"`
	FullDocument  models.Booking `bson:"fullDocument"`
}

type streamSubscription struct {
	events chan models.CalendarEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *streamSubscription) Events() <-chan models.CalendarEvent { return s.events }

// Close stops the change stream and waits for the pump goroutine to exit.
func (s *streamSubscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// Watch opens a change stream on the provider's bookings. Events arrive in commit order.
func (repo *MongoSchedulerRepo) Watch(ctx context.Context, providerID string) (Subscription, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType":           bson.M{"$in": bson.A{"insert", "update", "replace"}},
			"fullDocument.providerId": providerID,
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := repo.bookingColl.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, classifyError("watch calendar", err)
	}

	sub := &streamSubscription{
		events: make(chan models.CalendarEvent, subscriptionBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(sub.done)
		defer close(sub.events)
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				utils.GetLogger().Warn("Failed to decode calendar change", zap.String("providerID", providerID), zap.Error(err))
				continue
			}
			eventType := models.CalendarBookingUpdated
			if ev.OperationType == "insert" {
				eventType = models.CalendarBookingCreated
			}
			select {
			case sub.events <- models.NewCalendarEvent(eventType, ev.FullDocument):
			case <-streamCtx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			utils.GetLogger().Error("Calendar change stream failed", zap.String("providerID", providerID), zap.Error(err))
		}
	}()
	return sub, nil
}
