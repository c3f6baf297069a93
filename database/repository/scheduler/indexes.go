package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the booking and calendar bucket indexes.
func (repo *MongoSchedulerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "date", Value: 1}, {Key: "startAt", Value: 1}}},
		// completion sweep
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endAt", Value: 1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "startAt", Value: -1}}},
	}
	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, bookingIdx); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	bucketIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.bucketColl.Indexes().CreateOne(ctx, bucketIdx); err != nil {
		return fmt.Errorf("failed to create calendar bucket index: %w", err)
	}
	return nil
}
