package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beautybook/database"
	"beautybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bookingCollection = "appointments"
	bucketCollection  = "calendar_buckets"
	opTimeout         = 5 * time.Second
)

// MongoSchedulerRepo implements SchedulerRepository using MongoDB. Every write to a
// provider-date goes through a transaction that bumps the version of its calendar bucket,
// so two concurrent writers to the same provider-date can never both commit.
type MongoSchedulerRepo struct {
	bookingColl *mongo.Collection
	bucketColl  *mongo.Collection
}

// NewMongoSchedulerRepo constructs a repository on the application database.
func NewMongoSchedulerRepo() SchedulerRepository {
	return NewMongoSchedulerRepoWithDB(database.DB())
}

func NewMongoSchedulerRepoWithDB(db *mongo.Database) *MongoSchedulerRepo {
	repo := &MongoSchedulerRepo{
		bookingColl: db.Collection(bookingCollection),
		bucketColl:  db.Collection(bucketCollection),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("warning: failed to ensure scheduler indexes: %v\n", err)
	}
	return repo
}

// ReadBookings returns all bookings of a provider-date ordered by start time.
func (repo *MongoSchedulerRepo) ReadBookings(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	bookings, err := findBookings(ctx, repo.bookingColl, providerID, date)
	if err != nil {
		return nil, classifyError("read bookings", err)
	}
	return bookings, nil
}

// GetBooking retrieves a booking by its ID.
func (repo *MongoSchedulerRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}
	if err != nil {
		return nil, classifyError("get booking", err)
	}
	return &booking, nil
}

// ListEndedConfirmed returns confirmed bookings that ended at or before the given instant.
func (repo *MongoSchedulerRepo) ListEndedConfirmed(ctx context.Context, before time.Time, limit int) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"status": models.BookingConfirmed,
		"endAt":  bson.M{"$lte": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "endAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, classifyError("list ended bookings", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, classifyError("decode ended bookings", err)
	}
	return bookings, nil
}

func findBookings(ctx context.Context, coll *mongo.Collection, providerID, date string) ([]models.Booking, error) {
	filter := bson.M{"providerId": providerID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "startAt", Value: 1}})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}
