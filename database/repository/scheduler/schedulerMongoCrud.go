package schedulerRepo

import (
	"context"
	"errors"
	"fmt"

	"beautybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpdateBookingStatus moves a booking from one status to another in a single
// status-guarded write. The calendar bucket is not touched: these transitions only
// release calendar time and can never create an overlap.
func (repo *MongoSchedulerRepo) UpdateBookingStatus(ctx context.Context, bookingID string, from models.BookingStatus, upd models.StatusUpdate) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": from}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := repo.bookingColl.FindOneAndUpdate(ctx, filter, statusUpdateDoc(upd), opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repo.missOrMismatch(ctx, bookingID)
	}
	if err != nil {
		return nil, classifyError("update booking status", err)
	}
	return &updated, nil
}

// missOrMismatch tells a missing booking apart from one whose status moved on.
func (repo *MongoSchedulerRepo) missOrMismatch(ctx context.Context, bookingID string) error {
	n, err := repo.bookingColl.CountDocuments(ctx, bson.M{"id": bookingID})
	if err != nil {
		return classifyError("count booking", err)
	}
	if n == 0 {
		return fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}
	return fmt.Errorf("booking %s: %w", bookingID, ErrStatusMismatch)
}

func statusUpdateDoc(upd models.StatusUpdate) bson.M {
	set := bson.M{"status": upd.Status}
	switch upd.Status {
	case models.BookingConfirmed:
		set["confirmedAt"] = upd.At
	case models.BookingCancelled:
		set["cancelledAt"] = upd.At
		set["cancelReason"] = upd.CancelReason
		set["cancelledBy"] = upd.CancelledBy
	case models.BookingCompleted:
		set["completedAt"] = upd.At
	}
	return bson.M{"$set": set}
}
