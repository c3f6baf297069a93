package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beautybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const writeConflictCode = 112

type calendarBucket struct {
	ProviderID string    `bson:"providerId"`
	Date       string    `bson:"date"`
	Version    int64     `bson:"version"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

// mongoCalendarTx performs its writes inside the session; they become visible on commit.
type mongoCalendarTx struct {
	sc       mongo.SessionContext
	coll     *mongo.Collection
	bookings []models.Booking
	dirty    bool
}

func (tx *mongoCalendarTx) Bookings() []models.Booking {
	out := make([]models.Booking, len(tx.bookings))
	copy(out, tx.bookings)
	return out
}

func (tx *mongoCalendarTx) AppendBooking(b *models.Booking) error {
	if _, err := tx.coll.InsertOne(tx.sc, b); err != nil {
		return classifyError("insert booking", err)
	}
	tx.bookings = append(tx.bookings, *b)
	tx.dirty = true
	return nil
}

func (tx *mongoCalendarTx) UpdateBookingStatus(bookingID string, from models.BookingStatus, upd models.StatusUpdate) error {
	res, err := tx.coll.UpdateOne(tx.sc, bson.M{"id": bookingID, "status": from}, statusUpdateDoc(upd))
	if err != nil {
		return classifyError("update booking status", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s: %w", bookingID, ErrStatusMismatch)
	}
	for i := range tx.bookings {
		if tx.bookings[i].ID == bookingID {
			tx.bookings[i].Apply(upd)
		}
	}
	tx.dirty = true
	return nil
}

// RunInCalendar reads the bucket version and the bookings of the provider-date inside a
// snapshot transaction, runs fn, and commits only if the bucket version is unchanged.
func (repo *MongoSchedulerRepo) RunInCalendar(ctx context.Context, providerID, date string, fn func(tx CalendarTx) error) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return classifyError("start session", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	// fnErr keeps fn's error apart from store errors so it is never reclassified. Writes
	// made through tx classify their own driver errors.
	var fnErr error
	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(txnOpts); err != nil {
			return err
		}

		version, err := repo.readBucketVersion(sc, providerID, date)
		if err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		bookings, err := findBookings(sc, repo.bookingColl, providerID, date)
		if err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}

		tx := &mongoCalendarTx{sc: sc, coll: repo.bookingColl, bookings: bookings}
		if err := fn(tx); err != nil {
			_ = sc.AbortTransaction(sc)
			fnErr = err
			return err
		}
		if !tx.dirty {
			return sc.CommitTransaction(sc)
		}
		if err := repo.bumpBucket(sc, providerID, date, version); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return classifyError("calendar transaction", err)
	}
	return nil
}

func (repo *MongoSchedulerRepo) readBucketVersion(sc mongo.SessionContext, providerID, date string) (int64, error) {
	var bucket calendarBucket
	err := repo.bucketColl.FindOne(sc, bson.M{"providerId": providerID, "date": date}).Decode(&bucket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bucket.Version, nil
}

// bumpBucket advances the bucket version with a compare-and-set on the version read.
// If another writer got there first the filter misses, the upsert collides with the
// unique {providerId, date} index, and the duplicate key is reported as contention.
func (repo *MongoSchedulerRepo) bumpBucket(sc mongo.SessionContext, providerID, date string, version int64) error {
	filter := bson.M{"providerId": providerID, "date": date, "version": version}
	update := bson.M{"$set": bson.M{"version": version + 1, "updatedAt": time.Now().UTC()}}
	_, err := repo.bucketColl.UpdateOne(sc, filter, update, options.Update().SetUpsert(true))
	return err
}

// classifyError maps driver errors onto the repository sentinels.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrCalendarContention, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(writeConflictCode)) {
		return fmt.Errorf("%s: %w: %w", op, ErrCalendarContention, err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
