package schedulerRepo

import (
	"context"
	"errors"
	"time"

	"beautybook/models"
)

var (
	// ErrCalendarContention means another writer committed to the same provider-date
	// between our read and our commit. The caller may retry.
	ErrCalendarContention = errors.New("calendar modified concurrently")
	// ErrStoreUnavailable wraps network and timeout failures of the backing store.
	ErrStoreUnavailable = errors.New("booking store unavailable")
	ErrBookingNotFound  = errors.New("booking not found")
	// ErrStatusMismatch means a status-guarded update found the booking in another status.
	ErrStatusMismatch = errors.New("booking status changed")
)

// CalendarTx is the view of a single provider-date calendar inside a transaction.
// Writes are only visible to others once the enclosing RunInCalendar commits.
type CalendarTx interface {
	// Bookings returns every booking of the provider-date, in any status, ordered by start.
	Bookings() []models.Booking
	AppendBooking(b *models.Booking) error
	// UpdateBookingStatus applies upd if the booking is still in status from.
	UpdateBookingStatus(bookingID string, from models.BookingStatus, upd models.StatusUpdate) error
}

// Subscription delivers calendar events for one provider until closed.
type Subscription interface {
	Events() <-chan models.CalendarEvent
	Close() error
}

// SchedulerRepository is the persistence port of the scheduling engine.
type SchedulerRepository interface {
	// ReadBookings returns the bookings of a provider-date as of a consistent snapshot.
	ReadBookings(ctx context.Context, providerID, date string) ([]models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	// RunInCalendar runs fn against a consistent view of the provider-date and commits its
	// writes atomically. It returns ErrCalendarContention if any other write to the same
	// provider-date committed in between; errors returned by fn pass through untouched.
	RunInCalendar(ctx context.Context, providerID, date string, fn func(tx CalendarTx) error) error
	// UpdateBookingStatus is a single-document status-guarded update used for transitions
	// that only free calendar time.
	UpdateBookingStatus(ctx context.Context, bookingID string, from models.BookingStatus, upd models.StatusUpdate) (*models.Booking, error)
	// ListEndedConfirmed returns confirmed bookings whose end is not after before.
	ListEndedConfirmed(ctx context.Context, before time.Time, limit int) ([]models.Booking, error)
	Watch(ctx context.Context, providerID string) (Subscription, error)
}
