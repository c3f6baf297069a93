package booking

import (
	"context"
	"time"

	schedulerRepo "beautybook/database/repository/scheduler"
	"beautybook/models"
)

// SchedulingEngine owns the provider calendars: availability, booking requests and the
// booking lifecycle.
type SchedulingEngine interface {
	// RequestBooking validates and persists a pending booking on behalf of a client.
	RequestBooking(ctx context.Context, req BookingRequest) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	// GetAvailability annotates the provider's slot grid for one service and date.
	GetAvailability(ctx context.Context, q AvailabilityQuery) (*models.AvailabilityResult, error)
	// GetCalendar lists the pending and confirmed bookings of a provider-date.
	GetCalendar(ctx context.Context, actor models.Actor, providerID, date string) (*models.CalendarDay, error)
	WatchCalendar(ctx context.Context, providerID string) (schedulerRepo.Subscription, error)
	// SweepCompleted completes confirmed bookings whose interval has ended.
	SweepCompleted(ctx context.Context) (int, error)
}

// ProfileStore resolves catalogue entries and booking policies.
type ProfileStore interface {
	GetService(ctx context.Context, providerID, serviceID string) (*models.Service, error)
	GetProviderPolicy(ctx context.Context, providerID string) (*models.BookingPolicy, error)
}

// Dispatcher delivers notifications on a best-effort basis.
type Dispatcher interface {
	Notify(ctx context.Context, n models.NotificationPayload) error
	NotifyAt(ctx context.Context, n models.NotificationPayload, fireAt time.Time) error
	// CancelReminders withdraws the reminders scheduled for a booking.
	CancelReminders(ctx context.Context, bookingID string) error
}

type BookingRequest struct {
	ClientID     string `json:"-"`
	ProviderID   string `json:"providerId"`
	ServiceID    string `json:"serviceId"`
	Date         string `json:"date"`      // YYYY-MM-DD, provider time zone
	StartTime    string `json:"startTime"` // HH:MM, provider time zone
	Notes        string `json:"notes"`
	ContactPhone string `json:"contactPhone"`
	// SessionID identifies the client's booking flow; its snapshot is dropped on submit.
	SessionID string `json:"sessionId"`
}

type AvailabilityQuery struct {
	ProviderID string
	ServiceID  string
	Date       string
	SessionID  string
}
