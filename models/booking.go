package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// IsActive reports whether a booking in this status occupies calendar time.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Booking is an appointment between a client and a provider. The service fields are a
// snapshot taken at creation time; later catalogue edits never change them.
type Booking struct {
	ID              string        `bson:"id" json:"id"`
	ClientID        string        `bson:"clientId" json:"clientId"`
	ProviderID      string        `bson:"providerId" json:"providerId"`
	ServiceID       string        `bson:"serviceId" json:"serviceId"`
	ServiceName     string        `bson:"serviceName" json:"serviceName"`
	ServiceCategory string        `bson:"serviceCategory" json:"serviceCategory"`
	ServicePrice    float64       `bson:"servicePriceSnapshot" json:"servicePriceSnapshot"`
	ServiceDuration int           `bson:"serviceDurationMinutes" json:"serviceDurationMinutes"`
	Date            string        `bson:"date" json:"date"`           // "YYYY-MM-DD" in the provider's time zone
	StartTime       string        `bson:"startTime" json:"startTime"` // "HH:MM" in the provider's time zone
	StartAt         time.Time     `bson:"startAt" json:"startAt"`
	EndAt           time.Time     `bson:"endAt" json:"endAt"`
	Status          BookingStatus `bson:"status" json:"status"`
	Notes           string        `bson:"notes" json:"notes"`
	ContactPhone    string        `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	ConfirmedAt     *time.Time    `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time    `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CompletedAt     *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelReason    string        `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CancelledBy     Role          `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
}

// Interval returns the calendar time occupied by the booking.
func (b Booking) Interval() TimeInterval {
	return TimeInterval{Start: b.StartAt, End: b.EndAt}
}

// StatusUpdate describes a single status transition to persist.
type StatusUpdate struct {
	Status       BookingStatus
	At           time.Time
	CancelReason string
	CancelledBy  Role
}

// Apply mutates the booking to reflect the update.
func (b *Booking) Apply(u StatusUpdate) {
	at := u.At
	b.Status = u.Status
	switch u.Status {
	case BookingConfirmed:
		b.ConfirmedAt = &at
	case BookingCancelled:
		b.CancelledAt = &at
		b.CancelReason = u.CancelReason
		b.CancelledBy = u.CancelledBy
	case BookingCompleted:
		b.CompletedAt = &at
	}
}

// ActiveIntervals returns the intervals of pending and confirmed bookings.
func ActiveIntervals(bookings []Booking) []TimeInterval {
	out := make([]TimeInterval, 0, len(bookings))
	for _, b := range bookings {
		if b.Status.IsActive() {
			out = append(out, b.Interval())
		}
	}
	return out
}
