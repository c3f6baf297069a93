package models

import "time"

// AvailableSlot is a candidate start time annotated with its availability.
type AvailableSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Label     string    `json:"label"` // "15:04" in the provider's time zone
	Available bool      `json:"available"`
}

// AvailabilityResult is the availability grid of one provider, service and date.
type AvailabilityResult struct {
	ProviderID      string          `json:"providerId"`
	ServiceID       string          `json:"serviceId"`
	Date            string          `json:"date"`
	DurationMinutes int             `json:"durationMinutes"`
	Slots           []AvailableSlot `json:"slots"`
	OutOfWindow     bool            `json:"outOfWindow,omitempty"`
	FromSnapshot    bool            `json:"fromSnapshot,omitempty"`
	SnapshotAt      time.Time       `json:"snapshotAt"`
}

// CalendarSnapshot is a time-stamped copy of the booked intervals of one provider-date,
// cached for the duration of a client's booking flow.
type CalendarSnapshot struct {
	ProviderID string         `json:"providerId"`
	Date       string         `json:"date"`
	Busy       []TimeInterval `json:"busy"`
	TakenAt    time.Time      `json:"takenAt"`
}

// CalendarEventType tells watchers how a booking changed.
type CalendarEventType string

const (
	CalendarBookingCreated CalendarEventType = "created"
	CalendarBookingUpdated CalendarEventType = "updated"
)

// CalendarEvent is delivered to calendar watchers in commit order per provider.
// It carries no client details so any authenticated user may watch.
type CalendarEvent struct {
	Type       CalendarEventType `json:"type"`
	BookingID  string            `json:"bookingId"`
	ProviderID string            `json:"providerId"`
	Date       string            `json:"date"`
	Status     BookingStatus     `json:"status"`
	Interval   TimeInterval      `json:"interval"`
}

// NewCalendarEvent projects a booking into a watcher event.
func NewCalendarEvent(eventType CalendarEventType, b Booking) CalendarEvent {
	return CalendarEvent{
		Type:       eventType,
		BookingID:  b.ID,
		ProviderID: b.ProviderID,
		Date:       b.Date,
		Status:     b.Status,
		Interval:   b.Interval(),
	}
}

// CalendarEntry is the public view of a booking on a provider's calendar.
type CalendarEntry struct {
	BookingID string        `json:"bookingId"`
	Status    BookingStatus `json:"status"`
	Interval  TimeInterval  `json:"interval"`
}

// CalendarDay lists the active bookings of one provider-date. Bookings is only filled
// for the provider who owns the calendar; everyone else gets the entries.
type CalendarDay struct {
	ProviderID string          `json:"providerId"`
	Date       string          `json:"date"`
	Entries    []CalendarEntry `json:"entries"`
	Bookings   []Booking       `json:"bookings,omitempty"`
}
