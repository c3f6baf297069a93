package models

import "time"

const (
	DefaultAdvanceBookingDays = 60
	DefaultOpenTime           = "09:00"
	DefaultCloseTime          = "17:00"
	DefaultSlotStepMinutes    = 30
	DefaultTimeZone           = "UTC"

	// MinServiceDuration is the shortest bookable service, in minutes.
	MinServiceDuration = 5
)

// Service is an entry of an artist's catalogue.
type Service struct {
	ID              string  `bson:"id" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Category        string  `bson:"category" json:"category"`
	Price           float64 `bson:"price" json:"price"`
	DurationMinutes int     `bson:"durationMinutes" json:"durationMinutes"`
	Active          bool    `bson:"active" json:"active"`
}

// Bookable reports whether the service can currently be booked.
func (s Service) Bookable() bool {
	return s.Active && s.DurationMinutes >= MinServiceDuration && s.Price >= 0
}

// BookingPolicy holds the provider's working hours and booking window.
type BookingPolicy struct {
	AdvanceBookingDays int    `bson:"advanceBookingDays" json:"advanceBookingDays"`
	OpenTime           string `bson:"openTime" json:"openTime"`   // "HH:MM"
	CloseTime          string `bson:"closeTime" json:"closeTime"` // "HH:MM", "24:00" allowed
	SlotStepMinutes    int    `bson:"slotStepMinutes" json:"slotStepMinutes"`
	TimeZone           string `bson:"timeZone" json:"timeZone"`
}

// DefaultBookingPolicy is used for providers that never configured one.
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		AdvanceBookingDays: DefaultAdvanceBookingDays,
		OpenTime:           DefaultOpenTime,
		CloseTime:          DefaultCloseTime,
		SlotStepMinutes:    DefaultSlotStepMinutes,
		TimeZone:           DefaultTimeZone,
	}
}

// WithDefaults fills zero-valued fields from DefaultBookingPolicy.
func (p BookingPolicy) WithDefaults() BookingPolicy {
	d := DefaultBookingPolicy()
	if p.AdvanceBookingDays <= 0 {
		p.AdvanceBookingDays = d.AdvanceBookingDays
	}
	if p.OpenTime == "" {
		p.OpenTime = d.OpenTime
	}
	if p.CloseTime == "" {
		p.CloseTime = d.CloseTime
	}
	if p.SlotStepMinutes <= 0 {
		p.SlotStepMinutes = d.SlotStepMinutes
	}
	if p.TimeZone == "" {
		p.TimeZone = d.TimeZone
	}
	return p
}

// Location resolves the policy's time zone, falling back to UTC.
func (p BookingPolicy) Location() *time.Location {
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Profile struct {
	ProviderName string `bson:"providerName" json:"providerName,omitempty"`
	Email        string `bson:"email" json:"email,omitempty"`
	PhoneNumber  string `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	ProfileImage string `bson:"profileImage" json:"profileImage,omitempty"`
	Status       string `bson:"status" json:"status,omitempty"`
}

// Provider is an artist document from the "artists" collection.
type Provider struct {
	ID        string        `bson:"id" json:"id,omitempty"`
	Profile   Profile       `bson:"profile" json:"profile"`
	Services  []Service     `bson:"services" json:"services,omitempty"`
	Policy    BookingPolicy `bson:"bookingPolicy" json:"bookingPolicy"`
	FCMToken  string        `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// FindService returns the catalogue entry with the given id.
func (p Provider) FindService(serviceID string) (Service, bool) {
	for _, s := range p.Services {
		if s.ID == serviceID {
			return s, true
		}
	}
	return Service{}, false
}
