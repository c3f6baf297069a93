package booking

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"beautybook/models"
)

const (
	MaxNotesLength    = 1000
	maxPhoneLength    = 32
	maxCancelReasonLn = 500
)

func validateRequestInput(req BookingRequest) error {
	switch {
	case strings.TrimSpace(req.ClientID) == "":
		return &ValidationError{Field: "clientId", Message: "is required"}
	case strings.TrimSpace(req.ProviderID) == "":
		return &ValidationError{Field: "providerId", Message: "is required"}
	case strings.TrimSpace(req.ServiceID) == "":
		return &ValidationError{Field: "serviceId", Message: "is required"}
	case utf8.RuneCountInString(req.Notes) > MaxNotesLength:
		return &ValidationError{Field: "notes", Message: "must be at most 1000 characters"}
	case utf8.RuneCountInString(req.ContactPhone) > maxPhoneLength:
		return &ValidationError{Field: "contactPhone", Message: "is too long"}
	}
	return nil
}

// policyFor returns the provider's policy with defaults applied. Providers that never
// configured one get the default policy.
func (se *DefaultSchedulingEngine) policyFor(ctx context.Context, providerID string) (models.BookingPolicy, error) {
	p, err := se.Profiles.GetProviderPolicy(ctx, providerID)
	if err != nil {
		return models.BookingPolicy{}, &StoreUnavailableError{Err: err}
	}
	if p == nil {
		return models.DefaultBookingPolicy(), nil
	}
	return p.WithDefaults(), nil
}

// bookableService resolves the catalogue entry or fails with UnknownServiceError.
func (se *DefaultSchedulingEngine) bookableService(ctx context.Context, providerID, serviceID string) (*models.Service, error) {
	svc, err := se.Profiles.GetService(ctx, providerID, serviceID)
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}
	if svc == nil || !svc.Bookable() {
		return nil, &UnknownServiceError{ProviderID: providerID, ServiceID: serviceID}
	}
	return svc, nil
}

// parseStart resolves a date and wall-clock start in the provider's time zone.
func parseStart(date, startTime string, loc *time.Location) (time.Time, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, &InvalidTimeError{Reason: err.Error()}
	}
	minute, err := parseClock(startTime)
	if err != nil || minute >= minutesDay {
		return time.Time{}, &InvalidTimeError{Reason: "malformed start time " + startTime}
	}
	start, ok := wallClock(day, minute)
	if !ok {
		return time.Time{}, &InvalidTimeError{Reason: startTime + " does not exist on " + date + " in " + loc.String()}
	}
	return start, nil
}

// windowEnd is the last calendar day that may be booked, relative to now in loc.
func windowEnd(now time.Time, policy models.BookingPolicy, loc *time.Location) time.Time {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, policy.AdvanceBookingDays)
}

func outOfWindow(date string, now time.Time, policy models.BookingPolicy, loc *time.Location) bool {
	day, err := parseDate(date, loc)
	if err != nil {
		return true
	}
	return day.After(windowEnd(now, policy, loc))
}
