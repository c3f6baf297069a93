package booking

import (
	"fmt"

	"beautybook/models"
)

// InvalidTimeError rejects a start time that is malformed, not in the future, or an
// interval that cannot be used for the requested operation.
type InvalidTimeError struct {
	Reason string
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("invalid time: %s", e.Reason)
}

type UnknownServiceError struct {
	ProviderID string
	ServiceID  string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("service %s is not offered by provider %s", e.ServiceID, e.ProviderID)
}

// SlotConflictError carries the booked interval that overlaps the request, so the
// caller can re-render availability and let the user choose again.
type SlotConflictError struct {
	Conflicting models.TimeInterval
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with existing booking %s", e.Conflicting)
}

type OutOfWindowError struct {
	Date    string
	MaxDays int
}

func (e *OutOfWindowError) Error() string {
	return fmt.Sprintf("date %s is outside the %d-day booking window", e.Date, e.MaxDays)
}

type InvalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

// StoreUnavailableError is transient: the caller should retry later.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("booking store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// PersistenceConflictError means the calendar kept changing underneath us until the
// retry budget ran out. The caller must re-query availability and resubmit.
type PersistenceConflictError struct {
	Attempts int
	Err      error
}

func (e *PersistenceConflictError) Error() string {
	return fmt.Sprintf("calendar still contended after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PersistenceConflictError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type NotFoundError struct {
	BookingID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %s not found", e.BookingID)
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}
