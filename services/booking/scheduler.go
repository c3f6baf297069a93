package booking

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	schedulerRepo "beautybook/database/repository/scheduler"
	"beautybook/metrics"
	"beautybook/models"
	"beautybook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepBatchSize = 200

// DefaultSchedulingEngine is the production implementation of SchedulingEngine. Creation and
// confirmation run inside a calendar transaction on the provider-date, so the overlap check
// and the write commit together or not at all.
type DefaultSchedulingEngine struct {
	Repo      schedulerRepo.SchedulerRepository
	Profiles  ProfileStore
	Notifier  Dispatcher
	Snapshots SnapshotCache // nil disables booking-flow snapshots

	MaxAttempts   int
	RetryBase     time.Duration
	ReminderLead  time.Duration
	NotifyTimeout time.Duration

	Now    func() time.Time
	Logger *zap.Logger
}

func NewDefaultSchedulingEngine(repo schedulerRepo.SchedulerRepository, profiles ProfileStore, notifier Dispatcher) *DefaultSchedulingEngine {
	return &DefaultSchedulingEngine{
		Repo:        repo,
		Profiles:    profiles,
		Notifier:    notifier,
		MaxAttempts: defaultMaxAttempts,
		RetryBase:   defaultRetryBase,
	}
}

func (se *DefaultSchedulingEngine) now() time.Time {
	if se.Now != nil {
		return se.Now()
	}
	return time.Now()
}

func (se *DefaultSchedulingEngine) logger() *zap.Logger {
	if se.Logger != nil {
		return se.Logger
	}
	return utils.GetLogger()
}

// RequestBooking checks, in order: the start is in the future, the service is offered, the
// interval is free, and the date is inside the booking window.
func (se *DefaultSchedulingEngine) RequestBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	if err := validateRequestInput(req); err != nil {
		return nil, err
	}
	policy, err := se.policyFor(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	loc := policy.Location()
	now := se.now()

	start, err := parseStart(req.Date, req.StartTime, loc)
	if err != nil {
		metrics.IncBookingRejected("invalid_time")
		return nil, err
	}
	if !start.After(now) {
		metrics.IncBookingRejected("invalid_time")
		return nil, &InvalidTimeError{Reason: "start time must be in the future"}
	}

	svc, err := se.bookableService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		metrics.IncBookingRejected("unknown_service")
		return nil, err
	}
	iv := models.NewInterval(start, svc.DurationMinutes)
	if dayEnd := atMinute(start, minutesDay); iv.End.After(dayEnd) {
		metrics.IncBookingRejected("invalid_time")
		return nil, &InvalidTimeError{Reason: "booking must end by midnight of its date"}
	}

	// the flow is submitting: whatever the client looked at is stale from here on
	if se.Snapshots != nil && req.SessionID != "" {
		if err := se.Snapshots.Invalidate(ctx, req.SessionID); err != nil {
			se.logger().Warn("Failed to invalidate calendar snapshot", zap.String("sessionID", req.SessionID), zap.Error(err))
		}
	}

	date := start.Format(dateLayout)
	booking := models.Booking{
		ID:              uuid.NewString(),
		ClientID:        req.ClientID,
		ProviderID:      req.ProviderID,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ServiceCategory: svc.Category,
		ServicePrice:    svc.Price,
		ServiceDuration: svc.DurationMinutes,
		Date:            date,
		StartTime:       start.Format(clockLayout),
		StartAt:         iv.Start.UTC(),
		EndAt:           iv.End.UTC(),
		Status:          models.BookingPending,
		Notes:           req.Notes,
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		CreatedAt:       now.UTC(),
	}

	err = se.withRetry(ctx, "request booking", func() error {
		return se.Repo.RunInCalendar(ctx, req.ProviderID, date, func(tx schedulerRepo.CalendarTx) error {
			if conflict, ok := FirstConflict(iv, models.ActiveIntervals(tx.Bookings())); ok {
				return &SlotConflictError{Conflicting: conflict}
			}
			if outOfWindow(date, now, policy, loc) {
				return &OutOfWindowError{Date: date, MaxDays: policy.AdvanceBookingDays}
			}
			b := booking
			return tx.AppendBooking(&b)
		})
	})
	if err != nil {
		se.recordRejection(err)
		se.logger().Info("Booking request rejected",
			zap.String("providerID", req.ProviderID), zap.String("date", date),
			zap.String("startTime", booking.StartTime), zap.Error(err))
		return nil, err
	}

	metrics.IncBookingTransition(string(models.BookingPending))
	se.logger().Info("Booking requested",
		zap.String("bookingID", booking.ID), zap.String("providerID", booking.ProviderID),
		zap.String("interval", iv.String()))
	se.notify(ctx, booking.ProviderID, models.RoleProvider, models.NotificationBookingRequested, booking)
	return &booking, nil
}

// ConfirmBooking re-validates the interval against every other active booking inside the
// calendar transaction, since another request may have been confirmed in the meantime.
func (se *DefaultSchedulingEngine) ConfirmBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isProviderOwner(actor, b) {
		return nil, &ForbiddenError{Reason: "only the booked provider can confirm"}
	}
	if err := checkTransition(b.Status, models.BookingConfirmed); err != nil {
		return nil, err
	}

	upd := models.StatusUpdate{Status: models.BookingConfirmed, At: se.now().UTC()}
	var confirmed models.Booking
	err = se.withRetry(ctx, "confirm booking", func() error {
		return se.Repo.RunInCalendar(ctx, b.ProviderID, b.Date, func(tx schedulerRepo.CalendarTx) error {
			var current *models.Booking
			var others []models.TimeInterval
			for _, x := range tx.Bookings() {
				if x.ID == bookingID {
					c := x
					current = &c
					continue
				}
				if x.Status.IsActive() {
					others = append(others, x.Interval())
				}
			}
			if current == nil {
				return &NotFoundError{BookingID: bookingID}
			}
			if err := checkTransition(current.Status, models.BookingConfirmed); err != nil {
				return err
			}
			if conflict, ok := FirstConflict(current.Interval(), others); ok {
				return &SlotConflictError{Conflicting: conflict}
			}
			if err := tx.UpdateBookingStatus(bookingID, models.BookingPending, upd); err != nil {
				return err
			}
			current.Apply(upd)
			confirmed = *current
			return nil
		})
	})
	if errors.Is(err, schedulerRepo.ErrStatusMismatch) {
		err = se.staleTransition(ctx, bookingID, models.BookingConfirmed)
	}
	if err != nil {
		se.recordRejection(err)
		return nil, err
	}

	metrics.IncBookingTransition(string(models.BookingConfirmed))
	se.logger().Info("Booking confirmed", zap.String("bookingID", bookingID), zap.String("providerID", b.ProviderID))
	se.notify(ctx, confirmed.ClientID, models.RoleClient, models.NotificationBookingConfirmed, confirmed)
	se.scheduleReminders(ctx, confirmed)
	return &confirmed, nil
}

// CancelBooking frees the interval. Clients may cancel their own bookings; providers must
// give a reason. The other party is notified.
func (se *DefaultSchedulingEngine) CancelBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	b, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	byProvider := isProviderOwner(actor, b)
	if !byProvider && !isClientOwner(actor, b) {
		return nil, &ForbiddenError{Reason: "only the client or provider of a booking can cancel it"}
	}
	if err := checkTransition(b.Status, models.BookingCancelled); err != nil {
		se.recordRejection(err)
		return nil, err
	}
	if byProvider && reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required when the provider cancels"}
	}
	if utf8.RuneCountInString(reason) > maxCancelReasonLn {
		return nil, &ValidationError{Field: "reason", Message: "is too long"}
	}

	upd := models.StatusUpdate{
		Status:       models.BookingCancelled,
		At:           se.now().UTC(),
		CancelReason: reason,
		CancelledBy:  actor.Role,
	}
	cancelled, err := se.guardedTransition(ctx, b, upd)
	if err != nil {
		se.recordRejection(err)
		return nil, err
	}

	metrics.IncBookingTransition(string(models.BookingCancelled))
	se.logger().Info("Booking cancelled",
		zap.String("bookingID", bookingID), zap.String("by", string(actor.Role)))
	se.cancelReminders(ctx, *cancelled)
	if actor.Role == models.RoleClient {
		se.notify(ctx, cancelled.ProviderID, models.RoleProvider, models.NotificationBookingCancelled, *cancelled)
	} else {
		se.notify(ctx, cancelled.ClientID, models.RoleClient, models.NotificationBookingCancelled, *cancelled)
	}
	return cancelled, nil
}

// CompleteBooking closes a confirmed booking once its interval has ended.
func (se *DefaultSchedulingEngine) CompleteBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSystem && !isProviderOwner(actor, b) {
		return nil, &ForbiddenError{Reason: "only the booked provider can complete"}
	}
	if err := checkTransition(b.Status, models.BookingCompleted); err != nil {
		return nil, err
	}
	now := se.now()
	if now.Before(b.EndAt) {
		return nil, &InvalidTimeError{Reason: "booking has not ended yet"}
	}

	completed, err := se.guardedTransition(ctx, b, models.StatusUpdate{Status: models.BookingCompleted, At: now.UTC()})
	if err != nil {
		se.recordRejection(err)
		return nil, err
	}
	metrics.IncBookingTransition(string(models.BookingCompleted))
	se.logger().Info("Booking completed", zap.String("bookingID", bookingID), zap.String("by", string(actor.Role)))
	return completed, nil
}

// guardedTransition applies a transition that only releases calendar time. It is a single
// status-guarded write; if the status moved on meanwhile the transition is re-checked
// against the fresh status.
func (se *DefaultSchedulingEngine) guardedTransition(ctx context.Context, b *models.Booking, upd models.StatusUpdate) (*models.Booking, error) {
	if err := checkTransition(b.Status, upd.Status); err != nil {
		return nil, err
	}
	from := b.Status
	var updated *models.Booking
	err := se.withRetry(ctx, "update booking status", func() error {
		var err error
		updated, err = se.Repo.UpdateBookingStatus(ctx, b.ID, from, upd)
		if !errors.Is(err, schedulerRepo.ErrStatusMismatch) {
			return err
		}
		fresh, ferr := se.loadBooking(ctx, b.ID)
		if ferr != nil {
			return ferr
		}
		if terr := checkTransition(fresh.Status, upd.Status); terr != nil {
			return terr
		}
		from = fresh.Status
		return schedulerRepo.ErrCalendarContention
	})
	if errors.Is(err, schedulerRepo.ErrBookingNotFound) {
		return nil, &NotFoundError{BookingID: b.ID}
	}
	return updated, err
}

// staleTransition explains a status-guard miss by re-reading the booking.
func (se *DefaultSchedulingEngine) staleTransition(ctx context.Context, bookingID string, to models.BookingStatus) error {
	fresh, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	return &InvalidTransitionError{From: fresh.Status, To: to}
}

func (se *DefaultSchedulingEngine) GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := se.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, b) {
		return nil, &ForbiddenError{Reason: "booking belongs to someone else"}
	}
	return b, nil
}

func (se *DefaultSchedulingEngine) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := se.Repo.GetBooking(ctx, bookingID)
	if errors.Is(err, schedulerRepo.ErrBookingNotFound) {
		return nil, &NotFoundError{BookingID: bookingID}
	}
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}
	return b, nil
}

// GetAvailability always derives from the store of record, except inside a booking flow
// where the session's time-stamped snapshot for the same provider-date is reused.
func (se *DefaultSchedulingEngine) GetAvailability(ctx context.Context, q AvailabilityQuery) (*models.AvailabilityResult, error) {
	if q.ProviderID == "" || q.ServiceID == "" {
		return nil, &ValidationError{Field: "serviceId", Message: "provider and service are required"}
	}
	policy, err := se.policyFor(ctx, q.ProviderID)
	if err != nil {
		return nil, err
	}
	loc := policy.Location()
	day, err := parseDate(q.Date, loc)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: err.Error()}
	}
	svc, err := se.bookableService(ctx, q.ProviderID, q.ServiceID)
	if err != nil {
		return nil, err
	}

	now := se.now()
	result := &models.AvailabilityResult{
		ProviderID:      q.ProviderID,
		ServiceID:       svc.ID,
		Date:            q.Date,
		DurationMinutes: svc.DurationMinutes,
	}

	snap, err := se.calendarSnapshot(ctx, q.SessionID, q.ProviderID, q.Date, now)
	if err != nil {
		return nil, err
	}
	result.FromSnapshot = snap.fromCache
	result.SnapshotAt = snap.TakenAt

	slots, err := GenerateSlots(q.Date, policy.OpenTime, policy.CloseTime, policy.SlotStepMinutes, svc.DurationMinutes, loc)
	if err != nil {
		return nil, &ValidationError{Field: "bookingPolicy", Message: err.Error()}
	}
	result.Slots = AnnotateAvailability(slots, snap.Busy, svc.DurationMinutes)

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	result.OutOfWindow = day.Before(today) || outOfWindow(q.Date, now, policy, loc)
	for i := range result.Slots {
		if result.OutOfWindow || !result.Slots[i].Start.After(now) {
			result.Slots[i].Available = false
		}
	}
	return result, nil
}

type calendarView struct {
	models.CalendarSnapshot
	fromCache bool
}

func (se *DefaultSchedulingEngine) calendarSnapshot(ctx context.Context, sessionID, providerID, date string, now time.Time) (calendarView, error) {
	useCache := se.Snapshots != nil && sessionID != ""
	if useCache {
		snap, ok, err := se.Snapshots.Get(ctx, sessionID, providerID, date)
		if err != nil {
			se.logger().Warn("Calendar snapshot lookup failed", zap.String("sessionID", sessionID), zap.Error(err))
		} else if ok {
			return calendarView{CalendarSnapshot: *snap, fromCache: true}, nil
		}
	}

	bookings, err := se.Repo.ReadBookings(ctx, providerID, date)
	if err != nil {
		return calendarView{}, &StoreUnavailableError{Err: err}
	}
	snap := models.CalendarSnapshot{
		ProviderID: providerID,
		Date:       date,
		Busy:       models.ActiveIntervals(bookings),
		TakenAt:    now.UTC(),
	}
	if useCache {
		if err := se.Snapshots.Put(ctx, sessionID, snap); err != nil {
			se.logger().Warn("Failed to store calendar snapshot", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
	return calendarView{CalendarSnapshot: snap}, nil
}

// GetCalendar lists the active bookings of a provider-date. Client details are only
// returned to the provider who owns the calendar.
func (se *DefaultSchedulingEngine) GetCalendar(ctx context.Context, actor models.Actor, providerID, date string) (*models.CalendarDay, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	bookings, err := se.Repo.ReadBookings(ctx, providerID, date)
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}
	owner := actor.Role == models.RoleSystem || (actor.Role == models.RoleProvider && actor.ID == providerID)
	day := &models.CalendarDay{ProviderID: providerID, Date: date, Entries: []models.CalendarEntry{}}
	for _, b := range bookings {
		if !b.Status.IsActive() {
			continue
		}
		day.Entries = append(day.Entries, models.CalendarEntry{BookingID: b.ID, Status: b.Status, Interval: b.Interval()})
		if owner {
			day.Bookings = append(day.Bookings, b)
		}
	}
	return day, nil
}

func (se *DefaultSchedulingEngine) WatchCalendar(ctx context.Context, providerID string) (schedulerRepo.Subscription, error) {
	sub, err := se.Repo.Watch(ctx, providerID)
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}
	return sub, nil
}

// SweepCompleted completes every confirmed booking that has ended. Individual failures are
// logged and skipped.
func (se *DefaultSchedulingEngine) SweepCompleted(ctx context.Context) (int, error) {
	ended, err := se.Repo.ListEndedConfirmed(ctx, se.now(), sweepBatchSize)
	if err != nil {
		return 0, &StoreUnavailableError{Err: err}
	}
	done := 0
	for _, b := range ended {
		if _, err := se.CompleteBooking(ctx, models.SystemActor, b.ID); err != nil {
			se.logger().Warn("Failed to complete booking", zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}

func (se *DefaultSchedulingEngine) recordRejection(err error) {
	var (
		conflict   *SlotConflictError
		window     *OutOfWindowError
		transition *InvalidTransitionError
	)
	switch {
	case errors.As(err, &conflict):
		metrics.IncBookingRejected("slot_conflict")
	case errors.As(err, &window):
		metrics.IncBookingRejected("out_of_window")
	case errors.As(err, &transition):
		metrics.IncBookingRejected("invalid_transition")
	}
}
