package schedulerRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"beautybook/models"
)

// MemorySchedulerRepo is an in-process SchedulerRepository. Each provider-date carries a
// version that plays the role of the Mongo calendar bucket: a transaction reads it, stages
// its writes, and commits only if the version is unchanged.
type MemorySchedulerRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	versions map[string]int64
	subs     map[string]map[*queueSubscription]struct{}
}

func NewMemorySchedulerRepo() *MemorySchedulerRepo {
	return &MemorySchedulerRepo{
		bookings: make(map[string]models.Booking),
		versions: make(map[string]int64),
		subs:     make(map[string]map[*queueSubscription]struct{}),
	}
}

func bucketKey(providerID, date string) string {
	return providerID + "|" + date
}

func (repo *MemorySchedulerRepo) ReadBookings(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read bookings: %w: %w", ErrStoreUnavailable, err)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.bookingsLocked(providerID, date), nil
}

func (repo *MemorySchedulerRepo) bookingsLocked(providerID, date string) []models.Booking {
	out := []models.Booking{}
	for _, b := range repo.bookings {
		if b.ProviderID == providerID && b.Date == date {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

func (repo *MemorySchedulerRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	b, ok := repo.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}
	return &b, nil
}

type stagedStatus struct {
	id   string
	from models.BookingStatus
	upd  models.StatusUpdate
}

// memoryCalendarTx stages writes against a private copy of the provider-date.
type memoryCalendarTx struct {
	bookings []models.Booking
	inserts  []models.Booking
	updates  []stagedStatus
}

func (tx *memoryCalendarTx) Bookings() []models.Booking {
	out := make([]models.Booking, len(tx.bookings))
	copy(out, tx.bookings)
	return out
}

func (tx *memoryCalendarTx) AppendBooking(b *models.Booking) error {
	for _, existing := range tx.bookings {
		if existing.ID == b.ID {
			return fmt.Errorf("booking %s already exists", b.ID)
		}
	}
	tx.bookings = append(tx.bookings, *b)
	tx.inserts = append(tx.inserts, *b)
	return nil
}

func (tx *memoryCalendarTx) UpdateBookingStatus(bookingID string, from models.BookingStatus, upd models.StatusUpdate) error {
	for i := range tx.bookings {
		if tx.bookings[i].ID != bookingID {
			continue
		}
		if tx.bookings[i].Status != from {
			return fmt.Errorf("booking %s: %w", bookingID, ErrStatusMismatch)
		}
		tx.bookings[i].Apply(upd)
		tx.updates = append(tx.updates, stagedStatus{id: bookingID, from: from, upd: upd})
		return nil
	}
	return fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
}

// RunInCalendar runs fn outside the store lock so concurrent writers genuinely race;
// the version check at commit decides who wins.
func (repo *MemorySchedulerRepo) RunInCalendar(ctx context.Context, providerID, date string, fn func(tx CalendarTx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("calendar transaction: %w: %w", ErrStoreUnavailable, err)
	}
	key := bucketKey(providerID, date)

	repo.mu.Lock()
	version := repo.versions[key]
	tx := &memoryCalendarTx{bookings: repo.bookingsLocked(providerID, date)}
	repo.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.inserts) == 0 && len(tx.updates) == 0 {
		return nil
	}

	repo.mu.Lock()
	if repo.versions[key] != version {
		repo.mu.Unlock()
		return fmt.Errorf("calendar %s: %w", key, ErrCalendarContention)
	}
	for _, u := range tx.updates {
		if repo.bookings[u.id].Status != u.from {
			repo.mu.Unlock()
			return fmt.Errorf("calendar %s: %w", key, ErrCalendarContention)
		}
	}

	var events []models.CalendarEvent
	for _, b := range tx.inserts {
		repo.bookings[b.ID] = b
		events = append(events, models.NewCalendarEvent(models.CalendarBookingCreated, b))
	}
	for _, u := range tx.updates {
		b := repo.bookings[u.id]
		b.Apply(u.upd)
		repo.bookings[u.id] = b
		events = append(events, models.NewCalendarEvent(models.CalendarBookingUpdated, b))
	}
	repo.versions[key] = version + 1
	repo.publishLocked(providerID, events...)
	repo.mu.Unlock()
	return nil
}

func (repo *MemorySchedulerRepo) UpdateBookingStatus(ctx context.Context, bookingID string, from models.BookingStatus, upd models.StatusUpdate) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update booking status: %w: %w", ErrStoreUnavailable, err)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()

	b, ok := repo.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}
	if b.Status != from {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrStatusMismatch)
	}
	b.Apply(upd)
	repo.bookings[bookingID] = b
	repo.publishLocked(b.ProviderID, models.NewCalendarEvent(models.CalendarBookingUpdated, b))
	return &b, nil
}

func (repo *MemorySchedulerRepo) ListEndedConfirmed(ctx context.Context, before time.Time, limit int) ([]models.Booking, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var out []models.Booking
	for _, b := range repo.bookings {
		if b.Status == models.BookingConfirmed && !b.EndAt.After(before) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndAt.Before(out[j].EndAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Watch subscribes to the provider's calendar. Events are queued without bound so a
// slow watcher never blocks writers; each subscription drains its queue in order.
func (repo *MemorySchedulerRepo) Watch(ctx context.Context, providerID string) (Subscription, error) {
	sub := newQueueSubscription()

	repo.mu.Lock()
	if repo.subs[providerID] == nil {
		repo.subs[providerID] = make(map[*queueSubscription]struct{})
	}
	repo.subs[providerID][sub] = struct{}{}
	repo.mu.Unlock()

	sub.onClose = func() {
		repo.mu.Lock()
		delete(repo.subs[providerID], sub)
		if len(repo.subs[providerID]) == 0 {
			delete(repo.subs, providerID)
		}
		repo.mu.Unlock()
	}
	go sub.pump(ctx)
	return sub, nil
}

func (repo *MemorySchedulerRepo) publishLocked(providerID string, events ...models.CalendarEvent) {
	for sub := range repo.subs[providerID] {
		sub.enqueue(events...)
	}
}

type queueSubscription struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []models.CalendarEvent
	closed  bool
	events  chan models.CalendarEvent
	done    chan struct{}
	stop    chan struct{}
	once    sync.Once
	onClose func()
}

func newQueueSubscription() *queueSubscription {
	s := &queueSubscription{
		events: make(chan models.CalendarEvent),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *queueSubscription) Events() <-chan models.CalendarEvent { return s.events }

func (s *queueSubscription) enqueue(events ...models.CalendarEvent) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, events...)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *queueSubscription) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	go func() {
		select {
		case <-ctx.Done():
			s.shutdown()
		case <-s.stop:
		}
	}()

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.events <- ev:
		case <-s.stop:
			return
		}
	}
}

func (s *queueSubscription) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Broadcast()
		s.mu.Unlock()
		close(s.stop)
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// Close unsubscribes and waits until the pump goroutine has exited.
func (s *queueSubscription) Close() error {
	s.shutdown()
	<-s.done
	return nil
}
