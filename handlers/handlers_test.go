package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	providerRepo "beautybook/database/repository/provider"
	schedulerRepo "beautybook/database/repository/scheduler"
	userRepo "beautybook/database/repository/user"
	"beautybook/middleware"
	"beautybook/models"
	"beautybook/services/booking"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockSchedulingEngine struct {
	mock.Mock
}

func (m *MockSchedulingEngine) booking(args mock.Arguments) (*models.Booking, error) {
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchedulingEngine) RequestBooking(ctx context.Context, req booking.BookingRequest) (*models.Booking, error) {
	return m.booking(m.Called(ctx, req))
}

func (m *MockSchedulingEngine) ConfirmBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockSchedulingEngine) CancelBooking(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, reason))
}

func (m *MockSchedulingEngine) CompleteBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockSchedulingEngine) GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockSchedulingEngine) GetAvailability(ctx context.Context, q booking.AvailabilityQuery) (*models.AvailabilityResult, error) {
	args := m.Called(ctx, q)
	if r := args.Get(0); r != nil {
		return r.(*models.AvailabilityResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchedulingEngine) GetCalendar(ctx context.Context, actor models.Actor, providerID, date string) (*models.CalendarDay, error) {
	args := m.Called(ctx, actor, providerID, date)
	if r := args.Get(0); r != nil {
		return r.(*models.CalendarDay), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchedulingEngine) WatchCalendar(ctx context.Context, providerID string) (schedulerRepo.Subscription, error) {
	args := m.Called(ctx, providerID)
	if s := args.Get(0); s != nil {
		return s.(schedulerRepo.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSchedulingEngine) SweepCompleted(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type chanSubscription struct {
	events chan models.CalendarEvent
	closed chan struct{}
}

func (s *chanSubscription) Events() <-chan models.CalendarEvent { return s.events }

func (s *chanSubscription) Close() error {
	close(s.closed)
	return nil
}

var (
	clientActor   = models.Actor{ID: "client-1", Role: models.RoleClient}
	providerActor = models.Actor{ID: "prov-1", Role: models.RoleProvider}
)

// asActor stands in for JWTAuthMiddleware.
func asActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalIDKey, actor.ID)
		c.Set(middleware.RoleKey, actor.Role)
		c.Next()
	}
}

func newRouter(engine booking.SchedulingEngine, actor models.Actor) *gin.Engine {
	bh := NewBookingHandler(engine)
	ch := NewCalendarHandler(engine)
	r := gin.New()
	api := r.Group("/api", asActor(actor))
	api.POST("/bookings", bh.RequestBookingHandler)
	api.GET("/bookings/:bookingID", bh.GetBookingHandler)
	api.POST("/bookings/:bookingID/confirm", bh.ConfirmBookingHandler)
	api.POST("/bookings/:bookingID/cancel", bh.CancelBookingHandler)
	api.POST("/bookings/:bookingID/complete", bh.CompleteBookingHandler)
	api.GET("/providers/:providerID/availability", ch.GetAvailabilityHandler)
	api.GET("/providers/:providerID/calendar", ch.GetCalendarHandler)
	api.GET("/providers/:providerID/calendar/watch", ch.WatchCalendarHandler)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestBookingHandler(t *testing.T) {
	engine := new(MockSchedulingEngine)
	expected := booking.BookingRequest{
		ClientID: "client-1", ProviderID: "prov-1", ServiceID: "nails-30",
		Date: "2025-06-01", StartTime: "11:00", SessionID: "sess-1",
	}
	engine.On("RequestBooking", mock.Anything, expected).
		Return(&models.Booking{ID: "b-1", Status: models.BookingPending}, nil).Once()

	body := `{"providerId":"prov-1","serviceId":"nails-30","date":"2025-06-01","startTime":"11:00","sessionId":"sess-1","clientId":"someone-else"}`
	w := do(newRouter(engine, clientActor), http.MethodPost, "/api/bookings", body)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "b-1", resp["bookingId"])
	engine.AssertExpectations(t)
}

func TestRequestBookingHandler_BadBody(t *testing.T) {
	engine := new(MockSchedulingEngine)
	w := do(newRouter(engine, clientActor), http.MethodPost, "/api/bookings", `{"providerId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	engine.AssertNotCalled(t, "RequestBooking", mock.Anything, mock.Anything)
}

func TestErrorMapping(t *testing.T) {
	conflict := models.TimeInterval{
		Start: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &booking.ValidationError{Field: "notes", Message: "too long"}, http.StatusBadRequest},
		{"invalid time", &booking.InvalidTimeError{Reason: "in the past"}, http.StatusBadRequest},
		{"unknown service", &booking.UnknownServiceError{ProviderID: "prov-1", ServiceID: "x"}, http.StatusNotFound},
		{"not found", &booking.NotFoundError{BookingID: "b-9"}, http.StatusNotFound},
		{"forbidden", &booking.ForbiddenError{Reason: "not yours"}, http.StatusForbidden},
		{"slot conflict", &booking.SlotConflictError{Conflicting: conflict}, http.StatusConflict},
		{"invalid transition", &booking.InvalidTransitionError{From: models.BookingCancelled, To: models.BookingConfirmed}, http.StatusConflict},
		{"out of window", &booking.OutOfWindowError{Date: "2026-01-01", MaxDays: 60}, http.StatusUnprocessableEntity},
		{"persistence conflict", &booking.PersistenceConflictError{Attempts: 3}, http.StatusConflict},
		{"store unavailable", &booking.StoreUnavailableError{Err: errors.New("no primary")}, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := new(MockSchedulingEngine)
			engine.On("ConfirmBooking", mock.Anything, providerActor, "b-1").Return(nil, tc.err)

			w := do(newRouter(engine, providerActor), http.MethodPost, "/api/bookings/b-1/confirm", "")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestSlotConflictCarriesInterval(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	engine := new(MockSchedulingEngine)
	engine.On("RequestBooking", mock.Anything, mock.Anything).
		Return(nil, &booking.SlotConflictError{Conflicting: models.NewInterval(start, 60)})

	w := do(newRouter(engine, clientActor), http.MethodPost, "/api/bookings",
		`{"providerId":"prov-1","serviceId":"nails-30","date":"2025-06-01","startTime":"10:30"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Code        string              `json:"code"`
		Conflicting models.TimeInterval `json:"conflicting"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "slot_conflict", resp.Code)
	assert.True(t, start.Equal(resp.Conflicting.Start))
}

func TestStoreUnavailableSetsRetryAfter(t *testing.T) {
	engine := new(MockSchedulingEngine)
	engine.On("GetBooking", mock.Anything, clientActor, "b-1").
		Return(nil, &booking.StoreUnavailableError{Err: errors.New("timeout")})

	w := do(newRouter(engine, clientActor), http.MethodGet, "/api/bookings/b-1", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestCancelBookingHandler(t *testing.T) {
	t.Run("reason from body", func(t *testing.T) {
		engine := new(MockSchedulingEngine)
		engine.On("CancelBooking", mock.Anything, providerActor, "b-1", "sick").
			Return(&models.Booking{ID: "b-1", Status: models.BookingCancelled}, nil).Once()

		w := do(newRouter(engine, providerActor), http.MethodPost, "/api/bookings/b-1/cancel", `{"reason":"sick"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("body is optional", func(t *testing.T) {
		engine := new(MockSchedulingEngine)
		engine.On("CancelBooking", mock.Anything, clientActor, "b-1", "").
			Return(&models.Booking{ID: "b-1", Status: models.BookingCancelled}, nil).Once()

		w := do(newRouter(engine, clientActor), http.MethodPost, "/api/bookings/b-1/cancel", "")
		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})
}

func TestCompleteBookingHandler(t *testing.T) {
	engine := new(MockSchedulingEngine)
	engine.On("CompleteBooking", mock.Anything, providerActor, "b-1").
		Return(&models.Booking{ID: "b-1", Status: models.BookingCompleted}, nil).Once()

	w := do(newRouter(engine, providerActor), http.MethodPost, "/api/bookings/b-1/complete", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed"`)
}

func TestGetAvailabilityHandler(t *testing.T) {
	engine := new(MockSchedulingEngine)
	q := booking.AvailabilityQuery{ProviderID: "prov-1", ServiceID: "hair-60", Date: "2025-06-01", SessionID: "sess-1"}
	engine.On("GetAvailability", mock.Anything, q).Return(&models.AvailabilityResult{
		ProviderID: "prov-1", ServiceID: "hair-60", Date: "2025-06-01", DurationMinutes: 60,
		Slots: []models.AvailableSlot{{Label: "09:00", Available: true}},
	}, nil).Once()

	w := do(newRouter(engine, clientActor), http.MethodGet,
		"/api/providers/prov-1/availability?serviceId=hair-60&date=2025-06-01&sessionId=sess-1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"09:00"`)
	engine.AssertExpectations(t)
}

func TestGetCalendarHandler(t *testing.T) {
	engine := new(MockSchedulingEngine)
	engine.On("GetCalendar", mock.Anything, providerActor, "prov-1", "2025-06-01").
		Return(&models.CalendarDay{
			ProviderID: "prov-1",
			Date:       "2025-06-01",
			Entries:    []models.CalendarEntry{{BookingID: "b-1"}, {BookingID: "b-2"}},
			Bookings:   []models.Booking{{ID: "b-1"}, {ID: "b-2"}},
		}, nil).Once()

	w := do(newRouter(engine, providerActor), http.MethodGet, "/api/providers/prov-1/calendar?date=2025-06-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Bookings []models.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Bookings, 2)
}

func TestWatchCalendarHandler(t *testing.T) {
	sub := &chanSubscription{events: make(chan models.CalendarEvent, 1), closed: make(chan struct{})}
	sub.events <- models.CalendarEvent{
		Type: models.CalendarBookingCreated, BookingID: "b-1", ProviderID: "prov-1", Status: models.BookingPending,
	}
	engine := new(MockSchedulingEngine)
	engine.On("WatchCalendar", mock.Anything, "prov-1").Return(sub, nil).Once()

	srv := httptest.NewServer(newRouter(engine, clientActor))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/providers/prov-1/calendar/watch", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event:created\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"bookingId":"b-1"`)

	cancel()
	select {
	case <-sub.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed after the client left")
	}
}

func TestUpdateFCMTokenHandler(t *testing.T) {
	users := userRepo.NewMemoryUserRepo()
	providers := providerRepo.NewMemoryProviderRepo(models.Provider{ID: "prov-1"})
	dh := NewDeviceHandler(users, providers)

	route := func(actor models.Actor) *gin.Engine {
		r := gin.New()
		r.PUT("/api/devices/fcm-token", asActor(actor), dh.UpdateFCMTokenHandler)
		return r
	}

	w := do(route(clientActor), http.MethodPut, "/api/devices/fcm-token", `{"token":"tok-client"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token, err := users.GetFCMToken(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-client", token)

	w = do(route(providerActor), http.MethodPut, "/api/devices/fcm-token", `{"token":"tok-prov"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token, err = providers.GetFCMToken(context.Background(), "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-prov", token)

	w = do(route(models.Actor{ID: "prov-unknown", Role: models.RoleProvider}), http.MethodPut, "/api/devices/fcm-token", `{"token":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(route(clientActor), http.MethodPut, "/api/devices/fcm-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
