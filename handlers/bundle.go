package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers registered by routes.
type HandlerBundle struct {
	// Booking endpoints
	RequestBookingHandler  gin.HandlerFunc
	GetBookingHandler      gin.HandlerFunc
	ConfirmBookingHandler  gin.HandlerFunc
	CancelBookingHandler   gin.HandlerFunc
	CompleteBookingHandler gin.HandlerFunc

	// Calendar endpoints
	GetAvailabilityHandler gin.HandlerFunc
	GetCalendarHandler     gin.HandlerFunc
	WatchCalendarHandler   gin.HandlerFunc

	// Device endpoints
	UpdateFCMTokenHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handlers to their collaborators.
func NewHandlerBundle(bookings *BookingHandler, calendar *CalendarHandler, devices *DeviceHandler) *HandlerBundle {
	return &HandlerBundle{
		RequestBookingHandler:  bookings.RequestBookingHandler,
		GetBookingHandler:      bookings.GetBookingHandler,
		ConfirmBookingHandler:  bookings.ConfirmBookingHandler,
		CancelBookingHandler:   bookings.CancelBookingHandler,
		CompleteBookingHandler: bookings.CompleteBookingHandler,

		GetAvailabilityHandler: calendar.GetAvailabilityHandler,
		GetCalendarHandler:     calendar.GetCalendarHandler,
		WatchCalendarHandler:   calendar.WatchCalendarHandler,

		UpdateFCMTokenHandler: devices.UpdateFCMTokenHandler,
	}
}
