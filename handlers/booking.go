package handlers

import (
	"net/http"

	"beautybook/middleware"
	"beautybook/models"
	"beautybook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Engine booking.SchedulingEngine
}

func NewBookingHandler(engine booking.SchedulingEngine) *BookingHandler {
	return &BookingHandler{Engine: engine}
}

// actorOrAbort reads the authenticated principal; the auth middleware guarantees one.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
		return models.Actor{}, false
	}
	return actor, true
}

// RequestBookingHandler creates a pending booking for the calling client.
func (h *BookingHandler) RequestBookingHandler(c *gin.Context) {
	logger := getLogger(c)
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req booking.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debug("Invalid booking request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	req.ClientID = actor.ID

	b, err := h.Engine.RequestBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bookingId": b.ID, "booking": b})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Engine.GetBooking(c.Request.Context(), actor, c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Engine.ConfirmBooking(c.Request.Context(), actor, c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// CancelBookingHandler accepts an optional {"reason"} body; providers must give one.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var body cancelBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	b, err := h.Engine.CancelBooking(c.Request.Context(), actor, c.Param("bookingID"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Engine.CompleteBooking(c.Request.Context(), actor, c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
