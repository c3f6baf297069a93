package handlers

import (
	"errors"
	"net/http"

	"beautybook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const retryAfterSeconds = "5"

// respondError maps scheduling errors onto HTTP statuses. Anything unrecognised is a 500.
func respondError(c *gin.Context, err error) {
	logger := getLogger(c)

	var (
		validation  *booking.ValidationError
		invalidTime *booking.InvalidTimeError
		unknown     *booking.UnknownServiceError
		notFound    *booking.NotFoundError
		forbidden   *booking.ForbiddenError
		conflict    *booking.SlotConflictError
		transition  *booking.InvalidTransitionError
		window      *booking.OutOfWindowError
		contended   *booking.PersistenceConflictError
		unavailable *booking.StoreUnavailableError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &invalidTime):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidTime.Error()})
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, gin.H{"error": unknown.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":       conflict.Error(),
			"code":        "slot_conflict",
			"conflicting": conflict.Conflicting,
		})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"error": transition.Error(),
			"code":  "invalid_transition",
			"from":  transition.From,
		})
	case errors.As(err, &window):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": window.Error(), "maxDays": window.MaxDays})
	case errors.As(err, &contended):
		logger.Warn("Calendar contention exhausted retries", zap.Int("attempts", contended.Attempts))
		c.JSON(http.StatusConflict, gin.H{
			"error": "The calendar changed while booking, refresh availability and try again",
			"code":  "persistence_conflict",
		})
	case errors.As(err, &unavailable):
		logger.Error("Booking store unavailable", zap.Error(unavailable.Err))
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Booking service temporarily unavailable"})
	default:
		logger.Error("Unhandled scheduling error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
