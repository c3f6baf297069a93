package handlers

import (
	"io"
	"net/http"
	"time"

	"beautybook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const watchHeartbeat = 25 * time.Second

type CalendarHandler struct {
	Engine booking.SchedulingEngine
}

func NewCalendarHandler(engine booking.SchedulingEngine) *CalendarHandler {
	return &CalendarHandler{Engine: engine}
}

// GetAvailabilityHandler serves the annotated slot grid. Passing sessionId lets the
// booking flow reuse its calendar snapshot for the same provider and date.
func (h *CalendarHandler) GetAvailabilityHandler(c *gin.Context) {
	q := booking.AvailabilityQuery{
		ProviderID: c.Param("providerID"),
		ServiceID:  c.Query("serviceId"),
		Date:       c.Query("date"),
		SessionID:  c.Query("sessionId"),
	}
	res, err := h.Engine.GetAvailability(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetCalendarHandler returns a provider's day. Callers other than that provider only see
// booking ids, statuses and intervals.
func (h *CalendarHandler) GetCalendarHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	day, err := h.Engine.GetCalendar(c.Request.Context(), actor, c.Param("providerID"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// WatchCalendarHandler streams calendar events as server-sent events until the client
// disconnects.
func (h *CalendarHandler) WatchCalendarHandler(c *gin.Context) {
	logger := getLogger(c)
	providerID := c.Param("providerID")

	sub, err := h.Engine.WatchCalendar(c.Request.Context(), providerID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(watchHeartbeat)
	defer heartbeat.Stop()

	logger.Debug("Calendar watch opened", zap.String("providerID", providerID))
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	logger.Debug("Calendar watch closed", zap.String("providerID", providerID))
}
