package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beautybook",
			Name:      "booking_transitions_total",
			Help:      "Count of booking lifecycle events by resulting status.",
		},
		[]string{"status"},
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beautybook",
			Name:      "booking_rejected_total",
			Help:      "Count of rejected booking operations by reason.",
		},
		[]string{"reason"},
	)

	calendarAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "beautybook",
			Name:      "calendar_transaction_attempts",
			Help:      "Attempts needed to commit a calendar transaction.",
			Buckets:   []float64{1, 2, 3, 5},
		},
	)

	notificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beautybook",
			Name:      "notification_dispatch_failures_total",
			Help:      "Count of notifications that could not be dispatched.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingTransitions, bookingRejected, calendarAttempts, notificationFailures)
	})
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func ObserveCalendarAttempts(n int) {
	calendarAttempts.Observe(float64(n))
}

func IncNotificationFailure() {
	notificationFailures.Inc()
}
