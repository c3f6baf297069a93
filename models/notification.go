package models

// NotificationType names a booking lifecycle event delivered to a party.
type NotificationType string

const (
	NotificationBookingRequested NotificationType = "booking_requested"
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationBookingReminder  NotificationType = "booking_reminder"
)

// NotificationPayload is the queued unit of work for the push worker.
type NotificationPayload struct {
	RecipientID string            `json:"recipientId"`
	Role        Role              `json:"role"` // client or provider, selects the token source
	Type        NotificationType  `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
}
