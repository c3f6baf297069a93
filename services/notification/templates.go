package notification

import (
	"fmt"

	"beautybook/models"
)

// NewBookingNotification renders the push for a booking event addressed to one party.
func NewBookingNotification(t models.NotificationType, recipientID string, role models.Role, b models.Booking) models.NotificationPayload {
	when := fmt.Sprintf("%s at %s", b.Date, b.StartTime)

	var title, body string
	switch t {
	case models.NotificationBookingRequested:
		title = "New booking request"
		body = fmt.Sprintf("%s requested for %s.", b.ServiceName, when)
	case models.NotificationBookingConfirmed:
		title = "Booking confirmed"
		body = fmt.Sprintf("Your %s on %s is confirmed.", b.ServiceName, when)
	case models.NotificationBookingCancelled:
		title = "Booking cancelled"
		body = fmt.Sprintf("%s on %s was cancelled.", b.ServiceName, when)
		if b.CancelReason != "" {
			body = fmt.Sprintf("%s on %s was cancelled: %s", b.ServiceName, when, b.CancelReason)
		}
	case models.NotificationBookingReminder:
		title = "Upcoming appointment"
		body = fmt.Sprintf("Reminder: %s on %s.", b.ServiceName, when)
	default:
		title = "Booking update"
		body = fmt.Sprintf("%s on %s is now %s.", b.ServiceName, when, b.Status)
	}

	return models.NotificationPayload{
		RecipientID: recipientID,
		Role:        role,
		Type:        t,
		Title:       title,
		Body:        body,
		Data: map[string]string{
			"bookingId":  b.ID,
			"providerId": b.ProviderID,
			"date":       b.Date,
			"startTime":  b.StartTime,
			"status":     string(b.Status),
			"role":       string(role),
		},
	}
}
