package booking

import "beautybook/models"

var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCancelled, models.BookingCompleted},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to models.BookingStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.BookingStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

func isClientOwner(actor models.Actor, b *models.Booking) bool {
	return actor.Role == models.RoleClient && actor.ID == b.ClientID
}

func isProviderOwner(actor models.Actor, b *models.Booking) bool {
	return actor.Role == models.RoleProvider && actor.ID == b.ProviderID
}

func canView(actor models.Actor, b *models.Booking) bool {
	return actor.Role == models.RoleSystem || isClientOwner(actor, b) || isProviderOwner(actor, b)
}
