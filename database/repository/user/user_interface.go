package userRepo

import (
	"context"
	"errors"

	"beautybook/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository defines methods for client data access.
type UserRepository interface {
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetFCMToken returns the push token registered for the user.
	GetFCMToken(ctx context.Context, id string) (string, error)
	// UpdateFCMToken registers the push token of a user, creating the record if needed.
	UpdateFCMToken(ctx context.Context, id, token string) error
	// Upsert creates or replaces a user record.
	Upsert(ctx context.Context, user *models.User) error
}
