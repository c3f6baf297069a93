package providerRepo

import (
	"context"
	"errors"

	"beautybook/models"
)

var ErrProviderNotFound = errors.New("provider not found")

// ProviderRepository is the read side of artist profiles used by the scheduler.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// GetService returns the catalogue entry, or nil if the provider or service is unknown.
	GetService(ctx context.Context, providerID, serviceID string) (*models.Service, error)
	// GetProviderPolicy returns the provider's booking policy, or nil if the provider is unknown.
	GetProviderPolicy(ctx context.Context, providerID string) (*models.BookingPolicy, error)
	GetFCMToken(ctx context.Context, providerID string) (string, error)
	// UpdateFCMToken registers the push token of an existing provider.
	UpdateFCMToken(ctx context.Context, providerID, token string) error
	// Upsert creates or replaces a provider document.
	Upsert(ctx context.Context, provider *models.Provider) error
}
