package providerRepo

import (
	"context"
	"fmt"
	"sync"

	"beautybook/models"
)

// MemoryProviderRepo keeps provider profiles in process. It backs the memory store driver
// and tests.
type MemoryProviderRepo struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
}

func NewMemoryProviderRepo(seed ...models.Provider) *MemoryProviderRepo {
	r := &MemoryProviderRepo{providers: make(map[string]models.Provider)}
	for _, p := range seed {
		r.providers[p.ID] = p
	}
	return r
}

func (r *MemoryProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, ErrProviderNotFound)
	}
	return &p, nil
}

func (r *MemoryProviderRepo) GetService(ctx context.Context, providerID, serviceID string) (*models.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[providerID]
	if !ok {
		return nil, nil
	}
	svc, ok := p.FindService(serviceID)
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (r *MemoryProviderRepo) GetProviderPolicy(ctx context.Context, providerID string) (*models.BookingPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[providerID]
	if !ok {
		return nil, nil
	}
	policy := p.Policy
	return &policy, nil
}

func (r *MemoryProviderRepo) GetFCMToken(ctx context.Context, providerID string) (string, error) {
	p, err := r.GetByID(ctx, providerID)
	if err != nil {
		return "", err
	}
	return p.FCMToken, nil
}

func (r *MemoryProviderRepo) Upsert(ctx context.Context, provider *models.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID] = *provider
	return nil
}

func (r *MemoryProviderRepo) UpdateFCMToken(ctx context.Context, providerID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[providerID]
	if !ok {
		return fmt.Errorf("provider %s: %w", providerID, ErrProviderNotFound)
	}
	p.FCMToken = token
	r.providers[providerID] = p
	return nil
}
