package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beautybook/models"

	"github.com/go-redis/redis/v8"
)

const (
	snapshotPrefix     = "snapshot:"
	defaultSnapshotTTL = 2 * time.Minute
)

// SnapshotCache keeps one calendar snapshot per booking-flow session. A snapshot only
// counts as a hit for the provider and date it was taken for, so changing the date in
// the flow always re-fetches.
type SnapshotCache interface {
	Get(ctx context.Context, sessionID, providerID, date string) (*models.CalendarSnapshot, bool, error)
	Put(ctx context.Context, sessionID string, snap models.CalendarSnapshot) error
	Invalidate(ctx context.Context, sessionID string) error
}

// RedisSnapshotCache stores snapshots as JSON under "snapshot:<sessionID>".
type RedisSnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &RedisSnapshotCache{Client: client, TTL: ttl}
}

func snapshotKey(sessionID string) string {
	return snapshotPrefix + sessionID
}

func (c *RedisSnapshotCache) Get(ctx context.Context, sessionID, providerID, date string) (*models.CalendarSnapshot, bool, error) {
	raw, err := c.Client.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("snapshot lookup failed: %w", err)
	}
	var snap models.CalendarSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, fmt.Errorf("snapshot decode failed: %w", err)
	}
	if snap.ProviderID != providerID || snap.Date != date {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (c *RedisSnapshotCache) Put(ctx context.Context, sessionID string, snap models.CalendarSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot encode failed: %w", err)
	}
	if err := c.Client.Set(ctx, snapshotKey(sessionID), raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("snapshot store failed: %w", err)
	}
	return nil
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.Client.Del(ctx, snapshotKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("snapshot invalidate failed: %w", err)
	}
	return nil
}
