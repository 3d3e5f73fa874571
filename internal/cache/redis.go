package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const availableKey = "cache:slots:available"

// Availability caches the list of available slot ids in Redis. A cache miss
// or a marshalling problem is reported as (nil, nil) resp. swallowed by the
// caller; the store remains the source of truth.
type Availability struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAvailability creates a cache backed by the given Redis address.
func NewAvailability(addr string, ttl time.Duration) *Availability {
	return &Availability{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// GetAvailable returns the cached slot ids, or nil on a miss.
func (a *Availability) GetAvailable(ctx context.Context) ([]int64, error) {
	raw, err := a.client.Get(ctx, availableKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetAvailable stores the slot ids with the configured TTL.
func (a *Availability) SetAvailable(ctx context.Context, ids []int64) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.client.Set(ctx, availableKey, raw, a.ttl).Err()
}

// InvalidateAvailable drops the cached list after any slot state change.
func (a *Availability) InvalidateAvailable(ctx context.Context) error {
	return a.client.Del(ctx, availableKey).Err()
}

// Close releases the underlying connection pool.
func (a *Availability) Close() error {
	return a.client.Close()
}
