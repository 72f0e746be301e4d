package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// CacheStoreInterface defines the interface for trip caching.
type CacheStoreInterface interface {
	GetTrip(ctx context.Context, tripID string) (*CachedTrip, error)
	SetTrip(ctx context.Context, trip *CachedTrip) error
	InvalidateTrip(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
