package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	// TripCacheTTL is short because seat counts change on every confirm
	// and cancel.
	TripCacheTTL = 15 * time.Second
)

const tripCachePrefix = "cache:trip:"

// CachedTrip represents a cached trip entity for read paths.
type CachedTrip struct {
	ID               string  `json:"id"`
	DriverID         string  `json:"driver_id"`
	DepartureAddress string  `json:"departure_address"`
	DepartureCity    string  `json:"departure_city"`
	ArrivalAddress   string  `json:"arrival_address"`
	ArrivalCity      string  `json:"arrival_city"`
	DepartureTime    string  `json:"departure_time"`
	TotalSeats       int     `json:"total_seats"`
	AvailableSeats   int     `json:"available_seats"`
	PricePerSeat     float64 `json:"price_per_seat"`
	Status           string  `json:"status"`
	Description      string  `json:"description"`
}

// GetTrip retrieves a trip from cache. A nil result with nil error is a
// cache miss.
func (s *CacheStore) GetTrip(ctx context.Context, tripID string) (*CachedTrip, error) {
	key := tripCachePrefix + tripID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trip CachedTrip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *CachedTrip) error {
	key := tripCachePrefix + trip.ID
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TripCacheTTL).Err()
}

// InvalidateTrip removes a trip from cache. Every seat or status mutation
// invalidates so readers never see a stale FULL/ACTIVE flip for longer
// than the TTL.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	key := tripCachePrefix + tripID
	return s.client.Del(ctx, key).Err()
}
