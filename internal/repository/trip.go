package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// TripSearchFilters narrows a trip search. Zero values mean "no filter".
type TripSearchFilters struct {
	DepartureCity string
	ArrivalCity   string
	DepartureDate time.Time // matches the whole day
	MinSeats      int
	MaxPrice      float64
	Page          int
	PerPage       int
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByIDForUpdate retrieves a trip by ID, taking a row-level lock so
	// that concurrent seat mutations on the same trip serialize. Only
	// meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// Search returns trips matching the filters plus the total match count.
	Search(ctx context.Context, filters TripSearchFilters) ([]*domain.Trip, int, error)

	// GetByDriverID retrieves trips owned by a driver, restricted to the
	// given statuses (all statuses when empty).
	GetByDriverID(ctx context.Context, driverID string, statuses ...domain.TripStatus) ([]*domain.Trip, error)

	// CountActiveByDriverID counts the driver's trips in ACTIVE or FULL.
	CountActiveByDriverID(ctx context.Context, driverID string) (int, error)
}
