package repository

import (
	"context"

	"carpool/internal/domain"
)

// ReservationRepository defines the persistence operations for reservations.
type ReservationRepository interface {
	// Create persists a new reservation.
	Create(ctx context.Context, res *domain.Reservation) error

	// GetByID retrieves a reservation by ID.
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// GetByIDForUpdate retrieves a reservation by ID with a row-level lock
	// so that concurrent transitions on the same reservation serialize.
	// Only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Reservation, error)

	// Update updates an existing reservation.
	Update(ctx context.Context, res *domain.Reservation) error

	// GetActiveByTripAndPassenger returns the passenger's active
	// (PENDING/CONFIRMED/PAID/STARTED) reservation on the trip, or nil.
	GetActiveByTripAndPassenger(ctx context.Context, tripID, passengerID string) (*domain.Reservation, error)

	// ListByPassenger retrieves a passenger's reservations restricted to
	// the given statuses (all statuses when empty).
	ListByPassenger(ctx context.Context, passengerID string, statuses ...domain.ReservationStatus) ([]*domain.Reservation, error)

	// ListByTrip retrieves a trip's reservations restricted to the given
	// statuses (all statuses when empty).
	ListByTrip(ctx context.Context, tripID string, statuses ...domain.ReservationStatus) ([]*domain.Reservation, error)
}
