package repository

import (
	"context"

	"carpool/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDForUpdate retrieves a user by ID with a row-level lock, used
	// when the rating aggregator rewrites the running average. Only
	// meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// MarkPhoneVerified flags the user's phone number as verified.
	MarkPhoneVerified(ctx context.Context, id string) error

	// UpdateRating rewrites the user's reputation counters.
	UpdateRating(ctx context.Context, id string, average float64, total int) error

	// IncrementTripsAsDriver bumps the driver-side trip counter.
	IncrementTripsAsDriver(ctx context.Context, id string) error

	// IncrementTripsAsPassenger bumps the passenger-side trip counter.
	IncrementTripsAsPassenger(ctx context.Context, id string) error
}
