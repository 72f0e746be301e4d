package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const userColumns = `id, name, phone, role, phone_verified, rating_average, total_ratings,
	trips_as_driver, trips_as_passenger, created_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Phone,
		user.Role,
		user.PhoneVerified,
		user.RatingAverage,
		user.TotalRatings,
		user.TripsAsDriver,
		user.TripsAsPassenger,
		user.CreatedAt,
	)
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a user with a row-level lock, used when the
// rating aggregator rewrites the running average.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByPhone retrieves a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, phone))
}

// MarkPhoneVerified flags the user's phone number as verified.
func (r *UserRepository) MarkPhoneVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET phone_verified = TRUE WHERE id = $1`
	return r.execOnUser(ctx, query, id)
}

// UpdateRating rewrites the user's reputation counters.
func (r *UserRepository) UpdateRating(ctx context.Context, id string, average float64, total int) error {
	query := `UPDATE users SET rating_average = $1, total_ratings = $2 WHERE id = $3`
	return r.execOnUser(ctx, query, average, total, id)
}

// IncrementTripsAsDriver bumps the driver-side trip counter.
func (r *UserRepository) IncrementTripsAsDriver(ctx context.Context, id string) error {
	query := `UPDATE users SET trips_as_driver = trips_as_driver + 1 WHERE id = $1`
	return r.execOnUser(ctx, query, id)
}

// IncrementTripsAsPassenger bumps the passenger-side trip counter.
func (r *UserRepository) IncrementTripsAsPassenger(ctx context.Context, id string) error {
	query := `UPDATE users SET trips_as_passenger = trips_as_passenger + 1 WHERE id = $1`
	return r.execOnUser(ctx, query, id)
}

func (r *UserRepository) execOnUser(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.Role,
		&user.PhoneVerified,
		&user.RatingAverage,
		&user.TotalRatings,
		&user.TripsAsDriver,
		&user.TripsAsPassenger,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
