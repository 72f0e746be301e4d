package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const tripColumns = `id, driver_id, departure_address, departure_city, arrival_address, arrival_city,
	departure_time, total_seats, available_seats, price_per_seat, status, description,
	total_earnings, platform_commission, driver_earnings,
	created_at, updated_at, actual_departure_time, actual_arrival_time, cancelled_at, cancellation_reason`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.DriverID,
		trip.DepartureAddress,
		trip.DepartureCity,
		trip.ArrivalAddress,
		trip.ArrivalCity,
		trip.DepartureTime,
		trip.TotalSeats,
		trip.AvailableSeats,
		trip.PricePerSeat,
		trip.Status,
		trip.Description,
		trip.TotalEarnings,
		trip.PlatformCommission,
		trip.DriverEarnings,
		trip.CreatedAt,
		nullTime(trip.UpdatedAt),
		nullTime(trip.ActualDepartureTime),
		nullTime(trip.ActualArrivalTime),
		nullTime(trip.CancelledAt),
		trip.CancellationReason,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a trip and takes a row-level lock on it so
// that seat mutations on the same trip serialize within the enclosing
// transaction.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET departure_address = $1, departure_city = $2, arrival_address = $3, arrival_city = $4,
			departure_time = $5, available_seats = $6, status = $7, description = $8,
			total_earnings = $9, platform_commission = $10, driver_earnings = $11,
			updated_at = $12, actual_departure_time = $13, actual_arrival_time = $14,
			cancelled_at = $15, cancellation_reason = $16
		WHERE id = $17
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.DepartureAddress,
		trip.DepartureCity,
		trip.ArrivalAddress,
		trip.ArrivalCity,
		trip.DepartureTime,
		trip.AvailableSeats,
		trip.Status,
		trip.Description,
		trip.TotalEarnings,
		trip.PlatformCommission,
		trip.DriverEarnings,
		nullTime(trip.UpdatedAt),
		nullTime(trip.ActualDepartureTime),
		nullTime(trip.ActualArrivalTime),
		nullTime(trip.CancelledAt),
		trip.CancellationReason,
		trip.ID,
	)
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

// Search returns trips matching the filters plus the total match count.
// Results are ACTIVE trips ordered by departure time.
func (r *TripRepository) Search(ctx context.Context, filters repository.TripSearchFilters) ([]*domain.Trip, int, error) {
	where := []string{"status = $1"}
	args := []any{domain.TripStatusActive}

	if filters.DepartureCity != "" {
		args = append(args, "%"+filters.DepartureCity+"%")
		where = append(where, fmt.Sprintf("departure_city ILIKE $%d", len(args)))
	}
	if filters.ArrivalCity != "" {
		args = append(args, "%"+filters.ArrivalCity+"%")
		where = append(where, fmt.Sprintf("arrival_city ILIKE $%d", len(args)))
	}
	if !filters.DepartureDate.IsZero() {
		start := filters.DepartureDate.UTC().Truncate(24 * time.Hour)
		args = append(args, start)
		where = append(where, fmt.Sprintf("departure_time >= $%d", len(args)))
		args = append(args, start.Add(24*time.Hour))
		where = append(where, fmt.Sprintf("departure_time < $%d", len(args)))
	}
	if filters.MinSeats > 0 {
		args = append(args, filters.MinSeats)
		where = append(where, fmt.Sprintf("available_seats >= $%d", len(args)))
	}
	if filters.MaxPrice > 0 {
		args = append(args, filters.MaxPrice)
		where = append(where, fmt.Sprintf("price_per_seat <= $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM trips WHERE ` + whereClause
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 {
		perPage = 20
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(
		`SELECT `+tripColumns+` FROM trips WHERE `+whereClause+` ORDER BY departure_time ASC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args),
	)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	trips, err := scanTrips(rows)
	if err != nil {
		return nil, 0, err
	}

	return trips, total, nil
}

// GetByDriverID retrieves trips owned by a driver, restricted to the given
// statuses (all statuses when empty).
func (r *TripRepository) GetByDriverID(ctx context.Context, driverID string, statuses ...domain.TripStatus) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1`
	args := []any{driverID}

	if len(statuses) > 0 {
		ss := make([]string, len(statuses))
		for i, s := range statuses {
			ss[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(ss))
	}
	query += ` ORDER BY departure_time DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// CountActiveByDriverID counts the driver's trips in ACTIVE or FULL.
func (r *TripRepository) CountActiveByDriverID(ctx context.Context, driverID string) (int, error) {
	query := `SELECT COUNT(*) FROM trips WHERE driver_id = $1 AND status IN ($2, $3)`

	var count int
	err := r.q.QueryRowContext(ctx, query, driverID, domain.TripStatusActive, domain.TripStatusFull).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripRow(s rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var updatedAt, actualDeparture, actualArrival, cancelledAt sql.NullTime

	err := s.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.DepartureAddress,
		&trip.DepartureCity,
		&trip.ArrivalAddress,
		&trip.ArrivalCity,
		&trip.DepartureTime,
		&trip.TotalSeats,
		&trip.AvailableSeats,
		&trip.PricePerSeat,
		&trip.Status,
		&trip.Description,
		&trip.TotalEarnings,
		&trip.PlatformCommission,
		&trip.DriverEarnings,
		&trip.CreatedAt,
		&updatedAt,
		&actualDeparture,
		&actualArrival,
		&cancelledAt,
		&trip.CancellationReason,
	)
	if err != nil {
		return nil, err
	}

	trip.UpdatedAt = timeOrZero(updatedAt)
	trip.ActualDepartureTime = timeOrZero(actualDeparture)
	trip.ActualArrivalTime = timeOrZero(actualArrival)
	trip.CancelledAt = timeOrZero(cancelledAt)

	return &trip, nil
}

func scanTrip(row *sql.Row) (*domain.Trip, error) {
	trip, err := scanTripRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

func scanTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTripRow(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func timeOrZero(t sql.NullTime) time.Time {
	if t.Valid {
		return t.Time
	}
	return time.Time{}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
