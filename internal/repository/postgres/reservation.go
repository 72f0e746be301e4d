package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const reservationColumns = `id, trip_id, passenger_id, number_of_seats, pickup_address, dropoff_address,
	status, total_price, price_per_seat, platform_fee,
	payment_method, payment_status, payment_transaction_id, paid_at,
	special_requests, driver_notes,
	passenger_rating, driver_rating, passenger_comment, driver_comment,
	created_at, updated_at, confirmed_at, cancelled_at, cancellation_reason,
	actual_pickup_time, actual_dropoff_time`

var activeReservationStatuses = []string{
	string(domain.ReservationStatusPending),
	string(domain.ReservationStatusConfirmed),
	string(domain.ReservationStatusPaid),
	string(domain.ReservationStatusStarted),
}

// ReservationRepository is a PostgreSQL implementation of
// repository.ReservationRepository.
type ReservationRepository struct {
	q Querier
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{q: db}
}

// NewReservationRepositoryWithTx creates a reservation repository using a
// transaction.
func NewReservationRepositoryWithTx(tx *sql.Tx) *ReservationRepository {
	return &ReservationRepository{q: tx}
}

// Create persists a new reservation. A partial unique index on
// (trip_id, passenger_id) over active statuses backs the one-active-
// reservation rule; a violation surfaces as ErrDuplicate.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`

	_, err := r.q.ExecContext(ctx, query,
		res.ID,
		res.TripID,
		res.PassengerID,
		res.NumberOfSeats,
		res.PickupAddress,
		res.DropoffAddress,
		res.Status,
		res.TotalPrice,
		res.PricePerSeat,
		res.PlatformFee,
		res.PaymentMethod,
		res.PaymentStatus,
		res.PaymentTransactionID,
		nullTime(res.PaidAt),
		res.SpecialRequests,
		res.DriverNotes,
		res.PassengerRating,
		res.DriverRating,
		res.PassengerComment,
		res.DriverComment,
		res.CreatedAt,
		nullTime(res.UpdatedAt),
		nullTime(res.ConfirmedAt),
		nullTime(res.CancelledAt),
		res.CancellationReason,
		nullTime(res.ActualPickupTime),
		nullTime(res.ActualDropoffTime),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByID retrieves a reservation by ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return scanReservation(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a reservation and takes a row-level lock on it
// so that transitions on the same reservation serialize within the
// enclosing transaction.
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return scanReservation(r.q.QueryRowContext(ctx, query, id))
}

// Update updates an existing reservation.
func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $1, payment_method = $2, payment_status = $3, payment_transaction_id = $4,
			paid_at = $5, driver_notes = $6,
			passenger_rating = $7, driver_rating = $8, passenger_comment = $9, driver_comment = $10,
			updated_at = $11, confirmed_at = $12, cancelled_at = $13, cancellation_reason = $14,
			actual_pickup_time = $15, actual_dropoff_time = $16
		WHERE id = $17
	`

	result, err := r.q.ExecContext(ctx, query,
		res.Status,
		res.PaymentMethod,
		res.PaymentStatus,
		res.PaymentTransactionID,
		nullTime(res.PaidAt),
		res.DriverNotes,
		res.PassengerRating,
		res.DriverRating,
		res.PassengerComment,
		res.DriverComment,
		nullTime(res.UpdatedAt),
		nullTime(res.ConfirmedAt),
		nullTime(res.CancelledAt),
		res.CancellationReason,
		nullTime(res.ActualPickupTime),
		nullTime(res.ActualDropoffTime),
		res.ID,
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

// GetActiveByTripAndPassenger returns the passenger's active reservation on
// the trip, or nil when there is none.
func (r *ReservationRepository) GetActiveByTripAndPassenger(ctx context.Context, tripID, passengerID string) (*domain.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE trip_id = $1 AND passenger_id = $2 AND status = ANY($3)
		LIMIT 1
	`

	res, err := scanReservation(r.q.QueryRowContext(ctx, query, tripID, passengerID, pq.Array(activeReservationStatuses)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

// ListByPassenger retrieves a passenger's reservations restricted to the
// given statuses (all statuses when empty), most recent first.
func (r *ReservationRepository) ListByPassenger(ctx context.Context, passengerID string, statuses ...domain.ReservationStatus) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE passenger_id = $1`
	args := []any{passengerID}

	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListByTrip retrieves a trip's reservations restricted to the given
// statuses (all statuses when empty), oldest first.
func (r *ReservationRepository) ListByTrip(ctx context.Context, tripID string, statuses ...domain.ReservationStatus) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE trip_id = $1`
	args := []any{tripID}

	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	return ss
}

func scanReservationRow(s rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var paidAt, updatedAt, confirmedAt, cancelledAt, pickupTime, dropoffTime sql.NullTime

	err := s.Scan(
		&res.ID,
		&res.TripID,
		&res.PassengerID,
		&res.NumberOfSeats,
		&res.PickupAddress,
		&res.DropoffAddress,
		&res.Status,
		&res.TotalPrice,
		&res.PricePerSeat,
		&res.PlatformFee,
		&res.PaymentMethod,
		&res.PaymentStatus,
		&res.PaymentTransactionID,
		&paidAt,
		&res.SpecialRequests,
		&res.DriverNotes,
		&res.PassengerRating,
		&res.DriverRating,
		&res.PassengerComment,
		&res.DriverComment,
		&res.CreatedAt,
		&updatedAt,
		&confirmedAt,
		&cancelledAt,
		&res.CancellationReason,
		&pickupTime,
		&dropoffTime,
	)
	if err != nil {
		return nil, err
	}

	res.PaidAt = timeOrZero(paidAt)
	res.UpdatedAt = timeOrZero(updatedAt)
	res.ConfirmedAt = timeOrZero(confirmedAt)
	res.CancelledAt = timeOrZero(cancelledAt)
	res.ActualPickupTime = timeOrZero(pickupTime)
	res.ActualDropoffTime = timeOrZero(dropoffTime)

	return &res, nil
}

func scanReservation(row *sql.Row) (*domain.Reservation, error) {
	res, err := scanReservationRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	for rows.Next() {
		res, err := scanReservationRow(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// Ensure ReservationRepository implements repository.ReservationRepository.
var _ repository.ReservationRepository = (*ReservationRepository)(nil)
