package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusActive    TripStatus = "ACTIVE"
	TripStatusFull      TripStatus = "FULL"
	TripStatusStarted   TripStatus = "STARTED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Trip represents a ride offer published by a driver, with fixed seat
// capacity and a fixed per-seat price in FCFA.
type Trip struct {
	ID       string
	DriverID string

	DepartureAddress string
	DepartureCity    string
	ArrivalAddress   string
	ArrivalCity      string

	// DepartureTime is the scheduled departure instant (UTC). The trip is
	// no longer bookable once it has passed.
	DepartureTime time.Time

	TotalSeats     int
	AvailableSeats int
	PricePerSeat   float64

	Status      TripStatus
	Description string

	// Earnings are zero until the trip completes.
	TotalEarnings      float64
	PlatformCommission float64
	DriverEarnings     float64

	CreatedAt           time.Time
	UpdatedAt           time.Time
	ActualDepartureTime time.Time
	ActualArrivalTime   time.Time
	CancelledAt         time.Time
	CancellationReason  string
}

// IsBookable reports whether the trip can accept new reservations at the
// given instant.
func (t *Trip) IsBookable(now time.Time) bool {
	return t.Status == TripStatusActive && t.AvailableSeats > 0 && t.DepartureTime.After(now)
}

// IsTerminal reports whether the trip is in a terminal state. Terminal
// trips never mutate seats again.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}

// ReserveSeats deducts count seats from the trip, flipping it to FULL when
// the last seat goes. It returns false and leaves the trip untouched when
// the trip is not ACTIVE, the count exceeds the remaining seats, or the
// departure time has passed. Callers apply the mutation atomically against
// persisted state.
func (t *Trip) ReserveSeats(count int, now time.Time) bool {
	if t.Status != TripStatusActive || count <= 0 || count > t.AvailableSeats {
		return false
	}
	if !t.DepartureTime.After(now) {
		return false
	}

	t.AvailableSeats -= count
	if t.AvailableSeats == 0 {
		t.Status = TripStatusFull
	}
	return true
}

// ReleaseSeats credits count seats back, bounded by the total capacity, and
// reverts FULL to ACTIVE when capacity reappears. It is a no-op on terminal
// trips so that a stray release after cancellation or completion cannot
// violate the capacity bound.
func (t *Trip) ReleaseSeats(count int) {
	if count <= 0 || t.IsTerminal() {
		return
	}

	t.AvailableSeats += count
	if t.AvailableSeats > t.TotalSeats {
		t.AvailableSeats = t.TotalSeats
	}
	if t.Status == TripStatusFull && t.AvailableSeats > 0 {
		t.Status = TripStatusActive
	}
}

// OccupiedSeats returns the number of seats currently held by confirmed
// reservations.
func (t *Trip) OccupiedSeats() int {
	return t.TotalSeats - t.AvailableSeats
}
