package domain

import "time"

// ReservationStatus represents the current status of a reservation.
type ReservationStatus string

const (
	ReservationStatusPending              ReservationStatus = "PENDING"
	ReservationStatusConfirmed            ReservationStatus = "CONFIRMED"
	ReservationStatusPaid                 ReservationStatus = "PAID"
	ReservationStatusStarted              ReservationStatus = "STARTED"
	ReservationStatusCompleted            ReservationStatus = "COMPLETED"
	ReservationStatusCancelledByPassenger ReservationStatus = "CANCELLED_BY_PASSENGER"
	ReservationStatusCancelledByDriver    ReservationStatus = "CANCELLED_BY_DRIVER"
	ReservationStatusNoShow               ReservationStatus = "NO_SHOW"
)

// PaymentMethod represents how a passenger pays for a reservation.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodMobileMoney PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCard        PaymentMethod = "CARD"
)

// PaymentStatus is the payment axis of a reservation, independent from its
// lifecycle status.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Reservation is one passenger's seat request against exactly one trip.
// The financial fields are a snapshot of the trip's pricing at creation
// time and are never recomputed.
type Reservation struct {
	ID          string
	TripID      string
	PassengerID string

	NumberOfSeats int

	PickupAddress  string
	DropoffAddress string

	Status ReservationStatus

	TotalPrice   float64
	PricePerSeat float64
	PlatformFee  float64

	PaymentMethod        PaymentMethod
	PaymentStatus        PaymentStatus
	PaymentTransactionID string
	PaidAt               time.Time

	SpecialRequests string
	DriverNotes     string

	// Ratings are 0 until set, then 1..5; each direction is written at
	// most once after completion.
	PassengerRating  int
	DriverRating     int
	PassengerComment string
	DriverComment    string

	CreatedAt          time.Time
	UpdatedAt          time.Time
	ConfirmedAt        time.Time
	CancelledAt        time.Time
	CancellationReason string
	ActualPickupTime   time.Time
	ActualDropoffTime  time.Time
}

// IsActive reports whether the reservation still counts against the
// one-active-reservation-per-passenger rule.
func (r *Reservation) IsActive() bool {
	switch r.Status {
	case ReservationStatusPending, ReservationStatusConfirmed,
		ReservationStatusPaid, ReservationStatusStarted:
		return true
	}
	return false
}

// CanBeCancelled reports whether the reservation is in the cancellable set.
func (r *Reservation) CanBeCancelled() bool {
	switch r.Status {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusPaid:
		return true
	}
	return false
}

// CanBePaid reports whether the reservation can be marked paid.
func (r *Reservation) CanBePaid() bool {
	return r.Status == ReservationStatusConfirmed && r.PaymentStatus == PaymentStatusPending
}

// CanBeRated reports whether ratings may be attached.
func (r *Reservation) CanBeRated() bool {
	return r.Status == ReservationStatusCompleted
}

// HoldsSeats reports whether the reservation currently holds seats on the
// trip counter. Seats are deducted at confirmation, never at creation.
func (r *Reservation) HoldsSeats() bool {
	return r.Status == ReservationStatusConfirmed || r.Status == ReservationStatusPaid
}
