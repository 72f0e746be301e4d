package service

import "errors"

var (
	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidReservationID is returned when reservation ID is empty.
	ErrInvalidReservationID = errors.New("invalid reservation id")

	// ErrInvalidUserID is returned when a caller ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidSeatCount is returned when the seat count is outside 1..8.
	ErrInvalidSeatCount = errors.New("seat count must be between 1 and 8")

	// ErrInvalidPrice is returned when price per seat is not positive.
	ErrInvalidPrice = errors.New("price per seat must be positive")

	// ErrInvalidDepartureTime is returned when the departure time is not in
	// the future.
	ErrInvalidDepartureTime = errors.New("departure time must be in the future")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrReasonRequired is returned when a mandatory cancellation reason is
	// missing.
	ErrReasonRequired = errors.New("cancellation reason is required")

	// ErrNotDriver is returned when a non-driver tries to publish a trip.
	ErrNotDriver = errors.New("user is not a verified driver")

	// ErrPhoneNotVerified is returned when the passenger's phone is not
	// verified.
	ErrPhoneNotVerified = errors.New("phone must be verified to reserve a trip")

	// ErrNotTripDriver is returned when the caller is not the trip's driver.
	ErrNotTripDriver = errors.New("caller is not the driver of this trip")

	// ErrReservationAccessDenied is returned when the caller is neither the
	// reservation's passenger nor the trip's driver.
	ErrReservationAccessDenied = errors.New("access to this reservation denied")

	// ErrOwnTripReservation is returned when a driver tries to reserve
	// seats on their own trip.
	ErrOwnTripReservation = errors.New("cannot reserve seats on your own trip")

	// ErrTripNotBookable is returned when the trip is full, expired or not
	// active.
	ErrTripNotBookable = errors.New("trip cannot be reserved")

	// ErrInsufficientSeats is returned when fewer seats remain than
	// requested.
	ErrInsufficientSeats = errors.New("not enough seats available")

	// ErrDuplicateReservation is returned when the passenger already has an
	// active reservation on the trip.
	ErrDuplicateReservation = errors.New("active reservation already exists for this trip")

	// ErrReservationNotPending is returned when confirming a reservation
	// that already left PENDING.
	ErrReservationNotPending = errors.New("reservation is not pending")

	// ErrReservationNotCancellable is returned when the reservation left
	// the cancellable set.
	ErrReservationNotCancellable = errors.New("reservation can no longer be cancelled")

	// ErrReservationNotPayable is returned when the reservation is not
	// CONFIRMED with payment pending.
	ErrReservationNotPayable = errors.New("reservation cannot be paid in its current state")

	// ErrReservationNotPaid is returned when starting a reservation that is
	// not PAID.
	ErrReservationNotPaid = errors.New("reservation must be paid before starting")

	// ErrReservationNotStarted is returned when completing a reservation
	// that is not STARTED.
	ErrReservationNotStarted = errors.New("reservation is not in progress")

	// ErrReservationNotCompleted is returned when rating a reservation that
	// has not completed.
	ErrReservationNotCompleted = errors.New("reservation is not completed")

	// ErrAlreadyRated is returned when a party tries to rate the same
	// reservation twice.
	ErrAlreadyRated = errors.New("reservation already rated")

	// ErrTripNotCancellable is returned when the trip is not ACTIVE or FULL.
	ErrTripNotCancellable = errors.New("trip cannot be cancelled in current state")

	// ErrTripNotStartable is returned when starting a trip that is not
	// ACTIVE or FULL.
	ErrTripNotStartable = errors.New("trip cannot be started in current state")

	// ErrTripNotStarted is returned when completing a trip that is not
	// STARTED, or marking a no-show before departure.
	ErrTripNotStarted = errors.New("trip has not started")

	// ErrTripNotModifiable is returned when updating a trip that left
	// ACTIVE/FULL or departs in less than two hours.
	ErrTripNotModifiable = errors.New("trip can no longer be modified")

	// ErrActiveTripLimit is returned when a driver exceeds the active trip
	// cap.
	ErrActiveTripLimit = errors.New("active trip limit reached")

	// ErrTripBusy is returned when the per-trip lock is held by a
	// concurrent seat mutation; the caller should retry.
	ErrTripBusy = errors.New("trip is being updated, retry")
)
