package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository"
)

// tripLockTTL bounds how long a seat mutation may hold the per-trip
// advisory lock before it expires on its own.
const tripLockTTL = 5 * time.Second

// ReservationService drives the reservation state machine. Every
// transition that touches the trip's seat counter runs inside a single
// transaction with row-level locks on both the reservation and the trip,
// and guards are re-evaluated from that locked state.
type ReservationService struct {
	txm             repository.TxManager
	reservationRepo repository.ReservationRepository
	tripRepo        repository.TripRepository
	userRepo        repository.UserRepository

	pricing       *PricingService
	rating        *RatingService
	notifications *NotificationService
	locks         internalRedis.LockStoreInterface
	cache         internalRedis.CacheStoreInterface
}

// NewReservationService creates a new ReservationService. The lock and
// cache stores are optional; without them the database row locks remain
// the sole serialization mechanism.
func NewReservationService(
	txm repository.TxManager,
	reservationRepo repository.ReservationRepository,
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	pricing *PricingService,
	rating *RatingService,
	notifications *NotificationService,
	locks internalRedis.LockStoreInterface,
	cache internalRedis.CacheStoreInterface,
) *ReservationService {
	return &ReservationService{
		txm:             txm,
		reservationRepo: reservationRepo,
		tripRepo:        tripRepo,
		userRepo:        userRepo,
		pricing:         pricing,
		rating:          rating,
		notifications:   notifications,
		locks:           locks,
		cache:           cache,
	}
}

// CreateReservationRequest contains the parameters for requesting seats.
type CreateReservationRequest struct {
	TripID          string
	PassengerID     string
	NumberOfSeats   int
	PickupAddress   string
	DropoffAddress  string
	PaymentMethod   string
	SpecialRequests string
}

// CreateReservation creates a PENDING reservation for the passenger.
// Seats are not deducted here: the deduction happens at driver
// confirmation, with a fresh seat re-check at that point.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.PassengerID == "" {
		return nil, ErrInvalidUserID
	}
	if req.NumberOfSeats < 1 || req.NumberOfSeats > 8 {
		return nil, ErrInvalidSeatCount
	}

	method, err := ValidatePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	passenger, err := s.userRepo.GetByID(ctx, req.PassengerID)
	if err != nil {
		return nil, err
	}
	if !passenger.PhoneVerified {
		return nil, ErrPhoneNotVerified
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID == req.PassengerID {
		return nil, ErrOwnTripReservation
	}

	now := time.Now().UTC()
	if !trip.IsBookable(now) {
		return nil, ErrTripNotBookable
	}
	if req.NumberOfSeats > trip.AvailableSeats {
		return nil, ErrInsufficientSeats
	}

	existing, err := s.reservationRepo.GetActiveByTripAndPassenger(ctx, req.TripID, req.PassengerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateReservation
	}

	quote := s.pricing.SnapshotPrice(trip, req.NumberOfSeats)

	res := &domain.Reservation{
		ID:              uuid.New().String(),
		TripID:          req.TripID,
		PassengerID:     req.PassengerID,
		NumberOfSeats:   req.NumberOfSeats,
		PickupAddress:   req.PickupAddress,
		DropoffAddress:  req.DropoffAddress,
		Status:          domain.ReservationStatusPending,
		TotalPrice:      quote.TotalPrice,
		PricePerSeat:    quote.PricePerSeat,
		PlatformFee:     quote.PlatformFee,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentStatusPending,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
	}

	if err := s.reservationRepo.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReservation
		}
		return nil, err
	}

	if s.notifications != nil {
		_ = s.notifications.NotifyReservationRequested(ctx, res, trip.DriverID)
	}

	return res, nil
}

// GetReservation retrieves a reservation, visible only to its passenger or
// the trip's driver.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID, callerID string) (*domain.Reservation, error) {
	if reservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if callerID == "" {
		return nil, ErrInvalidUserID
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(ctx, res.TripID)
	if err != nil {
		return nil, err
	}

	if res.PassengerID != callerID && trip.DriverID != callerID {
		return nil, ErrReservationAccessDenied
	}

	return res, nil
}

// ConfirmReservationRequest contains the parameters for the driver's
// accept/decline decision on a pending reservation.
type ConfirmReservationRequest struct {
	ReservationID string
	DriverID      string
	Accept        bool
	Message       string
}

// ConfirmReservation applies the driver's decision. Accepting deducts the
// seats from the trip atomically, re-checking availability against the
// locked row; declining moves the reservation to CANCELLED_BY_DRIVER.
func (s *ReservationService) ConfirmReservation(ctx context.Context, req ConfirmReservationRequest) (*domain.Reservation, error) {
	if req.ReservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}

	var (
		confirmed *domain.Reservation
		trip      *domain.Trip
	)

	err := s.withTripLockFor(ctx, req.ReservationID, func() error {
		return s.txm.RunInTx(ctx, func(st repository.Stores) error {
			res, err := st.Reservations().GetByIDForUpdate(ctx, req.ReservationID)
			if err != nil {
				return err
			}

			trip, err = st.Trips().GetByIDForUpdate(ctx, res.TripID)
			if err != nil {
				return err
			}
			if trip.DriverID != req.DriverID {
				return ErrNotTripDriver
			}
			if res.Status != domain.ReservationStatusPending {
				return ErrReservationNotPending
			}

			now := time.Now().UTC()
			if req.Accept {
				// Seat availability is re-checked here, against the locked
				// trip row, not against whatever the driver saw earlier.
				if !trip.ReserveSeats(res.NumberOfSeats, now) {
					if trip.Status != domain.TripStatusActive || !trip.DepartureTime.After(now) {
						return ErrTripNotBookable
					}
					return ErrInsufficientSeats
				}
				res.Status = domain.ReservationStatusConfirmed
				res.ConfirmedAt = now

				if err := st.Trips().Update(ctx, trip); err != nil {
					return err
				}
			} else {
				res.Status = domain.ReservationStatusCancelledByDriver
				res.CancelledAt = now
				res.CancellationReason = req.Message
				if res.CancellationReason == "" {
					res.CancellationReason = "Declined by driver"
				}
			}

			if req.Message != "" {
				res.DriverNotes = req.Message
			}
			res.UpdatedAt = now

			if err := st.Reservations().Update(ctx, res); err != nil {
				return err
			}

			confirmed = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, confirmed.TripID)

	if s.notifications != nil {
		if req.Accept {
			_ = s.notifications.NotifyReservationConfirmed(ctx, confirmed)
		} else {
			_ = s.notifications.NotifyReservationRejected(ctx, confirmed)
		}
	}

	return confirmed, nil
}

// CancelReservationRequest contains the parameters for cancelling a
// reservation, by either party.
type CancelReservationRequest struct {
	ReservationID string
	CallerID      string
	Reason        string
}

// CancelReservationResponse reports the cancelled reservation and any
// refund owed under the cancellation policy.
type CancelReservationResponse struct {
	Reservation  *domain.Reservation
	RefundAmount float64
}

// CancelReservation cancels a reservation from the cancellable set.
// Seats return to the trip only when the reservation actually held them
// (CONFIRMED or PAID), judged from its status before this cancellation,
// so the release happens exactly once per cancellation event.
func (s *ReservationService) CancelReservation(ctx context.Context, req CancelReservationRequest) (*CancelReservationResponse, error) {
	if req.ReservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if req.CallerID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Reason == "" {
		return nil, ErrReasonRequired
	}

	var (
		cancelled     *domain.Reservation
		trip          *domain.Trip
		refund        float64
		counterpartID string
	)

	err := s.withTripLockFor(ctx, req.ReservationID, func() error {
		return s.txm.RunInTx(ctx, func(st repository.Stores) error {
			res, err := st.Reservations().GetByIDForUpdate(ctx, req.ReservationID)
			if err != nil {
				return err
			}

			trip, err = st.Trips().GetByIDForUpdate(ctx, res.TripID)
			if err != nil {
				return err
			}

			switch req.CallerID {
			case res.PassengerID:
				counterpartID = trip.DriverID
			case trip.DriverID:
				counterpartID = res.PassengerID
			default:
				return ErrReservationAccessDenied
			}

			if !res.CanBeCancelled() {
				return ErrReservationNotCancellable
			}

			now := time.Now().UTC()

			// Decide seat release from the pre-cancellation status.
			heldSeats := res.HoldsSeats()

			if req.CallerID == res.PassengerID {
				res.Status = domain.ReservationStatusCancelledByPassenger
			} else {
				res.Status = domain.ReservationStatusCancelledByDriver
			}
			res.CancelledAt = now
			res.CancellationReason = req.Reason
			res.UpdatedAt = now

			refund = s.pricing.RefundAmount(res, trip, now)
			if res.PaymentStatus == domain.PaymentStatusCompleted {
				res.PaymentStatus = domain.PaymentStatusRefunded
			}

			if heldSeats && !trip.IsTerminal() {
				trip.ReleaseSeats(res.NumberOfSeats)
				if err := st.Trips().Update(ctx, trip); err != nil {
					return err
				}
			}

			if err := st.Reservations().Update(ctx, res); err != nil {
				return err
			}

			cancelled = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, cancelled.TripID)

	if s.notifications != nil {
		_ = s.notifications.NotifyReservationCancelled(ctx, cancelled, counterpartID)
	}

	return &CancelReservationResponse{Reservation: cancelled, RefundAmount: refund}, nil
}

// MarkPaidRequest contains the parameters for recording a payment obtained
// through an external gateway.
type MarkPaidRequest struct {
	ReservationID string
	PassengerID   string
	TransactionID string
}

// MarkPaid moves a CONFIRMED reservation to PAID. The payment itself
// happens outside the core; only the externally-obtained transaction id is
// recorded.
func (s *ReservationService) MarkPaid(ctx context.Context, req MarkPaidRequest) (*domain.Reservation, error) {
	if req.ReservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if req.PassengerID == "" {
		return nil, ErrInvalidUserID
	}

	var (
		paid     *domain.Reservation
		driverID string
	)

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		res, err := st.Reservations().GetByIDForUpdate(ctx, req.ReservationID)
		if err != nil {
			return err
		}
		if res.PassengerID != req.PassengerID {
			return ErrReservationAccessDenied
		}
		if !res.CanBePaid() {
			return ErrReservationNotPayable
		}

		trip, err := st.Trips().GetByID(ctx, res.TripID)
		if err != nil {
			return err
		}
		driverID = trip.DriverID

		now := time.Now().UTC()
		res.Status = domain.ReservationStatusPaid
		res.PaymentStatus = domain.PaymentStatusCompleted
		res.PaidAt = now
		res.UpdatedAt = now
		if req.TransactionID != "" {
			res.PaymentTransactionID = req.TransactionID
		}

		if err := st.Reservations().Update(ctx, res); err != nil {
			return err
		}

		paid = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		_ = s.notifications.NotifyReservationPaid(ctx, paid, driverID)
	}

	return paid, nil
}

// StartReservation marks a PAID reservation as STARTED at pickup time.
// Either party to the reservation may record it.
func (s *ReservationService) StartReservation(ctx context.Context, reservationID, callerID string) (*domain.Reservation, error) {
	return s.transition(ctx, reservationID, callerID, func(res *domain.Reservation, now time.Time) error {
		if res.Status != domain.ReservationStatusPaid {
			return ErrReservationNotPaid
		}
		res.Status = domain.ReservationStatusStarted
		res.ActualPickupTime = now
		return nil
	}, nil)
}

// CompleteReservation marks a STARTED reservation as COMPLETED at dropoff
// and credits the passenger's trip counter.
func (s *ReservationService) CompleteReservation(ctx context.Context, reservationID, callerID string) (*domain.Reservation, error) {
	return s.transition(ctx, reservationID, callerID, func(res *domain.Reservation, now time.Time) error {
		if res.Status != domain.ReservationStatusStarted {
			return ErrReservationNotStarted
		}
		res.Status = domain.ReservationStatusCompleted
		res.ActualDropoffTime = now
		return nil
	}, func(st repository.Stores, res *domain.Reservation) error {
		return st.Users().IncrementTripsAsPassenger(ctx, res.PassengerID)
	})
}

// MarkNoShowRequest contains the parameters for flagging an absent
// passenger.
type MarkNoShowRequest struct {
	ReservationID string
	DriverID      string
}

// MarkNoShow flags a CONFIRMED or PAID reservation as NO_SHOW once the
// trip has departed. Seats are not released; the trip is already underway.
func (s *ReservationService) MarkNoShow(ctx context.Context, req MarkNoShowRequest) (*domain.Reservation, error) {
	if req.ReservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}

	var flagged *domain.Reservation

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		res, err := st.Reservations().GetByIDForUpdate(ctx, req.ReservationID)
		if err != nil {
			return err
		}

		trip, err := st.Trips().GetByID(ctx, res.TripID)
		if err != nil {
			return err
		}
		if trip.DriverID != req.DriverID {
			return ErrNotTripDriver
		}
		if trip.Status != domain.TripStatusStarted {
			return ErrTripNotStarted
		}
		if res.Status != domain.ReservationStatusConfirmed && res.Status != domain.ReservationStatusPaid {
			return ErrReservationNotCancellable
		}

		now := time.Now().UTC()
		res.Status = domain.ReservationStatusNoShow
		res.CancelledAt = now
		res.CancellationReason = "Passenger did not show up"
		res.UpdatedAt = now

		if err := st.Reservations().Update(ctx, res); err != nil {
			return err
		}

		flagged = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return flagged, nil
}

// RateReservationRequest contains the parameters for rating the other
// party after completion.
type RateReservationRequest struct {
	ReservationID string
	CallerID      string
	Rating        int
	Comment       string
}

// RateReservation records a 1..5 rating on a COMPLETED reservation and
// folds it into the target user's running average. Each direction is
// write-once: a second rating by the same party is rejected, so the
// aggregate is never double-applied.
func (s *ReservationService) RateReservation(ctx context.Context, req RateReservationRequest) (*domain.Reservation, error) {
	if req.ReservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if req.CallerID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	var rated *domain.Reservation

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		res, err := st.Reservations().GetByIDForUpdate(ctx, req.ReservationID)
		if err != nil {
			return err
		}

		trip, err := st.Trips().GetByID(ctx, res.TripID)
		if err != nil {
			return err
		}

		if !res.CanBeRated() {
			return ErrReservationNotCompleted
		}

		var targetID string
		switch req.CallerID {
		case res.PassengerID:
			if res.DriverRating != 0 {
				return ErrAlreadyRated
			}
			res.DriverRating = req.Rating
			res.PassengerComment = req.Comment
			targetID = trip.DriverID
		case trip.DriverID:
			if res.PassengerRating != 0 {
				return ErrAlreadyRated
			}
			res.PassengerRating = req.Rating
			res.DriverComment = req.Comment
			targetID = res.PassengerID
		default:
			return ErrReservationAccessDenied
		}

		target, err := st.Users().GetByIDForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		s.rating.Apply(target, req.Rating)
		if err := st.Users().UpdateRating(ctx, targetID, target.RatingAverage, target.TotalRatings); err != nil {
			return err
		}

		res.UpdatedAt = time.Now().UTC()
		if err := st.Reservations().Update(ctx, res); err != nil {
			return err
		}

		rated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rated, nil
}

// PassengerReservations groups a passenger's reservations by phase.
type PassengerReservations struct {
	Active    []*domain.Reservation
	Completed []*domain.Reservation
	Cancelled []*domain.Reservation
}

// ListMyReservations returns the passenger's reservations grouped by
// phase.
func (s *ReservationService) ListMyReservations(ctx context.Context, passengerID string) (*PassengerReservations, error) {
	if passengerID == "" {
		return nil, ErrInvalidUserID
	}

	active, err := s.reservationRepo.ListByPassenger(ctx, passengerID,
		domain.ReservationStatusPending,
		domain.ReservationStatusConfirmed,
		domain.ReservationStatusPaid,
		domain.ReservationStatusStarted,
	)
	if err != nil {
		return nil, err
	}

	completed, err := s.reservationRepo.ListByPassenger(ctx, passengerID, domain.ReservationStatusCompleted)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.reservationRepo.ListByPassenger(ctx, passengerID,
		domain.ReservationStatusCancelledByPassenger,
		domain.ReservationStatusCancelledByDriver,
		domain.ReservationStatusNoShow,
	)
	if err != nil {
		return nil, err
	}

	return &PassengerReservations{Active: active, Completed: completed, Cancelled: cancelled}, nil
}

// TripReservations groups a trip's reservations for its driver.
type TripReservations struct {
	Pending   []*domain.Reservation
	Confirmed []*domain.Reservation
	Cancelled []*domain.Reservation
}

// ListTripReservations returns a trip's reservations grouped by phase.
// Only the trip's driver may list them.
func (s *ReservationService) ListTripReservations(ctx context.Context, tripID, driverID string) (*TripReservations, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidUserID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, ErrNotTripDriver
	}

	pending, err := s.reservationRepo.ListByTrip(ctx, tripID, domain.ReservationStatusPending)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.reservationRepo.ListByTrip(ctx, tripID,
		domain.ReservationStatusConfirmed,
		domain.ReservationStatusPaid,
		domain.ReservationStatusStarted,
	)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.reservationRepo.ListByTrip(ctx, tripID,
		domain.ReservationStatusCancelledByPassenger,
		domain.ReservationStatusCancelledByDriver,
		domain.ReservationStatusNoShow,
	)
	if err != nil {
		return nil, err
	}

	return &TripReservations{Pending: pending, Confirmed: confirmed, Cancelled: cancelled}, nil
}

// transition applies a simple single-reservation state change with an
// access check against both parties, plus an optional extra effect inside
// the same transaction.
func (s *ReservationService) transition(
	ctx context.Context,
	reservationID, callerID string,
	apply func(res *domain.Reservation, now time.Time) error,
	extra func(st repository.Stores, res *domain.Reservation) error,
) (*domain.Reservation, error) {
	if reservationID == "" {
		return nil, ErrInvalidReservationID
	}
	if callerID == "" {
		return nil, ErrInvalidUserID
	}

	var updated *domain.Reservation

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		res, err := st.Reservations().GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}

		trip, err := st.Trips().GetByID(ctx, res.TripID)
		if err != nil {
			return err
		}
		if res.PassengerID != callerID && trip.DriverID != callerID {
			return ErrReservationAccessDenied
		}

		now := time.Now().UTC()
		if err := apply(res, now); err != nil {
			return err
		}
		res.UpdatedAt = now

		if err := st.Reservations().Update(ctx, res); err != nil {
			return err
		}

		if extra != nil {
			if err := extra(st, res); err != nil {
				return err
			}
		}

		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// withTripLockFor takes the per-trip advisory lock covering the given
// reservation's trip, runs fn, and releases the lock. Lock contention
// surfaces as ErrTripBusy rather than queueing behind the row lock.
func (s *ReservationService) withTripLockFor(ctx context.Context, reservationID string, fn func() error) error {
	if s.locks == nil {
		return fn()
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}

	ok, err := s.locks.AcquireTripLock(ctx, res.TripID, tripLockTTL)
	if err != nil {
		// Redis being down must not block seat mutations; the row lock
		// still serializes them.
		return fn()
	}
	if !ok {
		return ErrTripBusy
	}
	defer func() {
		_ = s.locks.ReleaseTripLock(ctx, res.TripID)
	}()

	return fn()
}

func (s *ReservationService) invalidateTrip(ctx context.Context, tripID string) {
	if s.cache != nil {
		_ = s.cache.InvalidateTrip(ctx, tripID)
	}
}

// ValidatePaymentMethod validates a payment method string.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCash, domain.PaymentMethodMobileMoney, domain.PaymentMethodCard:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCash, nil // Default to cash
	default:
		return "", ErrInvalidPaymentMethod
	}
}
