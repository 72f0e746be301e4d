package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository"
)

// maxActiveTripsPerDriver caps how many ACTIVE/FULL trips one driver may
// hold at a time.
const maxActiveTripsPerDriver = 5

// minTimeBeforeDepartureForUpdate is the cutoff after which a trip can no
// longer be edited.
const minTimeBeforeDepartureForUpdate = 2 * time.Hour

// TripService handles trip publication, search and the trip-level state
// machine.
type TripService struct {
	txm             repository.TxManager
	tripRepo        repository.TripRepository
	reservationRepo repository.ReservationRepository
	userRepo        repository.UserRepository

	pricing       *PricingService
	notifications *NotificationService
	cache         internalRedis.CacheStoreInterface
}

// NewTripService creates a new TripService. The cache store is optional.
func NewTripService(
	txm repository.TxManager,
	tripRepo repository.TripRepository,
	reservationRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
	pricing *PricingService,
	notifications *NotificationService,
	cache internalRedis.CacheStoreInterface,
) *TripService {
	return &TripService{
		txm:             txm,
		tripRepo:        tripRepo,
		reservationRepo: reservationRepo,
		userRepo:        userRepo,
		pricing:         pricing,
		notifications:   notifications,
		cache:           cache,
	}
}

// CreateTripRequest contains the parameters for publishing a trip.
type CreateTripRequest struct {
	DriverID         string
	DepartureAddress string
	DepartureCity    string
	ArrivalAddress   string
	ArrivalCity      string
	DepartureTime    time.Time
	TotalSeats       int
	PricePerSeat     float64
	Description      string
}

// CreateTrip publishes a new ACTIVE trip with all seats available.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}
	if req.TotalSeats < 1 || req.TotalSeats > 8 {
		return nil, ErrInvalidSeatCount
	}
	if req.PricePerSeat <= 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	if !req.DepartureTime.After(now) {
		return nil, ErrInvalidDepartureTime
	}

	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsDriver() || !driver.PhoneVerified {
		return nil, ErrNotDriver
	}

	activeCount, err := s.tripRepo.CountActiveByDriverID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if activeCount >= maxActiveTripsPerDriver {
		return nil, ErrActiveTripLimit
	}

	trip := &domain.Trip{
		ID:               uuid.New().String(),
		DriverID:         req.DriverID,
		DepartureAddress: req.DepartureAddress,
		DepartureCity:    req.DepartureCity,
		ArrivalAddress:   req.ArrivalAddress,
		ArrivalCity:      req.ArrivalCity,
		DepartureTime:    req.DepartureTime.UTC(),
		TotalSeats:       req.TotalSeats,
		AvailableSeats:   req.TotalSeats,
		PricePerSeat:     req.PricePerSeat,
		Status:           domain.TripStatusActive,
		Description:      req.Description,
		CreatedAt:        now,
	}

	err = s.txm.RunInTx(ctx, func(st repository.Stores) error {
		if err := st.Trips().Create(ctx, trip); err != nil {
			return err
		}
		return st.Users().IncrementTripsAsDriver(ctx, req.DriverID)
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// GetTrip retrieves a trip by ID, serving repeat reads from cache.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cache != nil {
		if cached, err := s.cache.GetTrip(ctx, tripID); err == nil && cached != nil {
			if trip, ok := tripFromCache(cached); ok {
				return trip, nil
			}
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetTrip(ctx, tripToCache(trip))
	}

	return trip, nil
}

// SearchTrips returns ACTIVE trips matching the filters plus the total
// match count.
func (s *TripService) SearchTrips(ctx context.Context, filters repository.TripSearchFilters) ([]*domain.Trip, int, error) {
	return s.tripRepo.Search(ctx, filters)
}

// UpdateTripRequest is the allow-listed update set for a trip. Nil fields
// are left untouched. Capacity, price and status are deliberately absent:
// those fields belong to the inventory state machine.
type UpdateTripRequest struct {
	TripID   string
	DriverID string

	DepartureAddress *string
	DepartureCity    *string
	ArrivalAddress   *string
	ArrivalCity      *string
	DepartureTime    *time.Time
	Description      *string
}

// UpdateTrip edits a trip's descriptive fields. Only the owning driver may
// edit, only while the trip is ACTIVE or FULL, and not within two hours of
// departure.
func (s *TripService) UpdateTrip(ctx context.Context, req UpdateTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}

	var updated *domain.Trip

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		trip, err := st.Trips().GetByIDForUpdate(ctx, req.TripID)
		if err != nil {
			return err
		}
		if trip.DriverID != req.DriverID {
			return ErrNotTripDriver
		}

		now := time.Now().UTC()
		if trip.Status != domain.TripStatusActive && trip.Status != domain.TripStatusFull {
			return ErrTripNotModifiable
		}
		if trip.DepartureTime.Sub(now) < minTimeBeforeDepartureForUpdate {
			return ErrTripNotModifiable
		}

		if req.DepartureTime != nil {
			if !req.DepartureTime.After(now) {
				return ErrInvalidDepartureTime
			}
			trip.DepartureTime = req.DepartureTime.UTC()
		}
		if req.DepartureAddress != nil {
			trip.DepartureAddress = *req.DepartureAddress
		}
		if req.DepartureCity != nil {
			trip.DepartureCity = *req.DepartureCity
		}
		if req.ArrivalAddress != nil {
			trip.ArrivalAddress = *req.ArrivalAddress
		}
		if req.ArrivalCity != nil {
			trip.ArrivalCity = *req.ArrivalCity
		}
		if req.Description != nil {
			trip.Description = *req.Description
		}
		trip.UpdatedAt = now

		if err := st.Trips().Update(ctx, trip); err != nil {
			return err
		}

		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.TripID)

	return updated, nil
}

// CancelTripRequest contains the parameters for cancelling a trip.
type CancelTripRequest struct {
	TripID   string
	DriverID string
	Reason   string
}

// CancelTrip cancels an ACTIVE or FULL trip. The reason is mandatory.
// Outstanding reservations keep their status; their passengers are
// notified so they can cancel (seat release on a cancelled trip is a
// no-op, the counter is frozen).
func (s *TripService) CancelTrip(ctx context.Context, req CancelTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Reason == "" {
		return nil, ErrReasonRequired
	}

	var cancelled *domain.Trip

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		trip, err := st.Trips().GetByIDForUpdate(ctx, req.TripID)
		if err != nil {
			return err
		}
		if trip.DriverID != req.DriverID {
			return ErrNotTripDriver
		}
		if trip.Status != domain.TripStatusActive && trip.Status != domain.TripStatusFull {
			return ErrTripNotCancellable
		}

		now := time.Now().UTC()
		trip.Status = domain.TripStatusCancelled
		trip.CancelledAt = now
		trip.CancellationReason = req.Reason
		trip.UpdatedAt = now

		if err := st.Trips().Update(ctx, trip); err != nil {
			return err
		}

		cancelled = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.TripID)

	// Cascade-notify outstanding reservations after the commit. A failed
	// notification never unwinds the cancellation.
	if s.notifications != nil {
		outstanding, err := s.reservationRepo.ListByTrip(ctx, req.TripID,
			domain.ReservationStatusPending,
			domain.ReservationStatusConfirmed,
			domain.ReservationStatusPaid,
		)
		if err == nil {
			for _, res := range outstanding {
				_ = s.notifications.NotifyTripCancelled(ctx, cancelled, res.PassengerID)
			}
		}
	}

	return cancelled, nil
}

// StartTrip marks an ACTIVE or FULL trip as STARTED. The departure time is
// not enforced: the driver decides when the car actually leaves.
func (s *TripService) StartTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	return s.driverTransition(ctx, tripID, driverID, func(trip *domain.Trip, now time.Time) error {
		if trip.Status != domain.TripStatusActive && trip.Status != domain.TripStatusFull {
			return ErrTripNotStartable
		}
		trip.Status = domain.TripStatusStarted
		trip.ActualDepartureTime = now
		return nil
	})
}

// CompleteTrip marks a STARTED trip as COMPLETED and finalizes the
// earnings split from the occupied seats.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	return s.driverTransition(ctx, tripID, driverID, func(trip *domain.Trip, now time.Time) error {
		if trip.Status != domain.TripStatusStarted {
			return ErrTripNotStarted
		}
		trip.Status = domain.TripStatusCompleted
		trip.ActualArrivalTime = now
		s.pricing.FinalizeTripEarnings(trip)
		return nil
	})
}

// DriverTrips groups a driver's trips by phase.
type DriverTrips struct {
	Active    []*domain.Trip
	Completed []*domain.Trip
	Cancelled []*domain.Trip
}

// GetMyTrips returns the driver's trips grouped by phase.
func (s *TripService) GetMyTrips(ctx context.Context, driverID string) (*DriverTrips, error) {
	if driverID == "" {
		return nil, ErrInvalidUserID
	}

	active, err := s.tripRepo.GetByDriverID(ctx, driverID, domain.TripStatusActive, domain.TripStatusFull, domain.TripStatusStarted)
	if err != nil {
		return nil, err
	}

	completed, err := s.tripRepo.GetByDriverID(ctx, driverID, domain.TripStatusCompleted)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.tripRepo.GetByDriverID(ctx, driverID, domain.TripStatusCancelled)
	if err != nil {
		return nil, err
	}

	return &DriverTrips{Active: active, Completed: completed, Cancelled: cancelled}, nil
}

// TripStats is the occupancy and earnings breakdown for one trip.
type TripStats struct {
	TripID             string
	OccupiedSeats      int
	TotalSeats         int
	OccupancyRate      float64
	TotalEarnings      float64
	PlatformCommission float64
	DriverEarnings     float64
}

// GetTripStats returns occupancy and earnings for the driver's own trip.
func (s *TripService) GetTripStats(ctx context.Context, tripID, driverID string) (*TripStats, error) {
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

	occupied := trip.OccupiedSeats()
	rate := 0.0
	if trip.TotalSeats > 0 {
		rate = float64(occupied) / float64(trip.TotalSeats) * 100
	}

	return &TripStats{
		TripID:             trip.ID,
		OccupiedSeats:      occupied,
		TotalSeats:         trip.TotalSeats,
		OccupancyRate:      rate,
		TotalEarnings:      trip.TotalEarnings,
		PlatformCommission: trip.PlatformCommission,
		DriverEarnings:     trip.DriverEarnings,
	}, nil
}

// driverTransition applies a driver-only trip state change inside a
// transaction with the trip row locked.
func (s *TripService) driverTransition(ctx context.Context, tripID, driverID string, apply func(trip *domain.Trip, now time.Time) error) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidUserID
	}

	var updated *domain.Trip

	err := s.txm.RunInTx(ctx, func(st repository.Stores) error {
		trip, err := st.Trips().GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return ErrNotTripDriver
		}

		now := time.Now().UTC()
		if err := apply(trip, now); err != nil {
			return err
		}
		trip.UpdatedAt = now

		if err := st.Trips().Update(ctx, trip); err != nil {
			return err
		}

		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tripID)

	return updated, nil
}

func (s *TripService) invalidate(ctx context.Context, tripID string) {
	if s.cache != nil {
		_ = s.cache.InvalidateTrip(ctx, tripID)
	}
}

func tripToCache(trip *domain.Trip) *internalRedis.CachedTrip {
	return &internalRedis.CachedTrip{
		ID:               trip.ID,
		DriverID:         trip.DriverID,
		DepartureAddress: trip.DepartureAddress,
		DepartureCity:    trip.DepartureCity,
		ArrivalAddress:   trip.ArrivalAddress,
		ArrivalCity:      trip.ArrivalCity,
		DepartureTime:    trip.DepartureTime.Format(time.RFC3339),
		TotalSeats:       trip.TotalSeats,
		AvailableSeats:   trip.AvailableSeats,
		PricePerSeat:     trip.PricePerSeat,
		Status:           string(trip.Status),
		Description:      trip.Description,
	}
}

func tripFromCache(cached *internalRedis.CachedTrip) (*domain.Trip, bool) {
	departure, err := time.Parse(time.RFC3339, cached.DepartureTime)
	if err != nil {
		return nil, false
	}
	return &domain.Trip{
		ID:               cached.ID,
		DriverID:         cached.DriverID,
		DepartureAddress: cached.DepartureAddress,
		DepartureCity:    cached.DepartureCity,
		ArrivalAddress:   cached.ArrivalAddress,
		ArrivalCity:      cached.ArrivalCity,
		DepartureTime:    departure,
		TotalSeats:       cached.TotalSeats,
		AvailableSeats:   cached.AvailableSeats,
		PricePerSeat:     cached.PricePerSeat,
		Status:           domain.TripStatus(cached.Status),
		Description:      cached.Description,
	}, true
}
