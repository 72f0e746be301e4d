package tests

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// fixture wires the services against the shared mocks, the way main wires
// them against postgres and redis.
type fixture struct {
	trips        *MockTripRepository
	reservations *MockReservationRepository
	users        *MockUserRepository
	txm          *MockTxManager
	locks        *MockLockStore
	cache        *MockCacheStore

	tripService        *service.TripService
	reservationService *service.ReservationService
}

func newFixture() *fixture {
	trips := NewMockTripRepository()
	reservations := NewMockReservationRepository()
	users := NewMockUserRepository()
	txm := NewMockTxManager(trips, reservations, users)
	locks := NewMockLockStore()
	cache := NewMockCacheStore()

	log := logrus.New()
	log.SetOutput(io.Discard)
	notifications := service.NewNotificationService(log)
	pricing := service.NewPricingService(0, 0)
	rating := service.NewRatingService()

	return &fixture{
		trips:        trips,
		reservations: reservations,
		users:        users,
		txm:          txm,
		locks:        locks,
		cache:        cache,
		tripService: service.NewTripService(
			txm, trips, reservations, users, pricing, notifications, cache,
		),
		reservationService: service.NewReservationService(
			txm, reservations, trips, users, pricing, rating, notifications, locks, cache,
		),
	}
}

func makeUser(role domain.UserRole) *domain.User {
	return &domain.User{
		ID:            uuid.New().String(),
		Name:          "Test User",
		Phone:         "+237670000000",
		Role:          role,
		PhoneVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
}

func makeTrip(driverID string, seats int, departureIn time.Duration) *domain.Trip {
	return &domain.Trip{
		ID:               uuid.New().String(),
		DriverID:         driverID,
		DepartureAddress: "Carrefour Bonamoussadi",
		DepartureCity:    "Douala",
		ArrivalAddress:   "Poste Centrale",
		ArrivalCity:      "Yaounde",
		DepartureTime:    time.Now().UTC().Add(departureIn),
		TotalSeats:       seats,
		AvailableSeats:   seats,
		PricePerSeat:     5000,
		Status:           domain.TripStatusActive,
		CreatedAt:        time.Now().UTC(),
	}
}

func makeReservation(tripID, passengerID string, seats int, status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:            uuid.New().String(),
		TripID:        tripID,
		PassengerID:   passengerID,
		NumberOfSeats: seats,
		Status:        status,
		TotalPrice:    5000 * float64(seats),
		PricePerSeat:  5000,
		PlatformFee:   5000 * float64(seats) * 0.05,
		PaymentMethod: domain.PaymentMethodCash,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}
