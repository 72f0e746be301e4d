package tests

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/service"
)

func TestRatingAggregate(t *testing.T) {
	t.Run("folds a rating into the running average", func(t *testing.T) {
		svc := service.NewRatingService()
		user := &domain.User{RatingAverage: 4.0, TotalRatings: 2}

		svc.Apply(user, 5)

		if user.TotalRatings != 3 {
			t.Errorf("expected 3 total ratings, got %d", user.TotalRatings)
		}
		// (4.0*2 + 5) / 3
		if math.Abs(user.RatingAverage-13.0/3.0) > 1e-9 {
			t.Errorf("expected average %.4f, got %.4f", 13.0/3.0, user.RatingAverage)
		}
	})

	t.Run("first rating sets the average outright", func(t *testing.T) {
		svc := service.NewRatingService()
		user := &domain.User{}

		svc.Apply(user, 3)

		if user.TotalRatings != 1 || user.RatingAverage != 3.0 {
			t.Errorf("expected average 3.0 over 1 rating, got %.2f over %d", user.RatingAverage, user.TotalRatings)
		}
	})
}

func TestRateReservation(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fixture, *domain.User, *domain.User, *domain.Reservation) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		passenger := makeUser(domain.UserRolePassenger)
		f.users.AddUser(driver)
		f.users.AddUser(passenger)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)
		res := makeReservation(trip.ID, passenger.ID, 1, domain.ReservationStatusCompleted)
		f.reservations.AddReservation(res)
		return f, driver, passenger, res
	}

	t.Run("passenger rates the driver", func(t *testing.T) {
		f, driver, passenger, res := setup()

		rated, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      passenger.ID,
			Rating:        5,
			Comment:       "Smooth ride",
		})
		if err != nil {
			t.Fatalf("RateReservation failed: %v", err)
		}

		if rated.DriverRating != 5 {
			t.Errorf("expected driver rating 5, got %d", rated.DriverRating)
		}
		if rated.PassengerComment != "Smooth ride" {
			t.Errorf("unexpected comment %q", rated.PassengerComment)
		}

		target := f.users.GetUser(driver.ID)
		if target.TotalRatings != 1 || target.RatingAverage != 5.0 {
			t.Errorf("expected driver average 5.0 over 1 rating, got %.2f over %d", target.RatingAverage, target.TotalRatings)
		}
	})

	t.Run("driver rates the passenger", func(t *testing.T) {
		f, driver, passenger, res := setup()

		rated, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      driver.ID,
			Rating:        4,
		})
		if err != nil {
			t.Fatalf("RateReservation failed: %v", err)
		}
		if rated.PassengerRating != 4 {
			t.Errorf("expected passenger rating 4, got %d", rated.PassengerRating)
		}

		target := f.users.GetUser(passenger.ID)
		if target.TotalRatings != 1 || target.RatingAverage != 4.0 {
			t.Errorf("expected passenger average 4.0 over 1 rating, got %.2f over %d", target.RatingAverage, target.TotalRatings)
		}
	})

	t.Run("rating is write-once per direction", func(t *testing.T) {
		f, _, passenger, res := setup()

		if _, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      passenger.ID,
			Rating:        5,
		}); err != nil {
			t.Fatalf("first rating failed: %v", err)
		}

		_, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      passenger.ID,
			Rating:        1,
		})
		if !errors.Is(err, service.ErrAlreadyRated) {
			t.Errorf("expected ErrAlreadyRated, got %v", err)
		}

		// The aggregate must not be double-applied.
		if got := f.users.UpdateRatingCallCount; got != 1 {
			t.Errorf("expected exactly one rating write, got %d", got)
		}
	})

	t.Run("both directions may rate independently", func(t *testing.T) {
		f, driver, passenger, res := setup()

		if _, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      passenger.ID,
			Rating:        5,
		}); err != nil {
			t.Fatalf("passenger rating failed: %v", err)
		}
		if _, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      driver.ID,
			Rating:        4,
		}); err != nil {
			t.Fatalf("driver rating failed: %v", err)
		}

		stored := f.reservations.GetReservation(res.ID)
		if stored.DriverRating != 5 || stored.PassengerRating != 4 {
			t.Errorf("expected ratings 5/4, got %d/%d", stored.DriverRating, stored.PassengerRating)
		}
	})

	t.Run("rejects rating before completion", func(t *testing.T) {
		f, _, passenger, res := setup()
		res.Status = domain.ReservationStatusPaid
		f.reservations.AddReservation(res)

		_, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
			ReservationID: res.ID,
			CallerID:      passenger.ID,
			Rating:        5,
		})
		if !errors.Is(err, service.ErrReservationNotCompleted) {
			t.Errorf("expected ErrReservationNotCompleted, got %v", err)
		}
	})

	t.Run("rejects out-of-range ratings", func(t *testing.T) {
		f, _, passenger, res := setup()
		for _, rating := range []int{0, 6, -1} {
			_, err := f.reservationService.RateReservation(ctx, service.RateReservationRequest{
				ReservationID: res.ID,
				CallerID:      passenger.ID,
				Rating:        rating,
			})
			if !errors.Is(err, service.ErrInvalidRating) {
				t.Errorf("rating=%d: expected ErrInvalidRating, got %v", rating, err)
			}
		}
	})
}
