package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/service"
)

func TestCreateTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes an active trip with all seats free", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)

		trip, err := f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      driver.ID,
			DepartureCity: "Douala",
			ArrivalCity:   "Yaounde",
			DepartureTime: time.Now().UTC().Add(48 * time.Hour),
			TotalSeats:    4,
			PricePerSeat:  5000,
		})
		if err != nil {
			t.Fatalf("CreateTrip failed: %v", err)
		}

		if trip.Status != domain.TripStatusActive {
			t.Errorf("expected ACTIVE, got %s", trip.Status)
		}
		if trip.AvailableSeats != 4 {
			t.Errorf("expected 4 available seats, got %d", trip.AvailableSeats)
		}
		if got := f.users.GetUser(driver.ID).TripsAsDriver; got != 1 {
			t.Errorf("expected driver trip counter 1, got %d", got)
		}
	})

	t.Run("rejects a plain passenger", func(t *testing.T) {
		f := newFixture()
		passenger := makeUser(domain.UserRolePassenger)
		f.users.AddUser(passenger)

		_, err := f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      passenger.ID,
			DepartureTime: time.Now().UTC().Add(48 * time.Hour),
			TotalSeats:    4,
			PricePerSeat:  5000,
		})
		if !errors.Is(err, service.ErrNotDriver) {
			t.Errorf("expected ErrNotDriver, got %v", err)
		}
	})

	t.Run("rejects an unverified driver", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		driver.PhoneVerified = false
		f.users.AddUser(driver)

		_, err := f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      driver.ID,
			DepartureTime: time.Now().UTC().Add(48 * time.Hour),
			TotalSeats:    4,
			PricePerSeat:  5000,
		})
		if !errors.Is(err, service.ErrNotDriver) {
			t.Errorf("expected ErrNotDriver, got %v", err)
		}
	})

	t.Run("enforces the active trip cap", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		for i := 0; i < 5; i++ {
			f.trips.AddTrip(makeTrip(driver.ID, 4, 48*time.Hour))
		}

		_, err := f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      driver.ID,
			DepartureTime: time.Now().UTC().Add(48 * time.Hour),
			TotalSeats:    4,
			PricePerSeat:  5000,
		})
		if !errors.Is(err, service.ErrActiveTripLimit) {
			t.Errorf("expected ErrActiveTripLimit, got %v", err)
		}
	})

	t.Run("rejects past departure, bad seats and bad price", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)

		_, err := f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      driver.ID,
			DepartureTime: time.Now().UTC().Add(-1 * time.Hour),
			TotalSeats:    4,
			PricePerSeat:  5000,
		})
		if !errors.Is(err, service.ErrInvalidDepartureTime) {
			t.Errorf("expected ErrInvalidDepartureTime, got %v", err)
		}

		_, err = f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      driver.ID,
			DepartureTime: time.Now().UTC().Add(48 * time.Hour),
			TotalSeats:    9,
			PricePerSeat:  5000,
		})
		if !errors.Is(err, service.ErrInvalidSeatCount) {
			t.Errorf("expected ErrInvalidSeatCount, got %v", err)
		}

		_, err = f.tripService.CreateTrip(ctx, service.CreateTripRequest{
			DriverID:      driver.ID,
			DepartureTime: time.Now().UTC().Add(48 * time.Hour),
			TotalSeats:    4,
			PricePerSeat:  0,
		})
		if !errors.Is(err, service.ErrInvalidPrice) {
			t.Errorf("expected ErrInvalidPrice, got %v", err)
		}
	})
}

func TestGetTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("serves repeat reads from cache", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)

		first, err := f.tripService.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if f.cache.SetCallCount != 1 {
			t.Errorf("expected one cache fill, got %d", f.cache.SetCallCount)
		}

		second, err := f.tripService.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("cached GetTrip failed: %v", err)
		}
		if second.AvailableSeats != first.AvailableSeats || second.DepartureCity != first.DepartureCity {
			t.Error("cached trip differs from the stored one")
		}
		if f.cache.SetCallCount != 1 {
			t.Errorf("cache hit must not refill, got %d fills", f.cache.SetCallCount)
		}
	})

	t.Run("seat mutations invalidate the cache", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		passenger := makeUser(domain.UserRolePassenger)
		f.users.AddUser(driver)
		f.users.AddUser(passenger)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)
		res := makeReservation(trip.ID, passenger.ID, 1, domain.ReservationStatusPending)
		f.reservations.AddReservation(res)

		// Prime the cache, then confirm, then read again.
		if _, err := f.tripService.GetTrip(ctx, trip.ID); err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if _, err := f.reservationService.ConfirmReservation(ctx, service.ConfirmReservationRequest{
			ReservationID: res.ID,
			DriverID:      driver.ID,
			Accept:        true,
		}); err != nil {
			t.Fatalf("ConfirmReservation failed: %v", err)
		}

		fresh, err := f.tripService.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if fresh.AvailableSeats != 3 {
			t.Errorf("expected fresh read with 3 seats, got %d", fresh.AvailableSeats)
		}
	})
}

func TestUpdateTrip(t *testing.T) {
	ctx := context.Background()

	strPtr := func(s string) *string { return &s }

	t.Run("edits descriptive fields only", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)

		updated, err := f.tripService.UpdateTrip(ctx, service.UpdateTripRequest{
			TripID:      trip.ID,
			DriverID:    driver.ID,
			ArrivalCity: strPtr("Bafoussam"),
			Description: strPtr("Detour via Edea"),
		})
		if err != nil {
			t.Fatalf("UpdateTrip failed: %v", err)
		}

		if updated.ArrivalCity != "Bafoussam" {
			t.Errorf("expected arrival city updated, got %q", updated.ArrivalCity)
		}
		if updated.DepartureCity != "Douala" {
			t.Errorf("untouched field changed: %q", updated.DepartureCity)
		}
		if updated.PricePerSeat != 5000 || updated.TotalSeats != 4 {
			t.Error("price and capacity must never change through update")
		}
	})

	t.Run("rejects edits close to departure", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 1*time.Hour)
		f.trips.AddTrip(trip)

		_, err := f.tripService.UpdateTrip(ctx, service.UpdateTripRequest{
			TripID:      trip.ID,
			DriverID:    driver.ID,
			Description: strPtr("too late"),
		})
		if !errors.Is(err, service.ErrTripNotModifiable) {
			t.Errorf("expected ErrTripNotModifiable, got %v", err)
		}
	})

	t.Run("rejects edits on a started trip", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		trip.Status = domain.TripStatusStarted
		f.trips.AddTrip(trip)

		_, err := f.tripService.UpdateTrip(ctx, service.UpdateTripRequest{
			TripID:      trip.ID,
			DriverID:    driver.ID,
			Description: strPtr("underway"),
		})
		if !errors.Is(err, service.ErrTripNotModifiable) {
			t.Errorf("expected ErrTripNotModifiable, got %v", err)
		}
	})

	t.Run("rejects a foreign driver", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		other := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		f.users.AddUser(other)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)

		_, err := f.tripService.UpdateTrip(ctx, service.UpdateTripRequest{
			TripID:      trip.ID,
			DriverID:    other.ID,
			Description: strPtr("not mine"),
		})
		if !errors.Is(err, service.ErrNotTripDriver) {
			t.Errorf("expected ErrNotTripDriver, got %v", err)
		}
	})
}

func TestCancelTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels and freezes the trip", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)

		cancelled, err := f.tripService.CancelTrip(ctx, service.CancelTripRequest{
			TripID:   trip.ID,
			DriverID: driver.ID,
			Reason:   "Vehicle breakdown",
		})
		if err != nil {
			t.Fatalf("CancelTrip failed: %v", err)
		}

		if cancelled.Status != domain.TripStatusCancelled {
			t.Errorf("expected CANCELLED, got %s", cancelled.Status)
		}
		if cancelled.CancellationReason != "Vehicle breakdown" {
			t.Errorf("unexpected reason %q", cancelled.CancellationReason)
		}
		if cancelled.CancelledAt.IsZero() {
			t.Error("expected CancelledAt to be set")
		}
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newFixture()
		_, err := f.tripService.CancelTrip(ctx, service.CancelTripRequest{
			TripID:   "trip-1",
			DriverID: "driver-1",
		})
		if !errors.Is(err, service.ErrReasonRequired) {
			t.Errorf("expected ErrReasonRequired, got %v", err)
		}
	})

	t.Run("rejects cancelling a started trip", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		trip.Status = domain.TripStatusStarted
		f.trips.AddTrip(trip)

		_, err := f.tripService.CancelTrip(ctx, service.CancelTripRequest{
			TripID:   trip.ID,
			DriverID: driver.ID,
			Reason:   "too late",
		})
		if !errors.Is(err, service.ErrTripNotCancellable) {
			t.Errorf("expected ErrTripNotCancellable, got %v", err)
		}
	})

	t.Run("outstanding reservations keep their status", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		passenger := makeUser(domain.UserRolePassenger)
		f.users.AddUser(driver)
		f.users.AddUser(passenger)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		trip.AvailableSeats = 3
		f.trips.AddTrip(trip)
		res := makeReservation(trip.ID, passenger.ID, 1, domain.ReservationStatusConfirmed)
		f.reservations.AddReservation(res)

		if _, err := f.tripService.CancelTrip(ctx, service.CancelTripRequest{
			TripID:   trip.ID,
			DriverID: driver.ID,
			Reason:   "Vehicle breakdown",
		}); err != nil {
			t.Fatalf("CancelTrip failed: %v", err)
		}

		// The reservation is untouched; the passenger cancels on their own
		// terms, and the frozen counter ignores the release.
		if f.reservations.GetReservation(res.ID).Status != domain.ReservationStatusConfirmed {
			t.Error("trip cancel must not touch reservation status")
		}

		result, err := f.reservationService.CancelReservation(ctx, service.CancelReservationRequest{
			ReservationID: res.ID,
			CallerID:      passenger.ID,
			Reason:        "Trip was cancelled",
		})
		if err != nil {
			t.Fatalf("passenger cancel failed: %v", err)
		}
		if result.Reservation.Status != domain.ReservationStatusCancelledByPassenger {
			t.Errorf("expected CANCELLED_BY_PASSENGER, got %s", result.Reservation.Status)
		}
		if got := f.trips.GetTrip(trip.ID).AvailableSeats; got != 3 {
			t.Errorf("cancelled trip's seat counter must stay frozen, got %d", got)
		}
	})
}

func TestTripRide(t *testing.T) {
	ctx := context.Background()

	t.Run("start then complete finalizes earnings", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		trip.AvailableSeats = 1 // 3 seats sold
		f.trips.AddTrip(trip)

		started, err := f.tripService.StartTrip(ctx, trip.ID, driver.ID)
		if err != nil {
			t.Fatalf("StartTrip failed: %v", err)
		}
		if started.Status != domain.TripStatusStarted {
			t.Errorf("expected STARTED, got %s", started.Status)
		}
		if started.ActualDepartureTime.IsZero() {
			t.Error("expected ActualDepartureTime to be set")
		}

		completed, err := f.tripService.CompleteTrip(ctx, trip.ID, driver.ID)
		if err != nil {
			t.Fatalf("CompleteTrip failed: %v", err)
		}
		if completed.Status != domain.TripStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", completed.Status)
		}
		if completed.TotalEarnings != 15000 {
			t.Errorf("expected earnings 15000, got %f", completed.TotalEarnings)
		}
		if completed.PlatformCommission != 1500 {
			t.Errorf("expected commission 1500, got %f", completed.PlatformCommission)
		}
		if completed.DriverEarnings != 13500 {
			t.Errorf("expected driver earnings 13500, got %f", completed.DriverEarnings)
		}
	})

	t.Run("complete requires a started trip", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		f.trips.AddTrip(trip)

		_, err := f.tripService.CompleteTrip(ctx, trip.ID, driver.ID)
		if !errors.Is(err, service.ErrTripNotStarted) {
			t.Errorf("expected ErrTripNotStarted, got %v", err)
		}
	})

	t.Run("start rejects a completed trip", func(t *testing.T) {
		f := newFixture()
		driver := makeUser(domain.UserRoleDriver)
		f.users.AddUser(driver)
		trip := makeTrip(driver.ID, 4, 48*time.Hour)
		trip.Status = domain.TripStatusCompleted
		f.trips.AddTrip(trip)

		_, err := f.tripService.StartTrip(ctx, trip.ID, driver.ID)
		if !errors.Is(err, service.ErrTripNotStartable) {
			t.Errorf("expected ErrTripNotStartable, got %v", err)
		}
	})
}

func TestTripStats(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	driver := makeUser(domain.UserRoleDriver)
	passenger := makeUser(domain.UserRolePassenger)
	f.users.AddUser(driver)
	f.users.AddUser(passenger)
	trip := makeTrip(driver.ID, 4, 48*time.Hour)
	trip.AvailableSeats = 1
	trip.TotalEarnings = 15000
	trip.PlatformCommission = 1500
	trip.DriverEarnings = 13500
	f.trips.AddTrip(trip)

	stats, err := f.tripService.GetTripStats(ctx, trip.ID, driver.ID)
	if err != nil {
		t.Fatalf("GetTripStats failed: %v", err)
	}

	if stats.OccupiedSeats != 3 {
		t.Errorf("expected 3 occupied seats, got %d", stats.OccupiedSeats)
	}
	if stats.OccupancyRate != 75 {
		t.Errorf("expected 75%% occupancy, got %f", stats.OccupancyRate)
	}
	if stats.DriverEarnings != 13500 {
		t.Errorf("expected driver earnings 13500, got %f", stats.DriverEarnings)
	}

	if _, err := f.tripService.GetTripStats(ctx, trip.ID, passenger.ID); !errors.Is(err, service.ErrNotTripDriver) {
		t.Errorf("expected ErrNotTripDriver for non-owner, got %v", err)
	}
}

func TestGetMyTrips(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	driver := makeUser(domain.UserRoleDriver)
	f.users.AddUser(driver)

	active := makeTrip(driver.ID, 4, 48*time.Hour)
	completed := makeTrip(driver.ID, 4, -48*time.Hour)
	completed.Status = domain.TripStatusCompleted
	cancelled := makeTrip(driver.ID, 4, 24*time.Hour)
	cancelled.Status = domain.TripStatusCancelled
	f.trips.AddTrip(active)
	f.trips.AddTrip(completed)
	f.trips.AddTrip(cancelled)

	grouped, err := f.tripService.GetMyTrips(ctx, driver.ID)
	if err != nil {
		t.Fatalf("GetMyTrips failed: %v", err)
	}
	if len(grouped.Active) != 1 || len(grouped.Completed) != 1 || len(grouped.Cancelled) != 1 {
		t.Errorf("unexpected grouping: active=%d completed=%d cancelled=%d",
			len(grouped.Active), len(grouped.Completed), len(grouped.Cancelled))
	}
}
