package tests

import (
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/service"
)

func TestSnapshotPrice(t *testing.T) {
	pricing := service.NewPricingService(0, 0)
	trip := &domain.Trip{PricePerSeat: 5000}

	quote := pricing.SnapshotPrice(trip, 3)

	if quote.TotalPrice != 15000 {
		t.Errorf("expected total 15000, got %f", quote.TotalPrice)
	}
	if quote.PricePerSeat != 5000 {
		t.Errorf("expected per-seat 5000, got %f", quote.PricePerSeat)
	}
	if quote.PlatformFee != 750 {
		t.Errorf("expected 5%% fee 750, got %f", quote.PlatformFee)
	}
}

func TestFinalizeTripEarnings(t *testing.T) {
	pricing := service.NewPricingService(0, 0)
	trip := &domain.Trip{
		TotalSeats:     4,
		AvailableSeats: 1,
		PricePerSeat:   5000,
	}

	pricing.FinalizeTripEarnings(trip)

	// 3 occupied seats at 5000 each.
	if trip.TotalEarnings != 15000 {
		t.Errorf("expected total earnings 15000, got %f", trip.TotalEarnings)
	}
	if trip.PlatformCommission != 1500 {
		t.Errorf("expected 10%% commission 1500, got %f", trip.PlatformCommission)
	}
	if trip.DriverEarnings != 13500 {
		t.Errorf("expected driver earnings 13500, got %f", trip.DriverEarnings)
	}
}

func TestRefundAmount(t *testing.T) {
	pricing := service.NewPricingService(0, 0)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name           string
		untilDeparture time.Duration
		paymentStatus  domain.PaymentStatus
		want           float64
	}{
		{"unpaid refunds nothing", 48 * time.Hour, domain.PaymentStatusPending, 0},
		{"more than 24h refunds in full", 30 * time.Hour, domain.PaymentStatusCompleted, 10000},
		{"exactly 24h refunds in full", 24 * time.Hour, domain.PaymentStatusCompleted, 10000},
		{"between 12h and 24h refunds half", 18 * time.Hour, domain.PaymentStatusCompleted, 5000},
		{"exactly 12h refunds half", 12 * time.Hour, domain.PaymentStatusCompleted, 5000},
		{"under 12h refunds nothing", 6 * time.Hour, domain.PaymentStatusCompleted, 0},
		{"after departure refunds nothing", -1 * time.Hour, domain.PaymentStatusCompleted, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := &domain.Reservation{TotalPrice: 10000, PaymentStatus: tc.paymentStatus}
			trip := &domain.Trip{DepartureTime: now.Add(tc.untilDeparture)}

			got := pricing.RefundAmount(res, trip, now)
			if got != tc.want {
				t.Errorf("expected refund %f, got %f", tc.want, got)
			}
		})
	}
}

func TestPricingRateFallbacks(t *testing.T) {
	// Non-positive rates fall back to the 5% / 10% defaults.
	pricing := service.NewPricingService(-1, 0)
	trip := &domain.Trip{PricePerSeat: 1000, TotalSeats: 1, AvailableSeats: 0}

	quote := pricing.SnapshotPrice(trip, 1)
	if quote.PlatformFee != 50 {
		t.Errorf("expected default fee 50, got %f", quote.PlatformFee)
	}

	pricing.FinalizeTripEarnings(trip)
	if trip.PlatformCommission != 100 {
		t.Errorf("expected default commission 100, got %f", trip.PlatformCommission)
	}
}
