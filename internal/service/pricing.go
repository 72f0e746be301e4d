package service

import (
	"time"

	"carpool/internal/domain"
)

// Default marketplace rates. The platform fee is charged to the passenger
// at booking time; the commission is withheld from the driver's earnings at
// trip completion.
const (
	DefaultPlatformFeeRate = 0.05
	DefaultCommissionRate  = 0.10
)

// PriceQuote is the financial snapshot captured on a reservation at
// creation time. It is never recomputed, even if the trip's price changes
// afterwards.
type PriceQuote struct {
	TotalPrice   float64
	PricePerSeat float64
	PlatformFee  float64
}

// PricingService derives prices, fees and earnings splits.
type PricingService struct {
	feeRate        float64
	commissionRate float64
}

// NewPricingService creates a new PricingService. Non-positive rates fall
// back to the defaults.
func NewPricingService(feeRate, commissionRate float64) *PricingService {
	if feeRate <= 0 {
		feeRate = DefaultPlatformFeeRate
	}
	if commissionRate <= 0 {
		commissionRate = DefaultCommissionRate
	}
	return &PricingService{feeRate: feeRate, commissionRate: commissionRate}
}

// SnapshotPrice quotes seats at the trip's current per-seat price.
func (s *PricingService) SnapshotPrice(trip *domain.Trip, seats int) PriceQuote {
	total := trip.PricePerSeat * float64(seats)
	return PriceQuote{
		TotalPrice:   total,
		PricePerSeat: trip.PricePerSeat,
		PlatformFee:  total * s.feeRate,
	}
}

// FinalizeTripEarnings computes the earnings split from the occupied seats
// and writes it onto the trip. Called exactly once, at trip completion.
func (s *PricingService) FinalizeTripEarnings(trip *domain.Trip) {
	total := float64(trip.OccupiedSeats()) * trip.PricePerSeat
	trip.TotalEarnings = total
	trip.PlatformCommission = total * s.commissionRate
	trip.DriverEarnings = total - trip.PlatformCommission
}

// RefundAmount computes what a cancelled reservation is refunded, based on
// how far ahead of the trip's departure the cancellation lands. Unpaid
// reservations refund nothing.
func (s *PricingService) RefundAmount(res *domain.Reservation, trip *domain.Trip, now time.Time) float64 {
	if res.PaymentStatus != domain.PaymentStatusCompleted {
		return 0
	}

	untilDeparture := trip.DepartureTime.Sub(now)
	switch {
	case untilDeparture >= 24*time.Hour:
		return res.TotalPrice
	case untilDeparture >= 12*time.Hour:
		return res.TotalPrice * 0.5
	default:
		return 0
	}
}
