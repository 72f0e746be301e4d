package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationReservationRequested NotificationType = "RESERVATION_REQUESTED"
	NotificationReservationConfirmed NotificationType = "RESERVATION_CONFIRMED"
	NotificationReservationRejected  NotificationType = "RESERVATION_REJECTED"
	NotificationReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotificationReservationPaid      NotificationType = "RESERVATION_PAID"
	NotificationTripCancelled        NotificationType = "TRIP_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService is the fire-and-forget notification sink. Delivery
// failures never roll back the state transition that triggered them.
type NotificationService struct {
	log *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(log *logrus.Logger) *NotificationService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NotificationService{log: log}
}

// NotifyReservationRequested tells the driver a passenger wants seats.
func (s *NotificationService) NotifyReservationRequested(ctx context.Context, res *domain.Reservation, driverID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationRequested,
		RecipientID: driverID,
		Title:       "New Reservation Request",
		Message:     fmt.Sprintf("A passenger requested %d seat(s) on your trip", res.NumberOfSeats),
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"trip_id":        res.TripID,
			"seats":          res.NumberOfSeats,
		},
		CreatedAt: time.Now().UTC(),
	})
}

// NotifyReservationConfirmed tells the passenger the driver accepted.
func (s *NotificationService) NotifyReservationConfirmed(ctx context.Context, res *domain.Reservation) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationConfirmed,
		RecipientID: res.PassengerID,
		Title:       "Reservation Confirmed",
		Message:     fmt.Sprintf("Your reservation for %d seat(s) has been confirmed", res.NumberOfSeats),
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"trip_id":        res.TripID,
			"total_price":    res.TotalPrice,
		},
		CreatedAt: time.Now().UTC(),
	})
}

// NotifyReservationRejected tells the passenger the driver declined.
func (s *NotificationService) NotifyReservationRejected(ctx context.Context, res *domain.Reservation) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationRejected,
		RecipientID: res.PassengerID,
		Title:       "Reservation Declined",
		Message:     res.CancellationReason,
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"trip_id":        res.TripID,
		},
		CreatedAt: time.Now().UTC(),
	})
}

// NotifyReservationCancelled tells the counterparty about a cancellation.
func (s *NotificationService) NotifyReservationCancelled(ctx context.Context, res *domain.Reservation, recipientID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationCancelled,
		RecipientID: recipientID,
		Title:       "Reservation Cancelled",
		Message:     fmt.Sprintf("Reservation cancelled: %s", res.CancellationReason),
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"trip_id":        res.TripID,
			"status":         string(res.Status),
		},
		CreatedAt: time.Now().UTC(),
	})
}

// NotifyReservationPaid tells the driver a reservation has been paid.
func (s *NotificationService) NotifyReservationPaid(ctx context.Context, res *domain.Reservation, driverID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationPaid,
		RecipientID: driverID,
		Title:       "Payment Received",
		Message:     fmt.Sprintf("Payment of %.0f FCFA received for a reservation", res.TotalPrice),
		Data: map[string]interface{}{
			"reservation_id": res.ID,
			"trip_id":        res.TripID,
			"amount":         res.TotalPrice,
		},
		CreatedAt: time.Now().UTC(),
	})
}

// NotifyTripCancelled tells a passenger their trip has been cancelled by
// the driver.
func (s *NotificationService) NotifyTripCancelled(ctx context.Context, trip *domain.Trip, passengerID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationTripCancelled,
		RecipientID: passengerID,
		Title:       "Trip Cancelled",
		Message:     fmt.Sprintf("The trip %s → %s was cancelled: %s", trip.DepartureCity, trip.ArrivalCity, trip.CancellationReason),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"reason":  trip.CancellationReason,
		},
		CreatedAt: time.Now().UTC(),
	})
}

// send delivers the notification. In a real deployment this would push to
// FCM/SMS; here it logs the payload.
func (s *NotificationService) send(ctx context.Context, n Notification) error {
	s.log.WithFields(logrus.Fields{
		"type":      string(n.Type),
		"recipient": n.RecipientID,
		"data":      n.Data,
	}).Info(n.Message)
	return nil
}
