package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// ReservationHandler handles HTTP requests for reservations.
type ReservationHandler struct {
	reservationService *service.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservationService *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// ReservationResponse is the HTTP response for reservation operations.
type ReservationResponse struct {
	ReservationID        string  `json:"reservation_id"`
	TripID               string  `json:"trip_id"`
	PassengerID          string  `json:"passenger_id"`
	NumberOfSeats        int     `json:"number_of_seats"`
	PickupAddress        string  `json:"pickup_address,omitempty"`
	DropoffAddress       string  `json:"dropoff_address,omitempty"`
	Status               string  `json:"status"`
	TotalPrice           float64 `json:"total_price"`
	PricePerSeat         float64 `json:"price_per_seat"`
	PlatformFee          float64 `json:"platform_fee"`
	PaymentMethod        string  `json:"payment_method"`
	PaymentStatus        string  `json:"payment_status"`
	PaymentTransactionID string  `json:"payment_transaction_id,omitempty"`
	PaidAt               string  `json:"paid_at,omitempty"`
	SpecialRequests      string  `json:"special_requests,omitempty"`
	DriverNotes          string  `json:"driver_notes,omitempty"`
	PassengerRating      int     `json:"passenger_rating,omitempty"`
	DriverRating         int     `json:"driver_rating,omitempty"`
	ConfirmedAt          string  `json:"confirmed_at,omitempty"`
	CancelledAt          string  `json:"cancelled_at,omitempty"`
	CancellationReason   string  `json:"cancellation_reason,omitempty"`
}

func toReservationResponse(r *domain.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ReservationID:        r.ID,
		TripID:               r.TripID,
		PassengerID:          r.PassengerID,
		NumberOfSeats:        r.NumberOfSeats,
		PickupAddress:        r.PickupAddress,
		DropoffAddress:       r.DropoffAddress,
		Status:               string(r.Status),
		TotalPrice:           r.TotalPrice,
		PricePerSeat:         r.PricePerSeat,
		PlatformFee:          r.PlatformFee,
		PaymentMethod:        string(r.PaymentMethod),
		PaymentStatus:        string(r.PaymentStatus),
		PaymentTransactionID: r.PaymentTransactionID,
		SpecialRequests:      r.SpecialRequests,
		DriverNotes:          r.DriverNotes,
		PassengerRating:      r.PassengerRating,
		DriverRating:         r.DriverRating,
		CancellationReason:   r.CancellationReason,
	}
	if !r.PaidAt.IsZero() {
		resp.PaidAt = r.PaidAt.Format(time.RFC3339)
	}
	if !r.ConfirmedAt.IsZero() {
		resp.ConfirmedAt = r.ConfirmedAt.Format(time.RFC3339)
	}
	if !r.CancelledAt.IsZero() {
		resp.CancelledAt = r.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

// CreateReservationRequest is the HTTP request body for requesting seats.
type CreateReservationRequest struct {
	TripID          string `json:"trip_id"`
	NumberOfSeats   int    `json:"number_of_seats"`
	PickupAddress   string `json:"pickup_address"`
	DropoffAddress  string `json:"dropoff_address"`
	PaymentMethod   string `json:"payment_method"`
	SpecialRequests string `json:"special_requests"`
}

// CreateReservation handles POST /v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reservation, err := h.reservationService.CreateReservation(c.Request.Context(), service.CreateReservationRequest{
		TripID:          req.TripID,
		PassengerID:     middleware.CallerID(c),
		NumberOfSeats:   req.NumberOfSeats,
		PickupAddress:   req.PickupAddress,
		DropoffAddress:  req.DropoffAddress,
		PaymentMethod:   req.PaymentMethod,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReservationResponse(reservation))
}

// GetReservation handles GET /v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	reservation, err := h.reservationService.GetReservation(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// ConfirmReservationRequest is the HTTP request body for the driver's
// accept/decline decision.
type ConfirmReservationRequest struct {
	Accept  bool   `json:"accept"`
	Message string `json:"message"`
}

// ConfirmReservation handles POST /v1/reservations/:id/confirm
func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	var req ConfirmReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reservation, err := h.reservationService.ConfirmReservation(c.Request.Context(), service.ConfirmReservationRequest{
		ReservationID: c.Param("id"),
		DriverID:      middleware.CallerID(c),
		Accept:        req.Accept,
		Message:       req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// CancelReservationRequest is the HTTP request body for cancelling a
// reservation.
type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

// CancelReservationResponse is the HTTP response for a cancellation,
// including the refund owed under the cancellation policy.
type CancelReservationResponse struct {
	Reservation  ReservationResponse `json:"reservation"`
	RefundAmount float64             `json:"refund_amount"`
}

// CancelReservation handles POST /v1/reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	var req CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.reservationService.CancelReservation(c.Request.Context(), service.CancelReservationRequest{
		ReservationID: c.Param("id"),
		CallerID:      middleware.CallerID(c),
		Reason:        req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CancelReservationResponse{
		Reservation:  toReservationResponse(result.Reservation),
		RefundAmount: result.RefundAmount,
	})
}

// PayReservationRequest is the HTTP request body for recording a payment
// obtained through an external gateway.
type PayReservationRequest struct {
	TransactionID string `json:"transaction_id"`
}

// PayReservation handles POST /v1/reservations/:id/pay
func (h *ReservationHandler) PayReservation(c *gin.Context) {
	var req PayReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reservation, err := h.reservationService.MarkPaid(c.Request.Context(), service.MarkPaidRequest{
		ReservationID: c.Param("id"),
		PassengerID:   middleware.CallerID(c),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// StartReservation handles POST /v1/reservations/:id/start
func (h *ReservationHandler) StartReservation(c *gin.Context) {
	reservation, err := h.reservationService.StartReservation(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// CompleteReservation handles POST /v1/reservations/:id/complete
func (h *ReservationHandler) CompleteReservation(c *gin.Context) {
	reservation, err := h.reservationService.CompleteReservation(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// MarkNoShow handles POST /v1/reservations/:id/no-show
func (h *ReservationHandler) MarkNoShow(c *gin.Context) {
	reservation, err := h.reservationService.MarkNoShow(c.Request.Context(), service.MarkNoShowRequest{
		ReservationID: c.Param("id"),
		DriverID:      middleware.CallerID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// RateReservationRequest is the HTTP request body for rating the other
// party after completion.
type RateReservationRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// RateReservation handles POST /v1/reservations/:id/rate
func (h *ReservationHandler) RateReservation(c *gin.Context) {
	var req RateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reservation, err := h.reservationService.RateReservation(c.Request.Context(), service.RateReservationRequest{
		ReservationID: c.Param("id"),
		CallerID:      middleware.CallerID(c),
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// MyReservationsResponse is the HTTP response for the passenger's
// reservations.
type MyReservationsResponse struct {
	Active    []ReservationResponse `json:"active_reservations"`
	Completed []ReservationResponse `json:"completed_reservations"`
	Cancelled []ReservationResponse `json:"cancelled_reservations"`
}

// GetMyReservations handles GET /v1/my/reservations
func (h *ReservationHandler) GetMyReservations(c *gin.Context) {
	reservations, err := h.reservationService.ListMyReservations(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, MyReservationsResponse{
		Active:    toReservationResponses(reservations.Active),
		Completed: toReservationResponses(reservations.Completed),
		Cancelled: toReservationResponses(reservations.Cancelled),
	})
}

// TripReservationsResponse is the HTTP response for a trip's reservations,
// visible to its driver.
type TripReservationsResponse struct {
	Pending   []ReservationResponse `json:"pending_reservations"`
	Confirmed []ReservationResponse `json:"confirmed_reservations"`
	Cancelled []ReservationResponse `json:"cancelled_reservations"`
}

// GetTripReservations handles GET /v1/trips/:id/reservations
func (h *ReservationHandler) GetTripReservations(c *gin.Context) {
	reservations, err := h.reservationService.ListTripReservations(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TripReservationsResponse{
		Pending:   toReservationResponses(reservations.Pending),
		Confirmed: toReservationResponses(reservations.Confirmed),
		Cancelled: toReservationResponses(reservations.Cancelled),
	})
}

func toReservationResponses(reservations []*domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationResponse(r))
	}
	return out
}
