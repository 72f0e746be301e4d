package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID             string  `json:"trip_id"`
	DriverID           string  `json:"driver_id"`
	DepartureAddress   string  `json:"departure_address"`
	DepartureCity      string  `json:"departure_city"`
	ArrivalAddress     string  `json:"arrival_address"`
	ArrivalCity        string  `json:"arrival_city"`
	DepartureTime      string  `json:"departure_time"`
	TotalSeats         int     `json:"total_seats"`
	AvailableSeats     int     `json:"available_seats"`
	PricePerSeat       float64 `json:"price_per_seat"`
	Status             string  `json:"status"`
	Description        string  `json:"description,omitempty"`
	TotalEarnings      float64 `json:"total_earnings,omitempty"`
	PlatformCommission float64 `json:"platform_commission,omitempty"`
	DriverEarnings     float64 `json:"driver_earnings,omitempty"`
	CancelledAt        string  `json:"cancelled_at,omitempty"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
}

func toTripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		TripID:             t.ID,
		DriverID:           t.DriverID,
		DepartureAddress:   t.DepartureAddress,
		DepartureCity:      t.DepartureCity,
		ArrivalAddress:     t.ArrivalAddress,
		ArrivalCity:        t.ArrivalCity,
		DepartureTime:      t.DepartureTime.Format(time.RFC3339),
		TotalSeats:         t.TotalSeats,
		AvailableSeats:     t.AvailableSeats,
		PricePerSeat:       t.PricePerSeat,
		Status:             string(t.Status),
		Description:        t.Description,
		TotalEarnings:      t.TotalEarnings,
		PlatformCommission: t.PlatformCommission,
		DriverEarnings:     t.DriverEarnings,
		CancellationReason: t.CancellationReason,
	}
	if !t.CancelledAt.IsZero() {
		resp.CancelledAt = t.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

// CreateTripRequest is the HTTP request body for publishing a trip.
type CreateTripRequest struct {
	DepartureAddress string  `json:"departure_address"`
	DepartureCity    string  `json:"departure_city"`
	ArrivalAddress   string  `json:"arrival_address"`
	ArrivalCity      string  `json:"arrival_city"`
	DepartureTime    string  `json:"departure_time"`
	TotalSeats       int     `json:"total_seats"`
	PricePerSeat     float64 `json:"price_per_seat"`
	Description      string  `json:"description"`
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "departure_time must be RFC3339"})
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		DriverID:         middleware.CallerID(c),
		DepartureAddress: req.DepartureAddress,
		DepartureCity:    req.DepartureCity,
		ArrivalAddress:   req.ArrivalAddress,
		ArrivalCity:      req.ArrivalCity,
		DepartureTime:    departure,
		TotalSeats:       req.TotalSeats,
		PricePerSeat:     req.PricePerSeat,
		Description:      req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// SearchTripsResponse is the HTTP response for a trip search.
type SearchTripsResponse struct {
	Trips []TripResponse `json:"trips"`
	Total int            `json:"total"`
}

// SearchTrips handles GET /v1/trips
func (h *TripHandler) SearchTrips(c *gin.Context) {
	filters := repository.TripSearchFilters{
		DepartureCity: c.Query("departure_city"),
		ArrivalCity:   c.Query("arrival_city"),
	}

	if date := c.Query("date"); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		filters.DepartureDate = parsed
	}
	if v := c.Query("min_seats"); v != "" {
		filters.MinSeats, _ = strconv.Atoi(v)
	}
	if v := c.Query("max_price"); v != "" {
		filters.MaxPrice, _ = strconv.ParseFloat(v, 64)
	}
	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	trips, total, err := h.tripService.SearchTrips(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := SearchTripsResponse{Total: total, Trips: make([]TripResponse, 0, len(trips))}
	for _, t := range trips {
		resp.Trips = append(resp.Trips, toTripResponse(t))
	}

	respondJSON(c, http.StatusOK, resp)
}

// UpdateTripRequest is the HTTP request body for editing a trip. Absent
// fields are left unchanged.
type UpdateTripRequest struct {
	DepartureAddress *string `json:"departure_address"`
	DepartureCity    *string `json:"departure_city"`
	ArrivalAddress   *string `json:"arrival_address"`
	ArrivalCity      *string `json:"arrival_city"`
	DepartureTime    *string `json:"departure_time"`
	Description      *string `json:"description"`
}

// UpdateTrip handles PATCH /v1/trips/:id
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	update := service.UpdateTripRequest{
		TripID:           c.Param("id"),
		DriverID:         middleware.CallerID(c),
		DepartureAddress: req.DepartureAddress,
		DepartureCity:    req.DepartureCity,
		ArrivalAddress:   req.ArrivalAddress,
		ArrivalCity:      req.ArrivalCity,
		Description:      req.Description,
	}

	if req.DepartureTime != nil {
		parsed, err := time.Parse(time.RFC3339, *req.DepartureTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "departure_time must be RFC3339"})
			return
		}
		update.DepartureTime = &parsed
	}

	trip, err := h.tripService.UpdateTrip(c.Request.Context(), update)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	Reason string `json:"reason"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), service.CancelTripRequest{
		TripID:   c.Param("id"),
		DriverID: middleware.CallerID(c),
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	trip, err := h.tripService.StartTrip(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	trip, err := h.tripService.CompleteTrip(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// MyTripsResponse is the HTTP response for the driver's trips.
type MyTripsResponse struct {
	Active    []TripResponse `json:"active_trips"`
	Completed []TripResponse `json:"completed_trips"`
	Cancelled []TripResponse `json:"cancelled_trips"`
}

// GetMyTrips handles GET /v1/my/trips
func (h *TripHandler) GetMyTrips(c *gin.Context) {
	trips, err := h.tripService.GetMyTrips(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := MyTripsResponse{
		Active:    toTripResponses(trips.Active),
		Completed: toTripResponses(trips.Completed),
		Cancelled: toTripResponses(trips.Cancelled),
	}
	respondJSON(c, http.StatusOK, resp)
}

// TripStatsResponse is the HTTP response for trip statistics.
type TripStatsResponse struct {
	TripID             string  `json:"trip_id"`
	OccupiedSeats      int     `json:"occupied_seats"`
	TotalSeats         int     `json:"total_seats"`
	OccupancyRate      float64 `json:"occupancy_rate"`
	TotalEarnings      float64 `json:"total_earnings"`
	PlatformCommission float64 `json:"platform_commission"`
	DriverEarnings     float64 `json:"driver_earnings"`
}

// GetTripStats handles GET /v1/trips/:id/stats
func (h *TripHandler) GetTripStats(c *gin.Context) {
	stats, err := h.tripService.GetTripStats(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TripStatsResponse{
		TripID:             stats.TripID,
		OccupiedSeats:      stats.OccupiedSeats,
		TotalSeats:         stats.TotalSeats,
		OccupancyRate:      stats.OccupancyRate,
		TotalEarnings:      stats.TotalEarnings,
		PlatformCommission: stats.PlatformCommission,
		DriverEarnings:     stats.DriverEarnings,
	})
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	return out
}
