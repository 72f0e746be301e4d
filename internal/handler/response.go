package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/repository"
	"carpool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors onto the four error
// kinds the API exposes: not found, forbidden, conflict, validation.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Forbidden - caller lacks the required relationship
	case errors.Is(err, service.ErrNotTripDriver),
		errors.Is(err, service.ErrReservationAccessDenied),
		errors.Is(err, service.ErrPhoneNotVerified),
		errors.Is(err, service.ErrNotDriver):
		return http.StatusForbidden

	// Conflict - a state guard failed
	case errors.Is(err, service.ErrTripNotBookable),
		errors.Is(err, service.ErrInsufficientSeats),
		errors.Is(err, service.ErrDuplicateReservation),
		errors.Is(err, service.ErrReservationNotPending),
		errors.Is(err, service.ErrReservationNotCancellable),
		errors.Is(err, service.ErrReservationNotPayable),
		errors.Is(err, service.ErrReservationNotPaid),
		errors.Is(err, service.ErrReservationNotStarted),
		errors.Is(err, service.ErrReservationNotCompleted),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrTripNotCancellable),
		errors.Is(err, service.ErrTripNotStartable),
		errors.Is(err, service.ErrTripNotStarted),
		errors.Is(err, service.ErrTripNotModifiable),
		errors.Is(err, service.ErrActiveTripLimit),
		errors.Is(err, service.ErrTripBusy):
		return http.StatusConflict

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidReservationID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidDepartureTime),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrOwnTripReservation):
		return http.StatusBadRequest

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
