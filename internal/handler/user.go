package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carpool/internal/auth"
	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/repository"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository, tokens *auth.TokenManager) *UserHandler {
	return &UserHandler{userRepo: userRepo, tokens: tokens}
}

// RegisterRequest is the HTTP request body for user registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	Role             string  `json:"role"`
	PhoneVerified    bool    `json:"phone_verified"`
	RatingAverage    float64 `json:"rating_average"`
	TotalRatings     int     `json:"total_ratings"`
	TripsAsDriver    int     `json:"trips_as_driver"`
	TripsAsPassenger int     `json:"trips_as_passenger"`
}

// AuthResponse is the HTTP response for register/login, carrying the
// access token.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Name:             u.Name,
		Phone:            u.Phone,
		Role:             string(u.Role),
		PhoneVerified:    u.PhoneVerified,
		RatingAverage:    u.RatingAverage,
		TotalRatings:     u.TotalRatings,
		TripsAsDriver:    u.TripsAsDriver,
		TripsAsPassenger: u.TripsAsPassenger,
	}
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	role := domain.UserRole(req.Role)
	switch role {
	case domain.UserRolePassenger, domain.UserRoleDriver, domain.UserRoleBoth:
	case "":
		role = domain.UserRolePassenger
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid role"})
		return
	}

	// Check if user already exists
	existing, err := h.userRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	if existing != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "phone already registered"})
		return
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, AuthResponse{Token: token, User: toUserResponse(user)})
}

// LoginRequest is the HTTP request body for login.
type LoginRequest struct {
	Phone string `json:"phone"`
}

// Login handles POST /v1/users/login
//
// OTP delivery and verification live outside this service; login resolves
// the phone number to a user and issues an access token.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone is required"})
		return
	}

	user, err := h.userRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
}

// VerifyPhone handles POST /v1/users/verify-phone
//
// The OTP check itself is an external collaborator; this endpoint records
// its outcome.
func (h *UserHandler) VerifyPhone(c *gin.Context) {
	callerID := middleware.CallerID(c)

	if err := h.userRepo.MarkPhoneVerified(c.Request.Context(), callerID); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}
