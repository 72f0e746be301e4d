package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/auth"
	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler        *handler.UserHandler
	TripHandler        *handler.TripHandler
	ReservationHandler *handler.ReservationHandler
	Tokens             *auth.TokenManager
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRequired := middleware.AuthRequired(deps.Tokens)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.POST("/login", deps.UserHandler.Login)
			users.POST("/verify-phone", authRequired, deps.UserHandler.VerifyPhone)
			users.GET("/me", authRequired, deps.UserHandler.Me)
		}

		// Trip routes. Search and detail are public; everything else is
		// driver territory.
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.SearchTrips)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("", authRequired, deps.TripHandler.CreateTrip)
			trips.PATCH("/:id", authRequired, deps.TripHandler.UpdateTrip)
			trips.POST("/:id/cancel", authRequired, deps.TripHandler.CancelTrip)
			trips.POST("/:id/start", authRequired, deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", authRequired, deps.TripHandler.CompleteTrip)
			trips.GET("/:id/stats", authRequired, deps.TripHandler.GetTripStats)
			trips.GET("/:id/reservations", authRequired, deps.ReservationHandler.GetTripReservations)
		}

		// Reservation routes.
		reservations := v1.Group("/reservations", authRequired)
		{
			reservations.POST("", deps.ReservationHandler.CreateReservation)
			reservations.GET("/:id", deps.ReservationHandler.GetReservation)
			reservations.POST("/:id/confirm", deps.ReservationHandler.ConfirmReservation)
			reservations.POST("/:id/cancel", deps.ReservationHandler.CancelReservation)
			reservations.POST("/:id/pay", deps.ReservationHandler.PayReservation)
			reservations.POST("/:id/start", deps.ReservationHandler.StartReservation)
			reservations.POST("/:id/complete", deps.ReservationHandler.CompleteReservation)
			reservations.POST("/:id/no-show", deps.ReservationHandler.MarkNoShow)
			reservations.POST("/:id/rate", deps.ReservationHandler.RateReservation)
		}

		// Caller-scoped listings.
		my := v1.Group("/my", authRequired)
		{
			my.GET("/trips", deps.TripHandler.GetMyTrips)
			my.GET("/reservations", deps.ReservationHandler.GetMyReservations)
		}
	}

	return router
}
