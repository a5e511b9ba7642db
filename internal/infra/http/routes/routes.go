// Package routes wires the ops surface's gin router, adapted from the
// teacher's internal/http/routes package (one SetupRoutes entry point
// taking every handler plus middleware dependencies).
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemed-booking-core/internal/infra/config"
	"telemed-booking-core/internal/infra/http/handlers"
	"telemed-booking-core/internal/infra/http/middleware"
	"telemed-booking-core/internal/infra/logger"
)

// Dependencies bundles everything SetupRouter needs to mount the booking
// API's routes.
type Dependencies struct {
	Health    *handlers.HealthHandler
	Readiness *handlers.ReadinessHandler
	Booking   *handlers.BookingHandler
	Log       *logger.Logger
	CORS      config.CORSConfig
	JWTSecret string
}

// SetupRouter builds the gin engine: global middleware, unauthenticated
// ops endpoints, then the authenticated /api/v1 booking surface.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(middleware.Recovery(deps.Log))
	router.Use(middleware.CORS(deps.CORS.AllowedOrigins))

	router.GET("/health", deps.Health.Health)
	router.GET("/ready", deps.Readiness.Readiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(deps.JWTSecret))
	{
		bookings := v1.Group("/bookings")
		bookings.POST("", deps.Booking.Submit)
		bookings.GET("/:job_id", deps.Booking.GetStatus)
		bookings.GET("/:job_id/events", deps.Booking.Events)
		bookings.POST("/:job_id/cancel", deps.Booking.Cancel)
	}

	return router
}
