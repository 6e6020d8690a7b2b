package api

import (
	"net/http"

	"github.com/andhikadk/smi-test/internal/service/availability"
	"github.com/andhikadk/smi-test/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every handler under /api/v1 behind bearer authentication.
func NewRouter(verifier TokenVerifier, bookings booking.BookingUseCase, resources availability.AvailabilityUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), RequestID())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1", Authenticate(verifier))
	NewBookingHandler(bookings).Register(v1.Group("/bookings"))
	NewResourceHandler(resources).Register(v1)
	NewActivityHandler(bookings).Register(v1.Group("/activity-logs"))
	return router
}
