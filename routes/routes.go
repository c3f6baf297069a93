package routes

import (
	"net/http"
	"time"

	"beautybook/handlers"
	"beautybook/middleware"
	"beautybook/models"
	"beautybook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", middleware.RequireRole(models.RoleClient), hb.RequestBookingHandler)
		api.GET("/:bookingID", hb.GetBookingHandler)
		api.POST("/:bookingID/confirm", middleware.RequireRole(models.RoleProvider), hb.ConfirmBookingHandler)
		api.POST("/:bookingID/cancel", hb.CancelBookingHandler)
		api.POST("/:bookingID/complete", middleware.RequireRole(models.RoleProvider), hb.CompleteBookingHandler)
	}
}

// RegisterCalendarRoutes registers availability and calendar endpoints of a provider.
func RegisterCalendarRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers/:providerID")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/availability", hb.GetAvailabilityHandler)
		api.GET("/calendar", hb.GetCalendarHandler)
		api.GET("/calendar/watch", hb.WatchCalendarHandler)
	}
}

// RegisterDeviceRoutes registers push token endpoints.
func RegisterDeviceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/devices")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.PUT("/fcm-token", hb.UpdateFCMTokenHandler)
	}
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		healthy := status.Mongo
		for _, ok := range status.Redis {
			healthy = healthy && ok
		}
		code := http.StatusOK
		if !healthy && !status.CheckedAt.IsZero() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm BeautyBook"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterCalendarRoutes(r, hb)
	RegisterDeviceRoutes(r, hb)
}
