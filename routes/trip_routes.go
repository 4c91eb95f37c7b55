package routes

import (
	"gofleet/internal/handlers"
	"gofleet/internal/middleware"
	"gofleet/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupTripRoutes mounts the trip lifecycle endpoints.
func SetupTripRoutes(api *gin.RouterGroup, handler *handlers.TripHandler) {
	trips := api.Group("/trips")
	{
		trips.POST("", middleware.RolesRequired(services.RoleRequester), handler.CreateTrip)
		trips.GET("", handler.ListMyTrips)
		trips.GET("/pending", middleware.RolesRequired(services.RoleDriver, services.RoleCourier, services.RoleAdmin), handler.ListPendingTrips)
		trips.GET("/:id", handler.GetTrip)
		trips.POST("/:id/accept", middleware.RolesRequired(services.RoleDriver, services.RoleCourier), handler.AcceptTrip)
		trips.PUT("/:id/status", middleware.RolesRequired(services.RoleDriver, services.RoleCourier, services.RoleRequester, services.RoleAdmin), handler.UpdateStatus)
		trips.POST("/:id/cancel", handler.CancelTrip)
		trips.POST("/:id/rating", middleware.RolesRequired(services.RoleRequester), handler.RateTrip)
		trips.POST("/:id/sos", handler.ActivateSOS)
		trips.POST("/:id/incidents", handler.ReportIncident)
	}
}
