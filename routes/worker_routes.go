package routes

import (
	"gofleet/internal/handlers"
	"gofleet/internal/middleware"
	"gofleet/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupWorkerRoutes mounts the worker self-service endpoints.
func SetupWorkerRoutes(api *gin.RouterGroup, handler *handlers.WorkerHandler) {
	workers := api.Group("/workers", middleware.RolesRequired(services.RoleDriver, services.RoleCourier))
	{
		workers.GET("/me", handler.GetProfile)
		workers.PUT("/me/location", handler.UpdateLocation)
		workers.PUT("/me/availability", handler.UpdateAvailability)
	}
}
