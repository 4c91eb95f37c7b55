package routes

import (
	"gofleet/internal/config"
	"gofleet/internal/handlers"
	"gofleet/internal/middleware"
	"gofleet/pkg/logger"
	"gofleet/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup wires the middleware stack, the REST surface, the websocket upgrade
// and the operational endpoints onto one engine.
func Setup(
	cfg *config.Config,
	log *logger.Logger,
	tripHandler *handlers.TripHandler,
	workerHandler *handlers.WorkerHandler,
	wsHandler *websocket.Handler,
	healthCheck gin.HandlerFunc,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1", middleware.AuthRequired(cfg.Security.JWTSecret))
	SetupTripRoutes(api, tripHandler)
	SetupWorkerRoutes(api, workerHandler)

	router.GET(cfg.WebSocket.Path, middleware.AuthRequired(cfg.Security.JWTSecret), wsHandler.HandleWebSocket)

	return router
}
