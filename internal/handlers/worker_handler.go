package handlers

import (
	"gofleet/internal/models"
	"gofleet/internal/services"
	"gofleet/internal/utils"
	"gofleet/internal/validators"
	"gofleet/pkg/logger"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	workers services.WorkerService
	log     *logger.Logger
}

func NewWorkerHandler(workers services.WorkerService, log *logger.Logger) *WorkerHandler {
	return &WorkerHandler{workers: workers, log: log}
}

// GetProfile handles GET /api/v1/workers/me.
func (h *WorkerHandler) GetProfile(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}
	worker, err := h.workers.GetWorker(c.Request.Context(), workerID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "worker retrieved", worker)
}

// UpdateLocation handles PUT /api/v1/workers/me/location.
func (h *WorkerHandler) UpdateLocation(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateUpdateLocation(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	worker, err := h.workers.UpdateLocation(c.Request.Context(), workerID, req.Latitude, req.Longitude, req.Address)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "location updated", worker)
}

// UpdateAvailability handles PUT /api/v1/workers/me/availability.
func (h *WorkerHandler) UpdateAvailability(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	var req models.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateUpdateAvailability(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	worker, err := h.workers.UpdateAvailability(c.Request.Context(), workerID, *req.IsAvailable)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "availability updated", worker)
}
