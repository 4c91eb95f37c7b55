package handlers

import (
	"strconv"

	"gofleet/internal/models"
	"gofleet/internal/services"
	"gofleet/internal/utils"
	"gofleet/internal/validators"
	"gofleet/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripHandler struct {
	dispatch  services.DispatchService
	trips     services.TripService
	ratings   services.RatingService
	emergency services.EmergencyService
	incidents services.IncidentService
	log       *logger.Logger
}

func NewTripHandler(
	dispatch services.DispatchService,
	trips services.TripService,
	ratings services.RatingService,
	emergency services.EmergencyService,
	incidents services.IncidentService,
	log *logger.Logger,
) *TripHandler {
	return &TripHandler{
		dispatch:  dispatch,
		trips:     trips,
		ratings:   ratings,
		emergency: emergency,
		incidents: incidents,
		log:       log,
	}
}

func actorID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return id, true
}

func tripIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid trip id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateTrip handles POST /api/v1/trips.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	requesterID, ok := actorID(c)
	if !ok {
		return
	}

	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateCreateTrip(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	trip, err := h.dispatch.CreateTrip(c.Request.Context(), requesterID, &req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.CreatedResponse(c, "trip created", services.TripPayload(trip))
}

// GetTrip handles GET /api/v1/trips/:id.
func (h *TripHandler) GetTrip(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	trip, err := h.trips.GetTrip(c.Request.Context(), tripID, actor, c.GetString("user_role"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "trip retrieved", services.TripPayload(trip))
}

// ListMyTrips handles GET /api/v1/trips; the actor's role decides which side
// of the trip history is returned.
func (h *TripHandler) ListMyTrips(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if limit < utils.MinPageSize || limit > utils.MaxPageSize {
		limit = utils.DefaultPageSize
	}

	var (
		trips []models.TripCore
		err   error
	)
	switch c.GetString("user_role") {
	case services.RoleDriver, services.RoleCourier:
		trips, err = h.trips.ListWorkerTrips(c.Request.Context(), actor, limit)
	default:
		trips, err = h.trips.ListRequesterTrips(c.Request.Context(), actor, limit)
	}
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "trips retrieved", tripPayloads(trips))
}

// ListPendingTrips handles GET /api/v1/trips/pending for workers polling the
// open request pool.
func (h *TripHandler) ListPendingTrips(c *gin.Context) {
	trips, err := h.trips.ListPendingTrips(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "pending trips retrieved", tripPayloads(trips))
}

// AcceptTrip handles POST /api/v1/trips/:id/accept.
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	trip, err := h.dispatch.AcceptTrip(c.Request.Context(), tripID, workerID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "trip accepted", services.TripPayload(trip))
}

// UpdateStatus handles PUT /api/v1/trips/:id/status.
func (h *TripHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateUpdateTripStatus(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	trip, err := h.trips.UpdateStatus(c.Request.Context(), tripID, actor, c.GetString("user_role"), req.Status)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "trip status updated", services.TripPayload(trip))
}

// CancelTrip handles POST /api/v1/trips/:id/cancel.
func (h *TripHandler) CancelTrip(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var req models.CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}

	trip, err := h.trips.CancelTrip(c.Request.Context(), tripID, actor, c.GetString("user_role"), req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "trip cancelled", services.TripPayload(trip))
}

// RateTrip handles POST /api/v1/trips/:id/rating.
func (h *TripHandler) RateTrip(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var req models.RateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateRateTrip(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	trip, err := h.ratings.RateTrip(c.Request.Context(), tripID, actor, req.Score, req.Comment)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "trip rated", services.TripPayload(trip))
}

// ActivateSOS handles POST /api/v1/trips/:id/sos.
func (h *TripHandler) ActivateSOS(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var req models.ActivateSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateActivateSOS(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	trip, err := h.emergency.ActivateSOS(c.Request.Context(), tripID, actor, req.Latitude, req.Longitude)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "sos activated", services.TripPayload(trip))
}

// ReportIncident handles POST /api/v1/trips/:id/incidents.
func (h *TripHandler) ReportIncident(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}

	var req models.ReportIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateReportIncident(&req); errs.HasErrors() {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	trip, err := h.incidents.ReportIncident(c.Request.Context(), tripID, actor, &req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	utils.SuccessResponse(c, "incident reported", services.TripPayload(trip))
}

func tripPayloads(trips []models.TripCore) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(trips))
	for _, t := range trips {
		out = append(out, services.TripPayload(t))
	}
	return out
}
