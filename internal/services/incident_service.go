package services

import (
	"context"
	"errors"
	"time"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"
	"gofleet/internal/utils"
	"gofleet/pkg/logger"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IncidentService attaches safety reports to a trip and forwards them to the
// operations dashboard. Reports never change trip status.
type IncidentService interface {
	ReportIncident(ctx context.Context, tripID, reporterID primitive.ObjectID, req *models.ReportIncidentRequest) (models.TripCore, error)
}

type incidentService struct {
	tripRepo interfaces.TripRepository
	presence Presence
	log      *logger.Logger
}

func NewIncidentService(tripRepo interfaces.TripRepository, presence Presence, log *logger.Logger) IncidentService {
	return &incidentService{tripRepo: tripRepo, presence: presence, log: log}
}

func (s *incidentService) ReportIncident(ctx context.Context, tripID, reporterID primitive.ObjectID, req *models.ReportIncidentRequest) (models.TripCore, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	base := trip.Base()
	if !base.IsParticipant(reporterID) {
		return nil, apperrors.Permission("only trip participants may report incidents")
	}
	// Finished trips stay reportable for a window, then close.
	if models.IsTerminalStatus(base.Status) {
		ended := base.UpdatedAt
		if base.CompletedAt != nil {
			ended = *base.CompletedAt
		} else if base.CancelledAt != nil {
			ended = *base.CancelledAt
		}
		if time.Since(ended) > utils.IncidentRetentionWindow {
			return nil, apperrors.Conflict("incident reporting window has closed", base.Status, workerHex(base))
		}
	}

	incident := models.IncidentReport{
		ID:          primitive.NewObjectID(),
		ReporterID:  reporterID,
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		ReportedAt:  time.Now(),
	}
	updated, err := s.tripRepo.AddIncident(ctx, tripID, incident)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}

	s.log.WithTripID(tripID).WithFields(map[string]interface{}{
		"incident_id": incident.ID.Hex(),
		"type":        incident.Type,
		"severity":    incident.Severity,
	}).Info("incident reported")

	s.presence.Emit(websocket.ChannelOperations, EventIncidentReported, map[string]interface{}{
		"trip_id":  tripID.Hex(),
		"incident": incident,
	})
	return updated, nil
}
