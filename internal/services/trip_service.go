package services

import (
	"context"
	"errors"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"
	"gofleet/pkg/logger"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor roles as carried in the auth token.
const (
	RoleRequester = "requester"
	RoleDriver    = "driver"
	RoleCourier   = "courier"
	RoleAdmin     = "admin"
)

// TripService drives a trip through its lifecycle after assignment and
// answers trip lookups.
type TripService interface {
	GetTrip(ctx context.Context, tripID, actorID primitive.ObjectID, actorRole string) (models.TripCore, error)
	ListRequesterTrips(ctx context.Context, requesterID primitive.ObjectID, limit int64) ([]models.TripCore, error)
	ListWorkerTrips(ctx context.Context, workerID primitive.ObjectID, limit int64) ([]models.TripCore, error)
	ListPendingTrips(ctx context.Context) ([]models.TripCore, error)
	UpdateStatus(ctx context.Context, tripID, actorID primitive.ObjectID, actorRole string, to models.TripStatus) (models.TripCore, error)
	CancelTrip(ctx context.Context, tripID, actorID primitive.ObjectID, actorRole, reason string) (models.TripCore, error)
}

type tripService struct {
	tripRepo    interfaces.TripRepository
	presence    Presence
	coordinator *SideEffectCoordinator
	log         *logger.Logger
}

func NewTripService(tripRepo interfaces.TripRepository, presence Presence, coordinator *SideEffectCoordinator, log *logger.Logger) TripService {
	return &tripService{tripRepo: tripRepo, presence: presence, coordinator: coordinator, log: log}
}

func (s *tripService) GetTrip(ctx context.Context, tripID, actorID primitive.ObjectID, actorRole string) (models.TripCore, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	if actorRole != RoleAdmin && !trip.Base().IsParticipant(actorID) {
		return nil, apperrors.Permission("only trip participants may view this trip")
	}
	return trip, nil
}

func (s *tripService) ListRequesterTrips(ctx context.Context, requesterID primitive.ObjectID, limit int64) ([]models.TripCore, error) {
	return s.tripRepo.GetByRequester(ctx, requesterID, limit)
}

func (s *tripService) ListWorkerTrips(ctx context.Context, workerID primitive.ObjectID, limit int64) ([]models.TripCore, error) {
	return s.tripRepo.GetByWorker(ctx, workerID, limit)
}

func (s *tripService) ListPendingTrips(ctx context.Context) ([]models.TripCore, error) {
	return s.tripRepo.GetPending(ctx)
}

// UpdateStatus advances the trip one step along its lineage. The assigned
// worker, the requester or an admin may advance a trip; cancellation goes
// through CancelTrip.
func (s *tripService) UpdateStatus(ctx context.Context, tripID, actorID primitive.ObjectID, actorRole string, to models.TripStatus) (models.TripCore, error) {
	if to == models.TripStatusCancelled {
		return nil, apperrors.Validation("status", "use the cancel operation to cancel a trip")
	}
	if to == models.TripStatusPending {
		return nil, apperrors.Validation("status", "a trip cannot return to pending")
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	base := trip.Base()
	kind := trip.Kind()

	if !models.KnownStatus(kind, to) {
		return nil, apperrors.Validation("status", "unknown status for this trip kind")
	}
	if !canAdvance(base, actorID, actorRole) {
		return nil, apperrors.Permission("only the assigned worker, the requester or an admin may update trip status")
	}
	// Repeating the current status is an idempotent no-op.
	if base.Status == to {
		return trip, nil
	}
	if !models.CanTransition(kind, base.Status, to) {
		return nil, s.transitionConflict(base, to)
	}

	extra := map[string]interface{}{}
	if models.IsTerminalSuccess(to) {
		extra["loyalty_awarded"] = true
	}

	updated, err := s.tripRepo.TransitionStatus(ctx, tripID, models.StatusesBefore(kind, to), to, extra)
	if err != nil {
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, err
		}
		current, gerr := s.tripRepo.GetByID(ctx, tripID)
		if gerr != nil {
			return nil, gerr
		}
		if current.Base().Status == to {
			return current, nil
		}
		return nil, s.transitionConflict(current.Base(), to)
	}

	s.log.LogTripEvent(tripID, "status_changed", map[string]interface{}{
		"from": base.Status,
		"to":   to,
	})
	s.broadcastStatus(updated)

	if models.IsTerminalStatus(to) {
		s.coordinator.OnTripFinalized(ctx, updated)
	}
	return updated, nil
}

func (s *tripService) CancelTrip(ctx context.Context, tripID, actorID primitive.ObjectID, actorRole, reason string) (models.TripCore, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	base := trip.Base()

	if actorRole != RoleAdmin && !base.IsParticipant(actorID) {
		return nil, apperrors.Permission("only trip participants may cancel this trip")
	}
	if base.Status == models.TripStatusCancelled {
		return trip, nil
	}
	if models.IsTerminalStatus(base.Status) {
		return nil, apperrors.Conflict("trip already finished", base.Status, workerHex(base))
	}

	extra := map[string]interface{}{
		"cancellation_reason": reason,
		"cancelled_by":        actorRole,
	}
	updated, err := s.tripRepo.TransitionStatus(ctx, tripID,
		models.StatusesBefore(trip.Kind(), models.TripStatusCancelled), models.TripStatusCancelled, extra)
	if err != nil {
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, err
		}
		current, gerr := s.tripRepo.GetByID(ctx, tripID)
		if gerr != nil {
			return nil, gerr
		}
		if current.Base().Status == models.TripStatusCancelled {
			return current, nil
		}
		return nil, apperrors.Conflict("trip already finished", current.Base().Status, workerHex(current.Base()))
	}

	s.log.LogTripEvent(tripID, "trip_cancelled", map[string]interface{}{
		"by":     actorRole,
		"reason": reason,
	})
	s.broadcastStatus(updated)
	s.coordinator.OnTripFinalized(ctx, updated)
	return updated, nil
}

func (s *tripService) transitionConflict(base *models.TripBase, to models.TripStatus) error {
	return apperrors.Conflict(
		"cannot move trip from "+string(base.Status)+" to "+string(to),
		base.Status, workerHex(base),
	)
}

// broadcastStatus informs both participants, trip followers and the
// operations dashboard of the new canonical state.
func (s *tripService) broadcastStatus(trip models.TripCore) {
	base := trip.Base()
	payload := map[string]interface{}{"trip": TripPayload(trip)}
	s.presence.Emit(websocket.UserChannel(base.RequesterID), EventTripStatusUpdate, payload)
	if base.WorkerID != nil {
		s.presence.Emit(websocket.WorkerChannel(*base.WorkerID), EventTripStatusUpdate, payload)
	}
	s.presence.Emit(websocket.TripChannel(base.ID), EventTripStatusUpdate, payload)
	s.presence.Emit(websocket.ChannelOperations, EventTripStatusUpdate, payload)
}

func canAdvance(base *models.TripBase, actorID primitive.ObjectID, actorRole string) bool {
	if actorRole == RoleAdmin {
		return true
	}
	if base.RequesterID == actorID {
		return true
	}
	return base.WorkerID != nil && *base.WorkerID == actorID
}

func workerHex(base *models.TripBase) string {
	if base.WorkerID == nil {
		return ""
	}
	return base.WorkerID.Hex()
}
