package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gofleet/internal/apperrors"
	"gofleet/internal/config"
	"gofleet/internal/matching"
	"gofleet/internal/models"
	"gofleet/internal/observability"
	"gofleet/internal/repositories/interfaces"
	"gofleet/internal/utils"
	"gofleet/pkg/logger"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DispatchService creates trips, fans them out to nearby workers and
// arbitrates the accept race.
type DispatchService interface {
	CreateTrip(ctx context.Context, requesterID primitive.ObjectID, req *models.CreateTripRequest) (models.TripCore, error)
	AcceptTrip(ctx context.Context, tripID, workerID primitive.ObjectID) (models.TripCore, error)
	ReplayPendingTrips(workerID primitive.ObjectID)
}

type dispatchService struct {
	tripRepo      interfaces.TripRepository
	workerRepo    interfaces.WorkerRepository
	requesterRepo interfaces.RequesterRepository
	presence      Presence
	geo           GeoIndex
	cfg           *config.DispatchConfig
	log           *logger.Logger
}

func NewDispatchService(
	tripRepo interfaces.TripRepository,
	workerRepo interfaces.WorkerRepository,
	requesterRepo interfaces.RequesterRepository,
	presence Presence,
	geo GeoIndex,
	cfg *config.DispatchConfig,
	log *logger.Logger,
) DispatchService {
	return &dispatchService{
		tripRepo:      tripRepo,
		workerRepo:    workerRepo,
		requesterRepo: requesterRepo,
		presence:      presence,
		geo:           geo,
		cfg:           cfg,
		log:           log,
	}
}

func (s *dispatchService) CreateTrip(ctx context.Context, requesterID primitive.ObjectID, req *models.CreateTripRequest) (models.TripCore, error) {
	if _, err := s.requesterRepo.GetByID(ctx, requesterID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("requester", requesterID.Hex())
		}
		return nil, err
	}

	pickup := req.Pickup.ToLocation()
	dropoff := req.Dropoff.ToLocation()
	distance := utils.HaversineKM(
		pickup.Latitude(), pickup.Longitude(),
		dropoff.Latitude(), dropoff.Longitude(),
	)
	if distance > utils.MaxTripDistanceKM {
		return nil, apperrors.Validation("dropoff", "trip distance exceeds service range")
	}

	fare := s.cfg.BaseFare(string(req.Kind)) + distance*s.cfg.PerKMRate(string(req.Kind))
	fare = math.Round(fare*100) / 100
	if fare < utils.MinFare {
		fare = utils.MinFare
	}

	now := time.Now()
	base := models.TripBase{
		TripKind:        req.Kind,
		RequesterID:     requesterID,
		Status:          models.TripStatusPending,
		PickupLocation:  pickup,
		DropoffLocation: dropoff,
		DistanceKM:      distance,
		Fare:            fare,
		Currency:        utils.DefaultCurrency,
		RequestedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var trip models.TripCore
	switch req.Kind {
	case models.TripKindRide:
		base.TripNumber = utils.GenerateTripNumber("TR")
		ride := &models.Ride{TripBase: base, SeatCount: req.SeatCount, VehicleClass: req.VehicleClass}
		if ride.SeatCount <= 0 {
			ride.SeatCount = 1
		}
		if ride.VehicleClass == "" {
			ride.VehicleClass = "standard"
		}
		trip = ride
	case models.TripKindDelivery:
		base.TripNumber = utils.GenerateTripNumber("DL")
		delivery := &models.Delivery{
			TripBase:       base,
			PackageSize:    req.PackageSize,
			RecipientName:  req.RecipientName,
			RecipientPhone: req.RecipientPhone,
			Fragile:        req.Fragile,
		}
		if delivery.PackageSize == "" {
			delivery.PackageSize = "small"
		}
		trip = delivery
	default:
		return nil, apperrors.Validation("kind", "must be ride or delivery")
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}
	observability.TripsCreated.WithLabelValues(string(req.Kind)).Inc()
	s.log.LogTripEvent(trip.Base().ID, "trip_created", map[string]interface{}{
		"kind":        req.Kind,
		"trip_number": trip.Base().TripNumber,
		"distance_km": matching.DisplayDistance(distance),
		"fare":        fare,
	})

	s.fanOut(ctx, trip)
	return trip, nil
}

// fanOut notifies every qualifying worker plus the operations dashboard.
// Delivery is best effort; a worker nobody reaches picks the trip up later
// through the reconnect replay.
func (s *dispatchService) fanOut(ctx context.Context, trip models.TripCore) {
	base := trip.Base()
	payload := map[string]interface{}{"trip": TripPayload(trip)}
	s.presence.Emit(websocket.ChannelOperations, EventNewTrip, payload)

	candidates, err := s.findCandidates(ctx, trip)
	if err != nil {
		s.log.WithTripID(base.ID).WithError(err).Warn("candidate lookup failed, trip stays pending")
		return
	}
	for _, c := range candidates {
		notify := map[string]interface{}{
			"trip":        TripPayload(trip),
			"distance_km": matching.DisplayDistance(c.DistanceKM),
		}
		s.presence.Emit(websocket.WorkerChannel(c.Worker.ID), EventNewRequest, notify)
		observability.WorkersNotified.Inc()
	}
	s.log.WithTripID(base.ID).WithField("candidates", len(candidates)).Info("trip fanned out")
}

// findCandidates narrows the pool through the advisory geo index first and
// falls back to a full dispatchable scan when the index has nothing to say.
// The precise haversine pass always decides membership.
func (s *dispatchService) findCandidates(ctx context.Context, trip models.TripCore) ([]matching.Candidate, error) {
	base := trip.Base()
	role := models.RoleForKind(trip.Kind())

	var pool []*models.Worker
	if s.geo != nil {
		ids, err := s.geo.NearbyIDs(ctx, string(role),
			base.PickupLocation.Latitude(), base.PickupLocation.Longitude(), s.cfg.SearchRadiusKM)
		if err != nil {
			s.log.WithError(err).Warn("geo index lookup failed, falling back to collection scan")
		} else if len(ids) > 0 {
			oids := make([]primitive.ObjectID, 0, len(ids))
			for _, id := range ids {
				oid, perr := primitive.ObjectIDFromHex(id)
				if perr != nil {
					continue
				}
				oids = append(oids, oid)
			}
			workers, werr := s.workerRepo.GetByIDs(ctx, oids)
			if werr != nil {
				return nil, werr
			}
			for _, w := range workers {
				if w.Role == role && w.Dispatchable() {
					pool = append(pool, w)
				}
			}
		}
	}
	if len(pool) == 0 {
		var err error
		pool, err = s.workerRepo.GetDispatchable(ctx, role)
		if err != nil {
			return nil, err
		}
	}
	return matching.Nearby(base.PickupLocation, s.cfg.SearchRadiusKM, pool), nil
}

func (s *dispatchService) AcceptTrip(ctx context.Context, tripID, workerID primitive.ObjectID) (models.TripCore, error) {
	worker, err := s.workerRepo.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("worker", workerID.Hex())
		}
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	if models.RoleForKind(trip.Kind()) != worker.Role {
		return nil, apperrors.Permission("worker role cannot serve this trip kind")
	}
	// Re-accepting a trip the worker already holds is a no-op success.
	if base := trip.Base(); base.WorkerID != nil && *base.WorkerID == workerID {
		return trip, nil
	}

	// Claim the worker before touching the trip. The claim is a conditional
	// update on the worker document, so two concurrent accepts of different
	// trips by the same worker cannot both get past this point.
	if err := s.workerRepo.ClaimTrip(ctx, workerID, tripID); err != nil {
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, err
		}
		held, gerr := s.tripRepo.GetActiveByWorker(ctx, workerID)
		if gerr == nil && held.Base().ID == tripID {
			return held, nil
		}
		status := models.TripStatus("")
		if gerr == nil {
			status = held.Base().Status
		}
		return nil, apperrors.Conflict("worker already has an active trip", status, workerID.Hex())
	}

	assigned, err := s.tripRepo.AssignWorker(ctx, tripID, workerID)
	if err != nil {
		s.releaseClaim(ctx, workerID, tripID)
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, err
		}
		// The predicate failed: someone else won, or the trip moved on.
		current, gerr := s.tripRepo.GetByID(ctx, tripID)
		if gerr != nil {
			if errors.Is(gerr, interfaces.ErrNotFound) {
				return nil, apperrors.NotFound("trip", tripID.Hex())
			}
			return nil, gerr
		}
		base := current.Base()
		if base.WorkerID != nil && *base.WorkerID == workerID {
			return current, nil
		}
		observability.AcceptConflicts.Inc()
		winner := ""
		if base.WorkerID != nil {
			winner = base.WorkerID.Hex()
		}
		return nil, apperrors.Conflict("trip is no longer available", base.Status, winner)
	}

	observability.AcceptsTotal.Inc()
	base := assigned.Base()
	s.log.LogTripEvent(base.ID, "trip_accepted", map[string]interface{}{"worker_id": workerID.Hex()})

	if _, aerr := s.workerRepo.SetAvailability(ctx, workerID, false); aerr != nil {
		s.log.WithWorkerID(workerID).WithError(aerr).Warn("could not mark worker busy after accept")
	}

	payload := map[string]interface{}{
		"trip": TripPayload(assigned),
		"worker": map[string]interface{}{
			"id":     worker.ID.Hex(),
			"name":   worker.Name,
			"rating": worker.Rating,
		},
	}
	s.presence.Emit(websocket.UserChannel(base.RequesterID), EventTripAccepted, payload)
	s.presence.Emit(websocket.TripChannel(base.ID), EventTripAccepted, payload)
	s.presence.Emit(websocket.TripChannel(base.ID), EventTripStatusUpdate, map[string]interface{}{"trip": TripPayload(assigned)})
	s.presence.Emit(websocket.ChannelOperations, EventTripAccepted, payload)
	// Tell the rest of the role pool to drop the request from their queues.
	s.presence.Emit(websocket.RoleChannel(worker.Role), EventTripUnavailable, map[string]interface{}{
		"trip_id": base.ID.Hex(),
	})

	return assigned, nil
}

func (s *dispatchService) releaseClaim(ctx context.Context, workerID, tripID primitive.ObjectID) {
	if err := s.workerRepo.ReleaseTrip(ctx, workerID, tripID); err != nil {
		s.log.WithWorkerID(workerID).WithError(err).Warn("could not release worker claim")
	}
}

// ReplayPendingTrips re-offers still-pending trips to a worker whose channel
// join has settled. It runs off the websocket register path, so it carries its
// own timeout instead of a request context.
func (s *dispatchService) ReplayPendingTrips(workerID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	worker, err := s.workerRepo.GetByID(ctx, workerID)
	if err != nil {
		s.log.WithWorkerID(workerID).WithError(err).Warn("replay skipped, worker lookup failed")
		return
	}
	if !worker.Dispatchable() {
		return
	}

	pending, err := s.tripRepo.GetPending(ctx)
	if err != nil {
		s.log.WithWorkerID(workerID).WithError(err).Warn("replay skipped, pending lookup failed")
		return
	}

	replayed := 0
	for _, trip := range pending {
		if models.RoleForKind(trip.Kind()) != worker.Role {
			continue
		}
		base := trip.Base()
		d := utils.HaversineKM(
			base.PickupLocation.Latitude(), base.PickupLocation.Longitude(),
			worker.CurrentLocation.Latitude(), worker.CurrentLocation.Longitude(),
		)
		if d > s.cfg.SearchRadiusKM {
			continue
		}
		s.presence.Emit(websocket.WorkerChannel(workerID), EventNewRequest, map[string]interface{}{
			"trip":        TripPayload(trip),
			"distance_km": matching.DisplayDistance(d),
		})
		observability.WorkersNotified.Inc()
		replayed++
	}
	if replayed > 0 {
		s.log.WithWorkerID(workerID).WithField("trips", replayed).Info("replayed pending trips after reconnect")
	}
}
