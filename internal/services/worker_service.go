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

// WorkerService maintains worker availability and location, keeping the
// advisory geo index in step and relaying positions to the active trip.
type WorkerService interface {
	GetWorker(ctx context.Context, workerID primitive.ObjectID) (*models.Worker, error)
	UpdateLocation(ctx context.Context, workerID primitive.ObjectID, lat, lng float64, address string) (*models.Worker, error)
	UpdateAvailability(ctx context.Context, workerID primitive.ObjectID, available bool) (*models.Worker, error)
}

type workerService struct {
	workerRepo interfaces.WorkerRepository
	tripRepo   interfaces.TripRepository
	presence   Presence
	geo        GeoIndex
	log        *logger.Logger
}

func NewWorkerService(
	workerRepo interfaces.WorkerRepository,
	tripRepo interfaces.TripRepository,
	presence Presence,
	geo GeoIndex,
	log *logger.Logger,
) WorkerService {
	return &workerService{
		workerRepo: workerRepo,
		tripRepo:   tripRepo,
		presence:   presence,
		geo:        geo,
		log:        log,
	}
}

func (s *workerService) GetWorker(ctx context.Context, workerID primitive.ObjectID) (*models.Worker, error) {
	worker, err := s.workerRepo.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("worker", workerID.Hex())
		}
		return nil, err
	}
	return worker, nil
}

func (s *workerService) UpdateLocation(ctx context.Context, workerID primitive.ObjectID, lat, lng float64, address string) (*models.Worker, error) {
	if !utils.IsValidCoordinates(lat, lng) {
		return nil, apperrors.Validation("location", "coordinates are out of range")
	}

	location := models.NewLocation(lat, lng)
	location.Address = address
	worker, err := s.workerRepo.UpdateLocation(ctx, workerID, location)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("worker", workerID.Hex())
		}
		return nil, err
	}

	if s.geo != nil {
		if err := s.geo.Update(ctx, string(worker.Role), workerID.Hex(), lat, lng); err != nil {
			s.log.WithWorkerID(workerID).WithError(err).Warn("geo index update failed")
		}
	}

	s.relayToActiveTrip(ctx, worker, lat, lng)
	return worker, nil
}

// relayToActiveTrip streams the worker's position to whoever is watching the
// trip in flight.
func (s *workerService) relayToActiveTrip(ctx context.Context, worker *models.Worker, lat, lng float64) {
	trip, err := s.tripRepo.GetActiveByWorker(ctx, worker.ID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.log.WithWorkerID(worker.ID).WithError(err).Warn("active trip lookup failed during location relay")
		}
		return
	}
	base := trip.Base()
	stamp := time.Now()
	if worker.LastLocationUpdate != nil {
		stamp = *worker.LastLocationUpdate
	}
	payload := map[string]interface{}{
		"trip_id":   base.ID.Hex(),
		"worker_id": worker.ID.Hex(),
		"latitude":  lat,
		"longitude": lng,
		"timestamp": stamp,
	}
	s.presence.Emit(websocket.UserChannel(base.RequesterID), EventLocationUpdate, payload)
	s.presence.Emit(websocket.TripChannel(base.ID), EventLocationUpdate, payload)
}

func (s *workerService) UpdateAvailability(ctx context.Context, workerID primitive.ObjectID, available bool) (*models.Worker, error) {
	worker, err := s.workerRepo.SetAvailability(ctx, workerID, available)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("worker", workerID.Hex())
		}
		return nil, err
	}

	if s.geo != nil {
		if available && worker.CurrentLocation != nil && !worker.CurrentLocation.IsZero() {
			err = s.geo.Update(ctx, string(worker.Role), workerID.Hex(),
				worker.CurrentLocation.Latitude(), worker.CurrentLocation.Longitude())
		} else if !available {
			err = s.geo.Remove(ctx, string(worker.Role), workerID.Hex())
		}
		if err != nil {
			s.log.WithWorkerID(workerID).WithError(err).Warn("geo index sync failed")
		}
	}
	return worker, nil
}
