package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"
	"gofleet/internal/utils"
	"gofleet/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingService records the requester's post-trip rating and keeps the
// worker's aggregate in sync.
type RatingService interface {
	RateTrip(ctx context.Context, tripID, requesterID primitive.ObjectID, score float64, comment string) (models.TripCore, error)
}

type ratingService struct {
	tripRepo   interfaces.TripRepository
	workerRepo interfaces.WorkerRepository
	log        *logger.Logger
}

func NewRatingService(tripRepo interfaces.TripRepository, workerRepo interfaces.WorkerRepository, log *logger.Logger) RatingService {
	return &ratingService{tripRepo: tripRepo, workerRepo: workerRepo, log: log}
}

func (s *ratingService) RateTrip(ctx context.Context, tripID, requesterID primitive.ObjectID, score float64, comment string) (models.TripCore, error) {
	if score < utils.MinRating || score > utils.MaxRating {
		return nil, apperrors.Validation("score", "must be between 1 and 5")
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	if err := s.checkRatable(trip, requesterID); err != nil {
		return nil, err
	}

	rating := &models.TripRating{
		RaterID:   requesterID,
		Score:     score,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	rated, err := s.tripRepo.SetRequesterRating(ctx, tripID, requesterID, rating)
	if err != nil {
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, err
		}
		// The predicate failed after our pre-checks passed; re-classify
		// against the current document.
		current, gerr := s.tripRepo.GetByID(ctx, tripID)
		if gerr != nil {
			return nil, gerr
		}
		if cerr := s.checkRatable(current, requesterID); cerr != nil {
			return nil, cerr
		}
		return nil, apperrors.Conflict("trip could not be rated", current.Base().Status, workerHex(current.Base()))
	}

	base := rated.Base()
	if base.WorkerID != nil {
		if err := s.recomputeWorkerRating(ctx, *base.WorkerID); err != nil {
			s.log.WithWorkerID(*base.WorkerID).WithError(err).Warn("worker rating recompute failed")
		}
	}
	s.log.LogTripEvent(tripID, "trip_rated", map[string]interface{}{"score": score})
	return rated, nil
}

func (s *ratingService) checkRatable(trip models.TripCore, requesterID primitive.ObjectID) error {
	base := trip.Base()
	if base.RequesterID != requesterID {
		return apperrors.Permission("only the trip requester may rate it")
	}
	if !models.IsTerminalSuccess(base.Status) {
		return apperrors.Conflict("only finished trips can be rated", base.Status, workerHex(base))
	}
	if base.RequesterRating != nil {
		return apperrors.Conflict("trip is already rated", base.Status, workerHex(base))
	}
	return nil
}

// recomputeWorkerRating recalculates the mean from every rated trip of the
// worker rather than nudging the stored average, so a lost update can never
// skew the aggregate permanently.
func (s *ratingService) recomputeWorkerRating(ctx context.Context, workerID primitive.ObjectID) error {
	trips, err := s.tripRepo.GetRatedByWorker(ctx, workerID)
	if err != nil {
		return err
	}
	if len(trips) == 0 {
		return nil
	}
	var sum float64
	for _, t := range trips {
		sum += t.Base().RequesterRating.Score
	}
	average := math.Round(sum/float64(len(trips))*10) / 10
	return s.workerRepo.UpdateRating(ctx, workerID, average, int64(len(trips)))
}
