package services

import (
	"context"
	"math"

	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"
	"gofleet/pkg/logger"
)

// LoyaltyService credits requesters when their trips finish successfully.
type LoyaltyService interface {
	AwardForTrip(ctx context.Context, trip models.TripCore) error
}

type loyaltyService struct {
	requesterRepo interfaces.RequesterRepository
	log           *logger.Logger
}

func NewLoyaltyService(requesterRepo interfaces.RequesterRepository, log *logger.Logger) LoyaltyService {
	return &loyaltyService{requesterRepo: requesterRepo, log: log}
}

// PointsForFare rounds the fare down to the nearest multiple of ten: a 27.80
// fare is worth 20 points, anything under 10 is worth none.
func PointsForFare(fare float64) int64 {
	if fare <= 0 {
		return 0
	}
	return int64(math.Floor(fare/10)) * 10
}

func (s *loyaltyService) AwardForTrip(ctx context.Context, trip models.TripCore) error {
	base := trip.Base()
	points := PointsForFare(base.Fare)

	requester, err := s.requesterRepo.ApplyLoyaltyAward(ctx, base.RequesterID, points, base.Fare)
	if err != nil {
		return err
	}

	tier := models.TierForSpend(requester.TotalSpent)
	if tier != requester.LoyaltyTier {
		if err := s.requesterRepo.SetLoyaltyTier(ctx, requester.ID, tier); err != nil {
			return err
		}
		s.log.WithFields(map[string]interface{}{
			"requester_id": requester.ID.Hex(),
			"tier":         tier,
		}).Info("loyalty tier upgraded")
	}

	s.log.LogTripEvent(base.ID, "loyalty_awarded", map[string]interface{}{
		"points":      points,
		"total_spent": requester.TotalSpent,
	})
	return nil
}
