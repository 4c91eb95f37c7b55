package services

import (
	"context"

	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"
	"gofleet/pkg/logger"
)

// SideEffectCoordinator runs the follow-up work owed after a trip reaches a
// terminal status. Every effect is best effort: the status transition is
// already committed and is never rolled back because an effect failed.
type SideEffectCoordinator struct {
	workerRepo interfaces.WorkerRepository
	loyalty    LoyaltyService
	log        *logger.Logger
}

func NewSideEffectCoordinator(workerRepo interfaces.WorkerRepository, loyalty LoyaltyService, log *logger.Logger) *SideEffectCoordinator {
	return &SideEffectCoordinator{workerRepo: workerRepo, loyalty: loyalty, log: log}
}

// OnTripFinalized fires once per trip, on the single transition into a
// terminal status. The caller guarantees the once-ness via the conditional
// status update.
func (c *SideEffectCoordinator) OnTripFinalized(ctx context.Context, trip models.TripCore) {
	base := trip.Base()

	if base.WorkerID != nil {
		if err := c.workerRepo.ReleaseTrip(ctx, *base.WorkerID, base.ID); err != nil {
			c.log.WithWorkerID(*base.WorkerID).WithError(err).Warn("could not release worker claim")
		}
		if _, err := c.workerRepo.SetAvailability(ctx, *base.WorkerID, true); err != nil {
			c.log.WithWorkerID(*base.WorkerID).WithError(err).Warn("could not restore worker availability")
		}
	}

	if !models.IsTerminalSuccess(base.Status) {
		return
	}

	if base.WorkerID != nil {
		if err := c.workerRepo.IncrementTripCount(ctx, *base.WorkerID); err != nil {
			c.log.WithWorkerID(*base.WorkerID).WithError(err).Warn("could not increment worker trip count")
		}
	}

	if err := c.loyalty.AwardForTrip(ctx, trip); err != nil {
		c.log.WithTripID(base.ID).WithError(err).Warn("loyalty award failed")
	}
}
