package interfaces

import (
	"context"

	"gofleet/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequesterRepository interface {
	Create(ctx context.Context, requester *models.Requester) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Requester, error)

	// ApplyLoyaltyAward atomically adds points and spend and returns the
	// updated record so the caller can recompute the tier.
	ApplyLoyaltyAward(ctx context.Context, id primitive.ObjectID, points int64, spend float64) (*models.Requester, error)

	SetLoyaltyTier(ctx context.Context, id primitive.ObjectID, tier models.LoyaltyTier) error
}
