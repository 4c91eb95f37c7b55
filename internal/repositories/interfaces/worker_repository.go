package interfaces

import (
	"context"

	"gofleet/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkerRepository interface {
	Create(ctx context.Context, worker *models.Worker) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Worker, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Worker, error)

	// GetDispatchable returns available, verified, located workers of the role.
	GetDispatchable(ctx context.Context, role models.WorkerRole) ([]*models.Worker, error)

	UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.Location) (*models.Worker, error)
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) (*models.Worker, error)

	// ClaimTrip marks the worker as holding the trip, only if the worker holds
	// no active trip yet; a held claim surfaces as ErrConditionFailed.
	ClaimTrip(ctx context.Context, id, tripID primitive.ObjectID) error

	// ReleaseTrip clears the claim if it is still held for the given trip.
	ReleaseTrip(ctx context.Context, id, tripID primitive.ObjectID) error
	UpdateRating(ctx context.Context, id primitive.ObjectID, average float64, count int64) error
	IncrementTripCount(ctx context.Context, id primitive.ObjectID) error
}
