package interfaces

import (
	"context"

	"gofleet/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripRepository persists rides and deliveries in one collection, dispatched
// by the kind tag. Every mutation that races with another actor is a single
// conditional update (read-predicate-and-write in one operation); a failed
// predicate surfaces as ErrConditionFailed, never as a silent lost update.
type TripRepository interface {
	Create(ctx context.Context, trip models.TripCore) error
	GetByID(ctx context.Context, id primitive.ObjectID) (models.TripCore, error)

	// Listing
	GetPending(ctx context.Context) ([]models.TripCore, error)
	GetByRequester(ctx context.Context, requesterID primitive.ObjectID, limit int64) ([]models.TripCore, error)
	GetByWorker(ctx context.Context, workerID primitive.ObjectID, limit int64) ([]models.TripCore, error)

	// GetActiveByWorker returns the worker's current non-terminal assignment,
	// or ErrNotFound when there is none.
	GetActiveByWorker(ctx context.Context, workerID primitive.ObjectID) (models.TripCore, error)

	// AssignWorker performs the accept-race arbitration: it succeeds only if
	// the trip is still pending with no worker set.
	AssignWorker(ctx context.Context, id, workerID primitive.ObjectID) (models.TripCore, error)

	// TransitionStatus moves the trip to the given status only if its current
	// status is in fromStatuses; extra fields are set in the same operation.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, fromStatuses []models.TripStatus, to models.TripStatus, extra map[string]interface{}) (models.TripCore, error)

	// SetRequesterRating sets the requester-to-worker rating only if the trip
	// is a terminal success, belongs to the requester, and is not yet rated.
	SetRequesterRating(ctx context.Context, id, requesterID primitive.ObjectID, rating *models.TripRating) (models.TripCore, error)

	// ActivateSOS records the SOS sub-record only while the trip is
	// non-terminal and no SOS is active yet.
	ActivateSOS(ctx context.Context, id primitive.ObjectID, sos *models.SOSRecord) (models.TripCore, error)

	AddIncident(ctx context.Context, id primitive.ObjectID, incident models.IncidentReport) (models.TripCore, error)

	// GetRatedByWorker returns every terminal-success trip of the worker that
	// carries a requester rating, for the full average recompute.
	GetRatedByWorker(ctx context.Context, workerID primitive.ObjectID) ([]models.TripCore, error)
}
