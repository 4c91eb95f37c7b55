package mongodb

import (
	"context"
	"fmt"
	"time"

	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var terminalStatuses = []models.TripStatus{
	models.TripStatusCompleted,
	models.TripStatusDelivered,
	models.TripStatusCancelled,
}

var terminalSuccessStatuses = []models.TripStatus{
	models.TripStatusCompleted,
	models.TripStatusDelivered,
}

type tripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection("trips"),
	}
}

// decodeTrip hydrates the concrete variant from the kind tag instead of
// probing optional fields.
func decodeTrip(raw bson.Raw) (models.TripCore, error) {
	kind, err := raw.LookupErr("kind")
	if err != nil {
		return nil, fmt.Errorf("trip document missing kind: %w", err)
	}

	switch models.TripKind(kind.StringValue()) {
	case models.TripKindDelivery:
		var delivery models.Delivery
		if err := bson.Unmarshal(raw, &delivery); err != nil {
			return nil, fmt.Errorf("failed to decode delivery: %w", err)
		}
		return &delivery, nil
	default:
		var ride models.Ride
		if err := bson.Unmarshal(raw, &ride); err != nil {
			return nil, fmt.Errorf("failed to decode ride: %w", err)
		}
		return &ride, nil
	}
}

func (r *tripRepository) decodeCursor(ctx context.Context, cursor *mongo.Cursor) ([]models.TripCore, error) {
	defer cursor.Close(ctx)

	var trips []models.TripCore
	for cursor.Next(ctx) {
		trip, err := decodeTrip(cursor.Current)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, cursor.Err()
}

func (r *tripRepository) Create(ctx context.Context, trip models.TripCore) error {
	base := trip.Base()
	base.ID = primitive.NewObjectID()
	now := time.Now()
	base.RequestedAt = now
	base.CreatedAt = now
	base.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id primitive.ObjectID) (models.TripCore, error) {
	raw, err := r.collection.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return decodeTrip(raw)
}

func (r *tripRepository) GetPending(ctx context.Context) ([]models.TripCore, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"status": models.TripStatusPending},
		options.Find().SetSort(bson.M{"requested_at": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending trips: %w", err)
	}
	return r.decodeCursor(ctx, cursor)
}

func (r *tripRepository) GetByRequester(ctx context.Context, requesterID primitive.ObjectID, limit int64) ([]models.TripCore, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"requester_id": requesterID},
		options.Find().SetSort(bson.M{"requested_at": -1}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips by requester: %w", err)
	}
	return r.decodeCursor(ctx, cursor)
}

func (r *tripRepository) GetByWorker(ctx context.Context, workerID primitive.ObjectID, limit int64) ([]models.TripCore, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"worker_id": workerID},
		options.Find().SetSort(bson.M{"requested_at": -1}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips by worker: %w", err)
	}
	return r.decodeCursor(ctx, cursor)
}

func (r *tripRepository) GetActiveByWorker(ctx context.Context, workerID primitive.ObjectID) (models.TripCore, error) {
	raw, err := r.collection.FindOne(ctx, bson.M{
		"worker_id": workerID,
		"status":    bson.M{"$nin": terminalStatuses},
	}).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active trip: %w", err)
	}
	return decodeTrip(raw)
}

// AssignWorker is the single atomic read-predicate-and-write behind the
// accept race: the filter demands a still-pending, unassigned trip, so at
// most one concurrent caller ever matches.
func (r *tripRepository) AssignWorker(ctx context.Context, id, workerID primitive.ObjectID) (models.TripCore, error) {
	now := time.Now()
	raw, err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":       id,
			"status":    models.TripStatusPending,
			"worker_id": nil,
		},
		bson.M{"$set": bson.M{
			"worker_id":   workerID,
			"status":      models.TripStatusAccepted,
			"accepted_at": now,
			"updated_at":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to assign worker: %w", err)
	}
	return decodeTrip(raw)
}

func (r *tripRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, fromStatuses []models.TripStatus, to models.TripStatus, extra map[string]interface{}) (models.TripCore, error) {
	now := time.Now()
	set := bson.M{
		"status":     to,
		"updated_at": now,
	}
	if field := models.StatusTimestampField(to); field != "" {
		set[field] = now
	}
	for k, v := range extra {
		set[k] = v
	}

	raw, err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": fromStatuses},
		},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to transition trip status: %w", err)
	}
	return decodeTrip(raw)
}

func (r *tripRepository) SetRequesterRating(ctx context.Context, id, requesterID primitive.ObjectID, rating *models.TripRating) (models.TripCore, error) {
	raw, err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":              id,
			"requester_id":     requesterID,
			"status":           bson.M{"$in": terminalSuccessStatuses},
			"requester_rating": nil,
		},
		bson.M{"$set": bson.M{
			"requester_rating": rating,
			"updated_at":       time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to set rating: %w", err)
	}
	return decodeTrip(raw)
}

func (r *tripRepository) ActivateSOS(ctx context.Context, id primitive.ObjectID, sos *models.SOSRecord) (models.TripCore, error) {
	raw, err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$nin": terminalStatuses},
			"sos":    nil,
		},
		bson.M{"$set": bson.M{
			"sos":        sos,
			"updated_at": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to activate sos: %w", err)
	}
	return decodeTrip(raw)
}

func (r *tripRepository) AddIncident(ctx context.Context, id primitive.ObjectID, incident models.IncidentReport) (models.TripCore, error) {
	raw, err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"incidents": incident},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to add incident: %w", err)
	}
	return decodeTrip(raw)
}

func (r *tripRepository) GetRatedByWorker(ctx context.Context, workerID primitive.ObjectID) ([]models.TripCore, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"worker_id":        workerID,
		"status":           bson.M{"$in": terminalSuccessStatuses},
		"requester_rating": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list rated trips: %w", err)
	}
	return r.decodeCursor(ctx, cursor)
}
