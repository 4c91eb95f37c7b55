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

type workerRepository struct {
	collection *mongo.Collection
}

func NewWorkerRepository(db *mongo.Database) interfaces.WorkerRepository {
	return &workerRepository{
		collection: db.Collection("workers"),
	}
}

func (r *workerRepository) Create(ctx context.Context, worker *models.Worker) error {
	worker.ID = primitive.NewObjectID()
	now := time.Now()
	worker.CreatedAt = now
	worker.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, worker)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

func (r *workerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Worker, error) {
	var worker models.Worker
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&worker)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return &worker, nil
}

func (r *workerRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Worker, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get workers by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var workers []*models.Worker
	if err := cursor.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("failed to decode workers: %w", err)
	}
	return workers, nil
}

func (r *workerRepository) GetDispatchable(ctx context.Context, role models.WorkerRole) ([]*models.Worker, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"role":             role,
		"is_available":     true,
		"is_verified":      true,
		"current_location": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatchable workers: %w", err)
	}
	defer cursor.Close(ctx)

	var workers []*models.Worker
	if err := cursor.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("failed to decode workers: %w", err)
	}
	return workers, nil
}

func (r *workerRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.Location) (*models.Worker, error) {
	now := time.Now()
	var worker models.Worker
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"current_location":     location,
			"last_location_update": now,
			"updated_at":           now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&worker)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update worker location: %w", err)
	}
	return &worker, nil
}

func (r *workerRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) (*models.Worker, error) {
	var worker models.Worker
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_available": available,
			"updated_at":   time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&worker)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to set worker availability: %w", err)
	}
	return &worker, nil
}

func (r *workerRepository) ClaimTrip(ctx context.Context, id, tripID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":            id,
			"active_trip_id": nil,
		},
		bson.M{"$set": bson.M{
			"active_trip_id": tripID,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to claim trip for worker: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrConditionFailed
	}
	return nil
}

func (r *workerRepository) ReleaseTrip(ctx context.Context, id, tripID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":            id,
			"active_trip_id": tripID,
		},
		bson.M{
			"$unset": bson.M{"active_trip_id": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to release trip claim: %w", err)
	}
	return nil
}

func (r *workerRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, average float64, count int64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"rating":        average,
			"total_ratings": count,
			"updated_at":    time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update worker rating: %w", err)
	}
	return nil
}

func (r *workerRepository) IncrementTripCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"total_trips": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment trip count: %w", err)
	}
	return nil
}
