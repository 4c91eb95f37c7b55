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

type requesterRepository struct {
	collection *mongo.Collection
}

func NewRequesterRepository(db *mongo.Database) interfaces.RequesterRepository {
	return &requesterRepository{
		collection: db.Collection("requesters"),
	}
}

func (r *requesterRepository) Create(ctx context.Context, requester *models.Requester) error {
	requester.ID = primitive.NewObjectID()
	now := time.Now()
	requester.CreatedAt = now
	requester.UpdatedAt = now
	if requester.LoyaltyTier == "" {
		requester.LoyaltyTier = models.LoyaltyTierBronze
	}

	_, err := r.collection.InsertOne(ctx, requester)
	if err != nil {
		return fmt.Errorf("failed to create requester: %w", err)
	}
	return nil
}

func (r *requesterRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Requester, error) {
	var requester models.Requester
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&requester)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get requester: %w", err)
	}
	return &requester, nil
}

func (r *requesterRepository) ApplyLoyaltyAward(ctx context.Context, id primitive.ObjectID, points int64, spend float64) (*models.Requester, error) {
	var requester models.Requester
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{
				"loyalty_points": points,
				"total_spent":    spend,
				"total_trips":    1,
			},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&requester)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to apply loyalty award: %w", err)
	}
	return &requester, nil
}

func (r *requesterRepository) SetLoyaltyTier(ctx context.Context, id primitive.ObjectID, tier models.LoyaltyTier) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"loyalty_tier": tier,
			"updated_at":   time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set loyalty tier: %w", err)
	}
	return nil
}
