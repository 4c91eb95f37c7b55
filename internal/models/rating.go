package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripRating is embedded in the trip document; each direction is set at most
// once per trip.
type TripRating struct {
	RaterID   primitive.ObjectID `json:"rater_id" bson:"rater_id" validate:"required"`
	Score     float64            `json:"score" bson:"score" validate:"required,min=1,max=5"`
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
