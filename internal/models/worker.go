package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkerRole string

const (
	WorkerRoleDriver  WorkerRole = "driver"
	WorkerRoleCourier WorkerRole = "courier"
)

// Worker is a driver or courier eligible for trip assignment. Availability and
// location are mutated only by the worker's own update calls. ActiveTripID is
// the per-worker assignment lock: it is claimed conditionally on the accept
// path and released when the held trip reaches a terminal state, so a worker
// can never hold two active trips.
type Worker struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name               string              `json:"name" bson:"name" validate:"required"`
	Phone              string              `json:"phone" bson:"phone" validate:"required"`
	Role               WorkerRole          `json:"role" bson:"role" validate:"required,oneof=driver courier"`
	ActiveTripID       *primitive.ObjectID `json:"active_trip_id,omitempty" bson:"active_trip_id,omitempty"`
	IsAvailable        bool                `json:"is_available" bson:"is_available" default:"false"`
	IsVerified         bool                `json:"is_verified" bson:"is_verified" default:"false"`
	CurrentLocation    *Location           `json:"current_location" bson:"current_location"`
	LastLocationUpdate *time.Time          `json:"last_location_update" bson:"last_location_update"`
	Rating             float64             `json:"rating" bson:"rating" default:"0"`
	TotalRatings       int64               `json:"total_ratings" bson:"total_ratings" default:"0"`
	TotalTrips         int64               `json:"total_trips" bson:"total_trips" default:"0"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

// RoleForKind maps a trip kind to the worker role that may serve it.
func RoleForKind(kind TripKind) WorkerRole {
	if kind == TripKindDelivery {
		return WorkerRoleCourier
	}
	return WorkerRoleDriver
}

// Dispatchable reports whether the worker may be considered as a dispatch
// candidate at all. Freshness of the location is best effort.
func (w *Worker) Dispatchable() bool {
	return w.IsAvailable && w.IsVerified && w.CurrentLocation != nil && !w.CurrentLocation.IsZero()
}
