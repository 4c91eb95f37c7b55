package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripKind string
type TripStatus string

const (
	TripKindRide     TripKind = "ride"
	TripKindDelivery TripKind = "delivery"

	TripStatusPending  TripStatus = "pending"
	TripStatusAccepted TripStatus = "accepted"

	// Ride lineage.
	TripStatusDriverArrived TripStatus = "driver_arrived"
	TripStatusInProgress    TripStatus = "in_progress"
	TripStatusCompleted     TripStatus = "completed"

	// Delivery lineage.
	TripStatusPickedUp  TripStatus = "picked_up"
	TripStatusInTransit TripStatus = "in_transit"
	TripStatusDelivered TripStatus = "delivered"

	TripStatusCancelled TripStatus = "cancelled"
)

// TripCore is the shared surface of a ride and a delivery. Code that only
// cares about the lifecycle (dispatch, status transitions, fan-out) works
// against this; kind-specific fields live on the concrete variants.
type TripCore interface {
	Base() *TripBase
	Kind() TripKind
}

// TripBase carries every field common to both trip kinds. The concrete
// variants embed it inline so both share one Mongo document shape plus
// their own extension fields.
type TripBase struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TripNumber         string              `json:"trip_number" bson:"trip_number"`
	TripKind           TripKind            `json:"kind" bson:"kind" validate:"required,oneof=ride delivery"`
	RequesterID        primitive.ObjectID  `json:"requester_id" bson:"requester_id" validate:"required"`
	WorkerID           *primitive.ObjectID `json:"worker_id" bson:"worker_id"`
	Status             TripStatus          `json:"status" bson:"status" default:"pending"`
	PickupLocation     Location            `json:"pickup_location" bson:"pickup_location" validate:"required"`
	DropoffLocation    Location            `json:"dropoff_location" bson:"dropoff_location" validate:"required"`
	DistanceKM         float64             `json:"distance_km" bson:"distance_km"`
	Fare               float64             `json:"fare" bson:"fare"`
	Currency           string              `json:"currency" bson:"currency" default:"USD"`
	RequestedAt        time.Time           `json:"requested_at" bson:"requested_at"`
	AcceptedAt         *time.Time          `json:"accepted_at" bson:"accepted_at"`
	StartedAt          *time.Time          `json:"started_at" bson:"started_at"`
	CompletedAt        *time.Time          `json:"completed_at" bson:"completed_at"`
	CancelledAt        *time.Time          `json:"cancelled_at" bson:"cancelled_at"`
	CancellationReason string              `json:"cancellation_reason" bson:"cancellation_reason"`
	CancelledBy        string              `json:"cancelled_by" bson:"cancelled_by"`
	LoyaltyAwarded     bool                `json:"loyalty_awarded" bson:"loyalty_awarded"`
	RequesterRating    *TripRating         `json:"requester_rating" bson:"requester_rating"`
	WorkerRating       *TripRating         `json:"worker_rating" bson:"worker_rating"`
	SOS                *SOSRecord          `json:"sos" bson:"sos"`
	Incidents          []IncidentReport    `json:"incidents" bson:"incidents"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

func (t *TripBase) Base() *TripBase { return t }
func (t *TripBase) Kind() TripKind  { return t.TripKind }

// Ride is the passenger-carrying variant.
type Ride struct {
	TripBase     `bson:",inline"`
	SeatCount    int    `json:"seat_count" bson:"seat_count" default:"1"`
	VehicleClass string `json:"vehicle_class" bson:"vehicle_class" default:"standard"`
}

// Delivery is the package-carrying variant.
type Delivery struct {
	TripBase       `bson:",inline"`
	PackageSize    string `json:"package_size" bson:"package_size" default:"small"`
	RecipientName  string `json:"recipient_name" bson:"recipient_name"`
	RecipientPhone string `json:"recipient_phone" bson:"recipient_phone"`
	Fragile        bool   `json:"fragile" bson:"fragile"`
}

// allowedNext holds the forward edges of each lineage. Cancellation is handled
// separately: it is reachable from any non-terminal status.
var allowedNext = map[TripKind]map[TripStatus]TripStatus{
	TripKindRide: {
		TripStatusPending:       TripStatusAccepted,
		TripStatusAccepted:      TripStatusDriverArrived,
		TripStatusDriverArrived: TripStatusInProgress,
		TripStatusInProgress:    TripStatusCompleted,
	},
	TripKindDelivery: {
		TripStatusPending:  TripStatusAccepted,
		TripStatusAccepted: TripStatusPickedUp,
		TripStatusPickedUp: TripStatusInTransit,
		TripStatusInTransit: TripStatusDelivered,
	},
}

func IsTerminalStatus(status TripStatus) bool {
	switch status {
	case TripStatusCompleted, TripStatusDelivered, TripStatusCancelled:
		return true
	}
	return false
}

func IsTerminalSuccess(status TripStatus) bool {
	return status == TripStatusCompleted || status == TripStatusDelivered
}

// CanTransition reports whether a trip of the given kind may move from one
// status to another. The graph is monotonic: exactly one forward edge per
// status, plus cancellation from any non-terminal status.
func CanTransition(kind TripKind, from, to TripStatus) bool {
	if IsTerminalStatus(from) {
		return false
	}
	if to == TripStatusCancelled {
		return true
	}
	next, ok := allowedNext[kind]
	if !ok {
		return false
	}
	return next[from] == to
}

// StatusesBefore returns every status from which the given status is directly
// reachable for the kind. Used as the predicate set for the atomic
// conditional status update.
func StatusesBefore(kind TripKind, to TripStatus) []TripStatus {
	if to == TripStatusCancelled {
		return nonTerminalStatuses(kind)
	}
	var from []TripStatus
	for s, next := range allowedNext[kind] {
		if next == to {
			from = append(from, s)
		}
	}
	return from
}

func nonTerminalStatuses(kind TripKind) []TripStatus {
	out := make([]TripStatus, 0, len(allowedNext[kind]))
	for s := range allowedNext[kind] {
		out = append(out, s)
	}
	return out
}

// KnownStatus reports whether the status belongs to the kind's lineage at all.
func KnownStatus(kind TripKind, status TripStatus) bool {
	if status == TripStatusCancelled || status == TripStatusPending {
		return true
	}
	for s, next := range allowedNext[kind] {
		if s == status || next == status {
			return true
		}
	}
	return false
}

// StatusTimestampField maps a status to the trip field recording its first
// occurrence, or "" when the status has no dedicated timestamp.
func StatusTimestampField(status TripStatus) string {
	switch status {
	case TripStatusAccepted:
		return "accepted_at"
	case TripStatusInProgress, TripStatusInTransit:
		return "started_at"
	case TripStatusCompleted, TripStatusDelivered:
		return "completed_at"
	case TripStatusCancelled:
		return "cancelled_at"
	}
	return ""
}

// TerminalSuccessStatus is the kind's happy-path terminal label.
func TerminalSuccessStatus(kind TripKind) TripStatus {
	if kind == TripKindDelivery {
		return TripStatusDelivered
	}
	return TripStatusCompleted
}

func (t *TripBase) IsParticipant(userID primitive.ObjectID) bool {
	if t.RequesterID == userID {
		return true
	}
	return t.WorkerID != nil && *t.WorkerID == userID
}
