package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SOSRecord is embedded in the trip document when a participant raises an
// emergency. Activation never changes trip status.
type SOSRecord struct {
	Activated        bool               `json:"activated" bson:"activated"`
	ActivatedBy      primitive.ObjectID `json:"activated_by" bson:"activated_by"`
	ActivatedAt      time.Time          `json:"activated_at" bson:"activated_at"`
	Location         Location           `json:"location" bson:"location"`
	NotifiedContacts []NotifiedContact  `json:"notified_contacts" bson:"notified_contacts"`
}

type NotifiedContact struct {
	Name       string    `json:"name" bson:"name"`
	Phone      string    `json:"phone" bson:"phone"`
	NotifiedAt time.Time `json:"notified_at" bson:"notified_at"`
}
