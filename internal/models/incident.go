package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IncidentType string
type IncidentSeverity string

const (
	IncidentTypeAccident   IncidentType = "accident"
	IncidentTypeHarassment IncidentType = "harassment"
	IncidentTypeUnsafe     IncidentType = "unsafe_driving"
	IncidentTypeLostItem   IncidentType = "lost_item"
	IncidentTypeOther      IncidentType = "other"

	IncidentSeverityLow      IncidentSeverity = "low"
	IncidentSeverityMedium   IncidentSeverity = "medium"
	IncidentSeverityHigh     IncidentSeverity = "high"
	IncidentSeverityCritical IncidentSeverity = "critical"
)

// IncidentReport is attached to a trip and forwarded to the operations
// channel. It never affects trip status or dispatch.
type IncidentReport struct {
	ID          primitive.ObjectID `json:"id" bson:"id"`
	ReporterID  primitive.ObjectID `json:"reporter_id" bson:"reporter_id" validate:"required"`
	Type        IncidentType       `json:"type" bson:"type" validate:"required,oneof=accident harassment unsafe_driving lost_item other"`
	Severity    IncidentSeverity   `json:"severity" bson:"severity" validate:"required,oneof=low medium high critical"`
	Description string             `json:"description" bson:"description" validate:"required,max=2000"`
	ReportedAt  time.Time          `json:"reported_at" bson:"reported_at"`
}
