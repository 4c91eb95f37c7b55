package services

import (
	"context"

	"gofleet/internal/matching"
	"gofleet/internal/models"
)

// Event names carried over the realtime channel.
const (
	EventNewTrip          = "new_trip"
	EventNewRequest       = "new_request"
	EventTripAccepted     = "trip_accepted"
	EventTripUnavailable  = "trip_unavailable"
	EventTripStatusUpdate = "trip_status_update"
	EventLocationUpdate   = "location_update"
	EventSOSActivated     = "sos_activated"
	EventIncidentReported = "incident_reported"
)

// Presence is the realtime surface the services push events through.
// Emit must be safe to call for channels nobody has joined.
type Presence interface {
	IsMember(channelID string) bool
	Emit(channelID, event string, payload map[string]interface{})
}

// GeoIndex is the advisory worker location index consulted before the
// precise distance pass. A miss or error only widens the candidate set.
type GeoIndex interface {
	Update(ctx context.Context, role, workerID string, lat, lng float64) error
	Remove(ctx context.Context, role, workerID string) error
	NearbyIDs(ctx context.Context, role string, lat, lng, radiusKM float64) ([]string, error)
}

// TripPayload is the wire projection of a trip used in every event and
// HTTP response. It hides internal bookkeeping fields.
func TripPayload(trip models.TripCore) map[string]interface{} {
	base := trip.Base()
	payload := map[string]interface{}{
		"id":           base.ID.Hex(),
		"trip_number":  base.TripNumber,
		"kind":         trip.Kind(),
		"status":       base.Status,
		"requester_id": base.RequesterID.Hex(),
		"pickup":       base.PickupLocation,
		"dropoff":      base.DropoffLocation,
		"distance_km":  matching.DisplayDistance(base.DistanceKM),
		"fare":         base.Fare,
		"requested_at": base.RequestedAt,
	}
	if base.WorkerID != nil {
		payload["worker_id"] = base.WorkerID.Hex()
	}
	switch t := trip.(type) {
	case *models.Ride:
		payload["seat_count"] = t.SeatCount
		payload["vehicle_class"] = t.VehicleClass
	case *models.Delivery:
		payload["package_size"] = t.PackageSize
		payload["recipient_name"] = t.RecipientName
		payload["fragile"] = t.Fragile
	}
	return payload
}
