package models

// LocationInput is the flat lat/lng shape accepted on the API surface; it is
// converted to the GeoJSON Location before persistence.
type LocationInput struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Address   string  `json:"address"`
}

func (l LocationInput) ToLocation() Location {
	loc := NewLocation(l.Latitude, l.Longitude)
	loc.Address = l.Address
	return loc
}

// CreateTripRequest covers both kinds; kind-specific fields are ignored for
// the other kind.
type CreateTripRequest struct {
	Kind    TripKind      `json:"kind" binding:"required,oneof=ride delivery"`
	Pickup  LocationInput `json:"pickup" binding:"required"`
	Dropoff LocationInput `json:"dropoff" binding:"required"`

	// Ride fields.
	SeatCount    int    `json:"seat_count"`
	VehicleClass string `json:"vehicle_class"`

	// Delivery fields.
	PackageSize    string `json:"package_size"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	Fragile        bool   `json:"fragile"`
}

type UpdateTripStatusRequest struct {
	Status TripStatus `json:"status" binding:"required"`
}

type CancelTripRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type RateTripRequest struct {
	Score   float64 `json:"score" binding:"required,min=1,max=5"`
	Comment string  `json:"comment" binding:"max=1000"`
}

type ActivateSOSRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type ReportIncidentRequest struct {
	Type        IncidentType     `json:"type" binding:"required,oneof=accident harassment unsafe_driving lost_item other"`
	Severity    IncidentSeverity `json:"severity" binding:"required,oneof=low medium high critical"`
	Description string           `json:"description" binding:"required,max=2000"`
}

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Address   string  `json:"address"`
}

type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
