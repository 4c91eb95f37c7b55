package validators

import (
	"gofleet/internal/models"
)

// ValidateCreateTrip layers the cross-field checks the binding tags cannot
// express on top of the tag-driven ones.
func ValidateCreateTrip(req *models.CreateTripRequest) FieldErrors {
	errors := ValidateStruct(req)

	if !validCoordinates(req.Pickup.Latitude, req.Pickup.Longitude) {
		errors = append(errors, FieldError{Field: "pickup", Message: "coordinates are out of range"})
	}
	if !validCoordinates(req.Dropoff.Latitude, req.Dropoff.Longitude) {
		errors = append(errors, FieldError{Field: "dropoff", Message: "coordinates are out of range"})
	}
	if req.Pickup.Latitude == req.Dropoff.Latitude && req.Pickup.Longitude == req.Dropoff.Longitude {
		errors = append(errors, FieldError{Field: "dropoff", Message: "pickup and dropoff must differ"})
	}

	switch req.Kind {
	case models.TripKindRide:
		if req.SeatCount < 0 || req.SeatCount > 6 {
			errors = append(errors, FieldError{Field: "seat_count", Message: "must be between 1 and 6"})
		}
	case models.TripKindDelivery:
		if req.PackageSize != "" {
			switch req.PackageSize {
			case "small", "medium", "large":
			default:
				errors = append(errors, FieldError{Field: "package_size", Message: "must be one of: small medium large"})
			}
		}
		if req.RecipientName == "" {
			errors = append(errors, FieldError{Field: "recipient_name", Message: "is required"})
		}
	}
	return errors
}

func ValidateUpdateTripStatus(req *models.UpdateTripStatusRequest) FieldErrors {
	errors := ValidateStruct(req)
	switch req.Status {
	case models.TripStatusAccepted, models.TripStatusDriverArrived, models.TripStatusInProgress,
		models.TripStatusCompleted, models.TripStatusPickedUp, models.TripStatusInTransit,
		models.TripStatusDelivered, models.TripStatusCancelled, models.TripStatusPending:
	default:
		errors = append(errors, FieldError{Field: "status", Message: "is not a recognised trip status"})
	}
	return errors
}

func ValidateRateTrip(req *models.RateTripRequest) FieldErrors {
	return ValidateStruct(req)
}

func ValidateActivateSOS(req *models.ActivateSOSRequest) FieldErrors {
	errors := ValidateStruct(req)
	if !validCoordinates(req.Latitude, req.Longitude) {
		errors = append(errors, FieldError{Field: "location", Message: "coordinates are out of range"})
	}
	return errors
}

func ValidateReportIncident(req *models.ReportIncidentRequest) FieldErrors {
	return ValidateStruct(req)
}
