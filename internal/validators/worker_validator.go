package validators

import (
	"gofleet/internal/models"
)

func ValidateUpdateLocation(req *models.UpdateLocationRequest) FieldErrors {
	errors := ValidateStruct(req)
	if !validCoordinates(req.Latitude, req.Longitude) {
		errors = append(errors, FieldError{Field: "location", Message: "coordinates are out of range"})
	}
	return errors
}

func ValidateUpdateAvailability(req *models.UpdateAvailabilityRequest) FieldErrors {
	return ValidateStruct(req)
}
