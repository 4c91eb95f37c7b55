package utils

import "time"

// Application Constants
const (
	AppName    = "GoFleet"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "USD"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Dispatch Constants
	DefaultSearchRadiusKM = 10.0
	MaxSearchRadiusKM     = 50.0
	DefaultSettleDelay    = 2 * time.Second
	MaxTripDistanceKM     = 500.0

	// Fare Constants
	RideBaseFare      = 2.50
	RidePerKMRate     = 1.20
	DeliveryBaseFare  = 2.00
	DeliveryPerKMRate = 1.00
	MinFare           = 2.0

	// Worker Constants
	MinRating = 1.0
	MaxRating = 5.0

	// Incident Constants
	IncidentRetentionWindow = 30 * 24 * time.Hour

	// Geo Constants
	EarthRadiusKM = 6371.0

	// Response Status
	StatusSuccess = "success"
	StatusError   = "error"

	// Error Messages
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Unauthorized access"
	ErrForbidden        = "Access forbidden"
)
