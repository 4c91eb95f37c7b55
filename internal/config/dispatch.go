package config

import (
	"time"

	"gofleet/internal/utils"
)

// DispatchConfig tunes the matching and fan-out behaviour. The settle delay is
// the pause between a worker joining its channel and the pending-trip replay;
// it lets the join propagate before membership is checked.
type DispatchConfig struct {
	SearchRadiusKM    float64       `yaml:"search_radius_km"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	RideBaseFare      float64       `yaml:"ride_base_fare"`
	RidePerKMRate     float64       `yaml:"ride_per_km_rate"`
	DeliveryBaseFare  float64       `yaml:"delivery_base_fare"`
	DeliveryPerKMRate float64       `yaml:"delivery_per_km_rate"`
}

func loadDispatchConfig() *DispatchConfig {
	radius := getEnvAsFloat64("DISPATCH_SEARCH_RADIUS_KM", utils.DefaultSearchRadiusKM)
	if radius > utils.MaxSearchRadiusKM {
		radius = utils.MaxSearchRadiusKM
	}
	return &DispatchConfig{
		SearchRadiusKM:    radius,
		SettleDelay:       getEnvAsDuration("DISPATCH_SETTLE_DELAY", utils.DefaultSettleDelay),
		RideBaseFare:      getEnvAsFloat64("FARE_RIDE_BASE", utils.RideBaseFare),
		RidePerKMRate:     getEnvAsFloat64("FARE_RIDE_PER_KM", utils.RidePerKMRate),
		DeliveryBaseFare:  getEnvAsFloat64("FARE_DELIVERY_BASE", utils.DeliveryBaseFare),
		DeliveryPerKMRate: getEnvAsFloat64("FARE_DELIVERY_PER_KM", utils.DeliveryPerKMRate),
	}
}

// BaseFare and PerKMRate select the fare table row for a trip kind.
func (d *DispatchConfig) BaseFare(kind string) float64 {
	if kind == "delivery" {
		return d.DeliveryBaseFare
	}
	return d.RideBaseFare
}

func (d *DispatchConfig) PerKMRate(kind string) float64 {
	if kind == "delivery" {
		return d.DeliveryPerKMRate
	}
	return d.RidePerKMRate
}
