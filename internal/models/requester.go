package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "bronze"
	LoyaltyTierSilver   LoyaltyTier = "silver"
	LoyaltyTierGold     LoyaltyTier = "gold"
	LoyaltyTierPlatinum LoyaltyTier = "platinum"
)

// Requester is the account that creates ride and delivery requests.
type Requester struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name" validate:"required"`
	Phone             string             `json:"phone" bson:"phone" validate:"required"`
	LoyaltyPoints     int64              `json:"loyalty_points" bson:"loyalty_points" default:"0"`
	TotalSpent        float64            `json:"total_spent" bson:"total_spent" default:"0"`
	LoyaltyTier       LoyaltyTier        `json:"loyalty_tier" bson:"loyalty_tier" default:"bronze"`
	TotalTrips        int64              `json:"total_trips" bson:"total_trips" default:"0"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts" bson:"emergency_contacts"`
	TrustedContacts   []TrustedContact   `json:"trusted_contacts" bson:"trusted_contacts"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

type EmergencyContact struct {
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone" bson:"phone"`
	Relationship string `json:"relationship" bson:"relationship"`
}

// TrustedContact may be allowed to follow the requester's trips; only those
// flagged CanTrackTrips are included on the SOS notify list.
type TrustedContact struct {
	Name          string `json:"name" bson:"name"`
	Phone         string `json:"phone" bson:"phone"`
	CanTrackTrips bool   `json:"can_track_trips" bson:"can_track_trips"`
}

// TierForSpend classifies cumulative spend into a loyalty tier by fixed
// thresholds.
func TierForSpend(totalSpent float64) LoyaltyTier {
	switch {
	case totalSpent >= 5000:
		return LoyaltyTierPlatinum
	case totalSpent >= 2000:
		return LoyaltyTierGold
	case totalSpent >= 500:
		return LoyaltyTierSilver
	}
	return LoyaltyTierBronze
}
