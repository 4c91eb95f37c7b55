package models

import (
	"testing"
)

func TestCanTransitionRideLineage(t *testing.T) {
	cases := []struct {
		from, to TripStatus
		want     bool
	}{
		{TripStatusPending, TripStatusAccepted, true},
		{TripStatusAccepted, TripStatusDriverArrived, true},
		{TripStatusDriverArrived, TripStatusInProgress, true},
		{TripStatusInProgress, TripStatusCompleted, true},

		// No skipping and no going back.
		{TripStatusPending, TripStatusInProgress, false},
		{TripStatusAccepted, TripStatusCompleted, false},
		{TripStatusInProgress, TripStatusAccepted, false},
		{TripStatusDriverArrived, TripStatusPending, false},

		// Delivery statuses do not belong to the ride lineage.
		{TripStatusAccepted, TripStatusPickedUp, false},
	}
	for _, tc := range cases {
		if got := CanTransition(TripKindRide, tc.from, tc.to); got != tc.want {
			t.Errorf("ride %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionDeliveryLineage(t *testing.T) {
	cases := []struct {
		from, to TripStatus
		want     bool
	}{
		{TripStatusPending, TripStatusAccepted, true},
		{TripStatusAccepted, TripStatusPickedUp, true},
		{TripStatusPickedUp, TripStatusInTransit, true},
		{TripStatusInTransit, TripStatusDelivered, true},

		{TripStatusAccepted, TripStatusInTransit, false},
		{TripStatusPickedUp, TripStatusDelivered, false},
		{TripStatusAccepted, TripStatusDriverArrived, false},
	}
	for _, tc := range cases {
		if got := CanTransition(TripKindDelivery, tc.from, tc.to); got != tc.want {
			t.Errorf("delivery %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancelReachableFromAnyNonTerminal(t *testing.T) {
	for _, from := range []TripStatus{TripStatusPending, TripStatusAccepted, TripStatusDriverArrived, TripStatusInProgress} {
		if !CanTransition(TripKindRide, from, TripStatusCancelled) {
			t.Errorf("ride should be cancellable from %s", from)
		}
	}
	for _, from := range []TripStatus{TripStatusPending, TripStatusAccepted, TripStatusPickedUp, TripStatusInTransit} {
		if !CanTransition(TripKindDelivery, from, TripStatusCancelled) {
			t.Errorf("delivery should be cancellable from %s", from)
		}
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, from := range []TripStatus{TripStatusCompleted, TripStatusDelivered, TripStatusCancelled} {
		for _, to := range []TripStatus{TripStatusPending, TripStatusAccepted, TripStatusInProgress, TripStatusCancelled, TripStatusCompleted} {
			if CanTransition(TripKindRide, from, to) {
				t.Errorf("terminal status %s must not transition to %s", from, to)
			}
		}
	}
}

func TestStatusesBefore(t *testing.T) {
	got := StatusesBefore(TripKindRide, TripStatusCompleted)
	if len(got) != 1 || got[0] != TripStatusInProgress {
		t.Errorf("StatusesBefore(ride, completed) = %v", got)
	}

	cancellable := StatusesBefore(TripKindDelivery, TripStatusCancelled)
	if len(cancellable) != 4 {
		t.Errorf("expected 4 cancellable delivery statuses, got %v", cancellable)
	}
	for _, s := range cancellable {
		if IsTerminalStatus(s) {
			t.Errorf("terminal status %s must not be cancellable", s)
		}
	}
}

func TestKnownStatus(t *testing.T) {
	if KnownStatus(TripKindRide, TripStatusPickedUp) {
		t.Errorf("picked_up is not a ride status")
	}
	if !KnownStatus(TripKindDelivery, TripStatusInTransit) {
		t.Errorf("in_transit is a delivery status")
	}
	if !KnownStatus(TripKindRide, TripStatusCancelled) {
		t.Errorf("cancelled belongs to every lineage")
	}
}

func TestTerminalSuccessStatus(t *testing.T) {
	if TerminalSuccessStatus(TripKindRide) != TripStatusCompleted {
		t.Errorf("ride success status should be completed")
	}
	if TerminalSuccessStatus(TripKindDelivery) != TripStatusDelivered {
		t.Errorf("delivery success status should be delivered")
	}
	if IsTerminalSuccess(TripStatusCancelled) {
		t.Errorf("cancelled is not a success")
	}
}

func TestStatusTimestampField(t *testing.T) {
	cases := map[TripStatus]string{
		TripStatusAccepted:   "accepted_at",
		TripStatusInProgress: "started_at",
		TripStatusInTransit:  "started_at",
		TripStatusCompleted:  "completed_at",
		TripStatusDelivered:  "completed_at",
		TripStatusCancelled:  "cancelled_at",
		TripStatusPending:    "",
	}
	for status, want := range cases {
		if got := StatusTimestampField(status); got != want {
			t.Errorf("StatusTimestampField(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestTierForSpend(t *testing.T) {
	cases := []struct {
		spend float64
		want  LoyaltyTier
	}{
		{0, LoyaltyTierBronze},
		{499.99, LoyaltyTierBronze},
		{500, LoyaltyTierSilver},
		{1999.99, LoyaltyTierSilver},
		{2000, LoyaltyTierGold},
		{4999.99, LoyaltyTierGold},
		{5000, LoyaltyTierPlatinum},
		{12000, LoyaltyTierPlatinum},
	}
	for _, tc := range cases {
		if got := TierForSpend(tc.spend); got != tc.want {
			t.Errorf("TierForSpend(%f) = %s, want %s", tc.spend, got, tc.want)
		}
	}
}

func TestRoleForKind(t *testing.T) {
	if RoleForKind(TripKindRide) != WorkerRoleDriver {
		t.Errorf("rides are served by drivers")
	}
	if RoleForKind(TripKindDelivery) != WorkerRoleCourier {
		t.Errorf("deliveries are served by couriers")
	}
}
