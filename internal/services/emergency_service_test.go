package services

import (
	"context"
	"errors"
	"testing"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newEmergencyFixture(t *testing.T) (*tripFixture, *fakeSMS, EmergencyService) {
	t.Helper()
	f := newTripFixture(t)
	smsSender := &fakeSMS{}
	emergency := NewEmergencyService(f.tripRepo, f.requesterRepo, f.presence, smsSender, testLogger(t))
	return f, smsSender, emergency
}

func withContacts(t *testing.T, f *tripFixture) {
	t.Helper()
	f.requesterRepo.mu.Lock()
	defer f.requesterRepo.mu.Unlock()
	req := f.requesterRepo.requesters[f.requesterID]
	req.EmergencyContacts = []models.EmergencyContact{
		{Name: "Mama", Phone: "+27820000001", Relationship: "parent"},
	}
	req.TrustedContacts = []models.TrustedContact{
		{Name: "Zanele", Phone: "+27820000002", CanTrackTrips: true},
		{Name: "Bongani", Phone: "+27820000003", CanTrackTrips: false},
	}
}

func TestActivateSOSNotifiesContactsAndOperations(t *testing.T) {
	f, smsSender, emergency := newEmergencyFixture(t)
	withContacts(t, f)
	trip := f.acceptedRide(t)

	updated, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, f.requesterID, -26.19, 28.03)
	if err != nil {
		t.Fatalf("ActivateSOS: %v", err)
	}

	sos := updated.Base().SOS
	if sos == nil || !sos.Activated {
		t.Fatalf("SOS record missing")
	}
	if sos.ActivatedBy != f.requesterID {
		t.Errorf("wrong activator recorded")
	}
	// The emergency contact and the track-enabled trusted contact, not the
	// opted-out one.
	if len(sos.NotifiedContacts) != 2 {
		t.Fatalf("expected 2 notified contacts, got %d", len(sos.NotifiedContacts))
	}
	if len(smsSender.sent) != 2 {
		t.Errorf("expected 2 sms sends, got %d", len(smsSender.sent))
	}
	// The trip keeps running.
	if updated.Base().Status != models.TripStatusAccepted {
		t.Errorf("SOS must not change trip status, got %s", updated.Base().Status)
	}
	if got := f.presence.count(websocket.ChannelOperations, EventSOSActivated); got != 1 {
		t.Errorf("operations should see the SOS once, got %d", got)
	}
}

func TestActivateSOSByWorker(t *testing.T) {
	f, _, emergency := newEmergencyFixture(t)
	trip := f.acceptedRide(t)

	updated, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, f.workerID, -26.19, 28.03)
	if err != nil {
		t.Fatalf("worker should be able to raise SOS: %v", err)
	}
	if updated.Base().SOS.ActivatedBy != f.workerID {
		t.Errorf("activator should be the worker")
	}
}

func TestActivateSOSRepeatIsIdempotent(t *testing.T) {
	f, smsSender, emergency := newEmergencyFixture(t)
	withContacts(t, f)
	trip := f.acceptedRide(t)

	if _, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, f.requesterID, -26.19, 28.03); err != nil {
		t.Fatalf("first SOS: %v", err)
	}
	sentAfterFirst := len(smsSender.sent)

	again, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, f.workerID, -26.18, 28.02)
	if err != nil {
		t.Fatalf("repeat SOS must succeed: %v", err)
	}
	if again.Base().SOS.ActivatedBy != f.requesterID {
		t.Errorf("repeat must not replace the original record")
	}
	if len(smsSender.sent) != sentAfterFirst {
		t.Errorf("repeat must not re-send sms")
	}
}

func TestActivateSOSOnFinishedTripConflicts(t *testing.T) {
	f, _, emergency := newEmergencyFixture(t)
	trip := f.acceptedRide(t)
	f.advance(t, trip.Base().ID, models.TripStatusDriverArrived, models.TripStatusInProgress, models.TripStatusCompleted)

	_, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, f.requesterID, -26.19, 28.03)
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("SOS on a finished trip should conflict, got %v", err)
	}
}

func TestActivateSOSByStrangerDenied(t *testing.T) {
	f, _, emergency := newEmergencyFixture(t)
	trip := f.acceptedRide(t)

	_, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, primitive.NewObjectID(), -26.19, 28.03)
	var permission *apperrors.PermissionError
	if !errors.As(err, &permission) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}

func TestActivateSOSWithoutProviderStillRecords(t *testing.T) {
	f := newTripFixture(t)
	withContacts(t, f)
	emergency := NewEmergencyService(f.tripRepo, f.requesterRepo, f.presence, nil, testLogger(t))
	trip := f.acceptedRide(t)

	updated, err := emergency.ActivateSOS(context.Background(), trip.Base().ID, f.requesterID, -26.19, 28.03)
	if err != nil {
		t.Fatalf("SOS without sms provider must still work: %v", err)
	}
	if updated.Base().SOS == nil {
		t.Errorf("SOS record missing")
	}
}
