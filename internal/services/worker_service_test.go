package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gofleet/internal/apperrors"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newWorkerFixture(t *testing.T) (*tripFixture, WorkerService) {
	t.Helper()
	f := newTripFixture(t)
	workers := NewWorkerService(f.workerRepo, f.tripRepo, f.presence, nil, testLogger(t))
	return f, workers
}

func TestUpdateLocationStoresPosition(t *testing.T) {
	f, workers := newWorkerFixture(t)

	worker, err := workers.UpdateLocation(context.Background(), f.workerID, -26.15, 28.03, "Rosebank")
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if worker.CurrentLocation.Latitude() != -26.15 || worker.CurrentLocation.Longitude() != 28.03 {
		t.Errorf("location not stored")
	}
	if worker.LastLocationUpdate == nil {
		t.Errorf("last location update timestamp missing")
	}
}

func TestUpdateLocationRelaysToActiveTrip(t *testing.T) {
	f, workers := newWorkerFixture(t)
	trip := f.acceptedRide(t)

	if _, err := workers.UpdateLocation(context.Background(), f.workerID, -26.15, 28.03, ""); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if got := f.presence.count(websocket.UserChannel(f.requesterID), EventLocationUpdate); got != 1 {
		t.Errorf("requester should receive the position, got %d events", got)
	}
	if got := f.presence.count(websocket.TripChannel(trip.Base().ID), EventLocationUpdate); got != 1 {
		t.Errorf("trip channel should receive the position, got %d events", got)
	}

	f.presence.mu.Lock()
	defer f.presence.mu.Unlock()
	for _, e := range f.presence.events {
		if e.event != EventLocationUpdate {
			continue
		}
		if _, ok := e.payload["timestamp"].(time.Time); !ok {
			t.Errorf("location update payload must carry a timestamp")
		}
	}
}

func TestUpdateLocationNoRelayWithoutActiveTrip(t *testing.T) {
	f, workers := newWorkerFixture(t)

	if _, err := workers.UpdateLocation(context.Background(), f.workerID, -26.15, 28.03, ""); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if got := f.presence.count("", EventLocationUpdate); got != 0 {
		t.Errorf("idle worker position must not be relayed, got %d events", got)
	}
}

func TestUpdateLocationRejectsBadCoordinates(t *testing.T) {
	f, workers := newWorkerFixture(t)

	for _, c := range []struct{ lat, lng float64 }{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		_, err := workers.UpdateLocation(context.Background(), f.workerID, c.lat, c.lng, "")
		var validation *apperrors.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("coordinates (%f, %f) should fail validation, got %v", c.lat, c.lng, err)
		}
	}
}

func TestUpdateLocationUnknownWorker(t *testing.T) {
	_, workers := newWorkerFixture(t)

	_, err := workers.UpdateLocation(context.Background(), primitive.NewObjectID(), -26.15, 28.03, "")
	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateAvailability(t *testing.T) {
	f, workers := newWorkerFixture(t)

	worker, err := workers.UpdateAvailability(context.Background(), f.workerID, false)
	if err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if worker.IsAvailable {
		t.Errorf("worker should be unavailable")
	}

	worker, err = workers.UpdateAvailability(context.Background(), f.workerID, true)
	if err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if !worker.IsAvailable {
		t.Errorf("worker should be available again")
	}
}
