package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newIncidentFixture(t *testing.T) (*tripFixture, IncidentService) {
	t.Helper()
	f := newTripFixture(t)
	incidents := NewIncidentService(f.tripRepo, f.presence, testLogger(t))
	return f, incidents
}

func incidentRequest() *models.ReportIncidentRequest {
	return &models.ReportIncidentRequest{
		Type:        models.IncidentTypeUnsafe,
		Severity:    models.IncidentSeverityHigh,
		Description: "vehicle swerving across lanes",
	}
}

func TestReportIncidentDuringTrip(t *testing.T) {
	f, incidents := newIncidentFixture(t)
	trip := f.acceptedRide(t)

	updated, err := incidents.ReportIncident(context.Background(), trip.Base().ID, f.requesterID, incidentRequest())
	if err != nil {
		t.Fatalf("ReportIncident: %v", err)
	}
	if len(updated.Base().Incidents) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(updated.Base().Incidents))
	}
	report := updated.Base().Incidents[0]
	if report.ReporterID != f.requesterID || report.Type != models.IncidentTypeUnsafe {
		t.Errorf("incident fields not recorded")
	}
	if updated.Base().Status != models.TripStatusAccepted {
		t.Errorf("incident must not change trip status")
	}
	if got := f.presence.count(websocket.ChannelOperations, EventIncidentReported); got != 1 {
		t.Errorf("operations should see the incident once, got %d", got)
	}
}

func TestReportMultipleIncidents(t *testing.T) {
	f, incidents := newIncidentFixture(t)
	trip := f.acceptedRide(t)

	if _, err := incidents.ReportIncident(context.Background(), trip.Base().ID, f.requesterID, incidentRequest()); err != nil {
		t.Fatalf("first report: %v", err)
	}
	updated, err := incidents.ReportIncident(context.Background(), trip.Base().ID, f.workerID, &models.ReportIncidentRequest{
		Type:        models.IncidentTypeOther,
		Severity:    models.IncidentSeverityLow,
		Description: "passenger left a bag",
	})
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if len(updated.Base().Incidents) != 2 {
		t.Errorf("expected 2 incidents, got %d", len(updated.Base().Incidents))
	}
}

func TestReportIncidentAfterCompletionWithinWindow(t *testing.T) {
	f, incidents := newIncidentFixture(t)
	trip := f.acceptedRide(t)
	f.advance(t, trip.Base().ID, models.TripStatusDriverArrived, models.TripStatusInProgress, models.TripStatusCompleted)

	if _, err := incidents.ReportIncident(context.Background(), trip.Base().ID, f.requesterID, incidentRequest()); err != nil {
		t.Fatalf("reporting shortly after completion should work: %v", err)
	}
}

func TestReportIncidentAfterRetentionWindowConflicts(t *testing.T) {
	f, incidents := newIncidentFixture(t)
	trip := f.acceptedRide(t)
	f.advance(t, trip.Base().ID, models.TripStatusDriverArrived, models.TripStatusInProgress, models.TripStatusCompleted)

	// Age the completion timestamp past the reporting window.
	f.tripRepo.mu.Lock()
	stored := f.tripRepo.trips[trip.Base().ID]
	old := time.Now().Add(-31 * 24 * time.Hour)
	stored.Base().CompletedAt = &old
	f.tripRepo.mu.Unlock()

	_, err := incidents.ReportIncident(context.Background(), trip.Base().ID, f.requesterID, incidentRequest())
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("reporting after the window should conflict, got %v", err)
	}
}

func TestReportIncidentByStrangerDenied(t *testing.T) {
	f, incidents := newIncidentFixture(t)
	trip := f.acceptedRide(t)

	_, err := incidents.ReportIncident(context.Background(), trip.Base().ID, primitive.NewObjectID(), incidentRequest())
	var permission *apperrors.PermissionError
	if !errors.As(err, &permission) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}
