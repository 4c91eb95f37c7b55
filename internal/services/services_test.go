package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gofleet/internal/config"
	"gofleet/internal/models"
	"gofleet/internal/repositories/interfaces"
	"gofleet/pkg/logger"
	"gofleet/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The fakes mirror the conditional-update semantics of the Mongo layer: a
// mutation whose predicate no longer holds returns ErrConditionFailed, and
// every method hands out copies so callers cannot mutate stored state.

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testDispatchConfig() *config.DispatchConfig {
	return &config.DispatchConfig{
		SearchRadiusKM:    10,
		SettleDelay:       time.Millisecond,
		RideBaseFare:      2.50,
		RidePerKMRate:     1.20,
		DeliveryBaseFare:  2.00,
		DeliveryPerKMRate: 1.00,
	}
}

func cloneTrip(trip models.TripCore) models.TripCore {
	switch t := trip.(type) {
	case *models.Ride:
		c := *t
		return &c
	case *models.Delivery:
		c := *t
		return &c
	}
	return trip
}

type fakeTripRepo struct {
	mu    sync.Mutex
	trips map[primitive.ObjectID]models.TripCore
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: make(map[primitive.ObjectID]models.TripCore)}
}

func (r *fakeTripRepo) Create(ctx context.Context, trip models.TripCore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	base := trip.Base()
	if base.ID.IsZero() {
		base.ID = primitive.NewObjectID()
	}
	r.trips[base.ID] = cloneTrip(trip)
	return nil
}

func (r *fakeTripRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneTrip(trip), nil
}

func (r *fakeTripRepo) GetPending(ctx context.Context) ([]models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TripCore
	for _, trip := range r.trips {
		if trip.Base().Status == models.TripStatusPending {
			out = append(out, cloneTrip(trip))
		}
	}
	return out, nil
}

func (r *fakeTripRepo) GetByRequester(ctx context.Context, requesterID primitive.ObjectID, limit int64) ([]models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TripCore
	for _, trip := range r.trips {
		if trip.Base().RequesterID == requesterID {
			out = append(out, cloneTrip(trip))
		}
	}
	return out, nil
}

func (r *fakeTripRepo) GetByWorker(ctx context.Context, workerID primitive.ObjectID, limit int64) ([]models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TripCore
	for _, trip := range r.trips {
		if trip.Base().WorkerID != nil && *trip.Base().WorkerID == workerID {
			out = append(out, cloneTrip(trip))
		}
	}
	return out, nil
}

func (r *fakeTripRepo) GetActiveByWorker(ctx context.Context, workerID primitive.ObjectID) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, trip := range r.trips {
		base := trip.Base()
		if base.WorkerID != nil && *base.WorkerID == workerID && !models.IsTerminalStatus(base.Status) {
			return cloneTrip(trip), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeTripRepo) AssignWorker(ctx context.Context, id, workerID primitive.ObjectID) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrConditionFailed
	}
	base := trip.Base()
	if base.Status != models.TripStatusPending || base.WorkerID != nil {
		return nil, interfaces.ErrConditionFailed
	}
	now := time.Now()
	wid := workerID
	base.WorkerID = &wid
	base.Status = models.TripStatusAccepted
	base.AcceptedAt = &now
	base.UpdatedAt = now
	return cloneTrip(trip), nil
}

func (r *fakeTripRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, fromStatuses []models.TripStatus, to models.TripStatus, extra map[string]interface{}) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrConditionFailed
	}
	base := trip.Base()
	match := false
	for _, s := range fromStatuses {
		if base.Status == s {
			match = true
			break
		}
	}
	if !match {
		return nil, interfaces.ErrConditionFailed
	}

	now := time.Now()
	base.Status = to
	base.UpdatedAt = now
	switch models.StatusTimestampField(to) {
	case "accepted_at":
		base.AcceptedAt = &now
	case "started_at":
		base.StartedAt = &now
	case "completed_at":
		base.CompletedAt = &now
	case "cancelled_at":
		base.CancelledAt = &now
	}
	if v, ok := extra["cancellation_reason"]; ok {
		base.CancellationReason = v.(string)
	}
	if v, ok := extra["cancelled_by"]; ok {
		base.CancelledBy = v.(string)
	}
	if v, ok := extra["loyalty_awarded"]; ok {
		base.LoyaltyAwarded = v.(bool)
	}
	return cloneTrip(trip), nil
}

func (r *fakeTripRepo) SetRequesterRating(ctx context.Context, id, requesterID primitive.ObjectID, rating *models.TripRating) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrConditionFailed
	}
	base := trip.Base()
	if base.RequesterID != requesterID || !models.IsTerminalSuccess(base.Status) || base.RequesterRating != nil {
		return nil, interfaces.ErrConditionFailed
	}
	base.RequesterRating = rating
	base.UpdatedAt = time.Now()
	return cloneTrip(trip), nil
}

func (r *fakeTripRepo) ActivateSOS(ctx context.Context, id primitive.ObjectID, sos *models.SOSRecord) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrConditionFailed
	}
	base := trip.Base()
	if base.SOS != nil || models.IsTerminalStatus(base.Status) {
		return nil, interfaces.ErrConditionFailed
	}
	base.SOS = sos
	base.UpdatedAt = time.Now()
	return cloneTrip(trip), nil
}

func (r *fakeTripRepo) AddIncident(ctx context.Context, id primitive.ObjectID, incident models.IncidentReport) (models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	base := trip.Base()
	base.Incidents = append(base.Incidents, incident)
	base.UpdatedAt = time.Now()
	return cloneTrip(trip), nil
}

func (r *fakeTripRepo) GetRatedByWorker(ctx context.Context, workerID primitive.ObjectID) ([]models.TripCore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TripCore
	for _, trip := range r.trips {
		base := trip.Base()
		if base.WorkerID != nil && *base.WorkerID == workerID &&
			models.IsTerminalSuccess(base.Status) && base.RequesterRating != nil {
			out = append(out, cloneTrip(trip))
		}
	}
	return out, nil
}

type fakeWorkerRepo struct {
	mu      sync.Mutex
	workers map[primitive.ObjectID]*models.Worker
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{workers: make(map[primitive.ObjectID]*models.Worker)}
}

func (r *fakeWorkerRepo) Create(ctx context.Context, worker *models.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if worker.ID.IsZero() {
		worker.ID = primitive.NewObjectID()
	}
	c := *worker
	r.workers[worker.ID] = &c
	return nil
}

func (r *fakeWorkerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (r *fakeWorkerRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Worker
	for _, id := range ids {
		if w, ok := r.workers[id]; ok {
			c := *w
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeWorkerRepo) GetDispatchable(ctx context.Context, role models.WorkerRole) ([]*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Worker
	for _, w := range r.workers {
		if w.Role == role && w.Dispatchable() {
			c := *w
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeWorkerRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.Location) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	now := time.Now()
	w.CurrentLocation = &location
	w.LastLocationUpdate = &now
	c := *w
	return &c, nil
}

func (r *fakeWorkerRepo) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	w.IsAvailable = available
	c := *w
	return &c, nil
}

func (r *fakeWorkerRepo) ClaimTrip(ctx context.Context, id, tripID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if w.ActiveTripID != nil {
		return interfaces.ErrConditionFailed
	}
	claimed := tripID
	w.ActiveTripID = &claimed
	return nil
}

func (r *fakeWorkerRepo) ReleaseTrip(ctx context.Context, id, tripID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if w.ActiveTripID != nil && *w.ActiveTripID == tripID {
		w.ActiveTripID = nil
	}
	return nil
}

func (r *fakeWorkerRepo) UpdateRating(ctx context.Context, id primitive.ObjectID, average float64, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	w.Rating = average
	w.TotalRatings = count
	return nil
}

func (r *fakeWorkerRepo) IncrementTripCount(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	w.TotalTrips++
	return nil
}

type fakeRequesterRepo struct {
	mu         sync.Mutex
	requesters map[primitive.ObjectID]*models.Requester
}

func newFakeRequesterRepo() *fakeRequesterRepo {
	return &fakeRequesterRepo{requesters: make(map[primitive.ObjectID]*models.Requester)}
}

func (r *fakeRequesterRepo) Create(ctx context.Context, requester *models.Requester) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester.ID.IsZero() {
		requester.ID = primitive.NewObjectID()
	}
	c := *requester
	r.requesters[requester.ID] = &c
	return nil
}

func (r *fakeRequesterRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Requester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requesters[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (r *fakeRequesterRepo) ApplyLoyaltyAward(ctx context.Context, id primitive.ObjectID, points int64, spend float64) (*models.Requester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requesters[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	req.LoyaltyPoints += points
	req.TotalSpent += spend
	req.TotalTrips++
	c := *req
	return &c, nil
}

func (r *fakeRequesterRepo) SetLoyaltyTier(ctx context.Context, id primitive.ObjectID, tier models.LoyaltyTier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requesters[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	req.LoyaltyTier = tier
	return nil
}

type emittedEvent struct {
	channel string
	event   string
	payload map[string]interface{}
}

type fakePresence struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (p *fakePresence) IsMember(channelID string) bool { return true }

func (p *fakePresence) Emit(channelID, event string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, emittedEvent{channel: channelID, event: event, payload: payload})
}

func (p *fakePresence) count(channel, event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if (channel == "" || e.channel == channel) && e.event == event {
			n++
		}
	}
	return n
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSMS) SendSMS(ctx context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, request.To)
	return &sms.SMSResponse{Status: "sent"}, nil
}

func (f *fakeSMS) SendBulkSMS(ctx context.Context, requests []*sms.SMSRequest) ([]*sms.SMSResponse, error) {
	out := make([]*sms.SMSResponse, 0, len(requests))
	for _, req := range requests {
		resp, _ := f.SendSMS(ctx, req)
		out = append(out, resp)
	}
	return out, nil
}
