package services

import (
	"context"
	"errors"
	"testing"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRatedFixture(t *testing.T) (*tripFixture, RatingService) {
	t.Helper()
	f := newTripFixture(t)
	ratings := NewRatingService(f.tripRepo, f.workerRepo, testLogger(t))
	return f, ratings
}

func completedTrip(t *testing.T, f *tripFixture) models.TripCore {
	t.Helper()
	trip := f.acceptedRide(t)
	return f.advance(t, trip.Base().ID, models.TripStatusDriverArrived, models.TripStatusInProgress, models.TripStatusCompleted)
}

func TestRateTripSetsRatingAndRecomputesAverage(t *testing.T) {
	f, ratings := newRatedFixture(t)

	first := completedTrip(t, f)
	rated, err := ratings.RateTrip(context.Background(), first.Base().ID, f.requesterID, 5, "smooth ride")
	if err != nil {
		t.Fatalf("RateTrip: %v", err)
	}
	if rated.Base().RequesterRating == nil || rated.Base().RequesterRating.Score != 5 {
		t.Fatalf("rating not recorded")
	}

	worker, _ := f.workerRepo.GetByID(context.Background(), f.workerID)
	if worker.Rating != 5 || worker.TotalRatings != 1 {
		t.Errorf("after one rating: average %f count %d", worker.Rating, worker.TotalRatings)
	}

	second := completedTrip(t, f)
	if _, err := ratings.RateTrip(context.Background(), second.Base().ID, f.requesterID, 4, ""); err != nil {
		t.Fatalf("RateTrip second: %v", err)
	}
	worker, _ = f.workerRepo.GetByID(context.Background(), f.workerID)
	if worker.Rating != 4.5 || worker.TotalRatings != 2 {
		t.Errorf("after two ratings: average %f count %d, want 4.5 and 2", worker.Rating, worker.TotalRatings)
	}
}

func TestRateTripAverageRoundsToOneDecimal(t *testing.T) {
	f, ratings := newRatedFixture(t)

	scores := []float64{5, 4, 5}
	for _, s := range scores {
		trip := completedTrip(t, f)
		if _, err := ratings.RateTrip(context.Background(), trip.Base().ID, f.requesterID, s, ""); err != nil {
			t.Fatalf("RateTrip: %v", err)
		}
	}
	worker, _ := f.workerRepo.GetByID(context.Background(), f.workerID)
	// (5+4+5)/3 = 4.666..., stored as 4.7.
	if worker.Rating != 4.7 {
		t.Errorf("average = %f, want 4.7", worker.Rating)
	}
}

func TestRateTripTwiceConflicts(t *testing.T) {
	f, ratings := newRatedFixture(t)
	trip := completedTrip(t, f)

	if _, err := ratings.RateTrip(context.Background(), trip.Base().ID, f.requesterID, 5, ""); err != nil {
		t.Fatalf("first rating: %v", err)
	}
	_, err := ratings.RateTrip(context.Background(), trip.Base().ID, f.requesterID, 1, "regret")
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second rating should conflict, got %v", err)
	}

	// The original rating survives.
	stored, _ := f.tripRepo.GetByID(context.Background(), trip.Base().ID)
	if stored.Base().RequesterRating.Score != 5 {
		t.Errorf("original rating was overwritten")
	}
}

func TestRateUnfinishedTripConflicts(t *testing.T) {
	f, ratings := newRatedFixture(t)
	trip := f.acceptedRide(t)

	_, err := ratings.RateTrip(context.Background(), trip.Base().ID, f.requesterID, 5, "")
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("rating an in-flight trip should conflict, got %v", err)
	}
}

func TestRateCancelledTripConflicts(t *testing.T) {
	f, ratings := newRatedFixture(t)
	trip := f.acceptedRide(t)
	if _, err := f.trips.CancelTrip(context.Background(), trip.Base().ID, f.requesterID, RoleRequester, "no show"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := ratings.RateTrip(context.Background(), trip.Base().ID, f.requesterID, 3, "")
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("rating a cancelled trip should conflict, got %v", err)
	}
}

func TestRateTripByNonRequesterDenied(t *testing.T) {
	f, ratings := newRatedFixture(t)
	trip := completedTrip(t, f)

	_, err := ratings.RateTrip(context.Background(), trip.Base().ID, primitive.NewObjectID(), 5, "")
	var permission *apperrors.PermissionError
	if !errors.As(err, &permission) {
		t.Fatalf("non-requester rating should be denied, got %v", err)
	}
}

func TestRateTripScoreBounds(t *testing.T) {
	f, ratings := newRatedFixture(t)
	trip := completedTrip(t, f)

	for _, score := range []float64{0, 0.9, 5.1, -1} {
		_, err := ratings.RateTrip(context.Background(), trip.Base().ID, f.requesterID, score, "")
		var validation *apperrors.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("score %f should fail validation, got %v", score, err)
		}
	}
}

func TestPointsForFare(t *testing.T) {
	cases := []struct {
		fare float64
		want int64
	}{
		{0, 0},
		{9.99, 0},
		{10, 10},
		{27.80, 20},
		{100, 100},
		{104.5, 100},
	}
	for _, tc := range cases {
		if got := PointsForFare(tc.fare); got != tc.want {
			t.Errorf("PointsForFare(%f) = %d, want %d", tc.fare, got, tc.want)
		}
	}
}
