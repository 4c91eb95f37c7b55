package matching

import (
	"math"
	"testing"

	"gofleet/internal/models"
	"gofleet/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func workerAt(lat, lng float64) *models.Worker {
	loc := models.NewLocation(lat, lng)
	return &models.Worker{
		ID:              primitive.NewObjectID(),
		Role:            models.WorkerRoleDriver,
		IsAvailable:     true,
		IsVerified:      true,
		CurrentLocation: &loc,
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	d := utils.HaversineKM(-26.2041, 28.0473, -26.2041, 28.0473)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := utils.HaversineKM(-26.2041, 28.0473, -26.1076, 28.0567)
	b := utils.HaversineKM(-26.1076, 28.0567, -26.2041, 28.0473)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Johannesburg CBD to Sandton is roughly 10.8 km as the crow flies.
	d := utils.HaversineKM(-26.2041, 28.0473, -26.1076, 28.0567)
	if d < 10 || d > 12 {
		t.Errorf("expected roughly 10.8 km, got %f", d)
	}
}

func TestNearbyFiltersByRadius(t *testing.T) {
	origin := models.NewLocation(-26.2041, 28.0473)

	near := workerAt(-26.20, 28.05)     // well inside 10 km
	edge := workerAt(-26.1076, 28.0567) // ~10.8 km away
	far := workerAt(-25.7479, 28.2293)  // Pretoria, ~55 km away

	got := Nearby(origin, 10, []*models.Worker{near, edge, far})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Worker.ID != near.ID {
		t.Errorf("wrong worker matched")
	}

	// The same edge worker qualifies once the radius covers it. The boundary
	// itself is inclusive.
	got = Nearby(origin, 11, []*models.Worker{near, edge, far})
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates at 11 km, got %d", len(got))
	}
}

func TestNearbyBoundaryInclusive(t *testing.T) {
	origin := models.NewLocation(0, 0)
	w := workerAt(0, 0.05)
	exact := utils.HaversineKM(0, 0, 0, 0.05)

	got := Nearby(origin, exact, []*models.Worker{w})
	if len(got) != 1 {
		t.Errorf("worker at exactly the radius should match")
	}
}

func TestNearbySkipsUnlocatedWorkers(t *testing.T) {
	origin := models.NewLocation(-26.2041, 28.0473)
	unlocated := &models.Worker{ID: primitive.NewObjectID(), Role: models.WorkerRoleDriver, IsAvailable: true, IsVerified: true}

	got := Nearby(origin, 100, []*models.Worker{unlocated})
	if len(got) != 0 {
		t.Errorf("worker without a location must not match")
	}
}

func TestNearbyReportsDistance(t *testing.T) {
	origin := models.NewLocation(-26.2041, 28.0473)
	w := workerAt(-26.1076, 28.0567)

	got := Nearby(origin, 20, []*models.Worker{w})
	if len(got) != 1 {
		t.Fatalf("expected a match")
	}
	if got[0].DistanceKM < 10 || got[0].DistanceKM > 12 {
		t.Errorf("unexpected candidate distance %f", got[0].DistanceKM)
	}
}

func TestDisplayDistance(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.844, 10.84},
		{10.845, 10.85},
		{0, 0},
		{3.1, 3.1},
	}
	for _, tc := range cases {
		if got := DisplayDistance(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("DisplayDistance(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}
