package matching

import (
	"math"

	"gofleet/internal/models"
	"gofleet/internal/utils"
)

// Candidate pairs a worker with its distance from the trip origin.
type Candidate struct {
	Worker     *models.Worker
	DistanceKM float64
}

// Nearby filters the candidate pool to workers within radiusKM of the origin,
// boundary inclusive. The result is deliberately unordered: proximity is a
// pass/fail filter and the accept race decides the winner, so every qualifying
// worker is treated the same.
func Nearby(origin models.Location, radiusKM float64, workers []*models.Worker) []Candidate {
	matches := make([]Candidate, 0, len(workers))
	for _, w := range workers {
		if w.CurrentLocation == nil || w.CurrentLocation.IsZero() {
			continue
		}
		d := utils.HaversineKM(
			origin.Latitude(), origin.Longitude(),
			w.CurrentLocation.Latitude(), w.CurrentLocation.Longitude(),
		)
		if d <= radiusKM {
			matches = append(matches, Candidate{Worker: w, DistanceKM: d})
		}
	}
	return matches
}

// DisplayDistance rounds a distance to 2 decimal places for presentation.
// Filtering always uses the full-precision value.
func DisplayDistance(km float64) float64 {
	return math.Round(km*100) / 100
}
