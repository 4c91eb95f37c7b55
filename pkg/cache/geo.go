package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// WorkerGeoIndex keeps worker positions in a Redis GEO set per role so the
// dispatcher can pre-filter candidates without scanning the workers
// collection. The index is advisory: precise distance filtering happens in
// the matcher against the stored worker records.
type WorkerGeoIndex struct {
	client *redis.Client
}

func NewWorkerGeoIndex(cache *RedisCache) *WorkerGeoIndex {
	return &WorkerGeoIndex{client: cache.Client()}
}

func geoKey(role string) string {
	return "workers:geo:" + role
}

func (g *WorkerGeoIndex) Update(ctx context.Context, role, workerID string, lat, lng float64) error {
	return g.client.GeoAdd(ctx, geoKey(role), &redis.GeoLocation{
		Name:      workerID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

func (g *WorkerGeoIndex) Remove(ctx context.Context, role, workerID string) error {
	return g.client.ZRem(ctx, geoKey(role), workerID).Err()
}

// NearbyIDs returns the ids of workers inside the radius. Results are not
// ordered by distance on purpose; proximity is a pass/fail filter here.
func (g *WorkerGeoIndex) NearbyIDs(ctx context.Context, role string, lat, lng, radiusKM float64) ([]string, error) {
	locations, err := g.client.GeoSearch(ctx, geoKey(role), &redis.GeoSearchQuery{
		Longitude:  lng,
		Latitude:   lat,
		Radius:     radiusKM,
		RadiusUnit: "km",
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(locations))
	ids = append(ids, locations...)
	return ids, nil
}
