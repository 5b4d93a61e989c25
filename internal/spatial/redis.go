package spatial

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
)

// RedisIndex backs Index with a Redis GEO set, shared across processes.
type RedisIndex struct {
	client *redis.Client
	key    string
}

func NewRedisIndex(client *redis.Client, fleetID string) *RedisIndex {
	return &RedisIndex{
		client: client,
		key:    fmt.Sprintf("fleet:%s:geo", fleetID),
	}
}

func (r *RedisIndex) Upsert(ctx context.Context, id string, p orb.Point) error {
	err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      id,
		Longitude: p.Lon(),
		Latitude:  p.Lat(),
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s failed: %w", id, err)
	}
	return nil
}

func (r *RedisIndex) Remove(ctx context.Context, id string) error {
	if err := r.client.ZRem(ctx, r.key, id).Err(); err != nil {
		return fmt.Errorf("zrem %s failed: %w", id, err)
	}
	return nil
}

func (r *RedisIndex) QueryRadius(ctx context.Context, center orb.Point, radiusM float64, limit int) ([]Neighbor, error) {
	q := &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Lon(),
			Latitude:   center.Lat(),
			Radius:     radiusM,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}
	locs, err := r.client.GeoSearchLocation(ctx, r.key, q).Result()
	if err != nil {
		return nil, fmt.Errorf("geosearch failed: %w", err)
	}

	out := make([]Neighbor, 0, len(locs))
	for _, l := range locs {
		out = append(out, Neighbor{
			ID:        l.Name,
			Point:     orb.Point{l.Longitude, l.Latitude},
			DistanceM: l.Dist, // metres, per RadiusUnit
		})
	}
	return out, nil
}
