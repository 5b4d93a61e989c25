package spatial

import (
	"context"

	"github.com/paulmach/orb"
)

// Neighbor is one radius-query hit, distance from the query point in
// metres.
type Neighbor struct {
	ID        string
	Point     orb.Point
	DistanceM float64
}

// Index maintains one indexable point per vehicle and answers radius
// queries sorted by ascending distance.
type Index interface {
	Upsert(ctx context.Context, id string, p orb.Point) error
	Remove(ctx context.Context, id string) error
	QueryRadius(ctx context.Context, center orb.Point, radiusM float64, limit int) ([]Neighbor, error)
}
