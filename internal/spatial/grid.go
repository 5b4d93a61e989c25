package spatial

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/paulmach/orb"

	"fleet-track/tracking/internal/geo"
)

// GridIndex is an in-process Index: points bucketed into fixed-size
// lat/lon cells, radius queries scanning only the cells the radius can
// reach. 0.05 degrees is roughly 5.5 km of latitude, so the default
// radius touches a handful of cells.
type GridIndex struct {
	mu       sync.RWMutex
	cells    map[string]map[string]orb.Point
	byID     map[string]string // id -> cell key
	cellSize float64
}

const defaultCellSizeDeg = 0.05

func NewGridIndex() *GridIndex {
	return &GridIndex{
		cells:    make(map[string]map[string]orb.Point),
		byID:     make(map[string]string),
		cellSize: defaultCellSizeDeg,
	}
}

func (g *GridIndex) key(p orb.Point) string {
	return fmt.Sprintf("%d:%d",
		int(math.Floor(p.Lat()/g.cellSize)),
		int(math.Floor(p.Lon()/g.cellSize)))
}

func (g *GridIndex) Upsert(_ context.Context, id string, p orb.Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.byID[id]; ok {
		delete(g.cells[old], id)
		if len(g.cells[old]) == 0 {
			delete(g.cells, old)
		}
	}

	k := g.key(p)
	cell, ok := g.cells[k]
	if !ok {
		cell = make(map[string]orb.Point)
		g.cells[k] = cell
	}
	cell[id] = p
	g.byID[id] = k
	return nil
}

func (g *GridIndex) Remove(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	k, ok := g.byID[id]
	if !ok {
		return nil
	}
	delete(g.cells[k], id)
	if len(g.cells[k]) == 0 {
		delete(g.cells, k)
	}
	delete(g.byID, id)
	return nil
}

func (g *GridIndex) QueryRadius(_ context.Context, center orb.Point, radiusM float64, limit int) ([]Neighbor, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Cell span the radius can reach. Longitude degrees shrink with
	// cos(lat); guard the pole case where that hits zero.
	latSpan := int(math.Ceil(radiusM/111000/g.cellSize)) + 1
	lonDeg := 111000 * math.Cos(center.Lat()*math.Pi/180)
	lonSpan := latSpan
	if lonDeg > 1 {
		lonSpan = int(math.Ceil(radiusM/lonDeg/g.cellSize)) + 1
	}

	baseLat := int(math.Floor(center.Lat() / g.cellSize))
	baseLon := int(math.Floor(center.Lon() / g.cellSize))

	var hits []Neighbor
	for dlat := -latSpan; dlat <= latSpan; dlat++ {
		for dlon := -lonSpan; dlon <= lonSpan; dlon++ {
			cell, ok := g.cells[fmt.Sprintf("%d:%d", baseLat+dlat, baseLon+dlon)]
			if !ok {
				continue
			}
			for id, p := range cell {
				d := geo.PointDistanceM(center, p)
				if d <= radiusM {
					hits = append(hits, Neighbor{ID: id, Point: p, DistanceM: d})
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].DistanceM < hits[j].DistanceM })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
