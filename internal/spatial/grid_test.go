package spatial

import (
	"context"
	"testing"

	"github.com/paulmach/orb"

	"fleet-track/tracking/internal/geo"
)

func TestGridQueryRadiusSorted(t *testing.T) {
	g := NewGridIndex()
	ctx := context.Background()

	center := geo.Point(6.9271, 79.8612)
	mustUpsert(t, g, "near", geo.Point(6.9280, 79.8620))
	mustUpsert(t, g, "mid", geo.Point(6.9400, 79.8700))
	mustUpsert(t, g, "far", geo.Point(7.2906, 80.6337)) // ~95 km away

	hits, err := g.QueryRadius(ctx, center, 5000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].ID != "near" || hits[1].ID != "mid" {
		t.Fatalf("order = %s, %s", hits[0].ID, hits[1].ID)
	}
	if hits[0].DistanceM > hits[1].DistanceM {
		t.Fatalf("not ascending: %v > %v", hits[0].DistanceM, hits[1].DistanceM)
	}
	for _, h := range hits {
		if h.DistanceM > 5000 {
			t.Fatalf("%s outside radius: %v m", h.ID, h.DistanceM)
		}
	}
}

func TestGridQueryLimit(t *testing.T) {
	g := NewGridIndex()
	center := geo.Point(6.9271, 79.8612)
	mustUpsert(t, g, "a", geo.Point(6.9272, 79.8612))
	mustUpsert(t, g, "b", geo.Point(6.9280, 79.8612))
	mustUpsert(t, g, "c", geo.Point(6.9290, 79.8612))

	hits, err := g.QueryRadius(context.Background(), center, 5000, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].ID != "a" {
		t.Fatalf("limited hits = %+v", hits)
	}
}

func TestGridUpsertMovesAcrossCells(t *testing.T) {
	g := NewGridIndex()
	ctx := context.Background()

	mustUpsert(t, g, "v", geo.Point(6.9271, 79.8612))
	// Move well out of the original cell.
	mustUpsert(t, g, "v", geo.Point(7.2906, 80.6337))

	hits, err := g.QueryRadius(ctx, geo.Point(6.9271, 79.8612), 5000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("stale entry at old cell: %+v", hits)
	}

	hits, err = g.QueryRadius(ctx, geo.Point(7.2906, 80.6337), 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "v" {
		t.Fatalf("missing at new cell: %+v", hits)
	}
}

func TestGridRemove(t *testing.T) {
	g := NewGridIndex()
	ctx := context.Background()

	mustUpsert(t, g, "v", geo.Point(6.9271, 79.8612))
	if err := g.Remove(ctx, "v"); err != nil {
		t.Fatal(err)
	}
	if err := g.Remove(ctx, "v"); err != nil {
		t.Fatalf("removing absent id: %v", err)
	}

	hits, err := g.QueryRadius(ctx, geo.Point(6.9271, 79.8612), 5000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("removed id still indexed: %+v", hits)
	}
}

func mustUpsert(t *testing.T, g *GridIndex, id string, p orb.Point) {
	t.Helper()
	if err := g.Upsert(context.Background(), id, p); err != nil {
		t.Fatal(err)
	}
}
