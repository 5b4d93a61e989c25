package geo

import (
	"math"
	"testing"
)

func TestHaversineKmReference(t *testing.T) {
	// Colombo to Kandy, a fixed reference distance.
	got := HaversineKm(6.9271, 79.8612, 7.2906, 80.6337)
	if math.Abs(got-95.4) > 0.5 {
		t.Fatalf("HaversineKm = %.3f, want 95.4 ± 0.5", got)
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	if d := HaversineKm(6.9271, 79.8612, 6.9271, 79.8612); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := HaversineKm(6.9271, 79.8612, 7.2906, 80.6337)
	b := HaversineKm(7.2906, 80.6337, 6.9271, 79.8612)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("asymmetric distances: %v vs %v", a, b)
	}
}

func TestPointOrder(t *testing.T) {
	p := Point(6.9271, 79.8612)
	if p.Lat() != 6.9271 || p.Lon() != 79.8612 {
		t.Fatalf("point order wrong: lat=%v lon=%v", p.Lat(), p.Lon())
	}
}

func TestHaversineMMatchesKm(t *testing.T) {
	km := HaversineKm(6.9271, 79.8612, 6.9300, 79.8700)
	m := HaversineM(6.9271, 79.8612, 6.9300, 79.8700)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Fatalf("metres %.6f != km*1000 %.6f", m, km*1000)
	}
}

func TestBoundContains(t *testing.T) {
	b := Bound(6.0, 79.0, 8.0, 81.0)
	if !b.Contains(Point(6.9271, 79.8612)) {
		t.Fatal("point should be inside bound")
	}
	if b.Contains(Point(10.0, 79.8612)) {
		t.Fatal("point should be outside bound")
	}
}
