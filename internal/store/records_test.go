package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleet-track/tracking/internal/domain"
)

func TestMutateCreatesOnFirstUse(t *testing.T) {
	s := NewMemoryStore()

	var sawCreated bool
	s.Mutate("V1", func(rec *domain.LocationRecord, created bool) {
		sawCreated = created
		rec.Current.Latitude = 6.9
	})
	if !sawCreated {
		t.Fatal("first Mutate did not report created")
	}

	s.Mutate("V1", func(rec *domain.LocationRecord, created bool) {
		if created {
			t.Fatal("second Mutate reported created")
		}
		if rec.Current.Latitude != 6.9 {
			t.Fatalf("state lost: %+v", rec.Current)
		}
		if rec.History == nil {
			t.Fatal("new record has nil history ring")
		}
	})

	if s.Len() != 1 {
		t.Fatalf("Len = %d", s.Len())
	}
}

func TestViewUnknownVehicle(t *testing.T) {
	s := NewMemoryStore()
	err := s.View("V1", func(*domain.LocationRecord) {
		t.Fatal("fn called for missing record")
	})
	if !errors.Is(err, domain.ErrVehicleNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteThenView(t *testing.T) {
	s := NewMemoryStore()
	s.Mutate("V1", func(*domain.LocationRecord, bool) {})
	s.Delete("V1")

	if err := s.View("V1", func(*domain.LocationRecord) {}); !errors.Is(err, domain.ErrVehicleNotFound) {
		t.Fatalf("deleted record still viewable: %v", err)
	}
	s.Delete("V1") // deleting twice is fine
}

func TestForEachStopsEarly(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"A", "B", "C"} {
		s.Mutate(id, func(*domain.LocationRecord, bool) {})
	}

	visited := 0
	s.ForEach(func(*domain.LocationRecord) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Fatalf("visited = %d, want 2", visited)
	}
}

func TestConcurrentMutateSameVehicle(t *testing.T) {
	s := NewMemoryStore()
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mutate("V1", func(rec *domain.LocationRecord, _ bool) {
				rec.Stats.IdleMinutes++ // any counter, just needs the slot lock
			})
		}()
	}
	wg.Wait()

	err := s.View("V1", func(rec *domain.LocationRecord) {
		if rec.Stats.IdleMinutes != n {
			t.Fatalf("lost updates: %v of %d", rec.Stats.IdleMinutes, n)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStaticRegistry(t *testing.T) {
	reg := NewStaticRegistry(RegistryVehicle{ID: "BUS-001", VehicleType: "bus"})
	ctx := context.Background()

	v, err := reg.Lookup(ctx, "BUS-001")
	if err != nil || v.VehicleType != "bus" {
		t.Fatalf("lookup = %+v, %v", v, err)
	}
	if _, err := reg.Lookup(ctx, "GHOST-9"); !errors.Is(err, domain.ErrVehicleNotFound) {
		t.Fatalf("unknown id: %v", err)
	}

	reg.AllowUnknown = true
	if _, err := reg.Lookup(ctx, "GHOST-9"); err != nil {
		t.Fatalf("AllowUnknown lookup: %v", err)
	}

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := reg.RefreshLastKnown(ctx, "BUS-001", 6.9, 79.8, ts); err != nil {
		t.Fatal(err)
	}
	mirror, ok := reg.LastKnown("BUS-001")
	if !ok || mirror[0] != 6.9 || mirror[1] != 79.8 || mirror[2] != float64(ts.Unix()) {
		t.Fatalf("mirror = %v ok=%v", mirror, ok)
	}
}
