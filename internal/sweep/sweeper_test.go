package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/engine"
	"fleet-track/tracking/internal/spatial"
	"fleet-track/tracking/internal/store"
)

func seededEngine(t *testing.T, now time.Time) *engine.Engine {
	t.Helper()
	reg := store.NewStaticRegistry(
		store.RegistryVehicle{ID: "OLD", VehicleType: "bus"},
		store.RegistryVehicle{ID: "FRESH", VehicleType: "bus"},
	)
	eng := engine.New(reg, spatial.NewGridIndex(), engine.Options{Now: func() time.Time { return now }})

	ingest := func(id string, ts time.Time) {
		_, err := eng.Ingest(context.Background(), domain.Fix{
			VehicleID: id, Latitude: 6.9, Longitude: 79.8, SpeedKmh: 10, Timestamp: ts,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	ingest("OLD", now.AddDate(0, 0, -40))
	ingest("FRESH", now)
	return eng
}

func TestPurgeOlderThanPassthrough(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	eng := seededEngine(t, now)
	s := New(eng)
	defer s.Stop()

	deleted, err := s.PurgeOlderThan(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := eng.GetCurrent("OLD"); !errors.Is(err, domain.ErrVehicleNotFound) {
		t.Fatalf("OLD survived purge: %v", err)
	}
	if _, err := eng.GetCurrent("FRESH"); err != nil {
		t.Fatalf("FRESH purged: %v", err)
	}
}

func TestPurgeInterrupted(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	eng := seededEngine(t, now)
	s := New(eng)
	defer s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.PurgeOlderThan(ctx, 30); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if eng.RecordCount() != 2 {
		t.Fatalf("records = %d after interrupted purge", eng.RecordCount())
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := New(seededEngine(t, now))
	defer s.Stop()

	if err := s.Start("not a schedule"); err == nil {
		t.Fatal("bad schedule accepted")
	}
	if err := s.Start("@every 1h"); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
}
