package stats

import (
	"math"
	"testing"
	"time"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/geo"
	"fleet-track/tracking/internal/history"
)

var base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func fix(lat, lon, speed float64, offset time.Duration) history.Entry {
	return history.Entry{Latitude: lat, Longitude: lon, SpeedKmh: speed, Timestamp: base.Add(offset)}
}

func TestComputeFewerThanTwoPoints(t *testing.T) {
	if w := Compute(nil, time.Time{}); w != (Window{}) {
		t.Fatalf("empty window = %+v", w)
	}
	one := []history.Entry{fix(6.9, 79.8, 40, 0)}
	if w := Compute(one, time.Time{}); w != (Window{}) {
		t.Fatalf("single-point window = %+v", w)
	}
}

func TestComputeDistanceAndTime(t *testing.T) {
	entries := []history.Entry{
		fix(6.9271, 79.8612, 40, 0),
		fix(6.9300, 79.8700, 50, 30*time.Minute),
		fix(7.2906, 80.6337, 60, 90*time.Minute),
	}
	w := Compute(entries, time.Time{})

	want := geo.HaversineKm(6.9271, 79.8612, 6.9300, 79.8700) +
		geo.HaversineKm(6.9300, 79.8700, 7.2906, 80.6337)
	if math.Abs(w.DistanceKm-want)/want > 0.001 {
		t.Fatalf("DistanceKm = %v, want %v within 0.1%%", w.DistanceKm, want)
	}
	if math.Abs(w.Hours-1.5) > 1e-9 {
		t.Fatalf("Hours = %v, want 1.5", w.Hours)
	}
	if w.MaxSpeedKmh != 60 {
		t.Fatalf("MaxSpeedKmh = %v, want 60", w.MaxSpeedKmh)
	}
	if w.IdleMinutes != 0 {
		t.Fatalf("IdleMinutes = %v, want 0", w.IdleMinutes)
	}
}

func TestComputeIdleMinutes(t *testing.T) {
	entries := []history.Entry{
		fix(6.9271, 79.8612, 0, 0),
		fix(6.9271, 79.8612, 0, 10*time.Minute),
		fix(6.9271, 79.8612, 1.9, 25*time.Minute),
		fix(6.9271, 79.8612, 2.0, 30*time.Minute), // exactly 2 km/h is not idle
	}
	w := Compute(entries, time.Time{})
	if w.IdleMinutes != 25 {
		t.Fatalf("IdleMinutes = %v, want 25", w.IdleMinutes)
	}
}

func TestComputeWatermarkSkipsCountedPairs(t *testing.T) {
	entries := []history.Entry{
		fix(6.9271, 79.8612, 40, 0),
		fix(6.9300, 79.8700, 40, 10*time.Minute),
		fix(6.9350, 79.8800, 40, 20*time.Minute),
	}

	first := Compute(entries, time.Time{})
	second := Compute(entries, base.Add(10*time.Minute))

	wantSecond := geo.HaversineKm(6.9300, 79.8700, 6.9350, 79.8800)
	if math.Abs(second.DistanceKm-wantSecond) > 1e-9 {
		t.Fatalf("post-watermark distance = %v, want %v", second.DistanceKm, wantSecond)
	}
	if second.DistanceKm >= first.DistanceKm {
		t.Fatalf("watermark did not shrink window: %v vs %v", second.DistanceKm, first.DistanceKm)
	}
	// Max speed still scans the whole window.
	if second.MaxSpeedKmh != 40 {
		t.Fatalf("MaxSpeedKmh = %v, want 40", second.MaxSpeedKmh)
	}
}

func TestComputeCapsWindow(t *testing.T) {
	entries := make([]history.Entry, 0, WindowSize+50)
	for i := 0; i < WindowSize+50; i++ {
		entries = append(entries, fix(6.9+float64(i)*0.001, 79.8, 10, time.Duration(i)*time.Minute))
	}
	w := Compute(entries, time.Time{})

	// Only WindowSize-1 pairs contribute.
	if math.Abs(w.Hours-float64(WindowSize-1)/60) > 1e-9 {
		t.Fatalf("Hours = %v, want %v", w.Hours, float64(WindowSize-1)/60)
	}
}

func TestApplyMergesMonotonically(t *testing.T) {
	s := domain.Statistics{TotalDistanceKm: 10, MaxSpeedKmh: 80, IdleMinutes: 5}
	now := base.Add(time.Hour)

	Apply(&s, Window{DistanceKm: 2, Hours: 0.5, MaxSpeedKmh: 60, IdleMinutes: 3}, now)

	if s.TotalDistanceKm != 12 {
		t.Fatalf("TotalDistanceKm = %v, want 12", s.TotalDistanceKm)
	}
	if s.AverageSpeedKmh != 4 {
		t.Fatalf("AverageSpeedKmh = %v, want 4", s.AverageSpeedKmh)
	}
	if s.MaxSpeedKmh != 80 {
		t.Fatalf("MaxSpeedKmh dropped to %v", s.MaxSpeedKmh)
	}
	if s.IdleMinutes != 8 {
		t.Fatalf("IdleMinutes = %v, want 8", s.IdleMinutes)
	}
	if !s.LastCalculated.Equal(now) {
		t.Fatalf("LastCalculated = %v, want %v", s.LastCalculated, now)
	}
}

func TestApplyZeroHoursKeepsAverage(t *testing.T) {
	s := domain.Statistics{AverageSpeedKmh: 33}
	Apply(&s, Window{}, base)
	if s.AverageSpeedKmh != 33 {
		t.Fatalf("zero-time window overwrote average: %v", s.AverageSpeedKmh)
	}
}
