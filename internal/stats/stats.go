package stats

import (
	"time"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/geo"
	"fleet-track/tracking/internal/history"
)

// WindowSize caps how many of the newest history entries feed one
// recomputation pass.
const WindowSize = 100

// Window holds the deltas derived from one pass over a history window.
type Window struct {
	DistanceKm  float64
	Hours       float64
	MaxSpeedKmh float64
	IdleMinutes float64
}

// Compute walks consecutive pairs of the newest WindowSize entries,
// summing Haversine distances and elapsed time, tracking the max speed,
// and counting minutes spent below the idle speed bound.
//
// Windows from successive ingestions overlap, so a pair only counts
// toward the accumulating sums when its newer point is after the `since`
// watermark (the previous LastCalculated). Max speed is scanned over the
// whole window; merging it is idempotent. Fewer than two entries yields
// a zero window.
func Compute(entries []history.Entry, since time.Time) Window {
	var w Window
	if len(entries) < 2 {
		return w
	}
	if len(entries) > WindowSize {
		entries = entries[len(entries)-WindowSize:]
	}

	w.MaxSpeedKmh = entries[0].SpeedKmh
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]

		if cur.SpeedKmh > w.MaxSpeedKmh {
			w.MaxSpeedKmh = cur.SpeedKmh
		}
		if !cur.Timestamp.After(since) {
			continue
		}

		w.DistanceKm += geo.HaversineKm(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)

		elapsed := cur.Timestamp.Sub(prev.Timestamp)
		if elapsed > 0 {
			w.Hours += elapsed.Hours()
			if cur.SpeedKmh < domain.IdleSpeedKmh {
				w.IdleMinutes += elapsed.Minutes()
			}
		}
	}
	return w
}

// Apply merges a window into the persisted statistics. Totals only grow;
// average speed is the window's own distance over time.
func Apply(s *domain.Statistics, w Window, now time.Time) {
	s.TotalDistanceKm += w.DistanceKm
	if w.Hours > 0 {
		s.AverageSpeedKmh = w.DistanceKm / w.Hours
	}
	if w.MaxSpeedKmh > s.MaxSpeedKmh {
		s.MaxSpeedKmh = w.MaxSpeedKmh
	}
	s.IdleMinutes += w.IdleMinutes
	s.LastCalculated = now
}
