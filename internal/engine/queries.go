package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/history"
	"fleet-track/tracking/internal/metrics"
)

// fallbackLimit bounds the degraded nearby result when no explicit
// limit was given.
const fallbackLimit = 50

// GetCurrent returns a snapshot of the vehicle's record.
func (e *Engine) GetCurrent(vehicleID string) (*domain.LocationRecord, error) {
	var snap *domain.LocationRecord
	err := e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		snap = rec.Snapshot()
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetHistory returns the vehicle's past fixes, oldest first, optionally
// bounded by [start, end] and capped to the newest `limit` entries.
func (e *Engine) GetHistory(vehicleID string, start, end time.Time, limit int) ([]history.Entry, error) {
	var entries []history.Entry
	err := e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		entries = rec.History.Range(start, end)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

type NearbyVehicle struct {
	Record    *domain.LocationRecord
	DistanceM float64
}

// NearbyResult flags degraded answers: with Fallback set, Vehicles is an
// unordered bounded set of online vehicles, not a distance-sorted hit
// list.
type NearbyResult struct {
	Vehicles []NearbyVehicle
	Fallback bool
}

// FindNearby returns online vehicles within radiusM of the point, sorted
// by ascending distance. A zero or negative radius takes the default;
// oversized radii are clamped. If the spatial index fails the query
// degrades to the fallback set instead of hard-failing.
func (e *Engine) FindNearby(ctx context.Context, lat, lon, radiusM float64, limit int) (*NearbyResult, error) {
	if lat < -90 || lat > 90 {
		return nil, &domain.ValidationError{Field: "latitude", Value: lat, Constraint: "in [-90, 90]"}
	}
	if lon < -180 || lon > 180 {
		return nil, &domain.ValidationError{Field: "longitude", Value: lon, Constraint: "in [-180, 180]"}
	}
	if radiusM <= 0 {
		radiusM = e.defaultRadiusM
	}
	if radiusM > e.maxRadiusM {
		radiusM = e.maxRadiusM
	}

	center := orb.Point{lon, lat}
	hits, err := e.index.QueryRadius(ctx, center, radiusM, 0)
	if err != nil {
		log.Printf("spatial query failed, serving fallback: %v", err)
		metrics.NearbyFallbacks.Add(1)
		return e.nearbyFallback(limit), nil
	}

	res := &NearbyResult{}
	for _, h := range hits {
		var snap *domain.LocationRecord
		if viewErr := e.records.View(h.ID, func(rec *domain.LocationRecord) {
			if rec.IsOnline {
				snap = rec.Snapshot()
			}
		}); viewErr != nil {
			continue // index entry outlived its record
		}
		if snap == nil {
			continue
		}
		res.Vehicles = append(res.Vehicles, NearbyVehicle{Record: snap, DistanceM: h.DistanceM})
		if limit > 0 && len(res.Vehicles) == limit {
			break
		}
	}
	return res, nil
}

func (e *Engine) nearbyFallback(limit int) *NearbyResult {
	if limit <= 0 {
		limit = fallbackLimit
	}
	res := &NearbyResult{Fallback: true}
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if !rec.IsOnline {
			return true
		}
		res.Vehicles = append(res.Vehicles, NearbyVehicle{Record: rec.Snapshot()})
		return len(res.Vehicles) < limit
	})
	return res
}

// RealtimeFeed returns the latest record per vehicle, most recently
// updated first.
func (e *Engine) RealtimeFeed(limit int, onlineOnly bool) []*domain.LocationRecord {
	var out []*domain.LocationRecord
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if onlineOnly && !rec.IsOnline {
			return true
		}
		out = append(out, rec.Snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Current.LastUpdated.After(out[j].Current.LastUpdated)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// HeatPoint is one reduced sample for map rendering.
type HeatPoint struct {
	Latitude    float64
	Longitude   float64
	SpeedKmh    float64
	VehicleType string
	Timestamp   time.Time
}

// Heatmap reduces current positions and history to a bounded point list,
// optionally filtered by bounding box, time range and vehicle type.
func (e *Engine) Heatmap(bound *orb.Bound, start, end time.Time, vehicleType string, limit int) []HeatPoint {
	if limit <= 0 {
		limit = 1000
	}
	var out []HeatPoint

	keep := func(p orb.Point, ts time.Time) bool {
		if bound != nil && !bound.Contains(p) {
			return false
		}
		if !start.IsZero() && ts.Before(start) {
			return false
		}
		if !end.IsZero() && ts.After(end) {
			return false
		}
		return true
	}

	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if vehicleType != "" && rec.VehicleType != vehicleType {
			return true
		}
		for _, h := range rec.History.Entries() {
			if !keep(orb.Point{h.Longitude, h.Latitude}, h.Timestamp) {
				continue
			}
			out = append(out, HeatPoint{
				Latitude:    h.Latitude,
				Longitude:   h.Longitude,
				SpeedKmh:    h.SpeedKmh,
				VehicleType: rec.VehicleType,
				Timestamp:   h.Timestamp,
			})
			if len(out) == limit {
				return false
			}
		}
		if keep(rec.SpatialPoint, rec.Current.LastUpdated) {
			out = append(out, HeatPoint{
				Latitude:    rec.Current.Latitude,
				Longitude:   rec.Current.Longitude,
				SpeedKmh:    rec.Current.SpeedKmh,
				VehicleType: rec.VehicleType,
				Timestamp:   rec.Current.LastUpdated,
			})
		}
		return len(out) < limit
	})
	return out
}

// StaleRecords lists vehicles whose current position is older than the
// given age.
func (e *Engine) StaleRecords(olderThan time.Duration) []string {
	cutoff := e.now().Add(-olderThan)
	var ids []string
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if rec.Current.LastUpdated.Before(cutoff) {
			ids = append(ids, rec.VehicleID)
		}
		return true
	})
	sort.Strings(ids)
	return ids
}

// OfflineRecords lists vehicles whose heartbeat has expired.
func (e *Engine) OfflineRecords() []string {
	now := e.now()
	var ids []string
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if !domain.OnlineAt(rec, now) {
			ids = append(ids, rec.VehicleID)
		}
		return true
	})
	sort.Strings(ids)
	return ids
}
