package domain

import (
	"time"

	"github.com/paulmach/orb"

	"fleet-track/tracking/internal/history"
)

// Thresholds shared across the engine. Speeds are km/h.
const (
	// MovingSpeedKmh is the strict lower bound for IsMoving.
	MovingSpeedKmh = 5.0
	// IdleSpeedKmh is the bound below which a fix counts as idle time.
	IdleSpeedKmh = 2.0
	// MaxSpeedKmh is the highest speed accepted from a device.
	MaxSpeedKmh = 120.0

	// HistoryMaxAge is the retention horizon for history entries.
	HistoryMaxAge = 30 * 24 * time.Hour
	// OnlineWindow is how long after the last heartbeat a vehicle
	// still counts as online.
	OnlineWindow = 5 * time.Minute
)

// Fix is one incoming position sample from a device.
type Fix struct {
	VehicleID string
	Timestamp time.Time

	Latitude  float64
	Longitude float64

	SpeedKmh   float64
	HeadingDeg float64
	AccuracyM  float64
	Altitude   *float64

	DeviceID       string
	DeviceType     string
	BatteryPct     *float64
	SignalStrength int
}

// Position is the current fix held on a LocationRecord.
type Position struct {
	Latitude    float64
	Longitude   float64
	AccuracyM   float64
	SpeedKmh    float64
	HeadingDeg  float64
	Altitude    *float64
	LastUpdated time.Time
	IsMoving    bool
}

type DeviceInfo struct {
	DeviceID       string
	DeviceType     string
	BatteryPct     float64
	SignalStrength int
	LastSeen       time.Time
}

// Statistics are running totals over the vehicle's recent history.
// TotalDistanceKm, MaxSpeedKmh and IdleMinutes never decrease.
type Statistics struct {
	TotalDistanceKm float64
	AverageSpeedKmh float64
	MaxSpeedKmh     float64
	IdleMinutes     float64
	LastCalculated  time.Time
}

// RouteProgress is written by the trip collaborator and only stored here.
type RouteProgress struct {
	NextStop         string
	DistanceToNextKm float64
	PercentComplete  float64
	UpdatedAt        time.Time
}

// LocationRecord is the per-vehicle tracking state, keyed by vehicle id.
// SpatialPoint always mirrors (Longitude, Latitude) of Current; the two
// are updated together under the record's lock.
type LocationRecord struct {
	VehicleID   string
	VehicleType string

	Current      Position
	SpatialPoint orb.Point

	History *history.Ring

	RouteProgress *RouteProgress
	Device        DeviceInfo
	Alerts        []Alert
	Stats         Statistics

	IsOnline      bool
	LastHeartbeat time.Time
}

func NewLocationRecord(vehicleID string) *LocationRecord {
	return &LocationRecord{
		VehicleID: vehicleID,
		History:   history.NewRing(history.DefaultCapacity),
	}
}

// Snapshot returns a copy safe to hand to readers after the record's
// lock is released.
func (r *LocationRecord) Snapshot() *LocationRecord {
	cp := *r
	if r.History != nil {
		cp.History = r.History.Clone()
	}
	cp.Alerts = append([]Alert(nil), r.Alerts...)
	if r.RouteProgress != nil {
		rp := *r.RouteProgress
		cp.RouteProgress = &rp
	}
	return &cp
}

// AcceptedFix is what the ingestion pipeline hands to the background
// writers once a fix has passed validation and the record is updated.
type AcceptedFix struct {
	Fix        Fix
	IsMoving   bool
	ReceivedAt time.Time
}

// HistoryQuality buckets a reported GPS accuracy for the history ledger.
func HistoryQuality(accuracyM float64) string {
	switch {
	case accuracyM <= 0:
		return "unknown"
	case accuracyM < 10:
		return "good"
	case accuracyM < 50:
		return "fair"
	default:
		return "poor"
	}
}
