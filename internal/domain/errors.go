package domain

import (
	"errors"
	"fmt"
)

// ErrVehicleNotFound means the vehicle id is unknown to the fleet
// registry (or, for direct lookups, has no location record).
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrBatchTooLarge rejects a batch ingestion before any item is applied.
var ErrBatchTooLarge = errors.New("batch exceeds maximum item count")

// ValidationError names the field of an incoming fix that failed its
// range check. Validation failures never leave a partial write behind.
type ValidationError struct {
	Field      string
	Value      float64
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: must be %s", e.Field, e.Value, e.Constraint)
}

// ValidateFix checks the coordinate and sensor ranges of an incoming fix.
func ValidateFix(f *Fix) error {
	if f.VehicleID == "" {
		return &ValidationError{Field: "vehicleId", Constraint: "non-empty"}
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return &ValidationError{Field: "latitude", Value: f.Latitude, Constraint: "in [-90, 90]"}
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return &ValidationError{Field: "longitude", Value: f.Longitude, Constraint: "in [-180, 180]"}
	}
	if f.SpeedKmh < 0 || f.SpeedKmh > MaxSpeedKmh {
		return &ValidationError{Field: "speed", Value: f.SpeedKmh, Constraint: "in [0, 120]"}
	}
	if f.HeadingDeg < 0 || f.HeadingDeg > 360 {
		return &ValidationError{Field: "heading", Value: f.HeadingDeg, Constraint: "in [0, 360]"}
	}
	if f.AccuracyM < 0 {
		return &ValidationError{Field: "accuracy", Value: f.AccuracyM, Constraint: ">= 0"}
	}
	if f.BatteryPct != nil && (*f.BatteryPct < 0 || *f.BatteryPct > 100) {
		return &ValidationError{Field: "batteryLevel", Value: *f.BatteryPct, Constraint: "in [0, 100]"}
	}
	return nil
}
