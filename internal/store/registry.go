package store

import (
	"context"
	"sync"
	"time"

	"fleet-track/tracking/internal/domain"
)

// RegistryVehicle is the slice of the fleet registry the engine needs.
type RegistryVehicle struct {
	ID          string
	VehicleType string
}

// FleetRegistry is the external vehicle registry collaborator. Lookup
// rejects unknown vehicle ids before a record is created; RefreshLastKnown
// is the non-transactional mirror write performed after each ingestion.
type FleetRegistry interface {
	Lookup(ctx context.Context, vehicleID string) (RegistryVehicle, error)
	RefreshLastKnown(ctx context.Context, vehicleID string, lat, lon float64, ts time.Time) error
}

// StaticRegistry is an in-memory FleetRegistry used by tests and the
// simulator. With AllowUnknown set it accepts any vehicle id.
type StaticRegistry struct {
	mu           sync.RWMutex
	vehicles     map[string]RegistryVehicle
	mirror       map[string][3]float64 // lat, lon, unix seconds
	AllowUnknown bool
}

func NewStaticRegistry(vehicles ...RegistryVehicle) *StaticRegistry {
	r := &StaticRegistry{
		vehicles: make(map[string]RegistryVehicle, len(vehicles)),
		mirror:   make(map[string][3]float64),
	}
	for _, v := range vehicles {
		r.vehicles[v.ID] = v
	}
	return r
}

func (r *StaticRegistry) Add(v RegistryVehicle) {
	r.mu.Lock()
	r.vehicles[v.ID] = v
	r.mu.Unlock()
}

func (r *StaticRegistry) Lookup(_ context.Context, vehicleID string) (RegistryVehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.vehicles[vehicleID]; ok {
		return v, nil
	}
	if r.AllowUnknown {
		return RegistryVehicle{ID: vehicleID}, nil
	}
	return RegistryVehicle{}, domain.ErrVehicleNotFound
}

func (r *StaticRegistry) RefreshLastKnown(_ context.Context, vehicleID string, lat, lon float64, ts time.Time) error {
	r.mu.Lock()
	r.mirror[vehicleID] = [3]float64{lat, lon, float64(ts.Unix())}
	r.mu.Unlock()
	return nil
}

// LastKnown exposes the mirror for tests.
func (r *StaticRegistry) LastKnown(vehicleID string) ([3]float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.mirror[vehicleID]
	return v, ok
}
