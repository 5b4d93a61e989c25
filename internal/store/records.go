package store

import (
	"sync"

	"fleet-track/tracking/internal/domain"
)

// MemoryStore holds one LocationRecord per vehicle. Each record lives in
// its own lockable slot, so concurrent ingestion for different vehicles
// never contends; same-vehicle writers serialize on the slot and the
// last one wins.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

type slot struct {
	mu  sync.Mutex
	rec *domain.LocationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]*slot)}
}

// Mutate runs fn on the vehicle's record under its slot lock, creating
// the record first if absent. fn receives created=true on first use.
func (s *MemoryStore) Mutate(vehicleID string, fn func(rec *domain.LocationRecord, created bool)) {
	s.mu.Lock()
	sl, ok := s.slots[vehicleID]
	if !ok {
		sl = &slot{rec: domain.NewLocationRecord(vehicleID)}
		s.slots[vehicleID] = sl
	}
	s.mu.Unlock()

	sl.mu.Lock()
	fn(sl.rec, !ok)
	sl.mu.Unlock()
}

// View runs fn on the record under its slot lock, or returns
// ErrVehicleNotFound if no record exists.
func (s *MemoryStore) View(vehicleID string, fn func(rec *domain.LocationRecord)) error {
	s.mu.RLock()
	sl, ok := s.slots[vehicleID]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrVehicleNotFound
	}
	sl.mu.Lock()
	fn(sl.rec)
	sl.mu.Unlock()
	return nil
}

// ForEach visits every record, each under its own lock. Returning false
// from fn stops the walk.
func (s *MemoryStore) ForEach(fn func(rec *domain.LocationRecord) bool) {
	s.mu.RLock()
	all := make([]*slot, 0, len(s.slots))
	for _, sl := range s.slots {
		all = append(all, sl)
	}
	s.mu.RUnlock()

	for _, sl := range all {
		sl.mu.Lock()
		keep := fn(sl.rec)
		sl.mu.Unlock()
		if !keep {
			return
		}
	}
}

func (s *MemoryStore) Delete(vehicleID string) {
	s.mu.Lock()
	delete(s.slots, vehicleID)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}
