package engine

import (
	"context"
	"log"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/metrics"
)

// PruneHistory drops history entries older than the retention horizon
// from every record and reports how many were removed. Safe to rerun;
// the ctx check between records makes a sweep interruptible without
// leaving any record half-pruned.
func (e *Engine) PruneHistory(ctx context.Context) (int, error) {
	cutoff := e.now().Add(-domain.HistoryMaxAge)
	dropped := 0
	var stop error
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if err := ctx.Err(); err != nil {
			stop = err
			return false
		}
		dropped += rec.History.DropOlderThan(cutoff)
		return true
	})
	return dropped, stop
}

// PurgeOlderThan deletes whole records whose current position is older
// than now minus daysOld days. A record at exactly the cutoff survives.
func (e *Engine) PurgeOlderThan(ctx context.Context, daysOld int) (int, error) {
	cutoff := e.now().AddDate(0, 0, -daysOld)

	var victims []string
	var stop error
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if err := ctx.Err(); err != nil {
			stop = err
			return false
		}
		if rec.Current.LastUpdated.Before(cutoff) {
			victims = append(victims, rec.VehicleID)
		}
		return true
	})
	if stop != nil {
		return 0, stop
	}

	deleted := 0
	for _, id := range victims {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		e.records.Delete(id)
		if err := e.index.Remove(ctx, id); err != nil {
			log.Printf("spatial remove failed for %s: %v", id, err)
		}
		deleted++
	}
	metrics.RecordsPurged.Add(int64(deleted))
	return deleted, nil
}

// MarkOffline flips IsOnline off on every record whose heartbeat has
// expired, independent of ingestion, and reports how many flipped.
func (e *Engine) MarkOffline(ctx context.Context) (int, error) {
	now := e.now()
	flipped := 0
	var stop error
	e.records.ForEach(func(rec *domain.LocationRecord) bool {
		if err := ctx.Err(); err != nil {
			stop = err
			return false
		}
		if rec.IsOnline && !domain.OnlineAt(rec, now) {
			rec.IsOnline = false
			flipped++
		}
		return true
	})
	return flipped, stop
}

// RecordCount reports how many vehicles currently have records.
func (e *Engine) RecordCount() int { return e.records.Len() }

// Freshness classifies the age of a vehicle's current position.
func (e *Engine) Freshness(vehicleID string) (domain.Freshness, error) {
	var f domain.Freshness
	err := e.records.View(vehicleID, func(rec *domain.LocationRecord) {
		f = domain.LocationFreshness(rec, e.now())
	})
	if err != nil {
		return "", err
	}
	return f, nil
}
