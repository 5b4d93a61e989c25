package engine

import (
	"context"
	"log"
	"time"

	"github.com/paulmach/orb"

	"fleet-track/tracking/internal/alerts"
	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/geo"
	"fleet-track/tracking/internal/history"
	"fleet-track/tracking/internal/metrics"
	"fleet-track/tracking/internal/spatial"
	"fleet-track/tracking/internal/stats"
	"fleet-track/tracking/internal/store"
)

// Sink receives accepted fixes and triggered alerts for best-effort
// secondary processing (archive, live-state mirror, fan-out). Calls must
// not block.
type Sink interface {
	AcceptFix(af *domain.AcceptedFix)
	AcceptAlert(vehicleID string, a domain.Alert)
}

// MultiSink fans engine output to several sinks.
type MultiSink []Sink

func (m MultiSink) AcceptFix(af *domain.AcceptedFix) {
	for _, s := range m {
		s.AcceptFix(af)
	}
}

func (m MultiSink) AcceptAlert(vehicleID string, a domain.Alert) {
	for _, s := range m {
		s.AcceptAlert(vehicleID, a)
	}
}

type Options struct {
	Thresholds     domain.RuleThresholds
	BatchMaxItems  int
	DefaultRadiusM float64
	MaxRadiusM     float64
	Sink           Sink
	Now            func() time.Time
}

// Engine owns the per-vehicle location records: it ingests fixes,
// maintains history, statistics and alerts, keeps the spatial index in
// step with current positions, and serves the read-side queries.
type Engine struct {
	records  *store.MemoryStore
	registry store.FleetRegistry
	index    spatial.Index
	alerts   *alerts.Engine

	batchMax       int
	defaultRadiusM float64
	maxRadiusM     float64
	sink           Sink
	now            func() time.Time
}

func New(registry store.FleetRegistry, index spatial.Index, opts Options) *Engine {
	if opts.BatchMaxItems <= 0 {
		opts.BatchMaxItems = 100
	}
	if opts.DefaultRadiusM <= 0 {
		opts.DefaultRadiusM = 5000
	}
	if opts.MaxRadiusM <= 0 {
		opts.MaxRadiusM = 50000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Thresholds == (domain.RuleThresholds{}) {
		opts.Thresholds = domain.DefaultRuleThresholds()
	}
	return &Engine{
		records:        store.NewMemoryStore(),
		registry:       registry,
		index:          index,
		alerts:         alerts.New(opts.Thresholds),
		batchMax:       opts.BatchMaxItems,
		defaultRadiusM: opts.DefaultRadiusM,
		maxRadiusM:     opts.MaxRadiusM,
		sink:           opts.Sink,
		now:            opts.Now,
	}
}

// Ingest validates one fix, upserts the vehicle's record, and runs the
// statistics and alert passes. The record write is authoritative; the
// registry mirror, archive and live-state writes are best-effort.
func (e *Engine) Ingest(ctx context.Context, f domain.Fix) (*domain.LocationRecord, error) {
	if err := domain.ValidateFix(&f); err != nil {
		metrics.FixesRejected.Add(1)
		return nil, err
	}

	veh, err := e.registry.Lookup(ctx, f.VehicleID)
	if err != nil {
		metrics.FixesRejected.Add(1)
		return nil, err
	}

	now := e.now()
	if f.Timestamp.IsZero() {
		f.Timestamp = now
	}
	if f.HeadingDeg == 360 {
		f.HeadingDeg = 0
	}

	var (
		snapshot  *domain.LocationRecord
		point     orb.Point
		triggered []domain.Alert
		isMoving  bool
	)

	e.records.Mutate(f.VehicleID, func(rec *domain.LocationRecord, created bool) {
		if created {
			rec.VehicleType = veh.VehicleType
		}

		// The previous current position goes into history only when
		// the coordinates actually changed; a stationary re-report
		// just refreshes the current fix.
		var prevEntry history.Entry
		pushed := false
		if !created {
			prevEntry = entryFromPosition(&rec.Current, &rec.Device)
			if rec.Current.Latitude != f.Latitude || rec.Current.Longitude != f.Longitude {
				rec.History.Push(prevEntry)
				pushed = true
			}
		}

		isMoving = f.SpeedKmh > domain.MovingSpeedKmh
		rec.Current = domain.Position{
			Latitude:    f.Latitude,
			Longitude:   f.Longitude,
			AccuracyM:   f.AccuracyM,
			SpeedKmh:    f.SpeedKmh,
			HeadingDeg:  f.HeadingDeg,
			Altitude:    f.Altitude,
			LastUpdated: f.Timestamp,
			IsMoving:    isMoving,
		}
		rec.SpatialPoint = geo.Point(f.Latitude, f.Longitude)

		if f.DeviceID != "" {
			rec.Device.DeviceID = f.DeviceID
		}
		if f.DeviceType != "" {
			rec.Device.DeviceType = f.DeviceType
		}
		if f.BatteryPct != nil {
			rec.Device.BatteryPct = *f.BatteryPct
		}
		if f.SignalStrength != 0 {
			rec.Device.SignalStrength = f.SignalStrength
		}
		rec.Device.LastSeen = now
		rec.LastHeartbeat = now
		rec.IsOnline = true

		e.recomputeStats(rec, prevEntry, !created && !pushed)
		triggered = e.alerts.Evaluate(rec, now)

		point = rec.SpatialPoint
		snapshot = rec.Snapshot()
	})

	if err := e.index.Upsert(ctx, f.VehicleID, point); err != nil {
		log.Printf("spatial upsert failed for %s: %v", f.VehicleID, err)
	}

	// Denormalized mirror on the fleet registry. Not transactional with
	// the record write; failure is logged and counted, never unwound.
	if err := e.registry.RefreshLastKnown(ctx, f.VehicleID, f.Latitude, f.Longitude, f.Timestamp); err != nil {
		metrics.MirrorWriteFailures.Add(1)
		log.Printf("last-known mirror refresh failed for %s: %v", f.VehicleID, err)
	}

	if e.sink != nil {
		e.sink.AcceptFix(&domain.AcceptedFix{Fix: f, IsMoving: isMoving, ReceivedAt: now})
		for _, a := range triggered {
			e.sink.AcceptAlert(f.VehicleID, a)
		}
	}

	metrics.FixesIngested.Add(1)
	metrics.AlertsTriggered.Add(int64(len(triggered)))
	return snapshot, nil
}

// recomputeStats rebuilds the sliding window from the history tail plus
// the current fix. When the previous current position was not pushed to
// history (coordinates unchanged), it is spliced in so the newest pair
// measures the true zero-distance hold rather than re-measuring the last
// travelled leg.
func (e *Engine) recomputeStats(rec *domain.LocationRecord, prevEntry history.Entry, splicePrev bool) {
	entries := rec.History.Tail(stats.WindowSize - 2)
	if splicePrev {
		entries = append(entries, prevEntry)
	}
	entries = append(entries, entryFromPosition(&rec.Current, &rec.Device))
	if len(entries) < 2 {
		return
	}
	w := stats.Compute(entries, rec.Stats.LastCalculated)
	stats.Apply(&rec.Stats, w, rec.Current.LastUpdated)
}

func entryFromPosition(p *domain.Position, d *domain.DeviceInfo) history.Entry {
	source := d.DeviceID
	if source == "" {
		source = "unknown"
	}
	return history.Entry{
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		SpeedKmh:   p.SpeedKmh,
		HeadingDeg: p.HeadingDeg,
		Altitude:   p.Altitude,
		Timestamp:  p.LastUpdated,
		Source:     source,
		Quality:    domain.HistoryQuality(p.AccuracyM),
	}
}
