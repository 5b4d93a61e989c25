package domain

import "time"

// Freshness classifies how old a record's current position is.
type Freshness string

const (
	FreshnessFresh    Freshness = "fresh"    // < 30s
	FreshnessRecent   Freshness = "recent"   // < 5m
	FreshnessStale    Freshness = "stale"    // < 30m
	FreshnessOutdated Freshness = "outdated"
)

// LocationFreshness returns the freshness tier of the current position
// at time now.
func LocationFreshness(rec *LocationRecord, now time.Time) Freshness {
	age := now.Sub(rec.Current.LastUpdated)
	switch {
	case age < 30*time.Second:
		return FreshnessFresh
	case age < 5*time.Minute:
		return FreshnessRecent
	case age < 30*time.Minute:
		return FreshnessStale
	default:
		return FreshnessOutdated
	}
}

// OnlineAt reports whether the record's heartbeat is within OnlineWindow
// of now. The stored IsOnline flag is a cached copy of this, refreshed on
// ingestion and flipped off by the monitoring sweep.
func OnlineAt(rec *LocationRecord, now time.Time) bool {
	return now.Sub(rec.LastHeartbeat) < OnlineWindow
}
