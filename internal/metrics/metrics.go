package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	FixesIngested       atomic.Int64
	FixesRejected       atomic.Int64
	AlertsTriggered     atomic.Int64
	ArchiveWriteSuccess atomic.Int64
	ArchiveWriteFailure atomic.Int64
	MirrorWriteFailures atomic.Int64
	ArchiveChannelDrops atomic.Int64
	MirrorChannelDrops  atomic.Int64
	AlertChannelDrops   atomic.Int64
	NearbyFallbacks     atomic.Int64
	RecordsPurged       atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "tracking_fixes_ingested_total %d\n", FixesIngested.Load())
	fmt.Fprintf(w, "tracking_fixes_rejected_total %d\n", FixesRejected.Load())
	fmt.Fprintf(w, "tracking_alerts_triggered_total %d\n", AlertsTriggered.Load())
	fmt.Fprintf(w, "tracking_archive_write_success_total %d\n", ArchiveWriteSuccess.Load())
	fmt.Fprintf(w, "tracking_archive_write_failures_total %d\n", ArchiveWriteFailure.Load())
	fmt.Fprintf(w, "tracking_mirror_write_failures_total %d\n", MirrorWriteFailures.Load())
	fmt.Fprintf(w, "tracking_archive_channel_drops_total %d\n", ArchiveChannelDrops.Load())
	fmt.Fprintf(w, "tracking_mirror_channel_drops_total %d\n", MirrorChannelDrops.Load())
	fmt.Fprintf(w, "tracking_alert_channel_drops_total %d\n", AlertChannelDrops.Load())
	fmt.Fprintf(w, "tracking_nearby_fallbacks_total %d\n", NearbyFallbacks.Load())
	fmt.Fprintf(w, "tracking_records_purged_total %d\n", RecordsPurged.Load())
}
