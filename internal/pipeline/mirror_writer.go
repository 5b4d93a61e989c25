package pipeline

import (
	"context"
	"log"
	"time"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/metrics"
	"fleet-track/tracking/internal/store"
)

// MirrorWriter keeps the Redis live-state hashes and the positions
// pub/sub channel current.
type MirrorWriter struct {
	ch    <-chan *domain.AcceptedFix
	redis *store.RedisStore
}

func NewMirrorWriter(ch <-chan *domain.AcceptedFix, redis *store.RedisStore) *MirrorWriter {
	return &MirrorWriter{ch: ch, redis: redis}
}

func (w *MirrorWriter) Run(ctx context.Context) {
	batch := make([]*domain.AcceptedFix, 0, 100) // Redis is fast, fixed batch fine
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case af, ok := <-w.ch:
			if !ok {
				w.flushBatch(ctx, batch)
				return
			}
			batch = append(batch, af)
			if len(batch) >= 100 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			w.flushBatch(ctx, batch)
			return
		}
	}
}

func (w *MirrorWriter) flushBatch(ctx context.Context, batch []*domain.AcceptedFix) {
	for _, af := range batch {
		if err := w.redis.PipelineStateUpdate(ctx, af); err != nil {
			metrics.MirrorWriteFailures.Add(1)
			log.Printf("redis state update failed for %s: %v", af.Fix.VehicleID, err)
		}
	}
}
