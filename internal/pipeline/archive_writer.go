package pipeline

import (
	"context"
	"log"
	"time"

	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/metrics"
	"fleet-track/tracking/internal/store"
)

// ArchiveWriter batches accepted fixes into the Timescale archive.
type ArchiveWriter struct {
	ch        <-chan *domain.AcceptedFix
	db        *store.TimescaleStore
	batchSize int
	flushMS   int
}

func NewArchiveWriter(
	ch <-chan *domain.AcceptedFix,
	db *store.TimescaleStore,
	batchSize int,
	flushMS int,
) *ArchiveWriter {
	return &ArchiveWriter{
		ch:        ch,
		db:        db,
		batchSize: batchSize,
		flushMS:   flushMS,
	}
}

func (w *ArchiveWriter) Run(ctx context.Context) {
	batch := make([]*domain.AcceptedFix, 0, w.batchSize)
	ticker := time.NewTicker(time.Duration(w.flushMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case af, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(ctx, batch)
				}
				return
			}
			batch = append(batch, af)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(ctx, batch)
			}
			return
		}
	}
}

func (w *ArchiveWriter) flush(ctx context.Context, batch []*domain.AcceptedFix) {
	err := w.db.BatchInsert(ctx, batch)
	if err != nil {
		log.Printf("archive write failed (batch=%d), retrying: %v", len(batch), err)
		time.Sleep(500 * time.Millisecond)
		err = w.db.BatchInsert(ctx, batch)
		if err != nil {
			log.Printf("archive write permanently failed (batch=%d): %v", len(batch), err)
			metrics.ArchiveWriteFailure.Add(int64(len(batch)))
			return
		}
	}
	metrics.ArchiveWriteSuccess.Add(int64(len(batch)))
}
