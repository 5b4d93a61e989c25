package sweep

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"fleet-track/tracking/internal/engine"
)

// Sweeper runs the periodic retention pass: prune over-age history
// entries and flip expired heartbeats offline. Whole-record purges only
// happen on explicit administrative request. Each pass checks its
// context between records, so a shutdown mid-sweep never leaves a
// half-processed record.
type Sweeper struct {
	eng  *engine.Engine
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func New(eng *engine.Engine) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		eng:    eng,
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start schedules the periodic sweep, e.g. "@every 1h".
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return fmt.Errorf("bad sweep schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop cancels any in-flight pass and halts the schedule.
func (s *Sweeper) Stop() {
	s.cancel()
	s.cron.Stop()
}

func (s *Sweeper) runOnce() {
	dropped, err := s.eng.PruneHistory(s.ctx)
	if err != nil {
		log.Printf("history prune interrupted: %v", err)
		return
	}
	flipped, err := s.eng.MarkOffline(s.ctx)
	if err != nil {
		log.Printf("offline sweep interrupted: %v", err)
		return
	}
	if dropped > 0 || flipped > 0 {
		log.Printf("sweep: dropped %d history entries, marked %d vehicles offline", dropped, flipped)
	}
}

// PurgeOlderThan is the administrative bulk delete: records whose
// current position is older than daysOld days are removed outright.
func (s *Sweeper) PurgeOlderThan(ctx context.Context, daysOld int) (int, error) {
	deleted, err := s.eng.PurgeOlderThan(ctx, daysOld)
	if err != nil {
		return deleted, fmt.Errorf("purge interrupted after %d records: %w", deleted, err)
	}
	return deleted, nil
}
