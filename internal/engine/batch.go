package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fleet-track/tracking/internal/domain"
)

const batchWorkers = 8

type BatchFailure struct {
	Index  int
	Reason string
}

type BatchResult struct {
	Successes    []*domain.LocationRecord
	Failures     []BatchFailure
	SuccessCount int
	FailureCount int
}

// IngestBatch applies many fixes independently: the whole batch is
// rejected up front when it exceeds the configured maximum, but after
// that one item's failure never blocks or unwinds the others.
func (e *Engine) IngestBatch(ctx context.Context, fixes []domain.Fix) (*BatchResult, error) {
	if len(fixes) > e.batchMax {
		return nil, domain.ErrBatchTooLarge
	}

	type outcome struct {
		rec *domain.LocationRecord
		err error
	}
	outcomes := make([]outcome, len(fixes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)

	for i := range fixes {
		i := i
		g.Go(func() error {
			rec, err := e.Ingest(gctx, fixes[i])
			outcomes[i] = outcome{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	res := &BatchResult{}
	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, BatchFailure{Index: i, Reason: o.err.Error()})
			continue
		}
		res.Successes = append(res.Successes, o.rec)
	}
	res.SuccessCount = len(res.Successes)
	res.FailureCount = len(res.Failures)
	return res, nil
}
