package datasheet

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kitchen-inventory/internal/shared"
)

// BatchResult is the outcome for one source of ExtractAll.
type BatchResult struct {
	Source    string
	Datasheet Datasheet
	Meta      shared.AgentMeta
	Err       error
}

// ExtractAll extracts every source with at most limit requests in flight.
// A failing source does not stop the others; results keep the input order.
// The returned error is set only when ctx was cancelled.
func (e *Extractor) ExtractAll(ctx context.Context, sources []string, limit int) ([]BatchResult, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]BatchResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Source: src, Err: err}
				return err
			}
			ds, meta, err := e.Extract(ctx, src)
			results[i] = BatchResult{Source: src, Datasheet: ds, Meta: meta, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
