// Package batch applies per-item operations in fixed-size concurrent chunks,
// recording each item's outcome independently.
package batch

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the chunk size used when Options.Limit is not positive.
const DefaultLimit = 5

type Item[T any] struct {
	ID    string
	Value T
}

// Op performs one item's write. A returned error fails that item only.
type Op[T any] func(ctx context.Context, item Item[T]) error

// ChunkReport describes a chunk once every item in it has settled.
type ChunkReport struct {
	Index     int
	Size      int
	Succeeded int
	Failed    int
}

type Options struct {
	Limit   int
	OnChunk func(ChunkReport)
}

type Failure struct {
	ID  string
	Err error
}

type Result struct {
	SucceededIDs []string
	Failures     []Failure
	FailedCount  int
	Chunks       int
}

// Err returns a *apperr.PartialBatchError when any item failed, nil otherwise.
func (r Result) Err() error {
	if r.FailedCount == 0 {
		return nil
	}
	failed := make(map[string]error, len(r.Failures))
	for _, f := range r.Failures {
		failed[f.ID] = f.Err
	}
	return &apperr.PartialBatchError{
		Succeeded: append([]string(nil), r.SucceededIDs...),
		Failed:    failed,
	}
}

// FailedIDs lists failed item ids in input order.
func (r Result) FailedIDs() []string {
	ids := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.ID
	}
	return ids
}

// Run processes items in chunks of opts.Limit. Items within a chunk run
// concurrently; the next chunk starts only after the whole chunk settles. A
// cancelled ctx fails the items of every chunk not yet started.
func Run[T any](ctx context.Context, items []Item[T], opts Options, op Op[T]) Result {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var res Result
	for start := 0; start < len(items); start += limit {
		end := min(start+limit, len(items))
		chunk := items[start:end]
		errs := make([]error, len(chunk))

		if err := ctx.Err(); err != nil {
			for i := range errs {
				errs[i] = err
			}
		} else {
			var g errgroup.Group
			for i, it := range chunk {
				g.Go(func() error {
					errs[i] = op(ctx, it)
					return nil
				})
			}
			_ = g.Wait()
		}

		report := ChunkReport{Index: res.Chunks, Size: len(chunk)}
		for i, it := range chunk {
			if errs[i] == nil {
				res.SucceededIDs = append(res.SucceededIDs, it.ID)
				report.Succeeded++
				continue
			}
			err := errs[i]
			var me *apperr.MutationError
			if !errors.As(err, &me) {
				err = &apperr.MutationError{ItemID: it.ID, Err: err}
			}
			res.Failures = append(res.Failures, Failure{ID: it.ID, Err: err})
			report.Failed++
		}
		res.FailedCount += report.Failed
		res.Chunks++
		if opts.OnChunk != nil {
			opts.OnChunk(report)
		}
	}
	return res
}
