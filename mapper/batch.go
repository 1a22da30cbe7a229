package mapper

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rowmapper/options"
)

// RowError reports the row a batch failed at.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one row of a batch.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

type span struct {
	lo, hi int
}

// partitions splits n items into at most workers contiguous spans of near equal size.
func partitions(n, workers int) []span {
	if n == 0 {
		return nil
	}

	workers = min(max(workers, 1), n)
	size, extra := n/workers, n%workers

	spans := make([]span, 0, workers)
	for lo := 0; lo < n; {
		hi := lo + size
		if len(spans) < extra {
			hi++
		}

		spans = append(spans, span{lo: lo, hi: hi})
		lo = hi
	}

	return spans
}

// run applies fn to every item, one goroutine per partition, and stores each result at
// the index of its item. With stopOnError a partition stops at its first failure; the
// items after it are left unprocessed, which cannot hide an earlier failure since
// partitions are contiguous.
func run[In, Out any](ctx context.Context, workers int, in []In, stopOnError bool, fn func(In) (Out, error)) ([]Result[Out], error) {
	results := make([]Result[Out], len(in))

	g, ctx := errgroup.WithContext(ctx)

	for _, s := range partitions(len(in), workers) {
		g.Go(func() error {
			for i := s.lo; i < s.hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				v, err := fn(in[i])
				results[i] = Result[Out]{Index: i, Value: v, Err: err}

				if err != nil && stopOnError {
					return nil
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (e *engine) skipFailed() bool {
	return e.flags.Has(options.FlagSkipFailedRows)
}

// collect returns the values in order. The first failure is returned as a *RowError,
// or logged and dropped when failed rows are skipped.
func collect[T any](e *engine, results []Result[T]) ([]T, error) {
	out := make([]T, 0, len(results))

	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
			continue
		}

		if !e.skipFailed() {
			return nil, &RowError{Index: r.Index, Err: r.Err}
		}

		e.logger.Warn("row skipped", zap.Stringer("type", e.set.Type), zap.Int("row", r.Index), zap.Error(r.Err))
	}

	return out, nil
}
