package mapper

import (
	"context"
	"reflect"

	"rowmapper/binding"
	"rowmapper/creator"
)

// Reader turns rows into records of type T.
type Reader[T any] struct {
	e *engine
}

// NewReader resolves the metadata of T. Every structural problem of T, its bindings and
// its creators is reported here.
func NewReader[T any](opts ...Option) (*Reader[T], error) {
	e, err := newEngine(reflect.TypeFor[T](), newSettings(opts))
	if err != nil {
		return nil, err
	}

	return &Reader[T]{e: e}, nil
}

// Bindings returns the resolved field bindings in declaration order.
func (r *Reader[T]) Bindings() *binding.Set {
	return r.e.set
}

// Creator returns the resolved creator.
func (r *Reader[T]) Creator() *creator.Choice {
	return r.e.choice
}

// Read converts one row. An empty cell takes the call-site default, then the field
// default, then the type default, and finally the zero value.
func (r *Reader[T]) Read(row Row, opts ...CallOption) (T, error) {
	v, err := r.e.read(row, newCall(opts))
	if err != nil {
		var zero T
		return zero, err
	}

	return v.Interface().(T), nil
}

// ReadAll converts rows in parallel and returns the records in row order. The first
// failing row, by position, aborts the batch with a *RowError unless failed rows are
// skipped.
func (r *Reader[T]) ReadAll(ctx context.Context, rows []Row, opts ...CallOption) ([]T, error) {
	results, err := r.each(ctx, rows, !r.e.skipFailed(), opts)
	if err != nil {
		return nil, err
	}

	return collect(r.e, results)
}

// ReadEach converts every row in parallel and reports one Result per row, leaving the
// failure policy to the caller.
func (r *Reader[T]) ReadEach(ctx context.Context, rows []Row, opts ...CallOption) ([]Result[T], error) {
	return r.each(ctx, rows, false, opts)
}

func (r *Reader[T]) each(ctx context.Context, rows []Row, stopOnError bool, opts []CallOption) ([]Result[T], error) {
	return run(ctx, r.e.workers, rows, stopOnError, func(row Row) (T, error) {
		return r.Read(row, opts...)
	})
}
