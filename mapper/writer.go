package mapper

import (
	"context"
	"reflect"
)

// Writer turns records of type T into rows.
type Writer[T any] struct {
	e *engine
}

// NewWriter resolves the metadata of T. Besides the checks of NewReader it requires
// every mapped field to be readable.
func NewWriter[T any](opts ...Option) (*Writer[T], error) {
	e, err := newEngine(reflect.TypeFor[T](), newSettings(opts))
	if err != nil {
		return nil, err
	}

	if err := e.checkWritable(); err != nil {
		return nil, err
	}

	return &Writer[T]{e: e}, nil
}

// Columns returns the columns written, in declaration order.
func (w *Writer[T]) Columns() []string {
	return w.e.set.Columns()
}

// Write converts one record. A cell that renders empty receives the call-site default,
// then the field default, then the type default.
func (w *Writer[T]) Write(rec T, opts ...CallOption) (Row, error) {
	return w.e.write(reflect.ValueOf(&rec).Elem(), newCall(opts))
}

// WriteAll converts records in parallel and returns the rows in record order, with the
// same failure policy as ReadAll.
func (w *Writer[T]) WriteAll(ctx context.Context, recs []T, opts ...CallOption) ([]Row, error) {
	results, err := w.each(ctx, recs, !w.e.skipFailed(), opts)
	if err != nil {
		return nil, err
	}

	return collect(w.e, results)
}

// WriteEach converts every record in parallel and reports one Result per record.
func (w *Writer[T]) WriteEach(ctx context.Context, recs []T, opts ...CallOption) ([]Result[Row], error) {
	return w.each(ctx, recs, false, opts)
}

func (w *Writer[T]) each(ctx context.Context, recs []T, stopOnError bool, opts []CallOption) ([]Result[Row], error) {
	return run(ctx, w.e.workers, recs, stopOnError, func(rec T) (Row, error) {
		return w.Write(rec, opts...)
	})
}
