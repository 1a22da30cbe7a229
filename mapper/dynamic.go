package mapper

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"

	"rowmapper/binding"
	"rowmapper/codec"
	"rowmapper/primitive"
)

var ErrNoColumns = errors.New("dynamic mapper needs at least one column")

// Column declares one column of a dynamic row.
type Column struct {
	Name string
	// Type is a type tag such as "int", "*float64", "[]string" or "[][]date".
	Type    string
	Format  string
	Default *string
	// Handler names a codec registered with handler.Builder.RegisterNamed.
	Handler string
}

// Dynamic maps rows to map[string]any and back when the schema is only known at run
// time. Values carry the Go type of their column's type tag.
type Dynamic struct {
	e       *engine
	columns []Column
	fields  map[string]string
	// columnOf maps synthesized field names back to columns for error reports.
	columnOf map[string]string
}

// NewDynamic builds a mapper for columns. The record is a struct synthesized from the
// type tags, so every Reader feature but creators applies.
func NewDynamic(columns []Column, opts ...Option) (*Dynamic, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	var errs []error

	fields := make([]reflect.StructField, 0, len(columns))
	cfg := binding.Config{Fields: make(map[string]binding.FieldConfig, len(columns))}
	names := make(map[string]string, len(columns))

	for i, c := range columns {
		t, err := primitive.ParseTypeTag(c.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("column %q: %w", c.Name, err))
			continue
		}

		name := "C" + strconv.Itoa(i)
		fields = append(fields, reflect.StructField{Name: name, Type: t})
		cfg.Fields[name] = binding.FieldConfig{Column: c.Name, Format: c.Format, Default: c.Default, Handler: c.Handler}
		names[c.Name] = name
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	s := newSettings(opts)
	s.cfg = cfg
	s.creators = nil

	e, err := newEngine(reflect.StructOf(fields), s)
	if err != nil {
		return nil, err
	}

	columnOf := make(map[string]string, len(names))
	for col, name := range names {
		columnOf[name] = col
	}

	return &Dynamic{e: e, columns: columns, fields: names, columnOf: columnOf}, nil
}

// Columns returns the column names in declaration order.
func (d *Dynamic) Columns() []string {
	return d.e.set.Columns()
}

// Read decodes a row. Null cells without a default yield the zero value of the column
// type, nil for nullable and sequence columns.
func (d *Dynamic) Read(row Row, opts ...CallOption) (map[string]any, error) {
	rec, err := d.e.read(row, newCall(opts))
	if err != nil {
		return nil, d.rename(err)
	}

	out := make(map[string]any, len(d.columns))
	for _, c := range d.columns {
		out[c.Name] = rec.FieldByName(d.fields[c.Name]).Interface()
	}

	return out, nil
}

// Write encodes values. A missing value is null. A value of a named type sharing the
// column kind is converted and a non-pointer value fills a nullable column.
func (d *Dynamic) Write(values map[string]any, opts ...CallOption) (Row, error) {
	rec := reflect.New(d.e.set.Type).Elem()

	for _, col := range slices.Sorted(maps.Keys(values)) {
		v := values[col]

		name, ok := d.fields[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}

		if v == nil {
			continue
		}

		f := rec.FieldByName(name)

		rv, err := codec.Produce(reflect.ValueOf(v), f.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}

		f.Set(rv)
	}

	row, err := d.e.write(rec, newCall(opts))
	if err != nil {
		return nil, d.rename(err)
	}

	return row, nil
}

// rename reports conversion errors by column instead of synthesized field name.
func (d *Dynamic) rename(err error) error {
	var convErr *codec.ConversionError
	if errors.As(err, &convErr) {
		if col, ok := d.columnOf[convErr.Field]; ok {
			convErr.Field = col
		}
	}

	return err
}

// ReadEach decodes rows in parallel, one Result per row.
func (d *Dynamic) ReadEach(ctx context.Context, rows []Row, opts ...CallOption) ([]Result[map[string]any], error) {
	return run(ctx, d.e.workers, rows, false, func(row Row) (map[string]any, error) {
		return d.Read(row, opts...)
	})
}
