// Package mapper converts rows of cell text into typed records and back.
//
// A Reader or Writer resolves everything about its record type once, at construction:
// the field bindings, the handler of every field and the creator used to instantiate
// records. Structural problems surface there, before any row is touched. Afterwards
// both are immutable and safe for concurrent use.
//
//	r, err := mapper.NewReader[User](mapper.WithCreators(creator.MustFactory(NewUser)))
//	user, err := r.Read(mapper.Row{"id": "7", "tags": "[a, b]"})
package mapper

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"rowmapper/binding"
	"rowmapper/creator"
	"rowmapper/options"
	"rowmapper/sequence"
)

var (
	ErrUnknownColumn = errors.New("row has a column no field reads")
	ErrNotWritable   = errors.New("field cannot be read for writing")
)

// Row is one row of cell text keyed by column. A missing column and an empty cell both
// mean null.
type Row map[string]string

// engine drives rows through the resolved metadata of one record type.
type engine struct {
	settings

	set    *binding.Set
	choice *creator.Choice
	exprs  []*binding.Binding
}

func newEngine(t reflect.Type, s settings) (*engine, error) {
	set, err := binding.Resolve(t, s.reg, s.cfg)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.Stringer("type", t))
	for _, w := range set.Warnings {
		log.Warn("binding warning", zap.String("warning", w))
	}

	fields := lo.Map(set.Bindings, func(b *binding.Binding, _ int) creator.Field {
		return creator.Field{Name: b.Field.Name, Type: b.Field.Type, Immutable: b.Field.Immutable()}
	})

	choice, err := creator.Resolve(t, fields, s.creators, s.flags)
	if err != nil {
		return nil, err
	}

	e := &engine{
		settings: s,
		set:      set,
		choice:   choice,
		exprs:    withStrategy(set.Bindings, binding.StrategyExpression),
	}

	log.Debug("resolved record type",
		zap.Stringer("creator", choice),
		zap.Strings("columns", set.Columns()),
		zap.Int("expressions", len(e.exprs)))

	return e, nil
}

func withStrategy(bs []*binding.Binding, strategy binding.Strategy) []*binding.Binding {
	return lo.Filter(bs, func(b *binding.Binding, _ int) bool { return b.Strategy == strategy })
}

// read decodes every field, evaluates expression fields over the decoded values and
// hands the result to the creator.
func (e *engine) read(row Row, c call) (reflect.Value, error) {
	if e.flags.Has(options.FlagStrictColumns) {
		for _, col := range slices.Sorted(maps.Keys(row)) {
			if _, ok := e.set.Column(col); !ok {
				return reflect.Value{}, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
			}
		}
	}

	values := make(map[string]reflect.Value, len(e.set.Bindings))

	var vars map[string]any
	if len(e.exprs) > 0 {
		vars = make(map[string]any, len(e.set.Bindings))
	}

	for _, b := range e.set.Bindings {
		if b.Strategy == binding.StrategyExpression {
			continue
		}

		v, err := decodeCell(b, row[b.Field.Column], c.defaults)
		if err != nil {
			return reflect.Value{}, err
		}

		values[b.Field.Name] = v

		if vars != nil {
			if vars[b.Field.Name], err = b.Variable(v); err != nil {
				return reflect.Value{}, fmt.Errorf("field %s: %w", b.Field.Name, err)
			}
		}
	}

	for _, b := range e.exprs {
		v, err := b.Eval(vars)
		if err != nil {
			return reflect.Value{}, err
		}

		values[b.Field.Name] = v
	}

	return e.choice.Build(values, func(p reflect.Value, field string, v reflect.Value) error {
		b, _ := e.set.Lookup(field)
		return b.Set(p, v)
	})
}

// decodeCell substitutes the default for an empty cell and falls back to the zero value
// of the field type, nil for pointers and sequences, when there is none.
func decodeCell(b *binding.Binding, cell string, overrides map[string]string) (reflect.Value, error) {
	if cell == "" {
		text, ok := b.Default(overrides)
		if !ok || text == "" {
			return reflect.Zero(b.Field.Type), nil
		}

		cell = text
	}

	return b.Decode(cell)
}

// checkWritable reports every field a writer could not read.
func (e *engine) checkWritable() error {
	var errs []error

	for _, b := range e.set.Bindings {
		if b.Strategy != binding.StrategyExpression && !b.Readable() {
			errs = append(errs, fmt.Errorf("%w: %s.%s is unexported and has no getter", ErrNotWritable, e.set.Type, b.Field.Name))
		}
	}

	return errors.Join(errs...)
}

// write renders every field of rec. A cell that renders empty receives the default.
// Cells of sequences with ambiguous element rank are left out and logged.
func (e *engine) write(rec reflect.Value, c call) (Row, error) {
	values := make(map[string]reflect.Value, len(e.set.Bindings))

	var vars map[string]any
	if len(e.exprs) > 0 {
		vars = make(map[string]any, len(e.set.Bindings))
	}

	for _, b := range e.set.Bindings {
		if b.Strategy == binding.StrategyExpression {
			continue
		}

		v, err := b.Get(rec)
		if err != nil {
			return nil, err
		}

		values[b.Field.Name] = v

		if vars != nil {
			if vars[b.Field.Name], err = b.Variable(v); err != nil {
				return nil, fmt.Errorf("field %s: %w", b.Field.Name, err)
			}
		}
	}

	for _, b := range e.exprs {
		v, err := b.Eval(vars)
		if err != nil {
			return nil, err
		}

		values[b.Field.Name] = v
	}

	row := make(Row, len(e.set.Bindings))

	for _, b := range e.set.Bindings {
		text, err := b.Encode(values[b.Field.Name])
		if errors.Is(err, sequence.ErrRankAmbiguous) {
			e.logger.Warn("cell omitted", zap.Stringer("type", e.set.Type), zap.String("column", b.Field.Column), zap.Error(err))
			continue
		}

		if err != nil {
			return nil, err
		}

		if text == "" {
			text, _ = b.Default(c.defaults)
		}

		row[b.Field.Column] = text
	}

	return row, nil
}
