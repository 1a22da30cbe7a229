// Package binding resolves, once per record type, how every mapped field is read from
// and written to a row.
//
// Metadata comes from struct tags, overlaid by an explicit Config:
//
//	type User struct {
//		ID      int       `row:"id"`
//		Name    string    `row:"name" default:"anonymous"`
//		Born    time.Time `row:"born" format:"2006-01-02"`
//		Tags    []string  `row:"tags"`
//		HasTags bool      `row:"has_tags" expr:"size(Tags) > 0"`
//		secret  string    `row:"secret" get:"Secret"`
//		Scratch string    `row:"-"`
//	}
//
// Every structural problem of a type is collected and returned as one error.
package binding

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"rowmapper/handler"
	"rowmapper/internal/diagnostic"
	"rowmapper/internal/match"
	"rowmapper/sequence"
)

var (
	ErrNotStruct          = errors.New("record type must be a struct")
	ErrUnknownConfigField = errors.New("unknown field")
	ErrMissingHandler     = errors.New("no handler for field type")
	ErrBadAccessor        = errors.New("bad accessor")
	ErrDuplicateColumn    = errors.New("duplicate column")
	ErrBadDefault         = errors.New("default does not convert to the field type")
	ErrBadExpression      = errors.New("bad expression")
)

var typeDefaulterType = reflect.TypeFor[TypeDefaulter]()

// Set holds the bindings of one record type in declaration order.
type Set struct {
	Type     reflect.Type
	Bindings []*Binding
	Ignored  []FieldDescriptor
	// Warnings are non-fatal resolution notes, for logging.
	Warnings []string

	byName   map[string]*Binding
	byColumn map[string]*Binding
}

// Lookup returns the binding of the Go field name.
func (s *Set) Lookup(name string) (*Binding, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// Column returns the binding reading or writing col.
func (s *Set) Column(col string) (*Binding, bool) {
	b, ok := s.byColumn[col]
	return b, ok
}

// Names returns the Go names of the mapped fields in declaration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Bindings))
	for i, b := range s.Bindings {
		names[i] = b.Field.Name
	}

	return names
}

// Columns returns the column names in declaration order.
func (s *Set) Columns() []string {
	cols := make([]string, len(s.Bindings))
	for i, b := range s.Bindings {
		cols[i] = b.Field.Column
	}

	return cols
}

// Resolve builds the binding set of the struct type t.
func Resolve(t reflect.Type, reg *handler.Registry, cfg Config) (*Set, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %v", ErrNotStruct, t)
	}

	r := resolver{t: t, typeName: t.String(), reg: reg}

	descriptors := r.collect()
	r.configure(descriptors, cfg)

	set := &Set{
		Type:     t,
		byName:   make(map[string]*Binding),
		byColumn: make(map[string]*Binding),
	}

	for _, d := range descriptors {
		if d.Ignore {
			set.Ignored = append(set.Ignored, d)
			continue
		}

		if prev, dup := set.byColumn[d.Column]; dup {
			err := fmt.Errorf("%w %q used by %s and %s", ErrDuplicateColumn, d.Column, prev.Field.Name, d.Name)
			r.diags.AddError("duplicate-column", err, r.typeName, d.Name)

			continue
		}

		b := r.bind(d)
		set.Bindings = append(set.Bindings, b)
		set.byName[d.Name] = b
		set.byColumn[d.Column] = b
	}

	r.compileExpressions(set)
	r.resolveDefaults(set, cfg)

	if err := r.diags.Error(); err != nil {
		return nil, err
	}

	for _, w := range r.diags.Warnings {
		set.Warnings = append(set.Warnings, w.String())
	}

	return set, nil
}

type resolver struct {
	t        reflect.Type
	typeName string
	reg      *handler.Registry
	diags    diagnostic.Diagnostics
}

// collect describes the fields of t in declaration order, flattening embedded structs.
// Fields promoted through embedded pointers are skipped since a zero record has no
// storage for them.
func (r *resolver) collect() []FieldDescriptor {
	var out []FieldDescriptor

	for _, f := range reflect.VisibleFields(r.t) {
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if _, tagged := f.Tag.Lookup(TagRow); !tagged {
				continue
			}
		}

		if len(f.Index) > 1 && r.throughPointer(f.Index) {
			continue
		}

		if d, ok := describe(f); ok {
			out = append(out, d)
		}
	}

	return out
}

func (r *resolver) throughPointer(index []int) bool {
	t := r.t
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() == reflect.Pointer {
			return true
		}
	}

	return false
}

func (r *resolver) configure(descriptors []FieldDescriptor, cfg Config) {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}

	for _, key := range slices.Sorted(maps.Keys(cfg.Fields)) {
		i := slices.Index(names, key)
		if i < 0 {
			err := fmt.Errorf("%w %q in configuration of %s", ErrUnknownConfigField, key, r.typeName)
			r.diags.AddError("unknown-field", err, r.typeName, key, match.Ranked(key, names)...)

			continue
		}

		descriptors[i].apply(cfg.Fields[key])
	}
}

func (r *resolver) bind(d FieldDescriptor) *Binding {
	b := &Binding{Field: d, reg: r.reg, seq: sequence.New(r.reg)}

	switch {
	case d.Expression != "":
		b.Strategy = StrategyExpression
	case d.Handler != "":
		b.Strategy = StrategyHandler
	case d.Getter != "" || d.Setter != "":
		b.Strategy = StrategyAccessor
	default:
		b.Strategy = StrategyField
	}

	r.bindCodec(b)

	if d.Getter != "" {
		r.checkGetter(d)
	}

	if d.Setter != "" {
		r.checkSetter(d)
	}

	return b
}

func (r *resolver) bindCodec(b *Binding) {
	d := b.Field

	if d.Handler != "" {
		c, ok := r.reg.Named(d.Handler)
		if !ok {
			err := fmt.Errorf("%w: no codec named %q", ErrMissingHandler, d.Handler)
			r.diags.AddError("missing-handler", err, r.typeName, d.Name, match.Ranked(d.Handler, r.reg.Names())...)

			return
		}

		b.leaf = c
		b.seq = b.seq.WithLeaf(c)
		b.Dispatch = sequence.DispatcherScalar

		if d.Depth > 0 {
			b.Dispatch = sequence.DispatcherSequence
		}

		return
	}

	b.Dispatch = sequence.Dispatch(r.reg, d.Type)

	switch b.Dispatch {
	case sequence.DispatcherScalar:
		b.leaf, _ = r.reg.Lookup(d.Type)
	case sequence.DispatcherSequence:
		if elem := elementType(d.Type); sequence.Dispatch(r.reg, elem) == sequence.DispatcherUnknown {
			err := fmt.Errorf("%w: %s (element %s)", ErrMissingHandler, d.Type, elem)
			r.diags.AddError("missing-handler", err, r.typeName, d.Name)
		}
	case sequence.DispatcherUnknown:
		err := fmt.Errorf("%w: %s", ErrMissingHandler, d.Type)
		r.diags.AddError("missing-handler", err, r.typeName, d.Name)
	}
}

// elementType strips every slice, array and pointer level from t.
func elementType(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}
}

func (r *resolver) checkGetter(d FieldDescriptor) {
	m, ok := reflect.PointerTo(r.t).MethodByName(d.Getter)

	switch {
	case !ok:
		r.accessorError(d, "method %s not found", d.Getter)
	case m.Type.NumIn() != 1:
		r.accessorError(d, "getter %s must take no arguments", d.Getter)
	case m.Type.NumOut() == 0 || m.Type.NumOut() > 2 || m.Type.Out(0) != d.Type:
		r.accessorError(d, "getter %s must return %s", d.Getter, d.Type)
	case m.Type.NumOut() == 2 && m.Type.Out(1) != errorType:
		r.accessorError(d, "second result of getter %s must be error", d.Getter)
	}
}

func (r *resolver) checkSetter(d FieldDescriptor) {
	m, ok := reflect.PointerTo(r.t).MethodByName(d.Setter)

	switch {
	case !ok:
		r.accessorError(d, "method %s not found", d.Setter)
	case m.Type.NumIn() != 2 || m.Type.In(1) != d.Type:
		r.accessorError(d, "setter %s must take one %s", d.Setter, d.Type)
	case m.Type.NumOut() > 1 || (m.Type.NumOut() == 1 && m.Type.Out(0) != errorType):
		r.accessorError(d, "setter %s may only return error", d.Setter)
	}
}

func (r *resolver) accessorError(d FieldDescriptor, format string, args ...any) {
	err := fmt.Errorf("%w: "+format, append([]any{ErrBadAccessor}, args...)...)
	r.diags.AddError("bad-accessor", err, r.typeName, d.Name)
}

// compileExpressions compiles expression fields against one environment whose
// variables are the other mapped fields.
func (r *resolver) compileExpressions(set *Set) {
	var vars []string

	exprs := 0

	for _, b := range set.Bindings {
		if b.Strategy == StrategyExpression {
			exprs++
			continue
		}

		vars = append(vars, b.Field.Name)
	}

	if exprs == 0 {
		return
	}

	env, err := newEnv(vars)
	if err != nil {
		r.diags.AddError("bad-expression", fmt.Errorf("%w: %w", ErrBadExpression, err), r.typeName, "")
		return
	}

	for _, b := range set.Bindings {
		if b.Strategy != StrategyExpression {
			continue
		}

		prg, err := compile(env, b.Field.Expression)
		if err != nil {
			r.diags.AddError("bad-expression", fmt.Errorf("%w: %w", ErrBadExpression, err), r.typeName, b.Field.Name)
			continue
		}

		b.program = prg
	}
}

// resolveDefaults checks every declared default against its field. A per-field default
// that does not convert is an error; the per-type default is skipped, with a warning,
// for fields it does not convert to.
func (r *resolver) resolveDefaults(set *Set, cfg Config) {
	typeText, hasType := r.typeDefault(cfg)

	for _, b := range set.Bindings {
		if b.Strategy == StrategyExpression || !b.convertible() {
			continue
		}

		switch {
		case b.Field.HasDefault:
			if err := tryDecode(b, b.Field.Default); err != nil {
				r.diags.AddError("bad-default", fmt.Errorf("%w: %w", ErrBadDefault, err), r.typeName, b.Field.Name)
				continue
			}

			b.defaultText, b.defaultSource = b.Field.Default, DefaultFromField
		case hasType:
			if err := tryDecode(b, typeText); err != nil {
				r.diags.AddWarning("type-default-skipped",
					fmt.Sprintf("type default %q does not convert: %v", typeText, err), r.typeName, b.Field.Name)

				continue
			}

			b.defaultText, b.defaultSource = typeText, DefaultFromType
		}
	}
}

func (r *resolver) typeDefault(cfg Config) (string, bool) {
	if cfg.TypeDefault != nil {
		return *cfg.TypeDefault, true
	}

	if r.t.Implements(typeDefaulterType) {
		return reflect.Zero(r.t).Interface().(TypeDefaulter).RowDefault(), true
	}

	return "", false
}

func tryDecode(b *Binding, text string) error {
	if text == "" {
		return nil
	}

	_, err := b.Decode(text)

	return err
}
