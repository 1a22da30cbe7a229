// Package codec provides scalar codecs: converter pairs that turn one leaf value into
// cell text and back.
//
// A codec receives the exact target type in its Context, so a single codec instance
// serves a type, its pointer form, and named types sharing its underlying kind.
package codec

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrTypeMismatch = errors.New("value does not fit the target type")

// Context carries per-field information into a codec call.
type Context struct {
	// Field is the mapped field (or column) name used in error reports.
	Field string
	// Type is the exact target type, possibly a pointer.
	Type reflect.Type
	// Pattern is the field-level formatting override, for example a time layout.
	Pattern string
}

// Layout returns the context pattern, or fallback when the field declares none.
func (c Context) Layout(fallback string) string {
	if c.Pattern != "" {
		return c.Pattern
	}

	return fallback
}

// Codec converts between a leaf value and its text form.
//
// Stringify renders nil pointers and nil interfaces as the empty string. Parse is never
// called with the empty string by the orchestrators; empty cells are handled by
// default-value policy.
type Codec interface {
	Stringify(v reflect.Value, ctx Context) (string, error)
	Parse(s string, ctx Context) (reflect.Value, error)
}

// Of builds a codec from a typed pair of functions. Values of named types whose
// underlying type is T are converted on both sides.
func Of[T any](format func(T, Context) (string, error), parse func(string, Context) (T, error)) Codec {
	return funcCodec[T]{format: format, parse: parse}
}

type funcCodec[T any] struct {
	format func(T, Context) (string, error)
	parse  func(string, Context) (T, error)
}

func (c funcCodec[T]) Stringify(v reflect.Value, ctx Context) (string, error) {
	v, ok := Indirect(v)
	if !ok {
		return "", nil
	}

	typ := reflect.TypeFor[T]()
	if v.Type() != typ {
		if !v.Type().ConvertibleTo(typ) || v.Kind() != typ.Kind() {
			return "", Fail("", ctx, fmt.Errorf("%w: %s is not %s", ErrTypeMismatch, v.Type(), typ))
		}

		v = v.Convert(typ)
	}

	s, err := c.format(v.Interface().(T), ctx)
	if err != nil {
		return "", Fail("", ctx, err)
	}

	return s, nil
}

func (c funcCodec[T]) Parse(s string, ctx Context) (reflect.Value, error) {
	val, err := c.parse(s, ctx)
	if err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	out, err := Produce(reflect.ValueOf(&val).Elem(), ctx.Type)
	if err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	return out, nil
}

// Indirect follows pointers and interfaces. It reports false when it meets a nil or an
// invalid value.
func Indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}

		v = v.Elem()
	}

	return v, v.IsValid()
}

// Leaf strips pointers from t. A nil t yields fallback.
func Leaf(t reflect.Type, fallback reflect.Type) reflect.Type {
	if t == nil {
		return fallback
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// Produce adapts v to target: named types of the same kind are converted and pointer
// levels are allocated. A nil target returns v unchanged.
func Produce(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if target == nil || v.Type() == target {
		return v, nil
	}

	if target.Kind() == reflect.Pointer {
		inner, err := Produce(v, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		p := reflect.New(target.Elem())
		p.Elem().Set(inner)

		return p, nil
	}

	if target.Kind() == reflect.Interface {
		if !v.Type().Implements(target) {
			return reflect.Value{}, fmt.Errorf("%w: %s does not implement %s", ErrTypeMismatch, v.Type(), target)
		}

		out := reflect.New(target).Elem()
		out.Set(v)

		return out, nil
	}

	if v.Kind() != target.Kind() || !v.Type().ConvertibleTo(target) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not %s", ErrTypeMismatch, v.Type(), target)
	}

	return v.Convert(target), nil
}
