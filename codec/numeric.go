package codec

import (
	"fmt"
	"reflect"
	"strconv"

	"rowmapper/primitive"
)

// Int handles every signed integer kind. The bit size comes from the target type, so
// "300" fails for an int8 field.
var Int Codec = intCodec{}

// Uint handles every unsigned integer kind.
var Uint Codec = uintCodec{}

// Float handles float32 and float64.
var Float Codec = floatCodec{}

type intCodec struct{}

func (intCodec) Stringify(v reflect.Value, ctx Context) (string, error) {
	v, ok := Indirect(v)
	if !ok {
		return "", nil
	}

	if !v.CanInt() {
		return "", Fail("", ctx, fmt.Errorf("%w: %s is not a signed integer", ErrTypeMismatch, v.Type()))
	}

	return strconv.FormatInt(v.Int(), 10), nil
}

func (intCodec) Parse(s string, ctx Context) (reflect.Value, error) {
	t := Leaf(ctx.Type, reflect.TypeFor[int]())

	kind := primitive.FromKind(t.Kind())
	if !kind.IsInteger() || t.Kind() >= reflect.Uint {
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %s is not a signed integer", ErrTypeMismatch, t))
	}

	n, err := strconv.ParseInt(s, 10, kind.Bits())
	if err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	rv := reflect.New(t).Elem()
	rv.SetInt(n)

	return produce(s, rv, ctx)
}

type uintCodec struct{}

func (uintCodec) Stringify(v reflect.Value, ctx Context) (string, error) {
	v, ok := Indirect(v)
	if !ok {
		return "", nil
	}

	if !v.CanUint() {
		return "", Fail("", ctx, fmt.Errorf("%w: %s is not an unsigned integer", ErrTypeMismatch, v.Type()))
	}

	return strconv.FormatUint(v.Uint(), 10), nil
}

func (uintCodec) Parse(s string, ctx Context) (reflect.Value, error) {
	t := Leaf(ctx.Type, reflect.TypeFor[uint]())

	kind := primitive.FromKind(t.Kind())
	if !kind.IsInteger() || t.Kind() < reflect.Uint {
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %s is not an unsigned integer", ErrTypeMismatch, t))
	}

	n, err := strconv.ParseUint(s, 10, kind.Bits())
	if err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	rv := reflect.New(t).Elem()
	rv.SetUint(n)

	return produce(s, rv, ctx)
}

type floatCodec struct{}

func (floatCodec) Stringify(v reflect.Value, ctx Context) (string, error) {
	v, ok := Indirect(v)
	if !ok {
		return "", nil
	}

	if !v.CanFloat() {
		return "", Fail("", ctx, fmt.Errorf("%w: %s is not a float", ErrTypeMismatch, v.Type()))
	}

	return strconv.FormatFloat(v.Float(), 'f', -1, primitive.FromKind(v.Kind()).Bits()), nil
}

func (floatCodec) Parse(s string, ctx Context) (reflect.Value, error) {
	t := Leaf(ctx.Type, reflect.TypeFor[float64]())
	if t.Kind() != reflect.Float32 && t.Kind() != reflect.Float64 {
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %s is not a float", ErrTypeMismatch, t))
	}

	f, err := strconv.ParseFloat(s, primitive.FromKind(t.Kind()).Bits())
	if err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	rv := reflect.New(t).Elem()
	rv.SetFloat(f)

	return produce(s, rv, ctx)
}

func produce(s string, rv reflect.Value, ctx Context) (reflect.Value, error) {
	out, err := Produce(rv, ctx.Type)
	if err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	return out, nil
}
