package codec

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// enumScan bounds the search for integer enum constants by their String() name to
// [-enumScan, enumScan).
const enumScan = 4096

var ErrInvalidEnum = errors.New("not a valid enum value")

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	stringerType        = reflect.TypeFor[fmt.Stringer]()
	validatorType       = reflect.TypeFor[interface{ IsValid() bool }]()
)

// Bool accepts strconv forms plus yes/no and on/off, case-insensitively.
var Bool = Of(
	func(b bool, _ Context) (string, error) { return strconv.FormatBool(b), nil },
	func(s string, _ Context) (bool, error) {
		switch strings.ToLower(s) {
		default:
			return false, fmt.Errorf("only strings true/false, yes/no, on/off, 1/0 are allowed for bool, got: %s", s)
		case "true", "t", "yes", "on", "1":
			return true, nil
		case "false", "f", "no", "off", "0":
			return false, nil
		}
	},
)

// String is the identity codec.
var String = Of(
	func(s string, _ Context) (string, error) { return s, nil },
	func(s string, _ Context) (string, error) { return s, nil },
)

// Enum handles named integer and string types. It prefers encoding.TextMarshaler and
// encoding.TextUnmarshaler when the type implements them. Integer enums are written as
// their String() name when that name reads back to the same value, and as numeric text
// otherwise. String enums are written as their underlying value; those implementing
// IsValid() bool are validated on parse.
var Enum Codec = enumCodec{}

type enumCodec struct{}

func (enumCodec) Stringify(v reflect.Value, ctx Context) (string, error) {
	v, ok := Indirect(v)
	if !ok {
		return "", nil
	}

	if v.Type().Implements(textMarshalerType) {
		return Text.Stringify(v, ctx)
	}

	switch {
	case v.Kind() == reflect.String:
		return v.String(), nil
	case v.CanInt() || v.CanUint():
		return stringifyIntegerEnum(v, ctx)
	default:
		return "", Fail("", ctx, fmt.Errorf("%w: %s is not an enum", ErrTypeMismatch, v.Type()))
	}
}

func (enumCodec) Parse(s string, ctx Context) (reflect.Value, error) {
	t := Leaf(ctx.Type, nil)
	if t == nil {
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: enum target type is unknown", ErrTypeMismatch))
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return Text.Parse(s, ctx)
	}

	rv := reflect.New(t).Elem()

	switch {
	case t.Kind() == reflect.String:
		rv.SetString(s)
	case rv.CanInt() || rv.CanUint():
		if !parseIntegerEnum(rv, s) {
			return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %q for %s", ErrInvalidEnum, s, t))
		}
	default:
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %s is not an enum", ErrTypeMismatch, t))
	}

	if t.Implements(validatorType) && !rv.Interface().(interface{ IsValid() bool }).IsValid() {
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %q for %s", ErrInvalidEnum, s, t))
	}

	return produce(s, rv, ctx)
}

func stringifyIntegerEnum(v reflect.Value, ctx Context) (string, error) {
	names := enumNamesOf(v.Type())

	if v.Type().Implements(stringerType) {
		name := v.Interface().(fmt.Stringer).String()
		if n, ok := names[name]; ok && n == integerOf(v) {
			return name, nil
		}
	}

	var text string
	if v.CanInt() {
		text = strconv.FormatInt(v.Int(), 10)
	} else {
		text = strconv.FormatUint(v.Uint(), 10)
	}

	if n, ok := names[text]; ok && n != integerOf(v) {
		return "", Fail("", ctx, fmt.Errorf("%w: %s names another constant of %s", ErrInvalidEnum, text, v.Type()))
	}

	return text, nil
}

// parseIntegerEnum sets rv from a constant name or from numeric text.
func parseIntegerEnum(rv reflect.Value, s string) bool {
	if n, ok := enumNamesOf(rv.Type())[s]; ok {
		setInteger(rv, n)
		return true
	}

	if rv.CanInt() {
		n, err := strconv.ParseInt(s, 10, rv.Type().Bits())
		if err != nil {
			return false
		}

		rv.SetInt(n)

		return true
	}

	n, err := strconv.ParseUint(s, 10, rv.Type().Bits())
	if err != nil {
		return false
	}

	rv.SetUint(n)

	return true
}

// enumNames maps an integer enum type to its String() names, as the bit pattern of the
// first value carrying each name.
var enumNames sync.Map // reflect.Type -> map[string]uint64

func enumNamesOf(t reflect.Type) map[string]uint64 {
	if names, ok := enumNames.Load(t); ok {
		return names.(map[string]uint64)
	}

	names := map[string]uint64{}

	if t.Implements(stringerType) {
		rv := reflect.New(t).Elem()

		for i := -enumScan; i < enumScan; i++ {
			if rv.CanInt() && rv.OverflowInt(int64(i)) || rv.CanUint() && (i < 0 || rv.OverflowUint(uint64(i))) {
				continue
			}

			setInteger(rv, uint64(i))

			name := rv.Interface().(fmt.Stringer).String()
			if _, ok := names[name]; !ok {
				names[name] = integerOf(rv)
			}
		}
	}

	actual, _ := enumNames.LoadOrStore(t, names)

	return actual.(map[string]uint64)
}

func integerOf(rv reflect.Value) uint64 {
	if rv.CanInt() {
		return uint64(rv.Int())
	}

	return rv.Uint()
}

func setInteger(rv reflect.Value, n uint64) {
	if rv.CanInt() {
		rv.SetInt(int64(n))
		return
	}

	rv.SetUint(n)
}

// Text handles any type implementing encoding.TextMarshaler and, through its pointer,
// encoding.TextUnmarshaler.
var Text Codec = textCodec{}

type textCodec struct{}

func (textCodec) Stringify(v reflect.Value, ctx Context) (string, error) {
	v, ok := Indirect(v)
	if !ok {
		return "", nil
	}

	m, ok := v.Interface().(encoding.TextMarshaler)
	if !ok {
		return "", Fail("", ctx, fmt.Errorf("%w: %s is not a text marshaler", ErrTypeMismatch, v.Type()))
	}

	b, err := m.MarshalText()
	if err != nil {
		return "", Fail("", ctx, err)
	}

	return string(b), nil
}

func (textCodec) Parse(s string, ctx Context) (reflect.Value, error) {
	t := Leaf(ctx.Type, nil)
	if t == nil || !reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return reflect.Value{}, Fail(s, ctx, fmt.Errorf("%w: %v is not a text unmarshaler", ErrTypeMismatch, t))
	}

	p := reflect.New(t)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, Fail(s, ctx, err)
	}

	return produce(s, p.Elem(), ctx)
}

// IsText reports whether t round-trips through encoding.TextMarshaler and
// encoding.TextUnmarshaler.
func IsText(t reflect.Type) bool {
	return t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType)
}
