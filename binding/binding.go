package binding

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/cel-go/cel"

	"rowmapper/codec"
	"rowmapper/handler"
	"rowmapper/sequence"
)

var (
	ErrImmutable   = errors.New("field is immutable")
	ErrNotReadable = errors.New("field has no accessor")
)

var (
	errorType    = reflect.TypeFor[error]()
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

// Binding is the resolved strategy for one field. It is read-only after Resolve and
// safe for concurrent use.
type Binding struct {
	Field    FieldDescriptor
	Strategy Strategy
	Dispatch sequence.DispatcherEnum

	reg     *handler.Registry
	leaf    codec.Codec
	seq     *sequence.Codec
	program cel.Program

	defaultText   string
	defaultSource DefaultSource
}

// Context returns the codec context of the field.
func (b *Binding) Context() codec.Context {
	return codec.Context{Field: b.Field.Name, Type: b.Field.Type, Pattern: b.Field.Format}
}

// Default returns the default cell text. A call-site override keyed by column wins over
// the per-field default, which wins over the per-type default.
func (b *Binding) Default(overrides map[string]string) (string, bool) {
	text, source := b.DefaultWithSource(overrides)
	return text, source != DefaultNone
}

// DefaultWithSource is Default that also tells where the value came from.
func (b *Binding) DefaultWithSource(overrides map[string]string) (string, DefaultSource) {
	if text, ok := overrides[b.Field.Column]; ok {
		return text, DefaultFromCall
	}

	return b.defaultText, b.defaultSource
}

// convertible reports whether Decode and Encode have a codec to work with.
func (b *Binding) convertible() bool {
	switch b.Dispatch {
	case sequence.DispatcherScalar:
		return b.leaf != nil
	case sequence.DispatcherUnknown:
		return false
	default:
		return true
	}
}

// Readable reports whether Get can read the field.
func (b *Binding) Readable() bool {
	return b.Field.Exported || b.Field.Getter != ""
}

// Decode parses non-empty cell text into a value of the field type.
func (b *Binding) Decode(s string) (reflect.Value, error) {
	switch b.Dispatch {
	case sequence.DispatcherSequence, sequence.DispatcherInterface:
		return b.seq.Decode(s, b.Field.Type, b.Context())
	default:
		return b.leaf.Parse(s, b.Context())
	}
}

// Encode renders a field value as cell text; nil renders as "".
func (b *Binding) Encode(v reflect.Value) (string, error) {
	switch b.Dispatch {
	case sequence.DispatcherSequence:
		return b.seq.Encode(v, b.Context())
	case sequence.DispatcherInterface:
		return b.encodeDynamic(v)
	default:
		return b.leaf.Stringify(v, b.Context())
	}
}

func (b *Binding) encodeDynamic(v reflect.Value) (string, error) {
	v, ok := codec.Indirect(v)
	if !ok {
		return "", nil
	}

	if sequence.Rank(v.Type()) > 0 {
		return b.seq.Encode(v, b.Context())
	}

	ctx := codec.Context{Field: b.Field.Name, Type: v.Type(), Pattern: b.Field.Format}

	c, ok := b.reg.Lookup(v.Type())
	if !ok {
		return "", codec.Fail("", ctx, fmt.Errorf("%w for %s", sequence.ErrNoHandler, v.Type()))
	}

	return c.Stringify(v, ctx)
}

// Get reads the field from rec, which may be a record value or a pointer to one.
// Accessors are called on a pointer so methods with either receiver work.
func (b *Binding) Get(rec reflect.Value) (reflect.Value, error) {
	rec = reflect.Indirect(rec)

	if b.Field.Getter == "" {
		if !b.Field.Exported {
			return reflect.Value{}, fmt.Errorf("%w: %s is unexported", ErrNotReadable, b.Field.Name)
		}

		return rec.FieldByIndex(b.Field.Index), nil
	}

	p := reflect.New(rec.Type())
	p.Elem().Set(rec)

	out := p.MethodByName(b.Field.Getter).Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("%s.%s: %w", rec.Type().Name(), b.Field.Getter, out[1].Interface().(error))
	}

	return out[0], nil
}

// Set assigns v to the field of the record behind the pointer p, through the setter
// when one is declared.
func (b *Binding) Set(p reflect.Value, v reflect.Value) error {
	if b.Field.Immutable() {
		return fmt.Errorf("%w: %s", ErrImmutable, b.Field.Name)
	}

	if b.Field.Setter == "" {
		p.Elem().FieldByIndex(b.Field.Index).Set(v)
		return nil
	}

	out := p.MethodByName(b.Field.Setter).Call([]reflect.Value{v})
	if len(out) == 1 && !out[0].IsNil() {
		return fmt.Errorf("%s.%s: %w", p.Elem().Type().Name(), b.Field.Setter, out[0].Interface().(error))
	}

	return nil
}

// Variable converts a field value into a CEL variable: numbers, text, booleans,
// time.Time and time.Duration natively, sequences as lists, anything else as its cell
// text.
func (b *Binding) Variable(v reflect.Value) (any, error) {
	v, ok := codec.Indirect(v)
	if !ok {
		return nil, nil
	}

	switch v.Type() {
	case durationType, timeType:
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice, reflect.Array:
		list := make([]any, v.Len())
		for i := range v.Len() {
			item, err := b.Variable(v.Index(i))
			if err != nil {
				return nil, err
			}

			list[i] = item
		}

		return list, nil
	}

	c, ok := b.reg.Lookup(v.Type())
	if !ok {
		return nil, fmt.Errorf("%w for %s", sequence.ErrNoHandler, v.Type())
	}

	return c.Stringify(v, codec.Context{Field: b.Field.Name, Type: v.Type(), Pattern: b.Field.Format})
}

// Eval computes an expression field from vars, a fresh activation built by the caller.
// A result CEL can convert natively is converted to the field type. Anything else is
// rendered as cell text by the codec of its native type and decoded into the field.
// A null result yields the zero value.
func (b *Binding) Eval(vars map[string]any) (reflect.Value, error) {
	if b.program == nil {
		return reflect.Value{}, fmt.Errorf("field %s has no expression", b.Field.Name)
	}

	out, _, err := b.program.Eval(vars)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("field %s: evaluate %q: %w", b.Field.Name, b.Field.Expression, err)
	}

	if isNull(out) {
		return reflect.Zero(b.Field.Type), nil
	}

	// CEL hands back its own values for interface elements.
	if elementType(b.Field.Type).Kind() != reflect.Interface {
		if native, err := out.ConvertToNative(codec.Leaf(b.Field.Type, nil)); err == nil {
			if v, err := codec.Produce(reflect.ValueOf(native), b.Field.Type); err == nil {
				return v, nil
			}
		}
	}

	native, err := nativeOf(out)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("field %s: %w", b.Field.Name, err)
	}

	text, err := b.encodeDynamic(reflect.ValueOf(native))
	if err != nil {
		return reflect.Value{}, err
	}

	if text == "" {
		return reflect.Zero(b.Field.Type), nil
	}

	return b.Decode(text)
}
