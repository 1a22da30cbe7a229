// Package sequence encodes slices and arrays of any depth into a single cell and back.
//
// The cell grammar is
//
//	sequence := "[" [ element ( ", " element )* ] "]"
//	element  := sequence | scalar | ""
//
// where an empty element marks a null slot. Scalars are rendered by the registry codec
// of their type; characters of the grammar inside scalar text are backslash-escaped.
package sequence

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"rowmapper/codec"
	"rowmapper/handler"
)

var (
	ErrRankAmbiguous = errors.New("sequence element holds a multi-dimensional array")
	ErrNotSequence   = errors.New("not a sequence type")
	ErrNoHandler     = errors.New("no handler registered")
)

var anySliceType = reflect.TypeFor[[]any]()

// Codec converts sequences using a handler registry for the leaves.
type Codec struct {
	reg  *handler.Registry
	leaf codec.Codec
}

// New returns a sequence codec over reg.
func New(reg *handler.Registry) *Codec {
	return &Codec{reg: reg}
}

// WithLeaf returns a copy of c that converts every scalar leaf with leaf instead of the
// registry codec of its type.
func (c *Codec) WithLeaf(leaf codec.Codec) *Codec {
	return &Codec{reg: c.reg, leaf: leaf}
}

// Encode renders v. A nil slice or pointer renders as the empty (null) cell and an empty
// sequence as "[]".
func (c *Codec) Encode(v reflect.Value, ctx codec.Context) (string, error) {
	v, ok := codec.Indirect(v)
	if !ok || (v.Kind() == reflect.Slice && v.IsNil()) {
		return "", nil
	}

	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return "", fmt.Errorf("%w: %s", ErrNotSequence, v.Type())
	}

	var sb strings.Builder
	if err := c.encodeSequence(&sb, v, ctx); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func (c *Codec) encodeSequence(sb *strings.Builder, v reflect.Value, ctx codec.Context) error {
	sb.WriteByte(openBracket)

	for i := range v.Len() {
		if i > 0 {
			sb.WriteString(separator)
		}

		if err := c.encodeElement(sb, v.Index(i), ctx); err != nil {
			return err
		}
	}

	sb.WriteByte(closeBracket)

	return nil
}

func (c *Codec) encodeElement(sb *strings.Builder, e reflect.Value, ctx codec.Context) error {
	held := e.Kind() == reflect.Interface

	e, ok := codec.Indirect(e)
	if !ok {
		return nil
	}

	if c.dispatch(e.Type()) == DispatcherSequence {
		if e.Kind() == reflect.Slice && e.IsNil() {
			return nil
		}

		if held && Rank(e.Type()) >= 2 {
			return fmt.Errorf("%w: %s in field %s", ErrRankAmbiguous, e.Type(), ctx.Field)
		}

		return c.encodeSequence(sb, e, ctx)
	}

	leafCtx := codec.Context{Field: ctx.Field, Type: e.Type(), Pattern: ctx.Pattern}

	lc, err := c.codecFor(e.Type(), leafCtx)
	if err != nil {
		return err
	}

	s, err := lc.Stringify(e, leafCtx)
	if err != nil {
		return err
	}

	sb.WriteString(escape(s))

	return nil
}

// Decode parses s into a value of type t. The empty cell yields the zero value of t
// (nil for slices and pointers).
func (c *Codec) Decode(s string, t reflect.Type, ctx codec.Context) (reflect.Value, error) {
	if s == "" {
		return reflect.Zero(t), nil
	}

	return c.decode(s, t, ctx)
}

func (c *Codec) decode(s string, t reflect.Type, ctx codec.Context) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Pointer:
		inner, err := c.decode(s, t.Elem(), ctx)
		if err != nil {
			return reflect.Value{}, err
		}

		p := reflect.New(t.Elem())
		p.Elem().Set(inner)

		return p, nil
	case reflect.Interface:
		var v reflect.Value
		if s[0] == openBracket {
			seq, err := c.decode(s, anySliceType, ctx)
			if err != nil {
				return reflect.Value{}, err
			}

			v = seq
		} else {
			v = reflect.ValueOf(unescape(s))
		}

		out, err := codec.Produce(v, t)
		if err != nil {
			return reflect.Value{}, codec.Fail(s, codec.Context{Field: ctx.Field, Type: t}, err)
		}

		return out, nil
	case reflect.Slice, reflect.Array:
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrNotSequence, t)
	}

	seqCtx := codec.Context{Field: ctx.Field, Type: t, Pattern: ctx.Pattern}

	tokens, err := Split(s)
	if err != nil {
		return reflect.Value{}, codec.Fail(s, seqCtx, err)
	}

	var out reflect.Value

	if t.Kind() == reflect.Slice {
		out = reflect.MakeSlice(t, len(tokens), len(tokens))
	} else {
		if len(tokens) > t.Len() {
			msg := fmt.Sprintf("%d elements do not fit into %s", len(tokens), t)
			return reflect.Value{}, codec.Fail(s, seqCtx, &codec.FormatError{Source: s, Pos: len(s) - 1, Msg: msg})
		}

		out = reflect.New(t).Elem()
	}

	for i, token := range tokens {
		ev, err := c.decodeElement(token, t.Elem(), ctx)
		if err != nil {
			return reflect.Value{}, err
		}

		out.Index(i).Set(ev)
	}

	return out, nil
}

func (c *Codec) decodeElement(token string, et reflect.Type, ctx codec.Context) (reflect.Value, error) {
	if token == "" {
		return reflect.Zero(et), nil
	}

	switch c.dispatch(et) {
	case DispatcherSequence:
		if token[0] != openBracket {
			err := &codec.FormatError{Source: token, Pos: 0, Msg: "nested sequence expected"}
			return reflect.Value{}, codec.Fail(token, codec.Context{Field: ctx.Field, Type: et}, err)
		}

		return c.decode(token, et, ctx)
	case DispatcherInterface:
		return c.decode(token, et, ctx)
	}

	leafCtx := codec.Context{Field: ctx.Field, Type: et, Pattern: ctx.Pattern}

	lc, err := c.codecFor(et, leafCtx)
	if err != nil {
		return reflect.Value{}, err
	}

	return lc.Parse(unescape(token), leafCtx)
}

// dispatch classifies element types. With a leaf override every slice or array is a
// nested sequence and everything else goes to the override.
func (c *Codec) dispatch(t reflect.Type) DispatcherEnum {
	if c.leaf == nil {
		return Dispatch(c.reg, t)
	}

	if Rank(t) > 0 {
		return DispatcherSequence
	}

	return DispatcherScalar
}

func (c *Codec) codecFor(t reflect.Type, ctx codec.Context) (codec.Codec, error) {
	if c.leaf != nil {
		return c.leaf, nil
	}

	lc, ok := c.reg.Lookup(t)
	if !ok {
		return nil, codec.Fail("", ctx, fmt.Errorf("%w for %s", ErrNoHandler, t))
	}

	return lc, nil
}
