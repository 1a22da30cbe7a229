package codec

import (
	"errors"
	"fmt"
	"reflect"
)

// FormatError reports structurally malformed cell text: an unclosed bracket in a
// sequence, a locale with stray characters. It is never retried.
type FormatError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed text %q at position %d: %s", e.Source, e.Pos, e.Msg)
}

// ConversionError reports that a codec failed to convert one value of one field.
type ConversionError struct {
	Source string
	Field  string
	Type   reflect.Type
	Err    error
}

func (e *ConversionError) Error() string {
	typ := "<nil>"
	if e.Type != nil {
		typ = e.Type.String()
	}

	if e.Field == "" {
		return fmt.Sprintf("cannot convert %q to %s: %v", e.Source, typ, e.Err)
	}

	return fmt.Sprintf("field %s: cannot convert %q to %s: %v", e.Field, e.Source, typ, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Fail tags err with the source text and the field context. An error that already is a
// ConversionError is returned unchanged, so nested codecs keep the innermost report.
func Fail(source string, ctx Context, err error) error {
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return err
	}

	return &ConversionError{Source: source, Field: ctx.Field, Type: ctx.Type, Err: err}
}
