package creator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrUnknownField      = errors.New("parameter names an unknown field")
	ErrParamTypeMismatch = errors.New("parameter type does not match the named field")
	ErrWrongTarget       = errors.New("factory creates another type")
	ErrNilRecord         = errors.New("factory returned a nil record")
)

// AmbiguityError reports that no single creator or no single parameter binding could be
// chosen.
type AmbiguityError struct {
	Target     reflect.Type
	Reason     string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	msg := fmt.Sprintf("ambiguous creator for %s: %s", e.Target, e.Reason)
	if len(e.Candidates) > 0 {
		msg += " [" + strings.Join(e.Candidates, "; ") + "]"
	}

	return msg
}

// UnresolvedTypeError reports a parameter whose type has too few mapped fields.
type UnresolvedTypeError struct {
	Target   reflect.Type
	Position int
	Type     reflect.Type
	Fields   int
	Params   int
}

func (e *UnresolvedTypeError) Error() string {
	if e.Fields == 0 {
		return fmt.Sprintf("creator for %s: parameter %d: no mapped field of type %s", e.Target, e.Position, e.Type)
	}

	return fmt.Sprintf("creator for %s: parameter %d: %d parameters of type %s but only %d mapped fields",
		e.Target, e.Position, e.Params, e.Type, e.Fields)
}
