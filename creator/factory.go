// Package creator chooses the constructor or factory function used to instantiate a
// record and binds its parameters to the record's mapped fields.
package creator

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"rowmapper/internal/common"
)

var (
	ErrNotAFactory           = errors.New("provided function is not a recognizable factory")
	ErrFactoryIsNotAFunction = errors.New("provided factory is not a function")
	ErrDoublePointer         = errors.New("factory function does not support double pointers")
)

var errorType = reflect.TypeFor[error]()

// Visibility ranks candidates when none is designated; lower ranks win.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPackage
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPackage:
		return "package"
	case VisibilityPrivate:
		return "private"
	default:
		return common.UnknownStr
	}
}

// Candidate is one function able to create a record.
type Candidate struct {
	Fn           reflect.Value
	PackageAlias string
	Name         string
	// Params are the parameter types in position order.
	Params []reflect.Type
	// ParamNames hold the explicit field name of each parameter, "" when unnamed.
	ParamNames []string
	// Out is the record type created, without the pointer.
	Out            reflect.Type
	ReturnsPointer bool
	HasErr         bool
	Designated     bool
	Visibility     Visibility
}

// Option adjusts a candidate.
type Option func(*Candidate) error

// Designated marks the candidate as the one to use among several.
func Designated() Option {
	return func(c *Candidate) error {
		c.Designated = true
		return nil
	}
}

// Params names the field each parameter binds to, in position order. An empty name
// leaves the parameter to be bound by type.
func Params(names ...string) Option {
	return func(c *Candidate) error {
		if len(names) > len(c.Params) {
			return fmt.Errorf("%w: %d parameter names for %d parameters of %s", ErrNotAFactory, len(names), len(c.Params), c.Name)
		}

		copy(c.ParamNames, names)

		return nil
	}
}

// WithVisibility overrides the visibility derived from the function name.
func WithVisibility(v Visibility) Option {
	return func(c *Candidate) error {
		c.Visibility = v
		return nil
	}
}

// ParseFactory inspects the provided function and returns a Candidate if it is a valid
// factory function.
//
// Supports signatures:
//   - func(...) T
//   - func(...) *T
//   - func(...) (T, error)
//   - func(...) (*T, error)
func ParseFactory(fn any) (Candidate, error) {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func || fnVal.IsNil() {
		return Candidate{}, ErrFactoryIsNotAFunction
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() || fnType.NumOut() == 0 || fnType.NumOut() > 2 {
		return Candidate{}, ErrNotAFactory
	}

	if fnType.NumOut() == 2 && fnType.Out(1) != errorType {
		return Candidate{}, ErrNotAFactory
	}

	out := fnType.Out(0)
	returnsPointer := out.Kind() == reflect.Pointer

	if returnsPointer {
		out = out.Elem()
		if out.Kind() == reflect.Pointer {
			return Candidate{}, ErrDoublePointer
		}
	}

	if out.Kind() != reflect.Struct {
		return Candidate{}, ErrNotAFactory
	}

	full := runtime.FuncForPC(fnVal.Pointer()).Name()
	alias, name := common.Unpack2(strings.SplitN(full[strings.LastIndexByte(full, '/')+1:], ".", 2))

	c := Candidate{
		Fn:             fnVal,
		PackageAlias:   alias,
		Name:           name,
		Params:         make([]reflect.Type, fnType.NumIn()),
		ParamNames:     make([]string, fnType.NumIn()),
		Out:            out,
		ReturnsPointer: returnsPointer,
		HasErr:         fnType.NumOut() == 2,
		Visibility:     visibilityOf(name),
	}

	for i := range c.Params {
		c.Params[i] = fnType.In(i)
	}

	return c, nil
}

// Factory parses fn and applies opts.
func Factory(fn any, opts ...Option) (Candidate, error) {
	c, err := ParseFactory(fn)
	if err != nil {
		return Candidate{}, err
	}

	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Candidate{}, err
		}
	}

	return c, nil
}

// MustFactory is Factory that panics on error, for package-level declarations.
func MustFactory(fn any, opts ...Option) Candidate {
	c, err := Factory(fn, opts...)
	if err != nil {
		panic(err)
	}

	return c
}

// visibilityOf derives the visibility from the last segment of a runtime function name:
// exported names are public, closures and unexported names package-level.
func visibilityOf(name string) Visibility {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	r, _ := utf8.DecodeRuneInString(strings.TrimSuffix(name, "-fm"))
	if unicode.IsUpper(r) {
		return VisibilityPublic
	}

	return VisibilityPackage
}

// String renders the candidate as package.Name(param types).
func (c Candidate) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.String()
		if c.ParamNames[i] != "" {
			params[i] = c.ParamNames[i] + " " + params[i]
		}
	}

	return fmt.Sprintf("%s.%s(%s)", c.PackageAlias, c.Name, strings.Join(params, ", "))
}
