package sequence

import (
	"reflect"

	"rowmapper/codec"
	"rowmapper/handler"
)

type DispatcherEnum int

const (
	DispatcherUnknown   DispatcherEnum = iota
	DispatcherScalar                   // a registry codec handles the whole value
	DispatcherSequence                 // slice or array, possibly behind pointers
	DispatcherInterface                // any: leaves stay strings, nested sequences become []any

	// DispatcherTotal is a constant that represents the total number of dispatchers defined
	DispatcherTotal = int(iota)
)

// Dispatch decides how values of t are converted. An exact registry entry wins over the
// sequence shape, so a codec registered for a slice type handles it as a scalar.
func Dispatch(reg *handler.Registry, t reflect.Type) DispatcherEnum {
	if t == nil {
		return DispatcherUnknown
	}

	if reg.Exact(t) {
		return DispatcherScalar
	}

	base := codec.Leaf(t, nil)

	switch base.Kind() {
	case reflect.Slice, reflect.Array:
		if reg.Exact(base) {
			return DispatcherScalar
		}

		return DispatcherSequence
	case reflect.Interface:
		if base.NumMethod() == 0 {
			return DispatcherInterface
		}
	}

	if _, ok := reg.Lookup(t); ok {
		return DispatcherScalar
	}

	return DispatcherUnknown
}

// Rank counts the nested slice or array levels of t, looking through pointers.
func Rank(t reflect.Type) int {
	rank := 0

	for t = codec.Leaf(t, nil); t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array); t = codec.Leaf(t.Elem(), nil) {
		rank++
	}

	return rank
}
