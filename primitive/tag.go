package primitive

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var ErrUnknownTypeTag = errors.New("unknown type tag")

var kindNames = map[string]KindEnum{
	"int":       KindInt,
	"int8":      KindInt8,
	"int16":     KindInt16,
	"int32":     KindInt32,
	"int64":     KindInt64,
	"uint":      KindUint,
	"uint8":     KindUint8,
	"byte":      KindUint8,
	"uint16":    KindUint16,
	"uint32":    KindUint32,
	"uint64":    KindUint64,
	"float32":   KindFloat32,
	"float64":   KindFloat64,
	"bool":      KindBool,
	"string":    KindString,
	"time":      KindTime,
	"timestamp": KindTime,
	"duration":  KindDuration,
	"date":      KindDate,
	"timeofday": KindTimeOfDay,
	"datetime":  KindDateTime,
	"locale":    KindLocale,
}

// FromName returns the kind for a leaf type name such as "int64" or "locale".
func FromName(name string) KindEnum {
	return kindNames[strings.ToLower(strings.TrimSpace(name))]
}

// ParseTypeTag converts a type tag into a runtime type. A tag is a leaf name optionally
// prefixed with "*" (nullable) and any number of "[]" (sequence rank):
//
//	int        -> int
//	*int       -> *int
//	[]string   -> []string
//	[][]*int   -> [][]*int
func ParseTypeTag(tag string) (reflect.Type, error) {
	rest := strings.TrimSpace(tag)

	depth := 0
	for strings.HasPrefix(rest, "[]") {
		depth++
		rest = rest[2:]
	}

	nullable := strings.HasPrefix(rest, "*")
	rest = strings.TrimPrefix(rest, "*")

	t := FromName(rest).ReflectType()
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTypeTag, tag)
	}

	if nullable {
		t = reflect.PointerTo(t)
	}

	for range depth {
		t = reflect.SliceOf(t)
	}

	return t, nil
}
