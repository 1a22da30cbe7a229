package primitive

import (
	"math"
	"reflect"
	"time"

	"cloud.google.com/go/civil"

	"rowmapper/locale"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

// KindEnum is the type tag of a leaf (scalar) value. It drives handler lookup for
// dynamic schemas, where there is no Go record type to reflect on.
type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration
	KindDate
	KindTimeOfDay
	KindDateTime
	KindLocale
	KindPrimitiveEnum // alias to any named integer or string type
)

func (k KindEnum) IsInteger() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

// Bits returns the bit size used when parsing text into a value of the kind.
func (k KindEnum) Bits() int {
	switch k {
	default:
		panic("only numeric kinds has meaningful bits amount, but requested for: " + k.String())
	case KindInt, KindUint:
		power := 0
		for n := uint(math.MaxUint); n > 0; n >>= 1 {
			power++
		}
		return power
	case KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	case KindInt64, KindUint64, KindFloat64:
		return 64
	}
}

// ReflectType returns the canonical Go type of the kind, or nil for KindPrimitiveEnum
// and invalid kinds.
func (k KindEnum) ReflectType() reflect.Type {
	if k <= 0 || int(k) >= len(kindTypes) {
		return nil
	}

	return kindTypes[k]
}

var kindTypes = [...]reflect.Type{
	KindInt:       reflect.TypeFor[int](),
	KindInt8:      reflect.TypeFor[int8](),
	KindInt16:     reflect.TypeFor[int16](),
	KindInt32:     reflect.TypeFor[int32](),
	KindInt64:     reflect.TypeFor[int64](),
	KindUint:      reflect.TypeFor[uint](),
	KindUint8:     reflect.TypeFor[uint8](),
	KindUint16:    reflect.TypeFor[uint16](),
	KindUint32:    reflect.TypeFor[uint32](),
	KindUint64:    reflect.TypeFor[uint64](),
	KindFloat32:   reflect.TypeFor[float32](),
	KindFloat64:   reflect.TypeFor[float64](),
	KindBool:      reflect.TypeFor[bool](),
	KindString:    reflect.TypeFor[string](),
	KindTime:      reflect.TypeFor[time.Time](),
	KindDuration:  reflect.TypeFor[time.Duration](),
	KindDate:      reflect.TypeFor[civil.Date](),
	KindTimeOfDay: reflect.TypeFor[civil.Time](),
	KindDateTime:  reflect.TypeFor[civil.DateTime](),
	KindLocale:    reflect.TypeFor[locale.Locale](),
}

// FromReflectType classifies a runtime type. Pointers are not dereferenced: a pointer is
// never a leaf kind by itself.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	// check if true primitive type
	for k, t := range kindTypes {
		if t != nil && t == rtype {
			return KindEnum(k)
		}
	}

	// check if it's a primitive enum type
	if rtype.Name() == "" {
		return 0
	}

	switch rtype.Kind() {
	default:
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.String:
		return KindPrimitiveEnum
	}
}

// FromKind maps a reflect.Kind to the kind of its unnamed Go type. Used for narrowing
// named types (type Age int) onto the numeric codecs.
func FromKind(kind reflect.Kind) KindEnum {
	switch kind {
	default:
		return 0
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	}
}
