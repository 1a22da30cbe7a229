// Package handler provides the registry that resolves a runtime type to the codec
// responsible for it.
//
// A Registry is built once through a Builder and is immutable afterwards, so it can be
// shared by any number of goroutines. Duplicate registrations are configuration errors
// reported by Builder.Build, never at lookup time.
package handler

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"rowmapper/codec"
	"rowmapper/locale"
	"rowmapper/primitive"
)

var ErrDuplicateHandler = errors.New("duplicate handler")

// Entry pairs a runtime type with its codec.
type Entry struct {
	Type  reflect.Type
	Codec codec.Codec
}

type namedEntry struct {
	name  string
	codec codec.Codec
}

// Builder collects registrations. It is not safe for concurrent use.
type Builder struct {
	entries []Entry
	named   []namedEntry
	enum    codec.Codec
}

// NewBuilder returns an empty builder whose enum fallback is codec.Enum.
func NewBuilder() *Builder {
	return &Builder{enum: codec.Enum}
}

// Register maps t to c.
func (b *Builder) Register(t reflect.Type, c codec.Codec) *Builder {
	b.entries = append(b.entries, Entry{Type: t, Codec: c})
	return b
}

// RegisterPair maps both t and *t to the same codec instance.
func (b *Builder) RegisterPair(t reflect.Type, c codec.Codec) *Builder {
	return b.Register(t, c).Register(reflect.PointerTo(t), c)
}

// RegisterNamed adds a codec that fields select by name, bypassing type lookup.
func (b *Builder) RegisterNamed(name string, c codec.Codec) *Builder {
	b.named = append(b.named, namedEntry{name: name, codec: c})
	return b
}

// RegisterEnum replaces the shared codec used for enum types without an exact entry.
func (b *Builder) RegisterEnum(c codec.Codec) *Builder {
	b.enum = c
	return b
}

// Pair registers T and *T with c.
func Pair[T any](b *Builder, c codec.Codec) *Builder {
	return b.RegisterPair(reflect.TypeFor[T](), c)
}

// Build validates the registrations and returns the immutable registry. Every
// duplicate is reported, joined into one error.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		byType: make(map[reflect.Type]codec.Codec, len(b.entries)),
		named:  make(map[string]codec.Codec, len(b.named)),
		enum:   b.enum,
	}

	var errs []error

	for _, e := range b.entries {
		if e.Type == nil || e.Codec == nil {
			errs = append(errs, fmt.Errorf("handler: nil type or codec in registration of %v", e.Type))
			continue
		}

		if _, exists := r.byType[e.Type]; exists {
			errs = append(errs, fmt.Errorf("%w for type %s", ErrDuplicateHandler, e.Type))
			continue
		}

		r.byType[e.Type] = e.Codec
	}

	for _, e := range b.named {
		if _, exists := r.named[e.name]; exists {
			errs = append(errs, fmt.Errorf("%w named %q", ErrDuplicateHandler, e.name))
			continue
		}

		r.named[e.name] = e.codec
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return r, nil
}

// Registry is an immutable type-keyed codec lookup.
type Registry struct {
	byType map[reflect.Type]codec.Codec
	named  map[string]codec.Codec
	enum   codec.Codec
}

// Lookup returns the codec for t. Without an exact entry it falls back to the shared
// enum codec for named integer and string types (and pointers to them), to the codec
// of the underlying kind for other named bool and float types, and to codec.Text for
// types implementing the encoding text interfaces. It reports false when nothing
// handles t.
func (r *Registry) Lookup(t reflect.Type) (codec.Codec, bool) {
	if t == nil {
		return nil, false
	}

	if c, ok := r.byType[t]; ok {
		return c, true
	}

	leaf := codec.Leaf(t, nil)

	if primitive.FromReflectType(leaf) == primitive.KindPrimitiveEnum && r.enum != nil {
		if codec.IsText(leaf) {
			return codec.Text, true
		}

		return r.enum, true
	}

	if leaf.Name() != "" {
		switch leaf.Kind() {
		case reflect.Bool:
			return codec.Bool, true
		case reflect.Float32, reflect.Float64:
			return codec.Float, true
		}
	}

	if codec.IsText(leaf) {
		return codec.Text, true
	}

	return nil, false
}

// Exact reports whether t has a dedicated entry.
func (r *Registry) Exact(t reflect.Type) bool {
	_, ok := r.byType[t]
	return ok
}

// Named returns the codec registered under name.
func (r *Registry) Named(name string) (codec.Codec, bool) {
	c, ok := r.named[name]
	return c, ok
}

// Names returns the names of the named codecs, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Len returns the number of type entries.
func (r *Registry) Len() int {
	return len(r.byType)
}

// Entries returns a snapshot of the type entries ordered by type name.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.byType))
	for t, c := range r.byType {
		entries = append(entries, Entry{Type: t, Codec: c})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Type.String(), b.Type.String())
	})

	return entries
}

// Extend returns a builder seeded with every registration of r, for adding custom
// codecs on top of an existing registry.
func (r *Registry) Extend() *Builder {
	b := NewBuilder()
	b.entries = r.Entries()
	b.enum = r.enum

	for _, name := range r.Names() {
		b.named = append(b.named, namedEntry{name: name, codec: r.named[name]})
	}

	return b
}

// Default returns the built-in registry: value and pointer forms of every Go numeric
// kind, bool, string, time.Time, time.Duration, the civil date and time types and
// locale.Locale.
func Default() *Registry {
	return defaultRegistry()
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	b := NewBuilder()

	for _, k := range []primitive.KindEnum{
		primitive.KindInt, primitive.KindInt8, primitive.KindInt16, primitive.KindInt32, primitive.KindInt64,
	} {
		b.RegisterPair(k.ReflectType(), codec.Int)
	}

	for _, k := range []primitive.KindEnum{
		primitive.KindUint, primitive.KindUint8, primitive.KindUint16, primitive.KindUint32, primitive.KindUint64,
	} {
		b.RegisterPair(k.ReflectType(), codec.Uint)
	}

	Pair[float32](b, codec.Float)
	Pair[float64](b, codec.Float)
	Pair[bool](b, codec.Bool)
	Pair[string](b, codec.String)
	Pair[time.Time](b, codec.Time)
	Pair[time.Duration](b, codec.Duration)
	Pair[civil.Date](b, codec.Date)
	Pair[civil.Time](b, codec.TimeOfDay)
	Pair[civil.DateTime](b, codec.DateTime)
	Pair[locale.Locale](b, codec.Locale)

	r, err := b.Build()
	if err != nil {
		panic(err)
	}

	return r
})
