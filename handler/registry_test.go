package handler_test

import (
	"net/netip"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmapper/codec"
	"rowmapper/handler"
	"rowmapper/locale"
)

type Status string

type Ratio float64

type Point struct{ X, Y int }

func TestDefault_Builtins(t *testing.T) {
	t.Parallel()

	reg := handler.Default()

	for _, typ := range []reflect.Type{
		reflect.TypeFor[int](), reflect.TypeFor[*int](),
		reflect.TypeFor[uint16](), reflect.TypeFor[*float32](),
		reflect.TypeFor[bool](), reflect.TypeFor[string](),
		reflect.TypeFor[time.Time](), reflect.TypeFor[*time.Duration](),
		reflect.TypeFor[civil.Date](), reflect.TypeFor[civil.Time](), reflect.TypeFor[civil.DateTime](),
		reflect.TypeFor[locale.Locale](), reflect.TypeFor[*locale.Locale](),
	} {
		assert.True(t, reg.Exact(typ), typ.String())
	}

	assert.Same(t, handler.Default(), reg)
}

func TestLookup_PairSharesCodec(t *testing.T) {
	t.Parallel()

	reg := handler.Default()

	value, ok := reg.Lookup(reflect.TypeFor[int64]())
	require.True(t, ok)

	pointer, ok := reg.Lookup(reflect.TypeFor[*int64]())
	require.True(t, ok)

	assert.Equal(t, codec.Int, value)
	assert.Equal(t, value, pointer)
}

func TestLookup_Fallbacks(t *testing.T) {
	t.Parallel()

	reg := handler.Default()

	c, ok := reg.Lookup(reflect.TypeFor[Status]())
	require.True(t, ok)
	assert.Equal(t, codec.Enum, c)

	c, ok = reg.Lookup(reflect.TypeFor[*Status]())
	require.True(t, ok)
	assert.Equal(t, codec.Enum, c)

	c, ok = reg.Lookup(reflect.TypeFor[Ratio]())
	require.True(t, ok)
	assert.Equal(t, codec.Float, c)

	c, ok = reg.Lookup(reflect.TypeFor[netip.Addr]())
	require.True(t, ok)
	assert.Equal(t, codec.Text, c)

	_, ok = reg.Lookup(reflect.TypeFor[Point]())
	assert.False(t, ok)

	_, ok = reg.Lookup(reflect.TypeFor[[]int]())
	assert.False(t, ok)

	_, ok = reg.Lookup(nil)
	assert.False(t, ok)
}

func TestBuild_Duplicates(t *testing.T) {
	t.Parallel()

	_, err := handler.NewBuilder().
		Register(reflect.TypeFor[int](), codec.Int).
		Register(reflect.TypeFor[int](), codec.Int).
		RegisterNamed("upper", codec.String).
		RegisterNamed("upper", codec.String).
		Build()
	require.ErrorIs(t, err, handler.ErrDuplicateHandler)
	assert.Contains(t, err.Error(), "for type int")
	assert.Contains(t, err.Error(), `named "upper"`)

	_, err = handler.Default().Extend().RegisterPair(reflect.TypeFor[string](), codec.String).Build()
	require.ErrorIs(t, err, handler.ErrDuplicateHandler)
}

func TestExtend(t *testing.T) {
	t.Parallel()

	pointCodec := codec.Of(
		func(p Point, _ codec.Context) (string, error) { return "pt", nil },
		func(string, codec.Context) (Point, error) { return Point{X: 1, Y: 2}, nil },
	)

	reg, err := handler.Pair[Point](handler.Default().Extend(), pointCodec).
		RegisterNamed("point", pointCodec).
		Build()
	require.NoError(t, err)

	assert.Equal(t, handler.Default().Len()+2, reg.Len())

	c, ok := reg.Lookup(reflect.TypeFor[*Point]())
	require.True(t, ok)

	v, err := c.Parse("x", codec.Context{Type: reflect.TypeFor[*Point]()})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, *v.Interface().(*Point))

	_, ok = reg.Named("point")
	assert.True(t, ok)

	_, ok = handler.Default().Lookup(reflect.TypeFor[Point]())
	assert.False(t, ok)

	entries := reg.Entries()
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Type.String(), entries[i].Type.String())
	}
}
