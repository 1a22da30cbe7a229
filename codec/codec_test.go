package codec_test

import (
	"errors"
	"net/netip"
	"reflect"
	"strconv"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmapper/codec"
	"rowmapper/locale"
)

type Age int

type Color string

func (c Color) IsValid() bool { return c == "red" || c == "green" }

type Level int

const (
	LevelLow Level = iota
	LevelMid
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMid:
		return "mid"
	case LevelHigh:
		return "high"
	default:
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
}

type Sign int8

const (
	SignNeg  Sign = -1
	SignZero Sign = 0
	SignPos  Sign = 1
)

func (s Sign) String() string {
	switch s {
	case SignNeg:
		return "neg"
	case SignZero:
		return "zero"
	case SignPos:
		return "pos"
	default:
		return "Sign(" + strconv.Itoa(int(s)) + ")"
	}
}

type Code int

const CodeBig Code = 5000

func (c Code) String() string {
	if c == CodeBig {
		return "big"
	}

	return "Code(" + strconv.Itoa(int(c)) + ")"
}

type Suit string

func (s Suit) String() string { return "SUIT:" + string(s) }

func ctxFor[T any](pattern string) codec.Context {
	return codec.Context{Field: "F", Type: reflect.TypeFor[T](), Pattern: pattern}
}

func TestInt_NarrowingAndPointers(t *testing.T) {
	t.Parallel()

	v, err := codec.Int.Parse("5", ctxFor[int8](""))
	require.NoError(t, err)
	assert.Equal(t, int8(5), v.Interface())

	v, err = codec.Int.Parse("5", ctxFor[*int](""))
	require.NoError(t, err)
	assert.Equal(t, 5, *v.Interface().(*int))

	v, err = codec.Int.Parse("42", ctxFor[Age](""))
	require.NoError(t, err)
	assert.Equal(t, Age(42), v.Interface())

	_, err = codec.Int.Parse("300", ctxFor[int8](""))
	var convErr *codec.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "300", convErr.Source)
	assert.Equal(t, "F", convErr.Field)
	assert.Equal(t, reflect.TypeFor[int8](), convErr.Type)

	s, err := codec.Int.Stringify(reflect.ValueOf(Age(7)), ctxFor[Age](""))
	require.NoError(t, err)
	assert.Equal(t, "7", s)

	s, err = codec.Int.Stringify(reflect.ValueOf((*int)(nil)), ctxFor[*int](""))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestUintAndFloat(t *testing.T) {
	t.Parallel()

	v, err := codec.Uint.Parse("255", ctxFor[uint8](""))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v.Interface())

	_, err = codec.Uint.Parse("-1", ctxFor[uint](""))
	require.Error(t, err)

	v, err = codec.Float.Parse("1.5", ctxFor[*float32](""))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, *v.Interface().(*float32), 1e-9)

	s, err := codec.Float.Stringify(reflect.ValueOf(float32(0.1)), ctxFor[float32](""))
	require.NoError(t, err)
	assert.Equal(t, "0.1", s)

	_, err = codec.Float.Parse("abc", ctxFor[float64](""))
	require.Error(t, err)
}

func TestBool(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"true", "YES", "on", "1"} {
		v, err := codec.Bool.Parse(s, ctxFor[bool](""))
		require.NoError(t, err)
		assert.Equal(t, true, v.Interface(), s)
	}

	_, err := codec.Bool.Parse("maybe", ctxFor[bool](""))
	require.Error(t, err)
}

func TestTime_PatternOverride(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, time.March, 9, 14, 5, 0, 0, time.UTC)

	s, err := codec.Time.Stringify(reflect.ValueOf(ts), ctxFor[time.Time](""))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09T14:05:00Z", s)

	s, err = codec.Time.Stringify(reflect.ValueOf(ts), ctxFor[time.Time]("02/01/2006 15:04"))
	require.NoError(t, err)
	assert.Equal(t, "09/03/2024 14:05", s)

	v, err := codec.Time.Parse("09/03/2024 14:05", ctxFor[time.Time]("02/01/2006 15:04"))
	require.NoError(t, err)
	assert.True(t, ts.Equal(v.Interface().(time.Time)))

	_, err = codec.Time.Parse("yesterday", ctxFor[time.Time](""))
	var convErr *codec.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "yesterday", convErr.Source)
}

func TestCivil(t *testing.T) {
	t.Parallel()

	d := civil.Date{Year: 2023, Month: time.December, Day: 31}
	s, err := codec.Date.Stringify(reflect.ValueOf(d), ctxFor[civil.Date](""))
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", s)

	v, err := codec.Date.Parse("31.12.2023", ctxFor[civil.Date]("02.01.2006"))
	require.NoError(t, err)
	assert.Equal(t, d, v.Interface())

	tod := civil.Time{Hour: 9, Minute: 30, Second: 15, Nanosecond: 500000000}
	s, err = codec.TimeOfDay.Stringify(reflect.ValueOf(tod), ctxFor[civil.Time](""))
	require.NoError(t, err)
	assert.Equal(t, "09:30:15.5", s)

	v, err = codec.TimeOfDay.Parse(s, ctxFor[civil.Time](""))
	require.NoError(t, err)
	assert.Equal(t, tod, v.Interface())

	dt := civil.DateTime{Date: d, Time: civil.Time{Hour: 23, Minute: 59}}
	s, err = codec.DateTime.Stringify(reflect.ValueOf(dt), ctxFor[civil.DateTime](""))
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31T23:59:00", s)

	v, err = codec.DateTime.Parse(s, ctxFor[*civil.DateTime](""))
	require.NoError(t, err)
	assert.Equal(t, dt, *v.Interface().(*civil.DateTime))
}

func TestDuration(t *testing.T) {
	t.Parallel()

	v, err := codec.Duration.Parse("1h30m", ctxFor[time.Duration](""))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, v.Interface())

	s, err := codec.Duration.Stringify(reflect.ValueOf(90*time.Minute), ctxFor[time.Duration](""))
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", s)
}

func TestLocale(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "en", "en_US", "de_DE_1901"} {
		v, err := codec.Locale.Parse(text, ctxFor[locale.Locale](""))
		require.NoError(t, err)

		s, err := codec.Locale.Stringify(v, ctxFor[locale.Locale](""))
		require.NoError(t, err)
		assert.Equal(t, text, s)
	}

	v, err := codec.Locale.Parse("pt-BR", ctxFor[locale.Locale](codec.PatternBCP47))
	require.NoError(t, err)
	assert.Equal(t, locale.Make("pt", "BR", ""), v.Interface())

	s, err := codec.Locale.Stringify(v, ctxFor[locale.Locale](codec.PatternBCP47))
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", s)

	_, err = codec.Locale.Parse("en US", ctxFor[locale.Locale](""))
	var formatErr *codec.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "en US", formatErr.Source)
}

func TestEnum(t *testing.T) {
	t.Parallel()

	v, err := codec.Enum.Parse("red", ctxFor[Color](""))
	require.NoError(t, err)
	assert.Equal(t, Color("red"), v.Interface())

	_, err = codec.Enum.Parse("blue", ctxFor[Color](""))
	require.ErrorIs(t, err, codec.ErrInvalidEnum)

	v, err = codec.Enum.Parse("high", ctxFor[*Level](""))
	require.NoError(t, err)
	assert.Equal(t, LevelHigh, *v.Interface().(*Level))

	v, err = codec.Enum.Parse("1", ctxFor[Level](""))
	require.NoError(t, err)
	assert.Equal(t, LevelMid, v.Interface())

	_, err = codec.Enum.Parse("extreme", ctxFor[Level](""))
	require.ErrorIs(t, err, codec.ErrInvalidEnum)

	s, err := codec.Enum.Stringify(reflect.ValueOf(LevelMid), ctxFor[Level](""))
	require.NoError(t, err)
	assert.Equal(t, "mid", s)
}

func TestEnum_RoundTrip(t *testing.T) {
	t.Parallel()

	roundTrip := func(v any, want string) {
		t.Helper()

		ctx := codec.Context{Field: "F", Type: reflect.TypeOf(v)}

		s, err := codec.Enum.Stringify(reflect.ValueOf(v), ctx)
		require.NoError(t, err)
		assert.Equal(t, want, s)

		back, err := codec.Enum.Parse(s, ctx)
		require.NoError(t, err)
		assert.Equal(t, v, back.Interface())
	}

	roundTrip(SignNeg, "neg")
	roundTrip(SignPos, "pos")
	roundTrip(Sign(-100), "Sign(-100)")
	roundTrip(CodeBig, "5000")
	roundTrip(Code(7), "Code(7)")
	roundTrip(Level(9000), "9000")
	roundTrip(Suit("red"), "red")

	v, err := codec.Enum.Parse("-1", ctxFor[Sign](""))
	require.NoError(t, err)
	assert.Equal(t, SignNeg, v.Interface())

	_, err = codec.Enum.Parse("200", ctxFor[Sign](""))
	require.ErrorIs(t, err, codec.ErrInvalidEnum)
}

func TestText(t *testing.T) {
	t.Parallel()

	assert.True(t, codec.IsText(reflect.TypeFor[netip.Addr]()))
	assert.False(t, codec.IsText(reflect.TypeFor[int]()))

	v, err := codec.Text.Parse("192.168.0.1", ctxFor[netip.Addr](""))
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.168.0.1"), v.Interface())

	s, err := codec.Text.Stringify(v, ctxFor[netip.Addr](""))
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.1", s)

	_, err = codec.Text.Parse("not-an-ip", ctxFor[netip.Addr](""))
	require.Error(t, err)
}

func TestProduce(t *testing.T) {
	t.Parallel()

	v, err := codec.Produce(reflect.ValueOf(3), reflect.TypeFor[**Age]())
	require.NoError(t, err)
	assert.Equal(t, Age(3), **v.Interface().(**Age))

	_, err = codec.Produce(reflect.ValueOf(3), reflect.TypeFor[string]())
	require.True(t, errors.Is(err, codec.ErrTypeMismatch))
}
