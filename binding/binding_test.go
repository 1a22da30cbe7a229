package binding_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmapper/binding"
	"rowmapper/codec"
	"rowmapper/handler"
	"rowmapper/sequence"
)

type Status string

type Embedded struct {
	Note string `row:"note"`
}

type Profile struct {
	ID      int        `row:"id"`
	Name    string     `row:"name" default:"anonymous"`
	Born    civil.Date `row:"born" format:"02.01.2006"`
	Tags    []string   `row:"tags"`
	HasTags bool       `row:"has_tags" expr:"size(Tags) > 0"`
	Score   *float64   `row:"score"`
	Status  Status     `row:"status"`
	Nick    string     `row:"nick" handler:"upper"`
	secret  string     `row:"secret" get:"Secret" set:"SetSecret"`
	Scratch string     `row:"-"`
	Embedded
}

func (p Profile) Secret() string { return p.secret }

func (p *Profile) SetSecret(s string) { p.secret = s }

var upper = codec.Of(
	func(s string, _ codec.Context) (string, error) { return strings.ToUpper(s), nil },
	func(s string, _ codec.Context) (string, error) { return strings.ToLower(s), nil },
)

func registry(t *testing.T) *handler.Registry {
	t.Helper()

	reg, err := handler.Default().Extend().RegisterNamed("upper", upper).Build()
	require.NoError(t, err)

	return reg
}

func TestResolve_Strategies(t *testing.T) {
	t.Parallel()

	set, err := binding.Resolve(reflect.TypeFor[Profile](), registry(t), binding.Config{})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"id", "name", "born", "tags", "has_tags", "score", "status", "nick", "secret", "note"},
		set.Columns())
	require.Len(t, set.Ignored, 1)
	assert.Equal(t, "Scratch", set.Ignored[0].Name)

	strategies := map[string]binding.Strategy{}
	for _, b := range set.Bindings {
		strategies[b.Field.Name] = b.Strategy
	}

	assert.Equal(t, binding.StrategyField, strategies["ID"])
	assert.Equal(t, binding.StrategyExpression, strategies["HasTags"])
	assert.Equal(t, binding.StrategyHandler, strategies["Nick"])
	assert.Equal(t, binding.StrategyAccessor, strategies["secret"])
	assert.Equal(t, "StrategyAccessor", strategies["secret"].String())

	tags, ok := set.Lookup("Tags")
	require.True(t, ok)
	assert.Equal(t, sequence.DispatcherSequence, tags.Dispatch)
	assert.Equal(t, 1, tags.Field.Depth)

	note, ok := set.Column("note")
	require.True(t, ok)
	assert.Equal(t, []int{10, 0}, note.Field.Index)

	secret, _ := set.Lookup("secret")
	assert.False(t, secret.Field.Exported)
	assert.False(t, secret.Field.Immutable())
	assert.True(t, secret.Readable())
}

func TestBinding_Conversions(t *testing.T) {
	t.Parallel()

	set, err := binding.Resolve(reflect.TypeFor[Profile](), registry(t), binding.Config{})
	require.NoError(t, err)

	born, _ := set.Lookup("Born")
	v, err := born.Decode("24.12.1990")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 1990, Month: time.December, Day: 24}, v.Interface())

	nick, _ := set.Lookup("Nick")
	s, err := nick.Encode(reflect.ValueOf("neo"))
	require.NoError(t, err)
	assert.Equal(t, "NEO", s)

	status, _ := set.Lookup("Status")
	v, err = status.Decode("active")
	require.NoError(t, err)
	assert.Equal(t, Status("active"), v.Interface())

	score, _ := set.Lookup("Score")
	v, err = score.Decode("2.5")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, *v.Interface().(*float64), 1e-9)
}

func TestBinding_Accessors(t *testing.T) {
	t.Parallel()

	set, err := binding.Resolve(reflect.TypeFor[Profile](), registry(t), binding.Config{})
	require.NoError(t, err)

	secret, _ := set.Lookup("secret")

	p := reflect.New(reflect.TypeFor[Profile]())
	require.NoError(t, secret.Set(p, reflect.ValueOf("s3cret")))

	got, err := secret.Get(p.Elem())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got.Interface())

	id, _ := set.Lookup("ID")
	require.NoError(t, id.Set(p, reflect.ValueOf(42)))
	assert.Equal(t, 42, p.Elem().Interface().(Profile).ID)
}

func TestBinding_Eval(t *testing.T) {
	t.Parallel()

	set, err := binding.Resolve(reflect.TypeFor[Profile](), registry(t), binding.Config{})
	require.NoError(t, err)

	hasTags, _ := set.Lookup("HasTags")
	tags, _ := set.Lookup("Tags")

	list, err := tags.Variable(reflect.ValueOf([]string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, list)

	v, err := hasTags.Eval(map[string]any{"Tags": list})
	require.NoError(t, err)
	assert.Equal(t, true, v.Interface())

	v, err = hasTags.Eval(map[string]any{"Tags": []any{}})
	require.NoError(t, err)
	assert.Equal(t, false, v.Interface())
}

type Counters struct {
	A int `default:"7"`
	B int
	C string
}

type Labels struct {
	X string
	Y int
}

func (Labels) RowDefault() string { return "n/a" }

func TestDefault_Precedence(t *testing.T) {
	t.Parallel()

	typeDefault := "0"

	set, err := binding.Resolve(reflect.TypeFor[Counters](), handler.Default(), binding.Config{TypeDefault: &typeDefault})
	require.NoError(t, err)

	a, _ := set.Lookup("A")
	text, source := a.DefaultWithSource(nil)
	assert.Equal(t, "7", text)
	assert.Equal(t, binding.DefaultFromField, source)

	text, source = a.DefaultWithSource(map[string]string{"A": "9"})
	assert.Equal(t, "9", text)
	assert.Equal(t, binding.DefaultFromCall, source)

	b, _ := set.Lookup("B")
	text, ok := b.Default(nil)
	assert.True(t, ok)
	assert.Equal(t, "0", text)

	set, err = binding.Resolve(reflect.TypeFor[Counters](), handler.Default(), binding.Config{})
	require.NoError(t, err)

	b, _ = set.Lookup("B")
	_, source = b.DefaultWithSource(nil)
	assert.Equal(t, binding.DefaultNone, source)
}

func TestDefault_TypeDefaulter(t *testing.T) {
	t.Parallel()

	set, err := binding.Resolve(reflect.TypeFor[Labels](), handler.Default(), binding.Config{})
	require.NoError(t, err)

	x, _ := set.Lookup("X")
	text, source := x.DefaultWithSource(nil)
	assert.Equal(t, "n/a", text)
	assert.Equal(t, binding.DefaultFromType, source)

	y, _ := set.Lookup("Y")
	_, ok := y.Default(nil)
	assert.False(t, ok)
	require.Len(t, set.Warnings, 1)
	assert.Contains(t, set.Warnings[0], "type-default-skipped")
}

func TestResolve_Config(t *testing.T) {
	t.Parallel()

	def := "guest"

	set, err := binding.Resolve(reflect.TypeFor[Labels](), handler.Default(), binding.Config{
		Fields: map[string]binding.FieldConfig{
			"X": {Column: "label", Default: &def},
			"Y": {Ignore: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"label"}, set.Columns())

	x, ok := set.Column("label")
	require.True(t, ok)
	text, source := x.DefaultWithSource(nil)
	assert.Equal(t, "guest", text)
	assert.Equal(t, binding.DefaultFromField, source)
}

type Broken struct {
	Email  string
	Where  struct{ X int }
	Other  string `row:"Email"`
	Bad    int    `default:"x"`
	Calc   int    `expr:"Email +"`
	Nick   string `handler:"uper"`
	Hidden string `get:"Nope"`
}

func TestResolve_CollectsEveryIssue(t *testing.T) {
	t.Parallel()

	_, err := binding.Resolve(reflect.TypeFor[Broken](), registry(t), binding.Config{
		Fields: map[string]binding.FieldConfig{"Emial": {Column: "e"}},
	})
	require.Error(t, err)

	for _, target := range []error{
		binding.ErrUnknownConfigField,
		binding.ErrMissingHandler,
		binding.ErrDuplicateColumn,
		binding.ErrBadDefault,
		binding.ErrBadExpression,
		binding.ErrBadAccessor,
	} {
		assert.ErrorIs(t, err, target)
	}

	assert.Contains(t, err.Error(), "did you mean Email?")
	assert.Contains(t, err.Error(), "did you mean upper?")
}

type readonly struct {
	Fixed string `row:"fixed,readonly"`
	inner int    `row:"inner"`
}

func TestResolve_Immutable(t *testing.T) {
	t.Parallel()

	set, err := binding.Resolve(reflect.TypeFor[readonly](), handler.Default(), binding.Config{})
	require.NoError(t, err)

	fixed, _ := set.Lookup("Fixed")
	assert.True(t, fixed.Field.Immutable())
	require.ErrorIs(t, fixed.Set(reflect.New(set.Type), reflect.ValueOf("x")), binding.ErrImmutable)

	inner, _ := set.Lookup("inner")
	assert.True(t, inner.Field.Immutable())
	assert.False(t, inner.Readable())

	_, err = inner.Get(reflect.New(set.Type))
	require.ErrorIs(t, err, binding.ErrNotReadable)

	_, err = binding.Resolve(reflect.TypeFor[int](), handler.Default(), binding.Config{})
	require.ErrorIs(t, err, binding.ErrNotStruct)
}
