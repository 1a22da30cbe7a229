package sequence_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowmapper/codec"
	"rowmapper/handler"
	"rowmapper/locale"
	"rowmapper/sequence"
)

func ptr[T any](v T) *T { return &v }

func ctx(field string) codec.Context {
	return codec.Context{Field: field}
}

func ExampleSplit() {
	tokens, _ := sequence.Split("[1, 2, [3, 4], ]")
	fmt.Printf("%q\n", tokens)

	tokens, _ = sequence.Split("[]")
	fmt.Println(len(tokens))

	_, err := sequence.Split("[1, [2, 3]")
	fmt.Println(err)

	// Output:
	// ["1" "2" "[3, 4]" ""]
	// 0
	// malformed text "[1, [2, 3]" at position 10: unclosed '['
}

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"[]", []string{}},
		{"[1]", []string{"1"}},
		{"[1, 2, [3, 4]]", []string{"1", "2", "[3, 4]"}},
		{"[1, , 3]", []string{"1", "", "3"}},
		{"[1, ]", []string{"1", ""}},
		{"[, ]", []string{"", ""}},
		{"[[1, 2], [3, [4, 5]], []]", []string{"[1, 2]", "[3, [4, 5]]", "[]"}},
		{`[a\, b, c]`, []string{`a\, b`, "c"}},
		{`[\[x\], y]`, []string{`\[x\]`, "y"}},
		{"[1,2]", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := sequence.Split(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"1, 2]", 0},
		{"[1, 2", 5},
		{"[[1]", 4},
		{"[1]]", 3},
		{"[1] ", 3},
		{`[1\`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			_, err := sequence.Split(tt.in)

			var formatErr *codec.FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.in, formatErr.Source)
			assert.Equal(t, tt.pos, formatErr.Pos)
		})
	}
}

func TestDecode_Examples(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	v, err := c.Decode("[]", reflect.TypeFor[[]int](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, []int{}, v.Interface())

	v, err = c.Decode("[1, 2, [3, 4]]", reflect.TypeFor[[]any](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "2", []any{"3", "4"}}, v.Interface())

	v, err = c.Decode("[1, , 3]", reflect.TypeFor[[]*int](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, []*int{ptr(1), nil, ptr(3)}, v.Interface())

	v, err = c.Decode("[1, , 3]", reflect.TypeFor[[]int](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 3}, v.Interface())

	v, err = c.Decode("", reflect.TypeFor[[]int](), ctx("A"))
	require.NoError(t, err)
	assert.Nil(t, v.Interface())
}

func TestDecode_Shapes(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	v, err := c.Decode("[[1, 2], [], , [3]]", reflect.TypeFor[[][]int](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {}, nil, {3}}, v.Interface())

	v, err = c.Decode("[1]", reflect.TypeFor[[3]int](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, [3]int{1, 0, 0}, v.Interface())

	v, err = c.Decode("[[a, b], [c]]", reflect.TypeFor[*[2][]string](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, [2][]string{{"a", "b"}, {"c"}}, *v.Interface().(*[2][]string))

	v, err = c.Decode("[en_US, , de]", reflect.TypeFor[[]locale.Locale](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, []locale.Locale{locale.MustParse("en_US"), locale.Root, locale.MustParse("de")}, v.Interface())
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	_, err := c.Decode("[1, 2, 3]", reflect.TypeFor[[2]int](), ctx("A"))
	var formatErr *codec.FormatError
	require.ErrorAs(t, err, &formatErr)

	_, err = c.Decode("[1, x]", reflect.TypeFor[[]int](), ctx("A"))
	var convErr *codec.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "x", convErr.Source)
	assert.Equal(t, "A", convErr.Field)
	assert.Equal(t, reflect.TypeFor[int](), convErr.Type)

	_, err = c.Decode("[1, 2]", reflect.TypeFor[[][]int](), ctx("A"))
	require.ErrorAs(t, err, &formatErr)

	_, err = c.Decode("[1, [2]", reflect.TypeFor[[]any](), ctx("A"))
	require.ErrorAs(t, err, &formatErr)

	_, err = c.Decode("[1]", reflect.TypeFor[[]struct{}](), ctx("A"))
	require.ErrorIs(t, err, sequence.ErrNoHandler)

	_, err = c.Decode("1", reflect.TypeFor[int](), ctx("A"))
	require.ErrorIs(t, err, sequence.ErrNotSequence)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", []int(nil), ""},
		{"nil pointer", (*[]int)(nil), ""},
		{"empty", []int{}, "[]"},
		{"flat", []int{1, 2, 3}, "[1, 2, 3]"},
		{"null slots", []*int{ptr(1), nil, ptr(3)}, "[1, , 3]"},
		{"trailing null", []*string{ptr("a"), nil}, "[a, ]"},
		{"nested", [][]int{{1, 2}, {}, nil, {3}}, "[[1, 2], [], , [3]]"},
		{"array", [2]bool{true, false}, "[true, false]"},
		{"escaped", []string{"a,b", "[x]", `c\d`}, `[a\,b, \[x\], c\\d]`},
		{"any", []any{1, "x", []int{2, 3}, nil}, "[1, x, [2, 3], ]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.Encode(reflect.ValueOf(tt.in), ctx("A"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Pattern(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	days := []time.Time{
		time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC),
	}

	s, err := c.Encode(reflect.ValueOf(days), codec.Context{Field: "Days", Pattern: "2006-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "[2024-01-02, 2024-02-03]", s)

	v, err := c.Decode(s, reflect.TypeFor[[]time.Time](), codec.Context{Field: "Days", Pattern: "2006-01-02"})
	require.NoError(t, err)
	assert.Equal(t, days, v.Interface())
}

func TestEncode_RankAmbiguous(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	_, err := c.Encode(reflect.ValueOf([]any{[][]int{{1}}}), ctx("Grid"))
	require.ErrorIs(t, err, sequence.ErrRankAmbiguous)

	s, err := c.Encode(reflect.ValueOf([][]int{{1}}), ctx("Grid"))
	require.NoError(t, err)
	assert.Equal(t, "[[1]]", s)
}

func TestWithLeaf(t *testing.T) {
	t.Parallel()

	upper := codec.Of(
		func(s string, _ codec.Context) (string, error) { return "<" + s + ">", nil },
		func(s string, _ codec.Context) (string, error) { return s[1 : len(s)-1], nil },
	)

	c := sequence.New(handler.Default()).WithLeaf(upper)

	s, err := c.Encode(reflect.ValueOf([][]string{{"a"}, {"b", "c"}}), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, "[[<a>], [<b>, <c>]]", s)

	v, err := c.Decode(s, reflect.TypeFor[[][]string](), ctx("A"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, v.Interface())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	c := sequence.New(handler.Default())

	values := []any{
		[]int{},
		[]int8{-1, 0, 127},
		[]*float64{ptr(1.5), nil, ptr(-2.25)},
		[][]string{{"a,b", "[x]"}, {}, nil, {"z"}},
		[][][]uint{{{1}, {2, 3}}, {}},
		[]bool{true, false},
		[][2]int{{1, 2}, {3, 4}},
		[]time.Duration{time.Second, 90 * time.Minute},
		[]locale.Locale{locale.MustParse("en_US"), locale.MustParse("fr")},
		[]any{"a", []any{"b", []any{}}, nil},
	}

	for _, want := range values {
		t.Run(reflect.TypeOf(want).String(), func(t *testing.T) {
			t.Parallel()

			s, err := c.Encode(reflect.ValueOf(want), ctx("A"))
			require.NoError(t, err)

			got, err := c.Decode(s, reflect.TypeOf(want), ctx("A"))
			require.NoError(t, err)

			if diff := cmp.Diff(want, got.Interface()); diff != "" {
				t.Errorf("round trip of %q (-want +got):\n%s\n%s", s, diff, spew.Sdump(got.Interface()))
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	reg := handler.Default()

	assert.Equal(t, sequence.DispatcherScalar, sequence.Dispatch(reg, reflect.TypeFor[int]()))
	assert.Equal(t, sequence.DispatcherScalar, sequence.Dispatch(reg, reflect.TypeFor[*time.Time]()))
	assert.Equal(t, sequence.DispatcherSequence, sequence.Dispatch(reg, reflect.TypeFor[[]int]()))
	assert.Equal(t, sequence.DispatcherSequence, sequence.Dispatch(reg, reflect.TypeFor[*[2][]int]()))
	assert.Equal(t, sequence.DispatcherInterface, sequence.Dispatch(reg, reflect.TypeFor[any]()))
	assert.Equal(t, sequence.DispatcherUnknown, sequence.Dispatch(reg, reflect.TypeFor[struct{}]()))
	assert.Equal(t, sequence.DispatcherUnknown, sequence.Dispatch(reg, nil))

	assert.Equal(t, 0, sequence.Rank(reflect.TypeFor[int]()))
	assert.Equal(t, 2, sequence.Rank(reflect.TypeFor[*[][3]int]()))
}
