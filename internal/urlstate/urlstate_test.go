package urlstate

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepr(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{false, "False"},
		{3, "3"},
		{int64(-7), "-7"},
		{1.0, "1.0"},
		{0.0, "0.0"},
		{0.2, "0.2"},
		{0.30000000000000004, "0.30000000000000004"},
		{1e-05, "1e-05"},
		{0.0001, "0.0001"},
		{1e16, "1e+16"},
		{1e15, "1000000000000000.0"},
		{"S042", `"S042"`},
		{`it's "x"`, `"it's \"x\""`},
		{[2]float64{0.2, 0.9}, "[0.2, 0.9]"},
		{[]any{1, "a", nil}, `[1, "a", None]`},
		{[]float64{}, "[]"},
	}
	for _, tc := range cases {
		got, err := Repr(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "Repr(%#v)", tc.in)
	}
}

func TestReprUnsupported(t *testing.T) {
	_, err := Repr(struct{}{})
	assert.Error(t, err)
	_, err = Repr([]any{map[string]int{}})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"None", nil},
		{"True", true},
		{" 42 ", 42},
		{"-1.5", -1.5},
		{"1e-05", 1e-05},
		{"1e+16", 1e16},
		{"'S042'", "S042"},
		{`"S042"`, "S042"},
		{`"a\"b\\c"`, `a"b\c`},
		{"[0.2, 0.9]", []any{0.2, 0.9}},
		{"(1, 2)", []any{1, 2}},
		{"[1, [2, 3],]", []any{1, []any{2, 3}}},
		{"[]", []any{}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "none", "[1, 2", `"open`, "1 2", "inf", "{}", "--1", "[1;2]"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrSyntax, "input %q", in)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "slider-ev", Key("slider-ev", "value"))
	assert.Equal(t, "spore-id::data", Key("spore-id", "data"))

	id, prop, ok := SplitKey("spore-id::data")
	assert.True(t, ok)
	assert.Equal(t, "spore-id", id)
	assert.Equal(t, "data", prop)

	id, prop, ok = SplitKey("slider-ev")
	assert.True(t, ok)
	assert.Equal(t, "slider-ev", id)
	assert.Equal(t, DefaultProperty, prop)

	for _, bad := range []string{"", "a::b::c", "::data", "spore-id::"} {
		_, _, ok := SplitKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestEncode(t *testing.T) {
	got, err := Encode([]Param{
		{ID: "spore-id", Property: "data", Value: "S042"},
		{ID: "slider-storage", Property: "value", Value: [2]float64{0.2, 0.9}},
	})
	require.NoError(t, err)
	assert.Equal(t, `?spore-id::data="S042"&slider-storage=[0.2,%200.9]`, got)

	got, err = Encode([]Param{{ID: "spore-id", Property: "data", Value: nil}})
	require.NoError(t, err)
	assert.Equal(t, "?spore-id::data=None", got)

	got, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "?", got)
}

func TestEncodeNeverUsesSingleQuotes(t *testing.T) {
	got, err := Encode([]Param{{ID: "spore-id", Property: "data", Value: "S001"}})
	require.NoError(t, err)
	assert.NotContains(t, got, "'")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a/b:c?~#+!$,;'@()*[]"%`, Escape(`a/b:c?~#+!$,;'@()*[]"%`))
	assert.Equal(t, "a%20b%26c%3Dd", Escape("a b&c=d"))
	assert.Equal(t, "%C3%A9", Escape("é"))
}

func TestDecode(t *testing.T) {
	state := Decode(`http://localhost:8050/?spore-id::data="S042"&slider-storage=[0.2,%200.9]`)

	v, ok := state.Get("spore-id", "data")
	require.True(t, ok)
	assert.Equal(t, "S042", v)

	v, ok = state.Get("slider-storage", "value")
	require.True(t, ok)
	r, ok := AsRange(v)
	require.True(t, ok)
	assert.Equal(t, [2]float64{0.2, 0.9}, r)
}

func TestDecodeDropsMalformedParams(t *testing.T) {
	state := Decode(`?novalue&empty=&a::b::c=1&bad=[1,&good=1.5&::x=2&slider-ev=[0.1,%200.2]`)

	assert.Equal(t, State{
		"good":      {"value": 1.5},
		"slider-ev": {"value": []any{0.1, 0.2}},
	}, state)
}

func TestDecodeLastDuplicateWins(t *testing.T) {
	state := Decode("?a=1&a=2")
	v, _ := state.Get("a", "value")
	assert.Equal(t, 2, v)
}

func TestDecodeNoQuery(t *testing.T) {
	assert.Empty(t, Decode("http://localhost:8050/"))
	assert.Empty(t, Decode(""))
}

func TestRoundTrip(t *testing.T) {
	params := []Param{
		{ID: "spore-id", Property: "data", Value: "S042"},
		{ID: "slider-storage", Property: "value", Value: []any{0.2, 0.9}},
		{ID: "slider-curtailment", Property: "value", Value: []any{0.0, 1.0}},
		{ID: "slider-ev", Property: "value", Value: []any{1e-05, 0.30000000000000004}},
		{ID: "count", Property: "n_clicks", Value: 3},
		{ID: "label", Property: "value", Value: `odd "id" with spaces & = ' é`},
		{ID: "empty", Property: "data", Value: nil},
		{ID: "flag", Property: "value", Value: true},
	}

	want := State{}
	for _, p := range params {
		want.Set(p.ID, p.Property, p.Value)
	}

	query, err := Encode(params)
	require.NoError(t, err)
	assert.Equal(t, want, Decode(query))
	assert.Equal(t, want, Decode("http://example.org/explore"+query))
}

func TestRoundTripRandomStates(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const idChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_ .\""

	for n := 0; n < 500; n++ {
		var params []Param
		for i := 0; i < 9; i++ {
			lo, hi := rng.Float64()*100, rng.Float64()*100
			if lo > hi {
				lo, hi = hi, lo
			}
			params = append(params, Param{ID: fmt.Sprintf("slider-%d", i), Property: "value", Value: []any{lo, hi}})
		}

		var id any
		if rng.IntN(4) > 0 {
			b := make([]byte, 1+rng.IntN(12))
			for i := range b {
				b[i] = idChars[rng.IntN(len(idChars))]
			}
			id = string(b)
		}
		params = append(params, Param{ID: "spore-id", Property: "data", Value: id})

		want := State{}
		for _, p := range params {
			want.Set(p.ID, p.Property, p.Value)
		}

		query, err := Encode(params)
		require.NoError(t, err)
		require.Equal(t, want, Decode(query), "query %s", query)
	}
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b", Unescape("a%20b"))
	assert.Equal(t, "é", Unescape("%C3%a9"))
	assert.Equal(t, "100%", Unescape("100%"))
	assert.Equal(t, "a%zz", Unescape("a%zz"))
	assert.Equal(t, "%2", Unescape("%2"))
	assert.Equal(t, "50%!", Unescape("50%!"))
}

func TestDecodeKeepsStrayPercent(t *testing.T) {
	for _, s := range []string{"100%", "a%zz", "%"} {
		query, err := Encode([]Param{{ID: "label", Property: "value", Value: s}})
		require.NoError(t, err)

		v, ok := Decode(query).Get("label", "value")
		require.True(t, ok, "query %s", query)
		assert.Equal(t, s, v)
	}
}

func TestAsRange(t *testing.T) {
	r, ok := AsRange([]any{0, 1.0})
	assert.True(t, ok)
	assert.Equal(t, [2]float64{0, 1}, r)

	_, ok = AsRange([]any{1.0})
	assert.False(t, ok)
	_, ok = AsRange([]any{"a", 1.0})
	assert.False(t, ok)
	_, ok = AsRange("x")
	assert.False(t, ok)

	s, ok := AsString("S1")
	assert.True(t, ok)
	assert.Equal(t, "S1", s)
	_, ok = AsString(nil)
	assert.False(t, ok)
}
