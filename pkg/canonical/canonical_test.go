package canonical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalize_SortsKeys(t *testing.T) {
	s, err := Canonicalize(map[string]any{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2,"c":3}`, s)
}

func TestCanonicalize_RecursiveSorting(t *testing.T) {
	input := map[string]any{
		"z": map[string]any{"y": "foo", "x": "bar"},
		"a": []any{map[string]any{"k2": 1, "k1": 2}},
	}
	s, err := Canonicalize(input)
	require.NoError(t, err)
	require.Equal(t, `{"a":[{"k1":2,"k2":1}],"z":{"x":"bar","y":"foo"}}`, s)
}

func TestCanonicalize_NoHTMLEscaping(t *testing.T) {
	s, err := Canonicalize(map[string]string{"html": "<b>&</b>"})
	require.NoError(t, err)
	require.Equal(t, `{"html":"<b>&</b>"}`, s)
}

func TestCanonicalize_NegativeZero(t *testing.T) {
	s, err := Canonicalize(map[string]float64{"n": math.Copysign(0, -1)})
	require.NoError(t, err)
	require.Equal(t, `{"n":0}`, s)
}

func TestCanonicalize_NonFiniteFails(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Canonicalize(map[string]float64{"n": v})
		require.Error(t, err)
		var cerr *CanonicalizationError
		require.ErrorAs(t, err, &cerr)
	}
}

func TestCanonicalize_NonSerializableFails(t *testing.T) {
	_, err := Canonicalize(map[string]any{"fn": func() {}})
	var cerr *CanonicalizationError
	require.ErrorAs(t, err, &cerr)
}

func TestCanonicalize_StructAndMapAgree(t *testing.T) {
	type payload struct {
		B int    `json:"b"`
		A string `json:"a"`
	}
	s1, err := Canonicalize(payload{B: 2, A: "x"})
	require.NoError(t, err)
	s2, err := Canonicalize(map[string]any{"a": "x", "b": 2})
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}

func TestCanonicalize_OmittedFieldsAreAbsent(t *testing.T) {
	type payload struct {
		A string  `json:"a"`
		B *string `json:"b,omitempty"`
	}
	s, err := Canonicalize(payload{A: "x"})
	require.NoError(t, err)
	require.Equal(t, `{"a":"x"}`, s)
}

func TestCanonicalizeRaw(t *testing.T) {
	s, err := CanonicalizeRaw([]byte(`{ "b" : 1.50, "a" : "x" }`))
	require.NoError(t, err)
	require.Equal(t, `{"a":"x","b":1.5}`, s)
}

func TestCanonicalHash_Stable(t *testing.T) {
	v := map[string]any{"intent": "swap", "steps": []any{"a", "b"}}
	h1, err := CanonicalHash(v)
	require.NoError(t, err)
	h2, err := CanonicalHash(v)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
	require.Equal(t, h1, SHA256Hex([]byte(mustCanonicalize(t, v))))
}

func TestHashEqual_CaseInsensitive(t *testing.T) {
	require.True(t, HashEqual("ABCDEF", "abcdef"))
	require.False(t, HashEqual("abc", "abd"))
}

func mustCanonicalize(t *testing.T, v any) string {
	t.Helper()
	s, err := Canonicalize(v)
	require.NoError(t, err)
	return s
}
