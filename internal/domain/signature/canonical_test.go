package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"sorts object keys", `{"b":1,"a":2}`, `{"a":2,"b":1}`},
		{"strips whitespace", "{ \"a\" : [ 1 , 2 ] }", `{"a":[1,2]}`},
		{"nested objects", `{"z":{"y":1,"x":2},"a":[{"c":3,"b":4}]}`, `{"a":[{"b":4,"c":3}],"z":{"x":2,"y":1}}`},
		{"trailing zeros dropped", `{"v":1.5000}`, `{"v":1.5}`},
		{"integer valued float", `{"v":2.0}`, `{"v":2}`},
		{"negative zero", `{"v":-0}`, `{"v":0}`},
		{"small magnitude stays plain", `{"v":0.000001}`, `{"v":0.000001}`},
		{"tiny magnitude goes scientific", `{"v":1e-7}`, `{"v":1e-7}`},
		{"large magnitude goes scientific", `{"v":1e21}`, `{"v":1e21}`},
		{"null bool string", `{"a":null,"b":true,"c":"x"}`, `{"a":null,"b":true,"c":"x"}`},
		{"control chars escaped", "{\"a\":\"line\\nbreak\"}", `{"a":"line\nbreak"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestCanonicalizeRejectsInvalidInput(t *testing.T) {
	_, err := Canonicalize([]byte(`{"a":1} trailing`))
	assert.Error(t, err)
	_, err = Canonicalize([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestCanonicalizeIsDeterministicForStructs(t *testing.T) {
	type sample struct {
		B string  `json:"b"`
		A float64 `json:"a"`
	}
	first, err := Canonicalize(sample{B: "x", A: 1.5})
	require.NoError(t, err)
	second, err := Canonicalize(map[string]interface{}{"a": 1.5, "b": "x"})
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
