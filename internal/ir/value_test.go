package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = List{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates D83D DE00, which sort before U+FF61
	// in UTF-16 even though the UTF-8 bytes sort after.
	obj := Object{
		"\U0001F600": Int(1),
		"\uff61":     Int(2),
	}

	assert.Equal(t, []string{"\U0001F600", "\uff61"}, obj.SortedKeys())
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"string", "hi", String("hi")},
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"integral float", 3.0, Int(3)},
		{"fractional float", 2.5, Float(2.5)},
		{"json int", json.Number("12"), Int(12)},
		{"json float", json.Number("0.25"), Float(0.25)},
		{"list", []any{"a", 1}, List{String("a"), Int(1)}},
		{"map", map[string]any{"k": false}, Object{"k": Bool(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoRejectsUnknownTypes(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)
}

func TestUnmarshalValue(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"n": 1, "f": 1.5, "s": "x", "l": [null, true]}`))
	require.NoError(t, err)

	assert.Equal(t, Object{
		"n": Int(1),
		"f": Float(1.5),
		"s": String("x"),
		"l": List{Null{}, Bool(true)},
	}, v)
}

func TestMarshalValueNonFiniteFloat(t *testing.T) {
	b, err := MarshalValue(Float(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, `"Infinity"`, string(b))
}

func TestMarshalObjectKeyOrder(t *testing.T) {
	obj := NewObject(O("zebra", Int(1)), O("apple", Int(2)))

	b, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"zebra":1}`, string(b))
}

func TestToGoRoundTrip(t *testing.T) {
	in := Object{"list": List{Int(1), String("two")}, "ok": Bool(true)}

	back, err := FromGo(ToGo(in))
	require.NoError(t, err)
	assert.Equal(t, in, back)
}
