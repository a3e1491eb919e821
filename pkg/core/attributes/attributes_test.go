// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package attributes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindInt, Int(3).Kind())
	assert.Equal(t, KindFloat, Float(0.5).Kind())
	assert.Equal(t, KindString, String("NUMPY").Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindInts, Ints(1, 2).Kind())
	assert.Equal(t, KindFloats, Floats().Kind())
	assert.Equal(t, KindStrings, Strings("a").Kind())
	assert.Equal(t, KindElementType, ElementType(dtypes.Int64).Kind())
	assert.False(t, Value{}.IsValid())
	assert.Equal(t, "Ints", KindInts.String())
	assert.True(t, KindStrings.IsList())
	assert.False(t, KindElementType.IsList())

	assert.Equal(t, 0, Ints().Len())
	assert.Equal(t, 2, Floats(1, 2).Len())
	assert.Equal(t, -1, Int(1).Len())
}

func TestValueIsImmutable(t *testing.T) {
	source := []int64{1, 2, 3}
	v := Ints(source...)
	source[0] = 7
	got := v.Ints()
	require.Equal(t, []int64{1, 2, 3}, got)
	got[1] = 9
	require.Equal(t, []int64{1, 2, 3}, v.Ints())
}

func TestValueEqualAndString(t *testing.T) {
	assert.True(t, Ints(1, 2).Equal(Ints(1, 2)))
	assert.False(t, Ints(1, 2).Equal(Floats(1, 2)))
	assert.False(t, String("a").Equal(String("A")))
	assert.True(t, Ints().Equal(Ints(nil...)))

	assert.Equal(t, `"SAME_UPPER"`, String("SAME_UPPER").String())
	assert.Equal(t, "[1 2]", Ints(1, 2).String())
	assert.Equal(t, `["sigmoid" "tanh"]`, Strings("sigmoid", "tanh").String())
	assert.Equal(t, "i64", ElementType(dtypes.Int64).String())
	assert.Equal(t, "f32", ElementType(dtypes.Float32).GoValue())
}

func TestFromAny(t *testing.T) {
	cases := []struct {
		in   any
		want Value
	}{
		{3, Int(3)},
		{int32(-1), Int(-1)},
		{uint8(7), Int(7)},
		{float32(0.5), Float(0.5)},
		{"explicit", String("explicit")},
		{true, Bool(true)},
		{[]int{1, 2}, Ints(1, 2)},
		{[]int64{3}, Ints(3)},
		{[]float32{1, 2}, Floats(1, 2)},
		{[]string{"tanh"}, Strings("tanh")},
		{dtypes.Float16, ElementType(dtypes.Float16)},
		{Int(5), Int(5)},
	}
	for _, c := range cases {
		got, err := FromAny(c.in)
		require.NoError(t, err, "input %#v", c.in)
		require.Truef(t, c.want.Equal(got), "FromAny(%#v)=%s, wanted %s", c.in, got, c.want)
	}

	_, err := FromAny(map[string]int{})
	require.Error(t, err)
	_, err = FromAny([][]int{{1}})
	require.Error(t, err)
}

func TestBag(t *testing.T) {
	bag, err := NewBag(map[string]any{
		"strides":     []int{2, 2},
		"auto_pad":    "SAME_UPPER",
		"clip":        0.0,
		"keep_dims":   true,
		"hidden_size": 4,
		"output_type": dtypes.Int32,
		"activations": []string{"sigmoid", "tanh"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"activations", "auto_pad", "clip", "hidden_size", "keep_dims", "output_type", "strides"}, bag.Names())
	assert.Equal(t, []int{2, 2}, bag.IntsOr("strides", nil))
	assert.Equal(t, []int{1}, bag.IntsOr("dilations", []int{1}))
	assert.Equal(t, "SAME_UPPER", bag.StringOr("auto_pad", "EXPLICIT"))
	assert.Equal(t, int64(4), bag.IntOr("hidden_size", 0))
	assert.Equal(t, int64(9), bag.IntOr("auto_pad", 9), "wrong kind falls back to default")
	assert.Equal(t, 0.0, bag.FloatOr("clip", 1))
	assert.True(t, bag.BoolOr("keep_dims", false))
	assert.Equal(t, dtypes.Int32, bag.ElementTypeOr("output_type", dtypes.Int64))
	assert.Equal(t, []string{"sigmoid", "tanh"}, bag.StringsOr("activations", nil))

	clone := bag.Clone()
	clone["clip"] = Float(1)
	assert.False(t, clone.Equal(bag))
	delete(clone, "clip")
	assert.False(t, clone.Has("clip"))
	assert.True(t, bag.Has("clip"))

	_, err = NewBag(map[string]any{"bad": struct{}{}})
	require.ErrorContains(t, err, `attribute "bad"`)
	assert.Equal(t, `{a=1, b="x"}`, Bag{"b": String("x"), "a": Int(1)}.String())
}
