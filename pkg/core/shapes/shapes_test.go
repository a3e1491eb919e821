// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"fmt"
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))

	shape1 := Make(Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.False(t, shape1.IsDynamic())
	require.Equal(t, 3, shape1.Rank())
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, int(shape1.Memory()))

	require.Panics(t, func() { _ = Make(Float32, 2, -3) })
}

func TestDynamicShapes(t *testing.T) {
	shape := Make(Int64, 2, DynamicDim)
	require.True(t, shape.IsDynamic())
	require.Equal(t, 2, shape.Rank())
	require.Equal(t, DynamicDim, shape.Size())
	require.Equal(t, 0, int(shape.Memory()))
	require.Equal(t, fmt.Sprintf("(%s)[2 ?]", Int64), shape.String())

	unknown := MakeDynamicRank(Float32)
	require.True(t, unknown.IsDynamic())
	require.False(t, unknown.IsScalar())
	require.Equal(t, DynamicDim, unknown.Rank())
	require.Equal(t, fmt.Sprintf("(%s)[...]", Float32), unknown.String())
	require.Panics(t, func() { _ = unknown.Dim(0) })
	require.False(t, unknown.Equal(Scalar(Float32)))
	require.True(t, unknown.Equal(MakeDynamicRank(Float32)))
}

func TestDim(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 2, shape.Dim(-1))
	require.Equal(t, 4, shape.Dim(-3))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestCloneAndWithDType(t *testing.T) {
	shape := Make(Float32, 4, 3)
	clone := shape.Clone()
	clone.Dimensions[0] = 7
	require.Equal(t, 4, shape.Dim(0))

	converted := shape.WithDType(Int32)
	require.Equal(t, Int32, converted.DType)
	require.True(t, converted.EqualDimensions(shape))
	require.False(t, converted.Equal(shape))
}

func TestMergeDim(t *testing.T) {
	d, ok := MergeDim(DynamicDim, 3)
	require.True(t, ok)
	require.Equal(t, 3, d)
	d, ok = MergeDim(5, DynamicDim)
	require.True(t, ok)
	require.Equal(t, 5, d)
	_, ok = MergeDim(5, 3)
	require.False(t, ok)
}

func TestElementTypeNames(t *testing.T) {
	for _, name := range []string{"f32", "F32", "float32", "Float32"} {
		dtype, err := ParseElementType(name)
		require.NoError(t, err, "parsing %q", name)
		require.Equal(t, Float32, dtype)
	}
	dtype, err := ParseElementType("boolean")
	require.NoError(t, err)
	require.Equal(t, Bool, dtype)
	_, err = ParseElementType("f128")
	require.Error(t, err)

	require.Equal(t, "i64", ElementTypeName(Int64))
	require.Equal(t, "bf16", ElementTypeName(BFloat16))
	require.True(t, IsFloat(Float16))
	require.False(t, IsFloat(Int8))
	require.True(t, IsInteger(Uint32))
	require.False(t, IsInteger(Bool))
}
