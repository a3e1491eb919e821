// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape: the element type and dimensions of one output of a graph node.
//
// Unlike tensor shapes used for execution, a node output shape may be only partially known at
// graph construction time: any axis can be DynamicDim, and the rank itself can be unknown
// (see MakeDynamicRank). Engines use it for shape inference, and the factory layer reads it
// to compute derived defaults (e.g. the element type of a synthesized constant).
//
// Example:
//
//	s := shapes.Make(dtypes.Float32, 2, shapes.DynamicDim, 4)
//	fmt.Println(s) // (Float32)[2 ? 4]
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// DynamicDim marks an axis whose dimension is only known at execution time.
const DynamicDim = -1

// Shape of one output of a graph node.
//
// Use Make, Scalar or MakeDynamicRank to create a new shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int

	// DynamicRank is set when even the number of axes is not known. Dimensions is then nil.
	DynamicRank bool
}

// Make returns a Shape structure filled with the values given.
//
// Dimensions must be >= 0 or DynamicDim, otherwise it panics.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim < 0 && dim != DynamicDim {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension %d", s, dim)
		}
	}
	return s
}

// Scalar returns a scalar shape for the given dtype.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// MakeDynamicRank returns a shape whose rank is not known.
func MakeDynamicRank(dtype dtypes.DType) Shape {
	return Shape{DType: dtype, DynamicRank: true}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of dimensions. It returns DynamicDim if the rank is not known.
func (s Shape) Rank() int {
	if s.DynamicRank {
		return DynamicDim
	}
	return len(s.Dimensions)
}

// IsScalar returns whether the shape represents a scalar (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && !s.DynamicRank && len(s.Dimensions) == 0 }

// IsDynamic returns whether the rank or any of the dimensions is not known.
func (s Shape) IsDynamic() bool {
	return s.DynamicRank || slices.Contains(s.Dimensions, DynamicDim)
}

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
//
// It panics for an out-of-bound axis or if the rank is not known.
func (s Shape) Dim(axis int) int {
	if s.DynamicRank {
		exceptions.Panicf("Shape.Dim(%d) called on shape with unknown rank (shape=%s)", axis, s)
	}
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// String implements stringer, pretty-prints the shape. Dynamic axes are printed as "?".
func (s Shape) String() string {
	if s.DynamicRank {
		return fmt.Sprintf("(%s)[...]", s.DType)
	}
	if len(s.Dimensions) == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, len(s.Dimensions))
	for ii, dim := range s.Dimensions {
		if dim == DynamicDim {
			parts[ii] = "?"
		} else {
			parts[ii] = fmt.Sprint(dim)
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Size returns the number of elements of DType needed for this shape.
// It returns DynamicDim if the shape is dynamic.
func (s Shape) Size() (size int) {
	if s.IsDynamic() {
		return DynamicDim
	}
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the number of bytes needed to store a value of the given shape, or 0 if the shape is dynamic.
func (s Shape) Memory() uintptr {
	size := s.Size()
	if size < 0 {
		return 0
	}
	return uintptr(s.DType.Size()) * uintptr(size)
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
// Two dynamic axes are considered equal.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType || s.DynamicRank != s2.DynamicRank {
		return false
	}
	return s.EqualDimensions(s2)
}

// EqualDimensions compares two shapes for equality of dimensions. DTypes can be different.
func (s Shape) EqualDimensions(s2 Shape) bool {
	if s.DynamicRank || s2.DynamicRank {
		return s.DynamicRank == s2.DynamicRank
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.DynamicRank = s.DynamicRank
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}

// WithDType returns a copy of the shape with the dtype replaced.
func (s Shape) WithDType(dtype dtypes.DType) Shape {
	s2 := s.Clone()
	s2.DType = dtype
	return s2
}

// MergeDim returns the dimension that satisfies both d0 and d1, where either can be DynamicDim.
// It returns false if both are static and different.
func MergeDim(d0, d1 int) (int, bool) {
	switch {
	case d0 == DynamicDim:
		return d1, true
	case d1 == DynamicDim:
		return d0, true
	case d0 == d1:
		return d0, true
	}
	return 0, false
}
