// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package attributes defines the typed values that configure a graph operation (strides, padding mode,
// hidden_size, ...).
//
// A Value is a tagged variant: exactly one of its kinds is set. A Bag maps attribute names to values
// and is built fresh for each node construction request.
package attributes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/pkg/core/shapes"
)

// Kind of value held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindInts
	KindFloats
	KindStrings
	KindElementType
)

var kindNames = []string{"Invalid", "Int", "Float", "String", "Bool", "Ints", "Floats", "Strings", "ElementType"}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsList returns whether the kind holds a list of values.
func (k Kind) IsList() bool {
	return k == KindInts || k == KindFloats || k == KindStrings
}

// Value of one attribute. The zero value is invalid.
type Value struct {
	kind    Kind
	i       int64
	f       float64
	s       string
	b       bool
	ints    []int64
	floats  []float64
	strs    []string
	element dtypes.DType
}

// Int creates an integer attribute value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float creates a floating point attribute value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String creates a string attribute value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool creates a boolean attribute value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Ints creates a list of integers attribute value. The slice is copied.
func Ints(v ...int64) Value {
	if v == nil {
		v = []int64{}
	}
	return Value{kind: KindInts, ints: slices.Clone(v)}
}

// Floats creates a list of floats attribute value. The slice is copied.
func Floats(v ...float64) Value {
	if v == nil {
		v = []float64{}
	}
	return Value{kind: KindFloats, floats: slices.Clone(v)}
}

// Strings creates a list of strings attribute value. The slice is copied.
func Strings(v ...string) Value {
	if v == nil {
		v = []string{}
	}
	return Value{kind: KindStrings, strs: slices.Clone(v)}
}

// ElementType creates an element type attribute value (e.g. output_type of ShapeOf).
func ElementType(dtype dtypes.DType) Value { return Value{kind: KindElementType, element: dtype} }

// Kind returns the kind of value held.
func (v Value) Kind() Kind { return v.kind }

// IsValid returns whether the value was set.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Int returns the integer held, or 0 if the value is of a different kind.
func (v Value) Int() int64 { return v.i }

// Float returns the float held, or 0 if the value is of a different kind.
func (v Value) Float() float64 { return v.f }

// Str returns the string held, or "" if the value is of a different kind.
func (v Value) Str() string { return v.s }

// Bool returns the boolean held, or false if the value is of a different kind.
func (v Value) Bool() bool { return v.b }

// Ints returns a copy of the integers held.
func (v Value) Ints() []int64 { return slices.Clone(v.ints) }

// Floats returns a copy of the floats held.
func (v Value) Floats() []float64 { return slices.Clone(v.floats) }

// Strings returns a copy of the strings held.
func (v Value) Strings() []string { return slices.Clone(v.strs) }

// ElementType returns the dtype held, or dtypes.InvalidDType if the value is of a different kind.
func (v Value) ElementType() dtypes.DType { return v.element }

// Len returns the number of elements of a list value, or -1 for scalar kinds.
func (v Value) Len() int {
	switch v.kind {
	case KindInts:
		return len(v.ints)
	case KindFloats:
		return len(v.floats)
	case KindStrings:
		return len(v.strs)
	}
	return -1
}

// Equal returns whether both values have the same kind and contents.
func (v Value) Equal(v2 Value) bool {
	if v.kind != v2.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == v2.i
	case KindFloat:
		return v.f == v2.f
	case KindString:
		return v.s == v2.s
	case KindBool:
		return v.b == v2.b
	case KindInts:
		return slices.Equal(v.ints, v2.ints)
	case KindFloats:
		return slices.Equal(v.floats, v2.floats)
	case KindStrings:
		return slices.Equal(v.strs, v2.strs)
	case KindElementType:
		return v.element == v2.element
	}
	return true
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprint(v.i)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBool:
		return fmt.Sprint(v.b)
	case KindInts:
		return fmt.Sprint(v.ints)
	case KindFloats:
		return fmt.Sprint(v.floats)
	case KindStrings:
		parts := make([]string, len(v.strs))
		for ii, s := range v.strs {
			parts[ii] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindElementType:
		return shapes.ElementTypeName(v.element)
	}
	return "<invalid>"
}

// GoValue returns the value held as a plain Go value: int64, float64, string, bool, []int64, []float64,
// []string, or the element type name as a string.
func (v Value) GoValue() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindInts:
		return v.Ints()
	case KindFloats:
		return v.Floats()
	case KindStrings:
		return v.Strings()
	case KindElementType:
		return shapes.ElementTypeName(v.element)
	}
	return nil
}
