// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package attributes

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Bag maps attribute names to their values.
type Bag map[string]Value

// NewBag converts a map of plain Go values to a Bag, using FromAny on each value.
func NewBag(values map[string]any) (Bag, error) {
	bag := make(Bag, len(values))
	for name, value := range values {
		v, err := FromAny(value)
		if err != nil {
			return nil, errors.WithMessagef(err, "attribute %q", name)
		}
		bag[name] = v
	}
	return bag, nil
}

// Clone returns a shallow copy of the bag. Values are immutable, so this is enough to isolate them.
func (b Bag) Clone() Bag {
	if b == nil {
		return Bag{}
	}
	return maps.Clone(b)
}

// Has returns whether the bag has an attribute with the given name.
func (b Bag) Has(name string) bool {
	_, found := b[name]
	return found
}

// Names returns the attribute names in sorted order.
func (b Bag) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// Equal returns whether both bags have the same names and equal values.
func (b Bag) Equal(b2 Bag) bool {
	if len(b) != len(b2) {
		return false
	}
	for name, v := range b {
		v2, found := b2[name]
		if !found || !v.Equal(v2) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer, with names in sorted order.
func (b Bag) String() string {
	parts := make([]string, 0, len(b))
	for _, name := range b.Names() {
		parts = append(parts, fmt.Sprintf("%s=%s", name, b[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// IntOr returns the integer attribute with the given name, or defaultValue if absent or of a different kind.
func (b Bag) IntOr(name string, defaultValue int64) int64 {
	if v, found := b[name]; found && v.kind == KindInt {
		return v.i
	}
	return defaultValue
}

// FloatOr returns the float attribute with the given name, or defaultValue if absent or of a different kind.
func (b Bag) FloatOr(name string, defaultValue float64) float64 {
	if v, found := b[name]; found && v.kind == KindFloat {
		return v.f
	}
	return defaultValue
}

// StringOr returns the string attribute with the given name, or defaultValue if absent or of a different kind.
func (b Bag) StringOr(name string, defaultValue string) string {
	if v, found := b[name]; found && v.kind == KindString {
		return v.s
	}
	return defaultValue
}

// BoolOr returns the boolean attribute with the given name, or defaultValue if absent or of a different kind.
func (b Bag) BoolOr(name string, defaultValue bool) bool {
	if v, found := b[name]; found && v.kind == KindBool {
		return v.b
	}
	return defaultValue
}

// IntsOr returns the list of integers attribute converted to []int, or defaultValues if absent.
func (b Bag) IntsOr(name string, defaultValues []int) []int {
	if v, found := b[name]; found && v.kind == KindInts {
		out := make([]int, len(v.ints))
		for ii, x := range v.ints {
			out[ii] = int(x)
		}
		return out
	}
	return defaultValues
}

// StringsOr returns the list of strings attribute, or defaultValues if absent.
func (b Bag) StringsOr(name string, defaultValues []string) []string {
	if v, found := b[name]; found && v.kind == KindStrings {
		return v.Strings()
	}
	return defaultValues
}

// ElementTypeOr returns the element type attribute, or defaultValue if absent.
func (b Bag) ElementTypeOr(name string, defaultValue dtypes.DType) dtypes.DType {
	if v, found := b[name]; found && v.kind == KindElementType {
		return v.element
	}
	return defaultValue
}

// FromAny converts a plain Go value to a Value:
//
//   - Value: returned as is.
//   - Any integer type: KindInt.
//   - float32, float64: KindFloat.
//   - string: KindString.
//   - bool: KindBool.
//   - Slices of integers, of floats or of strings: KindInts, KindFloats or KindStrings.
//   - dtypes.DType: KindElementType.
//
// Anything else returns an error.
func FromAny(value any) (Value, error) {
	switch v := value.(type) {
	case Value:
		return v, nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint:
		return Int(int64(v)), nil
	case uint64:
		return Int(int64(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case dtypes.DType:
		return ElementType(v), nil
	case []int:
		return Ints(toInt64s(v)...), nil
	case []int32:
		return Ints(toInt64s(v)...), nil
	case []int64:
		return Ints(v...), nil
	case []uint:
		return Ints(toInt64s(v)...), nil
	case []uint32:
		return Ints(toInt64s(v)...), nil
	case []uint64:
		return Ints(toInt64s(v)...), nil
	case []float32:
		return Floats(toFloat64s(v)...), nil
	case []float64:
		return Floats(v...), nil
	case []string:
		return Strings(v...), nil
	}
	return Value{}, errors.Errorf("unsupported attribute value type %T", value)
}

func toInt64s[T constraints.Integer](values []T) []int64 {
	out := make([]int64, len(values))
	for ii, v := range values {
		out[ii] = int64(v)
	}
	return out
}

func toFloat64s[T constraints.Float](values []T) []float64 {
	out := make([]float64, len(values))
	for ii, v := range values {
		out[ii] = float64(v)
	}
	return out
}
