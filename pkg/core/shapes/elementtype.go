// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// elementTypeNames are the short element type names used in operation attributes (e.g. "i64" for output_type).
var elementTypeNames = map[dtypes.DType]string{
	dtypes.Bool:     "boolean",
	dtypes.BFloat16: "bf16",
	dtypes.Float16:  "f16",
	dtypes.Float32:  "f32",
	dtypes.Float64:  "f64",
	dtypes.Int8:     "i8",
	dtypes.Int16:    "i16",
	dtypes.Int32:    "i32",
	dtypes.Int64:    "i64",
	dtypes.Uint8:    "u8",
	dtypes.Uint16:   "u16",
	dtypes.Uint32:   "u32",
	dtypes.Uint64:   "u64",
}

// elementTypeAliases maps lower-cased names to dtypes. Built in init from elementTypeNames plus Go-style names.
var elementTypeAliases = make(map[string]dtypes.DType)

func init() {
	for dtype, name := range elementTypeNames {
		elementTypeAliases[name] = dtype
		elementTypeAliases[strings.ToLower(dtype.String())] = dtype
	}
	for name, dtype := range map[string]dtypes.DType{
		"bool":     dtypes.Bool,
		"float16":  dtypes.Float16,
		"float32":  dtypes.Float32,
		"float64":  dtypes.Float64,
		"bfloat16": dtypes.BFloat16,
		"int8":     dtypes.Int8,
		"int16":    dtypes.Int16,
		"int32":    dtypes.Int32,
		"int64":    dtypes.Int64,
		"uint8":    dtypes.Uint8,
		"uint16":   dtypes.Uint16,
		"uint32":   dtypes.Uint32,
		"uint64":   dtypes.Uint64,
	} {
		elementTypeAliases[name] = dtype
	}
}

// ElementTypeName returns the short attribute name of the dtype (e.g. "f32", "i64", "boolean").
// Unsupported dtypes return their dtypes.DType string.
func ElementTypeName(dtype dtypes.DType) string {
	if name, found := elementTypeNames[dtype]; found {
		return name
	}
	return dtype.String()
}

// ParseElementType converts an element type name to a dtype. Matching is case-insensitive and accepts both
// the short names ("f32", "i64", "boolean") and Go-like names ("float32", "int64", "bool").
func ParseElementType(name string) (dtypes.DType, error) {
	dtype, found := elementTypeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return dtypes.InvalidDType, errors.Errorf("unknown element type %q", name)
	}
	return dtype, nil
}

// IsFloat returns whether dtype is a floating point type (including float16 and bfloat16).
func IsFloat(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64:
		return true
	}
	return false
}

// IsInteger returns whether dtype is a signed or unsigned integer type.
func IsInteger(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
		dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64:
		return true
	}
	return false
}
