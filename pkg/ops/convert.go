// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"math"
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

var (
	float16Type  = reflect.TypeOf(float16.Float16(0))
	bfloat16Type = reflect.TypeOf(bfloat16.BFloat16(0))
)

// AsNode converts x to a node output:
//
//   - A backends.Output is returned unchanged.
//   - A backends.Node with a single output is converted to its output.
//   - Go scalars (bool, integers, floats, float16.Float16, bfloat16.BFloat16) and rectangular, possibly
//     nested, slices or arrays of them are converted to a new constant. See Constant for the element type.
//
// Anything else (strings, maps, ragged slices, nodes with multiple outputs) fails with opset.ErrUnsupportedValue.
func AsNode(engine backends.Engine, x any) (backends.Output, error) {
	output, lit, err := prepare(x)
	if err != nil || lit == nil {
		return output, err
	}
	return lit.create(engine)
}

// AsNodes converts each of xs with AsNode, preserving the order. It fails on the first value that can't be
// converted, and in that case no constant is created.
func AsNodes(engine backends.Engine, xs ...any) ([]backends.Output, error) {
	outputs := make([]backends.Output, len(xs))
	literals := make([]*literal, len(xs))
	for ii, x := range xs {
		var err error
		outputs[ii], literals[ii], err = prepare(x)
		if err != nil {
			return nil, errors.WithMessagef(err, "input #%d", ii)
		}
	}
	for ii, lit := range literals {
		if lit == nil {
			continue
		}
		var err error
		outputs[ii], err = lit.create(engine)
		if err != nil {
			return nil, errors.WithMessagef(err, "input #%d", ii)
		}
	}
	return outputs, nil
}

// prepare validates x: it returns either the node output x refers to, or the literal to create as a constant.
func prepare(x any) (backends.Output, *literal, error) {
	switch v := x.(type) {
	case backends.Output:
		if !v.Ok() {
			return backends.Output{}, nil, errors.Wrapf(opset.ErrUnsupportedValue, "invalid node output %s", v)
		}
		return v, nil, nil
	case backends.Node:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return backends.Output{}, nil, errors.Wrap(opset.ErrUnsupportedValue, "nil node")
		}
		if v.NumOutputs() != 1 {
			return backends.Output{}, nil, errors.Wrapf(opset.ErrUnsupportedValue,
				"node %s has %d outputs, select one with backends.Output", v.Name(), v.NumOutputs())
		}
		return backends.Output{Node: v}, nil, nil
	}
	lit, err := newLiteral(x)
	return backends.Output{}, lit, err
}

// literal is a Go value validated to become a constant.
type literal struct {
	shape shapes.Shape
	flat  []reflect.Value
}

func newLiteral(value any) (*literal, error) {
	dims, elemType, flat, err := flatten(value)
	if err != nil {
		return nil, err
	}
	dtype := dtypes.FromGoType(elemType)
	if elemType.Kind() == reflect.Uint {
		dtype = dtypes.Uint64
	}
	if dtype == dtypes.InvalidDType {
		return nil, errors.Wrapf(opset.ErrUnsupportedValue, "no element type for Go type %s", elemType)
	}
	return &literal{shape: shapes.Make(dtype, dims...), flat: flat}, nil
}

func (lit *literal) create(engine backends.Engine) (backends.Output, error) {
	goType := lit.shape.DType.GoType()
	values := reflect.MakeSlice(reflect.SliceOf(goType), len(lit.flat), len(lit.flat))
	for ii, v := range lit.flat {
		values.Index(ii).Set(v.Convert(goType))
	}
	node, err := engine.Constant(lit.shape, values.Interface())
	if err != nil {
		return backends.Output{}, err
	}
	return backends.Output{Node: node}, nil
}

// Constant creates a constant from a Go scalar, or a rectangular (possibly nested) slice or array.
//
// The element type is the one of the Go type, e.g. int is Int64, uint is Uint64, float64 is Float64,
// float32 is Float32, float16.Float16 is Float16. Use ConstantWithType to choose another element type.
func Constant(engine backends.Engine, value any) (backends.Output, error) {
	lit, err := newLiteral(value)
	if err != nil {
		return backends.Output{}, err
	}
	return lit.create(engine)
}

// ConstantWithType is like Constant, but converts the values to dtype. Values that don't fit dtype fail
// with opset.ErrUnsupportedValue.
func ConstantWithType(engine backends.Engine, dtype dtypes.DType, value any) (backends.Output, error) {
	if dtype == dtypes.InvalidDType {
		return backends.Output{}, errors.Wrap(opset.ErrUnsupportedValue, "invalid element type")
	}
	dims, _, flat, err := flatten(value)
	if err != nil {
		return backends.Output{}, err
	}
	goType := dtype.GoType()
	converted := reflect.MakeSlice(reflect.SliceOf(goType), len(flat), len(flat))
	for ii, v := range flat {
		c, err := convertValue(v, goType)
		if err != nil {
			return backends.Output{}, errors.WithMessagef(err, "converting %v to %s", value, dtype)
		}
		converted.Index(ii).Set(c)
	}
	node, err := engine.Constant(shapes.Make(dtype, dims...), converted.Interface())
	if err != nil {
		return backends.Output{}, err
	}
	return backends.Output{Node: node}, nil
}

// flatten returns the dimensions, the Go element type and the flat values of a scalar or a rectangular
// (nested) slice or array.
func flatten(value any) (dims []int, elemType reflect.Type, flat []reflect.Value, err error) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		err = errors.Wrap(opset.ErrUnsupportedValue, "nil value")
		return
	}
	elemType = v.Type()
	for elemType.Kind() == reflect.Slice || elemType.Kind() == reflect.Array {
		elemType = elemType.Elem()
	}
	if !isNumeric(elemType) {
		err = errors.Wrapf(opset.ErrUnsupportedValue, "can't convert values of type %T to a constant", value)
		return
	}

	// Dimensions are taken from the first element of each level.
	for e := v; e.Kind() == reflect.Slice || e.Kind() == reflect.Array; {
		dims = append(dims, e.Len())
		if e.Len() == 0 {
			break
		}
		e = e.Index(0)
	}
	var walk func(e reflect.Value, level int) error
	walk = func(e reflect.Value, level int) error {
		if level == len(dims) {
			flat = append(flat, e)
			return nil
		}
		if e.Len() != dims[level] {
			return errors.Wrapf(opset.ErrUnsupportedValue, "ragged value %v: axis %d has lengths %d and %d",
				value, level, dims[level], e.Len())
		}
		for ii := range e.Len() {
			if err := walk(e.Index(ii), level+1); err != nil {
				return err
			}
		}
		return nil
	}
	err = walk(v, 0)
	return
}

func isNumeric(t reflect.Type) bool {
	if t == float16Type || t == bfloat16Type {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertValue converts a numeric value to the Go type of an element type.
func convertValue(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	// Half precision floats are converted through float32.
	switch v.Type() {
	case float16Type:
		v = reflect.ValueOf(v.Interface().(float16.Float16).Float32())
	case bfloat16Type:
		v = reflect.ValueOf(v.Interface().(bfloat16.BFloat16).Float32())
	}
	if v.Kind() == reflect.Bool {
		if to.Kind() == reflect.Bool {
			return v, nil
		}
		b := 0
		if v.Bool() {
			b = 1
		}
		v = reflect.ValueOf(b)
	}
	switch {
	case to == float16Type:
		return reflect.ValueOf(float16.Fromfloat32(float32(asFloat(v)))), nil
	case to == bfloat16Type:
		return reflect.ValueOf(bfloat16.FromFloat32(float32(asFloat(v)))), nil
	case to.Kind() == reflect.Bool:
		return reflect.ValueOf(asFloat(v) != 0), nil
	case v.CanConvert(to):
		if overflows(v, to) {
			return reflect.Value{}, errors.Wrapf(opset.ErrUnsupportedValue, "value %v doesn't fit in %s", v, to)
		}
		return v.Convert(to), nil
	}
	return reflect.Value{}, errors.Wrapf(opset.ErrUnsupportedValue, "can't convert %s to %s", v.Type(), to)
}

// overflows reports whether the numeric value v is out of the range of the numeric type to.
// Floats converted to integers are truncated first.
func overflows(v reflect.Value, to reflect.Type) bool {
	zero := reflect.Zero(to)
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch {
		case v.CanInt():
			return zero.OverflowInt(v.Int())
		case v.CanUint():
			return v.Uint() > math.MaxInt64 || zero.OverflowInt(int64(v.Uint()))
		case v.CanFloat():
			f := math.Trunc(v.Float())
			return math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 || zero.OverflowInt(int64(f))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch {
		case v.CanInt():
			return v.Int() < 0 || zero.OverflowUint(uint64(v.Int()))
		case v.CanUint():
			return zero.OverflowUint(v.Uint())
		case v.CanFloat():
			f := math.Trunc(v.Float())
			return math.IsNaN(f) || f < 0 || f >= math.MaxUint64 || zero.OverflowUint(uint64(f))
		}
	case reflect.Float32:
		return v.CanFloat() && !math.IsInf(v.Float(), 0) && zero.OverflowFloat(v.Float())
	}
	return false
}

func asFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	case v.CanFloat():
		return v.Float()
	}
	return 0
}
