// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
)

// Rounding modes of the legacy Quantize operation.
var quantizeRoundModes = []string{
	"ROUND_NEAREST_TOWARD_INFINITY", "ROUND_NEAREST_TOWARD_ZERO", "ROUND_NEAREST_UPWARD", "ROUND_NEAREST_DOWNWARD",
	"ROUND_NEAREST_TOWARD_EVEN", "ROUND_TOWARD_INFINITY", "ROUND_TOWARD_ZERO", "ROUND_UP", "ROUND_DOWN",
}

// opset0 holds the legacy operations, which take static attributes (bounds, axes, shapes) where the later
// opsets take inputs. It also includes the element-wise operations, whose contract didn't change.
func opset0() []*OpSpec {
	var specs []*OpSpec
	specs = append(specs, unaryOps("Abs", "Acos", "Asin", "Atan", "Ceiling", "Cos", "Cosh", "Erf", "Exp", "Floor",
		"Log", "Negative", "Relu", "Sigmoid", "Sign", "Sin", "Sinh", "Sqrt", "Tan", "Tanh", "LogicalNot", "Result")...)
	specs = append(specs, binaryOps("Add", "Subtract", "Multiply", "Divide", "Power", "Maximum", "Minimum",
		"Equal", "NotEqual", "Less", "LessEqual", "Greater", "GreaterEqual", "LogicalAnd", "LogicalOr", "LogicalXor")...)
	specs = append(specs,
		Op("ArgMax").Inputs("data").Attrs(
			IntAttr("axis").NonNegative(),
			TypeAttr("index_element_type").Types(indexTypes...).Default("i32")),
		Op("ArgMin").Inputs("data").Attrs(
			IntAttr("axis").NonNegative(),
			TypeAttr("index_element_type").Types(indexTypes...).Default("i32")),
		Op("Broadcast").Inputs("data").Attrs(
			IntsAttr("shape").NonNegative(),
			IntsAttr("broadcast_axes").NonNegative()),
		Op("Dot").Inputs("arg0", "arg1").Attrs(IntAttr("reduction_axes_count").NonNegative().Optional()),
		Op("Gemm").Inputs("A", "B", "C").Attrs(
			FloatAttr("alpha").Default(1.0),
			FloatAttr("beta").Default(1.0),
			BoolAttr("transA").Default(false),
			BoolAttr("transB").Default(false)),
		Op("GetOutputElement").Inputs("data").Attrs(IntAttr("n").NonNegative()).
			CheckInputs(func(inputs []backends.Output, attrs attributes.Bag) error {
				if n, numOutputs := attrs.IntOr("n", 0), inputs[0].Node.NumOutputs(); int(n) >= numOutputs {
					return Invalidf("n=%d, but node %s has only %d outputs", n, inputs[0].Node.Name(), numOutputs)
				}
				return nil
			}),
		Op("Reverse").Inputs("data").Attrs(IntsAttr("reversed_axes").NonNegative()),
		Op("Slice").Inputs("data").Attrs(
			IntsAttr("lower_bounds").NonNegative(),
			IntsAttr("upper_bounds").SameLength("lower_bounds").NonNegative(),
			IntsAttr("strides").PerAxis(1, "lower_bounds").Positive()).
			Check(checkBounds),
		Op("ReplaceSlice").Inputs("dest", "src").Attrs(
			IntsAttr("lower_bounds").NonNegative(),
			IntsAttr("upper_bounds").SameLength("lower_bounds").NonNegative(),
			IntsAttr("strides").PerAxis(1, "lower_bounds").Positive()).
			Check(checkBounds),
		Op("ScaleShift").Inputs("data", "scale", "shift"),
		Op("Quantize").Inputs("data", "scale", "zero_point").Attrs(
			TypeAttr("new_type"),
			IntsAttr("axes").NonNegative(),
			StringAttr("round_mode").Enum(quantizeRoundModes...)),
		Op("Dequantize").Inputs("data", "scale", "zero_point").Attrs(
			TypeAttr("element_type"),
			IntsAttr("axes").NonNegative()),
		Op("QuantizedConvolution").Inputs("data", "filters", "input_scale", "input_zero_point",
			"filter_scale", "filter_zero_point", "output_scale", "output_zero_point").Attrs(
			IntsAttr("window_movement_strides").Positive(),
			IntsAttr("window_dilation_strides").PerAxis(1, "window_movement_strides").Positive(),
			IntsAttr("padding_below").PerAxis(0, "window_movement_strides"),
			IntsAttr("padding_above").PerAxis(0, "window_movement_strides"),
			IntsAttr("data_dilation_strides").PerAxis(1, "window_movement_strides").Positive(),
			TypeAttr("output_type"),
			IntsAttr("input_axes").Default([]int64{}),
			IntsAttr("filter_axes").Default([]int64{}),
			IntsAttr("output_axes").Default([]int64{})),
		Op("QuantizedDot").Inputs("input0", "input1", "input0_scale", "input0_zero_point",
			"input1_scale", "input1_zero_point", "output_scale", "output_zero_point").Attrs(
			IntAttr("reduction_axes_count").NonNegative(),
			TypeAttr("output_type"),
			IntsAttr("input0_axes").Default([]int64{}),
			IntsAttr("input1_axes").Default([]int64{}),
			IntsAttr("output_axes").Default([]int64{})),
	)
	specs = append(specs, opset1Recurrent()...)
	return specs
}

// checkBounds validates lower_bounds <= upper_bounds, axis by axis.
func checkBounds(_ int, attrs attributes.Bag) error {
	lower, upper := attrs.IntsOr("lower_bounds", nil), attrs.IntsOr("upper_bounds", nil)
	for axis := range min(len(lower), len(upper)) {
		if lower[axis] > upper[axis] {
			return Invalidf("lower_bounds %v must be <= upper_bounds %v", lower, upper)
		}
	}
	return nil
}
