// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/opset"
)

// This file holds the legacy operations: they are always created from opset0, and take as attributes what
// later opsets take as inputs.

func (f *Factory) createLegacy(name string, attrs attributes.Bag, inputs ...any) (backends.Output, error) {
	return f.createPinned(opset.Opset0, name, attrs, inputs...)
}

// Dot contracts the last reductionAxesCount axes of x with the first ones of y. A negative
// reductionAxesCount uses the engine default: 1 for non-scalar operands, 0 otherwise.
func (f *Factory) Dot(x, y any, reductionAxesCount int) (backends.Output, error) {
	var attrs attributes.Bag
	if reductionAxesCount >= 0 {
		attrs = attributes.Bag{"reduction_axes_count": attributes.Int(int64(reductionAxesCount))}
	}
	return f.createLegacy("Dot", attrs, x, y)
}

// Gemm returns alpha*A*B + beta*C, optionally transposing A and B.
func (f *Factory) Gemm(a, b, c any, alpha, beta float64, transposeA, transposeB bool) (backends.Output, error) {
	return f.createLegacy("Gemm", attributes.Bag{
		"alpha":  attributes.Float(alpha),
		"beta":   attributes.Float(beta),
		"transA": attributes.Bool(transposeA),
		"transB": attributes.Bool(transposeB),
	}, a, b, c)
}

// Slice x from lowerBounds (inclusive) to upperBounds (exclusive). strides is optional (nil), and defaults
// to 1 for every axis.
func (f *Factory) Slice(x any, lowerBounds, upperBounds, strides []int) (backends.Output, error) {
	return f.createLegacy("Slice", boundsAttrs(lowerBounds, upperBounds, strides), x)
}

// ReplaceSlice returns dest with the slice from lowerBounds to upperBounds replaced by src.
func (f *Factory) ReplaceSlice(dest, src any, lowerBounds, upperBounds, strides []int) (backends.Output, error) {
	return f.createLegacy("ReplaceSlice", boundsAttrs(lowerBounds, upperBounds, strides), dest, src)
}

func boundsAttrs(lowerBounds, upperBounds, strides []int) attributes.Bag {
	attrs := attributes.Bag{
		"lower_bounds": intsAttr(lowerBounds),
		"upper_bounds": intsAttr(upperBounds),
	}
	if strides != nil {
		attrs["strides"] = intsAttr(strides)
	}
	return attrs
}

// ArgMax returns the indices (Int32) of the maximum values of x along axis, which is removed.
func (f *Factory) ArgMax(x any, axis int) (backends.Output, error) {
	return f.createLegacy("ArgMax", attributes.Bag{"axis": attributes.Int(int64(axis))}, x)
}

// ArgMin returns the indices (Int32) of the minimum values of x along axis, which is removed.
func (f *Factory) ArgMin(x any, axis int) (backends.Output, error) {
	return f.createLegacy("ArgMin", attributes.Bag{"axis": attributes.Int(int64(axis))}, x)
}

// Quantize x to dtype with the given scale and zero point, applied along axes. roundMode is one of the
// ROUND_* modes, e.g. "ROUND_NEAREST_TOWARD_EVEN".
func (f *Factory) Quantize(x, scale, zeroPoint any, dtype dtypes.DType, axes []int, roundMode string) (backends.Output, error) {
	return f.createLegacy("Quantize", attributes.Bag{
		"new_type":   attributes.ElementType(dtype),
		"axes":       intsAttr(axes),
		"round_mode": attributes.String(roundMode),
	}, x, scale, zeroPoint)
}

// Dequantize x to dtype with the given scale and zero point, applied along axes.
func (f *Factory) Dequantize(x, scale, zeroPoint any, dtype dtypes.DType, axes []int) (backends.Output, error) {
	return f.createLegacy("Dequantize", attributes.Bag{
		"element_type": attributes.ElementType(dtype),
		"axes":         intsAttr(axes),
	}, x, scale, zeroPoint)
}

// QuantizationParams are the scale and zero point of a quantized value.
type QuantizationParams struct {
	Scale, ZeroPoint any
}

// QuantizedConvolutionConfig holds the window parameters of QuantizedConvolution. WindowMovementStrides is
// required, the others default to 1 (dilations) or 0 (padding) per axis when nil.
type QuantizedConvolutionConfig struct {
	WindowMovementStrides        []int
	WindowDilationStrides        []int
	PaddingBelow, PaddingAbove   []int
	DataDilationStrides          []int
	InputAxes, FilterAxes        []int
	OutputAxes                   []int
	OutputType                   dtypes.DType
	Input, Filter, OutputQParams QuantizationParams
}

// QuantizedConvolution convolves the quantized data with the quantized filters, and requantizes the result.
func (f *Factory) QuantizedConvolution(data, filters any, config QuantizedConvolutionConfig) (backends.Output, error) {
	attrs := attributes.Bag{
		"window_movement_strides": intsAttr(config.WindowMovementStrides),
		"output_type":             attributes.ElementType(config.OutputType),
	}
	for name, values := range map[string][]int{
		"window_dilation_strides": config.WindowDilationStrides,
		"padding_below":           config.PaddingBelow,
		"padding_above":           config.PaddingAbove,
		"data_dilation_strides":   config.DataDilationStrides,
		"input_axes":              config.InputAxes,
		"filter_axes":             config.FilterAxes,
		"output_axes":             config.OutputAxes,
	} {
		if values != nil {
			attrs[name] = intsAttr(values)
		}
	}
	return f.createLegacy("QuantizedConvolution", attrs, data, filters,
		config.Input.Scale, config.Input.ZeroPoint,
		config.Filter.Scale, config.Filter.ZeroPoint,
		config.OutputQParams.Scale, config.OutputQParams.ZeroPoint)
}

// QuantizedDotConfig holds the parameters of QuantizedDot.
type QuantizedDotConfig struct {
	ReductionAxesCount            int
	OutputType                    dtypes.DType
	Input0Axes, Input1Axes        []int
	OutputAxes                    []int
	Input0, Input1, OutputQParams QuantizationParams
}

// QuantizedDot is the quantized version of Dot.
func (f *Factory) QuantizedDot(x, y any, config QuantizedDotConfig) (backends.Output, error) {
	attrs := attributes.Bag{
		"reduction_axes_count": attributes.Int(int64(config.ReductionAxesCount)),
		"output_type":          attributes.ElementType(config.OutputType),
	}
	for name, values := range map[string][]int{
		"input0_axes": config.Input0Axes,
		"input1_axes": config.Input1Axes,
		"output_axes": config.OutputAxes,
	} {
		if values != nil {
			attrs[name] = intsAttr(values)
		}
	}
	return f.createLegacy("QuantizedDot", attrs, x, y,
		config.Input0.Scale, config.Input0.ZeroPoint,
		config.Input1.Scale, config.Input1.ZeroPoint,
		config.OutputQParams.Scale, config.OutputQParams.ZeroPoint)
}

// ScaleShift returns x*scale + shift.
func (f *Factory) ScaleShift(x, scale, shift any) (backends.Output, error) {
	return f.createLegacy("ScaleShift", nil, x, scale, shift)
}

// GetOutputElement selects the output n of a multi-output node, as a node of its own.
func (f *Factory) GetOutputElement(node backends.Node, n int) (backends.Output, error) {
	return f.createLegacy("GetOutputElement", attributes.Bag{"n": attributes.Int(int64(n))}, backends.Output{Node: node})
}
