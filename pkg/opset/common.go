// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
)

// Values of the common enum attributes.
var (
	autoBroadcastModes = []string{"NONE", "NUMPY", "PDPD"}
	autoPadModes       = []string{"EXPLICIT", "SAME_UPPER", "SAME_LOWER", "VALID"}
	roundingTypes      = []string{"FLOOR", "CEIL"}
	activationNames    = []string{"relu", "sigmoid", "tanh"}
	directions         = []string{"forward", "reverse", "bidirectional"}
	lstmWeightsFormats = []string{"fico", "icof", "ifco", "ifoc", "iofc"}
	indexTypes         = []dtypes.DType{dtypes.Int32, dtypes.Int64}
)

func unaryOps(names ...string) []*OpSpec {
	specs := make([]*OpSpec, len(names))
	for ii, name := range names {
		specs[ii] = Op(name).Inputs("arg")
	}
	return specs
}

func autoBroadcast() AttrSpec {
	return StringAttr("auto_broadcast").Enum(autoBroadcastModes...).Default("NUMPY")
}

// binaryOps are element-wise with two operands and numpy broadcasting by default.
func binaryOps(names ...string) []*OpSpec {
	specs := make([]*OpSpec, len(names))
	for ii, name := range names {
		specs[ii] = Op(name).Inputs("arg0", "arg1").Attrs(autoBroadcast())
	}
	return specs
}

func reductionOps(names ...string) []*OpSpec {
	specs := make([]*OpSpec, len(names))
	for ii, name := range names {
		specs[ii] = Op(name).Inputs("data", "axes").Attrs(BoolAttr("keep_dims").Default(false))
	}
	return specs
}

// windowAttrs are the attributes of convolutions, with pads and dilations defaulting from the number of
// spatial axes given by strides.
func windowAttrs() []AttrSpec {
	return []AttrSpec{
		IntsAttr("strides").Positive(),
		IntsAttr("pads_begin").PerAxis(0, "strides").NonNegative(),
		IntsAttr("pads_end").PerAxis(0, "strides").NonNegative(),
		IntsAttr("dilations").PerAxis(1, "strides").Positive(),
		StringAttr("auto_pad").Enum(autoPadModes...).Default("EXPLICIT"),
	}
}

func poolAttrs() []AttrSpec {
	return []AttrSpec{
		IntsAttr("strides").Positive(),
		IntsAttr("pads_begin").PerAxis(0, "strides").NonNegative(),
		IntsAttr("pads_end").PerAxis(0, "strides").NonNegative(),
		IntsAttr("kernel").SameLength("strides").Positive(),
		StringAttr("rounding_type").Enum(roundingTypes...).Default("FLOOR"),
		StringAttr("auto_pad").Enum(autoPadModes...).Default("EXPLICIT"),
	}
}

// recurrentAttrs are the attributes shared by LSTM, GRU and RNN cells.
func recurrentAttrs(defaultActivations ...string) []AttrSpec {
	return []AttrSpec{
		IntAttr("hidden_size").Positive(),
		StringsAttr("activations").Enum(activationNames...).Default(defaultActivations),
		FloatsAttr("activations_alpha").Default([]float64{}),
		FloatsAttr("activations_beta").Default([]float64{}),
		FloatAttr("clip").Default(0.0),
	}
}

// legacyLSTMAttrs are implicit in the legacy LSTM contract, and have no counterpart in later opsets.
func legacyLSTMAttrs() []AttrSpec {
	return []AttrSpec{
		StringAttr("weights_format").Enum(lstmWeightsFormats...).Default("fico"),
		BoolAttr("input_forget").Default(false),
	}
}

func checkActivationsCount(n int) CheckFn {
	return func(_ int, attrs attributes.Bag) error {
		if got := len(attrs.StringsOr("activations", nil)); got != n {
			return Invalidf("attribute \"activations\" must have %d values, got %d", n, got)
		}
		return nil
	}
}

// zeroPeepholes derives the legacy LSTM peephole weights P when absent: zeros with the element type of X,
// shaped [3*hidden_size] for a cell or [num_directions, 3*hidden_size] for a sequence.
func zeroPeepholes(sequence bool) DeriveFn {
	return func(engine backends.Engine, inputs []backends.Output, attrs attributes.Bag) (backends.Output, error) {
		const numPeepholes = 3
		size := numPeepholes * int(attrs.IntOr("hidden_size", 0))
		dims := []int{size}
		if sequence {
			numDirections := 1
			if attrs.StringOr("direction", "") == "bidirectional" {
				numDirections = 2
			}
			dims = []int{numDirections, size}
		}
		return zerosConstant(engine, shapes.Make(inputs[0].DType(), dims...))
	}
}

// zeroScalar derives an absent input as a scalar zero of the given type.
func zeroScalar(dtype dtypes.DType) DeriveFn {
	return func(engine backends.Engine, _ []backends.Output, _ attributes.Bag) (backends.Output, error) {
		return zerosConstant(engine, shapes.Scalar(dtype))
	}
}

func zerosConstant(engine backends.Engine, shape shapes.Shape) (backends.Output, error) {
	size := shape.Size()
	flat := reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), size, size).Interface()
	node, err := engine.Constant(shape, flat)
	if err != nil {
		return backends.Output{}, err
	}
	return backends.Output{Node: node}, nil
}

// checkMinMax validates that attribute min <= max.
func checkMinMax(_ int, attrs attributes.Bag) error {
	minValue, maxValue := attrs.FloatOr("min", 0), attrs.FloatOr("max", 0)
	if minValue > maxValue {
		return Invalidf("min (%g) must be <= max (%g)", minValue, maxValue)
	}
	return nil
}

// checkExplicitAxesMapping validates that the axes_mapping input is given if and only if
// broadcast_spec=EXPLICIT.
func checkExplicitAxesMapping(numInputs int, attrs attributes.Bag) error {
	explicit := attrs.StringOr("broadcast_spec", "") == "EXPLICIT"
	switch {
	case explicit && numInputs != 3:
		return Invalidf("broadcast_spec=EXPLICIT requires the axes_mapping input")
	case !explicit && numInputs == 3:
		return Invalidf("axes_mapping input is only used with broadcast_spec=EXPLICIT, got %s",
			attrs.StringOr("broadcast_spec", ""))
	}
	return nil
}

// checkLen validates the number of values of a list attribute.
func checkLen(name string, n int) CheckFn {
	return func(_ int, attrs attributes.Bag) error {
		if v, found := attrs[name]; found && v.Len() != n {
			return Invalidf("attribute %q must have %d values, got %s", name, n, v)
		}
		return nil
	}
}
