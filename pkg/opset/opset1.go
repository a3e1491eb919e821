// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/pkg/core/attributes"
)

// opset1 is the base set of portable operations.
func opset1() []*OpSpec {
	var specs []*OpSpec
	specs = append(specs, unaryOps("Abs", "Acos", "Asin", "Atan", "Ceiling", "Cos", "Cosh", "Erf", "Exp", "Floor",
		"Log", "Negative", "Relu", "Sigmoid", "Sign", "Sin", "Sinh", "Sqrt", "Tan", "Tanh", "LogicalNot", "Result")...)
	specs = append(specs, binaryOps("Add", "Subtract", "Multiply", "Divide", "Power", "Maximum", "Minimum",
		"Mod", "FloorMod", "SquaredDifference", "Equal", "NotEqual", "Less", "LessEqual", "Greater", "GreaterEqual",
		"LogicalAnd", "LogicalOr", "LogicalXor")...)
	specs = append(specs, reductionOps("ReduceSum", "ReduceMax", "ReduceMin", "ReduceProd", "ReduceMean",
		"ReduceLogicalAnd", "ReduceLogicalOr")...)
	specs = append(specs, opset1Activations()...)
	specs = append(specs, opset1Convolutions()...)
	specs = append(specs, opset1Shapes()...)
	specs = append(specs, opset1Misc()...)
	specs = append(specs, opset1Recurrent()...)
	return specs
}

func opset1Activations() []*OpSpec {
	return []*OpSpec{
		Op("Elu").Inputs("data").Attrs(FloatAttr("alpha")),
		Op("Selu").Inputs("data", "alpha", "lambda"),
		Op("PRelu").Inputs("data", "slope"),
		Op("Clamp").Inputs("data").Attrs(FloatAttr("min"), FloatAttr("max")).Check(checkMinMax),
		Op("HardSigmoid").Inputs("data", "alpha", "beta"),
		Op("Softmax").Inputs("data").Attrs(IntAttr("axis")),
		Op("GRN").Inputs("data").Attrs(FloatAttr("bias")),
		Op("LRN").Inputs("data", "axes").Attrs(
			FloatAttr("alpha").Default(1.0),
			FloatAttr("beta").Default(0.5),
			FloatAttr("bias").Default(1.0),
			IntAttr("size").Default(5).Positive()),
		Op("NormalizeL2").Inputs("data", "axes").Attrs(
			FloatAttr("eps"),
			StringAttr("mode").Enum("add", "max")),
		Op("BatchNormInference").Inputs("gamma", "beta", "data", "mean", "variance").Attrs(FloatAttr("epsilon")).
			Check(func(_ int, attrs attributes.Bag) error {
				if epsilon := attrs.FloatOr("epsilon", 0); epsilon < 0 {
					return Invalidf("epsilon must be >= 0, got %g", epsilon)
				}
				return nil
			}),
		Op("FakeQuantize").Inputs("data", "input_low", "input_high", "output_low", "output_high").Attrs(
			IntAttr("levels").Positive(),
			autoBroadcast()),
		Op("ShuffleChannels").Inputs("data").Attrs(
			IntAttr("axis").Default(1),
			IntAttr("groups").Default(1).Positive()),
	}
}

func opset1Convolutions() []*OpSpec {
	backpropAttrs := append(windowAttrs(), IntsAttr("output_padding").PerAxis(0, "strides").NonNegative())
	return []*OpSpec{
		Op("Convolution").Inputs("data", "filters").Attrs(windowAttrs()...),
		Op("GroupConvolution").Inputs("data", "filters").Attrs(windowAttrs()...),
		Op("BinaryConvolution").Inputs("data", "filters").Attrs(windowAttrs()...).Attrs(
			StringAttr("mode").Enum("xnor-popcount"),
			FloatAttr("pad_value")),
		Op("ConvolutionBackpropData").Inputs("data", "filters").Optional("output_shape").Attrs(backpropAttrs...),
		Op("GroupConvolutionBackpropData").Inputs("data", "filters").Optional("output_shape").Attrs(backpropAttrs...),
		Op("DeformableConvolution").Inputs("data", "offsets", "filters").Attrs(windowAttrs()...).Attrs(
			IntAttr("group").Default(1).Positive(),
			IntAttr("deformable_group").Default(1).Positive()),
		Op("AvgPool").Inputs("data").Attrs(poolAttrs()...).Attrs(BoolAttr("exclude_pad")),
		Op("MaxPool").Inputs("data").Attrs(poolAttrs()...),
		Op("DeformablePSROIPooling").Inputs("feature_maps", "coords").Optional("offsets").Attrs(
			IntAttr("output_dim").Positive(),
			FloatAttr("spatial_scale"),
			IntAttr("group_size").Default(1).Positive(),
			StringAttr("mode").Enum("average", "bilinear_deformable").Default("bilinear_deformable"),
			IntAttr("spatial_bins_x").Default(1).Positive(),
			IntAttr("spatial_bins_y").Default(1).Positive(),
			FloatAttr("trans_std").Default(1.0),
			IntAttr("part_size").Default(1).Positive()),
		Op("PSROIPooling").Inputs("input", "coords").Attrs(
			IntAttr("output_dim").Positive(),
			IntAttr("group_size").Positive(),
			FloatAttr("spatial_scale"),
			IntAttr("spatial_bins_x").Positive(),
			IntAttr("spatial_bins_y").Positive(),
			StringAttr("mode").Enum("average", "bilinear")),
	}
}

func opset1Shapes() []*OpSpec {
	return []*OpSpec{
		Op("Concat").Variadic("args", 1).Attrs(IntAttr("axis")),
		Op("Reshape").Inputs("data", "shape").Attrs(BoolAttr("special_zero")),
		Op("Squeeze").Inputs("data").Optional("axes"),
		Op("Unsqueeze").Inputs("data", "axes"),
		Op("Transpose").Inputs("data", "order"),
		Op("Tile").Inputs("data", "repeats"),
		Op("Split").Inputs("data", "axis").Attrs(IntAttr("num_splits").Positive()).Outputs(FromAttr("num_splits")),
		Op("VariadicSplit").Inputs("data", "axis", "split_lengths").Outputs(Dynamic()),
		Op("StridedSlice").Inputs("data", "begin", "end").Optional("strides").Attrs(
			IntsAttr("begin_mask"),
			IntsAttr("end_mask"),
			IntsAttr("new_axis_mask").Default([]int64{}),
			IntsAttr("shrink_axis_mask").Default([]int64{}),
			IntsAttr("ellipsis_mask").Default([]int64{})),
		Op("Gather").Inputs("data", "indices", "axis"),
		Op("GatherTree").Inputs("step_ids", "parent_idx", "max_seq_len", "end_token"),
		Op("OneHot").Inputs("indices", "depth", "on_value", "off_value").Attrs(IntAttr("axis")),
		Op("Pad").Inputs("arg", "pads_begin", "pads_end").Optional("pad_value").Attrs(
			StringAttr("pad_mode").Enum("CONSTANT", "EDGE", "REFLECT", "SYMMETRIC").Default("CONSTANT")).
			Check(func(numInputs int, attrs attributes.Bag) error {
				if numInputs == 4 && attrs.StringOr("pad_mode", "") != "CONSTANT" {
					return Invalidf("pad_value input is only used with pad_mode=CONSTANT, got %s", attrs.StringOr("pad_mode", ""))
				}
				return nil
			}),
		Op("Broadcast").Inputs("data", "target_shape").Optional("axes_mapping").Attrs(
			StringAttr("broadcast_spec").Enum("NUMPY", "EXPLICIT", "PDPD").Default("NUMPY")).
			Check(checkExplicitAxesMapping),
		Op("Reverse").Inputs("data", "reversed_axes").Attrs(StringAttr("mode").Enum("index", "mask")),
		Op("ReverseSequence").Inputs("data", "seq_lengths").Attrs(IntAttr("batch_axis"), IntAttr("seq_axis")),
		Op("Convert").Inputs("data").Attrs(TypeAttr("destination_type")),
		Op("ConvertLike").Inputs("data", "like"),
		Op("Select").Inputs("cond", "then", "else").Attrs(autoBroadcast()),
		Op("SpaceToDepth").Inputs("data").Attrs(
			StringAttr("mode").Enum("blocks_first", "depth_first"),
			IntAttr("block_size").Default(1).Positive()),
		Op("DepthToSpace").Inputs("data").Attrs(
			StringAttr("mode").Enum("blocks_first", "depth_first"),
			IntAttr("block_size").Default(1).Positive()),
		Op("ShapeOf").Inputs("data"),
	}
}

func opset1Misc() []*OpSpec {
	return []*OpSpec{
		Op("MatMul").Inputs("a", "b").Attrs(BoolAttr("transpose_a").Default(false), BoolAttr("transpose_b").Default(false)),
		Op("TopK").Inputs("data", "k").Attrs(
			IntAttr("axis"),
			StringAttr("mode").Enum("max", "min"),
			StringAttr("sort").Enum("value", "index", "none")).
			Outputs(Fixed(2)),
		Op("NonMaxSuppression").Inputs("boxes", "scores").
			Optional("max_output_boxes_per_class", "iou_threshold", "score_threshold").
			Derive("max_output_boxes_per_class", zeroScalar(dtypes.Int64)).
			Derive("iou_threshold", zeroScalar(dtypes.Float32)).
			Derive("score_threshold", zeroScalar(dtypes.Float32)).
			Attrs(
				StringAttr("box_encoding").Enum("corner", "center").Default("corner"),
				BoolAttr("sort_result_descending").Default(true)),
		Op("CTCGreedyDecoder").Inputs("data", "sequence_mask").Attrs(BoolAttr("ctc_merge_repeated").Default(true)),
	}
}

// opset1Recurrent holds the legacy LSTM contract: peephole weights P (derived as zeros when absent) and
// the implicit weights_format and input_forget attributes.
func opset1Recurrent() []*OpSpec {
	return []*OpSpec{
		Op("LSTMCell").Inputs("X", "initial_hidden_state", "initial_cell_state", "W", "R", "B").Optional("P").
			Attrs(recurrentAttrs("sigmoid", "tanh", "tanh")...).Attrs(legacyLSTMAttrs()...).
			Check(checkActivationsCount(3)).
			Derive("P", zeroPeepholes(false)).
			Outputs(Fixed(2)),
		Op("LSTMSequence").Inputs("X", "initial_hidden_state", "initial_cell_state", "sequence_lengths", "W", "R", "B").
			Optional("P").
			Attrs(slices.Insert(recurrentAttrs("sigmoid", "tanh", "tanh"), 1, StringAttr("direction").Enum(directions...))...).
			Attrs(legacyLSTMAttrs()...).
			Check(checkActivationsCount(3)).
			Derive("P", zeroPeepholes(true)).
			Outputs(Fixed(3)),
	}
}
