// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package memgraph

import (
	"reflect"
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/backends/shapeinference"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/pkg/errors"
)

// inferFn returns the shapes of the outputs of a node.
type inferFn func(ctx *inferContext) ([]shapes.Shape, error)

// inferContext holds a node being constructed.
type inferContext struct {
	opType, version string
	inputs          []backends.Output
	attrs           attributes.Bag
}

func (c *inferContext) shape(i int) shapes.Shape { return c.inputs[i].Shape() }

func (c *inferContext) intAttr(name string, defaultValue int) int {
	return int(c.attrs.IntOr(name, int64(defaultValue)))
}

// unknown is the shape of an output nothing is known about, other than it probably keeps the dtype of
// the first input.
func (c *inferContext) unknown() shapes.Shape {
	if len(c.inputs) == 0 {
		return shapes.MakeDynamicRank(dtypes.Float32)
	}
	return shapes.MakeDynamicRank(c.shape(0).DType)
}

// constantInts returns the values of input i if they are known at construction time: if it is an integer
// Constant, or the ShapeOf a static shape. It returns nil otherwise.
func (c *inferContext) constantInts(i int) []int {
	if i >= len(c.inputs) {
		return nil
	}
	node := c.inputs[i].Node.(*Node)
	switch node.opType {
	case "Constant":
		if !shapes.IsInteger(node.outputs[0].DType) {
			return nil
		}
		v := reflect.ValueOf(node.value)
		values := make([]int, v.Len())
		for ii := range values {
			if e := v.Index(ii); e.CanInt() {
				values[ii] = int(e.Int())
			} else {
				values[ii] = int(e.Uint())
			}
		}
		return values
	case "ShapeOf":
		s := node.inputs[0].Shape()
		if s.IsDynamic() {
			return nil
		}
		return slices.Clone(s.Dimensions)
	}
	return nil
}

// scalarInt returns the value of input i if it is a constant with one value.
func (c *inferContext) scalarInt(i int) (int, bool) {
	values := c.constantInts(i)
	if len(values) != 1 {
		return 0, false
	}
	return values[0], true
}

// lengthOf returns the number of values of the 1D input i, or shapes.DynamicDim if not known.
func (c *inferContext) lengthOf(i int) int {
	s := c.shape(i)
	switch {
	case s.DynamicRank:
		return shapes.DynamicDim
	case s.Rank() == 0:
		return 1
	}
	return s.Dimensions[0]
}

// window returns the configuration of convolutions and poolings from the (normalized) attributes.
func (c *inferContext) window() shapeinference.WindowConfig {
	return shapeinference.WindowConfig{
		Strides:      c.attrs.IntsOr("strides", nil),
		PadsBegin:    c.attrs.IntsOr("pads_begin", nil),
		PadsEnd:      c.attrs.IntsOr("pads_end", nil),
		Dilations:    c.attrs.IntsOr("dilations", nil),
		AutoPad:      c.attrs.StringOr("auto_pad", shapeinference.PadExplicit),
		CeilRounding: c.attrs.StringOr("rounding_type", "FLOOR") == "CEIL",
	}
}

// one adapts a single-output inference.
func one(s shapes.Shape, err error) ([]shapes.Shape, error) {
	if err != nil {
		return nil, err
	}
	return []shapes.Shape{s}, nil
}

// dynamicDims returns a shape of the given rank with all dimensions unknown, or of unknown rank if rank is
// shapes.DynamicDim.
func dynamicDims(dtype dtypes.DType, rank int) shapes.Shape {
	if rank == shapes.DynamicDim {
		return shapes.MakeDynamicRank(dtype)
	}
	dims := make([]int, rank)
	for ii := range dims {
		dims[ii] = shapes.DynamicDim
	}
	return shapes.Make(dtype, dims...)
}

// sameAs returns the shape of input i.
func sameAs(i int) inferFn {
	return func(c *inferContext) ([]shapes.Shape, error) {
		return []shapes.Shape{c.shape(i).Clone()}, nil
	}
}

// withTypeAttr returns the shape of the first input, with the element type given by the attribute name.
func withTypeAttr(name string, defaultType dtypes.DType) inferFn {
	return func(c *inferContext) ([]shapes.Shape, error) {
		return []shapes.Shape{c.shape(0).WithDType(c.attrs.ElementTypeOr(name, defaultType))}, nil
	}
}

// unknownWithRank returns a shape with the rank of the first input, but unknown dimensions.
func unknownWithRank(c *inferContext) ([]shapes.Shape, error) {
	s := c.shape(0)
	return []shapes.Shape{dynamicDims(s.DType, s.Rank())}, nil
}

var inferenceTable = map[string]inferFn{}

func init() {
	for opType := range shapeinference.StandardUnaryOperations {
		inferenceTable[opType] = func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.UnaryOp(c.opType, c.shape(0)))
		}
	}
	for opType := range shapeinference.StandardBinaryOperations {
		inferenceTable[opType] = func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.BinaryOp(c.opType, c.shape(0), c.shape(1),
				c.attrs.StringOr("auto_broadcast", shapeinference.BroadcastNumpy)))
		}
	}
	for _, opType := range []string{"ReduceSum", "ReduceMax", "ReduceMin", "ReduceProd", "ReduceMean",
		"ReduceLogicalAnd", "ReduceLogicalOr", "ReduceL1", "ReduceL2"} {
		inferenceTable[opType] = inferReduce
	}
	for _, opType := range []string{"Result", "Elu", "Selu", "PRelu", "Clamp", "HardSigmoid", "Softmax", "GRN",
		"LRN", "NormalizeL2", "FakeQuantize", "ShuffleChannels", "MVN", "Reverse", "ReverseSequence", "CumSum",
		"ScatterUpdate", "ScatterElementsUpdate", "GatherTree", "ScaleShift", "ReplaceSlice"} {
		inferenceTable[opType] = sameAs(0)
	}
	for _, opType := range []string{"StridedSlice", "BatchToSpace", "SpaceToBatch"} {
		inferenceTable[opType] = unknownWithRank
	}
	for _, opType := range []string{"Convolution", "GroupConvolution", "BinaryConvolution", "DeformableConvolution"} {
		inferenceTable[opType] = inferConvolution
	}
	for _, opType := range []string{"ConvolutionBackpropData", "GroupConvolutionBackpropData"} {
		inferenceTable[opType] = inferConvolutionBackpropData
	}
	for _, opType := range []string{"LSTMCell", "GRUCell", "RNNCell"} {
		inferenceTable[opType] = func(c *inferContext) ([]shapes.Shape, error) {
			return shapeinference.RecurrentCellOp(c.opType, c.shape(0), c.shape(1), c.intAttr("hidden_size", 0))
		}
	}
	for _, opType := range []string{"ArgMax", "ArgMin"} {
		inferenceTable[opType] = func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.ArgMinMaxOp(c.shape(0), c.intAttr("axis", 0),
				c.attrs.ElementTypeOr("index_element_type", dtypes.Int32)))
		}
	}
	for _, opType := range []string{"AvgPool", "MaxPool"} {
		inferenceTable[opType] = func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.PoolOp(c.opType, c.shape(0), c.attrs.IntsOr("kernel", nil), c.window()))
		}
	}

	others := map[string]inferFn{
		"BatchNormInference": sameAs(2),
		"Convert":    withTypeAttr("destination_type", dtypes.InvalidDType),
		"Quantize":   withTypeAttr("new_type", dtypes.InvalidDType),
		"Dequantize": withTypeAttr("element_type", dtypes.InvalidDType),
		"Bucketize":  withTypeAttr("output_type", dtypes.Int64),
		"ConvertLike": func(c *inferContext) ([]shapes.Shape, error) {
			return []shapes.Shape{c.shape(0).WithDType(c.shape(1).DType)}, nil
		},
		"Select": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.SelectOp(c.shape(0), c.shape(1), c.shape(2),
				c.attrs.StringOr("auto_broadcast", shapeinference.BroadcastNumpy)))
		},
		"Reshape":   inferReshape,
		"Squeeze":   inferSqueeze,
		"Unsqueeze": inferUnsqueeze,
		"Transpose": inferTranspose,
		"Concat": func(c *inferContext) ([]shapes.Shape, error) {
			inputs := make([]shapes.Shape, len(c.inputs))
			for ii := range inputs {
				inputs[ii] = c.shape(ii)
			}
			return one(shapeinference.ConcatOp(inputs, c.intAttr("axis", 0)))
		},
		"Split":         inferSplit,
		"VariadicSplit": inferVariadicSplit,
		"Gather": func(c *inferContext) ([]shapes.Shape, error) {
			axis, known := c.scalarInt(2)
			if !known {
				return []shapes.Shape{c.unknown()}, nil
			}
			return one(shapeinference.GatherOp(c.shape(0), c.shape(1), axis))
		},
		"Tile": func(c *inferContext) ([]shapes.Shape, error) {
			repeats := c.constantInts(1)
			if repeats == nil {
				return []shapes.Shape{c.unknown()}, nil
			}
			return one(shapeinference.TileOp(c.shape(0), repeats))
		},
		"ShapeOf": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.ShapeOfOp(c.shape(0), c.attrs.ElementTypeOr("output_type", dtypes.Int64)))
		},
		"NonZero": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.NonZeroOp(c.shape(0), c.attrs.ElementTypeOr("output_type", dtypes.Int64)))
		},
		"TopK": func(c *inferContext) ([]shapes.Shape, error) {
			k, known := c.scalarInt(1)
			if !known {
				k = shapes.DynamicDim
			}
			values, indices, err := shapeinference.TopKOp(c.shape(0), c.intAttr("axis", 0), k,
				c.attrs.ElementTypeOr("index_element_type", dtypes.Int32))
			if err != nil {
				return nil, err
			}
			return []shapes.Shape{values, indices}, nil
		},
		"OneHot": func(c *inferContext) ([]shapes.Shape, error) {
			depth, known := c.scalarInt(1)
			if !known {
				depth = shapes.DynamicDim
			}
			return one(shapeinference.OneHotOp(c.shape(0), depth, c.intAttr("axis", -1), c.shape(2).DType))
		},
		"Broadcast": inferBroadcast,
		"Pad":       inferPad,
		"Slice":     inferSlice,
		"GetOutputElement": func(c *inferContext) ([]shapes.Shape, error) {
			return []shapes.Shape{c.inputs[0].Node.OutputShape(c.intAttr("n", 0)).Clone()}, nil
		},
		"MatMul": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.MatMulOp(c.shape(0), c.shape(1),
				c.attrs.BoolOr("transpose_a", false), c.attrs.BoolOr("transpose_b", false)))
		},
		"Gemm": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.MatMulOp(c.shape(0), c.shape(1),
				c.attrs.BoolOr("transA", false), c.attrs.BoolOr("transB", false)))
		},
		"Dot": func(c *inferContext) ([]shapes.Shape, error) {
			return one(dot(c.shape(0), c.shape(1), c.intAttr("reduction_axes_count", 1), c.shape(0).DType))
		},
		"QuantizedDot": func(c *inferContext) ([]shapes.Shape, error) {
			return one(dot(c.shape(0), c.shape(1), c.intAttr("reduction_axes_count", 1),
				c.attrs.ElementTypeOr("output_type", c.shape(0).DType)))
		},
		"QuantizedConvolution": inferQuantizedConvolution,
		"LSTMSequence": func(c *inferContext) ([]shapes.Shape, error) {
			numDirections := 1
			if c.attrs.StringOr("direction", "") == "bidirectional" {
				numDirections = 2
			}
			return shapeinference.LSTMSequenceOp(c.shape(0), c.intAttr("hidden_size", 0), numDirections)
		},
		"NonMaxSuppression": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.NonMaxSuppressionOp(c.shape(0), c.shape(1),
				c.attrs.ElementTypeOr("output_type", dtypes.Int64)))
		},
		"SpaceToDepth": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.SpaceToDepthOp(c.shape(0), c.intAttr("block_size", 1), false))
		},
		"DepthToSpace": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.SpaceToDepthOp(c.shape(0), c.intAttr("block_size", 1), true))
		},
		"ROIPooling": func(c *inferContext) ([]shapes.Shape, error) {
			size := c.attrs.IntsOr("output_size", nil)
			if len(size) != 2 {
				return nil, errors.Errorf("ROIPooling output_size must have 2 values, got %v", size)
			}
			return one(shapeinference.ROIPoolingOp(c.opType, c.shape(0), c.shape(1), shapes.DynamicDim, size[0], size[1]))
		},
		"ROIAlign": func(c *inferContext) ([]shapes.Shape, error) {
			return one(shapeinference.ROIPoolingOp(c.opType, c.shape(0), c.shape(1), shapes.DynamicDim,
				c.intAttr("pooled_h", 0), c.intAttr("pooled_w", 0)))
		},
		"PSROIPooling":           inferPSROIPooling,
		"DeformablePSROIPooling": inferPSROIPooling,
		"ReorgYolo":              inferReorgYolo,
		"CTCGreedyDecoder": func(c *inferContext) ([]shapes.Shape, error) {
			// data is [T, N, C], the output is [N, T, 1, 1].
			s := c.shape(0)
			if s.DynamicRank {
				return []shapes.Shape{dynamicDims(s.DType, 4)}, nil
			}
			if s.Rank() != 3 {
				return nil, errors.Errorf("CTCGreedyDecoder expects data [T, N, C], got %s", s)
			}
			return []shapes.Shape{shapes.Make(s.DType, s.Dimensions[1], s.Dimensions[0], 1, 1)}, nil
		},
	}
	for opType, fn := range others {
		inferenceTable[opType] = fn
	}
}

func inferReduce(c *inferContext) ([]shapes.Shape, error) {
	return one(shapeinference.ReduceOp(c.shape(0), c.constantInts(1), c.attrs.BoolOr("keep_dims", false)))
}

func inferReshape(c *inferContext) ([]shapes.Shape, error) {
	target := c.constantInts(1)
	if target == nil {
		return []shapes.Shape{dynamicDims(c.shape(0).DType, c.lengthOf(1))}, nil
	}
	return one(shapeinference.ReshapeOp(c.shape(0), target, c.attrs.BoolOr("special_zero", false)))
}

func inferSqueeze(c *inferContext) ([]shapes.Shape, error) {
	if len(c.inputs) == 1 {
		return one(shapeinference.SqueezeOp(c.shape(0), nil))
	}
	axes := c.constantInts(1)
	if axes == nil {
		return []shapes.Shape{c.unknown()}, nil
	}
	return one(shapeinference.SqueezeOp(c.shape(0), axes))
}

func inferUnsqueeze(c *inferContext) ([]shapes.Shape, error) {
	axes := c.constantInts(1)
	if axes == nil {
		s, numAxes := c.shape(0), c.lengthOf(1)
		if s.DynamicRank || numAxes == shapes.DynamicDim {
			return []shapes.Shape{c.unknown()}, nil
		}
		return []shapes.Shape{dynamicDims(s.DType, s.Rank()+numAxes)}, nil
	}
	return one(shapeinference.UnsqueezeOp(c.shape(0), axes))
}

func inferTranspose(c *inferContext) ([]shapes.Shape, error) {
	order := c.constantInts(1)
	if order == nil {
		return unknownWithRank(c)
	}
	return one(shapeinference.TransposeOp(c.shape(0), order))
}

func inferSplit(c *inferContext) ([]shapes.Shape, error) {
	numSplits := c.intAttr("num_splits", 0)
	axis, known := c.scalarInt(1)
	if !known {
		outputs := make([]shapes.Shape, numSplits)
		for ii := range outputs {
			outputs[ii] = dynamicDims(c.shape(0).DType, c.shape(0).Rank())
		}
		return outputs, nil
	}
	return shapeinference.SplitOp(c.shape(0), axis, numSplits)
}

// inferVariadicSplit requires at least the number of split lengths to be known, since it defines the number
// of outputs.
func inferVariadicSplit(c *inferContext) ([]shapes.Shape, error) {
	axis, axisKnown := c.scalarInt(1)
	lengths := c.constantInts(2)
	if axisKnown && lengths != nil {
		return shapeinference.VariadicSplitOp(c.shape(0), axis, lengths)
	}
	numOutputs := c.lengthOf(2)
	if numOutputs == shapes.DynamicDim {
		return nil, errors.Errorf("VariadicSplit: the number of split_lengths of %s is not known", c.shape(2))
	}
	outputs := make([]shapes.Shape, numOutputs)
	for ii := range outputs {
		outputs[ii] = dynamicDims(c.shape(0).DType, c.shape(0).Rank())
	}
	return outputs, nil
}

func inferBroadcast(c *inferContext) ([]shapes.Shape, error) {
	data := c.shape(0)
	if target, found := c.attrs["shape"]; found {
		// Legacy Broadcast: the target shape is static, broadcast_axes are the new axes.
		dims := make([]int, target.Len())
		for ii, dim := range target.Ints() {
			dims[ii] = int(dim)
		}
		newAxes := c.attrs.IntsOr("broadcast_axes", nil)
		if !data.DynamicRank && data.Rank()+len(newAxes) != len(dims) {
			return nil, errors.Errorf("Broadcast of %s to %v with new axes %v: ranks don't match", data, dims, newAxes)
		}
		return []shapes.Shape{shapes.Make(data.DType, dims...)}, nil
	}
	return one(shapeinference.BroadcastOp(data, c.constantInts(1), c.lengthOf(1),
		c.attrs.StringOr("broadcast_spec", "NUMPY")))
}

func inferPad(c *inferContext) ([]shapes.Shape, error) {
	s := c.shape(0)
	begin, end := c.constantInts(1), c.constantInts(2)
	if s.DynamicRank || begin == nil || end == nil {
		return unknownWithRank(c)
	}
	if len(begin) != s.Rank() || len(end) != s.Rank() {
		return nil, errors.Errorf("Pad of %s: pads_begin %v and pads_end %v must have one value per axis", s, begin, end)
	}
	output := s.Clone()
	for axis, dim := range output.Dimensions {
		if dim == shapes.DynamicDim {
			continue
		}
		output.Dimensions[axis] = dim + begin[axis] + end[axis]
		if output.Dimensions[axis] < 0 {
			return nil, errors.Errorf("Pad of %s with %v and %v: negative dimension at axis %d", s, begin, end, axis)
		}
	}
	return []shapes.Shape{output}, nil
}

// inferSlice for the legacy Slice with static bounds.
func inferSlice(c *inferContext) ([]shapes.Shape, error) {
	s := c.shape(0)
	lower, upper := c.attrs.IntsOr("lower_bounds", nil), c.attrs.IntsOr("upper_bounds", nil)
	strides := c.attrs.IntsOr("strides", nil)
	if s.DynamicRank {
		return []shapes.Shape{dynamicDims(s.DType, len(lower))}, nil
	}
	if len(lower) != s.Rank() {
		return nil, errors.Errorf("Slice of %s: bounds %v must have one value per axis", s, lower)
	}
	dims := make([]int, s.Rank())
	for axis := range dims {
		if dim := s.Dimensions[axis]; dim != shapes.DynamicDim && upper[axis] > dim {
			return nil, errors.Errorf("Slice of %s: upper bound %d out of range for axis %d", s, upper[axis], axis)
		}
		stride := 1
		if strides != nil {
			stride = strides[axis]
		}
		dims[axis] = (upper[axis] - lower[axis] + stride - 1) / stride
	}
	return []shapes.Shape{shapes.Make(s.DType, dims...)}, nil
}

func inferConvolution(c *inferContext) ([]shapes.Shape, error) {
	filters := 1
	if c.opType == "DeformableConvolution" {
		filters = 2
	}
	return one(shapeinference.ConvolutionOp(c.opType, c.shape(0), c.shape(filters), c.window(),
		c.opType == "GroupConvolution"))
}

func inferConvolutionBackpropData(c *inferContext) ([]shapes.Shape, error) {
	var outputSpatial []int
	if len(c.inputs) > 2 {
		outputSpatial = c.constantInts(2)
		if outputSpatial == nil {
			return unknownWithRank(c)
		}
	}
	return one(shapeinference.ConvolutionBackpropDataOp(c.shape(0), c.shape(1), c.window(),
		c.attrs.IntsOr("output_padding", nil), outputSpatial, c.opType == "GroupConvolutionBackpropData"))
}

func inferQuantizedConvolution(c *inferContext) ([]shapes.Shape, error) {
	data := c.shape(0)
	config := shapeinference.WindowConfig{
		Strides:   c.attrs.IntsOr("window_movement_strides", nil),
		PadsBegin: c.attrs.IntsOr("padding_below", nil),
		PadsEnd:   c.attrs.IntsOr("padding_above", nil),
		Dilations: c.attrs.IntsOr("window_dilation_strides", nil),
		AutoPad:   shapeinference.PadExplicit,
	}
	// Quantized filters may have a different integer type than the data.
	output, err := shapeinference.ConvolutionOp(c.opType, data, c.shape(1).WithDType(data.DType), config, false)
	if err != nil {
		return nil, err
	}
	return []shapes.Shape{output.WithDType(c.attrs.ElementTypeOr("output_type", data.DType))}, nil
}

// dot contracts the last reductionAxes axes of a with the first ones of b.
func dot(a, b shapes.Shape, reductionAxes int, dtype dtypes.DType) (shapes.Shape, error) {
	if a.DynamicRank || b.DynamicRank {
		return shapes.MakeDynamicRank(dtype), nil
	}
	if reductionAxes > a.Rank() || reductionAxes > b.Rank() {
		return shapes.Invalid(), errors.Errorf("Dot of %s and %s: can't contract %d axes", a, b, reductionAxes)
	}
	for ii := range reductionAxes {
		aDim, bDim := a.Dimensions[a.Rank()-reductionAxes+ii], b.Dimensions[ii]
		if _, ok := shapes.MergeDim(aDim, bDim); !ok {
			return shapes.Invalid(), errors.Errorf("Dot of %s and %s: contracted dimensions don't match", a, b)
		}
	}
	dims := slices.Concat(a.Dimensions[:a.Rank()-reductionAxes], b.Dimensions[reductionAxes:])
	return shapes.Make(dtype, dims...), nil
}

func inferPSROIPooling(c *inferContext) ([]shapes.Shape, error) {
	groupSize := c.intAttr("group_size", 1)
	return one(shapeinference.ROIPoolingOp(c.opType, c.shape(0), c.shape(1), c.intAttr("output_dim", 0), groupSize, groupSize))
}

// inferReorgYolo moves stride x stride blocks of [N, C, H, W] into the channels.
func inferReorgYolo(c *inferContext) ([]shapes.Shape, error) {
	s := c.shape(0)
	strides := c.attrs.IntsOr("stride", nil)
	if s.DynamicRank {
		return []shapes.Shape{dynamicDims(s.DType, 4)}, nil
	}
	if s.Rank() != 4 || len(strides) == 0 {
		return nil, errors.Errorf("ReorgYolo expects data [N, C, H, W] and a stride, got %s and %v", s, strides)
	}
	stride := strides[0]
	output := s.Clone()
	for axis := 2; axis < 4; axis++ {
		if dim := s.Dimensions[axis]; dim != shapes.DynamicDim {
			if dim%stride != 0 {
				return nil, errors.Errorf("ReorgYolo: axis %d of %s is not divisible by stride %d", axis, s, stride)
			}
			output.Dimensions[axis] = dim / stride
		}
	}
	if dim := s.Dimensions[1]; dim != shapes.DynamicDim {
		output.Dimensions[1] = dim * stride * stride
	}
	return []shapes.Shape{output}, nil
}
