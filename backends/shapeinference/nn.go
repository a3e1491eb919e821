// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapeinference

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/pkg/errors"
)

// Padding modes of the auto_pad attribute.
const (
	PadExplicit  = "EXPLICIT"
	PadSameUpper = "SAME_UPPER"
	PadSameLower = "SAME_LOWER"
	PadValid     = "VALID"
)

// WindowConfig holds the attributes of the sliding-window operations (convolutions and pooling).
// All slices have one value per spatial axis.
type WindowConfig struct {
	Strides, PadsBegin, PadsEnd, Dilations []int
	AutoPad                                string

	// CeilRounding is used by pooling (rounding_type=CEIL).
	CeilRounding bool
}

func (c *WindowConfig) check(opType string, numSpatial int) error {
	if len(c.Strides) != numSpatial {
		return errors.Errorf("%s: strides %v must have one value per spatial axis (%d)", opType, c.Strides, numSpatial)
	}
	for _, list := range [][]int{c.PadsBegin, c.PadsEnd, c.Dilations} {
		if list != nil && len(list) != numSpatial {
			return errors.Errorf("%s: pads/dilations %v must have one value per spatial axis (%d)", opType, list, numSpatial)
		}
	}
	for _, stride := range c.Strides {
		if stride <= 0 {
			return errors.Errorf("%s: strides %v must be positive", opType, c.Strides)
		}
	}
	return nil
}

func valueOr(list []int, idx, defaultValue int) int {
	if list == nil {
		return defaultValue
	}
	return list[idx]
}

// windowOutputDim returns the output dimension of one spatial axis, given its input dimension and
// (effective, dilated) window size.
func (c *WindowConfig) windowOutputDim(axis, inDim, window int) int {
	if inDim == shapes.DynamicDim {
		return shapes.DynamicDim
	}
	stride := c.Strides[axis]
	switch c.AutoPad {
	case PadSameUpper, PadSameLower:
		return (inDim + stride - 1) / stride
	case PadValid:
		return max((inDim-window)/stride+1, 0)
	}
	padded := inDim + valueOr(c.PadsBegin, axis, 0) + valueOr(c.PadsEnd, axis, 0) - window
	if c.CeilRounding {
		return max((padded+stride-1)/stride+1, 0)
	}
	return max(padded/stride+1, 0)
}

// ConvolutionOp returns the output shape of a convolution of data [N, C_in, spatial...] with filters
// [C_out, C_in, kernel...].
//
// For GroupConvolution filters are [G, C_out/G, C_in/G, kernel...], which is signaled by grouped=true.
func ConvolutionOp(opType string, data, filters shapes.Shape, config WindowConfig, grouped bool) (output shapes.Shape, err error) {
	if data.DType != filters.DType && opType != "BinaryConvolution" {
		err = errors.Errorf("%s: data (%s) and filters (%s) must have the same dtype", opType, data, filters)
		return
	}
	if data.DynamicRank || filters.DynamicRank {
		return shapes.MakeDynamicRank(data.DType), nil
	}
	numSpatial := data.Rank() - 2
	filterSpatialStart := 2
	if grouped {
		filterSpatialStart = 3
	}
	if numSpatial < 1 || filters.Rank() != numSpatial+filterSpatialStart {
		err = errors.Errorf("%s: data %s and filters %s ranks don't match", opType, data, filters)
		return
	}
	if err = config.check(opType, numSpatial); err != nil {
		return
	}
	inChannels, outChannels := filters.Dimensions[1], filters.Dimensions[0]
	if grouped {
		groups := filters.Dimensions[0]
		inChannels = filters.Dimensions[2]
		outChannels = shapes.DynamicDim
		if groups != shapes.DynamicDim && filters.Dimensions[1] != shapes.DynamicDim {
			outChannels = groups * filters.Dimensions[1]
		}
		if groups != shapes.DynamicDim && inChannels != shapes.DynamicDim {
			inChannels *= groups
		} else {
			inChannels = shapes.DynamicDim
		}
	}
	if _, ok := shapes.MergeDim(data.Dimensions[1], inChannels); !ok {
		err = errors.Errorf("%s: data channels of %s don't match filters %s", opType, data, filters)
		return
	}
	dims := []int{data.Dimensions[0], outChannels}
	for axis := range numSpatial {
		kernel := filters.Dimensions[filterSpatialStart+axis]
		if kernel == shapes.DynamicDim {
			dims = append(dims, shapes.DynamicDim)
			continue
		}
		window := (kernel-1)*valueOr(config.Dilations, axis, 1) + 1
		dims = append(dims, config.windowOutputDim(axis, data.Dimensions[2+axis], window))
	}
	return shapes.Make(data.DType, dims...), nil
}

// ConvolutionBackpropDataOp returns the output shape of a transposed convolution of data [N, C_in, spatial...] with
// filters [C_in, C_out, kernel...] (or [G, C_in/G, C_out/G, kernel...] if grouped).
//
// If outputSpatial is not nil (the optional output_shape input), it defines the spatial dimensions of the output.
func ConvolutionBackpropDataOp(data, filters shapes.Shape, config WindowConfig, outputPadding []int,
	outputSpatial []int, grouped bool) (output shapes.Shape, err error) {
	opType := "ConvolutionBackpropData"
	if grouped {
		opType = "GroupConvolutionBackpropData"
	}
	if data.DType != filters.DType {
		err = errors.Errorf("%s: data (%s) and filters (%s) must have the same dtype", opType, data, filters)
		return
	}
	if data.DynamicRank || filters.DynamicRank {
		return shapes.MakeDynamicRank(data.DType), nil
	}
	numSpatial := data.Rank() - 2
	filterSpatialStart := 2
	outChannels := filters.Dimensions[1]
	if grouped {
		filterSpatialStart = 3
		outChannels = shapes.DynamicDim
		if filters.Dimensions[0] != shapes.DynamicDim && filters.Dimensions[2] != shapes.DynamicDim {
			outChannels = filters.Dimensions[0] * filters.Dimensions[2]
		}
	}
	if numSpatial < 1 || filters.Rank() != numSpatial+filterSpatialStart {
		err = errors.Errorf("%s: data %s and filters %s ranks don't match", opType, data, filters)
		return
	}
	if err = config.check(opType, numSpatial); err != nil {
		return
	}
	if outputSpatial != nil && len(outputSpatial) != numSpatial {
		err = errors.Errorf("%s: output_shape %v must have one value per spatial axis (%d)", opType, outputSpatial, numSpatial)
		return
	}
	dims := []int{data.Dimensions[0], outChannels}
	for axis := range numSpatial {
		if outputSpatial != nil {
			dims = append(dims, outputSpatial[axis])
			continue
		}
		inDim := data.Dimensions[2+axis]
		kernel := filters.Dimensions[filterSpatialStart+axis]
		if inDim == shapes.DynamicDim || kernel == shapes.DynamicDim {
			dims = append(dims, shapes.DynamicDim)
			continue
		}
		stride := config.Strides[axis]
		if config.AutoPad == PadSameUpper || config.AutoPad == PadSameLower {
			dims = append(dims, inDim*stride)
			continue
		}
		window := (kernel-1)*valueOr(config.Dilations, axis, 1) + 1
		dim := stride*(inDim-1) + window + valueOr(outputPadding, axis, 0)
		if config.AutoPad != PadValid {
			dim -= valueOr(config.PadsBegin, axis, 0) + valueOr(config.PadsEnd, axis, 0)
		}
		dims = append(dims, dim)
	}
	return shapes.Make(data.DType, dims...), nil
}

// PoolOp returns the output shape of AvgPool or MaxPool over data [N, C, spatial...] with the given kernel.
func PoolOp(opType string, data shapes.Shape, kernel []int, config WindowConfig) (output shapes.Shape, err error) {
	if data.DynamicRank {
		return data.Clone(), nil
	}
	numSpatial := data.Rank() - 2
	if numSpatial < 1 || len(kernel) != numSpatial {
		err = errors.Errorf("%s: kernel %v doesn't match the spatial axes of %s", opType, kernel, data)
		return
	}
	if err = config.check(opType, numSpatial); err != nil {
		return
	}
	dims := slices.Clone(data.Dimensions[:2])
	for axis := range numSpatial {
		dims = append(dims, config.windowOutputDim(axis, data.Dimensions[2+axis], kernel[axis]))
	}
	return shapes.Make(data.DType, dims...), nil
}

// MatMulOp returns the output shape of a batched matrix multiplication, with numpy broadcasting of the
// batch axes. Rank 1 operands are promoted to matrices and the promoted axes are removed from the output.
func MatMulOp(a, b shapes.Shape, transposeA, transposeB bool) (output shapes.Shape, err error) {
	if a.DType != b.DType {
		err = errors.Errorf("MatMul operands must have the same dtype, got %s and %s", a, b)
		return
	}
	if a.DynamicRank || b.DynamicRank {
		return shapes.MakeDynamicRank(a.DType), nil
	}
	if a.IsScalar() || b.IsScalar() {
		err = errors.Errorf("MatMul operands can't be scalars, got %s and %s", a, b)
		return
	}
	aDims, bDims := slices.Clone(a.Dimensions), slices.Clone(b.Dimensions)
	aVector, bVector := len(aDims) == 1, len(bDims) == 1
	if aVector {
		aDims = []int{1, aDims[0]}
		transposeA = false
	}
	if bVector {
		bDims = []int{bDims[0], 1}
		transposeB = false
	}
	if transposeA {
		n := len(aDims)
		aDims[n-1], aDims[n-2] = aDims[n-2], aDims[n-1]
	}
	if transposeB {
		n := len(bDims)
		bDims[n-1], bDims[n-2] = bDims[n-2], bDims[n-1]
	}
	rows, contractA := aDims[len(aDims)-2], aDims[len(aDims)-1]
	contractB, cols := bDims[len(bDims)-2], bDims[len(bDims)-1]
	if _, ok := shapes.MergeDim(contractA, contractB); !ok {
		err = errors.Errorf("MatMul contracting dimensions don't match for %s and %s (transpose_a=%v, transpose_b=%v)",
			a, b, transposeA, transposeB)
		return
	}
	batch, err := BroadcastShapes(shapes.Make(a.DType, aDims[:len(aDims)-2]...), shapes.Make(a.DType, bDims[:len(bDims)-2]...), BroadcastNumpy)
	if err != nil {
		err = errors.WithMessage(err, "MatMul batch axes")
		return
	}
	dims := batch.Dimensions
	if !aVector {
		dims = append(dims, rows)
	}
	if !bVector {
		dims = append(dims, cols)
	}
	return shapes.Make(a.DType, dims...), nil
}

// RecurrentCellOp validates the inputs of LSTMCell, GRUCell and RNNCell and returns the shapes of their outputs:
// two ([batch, hidden_size] hidden and cell states) for LSTMCell, one for the others.
//
// x is [batch, input_size] and h is the initial hidden state [batch, hidden_size].
func RecurrentCellOp(opType string, x, h shapes.Shape, hiddenSize int) (outputs []shapes.Shape, err error) {
	if !shapes.IsFloat(x.DType) {
		err = errors.Errorf("%s input X must be a float, got %s", opType, x)
		return
	}
	if hiddenSize <= 0 {
		err = errors.Errorf("%s hidden_size must be positive, got %d", opType, hiddenSize)
		return
	}
	batch := shapes.DynamicDim
	if !x.DynamicRank {
		if x.Rank() != 2 {
			err = errors.Errorf("%s input X must be [batch_size, input_size], got %s", opType, x)
			return
		}
		batch = x.Dimensions[0]
	}
	if !h.DynamicRank {
		if h.Rank() != 2 {
			err = errors.Errorf("%s initial hidden state must be [batch_size, hidden_size], got %s", opType, h)
			return
		}
		var ok bool
		if batch, ok = shapes.MergeDim(batch, h.Dimensions[0]); !ok {
			err = errors.Errorf("%s batch size of X (%s) and initial hidden state (%s) don't match", opType, x, h)
			return
		}
		if _, ok = shapes.MergeDim(hiddenSize, h.Dimensions[1]); !ok {
			err = errors.Errorf("%s initial hidden state %s doesn't match hidden_size=%d", opType, h, hiddenSize)
			return
		}
	}
	state := shapes.Make(x.DType, batch, hiddenSize)
	if opType == "LSTMCell" {
		return []shapes.Shape{state, state.Clone()}, nil
	}
	return []shapes.Shape{state}, nil
}

// LSTMSequenceOp returns the shapes of the outputs of LSTMSequence: Y [batch, num_directions, seq_length, hidden_size],
// Ho and Co [batch, num_directions, hidden_size]. x is [batch, seq_length, input_size].
func LSTMSequenceOp(x shapes.Shape, hiddenSize, numDirections int) (outputs []shapes.Shape, err error) {
	if !shapes.IsFloat(x.DType) {
		err = errors.Errorf("LSTMSequence input X must be a float, got %s", x)
		return
	}
	if hiddenSize <= 0 {
		err = errors.Errorf("LSTMSequence hidden_size must be positive, got %d", hiddenSize)
		return
	}
	batch, seqLength := shapes.DynamicDim, shapes.DynamicDim
	if !x.DynamicRank {
		if x.Rank() != 3 {
			err = errors.Errorf("LSTMSequence input X must be [batch_size, seq_length, input_size], got %s", x)
			return
		}
		batch, seqLength = x.Dimensions[0], x.Dimensions[1]
	}
	state := shapes.Make(x.DType, batch, numDirections, hiddenSize)
	return []shapes.Shape{
		shapes.Make(x.DType, batch, numDirections, seqLength, hiddenSize),
		state,
		state.Clone(),
	}, nil
}

// NonMaxSuppressionOp validates boxes [batch, num_boxes, 4] and scores [batch, num_classes, num_boxes] and
// returns the shape of the selected indices: [number of selected boxes, 3].
func NonMaxSuppressionOp(boxes, scores shapes.Shape, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if outputDType != dtypes.Int32 && outputDType != dtypes.Int64 {
		err = errors.Errorf("NonMaxSuppression output_type must be i32 or i64, got %s", shapes.ElementTypeName(outputDType))
		return
	}
	if !boxes.DynamicRank && boxes.Rank() != 3 {
		err = errors.Errorf("NonMaxSuppression expects a 3D tensor for the 'boxes' input, got %s", boxes)
		return
	}
	if !scores.DynamicRank && scores.Rank() != 3 {
		err = errors.Errorf("NonMaxSuppression expects a 3D tensor for the 'scores' input, got %s", scores)
		return
	}
	if !boxes.DynamicRank && !scores.DynamicRank {
		if _, ok := shapes.MergeDim(boxes.Dimensions[0], scores.Dimensions[0]); !ok {
			err = errors.Errorf("NonMaxSuppression 'boxes' %s and 'scores' %s must have the same batch size", boxes, scores)
			return
		}
		if _, ok := shapes.MergeDim(boxes.Dimensions[1], scores.Dimensions[2]); !ok {
			err = errors.Errorf("NonMaxSuppression number of boxes in 'boxes' %s and 'scores' %s must match", boxes, scores)
			return
		}
	}
	if !boxes.DynamicRank {
		if _, ok := shapes.MergeDim(boxes.Dimensions[2], 4); !ok {
			err = errors.Errorf("NonMaxSuppression last dimension of 'boxes' must be 4, got %s", boxes)
			return
		}
	}
	return shapes.Make(outputDType, shapes.DynamicDim, 3), nil
}

// SpaceToDepthOp moves blocks of spatial data of data [N, C, spatial...] into the channels axis.
// With inverse set it computes DepthToSpace.
func SpaceToDepthOp(data shapes.Shape, blockSize int, inverse bool) (output shapes.Shape, err error) {
	opType := "SpaceToDepth"
	if inverse {
		opType = "DepthToSpace"
	}
	if blockSize <= 0 {
		err = errors.Errorf("%s block_size must be positive, got %d", opType, blockSize)
		return
	}
	if data.DynamicRank {
		return data.Clone(), nil
	}
	if data.Rank() < 3 {
		err = errors.Errorf("%s requires data with at least 3 axes [N, C, spatial...], got %s", opType, data)
		return
	}
	numSpatial := data.Rank() - 2
	factor := 1
	for range numSpatial {
		factor *= blockSize
	}
	output = data.Clone()
	for axis := 1; axis < data.Rank(); axis++ {
		dim := data.Dimensions[axis]
		if dim == shapes.DynamicDim {
			continue
		}
		grow := axis == 1
		if inverse {
			grow = !grow
		}
		scale := blockSize
		if axis == 1 {
			scale = factor
		}
		if grow {
			output.Dimensions[axis] = dim * scale
		} else {
			if dim%scale != 0 {
				err = errors.Errorf("%s: axis %d of %s is not divisible by %d", opType, axis, data, scale)
				return
			}
			output.Dimensions[axis] = dim / scale
		}
	}
	return
}

// ROIPoolingOp returns the shape of pooling regions of interest: [num_rois, channels, pooledH, pooledW].
// coords is [num_rois, ...]; channels is the number of output channels.
func ROIPoolingOp(opType string, data, coords shapes.Shape, channels, pooledH, pooledW int) (output shapes.Shape, err error) {
	if pooledH <= 0 || pooledW <= 0 {
		err = errors.Errorf("%s pooled output size must be positive, got %dx%d", opType, pooledH, pooledW)
		return
	}
	if !data.DynamicRank && data.Rank() != 4 {
		err = errors.Errorf("%s expects a 4D feature map, got %s", opType, data)
		return
	}
	if !coords.DynamicRank && coords.Rank() != 2 {
		err = errors.Errorf("%s expects 2D regions of interest, got %s", opType, coords)
		return
	}
	numRois := shapes.DynamicDim
	if !coords.DynamicRank {
		numRois = coords.Dimensions[0]
	}
	if channels == shapes.DynamicDim && !data.DynamicRank {
		channels = data.Dimensions[1]
	}
	return shapes.Make(data.DType, numRois, channels, pooledH, pooledW), nil
}
