// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/opset"
)

// Reshape x to shape, a 1D integer node or Go slice. A -1 dimension is inferred from the others, and with
// specialZero a 0 dimension copies the dimension of x at the same axis.
func (f *Factory) Reshape(x, shape any, specialZero bool) (backends.Output, error) {
	return f.create("Reshape", attributes.Bag{"special_zero": attributes.Bool(specialZero)}, x, shape)
}

// Squeeze removes the given axes of dimension 1 from x. If axes is nil, all axes of dimension 1 are removed.
func (f *Factory) Squeeze(x, axes any) (backends.Output, error) { return f.create("Squeeze", nil, x, axes) }

// Unsqueeze inserts axes of dimension 1 in x at the given positions.
func (f *Factory) Unsqueeze(x, axes any) (backends.Output, error) {
	return f.create("Unsqueeze", nil, x, axes)
}

// Transpose permutes the axes of x in the given order.
func (f *Factory) Transpose(x, order any) (backends.Output, error) {
	return f.create("Transpose", nil, x, order)
}

// Concat concatenates xs along axis. At least one value is required.
func (f *Factory) Concat(axis int, xs ...any) (backends.Output, error) {
	return f.create("Concat", attributes.Bag{"axis": attributes.Int(int64(axis))}, xs...)
}

// Split x along axis in numSplits equal parts.
func (f *Factory) Split(x, axis any, numSplits int) ([]backends.Output, error) {
	return f.Create("Split", attributes.Bag{"num_splits": attributes.Int(int64(numSplits))}, x, axis)
}

// VariadicSplit splits x along axis in parts of the given lengths. One length can be -1, and is inferred.
func (f *Factory) VariadicSplit(x, axis, lengths any) ([]backends.Output, error) {
	return f.Create("VariadicSplit", nil, x, axis, lengths)
}

// Tile repeats x the given number of times along each axis.
func (f *Factory) Tile(x, repeats any) (backends.Output, error) { return f.create("Tile", nil, x, repeats) }

// Broadcast x to targetShape with numpy rules.
func (f *Factory) Broadcast(x, targetShape any) (backends.Output, error) {
	return f.create("Broadcast", nil, x, targetShape)
}

// BroadcastWithSpec broadcasts x to targetShape with the given rules: "numpy", "pdpd" or, from opset3,
// "bidirectional".
func (f *Factory) BroadcastWithSpec(x, targetShape any, spec string) (backends.Output, error) {
	return f.create("Broadcast", attributes.Bag{"broadcast_spec": attributes.String(spec)}, x, targetShape)
}

// BroadcastExplicit broadcasts x to targetShape, where axesMapping gives the axis of the result of each
// axis of x.
func (f *Factory) BroadcastExplicit(x, targetShape, axesMapping any) (backends.Output, error) {
	return f.create("Broadcast", attributes.Bag{"broadcast_spec": attributes.String("EXPLICIT")}, x, targetShape, axesMapping)
}

// StridedSliceMasks configures StridedSlice. Each mask has one value (0 or 1) per axis.
type StridedSliceMasks struct {
	// Begin and End masks: where 1, begin (or end) is ignored and the full range is taken.
	Begin, End []int

	NewAxis, ShrinkAxis, Ellipsis []int
}

// StridedSlice slices x from begin (inclusive) to end (exclusive) with the given strides, which is optional
// (nil).
func (f *Factory) StridedSlice(x, begin, end, strides any, masks StridedSliceMasks) (backends.Output, error) {
	attrs := attributes.Bag{
		"begin_mask": intsAttr(masks.Begin),
		"end_mask":   intsAttr(masks.End),
	}
	for name, mask := range map[string][]int{
		"new_axis_mask":    masks.NewAxis,
		"shrink_axis_mask": masks.ShrinkAxis,
		"ellipsis_mask":    masks.Ellipsis,
	} {
		if mask != nil {
			attrs[name] = intsAttr(mask)
		}
	}
	return f.create("StridedSlice", attrs, x, begin, end, strides)
}

// Pad x with padsBegin and padsEnd values at the start and end of each axis. mode is "constant", "edge",
// "reflect" or "symmetric". padValue is optional (nil), and only used with the "constant" mode.
func (f *Factory) Pad(x, padsBegin, padsEnd, padValue any, mode string) (backends.Output, error) {
	return f.create("Pad", attributes.Bag{"pad_mode": attributes.String(mode)}, x, padsBegin, padsEnd, padValue)
}

// Gather slices of x along axis, at the given indices.
func (f *Factory) Gather(x, indices, axis any) (backends.Output, error) {
	return f.create("Gather", nil, x, indices, axis)
}

// GatherTree computes the final beams of a beam search from the ids and parents of each step.
func (f *Factory) GatherTree(stepIDs, parentIdx, maxSeqLen, endToken any) (backends.Output, error) {
	return f.create("GatherTree", nil, stepIDs, parentIdx, maxSeqLen, endToken)
}

// OneHot creates a one-hot encoding of indices with depth values, inserted as axis.
func (f *Factory) OneHot(indices, depth, onValue, offValue any, axis int) (backends.Output, error) {
	return f.create("OneHot", attributes.Bag{"axis": attributes.Int(int64(axis))}, indices, depth, onValue, offValue)
}

// SpaceToDepth moves blocks of blockSize spatial positions into channels. mode is "blocks_first" or
// "depth_first".
func (f *Factory) SpaceToDepth(x any, mode string, blockSize int) (backends.Output, error) {
	return f.create("SpaceToDepth", attributes.Bag{
		"mode":       attributes.String(mode),
		"block_size": attributes.Int(int64(blockSize)),
	}, x)
}

// DepthToSpace moves channels into blocks of blockSize spatial positions, the reverse of SpaceToDepth.
func (f *Factory) DepthToSpace(x any, mode string, blockSize int) (backends.Output, error) {
	return f.create("DepthToSpace", attributes.Bag{
		"mode":       attributes.String(mode),
		"block_size": attributes.Int(int64(blockSize)),
	}, x)
}

// BatchToSpace moves blocks of the batch axis into the spatial axes, and crops the result. Available from
// opset2.
func (f *Factory) BatchToSpace(x, blockShape, cropsBegin, cropsEnd any) (backends.Output, error) {
	return f.create("BatchToSpace", nil, x, blockShape, cropsBegin, cropsEnd)
}

// SpaceToBatch pads x and moves blocks of the spatial axes into the batch axis. Available from opset2.
func (f *Factory) SpaceToBatch(x, blockShape, padsBegin, padsEnd any) (backends.Output, error) {
	return f.create("SpaceToBatch", nil, x, blockShape, padsBegin, padsEnd)
}

// ShapeOf returns the shape of x as a 1D Int64 node.
func (f *Factory) ShapeOf(x any) (backends.Output, error) { return f.create("ShapeOf", nil, x) }

// ShapeOfWithType returns the shape of x as a 1D node of the given type, Int32 or Int64. Available from
// opset3.
func (f *Factory) ShapeOfWithType(x any, dtype dtypes.DType) (backends.Output, error) {
	return f.create("ShapeOf", attributes.Bag{"output_type": attributes.ElementType(dtype)}, x)
}

// Convert x to the given element type.
func (f *Factory) Convert(x any, dtype dtypes.DType) (backends.Output, error) {
	return f.create("Convert", attributes.Bag{"destination_type": attributes.ElementType(dtype)}, x)
}

// ConvertLike converts x to the element type of like.
func (f *Factory) ConvertLike(x, like any) (backends.Output, error) {
	return f.create("ConvertLike", nil, x, like)
}

// Reverse x along axes. mode is "index", where axes lists the axes to reverse, or "mask", where axes has
// one boolean per axis of x.
//
// It's always created from opset1.
func (f *Factory) Reverse(x, axes any, mode string) (backends.Output, error) {
	return f.createPinned(opset.Opset1, "Reverse", attributes.Bag{"mode": attributes.String(mode)}, x, axes)
}

// ReverseSequence reverses, for each element of batchAxis, the first seqLengths positions along seqAxis.
func (f *Factory) ReverseSequence(x, seqLengths any, batchAxis, seqAxis int) (backends.Output, error) {
	return f.create("ReverseSequence", attributes.Bag{
		"batch_axis": attributes.Int(int64(batchAxis)),
		"seq_axis":   attributes.Int(int64(seqAxis)),
	}, x, seqLengths)
}

// ScatterUpdate replaces slices of data along axis, at the given indices, by updates. Available from opset3.
func (f *Factory) ScatterUpdate(data, indices, updates, axis any) (backends.Output, error) {
	return f.create("ScatterUpdate", nil, data, indices, updates, axis)
}

// ScatterElementsUpdate replaces elements of data along axis, at the given indices, by updates. Available
// from opset3.
func (f *Factory) ScatterElementsUpdate(data, indices, updates, axis any) (backends.Output, error) {
	return f.create("ScatterElementsUpdate", nil, data, indices, updates, axis)
}

// CumSum returns the cumulative sum of x along axis. Available from opset3.
func (f *Factory) CumSum(x, axis any, exclusive, reverse bool) (backends.Output, error) {
	return f.create("CumSum", attributes.Bag{
		"exclusive": attributes.Bool(exclusive),
		"reverse":   attributes.Bool(reverse),
	}, x, axis)
}

// Bucketize returns the index of the bucket of each value of x, with buckets given by their sorted
// boundaries. Available from opset3.
func (f *Factory) Bucketize(x, buckets any, dtype dtypes.DType, withRightBound bool) (backends.Output, error) {
	return f.create("Bucketize", attributes.Bag{
		"output_type":      attributes.ElementType(dtype),
		"with_right_bound": attributes.Bool(withRightBound),
	}, x, buckets)
}
