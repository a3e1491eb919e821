// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
)

func (f *Factory) reduce(opType string, x, axes any, keepDims bool) (backends.Output, error) {
	return f.create(opType, attributes.Bag{"keep_dims": attributes.Bool(keepDims)}, x, axes)
}

// ReduceSum sums x over axes. If keepDims, the reduced axes are kept with dimension 1.
func (f *Factory) ReduceSum(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceSum", x, axes, keepDims)
}

// ReduceMax returns the maximum of x over axes.
func (f *Factory) ReduceMax(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceMax", x, axes, keepDims)
}

// ReduceMin returns the minimum of x over axes.
func (f *Factory) ReduceMin(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceMin", x, axes, keepDims)
}

// ReduceProd multiplies x over axes.
func (f *Factory) ReduceProd(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceProd", x, axes, keepDims)
}

// ReduceMean averages x over axes.
func (f *Factory) ReduceMean(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceMean", x, axes, keepDims)
}

// ReduceLogicalAnd returns whether all of x is true over axes.
func (f *Factory) ReduceLogicalAnd(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceLogicalAnd", x, axes, keepDims)
}

// ReduceLogicalOr returns whether any of x is true over axes.
func (f *Factory) ReduceLogicalOr(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceLogicalOr", x, axes, keepDims)
}

// ReduceL1 returns the L1 norm of x over axes. Available from opset4.
func (f *Factory) ReduceL1(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceL1", x, axes, keepDims)
}

// ReduceL2 returns the L2 norm of x over axes. Available from opset4.
func (f *Factory) ReduceL2(x, axes any, keepDims bool) (backends.Output, error) {
	return f.reduce("ReduceL2", x, axes, keepDims)
}

// MatMul multiplies a and b, optionally transposing their last 2 axes. Leading axes are batch axes and
// are broadcast.
func (f *Factory) MatMul(a, b any, transposeA, transposeB bool) (backends.Output, error) {
	return f.create("MatMul", attributes.Bag{
		"transpose_a": attributes.Bool(transposeA),
		"transpose_b": attributes.Bool(transposeB),
	}, a, b)
}

// TopK returns the k largest (mode "max") or smallest (mode "min") values of x along axis, and their indices.
// sort is "value", "index" or "none".
func (f *Factory) TopK(x, k any, axis int, mode, sort string) (values, indices backends.Output, err error) {
	outputs, err := f.Create("TopK", attributes.Bag{
		"axis": attributes.Int(int64(axis)),
		"mode": attributes.String(mode),
		"sort": attributes.String(sort),
	}, x, k)
	if err != nil {
		return
	}
	return outputs[0], outputs[1], nil
}

// NonZero returns the indices of the non-zero elements of x, shaped [rank, count], of the given type
// (Int32 or Int64). Available from opset3.
func (f *Factory) NonZero(x any, dtype dtypes.DType) (backends.Output, error) {
	return f.create("NonZero", attributes.Bag{"output_type": attributes.ElementType(dtype)}, x)
}

// NonMaxSuppression selects the boxes with the highest scores, discarding the ones overlapping more than
// iouThreshold with a box already selected.
//
// maxOutputBoxesPerClass, iouThreshold and scoreThreshold are optional (nil), and default to zeros. Only
// trailing ones can be omitted. boxEncoding is "corner" or "center".
func (f *Factory) NonMaxSuppression(boxes, scores, maxOutputBoxesPerClass, iouThreshold, scoreThreshold any,
	boxEncoding string, sortResultDescending bool) (backends.Output, error) {
	return f.create("NonMaxSuppression", attributes.Bag{
		"box_encoding":           attributes.String(boxEncoding),
		"sort_result_descending": attributes.Bool(sortResultDescending),
	}, boxes, scores, maxOutputBoxesPerClass, iouThreshold, scoreThreshold)
}

// CTCGreedyDecoder decodes the logits data, shaped [time, batch, classes], taking the most likely class at
// each step. If mergeRepeated, consecutive repeated classes are merged.
func (f *Factory) CTCGreedyDecoder(data, sequenceMask any, mergeRepeated bool) (backends.Output, error) {
	return f.create("CTCGreedyDecoder", attributes.Bag{"ctc_merge_repeated": attributes.Bool(mergeRepeated)}, data, sequenceMask)
}
