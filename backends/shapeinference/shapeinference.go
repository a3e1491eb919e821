// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapeinference calculates the shape resulting from operations and validates its inputs.
//
// It is used by graph engines (see backends/memgraph) to compute the output shapes of a node at
// construction time. Shapes may be partially known: axes can be shapes.DynamicDim and the rank itself
// may be unknown, in which case the inference is as precise as the inputs allow.
//
// It defines a BinaryOp function for the element-wise binary operations, using the auto_broadcast rules,
// and UnaryOp for the element-wise unary ones. For the remainder ops, it defines one function per operation.
package shapeinference

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/gomlx/opset/pkg/support/sets"
	"github.com/pkg/errors"
)

// Auto-broadcast modes.
const (
	BroadcastNone  = "NONE"
	BroadcastNumpy = "NUMPY"
	BroadcastPDPD  = "PDPD"
)

var (
	// LogicalOperations take booleans as input.
	LogicalOperations = sets.MakeWith("LogicalAnd", "LogicalOr", "LogicalXor", "LogicalNot")

	// ComparisonOperations take two inputs and return booleans with the results of a comparison.
	ComparisonOperations = sets.MakeWith("Equal", "NotEqual", "Less", "LessEqual", "Greater", "GreaterEqual")

	// ArithmeticOperations take two numbers (integers or floats) and return the same type.
	ArithmeticOperations = sets.MakeWith("Add", "Subtract", "Multiply", "Divide", "Power", "Maximum", "Minimum",
		"Mod", "FloorMod", "SquaredDifference")

	// StandardBinaryOperations include all element-wise operations with two operands.
	StandardBinaryOperations = ArithmeticOperations.Union(ComparisonOperations, sets.MakeWith("LogicalAnd", "LogicalOr", "LogicalXor"))

	// FloatOperations operate only on floating point values.
	FloatOperations = sets.MakeWith("Acos", "Asin", "Atan", "Cos", "Cosh", "Sin", "Sinh", "Tan", "Tanh", "Erf",
		"Exp", "Log", "Sqrt", "Sigmoid", "Gelu", "Mish", "SoftPlus", "HSwish", "Swish", "Floor", "Ceiling")

	// StandardUnaryOperations include all operations with a single operand whose output shape is the same as the
	// input (so no reductions).
	StandardUnaryOperations = FloatOperations.Union(sets.MakeWith("Abs", "Negative", "Relu", "Sign", "LogicalNot"))
)

func checkNumber(opType string, s shapes.Shape) error {
	if !shapes.IsFloat(s.DType) && !shapes.IsInteger(s.DType) {
		return errors.Errorf("%s must have a number (Int32, Float32, ...) data type as input, got %s", opType, s)
	}
	return nil
}

func isUnsigned(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64:
		return true
	}
	return false
}

// BinaryOp returns the expected output shape for ops in the StandardBinaryOperations set, given the
// auto_broadcast mode (NONE, NUMPY or PDPD).
//
// It returns an error if the data types are invalid for the operation -- e.g.: non-matching dtypes, or LogicalAnd not
// having booleans (dtypes.Bool) as input.
func BinaryOp(opType string, lhsShape, rhsShape shapes.Shape, autoBroadcast string) (output shapes.Shape, err error) {
	if !StandardBinaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardBinaryOperations set, cannot process it with BinaryOp", opType)
		return
	}
	if !lhsShape.Ok() || !rhsShape.Ok() {
		err = errors.Errorf("invalid shape for %s or %s for BinaryOp %s", lhsShape, rhsShape, opType)
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Errorf("data types (DType) for BinaryOp %s must match, got %s and %s", opType, lhsShape, rhsShape)
		return
	}
	if LogicalOperations.Has(opType) {
		if lhsShape.DType != dtypes.Bool {
			err = errors.Errorf("logical BinaryOp %s must have boolean (dtypes.Bool) data types as input, got %s", opType, lhsShape)
			return
		}
	} else if err = checkNumber(opType, lhsShape); err != nil {
		return
	}
	output, err = BroadcastShapes(lhsShape, rhsShape, autoBroadcast)
	if err != nil {
		err = errors.WithMessagef(err, "BinaryOp %s", opType)
		return
	}
	if ComparisonOperations.Has(opType) {
		output.DType = dtypes.Bool
	}
	return
}

// BroadcastShapes returns the shape resulting from combining lhs and rhs with the given auto_broadcast mode.
// The output dtype is the one of lhsShape.
func BroadcastShapes(lhsShape, rhsShape shapes.Shape, autoBroadcast string) (output shapes.Shape, err error) {
	switch autoBroadcast {
	case BroadcastNone:
		if lhsShape.DynamicRank || rhsShape.DynamicRank {
			return lhsShape.Clone(), nil
		}
		if lhsShape.Rank() != rhsShape.Rank() {
			err = errors.Errorf("auto_broadcast=NONE requires matching shapes, got %s and %s", lhsShape, rhsShape)
			return
		}
		output = lhsShape.Clone()
		for axis := range output.Dimensions {
			dim, ok := shapes.MergeDim(lhsShape.Dimensions[axis], rhsShape.Dimensions[axis])
			if !ok {
				err = errors.Errorf("auto_broadcast=NONE requires matching shapes, got %s and %s", lhsShape, rhsShape)
				return
			}
			output.Dimensions[axis] = dim
		}
		return

	case BroadcastNumpy:
		if lhsShape.DynamicRank || rhsShape.DynamicRank {
			return shapes.MakeDynamicRank(lhsShape.DType), nil
		}
		rank := max(lhsShape.Rank(), rhsShape.Rank())
		dims := make([]int, rank)
		for axis := range rank {
			lhsDim := dimFromRight(lhsShape, rank-1-axis)
			rhsDim := dimFromRight(rhsShape, rank-1-axis)
			switch {
			case lhsDim == 1:
				dims[axis] = rhsDim
			case rhsDim == 1:
				dims[axis] = lhsDim
			case lhsDim == shapes.DynamicDim:
				dims[axis] = rhsDim
			case rhsDim == shapes.DynamicDim, lhsDim == rhsDim:
				dims[axis] = lhsDim
			default:
				err = errors.Errorf("dimensions of axis #%d don't match and cannot be broadcast, got shapes %s and %s",
					axis, lhsShape, rhsShape)
				return
			}
		}
		return shapes.Make(lhsShape.DType, dims...), nil

	case BroadcastPDPD:
		// The right operand is broadcast onto the left one, which is kept.
		if lhsShape.DynamicRank || rhsShape.DynamicRank {
			return lhsShape.Clone(), nil
		}
		if rhsShape.Rank() > lhsShape.Rank() {
			err = errors.Errorf("auto_broadcast=PDPD requires the right operand rank to be <= the left one, got %s and %s",
				lhsShape, rhsShape)
			return
		}
		return lhsShape.Clone(), nil
	}
	err = errors.Errorf("unknown auto_broadcast mode %q", autoBroadcast)
	return
}

// dimFromRight returns the dimension counting from the last axis (0 is the last), or 1 if the shape is not
// that large.
func dimFromRight(s shapes.Shape, fromRight int) int {
	if fromRight >= s.Rank() {
		return 1
	}
	return s.Dimensions[s.Rank()-1-fromRight]
}

// UnaryOp checks the validity of the data type for StandardUnaryOperations and returns either an error or
// the output shape, which is the same as the operand.
func UnaryOp(opType string, operand shapes.Shape) (output shapes.Shape, err error) {
	if !StandardUnaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardUnaryOperations set, cannot process it with UnaryOp", opType)
		return
	}
	if !operand.Ok() {
		err = errors.Errorf("invalid shape %s for UnaryOp %s", operand, opType)
		return
	}
	if LogicalOperations.Has(opType) && operand.DType != dtypes.Bool {
		err = errors.Errorf("logical UnaryOp %s must have boolean (dtypes.Bool) data types as input, got %s", opType, operand)
		return
	}
	if FloatOperations.Has(opType) && !shapes.IsFloat(operand.DType) {
		err = errors.Errorf("float UnaryOp %s must have a float (Float32, Float64, ...) data type as input, got %s", opType, operand)
		return
	}
	if opType == "Negative" && isUnsigned(operand.DType) {
		err = errors.Errorf("UnaryOp %s must have a signed data type as input, got %s", opType, operand)
		return
	}
	output = operand.Clone()
	return
}

// SelectOp returns the shape resulting from the Select operation: the broadcast of the three inputs, with the
// dtype of the then/else values.
func SelectOp(condition, onTrue, onFalse shapes.Shape, autoBroadcast string) (output shapes.Shape, err error) {
	if condition.DType != dtypes.Bool {
		err = errors.Errorf("condition for Select must be a boolean, got %s instead", condition)
		return
	}
	if onTrue.DType != onFalse.DType {
		err = errors.Errorf("then (%s) and else (%s) values of Select must have the same dtype", onTrue, onFalse)
		return
	}
	output, err = BroadcastShapes(onTrue, onFalse, autoBroadcast)
	if err != nil {
		return
	}
	if autoBroadcast == BroadcastNumpy {
		output, err = BroadcastShapes(output, condition.WithDType(output.DType), autoBroadcast)
	}
	return
}

// ReshapeOp returns the output of reshaping operand to target, which is the value of the constant shape input.
//
// With specialZero set, a 0 in target copies the corresponding operand dimension. One value of target may be -1,
// in which case it is inferred from the remaining dimensions.
func ReshapeOp(operand shapes.Shape, target []int, specialZero bool) (output shapes.Shape, err error) {
	dims := slices.Clone(target)
	inferredAxis := -1
	knownSize := 1
	for axis, dim := range dims {
		switch {
		case dim == 0 && specialZero:
			if operand.DynamicRank || axis >= operand.Rank() {
				err = errors.Errorf("Reshape of %s to %v: special zero at axis %d has no corresponding input axis", operand, target, axis)
				return
			}
			dims[axis] = operand.Dimensions[axis]
		case dim == -1:
			if inferredAxis >= 0 {
				err = errors.Errorf("Reshape of %s to %v: only one dimension can be -1", operand, target)
				return
			}
			inferredAxis = axis
			continue
		case dim < 0:
			err = errors.Errorf("Reshape of %s to %v: invalid dimension %d", operand, target, dim)
			return
		}
		if dims[axis] != shapes.DynamicDim {
			knownSize *= dims[axis]
		}
	}
	operandSize := operand.Size()
	if inferredAxis >= 0 {
		otherDynamic := false
		for axis, dim := range dims {
			if axis != inferredAxis && dim == shapes.DynamicDim {
				otherDynamic = true
			}
		}
		switch {
		case operandSize == shapes.DynamicDim || otherDynamic:
			dims[inferredAxis] = shapes.DynamicDim
		case knownSize == 0 || operandSize%knownSize != 0:
			err = errors.Errorf("Reshape of %s to %v: cannot infer the -1 dimension", operand, target)
			return
		default:
			dims[inferredAxis] = operandSize / knownSize
		}
	} else if operandSize != shapes.DynamicDim && !slices.Contains(dims, shapes.DynamicDim) && operandSize != knownSize {
		err = errors.Errorf("Reshape of %s to %v: sizes don't match", operand, target)
		return
	}
	return shapes.Make(operand.DType, dims...), nil
}

// AdjustAxisToRank returns a positive axis, adjusting negative numbers to the correct rank.
func AdjustAxisToRank(axis, rank int) (int, error) {
	if axis < -rank || axis >= rank {
		return -1, errors.Errorf("axis %d is out of range for rank %d", axis, rank)
	}
	if axis < 0 {
		axis += rank
	}
	return axis, nil
}

// TransposeOp permutes all axes of the operand. An empty permutation reverses the axes.
// The output will have: output.Dimensions[ii] = operand.Dimensions[permutations[ii]].
func TransposeOp(operand shapes.Shape, permutations []int) (output shapes.Shape, err error) {
	if operand.DynamicRank {
		return operand.Clone(), nil
	}
	rank := operand.Rank()
	if len(permutations) == 0 {
		permutations = make([]int, rank)
		for ii := range permutations {
			permutations[ii] = rank - 1 - ii
		}
	}
	if len(permutations) != rank {
		err = errors.Errorf("Transpose requires all axes permutations to be defined, operand has shape %s, but %d permutations were given",
			operand, len(permutations))
		return
	}
	seen := make([]bool, rank)
	output = operand.Clone()
	for axis, srcAxis := range permutations {
		if srcAxis < 0 || srcAxis >= rank || seen[srcAxis] {
			err = errors.Errorf("invalid permutations given to Transpose(%s, %v), each axis must appear exactly once",
				operand, permutations)
			return
		}
		seen[srcAxis] = true
		output.Dimensions[axis] = operand.Dimensions[srcAxis]
	}
	return
}

// ConcatOp calculates the output shape of a Concat operation along the given axis (negative values allowed).
func ConcatOp(inputs []shapes.Shape, axis int) (output shapes.Shape, err error) {
	if len(inputs) == 0 {
		return shapes.Invalid(), errors.Errorf("Concat requires at least one input shape")
	}
	dtype := inputs[0].DType
	rank := shapes.DynamicDim
	for ii, input := range inputs {
		if input.DType != dtype {
			return shapes.Invalid(), errors.Errorf("mismatched DTypes for Concat: input #0 has %s, input #%d has %s",
				dtype, ii, input.DType)
		}
		if input.DynamicRank {
			continue
		}
		if rank == shapes.DynamicDim {
			rank = input.Rank()
		} else if input.Rank() != rank {
			return shapes.Invalid(), errors.Errorf("mismatched ranks for Concat: input #%d has rank %d, expected %d",
				ii, input.Rank(), rank)
		}
	}
	if rank == shapes.DynamicDim {
		return shapes.MakeDynamicRank(dtype), nil
	}
	if axis, err = AdjustAxisToRank(axis, rank); err != nil {
		return shapes.Invalid(), errors.WithMessage(err, "Concat")
	}
	dims := make([]int, rank)
	for ii := range dims {
		dims[ii] = shapes.DynamicDim
	}
	dims[axis] = 0
	for ii, input := range inputs {
		if input.DynamicRank {
			dims[axis] = shapes.DynamicDim
			continue
		}
		for d, dim := range input.Dimensions {
			if d == axis {
				if dims[axis] != shapes.DynamicDim {
					if dim == shapes.DynamicDim {
						dims[axis] = shapes.DynamicDim
					} else {
						dims[axis] += dim
					}
				}
				continue
			}
			merged, ok := shapes.MergeDim(dims[d], dim)
			if !ok {
				return shapes.Invalid(), errors.Errorf("mismatched dimensions for Concat at axis %d: input #%d has %d, expected %d",
					d, ii, dim, dims[d])
			}
			dims[d] = merged
		}
	}
	return shapes.Make(dtype, dims...), nil
}

// ReduceOp returns the shape of reducing operand over the given axes. If axes is nil the reduced axes
// are not known and the output has dynamic dimensions.
func ReduceOp(operand shapes.Shape, axes []int, keepDims bool) (output shapes.Shape, err error) {
	if operand.DynamicRank {
		return operand.Clone(), nil
	}
	rank := operand.Rank()
	if axes == nil {
		if keepDims {
			dims := make([]int, rank)
			for ii := range dims {
				dims[ii] = shapes.DynamicDim
			}
			return shapes.Make(operand.DType, dims...), nil
		}
		return shapes.MakeDynamicRank(operand.DType), nil
	}
	reduced := make([]bool, rank)
	for _, axis := range axes {
		adjusted, axisErr := AdjustAxisToRank(axis, rank)
		if axisErr != nil {
			err = errors.WithMessagef(axisErr, "reduce axes %v for %s", axes, operand)
			return
		}
		reduced[adjusted] = true
	}
	dims := make([]int, 0, rank)
	for axis, dim := range operand.Dimensions {
		if !reduced[axis] {
			dims = append(dims, dim)
		} else if keepDims {
			dims = append(dims, 1)
		}
	}
	return shapes.Make(operand.DType, dims...), nil
}

// SqueezeOp removes the given axes, which must have dimension 1. With no axes, all axes of dimension 1 are removed.
func SqueezeOp(operand shapes.Shape, axes []int) (output shapes.Shape, err error) {
	if operand.DynamicRank {
		return operand.Clone(), nil
	}
	rank := operand.Rank()
	remove := make([]bool, rank)
	if len(axes) == 0 {
		for axis, dim := range operand.Dimensions {
			if dim == shapes.DynamicDim {
				return shapes.MakeDynamicRank(operand.DType), nil
			}
			remove[axis] = dim == 1
		}
	}
	for _, axis := range axes {
		adjusted, axisErr := AdjustAxisToRank(axis, rank)
		if axisErr != nil {
			err = errors.WithMessagef(axisErr, "Squeeze axes %v for %s", axes, operand)
			return
		}
		if dim := operand.Dimensions[adjusted]; dim != 1 && dim != shapes.DynamicDim {
			err = errors.Errorf("Squeeze axis %d of %s doesn't have dimension 1", axis, operand)
			return
		}
		remove[adjusted] = true
	}
	dims := make([]int, 0, rank)
	for axis, dim := range operand.Dimensions {
		if !remove[axis] {
			dims = append(dims, dim)
		}
	}
	return shapes.Make(operand.DType, dims...), nil
}

// UnsqueezeOp inserts axes of dimension 1 at the given positions of the output.
func UnsqueezeOp(operand shapes.Shape, axes []int) (output shapes.Shape, err error) {
	if operand.DynamicRank {
		return operand.Clone(), nil
	}
	outputRank := operand.Rank() + len(axes)
	inserted := make([]bool, outputRank)
	for _, axis := range axes {
		adjusted, axisErr := AdjustAxisToRank(axis, outputRank)
		if axisErr != nil {
			err = errors.WithMessagef(axisErr, "Unsqueeze axes %v for %s", axes, operand)
			return
		}
		if inserted[adjusted] {
			err = errors.Errorf("Unsqueeze axes %v for %s has repeated axis %d", axes, operand, axis)
			return
		}
		inserted[adjusted] = true
	}
	dims := make([]int, outputRank)
	next := 0
	for axis := range dims {
		if inserted[axis] {
			dims[axis] = 1
			continue
		}
		dims[axis] = operand.Dimensions[next]
		next++
	}
	return shapes.Make(operand.DType, dims...), nil
}

// ArgMinMaxOp calculates the output shape for an ArgMax/ArgMin operation.
// It will be the shape of the operand minus the reduced axis.
func ArgMinMaxOp(operand shapes.Shape, axis int, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if !shapes.IsInteger(outputDType) {
		err = errors.Errorf("ArgMax/ArgMin index type must be an integer type, got %s", outputDType)
		return
	}
	if operand.DynamicRank {
		return shapes.MakeDynamicRank(outputDType), nil
	}
	if axis, err = AdjustAxisToRank(axis, operand.Rank()); err != nil {
		return
	}
	dims := slices.Delete(slices.Clone(operand.Dimensions), axis, axis+1)
	return shapes.Make(outputDType, dims...), nil
}

// GatherOp returns the output of gathering data with indices along axis: the axis dimension of data is
// replaced by the dimensions of indices.
func GatherOp(data, indices shapes.Shape, axis int) (output shapes.Shape, err error) {
	if !shapes.IsInteger(indices.DType) {
		err = errors.Errorf("Gather indices must be integers, got %s", indices)
		return
	}
	if data.DynamicRank || indices.DynamicRank {
		return shapes.MakeDynamicRank(data.DType), nil
	}
	if axis, err = AdjustAxisToRank(axis, data.Rank()); err != nil {
		return
	}
	dims := slices.Concat(data.Dimensions[:axis], indices.Dimensions, data.Dimensions[axis+1:])
	return shapes.Make(data.DType, dims...), nil
}

// TileOp repeats each axis of data by the corresponding value of repeats. If repeats is longer than the rank of
// data, data is expanded with leading axes of dimension 1.
func TileOp(data shapes.Shape, repeats []int) (output shapes.Shape, err error) {
	if data.DynamicRank {
		return data.Clone(), nil
	}
	rank := max(data.Rank(), len(repeats))
	dims := make([]int, rank)
	for axis := range rank {
		dim := dimFromRight(data, rank-1-axis)
		repeat := 1
		if idx := axis - (rank - len(repeats)); idx >= 0 {
			repeat = repeats[idx]
		}
		if repeat < 0 {
			err = errors.Errorf("Tile repeats %v must be non-negative", repeats)
			return
		}
		if dim == shapes.DynamicDim {
			dims[axis] = shapes.DynamicDim
		} else {
			dims[axis] = dim * repeat
		}
	}
	return shapes.Make(data.DType, dims...), nil
}

// ShapeOfOp returns the 1D shape holding the dimensions of operand.
func ShapeOfOp(operand shapes.Shape, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if outputDType != dtypes.Int32 && outputDType != dtypes.Int64 {
		err = errors.Errorf("ShapeOf output type must be i32 or i64, got %s", shapes.ElementTypeName(outputDType))
		return
	}
	return shapes.Make(outputDType, operand.Rank()), nil
}

// NonZeroOp returns the shape of the indices of the non-zero elements: [rank, number of non-zero elements].
func NonZeroOp(operand shapes.Shape, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if outputDType != dtypes.Int32 && outputDType != dtypes.Int64 {
		err = errors.Errorf("NonZero output type must be i32 or i64, got %s", shapes.ElementTypeName(outputDType))
		return
	}
	return shapes.Make(outputDType, operand.Rank(), shapes.DynamicDim), nil
}

// SplitOp splits operand along axis into numSplits equal parts.
func SplitOp(operand shapes.Shape, axis, numSplits int) (outputs []shapes.Shape, err error) {
	if numSplits <= 0 {
		err = errors.Errorf("Split num_splits must be positive, got %d", numSplits)
		return
	}
	outputs = make([]shapes.Shape, numSplits)
	if operand.DynamicRank {
		for ii := range outputs {
			outputs[ii] = operand.Clone()
		}
		return
	}
	if axis, err = AdjustAxisToRank(axis, operand.Rank()); err != nil {
		return nil, err
	}
	dim := operand.Dimensions[axis]
	if dim != shapes.DynamicDim && dim%numSplits != 0 {
		err = errors.Errorf("Split of axis %d of %s into %d parts: dimension not divisible", axis, operand, numSplits)
		return nil, err
	}
	for ii := range outputs {
		outputs[ii] = operand.Clone()
		if dim != shapes.DynamicDim {
			outputs[ii].Dimensions[axis] = dim / numSplits
		}
	}
	return
}

// VariadicSplitOp splits operand along axis into parts of the given lengths. One length may be -1, in which
// case it takes the remainder of the axis.
func VariadicSplitOp(operand shapes.Shape, axis int, lengths []int) (outputs []shapes.Shape, err error) {
	outputs = make([]shapes.Shape, len(lengths))
	if operand.DynamicRank {
		for ii := range outputs {
			outputs[ii] = operand.Clone()
		}
		return
	}
	if axis, err = AdjustAxisToRank(axis, operand.Rank()); err != nil {
		return nil, err
	}
	dim := operand.Dimensions[axis]
	inferred, total := -1, 0
	for ii, length := range lengths {
		switch {
		case length == -1 && inferred == -1:
			inferred = ii
		case length < 0:
			return nil, errors.Errorf("VariadicSplit lengths %v: invalid length %d", lengths, length)
		default:
			total += length
		}
	}
	if dim != shapes.DynamicDim && (total > dim || inferred == -1 && total != dim) {
		return nil, errors.Errorf("VariadicSplit lengths %v don't add up to dimension %d of axis %d", lengths, dim, axis)
	}
	for ii, length := range lengths {
		outputs[ii] = operand.Clone()
		if ii == inferred {
			if dim == shapes.DynamicDim {
				length = shapes.DynamicDim
			} else {
				length = dim - total
			}
		}
		outputs[ii].Dimensions[axis] = length
	}
	return
}

// TopKOp returns the values and indices shapes of TopK: the operand with axis dimension replaced by k.
// k is shapes.DynamicDim if not known.
func TopKOp(operand shapes.Shape, axis, k int, indexDType dtypes.DType) (values, indices shapes.Shape, err error) {
	if indexDType != dtypes.Int32 && indexDType != dtypes.Int64 {
		err = errors.Errorf("TopK index_element_type must be i32 or i64, got %s", shapes.ElementTypeName(indexDType))
		return
	}
	if operand.DynamicRank {
		return operand.Clone(), operand.WithDType(indexDType), nil
	}
	if axis, err = AdjustAxisToRank(axis, operand.Rank()); err != nil {
		return
	}
	if k != shapes.DynamicDim && k < 0 {
		err = errors.Errorf("TopK k must be non-negative, got %d", k)
		return
	}
	values = operand.Clone()
	values.Dimensions[axis] = k
	indices = values.WithDType(indexDType)
	return
}

// OneHotOp inserts a new axis of dimension depth at the given position. The output dtype is the one of
// the on/off values.
func OneHotOp(indices shapes.Shape, depth, axis int, valueDType dtypes.DType) (output shapes.Shape, err error) {
	if !shapes.IsInteger(indices.DType) {
		err = errors.Errorf("OneHot indices must be integers, got %s", indices)
		return
	}
	if indices.DynamicRank {
		return shapes.MakeDynamicRank(valueDType), nil
	}
	if axis, err = AdjustAxisToRank(axis, indices.Rank()+1); err != nil {
		return
	}
	dims := slices.Insert(slices.Clone(indices.Dimensions), axis, depth)
	return shapes.Make(valueDType, dims...), nil
}

// BroadcastOp returns the shape of broadcasting data to targetDims.
//
// Mode is "NUMPY", "EXPLICIT" or "BIDIRECTIONAL". For BIDIRECTIONAL, the output is the numpy broadcast of
// both shapes. If targetDims is nil (not a constant) only the rank of the output is known, given by targetRank.
func BroadcastOp(data shapes.Shape, targetDims []int, targetRank int, mode string) (output shapes.Shape, err error) {
	if targetDims == nil {
		if targetRank == shapes.DynamicDim {
			return shapes.MakeDynamicRank(data.DType), nil
		}
		dims := make([]int, targetRank)
		for ii := range dims {
			dims[ii] = shapes.DynamicDim
		}
		if mode == "BIDIRECTIONAL" && !data.DynamicRank && data.Rank() > targetRank {
			return shapes.MakeDynamicRank(data.DType), nil
		}
		return shapes.Make(data.DType, dims...), nil
	}
	target := shapes.Make(data.DType, targetDims...)
	switch mode {
	case "BIDIRECTIONAL":
		return BroadcastShapes(data, target, BroadcastNumpy)
	case "NUMPY":
		output, err = BroadcastShapes(data, target, BroadcastNumpy)
		if err != nil {
			return
		}
		if !output.DynamicRank && output.Rank() != target.Rank() {
			err = errors.Errorf("Broadcast of %s to %v: data rank larger than target", data, targetDims)
		}
		return target, err
	}
	return target, nil
}
