// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapeinference calculates the shape resulting from the backend primitives and validates their inputs.
//
// Backends use it to validate arguments and plan the output buffers before any computation.
//
// It defines a BinaryOp function for shape inference for the binary element-wise functions, using the standard
// (numpy-like) broadcasting rules, and UnaryOp for the element-wise unary ones.
// For the remainder ops, it defines one function per OpType.
package shapeinference

import (
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/support/sets"
	"github.com/pkg/errors"
)

var (
	// BooleanOperations take booleans as input, aka. logical operations.
	BooleanOperations = sets.MakeWith(
		backends.OpTypeLogicalAnd,
		backends.OpTypeLogicalOr,
		backends.OpTypeLogicalNot,
	)

	// NumberOperations can take any type of number as input: integers, floats, or complex numbers.
	NumberOperations = sets.MakeWith(
		backends.OpTypeAdd,
		backends.OpTypeSub,
		backends.OpTypeMul,
		backends.OpTypeDiv,
		backends.OpTypePow,

		// Abs and Sign work for unsigned ints: it's just a trivial implementation.
		backends.OpTypeAbs,
		backends.OpTypeSign,

		backends.OpTypeEqual,
		backends.OpTypeNotEqual,
	)

	// OrderedOperations require an ordered type: integers or floats, but not complex numbers.
	OrderedOperations = sets.MakeWith(
		backends.OpTypeMax,
		backends.OpTypeMin,
		backends.OpTypeGreaterOrEqual,
		backends.OpTypeGreaterThan,
		backends.OpTypeLessOrEqual,
		backends.OpTypeLessThan,
		backends.OpTypeFloor,
		backends.OpTypeCeil,
	)

	// SignedNumberOperations don't accept unsigned integers.
	SignedNumberOperations = sets.MakeWith(
		backends.OpTypeNeg,
	)

	// FloatOperations operates only on float (and not on complex numbers).
	FloatOperations = sets.MakeWith(
		backends.OpTypeAtan,
		backends.OpTypeIsNaN,
	)

	// FloatOrComplexOperations operates only on float or complex numbers and won't work on integer or boolean values.
	FloatOrComplexOperations = sets.MakeWith(
		backends.OpTypeSqrt,
		backends.OpTypeExp,
		backends.OpTypeLog,
		backends.OpTypeSin,
		backends.OpTypeCos,
		backends.OpTypeAcos,
		backends.OpTypeAsin,
		backends.OpTypeConj,
	)

	// StandardBinaryOperations include all operations that have two operands usually named lhs (left-hand-side) and
	// rhs (right-hand-side), and whose output dtype is the same as the inputs.
	StandardBinaryOperations = sets.MakeWith(
		backends.OpTypeAdd,
		backends.OpTypeSub,
		backends.OpTypeMul,
		backends.OpTypeDiv,
		backends.OpTypePow,
		backends.OpTypeLogicalAnd,
		backends.OpTypeLogicalOr,
		backends.OpTypeMax,
		backends.OpTypeMin,
	)

	// ComparisonOperations include all operations that take two inputs and returns booleans with the results of
	// a comparison.
	ComparisonOperations = sets.MakeWith(
		backends.OpTypeEqual,
		backends.OpTypeNotEqual,
		backends.OpTypeGreaterOrEqual,
		backends.OpTypeGreaterThan,
		backends.OpTypeLessOrEqual,
		backends.OpTypeLessThan,
	)

	// StandardUnaryOperations include all operations that have a single operand as input, and the return shape is the
	// same as the input.
	StandardUnaryOperations = sets.MakeWith(
		backends.OpTypeAbs,
		backends.OpTypeNeg,
		backends.OpTypeSign,
		backends.OpTypeSqrt,
		backends.OpTypeExp,
		backends.OpTypeLog,
		backends.OpTypeSin,
		backends.OpTypeCos,
		backends.OpTypeAcos,
		backends.OpTypeAsin,
		backends.OpTypeAtan,
		backends.OpTypeFloor,
		backends.OpTypeCeil,
		backends.OpTypeConj,
		backends.OpTypeIsNaN,
		backends.OpTypeLogicalNot,
	)
)

// checkDTypeForOp validates that dtype is acceptable for the element-wise operation.
func checkDTypeForOp(opType backends.OpType, kind string, dtype dtypes.DType) error {
	isNumber := dtype.IsInt() || dtype.IsFloat() || dtype.IsComplex()
	switch {
	case BooleanOperations.Has(opType) && dtype != dtypes.Bool:
		return errors.Errorf("logical %s %s must have boolean (dtype.Bool) data types as input, got %s", kind, opType, dtype)
	case !BooleanOperations.Has(opType) && dtype == dtypes.Bool && !ComparisonOperations.Has(opType):
		return errors.Errorf("numeric %s %s doesn't accept booleans as input", kind, opType)
	case NumberOperations.Has(opType) && !isNumber && !ComparisonOperations.Has(opType):
		return errors.Errorf("numeric %s %s must have a number (Int32, Float32, Complex64, ...) data type as input, got %s", kind, opType, dtype)
	case OrderedOperations.Has(opType) && !(dtype.IsInt() || dtype.IsFloat()):
		return errors.Errorf("%s %s requires an ordered (integer or float) data type as input, got %s", kind, opType, dtype)
	case SignedNumberOperations.Has(opType) && (dtype.IsUnsigned() || !isNumber):
		return errors.Errorf("signed %s %s must have a signed data type as input, got %s", kind, opType, dtype)
	case FloatOperations.Has(opType) && !dtype.IsFloat():
		return errors.Errorf("float %s %s must have a float (Float32, Float64, ...) data type as input, got %s", kind, opType, dtype)
	case FloatOrComplexOperations.Has(opType) && !(dtype.IsFloat() || dtype.IsComplex()):
		return errors.Errorf("float/complex %s %s must have a float or complex (Float32, Complex64, ...) data type as input, got %s", kind, opType, dtype)
	}
	return nil
}

// BinaryOp returns the expected output shape for ops in the StandardBinaryOperations set.
//
// It returns an error if the data type (shape.DType) is invalid for the operation -- e.g.: non-matching
// dtypes, or LogicalAnd not having booleans (dtype.Bool) as input -- or if the shapes can't be broadcast.
func BinaryOp(opType backends.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !StandardBinaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardBinaryOperations set, cannot process it with BinaryOp", opType)
		return
	}
	if err = checkBinaryDTypes("BinaryOp", opType, lhsShape, rhsShape); err != nil {
		return
	}
	return binaryOpImpl(opType, lhsShape, rhsShape)
}

func checkBinaryDTypes(kind string, opType backends.OpType, lhsShape, rhsShape shapes.Shape) error {
	if !lhsShape.Ok() || !rhsShape.Ok() {
		return errors.Errorf("invalid shape for %s or %s for %s %s", lhsShape, rhsShape, kind, opType)
	}
	if lhsShape.DType != rhsShape.DType {
		return errors.Errorf("data types (DType) for %s %s must match, got %s and %s", kind, opType, lhsShape, rhsShape)
	}
	return checkDTypeForOp(opType, kind, lhsShape.DType)
}

func binaryOpImpl(opType backends.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	dims, err := shapes.BroadcastDimensions(lhsShape.Dimensions, rhsShape.Dimensions)
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "operands of %s", opType)
	}
	return shapes.Make(lhsShape.DType, dims...), nil
}

// ComparisonOp returns the broadcast shape with dtype set to Bool, for comparison operations (Equal, LessThan, GreaterOrEqual, etc.)
func ComparisonOp(opType backends.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !ComparisonOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the ComparisonOperations set, cannot process it with ComparisonOp", opType)
		return
	}
	if err = checkBinaryDTypes("ComparisonOp", opType, lhsShape, rhsShape); err != nil {
		return
	}
	output, err = binaryOpImpl(opType, lhsShape, rhsShape)
	if err != nil {
		return
	}
	output.DType = dtypes.Bool
	return
}

// UnaryOp checks the validity of the data type for StandardUnaryOperations and returns either an error or
// the output shape, which is the same as the operand, except for IsNaN, that returns booleans, and Abs of
// complex numbers, that returns their real dtype.
func UnaryOp(opType backends.OpType, operand shapes.Shape) (output shapes.Shape, err error) {
	if !StandardUnaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardUnaryOperations set, cannot process it with UnaryOp", opType)
		return
	}
	if !operand.Ok() {
		err = errors.Errorf("invalid shape %s for UnaryOp %s", operand, opType)
		return
	}
	if err = checkDTypeForOp(opType, "UnaryOp", operand.DType); err != nil {
		return
	}
	output = operand.Clone()
	switch {
	case opType == backends.OpTypeIsNaN:
		output.DType = dtypes.Bool
	case opType == backends.OpTypeAbs && operand.DType.IsComplex():
		output.DType = operand.DType.RealDType()
	}
	return
}

// WhereOp returns the shape resulting from the Where operation: the condition, onTrue and onFalse
// are broadcast together.
func WhereOp(condition, onTrue, onFalse shapes.Shape) (output shapes.Shape, err error) {
	if condition.DType != dtypes.Bool {
		err = errors.Errorf("condition for Where() must be a boolean, got %s instead", condition)
		return
	}
	if onTrue.DType != onFalse.DType {
		err = errors.Errorf("onTrue (%s) and onFalse (%s) values for Where() must have the same dtype", onTrue, onFalse)
		return
	}
	dims, err := shapes.BroadcastDimensions(onTrue.Dimensions, onFalse.Dimensions)
	if err == nil {
		dims, err = shapes.BroadcastDimensions(condition.Dimensions, dims)
	}
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "Where(condition=%s, onTrue=%s, onFalse=%s)", condition, onTrue, onFalse)
	}
	return shapes.Make(onTrue.DType, dims...), nil
}

// ReshapeOp to the given dimensions: trivial output shape, but this function also checks
// that the sizes are the same.
//
// Notice the backends.Reshape doesn't support auto-scaling dimensions (set to -1).
func ReshapeOp(operand shapes.Shape, dims []int) (output shapes.Shape, err error) {
	for _, dim := range dims {
		if dim < 0 {
			return shapes.Invalid(), errors.Errorf("Reshape() cannot reshape %s to dimensions %v, dimensions must be non-negative",
				operand, dims)
		}
	}
	output = shapes.Make(operand.DType, dims...)
	if operand.Size() != output.Size() {
		err = errors.Errorf("Reshape() cannot reshape %s to dimensions %v, their size don't match",
			operand, dims)
		return shapes.Invalid(), err
	}
	return
}

// TransposeOp all axes of the operand.
// There must be one value in permutations for each axis in the operand.
// The output will have: output.Shape.Dimension[ii] = operand.Shape.Dimension[permutations[i]].
func TransposeOp(operand shapes.Shape, permutations []int) (output shapes.Shape, err error) {
	rank := operand.Rank()
	if len(permutations) != rank {
		err = errors.Errorf("Transpose() requires all axes permutations to be defined, operand has shape %s, but %d permutations were given",
			operand, len(permutations))
		return
	}
	if rank == 0 {
		return operand, nil
	}

	// Check permutation axes are within range and unique.
	axesSet := slices.Clone(permutations)
	slices.Sort(axesSet)
	for ii, srcAxis := range axesSet {
		if srcAxis < 0 || srcAxis >= rank {
			err = errors.Errorf("invalid permutation axis %d given to Transpose(%s), it must be within the range of its rank",
				srcAxis, operand)
			return
		}
		if ii > 0 && srcAxis == axesSet[ii-1] {
			err = errors.Errorf("invalid permutations given to Transpose(%s, %v), there cannot be any repeated axis, each must appear exactly once",
				operand, permutations)
			return
		}
	}

	output = operand.Clone()
	for axis := range output.Dimensions {
		output.Dimensions[axis] = operand.Dimensions[permutations[axis]]
	}
	return
}

// BroadcastToOp checks that the operand can be broadcast to the given dimensions: axes are aligned from
// the trailing one, and each operand dimension must be 1 or equal to the target.
func BroadcastToOp(operand shapes.Shape, dims []int) (output shapes.Shape, err error) {
	if !operand.Ok() {
		err = errors.Errorf("invalid shape %s for BroadcastToOp", operand)
		return
	}
	if len(dims) < operand.Rank() {
		err = errors.Errorf("cannot broadcast %s to dimensions %v with a smaller rank", operand, dims)
		return
	}
	offset := len(dims) - operand.Rank()
	for axis, dim := range operand.Dimensions {
		if dim != 1 && dim != dims[axis+offset] {
			err = errors.Errorf("cannot broadcast %s to dimensions %v: axis %d has dimension %d", operand, dims, axis, dim)
			return
		}
	}
	return shapes.Make(operand.DType, dims...), nil
}

// ConcatenateOp calculates the output shape of a Concatenate operation.
// It takes a slice of input shapes and the dimension along which to concatenate.
func ConcatenateOp(inputs []shapes.Shape, axis int) (output shapes.Shape, err error) {
	if len(inputs) == 0 {
		return shapes.Invalid(), errors.Errorf("ConcatenateOp requires at least one input shape")
	}
	firstShape := inputs[0]
	dtype := firstShape.DType
	rank := firstShape.Rank()
	output = firstShape.Clone()
	if dtype == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("invalid shape %s for first input of ConcatenateOp", firstShape)
	}
	if axis < 0 || axis >= rank {
		return shapes.Invalid(), errors.Errorf("invalid concatenation axis %d for shapes with rank %d", axis, rank)
	}
	for i := 1; i < len(inputs); i++ {
		currentShape := inputs[i]
		if currentShape.DType != dtype {
			return shapes.Invalid(), errors.Errorf("mismatched DTypes for ConcatenateOp: input #0 has %s, input #%d has %s",
				dtype, i, currentShape.DType)
		}
		if currentShape.Rank() != rank {
			return shapes.Invalid(), errors.Errorf("mismatched ranks for ConcatenateOp: input #0 has rank %d, input #%d has rank %d",
				rank, i, currentShape.Rank())
		}
		for d := 0; d < rank; d++ {
			if d == axis {
				output.Dimensions[d] += currentShape.Dimensions[d]
			} else if currentShape.Dimensions[d] != output.Dimensions[d] {
				return shapes.Invalid(), errors.Errorf("mismatched dimensions for ConcatenateOp at axis %d (non-concatenation axis): input #0 has %d, input #%d has %d",
					d, output.Dimensions[d], i, currentShape.Dimensions[d])
			}
		}
	}
	return output, nil
}

// PadOp returns the shape of the operand padded by paddings, which must have one non-negative pair per axis.
func PadOp(operand shapes.Shape, paddings [][2]int) (output shapes.Shape, err error) {
	if len(paddings) != operand.Rank() {
		return shapes.Invalid(), errors.Errorf("PadOp: len(paddings)=%d, but operand %s has rank %d",
			len(paddings), operand, operand.Rank())
	}
	output = operand.Clone()
	for axis, pad := range paddings {
		if pad[0] < 0 || pad[1] < 0 {
			return shapes.Invalid(), errors.Errorf("PadOp: paddings[%d]=%v must be non-negative", axis, pad)
		}
		output.Dimensions[axis] += pad[0] + pad[1]
	}
	return output, nil
}

// SliceOp calculates the output shape for a Slice operation.
// It checks that starts, limits, and strides have the correct length (matching operand rank),
// and that the slice parameters are valid for the operand's dimensions.
// Strides must be positive, and empty slices (start == limit) are allowed.
func SliceOp(operand shapes.Shape, starts, limits, strides []int) (output shapes.Shape, err error) {
	rank := operand.Rank()
	opName := "SliceOp"
	if !operand.Ok() {
		return shapes.Invalid(), errors.Errorf("%s: invalid operand shape %s", opName, operand)
	}
	if len(starts) != rank || len(limits) != rank || len(strides) != rank {
		return shapes.Invalid(), errors.Errorf("%s: len(starts)=%d, len(limits)=%d, len(strides)=%d, but operand rank is %d",
			opName, len(starts), len(limits), len(strides), rank)
	}
	output = shapes.Shape{DType: operand.DType, Dimensions: make([]int, rank)}
	for axis := 0; axis < rank; axis++ {
		start, limit, stride := starts[axis], limits[axis], strides[axis]
		dimSize := operand.Dimensions[axis]
		if stride <= 0 {
			return shapes.Invalid(), errors.Errorf("%s: stride must be positive, but got stride[%d]=%d for operand shape %s",
				opName, axis, stride, operand)
		}
		if start < 0 || start > dimSize {
			return shapes.Invalid(), errors.Errorf("%s: start index %d is out of bounds for axis %d with size %d (operand shape %s)",
				opName, start, axis, dimSize, operand)
		}
		if limit < start || limit > dimSize {
			return shapes.Invalid(), errors.Errorf("%s: limit index %d is out of bounds for axis %d (start=%d, size=%d, operand shape %s)",
				opName, limit, axis, start, dimSize, operand)
		}
		// The first one is always taken, so we use the ceiling of the division.
		output.Dimensions[axis] = (limit - start + (stride - 1)) / stride
	}
	return output, nil
}

// ReverseOp checks the axes to reverse are valid and unique. The output shape is the operand's.
func ReverseOp(operand shapes.Shape, axes []int) (output shapes.Shape, err error) {
	seen := sets.Make[int](len(axes))
	for _, axis := range axes {
		if axis < 0 || axis >= operand.Rank() {
			return shapes.Invalid(), errors.Errorf("ReverseOp: axis %d out of range for operand %s", axis, operand)
		}
		if seen.Has(axis) {
			return shapes.Invalid(), errors.Errorf("ReverseOp: axis %d given more than once", axis)
		}
		seen.Insert(axis)
	}
	return operand, nil
}

// GatherAlongAxisOp validates the operand and indices of a GatherAlongAxis. The output shape has the dimensions
// of the indices and the dtype of the operand.
func GatherAlongAxisOp(operand, indices shapes.Shape, axis int) (output shapes.Shape, err error) {
	if !indices.DType.IsInt() {
		return shapes.Invalid(), errors.Errorf("GatherAlongAxisOp: indices must be integers, got %s", indices)
	}
	if operand.Rank() != indices.Rank() {
		return shapes.Invalid(), errors.Errorf("GatherAlongAxisOp: operand %s and indices %s must have the same rank",
			operand, indices)
	}
	if axis < 0 || axis >= operand.Rank() {
		return shapes.Invalid(), errors.Errorf("GatherAlongAxisOp: axis %d out of range for operand %s", axis, operand)
	}
	for ii, dim := range operand.Dimensions {
		if ii != axis && dim != indices.Dimensions[ii] {
			return shapes.Invalid(), errors.Errorf("GatherAlongAxisOp: operand %s and indices %s must have the same dimensions on axis %d",
				operand, indices, ii)
		}
	}
	if indices.Dimensions[axis] > 0 && operand.Dimensions[axis] == 0 {
		return shapes.Invalid(), errors.Errorf("GatherAlongAxisOp: cannot gather from empty axis %d of operand %s", axis, operand)
	}
	return shapes.Make(operand.DType, indices.Dimensions...), nil
}

// ArgMinMaxOp calculates the output shape for an ArgMinMax operation.
// It will be the shape of the operand minus the "reduce" axis.
func ArgMinMaxOp(operand shapes.Shape, axis int, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if !outputDType.IsInt() {
		err = errors.Errorf("ArgMinMax outputDType must be an integer type, got %s", outputDType)
		return
	}
	if !operand.DType.IsFloat() && !operand.DType.IsInt() && operand.DType != dtypes.Bool {
		err = errors.Errorf("ArgMinMax operand DType must be a floating point, integer or boolean type, got %s", operand)
		return
	}
	if operand.IsScalar() {
		err = errors.Errorf("ArgMinMax requires a non-scalar operand, got %s", operand)
		return
	}
	if axis < 0 || axis >= operand.Rank() {
		err = errors.Errorf("ArgMinMax axis %d is out of range for operand %s", axis, operand)
		return
	}
	if operand.Dimensions[axis] == 0 {
		err = errors.Errorf("ArgMinMax of an empty axis %d of operand %s", axis, operand)
		return
	}
	newDims := slices.Clone(operand.Dimensions)
	newDims = slices.Delete(newDims, axis, axis+1)
	output = shapes.Make(outputDType, newDims...)
	return
}

// ArgSortOp calculates the output shape for an ArgSort operation: the operand's dimensions with Int64 dtype.
func ArgSortOp(operand shapes.Shape, axis int) (output shapes.Shape, err error) {
	if operand.DType.IsComplex() || !operand.Ok() {
		err = errors.Errorf("ArgSort requires an ordered dtype, got %s", operand)
		return
	}
	if axis < 0 || axis >= operand.Rank() {
		err = errors.Errorf("ArgSort axis %d is out of range for operand %s", axis, operand)
		return
	}
	return operand.WithDType(dtypes.Int64), nil
}

// FFTOp returns the output shape of an FFT of the given type along axis with the given length.
func FFTOp(operand shapes.Shape, fftType backends.FFTType, axis, length int) (output shapes.Shape, err error) {
	if axis < 0 || axis >= operand.Rank() {
		return shapes.Invalid(), errors.Errorf("FFTOp: axis %d out of range for operand %s", axis, operand)
	}
	if length < 1 {
		return shapes.Invalid(), errors.Errorf("FFTOp: length must be >= 1, got %d", length)
	}
	output = operand.Clone()
	switch fftType {
	case backends.FFTForward, backends.FFTInverse:
		if !operand.DType.IsComplex() {
			return shapes.Invalid(), errors.Errorf("FFTOp(%s): operand must be complex, got %s", fftType, operand)
		}
		output.Dimensions[axis] = length
	case backends.FFTForwardReal:
		if !operand.DType.IsFloat() {
			return shapes.Invalid(), errors.Errorf("FFTOp(%s): operand must be a float, got %s", fftType, operand)
		}
		output.DType = operand.DType.ComplexDType()
		output.Dimensions[axis] = length/2 + 1
	case backends.FFTInverseReal:
		if !operand.DType.IsComplex() {
			return shapes.Invalid(), errors.Errorf("FFTOp(%s): operand must be complex, got %s", fftType, operand)
		}
		output.DType = operand.DType.RealDType()
		output.Dimensions[axis] = length
	default:
		return shapes.Invalid(), errors.Errorf("FFTOp: invalid FFT type %d", fftType)
	}
	return output, nil
}

// ReduceWindowOp returns the expected output shape for the operation, and the normalized strides and window
// dilations (filled with defaults if not given).
func ReduceWindowOp(operand shapes.Shape, config backends.ReduceWindowConfig) (output shapes.Shape, strides, dilations []int, err error) {
	if !operand.Ok() {
		err = errors.Errorf("ReduceWindowOp: invalid operand shape %s", operand)
		return
	}
	rank := operand.Rank()
	if config.Reduction == backends.ReduceOpUndefined {
		err = errors.Errorf("ReduceWindowOp: undefined reduction type")
		return
	}
	if operand.DType == dtypes.Bool || (operand.DType.IsComplex() && config.Reduction != backends.ReduceOpSum &&
		config.Reduction != backends.ReduceOpMean) {
		err = errors.Errorf("ReduceWindowOp: reduction %s not supported for %s", config.Reduction, operand)
		return
	}
	if len(config.WindowDimensions) != rank {
		err = errors.Errorf("ReduceWindowOp: len(windowDimensions)=%d, but operand rank is %d", len(config.WindowDimensions), rank)
		return
	}
	strides = config.Strides
	if strides == nil {
		strides = config.WindowDimensions
	} else if len(strides) != rank {
		err = errors.Errorf("ReduceWindowOp: len(strides)=%d, but operand rank is %d", len(strides), rank)
		return
	}
	dilations = config.WindowDilations
	if dilations == nil {
		dilations = slices.Repeat([]int{1}, rank)
	} else if len(dilations) != rank {
		err = errors.Errorf("ReduceWindowOp: len(windowDilations)=%d, but operand rank is %d", len(dilations), rank)
		return
	}
	if config.OutputDimensions != nil && len(config.OutputDimensions) != rank {
		err = errors.Errorf("ReduceWindowOp: len(outputDimensions)=%d, but operand rank is %d", len(config.OutputDimensions), rank)
		return
	}

	// Each output dimension is calculated orthogonally to the others.
	outputDims := make([]int, rank)
	for i := 0; i < rank; i++ {
		inputDim := operand.Dimensions[i]
		windowDim, stride, dilation := config.WindowDimensions[i], strides[i], dilations[i]
		if windowDim < 1 || stride < 1 || dilation < 1 {
			err = errors.Errorf("ReduceWindowOp: window (%d), stride (%d) and dilation (%d) of axis %d must be >= 1 for operand shape %s",
				windowDim, stride, dilation, i, operand)
			return
		}
		effectiveWindowDim := (windowDim-1)*dilation + 1
		if config.OutputDimensions != nil {
			outputDims[i] = config.OutputDimensions[i]
			if outputDims[i] < 1 || (outputDims[i]-1)*stride >= inputDim {
				err = errors.Errorf("ReduceWindowOp: output dimension %d for axis %d would have windows starting past the end of the operand %s",
					outputDims[i], i, operand)
				return
			}
			continue
		}
		if effectiveWindowDim > inputDim {
			err = errors.Errorf(
				"ReduceWindowOp: effective window dimension %d for axis %d is larger than the input dimension %d (window: %d, dilation: %d) for operand shape %s",
				effectiveWindowDim, i, inputDim, windowDim, dilation, operand)
			return
		}
		outputDims[i] = (inputDim-effectiveWindowDim)/stride + 1
	}
	output = shapes.Make(operand.DType, outputDims...)
	return
}
