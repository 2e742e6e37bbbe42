// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
)

// ReduceOpType selects among the basic types of reduction supported by ReduceWindow.
type ReduceOpType int

const (
	// ReduceOpUndefined is an undefined value.
	ReduceOpUndefined ReduceOpType = iota

	// ReduceOpSum reduces by summing all elements being reduced.
	ReduceOpSum

	// ReduceOpMean reduces by averaging the elements being reduced. The divisor is the number of
	// elements of the window that fall inside the operand.
	ReduceOpMean

	// ReduceOpMax reduces by taking the maximum value.
	ReduceOpMax

	// ReduceOpMin reduces by taking the minimum value.
	ReduceOpMin
)

var reduceOpNames = map[ReduceOpType]string{
	ReduceOpUndefined: "Undefined",
	ReduceOpSum:       "Sum",
	ReduceOpMean:      "Mean",
	ReduceOpMax:       "Max",
	ReduceOpMin:       "Min",
}

// String implements fmt.Stringer.
func (r ReduceOpType) String() string {
	if name, found := reduceOpNames[r]; found {
		return name
	}
	return "ReduceOpType(?)"
}

// ReduceWindowConfig holds the parameters of the ReduceWindow primitive. All slices have one entry per axis of
// the operand.
type ReduceWindowConfig struct {
	Reduction ReduceOpType

	// WindowDimensions of the window, each >= 1.
	WindowDimensions []int

	// Strides between windows. If nil, they default to the WindowDimensions.
	Strides []int

	// WindowDilations, if not nil, inserts (dilation-1) holes between window elements.
	WindowDilations []int

	// OutputDimensions, if not nil, sets the number of windows per axis, instead of the default
	// floor((dim - effectiveWindow) / stride) + 1. Windows that extend past the end of the operand only reduce
	// the elements inside it -- this is how "ceil mode" pooling is expressed.
	OutputDimensions []int
}

// FFTType selects among the basic types of FFT supported.
type FFTType int

const (
	// FFTForward - complex-to-complex FFT.
	FFTForward FFTType = iota

	// FFTInverse - complex-to-complex inverse FFT, scaled by 1/n.
	FFTInverse

	// FFTForwardReal - real-to-complex FFT: the output holds the n/2+1 non-redundant coefficients.
	FFTForwardReal

	// FFTInverseReal - complex-to-real inverse FFT, scaled by 1/n: it takes the n/2+1 non-redundant coefficients
	// and returns n real values.
	FFTInverseReal
)

var fftTypeNames = map[FFTType]string{
	FFTForward:     "FFTForward",
	FFTInverse:     "FFTInverse",
	FFTForwardReal: "FFTForwardReal",
	FFTInverseReal: "FFTInverseReal",
}

// String implements fmt.Stringer.
func (f FFTType) String() string {
	if name, found := fftTypeNames[f]; found {
		return name
	}
	return "FFTType(?)"
}

// Primitives lists the eager numeric operations of a backend.
//
// Tensors passed as arguments are never modified, and every result is a new tensor.
// Each primitive not supported by a backend returns an error wrapping ErrNotImplemented.
type Primitives interface {
	// ConvertDType casts the operand to dtype. Float to integer conversions truncate towards zero, and
	// conversions to Bool map non-zero values to true.
	ConvertDType(operand *tensors.Tensor, dtype dtypes.DType) (*tensors.Tensor, error)

	// Full returns a tensor of the given shape filled with value, converted to shape.DType.
	// value must be a Go bool, integer, float or complex number.
	Full(shape shapes.Shape, value any) (*tensors.Tensor, error)

	// Concatenate operands along the given axis. All operands must have the same dtype and rank, and the same
	// dimensions on every other axis.
	Concatenate(axis int, operands ...*tensors.Tensor) (*tensors.Tensor, error)

	// Pad the operand with fillValue, paddings[axis] = {before, after} elements per axis, each >= 0.
	Pad(operand *tensors.Tensor, fillValue any, paddings [][2]int) (*tensors.Tensor, error)

	// ReduceWindow runs a windowed reduction over the operand, see ReduceWindowConfig.
	ReduceWindow(operand *tensors.Tensor, config ReduceWindowConfig) (*tensors.Tensor, error)

	// FFT runs a fast Fourier transform of the given type along one axis, with the given length: the axis
	// is truncated or zero-padded to length before the transform (for FFTInverseReal, to length/2+1).
	FFT(operand *tensors.Tensor, fftType FFTType, axis, length int) (*tensors.Tensor, error)

	// GatherAlongAxis returns output[..., i, ...] = operand[..., indices[..., i, ...], ...] along axis.
	// indices must be an integer tensor of the same rank as the operand, with the same dimensions on every
	// other axis, and every index must be within [0, operand.Dim(axis)).
	GatherAlongAxis(operand, indices *tensors.Tensor, axis int) (*tensors.Tensor, error)

	// Transpose axes: output.Dim(i) = operand.Dim(permutation[i]).
	Transpose(operand *tensors.Tensor, permutation ...int) (*tensors.Tensor, error)

	// Reshape the operand to the given dimensions, which must have the same size.
	Reshape(operand *tensors.Tensor, dimensions ...int) (*tensors.Tensor, error)

	// BroadcastTo broadcasts the operand to the given dimensions, aligning axes from the trailing one.
	BroadcastTo(operand *tensors.Tensor, dimensions ...int) (*tensors.Tensor, error)

	// Slice takes elements in [starts[axis], limits[axis]) with strides[axis] along each axis.
	Slice(operand *tensors.Tensor, starts, limits, strides []int) (*tensors.Tensor, error)

	// Reverse the order of the elements along the given axes.
	Reverse(operand *tensors.Tensor, axes ...int) (*tensors.Tensor, error)

	// Where selects onTrue where condition is true, onFalse otherwise. The three operands are broadcast
	// together, and onTrue and onFalse must have the same dtype.
	Where(condition, onTrue, onFalse *tensors.Tensor) (*tensors.Tensor, error)

	// Unary runs the element-wise unary operation op (e.g. OpTypeSqrt).
	Unary(op OpType, operand *tensors.Tensor) (*tensors.Tensor, error)

	// Binary runs the element-wise binary operation op (e.g. OpTypeAdd, or a comparison such as OpTypeLessThan)
	// with broadcasting. Operands must have the same dtype. Comparisons return Bool tensors.
	Binary(op OpType, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error)

	// Real part of a complex operand. For float operands it's a no-op.
	Real(operand *tensors.Tensor) (*tensors.Tensor, error)

	// Imag part of a complex operand. For float operands it returns zeros.
	Imag(operand *tensors.Tensor) (*tensors.Tensor, error)

	// Complex combines real and imaginary float parts (of the same shape and dtype) into a complex tensor.
	Complex(real, imag *tensors.Tensor) (*tensors.Tensor, error)

	// ArgMinMax returns the index of the smallest (isMin) or largest value along axis, which is removed
	// from the output shape. Ties are resolved to the lowest index, NaN values are ignored unless all values
	// are NaN.
	ArgMinMax(operand *tensors.Tensor, axis int, outputDType dtypes.DType, isMin bool) (*tensors.Tensor, error)

	// ArgSort returns the Int64 indices that sort the operand along axis, in a stable way.
	// NaN values are sorted last in ascending order (first in descending order).
	ArgSort(operand *tensors.Tensor, axis int, descending bool) (*tensors.Tensor, error)
}
