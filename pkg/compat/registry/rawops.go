// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

// tanh returns 1 - 2/(exp(2x)+1), which saturates to ±1 instead of overflowing for large |x|.
func tanh(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, err := kwargs.Tensor("x")
	if err != nil {
		return nil, err
	}
	dtype := x.DType()
	if !dtype.IsFloat() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "Tanh requires a float dtype, got %s", dtype)
	}
	one, err := b.Full(shapes.Make(dtype), 1.0)
	if err != nil {
		return nil, err
	}
	two, err := b.Full(shapes.Make(dtype), 2.0)
	if err != nil {
		return nil, err
	}
	e, err := b.Binary(backends.OpTypeMul, x, two)
	if err == nil {
		e, err = b.Unary(backends.OpTypeExp, e)
	}
	if err == nil {
		e, err = b.Binary(backends.OpTypeAdd, e, one)
	}
	if err == nil {
		e, err = b.Binary(backends.OpTypeDiv, two, e)
	}
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeSub, one, e)
}

// complexPart takes "input". Real inputs pass through Real and Conj unchanged.
func complexPart(part func(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error)) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		input, err := kwargs.Tensor("input")
		if err != nil {
			return nil, err
		}
		if !input.DType().IsFloat() && !input.DType().IsComplex() {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "expected a float or complex dtype, got %s", input.DType())
		}
		return part(b, input)
	}
}

// realOp takes "input" and the optional "Tout", the dtype of the result (by default the real dtype matching
// input).
func realOp(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	result, err := complexPart(func(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) {
		return b.Real(x)
	})(b, kwargs)
	if err != nil {
		return nil, err
	}
	tout, err := kwargs.DType("Tout", result.DType())
	if err != nil {
		return nil, err
	}
	if tout == result.DType() {
		return result, nil
	}
	if !tout.IsFloat() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "Tout must be a float dtype, got %s", tout)
	}
	return b.ConvertDType(result, tout)
}

func imagPart(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) { return b.Imag(x) }

func conjugate(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) {
	if !x.DType().IsComplex() {
		return x, nil
	}
	return b.Unary(backends.OpTypeConj, x)
}

// filledLike takes "x", and returns a tensor of the same shape filled with value.
func filledLike(value int) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		x, err := kwargs.Tensor("x")
		if err != nil {
			return nil, err
		}
		return b.Full(x.Shape(), value)
	}
}

// reverse takes "tensor" and "axis", the list of axes to reverse.
func reverse(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	tensor, err := kwargs.Tensor("tensor")
	if err != nil {
		return nil, err
	}
	axes, err := kwargs.Ints("axis")
	if err != nil {
		return nil, err
	}
	if axes, err = normalize.Axes(axes, tensor.Rank()); err != nil {
		return nil, err
	}
	return b.Reverse(tensor, axes...)
}

// reverseMask takes "tensor" and "dims", one boolean per axis telling whether to reverse it.
func reverseMask(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	tensor, err := kwargs.Tensor("tensor")
	if err != nil {
		return nil, err
	}
	var mask []bool
	switch v := kwargs["dims"].(type) {
	case []bool:
		mask = v
	case *tensors.Tensor:
		if v.DType() == dtypes.Bool && v.Rank() == 1 {
			mask = tensors.Flat[bool](v)
		}
	}
	if mask == nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument \"dims\" must be a list of booleans, got %T", kwargs["dims"])
	}
	if len(mask) != tensor.Rank() {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "reverse of %s needs %d dims, got %v", tensor.Shape(), tensor.Rank(), mask)
	}
	var axes []int
	for axis, reversed := range mask {
		if reversed {
			axes = append(axes, axis)
		}
	}
	if len(axes) == 0 {
		return tensor, nil
	}
	return b.Reverse(tensor, axes...)
}

// slice takes "input", "begin" and "size", one per axis. A size of -1 takes everything from begin to the
// end of the axis.
func slice(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	input, err := kwargs.Tensor("input")
	if err != nil {
		return nil, err
	}
	begin, err := kwargs.Ints("begin")
	if err != nil {
		return nil, err
	}
	size, err := kwargs.Ints("size")
	if err != nil {
		return nil, err
	}
	rank := input.Rank()
	if len(begin) != rank || len(size) != rank {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "slice of %s needs %d begin and size values, got %v and %v",
			input.Shape(), rank, begin, size)
	}
	limits := make([]int, rank)
	strides := make([]int, rank)
	for axis, dim := range input.Shape().Dimensions {
		strides[axis] = 1
		limits[axis] = begin[axis] + size[axis]
		if size[axis] == -1 {
			limits[axis] = dim
		}
		if begin[axis] < 0 || limits[axis] < begin[axis] || limits[axis] > dim {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "slice begin=%v size=%v out of bounds for %s",
				begin, size, input.Shape())
		}
	}
	return b.Slice(input, begin, limits, strides)
}

// pad takes "input", "paddings" (a [rank, 2] list of pairs) and the optional "constant_values" (default 0).
func pad(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	input, err := kwargs.Tensor("input")
	if err != nil {
		return nil, err
	}
	paddings, err := kwargs.Pairs("paddings")
	if err != nil {
		return nil, err
	}
	if len(paddings) != input.Rank() {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "pad of %s needs %d pairs of paddings, got %v",
			input.Shape(), input.Rank(), paddings)
	}
	for _, pair := range paddings {
		if pair[0] < 0 || pair[1] < 0 {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "negative paddings %v", paddings)
		}
	}
	var fill any = 0
	switch v := kwargs["constant_values"].(type) {
	case nil:
	case *tensors.Tensor:
		if !v.IsScalar() {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "constant_values must be a scalar, got %s", v.Shape())
		}
		fill = v.Value()
	case int, float64, bool:
		fill = v
	default:
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "constant_values must be a scalar, got %T", v)
	}
	return b.Pad(input, fill, paddings)
}

// squeeze takes "input" and the optional "axis": the axes of dimension 1 to remove, by default all of them.
func squeeze(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	input, err := kwargs.Tensor("input")
	if err != nil {
		return nil, err
	}
	dims := input.Shape().Dimensions
	remove := make([]bool, len(dims))
	if _, found := kwargs["axis"]; found {
		axes, err := kwargs.Ints("axis")
		if err != nil {
			return nil, err
		}
		if axes, err = normalize.Axes(axes, len(dims)); err != nil {
			return nil, err
		}
		for _, axis := range axes {
			if dims[axis] != 1 {
				return nil, errors.Wrapf(compat.ErrInvalidArgument, "cannot squeeze axis %d of %s, its dimension is not 1",
					axis, input.Shape())
			}
			remove[axis] = true
		}
	} else {
		for axis, dim := range dims {
			remove[axis] = dim == 1
		}
	}
	squeezed := make([]int, 0, len(dims))
	for axis, dim := range dims {
		if !remove[axis] {
			squeezed = append(squeezed, dim)
		}
	}
	return b.Reshape(input, squeezed...)
}
