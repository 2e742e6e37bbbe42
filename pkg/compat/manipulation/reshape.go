// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package manipulation

import (
	"cmp"
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/pkg/errors"
)

// Flatten merges the axes from startAxis to endAxis (both inclusive, negative values count from the end)
// into one. A scalar is flattened to shape [1].
func Flatten(b backends.Backend, x *tensors.Tensor, startAxis, endAxis int) (*tensors.Tensor, error) {
	if x.Rank() == 0 {
		return b.Reshape(x, 1)
	}
	rank := x.Rank()
	start, err := normalize.Axis(startAxis, rank)
	if err != nil {
		return nil, err
	}
	end, err := normalize.Axis(endAxis, rank)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "flatten start axis %d is after end axis %d", startAxis, endAxis)
	}
	dims := x.Shape().Dimensions
	flattened := slices.Clone(dims[:start])
	flattened = append(flattened, xslices.Product(dims[start:end+1]))
	flattened = append(flattened, dims[end+1:]...)
	return b.Reshape(x, flattened...)
}

// MoveAxis moves the axes in source to the positions in destination; the other axes keep their relative
// order.
func MoveAxis(b backends.Backend, x *tensors.Tensor, source, destination []int) (*tensors.Tensor, error) {
	if err := capability.For(b).Check(b, "moveaxis", x.DType()); err != nil {
		return nil, err
	}
	if len(source) != len(destination) {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "moveaxis source %v and destination %v must have the same number of elements",
			source, destination)
	}
	rank := x.Rank()
	src, err := normalize.Axes(source, rank)
	if err != nil {
		return nil, err
	}
	dst, err := normalize.Axes(destination, rank)
	if err != nil {
		return nil, err
	}
	permutation := make([]int, 0, rank)
	for axis := range rank {
		if !slices.Contains(src, axis) {
			permutation = append(permutation, axis)
		}
	}
	type move struct{ src, dst int }
	moves := make([]move, len(src))
	for ii := range src {
		moves[ii] = move{src[ii], dst[ii]}
	}
	slices.SortFunc(moves, func(a, b move) int { return cmp.Compare(a.dst, b.dst) })
	for _, m := range moves {
		permutation = slices.Insert(permutation, m.dst, m.src)
	}
	return b.Transpose(x, permutation...)
}

// FlipLR reverses the order of the columns (second axis) of x, which must have at least 2 axes.
func FlipLR(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) {
	if err := capability.For(b).Check(b, "fliplr", x.DType()); err != nil {
		return nil, err
	}
	if x.Rank() < 2 {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "fliplr requires an array with at least 2 axes, got %s", x.Shape())
	}
	return b.Reverse(x, 1)
}

// FlipUD reverses the order of the rows (first axis) of x, which must have at least 1 axis.
func FlipUD(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) {
	if err := capability.For(b).Check(b, "flipud", x.DType()); err != nil {
		return nil, err
	}
	if x.Rank() < 1 {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "flipud requires an array with at least 1 axis, got %s", x.Shape())
	}
	return b.Reverse(x, 0)
}

// TopK returns the k largest (or smallest, if largest is false) values of x along axis, sorted, and their
// Int64 indices. Ties keep the order of the input.
func TopK(b backends.Backend, x *tensors.Tensor, k, axis int, largest bool) (values, indices *tensors.Tensor, err error) {
	if err = capability.For(b).Check(b, "top_k", x.DType()); err != nil {
		return
	}
	if x.Rank() == 0 {
		err = errors.Wrapf(compat.ErrInvalidArgument, "top_k requires an array with at least 1 axis, got %s", x.Shape())
		return
	}
	if axis, err = normalize.Axis(axis, x.Rank()); err != nil {
		return
	}
	dim := x.Shape().Dim(axis)
	if k < 0 || k > dim {
		err = errors.Wrapf(compat.ErrInvalidArgument, "top_k k=%d out of range for axis %d of %s", k, axis, x.Shape())
		return
	}
	order, err := b.ArgSort(x, axis, largest)
	if err != nil {
		return
	}
	starts := make([]int, x.Rank())
	limits := slices.Clone(order.Shape().Dimensions)
	limits[axis] = k
	if indices, err = b.Slice(order, starts, limits, xslices.SliceWithValue(x.Rank(), 1)); err != nil {
		return
	}
	values, err = b.GatherAlongAxis(x, indices, axis)
	return
}

// Heaviside returns the step function of x1: 0 where x1 < 0, 1 where x1 > 0, and x2 where x1 == 0.
// NaN values of x1 are kept. x1 and x2 must have the same integer or float dtype, and broadcast together.
func Heaviside(b backends.Backend, x1, x2 *tensors.Tensor) (*tensors.Tensor, error) {
	dtype := x1.DType()
	if err := capability.For(b).Check(b, "heaviside", dtype, x2.DType()); err != nil {
		return nil, err
	}
	if x2.DType() != dtype {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "heaviside requires operands of the same dtype, got %s and %s", dtype, x2.DType())
	}
	if !dtype.IsInt() && !dtype.IsFloat() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "heaviside requires an integer or float dtype, got %s", dtype)
	}
	zero, err := scalar(b, dtype, 0)
	if err != nil {
		return nil, err
	}
	one, err := scalar(b, dtype, 1)
	if err != nil {
		return nil, err
	}
	isNegative, err := b.Binary(backends.OpTypeLessThan, x1, zero)
	if err != nil {
		return nil, err
	}
	isPositive, err := b.Binary(backends.OpTypeGreaterThan, x1, zero)
	if err != nil {
		return nil, err
	}
	result, err := b.Where(isPositive, one, x2)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "heaviside of %s and %s: %v", x1.Shape(), x2.Shape(), err)
	}
	if result, err = b.Where(isNegative, zero, result); err != nil {
		return nil, err
	}
	if dtype.IsFloat() {
		isNaN, err := b.Unary(backends.OpTypeIsNaN, x1)
		if err != nil {
			return nil, err
		}
		return b.Where(isNaN, x1, result)
	}
	return result, nil
}
