// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pooling

import (
	"fmt"
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/pkg/errors"
)

// AdaptiveAvgPool averages x, shaped channels first ([batch, channels, <spatial_dimensions...>] or, without
// batch, [channels, <spatial_dimensions...>]), into the given output size for each spatial axis.
//
// Output position i of a spatial axis of size n averages the input range [floor(i*n/out), ceil((i+1)*n/out)).
func AdaptiveAvgPool(b backends.Backend, x *tensors.Tensor, outputSize ...int) (*tensors.Tensor, error) {
	numSpatialDims := len(outputSize)
	rank := x.Rank()
	if numSpatialDims < 1 || (rank != numSpatialDims+1 && rank != numSpatialDims+2) {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "adaptive pooling to %v requires an input of rank %d or %d, got %s",
			outputSize, numSpatialDims+1, numSpatialDims+2, x.Shape())
	}
	opName := fmt.Sprintf("adaptive_avg_pool%dd", numSpatialDims)
	if err := capability.For(b).Check(b, opName, x.DType()); err != nil {
		return nil, err
	}
	if !x.DType().IsFloat() {
		return nil, errors.Wrapf(compat.ErrUnsupportedConfiguration, "%s requires a float dtype, got %s", opName, x.DType())
	}
	firstSpatial := rank - numSpatialDims
	for ii, size := range outputSize {
		if size < 1 || size > x.Shape().Dim(firstSpatial+ii) {
			return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "%s: output size %v is invalid for input %s",
				opName, outputSize, x.Shape())
		}
	}

	result := x
	for ii, size := range outputSize {
		var err error
		if result, err = adaptiveAxis(b, result, firstSpatial+ii, size); err != nil {
			return nil, errors.WithMessagef(err, "%s of %s", opName, x.Shape())
		}
	}
	return result, nil
}

// adaptiveAxis averages one axis into size positions. Averaging a box is separable, so axes are
// handled one at a time.
func adaptiveAxis(b backends.Backend, x *tensors.Tensor, axis, size int) (*tensors.Tensor, error) {
	dims := x.Shape().Dimensions
	n := dims[axis]
	if n == size {
		return x, nil
	}
	rank := len(dims)
	parts := make([]*tensors.Tensor, 0, size)
	for i := range size {
		start := i * n / size
		end := ((i+1)*n + size - 1) / size
		starts := make([]int, rank)
		starts[axis] = start
		limits := slices.Clone(dims)
		limits[axis] = end
		part, err := b.Slice(x, starts, limits, xslices.SliceWithValue(rank, 1))
		if err != nil {
			return nil, err
		}
		window := xslices.SliceWithValue(rank, 1)
		window[axis] = end - start
		part, err = b.ReduceWindow(part, backends.ReduceWindowConfig{
			Reduction:        backends.ReduceOpMean,
			WindowDimensions: window,
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return b.Concatenate(axis, parts...)
}
