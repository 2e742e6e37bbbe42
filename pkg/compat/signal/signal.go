// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package signal implements the discrete cosine transforms (types I to IV) and the complex FFT kernels,
// with the parameter validation and normalization modes of the array frameworks.
//
// The transforms are built on the FFT primitives of the backend.
package signal

import (
	"math"
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
)

// Normalization modes.
const (
	// NormBackward doesn't scale the forward transforms, and scales the inverse ones by 1/n. It's the default.
	NormBackward = "backward"

	// NormOrtho scales both the forward and inverse transforms by 1/sqrt(n), making them unitary.
	NormOrtho = "ortho"

	// NormForward scales the forward transforms by 1/n, and doesn't scale the inverse ones.
	NormForward = "forward"
)

// sliceAxis slices x along axis only.
func sliceAxis(b backends.Backend, x *tensors.Tensor, axis, start, limit, stride int) (*tensors.Tensor, error) {
	dims := x.Shape().Dimensions
	starts := make([]int, len(dims))
	starts[axis] = start
	limits := slices.Clone(dims)
	limits[axis] = limit
	strides := xslices.SliceWithValue(len(dims), 1)
	strides[axis] = stride
	return b.Slice(x, starts, limits, strides)
}

// resizeAxis truncates or zero-pads x along axis to length n.
func resizeAxis(b backends.Backend, x *tensors.Tensor, axis, n int) (*tensors.Tensor, error) {
	dim := x.Shape().Dim(axis)
	switch {
	case n < dim:
		return sliceAxis(b, x, axis, 0, n, 1)
	case n > dim:
		paddings := make([][2]int, x.Rank())
		paddings[axis][1] = n - dim
		return b.Pad(x, 0, paddings)
	}
	return x, nil
}

// axisShape returns the dimensions of a tensor of rank rank, with size n on axis and 1 elsewhere.
func axisShape(rank, axis, n int) []int {
	dims := xslices.SliceWithValue(rank, 1)
	dims[axis] = n
	return dims
}

// axisVector returns a tensor of the given dtype with the values laid along axis, and dimension 1 on the
// other axes, so it broadcasts against tensors of rank rank.
func axisVector[T float64 | complex128](b backends.Backend, values []T, dtype dtypes.DType, rank, axis int) (*tensors.Tensor, error) {
	t := tensors.FromFlatDataAndDimensions(values, axisShape(rank, axis, len(values))...)
	return b.ConvertDType(t, dtype)
}

// mulAxisVector multiplies x by values laid along axis.
func mulAxisVector[T float64 | complex128](b backends.Backend, x *tensors.Tensor, values []T, axis int) (*tensors.Tensor, error) {
	v, err := axisVector(b, values, x.DType(), x.Rank(), axis)
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMul, x, v)
}

// mulScalar multiplies x by a scalar.
func mulScalar(b backends.Backend, x *tensors.Tensor, value float64) (*tensors.Tensor, error) {
	if value == 1 {
		return x, nil
	}
	scalar, err := b.Full(shapes.Make(x.DType()), value)
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMul, x, scalar)
}

// phases returns scale*exp(sign*i*pi*k/(2n)) for k in [0, n).
func phases(n int, sign, scale float64) []complex128 {
	values := make([]complex128, n)
	for k := range values {
		angle := sign * math.Pi * float64(k) / (2 * float64(n))
		values[k] = complex(scale*math.Cos(angle), scale*math.Sin(angle))
	}
	return values
}

// orthoScales returns first for the first element, and rest for the remaining n-1.
func orthoScales(n int, first, rest float64) []float64 {
	values := xslices.SliceWithValue(n, rest)
	values[0] = first
	return values
}
