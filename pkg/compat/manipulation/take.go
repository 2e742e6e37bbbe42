// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package manipulation implements the indexing and reshaping kernels: take-along-axis with out-of-bounds
// modes, broadcasting of shapes, expand, the stacking family with dtype promotion, and a few other
// manipulation operations (flatten, moveaxis, flips, top-k, heaviside).
//
// All kernels are pure: they take a backends.Backend and read-only tensors, and return new tensors.
package manipulation

import (
	"math"
	"slices"
	"strings"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Mode selects how TakeAlongAxis handles out-of-bounds indices.
type Mode int

const (
	// ModeFill takes the fill value (see FillValue) for out-of-bounds indices. It is the default.
	ModeFill Mode = iota

	// ModeClip clamps the indices into the valid range [0, dim-1].
	ModeClip

	// ModeDrop behaves like ModeFill: out-of-bounds positions are marked with the fill value.
	ModeDrop
)

var modeNames = map[Mode]string{
	ModeFill: "fill",
	ModeClip: "clip",
	ModeDrop: "drop",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if name, found := modeNames[m]; found {
		return name
	}
	return "Mode(?)"
}

// ParseMode parses "clip", "fill" or "drop" (case-insensitive). Other values return an error wrapping
// compat.ErrInvalidArgument.
func ParseMode(name string) (Mode, error) {
	for mode, modeName := range modeNames {
		if strings.EqualFold(name, modeName) {
			return mode, nil
		}
	}
	return ModeFill, errors.Wrapf(compat.ErrInvalidArgument, "invalid mode %q, valid modes are \"clip\", \"fill\" and \"drop\"", name)
}

// FillValue returns the sentinel used for out-of-bounds positions of the given dtype: NaN for floats (and
// NaN+NaN·i for complex numbers), the highest value for unsigned integers, the lowest value for signed
// integers and false for booleans.
func FillValue(dtype dtypes.DType) any {
	switch {
	case dtype.IsFloat():
		return math.NaN()
	case dtype.IsComplex():
		return complex(math.NaN(), math.NaN())
	case dtype.IsUnsigned():
		return dtype.HighestValue()
	case dtype.IsSignedInt():
		return dtype.LowestValue()
	case dtype == dtypes.Bool:
		return false
	}
	exceptions.Panicf("manipulation.FillValue: no fill value for dtype %s", dtype)
	return nil
}

// gatherUpcastDTypes have no native gather in every framework: they are gathered as Float32, which
// represents all their values exactly.
var gatherUpcastDTypes = []dtypes.DType{dtypes.Int8, dtypes.Int16, dtypes.Uint8, dtypes.Float16, dtypes.Bool}

// TakeAlongAxis returns the values of arr at the given indices along axis: output[..., i, ...] is
// arr[..., indices[..., i, ...], ...].
//
// arr and indices must have the same rank (else an error wrapping compat.ErrRankMismatch is returned), and
// indices must be integers. Negative indices in [-dim, 0) count from the end of the axis. Indices outside
// [-dim, dim) are clamped into [0, dim-1] with ModeClip, or take the FillValue of arr's dtype with ModeFill and
// ModeDrop.
func TakeAlongAxis(b backends.Backend, arr, indices *tensors.Tensor, axis int, mode Mode) (*tensors.Tensor, error) {
	if arr.Rank() != indices.Rank() {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "arr and indices must have the same number of dimensions; got %d vs %d",
			arr.Rank(), indices.Rank())
	}
	if _, found := modeNames[mode]; !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "invalid take_along_axis mode %d", mode)
	}
	if err := capability.For(b).Check(b, "take_along_axis", arr.DType()); err != nil {
		return nil, err
	}
	if !indices.DType().IsInt() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "take_along_axis indices must be integers, got %s", indices.Shape())
	}
	axis, err := normalize.Axis(axis, arr.Rank())
	if err != nil {
		return nil, err
	}
	dim := arr.Shape().Dim(axis)
	if dim == 0 && indices.Size() > 0 && mode == ModeClip {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "cannot clip indices into the empty axis %d of %s", axis, arr.Shape())
	}
	if indices, err = b.ConvertDType(indices, dtypes.Int64); err != nil {
		return nil, err
	}

	source := arr
	switch mode {
	case ModeClip:
		indices, err = clipIndices(b, indices, dim)
	default:
		source, indices, err = appendFillSlice(b, arr, indices, axis)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "take_along_axis(mode=%s) of %s", mode, arr.Shape())
	}
	result, err := gather(b, source, indices, axis)
	if err != nil {
		return nil, errors.WithMessagef(err, "take_along_axis of %s with indices %s", arr.Shape(), indices.Shape())
	}
	return result, nil
}

// scalar returns a rank-0 tensor with value converted to dtype.
func scalar(b backends.Backend, dtype dtypes.DType, value any) (*tensors.Tensor, error) {
	return b.Full(shapes.Make(dtype), value)
}

// wrapNegative maps the negative Int64 indices to index+dim.
func wrapNegative(b backends.Backend, indices *tensors.Tensor, dim int) (*tensors.Tensor, error) {
	zero, err := scalar(b, dtypes.Int64, 0)
	if err != nil {
		return nil, err
	}
	dimT, err := scalar(b, dtypes.Int64, dim)
	if err != nil {
		return nil, err
	}
	isNegative, err := b.Binary(backends.OpTypeLessThan, indices, zero)
	if err != nil {
		return nil, err
	}
	wrapped, err := b.Binary(backends.OpTypeAdd, indices, dimT)
	if err != nil {
		return nil, err
	}
	return b.Where(isNegative, wrapped, indices)
}

// clipIndices wraps in-range negative indices and clamps the result into [0, dim-1].
func clipIndices(b backends.Backend, indices *tensors.Tensor, dim int) (*tensors.Tensor, error) {
	indices, err := wrapNegative(b, indices, dim)
	if err != nil {
		return nil, err
	}
	low, err := scalar(b, dtypes.Int64, 0)
	if err != nil {
		return nil, err
	}
	high, err := scalar(b, dtypes.Int64, max(dim-1, 0))
	if err != nil {
		return nil, err
	}
	if indices, err = b.Binary(backends.OpTypeMax, indices, low); err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMin, indices, high)
}

// appendFillSlice appends a slice of FillValue to arr along axis, and points every index outside
// [-dim, dim) to it. In-range negative indices are wrapped.
func appendFillSlice(b backends.Backend, arr, indices *tensors.Tensor, axis int) (*tensors.Tensor, *tensors.Tensor, error) {
	dim := arr.Shape().Dim(axis)
	fillDims := slices.Clone(arr.Shape().Dimensions)
	fillDims[axis] = 1
	fill, err := b.Full(shapes.Make(arr.DType(), fillDims...), FillValue(arr.DType()))
	if err != nil {
		return nil, nil, err
	}
	if arr, err = b.Concatenate(axis, arr, fill); err != nil {
		return nil, nil, err
	}

	lowest, err := scalar(b, dtypes.Int64, -dim)
	if err != nil {
		return nil, nil, err
	}
	highest, err := scalar(b, dtypes.Int64, dim)
	if err != nil {
		return nil, nil, err
	}
	tooLow, err := b.Binary(backends.OpTypeLessThan, indices, lowest)
	if err != nil {
		return nil, nil, err
	}
	tooHigh, err := b.Binary(backends.OpTypeGreaterOrEqual, indices, highest)
	if err != nil {
		return nil, nil, err
	}
	outOfBounds, err := b.Binary(backends.OpTypeLogicalOr, tooLow, tooHigh)
	if err != nil {
		return nil, nil, err
	}
	if indices, err = wrapNegative(b, indices, dim); err != nil {
		return nil, nil, err
	}
	// The appended fill slice is at position dim.
	if indices, err = b.Where(outOfBounds, highest, indices); err != nil {
		return nil, nil, err
	}
	return arr, indices, nil
}

// gather runs the backend GatherAlongAxis, through Float32 for the dtypes in gatherUpcastDTypes and
// part-wise for complex numbers.
func gather(b backends.Backend, arr, indices *tensors.Tensor, axis int) (*tensors.Tensor, error) {
	dtype := arr.DType()
	switch {
	case dtype.IsComplex():
		klog.V(2).Infof("take_along_axis: gathering %s real and imaginary parts separately", arr.Shape())
		realPart, err := b.Real(arr)
		if err != nil {
			return nil, err
		}
		imagPart, err := b.Imag(arr)
		if err != nil {
			return nil, err
		}
		if realPart, err = b.GatherAlongAxis(realPart, indices, axis); err != nil {
			return nil, err
		}
		if imagPart, err = b.GatherAlongAxis(imagPart, indices, axis); err != nil {
			return nil, err
		}
		return b.Complex(realPart, imagPart)

	case slices.Contains(gatherUpcastDTypes, dtype):
		klog.V(2).Infof("take_along_axis: gathering %s as Float32", arr.Shape())
		upcast, err := b.ConvertDType(arr, dtypes.Float32)
		if err != nil {
			return nil, err
		}
		gathered, err := b.GatherAlongAxis(upcast, indices, axis)
		if err != nil {
			return nil, err
		}
		return b.ConvertDType(gathered, dtype)
	}
	return b.GatherAlongAxis(arr, indices, axis)
}
