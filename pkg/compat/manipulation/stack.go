// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package manipulation

import (
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/sets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// StackDType returns the dtype of stacking the given arrays: their dtype if they all share one, or the
// promotion (dtypes.Promote) of the two distinct dtypes.
//
// It returns an error wrapping compat.ErrTooManyDtypes for more than 2 distinct dtypes, and
// compat.ErrInvalidArgument if no array is given.
func StackDType(arrays ...*tensors.Tensor) (dtypes.DType, error) {
	if len(arrays) == 0 {
		return dtypes.InvalidDType, errors.Wrap(compat.ErrInvalidArgument, "nothing to stack")
	}
	seen := sets.Make[dtypes.DType]()
	var distinct []dtypes.DType
	for _, array := range arrays {
		if !seen.Has(array.DType()) {
			seen.Insert(array.DType())
			distinct = append(distinct, array.DType())
		}
	}
	switch len(distinct) {
	case 1:
		return distinct[0], nil
	case 2:
		return dtypes.Promote(distinct[0], distinct[1])
	}
	return dtypes.InvalidDType, errors.Wrapf(compat.ErrTooManyDtypes, "got dtypes %v", distinct)
}

// stackLayout returns the dimensions each array is reshaped to, and the concatenation axis, for an array
// of the given rank.
type stackLayout func(dims []int) (reshaped []int, axis int)

// stack converts arrays to their stack dtype, reshapes them with layout and concatenates them.
//
// Booleans are concatenated as Int32.
func stack(b backends.Backend, opName string, layout stackLayout, arrays []*tensors.Tensor) (*tensors.Tensor, error) {
	if len(arrays) == 0 {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "%s of no arrays", opName)
	}
	for _, array := range arrays {
		if err := capability.For(b).Check(b, opName, array.DType()); err != nil {
			return nil, err
		}
	}
	dtype, err := StackDType(arrays...)
	if err != nil {
		return nil, errors.WithMessage(err, opName)
	}
	concatDType := dtype
	if dtype == dtypes.Bool {
		klog.V(2).Infof("%s: stacking booleans as Int32", opName)
		concatDType = dtypes.Int32
	}

	parts := make([]*tensors.Tensor, len(arrays))
	var axis int
	for ii, array := range arrays {
		var reshaped []int
		reshaped, axis = layout(array.Shape().Dimensions)
		part := array
		if part.DType() != concatDType {
			if part, err = b.ConvertDType(part, concatDType); err != nil {
				return nil, err
			}
		}
		if !slices.Equal(reshaped, part.Shape().Dimensions) {
			if part, err = b.Reshape(part, reshaped...); err != nil {
				return nil, err
			}
		}
		if ii > 0 && part.Rank() != parts[0].Rank() {
			return nil, errors.Wrapf(compat.ErrRankMismatch, "%s: array #%d %s doesn't match the rank of array #0 %s",
				opName, ii, array.Shape(), arrays[0].Shape())
		}
		parts[ii] = part
	}
	result, err := b.Concatenate(axis, parts...)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "%s: %v", opName, err)
	}
	if concatDType != dtype {
		return b.ConvertDType(result, dtype)
	}
	return result, nil
}

// prependOnes returns dims with leading 1s up to the given rank.
func prependOnes(dims []int, rank int) []int {
	if len(dims) >= rank {
		return dims
	}
	padded := make([]int, rank-len(dims), rank)
	for ii := range padded {
		padded[ii] = 1
	}
	return append(padded, dims...)
}

// VStack stacks the arrays vertically (along the first axis). Arrays of rank 0 and 1 are first reshaped to
// [1, n].
//
// The result dtype is given by StackDType.
func VStack(b backends.Backend, arrays ...*tensors.Tensor) (*tensors.Tensor, error) {
	return stack(b, "vstack", func(dims []int) ([]int, int) {
		return prependOnes(dims, 2), 0
	}, arrays)
}

// HStack stacks the arrays horizontally: along the first axis for arrays of rank 1 (scalars are taken as
// rank-1 arrays of size 1), and along the second axis otherwise.
//
// The result dtype is given by StackDType.
func HStack(b backends.Backend, arrays ...*tensors.Tensor) (*tensors.Tensor, error) {
	return stack(b, "hstack", func(dims []int) ([]int, int) {
		if len(dims) <= 1 {
			return prependOnes(dims, 1), 0
		}
		return dims, 1
	}, arrays)
}

// DStack stacks the arrays depth-wise (along the third axis). Arrays are first reshaped to rank 3: a scalar
// to [1, 1, 1], [n] to [1, n, 1] and [m, n] to [m, n, 1].
//
// The result dtype is given by StackDType.
func DStack(b backends.Backend, arrays ...*tensors.Tensor) (*tensors.Tensor, error) {
	return stack(b, "dstack", func(dims []int) ([]int, int) {
		switch len(dims) {
		case 0:
			return []int{1, 1, 1}, 2
		case 1:
			return []int{1, dims[0], 1}, 2
		case 2:
			return []int{dims[0], dims[1], 1}, 2
		}
		return dims, 2
	}, arrays)
}

// atLeast reshapes each array with fewer than rank axes, prepending axes of size 1.
func atLeast(b backends.Backend, rank int, arrays []*tensors.Tensor) ([]*tensors.Tensor, error) {
	results := make([]*tensors.Tensor, len(arrays))
	for ii, array := range arrays {
		if array.Rank() >= rank {
			results[ii] = array
			continue
		}
		var err error
		if results[ii], err = b.Reshape(array, prependOnes(array.Shape().Dimensions, rank)...); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// AtLeast1D returns the arrays with at least one axis: scalars are reshaped to [1].
func AtLeast1D(b backends.Backend, arrays ...*tensors.Tensor) ([]*tensors.Tensor, error) {
	return atLeast(b, 1, arrays)
}

// AtLeast2D returns the arrays with at least two axes, prepending axes of size 1.
func AtLeast2D(b backends.Backend, arrays ...*tensors.Tensor) ([]*tensors.Tensor, error) {
	return atLeast(b, 2, arrays)
}

// AtLeast3D returns the arrays with at least three axes, prepending axes of size 1.
func AtLeast3D(b backends.Backend, arrays ...*tensors.Tensor) ([]*tensors.Tensor, error) {
	return atLeast(b, 3, arrays)
}

// ConcatFromSequence joins the arrays along axis: if newAxis is 0, they are concatenated along an existing
// axis; if newAxis is 1, they are stacked along a new axis inserted at position axis.
//
// The arrays must share the same dtype.
func ConcatFromSequence(b backends.Backend, arrays []*tensors.Tensor, newAxis, axis int) (*tensors.Tensor, error) {
	if len(arrays) == 0 {
		return nil, errors.Wrap(compat.ErrInvalidArgument, "concat_from_sequence of no arrays")
	}
	dtype := arrays[0].DType()
	for ii, array := range arrays {
		if array.DType() != dtype {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "concat_from_sequence: array #%d has dtype %s, but array #0 has %s",
				ii, array.DType(), dtype)
		}
	}
	rank := arrays[0].Rank()
	var err error
	parts := arrays
	switch newAxis {
	case 0:
		if axis, err = normalize.Axis(axis, rank); err != nil {
			return nil, err
		}
	case 1:
		if axis, err = normalize.Axis(axis, rank+1); err != nil {
			return nil, err
		}
		parts = make([]*tensors.Tensor, len(arrays))
		for ii, array := range arrays {
			dims := slices.Insert(slices.Clone(array.Shape().Dimensions), axis, 1)
			if parts[ii], err = b.Reshape(array, dims...); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "concat_from_sequence new_axis must be 0 or 1, got %d", newAxis)
	}
	result, err := b.Concatenate(axis, parts...)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "concat_from_sequence: %v", err)
	}
	return result, nil
}
