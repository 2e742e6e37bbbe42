// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package normalize canonicalizes the parameters of the compatibility kernels at the API boundary.
//
// Scalar-or-sequence parameters (kernel sizes, strides, dilations) are represented by Param, and paddings by
// Padding. Both are normalized into fixed-rank slices, and never carried further as their union form.
package normalize

import (
	"fmt"
	"slices"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/pkg/errors"
)

// Param is either a single integer, broadcast to every axis, or a sequence of integers.
// The zero value is not set, see IsSet.
type Param struct {
	values   []int
	isScalar bool
}

// Scalar returns a Param that broadcasts value to every axis.
func Scalar(value int) Param {
	return Param{values: []int{value}, isScalar: true}
}

// Sequence returns a Param with the given values. A sequence of length 1 is broadcast like a Scalar.
func Sequence(values ...int) Param {
	return Param{values: slices.Clone(values)}
}

// IsSet returns whether the Param was set to a Scalar or Sequence.
func (p Param) IsSet() bool {
	return p.isScalar || p.values != nil
}

// IsScalar returns whether the Param was created with Scalar.
func (p Param) IsScalar() bool {
	return p.isScalar
}

// String implements fmt.Stringer.
func (p Param) String() string {
	if p.isScalar {
		return fmt.Sprintf("%d", p.values[0])
	}
	return fmt.Sprintf("%v", p.values)
}

// Normalize returns the Param with exactly rank values: a scalar or a sequence of length 1 is broadcast,
// and a sequence of length rank is used as is. Any other length returns an error wrapping
// compat.ErrInvalidParameterShape.
func (p Param) Normalize(rank int) ([]int, error) {
	switch {
	case !p.IsSet():
		return nil, errors.Wrap(compat.ErrInvalidParameterShape, "parameter not set")
	case len(p.values) == 1:
		return xslices.SliceWithValue(rank, p.values[0]), nil
	case len(p.values) == rank:
		return slices.Clone(p.values), nil
	}
	return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "parameter %v has %d values, expected 1 or %d",
		p.values, len(p.values), rank)
}

// Positive is like Normalize, but it also requires every value to be >= 1. name is used in the error message.
func (p Param) Positive(name string, rank int) ([]int, error) {
	values, err := p.Normalize(rank)
	if err != nil {
		return nil, errors.WithMessagef(err, "normalizing %s", name)
	}
	for axis, v := range values {
		if v < 1 {
			return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "%s must be >= 1 for every axis, got %d for axis %d",
				name, v, axis)
		}
	}
	return values, nil
}

// Axis converts a possibly negative axis to a non-negative one, for an operand of the given rank.
func Axis(axis, rank int) (int, error) {
	adjusted := axis
	if adjusted < 0 {
		adjusted += rank
	}
	if adjusted < 0 || adjusted >= rank {
		return 0, errors.Wrapf(compat.ErrInvalidArgument, "axis %d is out of range for rank %d", axis, rank)
	}
	return adjusted, nil
}

// Axes is like Axis for a list of axes, and it also checks that there are no repeated axes.
func Axes(axes []int, rank int) ([]int, error) {
	adjusted := make([]int, len(axes))
	seen := make([]bool, rank)
	for ii, axis := range axes {
		var err error
		if adjusted[ii], err = Axis(axis, rank); err != nil {
			return nil, err
		}
		if seen[adjusted[ii]] {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "axis %d repeated in %v", axis, axes)
		}
		seen[adjusted[ii]] = true
	}
	return adjusted, nil
}

// ExpandShape resolves the target of an expand operation over an input with inputDims.
//
// Negative target dimensions are replaced by the input dimension at the same axis. A rank-0 input
// with an empty target is returned unchanged; otherwise a rank-0 input is first given one dimension of size 1.
// An input with more axes than the target is first flattened to one dimension.
//
// It returns the dimensions the input must be reshaped to, and the resolved target, to which they broadcast.
func ExpandShape(inputDims, target []int) (reshaped, resolved []int, err error) {
	resolved = slices.Clone(target)
	for axis, dim := range resolved {
		if dim >= 0 {
			continue
		}
		if axis >= len(inputDims) {
			return nil, nil, errors.Wrapf(compat.ErrInvalidParameterShape,
				"expand target %v has a negative dimension at axis %d, but the input has only %d axes", target, axis, len(inputDims))
		}
		resolved[axis] = inputDims[axis]
	}
	reshaped = slices.Clone(inputDims)
	if len(reshaped) == 0 {
		if len(resolved) == 0 {
			return []int{}, []int{}, nil
		}
		reshaped = []int{1}
	}
	if len(reshaped) > len(resolved) {
		reshaped = []int{xslices.Product(reshaped)}
	}
	if len(reshaped) > len(resolved) {
		return nil, nil, errors.Wrapf(compat.ErrInvalidParameterShape, "cannot expand input %v to an empty shape", inputDims)
	}
	for ii := range reshaped {
		dim := reshaped[len(reshaped)-1-ii]
		targetDim := resolved[len(resolved)-1-ii]
		if dim != targetDim && dim != 1 {
			return nil, nil, errors.Wrapf(compat.ErrInvalidParameterShape, "cannot expand input %v to %v", inputDims, resolved)
		}
	}
	return reshaped, resolved, nil
}
