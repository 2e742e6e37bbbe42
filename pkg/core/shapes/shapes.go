// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape and related constants and functions.
//
// A Shape is a data type (dtypes.DType) plus the dimensions of each axis. The rank is the number of axes,
// and a scalar has rank 0. Dimensions can be 0 (an empty array), but never negative.
//
// The layout in memory is always "row-major": the last axis is the one that changes fastest.
//
// Glossary:
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: is the index of a dimension on a multidimensional tensor. Sometimes used interchangeably with
//     dimension, but here we try to refer to a dimension as the size of an axis.
//   - Dimension: the size of a multidimensional tensor along one of its axes.
//   - DType: the data type of the unit element in a tensor.
//   - Scalar: a shape with no axes (rank 0), holding exactly one value.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/exceptions"
)

// Shape represents the shape of a tensor: its dtype and the dimensions of each axis.
//
// Use Make to create a new shape. The zero value is an invalid shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape structure filled with the values given.
// It panics if any of the dimensions is negative.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{Dimensions: slices.Clone(dimensions), DType: dtype}
	for _, dim := range dimensions {
		if dim < 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with a negative axis dimension", s)
		}
	}
	return s
}

// Scalar returns a scalar Shape for the given type.
func Scalar[T dtypes.Number]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Size returns the number of elements of DType are needed for this shape. It's the product of all dimensions.
// A scalar has size 1, and a shape with any 0 dimension has size 0.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// IsZeroSize returns whether any of the dimensions is 0, in which case the shape holds no elements.
func (s Shape) IsZeroSize() bool {
	return slices.Contains(s.Dimensions, 0)
}

// Memory returns the number of bytes for that would be used to store an array (or tensor) of this shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// WithDType returns a copy of the shape with the given dtype.
func (s Shape) WithDType(dtype dtypes.DType) Shape {
	s2 := s.Clone()
	s2.DType = dtype
	return s2
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	return s.DType == s2.DType && slices.Equal(s.Dimensions, s2.Dimensions)
}

// EqualDimensions compares two shapes for equality of dimensions. Dtypes can be different.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, len(s.Dimensions))
	for i, dim := range s.Dimensions {
		parts[i] = fmt.Sprintf("%d", dim)
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Strides returns the strides for each axis of the shape, assuming a "row-major" layout
// in memory.
//
// Notice the strides are **not in bytes**, but in indices.
func (s Shape) Strides() (strides []int) {
	return StridesFor(s.Dimensions)
}

// StridesFor returns the row-major strides for the given dimensions.
func StridesFor(dimensions []int) (strides []int) {
	rank := len(dimensions)
	if rank == 0 {
		return
	}
	strides = make([]int, rank)
	currentStride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= max(dimensions[axis], 1)
	}
	return
}

// FlatIndex converts the indices of each axis to the position in the flat (row-major) storage.
func (s Shape) FlatIndex(indices []int) int {
	if len(indices) != s.Rank() {
		exceptions.Panicf("Shape.FlatIndex given %d indices, but shape %s has rank %d", len(indices), s, s.Rank())
	}
	flatIdx := 0
	for axis, idx := range indices {
		flatIdx = flatIdx*s.Dimensions[axis] + idx
	}
	return flatIdx
}
