// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"iter"

	"github.com/gomlx/exceptions"
)

// Iter iterates sequentially over all possible indices of the given shape.
//
// It yields the flat index (counter) and a slice of indices for each axis.
//
// To avoid allocating the slice of indices, the yielded indices is owned by the Iter() method:
// don't change it inside the loop.
func (s Shape) Iter() iter.Seq2[int, []int] {
	indices := make([]int, s.Rank())
	axes := make([]int, s.Rank())
	for axis := range axes {
		axes[axis] = axis
	}
	return s.IterOnAxes(axes, nil, indices)
}

// IterOnAxes iterates over all possible indices of the given shape's axesToIterate.
//
// It yields the flat index and the updated indices for all axes of the shape (not only the ones iterated).
// The indices not pointed by axesToIterate are not touched, but they are used to calculate the flat index.
//
// Args:
//   - axesToIterate: axes of the shape to iterate over, in order of significance (the last one changes fastest).
//   - strides: for the shape, as returned by Shape.Strides(). If nil, it will use the value returned by Shape.Strides.
//   - indices: slice that will be yielded during the iteration, it must have length equal to the shape's rank.
//     If it is nil, one will be allocated for the iteration.
//
// During the iteration the caller shouldn't modify the slice of indices, otherwise it will lead to undefined behavior.
func (s Shape) IterOnAxes(axesToIterate, strides, indices []int) iter.Seq2[int, []int] {
	rank := s.Rank()
	if strides == nil {
		strides = s.Strides()
	} else if len(strides) != rank {
		exceptions.Panicf("Shape.IterOnAxes given len(strides) == %d, want it to be equal to the rank %d", len(strides), rank)
	}
	if indices == nil {
		indices = make([]int, rank)
	} else if len(indices) != rank {
		exceptions.Panicf("Shape.IterOnAxes given len(indices) == %d, want it to be equal to the rank %d", len(indices), rank)
	}

	return func(yield func(int, []int) bool) {
		if !s.Ok() {
			return
		}
		if rank == 0 {
			// Scalar: yield one empty index slice.
			_ = yield(0, indices)
			return
		}
		for _, axis := range axesToIterate {
			if axis < 0 || axis >= rank {
				exceptions.Panicf("Shape.IterOnAxes: invalid axis %d, must be 0 <= axis < rank (%d)", axis, rank)
			}
			if s.Dimensions[axis] == 0 {
				return
			}
			indices[axis] = 0
		}
		flatIdx := 0
		for axis := 0; axis < rank; axis++ {
			flatIdx += indices[axis] * strides[axis]
		}

	yielder:
		for {
			if !yield(flatIdx, indices) {
				return
			}
			// Increment indices to the next set of coordinates (row-major order).
			for axisIdx := len(axesToIterate) - 1; axisIdx >= 0; axisIdx-- {
				axis := axesToIterate[axisIdx]
				indices[axis]++
				flatIdx += strides[axis]
				if indices[axis] < s.Dimensions[axis] {
					continue yielder
				}
				// Carry-over to the next more significant axis.
				flatIdx -= indices[axis] * strides[axis]
				indices[axis] = 0
			}
			break
		}
	}
}
