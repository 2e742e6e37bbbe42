// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"github.com/pkg/errors"
)

// BroadcastDimensions returns the dimensions resulting from broadcasting lhs and rhs.
//
// Dimensions are aligned from the trailing axis: the shorter list is implicitly prefixed with 1s.
// Along each axis, equal dimensions pass through and a dimension of 1 expands to the other one.
// Any other combination is an error.
func BroadcastDimensions(lhs, rhs []int) ([]int, error) {
	rank := max(len(lhs), len(rhs))
	result := make([]int, rank)
	for axis := range rank {
		lhsAxis := axis - (rank - len(lhs))
		rhsAxis := axis - (rank - len(rhs))
		lhsDim, rhsDim := 1, 1
		if lhsAxis >= 0 {
			lhsDim = lhs[lhsAxis]
		}
		if rhsAxis >= 0 {
			rhsDim = rhs[rhsAxis]
		}
		switch {
		case lhsDim == rhsDim:
			result[axis] = lhsDim
		case lhsDim == 1:
			result[axis] = rhsDim
		case rhsDim == 1:
			result[axis] = lhsDim
		default:
			return nil, errors.Errorf("dimensions %v and %v are not broadcastable: axis %d (from the right) has dimensions %d and %d",
				lhs, rhs, rank-axis, lhsDim, rhsDim)
		}
	}
	return result, nil
}

// BroadcastShapes returns the shape resulting from broadcasting the dimensions of lhs and rhs.
// The dtypes must match.
func BroadcastShapes(lhs, rhs Shape) (Shape, error) {
	if lhs.DType != rhs.DType {
		return Invalid(), errors.Errorf("cannot broadcast shapes with different dtypes: %s and %s", lhs, rhs)
	}
	dims, err := BroadcastDimensions(lhs.Dimensions, rhs.Dimensions)
	if err != nil {
		return Invalid(), err
	}
	return Shape{DType: lhs.DType, Dimensions: dims}, nil
}
