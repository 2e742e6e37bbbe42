// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"cmp"
	"slices"

	"github.com/gomlx/arraycompat/backends/shapeinference"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
)

// ArgMinMax implements backends.Primitives.
func (b *Backend) ArgMinMax(operand *tensors.Tensor, axis int, outputDType dtypes.DType, isMin bool) (*tensors.Tensor, error) {
	output, err := shapeinference.ArgMinMaxOp(operand.Shape(), axis, outputDType)
	if err != nil {
		return nil, err
	}
	lines := newAxisLines(operand.Shape().Dimensions, axis, 1)
	flat := operand.FlatAny()
	var results []int64
	switch laneOf(operand.DType()) {
	case laneFloat:
		results = argMinMaxLines(lines, float64sOf(flat), isMin)
	case laneUnsigned:
		results = argMinMaxLines(lines, uint64sOf(flat), isMin)
	default:
		results = argMinMaxLines(lines, int64sOf(flat), isMin)
	}
	return newTensor(output, fromInt64s(results, outputDType))
}

func argMinMaxLines[T orderedLaneConstraints](lines *axisLines, values []T, isMin bool) []int64 {
	results := make([]int64, lines.outer*lines.inner)
	lines.forEach(func(inputStart, outputStart int) {
		best := -1
		var bestValue T
		for ii := range lines.inputLength {
			v := values[inputStart+ii*lines.inner]
			if isNaN(v) {
				continue
			}
			if best < 0 || (isMin && v < bestValue) || (!isMin && v > bestValue) {
				best, bestValue = ii, v
			}
		}
		results[outputStart] = int64(max(best, 0))
	})
	return results
}

// ArgSort implements backends.Primitives.
func (b *Backend) ArgSort(operand *tensors.Tensor, axis int, descending bool) (*tensors.Tensor, error) {
	output, err := shapeinference.ArgSortOp(operand.Shape(), axis)
	if err != nil {
		return nil, err
	}
	lines := newAxisLines(operand.Shape().Dimensions, axis, operand.Shape().Dimensions[axis])
	flat := operand.FlatAny()
	var results []int64
	switch laneOf(operand.DType()) {
	case laneFloat:
		results = argSortLines(lines, float64sOf(flat), descending)
	case laneUnsigned:
		results = argSortLines(lines, uint64sOf(flat), descending)
	default:
		results = argSortLines(lines, int64sOf(flat), descending)
	}
	return newTensor(output, results)
}

// compareNaNLast orders NaN after every other value, and NaNs as equal among themselves.
func compareNaNLast[T orderedLaneConstraints](a, b T) int {
	aNaN, bNaN := isNaN(a), isNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmp.Compare(a, b)
}

func argSortLines[T orderedLaneConstraints](lines *axisLines, values []T, descending bool) []int64 {
	results := make([]int64, len(values))
	order := make([]int64, lines.inputLength)
	lines.forEach(func(inputStart, outputStart int) {
		copy(order, xslices.Iota(int64(0), lines.inputLength))
		slices.SortStableFunc(order, func(a, b int64) int {
			va, vb := values[inputStart+int(a)*lines.inner], values[inputStart+int(b)*lines.inner]
			if descending {
				return compareNaNLast(vb, va)
			}
			return compareNaNLast(va, vb)
		})
		scatterLine(results, order, outputStart, lines.inner)
	})
	return results
}
