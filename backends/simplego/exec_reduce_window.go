// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"math"
	"runtime"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/backends/shapeinference"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// minParallelChunk is the minimum number of output elements reduced by one goroutine.
const minParallelChunk = 1024

// ReduceWindow implements backends.Primitives.
//
// Outputs are split in chunks reduced in parallel.
func (b *Backend) ReduceWindow(operand *tensors.Tensor, config backends.ReduceWindowConfig) (*tensors.Tensor, error) {
	output, strides, dilations, err := shapeinference.ReduceWindowOp(operand.Shape(), config)
	if err != nil {
		return nil, err
	}
	plan := &windowPlan{
		rank:           operand.Rank(),
		operandDims:    operand.Shape().Dimensions,
		operandStrides: operand.Shape().Strides(),
		outputDims:     output.Dimensions,
		outputSize:     output.Size(),
		window:         config.WindowDimensions,
		strides:        strides,
		dilations:      dilations,
	}
	dtype := operand.DType()
	flat := operand.FlatAny()
	reduction := config.Reduction
	var outputFlat any
	switch laneOf(dtype) {
	case laneFloat:
		outputFlat = fromFloat64s(reduceWindowOrdered(plan, float64sOf(flat), reduction,
			math.Inf(-1), math.Inf(1), func(acc float64, count int) float64 { return acc / float64(count) }), dtype)
	case laneSigned:
		outputFlat = fromInt64s(reduceWindowOrdered(plan, int64sOf(flat), reduction,
			math.MinInt64, math.MaxInt64, func(acc int64, count int) int64 { return acc / int64(count) }), dtype)
	case laneUnsigned:
		outputFlat = fromUint64s(reduceWindowOrdered(plan, uint64sOf(flat), reduction,
			0, math.MaxUint64, func(acc uint64, count int) uint64 { return acc / uint64(count) }), dtype)
	case laneComplex:
		var mean func(acc complex128, count int) complex128
		if reduction == backends.ReduceOpMean {
			mean = func(acc complex128, count int) complex128 { return acc / complex(float64(count), 0) }
		}
		outputFlat = fromComplex128s(reduceWindowWith(plan, complex128sOf(flat), 0, sum[complex128], mean), dtype)
	default:
		return nil, errors.Errorf("ReduceWindow: unsupported dtype %s", dtype)
	}
	return newTensor(output, outputFlat)
}

func sum[T laneConstraints](acc, v T) T { return acc + v }

// reduceWindowOrdered runs the reduction for the ordered lanes. lowest and highest are the initial values
// of the max and min reductions, and mean divides the sum by the number of elements reduced.
func reduceWindowOrdered[T orderedLaneConstraints](plan *windowPlan, operand []T, reduction backends.ReduceOpType,
	lowest, highest T, mean func(acc T, count int) T) []T {
	switch reduction {
	case backends.ReduceOpMax:
		return reduceWindowWith(plan, operand, lowest, maxNaN[T], nil)
	case backends.ReduceOpMin:
		return reduceWindowWith(plan, operand, highest, minNaN[T], nil)
	case backends.ReduceOpMean:
		return reduceWindowWith(plan, operand, 0, sum[T], mean)
	default:
		return reduceWindowWith(plan, operand, 0, sum[T], nil)
	}
}

// windowPlan holds the geometry of a ReduceWindow.
type windowPlan struct {
	rank                        int
	operandDims, operandStrides []int
	outputDims                  []int
	outputSize                  int
	window, strides, dilations  []int
}

// reduceWindowWith reduces each window starting from init with reduceFn. If finalize is not nil, it is called
// with the reduced value and the number of elements of the window inside the operand.
func reduceWindowWith[T laneConstraints](plan *windowPlan, operand []T, init T, reduceFn func(acc, v T) T,
	finalize func(acc T, count int) T) []T {
	output := make([]T, plan.outputSize)
	plan.parallelFor(func(start, end int) {
		coords := make([]int, plan.rank)
		offsets := make([]int, plan.rank)
		for outputIdx := start; outputIdx < end; outputIdx++ {
			acc, count := init, 0
			plan.forEachOperandIndex(outputIdx, coords, offsets, func(operandIdx int) {
				acc = reduceFn(acc, operand[operandIdx])
				count++
			})
			if finalize != nil && count > 0 {
				acc = finalize(acc, count)
			}
			output[outputIdx] = acc
		}
	})
	return output
}

// parallelFor splits [0, outputSize) in chunks, and calls fn on them concurrently.
func (plan *windowPlan) parallelFor(fn func(start, end int)) {
	numWorkers := runtime.NumCPU()
	if plan.outputSize < 2*minParallelChunk || numWorkers == 1 {
		fn(0, plan.outputSize)
		return
	}
	chunkSize := max(minParallelChunk, (plan.outputSize+numWorkers-1)/numWorkers)
	klog.V(2).Infof("ReduceWindow: %d outputs in chunks of %d over %d workers", plan.outputSize, chunkSize, numWorkers)
	var g errgroup.Group
	g.SetLimit(numWorkers)
	for start := 0; start < plan.outputSize; start += chunkSize {
		end := min(start+chunkSize, plan.outputSize)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}

// forEachOperandIndex calls visit with the flat index of every element of the operand inside the window
// of the output element outputIdx. Window elements past the end of the operand are skipped.
//
// coords and offsets are scratch space, with one element per axis.
func (plan *windowPlan) forEachOperandIndex(outputIdx int, coords, offsets []int, visit func(operandIdx int)) {
	for axis := plan.rank - 1; axis >= 0; axis-- {
		coords[axis] = outputIdx % plan.outputDims[axis]
		outputIdx /= plan.outputDims[axis]
		offsets[axis] = 0
	}
	for {
		operandIdx, inside := 0, true
		for axis := range plan.rank {
			pos := coords[axis]*plan.strides[axis] + offsets[axis]*plan.dilations[axis]
			if pos >= plan.operandDims[axis] {
				inside = false
				break
			}
			operandIdx += pos * plan.operandStrides[axis]
		}
		if inside {
			visit(operandIdx)
		}

		// Next window offset, with the last axis changing fastest.
		axis := plan.rank - 1
		for ; axis >= 0; axis-- {
			offsets[axis]++
			if offsets[axis] < plan.window[axis] {
				break
			}
			offsets[axis] = 0
		}
		if axis < 0 {
			return
		}
	}
}
