// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package padding computes the padding amounts of windowed operations for the SAME and VALID policies,
// their output sizes (with or without ceil mode), and the edge-count correction used by average pooling
// when padded cells must not be counted.
//
// All functions work on the spatial axes only, and are pure: they take and return integer or float slices.
package padding

import (
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/pkg/errors"
)

// EffectiveKernel returns the size of a kernel once dilated: kernel + (kernel-1)*(dilation-1).
func EffectiveKernel(kernel, dilation int) int {
	return kernel + (kernel-1)*(dilation-1)
}

// TotalSame returns the total padding of an axis with the Same policy:
//
//	max(0, (ceil(input/stride) - 1) * stride + effectiveKernel - input)
func TotalSame(input, stride, kernel, dilation int) int {
	outputSize := (input + stride - 1) / stride
	return max(0, (outputSize-1)*stride+EffectiveKernel(kernel, dilation)-input)
}

// Split splits a total padding between the low and high sides, with the extra unit on the high side.
func Split(total int) (low, high int) {
	low = total / 2
	return low, total - low
}

// Resolve returns the (low, high) padding of each spatial axis, for the given padding, input dimensions,
// kernels, strides and dilations. All slices must have the same length, the spatial rank.
//
// Explicit paddings are checked for their length and sign, see normalize.Padding.Resolve.
func Resolve(pad normalize.Padding, inputDims, kernels, strides, dilations []int) ([][2]int, error) {
	rank := len(inputDims)
	if len(kernels) != rank || len(strides) != rank || len(dilations) != rank {
		return nil, errors.Wrapf(compat.ErrInvalidParameterShape,
			"kernels (%v), strides (%v) and dilations (%v) must have one value per spatial axis of %v",
			kernels, strides, dilations, inputDims)
	}
	switch pad.Policy() {
	case normalize.Same:
		pads := make([][2]int, rank)
		for axis, dim := range inputDims {
			pads[axis][0], pads[axis][1] = Split(TotalSame(dim, strides[axis], kernels[axis], dilations[axis]))
		}
		return pads, nil
	case normalize.Valid:
		return make([][2]int, rank), nil
	}
	return pad.Resolve(rank)
}

// OutputSize returns the number of windows along an axis of the given input size, after padding it with pads.
//
// Without ceil mode it is floor((padded - effectiveKernel) / stride) + 1. With ceil mode the division is
// rounded up, but the last window must still start before the end of the input plus its low padding,
// and so it may lose one window.
func OutputSize(input, effectiveKernel, stride int, pads [2]int, ceilMode bool) int {
	padded := input + pads[0] + pads[1]
	span := padded - effectiveKernel
	if span < 0 {
		return 0
	}
	if !ceilMode {
		return span/stride + 1
	}
	size := (span+stride-1)/stride + 1
	if (size-1)*stride >= input+pads[0] {
		size--
	}
	return size
}

// Overhang returns the number of cells by which the last of outputSize windows extends past the padded input.
// It is 0 except in ceil mode.
func Overhang(input, effectiveKernel, stride int, pads [2]int, outputSize int) int {
	padded := input + pads[0] + pads[1]
	return max(0, (outputSize-1)*stride+effectiveKernel-padded)
}

// PaddedCounts returns, for each of outputSize windows along an axis, the number of its cells that fall outside
// the real input: the padding on either side plus, in ceil mode, cells past the padded input.
//
// For window i, starting at i*stride in padded coordinates, it is
//
//	max(0, padLow - i*stride) + max(0, i*stride + kernel - input - padLow)
func PaddedCounts(input, kernel, stride int, pads [2]int, outputSize int) []float64 {
	counts := make([]float64, outputSize)
	for i := range counts {
		start := i * stride
		low := max(0, pads[0]-start)
		high := max(0, start+kernel-input-pads[0])
		counts[i] = float64(min(low+high, kernel))
	}
	return counts
}

// AdjustCeil corrects the padded count of the last window of an axis, when in ceil mode it overhangs the
// padded input by overhang cells.
//
// The windowed mean divides the last window by kernel-overhang, the cells that exist in the padded input.
// The adjusted count is the value p' such that kernel*mean/(kernel-p') is the mean over the real cells:
//
//	p' = kernel * (p - overhang) / (kernel - overhang)
//
// counts is modified in place and returned.
func AdjustCeil(counts []float64, kernel, overhang int) []float64 {
	if overhang <= 0 || len(counts) == 0 || overhang >= kernel {
		return counts
	}
	last := len(counts) - 1
	k, c := float64(kernel), float64(overhang)
	counts[last] = k * (counts[last] - c) / (k - c)
	return counts
}

// CombineCounts combines the per-axis padded counts into the total number of padded cells of each output
// cell, using inclusion-exclusion over the axes: a cell of the window is real only if it is real on every
// axis, so
//
//	padded = prod(kernels) - prod(kernels[a] - perAxis[a][i_a])
//
// For 2D this is kernelH*padW + kernelW*padH - padH*padW.
//
// The result is laid out in row-major order over the output dimensions len(perAxis[a]).
func CombineCounts(perAxis [][]float64, kernels []int) []float64 {
	size := 1
	kernelProduct := 1.0
	for axis, counts := range perAxis {
		size *= len(counts)
		kernelProduct *= float64(kernels[axis])
	}
	combined := make([]float64, size)
	indices := make([]int, len(perAxis))
	for flatIdx := range combined {
		realProduct := 1.0
		for axis, counts := range perAxis {
			realProduct *= float64(kernels[axis]) - counts[indices[axis]]
		}
		combined[flatIdx] = kernelProduct - realProduct

		// Increment the indices, last axis first.
		for axis := len(indices) - 1; axis >= 0; axis-- {
			indices[axis]++
			if indices[axis] < len(perAxis[axis]) {
				break
			}
			indices[axis] = 0
		}
	}
	return combined
}

// RescaleFactors returns, for each output cell, the factor kernelProduct/(kernelProduct - padded) that turns
// an average over the whole window into an average over the real cells.
func RescaleFactors(padded []float64, kernelProduct int) []float64 {
	k := float64(kernelProduct)
	factors := make([]float64, len(padded))
	for ii, p := range padded {
		factors[ii] = k / (k - p)
	}
	return factors
}

// Rescale returns kernelProduct*avg/(kernelProduct - padded).
func Rescale(avg float64, kernelProduct int, padded float64) float64 {
	k := float64(kernelProduct)
	return k * avg / (k - padded)
}
