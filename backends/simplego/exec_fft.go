// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/backends/shapeinference"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT implements backends.Primitives.
//
// The transforms of gonum are unnormalized, the inverse ones are scaled here by 1/length.
func (b *Backend) FFT(operand *tensors.Tensor, fftType backends.FFTType, axis, length int) (*tensors.Tensor, error) {
	output, err := shapeinference.FFTOp(operand.Shape(), fftType, axis, length)
	if err != nil {
		return nil, err
	}
	inputLength := length
	if fftType == backends.FFTInverseReal {
		inputLength = length/2 + 1
	}
	operand, err = b.resizeAxis(operand, axis, inputLength)
	if err != nil {
		return nil, err
	}
	lines := newAxisLines(operand.Shape().Dimensions, axis, output.Dimensions[axis])
	scale := 1 / float64(length)

	switch fftType {
	case backends.FFTForward, backends.FFTInverse:
		input := complex128sOf(operand.FlatAny())
		results := make([]complex128, output.Size())
		plan := fourier.NewCmplxFFT(length)
		seq := make([]complex128, length)
		coeffs := make([]complex128, length)
		lines.forEach(func(inputStart, outputStart int) {
			gatherLine(seq, input, inputStart, lines.inner)
			if fftType == backends.FFTForward {
				plan.Coefficients(coeffs, seq)
			} else {
				plan.Sequence(coeffs, seq)
				for ii := range coeffs {
					coeffs[ii] *= complex(scale, 0)
				}
			}
			scatterLine(results, coeffs, outputStart, lines.inner)
		})
		return newTensor(output, fromComplex128s(results, output.DType))

	case backends.FFTForwardReal:
		input := float64sOf(operand.FlatAny())
		results := make([]complex128, output.Size())
		plan := fourier.NewFFT(length)
		seq := make([]float64, length)
		coeffs := make([]complex128, length/2+1)
		lines.forEach(func(inputStart, outputStart int) {
			gatherLine(seq, input, inputStart, lines.inner)
			plan.Coefficients(coeffs, seq)
			scatterLine(results, coeffs, outputStart, lines.inner)
		})
		return newTensor(output, fromComplex128s(results, output.DType))

	default: // backends.FFTInverseReal
		input := complex128sOf(operand.FlatAny())
		results := make([]float64, output.Size())
		plan := fourier.NewFFT(length)
		coeffs := make([]complex128, inputLength)
		seq := make([]float64, length)
		lines.forEach(func(inputStart, outputStart int) {
			gatherLine(coeffs, input, inputStart, lines.inner)
			plan.Sequence(seq, coeffs)
			for ii := range seq {
				seq[ii] *= scale
			}
			scatterLine(results, seq, outputStart, lines.inner)
		})
		return newTensor(output, fromFloat64s(results, output.DType))
	}
}

// resizeAxis truncates or zero-pads the operand along axis to the given length.
func (b *Backend) resizeAxis(operand *tensors.Tensor, axis, length int) (*tensors.Tensor, error) {
	dims := operand.Shape().Dimensions
	switch {
	case dims[axis] > length:
		limits := slices.Clone(dims)
		limits[axis] = length
		return b.Slice(operand, make([]int, len(dims)), limits, xslices.SliceWithValue(len(dims), 1))
	case dims[axis] < length:
		paddings := make([][2]int, len(dims))
		paddings[axis][1] = length - dims[axis]
		return b.Pad(operand, 0, paddings)
	}
	return operand, nil
}

// axisLines iterates over the 1D lines along one axis of a tensor in row-major layout: the line of an input
// with n elements along axis starts at outer*n*inner + inner-offset, and its elements are inner apart.
type axisLines struct {
	outer, inner              int
	inputLength, outputLength int
}

func newAxisLines(inputDims []int, axis, outputLength int) *axisLines {
	return &axisLines{
		outer:        xslices.Product(inputDims[:axis]),
		inner:        xslices.Product(inputDims[axis+1:]),
		inputLength:  inputDims[axis],
		outputLength: outputLength,
	}
}

// forEach calls fn with the flat index of the first element of each line in the input and in the output.
func (l *axisLines) forEach(fn func(inputStart, outputStart int)) {
	for outerIdx := range l.outer {
		for innerIdx := range l.inner {
			fn(outerIdx*l.inputLength*l.inner+innerIdx, outerIdx*l.outputLength*l.inner+innerIdx)
		}
	}
}

func gatherLine[T any](line, flat []T, start, stride int) {
	for ii := range line {
		line[ii] = flat[start+ii*stride]
	}
}

func scatterLine[T any](flat, line []T, start, stride int) {
	for ii, v := range line {
		flat[start+ii*stride] = v
	}
}
