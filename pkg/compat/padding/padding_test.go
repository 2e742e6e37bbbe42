// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package padding

import (
	"testing"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestTotalSame(t *testing.T) {
	// Output size is ceil(input/stride).
	for input := 1; input <= 9; input++ {
		for stride := 1; stride <= 3; stride++ {
			for kernel := 1; kernel <= 4; kernel++ {
				for dilation := 1; dilation <= 2; dilation++ {
					low, high := Split(TotalSame(input, stride, kernel, dilation))
					assert.True(t, high-low == 0 || high-low == 1)
					eff := EffectiveKernel(kernel, dilation)
					got := OutputSize(input, eff, stride, [2]int{low, high}, false)
					want := (input + stride - 1) / stride
					assert.Equalf(t, want, got, "input=%d, stride=%d, kernel=%d, dilation=%d", input, stride, kernel, dilation)
				}
			}
		}
	}

	assert.Equal(t, 0, TotalSame(4, 2, 2, 1))
	assert.Equal(t, 2, TotalSame(5, 1, 3, 1))
	assert.Equal(t, 4, TotalSame(5, 1, 3, 2))
	assert.Equal(t, 5, EffectiveKernel(3, 2))

	low, high := Split(3)
	assert.Equal(t, 1, low)
	assert.Equal(t, 2, high)
}

func TestResolve(t *testing.T) {
	pads, err := Resolve(normalize.PadSame(), []int{5, 4}, []int{3, 2}, []int{1, 2}, []int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 1}, {0, 0}}, pads)

	pads, err = Resolve(normalize.PadValid(), []int{5, 4}, []int{3, 2}, []int{1, 2}, []int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 0}, {0, 0}}, pads)

	pads, err = Resolve(normalize.PadPair(1, 0), []int{5, 4}, []int{3, 2}, []int{1, 2}, []int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 0}, {1, 0}}, pads)

	_, err = Resolve(normalize.PadSame(), []int{5, 4}, []int{3}, []int{1, 2}, []int{1, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))
}

func TestOutputSize(t *testing.T) {
	// 5 elements, kernel 2, stride 2: floor gives 2 windows, ceil gives 3 (the last one partial).
	assert.Equal(t, 2, OutputSize(5, 2, 2, [2]int{}, false))
	assert.Equal(t, 3, OutputSize(5, 2, 2, [2]int{}, true))
	assert.Equal(t, 1, Overhang(5, 2, 2, [2]int{}, 3))
	assert.Equal(t, 0, Overhang(5, 2, 2, [2]int{}, 2))

	// Ceil mode: the last window can't start in the high padding.
	assert.Equal(t, 3, OutputSize(4, 2, 2, [2]int{1, 1}, true))
	assert.Equal(t, 2, OutputSize(4, 2, 3, [2]int{1, 1}, true))
	assert.Equal(t, 2, OutputSize(3, 3, 2, [2]int{0, 1}, true))

	// Kernel larger than the padded input.
	assert.Equal(t, 0, OutputSize(2, 3, 1, [2]int{}, false))

	// Window equal to the full input.
	assert.Equal(t, 1, OutputSize(4, 4, 1, [2]int{}, true))
}

func TestPaddedCounts(t *testing.T) {
	// Input 4, kernel 3, stride 1, padding (1, 1): first and last windows have 1 padded cell.
	assert.Equal(t, []float64{1, 0, 0, 1}, PaddedCounts(4, 3, 1, [2]int{1, 1}, 4))

	// Window size 1 never covers padding when it starts inside the input.
	assert.Equal(t, []float64{0, 0, 0}, PaddedCounts(3, 1, 1, [2]int{}, 3))

	// Ceil mode overhang counts as padding.
	counts := PaddedCounts(5, 2, 2, [2]int{}, 3)
	assert.Equal(t, []float64{0, 0, 1}, counts)
	AdjustCeil(counts, 2, 1)
	assert.Equal(t, []float64{0, 0, 0}, counts)

	// Overhang plus real padding: input 4, kernel 3, stride 2, padding (1, 1) in ceil mode.
	out := OutputSize(4, 3, 2, [2]int{1, 1}, true)
	require.Equal(t, 3, out)
	c := Overhang(4, 3, 2, [2]int{1, 1}, out)
	assert.Equal(t, 1, c)
	counts = AdjustCeil(PaddedCounts(4, 3, 2, [2]int{1, 1}, out), 3, c)
	assert.Equal(t, []float64{1, 0, 1.5}, counts)
}

func TestCombineCounts(t *testing.T) {
	perAxis := [][]float64{{1, 0}, {0, 2, 1}}
	kernels := []int{3, 4}
	combined := CombineCounts(perAxis, kernels)
	require.Len(t, combined, 6)
	for i, ph := range perAxis[0] {
		for j, pw := range perAxis[1] {
			// 2D inclusion-exclusion formula.
			want := 3*pw + 4*ph - ph*pw
			assert.InDelta(t, want, combined[i*3+j], 1e-12)
		}
	}

	// 1D is the identity.
	assert.Equal(t, []float64{2, 0, 1}, CombineCounts([][]float64{{2, 0, 1}}, []int{3}))

	factors := RescaleFactors([]float64{0, 1, 3}, 4)
	assert.True(t, floats.EqualApprox(factors, []float64{1, 4.0 / 3.0, 4}, 1e-12))
	assert.True(t, scalar.EqualWithinAbs(Rescale(0.5, 4, 2), 1, 1e-12))
}

// TestCeilCorrection compares the corrected average against the brute-force average of the real cells,
// emulating the windowed mean that divides by the number of cells inside the padded input.
func TestCeilCorrection(t *testing.T) {
	input := []float64{1, 2, 3, 4, 5, 6, 7}
	for kernel := 1; kernel <= 4; kernel++ {
		for stride := 1; stride <= 3; stride++ {
			for pad := 0; pad <= kernel/2; pad++ {
				pads := [2]int{pad, pad}
				n := len(input)
				out := OutputSize(n, kernel, stride, pads, true)
				c := Overhang(n, kernel, stride, pads, out)
				counts := AdjustCeil(PaddedCounts(n, kernel, stride, pads, out), kernel, c)
				factors := RescaleFactors(CombineCounts([][]float64{counts}, []int{kernel}), kernel)
				padded := n + 2*pad
				for i := range out {
					start := i * stride
					var sum, inPadded, realCells float64
					for j := start; j < start+kernel; j++ {
						if j < padded {
							inPadded++
						}
						if j >= pad && j < pad+n {
							sum += input[j-pad]
							realCells++
						}
					}
					if realCells == 0 {
						continue
					}
					got := sum / inPadded * factors[i]
					assert.InDeltaf(t, sum/realCells, got, 1e-9, "kernel=%d stride=%d pad=%d window=%d", kernel, stride, pad, i)
				}
			}
		}
	}
}
