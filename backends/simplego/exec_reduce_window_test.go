// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"testing"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecReduceWindow(t *testing.T) {
	x := tensors.FromValue([][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}})
	y := must.M1(backend.ReduceWindow(x, backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpMax,
		WindowDimensions: []int{2, 2},
	}))
	assert.Equal(t, [][]float32{{6, 8}}, y.Value())

	y = must.M1(backend.ReduceWindow(x, backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpMean,
		WindowDimensions: []int{1, 2},
		Strides:          []int{1, 1},
	}))
	assert.Equal(t, [][]float32{{1.5, 2.5, 3.5}, {5.5, 6.5, 7.5}}, y.Value())

	y = must.M1(backend.ReduceWindow(tensors.FromValue([]int32{1, 2, 3, 4, 5}), backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpSum,
		WindowDimensions: []int{2},
		WindowDilations:  []int{2},
		Strides:          []int{1},
	}))
	assert.Equal(t, []int32{4, 6, 8}, y.Value())

	// Ceil mode: the last window only reduces the elements inside the operand.
	y = must.M1(backend.ReduceWindow(tensors.FromValue([]float64{1, 2, 3, 4, 5}), backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpMean,
		WindowDimensions: []int{2},
		OutputDimensions: []int{3},
	}))
	assert.Equal(t, []float64{1.5, 3.5, 5}, y.Value())

	y = must.M1(backend.ReduceWindow(tensors.FromValue([]uint8{3, 1, 2}), backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpMin,
		WindowDimensions: []int{3},
	}))
	assert.Equal(t, []uint8{1}, y.Value())

	_, err := backend.ReduceWindow(x, backends.ReduceWindowConfig{Reduction: backends.ReduceOpMax, WindowDimensions: []int{3, 1}})
	require.Error(t, err)
}

func TestExecReduceWindowParallel(t *testing.T) {
	const rows, cols = 64, 256
	x := tensors.FromScalarAndDimensions(float32(1), rows, cols)
	y := must.M1(backend.ReduceWindow(x, backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpSum,
		WindowDimensions: []int{1, 3},
		Strides:          []int{1, 1},
	}))
	assert.Equal(t, []int{rows, cols - 2}, y.Shape().Dimensions)
	for _, v := range y.FlatAny().([]float32) {
		require.Equal(t, float32(3), v)
	}
}
