// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"flag"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt(t *testing.T) {
	slice := []int{0, 1, 2, 3, 4, 5}
	assert.Equal(t, 5, At(slice, -1))
	assert.Equal(t, 0, At(slice, 0))
	assert.Equal(t, 5, Last(slice))
}

func TestIotaAndProduct(t *testing.T) {
	require.Equal(t, []float64{3, 4}, Iota(3.0, 2))
	require.Equal(t, 24, Product(Iota(1, 4)))
	require.Equal(t, 1, Product([]int(nil)))
}

func TestSlicesInDelta(t *testing.T) {
	require.True(t, SlicesInDelta([][]float32{{1, 2}, {3, 4}}, [][]float32{{1, 2.001}, {3, 4}}, 0.01))
	require.False(t, SlicesInDelta([][]float32{{1, 2}, {3, 4}}, [][]float32{{1, 2.1}, {3, 4}}, 0.01))
	require.False(t, SlicesInDelta([]float32{1, 2}, []float32{1, 2, 3}, 0.01))
	require.True(t, SlicesInDelta([]float64{math.NaN()}, []float64{math.NaN()}, 0))
	require.True(t, SlicesInDelta([]complex64{1 + 1i}, []complex64{1 + 1.0001i}, 0.001))
	require.False(t, SlicesInDelta([]float32{1}, []float64{1}, 0.1))
}

func TestFlagSet(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	window := FlagSet(fs, "window", []int{2}, "window size", strconv.Atoi)
	require.NoError(t, fs.Parse([]string{"-window=3, 4"}))
	require.Equal(t, []int{3, 4}, *window)
	require.Error(t, fs.Parse([]string{"-window=a"}))
}
