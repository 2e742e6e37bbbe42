// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"slices"
	"testing"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(dtypes.Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))

	shape1 := Make(dtypes.Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 3, shape1.Rank())
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, int(shape1.Memory()))
	require.Equal(t, "(Float32)[4 3 2]", shape1.String())

	empty := Make(dtypes.Int32, 3, 0)
	require.True(t, empty.IsZeroSize())
	require.Equal(t, 0, empty.Size())

	require.Panics(t, func() { _ = Make(dtypes.Float32, 2, -1) })
}

func TestDim(t *testing.T) {
	shape := Make(dtypes.Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 2, shape.Dim(2))
	require.Equal(t, 4, shape.Dim(-3))
	require.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestShape_Strides(t *testing.T) {
	require.Equal(t, []int{12, 4, 1}, Make(dtypes.Float32, 2, 3, 4).Strides())
	require.Equal(t, []int{1}, Make(dtypes.Float32, 5).Strides())
	require.Equal(t, []int{2, 2, 1}, Make(dtypes.Float32, 3, 1, 2).Strides())
	require.Nil(t, Make(dtypes.Float32).Strides())
	require.Equal(t, 23, Make(dtypes.Float32, 2, 3, 4).FlatIndex([]int{1, 2, 3}))
}

func TestShape_Iter(t *testing.T) {
	shape := Make(dtypes.Float64, 3, 2)
	var collect [][]int
	var counter int
	for flatIdx, indices := range shape.Iter() {
		collect = append(collect, slices.Clone(indices))
		require.Equal(t, counter, flatIdx)
		counter++
	}
	require.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}, collect)

	// Scalar yields exactly once, zero-sized shapes never.
	counter = 0
	for range Make(dtypes.Float32).Iter() {
		counter++
	}
	require.Equal(t, 1, counter)
	for range Make(dtypes.Float32, 2, 0).Iter() {
		t.Fatal("zero-sized shape should not yield")
	}
}

func TestShape_IterOnAxes(t *testing.T) {
	shape := Make(dtypes.Float32, 2, 3, 4)
	var collect [][]int
	var flatIndices []int
	indices := make([]int, 3)
	indices[1] = 1
	for flatIdx, indicesResult := range shape.IterOnAxes([]int{0, 2}, nil, indices) {
		collect = append(collect, slices.Clone(indicesResult))
		flatIndices = append(flatIndices, flatIdx)
	}
	require.Equal(t, [][]int{
		{0, 1, 0}, {0, 1, 1}, {0, 1, 2}, {0, 1, 3},
		{1, 1, 0}, {1, 1, 1}, {1, 1, 2}, {1, 1, 3},
	}, collect)
	require.Equal(t, []int{4, 5, 6, 7, 16, 17, 18, 19}, flatIndices)
}

func TestBroadcastDimensions(t *testing.T) {
	got, err := BroadcastDimensions([]int{5, 1, 3}, []int{1, 4, 1})
	require.NoError(t, err)
	require.Equal(t, []int{5, 4, 3}, got)

	got, err = BroadcastDimensions([]int{3}, []int{2, 1})
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, got)

	got, err = BroadcastDimensions(nil, []int{2, 0})
	require.NoError(t, err)
	require.Equal(t, []int{2, 0}, got)

	_, err = BroadcastDimensions([]int{2, 3}, []int{4, 3})
	require.Error(t, err)

	_, err = BroadcastShapes(Make(dtypes.Float32, 2), Make(dtypes.Int32, 2))
	require.Error(t, err)
}
