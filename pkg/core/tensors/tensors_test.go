// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"math"
	"testing"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFlatDataAndDimensions(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	tensor := FromFlatDataAndDimensions(data, 2, 3)
	require.Equal(t, dtypes.Float32, tensor.DType())
	require.Equal(t, []int{2, 3}, tensor.Shape().Dimensions)
	require.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, tensor.Value())

	// Data is copied.
	data[0] = 100
	require.Equal(t, float32(1), Flat[float32](tensor)[0])

	require.Panics(t, func() { _ = FromFlatDataAndDimensions([]float32{1, 2}, 3) })
	require.Panics(t, func() { _ = Flat[float64](tensor) })
}

func TestGoInt(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int{1, 2, 3}, 3)
	require.True(t, tensor.DType() == dtypes.Int64 || tensor.DType() == dtypes.Int32)
	tensor = FromValue([][]int{{1, 2}, {3, 4}})
	require.Equal(t, []int{2, 2}, tensor.Shape().Dimensions)
	require.Equal(t, tensor.Size(), 4)
}

func TestFromValue(t *testing.T) {
	tensor := FromValue([][][]complex64{{{1, 2, -3}, {3, 4 + 2i, -7 - 1i}}})
	require.True(t, tensor.Shape().Equal(shapes.Make(dtypes.Complex64, 1, 2, 3)))
	require.Equal(t, complex64(4+2i), Flat[complex64](tensor)[4])

	scalar := FromValue(float64(7))
	require.True(t, scalar.IsScalar())
	require.Equal(t, 7.0, ToScalar[float64](scalar))
	require.Equal(t, 7.0, scalar.Value())

	require.Panics(t, func() { _ = FromValue([][]float32{{1, 2, 3}, {4, 5}}) })
}

func TestFromShapeAndScalar(t *testing.T) {
	zeros := FromShape(shapes.Make(dtypes.Int8, 2, 2))
	require.Equal(t, []int8{0, 0, 0, 0}, Flat[int8](zeros))

	sevens := FromScalarAndDimensions(uint16(7), 3)
	require.Equal(t, []uint16{7, 7, 7}, Flat[uint16](sevens))

	empty := FromShape(shapes.Make(dtypes.Float32, 0, 3))
	require.Equal(t, 0, empty.Size())
	require.Equal(t, "(Float32)[0 3]", empty.String())
}

func TestFromFlatAny(t *testing.T) {
	tensor, err := FromFlatAny(shapes.Make(dtypes.Float64, 2), []float64{1, 2})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, tensor.Value())

	_, err = FromFlatAny(shapes.Make(dtypes.Float64, 3), []float64{1, 2})
	require.Error(t, err)
	_, err = FromFlatAny(shapes.Make(dtypes.Float32, 2), []float64{1, 2})
	require.Error(t, err)
}

func TestCopyFrom(t *testing.T) {
	out := FromShape(shapes.Make(dtypes.Float32, 2))
	src := FromValue([]float32{3, 4})
	require.NoError(t, out.CopyFrom(src))
	require.Equal(t, []float32{3, 4}, out.Value())

	require.Error(t, out.CopyFrom(FromValue([]float32{1, 2, 3})))
	require.Error(t, out.CopyFrom(FromValue([]float64{1, 2})))
}

func TestEqualAndInDelta(t *testing.T) {
	a := FromValue([]float32{1, 2, float32(math.NaN())})
	b := FromValue([]float32{1, 2.001, float32(math.NaN())})
	assert.False(t, a.Equal(b))
	assert.True(t, a.InDelta(b, 0.01))
	assert.False(t, a.InDelta(b, 0.0001))
	assert.True(t, a.Equal(a))
	assert.True(t, a.Clone().InDelta(a, 0))
	assert.False(t, a.InDelta(FromValue([]float64{1, 2, 3}), 1))
}

func TestString(t *testing.T) {
	require.Equal(t, "(Int32)[2 2]{{1, 2},\n {3, 4}}", FromValue([][]int32{{1, 2}, {3, 4}}).String())
	require.Equal(t, "(Float32)(1.5)", FromScalar(float32(1.5)).String())
	require.Equal(t, "(Int32)[8]{0, 1, 2, ..., 5, 6, 7}",
		FromValue([]int32{0, 1, 2, 3, 4, 5, 6, 7}).String())
}
