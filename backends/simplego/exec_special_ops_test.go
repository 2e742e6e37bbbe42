// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"math"
	"testing"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/dtypes/bfloat16"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestExecSpecialOps_ConvertDType(t *testing.T) {
	x := tensors.FromValue([]float32{300, -300, 1.7, -1.7, float32(math.NaN())})
	y := must.M1(backend.ConvertDType(x, dtypes.Int8))
	assert.Equal(t, []int8{127, -128, 1, -1, 0}, y.Value())
	y = must.M1(backend.ConvertDType(x, dtypes.Uint8))
	assert.Equal(t, []uint8{255, 0, 1, 0, 0}, y.Value())
	y = must.M1(backend.ConvertDType(x, dtypes.Bool))
	assert.Equal(t, []bool{true, true, true, true, true}, y.Value())

	// Integer conversions wrap around.
	y = must.M1(backend.ConvertDType(tensors.FromValue([]int32{259, -1}), dtypes.Uint8))
	assert.Equal(t, []uint8{3, 255}, y.Value())

	y = must.M1(backend.ConvertDType(tensors.FromValue([]bool{true, false}), dtypes.Float16))
	assert.Equal(t, []float16.Float16{float16.Fromfloat32(1), float16.Fromfloat32(0)}, y.Value())

	y = must.M1(backend.ConvertDType(tensors.FromValue([]float64{1.5, -2}), dtypes.Complex64))
	assert.Equal(t, []complex64{1.5, -2}, y.Value())

	y = must.M1(backend.ConvertDType(tensors.FromValue([]complex128{3 + 4i}), dtypes.Float32))
	assert.Equal(t, []float32{3}, y.Value())

	y = must.M1(backend.ConvertDType(tensors.FromValue([]float32{1, 2.5}), dtypes.BFloat16))
	assert.Equal(t, []bfloat16.BFloat16{bfloat16.FromFloat32(1), bfloat16.FromFloat32(2.5)}, y.Value())

	// Same dtype is a no-op.
	z := tensors.FromValue([][]float32{{1.5, -2}, {0, 7}})
	y = must.M1(backend.ConvertDType(z, dtypes.Float32))
	assert.Equal(t, dtypes.Float32, y.DType())
	assert.True(t, z.Equal(y))
	y = must.M1(backend.ConvertDType(x, dtypes.Float32))
	assert.Equal(t, []int{5}, y.Shape().Dimensions)
	assert.True(t, math.IsNaN(float64(tensors.Flat[float32](y)[4])))

	_, err := backend.ConvertDType(x, dtypes.InvalidDType)
	require.Error(t, err)
}

func TestExecSpecialOps_Full(t *testing.T) {
	y := must.M1(backend.Full(shapes.Make(dtypes.Int16, 2, 3), 7))
	assert.Equal(t, [][]int16{{7, 7, 7}, {7, 7, 7}}, y.Value())
	y = must.M1(backend.Full(shapes.Make(dtypes.Float32), math.Inf(-1)))
	assert.Equal(t, float32(math.Inf(-1)), y.Value())
	y = must.M1(backend.Full(shapes.Make(dtypes.Uint64, 2), uint64(math.MaxUint64)))
	assert.Equal(t, []uint64{math.MaxUint64, math.MaxUint64}, y.Value())
	y = must.M1(backend.Full(shapes.Make(dtypes.Bool, 1), true))
	assert.Equal(t, []bool{true}, y.Value())
	_, err := backend.Full(shapes.Make(dtypes.Float32, 1), "x")
	require.Error(t, err)
}

func TestExecSpecialOps_Reshape(t *testing.T) {
	y := must.M1(backend.Reshape(tensors.FromValue([]int32{42, 0, 1, 2}), 2, 2))
	assert.Equal(t, [][]int32{{42, 0}, {1, 2}}, y.Value())
	_, err := backend.Reshape(tensors.FromValue([]int32{42, 0, 1, 2}), 3)
	require.Error(t, err)
}

func TestExecSpecialOps_Transpose(t *testing.T) {
	x := tensors.FromValue([][][]float32{{{1, 2, 3}, {4, 5, 6}}})
	y := must.M1(backend.Transpose(x, 2, 0, 1))
	assert.Equal(t, [][][]float32{{{1, 4}}, {{2, 5}}, {{3, 6}}}, y.Value())
	_, err := backend.Transpose(x, 0, 0, 1)
	require.Error(t, err)
}

func TestExecSpecialOps_BroadcastTo(t *testing.T) {
	y := must.M1(backend.BroadcastTo(tensors.FromValue([][]int64{{1}, {2}}), 3, 2, 2))
	assert.Equal(t, [][][]int64{{{1, 1}, {2, 2}}, {{1, 1}, {2, 2}}, {{1, 1}, {2, 2}}}, y.Value())
	_, err := backend.BroadcastTo(tensors.FromValue([]int64{1, 2}), 3)
	require.Error(t, err)
}

func TestExecSpecialOps_Slice(t *testing.T) {
	x := tensors.FromValue([][]int32{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}})
	y := must.M1(backend.Slice(x, []int{1, 0}, []int{3, 4}, []int{1, 2}))
	assert.Equal(t, [][]int32{{4, 6}, {8, 10}}, y.Value())
	y = must.M1(backend.Slice(x, []int{0, 4}, []int{3, 4}, []int{1, 1}))
	assert.Equal(t, []int{3, 0}, y.Shape().Dimensions)
}

func TestExecSpecialOps_Reverse(t *testing.T) {
	x := tensors.FromValue([][]int32{{0, 1, 2}, {3, 4, 5}})
	y := must.M1(backend.Reverse(x, 1))
	assert.Equal(t, [][]int32{{2, 1, 0}, {5, 4, 3}}, y.Value())
	y = must.M1(backend.Reverse(x, 0, 1))
	assert.Equal(t, [][]int32{{5, 4, 3}, {2, 1, 0}}, y.Value())
}

func TestExecSpecialOps_Pad(t *testing.T) {
	x := tensors.FromValue([][]float32{{1, 2}, {3, 4}})
	y := must.M1(backend.Pad(x, math.Inf(-1), [][2]int{{1, 0}, {0, 1}}))
	inf := float32(math.Inf(-1))
	assert.Equal(t, [][]float32{{inf, inf, inf}, {1, 2, inf}, {3, 4, inf}}, y.Value())

	y = must.M1(backend.Pad(tensors.FromValue([]uint8{5}), 0, [][2]int{{2, 1}}))
	assert.Equal(t, []uint8{0, 0, 5, 0}, y.Value())

	_, err := backend.Pad(x, 0, [][2]int{{1, 0}})
	require.Error(t, err)
}

func TestExecSpecialOps_Concatenate(t *testing.T) {
	a := tensors.FromValue([][]int32{{1, 2}, {3, 4}})
	b := tensors.FromValue([][]int32{{5}, {6}})
	y := must.M1(backend.Concatenate(1, a, b))
	assert.Equal(t, [][]int32{{1, 2, 5}, {3, 4, 6}}, y.Value())

	c := tensors.FromValue([][]int32{{7, 8}})
	y = must.M1(backend.Concatenate(0, a, c))
	assert.Equal(t, [][]int32{{1, 2}, {3, 4}, {7, 8}}, y.Value())

	// Inputs are not modified.
	assert.Equal(t, [][]int32{{1, 2}, {3, 4}}, a.Value())

	_, err := backend.Concatenate(0, a, b)
	require.Error(t, err)
	_, err = backend.Concatenate(0, a, tensors.FromValue([][]float32{{1, 2}}))
	require.Error(t, err)
}

func TestExecSpecialOps_Where(t *testing.T) {
	y := must.M1(backend.Where(tensors.FromValue([]bool{false, true, true}),
		tensors.FromValue([]float32{1, 2, 3}), tensors.FromValue([]float32{101, 102, 103})))
	assert.Equal(t, []float32{101, 2, 3}, y.Value())

	// Broadcasting condition and values.
	y = must.M1(backend.Where(tensors.FromValue([][]bool{{true}, {false}}),
		tensors.FromValue([]int32{1, 2}), tensors.FromScalar(int32(0))))
	assert.Equal(t, [][]int32{{1, 2}, {0, 0}}, y.Value())

	_, err := backend.Where(tensors.FromValue([]int32{1}), tensors.FromValue([]int32{1}), tensors.FromValue([]int32{1}))
	require.Error(t, err)
}

func TestExecSpecialOps_GatherAlongAxis(t *testing.T) {
	x := tensors.FromValue([][]float64{{10, 20, 30}, {40, 50, 60}})
	y := must.M1(backend.GatherAlongAxis(x, tensors.FromValue([][]int32{{2, 0}, {1, 1}}), 1))
	assert.Equal(t, [][]float64{{30, 10}, {50, 50}}, y.Value())

	y = must.M1(backend.GatherAlongAxis(x, tensors.FromValue([][]int64{{1, 0, 1}}), 0))
	assert.Equal(t, [][]float64{{40, 20, 60}}, y.Value())

	_, err := backend.GatherAlongAxis(x, tensors.FromValue([][]int32{{3}, {0}}), 1)
	require.Error(t, err)
	_, err = backend.GatherAlongAxis(x, tensors.FromValue([]int32{0}), 0)
	require.Error(t, err)
}
