// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"math"
	"testing"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecUnary(t *testing.T) {
	x := tensors.FromValue([]float32{-1, 0, 4})
	y := must.M1(backend.Unary(backends.OpTypeAbs, x))
	assert.Equal(t, []float32{1, 0, 4}, y.Value())
	y = must.M1(backend.Unary(backends.OpTypeSqrt, tensors.FromValue([]float64{4, 9})))
	assert.Equal(t, []float64{2, 3}, y.Value())
	y = must.M1(backend.Unary(backends.OpTypeSign, tensors.FromValue([]int32{-7, 0, 3})))
	assert.Equal(t, []int32{-1, 0, 1}, y.Value())
	y = must.M1(backend.Unary(backends.OpTypeIsNaN, tensors.FromValue([]float32{1, float32(math.NaN())})))
	assert.Equal(t, []bool{false, true}, y.Value())
	y = must.M1(backend.Unary(backends.OpTypeLogicalNot, tensors.FromValue([]bool{true, false})))
	assert.Equal(t, []bool{false, true}, y.Value())

	// Abs of complex numbers returns the real dtype.
	y = must.M1(backend.Unary(backends.OpTypeAbs, tensors.FromValue([]complex64{3 + 4i})))
	assert.Equal(t, dtypes.Float32, y.DType())
	assert.Equal(t, []float32{5}, y.Value())

	// The operand is not modified.
	assert.Equal(t, []float32{-1, 0, 4}, x.Value())

	_, err := backend.Unary(backends.OpTypeSqrt, tensors.FromValue([]int32{4}))
	require.Error(t, err)
}

func TestExecBinary(t *testing.T) {
	y := must.M1(backend.Binary(backends.OpTypeAdd,
		tensors.FromValue([][]float32{{1}, {2}}), tensors.FromValue([]float32{10, 20, 30})))
	assert.Equal(t, [][]float32{{11, 21, 31}, {12, 22, 32}}, y.Value())

	nan := math.NaN()
	y = must.M1(backend.Binary(backends.OpTypeMax, tensors.FromValue([]float64{1, nan, 3}), tensors.FromValue([]float64{2, 0, nan})))
	values := y.Value().([]float64)
	assert.Equal(t, 2.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.True(t, math.IsNaN(values[2]))

	y = must.M1(backend.Binary(backends.OpTypeDiv, tensors.FromValue([]int32{7, -7, 5}), tensors.FromValue([]int32{2, 2, 0})))
	assert.Equal(t, []int32{3, -3, 0}, y.Value())

	y = must.M1(backend.Binary(backends.OpTypePow, tensors.FromValue([]int64{2, -1, 2}), tensors.FromValue([]int64{10, -3, -1})))
	assert.Equal(t, []int64{1024, -1, 0}, y.Value())

	y = must.M1(backend.Binary(backends.OpTypeLessThan, tensors.FromValue([]uint8{1, 5}), tensors.FromScalar(uint8(3))))
	assert.Equal(t, dtypes.Bool, y.DType())
	assert.Equal(t, []bool{true, false}, y.Value())

	y = must.M1(backend.Binary(backends.OpTypeEqual, tensors.FromValue([]complex128{1i, 2}), tensors.FromValue([]complex128{1i, 2i})))
	assert.Equal(t, []bool{true, false}, y.Value())

	y = must.M1(backend.Binary(backends.OpTypeLogicalAnd, tensors.FromValue([]bool{true, true}), tensors.FromValue([]bool{false, true})))
	assert.Equal(t, []bool{false, true}, y.Value())

	_, err := backend.Binary(backends.OpTypeAdd, tensors.FromValue([]int32{1}), tensors.FromValue([]float32{1}))
	require.Error(t, err)
	_, err = backend.Binary(backends.OpTypeLessThan, tensors.FromValue([]complex64{1}), tensors.FromValue([]complex64{1}))
	require.Error(t, err)
}

func TestExecComplexParts(t *testing.T) {
	x := tensors.FromValue([]complex64{1 + 2i, -3i})
	assert.Equal(t, []float32{1, 0}, must.M1(backend.Real(x)).Value())
	assert.Equal(t, []float32{2, -3}, must.M1(backend.Imag(x)).Value())

	f := tensors.FromValue([]float64{1, 2})
	assert.Equal(t, []float64{0, 0}, must.M1(backend.Imag(f)).Value())
	assert.Equal(t, []complex128{1 + 1i, 2 + 2i}, must.M1(backend.Complex(f, f)).Value())

	_, err := backend.Real(tensors.FromValue([]int32{1}))
	require.Error(t, err)
}
