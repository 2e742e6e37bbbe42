// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package setops

import (
	"math"
	"testing"

	"github.com/gomlx/arraycompat/backends/simplego"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backend = must.M1(simplego.New(""))

func TestUniqueAll(t *testing.T) {
	nan := float32(math.NaN())
	x := tensors.FromValue([]float32{3, 1, 3, nan, 1, nan})
	u, err := UniqueAll(backend, x)
	require.NoError(t, err)

	values := tensors.Flat[float32](u.Values)
	require.Len(t, values, 4)
	assert.Equal(t, []float32{1, 3}, values[:2])
	assert.True(t, math.IsNaN(float64(values[2])))
	assert.True(t, math.IsNaN(float64(values[3])))
	assert.Equal(t, []int64{1, 0, 3, 5}, tensors.Flat[int64](u.Indices))
	assert.Equal(t, []int64{2, 2, 1, 1}, tensors.Flat[int64](u.Counts))
	assert.Equal(t, []int64{1, 0, 1, 2, 0, 3}, tensors.Flat[int64](u.InverseIndices))
}

func TestUniqueMatrix(t *testing.T) {
	x := tensors.FromValue([][]int32{{2, 2}, {0, 5}})

	values, err := UniqueValues(backend, x)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 2, 5}, tensors.Flat[int32](values))

	values, counts, err := UniqueCounts(backend, x)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 2, 5}, tensors.Flat[int32](values))
	assert.Equal(t, []int64{1, 2, 1}, tensors.Flat[int64](counts))

	values, inverse, err := UniqueInverse(backend, x)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, inverse.Shape().Dimensions)
	assert.Equal(t, dtypes.Int64, inverse.DType())

	// values[inverse] rebuilds the input.
	flatValues := tensors.Flat[int32](values)
	rebuilt := make([]int32, 0, x.Size())
	for _, idx := range tensors.Flat[int64](inverse) {
		rebuilt = append(rebuilt, flatValues[idx])
	}
	assert.Equal(t, tensors.Flat[int32](x), rebuilt)
}

func TestUniqueEdgeCases(t *testing.T) {
	// Empty input.
	u, err := UniqueAll(backend, tensors.FromFlatDataAndDimensions([]float64{}, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, u.Values.Size())
	assert.Equal(t, dtypes.Float64, u.Values.DType())
	assert.Equal(t, 0, u.Counts.Size())
	assert.Equal(t, []int{0, 3}, u.InverseIndices.Shape().Dimensions)

	// Scalar.
	u, err = UniqueAll(backend, tensors.FromScalar(int64(7)))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, tensors.Flat[int64](u.Values))
	assert.Equal(t, []int64{1}, tensors.Flat[int64](u.Counts))
	assert.Equal(t, 0, u.InverseIndices.Rank())

	// All equal.
	values, counts, err := UniqueCounts(backend, tensors.FromValue([]uint8{4, 4, 4, 4}))
	require.NoError(t, err)
	assert.Equal(t, []uint8{4}, tensors.Flat[uint8](values))
	assert.Equal(t, []int64{4}, tensors.Flat[int64](counts))

	// Complex numbers have no order.
	_, err = UniqueValues(backend, tensors.FromValue([]complex64{1, 2i}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrUnsupportedConfiguration))
}
