// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bfloat16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversions(t *testing.T) {
	for _, v := range []float32{0, 1, -2, 0.5, 256, -1024} {
		require.Equal(t, v, FromFloat32(v).Float32())
	}
	// 1+2^-8 is exactly halfway between 1 and 1+2^-7: ties to even rounds down.
	require.Equal(t, float32(1), FromFloat32(1+1.0/256).Float32())
	// Slightly above halfway rounds up.
	require.Equal(t, float32(1+1.0/128), FromFloat32(1+1.0/256+1.0/4096).Float32())
}

func TestSpecialValues(t *testing.T) {
	require.True(t, math.IsInf(float64(Inf(1).Float32()), 1))
	require.True(t, math.IsInf(float64(Inf(-1).Float32()), -1))
	require.True(t, NaN().IsNaN())
	require.True(t, FromFloat32(float32(math.NaN())).IsNaN())
	require.False(t, Inf(1).IsNaN())
	require.Equal(t, "1.5", FromFloat32(1.5).String())
}
