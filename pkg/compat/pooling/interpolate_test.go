// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pooling

import (
	"testing"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterpolationMode(t *testing.T) {
	for _, mode := range []InterpolationMode{Linear, Bilinear, Trilinear, Nearest, NearestExact, Area} {
		got, err := ParseInterpolationMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	got, err := ParseInterpolationMode(" Nearest_Exact ")
	require.NoError(t, err)
	assert.Equal(t, NearestExact, got)

	_, err = ParseInterpolationMode("bicubic")
	assert.True(t, errors.Is(err, compat.ErrUnsupportedConfiguration), "got %v", err)
	_, err = ParseInterpolationMode("cubist")
	assert.True(t, errors.Is(err, compat.ErrInvalidArgument), "got %v", err)
}

func TestInterpolateNearest(t *testing.T) {
	x := tensors.FromValue([][][]int32{{{1, 2, 3, 4}}})
	got, err := Interpolate(backend, x).Mode(Nearest).Size(2).Done()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, got.Shape().Dimensions)
	assert.Equal(t, []int32{1, 3}, tensors.Flat[int32](got))

	got, err = Interpolate(backend, x).Mode(Nearest).Size(8).Done()
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 1, 2, 2, 3, 3, 4, 4}, tensors.Flat[int32](got))

	got, err = Interpolate(backend, x).Mode(Nearest).ScaleFactor(0.5).Done()
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 3}, tensors.Flat[int32](got))

	// Nearest takes floor(dst*scale), NearestExact the nearest pixel center.
	x3 := tensors.FromValue([][][]float32{{{1, 2, 3}}})
	got, err = Interpolate(backend, x3).Mode(Nearest).Size(2).Done()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, tensors.Flat[float32](got))
	got, err = Interpolate(backend, x3).Mode(NearestExact).Size(2).Done()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 3}, tensors.Flat[float32](got))

	// Two spatial axes.
	x2d := tensors.FromValue([][][][]float32{{{{1, 2}, {3, 4}}}})
	got, err = Interpolate(backend, x2d).Mode(Nearest).Size(2, 4).Done()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 4}, got.Shape().Dimensions)
	assert.Equal(t, []float32{1, 1, 2, 2, 3, 3, 4, 4}, tensors.Flat[float32](got))
}

func TestInterpolateLinear(t *testing.T) {
	x := tensors.FromValue([][][]float32{{{0, 10}}})
	got, err := Interpolate(backend, x).Size(4).Done()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 4}, got.Shape().Dimensions)
	assert.InDeltaSlice(t, []float32{0, 2.5, 7.5, 10}, tensors.Flat[float32](got), 1e-5)

	got, err = Interpolate(backend, x).Size(3).AlignCorners(true).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 5, 10}, tensors.Flat[float32](got), 1e-5)

	// The scale factor maps the coordinates, unless recomputed from the sizes.
	got, err = Interpolate(backend, x).ScaleFactor(2.25).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 15.0 / 9, 55.0 / 9, 10}, tensors.Flat[float32](got), 1e-4)
	got, err = Interpolate(backend, x).ScaleFactor(2.25).RecomputeScaleFactor(true).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 2.5, 7.5, 10}, tensors.Flat[float32](got), 1e-5)

	x2d := tensors.FromValue([][][][]float64{{{{0, 10}, {20, 30}}}})
	got, err = Interpolate(backend, x2d).Mode(Bilinear).Size(3).AlignCorners(true).Done()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 3, 3}, got.Shape().Dimensions)
	assert.InDeltaSlice(t, []float64{0, 5, 10, 10, 15, 20, 20, 25, 30}, tensors.Flat[float64](got), 1e-9)

	x3d := tensors.FromScalarAndDimensions(float32(2), 1, 2, 2, 2, 2)
	got, err = Interpolate(backend, x3d).Mode(Trilinear).ScaleFactor(1.5).Done()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 3, 3}, got.Shape().Dimensions)
	assert.InDeltaSlice(t, tensors.Flat[float32](tensors.FromScalarAndDimensions(float32(2), 54)),
		tensors.Flat[float32](got), 1e-5)
}

func TestInterpolateArea(t *testing.T) {
	x := tensors.FromValue([][][]float32{{{1, 2, 3, 4}}})
	got, err := Interpolate(backend, x).Mode(Area).Size(2).Done()
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 3.5}, tensors.Flat[float32](got))

	got, err = Interpolate(backend, x).Mode(Area).Size(8).Done()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 2, 2, 3, 3, 4, 4}, tensors.Flat[float32](got))
}

func TestInterpolateErrors(t *testing.T) {
	x := tensors.FromValue([][][]float32{{{1, 2, 3, 4}}})
	x2d := tensors.FromValue([][][][]float32{{{{1, 2}, {3, 4}}}})
	for _, tc := range []struct {
		name    string
		builder *InterpolationBuilder
		want    error
	}{
		{"size and scale_factor", Interpolate(backend, x).Size(2).ScaleFactor(2), compat.ErrInvalidArgument},
		{"no size", Interpolate(backend, x), compat.ErrInvalidArgument},
		{"linear on 2 axes", Interpolate(backend, x2d).Size(3), compat.ErrRankMismatch},
		{"bilinear on 1 axis", Interpolate(backend, x).Mode(Bilinear).Size(3), compat.ErrRankMismatch},
		{"rank 2", Interpolate(backend, tensors.FromValue([][]float32{{1, 2}})).Mode(Nearest).Size(3), compat.ErrRankMismatch},
		{"antialias", Interpolate(backend, x).Size(2).Antialias(true), compat.ErrUnsupportedConfiguration},
		{"align corners", Interpolate(backend, x).Mode(Nearest).Size(2).AlignCorners(true), compat.ErrInvalidArgument},
		{"linear ints", Interpolate(backend, tensors.FromValue([][][]int32{{{1, 2}}})).Size(3), compat.ErrUnsupportedConfiguration},
		{"too many sizes", Interpolate(backend, x).Size(2, 2), compat.ErrInvalidParameterShape},
		{"empty output", Interpolate(backend, x).Mode(Nearest).ScaleFactor(0.1), compat.ErrInvalidParameterShape},
		{"negative scale", Interpolate(backend, x).ScaleFactor(-1), compat.ErrInvalidArgument},
		{"invalid mode", Interpolate(backend, x).Mode(InterpolationMode(17)).Size(2), compat.ErrInvalidArgument},
	} {
		_, err := tc.builder.Done()
		assert.True(t, errors.Is(err, tc.want), "%s: got %v", tc.name, err)
	}
}
