// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"testing"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParam(t *testing.T) {
	values, err := Scalar(3).Normalize(2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, values)

	values, err = Sequence(2).Normalize(3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, values)

	values, err = Sequence(1, 2, 3).Normalize(3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)

	_, err = Sequence(1, 2).Normalize(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))

	_, err = Param{}.Normalize(2)
	require.Error(t, err)
	assert.False(t, Param{}.IsSet())

	_, err = Sequence(2, 0).Positive("strides", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))
	assert.Contains(t, err.Error(), "strides")

	_, err = Sequence(2, 2, 2).Positive("kernel", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel")

	assert.Equal(t, "3", Scalar(3).String())
	assert.Equal(t, "[1 2]", Sequence(1, 2).String())

	// Sequence must not alias the caller's slice.
	input := []int{4, 5}
	p := Sequence(input...)
	input[0] = 7
	values, err = p.Normalize(2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, values)
}

func TestPadding(t *testing.T) {
	pads, err := PadInt(1).Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 1}, {1, 1}}, pads)

	pads, err = PadPair(0, 2).Resolve(3)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {0, 2}, {0, 2}}, pads)

	pads, err = PadPairs([2]int{1, 0}, [2]int{0, 1}).Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 0}, {0, 1}}, pads)

	pads, err = Padding{}.Resolve(2)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 0}, {0, 0}}, pads)

	_, err = PadPairs([2]int{1, 0}, [2]int{0, 1}).Resolve(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))

	_, err = PadInt(-1).Resolve(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))

	_, err = PadSame().Resolve(2)
	require.Error(t, err)

	p, err := ParsePadding("same")
	require.NoError(t, err)
	assert.Equal(t, Same, p.Policy())
	p, err = ParsePadding("VALID")
	require.NoError(t, err)
	assert.Equal(t, Valid, p.Policy())
	assert.Equal(t, "VALID", p.String())
	_, err = ParsePadding("full")
	require.Error(t, err)

	assert.Equal(t, Explicit, PadInt(2).Policy())
	assert.Equal(t, Explicit, PadPolicy(Explicit).Policy())
	assert.Equal(t, Same, PadPolicy(Same).Policy())
	assert.Equal(t, "(0, 2)", PadPair(0, 2).String())
}

func TestCheckKernel(t *testing.T) {
	require.NoError(t, CheckKernelPadding([]int{3, 3}, [][2]int{{1, 1}, {0, 1}}))
	err := CheckKernelPadding([]int{3, 2}, [][2]int{{1, 1}, {0, 2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrIncompatibleKernelPadding))

	require.NoError(t, CheckKernelFits([]int{4, 1}, []int{4, 3}, [][2]int{{0, 0}, {1, 1}}))
	err = CheckKernelFits([]int{4, 1}, []int{5, 3}, [][2]int{{0, 0}, {1, 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrIncompatibleKernelPadding))
}

func TestAxis(t *testing.T) {
	axis, err := Axis(-1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, axis)
	axis, err = Axis(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, axis)
	_, err = Axis(3, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidArgument))
	_, err = Axis(-4, 3)
	require.Error(t, err)

	axes, err := Axes([]int{0, -1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, axes)
	_, err = Axes([]int{2, -1}, 3)
	require.Error(t, err)
}

func TestExpandShape(t *testing.T) {
	testCases := []struct {
		name                   string
		input, target          []int
		wantReshaped, wantDims []int
	}{
		{"negative dims", []int{3, 1}, []int{-1, 4}, []int{3, 1}, []int{3, 4}},
		{"new leading axes", []int{1, 3}, []int{2, 5, 3}, []int{1, 3}, []int{2, 5, 3}},
		{"scalar to scalar", []int{}, []int{}, []int{}, []int{}},
		{"scalar to shape", []int{}, []int{2, 2}, []int{1}, []int{2, 2}},
		{"flatten larger rank", []int{1, 1, 4}, []int{3, 4}, []int{4}, []int{3, 4}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reshaped, resolved, err := ExpandShape(tc.input, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.wantReshaped, reshaped)
			assert.Equal(t, tc.wantDims, resolved)
		})
	}

	_, _, err := ExpandShape([]int{3, 2}, []int{3, 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))

	_, _, err = ExpandShape([]int{3}, []int{2, -1})
	require.Error(t, err)

	_, _, err = ExpandShape([]int{2}, []int{})
	require.Error(t, err)
}
