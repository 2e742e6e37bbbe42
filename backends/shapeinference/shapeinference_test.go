// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapeinference

import (
	"testing"

	. "github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/stretchr/testify/require"
)

// Aliases
var (
	Bool = dtypes.Bool
	I8   = dtypes.Int8
	I32  = dtypes.Int32
	F32  = dtypes.Float32
	U64  = dtypes.Uint64
	C64  = dtypes.Complex64

	MS = shapes.Make
)

// must1 panics if there is an error.
func must1[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

func TestBinaryOp(t *testing.T) {
	var err error
	_, err = BinaryOp(OpTypeLogicalAnd, MS(I8), MS(I8))
	require.Error(t, err)
	_, err = BinaryOp(OpTypeMul, MS(Bool, 1), MS(Bool, 1))
	require.Error(t, err)
	_, err = BinaryOp(OpTypeMax, MS(C64, 1), MS(C64, 1))
	require.Error(t, err)
	_, err = BinaryOp(OpTypeAdd, MS(F32, 1), MS(I32, 1))
	require.Error(t, err)

	// Invalid operation type (not binary op).
	_, err = BinaryOp(OpTypeExp, MS(F32), MS(F32))
	require.Error(t, err)

	// Broadcasting.
	output := must1(BinaryOp(OpTypeAdd, MS(F32), MS(F32, 2, 3)))
	require.True(t, MS(F32, 2, 3).Equal(output))
	output = must1(BinaryOp(OpTypeMul, MS(F32, 5, 1, 3), MS(F32, 4, 1)))
	require.True(t, MS(F32, 5, 4, 3).Equal(output))
	_, err = BinaryOp(OpTypeSub, MS(F32, 2, 3), MS(F32, 3, 3))
	require.Error(t, err)

	output = must1(BinaryOp(OpTypeLogicalOr, MS(Bool, 3), MS(Bool)))
	require.True(t, MS(Bool, 3).Equal(output))
}

func TestComparisonOp(t *testing.T) {
	output := must1(ComparisonOp(OpTypeLessThan, MS(F32, 2), MS(F32, 3, 1)))
	require.True(t, MS(Bool, 3, 2).Equal(output))
	output = must1(ComparisonOp(OpTypeEqual, MS(Bool, 2), MS(Bool, 2)))
	require.True(t, MS(Bool, 2).Equal(output))
	_, err := ComparisonOp(OpTypeGreaterThan, MS(C64, 2), MS(C64, 2))
	require.Error(t, err)
	_, err = ComparisonOp(OpTypeAdd, MS(F32, 2), MS(F32, 2))
	require.Error(t, err)
}

func TestUnaryOp(t *testing.T) {
	require.True(t, MS(F32, 3).Equal(must1(UnaryOp(OpTypeSqrt, MS(F32, 3)))))
	require.True(t, MS(Bool, 3).Equal(must1(UnaryOp(OpTypeIsNaN, MS(F32, 3)))))
	require.True(t, MS(F32, 3).Equal(must1(UnaryOp(OpTypeAbs, MS(C64, 3)))))
	_, err := UnaryOp(OpTypeNeg, MS(U64, 3))
	require.Error(t, err)
	_, err = UnaryOp(OpTypeSqrt, MS(I32, 3))
	require.Error(t, err)
	_, err = UnaryOp(OpTypeLogicalNot, MS(I32, 3))
	require.Error(t, err)
	_, err = UnaryOp(OpTypeAdd, MS(I32, 3))
	require.Error(t, err)
}

func TestWhereOp(t *testing.T) {
	output := must1(WhereOp(MS(Bool, 2, 1), MS(F32, 3), MS(F32)))
	require.True(t, MS(F32, 2, 3).Equal(output))
	_, err := WhereOp(MS(F32, 2), MS(F32, 2), MS(F32, 2))
	require.Error(t, err)
	_, err = WhereOp(MS(Bool, 2), MS(F32, 2), MS(I32, 2))
	require.Error(t, err)
}

func TestReshapeAndTranspose(t *testing.T) {
	require.True(t, MS(F32, 6).Equal(must1(ReshapeOp(MS(F32, 2, 3), []int{6}))))
	_, err := ReshapeOp(MS(F32, 2, 3), []int{5})
	require.Error(t, err)
	_, err = ReshapeOp(MS(F32, 2, 3), []int{-1, 6})
	require.Error(t, err)

	require.True(t, MS(F32, 4, 2, 3).Equal(must1(TransposeOp(MS(F32, 2, 3, 4), []int{2, 0, 1}))))
	_, err = TransposeOp(MS(F32, 2, 3), []int{0, 0})
	require.Error(t, err)
	_, err = TransposeOp(MS(F32, 2, 3), []int{0})
	require.Error(t, err)
}

func TestBroadcastToOp(t *testing.T) {
	require.True(t, MS(F32, 2, 3, 4).Equal(must1(BroadcastToOp(MS(F32, 3, 1), []int{2, 3, 4}))))
	_, err := BroadcastToOp(MS(F32, 3, 2), []int{3, 4})
	require.Error(t, err)
	_, err = BroadcastToOp(MS(F32, 3, 2), []int{2})
	require.Error(t, err)
}

func TestConcatenateAndPad(t *testing.T) {
	output := must1(ConcatenateOp([]shapes.Shape{MS(F32, 2, 3), MS(F32, 4, 3)}, 0))
	require.True(t, MS(F32, 6, 3).Equal(output))
	_, err := ConcatenateOp([]shapes.Shape{MS(F32, 2, 3), MS(F32, 4, 2)}, 0)
	require.Error(t, err)
	_, err = ConcatenateOp([]shapes.Shape{MS(F32, 2, 3), MS(I32, 2, 3)}, 1)
	require.Error(t, err)
	_, err = ConcatenateOp(nil, 0)
	require.Error(t, err)

	require.True(t, MS(F32, 5, 3).Equal(must1(PadOp(MS(F32, 2, 3), [][2]int{{1, 2}, {0, 0}}))))
	_, err = PadOp(MS(F32, 2, 3), [][2]int{{1, 2}})
	require.Error(t, err)
	_, err = PadOp(MS(F32, 2), [][2]int{{-1, 2}})
	require.Error(t, err)
}

func TestSliceOp(t *testing.T) {
	output := must1(SliceOp(MS(F32, 10, 4), []int{1, 0}, []int{8, 4}, []int{3, 1}))
	require.True(t, MS(F32, 3, 4).Equal(output))
	output = must1(SliceOp(MS(F32, 4), []int{4}, []int{4}, []int{1}))
	require.True(t, MS(F32, 0).Equal(output))
	_, err := SliceOp(MS(F32, 4), []int{0}, []int{5}, []int{1})
	require.Error(t, err)
	_, err = SliceOp(MS(F32, 4), []int{0}, []int{4}, []int{0})
	require.Error(t, err)
}

func TestGatherAlongAxisOp(t *testing.T) {
	output := must1(GatherAlongAxisOp(MS(F32, 3, 5), MS(I32, 3, 2), 1))
	require.True(t, MS(F32, 3, 2).Equal(output))
	_, err := GatherAlongAxisOp(MS(F32, 3, 5), MS(I32, 2, 2), 1)
	require.Error(t, err)
	_, err = GatherAlongAxisOp(MS(F32, 3, 5), MS(F32, 3, 2), 1)
	require.Error(t, err)
	_, err = GatherAlongAxisOp(MS(F32, 3, 5), MS(I32, 3), 0)
	require.Error(t, err)
}

func TestArgOps(t *testing.T) {
	require.True(t, MS(I32, 2).Equal(must1(ArgMinMaxOp(MS(F32, 2, 5), 1, I32))))
	_, err := ArgMinMaxOp(MS(F32, 2, 5), 2, I32)
	require.Error(t, err)
	_, err = ArgMinMaxOp(MS(F32, 2, 5), 0, F32)
	require.Error(t, err)
	require.True(t, MS(dtypes.Int64, 2, 5).Equal(must1(ArgSortOp(MS(F32, 2, 5), 1))))
	_, err = ArgSortOp(MS(C64, 2), 0)
	require.Error(t, err)
}

func TestFFTOp(t *testing.T) {
	require.True(t, MS(C64, 2, 5).Equal(must1(FFTOp(MS(F32, 2, 8), FFTForwardReal, 1, 8))))
	require.True(t, MS(F32, 2, 8).Equal(must1(FFTOp(MS(C64, 2, 5), FFTInverseReal, 1, 8))))
	require.True(t, MS(dtypes.Complex128, 4).Equal(must1(FFTOp(MS(dtypes.Complex128, 3), FFTForward, 0, 4))))
	_, err := FFTOp(MS(F32, 4), FFTForward, 0, 4)
	require.Error(t, err)
	_, err = FFTOp(MS(C64, 4), FFTForward, 1, 4)
	require.Error(t, err)
}

func TestReduceWindowOp(t *testing.T) {
	output, strides, dilations, err := ReduceWindowOp(MS(F32, 1, 4, 4, 1), ReduceWindowConfig{
		Reduction:        ReduceOpMax,
		WindowDimensions: []int{1, 2, 2, 1},
	})
	require.NoError(t, err)
	require.True(t, MS(F32, 1, 2, 2, 1).Equal(output))
	require.Equal(t, []int{1, 2, 2, 1}, strides)
	require.Equal(t, []int{1, 1, 1, 1}, dilations)

	// Dilated window.
	output, _, _, err = ReduceWindowOp(MS(F32, 7), ReduceWindowConfig{
		Reduction:        ReduceOpSum,
		WindowDimensions: []int{3},
		Strides:          []int{1},
		WindowDilations:  []int{2},
	})
	require.NoError(t, err)
	require.True(t, MS(F32, 3).Equal(output))

	// Explicit output dimensions (ceil mode).
	output, _, _, err = ReduceWindowOp(MS(F32, 5), ReduceWindowConfig{
		Reduction:        ReduceOpMean,
		WindowDimensions: []int{2},
		Strides:          []int{2},
		OutputDimensions: []int{3},
	})
	require.NoError(t, err)
	require.True(t, MS(F32, 3).Equal(output))
	_, _, _, err = ReduceWindowOp(MS(F32, 5), ReduceWindowConfig{
		Reduction:        ReduceOpMean,
		WindowDimensions: []int{2},
		Strides:          []int{2},
		OutputDimensions: []int{4},
	})
	require.Error(t, err)

	// Window larger than input.
	_, _, _, err = ReduceWindowOp(MS(F32, 2), ReduceWindowConfig{Reduction: ReduceOpMax, WindowDimensions: []int{3}})
	require.Error(t, err)
	_, _, _, err = ReduceWindowOp(MS(Bool, 2), ReduceWindowConfig{Reduction: ReduceOpMax, WindowDimensions: []int{1}})
	require.Error(t, err)
}
