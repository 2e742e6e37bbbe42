// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"math"
	"math/cmplx"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/backends/shapeinference"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/pkg/errors"
)

var (
	floatUnaryOps = map[backends.OpType]func(float64) float64{
		backends.OpTypeAbs:   math.Abs,
		backends.OpTypeNeg:   func(x float64) float64 { return -x },
		backends.OpTypeSign:  signFloat,
		backends.OpTypeSqrt:  math.Sqrt,
		backends.OpTypeExp:   math.Exp,
		backends.OpTypeLog:   math.Log,
		backends.OpTypeSin:   math.Sin,
		backends.OpTypeCos:   math.Cos,
		backends.OpTypeAcos:  math.Acos,
		backends.OpTypeAsin:  math.Asin,
		backends.OpTypeAtan:  math.Atan,
		backends.OpTypeFloor: math.Floor,
		backends.OpTypeCeil:  math.Ceil,
		backends.OpTypeConj:  func(x float64) float64 { return x },
	}

	complexUnaryOps = map[backends.OpType]func(complex128) complex128{
		backends.OpTypeNeg:  func(x complex128) complex128 { return -x },
		backends.OpTypeSign: signComplex,
		backends.OpTypeSqrt: cmplx.Sqrt,
		backends.OpTypeExp:  cmplx.Exp,
		backends.OpTypeLog:  cmplx.Log,
		backends.OpTypeSin:  cmplx.Sin,
		backends.OpTypeCos:  cmplx.Cos,
		backends.OpTypeAcos: cmplx.Acos,
		backends.OpTypeAsin: cmplx.Asin,
		backends.OpTypeConj: cmplx.Conj,
	}

	signedUnaryOps = map[backends.OpType]func(int64) int64{
		backends.OpTypeAbs: func(x int64) int64 {
			if x < 0 {
				return -x
			}
			return x
		},
		backends.OpTypeNeg:   func(x int64) int64 { return -x },
		backends.OpTypeSign:  signInt[int64],
		backends.OpTypeFloor: func(x int64) int64 { return x },
		backends.OpTypeCeil:  func(x int64) int64 { return x },
	}

	unsignedUnaryOps = map[backends.OpType]func(uint64) uint64{
		backends.OpTypeAbs:   func(x uint64) uint64 { return x },
		backends.OpTypeSign:  signInt[uint64],
		backends.OpTypeFloor: func(x uint64) uint64 { return x },
		backends.OpTypeCeil:  func(x uint64) uint64 { return x },
	}
)

func signFloat(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return x
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func signComplex(x complex128) complex128 {
	if x == 0 {
		return 0
	}
	return x / complex(cmplx.Abs(x), 0)
}

func signInt[T int64 | uint64](x T) T {
	switch {
	case x > 0:
		return 1
	case x == 0:
		return 0
	}
	return ^T(0) // -1 for signed integers.
}

// Unary implements backends.Primitives.
func (b *Backend) Unary(op backends.OpType, operand *tensors.Tensor) (*tensors.Tensor, error) {
	output, err := shapeinference.UnaryOp(op, operand.Shape())
	if err != nil {
		return nil, err
	}
	dtype := operand.DType()
	flat := operand.FlatAny()
	notImplemented := errors.Wrapf(backends.ErrNotImplemented, "simplego: Unary(%s) for %s", op, dtype)
	switch laneOf(dtype) {
	case laneBool:
		if op != backends.OpTypeLogicalNot {
			return nil, notImplemented
		}
		return newTensor(output, xslices.Map(boolsOf(flat), func(v bool) bool { return !v }))

	case laneFloat:
		values := float64sOf(flat)
		if op == backends.OpTypeIsNaN {
			return newTensor(output, xslices.Map(values, math.IsNaN))
		}
		fn, found := floatUnaryOps[op]
		if !found {
			return nil, notImplemented
		}
		for ii, v := range values {
			values[ii] = fn(v)
		}
		return newTensor(output, fromFloat64s(values, dtype))

	case laneComplex:
		values := complex128sOf(flat)
		if op == backends.OpTypeAbs {
			return newTensor(output, fromFloat64s(xslices.Map(values, cmplx.Abs), output.DType))
		}
		fn, found := complexUnaryOps[op]
		if !found {
			return nil, notImplemented
		}
		for ii, v := range values {
			values[ii] = fn(v)
		}
		return newTensor(output, fromComplex128s(values, dtype))

	case laneSigned:
		return unaryLane(output, int64sOf(flat), signedUnaryOps[op], fromInt64s, notImplemented)

	default:
		return unaryLane(output, uint64sOf(flat), unsignedUnaryOps[op], fromUint64s, notImplemented)
	}
}

func unaryLane[T laneConstraints](output shapes.Shape, values []T, fn func(T) T,
	writer func([]T, dtypes.DType) any, notImplemented error) (*tensors.Tensor, error) {
	if fn == nil {
		return nil, notImplemented
	}
	for ii, v := range values {
		values[ii] = fn(v)
	}
	return newTensor(output, writer(values, output.DType))
}
