// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"math"
	"math/cmplx"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/backends/shapeinference"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

var (
	floatBinaryOps = map[backends.OpType]func(a, b float64) float64{
		backends.OpTypeAdd: func(a, b float64) float64 { return a + b },
		backends.OpTypeSub: func(a, b float64) float64 { return a - b },
		backends.OpTypeMul: func(a, b float64) float64 { return a * b },
		backends.OpTypeDiv: func(a, b float64) float64 { return a / b },
		backends.OpTypeMax: maxNaN[float64],
		backends.OpTypeMin: minNaN[float64],
		backends.OpTypePow: math.Pow,
	}

	complexBinaryOps = map[backends.OpType]func(a, b complex128) complex128{
		backends.OpTypeAdd: func(a, b complex128) complex128 { return a + b },
		backends.OpTypeSub: func(a, b complex128) complex128 { return a - b },
		backends.OpTypeMul: func(a, b complex128) complex128 { return a * b },
		backends.OpTypeDiv: func(a, b complex128) complex128 { return a / b },
		backends.OpTypePow: cmplx.Pow,
	}

	signedBinaryOps = map[backends.OpType]func(a, b int64) int64{
		backends.OpTypeAdd: func(a, b int64) int64 { return a + b },
		backends.OpTypeSub: func(a, b int64) int64 { return a - b },
		backends.OpTypeMul: func(a, b int64) int64 { return a * b },
		backends.OpTypeDiv: divInt[int64],
		backends.OpTypeMax: maxNaN[int64],
		backends.OpTypeMin: minNaN[int64],
		backends.OpTypePow: powSigned,
	}

	unsignedBinaryOps = map[backends.OpType]func(a, b uint64) uint64{
		backends.OpTypeAdd: func(a, b uint64) uint64 { return a + b },
		backends.OpTypeSub: func(a, b uint64) uint64 { return a - b },
		backends.OpTypeMul: func(a, b uint64) uint64 { return a * b },
		backends.OpTypeDiv: divInt[uint64],
		backends.OpTypeMax: maxNaN[uint64],
		backends.OpTypeMin: minNaN[uint64],
		backends.OpTypePow: powBySquaring[uint64],
	}

	boolBinaryOps = map[backends.OpType]func(a, b bool) bool{
		backends.OpTypeLogicalAnd: func(a, b bool) bool { return a && b },
		backends.OpTypeLogicalOr:  func(a, b bool) bool { return a || b },
		backends.OpTypeEqual:      func(a, b bool) bool { return a == b },
		backends.OpTypeNotEqual:   func(a, b bool) bool { return a != b },
	}
)

// maxNaN returns the largest value, propagating NaNs.
func maxNaN[T orderedLaneConstraints](a, b T) T {
	if isNaN(a) || a >= b {
		return a
	}
	return b
}

// minNaN returns the smallest value, propagating NaNs.
func minNaN[T orderedLaneConstraints](a, b T) T {
	if isNaN(a) || a <= b {
		return a
	}
	return b
}

// divInt is the integer division truncated towards zero. Division by zero returns 0.
func divInt[T int64 | uint64](a, b T) T {
	if b == 0 {
		return 0
	}
	return a / b
}

func powBySquaring[T int64 | uint64](base, exponent T) T {
	result := T(1)
	for exponent > 0 {
		if exponent&1 == 1 {
			result *= base
		}
		base *= base
		exponent >>= 1
	}
	return result
}

// powSigned is the integer power: negative exponents yield 0, except for bases 1 and -1.
func powSigned(base, exponent int64) int64 {
	if exponent >= 0 {
		return powBySquaring(base, exponent)
	}
	switch base {
	case 1:
		return 1
	case -1:
		if exponent%2 == 0 {
			return 1
		}
		return -1
	}
	return 0
}

func compareOrdered[T orderedLaneConstraints](op backends.OpType) func(a, b T) bool {
	switch op {
	case backends.OpTypeEqual:
		return func(a, b T) bool { return a == b }
	case backends.OpTypeNotEqual:
		return func(a, b T) bool { return a != b }
	case backends.OpTypeLessThan:
		return func(a, b T) bool { return a < b }
	case backends.OpTypeLessOrEqual:
		return func(a, b T) bool { return a <= b }
	case backends.OpTypeGreaterThan:
		return func(a, b T) bool { return a > b }
	case backends.OpTypeGreaterOrEqual:
		return func(a, b T) bool { return a >= b }
	}
	return nil
}

func compareComplex(op backends.OpType) func(a, b complex128) bool {
	switch op {
	case backends.OpTypeEqual:
		return func(a, b complex128) bool { return a == b }
	case backends.OpTypeNotEqual:
		return func(a, b complex128) bool { return a != b }
	}
	return nil
}

// Binary implements backends.Primitives.
func (b *Backend) Binary(op backends.OpType, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error) {
	isComparison := shapeinference.ComparisonOperations.Has(op)
	var output shapes.Shape
	var err error
	if isComparison {
		output, err = shapeinference.ComparisonOp(op, lhs.Shape(), rhs.Shape())
	} else {
		output, err = shapeinference.BinaryOp(op, lhs.Shape(), rhs.Shape())
	}
	if err != nil {
		return nil, err
	}
	m := &binaryMaps{
		lhs: broadcastIndexMap(lhs.Shape().Dimensions, output.Dimensions),
		rhs: broadcastIndexMap(rhs.Shape().Dimensions, output.Dimensions),
	}
	dtype := lhs.DType()
	lhsFlat, rhsFlat := lhs.FlatAny(), rhs.FlatAny()
	var flat any
	switch laneOf(dtype) {
	case laneBool:
		flat = orNil(binaryLane(m, boolsOf(lhsFlat), boolsOf(rhsFlat), boolBinaryOps[op]))
	case laneFloat:
		if isComparison {
			flat = orNil(binaryLane(m, float64sOf(lhsFlat), float64sOf(rhsFlat), compareOrdered[float64](op)))
		} else if results := binaryLane(m, float64sOf(lhsFlat), float64sOf(rhsFlat), floatBinaryOps[op]); results != nil {
			flat = fromFloat64s(results, dtype)
		}
	case laneComplex:
		if isComparison {
			flat = orNil(binaryLane(m, complex128sOf(lhsFlat), complex128sOf(rhsFlat), compareComplex(op)))
		} else if results := binaryLane(m, complex128sOf(lhsFlat), complex128sOf(rhsFlat), complexBinaryOps[op]); results != nil {
			flat = fromComplex128s(results, dtype)
		}
	case laneSigned:
		if isComparison {
			flat = orNil(binaryLane(m, int64sOf(lhsFlat), int64sOf(rhsFlat), compareOrdered[int64](op)))
		} else if results := binaryLane(m, int64sOf(lhsFlat), int64sOf(rhsFlat), signedBinaryOps[op]); results != nil {
			flat = fromInt64s(results, dtype)
		}
	case laneUnsigned:
		if isComparison {
			flat = orNil(binaryLane(m, uint64sOf(lhsFlat), uint64sOf(rhsFlat), compareOrdered[uint64](op)))
		} else if results := binaryLane(m, uint64sOf(lhsFlat), uint64sOf(rhsFlat), unsignedBinaryOps[op]); results != nil {
			flat = fromUint64s(results, dtype)
		}
	}
	if flat == nil {
		return nil, errors.Wrapf(backends.ErrNotImplemented, "simplego: Binary(%s) for %s", op, dtype)
	}
	return newTensor(output, flat)
}

// binaryMaps holds the index maps of the broadcast operands.
type binaryMaps struct {
	lhs, rhs []int
}

// binaryLane applies fn to the broadcast operands. It returns nil if fn is nil.
func binaryLane[T any, R any](m *binaryMaps, lhs, rhs []T, fn func(a, b T) R) []R {
	if fn == nil {
		return nil
	}
	output := make([]R, len(m.lhs))
	for ii := range output {
		output[ii] = fn(lhs[m.lhs[ii]], rhs[m.rhs[ii]])
	}
	return output
}

// orNil returns a nil interface for a nil slice.
func orNil[T any](values []T) any {
	if values == nil {
		return nil
	}
	return values
}

// Real implements backends.Primitives.
func (b *Backend) Real(operand *tensors.Tensor) (*tensors.Tensor, error) {
	dtype := operand.DType()
	switch {
	case dtype.IsFloat():
		return operand, nil
	case dtype.IsComplex():
		values := complex128sOf(operand.FlatAny())
		parts := make([]float64, len(values))
		for ii, v := range values {
			parts[ii] = real(v)
		}
		return newTensor(operand.Shape().WithDType(dtype.RealDType()), fromFloat64s(parts, dtype.RealDType()))
	}
	return nil, errors.Errorf("Real: operand must be float or complex, got %s", operand.Shape())
}

// Imag implements backends.Primitives.
func (b *Backend) Imag(operand *tensors.Tensor) (*tensors.Tensor, error) {
	dtype := operand.DType()
	switch {
	case dtype.IsFloat():
		return tensors.FromShape(operand.Shape()), nil
	case dtype.IsComplex():
		values := complex128sOf(operand.FlatAny())
		parts := make([]float64, len(values))
		for ii, v := range values {
			parts[ii] = imag(v)
		}
		return newTensor(operand.Shape().WithDType(dtype.RealDType()), fromFloat64s(parts, dtype.RealDType()))
	}
	return nil, errors.Errorf("Imag: operand must be float or complex, got %s", operand.Shape())
}

// Complex implements backends.Primitives.
func (b *Backend) Complex(realPart, imagPart *tensors.Tensor) (*tensors.Tensor, error) {
	if !realPart.DType().IsFloat() || !realPart.Shape().Equal(imagPart.Shape()) {
		return nil, errors.Errorf("Complex: real (%s) and imaginary (%s) parts must be floats of the same shape",
			realPart.Shape(), imagPart.Shape())
	}
	dtype := realPart.DType().ComplexDType()
	realValues, imagValues := float64sOf(realPart.FlatAny()), float64sOf(imagPart.FlatAny())
	values := make([]complex128, len(realValues))
	for ii := range values {
		values[ii] = complex(realValues[ii], imagValues[ii])
	}
	return newTensor(realPart.Shape().WithDType(dtype), fromComplex128s(values, dtype))
}
