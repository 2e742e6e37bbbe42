// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/exceptions"
	"github.com/x448/float16"
)

// MaxDTypes is the upper bound (exclusive) of the dtype values a DTypeMap can hold.
const MaxDTypes = 32

// DTypeMap holds one function (or any value) of type F per dtype.
//
// It is used to register generic function instances, one per Go type, and select them at runtime
// based on the dtype of a tensor.
type DTypeMap[F any] struct {
	Name  string
	fnMap [MaxDTypes]F
	isSet [MaxDTypes]bool
}

// NewDTypeMap creates a new map for a class of functions.
func NewDTypeMap[F any](name string) *DTypeMap[F] {
	return &DTypeMap[F]{Name: name}
}

// Register a function to handle a specific dtype.
// This overwrites any previous setting for the same dtype.
func (m *DTypeMap[F]) Register(dtype dtypes.DType, fn F) {
	if dtype < 0 || dtype >= MaxDTypes {
		exceptions.Panicf("dtype %s not supported by %s", dtype, m.Name)
	}
	m.fnMap[dtype] = fn
	m.isSet[dtype] = true
}

// Get returns the function registered for dtype. It panics if none was registered.
func (m *DTypeMap[F]) Get(dtype dtypes.DType) F {
	if dtype < 0 || dtype >= MaxDTypes || !m.isSet[dtype] {
		exceptions.Panicf("dtype %s not supported by %s", dtype, m.Name)
	}
	return m.fnMap[dtype]
}

// PODNumericConstraints are used for generics for the Golang pod (plain-old-data) types.
// Float16 and BFloat16 are not included because they are specialized types, not natively supported by Go.
type PODNumericConstraints interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// laneConstraints are the Go types used to compute element-wise operations, see lane.
type laneConstraints interface {
	int64 | uint64 | float64 | complex128
}

// orderedLaneConstraints are the lanes that can be compared.
type orderedLaneConstraints interface {
	int64 | uint64 | float64
}

// lane is the Go type in which a dtype is computed: every element-wise operation, reduction and
// sort converts its operands to the lane of their dtype, and converts the result back.
type lane int

const (
	laneBool     lane = iota // []bool
	laneSigned               // []int64
	laneUnsigned             // []uint64
	laneFloat                // []float64, also for Float16, BFloat16 and Float32.
	laneComplex              // []complex128
)

func laneOf(dtype dtypes.DType) lane {
	switch {
	case dtype == dtypes.Bool:
		return laneBool
	case dtype.IsSignedInt():
		return laneSigned
	case dtype.IsUnsigned():
		return laneUnsigned
	case dtype.IsFloat():
		return laneFloat
	case dtype.IsComplex():
		return laneComplex
	}
	exceptions.Panicf("simplego: invalid dtype %s", dtype)
	panic(nil) // Quiet lint.
}

// isNaN works for any lane: integers are never NaN.
func isNaN[T orderedLaneConstraints](v T) bool {
	return v != v //nolint:staticcheck // NaN is the only value different from itself.
}

func castSlice[To, From PODNumericConstraints](in []From) []To {
	out := make([]To, len(in))
	for ii, v := range in {
		out[ii] = To(v)
	}
	return out
}

func boolTo[T PODNumericConstraints](v bool) T {
	if v {
		return 1
	}
	return 0
}

func float16ToFloat64(v float16.Float16) float64 { return float64(v.Float32()) }

func float64ToFloat16(v float64) float16.Float16 { return float16.Fromfloat32(float32(v)) }
