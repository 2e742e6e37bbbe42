// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"math"
	"reflect"
	"slices"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/dtypes/bfloat16"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// ConvertDType ====================================================================================================

// ConvertDType implements backends.Primitives.
//
// Float to integer conversions truncate towards zero and saturate at the limits of the integer dtype,
// with NaN converted to 0. Integer to integer conversions wrap around, as in Go.
func (b *Backend) ConvertDType(operand *tensors.Tensor, dtype dtypes.DType) (*tensors.Tensor, error) {
	if !dtype.IsValid() {
		return nil, errors.Errorf("ConvertDType: invalid target dtype %s", dtype)
	}
	return newTensor(operand.Shape().WithDType(dtype), convertFlat(operand.FlatAny(), operand.DType(), dtype))
}

// newTensor wraps tensors.FromFlatAny: flat is owned by the new tensor.
func newTensor(shape shapes.Shape, flat any) (*tensors.Tensor, error) {
	t, err := tensors.FromFlatAny(shape, flat)
	if err != nil {
		return nil, errors.WithMessage(err, "simplego")
	}
	return t, nil
}

// convertFlat converts flat, a slice of the Go type of dtype from, to a slice of the Go type of dtype to.
// If from == to it returns flat itself.
func convertFlat(flat any, from, to dtypes.DType) any {
	if from == to {
		return flat
	}
	switch laneOf(from) {
	case laneBool:
		return fromBools(boolsOf(flat), to)
	case laneSigned:
		return fromInt64s(int64sOf(flat), to)
	case laneUnsigned:
		return fromUint64s(uint64sOf(flat), to)
	case laneFloat:
		return fromFloat64s(float64sOf(flat), to)
	default:
		return fromComplex128s(complex128sOf(flat), to)
	}
}

// scalarFlat converts a Go scalar to a one-element flat slice, returning also its dtype.
// Go's int is converted to Int64.
func scalarFlat(value any) (flat any, dtype dtypes.DType, err error) {
	if v, ok := value.(int); ok {
		value = int64(v)
	}
	if v, ok := value.(uint); ok {
		value = uint64(v)
	}
	dtype = dtypes.FromAny(value)
	if dtype == dtypes.InvalidDType {
		return nil, dtype, errors.Errorf("value %v (%T) is not a supported scalar type", value, value)
	}
	flatV := reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), 1, 1)
	flatV.Index(0).Set(reflect.ValueOf(value).Convert(dtype.GoType()))
	return flatV.Interface(), dtype, nil
}

// scalarAs converts a Go scalar to the Go type of dtype.
func scalarAs(value any, dtype dtypes.DType) (any, error) {
	flat, valueDType, err := scalarFlat(value)
	if err != nil {
		return nil, err
	}
	converted := convertFlat(flat, valueDType, dtype)
	return reflect.ValueOf(converted).Index(0).Interface(), nil
}

// Readers: they convert any flat slice to a newly allocated slice of the lane type. ==============================

func float64sOf(flat any) []float64 {
	switch f := flat.(type) {
	case []float64:
		return slices.Clone(f)
	case []float32:
		return castSlice[float64](f)
	case []float16.Float16:
		return xslices.Map(f, float16ToFloat64)
	case []bfloat16.BFloat16:
		return xslices.Map(f, bfloat16.BFloat16.Float64)
	case []int8:
		return castSlice[float64](f)
	case []int16:
		return castSlice[float64](f)
	case []int32:
		return castSlice[float64](f)
	case []int64:
		return castSlice[float64](f)
	case []uint8:
		return castSlice[float64](f)
	case []uint16:
		return castSlice[float64](f)
	case []uint32:
		return castSlice[float64](f)
	case []uint64:
		return castSlice[float64](f)
	case []bool:
		return xslices.Map(f, boolTo[float64])
	case []complex64:
		return xslices.Map(f, func(v complex64) float64 { return float64(real(v)) })
	case []complex128:
		return xslices.Map(f, func(v complex128) float64 { return real(v) })
	}
	exceptions.Panicf("simplego: unsupported flat type %T", flat)
	return nil
}

func complex128sOf(flat any) []complex128 {
	switch f := flat.(type) {
	case []complex128:
		return slices.Clone(f)
	case []complex64:
		return xslices.Map(f, func(v complex64) complex128 { return complex128(v) })
	}
	return xslices.Map(float64sOf(flat), func(v float64) complex128 { return complex(v, 0) })
}

func int64sOf(flat any) []int64 {
	switch f := flat.(type) {
	case []int64:
		return slices.Clone(f)
	case []int8:
		return castSlice[int64](f)
	case []int16:
		return castSlice[int64](f)
	case []int32:
		return castSlice[int64](f)
	case []uint8:
		return castSlice[int64](f)
	case []uint16:
		return castSlice[int64](f)
	case []uint32:
		return castSlice[int64](f)
	case []uint64:
		return castSlice[int64](f)
	case []bool:
		return xslices.Map(f, boolTo[int64])
	}
	return xslices.Map(float64sOf(flat), func(v float64) int64 { return saturateSigned(v, 64) })
}

func uint64sOf(flat any) []uint64 {
	switch f := flat.(type) {
	case []uint64:
		return slices.Clone(f)
	case []uint8:
		return castSlice[uint64](f)
	case []uint16:
		return castSlice[uint64](f)
	case []uint32:
		return castSlice[uint64](f)
	case []int8:
		return castSlice[uint64](f)
	case []int16:
		return castSlice[uint64](f)
	case []int32:
		return castSlice[uint64](f)
	case []int64:
		return castSlice[uint64](f)
	case []bool:
		return xslices.Map(f, boolTo[uint64])
	}
	return xslices.Map(float64sOf(flat), func(v float64) uint64 { return saturateUnsigned(v, 64) })
}

func boolsOf(flat any) []bool {
	switch f := flat.(type) {
	case []bool:
		return slices.Clone(f)
	case []complex64, []complex128:
		return xslices.Map(complex128sOf(f), func(v complex128) bool { return v != 0 })
	case []int64:
		return xslices.Map(f, func(v int64) bool { return v != 0 })
	case []uint64:
		return xslices.Map(f, func(v uint64) bool { return v != 0 })
	}
	return xslices.Map(float64sOf(flat), func(v float64) bool { return v != 0 })
}

// saturateSigned converts v to an integer of the given bits, truncating towards zero and saturating
// at the limits. NaN is converted to 0.
func saturateSigned(v float64, bits int) int64 {
	if math.IsNaN(v) {
		return 0
	}
	highest := int64(math.MaxInt64) >> (64 - bits)
	lowest := int64(math.MinInt64) >> (64 - bits)
	if v >= float64(highest) {
		return highest
	}
	if v <= float64(lowest) {
		return lowest
	}
	return int64(v)
}

// saturateUnsigned converts v to an unsigned integer of the given bits, truncating towards zero and saturating
// at the limits. NaN and negative values are converted to 0.
func saturateUnsigned(v float64, bits int) uint64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	highest := uint64(math.MaxUint64) >> (64 - bits)
	if v >= float64(highest) {
		return highest
	}
	return uint64(v)
}

// Writers: they convert a lane slice to the Go type of dtype. =====================================================
// They may return the given slice itself, so it must be owned by the caller.

func fromFloat64s(values []float64, dtype dtypes.DType) any {
	switch dtype {
	case dtypes.Float64:
		return values
	case dtypes.Float32:
		return castSlice[float32](values)
	case dtypes.Float16:
		return xslices.Map(values, float64ToFloat16)
	case dtypes.BFloat16:
		return xslices.Map(values, bfloat16.FromFloat64)
	case dtypes.Complex64:
		return xslices.Map(values, func(v float64) complex64 { return complex(float32(v), 0) })
	case dtypes.Complex128:
		return xslices.Map(values, func(v float64) complex128 { return complex(v, 0) })
	case dtypes.Bool:
		return xslices.Map(values, func(v float64) bool { return v != 0 })
	}
	if dtype.IsUnsigned() {
		bits := dtype.Bits()
		return fromUint64s(xslices.Map(values, func(v float64) uint64 { return saturateUnsigned(v, bits) }), dtype)
	}
	bits := dtype.Bits()
	return fromInt64s(xslices.Map(values, func(v float64) int64 { return saturateSigned(v, bits) }), dtype)
}

func fromInt64s(values []int64, dtype dtypes.DType) any {
	switch dtype {
	case dtypes.Int64:
		return values
	case dtypes.Int32:
		return castSlice[int32](values)
	case dtypes.Int16:
		return castSlice[int16](values)
	case dtypes.Int8:
		return castSlice[int8](values)
	case dtypes.Uint64:
		return castSlice[uint64](values)
	case dtypes.Uint32:
		return castSlice[uint32](values)
	case dtypes.Uint16:
		return castSlice[uint16](values)
	case dtypes.Uint8:
		return castSlice[uint8](values)
	case dtypes.Bool:
		return xslices.Map(values, func(v int64) bool { return v != 0 })
	}
	return fromFloat64s(castSlice[float64](values), dtype)
}

func fromUint64s(values []uint64, dtype dtypes.DType) any {
	switch dtype {
	case dtypes.Uint64:
		return values
	case dtypes.Uint32:
		return castSlice[uint32](values)
	case dtypes.Uint16:
		return castSlice[uint16](values)
	case dtypes.Uint8:
		return castSlice[uint8](values)
	case dtypes.Int64:
		return castSlice[int64](values)
	case dtypes.Int32:
		return castSlice[int32](values)
	case dtypes.Int16:
		return castSlice[int16](values)
	case dtypes.Int8:
		return castSlice[int8](values)
	case dtypes.Bool:
		return xslices.Map(values, func(v uint64) bool { return v != 0 })
	}
	return fromFloat64s(castSlice[float64](values), dtype)
}

func fromComplex128s(values []complex128, dtype dtypes.DType) any {
	switch dtype {
	case dtypes.Complex128:
		return values
	case dtypes.Complex64:
		return xslices.Map(values, func(v complex128) complex64 { return complex64(v) })
	case dtypes.Bool:
		return xslices.Map(values, func(v complex128) bool { return v != 0 })
	}
	return fromFloat64s(xslices.Map(values, func(v complex128) float64 { return real(v) }), dtype)
}

func fromBools(values []bool, dtype dtypes.DType) any {
	if dtype == dtypes.Bool {
		return values
	}
	return fromInt64s(xslices.Map(values, boolTo[int64]), dtype)
}
