// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implement a `Tensor`, a representation of a multidimensional array.
//
// Tensors are multidimensional arrays (from scalar with 0 dimensions, to arbitrarily large dimensions), defined
// by their shape (a data type and its axes' dimensions) and their actual content, stored as a flat Go slice
// of the dtype's Go type, in row-major order.
//
// Tensors are immutable: kernels never change their inputs. The one exception is CopyFrom, used to fill
// a caller provided output tensor at the very end of an operation.
//
// There are various ways to construct a Tensor:
//
//   - FromShape(shape shapes.Shape): creates a tensor with the given shape, and zero values.
//
//   - FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int): creates a Tensor with the
//     given dimensions, filled with the scalar value given.
//
//   - FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int): creates a Tensor with the
//     given dimensions and set the flattened values with the given data. Example:
//
//     t := FromFlatDataAndDimensions([]int8{1, 2, 3, 4}, 2, 2}) // Tensor with [[1,2], [3,4]]
//
//   - FromValue[S MultiDimensionSlice](value S): generic conversion from scalars or regular multidimensional
//     slices. Example:
//
//     t := FromValue([][]float32{{1,2}, {3, 5}, {7, 11}})
//
//   - FromFlatAny(shape, flat): takes ownership of a flat slice produced elsewhere (e.g., by a backend).
package tensors

import (
	"reflect"
	"strconv"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Tensor represents a multidimensional array, defined by its shape (dtypes.DType and axes' dimensions) and its
// content stored as a flat (1D) slice of values.
type Tensor struct {
	shape shapes.Shape
	flat  any
}

// FromShape returns a Tensor with the given shape, with the data initialized with zeros.
func FromShape(shape shapes.Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape(%s): invalid shape", shape)
	}
	flatV := reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), shape.Size(), shape.Size())
	return &Tensor{shape: shape.Clone(), flat: flatV.Interface()}
}

// FromFlatAny creates a Tensor that takes ownership of flat, which must be a slice of the Go type of shape.DType
// with exactly shape.Size() elements.
//
// The flat slice must not be modified afterwards.
func FromFlatAny(shape shapes.Shape, flat any) (*Tensor, error) {
	if !shape.Ok() {
		return nil, errors.Errorf("tensors.FromFlatAny(%s): invalid shape", shape)
	}
	flatV := reflect.ValueOf(flat)
	if flatV.Kind() != reflect.Slice || flatV.Type().Elem() != shape.DType.GoType() {
		return nil, errors.Errorf("tensors.FromFlatAny(%s): flat data must be []%s, got %T",
			shape, shape.DType.GoStr(), flat)
	}
	if flatV.Len() != shape.Size() {
		return nil, errors.Errorf("tensors.FromFlatAny(%s): flat data has %d elements, want %d",
			shape, flatV.Len(), shape.Size())
	}
	return &Tensor{shape: shape.Clone(), flat: flat}, nil
}

// FromScalar creates a local tensor with the given scalar.
// The `DType` is inferred from the value.
func FromScalar[T dtypes.Supported](value T) *Tensor {
	return FromScalarAndDimensions(value)
}

// FromScalarAndDimensions creates a tensor with the given dimensions, filled with the
// given scalar value replicated everywhere.
// The `DType` is inferred from the value.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) *Tensor {
	size := shapes.Make(dtypes.Bool, dimensions...).Size()
	return FromFlatDataAndDimensions(xslices.SliceWithValue(size, value), dimensions...)
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions, filled with the flattened values given in `data`.
// The data is copied to the Tensor.
// The `DType` is inferred from the `data` type.
//
// It panics if the size of data is wrong for the shape.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	dtype := dtypes.FromGenericsType[T]()
	shape := shapes.Make(dtype, dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data size is %d, but dimensions size is %d",
			shape, len(data), shape.Size())
	}
	if ints, ok := any(data).([]int); ok {
		// Go's int is stored as Int32 or Int64, depending on the platform.
		return &Tensor{shape: shape, flat: convertInts(ints)}
	}
	flat := make([]T, len(data))
	copy(flat, data)
	return &Tensor{shape: shape, flat: flat}
}

func convertInts(ints []int) any {
	if strconv.IntSize == 32 {
		return xslices.Map(ints, func(v int) int32 { return int32(v) })
	}
	return xslices.Map(ints, func(v int) int64 { return int64(v) })
}

// Shape of Tensor.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the DType of the tensor's shape.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank returns the rank of the tensor's shape.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// IsScalar returns whether the tensor represents a scalar value.
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// Size returns the number of elements in the tensor.
func (t *Tensor) Size() int { return t.shape.Size() }

// Memory returns the number of bytes used to store the tensor data.
func (t *Tensor) Memory() uintptr { return t.shape.Memory() }

// FlatAny returns the underlying flat slice (e.g. []float32) of the tensor, typed as `any`.
//
// The returned slice is owned by the tensor and must not be modified.
func (t *Tensor) FlatAny() any { return t.flat }

// Flat returns the underlying flat slice of the tensor as a []T.
//
// It panics if T doesn't match the tensor's DType. The returned slice is owned by the tensor and must not
// be modified.
func Flat[T dtypes.Supported](t *Tensor) []T {
	flat, ok := t.flat.([]T)
	if !ok {
		var zero T
		exceptions.Panicf("tensors.Flat[%T] called on tensor %s, which holds %T", zero, t.shape, t.flat)
	}
	return flat
}

// CopyFlat returns a copy of the tensor's flat data as a []T.
func CopyFlat[T dtypes.Supported](t *Tensor) []T {
	flat := Flat[T](t)
	out := make([]T, len(flat))
	copy(out, flat)
	return out
}

// ToScalar returns the scalar value of a tensor of size 1.
func ToScalar[T dtypes.Supported](t *Tensor) T {
	if t.Size() != 1 {
		exceptions.Panicf("tensors.ToScalar called on tensor %s with %d elements", t.shape, t.Size())
	}
	return Flat[T](t)[0]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	flatV := reflect.ValueOf(t.flat)
	cloneV := reflect.MakeSlice(flatV.Type(), flatV.Len(), flatV.Len())
	reflect.Copy(cloneV, flatV)
	return &Tensor{shape: t.shape.Clone(), flat: cloneV.Interface()}
}

// CopyFrom overwrites the contents of t with the contents of src. Both must have the same shape.
//
// This is the only mutating operation on tensors, and it is used to fill caller provided output tensors.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if t == nil || src == nil {
		return errors.New("Tensor.CopyFrom: nil tensor")
	}
	if !t.shape.Equal(src.shape) {
		return errors.Errorf("Tensor.CopyFrom: output tensor has shape %s, but the result has shape %s", t.shape, src.shape)
	}
	if t == src {
		return nil
	}
	reflect.Copy(reflect.ValueOf(t.flat), reflect.ValueOf(src.flat))
	return nil
}

// Equal checks whether t == otherTensor: same shape and same values.
// NaN values are never equal, following Go's float comparison.
func (t *Tensor) Equal(otherTensor *Tensor) bool {
	if t == otherTensor {
		return true
	}
	if !t.shape.Equal(otherTensor.shape) {
		return false
	}
	t0V := reflect.ValueOf(t.flat)
	t1V := reflect.ValueOf(otherTensor.flat)
	for ii := range t0V.Len() {
		if !t0V.Index(ii).Equal(t1V.Index(ii)) {
			return false
		}
	}
	return true
}

// InDelta checks whether Abs(t - otherTensor) <= delta for every element.
// If the shapes are different, it returns false. NaNs in the same positions are considered equal.
func (t *Tensor) InDelta(otherTensor *Tensor, delta float64) bool {
	if t == otherTensor {
		return true
	}
	if !t.shape.Equal(otherTensor.shape) {
		return false
	}
	if t.shape.IsZeroSize() {
		return true
	}
	return xslices.SlicesInDelta(t.flat, otherTensor.flat, delta)
}
