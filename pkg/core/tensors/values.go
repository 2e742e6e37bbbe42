// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"reflect"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/dtypes/bfloat16"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// MultiDimensionSlice lists the Go types a Tensor can be converted to/from. There are no recursions in
// generics' constraint definitions, so we enumerate up to 5 levels of slices.
type MultiDimensionSlice interface {
	bool | float16.Float16 | bfloat16.BFloat16 | float32 | float64 | int | int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 | complex64 | complex128 |
		[]bool | []float16.Float16 | []bfloat16.BFloat16 | []float32 | []float64 | []int | []int8 | []int16 |
		[]int32 | []int64 | []uint8 | []uint16 | []uint32 | []uint64 | []complex64 | []complex128 |
		[][]bool | [][]float32 | [][]float64 | [][]int | [][]int8 | [][]int16 | [][]int32 | [][]int64 |
		[][]uint8 | [][]uint16 | [][]uint32 | [][]uint64 | [][]complex64 | [][]complex128 |
		[][][]bool | [][][]float32 | [][][]float64 | [][][]int | [][][]int32 | [][][]int64 | [][][]uint8 |
		[][][]complex64 | [][][]complex128 |
		[][][][]float32 | [][][][]float64 | [][][][]int | [][][][]int32 | [][][][]int64 |
		[][][][][]float32 | [][][][][]float64 | [][][][][]int32 | [][][][][]int64
}

// FromValue returns a tensor constructed from the given multi-dimension slice (or scalar).
// If the rank of the `value` is larger than 1, the shape of all sub-slices must be the same.
//
// It panics if the shape is not regular.
func FromValue[S MultiDimensionSlice](value S) *Tensor {
	return FromAnyValue(value)
}

// FromAnyValue is a non-generic version of FromValue.
// If the input is a tensor already, it is simply returned.
//
// It panics with an error if the value type is unsupported or the shape is not regular.
func FromAnyValue(value any) *Tensor {
	if valueT, ok := value.(*Tensor); ok {
		return valueT
	}
	shape, err := shapeForValue(value)
	if err != nil {
		panic(errors.Wrapf(err, "cannot create shape from %T", value))
	}
	t := FromShape(shape)
	flatV := reflect.ValueOf(t.flat)
	valueV := reflect.ValueOf(value)
	if baseType(valueV.Type()).Kind() == reflect.Int {
		// Go's int is stored as either Int32 or Int64: convert element by element.
		i := 0
		for elem := range flatLeaves(valueV) {
			flatV.Index(i).Set(elem.Convert(flatV.Type().Elem()))
			i++
		}
		return t
	}
	if shape.IsScalar() {
		flatV.Index(0).Set(valueV)
		return t
	}
	copySlicesRecursively(flatV, valueV, shape.Strides())
	return t
}

// flatLeaves iterates over the leaf values of a multidimensional slice (or the scalar itself) in row-major order.
func flatLeaves(v reflect.Value) func(yield func(reflect.Value) bool) {
	return func(yield func(reflect.Value) bool) {
		var walk func(v reflect.Value) bool
		walk = func(v reflect.Value) bool {
			if v.Kind() != reflect.Slice {
				return yield(v)
			}
			for ii := range v.Len() {
				if !walk(v.Index(ii)) {
					return false
				}
			}
			return true
		}
		walk(v)
	}
}

// copySlicesRecursively copy values on a multi-dimension slice to a flat data slice
// assuming the strides for each dimension.
func copySlicesRecursively(data reflect.Value, mdSlice reflect.Value, strides []int) {
	if len(strides) == 1 {
		reflect.Copy(data, mdSlice)
		return
	}
	subStrides := strides[1:]
	for ii := range mdSlice.Len() {
		subData := data.Slice(ii*strides[0], (ii+1)*strides[0])
		copySlicesRecursively(subData, mdSlice.Index(ii), subStrides)
	}
}

// Value returns a multidimensional slice (except if the shape is a scalar) containing a copy of the values stored
// in the tensor.
// This is expensive and usually only used for smaller tensors in tests and to print results.
func (t *Tensor) Value() any {
	flatV := reflect.ValueOf(t.flat)
	if t.shape.IsScalar() {
		return flatV.Index(0).Interface()
	}
	flatCopyV := reflect.MakeSlice(flatV.Type(), flatV.Len(), flatV.Len())
	reflect.Copy(flatCopyV, flatV)
	return convertDataToSlices(flatCopyV, t.shape.Dimensions...).Interface()
}

// convertDataToSlices takes data as a flat slice and creates a multidimensional slice with the given dimensions that
// points to the given data.
func convertDataToSlices(dataV reflect.Value, dimensions ...int) reflect.Value {
	if len(dimensions) <= 1 {
		return dataV
	}
	resultT := dataV.Type().Elem()
	for range dimensions {
		resultT = reflect.SliceOf(resultT)
	}
	return createSlicesRecursively(resultT, dataV, dimensions, shapes.StridesFor(dimensions))
}

func createSlicesRecursively(resultT reflect.Type, data reflect.Value, dimensions []int, strides []int) reflect.Value {
	if len(strides) == 1 {
		return data
	}
	numElements := dimensions[0]
	slice := reflect.MakeSlice(resultT, numElements, numElements)
	for ii := range numElements {
		subData := data.Slice(ii*strides[0], (ii+1)*strides[0])
		slice.Index(ii).Set(createSlicesRecursively(resultT.Elem(), subData, dimensions[1:], strides[1:]))
	}
	return slice
}

func shapeForValue(v any) (shapes.Shape, error) {
	var shape shapes.Shape
	err := shapeForValueRecursive(&shape, reflect.ValueOf(v), reflect.TypeOf(v))
	return shape, err
}

func shapeForValueRecursive(shape *shapes.Shape, v reflect.Value, t reflect.Type) error {
	if t == nil {
		return errors.New("cannot convert nil to a tensor")
	}
	switch t.Kind() {
	case reflect.Slice:
		t = t.Elem()
		shape.Dimensions = append(shape.Dimensions, v.Len())
		shapePrefix := shape.Clone()
		if v.Len() == 0 {
			exceptions.Panicf("value with empty slice not valid for Tensor conversion: %T -- "+
				"use FromShape for tensors with zero-dimensions", v.Interface())
		}
		if err := shapeForValueRecursive(shape, v.Index(0), t); err != nil {
			return err
		}
		// Other elements must have the same shape as the first one.
		for ii := 1; ii < v.Len(); ii++ {
			shapeTest := shapePrefix.Clone()
			if err := shapeForValueRecursive(&shapeTest, v.Index(ii), t); err != nil {
				return err
			}
			if !shape.Equal(shapeTest) {
				return errors.Errorf("sub-slices have irregular shapes, found shapes %s, and %s", shape, shapeTest)
			}
		}

	case reflect.Pointer:
		return errors.Errorf("cannot convert Pointer (%s) to a concrete value for tensors", t)

	default:
		shape.DType = dtypes.FromGoType(t)
		if shape.DType == dtypes.InvalidDType {
			return errors.Errorf("cannot convert type %s to a concrete tensor type", t)
		}
	}
	return nil
}

// baseType returns the underlying type of a multi-dimension slice. So `baseType([][]int{})` would return the
// type `int`.
func baseType(valueType reflect.Type) reflect.Type {
	for valueType.Kind() == reflect.Slice || valueType.Kind() == reflect.Array {
		valueType = valueType.Elem()
	}
	return valueType
}
