// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"reflect"

	"github.com/gomlx/arraycompat/backends/shapeinference"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/dtypes/bfloat16"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// All data movement primitives (padding, concatenation, transposition, slicing, broadcasting, gathering, ...)
// are expressed as an "index map": for each element of the output, the flat index of the element of the
// operand to copy, or -1 to use a fill value. The map is then applied by the dtype specific takeFn.

// takeFn returns a new flat slice with output[i] = flat[indexMap[i]], or fill where indexMap[i] < 0.
// fill must be nil (the zero value) or of the Go type of the flat slice elements.
type takeFn func(flat any, indexMap []int, fill any) any

var takeDTypeMap = NewDTypeMap[takeFn]("Take")

func init() {
	takeDTypeMap.Register(dtypes.Bool, takeGeneric[bool])
	takeDTypeMap.Register(dtypes.Int8, takeGeneric[int8])
	takeDTypeMap.Register(dtypes.Int16, takeGeneric[int16])
	takeDTypeMap.Register(dtypes.Int32, takeGeneric[int32])
	takeDTypeMap.Register(dtypes.Int64, takeGeneric[int64])
	takeDTypeMap.Register(dtypes.Uint8, takeGeneric[uint8])
	takeDTypeMap.Register(dtypes.Uint16, takeGeneric[uint16])
	takeDTypeMap.Register(dtypes.Uint32, takeGeneric[uint32])
	takeDTypeMap.Register(dtypes.Uint64, takeGeneric[uint64])
	takeDTypeMap.Register(dtypes.Float16, takeGeneric[float16.Float16])
	takeDTypeMap.Register(dtypes.BFloat16, takeGeneric[bfloat16.BFloat16])
	takeDTypeMap.Register(dtypes.Float32, takeGeneric[float32])
	takeDTypeMap.Register(dtypes.Float64, takeGeneric[float64])
	takeDTypeMap.Register(dtypes.Complex64, takeGeneric[complex64])
	takeDTypeMap.Register(dtypes.Complex128, takeGeneric[complex128])
}

func takeGeneric[T any](flat any, indexMap []int, fill any) any {
	src := flat.([]T)
	var fillValue T
	if fill != nil {
		fillValue = fill.(T)
	}
	output := make([]T, len(indexMap))
	for outputIdx, srcIdx := range indexMap {
		if srcIdx < 0 {
			output[outputIdx] = fillValue
		} else {
			output[outputIdx] = src[srcIdx]
		}
	}
	return output
}

// take applies the indexMap to the flat values of operand, and returns a tensor with the given output shape.
func take(operand *tensors.Tensor, output shapes.Shape, indexMap []int, fill any) (*tensors.Tensor, error) {
	return newTensor(output, takeDTypeMap.Get(operand.DType())(operand.FlatAny(), indexMap, fill))
}

// stridedIndexMap returns the index map where output element at indices (i_0, i_1, ...) maps to
// offset + sum(i_k * strides[k]).
func stridedIndexMap(outputDims, strides []int, offset int) []int {
	output := shapes.Make(dtypes.Bool, outputDims...)
	indexMap := make([]int, output.Size())
	for flatIdx, indices := range output.Iter() {
		srcIdx := offset
		for axis, idx := range indices {
			srcIdx += idx * strides[axis]
		}
		indexMap[flatIdx] = srcIdx
	}
	return indexMap
}

// broadcastStrides returns the strides of an operand with operandDims broadcast to outputDims:
// axes are aligned from the trailing one, and broadcast axes get stride 0.
func broadcastStrides(operandDims, outputDims []int) []int {
	operandStrides := shapes.StridesFor(operandDims)
	strides := make([]int, len(outputDims))
	offset := len(outputDims) - len(operandDims)
	for axis := range outputDims {
		operandAxis := axis - offset
		if operandAxis < 0 || operandDims[operandAxis] == 1 {
			continue
		}
		strides[axis] = operandStrides[operandAxis]
	}
	return strides
}

// broadcastIndexMap returns the index map of an operand broadcast to outputDims.
func broadcastIndexMap(operandDims, outputDims []int) []int {
	return stridedIndexMap(outputDims, broadcastStrides(operandDims, outputDims), 0)
}

// concatFlats concatenates flat slices of the same Go type.
func concatFlats(flats ...any) any {
	result := reflect.ValueOf(flats[0])
	result = reflect.AppendSlice(reflect.MakeSlice(result.Type(), 0, result.Len()), result)
	for _, flat := range flats[1:] {
		result = reflect.AppendSlice(result, reflect.ValueOf(flat))
	}
	return result.Interface()
}

// Full implements backends.Primitives.
func (b *Backend) Full(shape shapes.Shape, value any) (*tensors.Tensor, error) {
	if !shape.Ok() {
		return nil, errors.Errorf("Full: invalid shape %s", shape)
	}
	flat, dtype, err := scalarFlat(value)
	if err != nil {
		return nil, errors.WithMessagef(err, "Full(%s)", shape)
	}
	scalar, err := newTensor(shapes.Make(shape.DType), convertFlat(flat, dtype, shape.DType))
	if err != nil {
		return nil, err
	}
	return take(scalar, shape, make([]int, shape.Size()), nil)
}

// Reshape implements backends.Primitives. The output shares the flat data of the operand.
func (b *Backend) Reshape(operand *tensors.Tensor, dimensions ...int) (*tensors.Tensor, error) {
	output, err := shapeinference.ReshapeOp(operand.Shape(), dimensions)
	if err != nil {
		return nil, err
	}
	return newTensor(output, operand.FlatAny())
}

// Transpose implements backends.Primitives.
func (b *Backend) Transpose(operand *tensors.Tensor, permutation ...int) (*tensors.Tensor, error) {
	output, err := shapeinference.TransposeOp(operand.Shape(), permutation)
	if err != nil {
		return nil, err
	}
	operandStrides := operand.Shape().Strides()
	strides := make([]int, len(permutation))
	for axis, operandAxis := range permutation {
		strides[axis] = operandStrides[operandAxis]
	}
	return take(operand, output, stridedIndexMap(output.Dimensions, strides, 0), nil)
}

// BroadcastTo implements backends.Primitives.
func (b *Backend) BroadcastTo(operand *tensors.Tensor, dimensions ...int) (*tensors.Tensor, error) {
	output, err := shapeinference.BroadcastToOp(operand.Shape(), dimensions)
	if err != nil {
		return nil, err
	}
	return take(operand, output, broadcastIndexMap(operand.Shape().Dimensions, output.Dimensions), nil)
}

// Slice implements backends.Primitives.
func (b *Backend) Slice(operand *tensors.Tensor, starts, limits, strides []int) (*tensors.Tensor, error) {
	output, err := shapeinference.SliceOp(operand.Shape(), starts, limits, strides)
	if err != nil {
		return nil, err
	}
	operandStrides := operand.Shape().Strides()
	offset := 0
	mapStrides := make([]int, len(operandStrides))
	for axis, stride := range operandStrides {
		offset += starts[axis] * stride
		mapStrides[axis] = stride * strides[axis]
	}
	return take(operand, output, stridedIndexMap(output.Dimensions, mapStrides, offset), nil)
}

// Reverse implements backends.Primitives.
func (b *Backend) Reverse(operand *tensors.Tensor, axes ...int) (*tensors.Tensor, error) {
	output, err := shapeinference.ReverseOp(operand.Shape(), axes)
	if err != nil {
		return nil, err
	}
	strides := output.Strides()
	offset := 0
	for _, axis := range axes {
		offset += (output.Dimensions[axis] - 1) * strides[axis]
		strides[axis] = -strides[axis]
	}
	return take(operand, output, stridedIndexMap(output.Dimensions, strides, offset), nil)
}

// Pad implements backends.Primitives.
func (b *Backend) Pad(operand *tensors.Tensor, fillValue any, paddings [][2]int) (*tensors.Tensor, error) {
	output, err := shapeinference.PadOp(operand.Shape(), paddings)
	if err != nil {
		return nil, err
	}
	fill, err := scalarAs(fillValue, operand.DType())
	if err != nil {
		return nil, errors.WithMessage(err, "Pad fill value")
	}
	operandDims := operand.Shape().Dimensions
	operandStrides := operand.Shape().Strides()
	indexMap := make([]int, output.Size())
	for flatIdx, indices := range output.Iter() {
		srcIdx := 0
		for axis, idx := range indices {
			idx -= paddings[axis][0]
			if idx < 0 || idx >= operandDims[axis] {
				srcIdx = -1
				break
			}
			srcIdx += idx * operandStrides[axis]
		}
		indexMap[flatIdx] = srcIdx
	}
	return take(operand, output, indexMap, fill)
}

// Concatenate implements backends.Primitives.
func (b *Backend) Concatenate(axis int, operands ...*tensors.Tensor) (*tensors.Tensor, error) {
	inputShapes := make([]shapes.Shape, len(operands))
	for ii, operand := range operands {
		inputShapes[ii] = operand.Shape()
	}
	output, err := shapeinference.ConcatenateOp(inputShapes, axis)
	if err != nil {
		return nil, err
	}

	// For each position along the concatenation axis: which operand owns it, and its position in that operand.
	owner := make([]int, 0, output.Dimensions[axis])
	local := make([]int, 0, output.Dimensions[axis])
	flatOffsets := make([]int, len(operands))
	operandStrides := make([][]int, len(operands))
	flats := make([]any, len(operands))
	offset := 0
	for ii, operand := range operands {
		for pos := range operand.Shape().Dimensions[axis] {
			owner = append(owner, ii)
			local = append(local, pos)
		}
		flatOffsets[ii] = offset
		offset += operand.Size()
		operandStrides[ii] = operand.Shape().Strides()
		flats[ii] = operand.FlatAny()
	}
	indexMap := make([]int, output.Size())
	for flatIdx, indices := range output.Iter() {
		ii := owner[indices[axis]]
		srcIdx := flatOffsets[ii]
		for a, idx := range indices {
			if a == axis {
				idx = local[idx]
			}
			srcIdx += idx * operandStrides[ii][a]
		}
		indexMap[flatIdx] = srcIdx
	}
	combined, err := newTensor(shapes.Make(output.DType, offset), concatFlats(flats...))
	if err != nil {
		return nil, err
	}
	return take(combined, output, indexMap, nil)
}

// Where implements backends.Primitives.
func (b *Backend) Where(condition, onTrue, onFalse *tensors.Tensor) (*tensors.Tensor, error) {
	output, err := shapeinference.WhereOp(condition.Shape(), onTrue.Shape(), onFalse.Shape())
	if err != nil {
		return nil, err
	}
	conditionFlat := tensors.Flat[bool](condition)
	conditionMap := broadcastIndexMap(condition.Shape().Dimensions, output.Dimensions)
	onTrueMap := broadcastIndexMap(onTrue.Shape().Dimensions, output.Dimensions)
	onFalseMap := broadcastIndexMap(onFalse.Shape().Dimensions, output.Dimensions)

	// onFalse values are appended after the onTrue ones.
	onFalseOffset := onTrue.Size()
	indexMap := make([]int, output.Size())
	for ii := range indexMap {
		if conditionFlat[conditionMap[ii]] {
			indexMap[ii] = onTrueMap[ii]
		} else {
			indexMap[ii] = onFalseOffset + onFalseMap[ii]
		}
	}
	combined, err := newTensor(shapes.Make(output.DType, onTrue.Size()+onFalse.Size()),
		concatFlats(onTrue.FlatAny(), onFalse.FlatAny()))
	if err != nil {
		return nil, err
	}
	return take(combined, output, indexMap, nil)
}

// GatherAlongAxis implements backends.Primitives.
func (b *Backend) GatherAlongAxis(operand, indices *tensors.Tensor, axis int) (*tensors.Tensor, error) {
	output, err := shapeinference.GatherAlongAxisOp(operand.Shape(), indices.Shape(), axis)
	if err != nil {
		return nil, err
	}
	indicesFlat := int64sOf(indices.FlatAny())
	axisDim := operand.Shape().Dimensions[axis]
	operandStrides := operand.Shape().Strides()
	indexMap := make([]int, output.Size())
	for flatIdx, outputIndices := range output.Iter() {
		gatherIdx := indicesFlat[flatIdx]
		if gatherIdx < 0 || gatherIdx >= int64(axisDim) {
			return nil, errors.Errorf("GatherAlongAxis: index %d at position %v is out of range [0, %d) for axis %d of %s",
				gatherIdx, outputIndices, axisDim, axis, operand.Shape())
		}
		srcIdx := 0
		for a, idx := range outputIndices {
			if a == axis {
				idx = int(gatherIdx)
			}
			srcIdx += idx * operandStrides[a]
		}
		indexMap[flatIdx] = srcIdx
	}
	return take(operand, output, indexMap, nil)
}
