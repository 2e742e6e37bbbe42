// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package notimplemented implements a backends.Backend that returns a "not implemented" error for every
// primitive.
//
// It can be embedded to bootstrap partial backends, or used in tests to exercise the paths taken when a
// framework lacks an operation.
package notimplemented

import (
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

// NotImplementedError is returned by every method.
//
// It doesn't contain a stack, attach a stack to with with errors.Wrapf(ErrNotImplemented, "...") when using it.
var NotImplementedError = backends.ErrNotImplemented

// Backend is a dummy backend that can be embedded to create mock or partial backends.
type Backend struct {
	// ErrFn is called to generate the error returned, if not nil.
	// Otherwise NotImplementedError is returned wrapped with the operation name.
	ErrFn func(op backends.OpType) error
}

var _ backends.Backend = &Backend{}

// baseErrFn returns the error corresponding to the op.
func (b *Backend) baseErrFn(op backends.OpType) error {
	if b.ErrFn == nil {
		return errors.Wrapf(NotImplementedError, "notimplemented: %s", op)
	}
	return b.ErrFn(op)
}

// Name returns the short name of the backend.
func (b *Backend) Name() string {
	return "notimplemented"
}

// String returns the same as Name.
func (b *Backend) String() string {
	return b.Name()
}

// Description is a longer description of the Backend.
func (b *Backend) Description() string {
	return "Not Implemented Backend (mock backend for testing)"
}

// Version returns "0.0.0".
func (b *Backend) Version() string {
	return "0.0.0"
}

// Device returns "cpu".
func (b *Backend) Device() string {
	return "cpu"
}

// Capabilities returns empty capabilities.
func (b *Backend) Capabilities() backends.Capabilities {
	return backends.Capabilities{
		Operations: make(map[backends.OpType]bool),
		DTypes:     make(map[dtypes.DType]bool),
	}
}

func (b *Backend) ConvertDType(operand *tensors.Tensor, dtype dtypes.DType) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeConvertDType)
}

func (b *Backend) Full(shape shapes.Shape, value any) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeFull)
}

func (b *Backend) Concatenate(axis int, operands ...*tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeConcatenate)
}

func (b *Backend) Pad(operand *tensors.Tensor, fillValue any, paddings [][2]int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypePad)
}

func (b *Backend) ReduceWindow(operand *tensors.Tensor, config backends.ReduceWindowConfig) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeReduceWindow)
}

func (b *Backend) FFT(operand *tensors.Tensor, fftType backends.FFTType, axis, length int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeFFT)
}

func (b *Backend) GatherAlongAxis(operand, indices *tensors.Tensor, axis int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeGatherAlongAxis)
}

func (b *Backend) Transpose(operand *tensors.Tensor, permutation ...int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeTranspose)
}

func (b *Backend) Reshape(operand *tensors.Tensor, dimensions ...int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeReshape)
}

func (b *Backend) BroadcastTo(operand *tensors.Tensor, dimensions ...int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeBroadcastTo)
}

func (b *Backend) Slice(operand *tensors.Tensor, starts, limits, strides []int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeSlice)
}

func (b *Backend) Reverse(operand *tensors.Tensor, axes ...int) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeReverse)
}

func (b *Backend) Where(condition, onTrue, onFalse *tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeWhere)
}

func (b *Backend) Unary(op backends.OpType, operand *tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(op)
}

func (b *Backend) Binary(op backends.OpType, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(op)
}

func (b *Backend) Real(operand *tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeReal)
}

func (b *Backend) Imag(operand *tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeImag)
}

func (b *Backend) Complex(real, imag *tensors.Tensor) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeComplex)
}

func (b *Backend) ArgMinMax(operand *tensors.Tensor, axis int, outputDType dtypes.DType, isMin bool) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeArgMinMax)
}

func (b *Backend) ArgSort(operand *tensors.Tensor, axis int, descending bool) (*tensors.Tensor, error) {
	return nil, b.baseErrFn(backends.OpTypeArgSort)
}
