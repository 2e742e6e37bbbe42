// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package compat holds the error kinds shared by the array-API compatibility kernels, and small helpers
// used by all of them.
//
// The kernels themselves live in the sub-packages:
//
//   - capability: the per-framework, per-version and per-device table of unsupported dtypes and operations.
//   - normalize: canonicalization of scalar-or-sequence parameters, paddings and axes.
//   - padding: SAME/VALID padding amounts and the edge-count correction of average pooling.
//   - pooling: max and average pooling of any spatial rank.
//   - signal: DCT (types I to IV) and FFT kernels.
//   - manipulation: take-along-axis, broadcast shapes, expand, stacking and friends.
//   - setops: unique values, counts and inverse indices.
//   - registry: operation registry, mapping canonical and raw-op names to kernels.
//
// Every error returned by the kernels wraps one of the error kinds below, so they can be distinguished
// with errors.Is.
package compat

import (
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedConfiguration is returned when a dtype, device or operation combination is not supported by
	// the backend (framework and version). It is always returned before any computation runs.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrInvalidParameterShape is returned when a scalar-or-sequence parameter has the wrong length for the rank
	// of the operation, or holds invalid values.
	ErrInvalidParameterShape = errors.New("invalid parameter shape")

	// ErrIncompatibleKernelPadding is returned when the kernel doesn't fit the padded input, or when the padding
	// is larger than half the kernel.
	ErrIncompatibleKernelPadding = errors.New("incompatible kernel and padding")

	// ErrRankMismatch is returned when the ranks of operands differ where they must be equal.
	ErrRankMismatch = errors.New("rank mismatch")

	// ErrInvalidArgument is returned when an argument is outside its allowed domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedNormalization is a kind of ErrInvalidArgument, for normalization modes not supported by a
	// transform.
	ErrUnsupportedNormalization = errors.WithMessage(ErrInvalidArgument, "unsupported normalization")

	// ErrTooManyDtypes is returned when stacking arrays of more than 2 distinct dtypes.
	ErrTooManyDtypes = errors.New("cannot promote more than 2 dtypes per stack")

	// ErrNotImplemented is returned when an operation is intentionally not implemented for a backend.
	// It is the same error as backends.ErrNotImplemented.
	ErrNotImplemented = backends.ErrNotImplemented
)

// WriteOut copies result into out, if out is not nil, and returns it. Otherwise, it returns result.
//
// Kernels call it as their very last step, after all validation and computation are done, so a failing
// kernel never leaves out partially written.
func WriteOut(out, result *tensors.Tensor) (*tensors.Tensor, error) {
	if out == nil {
		return result, nil
	}
	if err := out.CopyFrom(result); err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "writing to output tensor: %v", err)
	}
	return out, nil
}
