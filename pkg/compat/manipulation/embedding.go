// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package manipulation

import (
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

// embeddingNormEpsilon is added to the norm of a row before rescaling it to maxNorm.
const embeddingNormEpsilon = 1e-7

// Embedding looks up the rows of weights, shaped [numEmbeddings, embeddingDim], at the given integer indices.
// The result is shaped [<indices dimensions...>, embeddingDim].
//
// Indices must be in [0, numEmbeddings), otherwise an error wrapping compat.ErrInvalidArgument is returned.
//
// If maxNorm > 0, each looked up row whose L2 norm exceeds maxNorm is rescaled to norm maxNorm. weights itself is
// never modified. maxNorm <= 0 disables the renormalization.
func Embedding(b backends.Backend, weights, indices *tensors.Tensor, maxNorm float64) (*tensors.Tensor, error) {
	if weights.Rank() != 2 {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "embedding weights must be shaped [numEmbeddings, embeddingDim], got %s",
			weights.Shape())
	}
	if err := capability.For(b).Check(b, "embedding", weights.DType()); err != nil {
		return nil, err
	}
	if !indices.DType().IsInt() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "embedding indices must be integers, got %s", indices.Shape())
	}
	if maxNorm > 0 && !weights.DType().IsFloat() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "embedding max_norm requires float weights, got %s", weights.DType())
	}
	numEmbeddings, dim := weights.Shape().Dim(0), weights.Shape().Dim(1)
	flatIndices, err := b.ConvertDType(indices, dtypes.Int64)
	if err != nil {
		return nil, err
	}
	for _, index := range tensors.Flat[int64](flatIndices) {
		if index < 0 || index >= int64(numEmbeddings) {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "embedding index %d out of range [0, %d)", index, numEmbeddings)
		}
	}

	n := indices.Size()
	outputDims := append(slices.Clone(indices.Shape().Dimensions), dim)
	if flatIndices, err = b.Reshape(flatIndices, n, 1); err != nil {
		return nil, err
	}
	if flatIndices, err = b.BroadcastTo(flatIndices, n, dim); err != nil {
		return nil, err
	}
	rows, err := gather(b, weights, flatIndices, 0)
	if err != nil {
		return nil, errors.WithMessagef(err, "embedding of %s with indices %s", weights.Shape(), indices.Shape())
	}
	if maxNorm > 0 && n > 0 && dim > 0 {
		if rows, err = renormalizeRows(b, rows, maxNorm); err != nil {
			return nil, errors.WithMessagef(err, "embedding max_norm=%g", maxNorm)
		}
	}
	return b.Reshape(rows, outputDims...)
}

// renormalizeRows scales the rows of the [n, dim] matrix whose L2 norm exceeds maxNorm by maxNorm/(norm+epsilon).
func renormalizeRows(b backends.Backend, rows *tensors.Tensor, maxNorm float64) (*tensors.Tensor, error) {
	dtype := rows.DType()
	squares, err := b.Binary(backends.OpTypeMul, rows, rows)
	if err != nil {
		return nil, err
	}
	norms, err := b.ReduceWindow(squares, backends.ReduceWindowConfig{
		Reduction:        backends.ReduceOpSum,
		WindowDimensions: []int{1, rows.Shape().Dim(1)},
	})
	if err != nil {
		return nil, err
	}
	if norms, err = b.Unary(backends.OpTypeSqrt, norms); err != nil {
		return nil, err
	}
	limit, err := scalar(b, dtype, maxNorm)
	if err != nil {
		return nil, err
	}
	epsilon, err := scalar(b, dtype, embeddingNormEpsilon)
	if err != nil {
		return nil, err
	}
	one, err := scalar(b, dtype, 1)
	if err != nil {
		return nil, err
	}
	tooLarge, err := b.Binary(backends.OpTypeGreaterThan, norms, limit)
	if err != nil {
		return nil, err
	}
	scale, err := b.Binary(backends.OpTypeAdd, norms, epsilon)
	if err == nil {
		scale, err = b.Binary(backends.OpTypeDiv, limit, scale)
	}
	if err != nil {
		return nil, err
	}
	if scale, err = b.Where(tooLarge, scale, one); err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMul, rows, scale)
}
