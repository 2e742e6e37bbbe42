// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pooling

import (
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

// checkRank returns an error if x doesn't have exactly numSpatialDims spatial axes.
func checkRank(x *tensors.Tensor, numSpatialDims int) error {
	if x.Rank() != numSpatialDims+2 {
		return errors.Wrapf(compat.ErrRankMismatch, "%dD pooling requires an input of rank %d, got %s",
			numSpatialDims, numSpatialDims+2, x.Shape())
	}
	return nil
}

// poolND configures a builder from the common arguments of the fixed rank shortcuts.
func poolND(pool *PoolBuilder, numSpatialDims int, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	if err := checkRank(pool.x, numSpatialDims); err != nil {
		return nil, err
	}
	format, err := ParseDataFormat(dataFormat)
	if err != nil {
		return nil, err
	}
	return pool.Window(kernel).Strides(strides).Padding(pad).DataFormat(format).Done()
}

// MaxPool1D is a shortcut for the max pooling of x shaped [batch, width, channels] (dataFormat "NWC")
// or [batch, channels, width] (dataFormat "NCW").
func MaxPool1D(b backends.Backend, x *tensors.Tensor, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	return poolND(MaxPool(b, x), 1, kernel, strides, pad, dataFormat)
}

// MaxPool2D is a shortcut for the max pooling of x shaped [batch, height, width, channels] (dataFormat "NHWC")
// or [batch, channels, height, width] (dataFormat "NCHW").
func MaxPool2D(b backends.Backend, x *tensors.Tensor, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	return poolND(MaxPool(b, x), 2, kernel, strides, pad, dataFormat)
}

// MaxPool3D is a shortcut for the max pooling of x shaped [batch, depth, height, width, channels]
// (dataFormat "NDHWC") or [batch, channels, depth, height, width] (dataFormat "NCDHW").
func MaxPool3D(b backends.Backend, x *tensors.Tensor, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	return poolND(MaxPool(b, x), 3, kernel, strides, pad, dataFormat)
}

// AvgPool1D is a shortcut for the average pooling of x shaped [batch, width, channels] (dataFormat "NWC")
// or [batch, channels, width] (dataFormat "NCW"). Padded cells are not counted.
func AvgPool1D(b backends.Backend, x *tensors.Tensor, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	return poolND(AvgPool(b, x), 1, kernel, strides, pad, dataFormat)
}

// AvgPool2D is a shortcut for the average pooling of x shaped [batch, height, width, channels]
// (dataFormat "NHWC") or [batch, channels, height, width] (dataFormat "NCHW"). Padded cells are not counted.
func AvgPool2D(b backends.Backend, x *tensors.Tensor, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	return poolND(AvgPool(b, x), 2, kernel, strides, pad, dataFormat)
}

// AvgPool3D is a shortcut for the average pooling of x shaped [batch, depth, height, width, channels]
// (dataFormat "NDHWC") or [batch, channels, depth, height, width] (dataFormat "NCDHW").
// Padded cells are not counted.
func AvgPool3D(b backends.Backend, x *tensors.Tensor, kernel, strides normalize.Param, pad normalize.Padding,
	dataFormat string) (*tensors.Tensor, error) {
	return poolND(AvgPool(b, x), 3, kernel, strides, pad, dataFormat)
}
