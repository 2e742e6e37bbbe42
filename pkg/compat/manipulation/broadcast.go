// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package manipulation

import (
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BroadcastShapes returns the dimensions resulting from broadcasting all the given shapes together,
// reducing them pairwise from left to right.
//
// It returns an error wrapping compat.ErrInvalidArgument if no shape is given or if the shapes are not
// broadcastable.
func BroadcastShapes(dims ...[]int) ([]int, error) {
	if len(dims) == 0 {
		return nil, errors.Wrap(compat.ErrInvalidArgument, "shapes=[] must be non-empty")
	}
	result := slices.Clone(dims[0])
	for ii, next := range dims[1:] {
		var err error
		if result, err = shapes.BroadcastDimensions(result, next); err != nil {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "broadcasting shape #%d %v: %v", ii+1, next, err)
		}
	}
	return result, nil
}

// expandUpcastDTypes are expanded as Float32.
var expandUpcastDTypes = []dtypes.DType{dtypes.Int8, dtypes.Int16, dtypes.Uint8, dtypes.Float16}

// Expand broadcasts x to the given shape.
//
// Negative dimensions in shape take the dimension of x at the same axis. If x has more axes than shape, it
// is flattened first. A scalar x expanded to an empty shape is returned unchanged. Otherwise, dimensions of
// x are aligned with the trailing dimensions of shape, and each must be 1 or equal to the target,
// else an error wrapping compat.ErrInvalidParameterShape is returned.
func Expand(b backends.Backend, x *tensors.Tensor, shape ...int) (*tensors.Tensor, error) {
	if err := capability.For(b).Check(b, "expand", x.DType()); err != nil {
		return nil, err
	}
	reshaped, target, err := normalize.ExpandShape(x.Shape().Dimensions, shape)
	if err != nil {
		return nil, err
	}
	if x.Rank() == 0 && len(target) == 0 {
		return x, nil
	}
	if !slices.Equal(reshaped, x.Shape().Dimensions) {
		if x, err = b.Reshape(x, reshaped...); err != nil {
			return nil, err
		}
	}
	result, err := broadcastTo(b, x, target)
	if err != nil {
		return nil, errors.WithMessagef(err, "expand %s to %v", x.Shape(), shape)
	}
	return result, nil
}

// broadcastTo runs the backend BroadcastTo, through Float32 for expandUpcastDTypes and part-wise for
// complex numbers.
func broadcastTo(b backends.Backend, x *tensors.Tensor, dims []int) (*tensors.Tensor, error) {
	dtype := x.DType()
	switch {
	case dtype.IsComplex():
		klog.V(2).Infof("expand: broadcasting %s real and imaginary parts separately", x.Shape())
		realPart, err := b.Real(x)
		if err != nil {
			return nil, err
		}
		imagPart, err := b.Imag(x)
		if err != nil {
			return nil, err
		}
		if realPart, err = b.BroadcastTo(realPart, dims...); err != nil {
			return nil, err
		}
		if imagPart, err = b.BroadcastTo(imagPart, dims...); err != nil {
			return nil, err
		}
		return b.Complex(realPart, imagPart)

	case slices.Contains(expandUpcastDTypes, dtype):
		klog.V(2).Infof("expand: broadcasting %s as Float32", x.Shape())
		upcast, err := b.ConvertDType(x, dtypes.Float32)
		if err != nil {
			return nil, err
		}
		expanded, err := b.BroadcastTo(upcast, dims...)
		if err != nil {
			return nil, err
		}
		return b.ConvertDType(expanded, dtype)
	}
	return b.BroadcastTo(x, dims...)
}
