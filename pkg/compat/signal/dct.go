// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package signal

import (
	"math"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DCTConfig holds the parameters of DCT and IDCT.
type DCTConfig struct {
	// Type of the transform, from 1 to 4. The zero value means type 2.
	Type int

	// N, if > 0, is the length the signal is truncated or zero-padded to along Axis before the transform.
	N int

	// Axis of the transform. Negative values count from the end. The zero value is the first axis:
	// use -1 for the last one.
	Axis int

	// Norm is either "" (no normalization) or "ortho".
	Norm string

	// Out is an optional output tensor, written with the result only once it is successfully computed.
	Out *tensors.Tensor
}

// dctPlan holds the validated parameters of a DCT.
type dctPlan struct {
	dctType, axis int
	ortho         bool
}

func (config DCTConfig) validate(x *tensors.Tensor) (dctPlan, error) {
	p := dctPlan{dctType: config.Type}
	if p.dctType == 0 {
		p.dctType = 2
	}
	if p.dctType < 1 || p.dctType > 4 {
		return p, errors.Wrapf(compat.ErrInvalidArgument, "DCT type must be 1, 2, 3 or 4, got %d", config.Type)
	}
	switch config.Norm {
	case "":
	case NormOrtho:
		p.ortho = true
	default:
		return p, errors.Wrapf(compat.ErrInvalidArgument, "DCT norm must be either \"\" or %q, got %q", NormOrtho, config.Norm)
	}
	if p.dctType == 1 && p.ortho {
		return p, errors.Wrap(compat.ErrUnsupportedNormalization, "normalization not supported for type-I DCT")
	}
	if x.Rank() == 0 {
		return p, errors.Wrapf(compat.ErrInvalidArgument, "DCT requires a tensor with at least one axis, got %s", x.Shape())
	}
	var err error
	if p.axis, err = normalize.Axis(config.Axis, x.Rank()); err != nil {
		return p, err
	}
	if config.N < 0 {
		return p, errors.Wrapf(compat.ErrInvalidArgument, "DCT length n must be positive, got %d", config.N)
	}
	return p, nil
}

// prepare converts x to a float dtype and resizes it to config.N.
func (config DCTConfig) prepare(b backends.Backend, x *tensors.Tensor, p dctPlan) (*tensors.Tensor, error) {
	var err error
	if dtype := x.DType(); dtype != dtypes.Float32 && dtype != dtypes.Float64 {
		klog.V(2).Infof("dct: converting %s to Float32", x.Shape())
		if x, err = b.ConvertDType(x, dtypes.Float32); err != nil {
			return nil, err
		}
	}
	if config.N > 0 {
		if x, err = resizeAxis(b, x, p.axis, config.N); err != nil {
			return nil, err
		}
	}
	if x.Shape().Dim(p.axis) == 0 {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "DCT of an empty axis %d of %s", p.axis, x.Shape())
	}
	return x, nil
}

// DCT returns the discrete cosine transform of the given type of x along config.Axis, using the backend b.
//
// Non-float inputs are converted to Float32. The transforms are unnormalized unless config.Norm is "ortho",
// in which case types 2, 3 and 4 are orthonormal. Type 1 doesn't support normalization: it returns an error
// wrapping compat.ErrUnsupportedNormalization. Other invalid parameters return compat.ErrInvalidArgument.
func DCT(b backends.Backend, x *tensors.Tensor, config DCTConfig) (*tensors.Tensor, error) {
	p, err := config.validate(x)
	if err != nil {
		return nil, err
	}
	if err = capability.For(b).Check(b, "dct", x.DType()); err != nil {
		return nil, err
	}
	if x, err = config.prepare(b, x, p); err != nil {
		return nil, err
	}
	result, err := dct(b, x, p)
	if err != nil {
		return nil, errors.WithMessagef(err, "DCT type %d of %s", p.dctType, x.Shape())
	}
	return compat.WriteOut(config.Out, result)
}

// IDCT returns the inverse of DCT with the same configuration: the type-3 transform inverts type 2 and
// vice versa, and types 1 and 4 are their own inverses, up to scaling.
//
// Without normalization the results are scaled by 1/(2n), or 1/(2(n-1)) for type 1. With "ortho" the
// transforms are unitary and need no scaling.
func IDCT(b backends.Backend, x *tensors.Tensor, config DCTConfig) (*tensors.Tensor, error) {
	p, err := config.validate(x)
	if err != nil {
		return nil, err
	}
	if err = capability.For(b).Check(b, "idct", x.DType()); err != nil {
		return nil, err
	}
	if x, err = config.prepare(b, x, p); err != nil {
		return nil, err
	}
	n := x.Shape().Dim(p.axis)
	inverse := p
	scale := 1 / (2 * float64(n))
	switch p.dctType {
	case 1:
		if n < 2 {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "inverse type-I DCT requires at least 2 points, got %d", n)
		}
		scale = 1 / (2 * float64(n-1))
	case 2:
		inverse.dctType = 3
	case 3:
		inverse.dctType = 2
	}
	if p.ortho {
		scale = 1
	}
	result, err := dct(b, x, inverse)
	if err == nil {
		result, err = mulScalar(b, result, scale)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "IDCT type %d of %s", p.dctType, x.Shape())
	}
	return compat.WriteOut(config.Out, result)
}

// dct dispatches to the transform of each type, for a float x already resized.
func dct(b backends.Backend, x *tensors.Tensor, p dctPlan) (*tensors.Tensor, error) {
	switch p.dctType {
	case 1:
		return dct1(b, x, p.axis)
	case 2:
		return dct2(b, x, p.axis, p.ortho)
	case 3:
		return dct3(b, x, p.axis, p.ortho)
	}
	return dct4(b, x, p.axis, p.ortho)
}

// dct1 mirrors the signal without its end points, and takes the real part of its real FFT.
func dct1(b backends.Backend, x *tensors.Tensor, axis int) (*tensors.Tensor, error) {
	n := x.Shape().Dim(axis)
	mirrored := x
	if n > 2 {
		reversed, err := b.Reverse(x, axis)
		if err != nil {
			return nil, err
		}
		inner, err := sliceAxis(b, reversed, axis, 1, n-1, 1)
		if err != nil {
			return nil, err
		}
		if mirrored, err = b.Concatenate(axis, x, inner); err != nil {
			return nil, err
		}
	}
	spectrum, err := b.FFT(mirrored, backends.FFTForwardReal, axis, mirrored.Shape().Dim(axis))
	if err != nil {
		return nil, err
	}
	return b.Real(spectrum)
}

// dct2 takes the real part of the double length real FFT, shifted by half a sample.
func dct2(b backends.Backend, x *tensors.Tensor, axis int, ortho bool) (*tensors.Tensor, error) {
	n := x.Shape().Dim(axis)
	spectrum, err := b.FFT(x, backends.FFTForwardReal, axis, 2*n)
	if err != nil {
		return nil, err
	}
	if spectrum, err = sliceAxis(b, spectrum, axis, 0, n, 1); err != nil {
		return nil, err
	}
	if spectrum, err = mulAxisVector(b, spectrum, phases(n, -1, 2), axis); err != nil {
		return nil, err
	}
	result, err := b.Real(spectrum)
	if err != nil {
		return nil, err
	}
	if ortho {
		first := 0.5 / math.Sqrt(float64(n))
		return mulAxisVector(b, result, orthoScales(n, first, first*math.Sqrt2), axis)
	}
	return result, nil
}

// dct3 shifts the scaled signal by half a sample, and takes the double length inverse real FFT.
func dct3(b backends.Backend, x *tensors.Tensor, axis int, ortho bool) (*tensors.Tensor, error) {
	n := x.Shape().Dim(axis)
	var err error
	if ortho {
		first := math.Sqrt(float64(n))
		x, err = mulAxisVector(b, x, orthoScales(n, first, first*math.Sqrt(0.5)), axis)
	} else {
		x, err = mulScalar(b, x, float64(n))
	}
	if err != nil {
		return nil, err
	}
	zeros, err := b.Full(x.Shape(), 0)
	if err != nil {
		return nil, err
	}
	spectrum, err := b.Complex(x, zeros)
	if err != nil {
		return nil, err
	}
	if spectrum, err = mulAxisVector(b, spectrum, phases(n, 1, 2), axis); err != nil {
		return nil, err
	}
	result, err := b.FFT(spectrum, backends.FFTInverseReal, axis, 2*n)
	if err != nil {
		return nil, err
	}
	return sliceAxis(b, result, axis, 0, n, 1)
}

// dct4 takes the odd coefficients of the type-2 transform of the zero-padded, double length, signal.
func dct4(b backends.Backend, x *tensors.Tensor, axis int, ortho bool) (*tensors.Tensor, error) {
	n := x.Shape().Dim(axis)
	padded, err := resizeAxis(b, x, axis, 2*n)
	if err != nil {
		return nil, err
	}
	result, err := dct2(b, padded, axis, false)
	if err != nil {
		return nil, err
	}
	if result, err = sliceAxis(b, result, axis, 1, 2*n, 2); err != nil {
		return nil, err
	}
	if ortho {
		return mulScalar(b, result, math.Sqrt(0.5/float64(n)))
	}
	return result, nil
}
