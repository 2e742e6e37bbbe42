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
	"gonum.org/v1/gonum/floats/scalar"
	"k8s.io/klog/v2"
)

// FFTConfig holds the optional parameters of FFT, IFFT and IFFTReal.
type FFTConfig struct {
	// N, if not 0, is the number of points of the transform: the signal is truncated or zero-padded along the
	// transformed axis to N. It defaults to the dimension of the axis.
	N int

	// Norm is one of NormBackward (also used if empty), NormOrtho or NormForward.
	Norm string

	// Out is an optional output tensor, written with the result only once it is successfully computed.
	Out *tensors.Tensor
}

// fftPlan holds the validated parameters of an FFT.
type fftPlan struct {
	axis, n int
	norm    string
}

func (config FFTConfig) validate(x *tensors.Tensor, dim int) (fftPlan, error) {
	var p fftPlan
	rank := x.Rank()
	var err error
	if p.axis, err = normalize.Axis(dim, rank); err != nil {
		return p, errors.WithMessagef(err, "invalid dim %d, expected it in the range [%d, %d]", dim, -rank, rank-1)
	}
	p.n = config.N
	if p.n == 0 {
		p.n = x.Shape().Dim(p.axis)
	}
	if p.n < -rank {
		return p, errors.Wrapf(compat.ErrInvalidArgument, "invalid number of points %d for a tensor of rank %d", p.n, rank)
	}
	if p.n <= 1 {
		return p, errors.Wrapf(compat.ErrInvalidArgument, "invalid number of points %d, expected more than 1", p.n)
	}
	p.norm = config.Norm
	if p.norm == "" {
		p.norm = NormBackward
	}
	if p.norm != NormBackward && p.norm != NormOrtho && p.norm != NormForward {
		return p, errors.Wrapf(compat.ErrUnsupportedNormalization, "unrecognized normalization mode %q", config.Norm)
	}
	return p, nil
}

// toComplex converts x to a complex dtype: Float64 to Complex128, anything else to Complex64.
func toComplex(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) {
	dtype := x.DType()
	switch {
	case dtype.IsComplex():
		return x, nil
	case dtype == dtypes.Float64:
		return b.ConvertDType(x, dtypes.Complex128)
	}
	klog.V(2).Infof("fft: converting %s to Complex64", x.Shape())
	return b.ConvertDType(x, dtypes.Complex64)
}

// FFT returns the discrete Fourier transform of x along dim, using the backend b.
//
// Real inputs are converted to complex. Invalid parameters (dim out of range, a number of points <= 1
// or an unrecognized normalization mode) return an error wrapping compat.ErrInvalidArgument.
func FFT(b backends.Backend, x *tensors.Tensor, dim int, config FFTConfig) (*tensors.Tensor, error) {
	result, err := fft(b, x, dim, config, "fft", backends.FFTForward)
	if err != nil {
		return nil, err
	}
	return compat.WriteOut(config.Out, result)
}

// IFFT returns the inverse discrete Fourier transform of x along dim, using the backend b.
//
// The result is always complex, see IFFTReal for the inverse of Hermitian spectra. Errors are the same as FFT.
func IFFT(b backends.Backend, x *tensors.Tensor, dim int, config FFTConfig) (*tensors.Tensor, error) {
	result, err := fft(b, x, dim, config, "ifft", backends.FFTInverse)
	if err != nil {
		return nil, err
	}
	return compat.WriteOut(config.Out, result)
}

// IFFTReal is like IFFT, but for spectra with conjugate symmetry (Hermitian), whose inverse is real:
// it returns the real part, with the real dtype.
//
// It returns an error wrapping compat.ErrInvalidArgument if the spectrum (after truncation or padding to
// config.N) is not Hermitian.
func IFFTReal(b backends.Backend, x *tensors.Tensor, dim int, config FFTConfig) (*tensors.Tensor, error) {
	p, err := config.validate(x, dim)
	if err != nil {
		return nil, err
	}
	if err = capability.For(b).Check(b, "ifft", x.DType()); err != nil {
		return nil, err
	}
	spectrum, err := toComplex(b, x)
	if err == nil {
		spectrum, err = resizeAxis(b, spectrum, p.axis, p.n)
	}
	if err != nil {
		return nil, err
	}
	if err = checkHermitian(spectrum, p.axis); err != nil {
		return nil, err
	}
	result, err := fft(b, spectrum, p.axis, FFTConfig{N: p.n, Norm: p.norm}, "ifft", backends.FFTInverse)
	if err != nil {
		return nil, err
	}
	if result, err = b.Real(result); err != nil {
		return nil, err
	}
	return compat.WriteOut(config.Out, result)
}

// fft validates, checks the capability table and transforms, scaling the result according to the norm.
func fft(b backends.Backend, x *tensors.Tensor, dim int, config FFTConfig, opName string, fftType backends.FFTType) (*tensors.Tensor, error) {
	p, err := config.validate(x, dim)
	if err != nil {
		return nil, err
	}
	if err = capability.For(b).Check(b, opName, x.DType()); err != nil {
		return nil, err
	}
	operand, err := toComplex(b, x)
	if err != nil {
		return nil, err
	}
	result, err := b.FFT(operand, fftType, p.axis, p.n)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s of %s", opName, x.Shape())
	}

	// The backend follows the "backward" norm: the inverse transform is scaled by 1/n.
	n := float64(p.n)
	scale := 1.0
	switch {
	case p.norm == NormOrtho && fftType == backends.FFTForward:
		scale = 1 / math.Sqrt(n)
	case p.norm == NormOrtho:
		scale = math.Sqrt(n)
	case p.norm == NormForward && fftType == backends.FFTForward:
		scale = 1 / n
	case p.norm == NormForward:
		scale = n
	}
	return mulScalar(b, result, scale)
}

// hermitianTolerance is the relative tolerance of the conjugate symmetry check, per complex dtype.
var hermitianTolerance = map[dtypes.DType]float64{
	dtypes.Complex64:  1e-5,
	dtypes.Complex128: 1e-12,
}

// checkHermitian checks that spectrum[k] == conj(spectrum[(n-k) % n]) along axis, for every line of the axis.
func checkHermitian(spectrum *tensors.Tensor, axis int) error {
	var values []complex128
	switch flat := spectrum.FlatAny().(type) {
	case []complex64:
		values = make([]complex128, len(flat))
		for ii, v := range flat {
			values[ii] = complex128(v)
		}
	case []complex128:
		values = flat
	}
	var magnitude float64
	for _, v := range values {
		magnitude = max(magnitude, math.Abs(real(v)), math.Abs(imag(v)))
	}
	tol := hermitianTolerance[spectrum.DType()] * max(magnitude, 1)
	dims := spectrum.Shape().Dimensions
	n := dims[axis]
	inner := spectrum.Shape().Strides()[axis]
	outer := len(values) / max(n*inner, 1)
	for o := range outer {
		for i := range inner {
			base := o*n*inner + i
			for k := range n {
				v := values[base+k*inner]
				mirror := values[base+((n-k)%n)*inner]
				if !scalar.EqualWithinAbs(real(v), real(mirror), tol) || !scalar.EqualWithinAbs(imag(v), -imag(mirror), tol) {
					return errors.Wrapf(compat.ErrInvalidArgument,
						"spectrum %s is not Hermitian along axis %d: element %d is %v, but element %d is %v",
						spectrum.Shape(), axis, k, v, (n-k)%n, mirror)
				}
			}
		}
	}
	return nil
}
