// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package registry

import (
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/manipulation"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/compat/pooling"
	"github.com/gomlx/arraycompat/pkg/compat/setops"
	"github.com/gomlx/arraycompat/pkg/compat/signal"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Default registry, with the canonical kernels and the raw-op style entries. It is built at initialization
// and not changed afterwards.
var Default = newDefault()

// rawUnaryOps are raw ops taking the single argument "x".
var rawUnaryOps = map[string]backends.OpType{
	"Abs":        backends.OpTypeAbs,
	"Acos":       backends.OpTypeAcos,
	"Asin":       backends.OpTypeAsin,
	"Atan":       backends.OpTypeAtan,
	"Ceil":       backends.OpTypeCeil,
	"Cos":        backends.OpTypeCos,
	"Exp":        backends.OpTypeExp,
	"Floor":      backends.OpTypeFloor,
	"IsNan":      backends.OpTypeIsNaN,
	"Log":        backends.OpTypeLog,
	"LogicalNot": backends.OpTypeLogicalNot,
	"Neg":        backends.OpTypeNeg,
	"Sign":       backends.OpTypeSign,
	"Sin":        backends.OpTypeSin,
	"Sqrt":       backends.OpTypeSqrt,
}

// rawBinaryOps are raw ops taking the arguments "x" and "y", of the same dtype.
var rawBinaryOps = map[string]backends.OpType{
	"Add":          backends.OpTypeAdd,
	"Sub":          backends.OpTypeSub,
	"Mul":          backends.OpTypeMul,
	"Div":          backends.OpTypeDiv,
	"Maximum":      backends.OpTypeMax,
	"Minimum":      backends.OpTypeMin,
	"Pow":          backends.OpTypePow,
	"Equal":        backends.OpTypeEqual,
	"NotEqual":     backends.OpTypeNotEqual,
	"Less":         backends.OpTypeLessThan,
	"LessEqual":    backends.OpTypeLessOrEqual,
	"Greater":      backends.OpTypeGreaterThan,
	"GreaterEqual": backends.OpTypeGreaterOrEqual,
	"LogicalAnd":   backends.OpTypeLogicalAnd,
	"LogicalOr":    backends.OpTypeLogicalOr,
}

// aliases of the Default registry: {alias: {target, renames}}.
var aliases = []struct {
	name, target string
	renames      map[string]string
}{
	{"AddV2", "Add", nil},
	{"ArgMax", "argmax", map[string]string{"dimension": "axis"}},
	{"ArgMin", "argmin", map[string]string{"dimension": "axis"}},
	{"BroadcastTo", "broadcast_to", nil},
	{"Concat", "concat", map[string]string{"concat_dim": "axis"}},
	{"ConcatV2", "concat", nil},
	{"Pack", "stack", nil},
	{"Reshape", "reshape", nil},
	{"Transpose", "transpose", map[string]string{"perm": "axes"}},
	{"OnesLike", "ones_like", nil},
	{"Pad", "pad", nil},
	{"PadV2", "pad", nil},
	{"ReverseV2", "reverse", nil},
	{"Slice", "slice", nil},
	{"Squeeze", "squeeze", nil},
	{"ZerosLike", "zeros_like", nil},
}

func newDefault() *Registry {
	r := New(nil)
	for name, op := range rawUnaryOps {
		r.Register(name, unaryOp(op))
	}
	for name, op := range rawBinaryOps {
		r.Register(name, binaryOp(op))
	}
	r.Register("Square", square)
	r.Register("ApproximateEqual", approximateEqual)
	r.Register("Tanh", tanh)
	r.Register("Real", realOp)
	r.Register("Reverse", reverseMask)
	r.Register("Imag", complexPart(imagPart))
	r.Register("Conj", complexPart(conjugate))

	r.Register("argmax", argMinMax(false))
	r.Register("argmin", argMinMax(true))
	r.Register("concat", concat)
	r.Register("stack", stack)
	r.Register("broadcast_to", broadcastTo)
	r.Register("reshape", reshape)
	r.Register("transpose", transpose)
	r.Register("reverse", reverse)
	r.Register("slice", slice)
	r.Register("pad", pad)
	r.Register("squeeze", squeeze)
	r.Register("zeros_like", filledLike(0))
	r.Register("ones_like", filledLike(1))

	r.Register("take_along_axis", takeAlongAxis)
	r.Register("expand", expand)
	r.Register("vstack", stacking(manipulation.VStack))
	r.Register("hstack", stacking(manipulation.HStack))
	r.Register("dstack", stacking(manipulation.DStack))
	r.Register("moveaxis", moveAxis)
	r.Register("fliplr", flip(manipulation.FlipLR))
	r.Register("flipud", flip(manipulation.FlipUD))
	r.Register("heaviside", heaviside)
	r.Register("unique_values", uniqueValues)
	r.Register("dct", dct(signal.DCT))
	r.Register("idct", dct(signal.IDCT))
	r.Register("fft", fft(signal.FFT))
	r.Register("ifft", fft(signal.IFFT))
	r.Register("max_pool2d", pool2D(pooling.MaxPool))
	r.Register("avg_pool2d", pool2D(pooling.AvgPool))
	r.Register("embedding", embedding)
	r.Register("interpolate", interpolate)

	for _, alias := range aliases {
		if err := r.Alias(alias.name, alias.target, alias.renames); err != nil {
			exceptions.Panicf("failed to register alias %q: %+v", alias.name, err)
		}
	}
	klog.V(1).Infof("registry: %d default operations registered", len(r.entries))
	return r
}

func unaryOp(op backends.OpType) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		x, err := kwargs.Tensor("x")
		if err != nil {
			return nil, err
		}
		return b.Unary(op, x)
	}
}

// sameDTypes returns x and y, or an error if they don't share a dtype. Raw ops don't promote.
func sameDTypes(kwargs Kwargs) (x, y *tensors.Tensor, err error) {
	if x, err = kwargs.Tensor("x"); err != nil {
		return
	}
	if y, err = kwargs.Tensor("y"); err != nil {
		return
	}
	if x.DType() != y.DType() {
		err = errors.Wrapf(compat.ErrInvalidArgument, "x and y must have the same dtype, got %s and %s", x.DType(), y.DType())
	}
	return
}

func binaryOp(op backends.OpType) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		x, y, err := sameDTypes(kwargs)
		if err != nil {
			return nil, err
		}
		result, err := b.Binary(op, x, y)
		if err != nil {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "%v", err)
		}
		return result, nil
	}
}

func square(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, err := kwargs.Tensor("x")
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMul, x, x)
}

// approximateEqual returns |x - y| < tolerance.
func approximateEqual(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, y, err := sameDTypes(kwargs)
	if err != nil {
		return nil, err
	}
	tolerance, err := kwargs.Float("tolerance", 1e-5)
	if err != nil {
		return nil, err
	}
	if x.DType().IsComplex() || x.DType() == dtypes.Bool {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "ApproximateEqual requires a real number dtype, got %s", x.DType())
	}
	diff, err := b.Binary(backends.OpTypeSub, x, y)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "%v", err)
	}
	if !diff.DType().IsFloat() {
		// Integer differences are compared in Float64, so a fractional tolerance is not truncated.
		if diff, err = b.ConvertDType(diff, dtypes.Float64); err != nil {
			return nil, err
		}
	}
	if diff, err = b.Unary(backends.OpTypeAbs, diff); err != nil {
		return nil, err
	}
	tol, err := b.Full(shapes.Make(diff.DType()), tolerance)
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeLessThan, diff, tol)
}

// argMinMax takes "input", "axis" and the optional "output_type" (Int32 or Int64, the default).
func argMinMax(isMin bool) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		input, err := kwargs.Tensor("input")
		if err != nil {
			return nil, err
		}
		axis, err := kwargs.RequiredInt("axis")
		if err != nil {
			return nil, err
		}
		if axis, err = normalize.Axis(axis, input.Rank()); err != nil {
			return nil, err
		}
		outputDType, err := kwargs.DType("output_type", dtypes.Int64)
		if err != nil {
			return nil, err
		}
		if outputDType != dtypes.Int32 {
			outputDType = dtypes.Int64
		}
		return b.ArgMinMax(input, axis, outputDType, isMin)
	}
}

// concat takes "values" and "axis".
func concat(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	values, err := kwargs.Tensors("values")
	if err != nil {
		return nil, err
	}
	axis, err := kwargs.RequiredInt("axis")
	if err != nil {
		return nil, err
	}
	return manipulation.ConcatFromSequence(b, values, 0, axis)
}

// stack takes "values" and the optional "axis" (default 0).
func stack(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	values, err := kwargs.Tensors("values")
	if err != nil {
		return nil, err
	}
	axis, err := kwargs.Int("axis", 0)
	if err != nil {
		return nil, err
	}
	return manipulation.ConcatFromSequence(b, values, 1, axis)
}

// broadcastTo takes "input" and "shape".
func broadcastTo(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	input, err := kwargs.Tensor("input")
	if err != nil {
		return nil, err
	}
	shape, err := kwargs.Ints("shape")
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(shape, func(dim int) bool { return dim < 0 }) {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "invalid shape %v", shape)
	}
	result, err := b.BroadcastTo(input, shape...)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "%v", err)
	}
	return result, nil
}

// resolveReshape replaces at most one -1 in dims by the dimension that keeps the size.
func resolveReshape(size int, dims []int) ([]int, error) {
	resolved := slices.Clone(dims)
	inferred := -1
	known := 1
	for axis, dim := range dims {
		switch {
		case dim == -1 && inferred == -1:
			inferred = axis
		case dim < 0:
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "invalid shape %v", dims)
		default:
			known *= dim
		}
	}
	if inferred >= 0 {
		if known == 0 || size%known != 0 {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "cannot reshape %d elements to %v", size, dims)
		}
		resolved[inferred] = size / known
	}
	return resolved, nil
}

// reshape takes "tensor" and "shape", which may hold one -1.
func reshape(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	tensor, err := kwargs.Tensor("tensor")
	if err != nil {
		return nil, err
	}
	shape, err := kwargs.Ints("shape")
	if err != nil {
		return nil, err
	}
	if shape, err = resolveReshape(tensor.Size(), shape); err != nil {
		return nil, err
	}
	result, err := b.Reshape(tensor, shape...)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "%v", err)
	}
	return result, nil
}

// transpose takes "x" and the optional "axes" (default is reversing the axes).
func transpose(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, err := kwargs.Tensor("x")
	if err != nil {
		return nil, err
	}
	var axes []int
	if _, found := kwargs["axes"]; found {
		if axes, err = kwargs.Ints("axes"); err != nil {
			return nil, err
		}
		if axes, err = normalize.Axes(axes, x.Rank()); err != nil {
			return nil, err
		}
	} else {
		axes = make([]int, x.Rank())
		for ii := range axes {
			axes[ii] = x.Rank() - 1 - ii
		}
	}
	result, err := b.Transpose(x, axes...)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "%v", err)
	}
	return result, nil
}

// takeAlongAxis takes "arr", "indices", "axis" and the optional "mode" (default "fill").
func takeAlongAxis(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	arr, err := kwargs.Tensor("arr")
	if err != nil {
		return nil, err
	}
	indices, err := kwargs.Tensor("indices")
	if err != nil {
		return nil, err
	}
	axis, err := kwargs.RequiredInt("axis")
	if err != nil {
		return nil, err
	}
	modeName, err := kwargs.String("mode", manipulation.ModeFill.String())
	if err != nil {
		return nil, err
	}
	mode, err := manipulation.ParseMode(modeName)
	if err != nil {
		return nil, err
	}
	return manipulation.TakeAlongAxis(b, arr, indices, axis, mode)
}

// expand takes "x" and "shape".
func expand(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, err := kwargs.Tensor("x")
	if err != nil {
		return nil, err
	}
	shape, err := kwargs.Ints("shape")
	if err != nil {
		return nil, err
	}
	return manipulation.Expand(b, x, shape...)
}

// stacking takes "arrays".
func stacking(fn func(b backends.Backend, arrays ...*tensors.Tensor) (*tensors.Tensor, error)) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		arrays, err := kwargs.Tensors("arrays")
		if err != nil {
			return nil, err
		}
		return fn(b, arrays...)
	}
}

// moveAxis takes "a", "source" and "destination".
func moveAxis(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	a, err := kwargs.Tensor("a")
	if err != nil {
		return nil, err
	}
	source, err := kwargs.Ints("source")
	if err != nil {
		return nil, err
	}
	destination, err := kwargs.Ints("destination")
	if err != nil {
		return nil, err
	}
	return manipulation.MoveAxis(b, a, source, destination)
}

// flip takes "m".
func flip(fn func(b backends.Backend, m *tensors.Tensor) (*tensors.Tensor, error)) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		m, err := kwargs.Tensor("m")
		if err != nil {
			return nil, err
		}
		return fn(b, m)
	}
}

// heaviside takes "x1" and "x2".
func heaviside(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x1, err := kwargs.Tensor("x1")
	if err != nil {
		return nil, err
	}
	x2, err := kwargs.Tensor("x2")
	if err != nil {
		return nil, err
	}
	return manipulation.Heaviside(b, x1, x2)
}

// uniqueValues takes "x".
func uniqueValues(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, err := kwargs.Tensor("x")
	if err != nil {
		return nil, err
	}
	return setops.UniqueValues(b, x)
}

// dct takes "x" and the optional "type" (default 2), "n", "axis" (default -1) and "norm".
func dct(fn func(b backends.Backend, x *tensors.Tensor, config signal.DCTConfig) (*tensors.Tensor, error)) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		x, err := kwargs.Tensor("x")
		if err != nil {
			return nil, err
		}
		var config signal.DCTConfig
		if config.Type, err = kwargs.Int("type", 2); err != nil {
			return nil, err
		}
		if config.N, err = kwargs.Int("n", 0); err != nil {
			return nil, err
		}
		if config.Axis, err = kwargs.Int("axis", -1); err != nil {
			return nil, err
		}
		if config.Norm, err = kwargs.String("norm", ""); err != nil {
			return nil, err
		}
		return fn(b, x, config)
	}
}

// fft takes "x" and the optional "dim" (default -1), "n" and "norm" (default "backward").
func fft(fn func(b backends.Backend, x *tensors.Tensor, dim int, config signal.FFTConfig) (*tensors.Tensor, error)) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		x, err := kwargs.Tensor("x")
		if err != nil {
			return nil, err
		}
		dim, err := kwargs.Int("dim", -1)
		if err != nil {
			return nil, err
		}
		var config signal.FFTConfig
		if config.N, err = kwargs.Int("n", 0); err != nil {
			return nil, err
		}
		if config.Norm, err = kwargs.String("norm", signal.NormBackward); err != nil {
			return nil, err
		}
		return fn(b, x, dim, config)
	}
}

// pool2D takes "input", "kernel" and the optional "strides" (default to kernel), "padding" (default
// "VALID"), "data_format" (default "NHWC"), "ceil_mode" and "count_include_pad".
func pool2D(newPool func(b backends.Backend, x *tensors.Tensor) *pooling.PoolBuilder) OpFunc {
	return func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
		input, err := kwargs.Tensor("input")
		if err != nil {
			return nil, err
		}
		if input.Rank() != 4 {
			return nil, errors.Wrapf(compat.ErrRankMismatch, "2D pooling requires an input of rank 4, got %s", input.Shape())
		}
		kernel, err := kwargs.Param("kernel")
		if err != nil {
			return nil, err
		}
		pool := newPool(b, input).Window(kernel)
		if _, found := kwargs["strides"]; found {
			strides, err := kwargs.Param("strides")
			if err != nil {
				return nil, err
			}
			pool.Strides(strides)
		}
		pad, err := kwargs.Padding("padding")
		if err != nil {
			return nil, err
		}
		layout, err := kwargs.String("data_format", "NHWC")
		if err != nil {
			return nil, err
		}
		format, err := pooling.ParseDataFormat(layout)
		if err != nil {
			return nil, err
		}
		ceilMode, err := kwargs.Bool("ceil_mode", false)
		if err != nil {
			return nil, err
		}
		includePad, err := kwargs.Bool("count_include_pad", false)
		if err != nil {
			return nil, err
		}
		return pool.Padding(pad).DataFormat(format).CeilMode(ceilMode).CountIncludePad(includePad).Done()
	}
}

// embedding takes "weights", "indices" and the optional "max_norm" (by default no renormalization).
func embedding(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	weights, err := kwargs.Tensor("weights")
	if err != nil {
		return nil, err
	}
	indices, err := kwargs.Tensor("indices")
	if err != nil {
		return nil, err
	}
	maxNorm, err := kwargs.Float("max_norm", 0)
	if err != nil {
		return nil, err
	}
	return manipulation.Embedding(b, weights, indices, maxNorm)
}

// interpolate takes "x", one of "size" or "scale_factor", and the optional "mode" (default "linear"),
// "recompute_scale_factor", "align_corners" and "antialias".
func interpolate(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error) {
	x, err := kwargs.Tensor("x")
	if err != nil {
		return nil, err
	}
	modeName, err := kwargs.String("mode", pooling.Linear.String())
	if err != nil {
		return nil, err
	}
	mode, err := pooling.ParseInterpolationMode(modeName)
	if err != nil {
		return nil, err
	}
	config := pooling.Interpolate(b, x).Mode(mode)
	if _, found := kwargs["size"]; found {
		sizes, err := kwargs.Ints("size")
		if err != nil {
			return nil, err
		}
		config.Size(sizes...)
	}
	if _, found := kwargs["scale_factor"]; found {
		factors, err := kwargs.Floats("scale_factor")
		if err != nil {
			return nil, err
		}
		config.ScaleFactor(factors...)
	}
	recompute, err := kwargs.Bool("recompute_scale_factor", false)
	if err != nil {
		return nil, err
	}
	alignCorners, err := kwargs.Bool("align_corners", false)
	if err != nil {
		return nil, err
	}
	antialias, err := kwargs.Bool("antialias", false)
	if err != nil {
		return nil, err
	}
	return config.RecomputeScaleFactor(recompute).AlignCorners(alignCorners).Antialias(antialias).Done()
}
