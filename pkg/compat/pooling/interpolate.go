// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pooling

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// InterpolationMode selects how Interpolate computes the resized values.
type InterpolationMode int

const (
	// Linear interpolates linearly along one spatial axis. It is the default.
	Linear InterpolationMode = iota

	// Bilinear interpolates linearly along two spatial axes.
	Bilinear

	// Trilinear interpolates linearly along three spatial axes.
	Trilinear

	// Nearest takes the input value at floor(dst*scale).
	Nearest

	// NearestExact takes the input value at floor((dst+0.5)*scale), the nearest pixel center.
	NearestExact

	// Area averages the input cells covered by each output cell, like AdaptiveAvgPool.
	Area
)

var interpolationModeNames = map[InterpolationMode]string{
	Linear:       "linear",
	Bilinear:     "bilinear",
	Trilinear:    "trilinear",
	Nearest:      "nearest",
	NearestExact: "nearest_exact",
	Area:         "area",
}

// unsupportedInterpolationModes are recognized by some frameworks, but not implemented.
var unsupportedInterpolationModes = []string{
	"bicubic", "tf_area", "bicubic_tensorflow", "mitchellcubic", "lanczos3", "lanczos5", "gaussian",
}

// String implements fmt.Stringer.
func (m InterpolationMode) String() string {
	if name, found := interpolationModeNames[m]; found {
		return name
	}
	return fmt.Sprintf("InterpolationMode(%d)", int(m))
}

// isLinear returns whether the mode interpolates linearly.
func (m InterpolationMode) isLinear() bool {
	return m == Linear || m == Bilinear || m == Trilinear
}

// ParseInterpolationMode parses the mode names ("linear", "nearest", "area", ...). Known modes that are not
// implemented (e.g. "bicubic") return an error wrapping compat.ErrUnsupportedConfiguration, unknown ones an error
// wrapping compat.ErrInvalidArgument.
func ParseInterpolationMode(name string) (InterpolationMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, modeName := range interpolationModeNames {
		if name == modeName {
			return mode, nil
		}
	}
	if slices.Contains(unsupportedInterpolationModes, name) {
		return Linear, errors.Wrapf(compat.ErrUnsupportedConfiguration, "interpolation mode %q is not supported", name)
	}
	return Linear, errors.Wrapf(compat.ErrInvalidArgument, "unknown interpolation mode %q", name)
}

// InterpolationBuilder is a helper to configure a resizing of the spatial axes of a tensor.
// Create it with Interpolate, set the desired parameters and call Done.
type InterpolationBuilder struct {
	backend      backends.Backend
	x            *tensors.Tensor
	mode         InterpolationMode
	sizes        []int
	scaleFactors []float64
	recompute    bool
	alignCorners bool
	antialias    bool
}

// Interpolate prepares the resizing of x, shaped [batch, channels, <spatial_dimensions...>], using the backend b.
//
// Exactly one of Size or ScaleFactor must be set. The default mode is Linear, which requires exactly one spatial
// axis (Bilinear two and Trilinear three).
func Interpolate(b backends.Backend, x *tensors.Tensor) *InterpolationBuilder {
	return &InterpolationBuilder{backend: b, x: x}
}

// Mode sets the interpolation mode. The default is Linear.
func (c *InterpolationBuilder) Mode(mode InterpolationMode) *InterpolationBuilder {
	c.mode = mode
	return c
}

// Size sets the output size of the spatial axes: one value for all of them, or one per spatial axis.
func (c *InterpolationBuilder) Size(sizes ...int) *InterpolationBuilder {
	c.sizes = sizes
	return c
}

// ScaleFactor sets the output sizes as floor(inputSize*scaleFactor): one value for all spatial axes, or one per
// spatial axis. Unless RecomputeScaleFactor is set, the scale factor is also used to map output coordinates to
// input coordinates.
func (c *InterpolationBuilder) ScaleFactor(scaleFactors ...float64) *InterpolationBuilder {
	c.scaleFactors = scaleFactors
	return c
}

// RecomputeScaleFactor maps coordinates with inputSize/outputSize instead of the given ScaleFactor.
func (c *InterpolationBuilder) RecomputeScaleFactor(recompute bool) *InterpolationBuilder {
	c.recompute = recompute
	return c
}

// AlignCorners aligns the centers of the corner cells of input and output, preserving the corner values.
// Only the linear modes accept it. The default is false.
func (c *InterpolationBuilder) AlignCorners(alignCorners bool) *InterpolationBuilder {
	c.alignCorners = alignCorners
	return c
}

// Antialias requests an anti-aliasing filter when downsampling. It is not supported, and Done returns an error
// wrapping compat.ErrUnsupportedConfiguration if it is set.
func (c *InterpolationBuilder) Antialias(antialias bool) *InterpolationBuilder {
	c.antialias = antialias
	return c
}

// perAxis expands values with one entry to numSpatialDims entries.
func perAxis[T any](values []T, numSpatialDims int, name string) ([]T, error) {
	switch len(values) {
	case 1:
		return xslices.SliceWithValue(numSpatialDims, values[0]), nil
	case numSpatialDims:
		return values, nil
	}
	return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "interpolation %s %v must have 1 or %d values",
		name, values, numSpatialDims)
}

// Done executes the interpolation and returns the resized tensor, shaped [batch, channels, <output_sizes...>].
func (c *InterpolationBuilder) Done() (*tensors.Tensor, error) {
	b, x := c.backend, c.x
	rank := x.Rank()
	numSpatialDims := rank - 2
	if numSpatialDims < 1 {
		return nil, errors.Wrapf(compat.ErrRankMismatch,
			"interpolation requires x shaped [batch, channels, <spatial_dimensions...>], got %s", x.Shape())
	}
	if _, found := interpolationModeNames[c.mode]; !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "invalid %s", c.mode)
	}
	if err := capability.For(b).Check(b, "interpolate", x.DType()); err != nil {
		return nil, err
	}
	if expected := int(c.mode-Linear) + 1; c.mode.isLinear() && numSpatialDims != expected {
		return nil, errors.Wrapf(compat.ErrRankMismatch, "%s interpolation requires %d spatial axes, got input %s",
			c.mode, expected, x.Shape())
	}
	if c.antialias {
		return nil, errors.Wrapf(compat.ErrUnsupportedConfiguration, "interpolation with antialias is not supported")
	}
	if c.alignCorners && !c.mode.isLinear() {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "align_corners can only be set with the linear modes, got %s", c.mode)
	}
	if (c.mode.isLinear() || c.mode == Area) && !x.DType().IsFloat() {
		return nil, errors.Wrapf(compat.ErrUnsupportedConfiguration, "%s interpolation requires a float dtype, got %s",
			c.mode, x.DType())
	}
	if x.DType().IsComplex() {
		return nil, errors.Wrapf(compat.ErrUnsupportedConfiguration, "interpolation of %s is not supported", x.DType())
	}

	inputSizes := x.Shape().Dimensions[2:]
	outputSizes, scales, err := c.outputSizesAndScales(inputSizes)
	if err != nil {
		return nil, errors.WithMessagef(err, "interpolation of %s", x.Shape())
	}
	klog.V(2).Infof("interpolate(%s): %s -> %v", c.mode, x.Shape(), outputSizes)

	result := x
	for ii, outSize := range outputSizes {
		axis := 2 + ii
		inSize := inputSizes[ii]
		switch {
		case c.mode == Area:
			result, err = adaptiveAxis(b, result, axis, outSize)
		case c.mode.isLinear():
			result, err = linearAxis(b, result, axis, outSize, scales[ii], c.alignCorners)
		default:
			if outSize == inSize && scales[ii] == 1 {
				continue
			}
			result, err = gatherAxis(b, result, axis, nearestIndices(inSize, outSize, scales[ii], c.mode == NearestExact))
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "%s interpolation of %s", c.mode, x.Shape())
		}
	}
	return result, nil
}

// outputSizesAndScales returns the output size of each spatial axis, and the scale mapping output coordinates to
// input coordinates.
func (c *InterpolationBuilder) outputSizesAndScales(inputSizes []int) (outputSizes []int, scales []float64, err error) {
	numSpatialDims := len(inputSizes)
	if (len(c.sizes) == 0) == (len(c.scaleFactors) == 0) {
		return nil, nil, errors.Wrapf(compat.ErrInvalidArgument, "exactly one of size or scale_factor must be set")
	}
	outputSizes = make([]int, numSpatialDims)
	scales = make([]float64, numSpatialDims)
	if len(c.sizes) > 0 {
		if outputSizes, err = perAxis(c.sizes, numSpatialDims, "size"); err != nil {
			return
		}
		outputSizes = slices.Clone(outputSizes)
	} else {
		var factors []float64
		if factors, err = perAxis(c.scaleFactors, numSpatialDims, "scale_factor"); err != nil {
			return
		}
		for ii, factor := range factors {
			if factor <= 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
				return nil, nil, errors.Wrapf(compat.ErrInvalidArgument, "invalid scale_factor %v", c.scaleFactors)
			}
			outputSizes[ii] = int(math.Floor(float64(inputSizes[ii]) * factor))
			if !c.recompute {
				scales[ii] = 1 / factor
			}
		}
	}
	for ii, outSize := range outputSizes {
		if outSize < 1 {
			return nil, nil, errors.Wrapf(compat.ErrInvalidParameterShape, "output sizes %v must be positive", outputSizes)
		}
		if scales[ii] == 0 {
			scales[ii] = float64(inputSizes[ii]) / float64(outSize)
		}
	}
	return outputSizes, scales, nil
}

// nearestIndices returns the input index taken by each output position.
func nearestIndices(inSize, outSize int, scale float64, exact bool) []int64 {
	indices := make([]int64, outSize)
	for dst := range indices {
		var src float64
		if exact {
			src = math.Floor((float64(dst) + 0.5) * scale)
		} else {
			src = math.Floor(float64(dst) * scale)
		}
		indices[dst] = int64(min(int(src), inSize-1))
	}
	return indices
}

// linearAxis interpolates one axis: each output position mixes the two nearest input positions.
func linearAxis(b backends.Backend, x *tensors.Tensor, axis, outSize int, scale float64, alignCorners bool) (*tensors.Tensor, error) {
	inSize := x.Shape().Dim(axis)
	if inSize == outSize && (alignCorners || scale == 1) {
		return x, nil
	}
	lowIndices := make([]int64, outSize)
	highIndices := make([]int64, outSize)
	lowWeights := make([]float64, outSize)
	highWeights := make([]float64, outSize)
	for dst := range outSize {
		var src float64
		switch {
		case alignCorners && outSize > 1:
			src = float64(dst) * float64(inSize-1) / float64(outSize-1)
		case alignCorners:
			src = 0
		default:
			src = max((float64(dst)+0.5)*scale-0.5, 0)
		}
		low := min(int(math.Floor(src)), inSize-1)
		high := min(low+1, inSize-1)
		lowIndices[dst], highIndices[dst] = int64(low), int64(high)
		highWeights[dst] = src - float64(low)
		lowWeights[dst] = 1 - highWeights[dst]
	}

	low, err := gatherAxis(b, x, axis, lowIndices)
	if err != nil {
		return nil, err
	}
	high, err := gatherAxis(b, x, axis, highIndices)
	if err != nil {
		return nil, err
	}
	if low, err = scaleAxis(b, low, axis, lowWeights); err != nil {
		return nil, err
	}
	if high, err = scaleAxis(b, high, axis, highWeights); err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeAdd, low, high)
}

// axisShaped returns dims with every axis set to 1 except axis, set to size.
func axisShaped(rank, axis, size int) []int {
	dims := xslices.SliceWithValue(rank, 1)
	dims[axis] = size
	return dims
}

// gatherAxis takes, for each output position p along axis, the input at indices[p].
func gatherAxis(b backends.Backend, x *tensors.Tensor, axis int, indices []int64) (*tensors.Tensor, error) {
	rank := x.Rank()
	idx := tensors.FromFlatDataAndDimensions(indices, axisShaped(rank, axis, len(indices))...)
	outputDims := slices.Clone(x.Shape().Dimensions)
	outputDims[axis] = len(indices)
	idx, err := b.BroadcastTo(idx, outputDims...)
	if err != nil {
		return nil, err
	}
	return b.GatherAlongAxis(x, idx, axis)
}

// scaleAxis multiplies each position p along axis by weights[p].
func scaleAxis(b backends.Backend, x *tensors.Tensor, axis int, weights []float64) (*tensors.Tensor, error) {
	w := tensors.FromFlatDataAndDimensions(weights, axisShaped(x.Rank(), axis, len(weights))...)
	w, err := b.ConvertDType(w, x.DType())
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMul, x, w)
}
