// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package pooling implements max and average pooling for any number of spatial axes, with SAME, VALID or explicit
// padding, dilations, ceil mode and the exclusion of padded cells from the averages.
//
// Pooling is configured with a PoolBuilder, created with MaxPool or AvgPool, and executed with PoolBuilder.Done.
// The MaxPool1D/2D/3D and AvgPool1D/2D/3D functions are shortcuts for the most common configurations.
package pooling

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/compat/padding"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DataFormat configures the position of the channels axis.
type DataFormat int

const (
	// ChannelsLast is the [batch, <spatial_dimensions...>, channels] layout (NWC, NHWC, NDHWC).
	ChannelsLast DataFormat = iota

	// ChannelsFirst is the [batch, channels, <spatial_dimensions...>] layout (NCW, NCHW, NCDHW).
	ChannelsFirst
)

// String implements fmt.Stringer.
func (f DataFormat) String() string {
	switch f {
	case ChannelsLast:
		return "ChannelsLast"
	case ChannelsFirst:
		return "ChannelsFirst"
	}
	return fmt.Sprintf("DataFormat(%d)", int(f))
}

// ParseDataFormat converts layouts like "NHWC" or "NCDHW" to a DataFormat.
// Layouts starting with "NC" are ChannelsFirst, and layouts ending with "C" are ChannelsLast.
func ParseDataFormat(layout string) (DataFormat, error) {
	layout = strings.ToUpper(strings.TrimSpace(layout))
	switch {
	case len(layout) >= 3 && strings.HasPrefix(layout, "NC"):
		return ChannelsFirst, nil
	case len(layout) >= 3 && strings.HasPrefix(layout, "N") && strings.HasSuffix(layout, "C"):
		return ChannelsLast, nil
	}
	return ChannelsLast, errors.Wrapf(compat.ErrInvalidArgument, "unknown data format %q", layout)
}

// PoolBuilder is a helper to configure a pooling operation.
// Create it with MaxPool or AvgPool, set the desired parameters and call Done.
type PoolBuilder struct {
	backend         backends.Backend
	x               *tensors.Tensor
	isMax           bool
	window          normalize.Param
	strides         normalize.Param
	dilations       normalize.Param
	pad             normalize.Padding
	dataFormat      DataFormat
	ceilMode        bool
	countIncludePad bool
	out             *tensors.Tensor
	table           *capability.Table
}

// MaxPool prepares a max pooling of x, using the backend b, for any number of spatial axes. It returns the max
// value of each window. Padded cells never win the max.
//
// The shape of x should be [batch, <spatial_dimensions...>, channels] by default, or
// [batch, channels, <spatial_dimensions...>] if configured with DataFormat(ChannelsFirst).
//
// The window must be set with Window. The defaults are: strides equal to the window, no dilation,
// no padding, no ceil mode.
func MaxPool(b backends.Backend, x *tensors.Tensor) *PoolBuilder {
	return &PoolBuilder{backend: b, x: x, isMax: true, table: capability.For(b)}
}

// AvgPool prepares an average pooling of x, using the backend b, for any number of spatial axes.
//
// The shape of x should be [batch, <spatial_dimensions...>, channels] by default, or
// [batch, channels, <spatial_dimensions...>] if configured with DataFormat(ChannelsFirst).
//
// The window must be set with Window. The defaults are: strides equal to the window, no padding,
// no ceil mode, and padded cells are not counted in the averages (see CountIncludePad).
// Average pooling doesn't support dilations.
func AvgPool(b backends.Backend, x *tensors.Tensor) *PoolBuilder {
	return &PoolBuilder{backend: b, x: x, table: capability.For(b)}
}

// Window sets the size of the pooling window: a scalar for every spatial axis, or one value per spatial axis.
func (pool *PoolBuilder) Window(window normalize.Param) *PoolBuilder {
	pool.window = window
	return pool
}

// Strides sets the strides of the pooling: a scalar for every spatial axis, or one value per spatial axis.
// It defaults to the window size.
func (pool *PoolBuilder) Strides(strides normalize.Param) *PoolBuilder {
	pool.strides = strides
	return pool
}

// Dilations sets the dilations of the window. It defaults to 1 (no dilation). Only max pooling supports it.
func (pool *PoolBuilder) Dilations(dilations normalize.Param) *PoolBuilder {
	pool.dilations = dilations
	return pool
}

// Padding sets the padding: explicit amounts, or the Same or Valid policies. The default is no padding.
func (pool *PoolBuilder) Padding(pad normalize.Padding) *PoolBuilder {
	pool.pad = pad
	return pool
}

// DataFormat sets the position of the channels axis. The default is ChannelsLast.
func (pool *PoolBuilder) DataFormat(format DataFormat) *PoolBuilder {
	pool.dataFormat = format
	return pool
}

// CeilMode rounds the number of windows up instead of down, allowing a last partial window.
func (pool *PoolBuilder) CeilMode(ceilMode bool) *PoolBuilder {
	pool.ceilMode = ceilMode
	return pool
}

// CountIncludePad configures whether padded cells are counted in the averages. The default is false.
// It has no effect on max pooling.
func (pool *PoolBuilder) CountIncludePad(include bool) *PoolBuilder {
	pool.countIncludePad = include
	return pool
}

// Out sets an optional output tensor, written with the result only once it is successfully computed.
func (pool *PoolBuilder) Out(out *tensors.Tensor) *PoolBuilder {
	pool.out = out
	return pool
}

// Table sets the capability table checked before computing. The default is capability.For(b): the table
// bound to the backend with capability.Bind, or capability.Default. A nil table restores the default.
func (pool *PoolBuilder) Table(table *capability.Table) *PoolBuilder {
	if table == nil {
		table = capability.For(pool.backend)
	}
	pool.table = table
	return pool
}

// opName returns the name used in the capability table, e.g. "avg_pool2d".
func (pool *PoolBuilder) opName(numSpatialDims int) string {
	kind := "avg"
	if pool.isMax {
		kind = "max"
	}
	return fmt.Sprintf("%s_pool%dd", kind, numSpatialDims)
}

// poolPlan holds the normalized parameters of the pooling, for the spatial axes only.
type poolPlan struct {
	spatialDims, window, strides, dilations, effectiveKernel []int
	pads                                                     [][2]int
	outputDims, overhangs                                    []int
}

// checkDType returns an error if the pooling can't handle the dtype.
func (pool *PoolBuilder) checkDType(dtype dtypes.DType) error {
	switch {
	case dtype == dtypes.Bool || dtype.IsComplex():
		return errors.Wrapf(compat.ErrUnsupportedConfiguration, "pooling doesn't support dtype %s", dtype)
	case !pool.isMax && !dtype.IsFloat():
		return errors.Wrapf(compat.ErrUnsupportedConfiguration, "average pooling requires a float dtype, got %s", dtype)
	}
	return nil
}

// plan normalizes and validates the parameters.
func (pool *PoolBuilder) plan(spatialDims []int) (*poolPlan, error) {
	numSpatialDims := len(spatialDims)
	p := &poolPlan{spatialDims: spatialDims}
	var err error
	if p.window, err = pool.window.Positive("window", numSpatialDims); err != nil {
		return nil, err
	}
	p.strides = p.window
	if pool.strides.IsSet() {
		if p.strides, err = pool.strides.Positive("strides", numSpatialDims); err != nil {
			return nil, err
		}
	}
	p.dilations = xslices.SliceWithValue(numSpatialDims, 1)
	if pool.dilations.IsSet() {
		if p.dilations, err = pool.dilations.Positive("dilations", numSpatialDims); err != nil {
			return nil, err
		}
		if !pool.isMax && slices.ContainsFunc(p.dilations, func(d int) bool { return d != 1 }) {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "average pooling doesn't support dilations, got %v", p.dilations)
		}
	}
	p.effectiveKernel = make([]int, numSpatialDims)
	for axis := range numSpatialDims {
		p.effectiveKernel[axis] = padding.EffectiveKernel(p.window[axis], p.dilations[axis])
	}
	if p.pads, err = padding.Resolve(pool.pad, spatialDims, p.window, p.strides, p.dilations); err != nil {
		return nil, err
	}
	if pool.pad.Policy() == normalize.Explicit {
		if err = normalize.CheckKernelPadding(p.effectiveKernel, p.pads); err != nil {
			return nil, err
		}
	}
	if err = normalize.CheckKernelFits(spatialDims, p.effectiveKernel, p.pads); err != nil {
		return nil, err
	}
	p.outputDims = make([]int, numSpatialDims)
	p.overhangs = make([]int, numSpatialDims)
	for axis, dim := range spatialDims {
		p.outputDims[axis] = padding.OutputSize(dim, p.effectiveKernel[axis], p.strides[axis], p.pads[axis], pool.ceilMode)
		p.overhangs[axis] = padding.Overhang(dim, p.effectiveKernel[axis], p.strides[axis], p.pads[axis], p.outputDims[axis])
	}
	return p, nil
}

// Done validates the configuration, checks the capability table, and runs the pooling.
//
// Errors wrap compat.ErrUnsupportedConfiguration (capability or dtype), compat.ErrRankMismatch (x without
// spatial axes), compat.ErrInvalidParameterShape or compat.ErrIncompatibleKernelPadding. They are all
// returned before anything is computed.
func (pool *PoolBuilder) Done() (*tensors.Tensor, error) {
	x := pool.x
	rank := x.Rank()
	numSpatialDims := rank - 2
	if numSpatialDims < 1 {
		return nil, errors.Wrapf(compat.ErrRankMismatch,
			"pooling requires x shaped [batch, <spatial_dimensions...>, channels] (or channels first), got %s", x.Shape())
	}
	opName := pool.opName(numSpatialDims)
	if err := pool.table.Check(pool.backend, opName, x.DType()); err != nil {
		return nil, err
	}
	if err := pool.checkDType(x.DType()); err != nil {
		return nil, errors.WithMessage(err, opName)
	}

	// Work in channels-last layout.
	toChannelsLast := xslices.Iota(0, rank)
	fromChannelsLast := xslices.Iota(0, rank)
	if pool.dataFormat == ChannelsFirst {
		toChannelsLast = append([]int{0}, append(xslices.Iota(2, numSpatialDims), 1)...)
		fromChannelsLast = append([]int{0, rank - 1}, xslices.Iota(1, numSpatialDims)...)
	}
	dims := make([]int, rank)
	for axis, from := range toChannelsLast {
		dims[axis] = x.Shape().Dim(from)
	}
	p, err := pool.plan(dims[1 : rank-1])
	if err != nil {
		return nil, errors.WithMessagef(err, "%s of %s", opName, x.Shape())
	}
	klog.V(2).Infof("%s: x=%s, window=%v, strides=%v, dilations=%v, pads=%v, output=%v, ceil=%v",
		opName, x.Shape(), p.window, p.strides, p.dilations, p.pads, p.outputDims, pool.ceilMode)

	b := pool.backend
	operand := x
	if pool.dataFormat == ChannelsFirst {
		if operand, err = b.Transpose(operand, toChannelsLast...); err != nil {
			return nil, err
		}
	}
	fullPads := make([][2]int, rank)
	copy(fullPads[1:rank-1], p.pads)
	hasPadding := slices.ContainsFunc(p.pads, func(pair [2]int) bool { return pair[0] > 0 || pair[1] > 0 })
	if hasPadding {
		var fill any = 0
		if pool.isMax {
			fill = x.DType().LowestValue()
		}
		if operand, err = b.Pad(operand, fill, fullPads); err != nil {
			return nil, err
		}
	}
	reduction := backends.ReduceOpMean
	if pool.isMax {
		reduction = backends.ReduceOpMax
	}
	result, err := b.ReduceWindow(operand, backends.ReduceWindowConfig{
		Reduction:        reduction,
		WindowDimensions: withBatchAndChannels(p.window, 1, 1),
		Strides:          withBatchAndChannels(p.strides, 1, 1),
		WindowDilations:  withBatchAndChannels(p.dilations, 1, 1),
		OutputDimensions: withBatchAndChannels(p.outputDims, dims[0], dims[rank-1]),
	})
	if err != nil {
		return nil, err
	}

	hasOverhang := slices.ContainsFunc(p.overhangs, func(c int) bool { return c > 0 })
	if !pool.isMax && !pool.countIncludePad && (hasPadding || hasOverhang) {
		if result, err = pool.excludePadding(result, p); err != nil {
			return nil, err
		}
	}
	if pool.dataFormat == ChannelsFirst {
		if result, err = b.Transpose(result, fromChannelsLast...); err != nil {
			return nil, err
		}
	}
	return compat.WriteOut(pool.out, result)
}

// excludePadding rescales the pooled averages so padded cells are not counted.
func (pool *PoolBuilder) excludePadding(pooled *tensors.Tensor, p *poolPlan) (*tensors.Tensor, error) {
	perAxis := make([][]float64, len(p.spatialDims))
	kernelProduct := 1
	for axis, dim := range p.spatialDims {
		counts := padding.PaddedCounts(dim, p.window[axis], p.strides[axis], p.pads[axis], p.outputDims[axis])
		perAxis[axis] = padding.AdjustCeil(counts, p.window[axis], p.overhangs[axis])
		kernelProduct *= p.window[axis]
	}
	factors := padding.RescaleFactors(padding.CombineCounts(perAxis, p.window), kernelProduct)
	factorsT := tensors.FromFlatDataAndDimensions(factors, withBatchAndChannels(p.outputDims, 1, 1)...)
	b := pool.backend
	factorsT, err := b.ConvertDType(factorsT, pooled.DType())
	if err != nil {
		return nil, err
	}
	return b.Binary(backends.OpTypeMul, pooled, factorsT)
}

// withBatchAndChannels returns the spatial values with the batch and channels values around them.
func withBatchAndChannels(spatial []int, batch, channels int) []int {
	values := make([]int, 0, len(spatial)+2)
	values = append(values, batch)
	values = append(values, spatial...)
	return append(values, channels)
}
