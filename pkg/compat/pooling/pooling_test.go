// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pooling

import (
	"testing"

	"github.com/gomlx/arraycompat/backends/simplego"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var backend = must.M1(simplego.New(""))

func iotaFloat32(dims ...int) *tensors.Tensor {
	size := shapes.Make(dtypes.Float32, dims...).Size()
	values := make([]float32, size)
	for ii := range values {
		values[ii] = float32(ii + 1)
	}
	return tensors.FromFlatDataAndDimensions(values, dims...)
}

func TestAvgPoolSameOnes(t *testing.T) {
	x := tensors.FromScalarAndDimensions(float32(1), 1, 4, 4, 1)
	got, err := AvgPool2D(backend, x, normalize.Scalar(2), normalize.Scalar(2), normalize.PadSame(), "NHWC")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 1}, got.Shape().Dimensions)
	assert.Equal(t, []float32{1, 1, 1, 1}, tensors.Flat[float32](got))
}

func TestMaxPool(t *testing.T) {
	x := iotaFloat32(1, 4, 4, 1)
	got, err := MaxPool2D(backend, x, normalize.Scalar(2), normalize.Param{}, normalize.PadValid(), "NHWC")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 1}, got.Shape().Dimensions)
	assert.Equal(t, []float32{6, 8, 14, 16}, tensors.Flat[float32](got))

	// Channels first gives the same values.
	xFirst := iotaFloat32(1, 1, 4, 4)
	got, err = MaxPool2D(backend, xFirst, normalize.Sequence(2, 2), normalize.Scalar(2), normalize.Padding{}, "NCHW")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2}, got.Shape().Dimensions)
	assert.Equal(t, []float32{6, 8, 14, 16}, tensors.Flat[float32](got))

	// Padded cells never win the max, also for integers.
	xInt := tensors.FromFlatDataAndDimensions([]int32{-5, -3, -7}, 1, 3, 1)
	got, err = MaxPool1D(backend, xInt, normalize.Scalar(3), normalize.Scalar(1), normalize.PadSame(), "NWC")
	require.NoError(t, err)
	assert.Equal(t, []int32{-3, -3, -3}, tensors.Flat[int32](got))

	// Dilation.
	xDilated := tensors.FromFlatDataAndDimensions([]float64{1, 5, 2, 4, 3}, 1, 5, 1)
	got, err = MaxPool(backend, xDilated).Window(normalize.Scalar(2)).Strides(normalize.Scalar(1)).
		Dilations(normalize.Scalar(2)).Done()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5, 3}, tensors.Flat[float64](got))

	// Ceil mode keeps the last partial window.
	got, err = MaxPool(backend, iotaFloat32(1, 5, 1)).Window(normalize.Scalar(2)).CeilMode(true).Done()
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 5}, tensors.Flat[float32](got))

	// 3D.
	got, err = MaxPool3D(backend, iotaFloat32(1, 2, 2, 2, 1), normalize.Scalar(2), normalize.Param{}, normalize.Padding{}, "NDHWC")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, got.Shape().Dimensions)
	assert.Equal(t, []float32{8}, tensors.Flat[float32](got))
}

func TestAvgPoolPadding(t *testing.T) {
	x := iotaFloat32(1, 4, 1)

	// Padded cells excluded (the default).
	got, err := AvgPool(backend, x).Window(normalize.Scalar(3)).Strides(normalize.Scalar(1)).
		Padding(normalize.PadInt(1)).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1.5, 2, 3, 3.5}, tensors.Flat[float32](got), 1e-6)

	// Padded cells included.
	got, err = AvgPool(backend, x).Window(normalize.Scalar(3)).Strides(normalize.Scalar(1)).
		Padding(normalize.PadInt(1)).CountIncludePad(true).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 2, 3, 7.0 / 3.0}, tensors.Flat[float32](got), 1e-6)

	// Ceil mode without padding: the last window averages only its real cells.
	got, err = AvgPool(backend, iotaFloat32(1, 5, 1)).Window(normalize.Scalar(2)).CeilMode(true).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1.5, 3.5, 5}, tensors.Flat[float32](got), 1e-6)

	// Ceil mode with padding.
	got, err = AvgPool(backend, x).Window(normalize.Scalar(3)).Strides(normalize.Scalar(2)).
		Padding(normalize.PadInt(1)).CeilMode(true).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1.5, 3, 4}, tensors.Flat[float32](got), 1e-6)
	got, err = AvgPool(backend, x).Window(normalize.Scalar(3)).Strides(normalize.Scalar(2)).
		Padding(normalize.PadInt(1)).CeilMode(true).CountIncludePad(true).Done()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 3, 2}, tensors.Flat[float32](got), 1e-6)
}

// bruteForceAvgPool2D averages the real cells of each window of a [height, width] matrix, for
// symmetric padding pad and ceil mode.
func bruteForceAvgPool2D(values []float64, height, width, kernel, stride, pad, outH, outW int) []float64 {
	result := make([]float64, 0, outH*outW)
	for i := range outH {
		for j := range outW {
			var sum, count float64
			for r := i*stride - pad; r < i*stride-pad+kernel; r++ {
				for c := j*stride - pad; c < j*stride-pad+kernel; c++ {
					if r >= 0 && r < height && c >= 0 && c < width {
						sum += values[r*width+c]
						count++
					}
				}
			}
			result = append(result, sum/count)
		}
	}
	return result
}

func TestAvgPoolCeilModeBruteForce(t *testing.T) {
	for _, size := range []int{5, 6, 7} {
		for _, stride := range []int{1, 2, 3} {
			for pad := 0; pad <= 1; pad++ {
				values := make([]float64, size*size)
				for ii := range values {
					values[ii] = float64((ii*7)%11) - 3
				}
				x := tensors.FromFlatDataAndDimensions(values, 1, 1, size, size)
				got, err := AvgPool(backend, x).DataFormat(ChannelsFirst).Window(normalize.Scalar(3)).
					Strides(normalize.Scalar(stride)).Padding(normalize.PadInt(pad)).CeilMode(true).Done()
				require.NoError(t, err)
				dims := got.Shape().Dimensions
				want := bruteForceAvgPool2D(values, size, size, 3, stride, pad, dims[2], dims[3])
				assert.InDeltaSlicef(t, want, tensors.Flat[float64](got), 1e-9, "size=%d, stride=%d, pad=%d", size, stride, pad)
			}
		}
	}
}

func TestAvgPoolNoPaddingIsMean(t *testing.T) {
	x := iotaFloat32(2, 6, 3)
	got, err := AvgPool1D(backend, x, normalize.Scalar(3), normalize.Scalar(3), normalize.PadValid(), "NWC")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 3}, got.Shape().Dimensions)
	flat := tensors.Flat[float32](x)
	gotFlat := tensors.Flat[float32](got)
	for batch := range 2 {
		for window := range 2 {
			for channel := range 3 {
				var sum float32
				for ii := range 3 {
					sum += flat[batch*18+(window*3+ii)*3+channel]
				}
				assert.InDelta(t, sum/3, gotFlat[batch*6+window*3+channel], 1e-5)
			}
		}
	}
}

func TestPoolErrors(t *testing.T) {
	x := iotaFloat32(1, 4, 4, 1)

	// The capability guard runs before anything is computed: out is left untouched.
	torch, err := simplego.NewProfile("torch", "1.11.0")
	require.NoError(t, err)
	out := tensors.FromScalarAndDimensions(float32(-1), 1, 2, 2, 1)
	xHalf := must.M1(backend.ConvertDType(x, dtypes.Float16))
	_, err = AvgPool(torch, xHalf).Window(normalize.Scalar(2)).Out(out).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrUnsupportedConfiguration))
	assert.Equal(t, []float32{-1, -1, -1, -1}, tensors.Flat[float32](out))

	// Same configuration on a newer version works, and writes to out.
	got, err := AvgPool(backend, x).Window(normalize.Scalar(2)).Out(out).Done()
	require.NoError(t, err)
	assert.Same(t, out, got)
	assert.Equal(t, []float32{3.5, 5.5, 11.5, 13.5}, tensors.Flat[float32](out))

	_, err = AvgPool(backend, tensors.FromScalarAndDimensions(int32(1), 1, 4, 1)).Window(normalize.Scalar(2)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrUnsupportedConfiguration))

	_, err = MaxPool(backend, tensors.FromScalarAndDimensions(true, 1, 4, 1)).Window(normalize.Scalar(2)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrUnsupportedConfiguration))

	_, err = MaxPool(backend, tensors.FromValue([]float32{1, 2})).Window(normalize.Scalar(2)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrRankMismatch))

	_, err = MaxPool2D(backend, iotaFloat32(1, 4, 1), normalize.Scalar(2), normalize.Param{}, normalize.Padding{}, "NHWC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrRankMismatch))

	_, err = MaxPool(backend, x).Window(normalize.Scalar(5)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrIncompatibleKernelPadding))

	_, err = MaxPool(backend, x).Window(normalize.Scalar(2)).Padding(normalize.PadInt(2)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrIncompatibleKernelPadding))

	_, err = MaxPool(backend, x).Window(normalize.Sequence(2, 2, 2)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))

	_, err = MaxPool(backend, x).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))

	_, err = AvgPool(backend, x).Window(normalize.Scalar(2)).Dilations(normalize.Scalar(2)).Done()
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidArgument))

	_, err = MaxPool2D(backend, x, normalize.Scalar(2), normalize.Param{}, normalize.Padding{}, "HW")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidArgument))
}

func TestParseDataFormat(t *testing.T) {
	for layout, want := range map[string]DataFormat{
		"NWC": ChannelsLast, "NHWC": ChannelsLast, "ndhwc": ChannelsLast,
		"NCW": ChannelsFirst, "NCHW": ChannelsFirst, "NCDHW": ChannelsFirst,
	} {
		got, err := ParseDataFormat(layout)
		require.NoError(t, err)
		assert.Equalf(t, want, got, "layout %q", layout)
	}
}

func TestAdaptiveAvgPool(t *testing.T) {
	x := iotaFloat32(1, 1, 5)
	got, err := AdaptiveAvgPool(backend, x, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, got.Shape().Dimensions)
	assert.InDeltaSlice(t, []float32{2, 4}, tensors.Flat[float32](got), 1e-6)

	// Evenly dividing output sizes match average pooling.
	x = iotaFloat32(1, 1, 4, 4)
	got, err = AdaptiveAvgPool(backend, x, 2, 2)
	require.NoError(t, err)
	want, err := AvgPool2D(backend, x, normalize.Scalar(2), normalize.Param{}, normalize.Padding{}, "NCHW")
	require.NoError(t, err)
	assert.True(t, want.InDelta(got, 1e-6))

	// Without batch axis.
	got, err = AdaptiveAvgPool(backend, iotaFloat32(2, 3), 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{2, 5}, tensors.Flat[float32](got), 1e-6)

	_, err = AdaptiveAvgPool(backend, x, 5, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidParameterShape))
	_, err = AdaptiveAvgPool(backend, x, 1, 1, 1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrRankMismatch))
}

func TestConcurrentPooling(t *testing.T) {
	x := iotaFloat32(2, 8, 8, 3)
	want, err := AvgPool2D(backend, x, normalize.Scalar(3), normalize.Scalar(2), normalize.PadSame(), "NHWC")
	require.NoError(t, err)
	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			got, err := AvgPool2D(backend, x, normalize.Scalar(3), normalize.Scalar(2), normalize.PadSame(), "NHWC")
			if err != nil {
				return err
			}
			if !got.Equal(want) {
				return errors.Errorf("concurrent pooling got %s, wanted %s", got, want)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
