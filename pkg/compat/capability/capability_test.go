// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package capability

import (
	"testing"

	"github.com/gomlx/arraycompat/backends/notimplemented"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type target struct{ name, version, device string }

func (t target) Name() string    { return t.name }
func (t target) Version() string { return t.version }
func (t target) Device() string  { return t.device }

func TestParseRange(t *testing.T) {
	r, err := ParseRange("1.11.0 and below")
	require.NoError(t, err)
	assert.True(t, r.Contains("1.11.0"))
	assert.True(t, r.Contains("1.9.1"))
	assert.True(t, r.Contains("v0.4.0"))
	assert.False(t, r.Contains("1.11.1"))
	assert.False(t, r.Contains("2.0.1"))
	assert.False(t, r.Contains("not-a-version"))
	assert.Equal(t, "1.11.0 and below", r.String())

	r, err = ParseRange("2.4.0 and above")
	require.NoError(t, err)
	assert.False(t, r.Contains("2.3.9"))
	assert.True(t, r.Contains("2.13.0"))

	r, err = ParseRange("2.1.0 to 2.4.2")
	require.NoError(t, err)
	assert.True(t, r.Contains("2.2.0"))
	assert.False(t, r.Contains("2.5.0"))
	assert.Equal(t, "2.1.0 to 2.4.2", r.String())

	r, err = ParseRange("2.0.1")
	require.NoError(t, err)
	assert.True(t, r.Contains("2.0.1"))
	assert.False(t, r.Contains("2.0.2"))

	_, err = ParseRange("1.x and below")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrInvalidArgument))
	_, err = ParseRange("2.0.0 to 1.0.0")
	require.Error(t, err)

	assert.Equal(t, "all versions", AnyVersion.String())
	assert.True(t, AnyVersion.Contains("99.0.0"))
}

func TestDefaultTable(t *testing.T) {
	// Torch pooling in 1.11.0 and below doesn't support half precision.
	assert.False(t, Default.IsSupported("avg_pool2d", "torch", "1.11.0", "cpu", dtypes.Float16))
	assert.False(t, Default.IsSupported("max_pool1d", "torch", "1.10.2", "gpu", dtypes.BFloat16))
	assert.True(t, Default.IsSupported("avg_pool2d", "torch", "1.11.0", "cpu", dtypes.Float32))
	assert.True(t, Default.IsSupported("avg_pool2d", "torch", "2.0.1", "cpu", dtypes.Float16))

	// Device specific entries.
	assert.False(t, Default.IsSupported("fliplr", "paddle", "2.4.2", "cpu", dtypes.Int8))
	assert.True(t, Default.IsSupported("fliplr", "paddle", "2.4.2", "gpu", dtypes.Int8))
	assert.False(t, Default.IsSupported("expand", "paddle", "2.4.0", "cpu", dtypes.BFloat16))
	assert.True(t, Default.IsSupported("expand", "paddle", "2.4.0", "cpu", dtypes.Float16))

	// Not implemented operations.
	assert.False(t, Default.IsImplemented("dstack", "paddle", "2.4.2", "cpu"))
	assert.True(t, Default.IsImplemented("dstack", "paddle", "2.5.0", "cpu"))
	assert.True(t, Default.IsImplemented("dstack", "torch", "1.11.0", "cpu"))
	assert.False(t, Default.IsSupported("flipud", "paddle", "2.4.2", "gpu", dtypes.Float32))

	// Unknown operations and backends are supported.
	assert.True(t, Default.IsSupported("some_op", "torch", "1.0.0", "cpu", dtypes.Float16))
	assert.False(t, Default.IsSupported("some_op", "torch", "1.0.0", "cpu", dtypes.InvalidDType))

	assert.Equal(t, []dtypes.DType{dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64},
		Default.Unsupported("Sign", "tensorflow", "2.10.0", "cpu"))
	assert.Len(t, Default.Unsupported("rot90", "paddle", "2.4.2", "cpu"), len(dtypes.All))
}

func TestCheck(t *testing.T) {
	err := Default.Check(target{"torch", "1.11.0", "cpu"}, "avg_pool2d", dtypes.Float32, dtypes.Float16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrUnsupportedConfiguration))
	assert.False(t, errors.Is(err, compat.ErrNotImplemented))
	assert.Contains(t, err.Error(), "Float16")

	err = Default.Check(target{"paddle", "2.4.2", "gpu"}, "dstack", dtypes.Float32)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrNotImplemented))

	require.NoError(t, Default.Check(target{"torch", "2.0.1", "cpu"}, "avg_pool2d", dtypes.Float16))
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(
		Entry{Backend: "fw", Versions: MustParseRange("2.0.0 and below"), Ops: []string{"op"}, DTypes: []dtypes.DType{dtypes.Int8}},
		Entry{Backend: "fw", Versions: MustParseRange("1.0.0 and below"), Ops: []string{"op"}, DTypes: []dtypes.DType{dtypes.Int16}},
		Entry{Backend: "fw", Versions: AnyVersion, Device: "gpu", Ops: []string{"op"}, DTypes: []dtypes.DType{dtypes.Bool}},
	)
	require.NoError(t, err)

	// The narrowest range covering the version wins.
	assert.True(t, table.IsSupported("op", "fw", "0.9.0", "cpu", dtypes.Int8))
	assert.False(t, table.IsSupported("op", "fw", "0.9.0", "cpu", dtypes.Int16))
	assert.False(t, table.IsSupported("op", "fw", "1.5.0", "cpu", dtypes.Int8))
	assert.True(t, table.IsSupported("op", "fw", "1.5.0", "cpu", dtypes.Int16))
	assert.True(t, table.IsSupported("op", "fw", "3.0.0", "cpu", dtypes.Int8))

	// Device specific entries take precedence.
	assert.False(t, table.IsSupported("op", "fw", "0.9.0", "gpu", dtypes.Bool))
	assert.True(t, table.IsSupported("op", "fw", "0.9.0", "gpu", dtypes.Int16))

	entries := table.Entries()
	require.Len(t, entries, 3)
	entries[0].DTypes[0] = dtypes.Float64
	assert.False(t, table.IsSupported("op", "fw", "1.5.0", "cpu", dtypes.Int8), "Entries must return a copy")
	assert.Equal(t, "fw all versions on gpu: op unsupported for Bool", entries[2].String())

	_, err = NewTable(Entry{Backend: "fw", Versions: AnyVersion})
	require.Error(t, err)
	_, err = NewTable(Entry{Backend: "fw", Ops: []string{"op"}, DTypes: []dtypes.DType{dtypes.InvalidDType}})
	require.Error(t, err)
}

func TestConcurrentLookups(t *testing.T) {
	var g errgroup.Group
	for ii := range 32 {
		g.Go(func() error {
			version := []string{"1.11.0", "2.0.1"}[ii%2]
			err := Default.Check(target{"torch", version, "cpu"}, "max_pool2d", dtypes.Float16)
			if (err == nil) != (version == "2.0.1") {
				return errors.Errorf("unexpected result for version %s: %v", version, err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestBind(t *testing.T) {
	b := &notimplemented.Backend{}
	assert.Same(t, Default, For(b))
	assert.Same(t, Default, For(target{"torch", "1.11.0", "cpu"}))

	table := MustNewTable(Entry{Backend: "notimplemented", Ops: []string{"fft"}, NotImplemented: true})
	bound := Bind(b, table)
	assert.Same(t, table, For(bound))
	assert.Equal(t, "notimplemented", bound.Name())
	err := For(bound).Check(bound, "fft", dtypes.Float32)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compat.ErrNotImplemented))

	// Rebinding replaces the table, and a nil table is a no-op.
	rebound := Bind(bound, Default)
	assert.Same(t, Default, For(rebound))
	assert.Same(t, b, rebound.(*boundBackend).Backend)
	assert.Same(t, bound, Bind(bound, nil))
}
