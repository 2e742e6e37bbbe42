// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package notimplemented

import (
	"testing"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend(t *testing.T) {
	b := &Backend{}
	_, err := b.Pad(tensors.FromValue([]float32{1}), 0, [][2]int{{1, 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, backends.ErrNotImplemented))
	assert.Contains(t, err.Error(), "Pad")

	custom := errors.New("custom")
	b.ErrFn = func(op backends.OpType) error { return errors.Wrap(custom, op.String()) }
	_, err = b.Unary(backends.OpTypeSqrt, tensors.FromValue([]float32{1}))
	assert.True(t, errors.Is(err, custom))
	assert.False(t, b.Capabilities().Supports(backends.OpTypeSqrt))
}
