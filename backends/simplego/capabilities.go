// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simplego

import (
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
)

// Capabilities of the SimpleGo backends: the set of supported operations and data types.
//
// Every primitive is implemented for every dtype it accepts, see package backends/shapeinference for the
// dtype restrictions of each one.
var Capabilities = backends.Capabilities{
	Operations: make(map[backends.OpType]bool),
	DTypes:     make(map[dtypes.DType]bool),
}

func init() {
	for _, op := range backends.OpTypeValues() {
		Capabilities.Operations[op] = true
	}
	for _, dtype := range dtypes.All {
		Capabilities.DTypes[dtype] = true
	}
}
