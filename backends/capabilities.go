// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"maps"

	"github.com/gomlx/arraycompat/pkg/core/dtypes"
)

// Capabilities holds mappings of what is supported by a backend.
//
// These are the primitive level capabilities. The per-operation, per-version and per-device exclusions of the
// array frameworks are kept in the capability table of package pkg/compat/capability.
type Capabilities struct {
	// Operations supported by a backend.
	// If not listed, it's assumed to be false, hence not supported.
	Operations map[OpType]bool

	// DTypes list the data types supported by a backend.
	// If not listed, it's assumed to be false, hence not supported.
	DTypes map[dtypes.DType]bool
}

// Clone makes a deep copy of the Capabilities.
func (c Capabilities) Clone() Capabilities {
	var c2 Capabilities
	c2.Operations = make(map[OpType]bool, len(c.Operations))
	maps.Copy(c2.Operations, c.Operations)
	c2.DTypes = make(map[dtypes.DType]bool, len(c.DTypes))
	maps.Copy(c2.DTypes, c.DTypes)
	return c2
}

// Supports returns whether the operation is supported for all the given dtypes.
func (c Capabilities) Supports(op OpType, dtypesUsed ...dtypes.DType) bool {
	if !c.Operations[op] {
		return false
	}
	for _, dtype := range dtypesUsed {
		if !c.DTypes[dtype] {
			return false
		}
	}
	return true
}
