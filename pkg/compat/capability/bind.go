// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package capability

import "github.com/gomlx/arraycompat/backends"

// Bound is implemented by targets that carry their own capability table, see Bind.
type Bound interface {
	Target
	CapabilityTable() *Table
}

// boundBackend is a backends.Backend guarded by its own table.
type boundBackend struct {
	backends.Backend
	table *Table
}

// CapabilityTable implements Bound.
func (b *boundBackend) CapabilityTable() *Table {
	return b.table
}

// Bind returns the backend b guarded by table: kernels given the returned backend check table instead of
// Default. Binding an already bound backend replaces its table. A nil table returns b unchanged.
func Bind(b backends.Backend, table *Table) backends.Backend {
	if table == nil {
		return b
	}
	if bound, ok := b.(*boundBackend); ok {
		b = bound.Backend
	}
	return &boundBackend{Backend: b, table: table}
}

// For returns the table that guards target: its own table if it was bound with Bind, Default otherwise.
func For(target Target) *Table {
	if bound, ok := target.(Bound); ok {
		if table := bound.CapabilityTable(); table != nil {
			return table
		}
	}
	return Default
}
