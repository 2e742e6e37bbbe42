// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package capability implements the table of operations and dtypes each array framework does not support,
// per version range and device class.
//
// Kernels consult the table of their backend, For(b), as an up-front guard with Table.Check, before any
// computation runs. It is Default unless the backend was bound to another table with Bind.
// Tables are immutable once created, and can be read concurrently without locking.
package capability

import (
	"slices"
	"strings"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/support/sets"
	"github.com/pkg/errors"
)

// AnyDevice is used in Entry.Device for entries that apply to every device class.
const AnyDevice = ""

// Entry of the capability table: for the given framework, version range and device, the listed operations
// don't support the listed dtypes, or, if NotImplemented is set, are not implemented at all.
type Entry struct {
	// Backend is the name of the array framework, e.g. "torch".
	Backend string

	// Versions covered by the entry.
	Versions Range

	// Device class ("cpu", "gpu") or AnyDevice.
	Device string

	// Ops are the operation names, as used by the kernels (e.g. "avg_pool2d") or the registry.
	Ops []string

	// DTypes not supported.
	DTypes []dtypes.DType

	// NotImplemented marks the operations as not implemented, regardless of dtypes.
	NotImplemented bool
}

// Target identifies the framework, version and device class an operation runs on.
// backends.Backend implements it.
type Target interface {
	Name() string
	Version() string
	Device() string
}

type tableKey struct {
	backend, op string
}

// Table of unsupported configurations. Create it with NewTable.
type Table struct {
	entries []Entry
	byKey   map[tableKey][]int
	dtypes  []sets.Set[dtypes.DType]
}

// NewTable creates an immutable Table with the given entries.
//
// It returns an error if an entry has no backend, no operations, or an invalid dtype.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[tableKey][]int),
	}
	for ii, e := range entries {
		if e.Backend == "" || len(e.Ops) == 0 {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "capability entry #%d needs a backend and at least one operation", ii)
		}
		for _, dtype := range e.DTypes {
			if !dtype.IsValid() {
				return nil, errors.Wrapf(compat.ErrInvalidArgument, "capability entry #%d has invalid dtype %s", ii, dtype)
			}
		}
		e.Ops = slices.Clone(e.Ops)
		e.DTypes = slices.Clone(e.DTypes)
		idx := len(t.entries)
		t.entries = append(t.entries, e)
		t.dtypes = append(t.dtypes, sets.MakeWith(e.DTypes...))
		for _, op := range e.Ops {
			key := tableKey{backend: e.Backend, op: op}
			t.byKey[key] = append(t.byKey[key], idx)
		}
	}
	return t, nil
}

// MustNewTable is like NewTable, but panics on error.
func MustNewTable(entries ...Entry) *Table {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy of the entries of the table.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, len(t.entries))
	for ii, e := range t.entries {
		e.Ops = slices.Clone(e.Ops)
		e.DTypes = slices.Clone(e.DTypes)
		entries[ii] = e
	}
	return entries
}

// lookup returns the index of the entry that applies to the given configuration, or -1 if none does.
//
// Among the entries whose range covers the version, device specific entries take precedence over
// AnyDevice ones, and then the narrowest range wins.
func (t *Table) lookup(op, backend, version, device string) int {
	best := -1
	for _, idx := range t.byKey[tableKey{backend: backend, op: op}] {
		e := &t.entries[idx]
		if e.Device != AnyDevice && e.Device != device {
			continue
		}
		if !e.Versions.Contains(version) {
			continue
		}
		if best == -1 {
			best = idx
			continue
		}
		current := &t.entries[best]
		if (e.Device != AnyDevice) != (current.Device != AnyDevice) {
			if e.Device != AnyDevice {
				best = idx
			}
			continue
		}
		if e.Versions.narrower(current.Versions) {
			best = idx
		}
	}
	return best
}

// IsImplemented returns whether op is implemented by the framework version on the device.
func (t *Table) IsImplemented(op, backend, version, device string) bool {
	idx := t.lookup(op, backend, version, device)
	return idx < 0 || !t.entries[idx].NotImplemented
}

// IsSupported returns whether op supports dtype on the framework version and device.
// Invalid dtypes are never supported.
func (t *Table) IsSupported(op, backend, version, device string, dtype dtypes.DType) bool {
	if !dtype.IsValid() {
		return false
	}
	idx := t.lookup(op, backend, version, device)
	if idx < 0 {
		return true
	}
	return !t.entries[idx].NotImplemented && !t.dtypes[idx].Has(dtype)
}

// Check returns an error if op is not implemented for the target (wrapping compat.ErrNotImplemented), or
// if any of the dtypes is not supported (wrapping compat.ErrUnsupportedConfiguration).
func (t *Table) Check(target Target, op string, dtypesUsed ...dtypes.DType) error {
	backend, version, device := target.Name(), target.Version(), target.Device()
	if !t.IsImplemented(op, backend, version, device) {
		return errors.Wrapf(compat.ErrNotImplemented, "%s is not implemented for %s %s", op, backend, version)
	}
	for _, dtype := range dtypesUsed {
		if !t.IsSupported(op, backend, version, device, dtype) {
			return errors.Wrapf(compat.ErrUnsupportedConfiguration, "%s does not support dtype %s for %s %s on device %q",
				op, dtype, backend, version, device)
		}
	}
	return nil
}

// Unsupported returns the dtypes not supported by op for the framework version and device, in enum order.
// If op is not implemented, it returns every dtype.
func (t *Table) Unsupported(op, backend, version, device string) []dtypes.DType {
	var unsupported []dtypes.DType
	for _, dtype := range dtypes.All {
		if !t.IsSupported(op, backend, version, device, dtype) {
			unsupported = append(unsupported, dtype)
		}
	}
	return unsupported
}

// String returns a one-line description of the entry.
func (e Entry) String() string {
	var sb strings.Builder
	sb.WriteString(e.Backend)
	sb.WriteString(" ")
	sb.WriteString(e.Versions.String())
	if e.Device != AnyDevice {
		sb.WriteString(" on ")
		sb.WriteString(e.Device)
	}
	sb.WriteString(": ")
	sb.WriteString(strings.Join(e.Ops, ", "))
	if e.NotImplemented {
		sb.WriteString(" not implemented")
		return sb.String()
	}
	sb.WriteString(" unsupported for ")
	names := make([]string, len(e.DTypes))
	for ii, dtype := range e.DTypes {
		names[ii] = dtype.String()
	}
	sb.WriteString(strings.Join(names, ", "))
	return sb.String()
}
