// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package registry maps operation names to the compatibility kernels, so they can be invoked by name with
// keyword arguments.
//
// Canonical operations (e.g. "take_along_axis", "avg_pool2d") are registered with Register. Raw-op style
// entries (e.g. "ArgMax") are registered with Alias: they forward to another entry, renaming their keyword
// arguments with a static KwargMap.
//
// Every invocation first runs the capability guard of the registry (capability.Default unless created with
// another table) on the dtypes of all tensor arguments, and handles the optional "out" argument. The
// kernels are given the backend bound to the same table (see capability.Bind), so their own checks agree.
package registry

import (
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// OpFunc implements an operation: it takes the backend and the keyword arguments (without OutKwarg) and
// returns the result.
type OpFunc func(b backends.Backend, kwargs Kwargs) (*tensors.Tensor, error)

// KwargMap is a static bidirectional renaming of keyword arguments. Names not in the map are kept.
type KwargMap struct {
	forward, backward map[string]string
}

// NewKwargMap creates a KwargMap from the renames given as {from: to} pairs.
//
// It returns an error wrapping compat.ErrInvalidArgument if two names are renamed to the same one.
func NewKwargMap(renames map[string]string) (KwargMap, error) {
	m := KwargMap{
		forward:  make(map[string]string, len(renames)),
		backward: make(map[string]string, len(renames)),
	}
	for from, to := range renames {
		if previous, found := m.backward[to]; found {
			return KwargMap{}, errors.Wrapf(compat.ErrInvalidArgument, "arguments %q and %q are both renamed to %q",
				previous, from, to)
		}
		m.forward[from] = to
		m.backward[to] = from
	}
	return m, nil
}

// Forward returns the target name of the argument name.
func (m KwargMap) Forward(name string) string {
	if to, found := m.forward[name]; found {
		return to
	}
	return name
}

// Backward returns the name of the argument that is renamed to the target name.
func (m KwargMap) Backward(name string) string {
	if from, found := m.backward[name]; found {
		return from
	}
	return name
}

// Sources returns the names of the renamed arguments, in no particular order.
func (m KwargMap) Sources() iter.Seq[string] {
	return maps.Keys(m.forward)
}

// Len returns the number of renamed arguments.
func (m KwargMap) Len() int {
	return len(m.forward)
}

// Apply returns a copy of kwargs with the names renamed forward.
func (m KwargMap) Apply(kwargs Kwargs) Kwargs {
	renamed := make(Kwargs, len(kwargs))
	for name, value := range kwargs {
		renamed[m.Forward(name)] = value
	}
	return renamed
}

// Entry of the registry.
type Entry struct {
	// Name of the operation.
	Name string

	// Target of an alias, or empty for a canonical operation.
	Target string

	// Renames applied to the keyword arguments of an alias before forwarding them to the target.
	Renames KwargMap

	fn OpFunc
}

// IsAlias returns whether the entry forwards to another entry.
func (e Entry) IsAlias() bool {
	return e.Target != ""
}

// Registry of operations. The zero value is not usable, create it with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	table   *capability.Table
}

// New creates an empty Registry that guards its operations with the given capability table.
// If table is nil, capability.Default is used.
func New(table *capability.Table) *Registry {
	if table == nil {
		table = capability.Default
	}
	return &Registry{entries: make(map[string]Entry), table: table}
}

// Register the canonical operation name. It replaces any previous entry with the same name.
func (r *Registry) Register(name string, fn OpFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Entry{Name: name, fn: fn}
}

// Alias registers name as a raw-op style entry that forwards to target, renaming its keyword arguments with
// renames ({alias argument name: target argument name}).
//
// It returns an error wrapping compat.ErrNotImplemented if target is not registered, and
// compat.ErrInvalidArgument for invalid renames.
func (r *Registry) Alias(name, target string, renames map[string]string) error {
	kwargMap, err := NewKwargMap(renames)
	if err != nil {
		return errors.WithMessagef(err, "alias %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	targetEntry, found := r.entries[target]
	if !found {
		return errors.Wrapf(compat.ErrNotImplemented, "alias %q of unknown operation %q", name, target)
	}
	r.entries[name] = Entry{Name: name, Target: target, Renames: kwargMap, fn: targetEntry.fn}
	return nil
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, found := r.entries[name]
	return e, found
}

// Names returns the names of all registered operations, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Invoke the operation name with the backend b and the given keyword arguments.
//
// The capability guard runs first, on the dtypes of every tensor argument. For aliases, the guard runs
// for the alias name, and then the arguments are renamed before calling the target. If kwargs holds a
// tensor under OutKwarg, the result is copied into it, and it is returned.
//
// Unknown operations return an error wrapping compat.ErrNotImplemented.
func (r *Registry) Invoke(b backends.Backend, name string, kwargs Kwargs) (*tensors.Tensor, error) {
	e, found := r.Lookup(name)
	if !found {
		return nil, errors.Wrapf(compat.ErrNotImplemented, "operation %q not registered", name)
	}
	if err := r.table.Check(b, name, kwargs.DTypes()...); err != nil {
		return nil, err
	}
	var out *tensors.Tensor
	if value, found := kwargs[OutKwarg]; found && value != nil {
		var ok bool
		if out, ok = value.(*tensors.Tensor); !ok {
			return nil, errors.Wrapf(compat.ErrInvalidArgument, "%s: argument %q must be a tensor, got %T", name, OutKwarg, value)
		}
	}
	args := make(Kwargs, len(kwargs))
	for key, value := range kwargs {
		if key != OutKwarg {
			args[key] = value
		}
	}
	if e.IsAlias() {
		klog.V(2).Infof("registry: %s forwards to %s", name, e.Target)
		args = e.Renames.Apply(args)
	}
	result, err := e.fn(capability.Bind(b, r.table), args)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return compat.WriteOut(out, result)
}
