// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package simplego implements a simple, and not very fast, but very portable eager backend in pure Go.
//
// It implements every primitive and dtype of backends.Primitives, and it can pose as any of the supported
// array frameworks ("torch", "paddle", "tensorflow"), at a configurable version and device class, so the
// per-version capability table can be exercised without the frameworks themselves.
package simplego

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gomlx/arraycompat/backends"
	"github.com/pkg/errors"
)

// BackendName to be used in ARRAYCOMPAT_BACKEND to specify this backend without posing as any framework.
const BackendName = "go"

// Version of the "go" backend itself.
const Version = "1.0.0"

// DefaultVersions of the array frameworks emulated, used when no version is given in the configuration.
var DefaultVersions = map[string]string{
	BackendName:  Version,
	"torch":      "2.0.1",
	"paddle":     "2.5.0",
	"tensorflow": "2.13.0",
}

// Devices accepted in the configuration. The computation always runs on the CPU: the device is only
// used to select the capability table entries.
var Devices = []string{"cpu", "gpu"}

// Registers New() as the constructor for "go" (the first registered, hence the default), and one
// constructor per emulated framework.
func init() {
	backends.Register(BackendName, New)
	for _, name := range slices.Sorted(maps.Keys(DefaultVersions)) {
		if name == BackendName {
			continue
		}
		backends.Register(name, func(config string) (backends.Backend, error) {
			return NewProfile(name, config)
		})
	}
}

// New constructs a new SimpleGo Backend, with the configuration as described in backends.ParseConfig.
func New(config string) (backends.Backend, error) {
	return NewProfile(BackendName, config)
}

// NewProfile constructs a Backend posing as the array framework name (one of the keys of DefaultVersions).
func NewProfile(name, config string) (*Backend, error) {
	defaultVersion, found := DefaultVersions[name]
	if !found {
		return nil, errors.Errorf("simplego: unknown framework %q", name)
	}
	parsed, err := backends.ParseConfig(config)
	if err != nil {
		return nil, err
	}
	if len(parsed.Options) > 0 {
		return nil, errors.Errorf("simplego: unknown configuration options %v in %q", parsed.Options, config)
	}
	b := &Backend{name: name, version: parsed.Version, device: parsed.Device}
	if b.version == "" {
		b.version = defaultVersion
	}
	if b.device == "" {
		b.device = "cpu"
	}
	if !slices.Contains(Devices, b.device) {
		return nil, errors.Errorf("simplego: unknown device %q, valid values are %v", b.device, Devices)
	}
	return b, nil
}

// Backend implements the backends.Backend interface.
//
// It holds no mutable state: it's safe for concurrent use.
type Backend struct {
	name, version, device string
}

// Compile-time check that simplego.Backend implements backends.Backend.
var _ backends.Backend = &Backend{}

// Name returns the name of the array framework emulated, e.g. "torch".
func (b *Backend) Name() string { return b.name }

// String implement backends.Backend.
func (b *Backend) String() string {
	return fmt.Sprintf("%s:version=%s,device=%s", b.name, b.version, b.device)
}

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	if b.name == BackendName {
		return "Simple Go Portable Backend"
	}
	return fmt.Sprintf("Simple Go Portable Backend, posing as %s %s on %s", b.name, b.version, b.device)
}

// Version implements backends.Backend.
func (b *Backend) Version() string { return b.version }

// Device implements backends.Backend.
func (b *Backend) Device() string { return b.device }

// Capabilities returns information about what is supported by this backend.
func (b *Backend) Capabilities() backends.Capabilities {
	return Capabilities
}
