// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package backends defines the interface a numeric backend needs to implement to be used by the array-API
// compatibility kernels (see package pkg/compat).
//
// A backend stands for one array framework (e.g. "torch", "paddle", "tensorflow") at a given version and on a
// given device class. It exposes a small set of eager primitives (casts, fills, concatenation, padding, windowed
// reductions, FFTs, gathers, reshapes, element-wise math) that the kernels compose.
//
// A backend that doesn't implement every primitive, can simply return ErrNotImplemented for any of them, and
// it would still work for kernels that don't require those primitives.
//
// Backends are registered by name with Register, and created with New or NewWithConfig. The environment variable
// ARRAYCOMPAT_BACKEND selects the default backend configuration.
package backends

import (
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Backend is the API that needs to be implemented by an array framework backend.
type Backend interface {
	// Name returns the short name of the array framework. E.g.: "torch", "paddle".
	// It is the name used as key in the capability table.
	Name() string

	// String returns the backend configuration in a human-readable form, e.g. "torch:version=1.11.0,device=cpu".
	String() string

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// Version of the array framework emulated or wrapped by the backend, in "X.Y.Z" form.
	Version() string

	// Device class where the backend runs: "cpu" or "gpu".
	Device() string

	// Capabilities returns the primitives and dtypes supported by the backend.
	Capabilities() Capabilities

	// Primitives is the sub-interface with the numeric primitives.
	Primitives
}

// Constructor takes a config string (optionally empty) and returns a Backend.
type Constructor func(config string) (Backend, error)

var (
	muRegistry             sync.Mutex
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register backend with the given name, and a default constructor that takes as input a configuration string that is
// passed along to the backend constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// List the names of the registered backends, sorted.
func List() []string {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	names := make([]string, 0, len(registeredConstructors))
	for name := range registeredConstructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultConfig is the name of the default backend configuration to use if specified.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// ARRAYCOMPAT_BACKEND is the environment variable with the default backend configuration to use.
//
// The format of config is "<backend_name>:<backend_configuration>".
// The "<backend_name>" is the name of a registered backend (e.g.: "torch") and
// "<backend_configuration>" is backend specific (e.g.: "version=1.11.0,device=gpu", see ParseConfig).
const ARRAYCOMPAT_BACKEND = "ARRAYCOMPAT_BACKEND" //nolint:revive // Name matches the environment variable.

// New returns a new default Backend.
//
// The default is:
//
// 1. The environment ARRAYCOMPAT_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered backend is used with an empty configuration.
//
// It returns an error if no backend was registered.
func New() (Backend, error) {
	config, found := os.LookupEnv(ARRAYCOMPAT_BACKEND)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// MustNew is like New, but panics on error.
func MustNew() Backend {
	backend, err := New()
	if err != nil {
		panic(err)
	}
	return backend
}

// NewWithConfig takes a configurations string formated as
// "<backend_name>:<backend_configuration>".
//
// The "<backend_name>" is the name of a registered backend (e.g.: "torch") and
// "<backend_configuration>" is backend specific. If the name is omitted, the first registered backend is used.
func NewWithConfig(config string) (Backend, error) {
	muRegistry.Lock()
	if len(registeredConstructors) == 0 {
		muRegistry.Unlock()
		return nil, errors.Errorf(`no registered backends -- maybe import the default one with import _ "github.com/gomlx/arraycompat/backends/default"?`)
	}
	backendName := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	} else if _, found := registeredConstructors[config]; found {
		backendName = config
		backendConfig = ""
	}
	constructor, found := registeredConstructors[backendName]
	muRegistry.Unlock()
	if !found {
		return nil, errors.Errorf("can't find backend %q for configuration %q given", backendName, config)
	}
	backend, err := constructor(backendConfig)
	if err != nil {
		return nil, errors.WithMessagef(err, "while creating backend %q with configuration %q", backendName, backendConfig)
	}
	klog.V(1).Infof("created backend %s (%s)", backend, backend.Description())
	return backend, nil
}

// MustNewWithConfig is like NewWithConfig, but panics on error.
func MustNewWithConfig(config string) Backend {
	backend, err := NewWithConfig(config)
	if err != nil {
		exceptions.Panicf("backends.MustNewWithConfig(%q): %+v", config, err)
	}
	return backend
}
