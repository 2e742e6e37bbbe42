// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/compat/registry"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/janpfeifer/must"
)

func listBackends() {
	fmt.Println(titleStyle.Render("Backends"))
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Headers("Name", "Configuration", "Description")
	for _, name := range backends.List() {
		b := must.M1(backends.NewWithConfig(name))
		table.Row(false, name, b.String(), b.Description())
	}
	fmt.Println(table.Render())
}

func dtypesString(list []dtypes.DType) string {
	return strings.Join(xslices.Map(list, func(dtype dtypes.DType) string { return dtype.String() }), ", ")
}

func listCapabilities(framework string) {
	fmt.Println(titleStyle.Render("Capability Table"))
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Headers("Framework", "Versions", "Device", "Operations", "Unsupported DTypes")
	var count int
	for _, e := range capability.Default.Entries() {
		if framework != "" && e.Backend != framework {
			continue
		}
		device := e.Device
		if device == capability.AnyDevice {
			device = "any"
		}
		unsupported := dtypesString(e.DTypes)
		if e.NotImplemented {
			unsupported = "not implemented"
		}
		table.Row(e.NotImplemented, e.Backend, e.Versions.String(), device, strings.Join(e.Ops, ", "), unsupported)
		count++
	}
	fmt.Println(table.Render())
	fmt.Printf("%s entries\n", humanize.Comma(int64(count)))
}

func listOps() {
	fmt.Println(titleStyle.Render("Operations"))
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Headers("Name", "Forwards To", "Renamed Arguments")
	names := registry.Default.Names()
	var numAliases int
	for _, name := range names {
		e, _ := registry.Default.Lookup(name)
		var renames []string
		if e.IsAlias() {
			numAliases++
			for _, from := range slices.Sorted(e.Renames.Sources()) {
				renames = append(renames, fmt.Sprintf("%s→%s", from, e.Renames.Forward(from)))
			}
		}
		table.Row(false, name, e.Target, strings.Join(renames, ", "))
	}
	fmt.Println(table.Render())
	fmt.Printf("%s operations, %s of them aliases\n", humanize.Comma(int64(len(names))), humanize.Comma(int64(numAliases)))
}

func listUnsupported(b backends.Backend, ops []string) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Unsupported DTypes for %s", b)))
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Headers("Operation", "Unsupported DTypes")
	for _, op := range ops {
		if !capability.Default.IsImplemented(op, b.Name(), b.Version(), b.Device()) {
			table.Row(true, op, "not implemented")
			continue
		}
		unsupported := capability.Default.Unsupported(op, b.Name(), b.Version(), b.Device())
		text := dtypesString(unsupported)
		if len(unsupported) == 0 {
			text = "none"
		}
		table.Row(false, op, text)
	}
	fmt.Println(table.Render())
}

// run invokes the registry operation opName with the arguments parsed from args, and prints the result.
func run(b backends.Backend, opName string, args []string, precision int) error {
	kwargs, err := parseKwargs(b, args)
	if err != nil {
		return err
	}
	result, err := registry.Default.Invoke(b, opName, kwargs)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s on %s", opName, b)))
	table := newTable(lipgloss.Right, lipgloss.Left)
	table.Row(false, "shape", result.Shape().String())
	table.Row(false, "# elements", humanize.Comma(int64(result.Size())))
	table.Row(false, "# bytes", humanize.Bytes(uint64(result.Memory())))
	fmt.Println(table.Render())
	fmt.Println(result.Summary(precision))
	return nil
}
