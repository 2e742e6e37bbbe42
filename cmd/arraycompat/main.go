// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// arraycompat inspects the capability table and the operation registry, and runs operations on literal
// inputs.
//
// Examples:
//
//	arraycompat -capabilities -filter=paddle
//	arraycompat -ops
//	arraycompat -backend=paddle:2.4.2 -unsupported=vstack,expand
//	arraycompat -backend=torch:1.11.0 -run=avg_pool2d input:float16=[[[[1],[2]],[[3],[4]]]] kernel=2
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/arraycompat/backends"
	_ "github.com/gomlx/arraycompat/backends/default"
	"github.com/gomlx/arraycompat/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"k8s.io/klog/v2"
)

var (
	flagBackend = flag.String("backend", "",
		fmt.Sprintf("Backend configuration, formatted \"<backend_name>:<backend_configuration>\". "+
			"If empty, the environment variable %s is used, and then the first registered backend.",
			backends.ARRAYCOMPAT_BACKEND))
	flagCapabilities = flag.Bool("capabilities", false, "Lists the entries of the capability table.")
	flagFilter       = flag.String("filter", "", "Only list the capability entries of this framework, e.g. \"paddle\".")
	flagOps          = flag.Bool("ops", false, "Lists the operations of the registry.")
	flagBackends     = flag.Bool("backends", false, "Lists the registered backends.")
	flagUnsupported  = xslices.Flag("unsupported", nil,
		"Comma-separated list of operations for which to list the dtypes not supported by --backend.",
		func(name string) (string, error) { return name, nil })
	flagRun = flag.String("run", "", "Operation to run with --backend. "+
		"Its arguments are given as positional arguments formatted \"name[:dtype]=value\", where value is a "+
		"YAML literal: lists become tensors.")
	flagPrecision = flag.Int("precision", 6, "Number of significant digits used to print results.")
	flagPlain     = flag.Bool("plain", false, "Disable colors in the output.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagPlain || termenv.NewOutput(os.Stdout).Profile == termenv.Ascii {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if !*flagCapabilities && !*flagOps && !*flagBackends && len(*flagUnsupported) == 0 && *flagRun == "" {
		klog.Errorf("Nothing to do. See 'arraycompat -help'.")
		os.Exit(1)
	}
	if *flagRun == "" && len(flag.Args()) > 0 {
		klog.Errorf("Positional arguments %q are only used with --run. See 'arraycompat -help'.", flag.Args())
		os.Exit(1)
	}

	if *flagBackends {
		listBackends()
	}
	if *flagCapabilities {
		listCapabilities(*flagFilter)
	}
	if *flagOps {
		listOps()
	}
	if len(*flagUnsupported) > 0 || *flagRun != "" {
		backend := newBackend(*flagBackend)
		if len(*flagUnsupported) > 0 {
			listUnsupported(backend, *flagUnsupported)
		}
		if *flagRun != "" {
			if err := run(backend, *flagRun, flag.Args(), *flagPrecision); err != nil {
				klog.Errorf("Failed to run %q: %+v", *flagRun, err)
				os.Exit(1)
			}
		}
	}
}

func newBackend(config string) backends.Backend {
	if config == "" {
		return must.M1(backends.New())
	}
	return must.M1(backends.NewWithConfig(config))
}
