// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package capability

import (
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"k8s.io/klog/v2"
)

// Default is the capability table used by the kernels, with the known limitations of the supported
// frameworks. It is built once at initialization and never modified.
var Default *Table

var (
	lowPrecisionFloats = []dtypes.DType{dtypes.Float16, dtypes.BFloat16}
	smallInts          = []dtypes.DType{dtypes.Int8, dtypes.Int16, dtypes.Uint8, dtypes.Uint16}
	unsignedInts       = []dtypes.DType{dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64}
)

func concatDTypes(lists ...[]dtypes.DType) []dtypes.DType {
	var all []dtypes.DType
	for _, list := range lists {
		all = append(all, list...)
	}
	return all
}

// DefaultEntries returns the entries of the Default table.
func DefaultEntries() []Entry {
	torch := MustParseRange("1.11.0 and below")
	paddle := MustParseRange("2.4.2 and below")
	tensorflow := MustParseRange("2.10.0 and below")
	return []Entry{
		{
			Backend:  "torch",
			Versions: torch,
			Ops: []string{
				"max_pool1d", "max_pool2d", "max_pool3d",
				"avg_pool1d", "avg_pool2d", "avg_pool3d",
				"adaptive_avg_pool1d", "adaptive_avg_pool2d",
			},
			DTypes: lowPrecisionFloats,
		},
		{Backend: "paddle", Versions: paddle, Ops: []string{"moveaxis"}, DTypes: smallInts},
		{
			Backend:  "paddle",
			Versions: paddle,
			Ops:      []string{"heaviside"},
			DTypes: concatDTypes(smallInts, lowPrecisionFloats,
				[]dtypes.DType{dtypes.Complex64, dtypes.Complex128, dtypes.Bool}),
		},
		{
			Backend:  "paddle",
			Versions: paddle,
			Ops:      []string{"vstack"},
			DTypes:   []dtypes.DType{dtypes.Int16, dtypes.Uint16, dtypes.BFloat16, dtypes.Float16},
		},
		{Backend: "paddle", Versions: paddle, Ops: []string{"hstack"}, DTypes: []dtypes.DType{dtypes.Uint16, dtypes.BFloat16}},
		{
			Backend:  "paddle",
			Versions: paddle,
			Ops:      []string{"top_k"},
			DTypes:   []dtypes.DType{dtypes.Uint16, dtypes.BFloat16, dtypes.Complex64, dtypes.Complex128, dtypes.Bool},
		},
		{
			Backend:  "paddle",
			Versions: paddle,
			Device:   "cpu",
			Ops:      []string{"fliplr"},
			DTypes:   concatDTypes(smallInts, lowPrecisionFloats),
		},
		{
			Backend:  "paddle",
			Versions: paddle,
			Device:   "cpu",
			Ops:      []string{"expand"},
			DTypes:   []dtypes.DType{dtypes.Uint16, dtypes.BFloat16},
		},
		{
			Backend:        "paddle",
			Versions:       paddle,
			Ops:            []string{"flipud", "rot90", "i0", "vsplit", "dsplit", "hsplit", "dstack"},
			NotImplemented: true,
		},
		{
			Backend:  "tensorflow",
			Versions: tensorflow,
			Ops:      []string{"ApproximateEqual"},
			DTypes:   []dtypes.DType{dtypes.Float16, dtypes.Bool, dtypes.BFloat16},
		},
		{Backend: "tensorflow", Versions: tensorflow, Ops: []string{"Sign"}, DTypes: unsignedInts},
		{Backend: "tensorflow", Versions: tensorflow, Ops: []string{"Xlog1py"}, DTypes: []dtypes.DType{dtypes.BFloat16}},
	}
}

func init() {
	Default = MustNewTable(DefaultEntries()...)
	klog.V(1).Infof("capability: default table loaded with %d entries", len(Default.entries))
}
