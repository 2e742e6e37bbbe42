// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package setops implements the unique family of set operations over the flattened input: sorted unique
// values, their counts, the index of their first occurrence and the inverse indices that rebuild the input.
//
// NaN values are never equal to each other, so each NaN is a distinct unique value, sorted last.
package setops

import (
	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/capability"
	"github.com/gomlx/arraycompat/pkg/core/shapes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Unique holds the results of UniqueAll. All index tensors are Int64.
type Unique struct {
	// Values are the sorted unique values, shaped [numUnique].
	Values *tensors.Tensor

	// Indices of the first occurrence of each unique value in the flattened input, shaped [numUnique].
	Indices *tensors.Tensor

	// InverseIndices has the shape of the input: Values[InverseIndices] rebuilds the input.
	InverseIndices *tensors.Tensor

	// Counts of each unique value in the input, shaped [numUnique].
	Counts *tensors.Tensor
}

// groups describes the runs of equal values of the sorted flattened input.
type groups struct {
	// order that sorts the flattened input.
	order []int64

	// starts of each group, as positions of the sorted input.
	starts []int64

	// groupOf each position of the sorted input.
	groupOf []int64
}

func (g *groups) numUnique() int { return len(g.starts) }

// group sorts the flattened x and splits it into runs of equal values.
func group(b backends.Backend, opName string, x *tensors.Tensor) (flat *tensors.Tensor, g *groups, err error) {
	if err = capability.For(b).Check(b, opName, x.DType()); err != nil {
		return
	}
	if x.DType().IsComplex() {
		err = errors.Wrapf(compat.ErrUnsupportedConfiguration, "%s requires an ordered dtype, got %s", opName, x.DType())
		return
	}
	n := x.Size()
	if flat, err = b.Reshape(x, n); err != nil {
		return
	}
	g = &groups{}
	if n == 0 {
		return
	}
	orderT, err := b.ArgSort(flat, 0, false)
	if err != nil {
		return
	}
	sorted, err := b.GatherAlongAxis(flat, orderT, 0)
	if err != nil {
		return
	}
	g.order = tensors.Flat[int64](orderT)

	// isNew[i] is whether sorted[i+1] differs from sorted[i]. NaN != NaN, so NaNs are never grouped.
	previous, err := b.Slice(sorted, []int{0}, []int{n - 1}, []int{1})
	if err != nil {
		return
	}
	next, err := b.Slice(sorted, []int{1}, []int{n}, []int{1})
	if err != nil {
		return
	}
	isNewT, err := b.Binary(backends.OpTypeNotEqual, next, previous)
	if err != nil {
		return
	}
	isNew := tensors.Flat[bool](isNewT)
	g.starts = append(g.starts, 0)
	g.groupOf = make([]int64, n)
	for ii, isNewValue := range isNew {
		if isNewValue {
			g.starts = append(g.starts, int64(ii+1))
		}
		g.groupOf[ii+1] = int64(len(g.starts) - 1)
	}
	klog.V(2).Infof("%s: %d unique values in %s", opName, len(g.starts), x.Shape())
	return
}

// values gathers the first element of each group.
func (g *groups) values(b backends.Backend, flat *tensors.Tensor) (*tensors.Tensor, error) {
	if g.numUnique() == 0 {
		return b.Full(shapes.Make(flat.DType(), 0), 0)
	}
	return b.GatherAlongAxis(flat, g.firstOccurrences(), 0)
}

// firstOccurrences returns the index in the flattened input of the first occurrence of each group.
// ArgSort is stable, so it is the first element of the group.
func (g *groups) firstOccurrences() *tensors.Tensor {
	indices := make([]int64, len(g.starts))
	for ii, start := range g.starts {
		indices[ii] = g.order[start]
	}
	return tensors.FromFlatDataAndDimensions(indices, len(indices))
}

func (g *groups) counts() *tensors.Tensor {
	counts := make([]int64, len(g.starts))
	for ii, start := range g.starts {
		end := int64(len(g.order))
		if ii+1 < len(g.starts) {
			end = g.starts[ii+1]
		}
		counts[ii] = end - start
	}
	return tensors.FromFlatDataAndDimensions(counts, len(counts))
}

func (g *groups) inverse(dims []int) *tensors.Tensor {
	inverse := make([]int64, len(g.order))
	for sortedPos, original := range g.order {
		inverse[original] = g.groupOf[sortedPos]
	}
	return tensors.FromFlatDataAndDimensions(inverse, dims...)
}

// UniqueValues returns the sorted unique values of the flattened x.
func UniqueValues(b backends.Backend, x *tensors.Tensor) (*tensors.Tensor, error) {
	flat, g, err := group(b, "unique_values", x)
	if err != nil {
		return nil, err
	}
	return g.values(b, flat)
}

// UniqueCounts returns the sorted unique values of the flattened x, and the number of times each appears.
func UniqueCounts(b backends.Backend, x *tensors.Tensor) (values, counts *tensors.Tensor, err error) {
	flat, g, err := group(b, "unique_counts", x)
	if err != nil {
		return
	}
	if values, err = g.values(b, flat); err != nil {
		return
	}
	counts = g.counts()
	return
}

// UniqueInverse returns the sorted unique values of the flattened x, and for each element of x the index of
// its value in values: the inverse indices have the shape of x.
func UniqueInverse(b backends.Backend, x *tensors.Tensor) (values, inverse *tensors.Tensor, err error) {
	flat, g, err := group(b, "unique_inverse", x)
	if err != nil {
		return
	}
	if values, err = g.values(b, flat); err != nil {
		return
	}
	inverse = g.inverse(x.Shape().Dimensions)
	return
}

// UniqueAll returns the sorted unique values of the flattened x, with the index of their first occurrence,
// the inverse indices and the counts.
func UniqueAll(b backends.Backend, x *tensors.Tensor) (Unique, error) {
	var u Unique
	flat, g, err := group(b, "unique_all", x)
	if err != nil {
		return u, err
	}
	if u.Values, err = g.values(b, flat); err != nil {
		return u, err
	}
	u.Indices = g.firstOccurrences()
	u.InverseIndices = g.inverse(x.Shape().Dimensions)
	u.Counts = g.counts()
	return u, nil
}
