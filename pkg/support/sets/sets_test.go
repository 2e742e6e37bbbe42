// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := Make[int](10)
	assert.Len(t, s, 0)

	s.Insert(3, 7)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.False(t, s.Has(5))

	s2 := MakeWith(5, 7)
	s3 := s.Sub(s2)
	assert.True(t, s3.Equal(MakeWith(3)))
	assert.False(t, s3.Equal(s2))

	union := s.Union(s2)
	assert.Equal(t, []int{3, 5, 7}, SortedOrdered(union))
	assert.Equal(t, []int{7, 5, 3}, union.Sorted(func(a, b int) int { return cmp.Compare(b, a) }))

	var nilSet Set[string]
	assert.False(t, nilSet.Has("x"))
}
