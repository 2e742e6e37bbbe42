// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"fmt"
	"strings"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/pkg/errors"
)

// Policy is a named padding policy.
type Policy int

const (
	// Explicit padding is given as integers.
	Explicit Policy = iota

	// Same pads the input so that the output size is ceil(input/stride), splitting the total padding
	// with the extra unit on the high side.
	Same

	// Valid doesn't pad.
	Valid
)

var policyNames = map[Policy]string{
	Explicit: "explicit",
	Same:     "same",
	Valid:    "valid",
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if name, found := policyNames[p]; found {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// paddingKind enumerates the forms a Padding can be given in.
type paddingKind int

const (
	paddingUnset paddingKind = iota
	paddingInt
	paddingPair
	paddingPairs
	paddingPolicy
)

// Padding is a tagged union of the forms paddings can be given in: a single integer for every axis and side,
// a (low, high) pair for every axis, a list with one (low, high) pair per axis, or a named Policy.
//
// Create it with PadInt, PadPair, PadPairs, PadPolicy, PadSame, PadValid or ParsePadding. The zero value means no padding.
type Padding struct {
	kind   paddingKind
	pairs  [][2]int
	policy Policy
}

// PadInt pads every axis with value on both sides.
func PadInt(value int) Padding {
	return Padding{kind: paddingInt, pairs: [][2]int{{value, value}}}
}

// PadPair pads every axis with low on the low side and high on the high side.
func PadPair(low, high int) Padding {
	return Padding{kind: paddingPair, pairs: [][2]int{{low, high}}}
}

// PadPairs pads each axis with its own (low, high) pair. A single pair is broadcast to every axis.
func PadPairs(pairs ...[2]int) Padding {
	cloned := make([][2]int, len(pairs))
	copy(cloned, pairs)
	return Padding{kind: paddingPairs, pairs: cloned}
}

// PadPolicy returns a named padding policy. Explicit returns the zero Padding, with no padding.
func PadPolicy(policy Policy) Padding {
	if policy == Explicit {
		return Padding{}
	}
	return Padding{kind: paddingPolicy, policy: policy}
}

// PadSame returns the Same padding policy.
func PadSame() Padding {
	return Padding{kind: paddingPolicy, policy: Same}
}

// PadValid returns the Valid padding policy.
func PadValid() Padding {
	return Padding{kind: paddingPolicy, policy: Valid}
}

// ParsePadding parses the named policies "SAME" and "VALID" (case-insensitive).
func ParsePadding(name string) (Padding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SAME":
		return PadSame(), nil
	case "VALID":
		return PadValid(), nil
	}
	return Padding{}, errors.Wrapf(compat.ErrInvalidParameterShape, "unknown padding policy %q, expected \"SAME\" or \"VALID\"", name)
}

// Policy returns the policy of the padding: Explicit for padding given as integers.
func (p Padding) Policy() Policy {
	if p.kind == paddingPolicy {
		return p.policy
	}
	return Explicit
}

// String implements fmt.Stringer.
func (p Padding) String() string {
	switch p.kind {
	case paddingUnset:
		return "no padding"
	case paddingInt:
		return fmt.Sprintf("%d", p.pairs[0][0])
	case paddingPair:
		return fmt.Sprintf("(%d, %d)", p.pairs[0][0], p.pairs[0][1])
	case paddingPairs:
		return fmt.Sprintf("%v", p.pairs)
	}
	return strings.ToUpper(p.policy.String())
}

// Resolve returns the explicit (low, high) padding for each of rank axes.
//
// It returns an error wrapping compat.ErrInvalidParameterShape for named policies, for lists of pairs whose
// length is neither 1 nor rank, and for negative values.
func (p Padding) Resolve(rank int) ([][2]int, error) {
	if p.kind == paddingPolicy {
		return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "padding policy %s must be resolved with the input dimensions", p)
	}
	pads := make([][2]int, rank)
	switch {
	case p.kind == paddingUnset:
		return pads, nil
	case len(p.pairs) == 1:
		for axis := range pads {
			pads[axis] = p.pairs[0]
		}
	case len(p.pairs) == rank:
		copy(pads, p.pairs)
	default:
		return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "padding %s has %d pairs, expected 1 or %d", p, len(p.pairs), rank)
	}
	for axis, pair := range pads {
		if pair[0] < 0 || pair[1] < 0 {
			return nil, errors.Wrapf(compat.ErrInvalidParameterShape, "padding must be non-negative, got %v for axis %d", pair, axis)
		}
	}
	return pads, nil
}

// CheckKernelPadding checks that each side of the padding of each axis is at most half of the kernel size
// of that axis. Otherwise, it returns an error wrapping compat.ErrIncompatibleKernelPadding.
func CheckKernelPadding(kernel []int, pads [][2]int) error {
	for axis, pair := range pads {
		half := kernel[axis] / 2
		if pair[0] > half || pair[1] > half {
			return errors.Wrapf(compat.ErrIncompatibleKernelPadding,
				"padding %v for axis %d should be at most half of the kernel size %d", pair, axis, kernel[axis])
		}
	}
	return nil
}

// CheckKernelFits checks that the effective (dilated) kernel fits the padded input, on every axis.
// Otherwise, it returns an error wrapping compat.ErrIncompatibleKernelPadding.
func CheckKernelFits(inputDims, effectiveKernel []int, pads [][2]int) error {
	for axis, dim := range inputDims {
		padded := dim + pads[axis][0] + pads[axis][1]
		if effectiveKernel[axis] > padded {
			return errors.Wrapf(compat.ErrIncompatibleKernelPadding,
				"effective kernel size %d is larger than the padded input size %d for axis %d", effectiveKernel[axis], padded, axis)
		}
	}
	return nil
}
