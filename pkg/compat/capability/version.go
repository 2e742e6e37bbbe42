// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package capability

import (
	"strings"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// Range is an inclusive range of framework versions. An empty bound is unbounded.
//
// Bounds are kept in canonical semver form ("v1.11.0").
type Range struct {
	Low, High string
}

// AnyVersion covers every version.
var AnyVersion = Range{}

// canonicalVersion converts "1.11.0" or "v1.11.0" to the canonical semver "v1.11.0".
func canonicalVersion(version string) (string, error) {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", errors.Wrapf(compat.ErrInvalidArgument, "invalid version %q", version)
	}
	return semver.Canonical(v), nil
}

// ParseRange parses version ranges in the forms:
//
//   - "X.Y.Z and below": X.Y.Z and every earlier version.
//   - "X.Y.Z and above": X.Y.Z and every later version.
//   - "X.Y.Z to A.B.C": from X.Y.Z to A.B.C, inclusive.
//   - "X.Y.Z": only X.Y.Z.
func ParseRange(text string) (Range, error) {
	text = strings.TrimSpace(text)
	var low, high string
	switch {
	case strings.HasSuffix(text, " and below"):
		high = strings.TrimSuffix(text, " and below")
	case strings.HasSuffix(text, " and above"):
		low = strings.TrimSuffix(text, " and above")
	case strings.Contains(text, " to "):
		low, high, _ = strings.Cut(text, " to ")
	default:
		low, high = text, text
	}
	var r Range
	var err error
	if low != "" {
		if r.Low, err = canonicalVersion(low); err != nil {
			return Range{}, errors.WithMessagef(err, "parsing version range %q", text)
		}
	}
	if high != "" {
		if r.High, err = canonicalVersion(high); err != nil {
			return Range{}, errors.WithMessagef(err, "parsing version range %q", text)
		}
	}
	if r.Low != "" && r.High != "" && semver.Compare(r.Low, r.High) > 0 {
		return Range{}, errors.Wrapf(compat.ErrInvalidArgument, "empty version range %q", text)
	}
	return r, nil
}

// MustParseRange is like ParseRange, but panics on error.
func MustParseRange(text string) Range {
	r, err := ParseRange(text)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains returns whether version is within the range. Invalid versions are never contained.
func (r Range) Contains(version string) bool {
	v, err := canonicalVersion(version)
	if err != nil {
		return false
	}
	if r.Low != "" && semver.Compare(v, r.Low) < 0 {
		return false
	}
	if r.High != "" && semver.Compare(v, r.High) > 0 {
		return false
	}
	return true
}

// narrower returns whether r is a more specific range than other: the one with the lowest upper bound,
// or the highest lower bound for equal upper bounds.
func (r Range) narrower(other Range) bool {
	switch {
	case r.High != other.High:
		if r.High == "" {
			return false
		}
		return other.High == "" || semver.Compare(r.High, other.High) < 0
	case r.Low != other.Low:
		if r.Low == "" {
			return false
		}
		return other.Low == "" || semver.Compare(r.Low, other.Low) > 0
	}
	return false
}

// String implements fmt.Stringer, using the same format accepted by ParseRange.
func (r Range) String() string {
	low, high := strings.TrimPrefix(r.Low, "v"), strings.TrimPrefix(r.High, "v")
	switch {
	case low == "" && high == "":
		return "all versions"
	case low == "":
		return high + " and below"
	case high == "":
		return low + " and above"
	case low == high:
		return low
	}
	return low + " to " + high
}
