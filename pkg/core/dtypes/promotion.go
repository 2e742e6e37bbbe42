// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dtypes

import "github.com/pkg/errors"

// Promote returns the dtype both lhs and rhs can be converted to, following a total promotion order:
//
//   - Identical dtypes pass through.
//   - Bool promotes to the other dtype.
//   - Integers of the same signedness promote to the widest one.
//   - Unsigned with signed integers promote to the smallest signed integer that holds both ranges
//     (Uint8+Int8 → Int16, Uint32+Int32 → Int64); Uint64 with any signed integer promotes to Float64.
//   - Integers with floats (or complex numbers) promote to the float (or complex) dtype.
//   - Float16 with BFloat16 promotes to Float32; other float pairs promote to the widest.
//   - Floats with complex numbers promote to the complex dtype wide enough for the float: Float64+Complex64 → Complex128.
//
// The table is commutative: Promote(a, b) == Promote(b, a).
// It returns an error if either dtype is not valid.
func Promote(lhs, rhs DType) (DType, error) {
	if !lhs.IsValid() || !rhs.IsValid() {
		return InvalidDType, errors.Errorf("cannot promote invalid dtypes %s and %s", lhs, rhs)
	}
	if lhs == rhs {
		return lhs, nil
	}
	if rank(lhs) > rank(rhs) {
		lhs, rhs = rhs, lhs
	}
	// From here on, rhs is the "higher" category.
	switch {
	case lhs == Bool:
		return rhs, nil

	case lhs.IsInt() && rhs.IsInt():
		return promoteInts(lhs, rhs), nil

	case lhs.IsInt():
		// rhs is a float or complex.
		return rhs, nil

	case lhs.IsFloat() && rhs.IsFloat():
		if lhs.IsFloat16() && rhs.IsFloat16() {
			return Float32, nil
		}
		return widest(lhs, rhs), nil

	case lhs.IsFloat() && rhs.IsComplex():
		if lhs == Float64 {
			return Complex128, nil
		}
		return rhs, nil

	default:
		// Both complex.
		return widest(lhs, rhs), nil
	}
}

// MustPromote is like Promote, but panics in case of error.
func MustPromote(lhs, rhs DType) DType {
	dtype, err := Promote(lhs, rhs)
	if err != nil {
		panic(err)
	}
	return dtype
}

// rank orders the categories of dtypes: bool < integers < floats < complex.
func rank(dtype DType) int {
	switch {
	case dtype == Bool:
		return 0
	case dtype.IsInt():
		return 1
	case dtype.IsFloat():
		return 2
	default:
		return 3
	}
}

// widest returns whichever of lhs and rhs the other can be promoted to. Both must be of the same category.
func widest(lhs, rhs DType) DType {
	if lhs.IsPromotableTo(rhs) {
		return rhs
	}
	return lhs
}

var signedIntByBits = map[int]DType{8: Int8, 16: Int16, 32: Int32, 64: Int64}

func promoteInts(lhs, rhs DType) DType {
	if lhs.IsUnsigned() == rhs.IsUnsigned() {
		return widest(lhs, rhs)
	}
	unsigned, signed := lhs, rhs
	if signed.IsUnsigned() {
		unsigned, signed = signed, unsigned
	}
	if signed.Bits() > unsigned.Bits() {
		return signed
	}
	if unsigned == Uint64 {
		return Float64
	}
	return signedIntByBits[2*unsigned.Bits()]
}
