// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package registry

import (
	"maps"
	"slices"

	"github.com/gomlx/arraycompat/pkg/compat"
	"github.com/gomlx/arraycompat/pkg/compat/normalize"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
)

// OutKwarg is the keyword argument holding the optional output tensor of any operation.
const OutKwarg = "out"

// Kwargs are the keyword arguments of an operation invocation.
//
// Values are tensors (*tensors.Tensor), lists of tensors ([]*tensors.Tensor), Go ints, []int, floats,
// bools or strings.
type Kwargs map[string]any

// Tensor returns the required tensor argument name.
func (kw Kwargs) Tensor(name string) (*tensors.Tensor, error) {
	value, found := kw[name]
	if !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	t, ok := value.(*tensors.Tensor)
	if !ok || t == nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a tensor, got %T", name, value)
	}
	return t, nil
}

// Tensors returns the required list of tensors argument name. A single tensor is taken as a list of one.
func (kw Kwargs) Tensors(name string) ([]*tensors.Tensor, error) {
	value, found := kw[name]
	if !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	switch v := value.(type) {
	case []*tensors.Tensor:
		return v, nil
	case *tensors.Tensor:
		return []*tensors.Tensor{v}, nil
	}
	return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a list of tensors, got %T", name, value)
}

// Int returns the integer argument name, or defaultValue if it is not set.
func (kw Kwargs) Int(name string, defaultValue int) (int, error) {
	value, found := kw[name]
	if !found {
		return defaultValue, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case *tensors.Tensor:
		if v.IsScalar() && v.DType().IsInt() {
			return scalarInt(v), nil
		}
	}
	return 0, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be an integer, got %T", name, value)
}

// RequiredInt returns the integer argument name, or an error if it is not set.
func (kw Kwargs) RequiredInt(name string) (int, error) {
	if _, found := kw[name]; !found {
		return 0, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	return kw.Int(name, 0)
}

// Ints returns the list of integers argument name. A single integer is taken as a list of one.
func (kw Kwargs) Ints(name string) ([]int, error) {
	value, found := kw[name]
	if !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	switch v := value.(type) {
	case []int:
		return v, nil
	case int:
		return []int{v}, nil
	case *tensors.Tensor:
		if v.DType().IsInt() && v.Rank() <= 1 {
			ints := make([]int, v.Size())
			for ii := range ints {
				ints[ii] = elementInt(v, ii)
			}
			return ints, nil
		}
	}
	return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a list of integers, got %T", name, value)
}

// Param returns the scalar-or-sequence argument name: a Go int is a normalize.Scalar, a []int a
// normalize.Sequence.
func (kw Kwargs) Param(name string) (normalize.Param, error) {
	value, found := kw[name]
	if !found {
		return normalize.Param{}, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	if v, ok := value.(int); ok {
		return normalize.Scalar(v), nil
	}
	ints, err := kw.Ints(name)
	if err != nil {
		return normalize.Param{}, err
	}
	return normalize.Sequence(ints...), nil
}

// Padding returns the padding argument name: a policy name ("SAME", "VALID"), an int for symmetric padding
// of every axis, or a [][2]int with per-axis pairs. If not set it returns the "VALID" policy.
func (kw Kwargs) Padding(name string) (normalize.Padding, error) {
	value, found := kw[name]
	if !found {
		return normalize.PadValid(), nil
	}
	switch v := value.(type) {
	case string:
		return normalize.ParsePadding(v)
	case int:
		return normalize.PadInt(v), nil
	case [2]int:
		return normalize.PadPair(v[0], v[1]), nil
	case [][2]int:
		return normalize.PadPairs(v...), nil
	case *tensors.Tensor:
		pairs, err := kw.Pairs(name)
		if err != nil {
			return normalize.Padding{}, err
		}
		return normalize.PadPairs(pairs...), nil
	}
	return normalize.Padding{}, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a padding, got %T", name, value)
}

// Pairs returns the list of integer pairs argument name, given as a [][2]int or as an integer tensor of
// shape [n, 2].
func (kw Kwargs) Pairs(name string) ([][2]int, error) {
	value, found := kw[name]
	if !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	switch v := value.(type) {
	case [][2]int:
		return v, nil
	case *tensors.Tensor:
		if v.DType().IsInt() && v.Rank() == 2 && v.Shape().Dim(1) == 2 {
			pairs := make([][2]int, v.Shape().Dim(0))
			for ii := range pairs {
				pairs[ii] = [2]int{elementInt(v, 2*ii), elementInt(v, 2*ii+1)}
			}
			return pairs, nil
		}
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be an integer tensor of shape [n, 2], got %s",
			name, v.Shape())
	}
	return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a list of integer pairs, got %T", name, value)
}

// Float returns the float argument name, or defaultValue if it is not set.
func (kw Kwargs) Float(name string, defaultValue float64) (float64, error) {
	value, found := kw[name]
	if !found {
		return defaultValue, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	}
	return 0, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a float, got %T", name, value)
}

// Floats returns the list of floats argument name. A single number is taken as a list of one.
func (kw Kwargs) Floats(name string) ([]float64, error) {
	value, found := kw[name]
	if !found {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "missing required argument %q", name)
	}
	switch v := value.(type) {
	case []float64:
		return v, nil
	case []int:
		floats := make([]float64, len(v))
		for ii, i := range v {
			floats[ii] = float64(i)
		}
		return floats, nil
	case *tensors.Tensor:
		if v.Rank() > 1 {
			break
		}
		floats := make([]float64, v.Size())
		switch flat := v.FlatAny().(type) {
		case []float32:
			for ii, f := range flat {
				floats[ii] = float64(f)
			}
			return floats, nil
		case []float64:
			copy(floats, flat)
			return floats, nil
		}
		if v.DType().IsInt() {
			for ii := range floats {
				floats[ii] = float64(elementInt(v, ii))
			}
			return floats, nil
		}
	}
	f, err := kw.Float(name, 0)
	if err != nil {
		return nil, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a list of floats, got %T", name, value)
	}
	return []float64{f}, nil
}

// Bool returns the boolean argument name, or defaultValue if it is not set.
func (kw Kwargs) Bool(name string, defaultValue bool) (bool, error) {
	value, found := kw[name]
	if !found {
		return defaultValue, nil
	}
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return false, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a bool, got %T", name, value)
}

// String returns the string argument name, or defaultValue if it is not set.
func (kw Kwargs) String(name string, defaultValue string) (string, error) {
	value, found := kw[name]
	if !found {
		return defaultValue, nil
	}
	if v, ok := value.(string); ok {
		return v, nil
	}
	return "", errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a string, got %T", name, value)
}

// DType returns the dtype argument name, given as a dtypes.DType or as a name (e.g. "int64"), or
// defaultValue if it is not set.
func (kw Kwargs) DType(name string, defaultValue dtypes.DType) (dtypes.DType, error) {
	value, found := kw[name]
	if !found || value == nil {
		return defaultValue, nil
	}
	switch v := value.(type) {
	case dtypes.DType:
		return v, nil
	case string:
		dtype, err := dtypes.FromName(v)
		if err != nil {
			return dtypes.InvalidDType, errors.Wrapf(compat.ErrInvalidArgument, "argument %q: unknown dtype %q", name, v)
		}
		return dtype, nil
	}
	return dtypes.InvalidDType, errors.Wrapf(compat.ErrInvalidArgument, "argument %q must be a dtype, got %T", name, value)
}

// DTypes returns the dtypes of all tensor arguments, in the order of the sorted argument names, excluding
// OutKwarg.
func (kw Kwargs) DTypes() []dtypes.DType {
	var used []dtypes.DType
	for _, name := range slices.Sorted(maps.Keys(kw)) {
		if name == OutKwarg {
			continue
		}
		switch v := kw[name].(type) {
		case *tensors.Tensor:
			if v != nil {
				used = append(used, v.DType())
			}
		case []*tensors.Tensor:
			for _, t := range v {
				used = append(used, t.DType())
			}
		}
	}
	return used
}

// scalarInt returns the value of an integer scalar tensor.
func scalarInt(t *tensors.Tensor) int {
	return elementInt(t, 0)
}

// elementInt returns the flat element ii of an integer tensor as an int.
func elementInt(t *tensors.Tensor, ii int) int {
	switch flat := t.FlatAny().(type) {
	case []int8:
		return int(flat[ii])
	case []int16:
		return int(flat[ii])
	case []int32:
		return int(flat[ii])
	case []int64:
		return int(flat[ii])
	case []uint8:
		return int(flat[ii])
	case []uint16:
		return int(flat[ii])
	case []uint32:
		return int(flat[ii])
	case []uint64:
		return int(flat[ii])
	}
	return 0
}
