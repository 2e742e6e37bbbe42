// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"slices"
	"strings"

	"github.com/gomlx/arraycompat/backends"
	"github.com/gomlx/arraycompat/pkg/compat/registry"
	"github.com/gomlx/arraycompat/pkg/core/dtypes"
	"github.com/gomlx/arraycompat/pkg/core/tensors"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// parseKwargs parses the arguments of an operation, each one formatted "name[:dtype]=value".
//
// Values are YAML literals: scalars become Go ints, floats, bools or strings, and (nested) lists become
// tensors, of Int64 if all values are integers, Bool if all are booleans, Float64 otherwise. The optional
// dtype converts the value to a tensor of that dtype, also for scalars.
//
// An argument name given more than once is a list of tensors (e.g. "arrays=[1,2] arrays=[3,4]").
func parseKwargs(b backends.Backend, args []string) (registry.Kwargs, error) {
	kwargs := make(registry.Kwargs, len(args))
	for _, arg := range args {
		key, literal, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, errors.Errorf("invalid argument %q, expected name[:dtype]=value", arg)
		}
		name, dtypeName, hasDType := strings.Cut(key, ":")
		var node any
		if err := yaml.Unmarshal([]byte(literal), &node); err != nil {
			return nil, errors.Wrapf(err, "parsing value of argument %q", name)
		}
		value, err := literalValue(b, node, dtypeName, hasDType)
		if err != nil {
			return nil, errors.WithMessagef(err, "argument %q", name)
		}
		previous, repeated := kwargs[name]
		if !repeated {
			kwargs[name] = value
			continue
		}
		t, ok := value.(*tensors.Tensor)
		if !ok {
			return nil, errors.Errorf("argument %q given more than once, but it is not a tensor", name)
		}
		switch p := previous.(type) {
		case *tensors.Tensor:
			kwargs[name] = []*tensors.Tensor{p, t}
		case []*tensors.Tensor:
			kwargs[name] = append(p, t)
		default:
			return nil, errors.Errorf("argument %q given more than once, but it is not a tensor", name)
		}
	}
	return kwargs, nil
}

// literalValue converts a parsed YAML node to an argument value.
func literalValue(b backends.Backend, node any, dtypeName string, hasDType bool) (any, error) {
	_, isList := node.([]any)
	if !isList && !hasDType {
		switch v := node.(type) {
		case int, float64, bool, string:
			return v, nil
		case nil:
			return nil, nil
		}
		return nil, errors.Errorf("unsupported value %v (%T)", node, node)
	}
	dims, err := literalDims(node)
	if err != nil {
		return nil, err
	}
	var leaves []any
	flattenLiteral(node, &leaves)
	t, err := literalTensor(leaves, dims)
	if err != nil {
		return nil, err
	}
	if !hasDType {
		return t, nil
	}
	dtype, err := dtypes.FromName(dtypeName)
	if err != nil {
		return nil, err
	}
	if t.DType() == dtype {
		return t, nil
	}
	return b.ConvertDType(t, dtype)
}

// literalDims returns the dimensions of a (nested) list, which must be rectangular.
func literalDims(node any) ([]int, error) {
	list, isList := node.([]any)
	if !isList {
		return nil, nil
	}
	if len(list) == 0 {
		return []int{0}, nil
	}
	inner, err := literalDims(list[0])
	if err != nil {
		return nil, err
	}
	for _, element := range list[1:] {
		dims, err := literalDims(element)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(dims, inner) {
			return nil, errors.Errorf("list is not rectangular: elements with dimensions %v and %v", inner, dims)
		}
	}
	return append([]int{len(list)}, inner...), nil
}

func flattenLiteral(node any, leaves *[]any) {
	if list, isList := node.([]any); isList {
		for _, element := range list {
			flattenLiteral(element, leaves)
		}
		return
	}
	*leaves = append(*leaves, node)
}

// literalTensor creates the tensor with the leaves of a literal: Bool if all are booleans, Int64 if all are
// integers and Float64 otherwise.
func literalTensor(leaves []any, dims []int) (*tensors.Tensor, error) {
	allBool, allInt := len(leaves) > 0, true
	for _, leaf := range leaves {
		switch leaf.(type) {
		case bool:
			allInt = false
		case int:
			allBool = false
		case float64:
			allBool, allInt = false, false
		default:
			return nil, errors.Errorf("unsupported tensor element %v (%T)", leaf, leaf)
		}
	}
	switch {
	case allBool:
		flat := make([]bool, len(leaves))
		for ii, leaf := range leaves {
			flat[ii] = leaf.(bool)
		}
		return tensors.FromFlatDataAndDimensions(flat, dims...), nil
	case allInt:
		flat := make([]int64, len(leaves))
		for ii, leaf := range leaves {
			flat[ii] = int64(leaf.(int))
		}
		return tensors.FromFlatDataAndDimensions(flat, dims...), nil
	}
	flat := make([]float64, len(leaves))
	for ii, leaf := range leaves {
		switch v := leaf.(type) {
		case int:
			flat[ii] = float64(v)
		case float64:
			flat[ii] = v
		default:
			return nil, errors.Errorf("cannot mix %v (%T) with numbers", leaf, leaf)
		}
	}
	return tensors.FromFlatDataAndDimensions(flat, dims...), nil
}
