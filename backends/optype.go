// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "strconv"

// OpType is an enum of all primitive operations that can be supported by a Backend.
//
// Kernels in pkg/compat compose these primitives, and a backend lists the ones it supports in its Capabilities.
type OpType int

const (
	OpTypeInvalid OpType = iota
	OpTypeConvertDType
	OpTypeFull
	OpTypeConcatenate
	OpTypePad
	OpTypeReduceWindow
	OpTypeFFT
	OpTypeGatherAlongAxis
	OpTypeTranspose
	OpTypeReshape
	OpTypeBroadcastTo
	OpTypeSlice
	OpTypeReverse
	OpTypeWhere
	OpTypeArgMinMax
	OpTypeArgSort
	OpTypeReal
	OpTypeImag
	OpTypeComplex

	// Unary element-wise operations.

	OpTypeAbs
	OpTypeNeg
	OpTypeSign
	OpTypeSqrt
	OpTypeExp
	OpTypeLog
	OpTypeSin
	OpTypeCos
	OpTypeAcos
	OpTypeAsin
	OpTypeAtan
	OpTypeFloor
	OpTypeCeil
	OpTypeConj
	OpTypeIsNaN
	OpTypeLogicalNot

	// Binary element-wise operations.

	OpTypeAdd
	OpTypeSub
	OpTypeMul
	OpTypeDiv
	OpTypeMax
	OpTypeMin
	OpTypePow
	OpTypeLogicalAnd
	OpTypeLogicalOr

	// Comparison operations: they return booleans.

	OpTypeEqual
	OpTypeNotEqual
	OpTypeLessThan
	OpTypeLessOrEqual
	OpTypeGreaterThan
	OpTypeGreaterOrEqual

	// OpTypeLast should always be kept the last, it is used as a counter/marker for OpType.
	OpTypeLast
)

var opTypeNames = [...]string{
	OpTypeInvalid:         "Invalid",
	OpTypeConvertDType:    "ConvertDType",
	OpTypeFull:            "Full",
	OpTypeConcatenate:     "Concatenate",
	OpTypePad:             "Pad",
	OpTypeReduceWindow:    "ReduceWindow",
	OpTypeFFT:             "FFT",
	OpTypeGatherAlongAxis: "GatherAlongAxis",
	OpTypeTranspose:       "Transpose",
	OpTypeReshape:         "Reshape",
	OpTypeBroadcastTo:     "BroadcastTo",
	OpTypeSlice:           "Slice",
	OpTypeReverse:         "Reverse",
	OpTypeWhere:           "Where",
	OpTypeArgMinMax:       "ArgMinMax",
	OpTypeArgSort:         "ArgSort",
	OpTypeReal:            "Real",
	OpTypeImag:            "Imag",
	OpTypeComplex:         "Complex",
	OpTypeAbs:             "Abs",
	OpTypeNeg:             "Neg",
	OpTypeSign:            "Sign",
	OpTypeSqrt:            "Sqrt",
	OpTypeExp:             "Exp",
	OpTypeLog:             "Log",
	OpTypeSin:             "Sin",
	OpTypeCos:             "Cos",
	OpTypeAcos:            "Acos",
	OpTypeAsin:            "Asin",
	OpTypeAtan:            "Atan",
	OpTypeFloor:           "Floor",
	OpTypeCeil:            "Ceil",
	OpTypeConj:            "Conj",
	OpTypeIsNaN:           "IsNaN",
	OpTypeLogicalNot:      "LogicalNot",
	OpTypeAdd:             "Add",
	OpTypeSub:             "Sub",
	OpTypeMul:             "Mul",
	OpTypeDiv:             "Div",
	OpTypeMax:             "Max",
	OpTypeMin:             "Min",
	OpTypePow:             "Pow",
	OpTypeLogicalAnd:      "LogicalAnd",
	OpTypeLogicalOr:       "LogicalOr",
	OpTypeEqual:           "Equal",
	OpTypeNotEqual:        "NotEqual",
	OpTypeLessThan:        "LessThan",
	OpTypeLessOrEqual:     "LessOrEqual",
	OpTypeGreaterThan:     "GreaterThan",
	OpTypeGreaterOrEqual:  "GreaterOrEqual",
	OpTypeLast:            "Last",
}

// String implements fmt.Stringer.
func (op OpType) String() string {
	if op < 0 || int(op) >= len(opTypeNames) || opTypeNames[op] == "" {
		return "OpType(" + strconv.Itoa(int(op)) + ")"
	}
	return opTypeNames[op]
}

// OpTypeValues returns all valid OpType values, excluding OpTypeInvalid and OpTypeLast.
func OpTypeValues() []OpType {
	ops := make([]OpType, 0, int(OpTypeLast)-1)
	for op := OpTypeInvalid + 1; op < OpTypeLast; op++ {
		ops = append(ops, op)
	}
	return ops
}
