// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/gomlx/arraycompat/pkg/core/dtypes/bfloat16"
	"github.com/x448/float16"
)

// TensorStringDefaultPrecision is the number of significant digits used by Tensor.String.
const TensorStringDefaultPrecision = 4

// summaryEdgeItems is the number of leading and trailing items printed for axes that are too long.
const summaryEdgeItems = 3

var (
	typeFloat16  = reflect.TypeOf(float16.Float16(0))
	typeBFloat16 = reflect.TypeOf(bfloat16.BFloat16(0))
)

// String converts to string, eliding values of large axes. It uses t.Summary(precision=4).
func (t *Tensor) String() string {
	return t.Summary(TensorStringDefaultPrecision)
}

// Summary returns a multi-line summary of the Tensor's content.
// Inspired by numpy output.
func (t *Tensor) Summary(precision int) string {
	if t.shape.IsZeroSize() {
		return t.shape.String()
	}
	var buf bytes.Buffer
	w := func(format string, args ...any) { _, _ = fmt.Fprintf(&buf, format, args...) }
	wValue := func(v reflect.Value) {
		switch {
		case v.Type() == typeFloat16:
			w("%.*g", precision, v.Interface().(float16.Float16).Float32())
			return
		case v.Type() == typeBFloat16:
			w("%.*g", precision, v.Interface().(bfloat16.BFloat16).Float32())
			return
		}
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			w("%d", v.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			w("%d", v.Uint())
		case reflect.Complex64, reflect.Complex128:
			c := v.Complex()
			w("(%.*g%+.*gi)", precision, real(c), precision, imag(c))
		case reflect.Bool:
			w("%v", v.Bool())
		default:
			w("%.*g", precision, v.Interface())
		}
	}

	values := reflect.ValueOf(t.flat)
	dims := t.shape.Dimensions
	w("%s", t.shape)
	if len(dims) == 0 {
		w("(")
		wValue(values.Index(0))
		w(")")
		return buf.String()
	}
	strides := t.shape.Strides()

	// printAxis prints the sub-tensor starting at flat position index, for axis and onwards.
	var printAxis func(index, axis int)
	printAxis = func(index, axis int) {
		dim := dims[axis]
		indentStr := strings.Repeat(" ", axis+1)
		separator := ", "
		if axis < len(dims)-1 {
			separator = ",\n" + indentStr
		}
		w("{")
		for ii := 0; ii < dim; ii++ {
			if ii > 0 {
				w("%s", separator)
			}
			if dim > 2*summaryEdgeItems && ii == summaryEdgeItems {
				w("...%s", separator)
				ii = dim - summaryEdgeItems
			}
			if axis == len(dims)-1 {
				wValue(values.Index(index + ii))
			} else {
				printAxis(index+ii*strides[axis], axis+1)
			}
		}
		w("}")
	}
	printAxis(0, 0)
	return buf.String()
}
