// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gridcalc

import (
	"math"
)

// Helpers shared by the built-in functions. Argument helpers return the value
// to short-circuit with, a cell error, alongside the converted argument.

var (
	errValue = &ErrorValue{ErrValue}
	errNum   = &ErrorValue{ErrNum}
	errDiv0  = &ErrorValue{ErrDiv0}
	errNa    = &ErrorValue{ErrNa}
	errRef   = &ErrorValue{ErrRef}
)

func firstError(args ...Value) *ErrorValue {
	for _, arg := range args {
		if e, ok := arg.(*ErrorValue); ok {
			return e
		}
	}
	return nil
}

// numberArg converts a scalar argument to a number the way arithmetic does.
// Arrays and non-numeric text are #VALUE!.
func numberArg(arg Value) (float64, *ErrorValue) {
	switch v := arg.(type) {
	case *ErrorValue:
		return 0, v
	case *Array:
		return 0, errValue
	}
	n, ok := asNumber(arg)
	if !ok {
		return 0, errValue
	}
	return n, nil
}

// optNumberArg reads an optional numeric argument, defaulting when it is
// missing or blank.
func optNumberArg(args []Value, i int, def float64) (float64, *ErrorValue) {
	if i >= len(args) {
		return def, nil
	}
	if _, ok := args[i].(*Empty); ok {
		return def, nil
	}
	return numberArg(args[i])
}

// intArg truncates a numeric argument toward zero.
func intArg(arg Value) (int, *ErrorValue) {
	n, e := numberArg(arg)
	if e != nil {
		return 0, e
	}
	return int(math.Trunc(n)), nil
}

func optIntArg(args []Value, i int, def int) (int, *ErrorValue) {
	n, e := optNumberArg(args, i, float64(def))
	if e != nil {
		return 0, e
	}
	return int(math.Trunc(n)), nil
}

// textArg converts a scalar argument to its display text.
func textArg(arg Value) (string, *ErrorValue) {
	switch v := arg.(type) {
	case *ErrorValue:
		return "", v
	case *Array:
		return "", errValue
	}
	return arg.String(), nil
}

// grid views any value as rows of cells, a scalar being a 1x1 grid.
func grid(arg Value) [][]Value {
	if arr, ok := arg.(*Array); ok {
		return arr.rows
	}
	return [][]Value{{arg}}
}

func gridDims(g [][]Value) (int, int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// eachNumber visits the numbers of the arguments, expanding arrays. Text,
// booleans and blanks are skipped, and the first error stops the walk.
func eachNumber(args []Value, fn func(float64)) *ErrorValue {
	for _, arg := range flatten(args) {
		switch v := arg.(type) {
		case *Number:
			fn(v.value)
		case *ErrorValue:
			return v
		}
	}
	return nil
}

func numResult(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return errNum
	}
	return &Number{n}
}

// unary wraps a function of one number.
func unary(fn func(n float64) Value) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		n, e := numberArg(args[0])
		if e != nil {
			return e, nil
		}
		return fn(n), nil
	}
}

func constant(value Value) func(*Context, []Value) (Value, error) {
	return func(ctx *Context, args []Value) (Value, error) {
		return value, nil
	}
}
